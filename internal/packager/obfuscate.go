package packager

import (
	"crypto/sha256"
	"fmt"
	"os"

	"github.com/bianoble/bundlepack/internal/sandbox"
)

// Obfuscator prefixes an artifact with Offset bytes of padding derived from
// its content. Loaders skip the first Offset bytes.
type Obfuscator struct {
	Offset int
}

// Process pads the artifact at root/rel.
func (o Obfuscator) Process(root, rel string) error {
	resolved, err := sandbox.ValidatePath(root, rel)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return fmt.Errorf("reading %s: %w", rel, err)
	}
	out := append(Padding(data, o.Offset), data...)
	return sandbox.SafeWrite(root, rel, out, 0644)
}

// Padding returns n deterministic bytes for data.
func Padding(data []byte, n int) []byte {
	if n <= 0 {
		return nil
	}
	seed := sha256.Sum256(data)
	pad := make([]byte, n)
	for i := range pad {
		pad[i] = seed[i%len(seed)]
	}
	return pad
}
