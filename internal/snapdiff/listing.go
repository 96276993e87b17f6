package snapdiff

import (
	"fmt"
	"sort"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/bianoble/bundlepack/internal/store"
)

// Listing returns one "manifest/bundle hash size" line per bundle, sorted.
func Listing(b *store.BuildRecord) []string {
	var lines []string
	for _, m := range b.Manifests {
		for _, br := range m.Bundles {
			lines = append(lines, fmt.Sprintf("%s/%s %s %d\n", m.Name, br.Name, br.Hash, br.Size))
		}
	}
	sort.Strings(lines)
	return lines
}

// UnifiedListing renders a unified diff of the two builds' listings.
func UnifiedListing(older, newer *store.BuildRecord, context int) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        Listing(older),
		B:        Listing(newer),
		FromFile: fmt.Sprintf("version %d", older.Version),
		ToFile:   fmt.Sprintf("version %d", newer.Version),
		Context:  context,
	})
}
