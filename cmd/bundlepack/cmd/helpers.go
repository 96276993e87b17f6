package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bianoble/bundlepack/internal/config"
	"github.com/bianoble/bundlepack/internal/engine"
	"github.com/bianoble/bundlepack/internal/logger"
	"github.com/bianoble/bundlepack/internal/progress"
)

// loadConfigHierarchical reads the config layers and applies overrides.
func loadConfigHierarchical() (*config.HierarchicalResult, error) {
	var (
		hr  *config.HierarchicalResult
		err error
	)
	if noInherit {
		var cfg *config.Config
		cfg, err = config.Load(configPath)
		if err == nil {
			hr = &config.HierarchicalResult{
				Config: cfg,
				Layers: []config.ConfigLayerInfo{{Path: configPath, Level: config.LevelProject, Loaded: true}},
			}
		}
	} else {
		hr, err = config.LoadHierarchical(config.DiscoverOptions{ProjectPath: configPath})
	}
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", configPath, err)
	}
	config.ApplyOverrides(hr.Config, overrides)
	return hr, nil
}

// projectRoot returns the directory containing the config file.
func projectRoot() (string, error) {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return "", fmt.Errorf("resolving config path: %w", err)
	}
	return filepath.Dir(abs), nil
}

// newWorkspace loads the config and binds it to the project root.
func newWorkspace() (*engine.Workspace, error) {
	hr, err := loadConfigHierarchical()
	if err != nil {
		return nil, err
	}
	root, err := projectRoot()
	if err != nil {
		return nil, err
	}
	return engine.NewWorkspace(hr.Config, root, logger.Default()), nil
}

// newReporter prints phase progress in verbose mode at every tenth.
func newReporter() progress.Reporter {
	if !verbose {
		return nil
	}
	last := make(map[string]int)
	return func(p progress.Progress) {
		tenth := int(p.Fraction() * 10)
		if seen, ok := last[p.Phase]; ok && seen == tenth {
			return
		}
		last[p.Phase] = tenth
		detail("%s %d/%d", p.Phase, p.Done, p.Total)
	}
}

// cancelled reports a cooperative abort. It is not a failure.
func cancelled(err error) bool {
	if errors.Is(err, progress.ErrCancelled) {
		info("Cancelled; nothing was written.")
		return true
	}
	return false
}

// info prints a line unless quiet mode is active.
func info(format string, args ...any) {
	if !quiet {
		fmt.Printf(format+"\n", args...)
	}
}

// detail prints a line only in verbose mode.
func detail(format string, args ...any) {
	if verbose {
		fmt.Printf("  "+format+"\n", args...)
	}
}

// errorf prints an error message to stderr.
func errorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}

func humanSize(bytes int64) string {
	if bytes == 0 {
		return "0 B"
	}
	units := []string{"B", "KB", "MB", "GB"}
	size := float64(bytes)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d B", bytes)
	}
	return fmt.Sprintf("%.1f %s", size, units[i])
}
