// Package bundlepack provides the public Go library API for bundlepack.
//
// bundlepack groups an asset tree into content-addressed bundles, keeps a
// monotonically increasing version lineage of what it published and
// compares any two recorded versions.
//
// # Basic Usage
//
//	client, err := bundlepack.New(bundlepack.Options{
//	    ConfigPath: "bundlepack.yaml",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	out, result := client.PackageAll(ctx)
//	if !out.Success {
//	    log.Fatal(out.Error)
//	}
//
//	out, report := client.Diff(ctx, 0, 0)
package bundlepack

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/bianoble/bundlepack/internal/config"
	"github.com/bianoble/bundlepack/internal/engine"
	"github.com/bianoble/bundlepack/internal/logger"
	"github.com/bianoble/bundlepack/internal/progress"
	"github.com/spf13/viper"
)

// Outcome is the result contract of the automation operations. A cancelled
// run is not a failure: Success is false and Error is empty.
type Outcome struct {
	Success   bool
	Cancelled bool
	Error     string
}

func outcome(err error) Outcome {
	switch {
	case err == nil:
		return Outcome{Success: true}
	case errors.Is(err, progress.ErrCancelled):
		return Outcome{Cancelled: true}
	default:
		return Outcome{Error: err.Error()}
	}
}

// Options configures a bundlepack client.
type Options struct {
	// ProjectRoot is the directory relative paths in the config resolve
	// against. If empty, defaults to the directory containing ConfigPath.
	ProjectRoot string

	// ConfigPath is the path to the config file. Default: "bundlepack.yaml".
	ConfigPath string

	// Platform overrides settings.platform.
	Platform string

	// NoInherit reads only ConfigPath, skipping system and user layers.
	NoInherit bool

	// SystemConfigPath and UserConfigPath override the default layer
	// locations.
	SystemConfigPath string
	UserConfigPath   string

	// Overrides holds BUNDLEPACK_* environment and flag overrides. Nil
	// reads the environment.
	Overrides *viper.Viper

	// Reporter receives dependency-scan and diff progress.
	Reporter progress.Reporter

	Logger *logger.Logger
}

// Client is the main entry point for the bundlepack library.
type Client struct {
	projectRoot string
	configPath  string
	opts        Options
}

// New creates a new bundlepack Client.
func New(opts Options) (*Client, error) {
	if opts.ConfigPath == "" {
		opts.ConfigPath = "bundlepack.yaml"
	}

	root := opts.ProjectRoot
	if root == "" {
		abs, err := filepath.Abs(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("resolving config path: %w", err)
		}
		root = filepath.Dir(abs)
	}
	if opts.Overrides == nil {
		opts.Overrides = config.NewOverrides()
	}

	return &Client{projectRoot: root, configPath: opts.ConfigPath, opts: opts}, nil
}

func (c *Client) loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if c.opts.NoInherit {
		loaded, err := config.Load(c.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		res, err := config.LoadHierarchical(config.DiscoverOptions{
			ProjectPath:      c.configPath,
			SystemConfigPath: c.opts.SystemConfigPath,
			UserConfigPath:   c.opts.UserConfigPath,
		})
		if err != nil {
			return nil, err
		}
		cfg = res.Config
	}
	config.ApplyOverrides(cfg, c.opts.Overrides)
	return cfg, nil
}

func (c *Client) workspace() (*engine.Workspace, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	ws := engine.NewWorkspace(cfg, c.projectRoot, c.opts.Logger)
	ws.Platform = c.opts.Platform
	return ws, nil
}

func (c *Client) pack(ctx context.Context, opts engine.PackageOptions) (*PackageResult, error) {
	ws, err := c.workspace()
	if err != nil {
		return nil, err
	}
	eng := &engine.PackageEngine{Workspace: ws, Reporter: c.opts.Reporter}
	return eng.Package(ctx, opts)
}

// PackageManifest packages one manifest and publishes a new version when
// it changed.
func (c *Client) PackageManifest(ctx context.Context, name string) (Outcome, *PackageResult) {
	result, err := c.pack(ctx, engine.PackageOptions{Manifests: []string{name}})
	return outcome(err), result
}

// PackageAll packages every configured manifest. Manifests no longer
// configured are retired from the published version.
func (c *Client) PackageAll(ctx context.Context) (Outcome, *PackageResult) {
	result, err := c.pack(ctx, engine.PackageOptions{})
	return outcome(err), result
}

// Plan groups and analyses the named manifests (all when empty) without
// writing anything.
func (c *Client) Plan(ctx context.Context, names []string) (*PackageResult, error) {
	return c.pack(ctx, engine.PackageOptions{Manifests: names, DryRun: true})
}

// Purge removes recorded history older than the newest keep versions. keep
// 0 uses settings.history_keep.
func (c *Client) Purge(keep int) (Outcome, *PurgeResult) {
	ws, err := c.workspace()
	if err != nil {
		return outcome(err), nil
	}
	result, err := (&engine.HistoryEngine{Workspace: ws}).Purge(keep)
	return outcome(err), result
}

// Diff compares two recorded versions. newVersion 0 means the current one
// and oldVersion 0 the one before it.
func (c *Client) Diff(ctx context.Context, oldVersion, newVersion int) (Outcome, *DiffReport) {
	ws, err := c.workspace()
	if err != nil {
		return outcome(err), nil
	}
	eng := &engine.HistoryEngine{Workspace: ws, Reporter: c.opts.Reporter}
	report, err := eng.Diff(ctx, oldVersion, newVersion)
	return outcome(err), report
}

// Check verifies the live version's files against their recorded hashes.
func (c *Client) Check(ctx context.Context) (*CheckResult, error) {
	ws, err := c.workspace()
	if err != nil {
		return nil, err
	}
	return (&engine.CheckEngine{Workspace: ws}).Check(ctx)
}

// Status reports the live version of the active platform.
func (c *Client) Status(ctx context.Context) (*StatusResult, error) {
	ws, err := c.workspace()
	if err != nil {
		return nil, err
	}
	return (&engine.StatusEngine{Workspace: ws}).Status(ctx)
}

// History lists every recorded version, oldest first.
func (c *Client) History() ([]HistoryEntry, error) {
	ws, err := c.workspace()
	if err != nil {
		return nil, err
	}
	return (&engine.HistoryEngine{Workspace: ws}).History()
}
