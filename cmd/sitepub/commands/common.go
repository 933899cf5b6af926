package commands

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitepub/internal/cli"
	"git.home.luguber.info/inful/sitepub/internal/config"
	"git.home.luguber.info/inful/sitepub/internal/history"
	"git.home.luguber.info/inful/sitepub/internal/logfields"
	"git.home.luguber.info/inful/sitepub/internal/notify"
	"git.home.luguber.info/inful/sitepub/internal/publisher"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition and global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"sitepub.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Publish  PublishCmd  `cmd:"" default:"withargs" help:"Run a full publish cycle: clean, build, snapshot, push"`
	Clean    CleanCmd    `cmd:"" help:"Clear the output tree"`
	Build    BuildCmd    `cmd:"" help:"Clean and rebuild the output tree without snapshotting"`
	Snapshot SnapshotCmd `cmd:"" help:"Record the current working copy as a revision"`
	Status   StatusCmd   `cmd:"" help:"Summarize the content tree and repository state"`
	Lint     LintCmd     `cmd:"" help:"Validate document headers and internal links"`
	History  HistoryCmd  `cmd:"" help:"List recent publish cycles"`
	Init     InitCmd     `cmd:"" help:"Write an example configuration file"`
	Watch    WatchCmd    `cmd:"" help:"Rebuild (and optionally publish) on content changes"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// loadConfig reads the configuration file named by the global flag.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, cli.ConfigError(err)
	}
	return cfg, nil
}

// repoRoot is the directory holding the configuration file; content, output,
// and the git repository all resolve against it.
func (c *CLI) repoRoot() (string, error) {
	abs, err := filepath.Abs(c.Config)
	if err != nil {
		return "", err
	}
	return filepath.Dir(abs), nil
}

// runtime bundles the publisher with collaborators that need closing.
type runtime struct {
	cfg  *config.Config
	root string
	pub  *publisher.Publisher

	store    *history.Store
	notifier *notify.Notifier
}

// newRuntime wires a publisher from config, including the optional history
// store and notifier.
func (c *CLI) newRuntime(extra ...publisher.Option) (*runtime, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	root, err := c.repoRoot()
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg, root: root}
	opts := make([]publisher.Option, 0, len(extra)+2)

	if cfg.History.Path != "" {
		store, err := history.Open(resolvePath(root, cfg.History.Path))
		if err != nil {
			return nil, cli.ConfigError(err)
		}
		rt.store = store
		opts = append(opts, publisher.WithHistory(store))
	}
	if cfg.Notify.NATSURL != "" {
		notifier, err := notify.New(cfg.Notify)
		if err != nil {
			return nil, cli.ConfigError(err)
		}
		rt.notifier = notifier
		opts = append(opts, publisher.WithNotifier(notifier))
	}
	opts = append(opts, extra...)

	rt.pub = publisher.New(cfg, root, opts...)
	return rt, nil
}

func (rt *runtime) Close() {
	if rt.store != nil {
		if err := rt.store.Close(); err != nil {
			slog.Warn("Failed to close history store", logfields.Error(err))
		}
	}
	if rt.notifier != nil {
		rt.notifier.Close()
	}
}

func resolvePath(root, p string) string {
	if p == "" || filepath.IsAbs(p) || p == ":memory:" {
		return p
	}
	return filepath.Join(root, p)
}
