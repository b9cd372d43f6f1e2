// Package commands implements the sonido-accompany subcommands.
package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-accompany/accompaniment/config"
	"github.com/RyanBlaney/sonido-accompany/logging"
	"github.com/RyanBlaney/sonido-accompany/storage"
)

// app holds the global flags and what they resolve to.
type app struct {
	configPath string
	verbose    bool
	backend    string
	dataDir    string

	cfg   *config.Config
	files *storage.Local
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "sonido-accompany",
		Short: "Piano accompaniment for vocal recordings",
		Long: `sonido-accompany - fit a key to a sung melody and render a piano part.

A vocal is imported once with its rhythm (beats per measure) and tempo. The
stored bundle can then be analyzed, rendered with a sampled piano following a
fixed rhythm pattern, and played back.

Piano samples are read from <data>/<piano.sample_dir>/<note>.wav, one file
per pitch class (C5, C5s, D5, ... B5 by default).

Examples:
  # Import a recording in 4/4 at 96 BPM
  sonido-accompany import take1.mp3 --name take1 --rhythm 4 --tempo 96

  # Show the fitted key
  sonido-accompany key take1

  # Render vocal plus piano
  sonido-accompany render take1 --out take1-piano.wav`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "YAML config file (default: $SONIDO_CONFIG, else built-in defaults)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	flags.StringVar(&a.backend, "store", "", "bundle store backend: file or badger (overrides config)")
	flags.StringVar(&a.dataDir, "data", "", "data directory for samples and bundles (overrides config storage.dir, which defaults to $SONIDO_DATA)")

	root.AddCommand(
		newImportCmd(a),
		newRenderCmd(a),
		newKeyCmd(a),
		newPlayCmd(a),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx.
func ExecuteContext(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func (a *app) init(cmd *cobra.Command) error {
	// a missing .env is fine
	_ = godotenv.Load()
	return a.reload(cmd)
}

// reload resolves the configuration again and reopens the data dir it names.
func (a *app) reload(cmd *cobra.Command) error {
	if err := a.loadConfig(cmd); err != nil {
		return err
	}

	level := logging.ParseLevel(a.cfg.Log.Level)
	if a.verbose {
		level = logging.DebugLevel
	}
	logging.SetLevel(level)

	files, err := storage.NewLocal(a.cfg.Storage.Dir)
	if err != nil {
		return fmt.Errorf("open data dir: %w", err)
	}
	a.files = files
	return nil
}

// loadConfig resolves the configuration from lowest to highest precedence:
// defaults, SONIDO_DATA, the config file, then flags. SONIDO_CONFIG names the
// config file when --config is unset.
func (a *app) loadConfig(cmd *cobra.Command) error {
	path := a.configPath
	if path == "" {
		path = os.Getenv("SONIDO_CONFIG")
	}

	cfg := config.Default()
	if dir := os.Getenv("SONIDO_DATA"); dir != "" {
		cfg.Storage.Dir = dir
	}
	if path != "" {
		if _, err := config.LoadOver(cfg, path); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("store") {
		cfg.Storage.Backend = a.backend
	}
	if cmd.Flags().Changed("data") {
		cfg.Storage.Dir = a.dataDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.configPath = path
	a.cfg = cfg
	return nil
}

// openBundles opens the configured bundle store. The caller closes it.
func (a *app) openBundles() (storage.BundleStore, error) {
	switch a.cfg.Storage.Backend {
	case config.BackendBadger:
		return storage.NewBadgerBundles(storage.BadgerOptions{
			Dir: filepath.Join(a.files.Root(), "badger"),
		})
	default:
		return storage.NewFileBundles(a.files), nil
	}
}
