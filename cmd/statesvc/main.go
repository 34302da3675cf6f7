package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/vango-dev/statesvc/internal/config"
	"github.com/vango-dev/statesvc/internal/errors"
	"github.com/vango-dev/statesvc/pkg/statesvc"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globals holds state resolved once by the root command.
type globals struct {
	configPath string
	logLevel   string
	eviction   string

	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:   "statesvc",
		Short: "Shared state services for component trees",
		Long: `statesvc lets components share mutable state through named services.

Components subscribe to the state keys they care about, every update is
pushed only to interested subscribers, and services can be shared across
a tree by cache key.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.resolve()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Config file (default: ./statesvc.{json,yaml,toml})")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&g.eviction, "eviction", "", "Eviction policy: refcount or reset")

	rootCmd.AddCommand(
		demoCmd(g),
		renderCmd(g),
		configCmd(g),
		errorsCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

// resolve loads the configuration, applies flag overrides and installs the
// terminal logger.
func (g *globals) resolve() error {
	cfg, err := config.Resolve(g.configPath, ".")
	if err != nil {
		return err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.eviction != "" {
		cfg.Eviction = g.eviction
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, _ := cfg.LogLevel()
	handler := log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "statesvc",
		Level:           log.Level(level),
		ReportTimestamp: level <= slog.LevelDebug,
	})

	g.cfg = cfg
	g.logger = slog.New(handler)
	slog.SetDefault(g.logger)
	return nil
}

// newStore builds a store from the resolved configuration.
func (g *globals) newStore() *statesvc.Store {
	return statesvc.NewStore(g.cfg.StoreOptions(g.logger)...)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}
