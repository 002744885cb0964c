package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/app/config"
)

var titleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("229")).
	Background(lipgloss.Color("57")).
	Padding(0, 1)

// cli holds the state shared by every subcommand.
type cli struct {
	verbose    bool
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	app := &cli{}

	root := &cobra.Command{
		Use:   "limitctl",
		Short: "Validate, reconcile and export measurement limit families",
		Long: banner() + `

limitctl works on .lyc limit family files: it checks that every enabled
XY limit has non-decreasing X, repairs a family against the results of
another family file, and pushes limits to the instrument over OPC UA.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig()
			if err != nil {
				return err
			}
			app.cfg = cfg

			level, err := zapcore.ParseLevel(cfg.Log.Level)
			if err != nil {
				return err
			}
			zcfg := zap.NewProductionConfig()
			zcfg.Level = zap.NewAtomicLevelAt(level)
			if cfg.Log.Debug {
				zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			app.logger, err = zcfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.logger != nil {
				_ = app.logger.Sync()
			}
		},
	}
	root.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().StringVarP(&app.configPath, "config", "c", "", "path to configuration YAML (defaults apply when empty)")

	root.AddCommand(
		app.validateCmd(),
		app.reconcileCmd(),
		app.exportCmd(),
		app.configCmd(),
	)
	return root
}

// loadConfig reads --config, or returns the defaults when it is unset.
// --verbose forces debug logging either way.
func (a *cli) loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if a.configPath != "" {
		var err error
		cfg, err = config.Load(a.configPath)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", a.configPath, err)
		}
	}
	if a.verbose {
		cfg.Log.Debug = true
	}
	return cfg, nil
}

func banner() string {
	if os.Getenv("NO_COLOR") != "" {
		return "Lyceum limitctl"
	}
	return titleStyle.Render("Lyceum limitctl")
}
