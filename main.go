package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"Lookout/pkg/settings"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	configDir string
	logLevel  string
	logToFile bool

	app *App

	rootCmd = &cobra.Command{
		Use:           "lookout",
		Short:         "Query captured widget trees the way GUI tests do",
		Long:          "Lookout loads UI hierarchy dumps into a live widget tree and resolves locators against it,\nsuggests locators for widgets on screen, and manages recorded step scripts.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			app = a
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			teardown()
		},
	}
)

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Configuration directory (default: <user config>/Lookout)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides settings)")
	rootCmd.PersistentFlags().BoolVar(&logToFile, "log-file", false, "Also write logs to <config-dir>/logs")
}

// setup loads settings, applies flag overrides and creates the App.
func setup(cmd *cobra.Command) (*App, error) {
	st, err := settings.New(settings.Config{ConfigDir: configDir, Logger: &Logger})
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	// Flags apply to this run only and are not saved.
	level, toFile := st.LogLevel(), st.LogToFile()
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		level = logLevel
	}
	if flags.Changed("log-file") {
		toFile = logToFile
	}

	logCfg := DefaultLogConfig()
	if toFile {
		logCfg = PersistentLogConfig(st.ConfigDir())
	}
	logCfg.Level = ParseLogLevel(level)
	logCfg.Output = cmd.ErrOrStderr()
	if err := InitLogger(logCfg); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	LogDebug("app").
		Str("version", version).
		Str("config", st.SettingsPath()).
		Dur("dispose_timeout", st.DisposeTimeout()).
		Msg("Starting")
	return NewApp(version, st), nil
}

func teardown() {
	if app != nil {
		app.Shutdown()
		app = nil
	}
	CloseLogger()
}

func main() {
	zerolog.DurationFieldUnit = time.Millisecond

	if err := rootCmd.Execute(); err != nil {
		teardown()
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
