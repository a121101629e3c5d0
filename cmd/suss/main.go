// Command suss curates hierarchical spike clusterings in the terminal.
//
// Usage:
//
//	suss open <name>      Curate a saved dataset (latest version of name)
//	suss demo             Generate a synthetic recording and curate it
//	suss list             List saved datasets
//	suss events           JSONL event journal viewer
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abelbrown/suss/internal/config"
	"github.com/abelbrown/suss/internal/logging"
)

var (
	configPath string
	logLevel   string

	// cfg is loaded once by the root command before any subcommand runs.
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:           "suss",
		Short:         "Curate hierarchical spike clusterings",
		Version:       logging.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.LoadFrom(configPath)
			if err != nil {
				return err
			}
			if logLevel != "" {
				c.LogLevel = logLevel
			}
			cfg = c
			if err := os.MkdirAll(cfg.Dir(), 0755); err != nil {
				return fmt.Errorf("create data directory: %w", err)
			}
			return logging.Init(filepath.Join(cfg.Dir(), "logs"), cfg.LogLevel)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logging.Close()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.ConfigPath(), "config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(openCmd, demoCmd, listCmd, eventsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "suss: %v\n", err)
		os.Exit(1)
	}
}
