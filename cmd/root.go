package cmd

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"example.com/oilchain/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "oilchain",
	Short: "Supply-chain list view service",
	Long: `oilchain serves the list views of the essential-oil supply chain
(receptions, distillations, expeditions, sales lots, ledger) on top of the
business backend, keeps the search index up to date and exports lists to PDF.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
}

// loadConfig reads the configuration and applies its logging settings
func loadConfig() (config.Config, error) {
	cfg, err := config.LoadConfig(".", cfgFile)
	if err != nil {
		return cfg, err
	}

	if cfg.Logging.Format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	if os.Getenv("LOG_LEVEL") == "" {
		if level, err := zerolog.ParseLevel(strings.ToLower(cfg.Logging.Level)); err == nil && level != zerolog.NoLevel {
			zerolog.SetGlobalLevel(level)
		}
	}

	return cfg, nil
}
