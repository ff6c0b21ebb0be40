package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TLSLime/Puppeteer/internal/config"
	"github.com/TLSLime/Puppeteer/internal/observability"
)

var (
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:     "puppeteer",
	Short:   "Puppeteer drives a target application with humanized synthetic input.",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console"})
			return fmt.Errorf("load config: %w", err)
		}
		observability.InitializeLogger(cfg.Logger)
		observability.GetLogger().Info("starting puppeteer", zap.String("version", Version))
		return nil
	},
}

// Execute runs the root command; it is the sole entry point from main.
func Execute() {
	defer observability.Sync()
	if err := rootCmd.Execute(); err != nil {
		observability.GetLogger().Error("command failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default searches ./puppeteer.yaml and the user config dir)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
