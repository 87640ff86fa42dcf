package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"houseprice/internal/config"
	"houseprice/internal/logging"
	"houseprice/pkg/graceful"
)

var (
	cfgFile string
	version = "dev"

	v   = config.New()
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "houseprice",
		Short: "House price estimator",
		Long: `houseprice serves a web form that turns a handful of property attributes
into a price estimate in Indian rupees, and ships the tools around it:
account management, model uploads, location geocoding and the audit worker.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml or $HOME/.config/houseprice/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (console, json)")

	_ = v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(predictCmd())
	rootCmd.AddCommand(usersCmd())
	rootCmd.AddCommand(auditCmd())
	rootCmd.AddCommand(locationsCmd())
	rootCmd.AddCommand(modelCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, cancel := graceful.Context(context.Background())

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	config.LoadEnv()

	var err error
	cfg, err = config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	if err := logging.Setup(cfg.Env, cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "houseprice %s (%s)\n", version, configFileUsed())
		},
	}
}

func configFileUsed() string {
	if f := v.ConfigFileUsed(); f != "" {
		return f
	}
	return "no config file"
}
