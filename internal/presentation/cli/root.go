// Package cli is the command line surface: the HTTP server plus a few one-shot
// commands that read the same provider data from a terminal.
package cli

import (
	"fmt"
	"os"

	"github.com/Zhima-Mochi/merchant-dashboard/internal/config"
	"github.com/spf13/cobra"
)

var (
	configFile string
	envFile    string
	rootCmd    *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "merchant-dashboard",
		Short: "Merchant payments dashboard over the Pagar.me API",
		Long: `merchant-dashboard serves the dashboard API and checkout over Pagar.me.

Settings come from the environment, an optional .env file and an optional YAML file.`,
		RunE:          runServe,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment")
}

// Execute runs the root command
func Execute(version string) error {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(customersCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(configCmd)

	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{EnvFile: envFile, File: configFile})
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
