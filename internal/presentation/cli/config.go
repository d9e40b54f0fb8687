package cli

import (
	"fmt"

	"github.com/Zhima-Mochi/merchant-dashboard/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the dashboard configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show merged configuration with secrets masked",
	RunE:  runConfigShow,
}

func init() {
	configCmd.AddCommand(configShowCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := config.YAML(cfg)
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "# Merged configuration (defaults + file + environment)")
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}
