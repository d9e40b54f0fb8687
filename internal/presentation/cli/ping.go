package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errDisconnected = errors.New("provider unreachable")

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check the provider credentials and connectivity",
	RunE:  runPing,
}

func runPing(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		ok, err := a.dashboard.Ping(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return errDisconnected
		}
		fmt.Fprintln(cmd.OutOrStdout(), "connected")
		return nil
	})
}
