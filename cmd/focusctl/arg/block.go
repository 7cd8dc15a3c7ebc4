package arg

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/benjamonnguyen/focusmomo"
	"github.com/benjamonnguyen/focusmomo/dbusipc"
)

var blockCmd = &cobra.Command{
	Use:   "block [domain]",
	Short: "Record a blocked site visit",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := focusmomo.AnalyticsSiteBlocked{}
		if len(args) == 1 {
			req.Domain = args[0]
		}
		return withClient(cmd, func(ctx context.Context, c *dbusipc.Client) error {
			_, err := c.Do(ctx, req)
			return err
		})
	},
}

var unifiedCmd = &cobra.Command{
	Use:       "unified <on|off>",
	Short:     "Couple the active blocking category to the timer phase",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		enabled, err := parseOnOff(args[0])
		if err != nil {
			return err
		}
		return withClient(cmd, func(ctx context.Context, c *dbusipc.Client) error {
			if _, err := c.Do(ctx, focusmomo.SetUnifiedMode{Enabled: enabled}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Unified mode %s\n", args[0])
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(blockCmd, unifiedCmd)
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "1", "yes":
		return true, nil
	case "off", "false", "0", "no":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}
