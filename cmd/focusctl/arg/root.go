package arg

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/benjamonnguyen/focusmomo"
	"github.com/benjamonnguyen/focusmomo/dbusipc"
)

var (
	busFlag     string
	timeoutFlag time.Duration
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "focusctl",
	Short: "focusctl is the command line tool for focusd",
	Long: `focusctl talks to a running focusd over D-Bus.
It starts and stops sessions, reports analytics and follows the countdown live.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verboseFlag {
			log.SetLevel(log.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&busFlag, "bus", defaultBus(), "bus focusd is registered on (session|system)")
	rootCmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", 5*time.Second, "request timeout")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "debug logging")
}

func defaultBus() string {
	if cfg, err := focusmomo.ConfigFromEnv(); err == nil {
		return cfg.Bus
	}
	return focusmomo.SessionBus
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withClient connects to focusd and runs fn under the request timeout.
func withClient(cmd *cobra.Command, fn func(ctx context.Context, c *dbusipc.Client) error) error {
	conn, err := dbusipc.Connect(busFlag)
	if err != nil {
		return err
	}
	defer conn.Close() //nolint

	ctx, cancel := context.WithTimeout(cmd.Context(), timeoutFlag)
	defer cancel()
	return fn(ctx, dbusipc.NewClient(conn, *log.Default()))
}
