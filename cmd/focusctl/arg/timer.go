package arg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/benjamonnguyen/focusmomo"
	"github.com/benjamonnguyen/focusmomo/cmd/focusctl/tui"
	"github.com/benjamonnguyen/focusmomo/dbusipc"
)

var sessionArgHelp = "one of focus, short-break, long-break, custom"

var startCmd = &cobra.Command{
	Use:   "start [session]",
	Short: "Start or resume a session",
	Long:  "Start resumes the current session. Naming another session (" + sessionArgHelp + ") switches to it first.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *dbusipc.Client) error {
			state, err := c.GetTimerState(ctx)
			if err != nil {
				return err
			}
			reqs, err := startRequests(state, args)
			if err != nil {
				return err
			}
			return doAndPrint(ctx, c, reqs...)
		})
	},
}

var stopCmd = &cobra.Command{
	Use:     "stop",
	Aliases: []string{"pause"},
	Short:   "Pause the running session",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *dbusipc.Client) error {
			return doAndPrint(ctx, c, focusmomo.TimerStopped{})
		})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset [session]",
	Short: "Stop and restore the full duration of the current or named session",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := focusmomo.TimerReset{}
		if len(args) == 1 {
			kind, err := focusmomo.ParseSessionKind(args[0])
			if err != nil {
				return err
			}
			req.Session = &kind
		}
		return withClient(cmd, func(ctx context.Context, c *dbusipc.Client) error {
			return doAndPrint(ctx, c, req)
		})
	},
}

var skipCmd = &cobra.Command{
	Use:     "skip",
	Aliases: []string{"complete", "next"},
	Short:   "Complete the current session and move to the next one",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *dbusipc.Client) error {
			state, err := c.GetTimerState(ctx)
			if err != nil {
				return err
			}
			return doAndPrint(ctx, c, focusmomo.TimerComplete{Session: state.CurrentSession})
		})
	},
}

var switchMinutes int

var switchCmd = &cobra.Command{
	Use:   "switch <session>",
	Short: "Make another session current without starting it",
	Long:  "Switch stops the timer and selects a session (" + sessionArgHelp + "). --minutes sets the custom session length.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := switchRequest(args[0], switchMinutes)
		if err != nil {
			return err
		}
		return withClient(cmd, func(ctx context.Context, c *dbusipc.Client) error {
			return doAndPrint(ctx, c, req)
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *dbusipc.Client) error {
			state, err := c.GetTimerState(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tui.RenderStatus(state, time.Now()))
			return nil
		})
	},
}

func init() {
	switchCmd.Flags().IntVarP(&switchMinutes, "minutes", "m", 0, "custom session length in minutes")
	rootCmd.AddCommand(startCmd, stopCmd, resetCmd, skipCmd, switchCmd, statusCmd)
}

// startRequests resumes the current session, or switches to the named one and starts it fresh.
func startRequests(state focusmomo.TimerState, args []string) ([]focusmomo.Request, error) {
	kind := state.CurrentSession
	if len(args) == 1 {
		k, err := focusmomo.ParseSessionKind(args[0])
		if err != nil {
			return nil, err
		}
		kind = k
	}

	if kind != state.CurrentSession {
		return []focusmomo.Request{
			focusmomo.SwitchSession{Session: kind},
			focusmomo.TimerStarted{Session: kind},
		}, nil
	}
	if state.IsRunning {
		return nil, fmt.Errorf("%s is already running", state.Sessions.Label(kind))
	}
	return []focusmomo.Request{
		focusmomo.TimerStarted{Session: kind, Duration: state.TotalTime, TimeLeft: state.TimeLeft},
	}, nil
}

func switchRequest(arg string, minutes int) (focusmomo.SwitchSession, error) {
	kind, err := focusmomo.ParseSessionKind(arg)
	if err != nil {
		return focusmomo.SwitchSession{}, err
	}
	req := focusmomo.SwitchSession{Session: kind}
	switch {
	case minutes < 0:
		return focusmomo.SwitchSession{}, errors.New("--minutes must be positive")
	case minutes > 0 && kind != focusmomo.CustomSession:
		return focusmomo.SwitchSession{}, fmt.Errorf("--minutes only applies to %s", focusmomo.CustomSession)
	case minutes > 0:
		secs := minutes * 60
		req.CustomDuration = &secs
	}
	return req, nil
}

// doAndPrint sends reqs in order and prints the last returned timer state.
func doAndPrint(ctx context.Context, c *dbusipc.Client, reqs ...focusmomo.Request) error {
	var last focusmomo.Response
	for _, req := range reqs {
		resp, err := c.Do(ctx, req)
		if err != nil {
			return err
		}
		last = resp
	}
	if last.TimerState != nil {
		fmt.Println(tui.RenderStatus(*last.TimerState, time.Now()))
	}
	return nil
}
