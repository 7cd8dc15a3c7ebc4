package arg

import (
	"context"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/benjamonnguyen/focusmomo"
	"github.com/benjamonnguyen/focusmomo/cmd/focusctl/tui"
	"github.com/benjamonnguyen/focusmomo/dbusipc"
	"github.com/benjamonnguyen/focusmomo/projector"
)

var watchLogFile string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the countdown live",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := log.New(io.Discard)
		if watchLogFile != "" {
			f, err := tea.LogToFile(watchLogFile, "focusctl")
			if err != nil {
				return err
			}
			defer f.Close() //nolint
			logger = log.New(f)
			logger.SetLevel(log.GetLevel())
		}

		conn, err := dbusipc.Connect(busFlag)
		if err != nil {
			return err
		}
		defer conn.Close() //nolint
		client := dbusipc.NewClient(conn, *logger)

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		prog := tea.NewProgram(tui.New(client, timeoutFlag), tea.WithAltScreen(), tea.WithContext(ctx))
		p := projector.New(projector.SystemClock(),
			func(d projector.Display) { prog.Send(tui.DisplayMsg(d)) },
			func(session focusmomo.SessionKind, end time.Time) {
				go completeExpired(ctx, client, prog, logger, session, end)
			},
		)
		defer p.Close()
		go projector.Follow(ctx, client, p, *logger)

		_, err = prog.Run()
		return err
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchLogFile, "log-file", "", "write logs to this file")
	rootCmd.AddCommand(watchCmd)
}

// completeExpired reports the countdown this client saw run out. A stale report is ignored
// by focusd, so every watching client may send one.
func completeExpired(ctx context.Context, c *dbusipc.Client, prog *tea.Program, logger *log.Logger, session focusmomo.SessionKind, end time.Time) {
	ctx, cancel := context.WithTimeout(ctx, timeoutFlag)
	defer cancel()
	if _, err := c.Do(ctx, focusmomo.TimerComplete{Session: session, ObservedEnd: &end}); err != nil {
		logger.Warn("failed to report expiry", "session", session, "err", err)
		prog.Send(tui.ErrMsg{Err: err})
	}
}
