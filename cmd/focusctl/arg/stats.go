package arg

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/benjamonnguyen/focusmomo"
	"github.com/benjamonnguyen/focusmomo/cmd/focusctl/tui"
	"github.com/benjamonnguyen/focusmomo/dbusipc"
)

var (
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	headerStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show today's focus metrics and the last seven days",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *dbusipc.Client) error {
			metrics, err := c.Do(ctx, focusmomo.AnalyticsGetMetrics{})
			if err != nil {
				return err
			}
			series, err := c.Do(ctx, focusmomo.AnalyticsGetWeeklySeries{})
			if err != nil {
				return err
			}
			if metrics.Metrics == nil || series.Series == nil {
				return fmt.Errorf("incomplete analytics response")
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderMetrics(*metrics.Metrics))
			fmt.Fprintln(cmd.OutOrStdout(), renderWeekly(*series.Series, 56, 12))
			return nil
		})
	},
}

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List completed sessions, most recent first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *dbusipc.Client) error {
			resp, err := c.Do(ctx, focusmomo.AnalyticsGetHistory{Limit: historyLimit})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderHistory(resp.Sessions))
			return nil
		})
	},
}

var historyRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete a ledger entry",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *dbusipc.Client) error {
			if _, err := c.Do(ctx, focusmomo.AnalyticsDeleteSession{ID: args[0]}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		})
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "maximum entries (default 50)")
	historyCmd.AddCommand(historyRmCmd)
	rootCmd.AddCommand(statsCmd, historyCmd)
}

func renderMetrics(m focusmomo.Metrics) string {
	rows := [][2]string{
		{"Today", tui.FormatClock(m.TodayFocusSeconds)},
		{"Last 7 days", tui.FormatClock(m.WeeklyFocusSeconds)},
		{"Completion", strconv.Itoa(m.CompletionRate) + "%"},
		{"Sites blocked", strconv.Itoa(m.SitesBlockedToday)},
	}
	out := headerStyle.Render("Focus") + "\n"
	for _, r := range rows {
		out += fmt.Sprintf("  %-14s %s\n", r[0], r[1])
	}
	return out
}

// renderWeekly draws one bar per day in focus minutes.
func renderWeekly(s focusmomo.WeeklySeries, width, height int) string {
	chart := barchart.New(width, height)
	bars := make([]barchart.BarData, 0, len(s.Labels))
	for i, label := range s.Labels {
		var minutes float64
		if i < len(s.Data) {
			minutes = float64(s.Data[i]) / 60
		}
		bars = append(bars, barchart.BarData{
			Label:  label,
			Values: []barchart.BarValue{{Name: "focus", Value: minutes, Style: barStyle}},
		})
	}
	chart.PushAll(bars)
	chart.Draw()
	return chart.View()
}

func renderHistory(sessions []focusmomo.AnalyticsSession) string {
	if len(sessions) == 0 {
		return mutedStyle.Render("No completed sessions")
	}
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		end := ""
		if s.End != nil {
			end = s.End.Local().Format(time.DateTime)
		}
		rows = append(rows, []string{
			s.ID,
			string(s.Type),
			end,
			tui.FormatClock(s.PlannedSec),
			tui.FormatClock(s.ActualSec),
		})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "SESSION", "ENDED", "PLANNED", "ACTUAL").
		Rows(rows...).
		Render()
}
