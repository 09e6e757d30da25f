package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/flowscan/internal/contracts"
)

var calendarFlags requestFlags

// calendarCmd represents the calendar command
var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "분석 기간(영업일) 확인",
	Long: `기준일에 대해 실제로 사용될 영업일 구간을 보여줍니다.
주말/휴장일이면 직전 영업일로 조정됩니다.

Example:
  go run ./cmd/flowscan calendar --date 2026-03-08 --window 3`,
	RunE: runCalendar,
}

func init() {
	rootCmd.AddCommand(calendarCmd)
	calendarFlags.bind(calendarCmd, false)
}

func runCalendar(cmd *cobra.Command, args []string) error {
	req, err := calendarFlags.request()
	if err != nil {
		return userError(err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if req.Date.IsZero() {
		req.Date = contracts.Today()
	}
	if req.Window == 0 {
		req.Window = a.screener.Rules().Window.DefaultDays
	}
	if err := req.Validate(); err != nil {
		return userError(err)
	}

	win, err := a.screener.Calendar().Resolve(ctx, req.Date, req.Window)
	if err != nil {
		return userError(err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), win)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "요청일 : %s\n", formatDate(win.Requested))
	fmt.Fprintf(out, "기준일 : %s", formatDate(win.Actual()))
	if win.Adjusted() {
		fmt.Fprint(out, " (조정됨)")
	}
	fmt.Fprintln(out)
	for i, d := range win.Days {
		fmt.Fprintf(out, "   %d. %s (%s)\n", i+1, formatDate(d), d.Weekday().String()[:3])
	}
	return nil
}
