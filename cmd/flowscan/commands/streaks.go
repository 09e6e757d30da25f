package commands

import (
	"github.com/spf13/cobra"
)

var streakFlags requestFlags

// streaksCmd represents the streaks command
var streaksCmd = &cobra.Command{
	Use:   "streaks",
	Short: "연속 순매수 리포트",
	Long: `기간 내 매일 순매수한 종목을 외국인/기관/연기금별로 보여주고,
2개 이상 주체에 동시에 등장한 종목(교집합)을 합계 순으로 정렬합니다.

기준 금액 (기간 합계):
  --major  외국인/기관 (기본 100억)
  --minor  연기금 (기본 10억)

Example:
  go run ./cmd/flowscan streaks --market KOSDAQ --window 5
  go run ./cmd/flowscan streaks --major 50 --minor 5 --json`,
	RunE: runStreaks,
}

func init() {
	rootCmd.AddCommand(streaksCmd)
	streakFlags.bind(streaksCmd, true)
}

func runStreaks(cmd *cobra.Command, args []string) error {
	req, err := streakFlags.request()
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

	rep, err := a.screener.RunStreaks(ctx, req)
	if err != nil {
		return userError(err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), rep)
	}
	printStreakReport(cmd.OutOrStdout(), rep)
	return nil
}
