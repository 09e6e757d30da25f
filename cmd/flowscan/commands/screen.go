package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/flowscan/internal/contracts"
	"github.com/wonny/flowscan/internal/screener"
)

// requestFlags are the run inputs shared by screen, streaks and calendar
type requestFlags struct {
	market string
	date   string
	window int
	major  float64
	minor  float64
}

func (f *requestFlags) bind(cmd *cobra.Command, withThresholds bool) {
	cmd.Flags().StringVarP(&f.market, "market", "m", "KOSPI", "시장 (KOSPI|KOSDAQ)")
	cmd.Flags().StringVarP(&f.date, "date", "d", "", "기준일 YYYYMMDD 또는 YYYY-MM-DD (기본: 오늘 KST)")
	cmd.Flags().IntVarP(&f.window, "window", "w", 0, "분석 기간 영업일 수 2~5 (기본: 규칙 파일 default_days)")
	if withThresholds {
		cmd.Flags().Float64Var(&f.major, "major", 0, "외국인(기관) 기준 금액, 억원 (기본: 규칙 파일)")
		cmd.Flags().Float64Var(&f.minor, "minor", 0, "투신/연기금 기준 금액, 억원 (기본: 규칙 파일)")
	}
}

func (f *requestFlags) request() (screener.Request, error) {
	market, err := contracts.ParseMarket(f.market)
	if err != nil {
		return screener.Request{}, fmt.Errorf("%w: %v", contracts.ErrInvalidRequest, err)
	}
	req := screener.Request{
		Market:   market,
		Window:   f.window,
		MajorEok: f.major,
		MinorEok: f.minor,
	}
	if f.date != "" {
		req.Date, err = contracts.ParseDate(f.date)
		if err != nil {
			return req, fmt.Errorf("%w: date %q", contracts.ErrInvalidRequest, f.date)
		}
	}
	return req, nil
}

// signalContext cancels on Ctrl+C / SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// userError turns an engine error into the short message shown to users
func userError(err error) error {
	if contracts.IsRunLevel(err) {
		return fmt.Errorf("%s", contracts.UserMessage(err))
	}
	return err
}

var screenFlags requestFlags

// screenCmd represents the screen command
var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "수급 스크리닝 실행",
	Long: `투자자별 순매수 기간 평균과 연속 매수 여부로 종목을 선별합니다.

순위:
  1순위 빈집털이형   - 프로그램 매도에도 외국인/투신/연기금 동반 순매수
  2순위 정석 주도주형 - 3주체 기간 내 연속 순매수 + 최근일 동반 매수
  3순위 차선책       - 2주체 이상 연속 순매수

Example:
  go run ./cmd/flowscan screen --market KOSPI --window 3
  go run ./cmd/flowscan screen -m KOSDAQ -d 2026-03-06 --major 30 --minor 15
  go run ./cmd/flowscan screen --json`,
	RunE: runScreen,
}

func init() {
	rootCmd.AddCommand(screenCmd)
	screenFlags.bind(screenCmd, true)
}

func runScreen(cmd *cobra.Command, args []string) error {
	req, err := screenFlags.request()
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

	res, err := a.screener.Run(ctx, req)
	if err != nil {
		return userError(err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), res)
	}
	printScreenResult(cmd.OutOrStdout(), res)
	return nil
}
