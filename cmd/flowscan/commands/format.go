package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/wonny/flowscan/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const eok = 1e8

// formatEok prints a 원 amount in 억원 with one decimal
func formatEok(v float64) string {
	return fmt.Sprintf("%.1f", v/eok)
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// printJSON writes v as indented JSON
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printRunHeader prints the window summary shared by screen and streaks
func printRunHeader(w io.Writer, title string, market contracts.Market, requested, actual time.Time, adjusted bool, days []time.Time) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintf(w, "  %s (%s)\n", title, market)
	fmt.Fprintln(w, "───────────────────────────────────────────────────────────")
	fmt.Fprintf(w, "  기준일    : %s", formatDate(actual))
	if adjusted {
		fmt.Fprintf(w, " (요청 %s → 직전 영업일로 조정)", formatDate(requested))
	}
	fmt.Fprintln(w)

	ds := make([]string, len(days))
	for i, d := range days {
		ds[i] = formatDate(d)
	}
	fmt.Fprintf(w, "  분석 기간 : %d영업일 (%s)\n", len(days), strings.Join(ds, ", "))
	fmt.Fprintln(w, "───────────────────────────────────────────────────────────")
}

// printWarnings prints completeness notices
func printWarnings(w io.Writer, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, msg := range warnings {
		fmt.Fprintf(w, "⚠️  %s\n", msg)
	}
}

// printScreenResult renders candidates as an aligned table
func printScreenResult(w io.Writer, res *contracts.ScreenResult) {
	printRunHeader(w, "수급 스크리닝", res.Market, res.RequestedDate, res.ActualDate, res.DateAdjusted, res.WindowDays)

	if res.Count() == 0 {
		fmt.Fprintln(w, "조건을 만족하는 종목이 없습니다.")
		printWarnings(w, res.Warnings)
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\t순위\t코드\t종목명\t점수\t외국인(억)\t투신(억)\t연기금(억)\t금투(억)\t등락률\t지분변화\t사유")
	for i, c := range res.Candidates {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\t%.2f%%\t%+.2f%%p\t%s\n",
			i+1,
			tierLabel(c.Tier),
			c.Ticker,
			c.Name,
			c.Score,
			formatEok(c.AvgNetBuy[contracts.Foreign]),
			formatEok(c.AvgNetBuy[contracts.InvestmentTrust]),
			formatEok(c.AvgNetBuy[contracts.Pension]),
			formatEok(c.AvgNetBuy[contracts.FinancialInvestment]),
			c.ChangePct,
			c.ForeignOwnershipChange,
			strings.Join(c.Reasons, ", "),
		)
	}
	tw.Flush()

	fmt.Fprintf(w, "\n✅ %d종목 선정 (run %s)\n", res.Count(), res.RunID)
	printWarnings(w, res.Warnings)
}

// printStreakReport renders per-class streak lists and the intersection
func printStreakReport(w io.Writer, rep *contracts.StreakReport) {
	printRunHeader(w, "연속 순매수", rep.Market, rep.RequestedDate, rep.ActualDate, rep.DateAdjusted, rep.WindowDays)

	for _, class := range contracts.StreakClasses {
		entries := rep.ByClass[class]
		fmt.Fprintf(w, "\n[%s] %d종목\n", class.Label(), len(entries))
		if len(entries) == 0 {
			continue
		}

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		header := []string{"코드", "종목명", "합계(억)"}
		for _, d := range rep.WindowDays {
			header = append(header, d.Format("01/02"))
		}
		fmt.Fprintln(tw, strings.Join(header, "\t"))
		for _, e := range entries {
			row := []string{e.Ticker, e.Name, formatEok(float64(e.Total))}
			for _, v := range e.Daily {
				row = append(row, formatEok(float64(v)))
			}
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		tw.Flush()
	}

	fmt.Fprintf(w, "\n[교집합] %d종목\n", len(rep.Intersection))
	if len(rep.Intersection) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "코드\t종목명\t주체\t합계(억)")
		for _, o := range rep.Intersection {
			labels := make([]string, len(o.Classes))
			for i, c := range o.Classes {
				labels[i] = c.Label()
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", o.Ticker, o.Name, strings.Join(labels, "+"), formatEok(float64(o.Total)))
		}
		tw.Flush()
	}

	printWarnings(w, rep.Warnings)
}

func tierLabel(p contracts.Priority) string {
	switch p {
	case contracts.Priority1:
		return "1순위"
	case contracts.Priority2:
		return "2순위"
	case contracts.Priority3:
		return "3순위"
	default:
		return "-"
	}
}
