package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	env        string
	verbose    bool
	jsonOutput bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "flowscan",
	Short: "flowscan - 투자자별 수급 기반 종목 스크리너",
	Long: `flowscan Unified CLI

KOSPI/KOSDAQ 투자자별 순매수(외국인/투신/연기금/금융투자)와
프로그램 매매를 기간 집계해 수급 주도 종목을 선별합니다.

Usage:
  go run ./cmd/flowscan [command]

Examples:
  go run ./cmd/flowscan screen --market KOSPI --window 3
  go run ./cmd/flowscan streaks --market KOSDAQ --window 5 --major 100
  go run ./cmd/flowscan calendar --date 2026-03-08
  go run ./cmd/flowscan api
  go run ./cmd/flowscan scheduler start`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug log level)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
}
