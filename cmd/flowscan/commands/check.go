package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wonny/flowscan/internal/contracts"
	"github.com/wonny/flowscan/internal/screenconfig"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "연결 및 설정 점검",
	Long: `설정, 저장소, 데이터 공급원 연결을 점검합니다.

이 명령어는:
- 환경 변수와 스크리닝 규칙 로드
- Redis 연결 (REDIS_ENABLED=true)
- PostgreSQL Health Check (PROVIDER=postgres)
- 최근 영업일 조회로 데이터 공급원 확인

Example:
  go run ./cmd/flowscan check
  go run ./cmd/flowscan check --rules`,
	RunE: runCheck,
}

var showRules bool

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().BoolVar(&showRules, "rules", false, "적용 중인 스크리닝 규칙 출력")
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return fmt.Errorf("❌ %w", err)
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✅ Config loaded (ENV: %s, PROVIDER: %s)\n", a.cfg.Env, a.cfg.Provider)

	rules := a.screener.Rules()
	hash, err := screenconfig.Hash(rules)
	if err != nil {
		return fmt.Errorf("❌ hash rules: %w", err)
	}
	fmt.Fprintf(out, "✅ Rules %s v%s (sha256 %s)\n", rules.Meta.RulesID, rules.Meta.Version, hash[:12])
	if showRules {
		data, err := yaml.Marshal(rules)
		if err != nil {
			return fmt.Errorf("❌ marshal rules: %w", err)
		}
		fmt.Fprintf(out, "\n%s\n", data)
	}

	if a.redis.Enabled() {
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		health, err := a.redis.Health(pingCtx)
		pingCancel()
		if err != nil {
			return fmt.Errorf("❌ %w", err)
		}
		fmt.Fprintf(out, "✅ Redis healthy (ping %v, %d keys, namespace %s)\n",
			health.Latency, health.Keys, a.redis.Key(""))
	} else {
		fmt.Fprintln(out, "ℹ️  Redis disabled (in-process snapshot cache)")
	}

	if a.db != nil {
		status, err := a.db.HealthCheck(ctx)
		if err != nil {
			return fmt.Errorf("❌ database health check: %w", err)
		}
		fmt.Fprintf(out, "✅ Database healthy (response %v, conns %d/%d)\n",
			status.ResponseTime, status.AcquiredConns, status.TotalConns)
	}

	probeCtx, probeCancel := context.WithTimeout(ctx, 30*time.Second)
	defer probeCancel()
	day, err := a.screener.Calendar().LastTradingDayOnOrBefore(probeCtx, contracts.Today(), 10)
	if err != nil {
		return fmt.Errorf("❌ provider probe: %s", contracts.UserMessage(err))
	}
	fmt.Fprintf(out, "✅ Provider reachable (last trading day %s)\n", formatDate(day))

	fmt.Fprintln(out, "\n✅ All checks passed!")
	return nil
}
