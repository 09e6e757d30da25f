package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/flowscan/internal/contracts"
	"github.com/wonny/flowscan/internal/scheduler"
	"github.com/wonny/flowscan/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `장 마감 후 정기 스크리닝 스케줄러를 시작하거나 즉시 실행합니다.

Subcommands:
  start   - 스케줄러 시작 (SCHEDULE_CRON, 기본 평일 16:40 KST)
  run     - 정기 스크리닝 즉시 1회 실행

Example:
  go run ./cmd/flowscan scheduler start
  go run ./cmd/flowscan scheduler run`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		RunE:  runScheduler,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run",
		Short: "정기 스크리닝 즉시 실행",
		RunE:  runScheduledNow,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

// initScheduler wires the post-close screen job
func initScheduler(a *app) (*scheduler.Scheduler, *jobs.ScreenJob, error) {
	markets := make([]contracts.Market, 0, len(a.cfg.ScheduleMarkets))
	for _, m := range a.cfg.ScheduleMarkets {
		market, err := contracts.ParseMarket(m)
		if err != nil {
			return nil, nil, err
		}
		markets = append(markets, market)
	}

	sched := scheduler.New(scheduler.DefaultConfig(), a.log)
	job := jobs.NewScreenJob(a.screener, markets, a.cfg.ScheduleCron, a.log)
	if err := sched.AddJob(job); err != nil {
		return nil, nil, err
	}
	return sched, job, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, job, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	if next, ok := sched.NextRun(job.Name()); ok {
		fmt.Printf("  - %s (next: %s)\n", job.Name(), next.In(contracts.KST).Format(time.RFC3339))
	}
	fmt.Println("\nPress Ctrl+C to stop")

	<-ctx.Done()
	sched.Stop()
	return nil
}

func runScheduledNow(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, job, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer sched.Stop()

	result, err := sched.RunJob(job.Name())
	if err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("job %s failed after %d attempts: %s", result.JobName, result.Attempts, result.Error)
	}

	for _, m := range a.cfg.ScheduleMarkets {
		market, _ := contracts.ParseMarket(m)
		if res, ok := job.Latest(market); ok {
			if jsonOutput {
				if err := printJSON(cmd.OutOrStdout(), res); err != nil {
					return err
				}
				continue
			}
			printScreenResult(cmd.OutOrStdout(), res)
		}
	}
	return nil
}
