// Package scheduler implements the periodic check cycle that drives alert
// evaluation. One cycle iterates every configured alert sequentially,
// isolates per-alert failures, classifies the outcome, and records the last
// check timestamp for staleness display.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"precipwatch/internal/types"
)

// checkCycleKey is the shared unique-work key that deduplicates a manual
// "run now" request against an in-flight periodic run. At most one cycle
// executes at a time; concurrent requests join the in-flight one.
const checkCycleKey = "check-cycle"

// AlertSource abstracts the alert listing the cycle iterates over.
type AlertSource interface {
	List(ctx context.Context) ([]types.Alert, error)
}

// Evaluator abstracts the alert evaluation engine.
type Evaluator interface {
	Evaluate(ctx context.Context, alert *types.Alert) (*types.EvaluationResult, error)
}

// CheckpointStore persists the last-check timestamp.
type CheckpointStore interface {
	SetLastCheck(ctx context.Context, t time.Time) error
}

// CheckRunner executes check cycles. It owns no retry logic: the next
// scheduled tick is the retry mechanism, and a cancelled cycle simply leaves
// alerts to be re-evaluated fresh on the next one.
type CheckRunner struct {
	alerts AlertSource
	engine Evaluator
	prefs  CheckpointStore
	logger *slog.Logger
	clock  types.Clock

	group singleflight.Group
}

// CheckRunnerConfig holds the dependencies for creating a CheckRunner.
type CheckRunnerConfig struct {
	Alerts AlertSource
	Engine Evaluator
	Prefs  CheckpointStore
	Logger *slog.Logger
	Clock  types.Clock
}

// NewCheckRunner creates a CheckRunner with the given configuration.
func NewCheckRunner(cfg CheckRunnerConfig) *CheckRunner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.RealClock{}
	}
	return &CheckRunner{
		alerts: cfg.Alerts,
		engine: cfg.Engine,
		prefs:  cfg.Prefs,
		logger: logger,
		clock:  clock,
	}
}

// Run executes one check cycle, deduplicated under the shared work key.
// Both the periodic tick and the manual "run now" trigger come through here,
// so a manual request during an in-flight periodic run receives that run's
// report instead of starting a second cycle.
func (r *CheckRunner) Run(ctx context.Context) (*types.CycleReport, error) {
	v, err, _ := r.group.Do(checkCycleKey, func() (interface{}, error) {
		return r.runCycle(ctx), nil
	})
	if err != nil {
		return nil, err
	}
	report := v.(*types.CycleReport)
	if report.Outcome == types.CycleFailure {
		return report, types.NewAppError(types.ErrCodeInternalUnexpected, "check cycle failed", nil)
	}
	return report, nil
}

// runCycle performs the actual pass: Idle -> Running -> outcome -> Idle.
//
// Alerts are evaluated sequentially in persisted order — one in-flight
// provider call at a time is deliberately rate-limit friendly. A failure for
// one alert never aborts the others; it is captured in the report instead.
// The last check timestamp is persisted regardless of partial failures.
func (r *CheckRunner) runCycle(ctx context.Context) *types.CycleReport {
	report := &types.CycleReport{StartedAt: r.clock.Now()}

	alerts, err := r.alerts.List(ctx)
	if err != nil {
		// Systemic: without the alert list there is no cycle to run.
		r.logger.ErrorContext(ctx, "check cycle aborted: cannot list alerts", "error", err)
		report.Outcome = types.CycleFailure
		report.FinishedAt = r.clock.Now()
		return report
	}

	networkFailures := 0
	for i := range alerts {
		alert := &alerts[i]

		result, err := r.engine.Evaluate(ctx, alert)
		if err != nil {
			if types.IsNetworkClass(err) {
				networkFailures++
			}
			r.logger.ErrorContext(ctx, "alert evaluation failed",
				"alert_id", alert.ID,
				"city_id", alert.CityID,
				"code", string(types.CodeOf(err)),
				"error", err,
			)
			report.Failures = append(report.Failures, types.AlertFailure{
				AlertID: alert.ID,
				CityID:  alert.CityID,
				Err:     err,
				Code:    types.CodeOf(err),
			})
			continue
		}

		report.Evaluated++
		report.Results = append(report.Results, *result)
		if result.Active && !result.Snoozed {
			report.Triggered++
		}
	}

	report.Outcome = classify(len(alerts), report.Evaluated, networkFailures)
	report.FinishedAt = r.clock.Now()

	// Persist the completion time regardless of outcome so the UI shows
	// staleness accurately.
	if err := r.prefs.SetLastCheck(ctx, report.FinishedAt); err != nil {
		r.logger.ErrorContext(ctx, "failed to persist last check timestamp", "error", err)
	}

	r.logger.InfoContext(ctx, "check cycle complete",
		"outcome", string(report.Outcome),
		"evaluated", report.Evaluated,
		"triggered", report.Triggered,
		"failed", len(report.Failures),
		"duration", report.FinishedAt.Sub(report.StartedAt).String(),
	)

	return report
}

// classify maps cycle counts onto the outcome state machine. Every alert
// failing with a connectivity-level error means the network itself is down:
// that is a systemic Failure, not a pile of partial ones.
func classify(total, evaluated, networkFailures int) types.CycleOutcome {
	switch {
	case total > 0 && evaluated == 0 && networkFailures == total:
		return types.CycleFailure
	case evaluated < total:
		return types.CyclePartialFailure
	default:
		return types.CycleSuccess
	}
}
