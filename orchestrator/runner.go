package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aayushagarwaltech-bot/Transportation/pkg/errors"
	"github.com/aayushagarwaltech-bot/Transportation/pkg/log"
)

// Status of a stage within one invocation.
type Status string

const (
	StatusRan     Status = "ran"
	StatusCached  Status = "cached"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// StageResult is one line of a Report.
type StageResult struct {
	Stage    string        `json:"stage"`
	Status   Status        `json:"status"`
	Reason   string        `json:"reason,omitempty"`
	Stamp    string        `json:"stamp,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Report summarises one Run call.
type Report struct {
	RunID   string        `json:"run_id"`
	Results []StageResult `json:"results"`
}

// Status returns the status recorded for stage, or "" if it was not planned.
func (r *Report) Status(stage string) Status {
	for _, res := range r.Results {
		if res.Stage == stage {
			return res.Status
		}
	}
	return ""
}

// Runner executes a Graph, skipping stages whose stamp is unchanged.
type Runner struct {
	graph     *Graph
	statePath string
	force     bool
	logger    log.Logger
	now       func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithForce re-runs every planned stage regardless of its stamp.
func WithForce(force bool) Option {
	return func(r *Runner) { r.force = force }
}

// WithLogger replaces the runner's logger.
func WithLogger(l log.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// NewRunner returns a Runner persisting its history at statePath.
func NewRunner(g *Graph, statePath string, opts ...Option) *Runner {
	r := &Runner{
		graph:     g,
		statePath: statePath,
		logger:    log.GetLoggerWithName("orchestrator"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes targets and their upstream stages (every stage when no target
// is named) in graph order.
//
// A stage runs when forced, when its stamp differs from the last success,
// when one of its outputs is missing, or when an upstream stage ran in this
// invocation; otherwise it is reported cached. The first failure stops the
// run with a *StageError. The failed stage's record is left untouched, and
// records of stages that succeeded before it are kept.
func (r *Runner) Run(ctx context.Context, targets ...string) (*Report, error) {
	plan, err := r.graph.Plan(targets...)
	if err != nil {
		return nil, err
	}
	state, err := LoadState(r.statePath)
	if err != nil {
		return nil, err
	}

	report := &Report{RunID: uuid.New().String()}
	logger := r.logger.With(log.RunIDKey, report.RunID)
	logger.Info("pipeline run started", "stages", plan, "force", r.force)

	ran := make(map[string]bool, len(plan))
	for i, name := range plan {
		stage, _ := r.graph.Stage(name)
		stageLog := logger.With(log.StageKey, name)

		if err := ctx.Err(); err != nil {
			report.skip(plan[i:])
			return report, &StageError{Stage: name, RunID: report.RunID, Err: errors.WithStack(err)}
		}

		stamp, err := Stamp(stage)
		if err != nil {
			report.skip(plan[i:])
			return report, &StageError{Stage: name, RunID: report.RunID, Err: err}
		}

		reason, err := r.reason(stage, stamp, state, ran)
		if err != nil {
			report.skip(plan[i:])
			return report, &StageError{Stage: name, RunID: report.RunID, Err: err}
		}
		if reason == "" {
			stageLog.Debug("stage cached", log.StampKey, stamp)
			report.Results = append(report.Results, StageResult{Stage: name, Status: StatusCached, Stamp: stamp})
			continue
		}

		stageLog.Info("stage started", "reason", reason)
		start := r.now()
		runErr := errors.SafeExecute(name, func() error { return stage.Run(ctx) })
		elapsed := r.now().Sub(start)

		if runErr == nil {
			// ステージ完了後に出力が揃っていることを確認する
			if missing, err := missingOutputs(stage); err != nil {
				runErr = err
			} else if len(missing) > 0 {
				runErr = errors.Newf("stage did not produce %v", missing)
			}
		}
		if runErr != nil {
			stageLog.Error("stage failed", runErr, log.DurationMsKey, elapsed.Milliseconds())
			report.Results = append(report.Results, StageResult{
				Stage: name, Status: StatusFailed, Reason: reason, Stamp: stamp, Duration: elapsed,
			})
			report.skip(plan[i+1:])
			return report, &StageError{Stage: name, RunID: report.RunID, Err: runErr}
		}

		ran[name] = true
		state.Stages[name] = StageRecord{Stamp: stamp, RunID: report.RunID, FinishedAt: r.now().UTC()}
		if err := state.Save(r.statePath); err != nil {
			report.skip(plan[i+1:])
			return report, &StageError{Stage: name, RunID: report.RunID, Err: err}
		}
		report.Results = append(report.Results, StageResult{
			Stage: name, Status: StatusRan, Reason: reason, Stamp: stamp, Duration: elapsed,
		})
		stageLog.Info("stage finished", log.StampKey, stamp, log.DurationMsKey, elapsed.Milliseconds())
	}

	logger.Info("pipeline run finished")
	return report, nil
}

// reason explains why a stage must run, or returns "" when it is cached.
func (r *Runner) reason(s *Stage, stamp string, state *State, ran map[string]bool) (string, error) {
	if r.force {
		return "forced", nil
	}
	for _, d := range s.Deps {
		if ran[d] {
			return "upstream " + d + " ran", nil
		}
	}
	rec, ok := state.Stages[s.Name]
	if !ok {
		return "no previous run", nil
	}
	if rec.Stamp != stamp {
		return "inputs or parameters changed", nil
	}
	missing, err := missingOutputs(s)
	if err != nil {
		return "", err
	}
	if len(missing) > 0 {
		return "output missing", nil
	}
	return "", nil
}

func (r *Report) skip(names []string) {
	for _, n := range names {
		r.Results = append(r.Results, StageResult{Stage: n, Status: StatusSkipped})
	}
}
