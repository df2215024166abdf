// Package pipeline implements the batch stages that turn the raw bike-share
// table into a trained model and its metrics:
//
//	raw -> Preprocess -> BuildFeatures (train, test, schema) -> Train -> Evaluate
//
// Every stage reads only its declared input files and overwrites only its
// own outputs, so re-running a stage with unchanged inputs is idempotent.
package pipeline

import (
	"context"
	"time"

	"github.com/aayushagarwaltech-bot/Transportation/config"
	"github.com/aayushagarwaltech-bot/Transportation/pkg/log"
)

// Stage names, shared with the orchestrator and the CLI.
const (
	StageAcquire    = "acquire"
	StagePreprocess = "preprocess"
	StageFeatures   = "features"
	StageTrain      = "train"
	StageEvaluate   = "evaluate"
)

// Pipeline runs the stages against the paths and parameters of one config.
type Pipeline struct {
	cfg    *config.Config
	logger log.Logger
}

// New returns a Pipeline for cfg. cfg is not copied and must not change
// while stages run.
func New(cfg *config.Config) *Pipeline {
	return &Pipeline{cfg: cfg, logger: log.GetLoggerWithName("pipeline")}
}

// WithLogger replaces the logger, mostly for tests.
func (p *Pipeline) WithLogger(l log.Logger) *Pipeline {
	p.logger = l
	return p
}

// Config returns the configuration the stages run with.
func (p *Pipeline) Config() *config.Config { return p.cfg }

func (p *Pipeline) stageLogger(stage string) log.Logger {
	return p.logger.With(log.StageKey, stage)
}

func since(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}

func checkContext(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}
