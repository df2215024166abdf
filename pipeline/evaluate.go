package pipeline

import (
	"context"
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/aayushagarwaltech-bot/Transportation/metrics"
	"github.com/aayushagarwaltech-bot/Transportation/pkg/errors"
	"github.com/aayushagarwaltech-bot/Transportation/pkg/log"
	"github.com/aayushagarwaltech-bot/Transportation/report"
	"github.com/aayushagarwaltech-bot/Transportation/schema"
)

// EvaluateResult holds the metrics and the raw predictions of one run.
type EvaluateResult struct {
	Report      metrics.Report
	Actual      []float64
	Predictions []float64
}

// Evaluate scores the model on the Test table and overwrites the metrics
// file. SS_tot for r2 is taken around the Test mean. When a plot path is
// configured a predicted-vs-actual PNG is written too.
func (p *Pipeline) Evaluate(ctx context.Context) (EvaluateResult, error) {
	if err := checkContext(ctx); err != nil {
		return EvaluateResult{}, err
	}
	start := time.Now()
	logger := p.stageLogger(StageEvaluate)
	cfg := p.cfg

	s, err := schema.Load(cfg.Paths.Schema)
	if err != nil {
		return EvaluateResult{}, err
	}
	bundle, err := LoadBundle(cfg.Paths.Model)
	if err != nil {
		return EvaluateResult{}, err
	}
	if err := bundle.CheckSchema(s); err != nil {
		return EvaluateResult{}, err
	}
	X, y, err := splitXY("Evaluate", cfg.Paths.Test, s)
	if err != nil {
		return EvaluateResult{}, err
	}
	if err := checkFinite("Evaluate", cfg.Paths.Test, X, s.Features); err != nil {
		return EvaluateResult{}, err
	}
	if err := checkFinite("Evaluate", cfg.Paths.Test, y, []string{s.Target}); err != nil {
		return EvaluateResult{}, err
	}

	pred, err := bundle.Predict(X)
	if err != nil {
		return EvaluateResult{}, errors.Wrap(err, "evaluate: predict")
	}
	rep, err := metrics.Evaluate(y, pred)
	if err != nil {
		return EvaluateResult{}, err
	}
	if err := rep.Save(cfg.Paths.Metrics); err != nil {
		return EvaluateResult{}, err
	}

	actual := mat.Col(nil, 0, y)
	predictions := mat.Col(nil, 0, pred)
	if cfg.Paths.Plot != "" {
		title := "predicted vs actual " + s.Target
		if err := report.SavePredictionPlot(cfg.Paths.Plot, actual, predictions, title); err != nil {
			return EvaluateResult{}, err
		}
	}

	logger.Info("evaluated model",
		log.OperationKey, log.OperationScore,
		log.PhaseKey, log.PhaseTesting,
		log.SamplesKey, len(actual),
		log.RMSEKey, rep.RMSE,
		log.R2ScoreKey, rep.R2,
		log.MAEKey, rep.MAE,
		log.MaxErrorKey, rep.MaxError,
		log.PathKey, cfg.Paths.Metrics,
		log.DurationMsKey, since(start),
	)
	return EvaluateResult{Report: rep, Actual: actual, Predictions: predictions}, nil
}

// checkFinite reports the first missing or non-finite cell of m as a
// DataFormatError naming its column and file line. Tables written by the
// pipeline hold one record per line after the header.
func checkFinite(op, path string, m *mat.Dense, columns []string) error {
	err := errors.CheckMatrix(op, m)
	if err == nil {
		return nil
	}
	var nf *errors.NonFiniteError
	if !errors.As(err, &nf) {
		return err
	}
	return errors.NewDataFormatError(path, nf.Row+2,
		fmt.Sprintf("column %q has a missing or non-finite value", columns[nf.Col]), err)
}
