package pipeline

import (
	"context"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/aayushagarwaltech-bot/Transportation/dataset"
	"github.com/aayushagarwaltech-bot/Transportation/pkg/errors"
	"github.com/aayushagarwaltech-bot/Transportation/pkg/log"
	"github.com/aayushagarwaltech-bot/Transportation/schema"
)

// TrainResult summarises a Train run.
type TrainResult struct {
	Bundle   *ModelBundle
	Snapshot string // content-addressed copy, when snapshots are enabled
}

// splitXY loads a Train/Test table checked against s and returns the feature
// matrix in schema order and the target column.
func splitXY(op, path string, s *schema.Schema) (*mat.Dense, *mat.Dense, error) {
	tbl, err := dataset.ReadCSV(path)
	if err != nil {
		return nil, nil, err
	}
	if err := s.CheckTable(op, tbl.Columns); err != nil {
		return nil, nil, err
	}
	if tbl.Len() == 0 {
		return nil, nil, errors.NewValueError(op, "table "+path+" has no rows")
	}
	X, err := tbl.Matrix(s.Features)
	if err != nil {
		return nil, nil, err
	}
	y, err := tbl.Matrix([]string{s.Target})
	if err != nil {
		return nil, nil, err
	}
	return X, y, nil
}

// Train fits the configured estimator on the Train table, using the feature
// order recorded in the schema descriptor, and writes the model bundle.
func (p *Pipeline) Train(ctx context.Context) (TrainResult, error) {
	if err := checkContext(ctx); err != nil {
		return TrainResult{}, err
	}
	start := time.Now()
	logger := p.stageLogger(StageTrain)
	cfg := p.cfg

	s, err := schema.Load(cfg.Paths.Schema)
	if err != nil {
		return TrainResult{}, err
	}
	if s.Len() == 0 {
		return TrainResult{}, errors.NewTrainingError("Train", "schema has no feature columns", nil)
	}
	X, y, err := splitXY("Train", cfg.Paths.Train, s)
	if err != nil {
		var empty *errors.ValueError
		if errors.As(err, &empty) {
			return TrainResult{}, errors.NewTrainingError("Train", "training table has no rows", err)
		}
		return TrainResult{}, err
	}
	if err := errors.CheckMatrix("Train", X); err != nil {
		return TrainResult{}, errors.NewTrainingError("Train", "training features contain missing or non-finite values", err)
	}
	if err := errors.CheckMatrix("Train", y); err != nil {
		return TrainResult{}, errors.NewTrainingError("Train", "target contains missing or non-finite values", err)
	}

	est, err := NewEstimator(cfg.Model)
	if err != nil {
		return TrainResult{}, err
	}
	nSamples, nFeatures := X.Dims()
	logger.Info("fitting model",
		log.ModelNameKey, cfg.Model.Type,
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.HyperParamsKey, cfg.Model.Hyperparameters(),
	)
	if err := est.Fit(X, y); err != nil {
		return TrainResult{}, errors.NewTrainingError("Train", "fit failed", err)
	}

	bundle := &ModelBundle{
		Kind:        cfg.Model.Type,
		Fingerprint: s.Fingerprint,
		Features:    append([]string(nil), s.Features...),
		Target:      s.Target,
		Params:      cfg.Model.Hyperparameters(),
		TrainedAt:   time.Now().UTC(),
		NSamples:    nSamples,
		Estimator:   est,
	}
	snapshotDir := ""
	if cfg.Model.KeepSnapshots {
		snapshotDir = cfg.SnapshotDir()
	}
	snapshot, err := SaveBundle(bundle, cfg.Paths.Model, snapshotDir)
	if err != nil {
		return TrainResult{}, err
	}

	logger.Info("model saved",
		log.PathKey, cfg.Paths.Model,
		log.SchemaFingerprintKey, s.Fingerprint,
		"snapshot", snapshot,
		log.DurationMsKey, since(start),
	)
	return TrainResult{Bundle: bundle, Snapshot: snapshot}, nil
}
