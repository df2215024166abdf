package pipeline

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/aayushagarwaltech-bot/Transportation/dataset"
	"github.com/aayushagarwaltech-bot/Transportation/pkg/errors"
	"github.com/aayushagarwaltech-bot/Transportation/pkg/log"
	"github.com/aayushagarwaltech-bot/Transportation/schema"
)

// FeaturesResult summarises a BuildFeatures run.
type FeaturesResult struct {
	Schema    *schema.Schema
	TrainRows int
	TestRows  int
}

// BuildFeatures drops the configured columns, derives the schema, splits the
// rows with the configured ratio and seed, and writes Train, Test and the
// schema descriptor. Both tables hold the features in their original
// relative order followed by the target.
func (p *Pipeline) BuildFeatures(ctx context.Context) (FeaturesResult, error) {
	if err := checkContext(ctx); err != nil {
		return FeaturesResult{}, err
	}
	start := time.Now()
	logger := p.stageLogger(StageFeatures)
	cfg := p.cfg

	processed, err := dataset.ReadCSV(cfg.Paths.Processed)
	if err != nil {
		return FeaturesResult{}, err
	}

	kept := processed.Drop(cfg.Features.DropColumns...)
	s, err := schema.Derive(processed.Columns, cfg.Features.Target, cfg.Features.DropColumns)
	if err != nil {
		return FeaturesResult{}, err
	}
	ordered, err := kept.Select(s.Columns()...)
	if err != nil {
		return FeaturesResult{}, err
	}
	if err := requireNumeric(ordered); err != nil {
		return FeaturesResult{}, err
	}

	train, test, err := dataset.TrainTestSplit(ordered, cfg.Preprocessing.TestSize, cfg.Preprocessing.RandomState)
	if err != nil {
		return FeaturesResult{}, err
	}
	if err := dataset.WriteCSV(cfg.Paths.Train, train); err != nil {
		return FeaturesResult{}, err
	}
	if err := dataset.WriteCSV(cfg.Paths.Test, test); err != nil {
		return FeaturesResult{}, err
	}
	if err := s.Save(cfg.Paths.Schema); err != nil {
		return FeaturesResult{}, err
	}

	logger.Info("built feature tables",
		log.FeaturesKey, s.Len(),
		log.SchemaFingerprintKey, s.Fingerprint,
		"train_rows", train.Len(),
		"test_rows", test.Len(),
		log.RandomSeedKey, cfg.Preprocessing.RandomState,
		log.DurationMsKey, since(start),
	)
	return FeaturesResult{Schema: s, TrainRows: train.Len(), TestRows: test.Len()}, nil
}

// requireNumeric fails with a SchemaError naming the first column holding a
// value that is neither missing nor a number. Models only accept numeric
// columns, so such a column has to be dropped or encoded upstream.
func requireNumeric(t *dataset.Table) error {
	for j, col := range t.Columns {
		for i, row := range t.Rows {
			cell := strings.TrimSpace(row[j])
			if dataset.IsNA(cell) {
				continue
			}
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				return errors.NewSchemaError("BuildFeatures", col,
					"non-numeric value "+strconv.Quote(cell)+" in row "+strconv.Itoa(i+1)+"; add the column to features.drop_columns")
			}
		}
	}
	return nil
}
