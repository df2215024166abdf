package pipeline

import (
	"context"
	"time"

	"github.com/aayushagarwaltech-bot/Transportation/dataset"
	"github.com/aayushagarwaltech-bot/Transportation/pkg/log"
)

// PreprocessResult summarises a Preprocess run.
type PreprocessResult struct {
	Rows    int // rows written
	Dropped int // fully empty rows removed
}

// Preprocess removes rows whose cells are all missing from the raw table and
// writes the rest, in order, to the processed path. Nothing else is changed.
// An unreadable raw file is a DataFormatError.
func (p *Pipeline) Preprocess(ctx context.Context) (PreprocessResult, error) {
	if err := checkContext(ctx); err != nil {
		return PreprocessResult{}, err
	}
	start := time.Now()
	logger := p.stageLogger(StagePreprocess)

	raw, err := dataset.ReadCSV(p.cfg.Dataset.RawPath)
	if err != nil {
		return PreprocessResult{}, err
	}
	cleaned, dropped := raw.DropEmptyRows()
	if err := dataset.WriteCSV(p.cfg.Paths.Processed, cleaned); err != nil {
		return PreprocessResult{}, err
	}

	logger.Info("preprocessed raw table",
		log.PathKey, p.cfg.Paths.Processed,
		log.SamplesKey, cleaned.Len(),
		log.DroppedRowsKey, dropped,
		log.DurationMsKey, since(start),
	)
	return PreprocessResult{Rows: cleaned.Len(), Dropped: dropped}, nil
}
