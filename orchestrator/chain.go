package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aayushagarwaltech-bot/Transportation/config"
	"github.com/aayushagarwaltech-bot/Transportation/pipeline"
	"github.com/aayushagarwaltech-bot/Transportation/pkg/fsutil"
)

// Fetcher downloads the raw dataset; *acquire.Downloader satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, url, rawPath string) error
}

// BuildChain wires the batch stages of p into a graph:
//
//	[acquire ->] preprocess -> features -> train -> evaluate
//
// acquire is only part of the chain when a dataset URL is configured, a
// fetcher is given and the raw file is not yet on disk.
func BuildChain(p *pipeline.Pipeline, fetch Fetcher) (*Graph, error) {
	cfg := p.Config()

	var stages []Stage
	var preprocessDeps []string
	if fetch != nil && cfg.Dataset.URL != "" {
		present, err := fsutil.Exists(cfg.Dataset.RawPath)
		if err != nil {
			return nil, err
		}
		if !present {
			stages = append(stages, Stage{
				Name:    pipeline.StageAcquire,
				Outputs: []string{cfg.Dataset.RawPath},
				Params:  map[string]string{"url": cfg.Dataset.URL},
				Run: func(ctx context.Context) error {
					return fetch.Fetch(ctx, cfg.Dataset.URL, cfg.Dataset.RawPath)
				},
			})
			preprocessDeps = []string{pipeline.StageAcquire}
		}
	}

	evalOutputs := []string{cfg.Paths.Metrics}
	if cfg.Paths.Plot != "" {
		evalOutputs = append(evalOutputs, cfg.Paths.Plot)
	}

	stages = append(stages,
		Stage{
			Name:    pipeline.StagePreprocess,
			Deps:    preprocessDeps,
			Inputs:  []string{cfg.Dataset.RawPath},
			Outputs: []string{cfg.Paths.Processed},
			Run: func(ctx context.Context) error {
				_, err := p.Preprocess(ctx)
				return err
			},
		},
		Stage{
			Name:    pipeline.StageFeatures,
			Deps:    []string{pipeline.StagePreprocess},
			Inputs:  []string{cfg.Paths.Processed},
			Outputs: []string{cfg.Paths.Train, cfg.Paths.Test, cfg.Paths.Schema},
			Params:  featureParams(cfg),
			Run: func(ctx context.Context) error {
				_, err := p.BuildFeatures(ctx)
				return err
			},
		},
		Stage{
			Name:    pipeline.StageTrain,
			Deps:    []string{pipeline.StageFeatures},
			Inputs:  []string{cfg.Paths.Train, cfg.Paths.Schema},
			Outputs: []string{cfg.Paths.Model},
			Params:  modelParams(cfg.Model),
			Run: func(ctx context.Context) error {
				_, err := p.Train(ctx)
				return err
			},
		},
		Stage{
			Name:    pipeline.StageEvaluate,
			Deps:    []string{pipeline.StageTrain},
			Inputs:  []string{cfg.Paths.Test, cfg.Paths.Schema, cfg.Paths.Model},
			Outputs: evalOutputs,
			Params:  map[string]string{"plot": cfg.Paths.Plot},
			Run: func(ctx context.Context) error {
				_, err := p.Evaluate(ctx)
				return err
			},
		},
	)
	return NewGraph(stages)
}

func featureParams(cfg *config.Config) map[string]string {
	drop := append([]string(nil), cfg.Features.DropColumns...)
	sort.Strings(drop)
	return map[string]string{
		"target":       cfg.Features.Target,
		"drop_columns": strings.Join(drop, ","),
		"test_size":    strconv.FormatFloat(cfg.Preprocessing.TestSize, 'g', -1, 64),
		"random_state": strconv.FormatInt(cfg.Preprocessing.RandomState, 10),
	}
}

func modelParams(m config.Model) map[string]string {
	out := make(map[string]string)
	for k, v := range m.Hyperparameters() {
		out[k] = fmt.Sprint(v)
	}
	out["keep_snapshots"] = strconv.FormatBool(m.KeepSnapshots)
	return out
}
