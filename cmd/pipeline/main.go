// Command pipeline runs the batch stages (acquire, preprocess, features,
// train, evaluate), skipping those whose inputs and parameters are
// unchanged since their last successful run.
//
//	pipeline [-config params.yaml] [-force] [stage ...]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aayushagarwaltech-bot/Transportation/acquire"
	"github.com/aayushagarwaltech-bot/Transportation/config"
	"github.com/aayushagarwaltech-bot/Transportation/orchestrator"
	"github.com/aayushagarwaltech-bot/Transportation/pipeline"
	"github.com/aayushagarwaltech-bot/Transportation/pkg/errors"
	"github.com/aayushagarwaltech-bot/Transportation/pkg/log"
)

func main() {
	configPath := flag.String("config", "", "path to params.yaml (default: ./params.yaml if present)")
	force := flag.Bool("force", false, "re-run every selected stage regardless of cached state")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [stage ...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	os.Exit(run(*configPath, *force, flag.Args()))
}

func run(configPath string, force bool, targets []string) int {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		return 2
	}
	if err := log.SetupLogger(cfg.Logging.Level); err != nil {
		fmt.Fprintln(os.Stderr, "logging error:", err)
		return 2
	}
	logger := log.GetLoggerWithName("cmd.pipeline")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	graph, err := orchestrator.BuildChain(pipeline.New(cfg), acquire.New())
	if err != nil {
		logger.Error("cannot build stage graph", err)
		return 1
	}
	runner := orchestrator.NewRunner(graph, cfg.Paths.State, orchestrator.WithForce(force))
	report, err := runner.Run(ctx, targets...)
	if report != nil {
		for _, res := range report.Results {
			fmt.Printf("%-10s %-7s %s\n", res.Stage, res.Status, res.Reason)
		}
	}
	if err != nil {
		var se *orchestrator.StageError
		if errors.As(err, &se) {
			logger.Error("pipeline failed", se.Err,
				log.StageKey, se.Stage,
				log.RunIDKey, se.RunID,
				log.ErrorTypeKey, errorType(se.Err),
			)
			fmt.Fprintf(os.Stderr, "pipeline failed at stage %q: %v\n", se.Stage, se.Err)
		} else {
			fmt.Fprintln(os.Stderr, "pipeline failed:", err)
		}
		return 1
	}
	return 0
}

// errorType names the taxonomy class of err for the failure log.
func errorType(err error) string {
	var (
		dataErr     *errors.DataFormatError
		schemaErr   *errors.SchemaError
		trainErr    *errors.TrainingError
		mismatchErr *errors.SchemaMismatchError
		validErr    *errors.ValidationError
	)
	switch {
	case errors.As(err, &dataErr):
		return "DataFormatError"
	case errors.As(err, &schemaErr):
		return "SchemaError"
	case errors.As(err, &trainErr):
		return "TrainingError"
	case errors.As(err, &mismatchErr):
		return "SchemaMismatchError"
	case errors.As(err, &validErr):
		return "ValidationError"
	default:
		return "error"
	}
}
