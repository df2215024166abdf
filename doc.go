// Package transportation predicts daily bike-share demand from calendar and
// weather covariates.
//
// The module has two halves: an offline batch pipeline that turns the raw
// UCI day.csv table into a trained regression model and its metrics, and a
// small HTTP front end that serves single predictions from partial,
// human-entered inputs.
//
// # Pipeline
//
//	acquire -> preprocess -> features (train, test, schema) -> train -> evaluate
//
// Every stage reads only its declared input files and overwrites only its
// own outputs. The orchestrator hashes inputs and parameters and re-runs
// only what changed:
//
//	go run ./cmd/pipeline                 # run what is out of date
//	go run ./cmd/pipeline -force train    # retrain and everything upstream
//
// # Serving
//
//	go run ./cmd/serve -addr :8080
//	curl -X POST localhost:8080/predict -d '{"season": 2, "month": 6, "temperature": 0.5}'
//
// Features the caller leaves out are set to zero. The lower and upper values
// in a response are the prediction plus or minus a fixed band; they are not a
// statistical interval.
//
// # Packages
//
//   - config: params.yaml loading with TRANSPORT_* environment overrides
//   - dataset: CSV tables, missing values and the seeded train/test split
//   - schema: the persisted, fingerprinted feature layout
//   - pipeline: the batch stages and the model bundle
//   - orchestrator: stage graph, content stamps and run state
//   - acquire: dataset download with the zip archive fallback
//   - serving: feature vector reconstruction and the gin HTTP API
//   - sklearn/tree, sklearn/ensemble, linear: the regressors
//   - metrics, report: rmse/r2 and the predicted-vs-actual plot
//   - core/model, core/parallel: estimator contracts, persistence and workers
//   - pkg/errors, pkg/log, pkg/fsutil: error taxonomy, logging, atomic files
package transportation
