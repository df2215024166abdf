// Package log defines standard attribute keys for pipeline and serving logs.
//
// Keys follow a hierarchical naming convention ("model.name", "data.samples")
// so that a whole pipeline run can be filtered by stage, run id or operation.

package log

// Model and operation context.
const (
	// ModelNameKey identifies the estimator type, e.g. "RandomForestRegressor".
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed ("fit", "predict", "score").
	OperationKey = "ml.operation"

	// ComponentKey identifies the package emitting the record.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the model lifecycle.
	PhaseKey = "ml.phase"
)

// Pipeline context.
const (
	// StageKey names the pipeline stage ("preprocess", "features", "train", "evaluate").
	StageKey = "pipeline.stage"

	// RunIDKey identifies one orchestrator invocation.
	RunIDKey = "run.id"

	// StampKey is the content hash of a stage's declared inputs and params.
	StampKey = "pipeline.stamp"

	// PathKey is the artifact path being read or written.
	PathKey = "artifact.path"

	// SchemaFingerprintKey identifies the feature schema an artifact was built for.
	SchemaFingerprintKey = "schema.fingerprint"
)

// Data shape.
const (
	// SamplesKey is the number of rows.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of feature columns.
	FeaturesKey = "data.features"

	// DroppedRowsKey is the number of rows removed by a stage.
	DroppedRowsKey = "data.dropped_rows"
)

// Performance and metrics.
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// RMSEKey records root mean squared error.
	RMSEKey = "metrics.rmse"

	// R2ScoreKey records the coefficient of determination.
	R2ScoreKey = "metrics.r2_score"

	// MAEKey records mean absolute error.
	MAEKey = "metrics.mae"

	// MaxErrorKey records the largest absolute residual.
	MaxErrorKey = "metrics.max_error"

	// PredictionKey records a served point estimate.
	PredictionKey = "preds.value"
)

// Error context.
const (
	// ErrorTypeKey categorizes the error, e.g. "SchemaError".
	ErrorTypeKey = "error.type"

	// SuggestionKey provides a hint for resolving the issue.
	SuggestionKey = "error.suggestion"
)

// Hyperparameters.
const (
	// HyperParamsKey contains model hyperparameters as a structured object.
	HyperParamsKey = "model.hyperparams"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"
)

// Standard attribute values.
const (
	OperationFit     = "fit"
	OperationPredict = "predict"
	OperationScore   = "score"

	PhaseTraining  = "training"
	PhaseTesting   = "testing"
	PhaseInference = "inference"
)
