package log

// Standard attribute keys. Using the same key everywhere keeps log lines
// queryable across the loader, the trainer and the search.

// Component and operation identification.
const (
	RunIDKey     = "run.id"
	ComponentKey = "ml.component"
	OperationKey = "ml.operation"
	PhaseKey     = "ml.phase"
)

// Data shape.
const (
	PathKey     = "data.path"
	RowsKey     = "data.rows"
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
	GroupsKey   = "data.groups"
	TopicsKey   = "data.topics"
)

// Training progress and metrics.
const (
	DurationMsKey = "perf.duration_ms"
	IterationKey  = "training.iteration"
	FoldKey       = "training.fold"
	TrialKey      = "search.trial"
	ScoreKey      = "metrics.score"
	RMSEKey       = "metrics.rmse"
	R2ScoreKey    = "metrics.r2_score"
	EvalSetKey    = "metrics.eval_set"
)

// Hyperparameters and configuration.
const (
	HyperParamsKey  = "model.hyperparams"
	LearningRateKey = "hyperparams.learning_rate"
	RandomSeedKey   = "config.random_seed"
)

const (
	OperationLoad      = "load"
	OperationClean     = "clean"
	OperationPivot     = "pivot"
	OperationCorrelate = "correlate"
	OperationSplit     = "split"
	OperationSearch    = "search"
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationExplain   = "explain"

	PhaseTraining   = "training"
	PhaseValidation = "validation"
	PhaseTesting    = "testing"
)
