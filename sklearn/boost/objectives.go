package boost

// ObjectiveFunction defines the loss minimised by boosting.
type ObjectiveFunction interface {
	// CalculateGradient returns the first derivative of the loss w.r.t. the prediction.
	CalculateGradient(prediction, target float64) float64

	// CalculateHessian returns the second derivative of the loss.
	CalculateHessian(prediction, target float64) float64

	// CalculateLoss returns the pointwise loss.
	CalculateLoss(prediction, target float64) float64

	// GetInitScore returns the constant prediction the ensemble starts from.
	GetInitScore(targets []float64) float64

	// Name returns the objective identifier.
	Name() string
}

// SquaredError is the reg:squarederror objective.
type SquaredError struct{}

// NewSquaredError creates the squared-error objective.
func NewSquaredError() *SquaredError {
	return &SquaredError{}
}

// CalculateGradient for squared error: pred - y
func (o *SquaredError) CalculateGradient(prediction, target float64) float64 {
	return prediction - target
}

// CalculateHessian for squared error is constant.
func (o *SquaredError) CalculateHessian(prediction, target float64) float64 {
	return 1.0
}

// CalculateLoss returns 0.5 * (pred - y)^2
func (o *SquaredError) CalculateLoss(prediction, target float64) float64 {
	diff := prediction - target
	return 0.5 * diff * diff
}

// GetInitScore returns the mean of targets.
func (o *SquaredError) GetInitScore(targets []float64) float64 {
	if len(targets) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, t := range targets {
		sum += t
	}
	return sum / float64(len(targets))
}

// Name returns the objective name.
func (o *SquaredError) Name() string {
	return "reg:squarederror"
}
