package model

import (
	"sync"

	"github.com/YuminosukeSato/surveyboost/pkg/errors"
)

// EstimatorState はモデルの学習状態を表す型
type EstimatorState int

const (
	// NotFitted はモデルが未学習の状態
	NotFitted EstimatorState = iota
	// Fitted はモデルが学習済みの状態
	Fitted
)

// BaseEstimator は全モデルの基底となる構造体。
// 学習状態と学習時の入力次元を保持する。
type BaseEstimator struct {
	mu        sync.RWMutex
	state     EstimatorState
	nFeatures int
	nSamples  int
}

// IsFitted はモデルが学習済みかどうかを返す
func (e *BaseEstimator) IsFitted() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state == Fitted
}

// SetFitted はモデルを学習済み状態に設定する
func (e *BaseEstimator) SetFitted() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = Fitted
}

// Reset はモデルを初期状態に戻す
func (e *BaseEstimator) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = NotFitted
	e.nFeatures = 0
	e.nSamples = 0
}

// SetDimensions records the training shape.
func (e *BaseEstimator) SetDimensions(nSamples, nFeatures int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nSamples = nSamples
	e.nFeatures = nFeatures
}

// NFeatures returns the feature count seen during Fit.
func (e *BaseEstimator) NFeatures() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.nFeatures
}

// NSamples returns the sample count seen during Fit.
func (e *BaseEstimator) NSamples() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.nSamples
}

// RequireFitted returns a NotFittedError when the model is untrained.
func (e *BaseEstimator) RequireFitted(modelName, method string) error {
	if !e.IsFitted() {
		return errors.NewNotFittedError(modelName, method)
	}
	return nil
}

// CheckFeatures verifies that X has the number of columns seen in Fit.
func (e *BaseEstimator) CheckFeatures(op string, cols int) error {
	if want := e.NFeatures(); cols != want {
		return errors.NewDimensionError(op, want, cols, 1)
	}
	return nil
}
