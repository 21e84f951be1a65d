package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる。y は n×1 の列ベクトル。
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を n×1 の行列で返す
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Regressor is a model that can be trained and then queried.
type Regressor interface {
	Fitter
	Predictor
}

// Factory builds a fresh, unfitted Regressor. Cross-validation calls it once
// per fold so that folds never share state.
type Factory func() Regressor
