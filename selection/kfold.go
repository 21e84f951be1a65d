package selection

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/surveyboost/pkg/errors"
)

// Splitter yields cross-validation folds.
type Splitter interface {
	Split(X mat.Matrix) ([]Fold, error)
	NSplits() int
}

// Fold is one train/validation partition of row indices.
type Fold struct {
	TrainIndices []int
	TestIndices  []int
}

// KFold splits rows into k consecutive folds. The first n%k folds get one
// extra row. With Shuffle set, rows are permuted with Seed first.
type KFold struct {
	K       int
	Shuffle bool
	Seed    uint64
}

// NewKFold creates an unshuffled k-fold splitter. k < 2 selects 5.
func NewKFold(k int) *KFold {
	if k < 2 {
		k = 5
	}
	return &KFold{K: k}
}

// WithShuffle permutes rows with seed before splitting.
func (kf *KFold) WithShuffle(seed uint64) *KFold {
	kf.Shuffle = true
	kf.Seed = seed
	return kf
}

// NSplits returns k.
func (kf *KFold) NSplits() int {
	return kf.K
}

// Split returns k folds over the rows of X.
func (kf *KFold) Split(X mat.Matrix) ([]Fold, error) {
	n, _ := X.Dims()
	if kf.K < 2 {
		return nil, errors.NewValidationError("cv_folds", "must be at least 2", kf.K)
	}
	if n < kf.K {
		return nil, errors.NewValidationError("cv_folds", "cannot exceed the number of samples", kf.K)
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	if kf.Shuffle {
		r := rand.New(rand.NewPCG(kf.Seed, kf.Seed))
		r.Shuffle(n, func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	folds := make([]Fold, kf.K)
	size, remainder := n/kf.K, n%kf.K
	start := 0
	for f := 0; f < kf.K; f++ {
		testSize := size
		if f < remainder {
			testSize++
		}
		end := start + testSize

		test := append([]int(nil), indices[start:end]...)
		train := make([]int, 0, n-testSize)
		train = append(train, indices[:start]...)
		train = append(train, indices[end:]...)

		folds[f] = Fold{TrainIndices: train, TestIndices: test}
		start = end
	}
	return folds, nil
}

// Subset gathers rows of X and y.
func Subset(X, y mat.Matrix, rows []int) (*mat.Dense, *mat.VecDense) {
	_, cols := X.Dims()
	xs := mat.NewDense(len(rows), cols, nil)
	ys := mat.NewVecDense(len(rows), nil)
	for k, i := range rows {
		for j := 0; j < cols; j++ {
			xs.Set(k, j, X.At(i, j))
		}
		ys.SetVec(k, y.At(i, 0))
	}
	return xs, ys
}
