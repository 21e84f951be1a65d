package tune

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/surveyboost/pkg/errors"
)

func TestTrialsRecordAndLookup(t *testing.T) {
	ts := NewTrials()
	first := ts.Record(Trial{Point: Point{"x": 1}, Loss: 3})
	assert.Equal(t, 0, first.Number)
	assert.NotEqual(t, uuid.Nil, first.ID)

	ts.Record(Trial{Point: Point{"x": 2}, State: TrialFailed, Err: errors.New("boom")})
	ts.Record(Trial{Point: Point{"x": 3}, Loss: 1})
	ts.Record(Trial{Point: Point{"x": 4}, Loss: 1})

	loss, ok := ts.Lookup(Point{"x": 1})
	require.True(t, ok)
	assert.Equal(t, 3.0, loss)
	_, ok = ts.Lookup(Point{"x": 2})
	assert.False(t, ok, "failed trials are not memoised")

	best, ok := ts.Best()
	require.True(t, ok)
	assert.Equal(t, 2, best.Number, "ties keep the earliest trial")

	assert.Equal(t, 4, ts.Len())
	assert.Len(t, ts.Complete(), 3)
	assert.Equal(t, []float64{3, 3, 1, 1}, ts.Losses())
	assert.Equal(t, "failed", ts.All()[1].State.String())
}

func TestTrialsEmpty(t *testing.T) {
	ts := NewTrials()
	_, ok := ts.Best()
	assert.False(t, ok)
	assert.Empty(t, ts.Losses())
}

func TestSortedByLoss(t *testing.T) {
	got := sortedByLoss([]Trial{
		{Number: 0, Loss: 2},
		{Number: 1, Loss: math.Inf(1), State: TrialFailed},
		{Number: 2, Loss: 1},
	})
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Number)
	assert.Equal(t, 0, got[1].Number)
}
