package log

import (
	"context"
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sberrors "github.com/YuminosukeSato/surveyboost/pkg/errors"
)

func TestLoggerInterface(t *testing.T) {
	logger := NewTestLogger(LevelDebug)

	logger.Debug("debug message", "key1", "value1", "number", 42)
	logger.Info("info message", OperationKey, OperationLoad)
	logger.Warn("warning message", "warning_code", "TEST_WARNING")
	logger.Error("error message", fmt.Errorf("test error"), "error_code", "TEST_ERROR")

	require.NotEmpty(t, logger.Output())
	for _, msg := range []string{"debug message", "info message", "warning message", "error message"} {
		assert.True(t, logger.ContainsMessage(msg), msg)
	}
	assert.True(t, logger.ContainsField("key1", "value1"))
	assert.True(t, logger.ContainsField("number", 42.0))
	assert.True(t, logger.ContainsField(ErrAttrKey, "test error"))
	assert.True(t, logger.ContainsField("level", "error"))
}

func TestLoggerWith(t *testing.T) {
	logger := NewTestLogger(LevelDebug)

	ctxLogger := logger.With(RunIDKey, "run-1", ComponentKey, "boost.trainer")
	ctxLogger.Info("contextual message", OperationKey, OperationFit)

	assert.True(t, logger.ContainsField(RunIDKey, "run-1"))
	assert.True(t, logger.ContainsField(ComponentKey, "boost.trainer"))
	assert.True(t, logger.ContainsField(OperationKey, OperationFit))
}

func TestLoggerEnabled(t *testing.T) {
	logger := NewTestLogger(LevelInfo)
	ctx := context.Background()

	assert.True(t, logger.Enabled(ctx, LevelInfo))
	assert.True(t, logger.Enabled(ctx, LevelError))
	assert.False(t, logger.Enabled(ctx, LevelDebug))

	logger.Debug("this should not appear")
	logger.Info("this should appear")

	assert.False(t, logger.ContainsMessage("this should not appear"))
	assert.True(t, logger.ContainsMessage("this should appear"))
}

func TestErrorStacktrace(t *testing.T) {
	logger := NewTestLogger(LevelDebug)
	logger.Error("fit failed", errors.New("boom"))

	entries, err := logger.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "boom", entries[0][ErrAttrKey])
	assert.NotEmpty(t, entries[0][StacktraceAttrKey])
}

func TestTestLoggerProvider(t *testing.T) {
	provider := NewTestLoggerProvider(LevelWarn)
	named := provider.GetLoggerWithName("survey.loader")

	named.Info("dropped")
	named.Warn("kept", RowsKey, 3)

	logger := provider.Logger()
	assert.False(t, logger.ContainsMessage("dropped"))
	assert.True(t, logger.ContainsField(ComponentKey, "survey.loader"))
	assert.True(t, logger.ContainsField(RowsKey, 3.0))

	provider.SetLevel(LevelDebug)
	provider.GetLogger().Debug("now visible")
	assert.True(t, logger.ContainsMessage("now visible"))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseLevel("verbose")
	var valErr *sberrors.ValidationError
	assert.True(t, sberrors.As(err, &valErr))
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", Level(99).String())
}

func TestSetProviderRoutesPackageLoggers(t *testing.T) {
	provider := NewTestLoggerProvider(LevelDebug)
	SetProvider(provider)
	defer SetProvider(NewZerologProvider(nil, LevelInfo))

	GetLoggerWithName("tune.tpe").Info("trial finished", TrialKey, 7)

	assert.True(t, provider.Logger().ContainsField(ComponentKey, "tune.tpe"))
	assert.True(t, provider.Logger().ContainsField(TrialKey, 7.0))
}
