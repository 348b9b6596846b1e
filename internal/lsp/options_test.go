package lsp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestOptions_WithDefaults_FillsZeroValues(t *testing.T) {
	opts := Options{}.WithDefaults()

	assert.NotNil(t, opts.ErrorHandler)
	assert.Equal(t, 4, opts.Connection.MaxRestartCount)
	assert.NotNil(t, opts.Logger)
	assert.Equal(t, 50*time.Millisecond, opts.restartJitter)
}

func TestOptions_WithDefaults_PreservesExplicitValues(t *testing.T) {
	logger := zap.NewNop()
	handler := DefaultErrorHandler{}
	opts := Options{
		ErrorHandler: handler,
		Logger:       logger,
		Connection:   ConnectionOptions{MaxRestartCount: 9},
	}.WithDefaults()

	assert.Equal(t, handler, opts.ErrorHandler)
	assert.Same(t, logger, opts.Logger)
	assert.Equal(t, 9, opts.Connection.MaxRestartCount)
}

func TestDefaultErrorHandler_Error_ShutsDownAtThreeConsecutiveFaults(t *testing.T) {
	h := DefaultErrorHandler{}
	assert.Equal(t, ErrorContinue, h.Error(nil, nil, 1))
	assert.Equal(t, ErrorContinue, h.Error(nil, nil, 2))
	assert.Equal(t, ErrorShutdown, h.Error(nil, nil, 3))
	assert.Equal(t, ErrorShutdown, h.Error(nil, nil, 4))
}

func TestDefaultErrorHandler_Closed_AlwaysRestarts(t *testing.T) {
	h := DefaultErrorHandler{}
	assert.Equal(t, Restart, h.Closed())
}
