package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCancelToken_InitialState(t *testing.T) {
	tok := NewCancelToken()
	assert.Equal(t, CancelPending, tok.State())
	assert.False(t, tok.IsCancelled())
}

func TestCancelToken_CancelFiresListeners(t *testing.T) {
	tok := NewCancelToken()

	calls := 0
	tok.OnCancel(func() { calls++ })
	tok.OnCancel(func() { calls++ })

	tok.Cancel()

	assert.Equal(t, CancelCancelled, tok.State())
	assert.True(t, tok.IsCancelled())
	assert.Equal(t, 2, calls)
}

func TestCancelToken_CancelIsIdempotent(t *testing.T) {
	tok := NewCancelToken()

	calls := 0
	tok.OnCancel(func() { calls++ })

	tok.Cancel()
	tok.Cancel()
	tok.Cancel()

	assert.Equal(t, 1, calls)
}

func TestCancelToken_OnCancelAfterCancelFiresImmediately(t *testing.T) {
	tok := NewCancelToken()
	tok.Cancel()

	fired := false
	tok.OnCancel(func() { fired = true })

	assert.True(t, fired)
}
