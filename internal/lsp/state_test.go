package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_String(t *testing.T) {
	assert.Equal(t, "initial", StateInitial.String())
	assert.Equal(t, "starting", StateStarting.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "stopping", StateStopping.String())
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "start-failed", StateStartFailed.String())
	assert.Equal(t, "state(99)", State(99).String())
}

func TestState_Public_CollapsesToThreeValues(t *testing.T) {
	assert.Equal(t, PublicStarting, StateStarting.Public())
	assert.Equal(t, PublicRunning, StateRunning.Public())
	assert.Equal(t, PublicStopped, StateInitial.Public())
	assert.Equal(t, PublicStopped, StateStopping.Public())
	assert.Equal(t, PublicStopped, StateStopped.Public())
	assert.Equal(t, PublicStopped, StateStartFailed.Public())
}

func TestPublicState_String(t *testing.T) {
	assert.Equal(t, "stopped", PublicStopped.String())
	assert.Equal(t, "starting", PublicStarting.String())
	assert.Equal(t, "running", PublicRunning.String())
	assert.Equal(t, "unknown", PublicState(99).String())
}

func TestValidTransition(t *testing.T) {
	assert.True(t, validTransition(StateInitial, StateStarting))
	assert.True(t, validTransition(StateStarting, StateRunning))
	assert.True(t, validTransition(StateStarting, StateStartFailed))
	assert.True(t, validTransition(StateStartFailed, StateStarting))
	assert.True(t, validTransition(StateRunning, StateInitial))
	assert.True(t, validTransition(StateStopped, StateStopped))

	assert.False(t, validTransition(StateInitial, StateRunning))
	assert.False(t, validTransition(StateStopped, StateRunning))
}
