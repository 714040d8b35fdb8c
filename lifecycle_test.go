package framebridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycleTransitions(t *testing.T) {
	var lc Lifecycle

	assert.Equal(t, StateIdle, lc.State())
	assert.False(t, lc.Done())

	require.NoError(t, lc.BeginPlaying())
	assert.Equal(t, StatePlaying, lc.State())
	assert.False(t, lc.Done())

	assert.ErrorIs(t, lc.BeginPlaying(), ErrAlreadyStarted)

	assert.True(t, lc.MarkStopped())
	assert.Equal(t, StateStopped, lc.State())
	assert.True(t, lc.Done())
}

func TestLifecycleStoppedIsTerminal(t *testing.T) {
	var lc Lifecycle
	require.NoError(t, lc.BeginPlaying())
	require.True(t, lc.MarkStopped())

	// repeated stop is a no-op and does not re-enter playing
	assert.False(t, lc.MarkStopped())
	assert.Equal(t, StateStopped, lc.State())
	assert.True(t, lc.Done())

	assert.ErrorIs(t, lc.BeginPlaying(), ErrAlreadyStarted)
	assert.Equal(t, StateStopped, lc.State())
}

func TestLifecycleStopBeforeStart(t *testing.T) {
	var lc Lifecycle
	assert.True(t, lc.MarkStopped())
	assert.True(t, lc.Done())
	assert.ErrorIs(t, lc.BeginPlaying(), ErrAlreadyStarted)
}

func TestPipelineStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "playing", StatePlaying.String())
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "unknown", PipelineState(42).String())
}
