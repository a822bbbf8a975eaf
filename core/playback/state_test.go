package playback

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultState(t *testing.T) {
	state := DefaultState()

	assert.Equal(t, "", state.URL)
	assert.Equal(t, 0.0, state.Position)
	assert.Equal(t, 1.0, state.Speed)
	assert.True(t, state.Paused)
}

func TestApplyPartial(t *testing.T) {
	state := DefaultState()
	state.URL = "/movies/a.mp4"
	state.Speed = 1.25

	position := 42.5
	paused := false
	state.Apply(Delta{Position: &position, Paused: &paused})

	// 未出现在增量中的字段保持不变
	assert.Equal(t, "/movies/a.mp4", state.URL)
	assert.Equal(t, 1.25, state.Speed)
	assert.Equal(t, 42.5, state.Position)
	assert.False(t, state.Paused)
}

func TestApplyEmptyDelta(t *testing.T) {
	state := State{URL: "x", Position: 5, Speed: 2, Paused: false}
	state.Apply(Delta{})

	assert.Equal(t, State{URL: "x", Position: 5, Speed: 2, Paused: false}, state)
}

func TestDeltaWireFormat(t *testing.T) {
	var delta Delta
	require.NoError(t, json.Unmarshal([]byte(`{"time":42.5,"paused":false}`), &delta))

	require.NotNil(t, delta.Position)
	require.NotNil(t, delta.Paused)
	assert.Nil(t, delta.URL)
	assert.Nil(t, delta.Speed)
	assert.Equal(t, 42.5, *delta.Position)
	assert.False(t, *delta.Paused)

	// 序列化只保留出现过的字段，false 也要保留
	raw, err := json.Marshal(delta)
	require.NoError(t, err)
	assert.JSONEq(t, `{"time":42.5,"paused":false}`, string(raw))
}
