package playback

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func joinViewer(t *testing.T, hub *Hub) *Viewer {
	t.Helper()
	viewer := NewViewer(hub, nil)
	hub.Register(viewer)
	return viewer
}

// recv 从观看端的发送缓冲取下一条消息
func recv(t *testing.T, viewer *Viewer) *Message {
	t.Helper()
	select {
	case data, ok := <-viewer.Send:
		require.True(t, ok, "send channel closed")
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return &msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func requireNoMessage(t *testing.T, viewer *Viewer) {
	t.Helper()
	select {
	case data := <-viewer.Send:
		t.Fatalf("unexpected message: %s", data)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestJoinReceivesSnapshotFirst(t *testing.T) {
	hub := newTestHub(t)
	viewer := joinViewer(t, hub)

	msg := recv(t, viewer)
	assert.Equal(t, MsgTypeSync, msg.Type)

	var state State
	require.NoError(t, json.Unmarshal(msg.Data, &state))
	assert.Equal(t, DefaultState(), state)
}

func TestUpdateRelaysRawDeltaToOthers(t *testing.T) {
	hub := newTestHub(t)
	sender := joinViewer(t, hub)
	other := joinViewer(t, hub)
	recv(t, sender) // 各自的快照
	recv(t, other)

	position := 42.5
	paused := false
	hub.Update(sender, Delta{Position: &position, Paused: &paused})

	msg := recv(t, other)
	assert.Equal(t, MsgTypeUpdate, msg.Type)
	// 转发的是原始增量，不是合并后的完整状态
	assert.JSONEq(t, `{"time":42.5,"paused":false}`, string(msg.Data))

	// 恰好一次，且不回发给发送者
	requireNoMessage(t, other)
	requireNoMessage(t, sender)
}

func TestLateJoinerSeesMergedState(t *testing.T) {
	hub := newTestHub(t)
	sender := joinViewer(t, hub)
	recv(t, sender)

	url := "/movies/a.mp4"
	speed := 1.25
	hub.Update(sender, Delta{URL: &url, Speed: &speed})

	position := 42.5
	paused := false
	hub.Update(sender, Delta{Position: &position, Paused: &paused})

	late := joinViewer(t, hub)
	msg := recv(t, late)
	require.Equal(t, MsgTypeSync, msg.Type)

	var state State
	require.NoError(t, json.Unmarshal(msg.Data, &state))
	assert.Equal(t, "/movies/a.mp4", state.URL)
	assert.Equal(t, 1.25, state.Speed)
	assert.Equal(t, 42.5, state.Position)
	assert.False(t, state.Paused)
}

func TestUpdatesAppliedInOrder(t *testing.T) {
	hub := newTestHub(t)
	sender := joinViewer(t, hub)
	recv(t, sender)

	for i := 1; i <= 50; i++ {
		position := float64(i)
		hub.Update(sender, Delta{Position: &position})
	}

	require.Eventually(t, func() bool {
		return hub.Snapshot().Position == 50
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLeaveDoesNotTouchState(t *testing.T) {
	hub := newTestHub(t)
	viewer := joinViewer(t, hub)
	recv(t, viewer)

	url := "/a.mp3"
	hub.Update(viewer, Delta{URL: &url})
	require.Eventually(t, func() bool {
		return hub.Snapshot().URL == "/a.mp3"
	}, 2*time.Second, 10*time.Millisecond)

	hub.Unregister(viewer)
	require.Eventually(t, func() bool {
		return hub.ViewerCount() == 0
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, "/a.mp3", hub.Snapshot().URL)
}

func TestSlowViewerDropped(t *testing.T) {
	hub := newTestHub(t)
	sender := joinViewer(t, hub)
	slow := joinViewer(t, hub)
	recv(t, sender)
	// slow 不消费自己的发送缓冲

	for i := 0; i < cap(slow.Send)+8; i++ {
		position := float64(i)
		hub.Update(sender, Delta{Position: &position})
	}

	require.Eventually(t, func() bool {
		return hub.ViewerCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
}
