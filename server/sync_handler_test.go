package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ftp2http/core/playback"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSyncTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	hub := playback.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	handler := NewSyncHandler(hub)
	mux := http.NewServeMux()
	mux.HandleFunc("/videosync", handler.PageHandler)
	mux.HandleFunc("/ws", handler.WSHandler)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func dialViewer(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) *playback.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg playback.Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return &msg
}

func TestVideoSyncPageRequiresURL(t *testing.T) {
	srv := newSyncTestServer(t)

	resp, err := http.Get(srv.URL + "/videosync")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVideoSyncPage(t *testing.T) {
	srv := newSyncTestServer(t)

	resp, err := http.Get(srv.URL + "/videosync?url=/media/a.mp4")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}

// 两个观看端：一方的增量原样到达另一方，后加入者收到合并后的快照
func TestSyncEndToEnd(t *testing.T) {
	srv := newSyncTestServer(t)

	viewer1 := dialViewer(t, srv)
	sync1 := readMessage(t, viewer1)
	require.Equal(t, playback.MsgTypeSync, sync1.Type)

	viewer2 := dialViewer(t, srv)
	sync2 := readMessage(t, viewer2)
	require.Equal(t, playback.MsgTypeSync, sync2.Type)

	var initial playback.State
	require.NoError(t, json.Unmarshal(sync2.Data, &initial))
	assert.Equal(t, playback.DefaultState(), initial)

	// viewer1 发送 {position: 42.5, paused: false}
	update := `{"type":"update","data":{"time":42.5,"paused":false},"timestamp":1}`
	require.NoError(t, viewer1.WriteMessage(websocket.TextMessage, []byte(update)))

	// viewer2 收到原样的增量
	msg := readMessage(t, viewer2)
	require.Equal(t, playback.MsgTypeUpdate, msg.Type)
	assert.JSONEq(t, `{"time":42.5,"paused":false}`, string(msg.Data))

	// viewer3 之后加入，快照里包含合并结果，未更新字段保持默认值
	viewer3 := dialViewer(t, srv)
	sync3 := readMessage(t, viewer3)
	require.Equal(t, playback.MsgTypeSync, sync3.Type)

	var merged playback.State
	require.NoError(t, json.Unmarshal(sync3.Data, &merged))
	assert.Equal(t, 42.5, merged.Position)
	assert.False(t, merged.Paused)
	assert.Equal(t, "", merged.URL)
	assert.Equal(t, 1.0, merged.Speed)
}

// 发送者不会收到自己的增量回显
func TestSyncNoEchoToSender(t *testing.T) {
	srv := newSyncTestServer(t)

	viewer := dialViewer(t, srv)
	readMessage(t, viewer) // 快照

	update := `{"type":"update","data":{"time":7},"timestamp":1}`
	require.NoError(t, viewer.WriteMessage(websocket.TextMessage, []byte(update)))

	viewer.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	_, _, err := viewer.ReadMessage()
	assert.Error(t, err, "sender must not receive its own update")
}
