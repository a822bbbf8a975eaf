package server

import (
	"net/http"

	"ftp2http/core/playback"
	"ftp2http/logger"

	"github.com/gorilla/websocket"
)

// SyncHandler 同步播放：观看页面和广播通道的接入点
type SyncHandler struct {
	hub      *playback.Hub
	upgrader websocket.Upgrader
}

// NewSyncHandler 创建同步播放处理器
func NewSyncHandler(hub *playback.Hub) *SyncHandler {
	return &SyncHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// PageHandler 处理 GET /videosync?url= 请求，返回观看页面
func (h *SyncHandler) PageHandler(w http.ResponseWriter, r *http.Request) {
	fileURL := r.URL.Query().Get("url")
	if fileURL == "" {
		http.Error(w, "VideoSync: File url not specified.", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := videoSyncTmpl.Execute(w, fileURL); err != nil {
		logger.Error("render videosync page failed", logger.ErrorField(err))
	}
}

// WSHandler 处理 GET /ws 请求，把连接升级为观看端并接入广播中心。
// 新观看端注册后立即收到一份完整状态快照。
func (h *SyncHandler) WSHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}

	viewer := playback.NewViewer(h.hub, conn)
	h.hub.Register(viewer)

	go viewer.WritePump()
	viewer.ReadPump()
}
