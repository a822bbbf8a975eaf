package playback

import (
	"encoding/json"
	"sync"
	"time"

	"ftp2http/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// MessageType 消息类型
type MessageType string

const (
	MsgTypeSync   MessageType = "sync"   // 状态快照（服务端 -> 新连接）
	MsgTypeUpdate MessageType = "update" // 部分状态更新（双向）
)

// Message WebSocket 消息结构
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// Viewer 一个已连接的观看端。连接期间不持有私有状态，
// 断开即销毁。
type Viewer struct {
	ID   string
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte
}

// NewViewer 创建观看端
func NewViewer(hub *Hub, conn *websocket.Conn) *Viewer {
	return &Viewer{
		ID:   uuid.NewString(),
		Hub:  hub,
		Conn: conn,
		Send: make(chan []byte, 64),
	}
}

// viewerUpdate 待处理的增量更新
type viewerUpdate struct {
	from  *Viewer
	delta Delta
}

// Hub 播放状态广播中心。状态只由 Run 循环这一个所有者修改，
// 合并相对彼此是原子的。
type Hub struct {
	viewers map[*Viewer]bool

	stateMu sync.RWMutex
	state   State

	register   chan *Viewer
	unregister chan *Viewer
	updates    chan *viewerUpdate

	done chan struct{}
}

// NewHub 创建广播中心
func NewHub() *Hub {
	return &Hub{
		viewers:    make(map[*Viewer]bool),
		state:      DefaultState(),
		register:   make(chan *Viewer),
		unregister: make(chan *Viewer),
		updates:    make(chan *viewerUpdate, 256),
		done:       make(chan struct{}),
	}
}

// Run 启动主循环。注册、注销和状态合并全部在这里串行处理，
// 新连接一定先收到快照，之后才可能收到任何增量。
func (h *Hub) Run() {
	for {
		select {
		case viewer := <-h.register:
			h.registerViewer(viewer)

		case viewer := <-h.unregister:
			h.unregisterViewer(viewer)

		case update := <-h.updates:
			h.applyAndRelay(update)

		case <-h.done:
			h.cleanup()
			return
		}
	}
}

// Stop 停止主循环并断开所有观看端
func (h *Hub) Stop() {
	close(h.done)
}

// Register 注册观看端，注册完成后该观看端立即收到一份完整快照。
func (h *Hub) Register(viewer *Viewer) {
	select {
	case h.register <- viewer:
	case <-h.done:
	}
}

// Unregister 注销观看端，对共享状态没有影响。
func (h *Hub) Unregister(viewer *Viewer) {
	select {
	case h.unregister <- viewer:
	case <-h.done:
	}
}

// Update 提交一条增量更新。合并进共享状态后，原始增量
// （不是合并后的完整状态）转发给除发送者以外的所有观看端。
func (h *Hub) Update(from *Viewer, delta Delta) {
	select {
	case h.updates <- &viewerUpdate{from: from, delta: delta}:
	case <-h.done:
	}
}

// Snapshot 返回当前状态的副本
func (h *Hub) Snapshot() State {
	h.stateMu.RLock()
	defer h.stateMu.RUnlock()
	return h.state
}

// ViewerCount 返回当前在线观看端数量
func (h *Hub) ViewerCount() int {
	h.stateMu.RLock()
	defer h.stateMu.RUnlock()
	return len(h.viewers)
}

func (h *Hub) registerViewer(viewer *Viewer) {
	h.stateMu.Lock()
	h.viewers[viewer] = true
	h.stateMu.Unlock()

	snapshot, err := json.Marshal(h.Snapshot())
	if err == nil {
		h.deliver(viewer, &Message{Type: MsgTypeSync, Data: snapshot})
	}

	logger.Info("viewer connected", logger.String("viewer", viewer.ID))
}

func (h *Hub) unregisterViewer(viewer *Viewer) {
	h.stateMu.Lock()
	_, ok := h.viewers[viewer]
	if ok {
		delete(h.viewers, viewer)
		close(viewer.Send)
	}
	h.stateMu.Unlock()

	if ok {
		logger.Info("viewer disconnected", logger.String("viewer", viewer.ID))
	}
}

// applyAndRelay 合并增量并转发。发送缓冲已满的观看端按掉线处理。
func (h *Hub) applyAndRelay(update *viewerUpdate) {
	h.stateMu.Lock()
	h.state.Apply(update.delta)
	viewers := make([]*Viewer, 0, len(h.viewers))
	for viewer := range h.viewers {
		viewers = append(viewers, viewer)
	}
	h.stateMu.Unlock()

	raw, err := json.Marshal(update.delta)
	if err != nil {
		logger.Warn("marshal delta failed", logger.ErrorField(err))
		return
	}
	msg := &Message{Type: MsgTypeUpdate, Data: raw}

	for _, viewer := range viewers {
		if viewer == update.from {
			continue
		}
		if !h.deliver(viewer, msg) {
			h.unregisterViewer(viewer)
		}
	}
}

// deliver 把消息投递到观看端的发送缓冲
func (h *Hub) deliver(viewer *Viewer, msg *Message) bool {
	msg.Timestamp = time.Now().UnixMilli()
	data, err := json.Marshal(msg)
	if err != nil {
		return true
	}

	select {
	case viewer.Send <- data:
		return true
	default:
		return false
	}
}

func (h *Hub) cleanup() {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()

	for viewer := range h.viewers {
		close(viewer.Send)
	}
	h.viewers = make(map[*Viewer]bool)
}

// ========== Viewer 方法 ==========

// ReadPump 读取消息循环。连接断开时注销并关闭连接。
func (v *Viewer) ReadPump() {
	defer func() {
		v.Hub.Unregister(v)
		v.Conn.Close()
	}()

	v.Conn.SetReadLimit(4096) // 4KB
	v.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	v.Conn.SetPongHandler(func(string) error {
		v.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, data, err := v.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read error",
					logger.ErrorField(err),
					logger.String("viewer", v.ID))
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warn("invalid message format",
				logger.ErrorField(err),
				logger.String("viewer", v.ID))
			continue
		}

		if msg.Type != MsgTypeUpdate {
			continue
		}

		var delta Delta
		if err := json.Unmarshal(msg.Data, &delta); err != nil {
			logger.Warn("invalid update payload",
				logger.ErrorField(err),
				logger.String("viewer", v.ID))
			continue
		}

		v.Hub.Update(v, delta)
	}
}

// WritePump 写入消息循环，定期发送心跳。
func (v *Viewer) WritePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		v.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-v.Send:
			v.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Hub 关闭了通道
				v.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := v.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			v.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := v.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
