package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mitchellh/mapstructure"

	"github.com/FreecityDong/gandengyan/dto"
	"github.com/FreecityDong/gandengyan/logger"
	"github.com/FreecityDong/gandengyan/repository"
	"github.com/FreecityDong/gandengyan/service"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub 持有全部活跃连接，并把入站消息派发给各个处理函数
// 锁序：hub.mu 只保护 clients 表，绝不在持有房间锁时再取
type Hub struct {
	registry *service.Registry
	ledger   *repository.ScoreLedger

	mu      sync.Mutex
	clients map[string]*client
}

func NewHub(registry *service.Registry, ledger *repository.ScoreLedger) *Hub {
	return &Hub{
		registry: registry,
		ledger:   ledger,
		clients:  make(map[string]*client),
	}
}

// Registry 暴露给 HTTP 层复用
func (h *Hub) Registry() *service.Registry {
	return h.registry
}

// messageHandler 入站事件处理函数
type messageHandler func(h *Hub, cl *client, payload map[string]interface{})

// HandleWebSocket 升级连接并进入读循环；连接断开后解除玩家绑定
func (h *Hub) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Errorf("❌ WebSocket 升级失败: %v", err)
		return
	}

	cl := &client{id: uuid.NewString(), conn: conn}

	h.mu.Lock()
	h.clients[cl.id] = cl
	h.mu.Unlock()

	logger.Infof("✅ 新连接: %s", cl.id)
	h.sendRoomList(cl)

	h.readLoop(cl)

	h.mu.Lock()
	delete(h.clients, cl.id)
	h.mu.Unlock()
	cl.conn.Close()

	h.handleDisconnect(cl)
}

func (h *Hub) readLoop(cl *client) {
	for {
		_, data, err := cl.conn.ReadMessage()
		if err != nil {
			logger.Infof("连接 %s 已断开: %v", cl.id, err)
			return
		}

		var env dto.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			h.sendError(cl, dto.CodeBadRequest, "消息格式错误")
			continue
		}

		handler, ok := messageHandlers[env.Type]
		if !ok {
			h.sendError(cl, dto.CodeBadRequest, "未知的消息类型: "+env.Type)
			continue
		}
		handler(h, cl, env.Payload)
	}
}

// handleDisconnect 把玩家标离线，必要时为轮到的离线玩家安排托管
func (h *Hub) handleDisconnect(cl *client) {
	room, player := h.registry.Detach(cl.id)
	if room == nil || player == nil {
		return
	}

	room.Mu.Lock()
	outs := h.roomStateOuts(room)
	h.scheduleAutoPassLocked(room)
	room.Mu.Unlock()

	h.flush(outs)
	h.BroadcastRoomList()
	h.RunIdleSweep()
}

// decodePayload 按 mapstructure 标签解出事件载荷，宽松类型转换
func decodePayload(payload map[string]interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(payload)
}

// targeted 一条待发消息，先在房间锁内收集，锁外再发送
type targeted struct {
	connID string
	data   []byte
}

func (h *Hub) flush(outs []targeted) {
	for _, out := range outs {
		h.sendTo(out.connID, out.data)
	}
}

func (h *Hub) sendTo(connID string, data []byte) {
	h.mu.Lock()
	cl := h.clients[connID]
	h.mu.Unlock()

	if cl == nil {
		return
	}
	if err := cl.send(data); err != nil {
		logger.Warnf("发送失败，关闭连接 %s: %v", connID, err)
		cl.conn.Close()
	}
}

func (h *Hub) sendError(cl *client, code, message string) {
	h.sendTo(cl.id, encodeEvent(dto.EventError, errorPayload{Code: code, Message: message}))
}

func (h *Hub) sendRoomList(cl *client) {
	h.sendTo(cl.id, h.roomListBytes())
}

// BroadcastRoomList 全量推送大厅列表给所有在线连接
func (h *Hub) BroadcastRoomList() {
	data := h.roomListBytes()

	h.mu.Lock()
	targets := make([]*client, 0, len(h.clients))
	for _, cl := range h.clients {
		targets = append(targets, cl)
	}
	h.mu.Unlock()

	for _, cl := range targets {
		if err := cl.send(data); err != nil {
			cl.conn.Close()
		}
	}
}

func (h *Hub) roomListBytes() []byte {
	payload := dto.RoomListPayload{
		Rooms: h.registry.BuildRoomList(),
		Ts:    time.Now().UnixMilli(),
	}
	return encodeEvent(dto.EventRoomList, payload)
}

// RunIdleSweep 定时任务入口：清理空闲房间并在有变化时刷新大厅
func (h *Hub) RunIdleSweep() {
	if removed := h.registry.SweepIdleRooms(); len(removed) > 0 {
		h.BroadcastRoomList()
	}
}
