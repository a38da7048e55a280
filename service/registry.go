package service

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/FreecityDong/gandengyan/dto"
	"github.com/FreecityDong/gandengyan/entities"
	"github.com/FreecityDong/gandengyan/logger"
)

const (
	// ReconnectTTL 掉线后同昵称重连的时间窗口
	ReconnectTTL = 3 * time.Minute
	// RoomIdleTTL 全员离线多久后房间被清理
	RoomIdleTTL = 30 * time.Minute
)

// ActionError 带错误码的玩家可见错误
type ActionError struct {
	Code    string
	Message string
}

func (e *ActionError) Error() string {
	return e.Message
}

func actionErr(code, message string) *ActionError {
	return &ActionError{Code: code, Message: message}
}

// ConnRef 连接当前绑定的（房间，玩家）
type ConnRef struct {
	RoomID   string
	PlayerID string
}

// Registry 房间与连接索引的内存注册表；
// mu 只保护两张映射表，房间内部状态由各房间自己的锁串行化。
// 锁序固定为 registry → room，持有房间锁时不得再进注册表。
type Registry struct {
	mu        sync.RWMutex
	rooms     map[string]*entities.Room
	connIndex map[string]ConnRef
}

// NewRegistry 创建注册表（进程启动时构造一次，显式传给各处理器）
func NewRegistry() *Registry {
	return &Registry{
		rooms:     make(map[string]*entities.Room),
		connIndex: make(map[string]ConnRef),
	}
}

// generateRoomID 生成不冲突的 6 位房间码，调用方需持有 mu
func (r *Registry) generateRoomID() string {
	for {
		roomID := RandCode(6)
		if _, exists := r.rooms[roomID]; !exists {
			return roomID
		}
	}
}

// RoomCount 当前房间数
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// GetRoom 按房间码查找
func (r *Registry) GetRoom(roomID string) *entities.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rooms[roomID]
}

// LookupByConn 按连接解析（房间，玩家），用于入站动作分发
func (r *Registry) LookupByConn(connID string) (*entities.Room, string) {
	r.mu.RLock()
	ref, ok := r.connIndex[connID]
	if !ok {
		r.mu.RUnlock()
		return nil, ""
	}
	room := r.rooms[ref.RoomID]
	r.mu.RUnlock()
	if room == nil {
		return nil, ""
	}
	return room, ref.PlayerID
}

// CreateRoom 创建房间并把发起连接绑定为房主
func (r *Registry) CreateRoom(connID, nickname string, gameType entities.GameType) (*entities.Room, *entities.Player) {
	now := time.Now()
	player := &entities.Player{
		ID:         GeneratePlayerID(),
		Nickname:   nickname,
		ConnID:     connID,
		Connected:  true,
		JoinedAt:   now,
		LastSeenAt: now,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	room := &entities.Room{
		ID:            r.generateRoomID(),
		GameType:      gameType,
		OwnerPlayerID: player.ID,
		Players:       []*entities.Player{player},
		Status:        entities.StatusWaiting,
		Totals:        map[string]int{player.ID: 0},
		CreatedAt:     now,
	}
	room.BumpActionSeq()

	r.rooms[room.ID] = room
	r.connIndex[connID] = ConnRef{RoomID: room.ID, PlayerID: player.ID}

	logger.Infof("✅ 房间已创建: %s 玩法=%s 房主=%s(%s)", room.ID, gameType, nickname, player.ID)
	return room, player
}

func canReconnect(p *entities.Player, now time.Time) bool {
	if p == nil || p.Connected {
		return false
	}
	return now.Sub(p.LastSeenAt) <= ReconnectTTL
}

// JoinRoom 加入或重连房间；校验顺序：
// 房间存在 → 在线同名占用 → 重连窗口 → 对局中拒新 → 满员
func (r *Registry) JoinRoom(connID, roomID, nickname string) (*entities.Room, *entities.Player, bool, *ActionError) {
	roomID = strings.ToUpper(strings.TrimSpace(roomID))
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.rooms[roomID]
	if room == nil {
		return nil, nil, false, actionErr(dto.CodeRoomNotFound, "房间不存在")
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()

	for _, p := range room.Players {
		if p.Nickname == nickname && p.Connected {
			return nil, nil, false, actionErr(dto.CodeNameTaken, "昵称已被占用")
		}
	}

	for _, p := range room.Players {
		if p.Nickname == nickname && canReconnect(p, now) {
			p.ConnID = connID
			p.Connected = true
			p.LastSeenAt = now
			r.connIndex[connID] = ConnRef{RoomID: room.ID, PlayerID: p.ID}
			room.TransferOwnerIfNeeded()
			room.BumpActionSeq()
			logger.Infof("✅ 玩家 %s(%s) 重连房间 %s", nickname, p.ID, room.ID)
			return room, p, true, nil
		}
	}

	if room.Status == entities.StatusPlaying {
		return nil, nil, false, actionErr(dto.CodeMidGameNoNewJoin, "对局中仅支持同昵称重连")
	}

	rules := room.Rules()
	if len(room.Players) >= rules.MaxPlayers {
		return nil, nil, false, actionErr(dto.CodeRoomFull,
			fmt.Sprintf("房间已满（最多 %d 人）", rules.MaxPlayers))
	}

	player := &entities.Player{
		ID:         GeneratePlayerID(),
		Nickname:   nickname,
		ConnID:     connID,
		Connected:  true,
		JoinedAt:   now,
		LastSeenAt: now,
	}
	room.Players = append(room.Players, player)
	if _, ok := room.Totals[player.ID]; !ok {
		room.Totals[player.ID] = 0
	}
	r.connIndex[connID] = ConnRef{RoomID: room.ID, PlayerID: player.ID}

	room.RefreshStatus()
	room.BumpActionSeq()
	logger.Infof("✅ 玩家 %s(%s) 加入房间 %s，当前人数 %d", nickname, player.ID, room.ID, len(room.Players))
	return room, player, false, nil
}

// Detach 连接断开：解除绑定并把玩家标记为离线
func (r *Registry) Detach(connID string) (*entities.Room, *entities.Player) {
	r.mu.Lock()
	ref, ok := r.connIndex[connID]
	if !ok {
		r.mu.Unlock()
		return nil, nil
	}
	delete(r.connIndex, connID)
	room := r.rooms[ref.RoomID]
	r.mu.Unlock()

	if room == nil {
		return nil, nil
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()

	player := room.FindPlayer(ref.PlayerID)
	if player == nil || player.ConnID != connID {
		return room, nil
	}

	player.Connected = false
	player.ConnID = ""
	player.LastSeenAt = time.Now()

	room.TransferOwnerIfNeeded()
	room.RefreshStatus()
	room.BumpActionSeq()
	logger.Infof("玩家 %s(%s) 离开房间 %s", player.Nickname, player.ID, room.ID)
	return room, player
}

// SweepIdleRooms 清理全员离线且空闲超时的房间，返回被删除的房间码
func (r *Registry) SweepIdleRooms() []string {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []string
	for roomID, room := range r.rooms {
		room.Mu.Lock()
		idle := room.ConnectedCount() == 0 && now.Sub(room.LastActiveAt()) >= RoomIdleTTL
		if idle {
			room.AutoPassTimer.Stop()
			room.AutoPassTimer = nil
		}
		room.Mu.Unlock()

		if idle {
			delete(r.rooms, roomID)
			removed = append(removed, roomID)
			logger.Infof("🧹 空闲房间已清理: %s", roomID)
		}
	}
	return removed
}

// BuildRoomList 构建大厅房间列表快照（按创建时间倒序）
func (r *Registry) BuildRoomList() []dto.RoomListItem {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]dto.RoomListItem, 0, len(r.rooms))
	for _, room := range r.rooms {
		room.Mu.Lock()
		rules := room.Rules()
		ownerNickname := "-"
		if owner := room.FindPlayer(room.OwnerPlayerID); owner != nil {
			ownerNickname = owner.Nickname
		}
		items = append(items, dto.RoomListItem{
			RoomID:        room.ID,
			GameType:      string(room.GameType),
			GameLabel:     rules.Label,
			Status:        string(room.Status),
			PlayerCount:   len(room.Players),
			OnlineCount:   room.ConnectedCount(),
			MaxPlayers:    rules.MaxPlayers,
			MinPlayers:    rules.MinPlayers,
			OwnerNickname: ownerNickname,
			CanJoin:       room.Status != entities.StatusPlaying && len(room.Players) < rules.MaxPlayers,
			CreatedAt:     room.CreatedAt.UnixMilli(),
		})
		room.Mu.Unlock()
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt > items[j].CreatedAt
	})
	return items
}
