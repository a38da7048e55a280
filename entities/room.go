package entities

import (
	"sync"
	"time"
)

// GameType 房间玩法类型
type GameType string

const (
	GameTypeGandengyan GameType = "gandengyan"
	GameTypeSevens     GameType = "sevens"
)

// NormalizeGameType 容错解析玩法类型，未知值回落到干瞪眼
func NormalizeGameType(raw string) GameType {
	if GameType(raw) == GameTypeSevens {
		return GameTypeSevens
	}
	return GameTypeGandengyan
}

// RoomStatus 房间状态
type RoomStatus string

const (
	StatusWaiting    RoomStatus = "waiting"
	StatusReady      RoomStatus = "ready"
	StatusPlaying    RoomStatus = "playing"
	StatusSettlement RoomStatus = "settlement"
)

// RoomRules 各玩法的人数规则
type RoomRules struct {
	MinPlayers int
	MaxPlayers int
	Label      string
}

var roomRules = map[GameType]RoomRules{
	GameTypeGandengyan: {MinPlayers: 3, MaxPlayers: 5, Label: "干瞪眼"},
	GameTypeSevens:     {MinPlayers: 2, MaxPlayers: 6, Label: "接龙"},
}

// RulesFor 按玩法类型查人数规则
func RulesFor(t GameType) RoomRules {
	if rules, ok := roomRules[t]; ok {
		return rules
	}
	return roomRules[GameTypeGandengyan]
}

// Player 房间内的一名玩家，ConnID 为空表示未绑定连接
type Player struct {
	ID         string
	Nickname   string
	ConnID     string
	Connected  bool
	SeatIndex  int
	JoinedAt   time.Time
	LastSeenAt time.Time
}

// AutoPassTimer 每个房间最多一个的托管计时器槽位
type AutoPassTimer struct {
	PlayerID  string
	StartedAt time.Time
	Timer     *time.Timer
}

// Stop 取消未触发的计时器
func (t *AutoPassTimer) Stop() {
	if t != nil && t.Timer != nil {
		t.Timer.Stop()
	}
}

// Room 一个独立的游戏房间，持有自己的全部状态
// Mu 串行化房间上的每一次动作（含计时器触发与视图投影）
type Room struct {
	Mu sync.Mutex

	ID            string
	GameType      GameType
	OwnerPlayerID string
	Players       []*Player
	Status        RoomStatus
	Game          *GameState
	Totals        map[string]int
	LastWinnerID  string
	LastSeatOrder []string
	RoundsPlayed  int
	ActionSeq     int64
	AutoPassTimer *AutoPassTimer
	CreatedAt     time.Time
}

// Rules 当前房间的人数规则
func (r *Room) Rules() RoomRules {
	return RulesFor(r.GameType)
}

// FindPlayer 按玩家ID查找，未找到返回 nil
func (r *Room) FindPlayer(playerID string) *Player {
	for _, p := range r.Players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

// ConnectedCount 在线玩家数
func (r *Room) ConnectedCount() int {
	count := 0
	for _, p := range r.Players {
		if p.Connected {
			count++
		}
	}
	return count
}

// AllConnected 是否全员在线
func (r *Room) AllConnected() bool {
	for _, p := range r.Players {
		if !p.Connected {
			return false
		}
	}
	return true
}

// RefreshStatus 依据人数刷新 waiting/ready，进行中与结算状态不受影响
func (r *Room) RefreshStatus() {
	if r.Status == StatusPlaying || r.Status == StatusSettlement {
		return
	}
	if len(r.Players) >= r.Rules().MinPlayers {
		r.Status = StatusReady
	} else {
		r.Status = StatusWaiting
	}
}

// TransferOwnerIfNeeded 房主离线时把所有权移交给首个在线玩家
func (r *Room) TransferOwnerIfNeeded() {
	owner := r.FindPlayer(r.OwnerPlayerID)
	if owner != nil && owner.Connected {
		return
	}
	for _, p := range r.Players {
		if p.Connected {
			r.OwnerPlayerID = p.ID
			return
		}
	}
}

// LastActiveAt 房间内玩家最近一次活跃时间，用于空闲清理判定
func (r *Room) LastActiveAt() time.Time {
	var last time.Time
	for _, p := range r.Players {
		seen := p.LastSeenAt
		if seen.IsZero() {
			seen = p.JoinedAt
		}
		if seen.After(last) {
			last = seen
		}
	}
	return last
}

// BumpActionSeq 每次状态变更后递增动作序号
func (r *Room) BumpActionSeq() {
	r.ActionSeq++
}
