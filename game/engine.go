package game

import (
	"github.com/FreecityDong/gandengyan/dto"
	"github.com/FreecityDong/gandengyan/entities"
)

// StartResult 开局结果
type StartResult struct {
	TurnPlayerID string
	SeatOrder    []string
	DealerID     string
}

// ActionResult 一次玩家动作的处理结果；
// OK 为 false 时只填 Reason/Code，房间状态保持不变
type ActionResult struct {
	OK     bool
	Reason string
	Code   string

	ActionType       string
	Played           []*entities.Card
	Discarded        *entities.Card
	Side             string
	NextTurnPlayerID string

	GameEnded  bool
	Settlement interface{}

	// 干瞪眼过牌相关
	RoundEnd       bool
	RoundWinnerID  string
	DrawCard       *entities.Card
	ForcedLeadPass bool
	ForcedKeepTurn bool

	Auto bool
}

func fail(reason string) *ActionResult {
	return &ActionResult{Reason: reason, Code: dto.CodeBadRequest}
}

// PlayerTotal 结算载荷中的累计分行
type PlayerTotal struct {
	PlayerID string `json:"playerId"`
	Nickname string `json:"nickname"`
	Total    int    `json:"total"`
}

// Engine 玩法引擎能力接口；实现是无状态的，只通过传入的 Room 操作
type Engine interface {
	// StartGame 开启一局；人数不满足房间规则时返回房间级错误
	StartGame(room *entities.Room) (*StartResult, error)
	// PlayCards 出牌；玩家可见的非法输入只体现在返回值里，绝不报错
	PlayCards(room *entities.Room, playerID string, cardIDs []string) *ActionResult
	// PassTurn 过牌；force 仅由托管计时器路径使用
	PassTurn(room *entities.Room, playerID string, force bool) *ActionResult
	// DiscardCard 弃牌（仅接龙支持）
	DiscardCard(room *entities.Room, playerID, cardID string) *ActionResult
	// AutoAct 轮到的玩家掉线超时后的强制动作
	AutoAct(room *entities.Room, playerID string) *ActionResult
	// SerializeCard 按本玩法的牌序输出一张牌
	SerializeCard(card *entities.Card) dto.CardView
	// ToRoomState 按观察者过滤后的房间视图（隐藏他人手牌等信息）
	ToRoomState(room *entities.Room, viewerID string) *dto.RoomStateView
}

// 引擎为无状态单例；房间上的 GameType 枚举即已选定的实现，
// 这里只是按枚举取出，不做任何字符串解析
var engines = map[entities.GameType]Engine{
	entities.GameTypeGandengyan: &GandengyanEngine{},
	entities.GameTypeSevens:     &SevensEngine{},
}

// ForType 按玩法枚举取引擎
func ForType(t entities.GameType) Engine {
	if e, ok := engines[t]; ok {
		return e
	}
	return engines[entities.GameTypeGandengyan]
}

// ForRoom 取房间创建时选定的引擎
func ForRoom(room *entities.Room) Engine {
	return ForType(room.GameType)
}
