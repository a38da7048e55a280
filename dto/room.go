package dto

// RoomListItem 大厅房间列表中的一条摘要
type RoomListItem struct {
	RoomID        string `json:"roomId"`
	GameType      string `json:"gameType"`
	GameLabel     string `json:"gameLabel"`
	Status        string `json:"status"`
	PlayerCount   int    `json:"playerCount"`
	OnlineCount   int    `json:"onlineCount"`
	MaxPlayers    int    `json:"maxPlayers"`
	MinPlayers    int    `json:"minPlayers"`
	OwnerNickname string `json:"ownerNickname"`
	CanJoin       bool   `json:"canJoin"`
	CreatedAt     int64  `json:"createdAt"`
}

// RoomListPayload lobby:room_list 事件载荷
type RoomListPayload struct {
	Rooms []RoomListItem `json:"rooms"`
	Ts    int64          `json:"ts"`
}

// CardView 对外序列化的一张牌
type CardView struct {
	ID    string `json:"id"`
	Rank  string `json:"rank"`
	Suit  string `json:"suit"`
	Label string `json:"label"`
	Value int    `json:"value"`
}

// LastPlayView 干瞪眼桌面最近一手（公开信息）
type LastPlayView struct {
	PlayerID string     `json:"playerId"`
	Type     string     `json:"type"`
	Length   int        `json:"length"`
	Strength int        `json:"strength"`
	Cards    []CardView `json:"cards"`
}

// SuitStateView 接龙单花色链条视图
type SuitStateView struct {
	Opened       bool   `json:"opened"`
	LowEndRank   string `json:"lowEndRank,omitempty"`
	HighEndRank  string `json:"highEndRank,omitempty"`
	NextLowRank  string `json:"nextLowRank,omitempty"`
	NextHighRank string `json:"nextHighRank,omitempty"`
}

// LastActionView 接龙最近一次动作视图（弃牌对他人隐藏）
type LastActionView struct {
	ActionType       string    `json:"actionType"`
	PlayerID         string    `json:"playerId"`
	Card             *CardView `json:"card"`
	CardHidden       bool      `json:"cardHidden"`
	Side             string    `json:"side,omitempty"`
	NextTurnPlayerID string    `json:"nextTurnPlayerId"`
}

// PlayerView 房间内玩家的公开视图
type PlayerView struct {
	ID           string `json:"id"`
	Nickname     string `json:"nickname"`
	SeatIndex    int    `json:"seatIndex"`
	Connected    bool   `json:"connected"`
	IsOwner      bool   `json:"isOwner"`
	HandCount    *int   `json:"handCount"`
	DiscardCount int    `json:"discardCount,omitempty"`
	DiscardScore int    `json:"discardScore,omitempty"`
	TotalScore   int    `json:"totalScore"`
}

// GameView 牌局的按观察者过滤后的视图；
// 干瞪眼与接龙各用各的字段，未用字段省略
type GameView struct {
	TurnPlayerID string   `json:"turnPlayerId"`
	DealerID     string   `json:"dealerId,omitempty"`
	SeatOrder    []string `json:"seatOrder"`
	YourHand     []CardView `json:"yourHand"`

	// 干瞪眼
	BombCountN *int          `json:"bombCountN,omitempty"`
	DeckCount  *int          `json:"deckCount,omitempty"`
	PassChain  []string      `json:"passChain,omitempty"`
	LastPlay   *LastPlayView `json:"lastPlay,omitempty"`

	// 接龙
	Board            map[string]SuitStateView `json:"board,omitempty"`
	LastAction       *LastActionView          `json:"lastAction,omitempty"`
	YourDiscardPile  []CardView               `json:"yourDiscardPile,omitempty"`
	YourDiscardScore *int                     `json:"yourDiscardScore,omitempty"`
	LegalPlayCardIDs []string                 `json:"legalPlayCardIds,omitempty"`
	MustDiscard      *bool                    `json:"mustDiscard,omitempty"`
}

// RoomStateView room:state 事件载荷（按观察者过滤）
type RoomStateView struct {
	SelfPlayerID  string       `json:"selfPlayerId"`
	RoomID        string       `json:"roomId"`
	GameType      string       `json:"gameType"`
	Status        string       `json:"status"`
	ActionSeq     int64        `json:"actionSeq"`
	OwnerPlayerID string       `json:"ownerPlayerId"`
	Players       []PlayerView `json:"players"`
	Game          *GameView    `json:"game"`
}
