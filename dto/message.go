package dto

// 入站事件类型
const (
	EventListRooms   = "lobby:list_rooms"
	EventCreateRoom  = "lobby:create_room"
	EventJoinRoom    = "lobby:join_room"
	EventStartGame   = "room:start_game"
	EventNextRound   = "room:next_round"
	EventPlayCards   = "game:play_cards"
	EventPass        = "game:pass"
	EventDiscardCard = "game:discard_card"
)

// 出站事件类型
const (
	EventRoomList   = "lobby:room_list"
	EventRoomState  = "room:state"
	EventDealt      = "game:dealt"
	EventPlayed     = "game:played"
	EventDiscarded  = "game:discarded"
	EventAutoPass   = "game:auto_pass"
	EventAutoAction = "game:auto_action"
	EventRoundEnd   = "game:round_end"
	EventSettlement = "game:settlement"
	EventError      = "error"
)

// 错误码（默认 BAD_REQUEST，房主权限类为 FORBIDDEN）
const (
	CodeBadRequest      = "BAD_REQUEST"
	CodeForbidden       = "FORBIDDEN"
	CodeRoomNotFound    = "ROOM_NOT_FOUND"
	CodeNameTaken       = "NAME_TAKEN"
	CodeRoomFull        = "ROOM_FULL"
	CodeMidGameNoNewJoin = "MID_GAME_NO_NEW_JOIN"
)

// Envelope 入站消息统一格式
type Envelope struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}

// CreateRoomRequest 创建房间载荷
type CreateRoomRequest struct {
	Nickname string `mapstructure:"nickname"`
	GameType string `mapstructure:"gameType"`
}

// JoinRoomRequest 加入房间载荷
type JoinRoomRequest struct {
	RoomID   string `mapstructure:"roomId"`
	Nickname string `mapstructure:"nickname"`
}

// RoomActionRequest 房间级动作载荷（roomId 可选，提供时必须与所在房间一致）
type RoomActionRequest struct {
	RoomID string `mapstructure:"roomId"`
}

// PlayCardsRequest 出牌载荷
type PlayCardsRequest struct {
	Cards []string `mapstructure:"cards"`
}

// DiscardCardRequest 弃牌载荷
type DiscardCardRequest struct {
	Card string `mapstructure:"card"`
}
