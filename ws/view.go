package ws

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/FreecityDong/gandengyan/dto"
	"github.com/FreecityDong/gandengyan/entities"
	"github.com/FreecityDong/gandengyan/game"
	"github.com/FreecityDong/gandengyan/logger"
)

// outEnvelope 出站消息统一格式，与入站 Envelope 对称
type outEnvelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

func encodeEvent(msgType string, payload interface{}) []byte {
	data, err := json.Marshal(outEnvelope{Type: msgType, Payload: payload})
	if err != nil {
		logger.Errorf("❌ 序列化消息失败 type=%s: %v", msgType, err)
		return []byte(`{"type":"error","payload":{"code":"BAD_REQUEST","message":"服务内部错误"}}`)
	}
	return data
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type dealtPayload struct {
	GameType     string         `json:"gameType"`
	YourHand     []dto.CardView `json:"yourHand"`
	SeatOrder    []string       `json:"seatOrder"`
	TurnPlayerID string         `json:"turnPlayerId"`
	DealerID     string         `json:"dealerId,omitempty"`
}

type playedPayload struct {
	PlayerID         string         `json:"playerId"`
	Cards            []dto.CardView `json:"cards"`
	Side             string         `json:"side,omitempty"`
	NextTurnPlayerID string         `json:"nextTurnPlayerId,omitempty"`
	GameEnded        bool           `json:"gameEnded"`
	Auto             bool           `json:"auto,omitempty"`
}

type discardedPayload struct {
	PlayerID         string        `json:"playerId"`
	Card             *dto.CardView `json:"card,omitempty"`
	Revealed         bool          `json:"revealed"`
	NextTurnPlayerID string        `json:"nextTurnPlayerId,omitempty"`
	GameEnded        bool          `json:"gameEnded"`
	Auto             bool          `json:"auto,omitempty"`
}

type autoPassPayload struct {
	PlayerID         string `json:"playerId"`
	TimeoutMs        int64  `json:"timeoutMs"`
	NextTurnPlayerID string `json:"nextTurnPlayerId"`
	RoundEnd         bool   `json:"roundEnd"`
	ForcedLeadPass   bool   `json:"forcedLeadPass,omitempty"`
	ForcedKeepTurn   bool   `json:"forcedKeepTurn,omitempty"`
}

type autoActionPayload struct {
	PlayerID         string         `json:"playerId"`
	ActionType       string         `json:"actionType"`
	Cards            []dto.CardView `json:"cards,omitempty"`
	Card             *dto.CardView  `json:"card,omitempty"`
	CardHidden       bool           `json:"cardHidden,omitempty"`
	Side             string         `json:"side,omitempty"`
	TimeoutMs        int64          `json:"timeoutMs"`
	NextTurnPlayerID string         `json:"nextTurnPlayerId,omitempty"`
	GameEnded        bool           `json:"gameEnded"`
}

type roundEndPayload struct {
	RoundWinnerID    string        `json:"roundWinnerId"`
	DrawTaken        bool          `json:"drawTaken"`
	DrawCard         *dto.CardView `json:"drawCard,omitempty"`
	DeckCount        int           `json:"deckCount"`
	NextTurnPlayerID string        `json:"nextTurnPlayerId"`
}

// roomStateOuts 给每个在线玩家各自投影一份房间视图
// 调用方必须已持有 room.Mu
func (h *Hub) roomStateOuts(room *entities.Room) []targeted {
	engine := game.ForRoom(room)
	outs := make([]targeted, 0, len(room.Players))
	for _, p := range room.Players {
		if !p.Connected || p.ConnID == "" {
			continue
		}
		view := engine.ToRoomState(room, p.ID)
		outs = append(outs, targeted{connID: p.ConnID, data: encodeEvent(dto.EventRoomState, view)})
	}
	return outs
}

// broadcastOuts 同一份载荷发给房间内所有在线玩家
// 调用方必须已持有 room.Mu
func broadcastOuts(room *entities.Room, msgType string, payload interface{}) []targeted {
	data := encodeEvent(msgType, payload)
	outs := make([]targeted, 0, len(room.Players))
	for _, p := range room.Players {
		if !p.Connected || p.ConnID == "" {
			continue
		}
		outs = append(outs, targeted{connID: p.ConnID, data: data})
	}
	return outs
}

// dealtOuts 开局发牌：每人只看到自己的手牌
// 调用方必须已持有 room.Mu
func dealtOuts(room *entities.Room, engine game.Engine, start *game.StartResult) []targeted {
	outs := make([]targeted, 0, len(room.Players))
	for _, p := range room.Players {
		if !p.Connected || p.ConnID == "" {
			continue
		}
		view := engine.ToRoomState(room, p.ID)
		payload := dealtPayload{
			GameType:     string(room.GameType),
			YourHand:     view.Game.YourHand,
			SeatOrder:    start.SeatOrder,
			TurnPlayerID: start.TurnPlayerID,
			DealerID:     start.DealerID,
		}
		outs = append(outs, targeted{connID: p.ConnID, data: encodeEvent(dto.EventDealt, payload)})
	}
	return outs
}

// roundEndOuts 干瞪眼过牌流局：摸的底牌只有摸牌者自己能看到
// 调用方必须已持有 room.Mu
func roundEndOuts(room *entities.Room, engine game.Engine, res *game.ActionResult) []targeted {
	deckCount := 0
	if room.Game != nil {
		deckCount = len(room.Game.Deck)
	}
	outs := make([]targeted, 0, len(room.Players))
	for _, p := range room.Players {
		if !p.Connected || p.ConnID == "" {
			continue
		}
		payload := roundEndPayload{
			RoundWinnerID:    res.RoundWinnerID,
			DrawTaken:        res.DrawCard != nil,
			DeckCount:        deckCount,
			NextTurnPlayerID: res.NextTurnPlayerID,
		}
		if res.DrawCard != nil && p.ID == res.RoundWinnerID {
			card := engine.SerializeCard(res.DrawCard)
			payload.DrawCard = &card
		}
		outs = append(outs, targeted{connID: p.ConnID, data: encodeEvent(dto.EventRoundEnd, payload)})
	}
	return outs
}

// buildScoreSnapshot 结算后的累计分快照；干瞪眼分高者在前，接龙分低者在前
// 调用方必须已持有 room.Mu
func buildScoreSnapshot(room *entities.Room) dto.ScoreSnapshot {
	players := make([]dto.SnapshotPlayer, 0, len(room.Players))
	for _, p := range room.Players {
		players = append(players, dto.SnapshotPlayer{
			PlayerID:  p.ID,
			Nickname:  p.Nickname,
			Total:     room.Totals[p.ID],
			Connected: p.Connected,
		})
	}

	asc := room.GameType == entities.GameTypeSevens
	sort.SliceStable(players, func(i, j int) bool {
		if asc {
			return players[i].Total < players[j].Total
		}
		return players[i].Total > players[j].Total
	})

	return dto.ScoreSnapshot{
		RoomID:       room.ID,
		GameType:     string(room.GameType),
		UpdatedAt:    time.Now().UnixMilli(),
		RoundsPlayed: room.RoundsPlayed,
		Players:      players,
	}
}
