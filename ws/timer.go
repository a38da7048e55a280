package ws

import (
	"time"

	"github.com/FreecityDong/gandengyan/dto"
	"github.com/FreecityDong/gandengyan/entities"
	"github.com/FreecityDong/gandengyan/game"
	"github.com/FreecityDong/gandengyan/logger"
)

// AutoPassTimeout 轮到的玩家掉线后等待重连的时长，超时强制行动
const AutoPassTimeout = 15 * time.Second

// scheduleAutoPassLocked 重算房间的托管计时器：
// 先取消旧的，只有"对局中 + 轮到的玩家离线 + 房间还有人在线"才重新布计时
// 调用方必须已持有 room.Mu
func (h *Hub) scheduleAutoPassLocked(room *entities.Room) {
	room.AutoPassTimer.Stop()
	room.AutoPassTimer = nil

	if room.Status != entities.StatusPlaying || room.Game == nil {
		return
	}
	if room.ConnectedCount() == 0 {
		return
	}
	turnID := room.Game.TurnPlayerID
	if turnID == "" {
		return
	}
	p := room.FindPlayer(turnID)
	if p == nil || p.Connected {
		return
	}

	roomID := room.ID
	timer := time.AfterFunc(AutoPassTimeout, func() {
		h.handleAutoTimeout(roomID, turnID)
	})
	room.AutoPassTimer = &entities.AutoPassTimer{
		PlayerID:  turnID,
		StartedAt: time.Now(),
		Timer:     timer,
	}
	logger.Infof("⚠️ 房间 %s 轮到离线玩家 %s，%s 后托管", roomID, turnID, AutoPassTimeout)
}

// handleAutoTimeout 计时器到点：重新验证后才代打，条件变了就静默作废
func (h *Hub) handleAutoTimeout(roomID, expectedPlayerID string) {
	room := h.registry.GetRoom(roomID)
	if room == nil {
		return
	}

	room.Mu.Lock()
	if room.AutoPassTimer == nil || room.AutoPassTimer.PlayerID != expectedPlayerID {
		room.Mu.Unlock()
		return
	}
	room.AutoPassTimer = nil

	if room.Status != entities.StatusPlaying || room.Game == nil ||
		room.Game.TurnPlayerID != expectedPlayerID {
		room.Mu.Unlock()
		return
	}
	p := room.FindPlayer(expectedPlayerID)
	if p == nil || p.Connected {
		room.Mu.Unlock()
		return
	}

	engine := game.ForRoom(room)
	res := engine.AutoAct(room, expectedPlayerID)
	if !res.OK {
		room.Mu.Unlock()
		logger.Warnf("⚠️ 房间 %s 托管失败: %s", roomID, res.Reason)
		return
	}
	room.BumpActionSeq()
	logger.Infof("房间 %s 已托管玩家 %s 执行 %s", roomID, expectedPlayerID, res.ActionType)

	var outs []targeted
	var snapshot *dto.ScoreSnapshot
	timeoutMs := AutoPassTimeout.Milliseconds()

	if res.ActionType == "pass" {
		outs = broadcastOuts(room, dto.EventAutoPass, autoPassPayload{
			PlayerID:         expectedPlayerID,
			TimeoutMs:        timeoutMs,
			NextTurnPlayerID: res.NextTurnPlayerID,
			RoundEnd:         res.RoundEnd,
			ForcedLeadPass:   res.ForcedLeadPass,
			ForcedKeepTurn:   res.ForcedKeepTurn,
		})
		if res.RoundEnd {
			outs = append(outs, roundEndOuts(room, engine, res)...)
		}
	} else {
		outs = autoActionOuts(room, engine, expectedPlayerID, res, timeoutMs)
		snapshot = h.settleLocked(room, res, &outs)
	}

	outs = append(outs, h.roomStateOuts(room)...)
	// 下一位也可能离线
	h.scheduleAutoPassLocked(room)
	room.Mu.Unlock()

	h.flush(outs)
	if snapshot != nil {
		h.ledger.Upsert(*snapshot)
	}
	h.BroadcastRoomList()
}

// autoActionOuts 接龙托管的动作广播：接牌公开，代弃的牌面对他人隐藏
// 调用方必须已持有 room.Mu
func autoActionOuts(room *entities.Room, engine game.Engine, actorID string, res *game.ActionResult, timeoutMs int64) []targeted {
	outs := make([]targeted, 0, len(room.Players))
	for _, p := range room.Players {
		if !p.Connected || p.ConnID == "" {
			continue
		}
		payload := autoActionPayload{
			PlayerID:         actorID,
			ActionType:       res.ActionType,
			Side:             res.Side,
			TimeoutMs:        timeoutMs,
			NextTurnPlayerID: res.NextTurnPlayerID,
			GameEnded:        res.GameEnded,
		}
		for _, c := range res.Played {
			card := engine.SerializeCard(c)
			payload.Cards = append(payload.Cards, card)
		}
		if res.Discarded != nil {
			if p.ID == actorID {
				card := engine.SerializeCard(res.Discarded)
				payload.Card = &card
			} else {
				payload.CardHidden = true
			}
		}
		outs = append(outs, targeted{connID: p.ConnID, data: encodeEvent(dto.EventAutoAction, payload)})
	}
	return outs
}
