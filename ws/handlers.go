package ws

import (
	"strings"

	"github.com/FreecityDong/gandengyan/dto"
	"github.com/FreecityDong/gandengyan/entities"
	"github.com/FreecityDong/gandengyan/game"
	"github.com/FreecityDong/gandengyan/service"
)

// 事件分发表；所有处理函数只在这里注册
var messageHandlers = map[string]messageHandler{
	dto.EventListRooms:   handleListRooms,
	dto.EventCreateRoom:  handleCreateRoom,
	dto.EventJoinRoom:    handleJoinRoom,
	dto.EventStartGame:   handleStartGame,
	dto.EventNextRound:   handleNextRound,
	dto.EventPlayCards:   handlePlayCards,
	dto.EventPass:        handlePass,
	dto.EventDiscardCard: handleDiscardCard,
}

func handleListRooms(h *Hub, cl *client, payload map[string]interface{}) {
	h.sendRoomList(cl)
}

func handleCreateRoom(h *Hub, cl *client, payload map[string]interface{}) {
	var req dto.CreateRoomRequest
	if err := decodePayload(payload, &req); err != nil {
		h.sendError(cl, dto.CodeBadRequest, "请求格式错误")
		return
	}

	nickname := service.NormalizeNickname(req.Nickname)
	if nickname == "" {
		h.sendError(cl, dto.CodeBadRequest, "昵称不能为空")
		return
	}
	if room, _ := h.registry.LookupByConn(cl.id); room != nil {
		h.sendError(cl, dto.CodeBadRequest, "你已经在一个房间里了")
		return
	}

	room, _ := h.registry.CreateRoom(cl.id, nickname, entities.NormalizeGameType(req.GameType))

	room.Mu.Lock()
	outs := h.roomStateOuts(room)
	room.Mu.Unlock()

	h.flush(outs)
	h.BroadcastRoomList()
}

func handleJoinRoom(h *Hub, cl *client, payload map[string]interface{}) {
	var req dto.JoinRoomRequest
	if err := decodePayload(payload, &req); err != nil {
		h.sendError(cl, dto.CodeBadRequest, "请求格式错误")
		return
	}

	if strings.TrimSpace(req.RoomID) == "" {
		h.sendError(cl, dto.CodeBadRequest, "请输入房间码")
		return
	}
	nickname := service.NormalizeNickname(req.Nickname)
	if nickname == "" {
		h.sendError(cl, dto.CodeBadRequest, "昵称不能为空")
		return
	}
	if room, _ := h.registry.LookupByConn(cl.id); room != nil {
		h.sendError(cl, dto.CodeBadRequest, "你已经在一个房间里了")
		return
	}

	room, _, _, joinErr := h.registry.JoinRoom(cl.id, req.RoomID, nickname)
	if joinErr != nil {
		h.sendError(cl, joinErr.Code, joinErr.Message)
		return
	}

	room.Mu.Lock()
	outs := h.roomStateOuts(room)
	// 重连回来的可能正是被托管计时的玩家
	h.scheduleAutoPassLocked(room)
	room.Mu.Unlock()

	h.flush(outs)
	h.BroadcastRoomList()
}

// requireRoom 找到连接绑定的房间；未绑定时直接回错误
func (h *Hub) requireRoom(cl *client) (*entities.Room, string, bool) {
	room, playerID := h.registry.LookupByConn(cl.id)
	if room == nil {
		h.sendError(cl, dto.CodeBadRequest, "请先加入房间")
		return nil, "", false
	}
	return room, playerID, true
}

// checkRoomID 载荷带了 roomId 时必须与所在房间一致
func checkRoomID(raw, roomID string) bool {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	return raw == "" || raw == roomID
}

func handleStartGame(h *Hub, cl *client, payload map[string]interface{}) {
	room, playerID, ok := h.requireRoom(cl)
	if !ok {
		return
	}
	var req dto.RoomActionRequest
	if err := decodePayload(payload, &req); err != nil || !checkRoomID(req.RoomID, room.ID) {
		h.sendError(cl, dto.CodeBadRequest, "房间信息不匹配")
		return
	}

	room.Mu.Lock()
	if room.OwnerPlayerID != playerID {
		room.Mu.Unlock()
		h.sendError(cl, dto.CodeForbidden, "只有房主可以开始游戏")
		return
	}
	if room.Status == entities.StatusPlaying {
		room.Mu.Unlock()
		h.sendError(cl, dto.CodeBadRequest, "对局已开始")
		return
	}
	h.startRoundLocked(room, cl)
}

func handleNextRound(h *Hub, cl *client, payload map[string]interface{}) {
	room, playerID, ok := h.requireRoom(cl)
	if !ok {
		return
	}
	var req dto.RoomActionRequest
	if err := decodePayload(payload, &req); err != nil || !checkRoomID(req.RoomID, room.ID) {
		h.sendError(cl, dto.CodeBadRequest, "房间信息不匹配")
		return
	}

	room.Mu.Lock()
	if room.OwnerPlayerID != playerID {
		room.Mu.Unlock()
		h.sendError(cl, dto.CodeForbidden, "只有房主可以开始下一局")
		return
	}
	if room.Status != entities.StatusSettlement {
		room.Mu.Unlock()
		h.sendError(cl, dto.CodeBadRequest, "当前不可开启下一局")
		return
	}
	h.startRoundLocked(room, cl)
}

// startRoundLocked 开局公共路径；进入时持有 room.Mu，返回前释放
func (h *Hub) startRoundLocked(room *entities.Room, cl *client) {
	if !room.AllConnected() {
		room.Mu.Unlock()
		h.sendError(cl, dto.CodeBadRequest, "有玩家已离线，请等待全员在线后再开始")
		return
	}
	engine := game.ForRoom(room)
	start, err := engine.StartGame(room)
	if err != nil {
		room.Mu.Unlock()
		h.sendError(cl, dto.CodeBadRequest, err.Error())
		return
	}
	room.BumpActionSeq()

	outs := dealtOuts(room, engine, start)
	outs = append(outs, h.roomStateOuts(room)...)
	h.scheduleAutoPassLocked(room)
	room.Mu.Unlock()

	h.flush(outs)
	h.BroadcastRoomList()
}

func handlePlayCards(h *Hub, cl *client, payload map[string]interface{}) {
	room, playerID, ok := h.requireRoom(cl)
	if !ok {
		return
	}
	var req dto.PlayCardsRequest
	if err := decodePayload(payload, &req); err != nil {
		h.sendError(cl, dto.CodeBadRequest, "请求格式错误")
		return
	}
	if len(req.Cards) == 0 {
		h.sendError(cl, dto.CodeBadRequest, "请选择要出的牌")
		return
	}

	room.Mu.Lock()
	if room.Status != entities.StatusPlaying || room.Game == nil {
		room.Mu.Unlock()
		h.sendError(cl, dto.CodeBadRequest, "当前不在对局中")
		return
	}

	engine := game.ForRoom(room)
	res := engine.PlayCards(room, playerID, req.Cards)
	if !res.OK {
		room.Mu.Unlock()
		h.sendError(cl, res.Code, res.Reason)
		return
	}
	room.BumpActionSeq()

	cards := make([]dto.CardView, 0, len(res.Played))
	for _, c := range res.Played {
		cards = append(cards, engine.SerializeCard(c))
	}
	outs := broadcastOuts(room, dto.EventPlayed, playedPayload{
		PlayerID:         playerID,
		Cards:            cards,
		Side:             res.Side,
		NextTurnPlayerID: res.NextTurnPlayerID,
		GameEnded:        res.GameEnded,
	})
	snapshot := h.settleLocked(room, res, &outs)

	outs = append(outs, h.roomStateOuts(room)...)
	h.scheduleAutoPassLocked(room)
	room.Mu.Unlock()

	h.flush(outs)
	if snapshot != nil {
		h.ledger.Upsert(*snapshot)
	}
	h.BroadcastRoomList()
}

func handlePass(h *Hub, cl *client, payload map[string]interface{}) {
	room, playerID, ok := h.requireRoom(cl)
	if !ok {
		return
	}

	room.Mu.Lock()
	if room.Status != entities.StatusPlaying || room.Game == nil {
		room.Mu.Unlock()
		h.sendError(cl, dto.CodeBadRequest, "当前不在对局中")
		return
	}

	engine := game.ForRoom(room)
	res := engine.PassTurn(room, playerID, false)
	if !res.OK {
		room.Mu.Unlock()
		h.sendError(cl, res.Code, res.Reason)
		return
	}
	room.BumpActionSeq()

	var outs []targeted
	if res.RoundEnd {
		outs = roundEndOuts(room, engine, res)
	}
	outs = append(outs, h.roomStateOuts(room)...)
	h.scheduleAutoPassLocked(room)
	room.Mu.Unlock()

	h.flush(outs)
	h.BroadcastRoomList()
}

func handleDiscardCard(h *Hub, cl *client, payload map[string]interface{}) {
	room, playerID, ok := h.requireRoom(cl)
	if !ok {
		return
	}
	var req dto.DiscardCardRequest
	if err := decodePayload(payload, &req); err != nil {
		h.sendError(cl, dto.CodeBadRequest, "请求格式错误")
		return
	}

	room.Mu.Lock()
	if room.Status != entities.StatusPlaying || room.Game == nil {
		room.Mu.Unlock()
		h.sendError(cl, dto.CodeBadRequest, "当前不在对局中")
		return
	}

	engine := game.ForRoom(room)
	res := engine.DiscardCard(room, playerID, strings.TrimSpace(req.Card))
	if !res.OK {
		room.Mu.Unlock()
		h.sendError(cl, res.Code, res.Reason)
		return
	}
	room.BumpActionSeq()

	outs := discardedOuts(room, engine, playerID, res)
	snapshot := h.settleLocked(room, res, &outs)

	outs = append(outs, h.roomStateOuts(room)...)
	h.scheduleAutoPassLocked(room)
	room.Mu.Unlock()

	h.flush(outs)
	if snapshot != nil {
		h.ledger.Upsert(*snapshot)
	}
	h.BroadcastRoomList()
}

// discardedOuts 弃牌广播：具体牌面只有弃牌者自己可见
// 调用方必须已持有 room.Mu
func discardedOuts(room *entities.Room, engine game.Engine, actorID string, res *game.ActionResult) []targeted {
	outs := make([]targeted, 0, len(room.Players))
	for _, p := range room.Players {
		if !p.Connected || p.ConnID == "" {
			continue
		}
		payload := discardedPayload{
			PlayerID:         actorID,
			Revealed:         p.ID == actorID,
			NextTurnPlayerID: res.NextTurnPlayerID,
			GameEnded:        res.GameEnded,
			Auto:             res.Auto,
		}
		if payload.Revealed && res.Discarded != nil {
			card := engine.SerializeCard(res.Discarded)
			payload.Card = &card
		}
		outs = append(outs, targeted{connID: p.ConnID, data: encodeEvent(dto.EventDiscarded, payload)})
	}
	return outs
}

// settleLocked 牌局结束后的收尾：广播结算并产出待落盘的累计分快照
// 调用方必须已持有 room.Mu
func (h *Hub) settleLocked(room *entities.Room, res *game.ActionResult, outs *[]targeted) *dto.ScoreSnapshot {
	if !res.GameEnded {
		return nil
	}
	room.RoundsPlayed++
	*outs = append(*outs, broadcastOuts(room, dto.EventSettlement, res.Settlement)...)
	snapshot := buildScoreSnapshot(room)
	return &snapshot
}
