package game

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FreecityDong/gandengyan/entities"
)

func gdyC(id, rank, suit string) *entities.Card {
	card := &entities.Card{ID: id, Rank: rank, Suit: suit}
	if rank == "SJ" {
		card.JokerType = "small"
	}
	if rank == "BJ" {
		card.JokerType = "big"
	}
	return card
}

func newGdyRoom(n int) *entities.Room {
	room := &entities.Room{
		ID:       "TEST01",
		GameType: entities.GameTypeGandengyan,
		Status:   entities.StatusReady,
		Totals:   map[string]int{},
	}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("P%d", i+1)
		room.Players = append(room.Players, &entities.Player{
			ID:        id,
			Nickname:  fmt.Sprintf("玩家%d", i+1),
			Connected: true,
		})
		room.Totals[id] = 0
	}
	room.OwnerPlayerID = room.Players[0].ID
	return room
}

func TestEvaluatePlay(t *testing.T) {
	tests := []struct {
		name         string
		cards        []*entities.Card
		wantOK       bool
		wantType     string
		wantStrength int
	}{
		{
			name:         "单张",
			cards:        []*entities.Card{gdyC("a", "7", "S")},
			wantOK:       true,
			wantType:     PlaySingle,
			wantStrength: 7,
		},
		{
			name:         "对子",
			cards:        []*entities.Card{gdyC("a", "9", "S"), gdyC("b", "9", "H")},
			wantOK:       true,
			wantType:     PlayPair,
			wantStrength: 9,
		},
		{
			name:         "王牌补对子",
			cards:        []*entities.Card{gdyC("a", "K", "S"), gdyC("b", "SJ", "")},
			wantOK:       true,
			wantType:     PlayPair,
			wantStrength: 13,
		},
		{
			name:         "双王按 2 计对子",
			cards:        []*entities.Card{gdyC("a", "SJ", ""), gdyC("b", "BJ", "")},
			wantOK:       true,
			wantType:     PlayPair,
			wantStrength: 15,
		},
		{
			name:         "三张炸弹",
			cards:        []*entities.Card{gdyC("a", "Q", "S"), gdyC("b", "Q", "H"), gdyC("c", "Q", "D")},
			wantOK:       true,
			wantType:     PlayBomb,
			wantStrength: 12,
		},
		{
			name:         "王牌补炸弹",
			cards:        []*entities.Card{gdyC("a", "Q", "S"), gdyC("b", "Q", "H"), gdyC("c", "BJ", "")},
			wantOK:       true,
			wantType:     PlayBomb,
			wantStrength: 12,
		},
		{
			name:         "三张顺子",
			cards:        []*entities.Card{gdyC("a", "3", "S"), gdyC("b", "4", "H"), gdyC("c", "5", "D")},
			wantOK:       true,
			wantType:     PlayStraight,
			wantStrength: 5,
		},
		{
			name:         "王牌补顺子中洞",
			cards:        []*entities.Card{gdyC("a", "3", "S"), gdyC("b", "SJ", ""), gdyC("c", "5", "D")},
			wantOK:       true,
			wantType:     PlayStraight,
			wantStrength: 5,
		},
		{
			name:         "多窗口时王牌取最大尾张",
			cards:        []*entities.Card{gdyC("a", "8", "S"), gdyC("b", "SJ", ""), gdyC("c", "BJ", "")},
			wantOK:       true,
			wantType:     PlayStraight,
			wantStrength: 10,
		},
		{
			name:         "连对",
			cards:        []*entities.Card{gdyC("a", "5", "S"), gdyC("b", "5", "H"), gdyC("c", "6", "D"), gdyC("d", "6", "C")},
			wantOK:       true,
			wantType:     PlayPairRun,
			wantStrength: 6,
		},
		{
			name:         "王牌补连对",
			cards:        []*entities.Card{gdyC("a", "5", "S"), gdyC("b", "5", "H"), gdyC("c", "6", "D"), gdyC("d", "SJ", "")},
			wantOK:       true,
			wantType:     PlayPairRun,
			wantStrength: 6,
		},
		{
			name:   "2 不能进顺子",
			cards:  []*entities.Card{gdyC("a", "2", "S"), gdyC("b", "3", "H"), gdyC("c", "4", "D")},
			wantOK: false,
		},
		{
			name:   "四张同点不是合法牌型",
			cards:  []*entities.Card{gdyC("a", "3", "S"), gdyC("b", "3", "H"), gdyC("c", "3", "D"), gdyC("d", "3", "C")},
			wantOK: false,
		},
		{
			name:   "空选牌",
			cards:  nil,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			play := evaluatePlay(tt.cards)
			require.Equal(t, tt.wantOK, play.ok, play.reason)
			if tt.wantOK {
				assert.Equal(t, tt.wantType, play.typ)
				assert.Equal(t, tt.wantStrength, play.strength)
			}
		})
	}
}

func TestCanBeat(t *testing.T) {
	single7 := evaluatePlay([]*entities.Card{gdyC("a", "7", "S")})
	single9 := evaluatePlay([]*entities.Card{gdyC("a", "9", "S")})
	bomb := evaluatePlay([]*entities.Card{gdyC("a", "4", "S"), gdyC("b", "4", "H"), gdyC("c", "4", "D")})
	bigBomb := evaluatePlay([]*entities.Card{gdyC("a", "10", "S"), gdyC("b", "10", "H"), gdyC("c", "10", "D")})
	straight3 := evaluatePlay([]*entities.Card{gdyC("a", "3", "S"), gdyC("b", "4", "H"), gdyC("c", "5", "D")})
	straight4 := evaluatePlay([]*entities.Card{gdyC("a", "3", "S"), gdyC("b", "4", "H"), gdyC("c", "5", "D"), gdyC("d", "6", "C")})

	toLast := func(p playEval) *entities.LastPlay {
		return &entities.LastPlay{Type: p.typ, Length: p.length, Strength: p.strength}
	}

	assert.True(t, canBeat(single7, nil), "首手任意牌型可出")
	assert.True(t, canBeat(single9, toLast(single7)))
	assert.False(t, canBeat(single7, toLast(single9)))
	assert.False(t, canBeat(single7, toLast(single7)), "同点数不能压")
	assert.True(t, canBeat(bomb, toLast(single9)), "炸弹压一切非炸")
	assert.True(t, canBeat(bomb, toLast(straight4)))
	assert.False(t, canBeat(single9, toLast(bomb)))
	assert.True(t, canBeat(bigBomb, toLast(bomb)))
	assert.False(t, canBeat(bomb, toLast(bigBomb)))
	assert.False(t, canBeat(straight4, toLast(straight3)), "顺子必须同长")
}

func TestGandengyanStartGame(t *testing.T) {
	engine := &GandengyanEngine{}

	t.Run("人数不足开局失败", func(t *testing.T) {
		room := newGdyRoom(2)
		_, err := engine.StartGame(room)
		require.Error(t, err)
	})

	t.Run("庄家六张其余五张", func(t *testing.T) {
		room := newGdyRoom(3)
		start, err := engine.StartGame(room)
		require.NoError(t, err)

		require.NotNil(t, room.Game)
		assert.Equal(t, entities.StatusPlaying, room.Status)
		assert.Equal(t, start.DealerID, start.TurnPlayerID)
		assert.Len(t, start.SeatOrder, 3)

		dealt := 0
		for id, hand := range room.Game.Hands {
			if id == start.DealerID {
				assert.Len(t, hand, 6)
			} else {
				assert.Len(t, hand, 5)
			}
			dealt += len(hand)
		}
		assert.Equal(t, 54-dealt, len(room.Game.Deck))
	})

	t.Run("同批玩家时座次粘滞且上局赢家坐庄", func(t *testing.T) {
		room := newGdyRoom(3)
		room.LastSeatOrder = []string{"P2", "P3", "P1"}
		room.LastWinnerID = "P3"

		start, err := engine.StartGame(room)
		require.NoError(t, err)
		assert.Equal(t, []string{"P2", "P3", "P1"}, start.SeatOrder)
		assert.Equal(t, "P3", start.DealerID)
	})
}

func TestGandengyanPlayCards(t *testing.T) {
	engine := &GandengyanEngine{}
	room := newGdyRoom(3)
	room.Status = entities.StatusPlaying
	room.Game = &entities.GameState{
		Hands: map[string][]*entities.Card{
			"P1": {gdyC("a1", "5", "S"), gdyC("a2", "K", "H")},
			"P2": {gdyC("b1", "6", "S"), gdyC("b2", "3", "H")},
			"P3": {gdyC("c1", "9", "S"), gdyC("c2", "4", "H")},
		},
		PlayedCount:  map[string]int{"P1": 0, "P2": 0, "P3": 0},
		SeatOrder:    []string{"P1", "P2", "P3"},
		TurnPlayerID: "P1",
		PassChain:    []string{},
	}

	res := engine.PlayCards(room, "P2", []string{"b1"})
	require.False(t, res.OK, "未轮到的玩家不能出牌")

	res = engine.PlayCards(room, "P1", []string{"nope"})
	require.False(t, res.OK, "不在手牌中的牌不能出")

	res = engine.PlayCards(room, "P1", []string{"a1"})
	require.True(t, res.OK, res.Reason)
	assert.Equal(t, "P2", res.NextTurnPlayerID)
	assert.Equal(t, "P2", room.Game.TurnPlayerID)
	assert.Len(t, room.Game.Hands["P1"], 1)
	require.NotNil(t, room.Game.LastPlay)
	assert.Equal(t, PlaySingle, room.Game.LastPlay.Type)
	assert.Equal(t, 5, room.Game.LastPlay.Strength)

	res = engine.PlayCards(room, "P2", []string{"b2"})
	require.False(t, res.OK, "单张 3 压不过 5")

	res = engine.PlayCards(room, "P2", []string{"b1"})
	require.True(t, res.OK)
	assert.Equal(t, 1, room.Game.PlayedCount["P2"])
}

func TestGandengyanPassChain(t *testing.T) {
	engine := &GandengyanEngine{}
	room := newGdyRoom(3)
	room.Status = entities.StatusPlaying
	lastPlayCard := gdyC("a0", "K", "S")
	room.Game = &entities.GameState{
		Hands: map[string][]*entities.Card{
			"P1": {gdyC("a1", "5", "S")},
			"P2": {gdyC("b1", "6", "S")},
			"P3": {gdyC("c1", "9", "S")},
		},
		PlayedCount:  map[string]int{"P1": 1, "P2": 0, "P3": 0},
		SeatOrder:    []string{"P1", "P2", "P3"},
		TurnPlayerID: "P2",
		LastPlay: &entities.LastPlay{
			PlayerID: "P1", Type: PlaySingle, Length: 1, Strength: 13,
			Cards: []*entities.Card{lastPlayCard},
		},
		PassChain: []string{},
		Deck:      []*entities.Card{gdyC("d1", "8", "D")},
	}

	res := engine.PassTurn(room, "P2", false)
	require.True(t, res.OK, res.Reason)
	assert.False(t, res.RoundEnd)
	assert.Equal(t, "P3", room.Game.TurnPlayerID)
	assert.Equal(t, []string{"P2"}, room.Game.PassChain)

	// 最后一家也过：P1 摸底牌并重新领出
	res = engine.PassTurn(room, "P3", false)
	require.True(t, res.OK, res.Reason)
	assert.True(t, res.RoundEnd)
	assert.Equal(t, "P1", res.RoundWinnerID)
	require.NotNil(t, res.DrawCard)
	assert.Equal(t, "d1", res.DrawCard.ID)
	assert.Len(t, room.Game.Hands["P1"], 2)
	assert.Empty(t, room.Game.Deck)
	assert.Nil(t, room.Game.LastPlay)
	assert.Empty(t, room.Game.PassChain)
	assert.Equal(t, "P1", room.Game.TurnPlayerID)
}

func TestGandengyanPassRestrictions(t *testing.T) {
	engine := &GandengyanEngine{}
	room := newGdyRoom(3)
	room.Status = entities.StatusPlaying
	room.Game = &entities.GameState{
		Hands: map[string][]*entities.Card{
			"P1": {gdyC("a1", "5", "S")},
			"P2": {gdyC("b1", "6", "S")},
			"P3": {gdyC("c1", "9", "S")},
		},
		PlayedCount:  map[string]int{},
		SeatOrder:    []string{"P1", "P2", "P3"},
		TurnPlayerID: "P1",
		PassChain:    []string{},
	}

	res := engine.PassTurn(room, "P1", false)
	require.False(t, res.OK, "本轮首手不能主动过牌")

	res = engine.PassTurn(room, "P1", true)
	require.True(t, res.OK)
	assert.True(t, res.ForcedLeadPass)
	assert.Equal(t, "P2", room.Game.TurnPlayerID)

	room.Game.TurnPlayerID = "P2"
	room.Game.LastPlay = &entities.LastPlay{PlayerID: "P2", Type: PlaySingle, Length: 1, Strength: 6}

	res = engine.PassTurn(room, "P2", false)
	require.False(t, res.OK, "桌面最大者不能主动过牌")

	res = engine.PassTurn(room, "P2", true)
	require.True(t, res.OK)
	assert.True(t, res.ForcedKeepTurn)
	assert.Equal(t, "P2", room.Game.TurnPlayerID)
}

func TestGandengyanSettlement(t *testing.T) {
	engine := &GandengyanEngine{}
	room := newGdyRoom(3)
	room.Status = entities.StatusPlaying
	room.Game = &entities.GameState{
		Hands: map[string][]*entities.Card{
			"P1": {gdyC("a1", "K", "S")},
			"P2": {gdyC("b1", "9", "S"), gdyC("b2", "BJ", "")},
			"P3": {gdyC("c1", "5", "S")},
		},
		PlayedCount:  map[string]int{"P1": 1, "P2": 1, "P3": 0},
		SeatOrder:    []string{"P1", "P2", "P3"},
		TurnPlayerID: "P1",
		PassChain:    []string{},
		BombCountN:   1,
	}

	res := engine.PlayCards(room, "P1", []string{"a1"})
	require.True(t, res.OK, res.Reason)
	require.True(t, res.GameEnded)
	assert.Equal(t, entities.StatusSettlement, room.Status)
	assert.Equal(t, "P1", room.LastWinnerID)

	settlement, ok := res.Settlement.(*GandengyanSettlement)
	require.True(t, ok)
	assert.Equal(t, "P1", settlement.WinnerID)
	assert.Equal(t, 1, settlement.BombCountN)

	byID := map[string]GandengyanScoreRow{}
	sum := 0
	for _, row := range settlement.Scores {
		byID[row.PlayerID] = row
		sum += row.Delta
	}
	assert.Zero(t, sum, "结算必须零和")

	// P2 留 2 张且有王：2 * 2(炸弹底) * 2(留王) = 8
	assert.Equal(t, -8, byID["P2"].Delta)
	assert.True(t, byID["P2"].Doubled)
	// P3 留 1 张且整局没出过牌：1 * 2 * 2 = 4
	assert.Equal(t, -4, byID["P3"].Delta)
	assert.True(t, byID["P3"].NoPlayDoubled)
	assert.Equal(t, 12, byID["P1"].Delta)

	assert.Equal(t, 12, room.Totals["P1"])
	assert.Equal(t, -8, room.Totals["P2"])
	assert.Equal(t, -4, room.Totals["P3"])
}

func TestGandengyanAutoAct(t *testing.T) {
	engine := &GandengyanEngine{}
	room := newGdyRoom(3)
	room.Status = entities.StatusPlaying
	room.Game = &entities.GameState{
		Hands: map[string][]*entities.Card{
			"P1": {gdyC("a1", "5", "S")},
			"P2": {gdyC("b1", "6", "S")},
			"P3": {gdyC("c1", "9", "S")},
		},
		PlayedCount:  map[string]int{},
		SeatOrder:    []string{"P1", "P2", "P3"},
		TurnPlayerID: "P2",
		LastPlay:     &entities.LastPlay{PlayerID: "P1", Type: PlaySingle, Length: 1, Strength: 13},
		PassChain:    []string{},
	}

	res := engine.AutoAct(room, "P2")
	require.True(t, res.OK, res.Reason)
	assert.Equal(t, "pass", res.ActionType)
	assert.True(t, res.Auto)
	assert.Equal(t, "P3", room.Game.TurnPlayerID)
}
