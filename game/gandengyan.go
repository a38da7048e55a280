package game

import (
	"fmt"
	"sort"

	"github.com/FreecityDong/gandengyan/dto"
	"github.com/FreecityDong/gandengyan/entities"
)

// 牌型
const (
	PlaySingle  = "single"
	PlayPair    = "pair"
	PlayBomb    = "bomb"
	PlayStraight = "straight"
	PlayPairRun = "pair_run"
)

var gdyRanks = []string{"3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A", "2"}
var gdySuits = []string{"S", "H", "C", "D"}

// 干瞪眼点数全序：3..2 为 3..15，小王 16，大王 17
var gdyRankValue = map[string]int{
	"3": 3, "4": 4, "5": 5, "6": 6, "7": 7, "8": 8, "9": 9, "10": 10,
	"J": 11, "Q": 12, "K": 13, "A": 14, "2": 15, "SJ": 16, "BJ": 17,
}

// GandengyanEngine 干瞪眼玩法引擎
type GandengyanEngine struct{}

func gdyCardValue(c *entities.Card) int {
	return gdyRankValue[c.Rank]
}

func gdyCardLabel(c *entities.Card) string {
	if c.Rank == "SJ" {
		return "小王"
	}
	if c.Rank == "BJ" {
		return "大王"
	}
	return fmt.Sprintf("%s-%s", c.Suit, c.Rank)
}

func gdySortCards(cards []*entities.Card) []*entities.Card {
	sorted := make([]*entities.Card, len(cards))
	copy(sorted, cards)
	sort.Slice(sorted, func(i, j int) bool {
		vi, vj := gdyCardValue(sorted[i]), gdyCardValue(sorted[j])
		if vi != vj {
			return vi < vj
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

func gdyCreateDeck() []*entities.Card {
	deck := make([]*entities.Card, 0, 54)
	counter := 0
	for _, suit := range gdySuits {
		for _, rank := range gdyRanks {
			deck = append(deck, &entities.Card{ID: fmt.Sprintf("C%d", counter), Rank: rank, Suit: suit})
			counter++
		}
	}
	deck = append(deck, &entities.Card{ID: fmt.Sprintf("C%d", counter), Rank: "SJ", JokerType: "small"})
	counter++
	deck = append(deck, &entities.Card{ID: fmt.Sprintf("C%d", counter), Rank: "BJ", JokerType: "big"})
	shuffleCards(deck)
	return deck
}

func buildCounts(cards []*entities.Card) map[int]int {
	counts := make(map[int]int)
	for _, c := range cards {
		counts[gdyCardValue(c)]++
	}
	return counts
}

func splitJokers(cards []*entities.Card) (jokers int, nonJokers []*entities.Card) {
	for _, c := range cards {
		if c.IsJoker() {
			jokers++
		} else {
			nonJokers = append(nonJokers, c)
		}
	}
	return jokers, nonJokers
}

// evaluateNOfKind 判定 n 张同点（王牌补缺）；全王按 2 点（15）计
func evaluateNOfKind(cards []*entities.Card, n int) (bool, int) {
	jokers, nonJokers := splitJokers(cards)

	if len(nonJokers) == 0 && jokers == n {
		return true, 15
	}

	counts := buildCounts(nonJokers)
	if len(counts) != 1 {
		return false, 0
	}
	for value, count := range counts {
		if count+jokers == n {
			return true, value
		}
	}
	return false, 0
}

// canBuildSequence 在 3..14 的窗口内搜索可行的顺子/连对窗口；
// 非王点数必须全部落在窗口内且单点不超过 unitSize，王牌恰好补满缺口。
// 多个可行窗口取尾张最大者。
func canBuildSequence(nonJokerCounts map[int]int, jokers, length, unitSize int) (bool, int) {
	const maxTail = 14
	const minHead = 3
	maxStart := maxTail - length + 1
	bestTail := -1

	for start := minHead; start <= maxStart; start++ {
		invalid := false
		for value, count := range nonJokerCounts {
			if value < start || value > start+length-1 {
				invalid = true
				break
			}
			if count > unitSize {
				invalid = true
				break
			}
		}
		if invalid {
			continue
		}

		needJokers := 0
		for value := start; value <= start+length-1; value++ {
			needJokers += unitSize - nonJokerCounts[value]
		}
		if needJokers == jokers {
			if tail := start + length - 1; tail > bestTail {
				bestTail = tail
			}
		}
	}

	if bestTail >= 0 {
		return true, bestTail
	}
	return false, 0
}

type playEval struct {
	ok       bool
	reason   string
	typ      string
	length   int
	strength int
	cards    []*entities.Card
}

// evaluatePlay 判定一组选牌构成的牌型
func evaluatePlay(cards []*entities.Card) playEval {
	if len(cards) == 0 {
		return playEval{reason: "请选择至少一张牌"}
	}

	sorted := gdySortCards(cards)
	length := len(sorted)

	if length == 1 {
		return playEval{ok: true, typ: PlaySingle, length: 1, strength: gdyCardValue(sorted[0]), cards: sorted}
	}

	if length == 2 {
		if ok, strength := evaluateNOfKind(sorted, 2); ok {
			return playEval{ok: true, typ: PlayPair, length: 2, strength: strength, cards: sorted}
		}
	}

	if length == 3 {
		if ok, strength := evaluateNOfKind(sorted, 3); ok {
			return playEval{ok: true, typ: PlayBomb, length: 3, strength: strength, cards: sorted}
		}
	}

	jokers, nonJokers := splitJokers(sorted)

	if length >= 3 {
		if ok, tail := canBuildSequence(buildCounts(nonJokers), jokers, length, 1); ok {
			return playEval{ok: true, typ: PlayStraight, length: length, strength: tail, cards: sorted}
		}
	}

	if length >= 4 && length%2 == 0 {
		if ok, tail := canBuildSequence(buildCounts(nonJokers), jokers, length/2, 2); ok {
			return playEval{ok: true, typ: PlayPairRun, length: length, strength: tail, cards: sorted}
		}
	}

	return playEval{reason: "不合法牌型（仅支持：单张、对子、三张炸弹、顺子、连对）"}
}

// canBeat 牌型比较：炸弹压一切非炸；其余要求同型同长且点数严格更大
func canBeat(play playEval, lastPlay *entities.LastPlay) bool {
	if lastPlay == nil {
		return true
	}
	if play.typ == PlayBomb && lastPlay.Type != PlayBomb {
		return true
	}
	if play.typ != lastPlay.Type {
		return false
	}
	if (play.typ == PlayStraight || play.typ == PlayPairRun) && play.length != lastPlay.Length {
		return false
	}
	return play.strength > lastPlay.Strength
}

// detectLeftBomb 手牌中是否还留有三张同点（含王牌可补成的）
func detectLeftBomb(hand []*entities.Card) bool {
	jokers, nonJokers := splitJokers(hand)
	for _, count := range buildCounts(nonJokers) {
		if count+jokers >= 3 {
			return true
		}
	}
	return false
}

// GandengyanScoreRow 干瞪眼结算明细行
type GandengyanScoreRow struct {
	PlayerID     string `json:"playerId"`
	Nickname     string `json:"nickname"`
	Remaining    int    `json:"remaining"`
	HasJoker     bool   `json:"hasJoker"`
	HasBomb      bool   `json:"hasBomb"`
	HasNoPlay    bool   `json:"hasNoPlay"`
	Doubled      bool   `json:"doubled"`
	NoPlayDoubled bool  `json:"noPlayDoubled"`
	Multiplier   int    `json:"multiplier"`
	Delta        int    `json:"delta"`
	RawLose      int    `json:"rawLose"`
}

// GandengyanSettlement 干瞪眼结算载荷
type GandengyanSettlement struct {
	WinnerID   string               `json:"winnerId"`
	BombCountN int                  `json:"bombCountN"`
	Scores     []GandengyanScoreRow `json:"scores"`
	Totals     []PlayerTotal        `json:"totals"`
}

// buildGdySettlement 牌局结算：base = 2^炸弹数，
// 留王/留炸翻倍一次，整局零出牌再独立翻倍一次；赢家吃进所有输分
func buildGdySettlement(room *entities.Room, winnerID string) *GandengyanSettlement {
	baseFactor := 1 << room.Game.BombCountN
	rows := make([]GandengyanScoreRow, 0, len(room.Players))
	winnerGain := 0

	for _, p := range room.Players {
		hand := room.Game.Hands[p.ID]
		remaining := len(hand)
		hasJoker := false
		for _, c := range hand {
			if c.IsJoker() {
				hasJoker = true
				break
			}
		}
		hasBomb := detectLeftBomb(hand)
		hasNoPlay := room.Game.PlayedCount[p.ID] == 0

		multiplier := 1
		doubled := remaining > 0 && (hasJoker || hasBomb)
		noPlayDoubled := remaining > 0 && hasNoPlay
		if doubled {
			multiplier *= 2
		}
		if noPlayDoubled {
			multiplier *= 2
		}
		score := remaining * baseFactor * multiplier

		rows = append(rows, GandengyanScoreRow{
			PlayerID:      p.ID,
			Nickname:      p.Nickname,
			Remaining:     remaining,
			HasJoker:      hasJoker,
			HasBomb:       hasBomb,
			HasNoPlay:     hasNoPlay,
			Doubled:       doubled,
			NoPlayDoubled: noPlayDoubled,
			Multiplier:    multiplier,
			RawLose:       score,
		})
	}

	for i := range rows {
		if rows[i].PlayerID == winnerID {
			continue
		}
		rows[i].Delta = -rows[i].RawLose
		winnerGain += rows[i].RawLose
	}
	for i := range rows {
		if rows[i].PlayerID == winnerID {
			rows[i].Delta = winnerGain
		}
		room.Totals[rows[i].PlayerID] += rows[i].Delta
	}

	totals := make([]PlayerTotal, 0, len(room.Players))
	for _, p := range room.Players {
		totals = append(totals, PlayerTotal{PlayerID: p.ID, Nickname: p.Nickname, Total: room.Totals[p.ID]})
	}

	return &GandengyanSettlement{
		WinnerID:   winnerID,
		BombCountN: room.Game.BombCountN,
		Scores:     rows,
		Totals:     totals,
	}
}

// StartGame 开局：上局赢家坐庄（同一批玩家时），庄家 6 张其余 5 张
func (e *GandengyanEngine) StartGame(room *entities.Room) (*StartResult, error) {
	rules := room.Rules()
	if len(room.Players) < rules.MinPlayers || len(room.Players) > rules.MaxPlayers {
		return nil, fmt.Errorf("人数必须为 %d-%d 人", rules.MinPlayers, rules.MaxPlayers)
	}

	deck := gdyCreateDeck()
	playerIDs := make([]string, 0, len(room.Players))
	for _, p := range room.Players {
		playerIDs = append(playerIDs, p.ID)
	}

	var seatOrder []string
	if sameIDSet(room.LastSeatOrder, playerIDs) {
		seatOrder = append([]string{}, room.LastSeatOrder...)
	} else {
		seatOrder = append([]string{}, playerIDs...)
		shuffleIDs(seatOrder)
	}

	dealerID := room.LastWinnerID
	inSeat := false
	for _, id := range seatOrder {
		if id == dealerID {
			inSeat = true
			break
		}
	}
	if dealerID == "" || !inSeat {
		dealerID = seatOrder[rng.Intn(len(seatOrder))]
	}

	for _, p := range room.Players {
		for i, id := range seatOrder {
			if id == p.ID {
				p.SeatIndex = i
			}
		}
	}

	hands := make(map[string][]*entities.Card, len(seatOrder))
	playedCount := make(map[string]int, len(seatOrder))
	for _, playerID := range seatOrder {
		count := 5
		if playerID == dealerID {
			count = 6
		}
		hands[playerID] = gdySortCards(deck[:count])
		deck = deck[count:]
		playedCount[playerID] = 0
	}

	room.Game = &entities.GameState{
		Deck:         deck,
		Hands:        hands,
		PlayedCount:  playedCount,
		SeatOrder:    seatOrder,
		DealerID:     dealerID,
		TurnPlayerID: dealerID,
		PassChain:    []string{},
	}
	room.LastSeatOrder = append([]string{}, seatOrder...)
	room.Status = entities.StatusPlaying

	return &StartResult{TurnPlayerID: dealerID, SeatOrder: seatOrder, DealerID: dealerID}, nil
}

// PlayCards 出牌
func (e *GandengyanEngine) PlayCards(room *entities.Room, playerID string, cardIDs []string) *ActionResult {
	if room.Game == nil {
		return fail("当前不在对局中")
	}
	if room.Game.TurnPlayerID != playerID {
		return fail("还没轮到你出牌")
	}

	hand := room.Game.Hands[playerID]
	if !ensureCardsOwned(hand, cardIDs) {
		return fail("牌不在你的手牌中")
	}

	selected := pickCards(hand, cardIDs)
	play := evaluatePlay(selected)
	if !play.ok {
		return fail(play.reason)
	}
	if !canBeat(play, room.Game.LastPlay) {
		return fail("牌型无法压过上家")
	}

	room.Game.Hands[playerID] = gdySortCards(removeCardsFromHand(hand, cardIDs))
	room.Game.PlayedCount[playerID]++
	playedCards := play.cards

	if play.typ == PlayBomb {
		room.Game.BombCountN++
	}

	room.Game.LastPlay = &entities.LastPlay{
		PlayerID: playerID,
		Type:     play.typ,
		Length:   play.length,
		Strength: play.strength,
		Cards:    playedCards,
	}
	room.Game.PassChain = []string{}

	if len(room.Game.Hands[playerID]) == 0 {
		room.Status = entities.StatusSettlement
		room.LastWinnerID = playerID
		settlement := buildGdySettlement(room, playerID)
		return &ActionResult{
			OK:         true,
			ActionType: "play",
			Played:     playedCards,
			GameEnded:  true,
			Settlement: settlement,
		}
	}

	nextID := room.Game.NextPlayerID(playerID)
	room.Game.TurnPlayerID = nextID
	return &ActionResult{OK: true, ActionType: "play", Played: playedCards, NextTurnPlayerID: nextID}
}

// PassTurn 过牌；force 为托管路径：空桌强过只轮转、最大者强过保留出牌权
func (e *GandengyanEngine) PassTurn(room *entities.Room, playerID string, force bool) *ActionResult {
	if room.Game == nil {
		return fail("当前不在对局中")
	}
	if room.Game.TurnPlayerID != playerID {
		return fail("还没轮到你操作")
	}

	if room.Game.LastPlay == nil {
		if !force {
			return fail("本轮首手不能过牌")
		}
		nextID := room.Game.NextPlayerID(playerID)
		room.Game.TurnPlayerID = nextID
		return &ActionResult{OK: true, NextTurnPlayerID: nextID, ForcedLeadPass: true}
	}

	if room.Game.LastPlay.PlayerID == playerID {
		if !force {
			return fail("你是本轮最大者，不能过牌")
		}
		room.Game.TurnPlayerID = playerID
		return &ActionResult{OK: true, NextTurnPlayerID: playerID, ForcedKeepTurn: true}
	}

	inChain := false
	for _, id := range room.Game.PassChain {
		if id == playerID {
			inChain = true
			break
		}
	}
	if !inChain {
		room.Game.PassChain = append(room.Game.PassChain, playerID)
	}

	active := room.Game.ActivePlayerIDs()
	if len(room.Game.PassChain) >= len(active)-1 {
		// 一圈都过：桌面最大者摸一张底牌并重新领出
		winnerID := room.Game.LastPlay.PlayerID
		var drawCard *entities.Card
		if len(room.Game.Deck) > 0 {
			drawCard = room.Game.Deck[0]
			room.Game.Deck = room.Game.Deck[1:]
			room.Game.Hands[winnerID] = gdySortCards(append(room.Game.Hands[winnerID], drawCard))
		}

		room.Game.RoundWinnerID = winnerID
		room.Game.TurnPlayerID = winnerID
		room.Game.LastPlay = nil
		room.Game.PassChain = []string{}

		return &ActionResult{
			OK:               true,
			RoundEnd:         true,
			RoundWinnerID:    winnerID,
			DrawCard:         drawCard,
			NextTurnPlayerID: winnerID,
		}
	}

	nextID := room.Game.NextPlayerID(playerID)
	room.Game.TurnPlayerID = nextID
	return &ActionResult{OK: true, NextTurnPlayerID: nextID}
}

// DiscardCard 干瞪眼没有弃牌动作
func (e *GandengyanEngine) DiscardCard(room *entities.Room, playerID, cardID string) *ActionResult {
	return fail("当前玩法不支持弃牌操作")
}

// AutoAct 托管强制动作：干瞪眼即强制过牌
func (e *GandengyanEngine) AutoAct(room *entities.Room, playerID string) *ActionResult {
	result := e.PassTurn(room, playerID, true)
	if !result.OK {
		return result
	}
	result.ActionType = "pass"
	result.Auto = true
	return result
}

// SerializeCard 输出一张牌的公开表示
func (e *GandengyanEngine) SerializeCard(card *entities.Card) dto.CardView {
	return dto.CardView{
		ID:    card.ID,
		Rank:  card.Rank,
		Suit:  card.Suit,
		Label: gdyCardLabel(card),
		Value: gdyCardValue(card),
	}
}

func (e *GandengyanEngine) serializeCards(cards []*entities.Card) []dto.CardView {
	views := make([]dto.CardView, 0, len(cards))
	for _, c := range cards {
		views = append(views, e.SerializeCard(c))
	}
	return views
}

// ToRoomState 按观察者投影房间状态，只携带观察者自己的手牌
func (e *GandengyanEngine) ToRoomState(room *entities.Room, viewerID string) *dto.RoomStateView {
	g := room.Game
	players := make([]dto.PlayerView, 0, len(room.Players))
	for _, p := range room.Players {
		var handCount *int
		if g != nil {
			if hand, ok := g.Hands[p.ID]; ok {
				n := len(hand)
				handCount = &n
			}
		}
		players = append(players, dto.PlayerView{
			ID:         p.ID,
			Nickname:   p.Nickname,
			SeatIndex:  p.SeatIndex,
			Connected:  p.Connected,
			IsOwner:    room.OwnerPlayerID == p.ID,
			HandCount:  handCount,
			TotalScore: room.Totals[p.ID],
		})
	}

	view := &dto.RoomStateView{
		SelfPlayerID:  viewerID,
		RoomID:        room.ID,
		GameType:      string(room.GameType),
		Status:        string(room.Status),
		ActionSeq:     room.ActionSeq,
		OwnerPlayerID: room.OwnerPlayerID,
		Players:       players,
	}

	if g != nil {
		bombCount := g.BombCountN
		deckCount := len(g.Deck)
		gameView := &dto.GameView{
			TurnPlayerID: g.TurnPlayerID,
			DealerID:     g.DealerID,
			SeatOrder:    append([]string{}, g.SeatOrder...),
			YourHand:     e.serializeCards(g.Hands[viewerID]),
			BombCountN:   &bombCount,
			DeckCount:    &deckCount,
			PassChain:    append([]string{}, g.PassChain...),
		}
		if g.LastPlay != nil {
			gameView.LastPlay = &dto.LastPlayView{
				PlayerID: g.LastPlay.PlayerID,
				Type:     g.LastPlay.Type,
				Length:   g.LastPlay.Length,
				Strength: g.LastPlay.Strength,
				Cards:    e.serializeCards(g.LastPlay.Cards),
			}
		}
		view.Game = gameView
	}

	return view
}
