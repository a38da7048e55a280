package game

import (
	"fmt"
	"sort"

	"github.com/FreecityDong/gandengyan/dto"
	"github.com/FreecityDong/gandengyan/entities"
)

var svnSuits = []string{"S", "H", "C", "D"}
var svnRanks = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

// 接龙点数全序：A=1 .. K=13
var svnRankValue = map[string]int{
	"A": 1, "2": 2, "3": 3, "4": 4, "5": 5, "6": 6, "7": 7,
	"8": 8, "9": 9, "10": 10, "J": 11, "Q": 12, "K": 13,
}

var svnSuitOrder = map[string]int{"S": 0, "H": 1, "C": 2, "D": 3}

// 链条端点推进表
var svnNextLower = map[string]string{
	"7": "6", "6": "5", "5": "4", "4": "3", "3": "2", "2": "A",
}

var svnNextHigher = map[string]string{
	"7": "8", "8": "9", "9": "10", "10": "J", "J": "Q", "Q": "K", "K": "A",
}

// SevensEngine 接龙玩法引擎
type SevensEngine struct{}

func svnCardValue(c *entities.Card) int {
	return svnRankValue[c.Rank]
}

func svnSortCards(cards []*entities.Card) []*entities.Card {
	sorted := make([]*entities.Card, len(cards))
	copy(sorted, cards)
	sort.Slice(sorted, func(i, j int) bool {
		si, sj := svnSuitOrder[sorted[i].Suit], svnSuitOrder[sorted[j].Suit]
		if si != sj {
			return si < sj
		}
		vi, vj := svnCardValue(sorted[i]), svnCardValue(sorted[j])
		if vi != vj {
			return vi < vj
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

func svnCreateDeck() []*entities.Card {
	deck := make([]*entities.Card, 0, 52)
	counter := 0
	for _, suit := range svnSuits {
		for _, rank := range svnRanks {
			deck = append(deck, &entities.Card{ID: fmt.Sprintf("C%d", counter), Rank: rank, Suit: suit})
			counter++
		}
	}
	shuffleCards(deck)
	return deck
}

func svnCreateBoard() map[string]*entities.SuitState {
	board := make(map[string]*entities.SuitState, len(svnSuits))
	for _, suit := range svnSuits {
		board[suit] = &entities.SuitState{}
	}
	return board
}

// svnIsLegalPlay 一张牌是否可接：未开的花色只认 7，已开的认两端各自的下一张
func svnIsLegalPlay(board map[string]*entities.SuitState, card *entities.Card) bool {
	if card == nil || card.Suit == "" || card.Rank == "" {
		return false
	}
	suitState, ok := board[card.Suit]
	if !ok {
		return false
	}
	if !suitState.Opened {
		return card.Rank == "7"
	}
	return card.Rank == svnNextLower[suitState.LowEndRank] ||
		card.Rank == svnNextHigher[suitState.HighEndRank]
}

// svnLegalPlayCardIDs 当前玩家手牌中所有可接的牌（手牌已排序，顺序即托管优先序）
func svnLegalPlayCardIDs(g *entities.GameState, playerID string) []string {
	if g == nil {
		return nil
	}
	var legal []string
	for _, card := range g.Hands[playerID] {
		if svnIsLegalPlay(g.Board, card) {
			legal = append(legal, card.ID)
		}
	}
	return legal
}

// svnApplyPlayToBoard 把一张牌接到链上，返回接入端；失败不修改 board
func svnApplyPlayToBoard(board map[string]*entities.SuitState, card *entities.Card) (string, string) {
	suitState := board[card.Suit]

	if !suitState.Opened {
		if card.Rank != "7" {
			return "", "该花色尚未开启，只能先出 7"
		}
		suitState.Opened = true
		suitState.LowEndRank = "7"
		suitState.HighEndRank = "7"
		return "center", ""
	}

	if card.Rank == svnNextLower[suitState.LowEndRank] {
		suitState.LowEndRank = card.Rank
		return "low", ""
	}
	if card.Rank == svnNextHigher[suitState.HighEndRank] {
		suitState.HighEndRank = card.Rank
		return "high", ""
	}
	return "", "该牌不能接在当前端点"
}

func svnScoreCards(cards []*entities.Card) int {
	sum := 0
	for _, c := range cards {
		sum += svnCardValue(c)
	}
	return sum
}

// SevensScoreRow 接龙结算明细行
type SevensScoreRow struct {
	PlayerID     string `json:"playerId"`
	Nickname     string `json:"nickname"`
	DiscardCount int    `json:"discardCount"`
	DiscardTotal int    `json:"discardTotal"`
	Delta        int    `json:"delta"`
	Rank         int    `json:"rank"`
	IsWinner     bool   `json:"isWinner"`
}

// SevensSettlement 接龙结算载荷；弃牌分最低者胜，平分共享名次
type SevensSettlement struct {
	WinnerID     string           `json:"winnerId"`
	Winners      []string         `json:"winners"`
	WinningScore int              `json:"winningScore"`
	Scores       []SevensScoreRow `json:"scores"`
	Totals       []PlayerTotal    `json:"totals"`
}

func buildSvnSettlement(room *entities.Room) *SevensSettlement {
	rows := make([]SevensScoreRow, 0, len(room.Players))
	for _, p := range room.Players {
		pile := room.Game.DiscardPiles[p.ID]
		total := svnScoreCards(pile)
		rows = append(rows, SevensScoreRow{
			PlayerID:     p.ID,
			Nickname:     p.Nickname,
			DiscardCount: len(pile),
			DiscardTotal: total,
			Delta:        total,
		})
	}

	winningScore := 0
	for i, row := range rows {
		if i == 0 || row.DiscardTotal < winningScore {
			winningScore = row.DiscardTotal
		}
	}

	// 升序名次，同分共享
	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return rows[order[a]].DiscardTotal < rows[order[b]].DiscardTotal
	})
	rank := 0
	previousScore := -1
	hasPrevious := false
	for pos, idx := range order {
		if !hasPrevious || rows[idx].DiscardTotal != previousScore {
			rank = pos + 1
			previousScore = rows[idx].DiscardTotal
			hasPrevious = true
		}
		rows[idx].Rank = rank
	}

	var winners []string
	for i := range rows {
		if rows[i].DiscardTotal == winningScore {
			rows[i].IsWinner = true
			winners = append(winners, rows[i].PlayerID)
		}
		room.Totals[rows[i].PlayerID] += rows[i].Delta
	}

	winnerID := ""
	if len(winners) == 1 {
		winnerID = winners[0]
	}

	totals := make([]PlayerTotal, 0, len(room.Players))
	for _, p := range room.Players {
		totals = append(totals, PlayerTotal{PlayerID: p.ID, Nickname: p.Nickname, Total: room.Totals[p.ID]})
	}

	return &SevensSettlement{
		WinnerID:     winnerID,
		Winners:      winners,
		WinningScore: winningScore,
		Scores:       rows,
		Totals:       totals,
	}
}

// svnFinalizeIfEnded 所有手牌出完即进入结算
func svnFinalizeIfEnded(room *entities.Room) *SevensSettlement {
	if len(room.Game.ActivePlayerIDs()) > 0 {
		return nil
	}
	room.Status = entities.StatusSettlement
	room.LastWinnerID = ""
	return buildSvnSettlement(room)
}

// StartGame 开局：整副牌轮流发完，持黑桃 7 者先出
func (e *SevensEngine) StartGame(room *entities.Room) (*StartResult, error) {
	rules := room.Rules()
	if len(room.Players) < rules.MinPlayers || len(room.Players) > rules.MaxPlayers {
		return nil, fmt.Errorf("人数必须为 %d-%d 人", rules.MinPlayers, rules.MaxPlayers)
	}

	deck := svnCreateDeck()
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

	for _, p := range room.Players {
		for i, id := range seatOrder {
			if id == p.ID {
				p.SeatIndex = i
			}
		}
	}

	hands := make(map[string][]*entities.Card, len(seatOrder))
	discardPiles := make(map[string][]*entities.Card, len(seatOrder))
	for _, playerID := range seatOrder {
		hands[playerID] = []*entities.Card{}
		discardPiles[playerID] = []*entities.Card{}
	}
	for cursor, card := range deck {
		playerID := seatOrder[cursor%len(seatOrder)]
		hands[playerID] = append(hands[playerID], card)
	}
	for _, playerID := range seatOrder {
		hands[playerID] = svnSortCards(hands[playerID])
	}

	starter := ""
	for _, playerID := range seatOrder {
		for _, card := range hands[playerID] {
			if card.Suit == "S" && card.Rank == "7" {
				starter = playerID
				break
			}
		}
		if starter != "" {
			break
		}
	}
	if starter == "" {
		starter = seatOrder[rng.Intn(len(seatOrder))]
	}

	room.Game = &entities.GameState{
		Hands:        hands,
		DiscardPiles: discardPiles,
		Board:        svnCreateBoard(),
		SeatOrder:    seatOrder,
		TurnPlayerID: starter,
	}
	room.LastSeatOrder = append([]string{}, seatOrder...)
	room.Status = entities.StatusPlaying

	return &StartResult{TurnPlayerID: starter, SeatOrder: seatOrder}, nil
}

// PlayCards 接龙出牌：每次 1 张，必须是当前端点可接的牌
func (e *SevensEngine) PlayCards(room *entities.Room, playerID string, cardIDs []string) *ActionResult {
	if room.Game == nil {
		return fail("当前不在对局中")
	}
	if room.Game.TurnPlayerID != playerID {
		return fail("还没轮到你出牌")
	}
	if len(cardIDs) != 1 {
		return fail("接龙每次只能出 1 张牌")
	}

	hand := room.Game.Hands[playerID]
	if !ensureCardsOwned(hand, cardIDs) {
		return fail("牌不在你的手牌中")
	}

	legalIDs := svnLegalPlayCardIDs(room.Game, playerID)
	if len(legalIDs) == 0 {
		return fail("当前无合法可出牌，请弃 1 张牌")
	}
	isLegal := false
	for _, id := range legalIDs {
		if id == cardIDs[0] {
			isLegal = true
			break
		}
	}
	if !isLegal {
		return fail("该牌不满足接龙端点规则")
	}

	var card *entities.Card
	for _, c := range hand {
		if c.ID == cardIDs[0] {
			card = c
			break
		}
	}

	// 先在副本上落牌，失败不动原状态
	nextBoard := make(map[string]*entities.SuitState, len(svnSuits))
	for _, suit := range svnSuits {
		state := *room.Game.Board[suit]
		nextBoard[suit] = &state
	}
	side, reason := svnApplyPlayToBoard(nextBoard, card)
	if reason != "" {
		return fail(reason)
	}

	room.Game.Board = nextBoard
	room.Game.Hands[playerID] = svnSortCards(removeCardsFromHand(hand, cardIDs))

	if settlement := svnFinalizeIfEnded(room); settlement != nil {
		room.Game.LastAction = &entities.LastAction{
			ActionType: "play",
			PlayerID:   playerID,
			Card:       card,
			Side:       side,
		}
		return &ActionResult{
			OK:         true,
			ActionType: "play",
			Played:     []*entities.Card{card},
			Side:       side,
			GameEnded:  true,
			Settlement: settlement,
		}
	}

	nextID := room.Game.NextPlayerID(playerID)
	room.Game.TurnPlayerID = nextID
	room.Game.LastAction = &entities.LastAction{
		ActionType:       "play",
		PlayerID:         playerID,
		Card:             card,
		NextTurnPlayerID: nextID,
		Side:             side,
	}
	return &ActionResult{
		OK:               true,
		ActionType:       "play",
		Played:           []*entities.Card{card},
		Side:             side,
		NextTurnPlayerID: nextID,
	}
}

// PassTurn 接龙没有过牌
func (e *SevensEngine) PassTurn(room *entities.Room, playerID string, force bool) *ActionResult {
	return fail("接龙不支持过牌，请出牌或弃 1 张牌")
}

// DiscardCard 弃牌：仅在没有任何可接的牌时允许，弃入自己的暗弃牌堆
func (e *SevensEngine) DiscardCard(room *entities.Room, playerID, cardID string) *ActionResult {
	if room.Game == nil {
		return fail("当前不在对局中")
	}
	if room.Game.TurnPlayerID != playerID {
		return fail("还没轮到你操作")
	}
	if cardID == "" {
		return fail("请先选择 1 张弃牌")
	}

	hand := room.Game.Hands[playerID]
	if !ensureCardsOwned(hand, []string{cardID}) {
		return fail("牌不在你的手牌中")
	}

	if len(svnLegalPlayCardIDs(room.Game, playerID)) > 0 {
		return fail("当前有合法可出牌，不允许弃牌")
	}

	var discarded *entities.Card
	for _, c := range hand {
		if c.ID == cardID {
			discarded = c
			break
		}
	}

	room.Game.Hands[playerID] = svnSortCards(removeCardsFromHand(hand, []string{cardID}))
	room.Game.DiscardPiles[playerID] = append(room.Game.DiscardPiles[playerID], discarded)

	if settlement := svnFinalizeIfEnded(room); settlement != nil {
		room.Game.LastAction = &entities.LastAction{
			ActionType: "discard",
			PlayerID:   playerID,
			Card:       discarded,
		}
		return &ActionResult{
			OK:         true,
			ActionType: "discard",
			Discarded:  discarded,
			GameEnded:  true,
			Settlement: settlement,
		}
	}

	nextID := room.Game.NextPlayerID(playerID)
	room.Game.TurnPlayerID = nextID
	room.Game.LastAction = &entities.LastAction{
		ActionType:       "discard",
		PlayerID:         playerID,
		Card:             discarded,
		NextTurnPlayerID: nextID,
	}
	return &ActionResult{
		OK:               true,
		ActionType:       "discard",
		Discarded:        discarded,
		NextTurnPlayerID: nextID,
	}
}

// AutoAct 托管强制动作：有牌可接出第一张，否则弃第一张手牌
func (e *SevensEngine) AutoAct(room *entities.Room, playerID string) *ActionResult {
	if room.Game == nil {
		return fail("当前不在对局中")
	}
	if room.Game.TurnPlayerID != playerID {
		return fail("当前不是该玩家回合")
	}

	hand := room.Game.Hands[playerID]
	if len(hand) == 0 {
		return fail("玩家已无手牌")
	}

	if legalIDs := svnLegalPlayCardIDs(room.Game, playerID); len(legalIDs) > 0 {
		result := e.PlayCards(room, playerID, []string{legalIDs[0]})
		if result.OK {
			result.Auto = true
		}
		return result
	}

	result := e.DiscardCard(room, playerID, hand[0].ID)
	if result.OK {
		result.Auto = true
	}
	return result
}

// SerializeCard 输出一张牌的公开表示
func (e *SevensEngine) SerializeCard(card *entities.Card) dto.CardView {
	return dto.CardView{
		ID:    card.ID,
		Rank:  card.Rank,
		Suit:  card.Suit,
		Label: fmt.Sprintf("%s-%s", card.Suit, card.Rank),
		Value: svnCardValue(card),
	}
}

func (e *SevensEngine) serializeCards(cards []*entities.Card) []dto.CardView {
	views := make([]dto.CardView, 0, len(cards))
	for _, c := range cards {
		views = append(views, e.SerializeCard(c))
	}
	return views
}

func svnSerializeBoard(board map[string]*entities.SuitState) map[string]dto.SuitStateView {
	out := make(map[string]dto.SuitStateView, len(svnSuits))
	for _, suit := range svnSuits {
		state := board[suit]
		view := dto.SuitStateView{
			Opened:      state.Opened,
			LowEndRank:  state.LowEndRank,
			HighEndRank: state.HighEndRank,
		}
		if state.Opened {
			view.NextLowRank = svnNextLower[state.LowEndRank]
			view.NextHighRank = svnNextHigher[state.HighEndRank]
		}
		out[suit] = view
	}
	return out
}

// ToRoomState 按观察者投影：他人弃牌堆只给计数与累计分，牌面隐藏
func (e *SevensEngine) ToRoomState(room *entities.Room, viewerID string) *dto.RoomStateView {
	g := room.Game
	players := make([]dto.PlayerView, 0, len(room.Players))
	for _, p := range room.Players {
		var handCount *int
		var pile []*entities.Card
		if g != nil {
			if hand, ok := g.Hands[p.ID]; ok {
				n := len(hand)
				handCount = &n
			}
			pile = g.DiscardPiles[p.ID]
		}
		players = append(players, dto.PlayerView{
			ID:           p.ID,
			Nickname:     p.Nickname,
			SeatIndex:    p.SeatIndex,
			Connected:    p.Connected,
			IsOwner:      room.OwnerPlayerID == p.ID,
			HandCount:    handCount,
			DiscardCount: len(pile),
			DiscardScore: svnScoreCards(pile),
			TotalScore:   room.Totals[p.ID],
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
		legalIDs := svnLegalPlayCardIDs(g, viewerID)
		yourPile := g.DiscardPiles[viewerID]
		yourScore := svnScoreCards(yourPile)
		mustDiscard := g.TurnPlayerID == viewerID && len(g.Hands[viewerID]) > 0 && len(legalIDs) == 0

		gameView := &dto.GameView{
			TurnPlayerID:     g.TurnPlayerID,
			SeatOrder:        append([]string{}, g.SeatOrder...),
			YourHand:         e.serializeCards(g.Hands[viewerID]),
			Board:            svnSerializeBoard(g.Board),
			YourDiscardPile:  e.serializeCards(yourPile),
			YourDiscardScore: &yourScore,
			LegalPlayCardIDs: legalIDs,
			MustDiscard:      &mustDiscard,
		}
		if g.LastAction != nil {
			la := g.LastAction
			hidden := la.ActionType == "discard" && la.PlayerID != viewerID
			actionView := &dto.LastActionView{
				ActionType:       la.ActionType,
				PlayerID:         la.PlayerID,
				CardHidden:       hidden,
				Side:             la.Side,
				NextTurnPlayerID: la.NextTurnPlayerID,
			}
			if la.Card != nil && !hidden {
				cv := e.SerializeCard(la.Card)
				actionView.Card = &cv
			}
			gameView.LastAction = actionView
		}
		view.Game = gameView
	}

	return view
}
