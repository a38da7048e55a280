package entities

// Card 一张牌，ID 在一副牌内唯一；王牌 Suit 为空
type Card struct {
	ID        string `json:"id"`
	Rank      string `json:"rank"`
	Suit      string `json:"suit"`
	JokerType string `json:"jokerType,omitempty"`
}

// IsJoker 是否为王牌（仅干瞪眼牌堆存在）
func (c *Card) IsJoker() bool {
	return c.JokerType != ""
}

// LastPlay 干瞪眼桌面上最近一手被接受的出牌
type LastPlay struct {
	PlayerID string
	Type     string
	Length   int
	Strength int
	Cards    []*Card
}

// SuitState 接龙单个花色的链条端点
type SuitState struct {
	Opened      bool
	LowEndRank  string
	HighEndRank string
}

// LastAction 接龙最近一次动作（出牌或弃牌）
type LastAction struct {
	ActionType       string
	PlayerID         string
	Card             *Card
	NextTurnPlayerID string
	Side             string
}

// GameState 一局牌局的全部状态，归属其 Room 独占；
// 每局开始时整体替换，结算期间只读保留
type GameState struct {
	Hands        map[string][]*Card
	SeatOrder    []string
	TurnPlayerID string

	// 干瞪眼专用
	Deck          []*Card
	PlayedCount   map[string]int
	DealerID      string
	LastPlay      *LastPlay
	PassChain     []string
	RoundWinnerID string
	BombCountN    int

	// 接龙专用
	DiscardPiles map[string][]*Card
	Board        map[string]*SuitState
	LastAction   *LastAction
}

// ActivePlayerIDs 按座次返回仍有手牌的玩家
func (g *GameState) ActivePlayerIDs() []string {
	active := make([]string, 0, len(g.SeatOrder))
	for _, id := range g.SeatOrder {
		if len(g.Hands[id]) > 0 {
			active = append(active, id)
		}
	}
	return active
}

// NextPlayerID 从 currentID 起按座次找到下一个仍有手牌的玩家
func (g *GameState) NextPlayerID(currentID string) string {
	active := g.ActivePlayerIDs()
	if len(active) == 0 {
		return ""
	}
	if len(active) == 1 {
		return active[0]
	}

	idx := -1
	for i, id := range g.SeatOrder {
		if id == currentID {
			idx = i
			break
		}
	}

	n := len(g.SeatOrder)
	for i := 1; i <= n; i++ {
		nextID := g.SeatOrder[(idx+i+n)%n]
		for _, id := range active {
			if id == nextID {
				return nextID
			}
		}
	}
	return ""
}
