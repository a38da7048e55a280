package game

import (
	"time"

	"golang.org/x/exp/rand"

	"github.com/FreecityDong/gandengyan/entities"
)

var rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))

func shuffleCards(cards []*entities.Card) {
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

func shuffleIDs(ids []string) {
	rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
}

func ensureCardsOwned(hand []*entities.Card, cardIDs []string) bool {
	handIDs := make(map[string]struct{}, len(hand))
	for _, c := range hand {
		handIDs[c.ID] = struct{}{}
	}
	for _, id := range cardIDs {
		if _, ok := handIDs[id]; !ok {
			return false
		}
	}
	return true
}

func removeCardsFromHand(hand []*entities.Card, cardIDs []string) []*entities.Card {
	idSet := make(map[string]struct{}, len(cardIDs))
	for _, id := range cardIDs {
		idSet[id] = struct{}{}
	}
	kept := make([]*entities.Card, 0, len(hand))
	for _, c := range hand {
		if _, ok := idSet[c.ID]; !ok {
			kept = append(kept, c)
		}
	}
	return kept
}

func pickCards(hand []*entities.Card, cardIDs []string) []*entities.Card {
	idSet := make(map[string]struct{}, len(cardIDs))
	for _, id := range cardIDs {
		idSet[id] = struct{}{}
	}
	picked := make([]*entities.Card, 0, len(cardIDs))
	for _, c := range hand {
		if _, ok := idSet[c.ID]; ok {
			picked = append(picked, c)
		}
	}
	return picked
}

// sameIDSet 判断两组玩家ID是否为同一集合（座次粘滞判定）
func sameIDSet(prev, current []string) bool {
	if len(prev) == 0 || len(prev) != len(current) {
		return false
	}
	set := make(map[string]struct{}, len(current))
	for _, id := range current {
		set[id] = struct{}{}
	}
	for _, id := range prev {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}
