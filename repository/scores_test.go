package repository

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FreecityDong/gandengyan/dto"
)

func snapshot(roomID string, updatedAt int64) dto.ScoreSnapshot {
	return dto.ScoreSnapshot{
		RoomID:    roomID,
		GameType:  "gandengyan",
		UpdatedAt: updatedAt,
		Players: []dto.SnapshotPlayer{
			{PlayerID: "P1", Nickname: "小明", Total: 4},
		},
	}
}

func TestLedgerUpsertReplacesByRoom(t *testing.T) {
	ledger := NewScoreLedger(nil)

	ledger.Upsert(snapshot("AAAAAA", 100))
	ledger.Upsert(snapshot("BBBBBB", 200))

	updated := snapshot("AAAAAA", 300)
	updated.RoundsPlayed = 2
	ledger.Upsert(updated)

	items := ledger.Recent()
	require.Len(t, items, 2, "同房间覆盖写入不产生新条目")
	assert.Equal(t, "AAAAAA", items[0].RoomID, "最近更新的排前")
	assert.Equal(t, 2, items[0].RoundsPlayed)
	assert.Equal(t, "BBBBBB", items[1].RoomID)
}

func TestLedgerCapsAtLimit(t *testing.T) {
	ledger := NewScoreLedger(nil)

	for i := 0; i < MaxPersistedRooms+10; i++ {
		ledger.Upsert(snapshot(fmt.Sprintf("R%05d", i), int64(i)))
	}

	items := ledger.Recent()
	require.Len(t, items, MaxPersistedRooms)
	assert.Equal(t, fmt.Sprintf("R%05d", MaxPersistedRooms+9), items[0].RoomID)
	for _, item := range items {
		assert.NotEqual(t, "R00000", item.RoomID, "最旧的快照被淘汰")
	}
}

func TestLedgerRecentReturnsCopy(t *testing.T) {
	ledger := NewScoreLedger(nil)
	ledger.Upsert(snapshot("AAAAAA", 100))

	items := ledger.Recent()
	items[0].RoomID = "HACKED"

	assert.Equal(t, "AAAAAA", ledger.Recent()[0].RoomID)
}
