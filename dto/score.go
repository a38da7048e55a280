package dto

// SnapshotPlayer 快照中一名玩家的累计分
type SnapshotPlayer struct {
	PlayerID  string `json:"playerId"`
	Nickname  string `json:"nickname"`
	Total     int    `json:"total"`
	Connected bool   `json:"connected"`
}

// ScoreSnapshot 一个房间的累计分快照，按 roomId 覆盖写入
type ScoreSnapshot struct {
	RoomID       string           `json:"roomId"`
	GameType     string           `json:"gameType"`
	UpdatedAt    int64            `json:"updatedAt"`
	RoundsPlayed int              `json:"roundsPlayed"`
	Players      []SnapshotPlayer `json:"players"`
}
