package repository

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/go-redis/redis/v8"

	"github.com/FreecityDong/gandengyan/dto"
	"github.com/FreecityDong/gandengyan/logger"
)

const (
	scoreKey = "gandengyan:room_totals"
	// MaxPersistedRooms 快照列表上限，最新更新的排前
	MaxPersistedRooms = 100
)

// ScoreLedger 各房间累计分快照台账；
// 内存列表为准，Redis 仅做落盘，读写失败只记日志不影响对局
type ScoreLedger struct {
	mu        sync.Mutex
	rdb       *redis.Client
	snapshots []dto.ScoreSnapshot
}

// NewScoreLedger 创建台账并从 Redis 加载历史快照（失败则从空列表开始）
func NewScoreLedger(rdb *redis.Client) *ScoreLedger {
	ledger := &ScoreLedger{rdb: rdb}
	ledger.load()
	return ledger
}

func (l *ScoreLedger) load() {
	if l.rdb == nil {
		return
	}
	raw, err := l.rdb.Get(context.Background(), scoreKey).Result()
	if err != nil {
		if err != redis.Nil {
			logger.Warnf("⚠️ 读取累计分快照失败: %v", err)
		}
		return
	}
	var snapshots []dto.ScoreSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshots); err != nil {
		logger.Warnf("⚠️ 累计分快照解析失败: %v", err)
		return
	}
	l.snapshots = snapshots
	logger.Infof("✅ 已加载 %d 条累计分快照", len(snapshots))
}

// save 调用方需持有 mu
func (l *ScoreLedger) save() {
	if l.rdb == nil {
		return
	}
	raw, err := json.Marshal(l.snapshots)
	if err != nil {
		logger.Warnf("⚠️ 累计分快照序列化失败: %v", err)
		return
	}
	if err := l.rdb.Set(context.Background(), scoreKey, raw, 0).Err(); err != nil {
		logger.Warnf("⚠️ 写入累计分快照失败: %v", err)
	}
}

// Upsert 按房间码覆盖写入一条快照，按更新时间倒序并截断到上限
func (l *ScoreLedger) Upsert(snapshot dto.ScoreSnapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	replaced := false
	for i := range l.snapshots {
		if l.snapshots[i].RoomID == snapshot.RoomID {
			l.snapshots[i] = snapshot
			replaced = true
			break
		}
	}
	if !replaced {
		l.snapshots = append(l.snapshots, snapshot)
	}

	sort.SliceStable(l.snapshots, func(i, j int) bool {
		return l.snapshots[i].UpdatedAt > l.snapshots[j].UpdatedAt
	})
	if len(l.snapshots) > MaxPersistedRooms {
		l.snapshots = l.snapshots[:MaxPersistedRooms]
	}

	l.save()
}

// Recent 返回快照列表的拷贝（最新更新的在前）
func (l *ScoreLedger) Recent() []dto.ScoreSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]dto.ScoreSnapshot, len(l.snapshots))
	copy(out, l.snapshots)
	return out
}
