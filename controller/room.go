package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/FreecityDong/gandengyan/repository"
	"github.com/FreecityDong/gandengyan/service"
)

// RoomController 只读的 HTTP 辅助接口；所有改房间状态的操作都走 WebSocket
type RoomController struct {
	registry *service.Registry
	ledger   *repository.ScoreLedger
}

func NewRoomController(registry *service.Registry, ledger *repository.ScoreLedger) *RoomController {
	return &RoomController{registry: registry, ledger: ledger}
}

// Health 健康检查
func (ctl *RoomController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":    true,
		"rooms": ctl.registry.RoomCount(),
		"ts":    time.Now().UnixMilli(),
	})
}

// GetRoomList 大厅房间列表（与 lobby:room_list 同一份快照）
func (ctl *RoomController) GetRoomList(c *gin.Context) {
	rooms := ctl.registry.BuildRoomList()
	c.JSON(http.StatusOK, gin.H{
		"status_code": http.StatusOK,
		"msg":         "获取成功",
		"data": gin.H{
			"rooms": rooms,
			"ts":    time.Now().UnixMilli(),
		},
	})
}

// GetRecentScores 最近活跃房间的累计分快照
func (ctl *RoomController) GetRecentScores(c *gin.Context) {
	items := ctl.ledger.Recent()
	c.JSON(http.StatusOK, gin.H{
		"ok":    true,
		"count": len(items),
		"items": items,
	})
}
