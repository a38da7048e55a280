package router

import (
	"github.com/gin-gonic/gin"

	"github.com/FreecityDong/gandengyan/controller"
	"github.com/FreecityDong/gandengyan/ws"
)

func InitRouter(r *gin.Engine, hub *ws.Hub, roomCtl *controller.RoomController) {
	r.GET("/health", roomCtl.Health)
	r.GET("/scores/recent", roomCtl.GetRecentScores)

	api := r.Group("/room")
	{
		api.GET("/list", roomCtl.GetRoomList)
	}

	// WebSocket 路由
	r.GET("/ws", hub.HandleWebSocket)
}
