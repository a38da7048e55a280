package main

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/FreecityDong/gandengyan/config"
	"github.com/FreecityDong/gandengyan/controller"
	"github.com/FreecityDong/gandengyan/logger"
	"github.com/FreecityDong/gandengyan/repository"
	"github.com/FreecityDong/gandengyan/router"
	"github.com/FreecityDong/gandengyan/service"
	"github.com/FreecityDong/gandengyan/ws"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Development)
	defer logger.Sync()

	rdb := repository.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	ledger := repository.NewScoreLedger(rdb)
	registry := service.NewRegistry()
	hub := ws.NewHub(registry, ledger)

	// 每分钟清理一轮全员离线的空闲房间
	sweeper := service.NewSweeper(hub.RunIdleSweep)
	sweeper.Start()
	defer sweeper.Stop()

	if !cfg.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	// 允许所有来源，前端独立部署
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))

	roomCtl := controller.NewRoomController(registry, ledger)
	router.InitRouter(r, hub, roomCtl)

	logger.Infof("✅ 服务启动，监听端口 %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Errorf("❌ 服务退出: %v", err)
	}
}
