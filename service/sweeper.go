package service

import (
	"github.com/robfig/cron/v3"

	"github.com/FreecityDong/gandengyan/logger"
)

// Sweeper 周期性执行空闲房间清理的调度器
type Sweeper struct {
	cron *cron.Cron
	run  func()
}

// NewSweeper 创建调度器；run 在每次周期触发时执行
func NewSweeper(run func()) *Sweeper {
	return &Sweeper{
		cron: cron.New(),
		run:  run,
	}
}

// Start 启动调度器，每分钟扫描一次空闲房间
func (s *Sweeper) Start() {
	_, err := s.cron.AddFunc("@every 1m", s.run)
	if err != nil {
		logger.Errorf("❌ 空闲清理任务注册失败: %v", err)
		return
	}
	s.cron.Start()
	logger.Infof("✅ 空闲房间清理任务已启动")
}

// Stop 停止调度器并等待在途任务结束
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Infof("空闲房间清理任务已停止")
}
