package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	sugar *zap.SugaredLogger
	once  sync.Once
)

// Init 初始化全局日志记录器（控制台输出，带颜色等级）
func Init(development bool) {
	once.Do(func() {
		cfg := zap.NewProductionConfig()
		if development {
			cfg = zap.NewDevelopmentConfig()
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

		zl, err := cfg.Build(zap.AddCallerSkip(1))
		if err != nil {
			zl = zap.NewNop()
		}
		sugar = zl.Sugar()
	})
}

// L 获取全局 SugaredLogger，未初始化时退化为 Nop
func L() *zap.SugaredLogger {
	if sugar == nil {
		Init(true)
	}
	return sugar
}

// Infof 记录 info 级别日志
func Infof(format string, args ...interface{}) {
	L().Infof(format, args...)
}

// Warnf 记录 warn 级别日志
func Warnf(format string, args ...interface{}) {
	L().Warnf(format, args...)
}

// Errorf 记录 error 级别日志
func Errorf(format string, args ...interface{}) {
	L().Errorf(format, args...)
}

// Sync 刷新缓冲日志
func Sync() {
	if sugar != nil {
		_ = sugar.Sync()
	}
}
