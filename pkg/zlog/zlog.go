package zlog

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// 进程级日志器，后台任务（提醒扫描、调度循环）统一从这里输出。
// HTTP请求日志仍走chi的Logger中间件
var (
	logger *zap.Logger
	once   sync.Once
)

// Init 初始化日志器。logFile 为空时输出到标准输出，
// 否则写入文件并由lumberjack负责滚动
func Init(logFile string, debug bool) {
	once.Do(func() {
		var ws zapcore.WriteSyncer
		if logFile != "" {
			ws = zapcore.AddSync(&lumberjack.Logger{
				Filename:   logFile,
				MaxSize:    50, // MB
				MaxBackups: 5,
				MaxAge:     30, // days
			})
		} else {
			ws = zapcore.AddSync(os.Stdout)
		}

		level := zapcore.InfoLevel
		if debug {
			level = zapcore.DebugLevel
		}

		encoderCfg := zap.NewProductionEncoderConfig()
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), ws, level)
		logger = zap.New(core)
	})
}

// ensure 未显式Init时退化为标准输出，避免空指针
func ensure() *zap.Logger {
	if logger == nil {
		Init("", false)
	}
	return logger
}

// Debug 输出调试日志
func Debug(msg string, fields ...zap.Field) {
	ensure().Debug(msg, fields...)
}

// Info 输出信息日志
func Info(msg string, fields ...zap.Field) {
	ensure().Info(msg, fields...)
}

// Warn 输出警告日志
func Warn(msg string, fields ...zap.Field) {
	ensure().Warn(msg, fields...)
}

// Error 输出错误日志
func Error(msg string, fields ...zap.Field) {
	ensure().Error(msg, fields...)
}

// Sync 进程退出前刷出缓冲
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
