/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2025-05-12 10:05:00
 * @Description: 统一日志系统 - 基于uber-go/zap，支持日志切割
 */

package logger

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// base 是全局zap logger实例
	base *zap.Logger
	// sugar 是全局SugaredLogger实例，支持printf风格
	sugar *zap.SugaredLogger
)

// ContextKey 用于从context中获取request ID
type ContextKey string

const RequestIDKey ContextKey = "request_id"

// Init 初始化全局logger
// env: "dev" 使用开发模式（彩色输出），"production" 使用JSON格式
// logFile: 非空时同时写入带切割的日志文件
func Init(env, logFile string) error {
	var encoderCfg zapcore.EncoderConfig
	var encoder zapcore.Encoder
	level := zapcore.DebugLevel

	if env == "dev" || env == "development" {
		// 开发模式：易读的控制台格式
		encoderCfg = zap.NewDevelopmentEncoderConfig()
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	} else {
		// 生产模式：JSON格式，便于日志聚合
		encoderCfg = zap.NewProductionEncoderConfig()
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderCfg)
		level = zapcore.InfoLevel
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level),
	}

	if logFile != "" {
		// 文件输出统一走JSON编码并启用切割
		rotator := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100, // MB
			MaxBackups: 30,
			MaxAge:     90, // 天
			Compress:   true,
			LocalTime:  true,
		}
		fileEncoderCfg := zap.NewProductionEncoderConfig()
		fileEncoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(fileEncoderCfg),
			zapcore.AddSync(rotator),
			level,
		))
	}

	l := zap.New(
		zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel), // ERROR级别自动添加堆栈
	)

	base = l
	sugar = l.Sugar()

	// 向后兼容：重定向标准库log到zap
	stdLog := zap.NewStdLog(l)
	log.SetOutput(stdLog.Writer())
	log.SetFlags(0) // zap已包含时间戳，移除标准库的

	return nil
}

// Module 创建带模块名称的logger
// 用法: logger.Module("Resolver").Infof("resolved: %s", domain)
func Module(name string) *zap.SugaredLogger {
	if sugar == nil {
		// 如果未初始化，使用默认logger
		return zap.NewExample().Sugar().Named(name)
	}
	return sugar.Named(name)
}

// Sugar 返回SugaredLogger，用于printf风格日志
func Sugar() *zap.SugaredLogger {
	if sugar == nil {
		return zap.NewExample().Sugar()
	}
	return sugar
}

// WithRequest 从Gin context中获取request ID并创建带request_id字段的logger
func WithRequest(c *gin.Context, moduleName string) *zap.SugaredLogger {
	l := Module(moduleName)

	if requestID, exists := c.Get("request_id"); exists {
		l = l.With("request_id", requestID)
	}

	l = l.With("client_ip", c.ClientIP())

	return l
}

// FromContext 从标准context.Context中获取request ID
func FromContext(ctx context.Context, moduleName string) *zap.SugaredLogger {
	l := Module(moduleName)

	if requestID := ctx.Value(RequestIDKey); requestID != nil {
		l = l.With("request_id", requestID)
	}

	return l
}

// Sync 刷新日志缓冲区，程序退出前应调用
func Sync() {
	if base != nil {
		_ = base.Sync()
	}
}

// DeriveEnvironment 根据环境变量推导运行环境
func DeriveEnvironment() string {
	if ginMode := os.Getenv("GIN_MODE"); ginMode == "release" {
		return "production"
	}

	if env := os.Getenv("APP_ENV"); env != "" {
		return env
	}

	// 默认开发环境
	return "dev"
}
