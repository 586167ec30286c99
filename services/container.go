/*
 * @Author: AsisYu
 * @Date: 2025-05-13
 * @Description: 服务容器，用于统一管理所有服务组件
 */
package services

import (
	"time"

	"expirywatch/pkg/logger"
	"expirywatch/types"

	"github.com/go-redis/redis/v8"
)

// ServiceContainer 服务容器，管理所有服务组件。
// RedisClient可以为nil：检查模式不需要Redis，
// 服务模式缺少Redis时限流与防重放自动降级。
type ServiceContainer struct {
	RedisClient *redis.Client
	WorkerPool  *WorkerPool
	Resolver    *Resolver
	BatchRunner *BatchRunner
	DNSChecker  *DNSChecker
	Limiter     *RateLimiter
	Config      types.ResolverConfig
}

// NewServiceContainer 创建新的服务容器
func NewServiceContainer(redisClient *redis.Client, resolver *Resolver, cfg types.ResolverConfig) *ServiceContainer {
	log := logger.Module("Container")

	container := &ServiceContainer{
		RedisClient: redisClient,
		Resolver:    resolver,
		Config:      cfg,
	}

	log.Infof("初始化工作池，大小: %d", cfg.Workers)
	container.WorkerPool = NewWorkerPool(cfg.Workers)
	container.WorkerPool.Start()

	container.BatchRunner = NewBatchRunner(resolver, cfg.Workers)
	container.DNSChecker = NewDNSChecker()

	return container
}

// InitializeLimiter 初始化限流器，未配置Redis时跳过
func (sc *ServiceContainer) InitializeLimiter(keyPrefix string, limit int, window time.Duration) {
	if sc.RedisClient == nil {
		logger.Module("Container").Warn("未配置Redis，接口限流已停用")
		return
	}
	sc.Limiter = NewRateLimiter(sc.RedisClient, keyPrefix, limit, window)
}

// Shutdown 关闭所有服务
func (sc *ServiceContainer) Shutdown() {
	log := logger.Module("Container")

	if sc.WorkerPool != nil {
		log.Info("关闭工作池...")
		sc.WorkerPool.Stop()
	}

	if sc.RedisClient != nil {
		log.Info("关闭 Redis 客户端...")
		sc.RedisClient.Close()
	}

	log.Info("所有服务已关闭")
}
