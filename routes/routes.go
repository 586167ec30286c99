/*
 * @Author: AsisYu
 * @Date: 2025-05-13
 * @Description: API路由注册
 */
package routes

import (
	"os"
	"strconv"
	"time"

	"expirywatch/handlers"
	"expirywatch/middleware"
	"expirywatch/pkg/logger"
	"expirywatch/services"
	"expirywatch/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// rateLimitMiddleware 基于Redis滑动窗口的接口级限流
func rateLimitMiddleware(limiter *services.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		log := logger.WithRequest(c, "RateLimit")

		allowed, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			// 限流器故障时放行，不影响服务
			log.Warnf("限流检查失败: %v", err)
		} else if !allowed {
			log.Warnf("请求被限流: %s", c.ClientIP())
			utils.ErrorResponse(c, 429, "RATE_LIMITED", "Too many requests, please try again later")
			c.Abort()
			return
		}

		// 向客户端回报当前窗口用量
		if count, err := limiter.GetCurrentCount(c.Request.Context(), c.ClientIP()); err == nil {
			c.Header("X-RateLimit-Used", strconv.FormatInt(count, 10))
		}

		c.Next()
	}
}

// RegisterAPIRoutes 注册所有API路由
func RegisterAPIRoutes(r *gin.Engine, serviceContainer *services.ServiceContainer) {
	log := logger.Module("Routes")

	if serviceContainer.Limiter == nil {
		serviceContainer.InitializeLimiter("limit:api", 60, time.Minute)
	}
	apiLimiter := serviceContainer.Limiter

	// 健康检查路由
	r.GET("/api/health", middleware.HealthCheckRateLimit(), handlers.HealthCheckHandler(serviceContainer))

	// Prometheus指标
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 认证令牌路由 - 用于客户端获取JWT令牌
	r.POST("/api/auth/token", middleware.GenerateToken(serviceContainer.RedisClient))

	apiv1 := r.Group("/api/v1")

	if os.Getenv("DISABLE_API_SECURITY") != "true" {
		// 所有API调用都需要有效的一次性JWT令牌
		apiv1.Use(middleware.AuthRequired(serviceContainer.RedisClient))

		rateLimitConfig := middleware.DefaultRateLimitConfig()
		rateLimitConfig.RedisClient = serviceContainer.RedisClient
		rateLimitConfig.UseMemory = serviceContainer.RedisClient == nil
		apiv1.Use(middleware.RateLimitWithConfig(rateLimitConfig))
	} else {
		log.Warn("API安全限制已禁用! 任何人都可以访问API，这在生产环境中不安全")
	}

	// 域名到期检查路由
	checkGroup := apiv1.Group("/check")
	checkGroup.Use(rateLimitMiddleware(apiLimiter))
	checkGroup.GET("/:domain", handlers.CheckDomain)
	checkGroup.POST("", handlers.CheckDomains)

	// RDAP查询路由
	rdapGroup := apiv1.Group("/rdap")
	rdapGroup.Use(rateLimitMiddleware(apiLimiter))
	rdapGroup.GET("/:domain", handlers.RDAPLookup)

	// DNS预检路由
	dnsGroup := apiv1.Group("/dns")
	dnsGroup.Use(rateLimitMiddleware(apiLimiter))
	dnsGroup.GET("/:domain", handlers.DNSPreflight)
}
