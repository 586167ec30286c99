/*
 * @Author: AsisYu
 * @Date: 2025-05-13
 * @Description: 健康检查处理程序
 */
package handlers

import (
	"context"
	"os"
	"time"

	"expirywatch/pkg/logger"
	"expirywatch/services"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// HealthCheckHandler 健康检查API处理程序
func HealthCheckHandler(container *services.ServiceContainer) gin.HandlerFunc {
	return func(c *gin.Context) {
		detailed := c.DefaultQuery("detailed", "false") == "true"

		log := logger.WithRequest(c, "Health")
		log.Debugf("健康检查API调用: detailed=%v", detailed)

		response := gin.H{
			"status":  "up",
			"version": os.Getenv("APP_VERSION"),
			"time":    time.Now().UTC().Format(time.RFC3339),
		}

		if !detailed {
			c.JSON(200, response)
			return
		}

		overallStatus := "up"
		servicesStatus := gin.H{}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		// Redis可选，缺失时记为disabled而不是down
		if container != nil && container.RedisClient != nil {
			if err := pingRedis(ctx, container.RedisClient); err != nil {
				servicesStatus["redis"] = gin.H{"status": "down", "error": err.Error()}
				overallStatus = "degraded"
			} else {
				servicesStatus["redis"] = gin.H{"status": "up"}
			}
		} else {
			servicesStatus["redis"] = gin.H{"status": "disabled"}
		}

		if container != nil && container.DNSChecker != nil {
			if container.DNSChecker.Healthy(ctx) {
				servicesStatus["dns"] = gin.H{"status": "up"}
			} else {
				servicesStatus["dns"] = gin.H{"status": "down"}
				overallStatus = "degraded"
			}
		}

		response["status"] = overallStatus
		response["services"] = servicesStatus
		c.JSON(200, response)
	}
}

func pingRedis(ctx context.Context, rdb *redis.Client) error {
	return rdb.Ping(ctx).Err()
}
