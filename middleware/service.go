/*
 * @Author: AsisYu
 * @Date: 2025-05-13
 * @Description: 服务注入中间件
 */
package middleware

import (
	"expirywatch/services"

	"github.com/gin-gonic/gin"
)

// ServiceMiddleware Gin路由器中间件，用于在请求上下文中添加各种服务
func ServiceMiddleware(container *services.ServiceContainer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if container != nil {
			if container.Resolver != nil {
				c.Set("resolver", container.Resolver)
			}

			if container.BatchRunner != nil {
				c.Set("batchRunner", container.BatchRunner)
			}

			if container.DNSChecker != nil {
				c.Set("dnsChecker", container.DNSChecker)
			}

			if container.RedisClient != nil {
				c.Set("redis", container.RedisClient)
			}

			if container.WorkerPool != nil {
				c.Set("workerPool", container.WorkerPool)
			}

			c.Set("resolverConfig", container.Config)
		}

		c.Next()
	}
}
