/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2025-05-13 17:50:00
 * @Description: 错误处理中间件
 */
package middleware

import (
	"time"

	"expirywatch/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ErrorHandler 兜底错误响应，handler通过c.Error上报的错误统一在此落日志
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			logger.WithRequest(c, "Error").Errorf("请求处理失败: %v", err)

			c.JSON(500, gin.H{
				"error":     "服务器内部错误",
				"requestId": c.GetString("request_id"),
				"timestamp": time.Now().Unix(),
				"path":      c.Request.URL.Path,
				"code":      "INTERNAL_SERVER_ERROR",
			})
		}
	}
}
