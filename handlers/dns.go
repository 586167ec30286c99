/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2025-05-13 18:45:00
 * @Description: DNS预检处理程序
 */
package handlers

import (
	"time"

	"expirywatch/services"
	"expirywatch/utils"

	"github.com/gin-gonic/gin"
)

// DNSPreflight 查询域名的委派状态
// GET /api/v1/dns/:domain
func DNSPreflight(c *gin.Context) {
	domain := utils.SanitizeDomain(c.Param("domain"))
	if !utils.IsValidDomain(domain) {
		utils.ErrorResponse(c, 400, "INVALID_DOMAIN", "无效的域名格式")
		return
	}

	checkerValue, exists := c.Get("dnsChecker")
	checker, ok := checkerValue.(*services.DNSChecker)
	if !exists || !ok {
		utils.ErrorResponse(c, 500, "SERVICE_UNAVAILABLE", "DNS预检服务未初始化")
		return
	}

	start := time.Now()
	result := checker.Preflight(c.Request.Context(), domain)

	utils.SuccessResponse(c, result, &utils.MetaInfo{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Processing: time.Since(start).Milliseconds(),
	})
}
