/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2025-05-13 18:20:00
 * @Description: 域名到期检查处理程序
 */
package handlers

import (
	"time"

	"expirywatch/pkg/logger"
	"expirywatch/services"
	"expirywatch/utils"

	"github.com/gin-gonic/gin"
)

// 批量接口的上限，防止单次请求长时间占用工作池
const maxBatchDomains = 100

// BatchCheckRequest 批量检查请求体
type BatchCheckRequest struct {
	Domains []string `json:"domains" binding:"required"`
}

// CheckDomain 单域名到期检查
// GET /api/v1/check/:domain
func CheckDomain(c *gin.Context) {
	log := logger.WithRequest(c, "Check")

	domain := utils.SanitizeDomain(c.Param("domain"))
	if !utils.IsValidDomain(domain) {
		utils.ErrorResponse(c, 400, "INVALID_DOMAIN", "无效的域名格式")
		return
	}

	resolverValue, exists := c.Get("resolver")
	resolver, ok := resolverValue.(*services.Resolver)
	if !exists || !ok {
		utils.ErrorResponse(c, 500, "SERVICE_UNAVAILABLE", "解析服务未初始化")
		return
	}

	start := time.Now()
	resolution := resolver.Resolve(c.Request.Context(), domain)
	log.Infof("域名检查完成: %s status=%s days=%d elapsed=%v",
		domain, resolution.Status, resolution.DaysUntilExpiry, time.Since(start))

	utils.SuccessResponse(c, resolution, &utils.MetaInfo{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Processing: time.Since(start).Milliseconds(),
	})
}

// CheckDomains 批量到期检查，结果顺序与请求顺序一致
// POST /api/v1/check
func CheckDomains(c *gin.Context) {
	log := logger.WithRequest(c, "Check")

	var req BatchCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, 400, "INVALID_REQUEST", "请求体格式错误")
		return
	}

	if len(req.Domains) == 0 {
		utils.ErrorResponse(c, 400, "EMPTY_DOMAINS", "域名列表为空")
		return
	}
	if len(req.Domains) > maxBatchDomains {
		utils.ErrorResponse(c, 400, "TOO_MANY_DOMAINS", "单次最多检查100个域名")
		return
	}

	domains := make([]string, 0, len(req.Domains))
	for _, raw := range req.Domains {
		domain := utils.SanitizeDomain(raw)
		if !utils.IsValidDomain(domain) {
			utils.ErrorResponse(c, 400, "INVALID_DOMAIN", "无效的域名: "+raw)
			return
		}
		domains = append(domains, domain)
	}

	runnerValue, exists := c.Get("batchRunner")
	runner, ok := runnerValue.(*services.BatchRunner)
	if !exists || !ok {
		utils.ErrorResponse(c, 500, "SERVICE_UNAVAILABLE", "批量解析服务未初始化")
		return
	}

	start := time.Now()
	results := runner.Run(c.Request.Context(), domains)
	log.Infof("批量检查完成: %d个域名 elapsed=%v", len(domains), time.Since(start))

	utils.SuccessResponse(c, gin.H{
		"total":   len(results),
		"results": results,
	}, &utils.MetaInfo{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Processing: time.Since(start).Milliseconds(),
	})
}
