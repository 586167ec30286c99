/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2025-05-13 18:35:00
 * @Description: RDAP查询处理程序
 */
package handlers

import (
	"time"

	"expirywatch/pkg/logger"
	"expirywatch/providers"
	"expirywatch/utils"

	"github.com/gin-gonic/gin"
)

// rdapClient 单独的RDAP客户端，直连不经过WHOIS解析引擎
var rdapClient = providers.NewRDAPClient(10 * time.Second)

// RDAPLookup 直接查询RDAP端点，仅支持有端点映射的TLD
// GET /api/v1/rdap/:domain
func RDAPLookup(c *gin.Context) {
	log := logger.WithRequest(c, "RDAP")

	domain := utils.SanitizeDomain(c.Param("domain"))
	if !utils.IsValidDomain(domain) {
		utils.ErrorResponse(c, 400, "INVALID_DOMAIN", "无效的域名格式")
		return
	}

	start := time.Now()
	record, ok := rdapClient.FetchStructured(c.Request.Context(), domain)
	if !ok {
		log.Debugf("RDAP查询无结果: %s", domain)
		utils.ErrorResponse(c, 404, "RDAP_UNAVAILABLE", "该域名无可用的RDAP数据")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"domain": domain,
		"record": record,
	}, &utils.MetaInfo{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Processing: time.Since(start).Milliseconds(),
	})
}
