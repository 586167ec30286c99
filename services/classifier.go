/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2025-05-12 14:30:00
 * @Description: WHOIS响应分类器
 */
package services

import (
	"regexp"
	"strings"

	"expirywatch/types"
)

// rateLimitPhrases 服务器限流响应的特征短语（小写匹配）
var rateLimitPhrases = []string{
	"number of allowed queries exceeded",
	"limit exceeded",
	"too many requests",
	"quota exceeded",
}

// targetFieldLabels 跟踪的注册信息字段标签
var targetFieldLabels = []string{
	"Registrar:",
	"Registrar WHOIS Server:",
	"Updated Date:",
	"Creation Date:",
	"Registry Expiry Date:",
}

// expiryLabels 到期日期的常见标签写法，按优先级排列
var expiryLabels = []string{
	"Registry Expiry Date:",
	"Expiry Date:",
	"Expiration Date:",
	"expires:",
	"expire:",
	"Expiration Time:",
	"Registry Expiry:",
}

// noRecordPattern 域名不存在或无注册资料的特征
var noRecordPattern = regexp.MustCompile(`(?i)no match|not found|no data found|domain.*not.*exist`)

// Classify 判定非传输失败的原始负载类型。
// 优先级：限流 > 成功（含注册信息字段） > 无记录；
// 无法识别的负载按非权威的"无记录"处理，绝不当作成功。
func Classify(rawPayload string) types.Outcome {
	if rawPayload == "" {
		return types.OutcomeNoRecord
	}

	lower := strings.ToLower(rawPayload)

	for _, phrase := range rateLimitPhrases {
		if strings.Contains(lower, phrase) {
			return types.OutcomeRateLimited
		}
	}

	for _, label := range expiryLabels {
		if strings.Contains(lower, strings.ToLower(label)) {
			return types.OutcomeSuccess
		}
	}
	for _, label := range targetFieldLabels {
		if strings.Contains(lower, strings.ToLower(label)) {
			return types.OutcomeSuccess
		}
	}

	return types.OutcomeNoRecord
}

// IsNoRecord 判断负载是否明确声明域名不存在
func IsNoRecord(rawPayload string) bool {
	return noRecordPattern.MatchString(rawPayload)
}
