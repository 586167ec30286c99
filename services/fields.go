/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2025-05-12 15:10:00
 * @Description: WHOIS字段提取与日期解析
 */
package services

import (
	"strings"
	"time"

	"expirywatch/types"

	"github.com/araddon/dateparse"
	whoisparser "github.com/likexian/whois-parser"
)

// expiryDateFormats 到期日期的解析格式，按优先级排列，首个命中者胜出
var expiryDateFormats = []string{
	"2006-01-02T15:04:05Z",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
	"2006/01/02",
}

// ExtractFields 从原始WHOIS文本中提取跟踪字段并解析到期时间。
// 每个字段取首个匹配 `<Label>: <value>` 的行（忽略大小写），
// 标签缺失时字段为空字符串。纯函数，重复调用结果一致。
func ExtractFields(rawPayload string) types.ParsedRecord {
	record := types.ParsedRecord{
		Registrar:            findFieldValue(rawPayload, "Registrar:"),
		RegistrarWhoisServer: findFieldValue(rawPayload, "Registrar WHOIS Server:"),
		UpdatedDate:          findFieldValue(rawPayload, "Updated Date:"),
		CreationDate:         findFieldValue(rawPayload, "Creation Date:"),
		RegistryExpiryDate:   findFieldValue(rawPayload, "Registry Expiry Date:"),
	}

	// 标签式提取完全落空时，退回whois-parser的宽容解析，
	// 覆盖非标准格式的注册局响应（如.uk、.jp）
	if record.Empty() {
		record = parserFallback(rawPayload)
	}

	// 到期日期放宽到常见标签变体，取首个可解析者
	if raw := findExpiryRaw(rawPayload, record.RegistryExpiryDate); raw != "" {
		if t, ok := ParseWhoisDate(raw); ok {
			record.ExpiryTime = &t
			if record.RegistryExpiryDate == "" {
				record.RegistryExpiryDate = raw
			}
		}
	}

	return record
}

// findFieldValue 扫描文本行，返回首个匹配标签的尾部值
func findFieldValue(payload, label string) string {
	lowerLabel := strings.ToLower(label)
	for _, line := range strings.Split(payload, "\n") {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) < len(label) {
			continue
		}
		if strings.EqualFold(trimmed[:len(label)], lowerLabel) {
			return strings.TrimSpace(trimmed[len(label):])
		}
	}
	return ""
}

// findExpiryRaw 确定用于日期解析的原始到期字符串
func findExpiryRaw(payload, registryExpiry string) string {
	if registryExpiry != "" {
		return registryExpiry
	}
	for _, label := range expiryLabels {
		if v := findFieldValue(payload, label); v != "" {
			return v
		}
	}
	return ""
}

// ParseWhoisDate 宽容的多格式日期解析，全部按UTC处理。
// 显式格式列表优先；都失败时交给dateparse兜底。
func ParseWhoisDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	// 去掉尾部括注（时区说明等）
	if idx := strings.Index(raw, "("); idx != -1 {
		raw = strings.TrimSpace(raw[:idx])
	}

	for _, format := range expiryDateFormats {
		if t, err := time.Parse(format, raw); err == nil {
			return t.UTC(), true
		}
	}

	if t, err := dateparse.ParseIn(raw, time.UTC); err == nil {
		return t.UTC(), true
	}

	return time.Time{}, false
}

// parserFallback 使用whois-parser做一次宽容解析
func parserFallback(rawPayload string) types.ParsedRecord {
	record := types.ParsedRecord{}

	parsed, err := whoisparser.Parse(rawPayload)
	if err != nil {
		return record
	}

	if parsed.Registrar != nil {
		record.Registrar = parsed.Registrar.Name
	}
	if parsed.Domain != nil {
		record.RegistrarWhoisServer = parsed.Domain.WhoisServer
		record.CreationDate = parsed.Domain.CreatedDate
		record.UpdatedDate = parsed.Domain.UpdatedDate
		record.RegistryExpiryDate = parsed.Domain.ExpirationDate
	}

	return record
}
