/*
 * @Author: AsisYu
 * @Date: 2025-05-12
 * @Description: 域名工具函数
 */
package utils

import (
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

var domainRegex = regexp.MustCompile(`^([a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}$`)

// IsValidDomain 验证域名是否有效
func IsValidDomain(domain string) bool {
	return domainRegex.MatchString(SanitizeDomain(domain))
}

// SanitizeDomain 清理和标准化域名
func SanitizeDomain(domain string) string {
	// 去除协议前缀
	domain = strings.TrimPrefix(strings.TrimPrefix(domain, "http://"), "https://")

	// 移除端口和路径
	if idx := strings.Index(domain, ":"); idx != -1 {
		domain = domain[:idx]
	}
	if idx := strings.Index(domain, "/"); idx != -1 {
		domain = domain[:idx]
	}

	// 转换为小写
	return strings.ToLower(strings.TrimSpace(domain))
}

// ExtractTLD 提取域名的有效顶级后缀。
// 使用public suffix列表，co.uk这类二级TLD能正确识别；
// 列表未收录时退回最后一个点号分段。
func ExtractTLD(domain string) string {
	domain = SanitizeDomain(domain)

	if suffix, _ := publicsuffix.PublicSuffix(domain); suffix != "" && suffix != domain {
		return suffix
	}

	parts := strings.Split(domain, ".")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-1]
}
