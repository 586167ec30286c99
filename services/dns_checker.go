/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2025-05-13 15:40:00
 * @Description: DNS预检服务 - 解析前快速探测域名是否有委派记录
 */
package services

import (
	"context"
	"strings"
	"time"

	"expirywatch/pkg/logger"

	"github.com/miekg/dns"
)

// DNSChecker 用轻量DNS查询对域名做预检。
// NS记录存在说明域名已委派，适合继续WHOIS解析；
// NXDOMAIN提示域名很可能未注册。预检只是提示，不拦截解析流程。
type DNSChecker struct {
	servers []string
	timeout time.Duration
	client  *dns.Client
}

// PreflightResult DNS预检结果
type PreflightResult struct {
	Domain      string   `json:"domain"`
	Delegated   bool     `json:"delegated"`
	NXDomain    bool     `json:"nxdomain"`
	Nameservers []string `json:"nameservers,omitempty"`
	Server      string   `json:"server,omitempty"`
	Elapsed     int64    `json:"elapsedMs"`
}

// NewDNSChecker 创建DNS预检器
func NewDNSChecker() *DNSChecker {
	return &DNSChecker{
		servers: []string{
			"8.8.8.8:53",         // Google DNS
			"1.1.1.1:53",         // Cloudflare DNS
			"114.114.114.114:53", // 国内DNS
		},
		timeout: 5 * time.Second,
		client:  &dns.Client{Timeout: 5 * time.Second},
	}
}

// Preflight 查询域名的NS记录，按服务器顺序尝试，首个有效应答生效
func (dc *DNSChecker) Preflight(ctx context.Context, domain string) PreflightResult {
	log := logger.FromContext(ctx, "DNS")

	result := PreflightResult{Domain: domain}
	start := time.Now()

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), dns.TypeNS)
	msg.RecursionDesired = true

	for _, server := range dc.servers {
		reply, _, err := dc.client.ExchangeContext(ctx, msg, server)
		if err != nil {
			log.Debugf("DNS查询失败: server=%s err=%v", server, err)
			continue
		}

		result.Server = server
		result.Elapsed = time.Since(start).Milliseconds()

		if reply.Rcode == dns.RcodeNameError {
			result.NXDomain = true
			log.Debugf("DNS预检: %s NXDOMAIN", domain)
			return result
		}

		for _, rr := range reply.Answer {
			if ns, ok := rr.(*dns.NS); ok {
				result.Nameservers = append(result.Nameservers, strings.TrimSuffix(ns.Ns, "."))
			}
		}
		result.Delegated = len(result.Nameservers) > 0
		log.Debugf("DNS预检: %s delegated=%v ns=%d", domain, result.Delegated, len(result.Nameservers))
		return result
	}

	// 所有服务器都不可达时按未知处理
	result.Elapsed = time.Since(start).Milliseconds()
	return result
}

// Healthy 探测任一上游DNS服务器是否可用，供健康检查使用
func (dc *DNSChecker) Healthy(ctx context.Context) bool {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn("example.com"), dns.TypeA)
	msg.RecursionDesired = true

	for _, server := range dc.servers {
		if reply, _, err := dc.client.ExchangeContext(ctx, msg, server); err == nil && reply != nil {
			return true
		}
	}
	return false
}
