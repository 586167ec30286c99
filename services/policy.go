/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2025-05-12 16:40:00
 * @Description: WHOIS服务器选择策略
 */
package services

import (
	"time"

	"expirywatch/types"
	"expirywatch/utils"
)

// defaultGenericServers 通用公共WHOIS服务器池。
// 首位空字符串表示"自动选择"；Verisign注册局前置，减少缓存镜像影响。
var defaultGenericServers = []string{
	"", // 自动选择
	"whois.verisign-grs.com",
	"whois.nic.site",
	"whois.nic.club",
	"whois.nic.fun",
	"whois.nic.net",
	"whois.nic.online",
	"whois.nic.win",
	"whois.registrar-servers.com",
}

// defaultRegistryHosts 常见TLD的注册局权威服务器
var defaultRegistryHosts = map[string]string{
	"com":    "whois.verisign-grs.com",
	"net":    "whois.verisign-grs.com",
	"org":    "whois.pir.org",
	"io":     "whois.nic.io",
	"co":     "whois.nic.co",
	"ai":     "whois.nic.ai",
	"xyz":    "whois.nic.xyz",
	"site":   "whois.nic.site",
	"club":   "whois.nic.club",
	"fun":    "whois.nic.fun",
	"online": "whois.nic.online",
	"win":    "whois.nic.win",
	"me":     "whois.nic.me",
	"us":     "whois.nic.us",
	"uk":     "whois.nic.uk",
	"co.uk":  "whois.nic.uk",
	"cn":     "whois.cnnic.cn",
	"jp":     "whois.jprs.jp",
	"de":     "whois.denic.de",
}

// defaultRegistrarGuesses 限流TLD的常见注册商WHOIS猜测清单，
// 在主池之前尝试，避免直接触发权威服务器的限流
var defaultRegistrarGuesses = map[string][]string{
	"win": {
		"grs-whois.aliyun.com",
		"whois.godaddy.com",
		"whois.namecheap.com",
		"whois.tucows.com",
		"whois.publicdomainregistry.com",
	},
}

// defaultThrottledTLDs 权威服务器已知会激进限流的TLD
var defaultThrottledTLDs = map[string]bool{
	"win": true,
}

const throttledTimeout = 10 * time.Second

// ServerPolicy 根据域名产出有序候选列表。
// 纯函数式：给定(domain, 配置表)结果确定，构建过程不做任何网络访问。
type ServerPolicy struct {
	genericServers  []string
	registryHosts   map[string]string
	registrarGuess  map[string][]string
	throttledTLDs   map[string]bool
	throttleTimeout time.Duration
}

// NewServerPolicy 使用内置配置表创建策略
func NewServerPolicy() *ServerPolicy {
	return &ServerPolicy{
		genericServers:  defaultGenericServers,
		registryHosts:   defaultRegistryHosts,
		registrarGuess:  defaultRegistrarGuesses,
		throttledTLDs:   defaultThrottledTLDs,
		throttleTimeout: throttledTimeout,
	}
}

// RegistryHost 返回域名TLD对应的注册局权威服务器，未知返回空串
func (p *ServerPolicy) RegistryHost(domain string) string {
	return p.registryHosts[utils.ExtractTLD(domain)]
}

// Plan 产出域名的查询计划。
// 限流TLD：注册商猜测清单前置、主扫描跳过权威服务器、
// 全程加长超时并启用抖动；其余TLD使用通用池。
// 已知注册局服务器必定出现在候选列表中：通用池未覆盖时，
// 紧跟自动选择之后插入，保证注册局抢占对所有已映射TLD生效。
func (p *ServerPolicy) Plan(domain string, defaultTimeout time.Duration) types.QueryPlan {
	tld := utils.ExtractTLD(domain)
	registryHost := p.registryHosts[tld]
	throttled := p.throttledTLDs[tld]

	timeout := defaultTimeout
	if throttled {
		timeout = p.throttleTimeout
	}

	plan := types.QueryPlan{
		RegistryHost: registryHost,
	}
	if throttled {
		plan.InterDelay = 300 * time.Millisecond
		plan.Jitter = true
	}

	poolHasRegistry := false
	for _, server := range p.genericServers {
		if server != "" && server == registryHost {
			poolHasRegistry = true
			break
		}
	}

	// 注册商猜测清单前置
	for _, guess := range p.registrarGuess[tld] {
		plan.Candidates = append(plan.Candidates, types.ServerCandidate{
			Kind:            types.KindRegistrarGuess,
			Address:         guess,
			TimeoutOverride: timeout,
		})
	}

	for _, server := range p.genericServers {
		candidate := types.ServerCandidate{
			Kind:            types.KindGeneric,
			Address:         server,
			TimeoutOverride: timeout,
		}
		if server != "" && server == registryHost {
			candidate.Kind = types.KindRegistry
			// 限流TLD的权威服务器保留在列表中但主扫描跳过
			if throttled {
				candidate.SkipMainPass = true
			}
		}
		plan.Candidates = append(plan.Candidates, candidate)

		if server == "" && registryHost != "" && !poolHasRegistry {
			registry := types.ServerCandidate{
				Kind:            types.KindRegistry,
				Address:         registryHost,
				TimeoutOverride: timeout,
			}
			if throttled {
				registry.SkipMainPass = true
			}
			plan.Candidates = append(plan.Candidates, registry)
		}
	}

	return plan
}
