/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2025-05-13 11:20:00
 * @Description: Prometheus指标
 */
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueryAttemptsTotal 按结果分类的WHOIS查询尝试数
	QueryAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "expirywatch",
		Name:      "query_attempts_total",
		Help:      "WHOIS query attempts by outcome",
	}, []string{"outcome"})

	// RateLimitHitsTotal 检测到的服务器限流次数
	RateLimitHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "expirywatch",
		Name:      "rate_limit_hits_total",
		Help:      "Rate limit refusals detected in WHOIS responses",
	})

	// RegistrarPivotsTotal NoRecord后转向注册商WHOIS的次数
	RegistrarPivotsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "expirywatch",
		Name:      "registrar_pivots_total",
		Help:      "Pivot queries issued to registrar WHOIS servers",
	})

	// RDAPFallbacksTotal RDAP回退查询次数
	RDAPFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "expirywatch",
		Name:      "rdap_fallbacks_total",
		Help:      "RDAP fallback lookups attempted",
	})

	// ResolutionsTotal 按最终状态分类的域名解析数
	ResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "expirywatch",
		Name:      "resolutions_total",
		Help:      "Completed domain resolutions by status",
	}, []string{"status"})

	// QueryDuration 单次WHOIS查询耗时
	QueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "expirywatch",
		Name:      "query_duration_seconds",
		Help:      "Duration of individual WHOIS queries",
		Buckets:   prometheus.DefBuckets,
	})
)
