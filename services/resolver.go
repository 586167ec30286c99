/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2025-05-13 14:20:00
 * @Description: 域名解析引擎 - 注册局优先的候选扫描状态机
 */
package services

import (
	"context"
	"math/rand"
	"time"

	"expirywatch/pkg/logger"
	"expirywatch/pkg/metrics"
	"expirywatch/types"
)

const (
	// backoffCeiling 限流退避的上限，防止单个限流TLD拖垮整批任务
	backoffCeiling = 10 * time.Second
	// jitterCeiling 候选间隔上叠加的最大随机抖动
	jitterCeiling = 600 * time.Millisecond
)

// QueryExecutor 单次查询执行器接口
type QueryExecutor interface {
	Execute(ctx context.Context, domain string, candidate types.ServerCandidate, timeout time.Duration) types.QueryAttempt
}

// StructuredFetcher RDAP结构化数据源接口
type StructuredFetcher interface {
	FetchStructured(ctx context.Context, domain string) (types.ParsedRecord, bool)
}

// payloadWin 一次扫描中的胜出负载
type payloadWin struct {
	record types.ParsedRecord
	server string
}

// Resolver 解析引擎。每个域名的解析严格串行：限流规避依赖
// 对单一请求流的节奏控制，抖动和退避在并发请求下没有意义。
// 跨域名无共享可变状态，可安全地被工作池并发调用。
type Resolver struct {
	policy   *ServerPolicy
	executor QueryExecutor
	rdap     StructuredFetcher
	cfg      types.ResolverConfig

	// 测试注入点
	sleep func(time.Duration)
	now   func() time.Time
}

// NewResolver 创建解析引擎
func NewResolver(policy *ServerPolicy, executor QueryExecutor, rdap StructuredFetcher, cfg types.ResolverConfig) *Resolver {
	return &Resolver{
		policy:   policy,
		executor: executor,
		rdap:     rdap,
		cfg:      cfg,
		sleep:    time.Sleep,
		now:      time.Now,
	}
}

// Resolve 解析单个域名，保证无论成败都恰好产出一条DomainResolution，
// 绝不向调用方抛错或中断批次。
func (r *Resolver) Resolve(ctx context.Context, domain string) types.DomainResolution {
	log := logger.FromContext(ctx, "Resolver")

	// 跨轮次保留的部分成功：字段命中但到期日期无法解析时，
	// 降级为unknown而不是failed
	var partial *payloadWin

	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		log.Debugf("正在查询: %s (尝试 %d/%d)", domain, attempt, r.cfg.MaxAttempts)

		win, scanPartial := r.scanCandidates(ctx, domain, attempt)
		if scanPartial != nil && partial == nil {
			partial = scanPartial
		}
		if win != nil {
			return r.finish(domain, win.record, win.server)
		}

		if attempt < r.cfg.MaxAttempts {
			log.Debugf("重试: %s (第 %d 次失败，等待 %v)", domain, attempt, r.cfg.RetryDelay)
			r.sleep(r.cfg.RetryDelay)
		}
	}

	if partial != nil {
		log.Debugf("到期日期解析失败，降级为unknown: %s", domain)
		return r.finish(domain, partial.record, partial.server)
	}

	log.Debugf("失败: %s (已达最大重试次数)", domain)
	metrics.ResolutionsTotal.WithLabelValues(string(types.StatusFailed)).Inc()
	return types.DomainResolution{
		Domain: domain,
		Status: types.StatusFailed,
	}
}

// scanCandidates 按策略顺序扫描一轮候选。
// 两个结果槽：注册局命中立即抢占；非注册局命中先记为回退候选，
// 继续扫描给后续注册局命中抢占的机会。
func (r *Resolver) scanCandidates(ctx context.Context, domain string, attempt int) (win, partial *payloadWin) {
	log := logger.FromContext(ctx, "Resolver")
	plan := r.policy.Plan(domain, r.cfg.Timeout)

	var registrySuccess *payloadWin
	var bestFallback *payloadWin

	for _, candidate := range plan.Candidates {
		// 已知限流的权威服务器在主扫描中跳过
		if candidate.SkipMainPass {
			log.Debugf("跳过 %s 以避免限流", candidate.Address)
			continue
		}

		r.pause(plan)

		queryAttempt := r.executor.Execute(ctx, domain, candidate, r.cfg.Timeout)

		switch queryAttempt.Outcome {
		case types.OutcomeTimeout, types.OutcomeConnectionError:
			metrics.QueryAttemptsTotal.WithLabelValues(string(queryAttempt.Outcome)).Inc()
			log.Debugf("候选 %s 传输失败: %s", queryAttempt.Target, queryAttempt.Outcome)
			continue
		}

		outcome := Classify(queryAttempt.RawPayload)
		metrics.QueryAttemptsTotal.WithLabelValues(string(outcome)).Inc()

		if outcome == types.OutcomeRateLimited {
			metrics.RateLimitHitsTotal.Inc()
			log.Debugf("检测到限流: %s，退避后尝试RDAP", queryAttempt.Target)
			r.sleep(r.backoff(attempt))

			// 结构化数据源作为次级事实来源：命中记为回退候选，
			// 不抢占后续可能的注册局WHOIS命中
			if r.rdap != nil {
				metrics.RDAPFallbacksTotal.Inc()
				if record, ok := r.rdap.FetchStructured(ctx, domain); ok && record.Resolved() && bestFallback == nil {
					bestFallback = &payloadWin{record: record, server: "rdap:" + domain}
				}
			}
			continue
		}

		record := ExtractFields(queryAttempt.RawPayload)

		if record.Resolved() {
			if candidate.Kind == types.KindRegistry ||
				(candidate.Address != "" && candidate.Address == plan.RegistryHost) {
				// 注册局命中，抢占一切先前回退结果并停止本轮扫描
				registrySuccess = &payloadWin{record: record, server: queryAttempt.Target}
				break
			}
			if bestFallback == nil {
				bestFallback = &payloadWin{record: record, server: queryAttempt.Target}
			}
			continue
		}

		if !record.Empty() && partial == nil {
			partial = &payloadWin{record: record, server: queryAttempt.Target}
		}

		// 负载声明无记录但披露了别的注册商WHOIS服务器：立即转向查询一次
		noRecord := outcome == types.OutcomeNoRecord || IsNoRecord(queryAttempt.RawPayload)
		if registrarServer := record.RegistrarWhoisServer; noRecord && registrarServer != "" && registrarServer != candidate.Address {
			if pivotWin := r.pivotQuery(ctx, domain, registrarServer, candidate.TimeoutOverride); pivotWin != nil {
				return pivotWin, partial
			}
		}
	}

	if registrySuccess != nil {
		return registrySuccess, partial
	}
	if bestFallback != nil {
		return bestFallback, partial
	}
	return nil, partial
}

// pivotQuery 对负载中披露的注册商WHOIS服务器发起一次转向查询，
// 命中可解析到期日期时立即返回，不再等待后续候选
func (r *Resolver) pivotQuery(ctx context.Context, domain, server string, timeoutOverride time.Duration) *payloadWin {
	log := logger.FromContext(ctx, "Resolver")
	log.Debugf("尝试注册商WHOIS: %s", server)
	metrics.RegistrarPivotsTotal.Inc()

	pivot := types.ServerCandidate{
		Kind:            types.KindRegistrarGuess,
		Address:         server,
		TimeoutOverride: timeoutOverride,
	}
	queryAttempt := r.executor.Execute(ctx, domain, pivot, r.cfg.Timeout)
	if queryAttempt.Outcome != types.OutcomeSuccess {
		return nil
	}

	record := ExtractFields(queryAttempt.RawPayload)
	if !record.Resolved() {
		return nil
	}

	log.Debugf("注册商WHOIS命中: %s", server)
	return &payloadWin{record: record, server: queryAttempt.Target}
}

// finish 根据胜出记录生成最终解析结果
func (r *Resolver) finish(domain string, record types.ParsedRecord, server string) types.DomainResolution {
	status, days := ClassifyExpiry(record.ExpiryTime, r.now().UTC(), r.cfg.WarningDays)
	metrics.ResolutionsTotal.WithLabelValues(string(status)).Inc()

	return types.DomainResolution{
		Domain:          domain,
		Status:          status,
		DaysUntilExpiry: days,
		Record:          record,
		SourceServer:    server,
	}
}

// pause 候选间隔，限流敏感TLD叠加随机抖动
func (r *Resolver) pause(plan types.QueryPlan) {
	if plan.InterDelay <= 0 {
		return
	}
	delay := plan.InterDelay
	if plan.Jitter {
		delay += time.Duration(rand.Int63n(int64(jitterCeiling)))
	}
	r.sleep(delay)
}

// backoff 指数退避：min(上限, 2s*轮次) 加随机抖动
func (r *Resolver) backoff(attempt int) time.Duration {
	d := time.Duration(attempt) * 2 * time.Second
	if d > backoffCeiling {
		d = backoffCeiling
	}
	return d + 200*time.Millisecond + time.Duration(rand.Int63n(int64(jitterCeiling)))
}
