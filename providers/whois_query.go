/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2025-05-13 10:10:00
 * @Description: WHOIS单次查询执行器 - 基于TCP端口43
 */
package providers

import (
	"context"
	"errors"
	"net"
	"os"
	"time"

	"expirywatch/pkg/metrics"
	"expirywatch/types"

	"github.com/likexian/whois"
	"golang.org/x/time/rate"
)

// WhoisExecutor 对单个候选目标执行一次受超时约束的WHOIS查询。
// 进程级限速器为所有出站查询提供节流下限；每次查询独立建连，
// 不在尝试之间复用连接。
type WhoisExecutor struct {
	limiter *rate.Limiter
}

// NewWhoisExecutor 创建执行器。qps<=0时不启用节流。
func NewWhoisExecutor(qps float64, burst int) *WhoisExecutor {
	e := &WhoisExecutor{}
	if qps > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(qps), burst)
	}
	return e
}

// Execute 发起一次查询并返回打标结果。
// 传输失败映射：超时 -> OutcomeTimeout；连接/拒绝 -> OutcomeConnectionError；
// 拿到文本则标记OutcomeSuccess，具体语义交由响应分类器判定。
func (e *WhoisExecutor) Execute(ctx context.Context, domain string, candidate types.ServerCandidate, timeout time.Duration) types.QueryAttempt {
	if candidate.TimeoutOverride > 0 {
		timeout = candidate.TimeoutOverride
	}

	target := candidate.Address
	if target == "" {
		target = "automatic"
	}

	attempt := types.QueryAttempt{Target: target}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			attempt.Outcome = types.OutcomeConnectionError
			return attempt
		}
	}

	type queryResult struct {
		raw string
		err error
	}
	resultChan := make(chan queryResult, 1)

	start := time.Now()
	go func() {
		// 每次查询一个新client：不共享连接，超时独立生效
		client := whois.NewClient().SetTimeout(timeout)
		var raw string
		var err error
		if candidate.Address == "" {
			raw, err = client.Whois(domain)
		} else {
			raw, err = client.Whois(domain, candidate.Address)
		}
		resultChan <- queryResult{raw: raw, err: err}
	}()

	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case <-queryCtx.Done():
		attempt.Elapsed = time.Since(start)
		attempt.Outcome = types.OutcomeTimeout
	case res := <-resultChan:
		attempt.Elapsed = time.Since(start)
		switch {
		case res.err != nil && isTimeout(res.err):
			attempt.Outcome = types.OutcomeTimeout
		case res.err != nil:
			attempt.Outcome = types.OutcomeConnectionError
		default:
			attempt.Outcome = types.OutcomeSuccess
			attempt.RawPayload = res.raw
		}
	}

	metrics.QueryDuration.Observe(attempt.Elapsed.Seconds())
	return attempt
}

// isTimeout 区分超时与其他传输错误
func isTimeout(err error) bool {
	if os.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
