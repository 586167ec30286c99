/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2025-05-13 15:20:00
 * @Description: 批量解析运行器 - 工作池并发，结果保持输入顺序
 */
package services

import (
	"context"

	"expirywatch/pkg/logger"
	"expirywatch/types"
)

// BatchRunner 将域名列表分发到工作池并发解析。
// 单个域名的解析内部仍是严格串行，并发只发生在域名之间。
type BatchRunner struct {
	resolver *Resolver
	workers  int
}

// NewBatchRunner 创建批量运行器
func NewBatchRunner(resolver *Resolver, workers int) *BatchRunner {
	if workers < 1 {
		workers = 1
	}
	return &BatchRunner{
		resolver: resolver,
		workers:  workers,
	}
}

// Run 解析全部域名，结果切片与输入顺序一一对应。
// 任何域名的失败都不会中断批次，失败以failed状态出现在结果中。
func (b *BatchRunner) Run(ctx context.Context, domains []string) []types.DomainResolution {
	log := logger.FromContext(ctx, "Batch")
	log.Infof("开始批量解析: %d 个域名, %d 个工作者", len(domains), b.workers)

	results := make([]types.DomainResolution, len(domains))

	pool := NewWorkerPool(b.workers)
	pool.Start()

	for i, domain := range domains {
		i, domain := i, domain
		submitted := pool.SubmitWait(ctx, func() {
			results[i] = b.resolver.Resolve(ctx, domain)
		})
		if !submitted {
			// 上下文取消，剩余域名全部记为failed
			results[i] = types.DomainResolution{Domain: domain, Status: types.StatusFailed}
		}
	}

	pool.Stop()

	summary := map[types.Status]int{}
	for _, res := range results {
		summary[res.Status]++
	}
	log.Infof("批量解析完成: safe=%d warning=%d expired=%d unknown=%d failed=%d",
		summary[types.StatusSafe], summary[types.StatusWarning], summary[types.StatusExpired],
		summary[types.StatusUnknown], summary[types.StatusFailed])

	return results
}
