package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"expirywatch/types"
)

// MockExecutor 模拟查询执行器，按目标地址返回预设响应
type MockExecutor struct {
	responses map[string]types.QueryAttempt
	fallback  types.QueryAttempt
	calls     []string
	mu        sync.Mutex
}

func NewMockExecutor() *MockExecutor {
	return &MockExecutor{
		responses: make(map[string]types.QueryAttempt),
		fallback:  types.QueryAttempt{Outcome: types.OutcomeConnectionError},
	}
}

func (m *MockExecutor) Set(address string, outcome types.Outcome, payload string) {
	m.responses[address] = types.QueryAttempt{Outcome: outcome, RawPayload: payload}
}

func (m *MockExecutor) Execute(ctx context.Context, domain string, candidate types.ServerCandidate, timeout time.Duration) types.QueryAttempt {
	m.mu.Lock()
	m.calls = append(m.calls, candidate.Address)
	m.mu.Unlock()

	attempt, ok := m.responses[candidate.Address]
	if !ok {
		attempt = m.fallback
	}
	if attempt.Target == "" {
		attempt.Target = candidate.Address
		if attempt.Target == "" {
			attempt.Target = "automatic"
		}
	}
	return attempt
}

func (m *MockExecutor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// MockFetcher 模拟RDAP数据源
type MockFetcher struct {
	record types.ParsedRecord
	ok     bool
	calls  int
	mu     sync.Mutex
}

func (m *MockFetcher) FetchStructured(ctx context.Context, domain string) (types.ParsedRecord, bool) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.record, m.ok
}

// newTestResolver 创建注入了固定时钟且不真实休眠的解析引擎
func newTestResolver(executor QueryExecutor, rdap StructuredFetcher, now time.Time) *Resolver {
	cfg := types.ResolverConfig{
		WarningDays: 50,
		MaxAttempts: 3,
		Timeout:     time.Second,
		RetryDelay:  time.Millisecond,
		Workers:     1,
	}
	r := NewResolver(NewServerPolicy(), executor, rdap, cfg)
	r.sleep = func(time.Duration) {}
	r.now = func() time.Time { return now }
	return r
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("解析测试时间失败: %v", err)
	}
	return parsed
}

// TestResolveWarningStatus 端到端：可解析的到期日期落入预警窗口
func TestResolveWarningStatus(t *testing.T) {
	executor := NewMockExecutor()
	payload := "Registry Expiry Date: 2030-01-15T00:00:00Z\nRegistrar: Example Corp"
	executor.Set("", types.OutcomeSuccess, payload)

	now := mustTime(t, "2029-12-20T00:00:00Z")
	resolver := newTestResolver(executor, nil, now)

	res := resolver.Resolve(context.Background(), "example.com")

	if res.Status != types.StatusWarning {
		t.Fatalf("期望warning状态，实际: %s", res.Status)
	}
	if res.DaysUntilExpiry != 26 {
		t.Errorf("期望剩余26天，实际: %d", res.DaysUntilExpiry)
	}
	if res.Record.Registrar != "Example Corp" {
		t.Errorf("期望注册商 Example Corp，实际: %q", res.Record.Registrar)
	}

	t.Logf("✅ 预警窗口解析正确: status=%s days=%d", res.Status, res.DaysUntilExpiry)
}

// TestRegistryPreemption 注册局命中必须抢占先前的非注册局结果
func TestRegistryPreemption(t *testing.T) {
	executor := NewMockExecutor()
	// 自动选择（先扫描）返回镜像数据
	executor.Set("", types.OutcomeSuccess,
		"Registry Expiry Date: 2031-06-01T00:00:00Z\nRegistrar: Mirror Registrar")
	// 注册局权威服务器（后扫描）返回权威数据
	executor.Set("whois.verisign-grs.com", types.OutcomeSuccess,
		"Registry Expiry Date: 2030-06-01T00:00:00Z\nRegistrar: Authoritative Registrar")

	now := mustTime(t, "2029-01-01T00:00:00Z")
	resolver := newTestResolver(executor, nil, now)

	res := resolver.Resolve(context.Background(), "example.com")

	if res.SourceServer != "whois.verisign-grs.com" {
		t.Fatalf("期望注册局结果胜出，实际来源: %s", res.SourceServer)
	}
	if res.Record.Registrar != "Authoritative Registrar" {
		t.Errorf("期望权威注册商数据，实际: %q", res.Record.Registrar)
	}
	if res.Status != types.StatusSafe {
		t.Errorf("期望safe状态，实际: %s", res.Status)
	}

	t.Logf("✅ 注册局抢占生效: source=%s", res.SourceServer)
}

// TestRateLimitRDAPFallback 限流响应触发RDAP回退
func TestRateLimitRDAPFallback(t *testing.T) {
	executor := NewMockExecutor()
	executor.Set("", types.OutcomeSuccess, "Number of allowed queries exceeded.")
	// 其余候选默认连接失败

	expiry := mustTime(t, "2030-03-01T00:00:00Z")
	fetcher := &MockFetcher{
		record: types.ParsedRecord{
			Registrar:          "RDAP Registrar",
			RegistryExpiryDate: "2030-03-01T00:00:00Z",
			ExpiryTime:         &expiry,
		},
		ok: true,
	}

	now := mustTime(t, "2029-01-01T00:00:00Z")
	resolver := newTestResolver(executor, fetcher, now)

	res := resolver.Resolve(context.Background(), "example.com")

	if res.Status != types.StatusSafe {
		t.Fatalf("期望RDAP回退成功，实际状态: %s", res.Status)
	}
	if res.Record.Registrar != "RDAP Registrar" {
		t.Errorf("期望RDAP注册商数据，实际: %q", res.Record.Registrar)
	}
	if !strings.HasPrefix(res.SourceServer, "rdap:") {
		t.Errorf("期望rdap来源标记，实际: %s", res.SourceServer)
	}
	if fetcher.calls == 0 {
		t.Error("限流后未调用RDAP数据源")
	}

	t.Logf("✅ 限流回退RDAP成功: source=%s calls=%d", res.SourceServer, fetcher.calls)
}

// TestAllConnectionErrorsFailed 全部传输失败时重试耗尽后报failed
func TestAllConnectionErrorsFailed(t *testing.T) {
	executor := NewMockExecutor() // 默认全部连接失败

	now := mustTime(t, "2029-01-01T00:00:00Z")
	resolver := newTestResolver(executor, nil, now)

	res := resolver.Resolve(context.Background(), "example.com")

	if res.Status != types.StatusFailed {
		t.Fatalf("期望failed状态，实际: %s", res.Status)
	}
	if res.Record.ExpiryTime != nil {
		t.Error("失败结果不应携带到期时间")
	}

	// 3轮 × 9个候选（.com无跳过项）
	expectedCalls := 3 * 9
	if executor.CallCount() != expectedCalls {
		t.Errorf("期望%d次查询，实际: %d", expectedCalls, executor.CallCount())
	}

	t.Logf("✅ 传输全失败正确报failed: calls=%d", executor.CallCount())
}

// TestNoMatchFailed 所有服务器都声明无记录时报failed
func TestNoMatchFailed(t *testing.T) {
	executor := NewMockExecutor()
	executor.fallback = types.QueryAttempt{
		Outcome:    types.OutcomeSuccess,
		RawPayload: "No match for domain \"EXAMPLE.COM\".",
	}

	now := mustTime(t, "2029-01-01T00:00:00Z")
	resolver := newTestResolver(executor, nil, now)

	res := resolver.Resolve(context.Background(), "example.com")

	if res.Status != types.StatusFailed {
		t.Fatalf("期望failed状态，实际: %s", res.Status)
	}

	t.Logf("✅ 无记录响应正确报failed")
}

// TestRegistrarPivot 无记录声明中披露注册商WHOIS服务器时立即转向查询
func TestRegistrarPivot(t *testing.T) {
	executor := NewMockExecutor()
	// 自动选择声明无记录，但同时披露了注册商服务器
	executor.Set("", types.OutcomeSuccess,
		"No match for domain \"EXAMPLE.COM\".\nRegistrar WHOIS Server: whois.fabulous.com\nRegistrar: Fabulous.com")
	// 注册商服务器返回完整数据
	executor.Set("whois.fabulous.com", types.OutcomeSuccess,
		"Registry Expiry Date: 2030-09-01T00:00:00Z\nRegistrar: Fabulous.com")

	now := mustTime(t, "2029-01-01T00:00:00Z")
	resolver := newTestResolver(executor, nil, now)

	res := resolver.Resolve(context.Background(), "example.com")

	if res.Status != types.StatusSafe {
		t.Fatalf("期望转向查询成功，实际状态: %s", res.Status)
	}
	if res.SourceServer != "whois.fabulous.com" {
		t.Errorf("期望来源为注册商服务器，实际: %s", res.SourceServer)
	}

	t.Logf("✅ 注册商转向查询成功: source=%s", res.SourceServer)
}

// TestNoPivotWithoutNoRecordDeclaration 负载未声明无记录时不转向，
// 即使提取到了注册商WHOIS服务器字段
func TestNoPivotWithoutNoRecordDeclaration(t *testing.T) {
	executor := NewMockExecutor()
	// 字段齐全但到期日期无法解析，且没有无记录声明
	executor.Set("", types.OutcomeSuccess,
		"Registrar WHOIS Server: whois.fabulous.com\nRegistrar: Fabulous.com")
	executor.Set("whois.fabulous.com", types.OutcomeSuccess,
		"Registry Expiry Date: 2030-09-01T00:00:00Z\nRegistrar: Fabulous.com")

	now := mustTime(t, "2029-01-01T00:00:00Z")
	resolver := newTestResolver(executor, nil, now)

	res := resolver.Resolve(context.Background(), "example.com")

	executor.mu.Lock()
	for _, addr := range executor.calls {
		if addr == "whois.fabulous.com" {
			t.Error("未声明无记录的负载不应触发注册商转向")
		}
	}
	executor.mu.Unlock()

	if res.Status != types.StatusUnknown {
		t.Errorf("期望降级为unknown，实际: %s", res.Status)
	}

	t.Logf("✅ 转向仅在无记录声明时触发")
}

// TestRegistryPreemptionOutsidePool 注册局服务器不在通用池中的TLD
// 也必须查询到注册局并由其抢占
func TestRegistryPreemptionOutsidePool(t *testing.T) {
	executor := NewMockExecutor()
	executor.Set("", types.OutcomeSuccess,
		"Registry Expiry Date: 2031-06-01T00:00:00Z\nRegistrar: Mirror Registrar")
	executor.Set("whois.pir.org", types.OutcomeSuccess,
		"Registry Expiry Date: 2030-06-01T00:00:00Z\nRegistrar: Public Interest Registry")

	now := mustTime(t, "2029-01-01T00:00:00Z")
	resolver := newTestResolver(executor, nil, now)

	res := resolver.Resolve(context.Background(), "example.org")

	if res.SourceServer != "whois.pir.org" {
		t.Fatalf("期望.org注册局结果胜出，实际来源: %s", res.SourceServer)
	}
	if res.Record.Registrar != "Public Interest Registry" {
		t.Errorf("期望权威注册商数据，实际: %q", res.Record.Registrar)
	}

	t.Logf("✅ 池外注册局抢占生效: source=%s", res.SourceServer)
}

// TestRegistryOnlySourceResolves 仅注册局持有记录时解析必须成功
func TestRegistryOnlySourceResolves(t *testing.T) {
	executor := NewMockExecutor()
	// 其余候选全部连接失败，只有.org注册局返回记录
	executor.Set("whois.pir.org", types.OutcomeSuccess,
		"Registry Expiry Date: 2030-06-01T00:00:00Z\nRegistrar: Public Interest Registry")

	now := mustTime(t, "2029-01-01T00:00:00Z")
	resolver := newTestResolver(executor, nil, now)

	res := resolver.Resolve(context.Background(), "example.org")

	if res.Status != types.StatusSafe {
		t.Fatalf("期望注册局命中解析成功，实际状态: %s", res.Status)
	}
	if res.SourceServer != "whois.pir.org" {
		t.Errorf("期望来源为注册局，实际: %s", res.SourceServer)
	}

	t.Logf("✅ 仅注册局持有记录时解析成功")
}

// TestRateLimitResilience 除末位候选外全部限流，仍须在重试预算内解析成功
func TestRateLimitResilience(t *testing.T) {
	executor := NewMockExecutor()
	executor.fallback = types.QueryAttempt{
		Outcome:    types.OutcomeSuccess,
		RawPayload: "Number of allowed queries exceeded.",
	}
	// 通用池末位候选返回有效记录
	executor.Set("whois.registrar-servers.com", types.OutcomeSuccess,
		"Registry Expiry Date: 2030-01-15T00:00:00Z\nRegistrar: Last Resort Registrar")

	now := mustTime(t, "2029-01-01T00:00:00Z")
	resolver := newTestResolver(executor, nil, now)

	res := resolver.Resolve(context.Background(), "example.com")

	if res.Status != types.StatusSafe {
		t.Fatalf("期望限流中幸存解析成功，实际状态: %s", res.Status)
	}
	if res.SourceServer != "whois.registrar-servers.com" {
		t.Errorf("期望末位候选胜出，实际来源: %s", res.SourceServer)
	}

	// 首轮扫描即应命中，不消耗额外重试轮次
	if executor.CallCount() != 9 {
		t.Errorf("期望单轮9次查询，实际: %d", executor.CallCount())
	}

	t.Logf("✅ 限流环境下首轮解析成功: calls=%d", executor.CallCount())
}

// TestPartialDowngradeUnknown 字段命中但到期日期无法解析时降级为unknown
func TestPartialDowngradeUnknown(t *testing.T) {
	executor := NewMockExecutor()
	executor.fallback = types.QueryAttempt{
		Outcome:    types.OutcomeSuccess,
		RawPayload: "Registrar: Odd Registry Ltd\nRegistry Expiry Date: sometime next year",
	}

	now := mustTime(t, "2029-01-01T00:00:00Z")
	resolver := newTestResolver(executor, nil, now)

	res := resolver.Resolve(context.Background(), "example.com")

	if res.Status != types.StatusUnknown {
		t.Fatalf("期望unknown状态，实际: %s", res.Status)
	}
	if res.Record.Registrar != "Odd Registry Ltd" {
		t.Errorf("部分结果应保留注册商字段，实际: %q", res.Record.Registrar)
	}

	t.Logf("✅ 部分结果正确降级为unknown")
}

// TestThrottledTLDSkipsRegistry 限流TLD主扫描跳过权威服务器
func TestThrottledTLDSkipsRegistry(t *testing.T) {
	executor := NewMockExecutor()
	executor.Set("grs-whois.aliyun.com", types.OutcomeSuccess,
		"Registry Expiry Date: 2030-05-01T00:00:00Z\nRegistrar: Alibaba Cloud")

	now := mustTime(t, "2029-01-01T00:00:00Z")
	resolver := newTestResolver(executor, nil, now)

	res := resolver.Resolve(context.Background(), "prize.win")

	if res.Status != types.StatusSafe {
		t.Fatalf("期望注册商猜测命中，实际状态: %s", res.Status)
	}
	if res.SourceServer != "grs-whois.aliyun.com" {
		t.Errorf("期望来源为注册商猜测服务器，实际: %s", res.SourceServer)
	}

	// 权威服务器whois.nic.win不应出现在查询记录中
	executor.mu.Lock()
	defer executor.mu.Unlock()
	for _, addr := range executor.calls {
		if addr == "whois.nic.win" {
			t.Error("主扫描不应查询已知限流的权威服务器")
		}
	}

	t.Logf("✅ 限流TLD策略生效: source=%s", res.SourceServer)
}
