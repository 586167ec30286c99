/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2025-05-12 09:40:00
 * @Description: 域名到期解析类型定义
 */
package types

import "time"

// Outcome 单次查询尝试的结果分类
type Outcome string

const (
	OutcomeSuccess         Outcome = "success"
	OutcomeTimeout         Outcome = "timeout"
	OutcomeConnectionError Outcome = "connection_error"
	OutcomeRateLimited     Outcome = "rate_limited"
	OutcomeNoRecord        Outcome = "no_record"
)

// Status 域名到期状态
type Status string

const (
	StatusExpired Status = "expired"
	StatusWarning Status = "warning"
	StatusSafe    Status = "safe"
	StatusUnknown Status = "unknown"
	StatusFailed  Status = "failed"
)

// CandidateKind 候选查询目标的类别
type CandidateKind string

const (
	KindRegistry       CandidateKind = "registry"        // 注册局权威服务器
	KindRegistrarGuess CandidateKind = "registrar-guess" // 猜测的注册商服务器
	KindGeneric        CandidateKind = "generic"         // 通用公共WHOIS服务器
	KindStructured     CandidateKind = "structured"      // RDAP结构化端点
)

// ServerCandidate 策略产出的单个查询目标。
// Address为空表示"自动选择"，由底层WHOIS库自行决定服务器。
type ServerCandidate struct {
	Kind            CandidateKind `json:"kind"`
	Address         string        `json:"address"`
	TimeoutOverride time.Duration `json:"timeoutOverride,omitempty"`
	// SkipMainPass 标记该候选在主扫描中跳过（如已知限流的权威服务器）
	SkipMainPass bool `json:"skipMainPass,omitempty"`
}

// QueryPlan 针对单个域名的完整查询计划
type QueryPlan struct {
	Candidates []ServerCandidate
	// RegistryHost 已知的注册局权威服务器，命中时结果优先采用
	RegistryHost string
	// InterDelay 候选之间的固定间隔
	InterDelay time.Duration
	// Jitter 是否在间隔上叠加随机抖动（限流敏感TLD）
	Jitter bool
}

// QueryAttempt 对单个目标的一次查询，仅在单轮解析内存活
type QueryAttempt struct {
	Target     string        `json:"target"`
	Outcome    Outcome       `json:"outcome"`
	RawPayload string        `json:"-"`
	Elapsed    time.Duration `json:"elapsed"`
}

// ParsedRecord 从查询负载中归一化出的注册信息。
// 原始字段保留原文，到期时间额外保存解析后的UTC时间戳；
// ExpiryTime为nil表示"未知"，而不是"永不过期"。
type ParsedRecord struct {
	Registrar            string     `json:"registrar"`
	RegistrarWhoisServer string     `json:"registrarWhoisServer"`
	CreationDate         string     `json:"creationDate"`
	UpdatedDate          string     `json:"updatedDate"`
	RegistryExpiryDate   string     `json:"registryExpiryDate"`
	ExpiryTime           *time.Time `json:"expiryTime,omitempty"`
}

// Resolved 判断记录是否携带可用的到期时间
func (r *ParsedRecord) Resolved() bool {
	return r != nil && r.ExpiryTime != nil
}

// Empty 判断记录是否完全为空（即使查询成功也视为解析失败）
func (r *ParsedRecord) Empty() bool {
	return r == nil || (r.Registrar == "" && r.RegistrarWhoisServer == "" &&
		r.CreationDate == "" && r.UpdatedDate == "" && r.RegistryExpiryDate == "" &&
		r.ExpiryTime == nil)
}

// DomainResolution 引擎对单个域名的最终回答，创建后不可变
type DomainResolution struct {
	Domain          string       `json:"domain"`
	Status          Status       `json:"status"`
	DaysUntilExpiry int          `json:"daysUntilExpiry"`
	Record          ParsedRecord `json:"record"`
	// SourceServer 胜出负载来自哪个服务器（"automatic"表示自动选择）
	SourceServer string `json:"sourceServer,omitempty"`
}

// ResolverConfig 解析引擎的固定配置，与具体域名无关
type ResolverConfig struct {
	WarningDays int
	MaxAttempts int
	Timeout     time.Duration
	RetryDelay  time.Duration
	Workers     int
}

// DefaultResolverConfig 默认配置
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		WarningDays: 50,
		MaxAttempts: 3,
		Timeout:     5 * time.Second,
		RetryDelay:  2 * time.Second,
		Workers:     4,
	}
}
