/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2025-05-13 10:45:00
 * @Description: RDAP结构化数据适配器 - WHOIS限流时的备用数据源
 */
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"expirywatch/pkg/logger"
	"expirywatch/types"
	"expirywatch/utils"
)

// rdapEndpoints TLD到RDAP端点模板的映射。
// 仅覆盖固定的小集合；新TLD在此登记即可，引擎逻辑无需改动。
var rdapEndpoints = map[string]string{
	"com": "https://rdap.verisign.com/com/v1/domain/%s",
	"net": "https://rdap.verisign.com/net/v1/domain/%s",
	"win": "https://rdap.nic.win/domain/%s",
}

// rdapResponse RDAP响应中本适配器关心的部分
type rdapResponse struct {
	Entities []rdapEntity `json:"entities,omitempty"`
	Events   []rdapEvent  `json:"events,omitempty"`
}

type rdapEntity struct {
	Roles      []string      `json:"roles"`
	Handle     string        `json:"handle"`
	VCardArray []interface{} `json:"vcardArray,omitempty"`
}

type rdapEvent struct {
	EventAction string `json:"eventAction"`
	EventDate   string `json:"eventDate"`
}

// RDAPClient 查询RDAP端点并归一化为ParsedRecord
type RDAPClient struct {
	client *http.Client
}

// NewRDAPClient 创建RDAP客户端，传输层超时独立配置
func NewRDAPClient(timeout time.Duration) *RDAPClient {
	return &RDAPClient{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   5 * time.Second,
				ResponseHeaderTimeout: timeout,
				MaxIdleConns:          10,
				MaxIdleConnsPerHost:   2,
				IdleConnTimeout:       30 * time.Second,
			},
		},
	}
}

// FetchStructured 对支持RDAP的TLD发起一次受限的HTTP GET。
// TLD无映射时直接返回absent，不发任何网络请求；
// 传输、状态码或JSON解码失败一律按absent处理，绝不向上抛错。
func (c *RDAPClient) FetchStructured(ctx context.Context, domain string) (types.ParsedRecord, bool) {
	log := logger.FromContext(ctx, "RDAP")

	tld := utils.ExtractTLD(domain)
	template, ok := rdapEndpoints[tld]
	if !ok {
		return types.ParsedRecord{}, false
	}

	url := fmt.Sprintf(template, utils.SanitizeDomain(domain))
	log.Debugf("请求RDAP: %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return types.ParsedRecord{}, false
	}
	req.Header.Set("Accept", "application/rdap+json, application/json;q=0.9,*/*;q=0.8")
	req.Header.Set("User-Agent", "expirywatch/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		log.Debugf("RDAP请求失败: %v", err)
		return types.ParsedRecord{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Debugf("RDAP响应状态码: %d", resp.StatusCode)
		return types.ParsedRecord{}, false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.ParsedRecord{}, false
	}

	var rdap rdapResponse
	if err := json.Unmarshal(body, &rdap); err != nil {
		log.Debugf("解析RDAP响应失败: %v", err)
		return types.ParsedRecord{}, false
	}

	record := convertRDAP(&rdap)
	if record.Empty() {
		return types.ParsedRecord{}, false
	}

	log.Debugf("RDAP查询成功: 域名=%s, 注册商=%s, 到期=%s", domain, record.Registrar, record.RegistryExpiryDate)
	return record, true
}

// convertRDAP 提取注册商显示名与expiration事件，其余字段留空
func convertRDAP(rdap *rdapResponse) types.ParsedRecord {
	record := types.ParsedRecord{}

	for _, entity := range rdap.Entities {
		if entityHasRole(entity.Roles, "registrar") {
			record.Registrar = extractVCardName(entity)
			break
		}
	}

	for _, event := range rdap.Events {
		if strings.EqualFold(event.EventAction, "expiration") && event.EventDate != "" {
			record.RegistryExpiryDate = event.EventDate
			if t, ok := parseRDAPDate(event.EventDate); ok {
				record.ExpiryTime = &t
			}
			break
		}
	}

	return record
}

// extractVCardName 从vCard中取fn属性，退回handle
func extractVCardName(entity rdapEntity) string {
	if len(entity.VCardArray) > 1 {
		if properties, ok := entity.VCardArray[1].([]interface{}); ok {
			for _, prop := range properties {
				propArray, ok := prop.([]interface{})
				if !ok || len(propArray) < 4 {
					continue
				}
				if name, ok := propArray[0].(string); ok && name == "fn" {
					if value, ok := propArray[3].(string); ok {
						return value
					}
				}
			}
		}
	}
	return entity.Handle
}

func parseRDAPDate(raw string) (time.Time, bool) {
	for _, format := range []string{time.RFC3339, "2006-01-02T15:04:05Z", time.RFC3339Nano} {
		if t, err := time.Parse(format, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func entityHasRole(roles []string, targetRole string) bool {
	for _, role := range roles {
		if strings.EqualFold(role, targetRole) {
			return true
		}
	}
	return false
}
