package services

import (
	"testing"
	"time"
)

const verisignStylePayload = `Domain Name: EXAMPLE.COM
Registry Domain ID: 2336799_DOMAIN_COM-VRSN
Registrar WHOIS Server: whois.iana.org
Registrar URL: http://res-dom.iana.org
Updated Date: 2024-08-14T07:01:34Z
Creation Date: 1995-08-14T04:00:00Z
Registry Expiry Date: 2030-08-13T04:00:00Z
Registrar: RESERVED-Internet Assigned Numbers Authority
Registrar IANA ID: 376
Domain Status: clientDeleteProhibited https://icann.org/epp#clientDeleteProhibited
Name Server: A.IANA-SERVERS.NET
DNSSEC: signedDelegation
>>> Last update of whois database: 2025-05-13T06:40:21Z <<<`

// TestExtractFieldsStandardPayload 标准注册局响应的字段提取
func TestExtractFieldsStandardPayload(t *testing.T) {
	record := ExtractFields(verisignStylePayload)

	if record.Registrar != "RESERVED-Internet Assigned Numbers Authority" {
		t.Errorf("Registrar提取错误: %q", record.Registrar)
	}
	if record.RegistrarWhoisServer != "whois.iana.org" {
		t.Errorf("Registrar WHOIS Server提取错误: %q", record.RegistrarWhoisServer)
	}
	if record.CreationDate != "1995-08-14T04:00:00Z" {
		t.Errorf("Creation Date提取错误: %q", record.CreationDate)
	}
	if record.UpdatedDate != "2024-08-14T07:01:34Z" {
		t.Errorf("Updated Date提取错误: %q", record.UpdatedDate)
	}
	if record.RegistryExpiryDate != "2030-08-13T04:00:00Z" {
		t.Errorf("Registry Expiry Date提取错误: %q", record.RegistryExpiryDate)
	}

	if !record.Resolved() {
		t.Fatal("到期时间应可解析")
	}
	if record.ExpiryTime.Year() != 2030 || record.ExpiryTime.Month() != time.August {
		t.Errorf("到期时间解析错误: %v", record.ExpiryTime)
	}

	t.Logf("✅ 标准响应字段提取完整: expiry=%v", record.ExpiryTime)
}

// TestExtractFieldsFirstMatchWins 重复标签取首个匹配行
func TestExtractFieldsFirstMatchWins(t *testing.T) {
	payload := "Registrar: First Registrar\nRegistrar: Second Registrar"
	record := ExtractFields(payload)

	if record.Registrar != "First Registrar" {
		t.Errorf("期望首个匹配胜出，实际: %q", record.Registrar)
	}

	t.Logf("✅ 首个匹配行胜出")
}

// TestExtractFieldsAlternateExpiryLabels 非标准到期标签的兜底提取
func TestExtractFieldsAlternateExpiryLabels(t *testing.T) {
	cases := map[string]string{
		"Expiry Date: 2030-01-02":           "2030-01-02",
		"Expiration Date: 2030-01-02":       "2030-01-02",
		"expires: 2030-01-02":               "2030-01-02",
		"Expiration Time: 2030-01-02 10:00:00": "2030-01-02 10:00:00",
	}

	for payload, rawExpiry := range cases {
		record := ExtractFields(payload)
		if !record.Resolved() {
			t.Errorf("到期标签未识别: %q", payload)
			continue
		}
		if record.RegistryExpiryDate != rawExpiry {
			t.Errorf("原始到期字符串错误: got %q want %q", record.RegistryExpiryDate, rawExpiry)
		}
	}

	t.Logf("✅ %d 种到期标签变体全部识别", len(cases))
}

// TestParseWhoisDate 多格式日期解析
func TestParseWhoisDate(t *testing.T) {
	valid := map[string]string{
		"2030-01-15T00:00:00Z":      "2030-01-15",
		"2030-01-15 10:30:00":       "2030-01-15",
		"2030-01-15":                "2030-01-15",
		"15-01-2030":                "2030-01-15",
		"2030/01/15":                "2030-01-15",
		"2030-01-15T00:00:00Z (UTC)": "2030-01-15", // 尾部括注被剥离
	}

	for raw, wantDay := range valid {
		parsed, ok := ParseWhoisDate(raw)
		if !ok {
			t.Errorf("日期解析失败: %q", raw)
			continue
		}
		if got := parsed.Format("2006-01-02"); got != wantDay {
			t.Errorf("ParseWhoisDate(%q) = %s，期望 %s", raw, got, wantDay)
		}
		if parsed.Location() != time.UTC {
			t.Errorf("解析结果应为UTC: %q -> %v", raw, parsed.Location())
		}
	}

	invalid := []string{"", "sometime next year", "not-a-date"}
	for _, raw := range invalid {
		if _, ok := ParseWhoisDate(raw); ok {
			t.Errorf("无效日期不应解析成功: %q", raw)
		}
	}

	t.Logf("✅ 日期解析: %d 个有效格式, %d 个无效输入", len(valid), len(invalid))
}

// TestExtractFieldsEmptyPayload 空负载产出空记录
func TestExtractFieldsEmptyPayload(t *testing.T) {
	record := ExtractFields("")

	if !record.Empty() {
		t.Errorf("空负载应产出空记录: %+v", record)
	}
	if record.Resolved() {
		t.Error("空记录不应视为已解析")
	}

	t.Logf("✅ 空负载处理正确")
}
