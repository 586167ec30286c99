package utils

import "testing"

// TestIsValidDomain 域名格式校验
func TestIsValidDomain(t *testing.T) {
	valid := []string{
		"example.com",
		"sub.example.co.uk",
		"xn--fiqs8s.cn",
		"a.io",
		"https://example.com/path", // 清洗后有效
	}
	invalid := []string{
		"",
		"example",
		"-example.com",
		".com",
		"exa mple.com",
	}

	for _, domain := range valid {
		if !IsValidDomain(domain) {
			t.Errorf("有效域名被拒绝: %q", domain)
		}
	}
	for _, domain := range invalid {
		if IsValidDomain(domain) {
			t.Errorf("无效域名被接受: %q", domain)
		}
	}

	t.Logf("✅ 域名校验: %d 个有效, %d 个无效", len(valid), len(invalid))
}

// TestSanitizeDomain 域名清洗
func TestSanitizeDomain(t *testing.T) {
	cases := map[string]string{
		"Example.COM":              "example.com",
		"  example.com  ":          "example.com",
		"https://example.com/path": "example.com",
		"http://example.com:8080":  "example.com",
		"example.com/":             "example.com",
	}

	for input, want := range cases {
		if got := SanitizeDomain(input); got != want {
			t.Errorf("SanitizeDomain(%q) = %q，期望 %q", input, got, want)
		}
	}

	t.Logf("✅ 域名清洗正确")
}

// TestExtractTLD 有效顶级后缀提取
func TestExtractTLD(t *testing.T) {
	cases := map[string]string{
		"example.com":    "com",
		"example.co.uk":  "co.uk",
		"sub.example.io": "io",
		"prize.win":      "win",
		"example.zzzz":   "zzzz", // 列表未收录时退回最后分段
	}

	for domain, want := range cases {
		if got := ExtractTLD(domain); got != want {
			t.Errorf("ExtractTLD(%q) = %q，期望 %q", domain, got, want)
		}
	}

	t.Logf("✅ TLD提取正确")
}
