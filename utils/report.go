/*
 * @Author: AsisYu
 * @Date: 2025-05-12
 * @Description: 域名清单读取与CSV结果输出
 */
package utils

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"expirywatch/types"
)

// csvHeaders CSV列顺序固定，行顺序与输入顺序一致
var csvHeaders = []string{
	"domain", "status", "expiry_date", "days_until_expiry",
	"registrar", "registrar_whois_server", "updated_date", "creation_date",
	"registry_expiry_date_raw",
}

// LoadDomains 读取域名清单文件：每行一个域名，去除首尾空白，
// 跳过空行，不做去重，保持文件顺序。
func LoadDomains(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开域名清单失败: %w", err)
	}
	defer f.Close()

	var domains []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		domain := SanitizeDomain(scanner.Text())
		if domain == "" {
			continue
		}
		domains = append(domains, domain)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取域名清单失败: %w", err)
	}

	if len(domains) == 0 {
		return nil, fmt.Errorf("域名清单为空: %s", path)
	}

	return domains, nil
}

// WriteCSV 将解析结果按输入顺序写入CSV文件
func WriteCSV(path string, resolutions []types.DomainResolution) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建CSV文件失败: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeaders); err != nil {
		return fmt.Errorf("写入CSV表头失败: %w", err)
	}

	for _, res := range resolutions {
		if err := w.Write(csvRow(res)); err != nil {
			return fmt.Errorf("写入CSV行失败 (%s): %w", res.Domain, err)
		}
	}

	w.Flush()
	return w.Error()
}

// csvRow 生成单条CSV记录。expiry_date与days_until_expiry仅在
// 到期时间已解析（expired/warning/safe）时填写。
func csvRow(res types.DomainResolution) []string {
	expiryDate := ""
	daysUntil := ""
	if res.Record.ExpiryTime != nil {
		expiryDate = res.Record.ExpiryTime.Format("2006-01-02")
	}
	switch res.Status {
	case types.StatusExpired, types.StatusWarning, types.StatusSafe:
		daysUntil = strconv.Itoa(res.DaysUntilExpiry)
	}

	return []string{
		res.Domain,
		string(res.Status),
		expiryDate,
		daysUntil,
		res.Record.Registrar,
		res.Record.RegistrarWhoisServer,
		res.Record.UpdatedDate,
		res.Record.CreationDate,
		res.Record.RegistryExpiryDate,
	}
}
