/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2025-05-12 17:25:00
 * @Description: 到期状态分类器
 */
package services

import (
	"math"
	"time"

	"expirywatch/types"
)

// ClassifyExpiry 将到期时间映射为三态状态与剩余天数。
// daysUntilExpiry = floor(到期时间-当前时间的天数差)；
// 负数为expired，0..warningDays为warning（边界含），其余为safe。
// 到期时间缺失时返回unknown，天数无意义。
func ClassifyExpiry(expiry *time.Time, now time.Time, warningDays int) (types.Status, int) {
	if expiry == nil {
		return types.StatusUnknown, 0
	}

	days := int(math.Floor(expiry.Sub(now).Hours() / 24))

	switch {
	case days < 0:
		return types.StatusExpired, days
	case days <= warningDays:
		return types.StatusWarning, days
	default:
		return types.StatusSafe, days
	}
}
