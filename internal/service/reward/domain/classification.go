package domain

import "strings"

// Classification 决定奖励何时可用，取决于商品的履约方式而不是品类
type Classification string

const (
	ClassInstant  Classification = "instant"  // 即时履约（直发）
	ClassDeferred Classification = "deferred" // 联盟履约，需冷静期
	ClassStandard Classification = "standard"
)

// ParseClassification 大小写不敏感；未知值一律按 standard 处理。
func ParseClassification(s string) Classification {
	switch c := Classification(strings.ToLower(strings.TrimSpace(s))); c {
	case ClassInstant, ClassDeferred:
		return c
	default:
		return ClassStandard
	}
}
