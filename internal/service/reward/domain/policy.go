package domain

import "github.com/shopspring/decimal"

// 默认奖励策略
const (
	DefaultPercentage         = 3 // 百分比，3 表示 3%
	DefaultInstantCoolingOff  = 0
	DefaultDeferredCoolingOff = 45
	DefaultStandardCoolingOff = 3
)

// Policy 是权威查询不可用时使用的本地策略
type Policy struct {
	Percentage     decimal.Decimal
	CoolingOffDays map[Classification]int
}

func DefaultPolicy() Policy {
	return Policy{
		Percentage: decimal.NewFromInt(DefaultPercentage),
		CoolingOffDays: map[Classification]int{
			ClassInstant:  DefaultInstantCoolingOff,
			ClassDeferred: DefaultDeferredCoolingOff,
			ClassStandard: DefaultStandardCoolingOff,
		},
	}
}

// NewPolicy 以默认策略为基础，覆盖配置中给出的值；非法值被忽略。
func NewPolicy(percentage float64, coolingOff map[string]int) Policy {
	p := DefaultPolicy()
	if percentage >= 0 {
		p.Percentage = decimal.NewFromFloat(percentage)
	}
	for name, days := range coolingOff {
		if days < 0 {
			continue
		}
		p.CoolingOffDays[ParseClassification(name)] = days
	}
	return p
}

// Timing 返回某个分类的冷静期天数，以及奖励是否即时可用
func (p Policy) Timing(c Classification) (days int, instant bool) {
	days, ok := p.CoolingOffDays[ParseClassification(string(c))]
	if !ok {
		days = DefaultStandardCoolingOff
	}
	return days, days == 0
}
