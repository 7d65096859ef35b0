package application

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"storefront/internal/pkg/fallback"
	"storefront/internal/service/currency/domain"
)

// Formatter 把金额渲染为带币种符号的展示字符串，任何情况下都返回可用的结果。
type Formatter struct {
	printer    *message.Printer
	decimalSep string
	err        error
}

// NewFormatter 按 locale 构造格式化器；locale 无法解析时只走降级路径。
func NewFormatter(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		return &Formatter{err: errors.Wrapf(err, "parse locale %q", locale)}
	}
	p := message.NewPrinter(tag)
	// 从样例数字中取出该 locale 的小数点
	sample := p.Sprint(number.Decimal(0.5, number.Scale(1)))
	if !strings.HasPrefix(sample, "0") || !strings.HasSuffix(sample, "5") || len(sample) < 3 {
		return &Formatter{err: errors.Errorf("locale %q uses unsupported digits %q", locale, sample)}
	}
	return &Formatter{printer: p, decimalSep: sample[1 : len(sample)-1]}
}

// Format 按币种小数位四舍五入后加上符号前缀，例如 "€85.00"、"¥1,500"。
func (f *Formatter) Format(amount decimal.Decimal, cur domain.Currency) string {
	return fallback.Run(context.Background(), "format",
		func() (string, error) { return f.localized(amount, cur) },
		func() string { return Plain(amount, cur) },
	)
}

func (f *Formatter) localized(amount decimal.Decimal, cur domain.Currency) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	rounded := amount.Round(cur.MinorUnits)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Abs()
	}
	// 整数部分交给 locale 分组，小数部分直接取自 decimal，不经过 float
	intPart, frac, _ := strings.Cut(rounded.StringFixed(cur.MinorUnits), ".")
	whole, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return "", errors.Wrapf(err, "amount %s out of range", rounded)
	}
	digits := f.printer.Sprint(number.Decimal(whole))
	if frac != "" {
		digits += f.decimalSep + frac
	}
	return sign + cur.Symbol + digits, nil
}

// Plain 是不依赖 locale 的兜底格式：符号 + 两位小数。
func Plain(amount decimal.Decimal, cur domain.Currency) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Abs()
	}
	return sign + cur.Symbol + amount.StringFixed(2)
}
