package domain

import "strings"

// BaseCurrency 是所有汇率的基准货币，跨币种换算都经过它中转
const BaseCurrency = "USD"

// Currency 是不可变的币种参考数据
type Currency struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	Symbol     string `json:"symbol"`
	MinorUnits int32  `json:"minor_units"` // 日常使用中的小数位数，JPY 为 0
}

var catalog = []Currency{
	{Code: "USD", Name: "US Dollar", Symbol: "$", MinorUnits: 2},
	{Code: "EUR", Name: "Euro", Symbol: "€", MinorUnits: 2},
	{Code: "GBP", Name: "British Pound", Symbol: "£", MinorUnits: 2},
	{Code: "CAD", Name: "Canadian Dollar", Symbol: "C$", MinorUnits: 2},
	{Code: "JPY", Name: "Japanese Yen", Symbol: "¥", MinorUnits: 0},
	{Code: "AUD", Name: "Australian Dollar", Symbol: "A$", MinorUnits: 2},
	{Code: "CHF", Name: "Swiss Franc", Symbol: "CHF ", MinorUnits: 2},
	{Code: "INR", Name: "Indian Rupee", Symbol: "₹", MinorUnits: 2},
}

// Catalog 返回支持的币种列表（副本）
func Catalog() []Currency {
	out := make([]Currency, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup 按代码查找币种，大小写不敏感
func Lookup(code string) (Currency, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, c := range catalog {
		if c.Code == code {
			return c, true
		}
	}
	return Currency{}, false
}

// Resolve 查找币种；未知代码按两位小数处理，并以代码本身作为前缀
func Resolve(code string) Currency {
	if c, ok := Lookup(code); ok {
		return c
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	return Currency{Code: code, Name: code, Symbol: code + " ", MinorUnits: 2}
}
