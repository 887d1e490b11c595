package payment

import (
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
)

// 零小数位货币集合（金额最小单位即整数单位）
var zeroDecimalCurrencies = map[string]struct{}{
	"BIF": {}, "CLP": {}, "DJF": {}, "GNF": {}, "JPY": {},
	"KMF": {}, "KRW": {}, "MGA": {}, "PYG": {}, "RWF": {},
	"UGX": {}, "VND": {}, "VUV": {}, "XAF": {}, "XOF": {}, "XPF": {},
}

var currencyValidator = validator.New()

// ValidCurrency 检查货币代码是否为合法的ISO 4217代码
func ValidCurrency(code string) bool {
	return currencyValidator.Var(strings.ToUpper(code), "iso4217") == nil
}

// MinorUnits 将主单位金额转换为渠道要求的最小货币单位
//
// 大多数货币乘以100，零小数位货币（如JPY、KRW）保持原值。
func MinorUnits(amount float64, currency string) int64 {
	if _, ok := zeroDecimalCurrencies[strings.ToUpper(currency)]; ok {
		return int64(math.Round(amount))
	}
	return int64(math.Round(amount * 100))
}

// MajorUnits 将最小货币单位金额还原为主单位
func MajorUnits(minor int64, currency string) float64 {
	if _, ok := zeroDecimalCurrencies[strings.ToUpper(currency)]; ok {
		return float64(minor)
	}
	return float64(minor) / 100
}
