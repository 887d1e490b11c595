package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidCurrency(t *testing.T) {
	assert.True(t, ValidCurrency("USD"), "USD应该是合法货币")
	assert.True(t, ValidCurrency("jpy"), "小写货币代码应该被归一化后通过")
	assert.False(t, ValidCurrency("XYZ"), "XYZ不是合法的ISO 4217代码")
	assert.False(t, ValidCurrency(""), "空字符串不是合法货币")
}

func TestMinorUnits(t *testing.T) {
	// 常规货币乘以100
	assert.Equal(t, int64(1050), MinorUnits(10.50, "USD"), "USD金额应该换算为分")
	assert.Equal(t, int64(100), MinorUnits(1.0, "EUR"), "EUR金额应该换算为分")

	// 零小数位货币保持原值
	assert.Equal(t, int64(1000), MinorUnits(1000, "JPY"), "JPY金额不应该乘以100")
	assert.Equal(t, int64(5000), MinorUnits(5000, "krw"), "货币代码应该大小写不敏感")

	// 浮点舍入
	assert.Equal(t, int64(1999), MinorUnits(19.99, "USD"), "19.99应该精确换算为1999分")
}

func TestMajorUnits(t *testing.T) {
	assert.Equal(t, 10.50, MajorUnits(1050, "USD"), "1050分应该还原为10.50")
	assert.Equal(t, float64(1000), MajorUnits(1000, "JPY"), "JPY最小单位即主单位")
}
