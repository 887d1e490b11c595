package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigurationField_ValidateText(t *testing.T) {
	// 必填文本字段
	field := TextField("api_key", "API密钥", true)

	err := field.Validate("sk_test_123")
	assert.NoError(t, err, "非空值应该通过校验")

	err = field.Validate("")
	assert.Error(t, err, "必填字段的空值应该被拒绝")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr, "校验失败应该返回*ValidationError")
	assert.Equal(t, "api_key", verr.Field, "错误应该携带字段名")

	// 非必填字段允许为空
	optional := TextField("note", "备注", false)
	assert.NoError(t, optional.Validate(""), "非必填字段的空值应该通过")
}

func TestConfigurationField_DefaultFallback(t *testing.T) {
	// 必填但有默认值的字段，空值回退到默认值
	field := ConfigurationField{
		Name:     "mode",
		Type:     FieldText,
		Required: true,
		Default:  "live",
	}
	assert.NoError(t, field.Validate(""), "有默认值时空值应该通过校验")
}

func TestConfigurationField_ValidateNumber(t *testing.T) {
	field := NumberField("delay_ms", "延迟毫秒", Float64(0), Float64(5000))

	assert.NoError(t, field.Validate("250"), "区间内的数字应该通过")
	assert.NoError(t, field.Validate("0"), "边界值应该通过")

	err := field.Validate("abc")
	assert.Error(t, err, "非数字应该被拒绝")

	err = field.Validate("-1")
	assert.Error(t, err, "小于下界的数字应该被拒绝")

	err = field.Validate("5001")
	assert.Error(t, err, "大于上界的数字应该被拒绝")
}

func TestConfigurationField_ValidateCheckbox(t *testing.T) {
	field := CheckboxField("sandbox", "沙箱模式", "false")

	for _, v := range []string{"true", "false", "1", "0"} {
		assert.NoError(t, field.Validate(v), "合法布尔值 %s 应该通过", v)
	}
	assert.Error(t, field.Validate("yes"), "非布尔值应该被拒绝")
}

func TestConfigurationField_MaxLength(t *testing.T) {
	field := ConfigurationField{
		Name:      "statement_descriptor",
		Type:      FieldText,
		MaxLength: 5,
	}
	assert.NoError(t, field.Validate("12345"), "等于上限的长度应该通过")
	assert.Error(t, field.Validate("123456"), "超长文本应该被拒绝")
}

func TestSecretField(t *testing.T) {
	field := SecretField("private_key", "私钥", true)
	assert.True(t, field.Encrypted, "SecretField应该标记为加密")
	assert.Equal(t, FieldText, field.Type, "SecretField应该是文本类型")
}
