package payment

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

// reverseCipher 测试用的可逆"加密"实现
type reverseCipher struct{}

func (reverseCipher) Encrypt(plaintext string) (string, error) {
	return base64.StdEncoding.EncodeToString([]byte(plaintext)), nil
}

func (reverseCipher) Decrypt(ciphertext string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(ciphertext)
	return string(b), err
}

func methodWithSchema(t *testing.T) *Method {
	t.Helper()
	m := &Method{
		Key:       "stripe_cn",
		PluginKey: "stripe",
		Enabled:   true,
		Values:    make(map[string]string),
	}
	m.Bind([]ConfigurationField{
		TextField("merchant", "商户名", true),
		SecretField("secret_key", "密钥", true),
		CheckboxField("live_mode", "生产模式", "false"),
	}, reverseCipher{})
	return m
}

func TestMethod_SetValueEncrypts(t *testing.T) {
	m := methodWithSchema(t)

	assert.NoError(t, m.SetValue("merchant", "Acme"), "普通字段写入应该成功")
	assert.Equal(t, "Acme", m.Values["merchant"], "普通字段应该明文存储")

	assert.NoError(t, m.SetValue("secret_key", "sk_live_abc"), "加密字段写入应该成功")
	assert.NotEqual(t, "sk_live_abc", m.Values["secret_key"], "加密字段不应该明文存储")

	plain, err := m.Secret("secret_key")
	assert.NoError(t, err, "Secret读取应该成功")
	assert.Equal(t, "sk_live_abc", plain, "Secret应该还原出明文")
}

func TestMethod_SetValueValidates(t *testing.T) {
	m := methodWithSchema(t)

	err := m.SetValue("live_mode", "maybe")
	assert.Error(t, err, "非法布尔值应该被拒绝")

	// 模式外的字段不校验，原样保存
	assert.NoError(t, m.SetValue("custom", "anything"), "模式外的字段应该原样写入")
	assert.Equal(t, "anything", m.Values["custom"])
}

func TestMethod_PlainDefaultFallback(t *testing.T) {
	m := methodWithSchema(t)
	assert.Equal(t, "false", m.Plain("live_mode"), "未设置的字段应该回退到默认值")
	assert.False(t, m.Bool("live_mode"), "默认false应该解释为布尔false")

	assert.NoError(t, m.SetValue("live_mode", "1"))
	assert.True(t, m.Bool("live_mode"), "1应该解释为布尔true")
}

func TestMethod_SecretWithoutCipher(t *testing.T) {
	m := methodWithSchema(t)
	m.Bind([]ConfigurationField{SecretField("secret_key", "密钥", true)}, nil)
	m.Values["secret_key"] = "ciphertext"

	_, err := m.Secret("secret_key")
	assert.Error(t, err, "未绑定解密器时读取加密字段应该报错")
}

func TestMethod_ValidateValues(t *testing.T) {
	m := methodWithSchema(t)

	err := m.ValidateValues()
	assert.Error(t, err, "缺少必填字段时整体校验应该失败")

	assert.NoError(t, m.SetValue("merchant", "Acme"))
	assert.NoError(t, m.SetValue("secret_key", "sk_test"))
	assert.NoError(t, m.ValidateValues(), "补齐必填字段后整体校验应该通过")
}
