package payment

import (
	"fmt"
)

// Cipher 加密字段在存储边界使用的对称加解密能力
//
// 具体实现见secrets包；这里只声明编排层需要的最小能力。
type Cipher interface {
	// Encrypt 加密明文，返回可落库的密文
	Encrypt(plaintext string) (string, error)
	// Decrypt 解密密文
	Decrypt(ciphertext string) (string, error)
}

// Method 一个已配置的支付方式
//
// 支付方式是插件的具名实例：key稳定且唯一，values中加密字段
// 的值以密文形式保存，只有通过Secret访问时才解密。enabled为
// false的支付方式不会出现在结账列表，也不接受新的支付发起，
// 但已在途订单仍可收到回调。
type Method struct {
	ID          uint   `json:"id"`
	Key         string `json:"key"`
	PluginKey   string `json:"plugin_key"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
	Enabled     bool   `json:"enabled"`
	SortOrder   int    `json:"sort_order"`

	// Values 配置值（字段名 -> 存储值；加密字段保存密文）
	Values map[string]string `json:"-"`

	// 以下由编排层在加载时绑定，不持久化
	schema []ConfigurationField
	cipher Cipher
}

// Bind 绑定字段模式与解密器
//
// 存储层只保存原始值；模式和解密器由编排层在每次加载后按插件
// 注入，决定哪些值走解密路径。
func (m *Method) Bind(schema []ConfigurationField, cipher Cipher) {
	m.schema = schema
	m.cipher = cipher
}

// field 按名称查找字段模式
func (m *Method) field(name string) (ConfigurationField, bool) {
	for _, f := range m.schema {
		if f.Name == name {
			return f, true
		}
	}
	return ConfigurationField{}, false
}

// Plain 读取一个非加密配置值，值为空时回退到字段默认值
func (m *Method) Plain(name string) string {
	v, ok := m.Values[name]
	if !ok || v == "" {
		if f, found := m.field(name); found {
			return f.Default
		}
	}
	return v
}

// Secret 读取并解密一个加密配置值
//
// 按模式未标记加密的字段等同于Plain读取。
func (m *Method) Secret(name string) (string, error) {
	f, found := m.field(name)
	if !found || !f.Encrypted {
		return m.Plain(name), nil
	}

	v, ok := m.Values[name]
	if !ok || v == "" {
		return f.Default, nil
	}
	if m.cipher == nil {
		return "", fmt.Errorf("支付方式 %s 未绑定解密器", m.Key)
	}

	plain, err := m.cipher.Decrypt(v)
	if err != nil {
		return "", fmt.Errorf("解密配置字段 %s 失败: %w", name, err)
	}
	return plain, nil
}

// Bool 将配置值解释为布尔
func (m *Method) Bool(name string) bool {
	switch m.Plain(name) {
	case "true", "1":
		return true
	}
	return false
}

// SetValue 写入一个配置值，加密字段按模式在此处加密
func (m *Method) SetValue(name, value string) error {
	f, found := m.field(name)
	if found {
		if err := f.Validate(value); err != nil {
			return err
		}
	}
	if m.Values == nil {
		m.Values = make(map[string]string)
	}

	if found && f.Encrypted && value != "" {
		if m.cipher == nil {
			return fmt.Errorf("支付方式 %s 未绑定加密器", m.Key)
		}
		enc, err := m.cipher.Encrypt(value)
		if err != nil {
			return fmt.Errorf("加密配置字段 %s 失败: %w", name, err)
		}
		m.Values[name] = enc
		return nil
	}

	m.Values[name] = value
	return nil
}

// ValidateValues 按模式逐字段校验当前配置值
func (m *Method) ValidateValues() error {
	for _, f := range m.schema {
		v := m.Values[f.Name]
		// 加密字段校验存在性即可，密文长度无意义
		if f.Encrypted {
			if f.Required && v == "" && f.Default == "" {
				return NewValidationError(f.Name, "必填字段不能为空")
			}
			continue
		}
		if err := f.Validate(v); err != nil {
			return err
		}
	}
	return nil
}
