package payment

import (
	"fmt"
	"strconv"
)

// FieldType 配置字段类型
type FieldType string

// 配置字段类型常量
const (
	// FieldText 文本字段
	FieldText FieldType = "text"
	// FieldNumber 数字字段
	FieldNumber FieldType = "number"
	// FieldCheckbox 复选框字段
	FieldCheckbox FieldType = "checkbox"
)

// ConfigurationField 描述插件的一个可配置项
//
// 字段模式同时承担三个职责：为管理界面提供渲染元数据、
// 校验提交的值、以及标记敏感值（Encrypted）。加密与否由
// 模式决定，存储层据此在写入时加密、读取时解密。
type ConfigurationField struct {
	// 字段名，在插件内唯一
	Name string `json:"name"`
	// 展示名称
	Label string `json:"label"`
	// 字段类型
	Type FieldType `json:"type"`
	// 是否必填
	Required bool `json:"required"`
	// 默认值
	Default string `json:"default,omitempty"`
	// 字段说明
	Description string `json:"description,omitempty"`
	// 是否加密存储
	Encrypted bool `json:"encrypted"`

	// 数字字段约束
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`

	// 文本字段约束
	MaxLength int `json:"max_length,omitempty"`
}

// Validate 校验提交的值
//
// 必填且无默认值的空值、超出[min,max]的数字、超长文本都会返回
// *ValidationError。加密字段接受任意字符串。
func (f ConfigurationField) Validate(value string) error {
	if value == "" {
		value = f.Default
	}

	if value == "" {
		if f.Required {
			return NewValidationError(f.Name, "必填字段不能为空")
		}
		return nil
	}

	switch f.Type {
	case FieldNumber:
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return NewValidationError(f.Name, "必须是数字")
		}
		if f.Min != nil && n < *f.Min {
			return NewValidationError(f.Name, fmt.Sprintf("不能小于 %v", *f.Min))
		}
		if f.Max != nil && n > *f.Max {
			return NewValidationError(f.Name, fmt.Sprintf("不能大于 %v", *f.Max))
		}
	case FieldCheckbox:
		switch value {
		case "true", "false", "1", "0":
		default:
			return NewValidationError(f.Name, "必须是布尔值")
		}
	default:
		if f.MaxLength > 0 && len(value) > f.MaxLength {
			return NewValidationError(f.Name, fmt.Sprintf("长度不能超过 %d", f.MaxLength))
		}
	}

	return nil
}

// TextField 创建文本字段
func TextField(name, label string, required bool) ConfigurationField {
	return ConfigurationField{Name: name, Label: label, Type: FieldText, Required: required}
}

// SecretField 创建加密文本字段
func SecretField(name, label string, required bool) ConfigurationField {
	return ConfigurationField{Name: name, Label: label, Type: FieldText, Required: required, Encrypted: true}
}

// NumberField 创建数字字段
func NumberField(name, label string, min, max *float64) ConfigurationField {
	return ConfigurationField{Name: name, Label: label, Type: FieldNumber, Min: min, Max: max}
}

// CheckboxField 创建复选框字段
func CheckboxField(name, label, defaultValue string) ConfigurationField {
	return ConfigurationField{Name: name, Label: label, Type: FieldCheckbox, Default: defaultValue}
}

// Float64 返回float64指针，便于内联声明字段约束
func Float64(v float64) *float64 {
	return &v
}
