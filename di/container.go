// Package di 提供基于dig的轻量依赖注入容器
package di

import (
	"errors"
	"reflect"

	"go.uber.org/dig"
)

// Container 是依赖注入容器的封装
type Container struct {
	container *dig.Container
}

// New 创建一个新的DI容器
func New() *Container {
	return &Container{
		container: dig.New(),
	}
}

// Provide 向容器注册服务构造函数
func (c *Container) Provide(constructor interface{}, opts ...dig.ProvideOption) error {
	return c.container.Provide(constructor, opts...)
}

// ProvideValue 直接注册一个值到容器
func (c *Container) ProvideValue(value interface{}) error {
	valueType := reflect.TypeOf(value)

	if valueType == nil {
		return errors.New("cannot provide nil value")
	}

	constructor := reflect.MakeFunc(
		reflect.FuncOf(nil, []reflect.Type{valueType}, false),
		func(_ []reflect.Value) []reflect.Value {
			return []reflect.Value{reflect.ValueOf(value)}
		},
	).Interface()

	return c.container.Provide(constructor)
}

// Invoke 调用函数并注入其依赖
func (c *Container) Invoke(function interface{}, opts ...dig.InvokeOption) error {
	return c.container.Invoke(function, opts...)
}
