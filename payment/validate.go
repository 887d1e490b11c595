package payment

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zhtranslations "github.com/go-playground/validator/v10/translations/zh"
)

// bindingTranslator 请求绑定错误的中文翻译器
var bindingTranslator ut.Translator

func init() {
	zhLocale := zh.New()
	uni := ut.New(zhLocale, zhLocale)
	trans, found := uni.GetTranslator("zh")
	if !found {
		return
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := zhtranslations.RegisterDefaultTranslations(v, trans); err != nil {
			return
		}
		bindingTranslator = trans
	}
}

// TranslateBindingError 把请求绑定的校验错误翻译为中文提示
//
// 非校验类错误（JSON语法错误等）统一归为通用提示，不向调用方
// 泄露解析细节。
func TranslateBindingError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && bindingTranslator != nil {
		parts := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			parts = append(parts, fe.Translate(bindingTranslator))
		}
		return strings.Join(parts, "；")
	}
	return "无效的请求参数"
}
