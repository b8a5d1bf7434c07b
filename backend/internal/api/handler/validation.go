package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/Sergio-AB-dev/Freya-App/backend/pkg/response"
)

// RegisterValidatorTagNames 让校验错误使用 json 字段名
// 需在注册路由前调用一次
func RegisterValidatorTagNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
}

// bindError 输出 400，details 中列出未通过校验的字段
func bindError(c *gin.Context, err error) {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
		return
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		parts = append(parts, fe.Field()+":"+fe.Tag())
	}
	response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", strings.Join(parts, ", "))
}
