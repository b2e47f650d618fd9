package validator

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"tsu-raid/internal/pkg/xerrors"
)

// CustomValidator wraps go-playground validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator; 返回第一个字段错误对应的 AppError
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return xerrors.NewValidationError(fe.Field(), describe(fe))
	}
	return xerrors.NewValidationError("request", err.Error())
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s 不能为空", fe.Field())
	case "gt":
		return fmt.Sprintf("%s 必须大于 %s", fe.Field(), fe.Param())
	case "gte", "min":
		return fmt.Sprintf("%s 不能小于 %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s 必须是 [%s] 之一", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s 校验失败: %s", fe.Field(), fe.Tag())
}

// New creates a new custom validator instance
func New() echo.Validator {
	return &CustomValidator{
		validator: validator.New(),
	}
}
