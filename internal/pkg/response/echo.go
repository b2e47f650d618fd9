package response

import (
	"github.com/labstack/echo/v4"

	"tsu-raid/internal/pkg/xerrors"
)

// Echo 适配：handler 里直接 return response.EchoXxx(c, h.respWriter, ...)

// EchoOK 200 + CodeSuccess
func EchoOK[T any](c echo.Context, h Writer, data T) error {
	return h.WriteSuccess(c.Request().Context(), c.Response().Writer, data)
}

// EchoError 按 AppError 的错误码决定 HTTP 状态
func EchoError(c echo.Context, h Writer, err error) error {
	return h.WriteError(c.Request().Context(), c.Response().Writer, err)
}

// EchoBadRequest 请求体无法解析等参数问题
func EchoBadRequest(c echo.Context, h Writer, message string) error {
	return EchoError(c, h, xerrors.NewValidationError("request", message))
}

func EchoUnauthorized(c echo.Context, h Writer, message string) error {
	return EchoError(c, h, xerrors.New(xerrors.CodeAuthenticationFailed, message))
}
