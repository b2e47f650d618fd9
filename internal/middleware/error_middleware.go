package middleware

import (
	"errors"
	"fmt"

	"tsu-raid/internal/pkg/log"
	"tsu-raid/internal/pkg/response"
	"tsu-raid/internal/pkg/xerrors"

	"github.com/labstack/echo/v4"
)

// ErrorMiddleware 统一错误处理中间件
func ErrorMiddleware(respWriter response.Writer, logger log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}
			if c.Response().Committed {
				return err
			}

			ctx := c.Request().Context()

			var appErr *xerrors.AppError
			var httpErr *echo.HTTPError
			switch {
			case errors.As(err, &appErr):
				return respWriter.WriteError(ctx, c.Response().Writer, appErr)
			case errors.As(err, &httpErr):
				return respWriter.WriteError(ctx, c.Response().Writer, convertEchoError(httpErr))
			default:
				logger.ErrorContext(ctx, "未处理的错误",
					log.Any("original_error", err),
					log.String("error_type", fmt.Sprintf("%T", err)),
				)
				wrapped := xerrors.NewWithError(xerrors.CodeInternalError, "系统内部错误", err).
					WithService("echo-middleware", "error_handler")
				return respWriter.WriteError(ctx, c.Response().Writer, wrapped)
			}
		}
	}
}

// convertEchoError 将 Echo 错误转换为业务错误
func convertEchoError(echoErr *echo.HTTPError) *xerrors.AppError {
	var code xerrors.ErrorCode
	switch echoErr.Code {
	case 400:
		code = xerrors.CodeInvalidParams
	case 401:
		code = xerrors.CodeAuthenticationFailed
	case 403:
		code = xerrors.CodePermissionDenied
	case 404, 405:
		code = xerrors.CodeResourceNotFound
	case 409:
		code = xerrors.CodeDuplicateResource
	case 429:
		code = xerrors.CodeRateLimitExceeded
	default:
		return xerrors.FromCode(xerrors.CodeInternalError).
			WithMetadata("echo_code", echoErr.Code).
			WithMetadata("echo_message", fmt.Sprintf("%v", echoErr.Message))
	}
	return xerrors.FromCode(code).WithMetadata("echo_message", fmt.Sprintf("%v", echoErr.Message))
}
