// File: internal/pkg/response/responser.go
package response

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"tsu-raid/internal/pkg/i18n"
	"tsu-raid/internal/pkg/log"
	"tsu-raid/internal/pkg/trace"
	"tsu-raid/internal/pkg/xerrors"
)

// Response 统一的 API 响应结构
type Response struct {
	Code      int    `json:"code"`               // 业务响应码
	Message   string `json:"message"`            // 响应消息
	Data      any    `json:"data,omitempty"`     // 响应数据，成功时返回
	Error     string `json:"error,omitempty"`    // 错误详情，仅非生产环境返回
	Timestamp int64  `json:"timestamp"`          // Unix时间戳
	TraceID   string `json:"trace_id,omitempty"` // 请求追踪ID
}

// Writer 响应写入器
type Writer interface {
	WriteSuccess(ctx context.Context, w http.ResponseWriter, data any) error
	WriteError(ctx context.Context, w http.ResponseWriter, err error) error
	WriteJSON(ctx context.Context, w http.ResponseWriter, data any, statusCode int) error
}

// ResponseHandler 默认的 Writer 实现
type ResponseHandler struct {
	logger      log.Logger
	environment string
}

// NewResponseHandler 创建响应处理器
func NewResponseHandler(logger log.Logger, environment string) *ResponseHandler {
	if logger == nil {
		logger = log.GetLogger()
	}
	return &ResponseHandler{logger: logger, environment: environment}
}

// DefaultResponseHandler 开发环境配置，主要用于测试
func DefaultResponseHandler() *ResponseHandler {
	return NewResponseHandler(log.Discard(), "development")
}

// WriteSuccess 200 + CodeSuccess
func (h *ResponseHandler) WriteSuccess(ctx context.Context, w http.ResponseWriter, data any) error {
	resp := &Response{
		Code:      int(xerrors.CodeSuccess),
		Message:   "操作成功",
		Data:      data,
		Timestamp: time.Now().Unix(),
		TraceID:   trace.GetTraceID(ctx),
	}
	return h.WriteJSON(ctx, w, resp, http.StatusOK)
}

// WriteError 按错误码映射 HTTP 状态，消息按请求语言本地化
func (h *ResponseHandler) WriteError(ctx context.Context, w http.ResponseWriter, err error) error {
	var appErr *xerrors.AppError
	if !errors.As(err, &appErr) {
		appErr = xerrors.NewWithError(xerrors.CodeInternalError, "系统内部错误", err)
	}

	status := xerrors.GetHTTPStatus(appErr.Code)
	resp := &Response{
		Code:      int(appErr.Code),
		Message:   appErr.GetLocalizedMessage(i18n.GetLanguage(ctx)),
		Timestamp: time.Now().Unix(),
		TraceID:   trace.GetTraceID(ctx),
	}
	if h.environment != "production" && appErr.Err != nil {
		resp.Error = appErr.Err.Error()
	}

	if status >= http.StatusInternalServerError {
		log.LogAppError(ctx, h.logger, "请求处理失败", appErr)
	} else {
		h.logger.DebugContext(ctx, "请求返回业务错误", log.Int("code", int(appErr.Code)), log.String("message", appErr.Message))
	}
	return h.WriteJSON(ctx, w, resp, status)
}

// WriteJSON 直接写 JSON
func (h *ResponseHandler) WriteJSON(ctx context.Context, w http.ResponseWriter, data any, statusCode int) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// header 已写出，只能记录
		h.logger.ErrorContext(ctx, "写入JSON响应失败", log.Any("error", err))
		return err
	}
	return nil
}
