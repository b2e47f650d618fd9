// File: internal/pkg/ctxkey/ctxkey.go
package ctxkey

import "context"

// ContextKey 统一的 context key 类型
type ContextKey string

const (
	// Language 语言偏好
	Language ContextKey = "language"

	// TraceID 请求追踪 ID
	TraceID ContextKey = "trace_id"

	// RequestID 请求 ID (与 TraceID 不同)
	RequestID ContextKey = "request_id"

	// UserID 网关传入的玩家 ID
	UserID ContextKey = "user_id"

	// RaidSessionID 当前 raid 会话 ID，由调度器注入
	RaidSessionID ContextKey = "raid_session_id"

	// Component 产生日志的组件名
	Component ContextKey = "component"
)

// WithValue 在 context 中设置指定 key 的值
func WithValue(ctx context.Context, key ContextKey, value interface{}) context.Context {
	return context.WithValue(ctx, key, value)
}

// GetString 从 context 中获取字符串类型的值
func GetString(ctx context.Context, key ContextKey) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(key).(string); ok {
		return value
	}
	return ""
}

// WithRaidSession 绑定 raid 会话 ID
func WithRaidSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, RaidSessionID, sessionID)
}
