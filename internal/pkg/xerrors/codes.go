// File: internal/pkg/xerrors/codes.go
package xerrors

import "fmt"

// ErrorCode 错误码类型（类型安全）
type ErrorCode int

// String 返回错误码的字符串表示
func (c ErrorCode) String() string {
	if msg, ok := codeMessages[c]; ok {
		return fmt.Sprintf("%d (%s)", c, msg)
	}
	return fmt.Sprintf("%d (未定义的错误码)", c)
}

// Message 返回错误码对应的消息
func (c ErrorCode) Message() string {
	if msg, ok := codeMessages[c]; ok {
		return msg
	}
	return "未知错误"
}

// -----------------------------------------------------------------------------
// 错误码按领域分段
// -----------------------------------------------------------------------------
const (
	// 1xxxxx: 通用错误码
	CodeSuccess           ErrorCode = 100000 // 操作成功
	CodeInternalError     ErrorCode = 100001 // 内部服务错误
	CodeInvalidParams     ErrorCode = 100002 // 参数错误
	CodeInvalidRequest    ErrorCode = 100003 // 请求格式错误
	CodeResourceNotFound  ErrorCode = 100404 // 资源不存在
	CodeDuplicateResource ErrorCode = 100409 // 资源已存在
	CodeRateLimitExceeded ErrorCode = 100429 // 请求频率限制

	// 2xxxxx: 认证相关错误码
	CodeAuthenticationFailed ErrorCode = 200001 // 认证失败
	CodePermissionDenied     ErrorCode = 300001 // 权限不足

	// 6xxxxx: 业务逻辑错误码
	CodeBusinessLogicError  ErrorCode = 600001 // 业务逻辑错误
	CodeDataIntegrityError  ErrorCode = 600002 // 数据完整性错误
	CodeOperationNotAllowed ErrorCode = 600003 // 操作不被允许
	CodeResourceLocked      ErrorCode = 600004 // 资源被锁定

	// 7xxxxx: 外部服务错误码
	CodeExternalServiceError ErrorCode = 700001 // 外部服务错误
	CodeDatabaseError        ErrorCode = 700003 // 数据库错误
	CodeCacheError           ErrorCode = 700004 // 缓存服务错误
	CodeMessageQueueError    ErrorCode = 700005 // 消息队列错误

	// 8xxxxx: 游戏业务错误码
	CodeInsufficientResource ErrorCode = 800006 // 资源不足
	CodeHeroStatInvalid      ErrorCode = 800005 // 属性无效

	// 9xxxxx: raid 错误码
	CodeRaidInProgress      ErrorCode = 900001 // 已有 raid 进行中
	CodeRaidInvalidConfig   ErrorCode = 900002 // raid 配置无效
	CodeRaidNotFound        ErrorCode = 900003 // 当前没有 raid
	CodeRaidStateConflict   ErrorCode = 900004 // raid 状态不允许该操作
	CodeRaidPartialPayout   ErrorCode = 900005 // 奖励部分发放
	CodeRaidAuctionVoid     ErrorCode = 900006 // 拍卖作废
	CodeRaidBidRejected     ErrorCode = 900007 // 出价被拒绝
	CodeRaidNoPendingChoice ErrorCode = 900008 // 没有等待中的行动选择
	CodeRaidUnknownPreset   ErrorCode = 900009 // 未知的 raid 预设
)

const (
	HTTPStatusOK                  = 200
	HTTPStatusBadRequest          = 400
	HTTPStatusUnauthorized        = 401
	HTTPStatusForbidden           = 403
	HTTPStatusNotFound            = 404
	HTTPStatusConflict            = 409
	HTTPStatusTooManyRequests     = 429
	HTTPStatusInternalServerError = 500
	HTTPStatusServiceUnavailable  = 503
)

var codeMessages = map[ErrorCode]string{
	CodeSuccess:           "操作成功",
	CodeInternalError:     "内部服务错误",
	CodeInvalidParams:     "参数错误",
	CodeInvalidRequest:    "请求格式错误",
	CodeResourceNotFound:  "资源不存在",
	CodeDuplicateResource: "资源已存在",
	CodeRateLimitExceeded: "请求频率限制",

	CodeAuthenticationFailed: "认证失败",
	CodePermissionDenied:     "权限不足",

	CodeBusinessLogicError:  "业务逻辑错误",
	CodeDataIntegrityError:  "数据完整性错误",
	CodeOperationNotAllowed: "操作不被允许",
	CodeResourceLocked:      "资源被锁定",

	CodeExternalServiceError: "外部服务错误",
	CodeDatabaseError:        "数据库错误",
	CodeCacheError:           "缓存服务错误",
	CodeMessageQueueError:    "消息队列错误",

	CodeInsufficientResource: "资源不足",
	CodeHeroStatInvalid:      "属性无效",

	CodeRaidInProgress:      "raid already in progress",
	CodeRaidInvalidConfig:   "raid 配置无效",
	CodeRaidNotFound:        "当前没有进行中的 raid",
	CodeRaidStateConflict:   "raid 当前状态不允许该操作",
	CodeRaidPartialPayout:   "奖励仅部分发放",
	CodeRaidAuctionVoid:     "拍卖作废：余额不足",
	CodeRaidBidRejected:     "出价被拒绝",
	CodeRaidNoPendingChoice: "没有等待中的行动选择",
	CodeRaidUnknownPreset:   "未知的 raid 预设",
}

// GetHTTPStatus 根据业务错误码获取HTTP状态码
func GetHTTPStatus(code ErrorCode) int {
	switch {
	case code == CodeSuccess:
		return HTTPStatusOK
	case code == CodeAuthenticationFailed:
		return HTTPStatusUnauthorized
	case code == CodePermissionDenied:
		return HTTPStatusForbidden
	case code == CodeResourceNotFound || code == CodeRaidNotFound:
		return HTTPStatusNotFound
	case code == CodeDuplicateResource || code == CodeRaidInProgress || code == CodeRaidStateConflict || code == CodeResourceLocked:
		return HTTPStatusConflict
	case code == CodeInvalidParams || code == CodeInvalidRequest:
		return HTTPStatusBadRequest
	case code == CodeRateLimitExceeded:
		return HTTPStatusTooManyRequests
	case code == CodeRaidPartialPayout:
		return HTTPStatusInternalServerError
	case code >= 600000 && code < 700000:
		return HTTPStatusBadRequest
	case code >= 700000 && code < 800000:
		return HTTPStatusServiceUnavailable
	case code >= 800000:
		return HTTPStatusBadRequest
	default:
		return HTTPStatusInternalServerError
	}
}

// getCategoryByCode 根据错误码获取分类
func getCategoryByCode(code ErrorCode) string {
	switch {
	case code >= 100000 && code < 200000:
		return "system"
	case code >= 200000 && code < 400000:
		return "auth"
	case code >= 600000 && code < 700000:
		return "business"
	case code >= 700000 && code < 800000:
		return "external"
	case code >= 800000 && code < 900000:
		return "game"
	case code >= 900000:
		return "raid"
	default:
		return "unknown"
	}
}

// getLevelByCode 根据错误码获取级别
func getLevelByCode(code ErrorCode) ErrorLevel {
	switch {
	case code == CodeSuccess:
		return LevelInfo
	case code >= 100001 && code <= 100003:
		return LevelWarn
	case code == CodeRaidInProgress || code == CodeRaidBidRejected || code == CodeRaidNoPendingChoice:
		return LevelWarn
	case code == CodeRaidPartialPayout:
		return LevelCritical
	case code >= 700001 && code < 800000:
		return LevelCritical
	default:
		return LevelError
	}
}

// isRetryableByCode 根据错误码判断是否可重试
func isRetryableByCode(code ErrorCode) bool {
	switch code {
	case CodeInternalError, CodeExternalServiceError, CodeDatabaseError,
		CodeCacheError, CodeMessageQueueError, CodeRateLimitExceeded, CodeRaidInProgress:
		return true
	}
	return false
}
