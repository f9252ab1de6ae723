package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"
)

// ErrorCode 错误码类型
type ErrorCode int

// 错误码定义（按模块分组）
const (
	// 通用错误 (1000-1999)
	ErrUnknown        ErrorCode = 1000
	ErrValidation     ErrorCode = 1001
	ErrNotFound       ErrorCode = 1002
	ErrConflict       ErrorCode = 1003
	ErrForbidden      ErrorCode = 1004
	ErrTimeout        ErrorCode = 1005
	ErrCanceled       ErrorCode = 1006
	ErrNotImplemented ErrorCode = 1007

	// 骰子与检定错误 (2000-2999)
	ErrDieAlreadyUsed    ErrorCode = 2000
	ErrPoolAlreadyExists ErrorCode = 2001
	ErrPoolStale         ErrorCode = 2002
	ErrChallengeInactive ErrorCode = 2003
	ErrInvalidDieValue   ErrorCode = 2004
	ErrInvalidD20Value   ErrorCode = 2005
	ErrInvalidDiceCount  ErrorCode = 2006
	ErrCharacterExists   ErrorCode = 2007

	// 通信错误 (4000-4999)
	ErrWebSocketConnect ErrorCode = 4000
	ErrWebSocketSend    ErrorCode = 4001
	ErrWebSocketClosed  ErrorCode = 4003
	ErrMessageFormat    ErrorCode = 4007

	// 数据库错误 (5000-5999)
	ErrDatabaseConnect ErrorCode = 5000
	ErrDatabaseQuery   ErrorCode = 5001
	ErrDatabaseInsert  ErrorCode = 5002
	ErrDatabaseUpdate  ErrorCode = 5003
	ErrTransaction     ErrorCode = 5005

	// 配置错误 (6000-6999)
	ErrConfigLoad     ErrorCode = 6000
	ErrConfigValidate ErrorCode = 6002

	// 安全错误 (7000-7999)
	ErrAuthentication ErrorCode = 7000
	ErrTokenExpired   ErrorCode = 7002
	ErrTokenInvalid   ErrorCode = 7003
)

// 错误码消息映射
var errorMessages = map[ErrorCode]string{
	ErrUnknown:        "未知错误",
	ErrValidation:     "参数校验失败",
	ErrNotFound:       "资源未找到",
	ErrConflict:       "资源状态冲突",
	ErrForbidden:      "权限不足",
	ErrTimeout:        "操作超时",
	ErrCanceled:       "操作已取消",
	ErrNotImplemented: "功能未实现",

	ErrDieAlreadyUsed:    "骰子已被使用",
	ErrPoolAlreadyExists: "今日骰池已存在",
	ErrPoolStale:         "骰池已过期",
	ErrChallengeInactive: "挑战已结束",
	ErrInvalidDieValue:   "骰子点数必须在1到6之间",
	ErrInvalidD20Value:   "d20点数必须在1到20之间",
	ErrInvalidDiceCount:  "骰子数量与每日上限不符",
	ErrCharacterExists:   "该战役中已有角色",

	ErrWebSocketConnect: "WebSocket连接失败",
	ErrWebSocketSend:    "WebSocket发送失败",
	ErrWebSocketClosed:  "WebSocket连接已关闭",
	ErrMessageFormat:    "消息格式错误",

	ErrDatabaseConnect: "数据库连接失败",
	ErrDatabaseQuery:   "数据库查询失败",
	ErrDatabaseInsert:  "数据库插入失败",
	ErrDatabaseUpdate:  "数据库更新失败",
	ErrTransaction:     "事务处理失败",

	ErrConfigLoad:     "配置加载失败",
	ErrConfigValidate: "配置验证失败",

	ErrAuthentication: "认证失败",
	ErrTokenExpired:   "令牌已过期",
	ErrTokenInvalid:   "无效的令牌",
}

// 细分错误码到基础分类的映射
var kindOf = map[ErrorCode]ErrorCode{
	ErrDieAlreadyUsed:    ErrConflict,
	ErrPoolAlreadyExists: ErrConflict,
	ErrPoolStale:         ErrConflict,
	ErrChallengeInactive: ErrConflict,
	ErrCharacterExists:   ErrConflict,
	ErrInvalidDieValue:   ErrValidation,
	ErrInvalidD20Value:   ErrValidation,
	ErrInvalidDiceCount:  ErrValidation,
}

// AppError 应用错误结构
type AppError struct {
	Code    ErrorCode    `json:"code"`
	Message string       `json:"message"`
	Details string       `json:"details"`
	Cause   error        `json:"-"`
	Stack   []StackFrame `json:"stack,omitempty"`
}

// StackFrame 调用栈帧
type StackFrame struct {
	Function string `json:"function"`
	File     string `json:"file"`
	Line     int    `json:"line"`
}

// Error 实现error接口
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%d] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 返回原始错误
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Kind 返回基础分类（校验/冲突/禁止/未找到等）
func (e *AppError) Kind() ErrorCode {
	if k, ok := kindOf[e.Code]; ok {
		return k
	}
	return e.Code
}

// WithDetails 添加详细信息
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithCause 添加原因错误
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	if cause != nil && e.Details == "" {
		e.Details = cause.Error()
	}
	return e
}

// New 创建新的应用错误
func New(code ErrorCode, details ...string) *AppError {
	message, ok := errorMessages[code]
	if !ok {
		message = errorMessages[ErrUnknown]
	}

	err := &AppError{
		Code:    code,
		Message: message,
	}

	if len(details) > 0 {
		err.Details = strings.Join(details, "; ")
	}

	err.captureStack(2)

	return err
}

// Newf 创建格式化的应用错误
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	details := fmt.Sprintf(format, args...)
	return New(code, details)
}

// Validation 创建校验错误
func Validation(format string, args ...interface{}) *AppError {
	return Newf(ErrValidation, format, args...)
}

// NotFound 创建未找到错误
func NotFound(format string, args ...interface{}) *AppError {
	return Newf(ErrNotFound, format, args...)
}

// Forbidden 创建权限错误
func Forbidden(format string, args ...interface{}) *AppError {
	return Newf(ErrForbidden, format, args...)
}

// Conflict 创建冲突错误
func Conflict(format string, args ...interface{}) *AppError {
	return Newf(ErrConflict, format, args...)
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, details ...string) *AppError {
	if err == nil {
		return nil
	}

	// 如果已经是AppError，保留原始错误码
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		if len(details) > 0 {
			appErr.Details = strings.Join(details, "; ") + "; " + appErr.Details
		}
		return appErr
	}

	appErr = New(code, details...)
	appErr.Cause = err
	if appErr.Details == "" {
		appErr.Details = err.Error()
	}

	return appErr
}

// Wrapf 包装格式化错误
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	details := fmt.Sprintf(format, args...)
	return Wrap(err, code, details)
}

// As 提取AppError
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is 判断错误是否为指定错误码，基础分类同样匹配
func Is(err error, code ErrorCode) bool {
	appErr, ok := As(err)
	if !ok {
		return false
	}
	return appErr.Code == code || appErr.Kind() == code
}

// GetCode 获取错误码
func GetCode(err error) ErrorCode {
	if err == nil {
		return 0
	}

	if appErr, ok := As(err); ok {
		return appErr.Code
	}

	return ErrUnknown
}

// captureStack 捕获调用栈
func (e *AppError) captureStack(skip int) {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip+1, pcs)

	if n > 0 {
		frames := runtime.CallersFrames(pcs[:n])
		for {
			frame, more := frames.Next()

			// 跳过runtime和本包的调用
			if strings.Contains(frame.Function, "runtime.") ||
				strings.Contains(frame.Function, "github.com/wfunc/fate-dice/internal/errors") {
				if !more {
					break
				}
				continue
			}

			e.Stack = append(e.Stack, StackFrame{
				Function: frame.Function,
				File:     frame.File,
				Line:     frame.Line,
			})

			if !more || len(e.Stack) >= 10 {
				break
			}
		}
	}
}

// GetStack 获取格式化的调用栈
func (e *AppError) GetStack() string {
	if len(e.Stack) == 0 {
		return ""
	}

	var builder strings.Builder
	for i, frame := range e.Stack {
		builder.WriteString(fmt.Sprintf("%d. %s\n   %s:%d\n",
			i+1, frame.Function, frame.File, frame.Line))
	}

	return builder.String()
}

// HTTPStatus 返回对应的HTTP状态码
func (e *AppError) HTTPStatus() int {
	switch e.Kind() {
	case ErrValidation, ErrMessageFormat:
		return 400
	case ErrNotFound:
		return 404
	case ErrForbidden:
		return 403
	case ErrConflict:
		return 409
	case ErrTimeout:
		return 408
	case ErrAuthentication, ErrTokenExpired, ErrTokenInvalid:
		return 401
	}
	if e.Code >= 5000 && e.Code <= 5999 {
		return 503
	}
	return 500
}

// IsRetryable 判断错误是否可重试
func IsRetryable(err error) bool {
	switch GetCode(err) {
	case ErrTimeout, ErrWebSocketConnect, ErrDatabaseConnect:
		return true
	default:
		return false
	}
}
