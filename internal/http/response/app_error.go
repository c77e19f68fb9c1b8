package response

import "github.com/bookstore-next/internal/i18n"

// AppError 业务错误：响应码、消息 key 与原始错误
type AppError struct {
	Code int
	Key  string
	Err  error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Key
	}
	return e.Key + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Message 按语言解析消息
func (e *AppError) Message(locale string) string {
	return i18n.T(locale, e.Key)
}

// NewAppError 创建业务错误
func NewAppError(code int, key string, err error) *AppError {
	return &AppError{Code: code, Key: key, Err: err}
}
