package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound 表示目标行不存在。
	ErrNotFound = errors.New("record not found")
	// ErrStoreUnavailable 表示内容存储未配置或无法连接。
	ErrStoreUnavailable = errors.New("content store unavailable")
	// ErrNetwork 表示与服务端之间的传输失败。
	ErrNetwork = errors.New("network error")
	// ErrAuthRequired 表示需要（重新）登录。
	ErrAuthRequired = errors.New("unauthorized")
)

// ValidationError 描述一个字段级别的校验失败。
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidation 判断 err 链中是否包含 ValidationError。
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
