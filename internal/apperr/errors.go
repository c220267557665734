// 包 apperr：服务统一的错误分类
// 约束：校验类错误直接提示用户、不重试；NotFound 为非致命提示；ServiceError 携带上游状态用于日志排查
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError：用户输入不合法（空名称、退化多边形等）
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// InvalidInputError：地理编码请求输入不合法，在发出任何网络请求前返回
type InvalidInputError struct {
	Field   string
	Message string
}

func (e *InvalidInputError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Message
	}
	return "invalid input: " + e.Field + ": " + e.Message
}

// NotFoundError：资源不存在或地理编码零结果
type NotFoundError struct {
	Resource string
	Key      string
	// Status 为上游状态，如 ZERO_RESULTS；本地资源缺失时为空
	Status string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// ServiceError：上游失败、缺少凭据或网络错误
type ServiceError struct {
	Provider string
	Status   string
	Code     int
	Message  string
	Err      error
}

func (e *ServiceError) Error() string {
	s := "service error"
	if e.Provider != "" {
		s = e.Provider + ": " + s
	}
	if e.Status != "" {
		s += " status=" + e.Status
	}
	if e.Code != 0 {
		s += fmt.Sprintf(" code=%d", e.Code)
	}
	if e.Message != "" {
		s += ": " + e.Message
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *ServiceError) Unwrap() error { return e.Err }

func Validation(field, msg string) error { return &ValidationError{Field: field, Message: msg} }

func InvalidInput(field, msg string) error { return &InvalidInputError{Field: field, Message: msg} }

func NotFound(resource, key string) error { return &NotFoundError{Resource: resource, Key: key} }

// IsValidation：ValidationError 与 InvalidInputError 都视为校验错误
func IsValidation(err error) bool {
	var v *ValidationError
	var ii *InvalidInputError
	return errors.As(err, &v) || errors.As(err, &ii)
}

func IsInvalidInput(err error) bool {
	var ii *InvalidInputError
	return errors.As(err, &ii)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsService(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}

// AsService：提取 ServiceError，便于记录上游状态
func AsService(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
