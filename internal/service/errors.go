package service

import (
	"TourAdmin/internal/draft"
	"TourAdmin/pkg/errors"
)

// ValidationError 校验失败，Fields 为字段路径到提示的映射
type ValidationError struct {
	Fields draft.ErrorMap
}

func (e *ValidationError) Error() string {
	return errors.ValidationFailed.Message
}

func (e *ValidationError) Unwrap() error {
	return errors.ValidationFailed
}

// Warning 不阻断流程的提示
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func warningOf(def errors.Definition) Warning {
	return Warning{Code: def.Code, Message: def.Message}
}
