package response

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"

	"TourAdmin/pkg/errors"
)

// ErrorResponse 统一的错误响应格式
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Details map[string]interface{} `json:"details,omitempty"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
}

// SuccessResponse 统一的成功响应格式
type SuccessResponse struct {
	Data interface{}            `json:"data"`
	Meta map[string]interface{} `json:"meta,omitempty"`
}

// AsDefinition 取出错误链中的业务错误；其它错误按内部错误处理。
func AsDefinition(err error) (errors.Definition, bool) {
	var def errors.Definition
	if stderrors.As(err, &def) {
		return def, true
	}
	return errors.InternalError, false
}

// StatusFor 业务错误码到 HTTP 状态码的映射。
func StatusFor(code string) int {
	switch code {
	case errors.ValidationFailed.Code, errors.InvalidPrice.Code:
		return http.StatusUnprocessableEntity // 422
	case errors.InvalidRequest.Code, errors.InvalidKind.Code,
		errors.UnknownField.Code, errors.StepNotReachable.Code:
		return http.StatusBadRequest // 400
	case errors.Unauthorized.Code:
		return http.StatusUnauthorized // 401
	case errors.SessionNotFound.Code, errors.ListingNotFound.Code:
		return http.StatusNotFound // 404
	case errors.SubmitInProgress.Code:
		return http.StatusConflict // 409
	case errors.UploadTooLarge.Code:
		return http.StatusRequestEntityTooLarge // 413
	case errors.UploadInvalidType.Code:
		return http.StatusUnsupportedMediaType // 415
	case errors.RateLimited.Code:
		return http.StatusTooManyRequests // 429
	case errors.SubmissionFailed.Code, errors.UploadFailed.Code:
		return http.StatusBadGateway // 502
	default:
		return http.StatusInternalServerError // 500
	}
}

// Error 返回错误响应
func Error(ctx context.Context, c *app.RequestContext, err error) {
	ErrorWithDetails(ctx, c, err, nil)
}

func ErrorWithDetails(ctx context.Context, c *app.RequestContext, err error, details map[string]interface{}) {
	def, ok := AsDefinition(err)
	message := def.Message
	if !ok && err != nil {
		message = err.Error()
	}

	c.JSON(StatusFor(def.Code), ErrorResponse{
		Error: ErrorDetail{
			Code:    def.Code,
			Message: message,
			Details: details,
		},
	})
}

func Success(ctx context.Context, c *app.RequestContext, data interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{
		Data: data,
	})
}

func SuccessWithMeta(ctx context.Context, c *app.RequestContext, data interface{}, meta map[string]interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{
		Data: data,
		Meta: meta,
	})
}

// Created 返回 201
func Created(ctx context.Context, c *app.RequestContext, data interface{}, meta map[string]interface{}) {
	c.JSON(http.StatusCreated, SuccessResponse{
		Data: data,
		Meta: meta,
	})
}

func BindError(ctx context.Context, c *app.RequestContext, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error: ErrorDetail{
			Code:    errors.InvalidRequest.Code,
			Message: err.Error(),
		},
	})
}

// NoContent 返回 204 No Content（用于 DELETE 等操作）
func NoContent(ctx context.Context, c *app.RequestContext) {
	c.Status(http.StatusNoContent)
}
