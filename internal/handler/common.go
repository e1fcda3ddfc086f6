package handler

import (
	"context"
	stderrors "errors"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"go.uber.org/zap"

	"TourAdmin/internal/draft"
	"TourAdmin/internal/middleware"
	"TourAdmin/internal/service"
	"TourAdmin/pkg/errors"
	"TourAdmin/pkg/logger"
	"TourAdmin/pkg/response"
)

// writeError 统一输出服务层错误，校验错误附带字段详情
func writeError(ctx context.Context, c *app.RequestContext, err error) {
	var verr *service.ValidationError
	if stderrors.As(err, &verr) {
		response.ErrorWithDetails(ctx, c, errors.ValidationFailed, map[string]interface{}{
			"fields": verr.Fields,
		})
		return
	}

	if _, ok := response.AsDefinition(err); !ok {
		logger.Logger.Error("Request failed",
			zap.String("path", string(c.Path())),
			zap.Error(err),
		)
	}
	response.Error(ctx, c, err)
}

func kindParam(ctx context.Context, c *app.RequestContext) (draft.Kind, bool) {
	kind, ok := draft.ParseKind(c.Param("kind"))
	if !ok {
		response.Error(ctx, c, errors.InvalidKind)
		return "", false
	}
	return kind, true
}

func indexParam(ctx context.Context, c *app.RequestContext, name string) (int, bool) {
	i, err := strconv.Atoi(c.Param(name))
	if err != nil || i < 0 {
		response.Error(ctx, c, errors.Definition{Code: errors.InvalidRequest.Code, Message: "Invalid " + name})
		return 0, false
	}
	return i, true
}

func operatorOf(ctx context.Context, c *app.RequestContext) string {
	operator, _ := middleware.GetOperator(ctx, c)
	return operator
}

// writeSession 返回会话快照
func writeSession(ctx context.Context, c *app.RequestContext, sess *service.Session, err error) {
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	response.Success(ctx, c, sess.Snapshot())
}
