package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"TourAdmin/internal/service"
	"TourAdmin/pkg/response"
)

// ListReference 下拉框数据，外部存储不可用时返回内置默认值
// GET /v1/admin/reference/:kind
func ListReference(ctx context.Context, c *app.RequestContext) {
	list, err := service.Reference().List(ctx, c.Param("kind"))
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	response.SuccessWithMeta(ctx, c, list.Items, map[string]interface{}{
		"kind":     list.Kind,
		"fallback": list.Fallback,
	})
}
