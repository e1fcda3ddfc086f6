package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"TourAdmin/internal/repository"
	"TourAdmin/internal/service"
	"TourAdmin/pkg/response"
)

type listListingsRequest struct {
	Q        string `query:"q"`
	Sort     string `query:"sort"`
	Dir      string `query:"dir"`
	Status   string `query:"status"`
	Category string `query:"category"`
	Featured *bool  `query:"featured"`
	Page     int    `query:"page"`
	PerPage  int    `query:"per_page"`
}

// ListListings 列表页
// GET /v1/admin/:kind
func ListListings(ctx context.Context, c *app.RequestContext) {
	kind, ok := kindParam(ctx, c)
	if !ok {
		return
	}

	var req listListingsRequest
	if err := c.BindQuery(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	items, total, q, err := service.Listing().ListListings(ctx, kind, repository.ListQuery{
		Q:        req.Q,
		Sort:     req.Sort,
		Dir:      req.Dir,
		Status:   req.Status,
		Category: req.Category,
		Featured: req.Featured,
		Page:     req.Page,
		PerPage:  req.PerPage,
	})
	if err != nil {
		writeError(ctx, c, err)
		return
	}

	response.SuccessWithMeta(ctx, c, items, map[string]interface{}{
		"total":    total,
		"page":     q.Page,
		"per_page": q.PerPage,
		"sort":     q.Sort,
		"dir":      q.Dir,
	})
}

// GetListing 已保存记录详情
// GET /v1/admin/:kind/:id
func GetListing(ctx context.Context, c *app.RequestContext) {
	kind, ok := kindParam(ctx, c)
	if !ok {
		return
	}
	rec, err := service.Listing().GetListing(ctx, kind, c.Param("id"))
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	response.Success(ctx, c, rec)
}

// DeleteListing 删除记录
// DELETE /v1/admin/:kind/:id
func DeleteListing(ctx context.Context, c *app.RequestContext) {
	kind, ok := kindParam(ctx, c)
	if !ok {
		return
	}
	if err := service.Listing().DeleteListing(ctx, kind, c.Param("id"), operatorOf(ctx, c)); err != nil {
		writeError(ctx, c, err)
		return
	}
	response.NoContent(ctx, c)
}
