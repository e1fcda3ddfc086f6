package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"TourAdmin/internal/service"
	"TourAdmin/pkg/response"
)

// AddDay POST /v1/admin/drafts/:session_id/days
func AddDay(ctx context.Context, c *app.RequestContext) {
	sess, err := service.Listing().AddDay(ctx, c.Param("session_id"))
	writeSession(ctx, c, sess, err)
}

// RemoveDay 删除后重新编号
// DELETE /v1/admin/drafts/:session_id/days/:index
func RemoveDay(ctx context.Context, c *app.RequestContext) {
	index, ok := indexParam(ctx, c, "index")
	if !ok {
		return
	}
	sess, err := service.Listing().RemoveDay(ctx, c.Param("session_id"), index)
	writeSession(ctx, c, sess, err)
}

// UpdateDay PATCH /v1/admin/drafts/:session_id/days/:index
func UpdateDay(ctx context.Context, c *app.RequestContext) {
	index, ok := indexParam(ctx, c, "index")
	if !ok {
		return
	}
	var req service.DayUpdate
	if err := c.BindJSON(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}
	sess, err := service.Listing().UpdateDay(ctx, c.Param("session_id"), index, req)
	writeSession(ctx, c, sess, err)
}

type moveDayRequest struct {
	Direction string `json:"direction"`
}

// MoveDay 上移或下移一天
// POST /v1/admin/drafts/:session_id/days/:index/move
func MoveDay(ctx context.Context, c *app.RequestContext) {
	index, ok := indexParam(ctx, c, "index")
	if !ok {
		return
	}
	var req moveDayRequest
	if err := c.BindJSON(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}
	sess, err := service.Listing().MoveDay(ctx, c.Param("session_id"), index, req.Direction)
	writeSession(ctx, c, sess, err)
}

type activityRequest struct {
	Text string `json:"text"`
}

// AddActivity 空白内容会被忽略
// POST /v1/admin/drafts/:session_id/days/:index/activities
func AddActivity(ctx context.Context, c *app.RequestContext) {
	index, ok := indexParam(ctx, c, "index")
	if !ok {
		return
	}
	var req activityRequest
	if err := c.BindJSON(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}
	sess, err := service.Listing().AddActivity(ctx, c.Param("session_id"), index, req.Text)
	writeSession(ctx, c, sess, err)
}

// RemoveActivity DELETE /v1/admin/drafts/:session_id/days/:index/activities/:activity
func RemoveActivity(ctx context.Context, c *app.RequestContext) {
	index, ok := indexParam(ctx, c, "index")
	if !ok {
		return
	}
	activity, ok := indexParam(ctx, c, "activity")
	if !ok {
		return
	}
	sess, err := service.Listing().RemoveActivity(ctx, c.Param("session_id"), index, activity)
	writeSession(ctx, c, sess, err)
}

// AddFaq POST /v1/admin/drafts/:session_id/faqs
func AddFaq(ctx context.Context, c *app.RequestContext) {
	sess, err := service.Listing().AddFaq(ctx, c.Param("session_id"))
	writeSession(ctx, c, sess, err)
}

// RemoveFaq DELETE /v1/admin/drafts/:session_id/faqs/:index
func RemoveFaq(ctx context.Context, c *app.RequestContext) {
	index, ok := indexParam(ctx, c, "index")
	if !ok {
		return
	}
	sess, err := service.Listing().RemoveFaq(ctx, c.Param("session_id"), index)
	writeSession(ctx, c, sess, err)
}

// UpdateFaq 请求体为 {"question": "...", "answer": "..."}，可只传其一
// PATCH /v1/admin/drafts/:session_id/faqs/:index
func UpdateFaq(ctx context.Context, c *app.RequestContext) {
	index, ok := indexParam(ctx, c, "index")
	if !ok {
		return
	}
	var fields map[string]string
	if err := c.BindJSON(&fields); err != nil {
		response.BindError(ctx, c, err)
		return
	}
	sess, err := service.Listing().UpdateFaq(ctx, c.Param("session_id"), index, fields)
	writeSession(ctx, c, sess, err)
}
