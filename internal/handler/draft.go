package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"TourAdmin/internal/service"
	"TourAdmin/pkg/errors"
	"TourAdmin/pkg/response"
)

// StartCreateDraft 开启创建流程
// POST /v1/admin/:kind/drafts
func StartCreateDraft(ctx context.Context, c *app.RequestContext) {
	kind, ok := kindParam(ctx, c)
	if !ok {
		return
	}
	sess, err := service.Listing().StartCreate(ctx, kind)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	response.Created(ctx, c, sess.Snapshot(), nil)
}

// StartEditDraft 从已保存记录开启编辑流程
// POST /v1/admin/:kind/:id/drafts
func StartEditDraft(ctx context.Context, c *app.RequestContext) {
	kind, ok := kindParam(ctx, c)
	if !ok {
		return
	}
	sess, err := service.Listing().StartEdit(ctx, kind, c.Param("id"))
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	response.Created(ctx, c, sess.Snapshot(), nil)
}

// GetDraft 会话快照
// GET /v1/admin/drafts/:session_id
func GetDraft(ctx context.Context, c *app.RequestContext) {
	sess, err := service.Listing().GetSession(ctx, c.Param("session_id"))
	writeSession(ctx, c, sess, err)
}

// DiscardDraft 放弃草稿
// DELETE /v1/admin/drafts/:session_id
func DiscardDraft(ctx context.Context, c *app.RequestContext) {
	if err := service.Listing().Discard(ctx, c.Param("session_id")); err != nil {
		writeError(ctx, c, err)
		return
	}
	response.NoContent(ctx, c)
}

type setFieldsRequest struct {
	Fields map[string]string `json:"fields"`
}

// SetFields 批量修改标量字段
// PATCH /v1/admin/drafts/:session_id/fields
func SetFields(ctx context.Context, c *app.RequestContext) {
	var req setFieldsRequest
	if err := c.BindJSON(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}
	if len(req.Fields) == 0 {
		response.Error(ctx, c, errors.InvalidRequest)
		return
	}
	sess, err := service.Listing().SetFields(ctx, c.Param("session_id"), req.Fields)
	writeSession(ctx, c, sess, err)
}

type arrayItemRequest struct {
	Value string `json:"value"`
}

// AddArrayItem 列表字段追加空项
// POST /v1/admin/drafts/:session_id/arrays/:field
func AddArrayItem(ctx context.Context, c *app.RequestContext) {
	sess, err := service.Listing().AddArrayItem(ctx, c.Param("session_id"), c.Param("field"))
	writeSession(ctx, c, sess, err)
}

// UpdateArrayItem PUT /v1/admin/drafts/:session_id/arrays/:field/:index
func UpdateArrayItem(ctx context.Context, c *app.RequestContext) {
	index, ok := indexParam(ctx, c, "index")
	if !ok {
		return
	}
	var req arrayItemRequest
	if err := c.BindJSON(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}
	sess, err := service.Listing().UpdateArrayItem(ctx, c.Param("session_id"), c.Param("field"), index, req.Value)
	writeSession(ctx, c, sess, err)
}

// RemoveArrayItem DELETE /v1/admin/drafts/:session_id/arrays/:field/:index
func RemoveArrayItem(ctx context.Context, c *app.RequestContext) {
	index, ok := indexParam(ctx, c, "index")
	if !ok {
		return
	}
	sess, err := service.Listing().RemoveArrayItem(ctx, c.Param("session_id"), c.Param("field"), index)
	writeSession(ctx, c, sess, err)
}

// NextStep 校验当前步骤，未通过时返回 422 与字段错误，不前进；已在最后一步时返回 STEP_NOT_REACHABLE
// POST /v1/admin/drafts/:session_id/next
func NextStep(ctx context.Context, c *app.RequestContext) {
	sess, advanced, err := service.Listing().Next(ctx, c.Param("session_id"))
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	snap := sess.Snapshot()
	if !advanced {
		response.ErrorWithDetails(ctx, c, errors.ValidationFailed, map[string]interface{}{
			"fields":  snap.Errors,
			"session": snap,
		})
		return
	}
	response.Success(ctx, c, snap)
}

// PreviousStep POST /v1/admin/drafts/:session_id/previous
func PreviousStep(ctx context.Context, c *app.RequestContext) {
	sess, err := service.Listing().Previous(ctx, c.Param("session_id"))
	writeSession(ctx, c, sess, err)
}

type jumpRequest struct {
	Step string `json:"step"`
}

// JumpStep 编辑流程中直接跳到指定步骤
// POST /v1/admin/drafts/:session_id/jump
func JumpStep(ctx context.Context, c *app.RequestContext) {
	var req jumpRequest
	if err := c.BindJSON(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}
	sess, err := service.Listing().Jump(ctx, c.Param("session_id"), req.Step)
	writeSession(ctx, c, sess, err)
}

// PreviewDraft GET /v1/admin/drafts/:session_id/preview
func PreviewDraft(ctx context.Context, c *app.RequestContext) {
	preview, err := service.Listing().Preview(ctx, c.Param("session_id"))
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	response.Success(ctx, c, preview)
}

// SubmitDraft 归一化并写入。行程写入失败时仍返回记录，附带警告。
// POST /v1/admin/drafts/:session_id/submit
func SubmitDraft(ctx context.Context, c *app.RequestContext) {
	result, err := service.Listing().Submit(ctx, c.Param("session_id"), operatorOf(ctx, c))
	if err != nil {
		writeError(ctx, c, err)
		return
	}

	meta := map[string]interface{}{
		"itinerary_saved": result.ItinerarySaved,
	}
	if len(result.Warnings) > 0 {
		meta["warnings"] = result.Warnings
	}
	if result.Created {
		response.Created(ctx, c, result.Listing, meta)
		return
	}
	response.SuccessWithMeta(ctx, c, result.Listing, meta)
}
