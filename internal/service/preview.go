package service

import (
	"bytes"
	"context"
	stderrors "errors"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"TourAdmin/internal/draft"
	"TourAdmin/pkg/errors"
)

// 未设置 WithUnsafe，描述中的原始 HTML 会被转义
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// Preview review 步骤展示的内容：提交载荷、描述渲染结果、剩余问题
type Preview struct {
	Payload         *draft.Payload     `json:"payload"`
	Itinerary       []draft.DayPayload `json:"itinerary,omitempty"`
	DescriptionHTML string             `json:"description_html"`
	Errors          draft.ErrorMap     `json:"errors"`
	Ready           bool               `json:"ready"`
}

// Preview 不修改会话。先全量校验，草稿无法归一化时只返回错误，Payload 为空。
func (s *ListingService) Preview(ctx context.Context, id string) (*Preview, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	errs := draft.ValidateAll(sess.Draft)
	payload, err := draft.Normalize(sess.Draft)
	if err != nil {
		if !errs.Empty() {
			return &Preview{
				DescriptionHTML: RenderDescription(strings.TrimSpace(sess.Draft.Description)),
				Errors:          errs,
				Ready:           false,
			}, nil
		}
		if stderrors.Is(err, draft.ErrInvalidPrice) {
			return nil, errors.InvalidPrice
		}
		return nil, err
	}

	return &Preview{
		Payload:         payload,
		Itinerary:       payload.Itinerary,
		DescriptionHTML: RenderDescription(payload.Description),
		Errors:          errs,
		Ready:           errs.Empty(),
	}, nil
}

// RenderDescription 把 markdown 描述渲染为 HTML，失败时退回转义后的原文
func RenderDescription(md string) string {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return html.EscapeString(md)
	}
	return buf.String()
}
