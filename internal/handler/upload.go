package handler

import (
	"context"
	"io"
	"mime/multipart"

	"github.com/cloudwego/hertz/pkg/app"
	"go.uber.org/zap"

	"TourAdmin/internal/service"
	"TourAdmin/pkg/errors"
	"TourAdmin/pkg/logger"
	"TourAdmin/pkg/response"
)

// openFiles 打开表单中的文件，调用方负责关闭
func openFiles(headers []*multipart.FileHeader) ([]io.Reader, func(), error) {
	files := make([]multipart.File, 0, len(headers))
	closeAll := func() {
		for _, f := range files {
			if err := f.Close(); err != nil {
				logger.Logger.Warn("Failed to close upload", zap.Error(err))
			}
		}
	}

	readers := make([]io.Reader, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		files = append(files, f)
		readers = append(readers, f)
	}
	return readers, closeAll, nil
}

func formFiles(ctx context.Context, c *app.RequestContext, field string) ([]io.Reader, func(), bool) {
	form, err := c.MultipartForm()
	if err != nil {
		response.BindError(ctx, c, err)
		return nil, nil, false
	}
	headers := form.File[field]
	if len(headers) == 0 {
		response.Error(ctx, c, errors.Definition{Code: errors.InvalidRequest.Code, Message: "Missing form field " + field})
		return nil, nil, false
	}
	readers, closeAll, err := openFiles(headers)
	if err != nil {
		writeError(ctx, c, errors.UploadFailed)
		return nil, nil, false
	}
	return readers, closeAll, true
}

// UploadImage 上传封面图，存储确认后才写入草稿
// POST /v1/admin/drafts/:session_id/image
func UploadImage(ctx context.Context, c *app.RequestContext) {
	header, err := c.FormFile("file")
	if err != nil {
		response.BindError(ctx, c, err)
		return
	}
	readers, closeAll, err := openFiles([]*multipart.FileHeader{header})
	if err != nil {
		writeError(ctx, c, errors.UploadFailed)
		return
	}
	defer closeAll()

	sess, err := service.Listing().AttachImage(ctx, c.Param("session_id"), readers[0])
	writeSession(ctx, c, sess, err)
}

// UploadGallery 批量上传图集，全部成功才追加
// POST /v1/admin/drafts/:session_id/gallery
func UploadGallery(ctx context.Context, c *app.RequestContext) {
	readers, closeAll, ok := formFiles(ctx, c, "files")
	if !ok {
		return
	}
	defer closeAll()

	sess, err := service.Listing().AttachGallery(ctx, c.Param("session_id"), readers)
	writeSession(ctx, c, sess, err)
}

// UploadFiles 通用上传，表单字段 files，可选 bucket
// POST /v1/admin/uploads
func UploadFiles(ctx context.Context, c *app.RequestContext) {
	readers, closeAll, ok := formFiles(ctx, c, "files")
	if !ok {
		return
	}
	defer closeAll()

	objects, err := service.Media().UploadFiles(ctx, readers, c.PostForm("bucket"))
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	response.Created(ctx, c, objects, nil)
}
