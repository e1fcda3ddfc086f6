package router

import (
	"github.com/cloudwego/hertz/pkg/app/server"

	"TourAdmin/config"
	"TourAdmin/internal/handler"
	"TourAdmin/internal/middleware"
)

func Register(h *server.Hertz) {

	h.Use(middleware.RecoverMiddleware())
	h.Use(middleware.CORSMiddleware())
	h.Use(middleware.OpenTelemetryMiddleware())

	// 上传文件与缩略图，由本地存储直接提供
	h.Static("/media", config.Cfg.MediaRoot)

	admin := h.Group("/v1/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.AdminRateLimitMiddleware())

	admin.GET("/reference/:kind", handler.ListReference)
	admin.POST("/uploads", middleware.UploadRateLimitMiddleware(), handler.UploadFiles)

	// 草稿会话路由
	drafts := admin.Group("/drafts/:session_id")
	{
		drafts.GET("", handler.GetDraft)
		drafts.DELETE("", handler.DiscardDraft)
		drafts.PATCH("/fields", handler.SetFields)

		drafts.POST("/arrays/:field", handler.AddArrayItem)
		drafts.PUT("/arrays/:field/:index", handler.UpdateArrayItem)
		drafts.DELETE("/arrays/:field/:index", handler.RemoveArrayItem)

		drafts.POST("/days", handler.AddDay)
		drafts.DELETE("/days/:index", handler.RemoveDay)
		drafts.PATCH("/days/:index", handler.UpdateDay)
		drafts.POST("/days/:index/move", handler.MoveDay)
		drafts.POST("/days/:index/activities", handler.AddActivity)
		drafts.DELETE("/days/:index/activities/:activity", handler.RemoveActivity)

		drafts.POST("/faqs", handler.AddFaq)
		drafts.DELETE("/faqs/:index", handler.RemoveFaq)
		drafts.PATCH("/faqs/:index", handler.UpdateFaq)

		drafts.POST("/next", handler.NextStep)
		drafts.POST("/previous", handler.PreviousStep)
		drafts.POST("/jump", handler.JumpStep)
		drafts.GET("/preview", handler.PreviewDraft)
		drafts.POST("/submit", handler.SubmitDraft)

		drafts.POST("/image", middleware.UploadRateLimitMiddleware(), handler.UploadImage)
		drafts.POST("/gallery", middleware.UploadRateLimitMiddleware(), handler.UploadGallery)
	}

	// 已保存记录路由，:kind 为 tours 或 events
	listings := admin.Group("/:kind")
	{
		listings.GET("", handler.ListListings)
		listings.POST("/drafts", handler.StartCreateDraft)
		listings.GET("/:id", handler.GetListing)
		listings.DELETE("/:id", handler.DeleteListing)
		listings.POST("/:id/drafts", handler.StartEditDraft)
	}
}
