package queue

// 列表事件类型
const (
	ListingCreated = "listing.created"
	ListingUpdated = "listing.updated"
	ListingDeleted = "listing.deleted"
)

// ListingEventMessage 列表生命周期事件
type ListingEventMessage struct {
	MessageID  string `json:"message_id"`
	EventType  string `json:"event_type"`
	Kind       string `json:"kind"`
	ListingID  string `json:"listing_id"`
	Slug       string `json:"slug,omitempty"`
	Category   string `json:"category,omitempty"`
	Location   string `json:"location,omitempty"`
	Operator   string `json:"operator,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

// MediaUploadedMessage 图片上传完成，worker 据此生成缩略图
type MediaUploadedMessage struct {
	MessageID   string `json:"message_id"`
	Key         string `json:"key"`
	URL         string `json:"url"`
	Bucket      string `json:"bucket"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	OccurredAt  string `json:"occurred_at"`
}
