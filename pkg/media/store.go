package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"TourAdmin/pkg/snowflake"
)

var (
	// ErrInvalidType 不是受支持的图片格式
	ErrInvalidType = errors.New("media: unsupported content type")
	// ErrTooLarge 超过大小限制
	ErrTooLarge = errors.New("media: file too large")
	// ErrEmpty 空文件
	ErrEmpty = errors.New("media: empty file")
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var bucketInvalid = regexp.MustCompile(`[^a-z0-9-]+`)

// Object 已存储的文件
type Object struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Bucket      string `json:"bucket"`
}

// Store 媒体存储。Upload 成功返回后 URL 即可访问。
type Store interface {
	Upload(ctx context.Context, r io.Reader, bucketHint string) (*Object, error)
}

// LocalStore 写入本地目录，由静态文件服务对外提供
type LocalStore struct {
	root          string
	publicURL     string
	maxBytes      int64
	defaultBucket string
}

var _ Store = (*LocalStore)(nil)

func NewLocalStore(root, publicURL string, maxBytes int64, defaultBucket string) *LocalStore {
	return &LocalStore{
		root:          root,
		publicURL:     strings.TrimRight(publicURL, "/"),
		maxBytes:      maxBytes,
		defaultBucket: SanitizeBucket(defaultBucket, "uploads"),
	}
}

func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) Upload(ctx context.Context, r io.Reader, bucketHint string) (*Object, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("media: read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if int64(len(data)) > s.maxBytes {
		return nil, ErrTooLarge
	}

	contentType := DetectContentType(data)
	ext, ok := extensions[contentType]
	if !ok {
		return nil, ErrInvalidType
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name, err := snowflake.NextString()
	if err != nil {
		return nil, fmt.Errorf("media: generate name: %w", err)
	}

	bucket := SanitizeBucket(bucketHint, s.defaultBucket)
	key := path.Join(bucket, name+ext)
	full := filepath.Join(s.root, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, fmt.Errorf("media: create bucket dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return nil, fmt.Errorf("media: write file: %w", err)
	}

	return &Object{
		Key:         key,
		URL:         s.publicURL + "/" + key,
		ContentType: contentType,
		Size:        int64(len(data)),
		Bucket:      bucket,
	}, nil
}

// DetectContentType 只看文件头，不信任客户端声明的类型
func DetectContentType(data []byte) string {
	// http.DetectContentType 不认识 webp 的 VP8 头
	if len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")) {
		return "image/webp"
	}
	ct := http.DetectContentType(data)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return ct
}

// SanitizeBucket 把调用方提示的桶名限制为小写字母、数字和连字符
func SanitizeBucket(hint, fallback string) string {
	b := bucketInvalid.ReplaceAllString(strings.ToLower(strings.TrimSpace(hint)), "-")
	b = strings.Trim(b, "-")
	if b == "" {
		return fallback
	}
	if len(b) > 40 {
		b = b[:40]
	}
	return b
}
