package media

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const thumbDir = "thumb"

// ThumbnailKey 缩略图与原图同桶，位于 thumb 子目录，统一保存为 jpg
func ThumbnailKey(key string) string {
	dir, file := filepath.Split(filepath.FromSlash(key))
	name := file[:len(file)-len(filepath.Ext(file))] + ".jpg"
	return filepath.ToSlash(filepath.Join(dir, thumbDir, name))
}

// Thumbnail 按宽度等比缩放，返回缩略图的 key
func Thumbnail(root, key string, width int) (string, error) {
	src := filepath.Join(root, filepath.FromSlash(key))
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	if img.Bounds().Dx() > width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}

	thumbKey := ThumbnailKey(key)
	dst := filepath.Join(root, filepath.FromSlash(thumbKey))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("failed to create thumbnail directory: %w", err)
	}
	if err := imaging.Save(img, dst, imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("failed to save thumbnail: %w", err)
	}
	return thumbKey, nil
}
