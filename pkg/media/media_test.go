package media

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	"TourAdmin/pkg/snowflake"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func newStore(t *testing.T, maxBytes int64) *LocalStore {
	t.Helper()
	if err := snowflake.Init(1); err != nil {
		t.Fatalf("snowflake init: %v", err)
	}
	return NewLocalStore(t.TempDir(), "http://cdn.test/media/", maxBytes, "listings")
}

func TestLocalStoreUpload(t *testing.T) {
	s := newStore(t, 1<<20)

	obj, err := s.Upload(context.Background(), bytes.NewReader(pngBytes(t, 4, 4)), "Tour Gallery!")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if obj.ContentType != "image/png" || obj.Bucket != "tour-gallery" {
		t.Fatalf("unexpected object %+v", obj)
	}
	if !strings.HasPrefix(obj.URL, "http://cdn.test/media/tour-gallery/") || !strings.HasSuffix(obj.URL, ".png") {
		t.Fatalf("URL = %q", obj.URL)
	}
	if _, err := os.Stat(filepath.Join(s.Root(), filepath.FromSlash(obj.Key))); err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
}

func TestLocalStoreRejects(t *testing.T) {
	s := newStore(t, 64)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrEmpty},
		{"text", []byte("just some plain text, not an image"), ErrInvalidType},
		{"too large", append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 100)...), ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Upload(context.Background(), bytes.NewReader(tt.data), "")
			if !errors.Is(err, tt.want) {
				t.Fatalf("Upload() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDetectContentTypeWebP(t *testing.T) {
	data := []byte("RIFF\x00\x00\x00\x00WEBPVP8 ")
	if got := DetectContentType(data); got != "image/webp" {
		t.Fatalf("DetectContentType() = %q", got)
	}
}

func TestSanitizeBucket(t *testing.T) {
	tests := map[string]string{
		"":               "fallback",
		"  Events  ":     "events",
		"../../etc":      "etc",
		"tour_gallery 1": "tour-gallery-1",
	}
	for in, want := range tests {
		if got := SanitizeBucket(in, "fallback"); got != want {
			t.Fatalf("SanitizeBucket(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestThumbnail(t *testing.T) {
	s := newStore(t, 1<<20)
	obj, err := s.Upload(context.Background(), bytes.NewReader(pngBytes(t, 600, 300)), "listings")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	thumbKey, err := Thumbnail(s.Root(), obj.Key, 300)
	if err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}
	if thumbKey != ThumbnailKey(obj.Key) {
		t.Fatalf("thumb key = %q", thumbKey)
	}

	img, err := imaging.Open(filepath.Join(s.Root(), filepath.FromSlash(thumbKey)))
	if err != nil {
		t.Fatalf("open thumbnail: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 300 || b.Dy() != 150 {
		t.Fatalf("thumbnail size = %dx%d, want 300x150", b.Dx(), b.Dy())
	}
}

func TestThumbnailKey(t *testing.T) {
	if got := ThumbnailKey("listings/123.png"); got != "listings/thumb/123.jpg" {
		t.Fatalf("ThumbnailKey() = %q", got)
	}
}
