package queue

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"TourAdmin/pkg/media"
	"TourAdmin/storage/mq"
)

type memDedup struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newMemDedup() *memDedup { return &memDedup{keys: map[string]bool{}} }

func (m *memDedup) TryLock(_ context.Context, key string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *memDedup) Unlock(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

type countingInvalidator struct {
	calls int
	err   error
}

func (c *countingInvalidator) InvalidateReference(context.Context) error {
	c.calls++
	return c.err
}

func writePNG(t *testing.T, root, key string, w, h int) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(full)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
}

func TestThumbnailHandler(t *testing.T) {
	root := t.TempDir()
	writePNG(t, root, "listings/1.png", 640, 320)

	h := NewThumbnailHandler(root, 320, 0, newMemDedup())
	body, _ := json.Marshal(MediaUploadedMessage{MessageID: "media_1", Key: "listings/1.png"})

	if err := h.Handle(context.Background(), body); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(media.ThumbnailKey("listings/1.png")))); err != nil {
		t.Fatalf("thumbnail not written: %v", err)
	}

	// 重复投递直接确认
	if err := h.Handle(context.Background(), body); err != nil {
		t.Fatalf("duplicate Handle() error = %v", err)
	}
}

func TestThumbnailHandlerDropsBadMessages(t *testing.T) {
	root := t.TempDir()
	h := NewThumbnailHandler(root, 320, 0, nil)

	tests := []struct {
		name string
		body []byte
	}{
		{"not json", []byte("{")},
		{"missing key", []byte(`{"message_id":"m"}`)},
		{"missing file", []byte(`{"message_id":"m","key":"listings/none.png"}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := h.Handle(context.Background(), tt.body); !errors.Is(err, mq.ErrDrop) {
				t.Fatalf("Handle() error = %v, want ErrDrop", err)
			}
		})
	}
}

func TestListingEventHandler(t *testing.T) {
	inv := &countingInvalidator{}
	dedup := newMemDedup()
	h := &ListingEventHandler{Reference: inv, Dedup: dedup}
	body, _ := json.Marshal(ListingEventMessage{MessageID: "listing_1", EventType: ListingCreated, Kind: "tour", ListingID: "9"})

	if err := h.Handle(context.Background(), body); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if err := h.Handle(context.Background(), body); err != nil {
		t.Fatalf("duplicate Handle() error = %v", err)
	}
	if inv.calls != 1 {
		t.Fatalf("invalidations = %d, want 1", inv.calls)
	}
}

func TestListingEventHandlerReleasesMarkOnFailure(t *testing.T) {
	inv := &countingInvalidator{err: errors.New("redis down")}
	dedup := newMemDedup()
	h := &ListingEventHandler{Reference: inv, Dedup: dedup}
	body, _ := json.Marshal(ListingEventMessage{MessageID: "listing_2", EventType: ListingDeleted})

	if err := h.Handle(context.Background(), body); err == nil {
		t.Fatal("expected error so the message is requeued")
	}

	inv.err = nil
	if err := h.Handle(context.Background(), body); err != nil {
		t.Fatalf("retry Handle() error = %v", err)
	}
	if inv.calls != 2 {
		t.Fatalf("invalidations = %d, want 2", inv.calls)
	}
}
