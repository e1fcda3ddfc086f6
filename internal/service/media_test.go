package service

import (
	"context"
	"io"
	"strings"
	"testing"

	"TourAdmin/internal/draft"
	"TourAdmin/pkg/errors"
)

func TestAttachImageCommitsOnlyAfterUpload(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := startTour(t, f)
	mustOK(t)(f.svc.SetFields(ctx, id, map[string]string{"image_url": "https://cdn.test/old.jpg"}))

	_, err := f.svc.AttachImage(ctx, id, strings.NewReader("bad"))
	if defOf(t, err).Code != errors.UploadInvalidType.Code {
		t.Fatalf("got %v, want UPLOAD_INVALID_TYPE", err)
	}
	sess, _ := f.svc.GetSession(ctx, id)
	if sess.Draft.ImageURL != "https://cdn.test/old.jpg" {
		t.Fatalf("image_url changed to %q after failed upload", sess.Draft.ImageURL)
	}

	sess, err = f.svc.AttachImage(ctx, id, strings.NewReader("jpeg-bytes"))
	if err != nil {
		t.Fatal(err)
	}
	if sess.Draft.ImageURL != "https://cdn.test/tours/1.jpg" {
		t.Fatalf("image_url = %q", sess.Draft.ImageURL)
	}
	if len(f.publisher.media) != 1 || f.publisher.media[0].Key != "tours/1.jpg" {
		t.Fatalf("media events = %+v", f.publisher.media)
	}
}

func TestAttachGalleryAllOrNothing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := startTour(t, f)

	_, err := f.svc.AttachGallery(ctx, id, []io.Reader{strings.NewReader("a"), strings.NewReader("fail")})
	if defOf(t, err).Code != errors.UploadFailed.Code {
		t.Fatalf("got %v, want UPLOAD_FAILED", err)
	}
	sess, _ := f.svc.GetSession(ctx, id)
	if len(sess.Draft.Gallery) != 0 {
		t.Fatalf("gallery = %v, want empty after failed batch", sess.Draft.Gallery)
	}

	sess, err = f.svc.AttachGallery(ctx, id, []io.Reader{strings.NewReader("a"), strings.NewReader("b")})
	if err != nil {
		t.Fatal(err)
	}
	if len(sess.Draft.Gallery) != 2 {
		t.Fatalf("gallery = %v", sess.Draft.Gallery)
	}
}

func TestAttachImageRejectedWhileUploadRuns(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sess, _ := f.svc.StartCreate(ctx, draft.KindEvent)
	_, _ = f.locker.TryLock(ctx, "upload:"+sess.ID, 0)

	_, err := f.svc.AttachImage(ctx, sess.ID, strings.NewReader("x"))
	if defOf(t, err).Code != errors.SubmitInProgress.Code {
		t.Fatalf("got %v, want SUBMIT_IN_PROGRESS", err)
	}
}

func TestUploadFilesRequiresFiles(t *testing.T) {
	svc := NewMediaService(&fakeStore{}, nil)
	if _, err := svc.UploadFiles(context.Background(), nil, "x"); err != errors.InvalidRequest {
		t.Fatalf("got %v, want InvalidRequest", err)
	}
}
