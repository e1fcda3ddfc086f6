package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/route/param"

	"TourAdmin/internal/draft"
	"TourAdmin/internal/service"
	"TourAdmin/pkg/errors"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		contains []string
	}{
		{
			name:     "validation error carries fields",
			err:      &service.ValidationError{Fields: draft.ErrorMap{"title": "Title is required"}},
			status:   http.StatusUnprocessableEntity,
			contains: []string{"VALIDATION_FAILED", `"fields"`, "Title is required"},
		},
		{
			name:     "wrapped business error",
			err:      fmt.Errorf("%w: gateway timeout", errors.SubmissionFailed),
			status:   http.StatusBadGateway,
			contains: []string{"SUBMISSION_FAILED"},
		},
		{
			name:     "session not found",
			err:      errors.SessionNotFound,
			status:   http.StatusNotFound,
			contains: []string{"SESSION_NOT_FOUND"},
		},
		{
			name:     "plain error is internal",
			err:      fmt.Errorf("boom"),
			status:   http.StatusInternalServerError,
			contains: []string{"INTERNAL_ERROR"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := app.NewContext(0)
			writeError(context.Background(), c, tt.err)

			if got := c.Response.StatusCode(); got != tt.status {
				t.Fatalf("status = %d, want %d", got, tt.status)
			}
			body := string(c.Response.Body())
			for _, want := range tt.contains {
				if !strings.Contains(body, want) {
					t.Fatalf("body %s does not contain %q", body, want)
				}
			}
		})
	}
}

func TestKindParam(t *testing.T) {
	tests := []struct {
		value string
		want  draft.Kind
		ok    bool
	}{
		{"tours", draft.KindTour, true},
		{"events", draft.KindEvent, true},
		{"cruises", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			c := app.NewContext(0)
			c.Params = param.Params{{Key: "kind", Value: tt.value}}

			got, ok := kindParam(context.Background(), c)
			if ok != tt.ok || got != tt.want {
				t.Fatalf("kindParam(%q) = %q, %v; want %q, %v", tt.value, got, ok, tt.want, tt.ok)
			}
			if !ok && c.Response.StatusCode() != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", c.Response.StatusCode())
			}
		})
	}
}

func TestIndexParam(t *testing.T) {
	tests := []struct {
		value string
		want  int
		ok    bool
	}{
		{"0", 0, true},
		{"3", 3, true},
		{"-1", 0, false},
		{"x", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			c := app.NewContext(0)
			c.Params = param.Params{{Key: "index", Value: tt.value}}

			got, ok := indexParam(context.Background(), c, "index")
			if ok != tt.ok || got != tt.want {
				t.Fatalf("indexParam(%q) = %d, %v; want %d, %v", tt.value, got, ok, tt.want, tt.ok)
			}
		})
	}
}
