package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"TourAdmin/internal/cache"
	"TourAdmin/internal/repository"
	"TourAdmin/pkg/errors"
)

type memReferenceCache struct {
	data map[string][]byte
}

func (m *memReferenceCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	b, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dest)
}

func (m *memReferenceCache) Set(_ context.Context, key string, value interface{}) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = b
	return nil
}

func TestReferenceFallsBackOnFailure(t *testing.T) {
	gw := newFakeGateway()
	gw.refErr = stderrors.New("store offline")
	svc := NewReferenceService(gw, nil, cache.NewCircuitBreaker("test", 5, time.Minute))

	list, err := svc.List(context.Background(), repository.RefCategory)
	if err != nil {
		t.Fatalf("List must not fail on store errors: %v", err)
	}
	if !list.Fallback || len(list.Items) != 5 || list.Items[0].Name != "Adventure" {
		t.Fatalf("list = %+v", list)
	}
}

func TestReferenceFallsBackOnEmptyStore(t *testing.T) {
	svc := NewReferenceService(newFakeGateway(), nil, nil)

	list, err := svc.List(context.Background(), repository.RefEventType)
	if err != nil {
		t.Fatal(err)
	}
	if !list.Fallback || list.Items[0].Name != "Festival" {
		t.Fatalf("list = %+v", list)
	}
}

func TestReferenceCachesStoreResult(t *testing.T) {
	gw := newFakeGateway()
	gw.refItems = []repository.RefItem{{ID: "1", Name: "Zanzibar"}}
	rc := &memReferenceCache{data: map[string][]byte{}}
	svc := NewReferenceService(gw, rc, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		list, err := svc.List(ctx, repository.RefDestination)
		if err != nil {
			t.Fatal(err)
		}
		if list.Fallback || len(list.Items) != 1 || list.Items[0].Name != "Zanzibar" {
			t.Fatalf("call %d: list = %+v", i, list)
		}
	}
	if gw.refCalls != 1 {
		t.Fatalf("store calls = %d, want 1", gw.refCalls)
	}
}

func TestReferenceUnknownKind(t *testing.T) {
	svc := NewReferenceService(newFakeGateway(), nil, nil)
	_, err := svc.List(context.Background(), "colour")
	if !stderrors.Is(err, errors.InvalidRequest) {
		t.Fatalf("got %v, want InvalidRequest", err)
	}
}
