package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"sync"
	"time"

	"TourAdmin/internal/draft"
	"TourAdmin/internal/queue"
	"TourAdmin/internal/repository"
	"TourAdmin/pkg/media"
)

type memSessions struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemSessions() *memSessions { return &memSessions{data: map[string][]byte{}} }

func (m *memSessions) Save(_ context.Context, id string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[id] = b
	return nil
}

func (m *memSessions) Load(_ context.Context, id string, dest interface{}) (bool, error) {
	m.mu.Lock()
	b, ok := m.data[id]
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dest)
}

func (m *memSessions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

func (m *memSessions) has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[id]
	return ok
}

type memLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMemLocker() *memLocker { return &memLocker{held: map[string]bool{}} }

func (l *memLocker) TryLock(_ context.Context, key string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *memLocker) Unlock(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

// fakeGateway 记录调用顺序，可按方法注入错误
type fakeGateway struct {
	mu sync.Mutex

	calls      []string
	records    map[string]*draft.Record
	lastCreate *draft.Payload
	childDays  []draft.DayPayload
	refItems   []repository.RefItem
	nextID     int

	createErr  error
	updateErr  error
	replaceErr error
	refErr     error
	refCalls   int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{records: map[string]*draft.Record{}, nextID: 100}
}

func (g *fakeGateway) record(call string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, call)
}

func (g *fakeGateway) ListReferenceData(_ context.Context, kind string) ([]repository.RefItem, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refCalls++
	if g.refErr != nil {
		return nil, g.refErr
	}
	return g.refItems, nil
}

func recordFromPayload(id string, kind draft.Kind, p *draft.Payload) *draft.Record {
	return &draft.Record{
		ID:        id,
		Kind:      kind,
		Title:     p.Title,
		Slug:      p.Slug,
		Category:  p.Category,
		EventType: p.EventType,
		Price:     p.Price,
		Status:    p.Status,
		ImageURL:  p.ImageURL,
		Gallery:   p.Gallery,
	}
}

func (g *fakeGateway) Create(_ context.Context, kind draft.Kind, p *draft.Payload) (*draft.Record, error) {
	g.record("create")
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	id := strconv.Itoa(g.nextID)
	g.lastCreate = p
	rec := recordFromPayload(id, kind, p)
	g.records[id] = rec
	return rec, nil
}

func (g *fakeGateway) Update(_ context.Context, kind draft.Kind, id string, p *draft.Payload) (*draft.Record, error) {
	g.record("update:" + id)
	if g.updateErr != nil {
		return nil, g.updateErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.records[id]; !ok {
		return nil, repository.ErrNotFound
	}
	rec := recordFromPayload(id, kind, p)
	g.records[id] = rec
	return rec, nil
}

func (g *fakeGateway) Remove(_ context.Context, _ draft.Kind, id string) (bool, error) {
	g.record("remove:" + id)
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.records[id]
	delete(g.records, id)
	return ok, nil
}

func (g *fakeGateway) GetByID(_ context.Context, _ draft.Kind, id string) (*draft.Record, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.records[id], nil
}

func (g *fakeGateway) ReplaceItinerary(_ context.Context, _ draft.Kind, parentID string, days []draft.DayPayload) error {
	g.record("replace:" + parentID)
	if g.replaceErr != nil {
		return g.replaceErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.childDays = append(g.childDays, days...)
	return nil
}

func (g *fakeGateway) List(_ context.Context, _ draft.Kind, _ repository.ListQuery) ([]draft.Record, int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]draft.Record, 0, len(g.records))
	for _, r := range g.records {
		out = append(out, *r)
	}
	return out, int64(len(out)), nil
}

func (g *fakeGateway) callLog() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

type fakePublisher struct {
	mu       sync.Mutex
	listings []queue.ListingEventMessage
	media    []queue.MediaUploadedMessage
	err      error
}

func (p *fakePublisher) PublishListingEvent(_ context.Context, msg queue.ListingEventMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listings = append(p.listings, msg)
	return p.err
}

func (p *fakePublisher) PublishMediaUploaded(_ context.Context, msg queue.MediaUploadedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.media = append(p.media, msg)
	return p.err
}

// fakeStore 内容为 "bad" 时返回类型错误，"fail" 时返回存储错误
type fakeStore struct {
	n int
}

func (s *fakeStore) Upload(_ context.Context, r io.Reader, bucketHint string) (*media.Object, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	switch {
	case bytes.Equal(data, []byte("bad")):
		return nil, media.ErrInvalidType
	case bytes.Equal(data, []byte("fail")):
		return nil, errors.New("disk full")
	}
	s.n++
	key := bucketHint + "/" + strconv.Itoa(s.n) + ".jpg"
	return &media.Object{Key: key, URL: "https://cdn.test/" + key, Bucket: bucketHint, ContentType: "image/jpeg", Size: int64(len(data))}, nil
}

type fixture struct {
	svc       *ListingService
	gateway   *fakeGateway
	sessions  *memSessions
	locker    *memLocker
	publisher *fakePublisher
}

func newFixture() *fixture {
	f := &fixture{
		gateway:   newFakeGateway(),
		sessions:  newMemSessions(),
		locker:    newMemLocker(),
		publisher: &fakePublisher{},
	}
	f.svc = NewListingService(ListingDeps{
		Gateway:   f.gateway,
		Sessions:  f.sessions,
		Locker:    f.locker,
		Publisher: f.publisher,
		Media:     NewMediaService(&fakeStore{}, f.publisher),
		LockTTL:   time.Second,
	})
	seq := 0
	f.svc.newID = func() string {
		seq++
		return "sess-" + strconv.Itoa(seq)
	}
	return f
}
