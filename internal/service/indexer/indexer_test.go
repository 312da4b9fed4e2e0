package indexer

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphamail/chatbot/internal/core"
	"github.com/alphamail/chatbot/internal/service/vectorize"
	"github.com/alphamail/chatbot/pkg/retry"
)

var (
	t0  = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	kst = time.FixedZone("KST", 9*3600)
)

// fakeSource serves changes in update order, at most limit per call.
type fakeSource struct {
	mu        sync.Mutex
	limit     int
	orders    []core.PurchaseOrder
	quotes    []core.Quote
	schedules []core.Schedule
	emails    []core.Email
}

func since[T any](rows []T, at func(T) core.Cursor, after core.Cursor, limit int) []T {
	var out []T
	for _, r := range rows {
		if after.Less(at(r)) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return at(out[i]).Less(at(out[j])) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (f *fakeSource) PurchaseOrdersSince(_ context.Context, after core.Cursor) ([]core.PurchaseOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return since(f.orders, func(p core.PurchaseOrder) core.Cursor { return core.Cursor{UpdatedAt: p.UpdatedAt, ID: p.ID} }, after, f.limit), nil
}

func (f *fakeSource) QuotesSince(_ context.Context, after core.Cursor) ([]core.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return since(f.quotes, func(q core.Quote) core.Cursor { return core.Cursor{UpdatedAt: q.UpdatedAt, ID: q.ID} }, after, f.limit), nil
}

func (f *fakeSource) SchedulesSince(_ context.Context, after core.Cursor) ([]core.Schedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return since(f.schedules, func(s core.Schedule) core.Cursor { return core.Cursor{UpdatedAt: s.UpdatedAt, ID: s.ID} }, after, f.limit), nil
}

func (f *fakeSource) EmailsSince(_ context.Context, after core.Cursor) ([]core.Email, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return since(f.emails, func(e core.Email) core.Cursor { return core.Cursor{UpdatedAt: e.UpdatedAt, ID: e.ID} }, after, f.limit), nil
}

type recordingIndex struct {
	mu     sync.Mutex
	docs   map[string]core.VectorDocument
	upsert int
	fail   func(core.VectorDocument) bool
}

func newRecordingIndex() *recordingIndex {
	return &recordingIndex{docs: make(map[string]core.VectorDocument)}
}

func (r *recordingIndex) Upsert(_ context.Context, doc core.VectorDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil && r.fail(doc) {
		return errors.New("index write failed")
	}
	r.upsert++
	r.docs[string(doc.DocumentType)+"/"+doc.ID] = doc
	return nil
}

func (r *recordingIndex) Query(context.Context, core.IndexQuery) ([]core.VectorDocument, error) {
	return nil, nil
}

func (r *recordingIndex) has(dt core.DocumentType, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.docs[string(dt)+"/"+id]
	return ok
}

type memWatermarks struct {
	mu sync.Mutex
	m  map[string]core.Cursor
}

func (w *memWatermarks) Get(_ context.Context, kind string) (core.Cursor, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.m[kind], nil
}

func (w *memWatermarks) Set(_ context.Context, kind string, at core.Cursor) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.m[kind] = at
	return nil
}

func quickRetrier() *retry.Retrier {
	return retry.NewRetrier(&retry.Config{MaxRetries: 1, BackoffFactor: 1, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond})
}

func sampleSource() *fakeSource {
	return &fakeSource{
		limit: 2,
		orders: []core.PurchaseOrder{
			{ID: 1, CompanyID: 7, OrderNo: "PO-1", UpdatedAt: t0.Add(1 * time.Minute)},
			{ID: 2, CompanyID: 7, OrderNo: "PO-2", UpdatedAt: t0.Add(2 * time.Minute)},
			{ID: 3, CompanyID: 8, OrderNo: "PO-3", UpdatedAt: t0.Add(3 * time.Minute)},
		},
		quotes:    []core.Quote{{ID: 1, CompanyID: 7, QuoteNo: "Q-1", UpdatedAt: t0.Add(time.Minute)}},
		schedules: []core.Schedule{{ID: 1, UserID: 3, Name: "회의", UpdatedAt: t0.Add(time.Minute)}},
		emails:    []core.Email{{ID: 1, UserID: 3, Subject: "안녕하세요", UpdatedAt: t0.Add(time.Minute)}},
	}
}

func TestIndex(t *testing.T) {
	idx := newRecordingIndex()
	ix := NewIndexer(idx, nil, kst)

	require.NoError(t, ix.Index(context.Background(), vectorize.ScheduleAdapter{Schedule: core.Schedule{ID: 9, UserID: 3, Name: "출장"}}))
	doc := idx.docs["SCHEDULE/9"]
	assert.Equal(t, core.OwnerTypeUser, doc.OwnerType)
	assert.Equal(t, int64(3), doc.OwnerID)
	assert.Contains(t, doc.Text, "출장")
}

func TestIndexRendersInConfiguredZone(t *testing.T) {
	idx := newRecordingIndex()
	ix := NewIndexer(idx, nil, kst)
	start := time.Date(2025, 5, 24, 1, 0, 0, 0, time.UTC)

	require.NoError(t, ix.Index(context.Background(), vectorize.ScheduleAdapter{Schedule: core.Schedule{ID: 9, UserID: 3, Name: "출장", StartTime: start}}))
	assert.Contains(t, idx.docs["SCHEDULE/9"].Text, "시작 시간: 2025-05-24 10:00\n")
}

func TestReindexDrainsAllKinds(t *testing.T) {
	idx := newRecordingIndex()
	ix := NewIndexer(idx, sampleSource(), nil)

	n, err := ix.Reindex(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.True(t, idx.has(core.DocumentTypePurchaseOrder, "3"))
	assert.True(t, idx.has(core.DocumentTypeEmail, "1"))

	n, err = ix.Reindex(context.Background(), t0.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestWorkerAdvancesWatermarks(t *testing.T) {
	ctx := context.Background()
	src := sampleSource()
	idx := newRecordingIndex()
	wm := &memWatermarks{m: make(map[string]core.Cursor)}
	w := NewWorker(NewIndexer(idx, src, nil), wm, time.Hour)

	w.RunOnce(ctx)
	assert.Equal(t, 6, idx.upsert)
	assert.Equal(t, core.Cursor{UpdatedAt: t0.Add(3 * time.Minute), ID: 3}, wm.m[KindPurchaseOrder])
	assert.Equal(t, core.Cursor{UpdatedAt: t0.Add(time.Minute), ID: 1}, wm.m[KindEmail])

	w.RunOnce(ctx)
	assert.Equal(t, 6, idx.upsert)

	src.mu.Lock()
	src.schedules = append(src.schedules, core.Schedule{ID: 2, UserID: 3, Name: "리뷰", UpdatedAt: t0.Add(time.Hour)})
	src.mu.Unlock()

	w.RunOnce(ctx)
	assert.Equal(t, 7, idx.upsert)
	assert.True(t, idx.has(core.DocumentTypeSchedule, "2"))
	assert.Equal(t, core.Cursor{UpdatedAt: t0.Add(time.Hour), ID: 2}, wm.m[KindSchedule])
}

func TestWorkerFailureKeepsUnindexedSiblings(t *testing.T) {
	ctx := context.Background()
	same := t0.Add(5 * time.Minute)
	src := &fakeSource{orders: []core.PurchaseOrder{
		{ID: 1, CompanyID: 7, UpdatedAt: t0.Add(time.Minute)},
		{ID: 2, CompanyID: 7, UpdatedAt: same},
		{ID: 3, CompanyID: 7, UpdatedAt: same},
	}}

	idx := newRecordingIndex()
	broken := true
	idx.fail = func(d core.VectorDocument) bool { return broken && d.ID == "3" }

	ix := NewIndexer(idx, src, nil)
	ix.retrier = quickRetrier()
	wm := &memWatermarks{m: make(map[string]core.Cursor)}
	w := NewWorker(ix, wm, time.Hour)

	w.RunOnce(ctx)
	assert.True(t, idx.has(core.DocumentTypePurchaseOrder, "2"))
	assert.False(t, idx.has(core.DocumentTypePurchaseOrder, "3"))
	assert.Equal(t, core.Cursor{UpdatedAt: same, ID: 2}, wm.m[KindPurchaseOrder])

	idx.mu.Lock()
	broken = false
	idx.mu.Unlock()

	w.RunOnce(ctx)
	assert.True(t, idx.has(core.DocumentTypePurchaseOrder, "3"))
	assert.Equal(t, core.Cursor{UpdatedAt: same, ID: 3}, wm.m[KindPurchaseOrder])
}

func tiedOrders(n int, at time.Time) []core.PurchaseOrder {
	out := make([]core.PurchaseOrder, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, core.PurchaseOrder{ID: int64(i), CompanyID: 7, UpdatedAt: at})
	}
	return out
}

func TestReindexPagesThroughSharedTimestamp(t *testing.T) {
	idx := newRecordingIndex()
	ix := NewIndexer(idx, &fakeSource{limit: 2, orders: tiedOrders(5, t0.Add(time.Minute))}, nil)

	n, err := ix.Reindex(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	for _, id := range []string{"1", "2", "3", "4", "5"} {
		assert.True(t, idx.has(core.DocumentTypePurchaseOrder, id), "order %s", id)
	}
}

func TestWorkerPagesThroughSharedTimestamp(t *testing.T) {
	ctx := context.Background()
	same := t0.Add(time.Minute)
	src := &fakeSource{limit: 2, orders: tiedOrders(5, same)}
	idx := newRecordingIndex()
	wm := &memWatermarks{m: make(map[string]core.Cursor)}
	w := NewWorker(NewIndexer(idx, src, nil), wm, time.Hour)

	w.RunOnce(ctx)
	assert.Equal(t, 5, idx.upsert)
	assert.Equal(t, core.Cursor{UpdatedAt: same, ID: 5}, wm.m[KindPurchaseOrder])

	src.mu.Lock()
	src.orders = append(src.orders, core.PurchaseOrder{ID: 6, CompanyID: 7, UpdatedAt: same})
	src.mu.Unlock()

	w.RunOnce(ctx)
	assert.Equal(t, 6, idx.upsert)
	assert.True(t, idx.has(core.DocumentTypePurchaseOrder, "6"))
}

func TestWorkerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := NewWorker(NewIndexer(newRecordingIndex(), &fakeSource{}, nil), &memWatermarks{m: map[string]core.Cursor{}}, time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
