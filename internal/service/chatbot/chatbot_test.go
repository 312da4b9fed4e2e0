package chatbot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphamail/chatbot/internal/core"
)

type fakeClassifier struct {
	result *core.ClassificationResult
	zone   string
	now    time.Time
}

func (f *fakeClassifier) Classify(_ context.Context, _ string, zone string, now time.Time) *core.ClassificationResult {
	f.zone = zone
	f.now = now
	return f.result
}

type fakeExtractor struct {
	out     core.ExtractedSchedule
	err     error
	calls   int
	message string
	now     time.Time
}

func (f *fakeExtractor) ExtractSchedule(_ context.Context, message string, now time.Time) (core.ExtractedSchedule, error) {
	f.calls++
	f.message = message
	f.now = now
	return f.out, f.err
}

type fakeSearcher struct {
	got   core.RetrievalQuery
	calls int
	err   error
}

func (f *fakeSearcher) Search(_ context.Context, q core.RetrievalQuery) (core.ChatResponse, error) {
	f.calls++
	f.got = q
	if f.err != nil {
		return core.ChatResponse{}, f.err
	}
	return core.ChatResponse{Kind: core.ResponseSearch, Answer: "found", DocumentIDs: []string{"1"}}, nil
}

type fakeCreator struct {
	userID int64
	calls  int
	err    error
}

func (f *fakeCreator) Create(_ context.Context, s core.ExtractedSchedule, userID int64) (int64, error) {
	f.calls++
	f.userID = userID
	if f.err != nil {
		return 0, f.err
	}
	return 55, nil
}

type fakeDirectory struct {
	company int64
	err     error
	calls   int
}

func (f *fakeDirectory) ResolveCompanyForUser(context.Context, int64) (int64, error) {
	f.calls++
	return f.company, f.err
}

type harness struct {
	classifier *fakeClassifier
	extractor  *fakeExtractor
	searcher   *fakeSearcher
	creator    *fakeCreator
	directory  *fakeDirectory
	orch       *Orchestrator
}

var utcNow = time.Date(2025, 5, 1, 1, 0, 0, 0, time.UTC)

func newHarness(result *core.ClassificationResult) *harness {
	h := &harness{
		classifier: &fakeClassifier{result: result},
		extractor:  &fakeExtractor{},
		searcher:   &fakeSearcher{},
		creator:    &fakeCreator{},
		directory:  &fakeDirectory{company: 42},
	}
	h.orch = NewOrchestrator(h.classifier, h.extractor, h.searcher, h.creator, h.directory, Options{
		DefaultTimezone: "Asia/Seoul",
		TopK:            5,
		Now:             func() time.Time { return utcNow },
	})
	return h
}

func (h *harness) downstreamCalls() int {
	return h.extractor.calls + h.searcher.calls + h.creator.calls + h.directory.calls
}

func ptr[T any](v T) *T { return &v }

func TestHandleDefaults(t *testing.T) {
	for _, result := range []*core.ClassificationResult{nil, {Category: core.CategoryUnknown}} {
		h := newHarness(result)
		resp, err := h.orch.Handle(context.Background(), 3, core.ChatRequest{Message: "안녕"})
		require.NoError(t, err)
		assert.Equal(t, core.ResponseDefault, resp.Kind)
		assert.Equal(t, DefaultAnswer, resp.Answer)
		assert.Zero(t, h.downstreamCalls())
	}
}

func TestHandleCreate(t *testing.T) {
	h := newHarness(&core.ClassificationResult{Category: core.CategoryCreateSchedule, Message: "기획회의 일정 등록"})
	kst := time.FixedZone("KST", 9*3600)
	h.extractor.out = core.ExtractedSchedule{Name: ptr("기획회의"), StartTime: ptr(time.Date(2025, 5, 24, 10, 0, 0, 0, kst))}

	resp, err := h.orch.Handle(context.Background(), 3, core.ChatRequest{Message: "  2025년 5월 24일 10시 기획회의 잡아줘 ", Timezone: "+09:00"})
	require.NoError(t, err)
	assert.Equal(t, core.ResponseCreate, resp.Kind)
	assert.Equal(t, int64(55), resp.ScheduleID)
	assert.Equal(t, "'기획회의' 일정을 2025년 5월 24일 (토) 10:00에 등록했어요.", resp.Answer)

	assert.Equal(t, int64(3), h.creator.userID)
	assert.Equal(t, "2025년 5월 24일 10시 기획회의 잡아줘", h.extractor.message)
	assert.Equal(t, 10, h.extractor.now.Hour())
	assert.Zero(t, h.searcher.calls)
}

func TestHandleCreateRejected(t *testing.T) {
	h := newHarness(&core.ClassificationResult{Category: core.CategoryCreateSchedule, Message: "회의"})
	h.creator.err = fmt.Errorf("%w: missing startTime", core.ErrInvalidSchedule)

	_, err := h.orch.Handle(context.Background(), 3, core.ChatRequest{Message: "회의 잡아줘"})
	assert.ErrorIs(t, err, core.ErrExtractionIncomplete)
}

func TestHandleCreateExtractionFailure(t *testing.T) {
	h := newHarness(&core.ClassificationResult{Category: core.CategoryCreateSchedule, Message: "회의"})
	h.extractor.err = fmt.Errorf("%w: timeout", core.ErrGenerationFailure)

	_, err := h.orch.Handle(context.Background(), 3, core.ChatRequest{Message: "회의 잡아줘"})
	assert.ErrorIs(t, err, core.ErrGenerationFailure)
	assert.Zero(t, h.creator.calls)
}

func TestHandleSearchScopes(t *testing.T) {
	tests := []struct {
		category  core.Category
		docType   core.DocumentType
		scope     core.OwnerScope
		directory int
	}{
		{core.CategorySearchSchedule, core.DocumentTypeSchedule, core.OwnerScope{OwnerID: 3, OwnerType: core.OwnerTypeUser}, 0},
		{core.CategorySearchPurchaseOrder, core.DocumentTypePurchaseOrder, core.OwnerScope{OwnerID: 42, OwnerType: core.OwnerTypeCompany}, 1},
		{core.CategorySearchQuote, core.DocumentTypeQuote, core.OwnerScope{OwnerID: 42, OwnerType: core.OwnerTypeCompany}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.category.String(), func(t *testing.T) {
			h := newHarness(&core.ClassificationResult{Category: tt.category, Message: "찾아줘"})

			resp, err := h.orch.Handle(context.Background(), 3, core.ChatRequest{Message: "찾아줘", Timezone: "Asia/Seoul"})
			require.NoError(t, err)
			assert.Equal(t, core.ResponseSearch, resp.Kind)

			assert.Equal(t, tt.docType, h.searcher.got.DocumentType)
			assert.Equal(t, tt.scope, h.searcher.got.Scope)
			assert.Equal(t, int64(3), h.searcher.got.UserID)
			assert.Equal(t, 5, h.searcher.got.TopK)
			assert.Equal(t, "Asia/Seoul", h.searcher.got.Timezone)
			assert.Equal(t, tt.directory, h.directory.calls)
		})
	}
}

func TestHandleDirectoryFailure(t *testing.T) {
	h := newHarness(&core.ClassificationResult{Category: core.CategorySearchQuote, Message: "견적"})
	h.directory.err = fmt.Errorf("%w: connection refused", core.ErrDirectoryUnavailable)

	_, err := h.orch.Handle(context.Background(), 3, core.ChatRequest{Message: "견적"})
	assert.ErrorIs(t, err, core.ErrDirectoryUnavailable)
	assert.Zero(t, h.searcher.calls)
}

func TestHandleSurfacesSearchErrors(t *testing.T) {
	h := newHarness(&core.ClassificationResult{Category: core.CategorySearchSchedule, Message: "일정"})
	h.searcher.err = fmt.Errorf("%w: boom", core.ErrCrossTenantScope)

	_, err := h.orch.Handle(context.Background(), 3, core.ChatRequest{Message: "일정"})
	assert.True(t, errors.Is(err, core.ErrCrossTenantScope))
}

func TestHandleTimezoneFallback(t *testing.T) {
	h := newHarness(&core.ClassificationResult{Category: core.CategoryUnknown})

	_, err := h.orch.Handle(context.Background(), 3, core.ChatRequest{Message: "x", Timezone: "Mars/Olympus"})
	require.NoError(t, err)
	assert.Equal(t, "Asia/Seoul", h.classifier.zone)
	assert.Equal(t, 10, h.classifier.now.Hour())

	_, err = h.orch.Handle(context.Background(), 3, core.ChatRequest{Message: "x", Timezone: "UTC-05:00"})
	require.NoError(t, err)
	assert.Equal(t, "UTC-05:00", h.classifier.zone)
	assert.Equal(t, 20, h.classifier.now.Hour())
}

func TestHandleLogsStates(t *testing.T) {
	var buf bytes.Buffer
	ctx := zerolog.New(&buf).WithContext(context.Background())

	h := newHarness(&core.ClassificationResult{Category: core.CategorySearchSchedule, Message: "일정"})
	_, err := h.orch.Handle(ctx, 3, core.ChatRequest{Message: "일정"})
	require.NoError(t, err)

	var states []string
	dec := json.NewDecoder(&buf)
	for dec.More() {
		var line map[string]any
		require.NoError(t, dec.Decode(&line))
		if s, ok := line["state"].(string); ok {
			states = append(states, s)
		}
	}
	assert.Equal(t, []string{StateReceived, StateClassified, StateDispatchedSearch, StateResponded}, states)
}

func TestSearchBypassesClassifier(t *testing.T) {
	h := newHarness(nil)
	resp, err := h.orch.Search(context.Background(), 9, core.DocumentTypeEmail, " 견적 요청 메일 ", "")
	require.NoError(t, err)
	assert.Equal(t, "found", resp.Answer)
	assert.Equal(t, core.OwnerScope{OwnerID: 9, OwnerType: core.OwnerTypeUser}, h.searcher.got.Scope)
	assert.Equal(t, "견적 요청 메일", h.searcher.got.QueryText)
	assert.Zero(t, h.directory.calls)
}
