package mcp

import (
	"context"
	"testing"

	mcpproto "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphamail/chatbot/internal/core"
)

type fakeChat struct {
	userID   int64
	req      core.ChatRequest
	docType  core.DocumentType
	timezone string
	err      error
}

func (f *fakeChat) Handle(_ context.Context, userID int64, req core.ChatRequest) (core.ChatResponse, error) {
	f.userID = userID
	f.req = req
	return core.ChatResponse{Kind: core.ResponseDefault, Answer: "hi"}, f.err
}

func (f *fakeChat) Search(_ context.Context, userID int64, docType core.DocumentType, _ string, timezone string) (core.ChatResponse, error) {
	f.userID = userID
	f.docType = docType
	f.timezone = timezone
	return core.ChatResponse{Kind: core.ResponseSearch, Answer: "a", DocumentIDs: []string{"7"}}, f.err
}

func call(args map[string]any) mcpproto.CallToolRequest {
	req := mcpproto.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcpproto.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(mcpproto.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestAsk(t *testing.T) {
	chat := &fakeChat{}
	s := NewServer(chat, 12, "Asia/Seoul")

	res, err := s.handleAsk(context.Background(), call(map[string]any{"message": "안녕"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.JSONEq(t, `{"type":"default","answer":"hi"}`, text(t, res))
	assert.Equal(t, int64(12), chat.userID)
	assert.Equal(t, "Asia/Seoul", chat.req.Timezone)

	res, err = s.handleAsk(context.Background(), call(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestSearch(t *testing.T) {
	chat := &fakeChat{}
	s := NewServer(chat, 12, "Asia/Seoul")

	res, err := s.handleSearch(context.Background(), call(map[string]any{
		"document_type": "quote",
		"query":         "볼트",
		"timezone":      "+09:00",
	}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"search","answer":"a","document_ids":["7"]}`, text(t, res))
	assert.Equal(t, core.DocumentTypeQuote, chat.docType)
	assert.Equal(t, "+09:00", chat.timezone)

	res, err = s.handleSearch(context.Background(), call(map[string]any{"document_type": "memo", "query": "x"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestToolErrorsHideDetails(t *testing.T) {
	s := NewServer(&fakeChat{err: core.ErrRetrievalUnavailable}, 1, "")

	res, err := s.handleAsk(context.Background(), call(map[string]any{"message": "x"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, core.UserMessage(core.ErrRetrievalUnavailable), text(t, res))
}
