package rag

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphamail/chatbot/internal/config"
)

// mockDualEncoder is a test double for the DualEncoder interface
type mockDualEncoder struct {
	encodeQueryFunc   func(ctx context.Context, text string) ([]float32, error)
	encodePassageFunc func(ctx context.Context, text string) ([]float32, error)

	queryCalls   []string
	passageCalls []string
}

func (m *mockDualEncoder) EncodeQuery(ctx context.Context, text string) ([]float32, error) {
	m.queryCalls = append(m.queryCalls, text)
	if m.encodeQueryFunc != nil {
		return m.encodeQueryFunc(ctx, text)
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *mockDualEncoder) EncodePassage(ctx context.Context, text string) ([]float32, error) {
	m.passageCalls = append(m.passageCalls, text)
	if m.encodePassageFunc != nil {
		return m.encodePassageFunc(ctx, text)
	}
	return []float32{0.4, 0.5, 0.6}, nil
}

func (m *mockDualEncoder) Dims() int { return 3 }

func (m *mockDualEncoder) Shutdown() error { return nil }

func slowUntil(d time.Duration) func(ctx context.Context, text string) ([]float32, error) {
	return func(ctx context.Context, text string) ([]float32, error) {
		select {
		case <-time.After(d):
			return []float32{0.1}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func TestEmbedder_EncodeQuery(t *testing.T) {
	tests := []struct {
		name        string
		timeout     time.Duration
		mockSetup   func(*mockDualEncoder)
		want        []float32
		errContains string
	}{
		{
			name:    "successfully encodes query",
			timeout: 5 * time.Second,
			want:    []float32{0.1, 0.2, 0.3},
		},
		{
			name:    "returns error on model failure",
			timeout: 5 * time.Second,
			mockSetup: func(m *mockDualEncoder) {
				m.encodeQueryFunc = func(ctx context.Context, text string) ([]float32, error) {
					return nil, errors.New("model connection failed")
				}
			},
			errContains: "failed to encode query",
		},
		{
			name:    "respects timeout",
			timeout: 50 * time.Millisecond,
			mockSetup: func(m *mockDualEncoder) {
				m.encodeQueryFunc = slowUntil(time.Second)
			},
			errContains: "context deadline exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockDualEncoder{}
			if tt.mockSetup != nil {
				tt.mockSetup(mock)
			}
			embedder := NewEmbedder(mock, tt.timeout, DefaultChunkerConfig())

			got, err := embedder.EncodeQuery(context.Background(), "납기일 알려줘")

			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, []string{"납기일 알려줘"}, mock.queryCalls)
		})
	}
}

func TestEmbedder_EncodePassageChunks(t *testing.T) {
	twoChunks := ChunkerConfig{MaxTokens: 10, OverlapTokens: 2}
	const text = "First chunk of text. Second chunk of text here."

	tests := []struct {
		name        string
		text        string
		timeout     time.Duration
		chunkConf   ChunkerConfig
		mockSetup   func(*mockDualEncoder)
		wantChunks  int
		errContains []string
	}{
		{
			name:       "empty text returns no embeddings",
			text:       "",
			timeout:    5 * time.Second,
			chunkConf:  DefaultChunkerConfig(),
			wantChunks: 0,
		},
		{
			name:       "short text produces single chunk",
			text:       "Short text.",
			timeout:    5 * time.Second,
			chunkConf:  DefaultChunkerConfig(),
			wantChunks: 1,
		},
		{
			name:       "long text produces multiple chunks",
			text:       text,
			timeout:    5 * time.Second,
			chunkConf:  twoChunks,
			wantChunks: 2,
		},
		{
			name:      "error names the failing chunk",
			text:      text,
			timeout:   5 * time.Second,
			chunkConf: twoChunks,
			mockSetup: func(m *mockDualEncoder) {
				m.encodePassageFunc = func(ctx context.Context, text string) ([]float32, error) {
					if len(m.passageCalls) == 2 {
						return nil, errors.New("embedding failed")
					}
					return []float32{0.1}, nil
				}
			},
			errContains: []string{"failed to embed chunk", "chunk 1"},
		},
		{
			name:      "timeout spans all chunks",
			text:      text,
			timeout:   50 * time.Millisecond,
			chunkConf: twoChunks,
			mockSetup: func(m *mockDualEncoder) {
				m.encodePassageFunc = slowUntil(40 * time.Millisecond)
			},
			errContains: []string{"context deadline exceeded"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockDualEncoder{}
			if tt.mockSetup != nil {
				tt.mockSetup(mock)
			}
			embedder := NewEmbedder(mock, tt.timeout, tt.chunkConf)

			got, err := embedder.EncodePassageChunks(context.Background(), tt.text)

			if len(tt.errContains) > 0 {
				require.Error(t, err)
				for _, want := range tt.errContains {
					assert.Contains(t, err.Error(), want)
				}
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.wantChunks)
			assert.Len(t, mock.passageCalls, tt.wantChunks)
		})
	}
}

func TestEmbedder_EncodePassagePoolsAndNormalises(t *testing.T) {
	mock := &mockDualEncoder{}
	calls := 0
	mock.encodePassageFunc = func(ctx context.Context, text string) ([]float32, error) {
		calls++
		if calls == 1 {
			return []float32{2, 0, 0}, nil
		}
		return []float32{0, 2, 0}, nil
	}
	embedder := NewEmbedder(mock, time.Second, ChunkerConfig{MaxTokens: 10, OverlapTokens: 2})

	got, err := embedder.EncodePassage(context.Background(), "First chunk of text. Second chunk of text here.")
	require.NoError(t, err)

	inv := float32(1 / math.Sqrt2)
	assert.InDeltaSlice(t, []float32{inv, inv, 0}, got, 1e-6)
}

func TestEmbedder_EncodePassageEmpty(t *testing.T) {
	_, err := NewEmbedder(&mockDualEncoder{}, time.Second, DefaultChunkerConfig()).EncodePassage(context.Background(), "  ")
	assert.Error(t, err)
}

func TestHashModel(t *testing.T) {
	m := NewHashModel(128)
	ctx := context.Background()

	a1, _ := m.EncodePassage(ctx, "발주번호: PO-42 거래처명: 알파상사")
	a2, _ := m.EncodeQuery(ctx, "발주번호: PO-42 거래처명: 알파상사")
	b, _ := m.EncodePassage(ctx, "weekly marketing sync with the design team")

	require.Len(t, a1, 128)
	assert.Equal(t, a1, a2, "encoding must be deterministic")
	assert.Greater(t, dot(a1, a2), dot(a1, b))
	assert.InDelta(t, 1.0, dot(a1, a1), 1e-5)
}

func TestOllamaModel_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		_, _ = w.Write([]byte(`{"embeddings":[[0.1,0.2,0.3]]}`))
	}))
	defer server.Close()

	got, err := NewOllamaModel(server.URL, "bge-m3", 3).EncodeQuery(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, got)

	_, err = NewOllamaModel(server.URL, "bge-m3", 4).EncodeQuery(context.Background(), "hi")
	assert.ErrorContains(t, err, "configured 4")
}

func TestOllamaModel_E5Prefixes(t *testing.T) {
	m := NewOllamaModel("http://unused", "multilingual-e5-base", 768)
	assert.Equal(t, "query: ", m.queryPrefix)
	assert.Equal(t, "passage: ", m.passagePrefix)
}

func TestOpenAIModel_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data":[{"embedding":[1,0]}]}`))
	}))
	defer server.Close()

	got, err := newOpenAIModelAt(server.URL, "k", "text-embedding-3-small", 2).EncodePassage(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, got)
}

func TestNewEmbeddingModel(t *testing.T) {
	ctx := context.Background()

	m, err := NewEmbeddingModel(ctx, config.EmbeddingConfig{Provider: "hash", Dims: 64}, EmbeddingKeys{})
	require.NoError(t, err)
	assert.Equal(t, 64, m.Dims())

	_, err = NewEmbeddingModel(ctx, config.EmbeddingConfig{Provider: "gemini"}, EmbeddingKeys{})
	assert.Error(t, err)

	_, err = NewEmbeddingModel(ctx, config.EmbeddingConfig{Provider: "word2vec"}, EmbeddingKeys{})
	assert.Error(t, err)
}

func dot(a, b []float32) float32 {
	var s float32
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
