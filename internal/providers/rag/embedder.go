// Package rag turns business documents and queries into embedding vectors.
package rag

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/alphamail/chatbot/pkg/log"
)

// DualEncoder is an embedding backend. Asymmetric models encode queries and
// passages differently.
type DualEncoder interface {
	EncodeQuery(ctx context.Context, text string) ([]float32, error)
	EncodePassage(ctx context.Context, text string) ([]float32, error)
	Dims() int
	Shutdown() error
}

// Embedder implements core.Embedder on top of a DualEncoder. Passages longer
// than one chunk are embedded chunk by chunk and mean-pooled.
type Embedder struct {
	model     DualEncoder
	timeout   time.Duration
	chunkConf ChunkerConfig
}

func NewEmbedder(model DualEncoder, timeout time.Duration, chunkConf ChunkerConfig) *Embedder {
	return &Embedder{model: model, timeout: timeout, chunkConf: chunkConf}
}

func (e *Embedder) EncodeQuery(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	vec, err := e.model.EncodeQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}
	return vec, nil
}

// EncodePassage returns one pooled, L2-normalised vector for text.
func (e *Embedder) EncodePassage(ctx context.Context, text string) ([]float32, error) {
	chunks, err := e.EncodePassageChunks(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, errors.New("failed to encode passage: empty text")
	}
	return meanPool(chunks), nil
}

// EncodePassageChunks embeds every chunk of text separately.
func (e *Embedder) EncodePassageChunks(ctx context.Context, text string) ([][]float32, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	chunks, err := ChunkText(text, e.chunkConf)
	if err != nil {
		return nil, fmt.Errorf("failed to chunk passage: %w", err)
	}
	embeddings := make([][]float32, 0, len(chunks))
	for _, chunk := range chunks {
		log.FromCtx(ctx).Debug().Int("chunk", chunk.Index).Int("tokens", chunk.TokenSize).Msg("embedding chunk")

		vec, err := e.model.EncodePassage(ctx, chunk.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunk %d: %w", chunk.Index, err)
		}
		embeddings = append(embeddings, vec)
	}
	return embeddings, nil
}

func (e *Embedder) Dims() int {
	return e.model.Dims()
}

func (e *Embedder) Shutdown() error {
	return e.model.Shutdown()
}

func (e *Embedder) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.timeout)
}

func meanPool(vectors [][]float32) []float32 {
	out := make([]float32, len(vectors[0]))
	for _, v := range vectors {
		for i := range out {
			if i < len(v) {
				out[i] += v[i]
			}
		}
	}
	for i := range out {
		out[i] /= float32(len(vectors))
	}
	return normalize(out)
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
	return v
}
