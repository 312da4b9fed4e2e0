// Package memory is a process-local core.DocumentIndex for tests, the
// MCP server's scratch mode and small deployments without an index file.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/alphamail/chatbot/internal/core"
)

type docKey struct {
	docType core.DocumentType
	id      string
}

type entry struct {
	doc core.VectorDocument
	vec []float32
	seq uint64
}

type DocumentIndex struct {
	embedder core.Embedder

	mu      sync.RWMutex
	entries map[docKey]entry
	seq     uint64
}

func NewDocumentIndex(embedder core.Embedder) *DocumentIndex {
	return &DocumentIndex{
		embedder: embedder,
		entries:  make(map[docKey]entry),
	}
}

func (i *DocumentIndex) Upsert(ctx context.Context, doc core.VectorDocument) error {
	vec, err := i.embedder.EncodePassage(ctx, doc.Text)
	if err != nil {
		return fmt.Errorf("embed document %s/%s: %w", doc.DocumentType, doc.ID, err)
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.seq++
	i.entries[docKey{doc.DocumentType, doc.ID}] = entry{doc: doc, vec: vec, seq: i.seq}
	return nil
}

func (i *DocumentIndex) Query(ctx context.Context, q core.IndexQuery) ([]core.VectorDocument, error) {
	if q.TopK <= 0 {
		return nil, nil
	}
	vec, err := i.embedder.EncodeQuery(ctx, q.Text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	type scored struct {
		entry
		score float64
	}

	i.mu.RLock()
	candidates := make([]scored, 0)
	for key, e := range i.entries {
		if key.docType != q.DocumentType || !q.Scope.Contains(e.doc) {
			continue
		}
		candidates = append(candidates, scored{entry: e, score: cosine(vec, e.vec)})
	}
	i.mu.RUnlock()

	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].score != candidates[b].score {
			return candidates[a].score > candidates[b].score
		}
		return candidates[a].seq > candidates[b].seq
	})

	if len(candidates) > q.TopK {
		candidates = candidates[:q.TopK]
	}
	docs := make([]core.VectorDocument, len(candidates))
	for n, c := range candidates {
		docs[n] = c.doc
	}
	return docs, nil
}

// Len is the number of indexed documents.
func (i *DocumentIndex) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries)
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.Inf(-1)
	}
	var dot, na, nb float64
	for n := range a {
		dot += float64(a[n]) * float64(b[n])
		na += float64(a[n]) * float64(a[n])
		nb += float64(b[n]) * float64(b[n])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
