package rag

import (
	"context"
	"encoding/binary"
	"hash/fnv"
)

// HashModel is a deterministic, offline encoder: token unigrams and bigrams
// are feature-hashed into a fixed-width vector. It has no semantic
// understanding but ranks lexically similar texts together, which is enough
// for tests and air-gapped trials.
type HashModel struct {
	dims int
}

func NewHashModel(dims int) *HashModel {
	if dims <= 0 {
		dims = 256
	}
	return &HashModel{dims: dims}
}

func (m *HashModel) EncodeQuery(_ context.Context, text string) ([]float32, error) {
	return m.encode(text)
}

func (m *HashModel) EncodePassage(_ context.Context, text string) ([]float32, error) {
	return m.encode(text)
}

func (m *HashModel) Dims() int { return m.dims }

func (m *HashModel) Shutdown() error { return nil }

func (m *HashModel) encode(text string) ([]float32, error) {
	enc, err := getTokenizer()
	if err != nil {
		return nil, err
	}
	vec := make([]float32, m.dims)
	tokens := enc.Encode(text, nil, nil)

	var buf [8]byte
	add := func(a, b int) {
		binary.LittleEndian.PutUint32(buf[:4], uint32(a))
		binary.LittleEndian.PutUint32(buf[4:], uint32(b))
		h := fnv.New64a()
		_, _ = h.Write(buf[:])
		sum := h.Sum64()

		idx := int(sum % uint64(m.dims))
		if sum>>63 == 1 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	for i, tok := range tokens {
		add(tok, -1)
		if i > 0 {
			add(tokens[i-1], tok)
		}
	}
	return normalize(vec), nil
}
