package rag

import (
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

var (
	tk     *tiktoken.Tiktoken
	tkErr  error
	tkOnce sync.Once

	// loadEncoding may download the BPE ranks on first use.
	loadEncoding = func() (*tiktoken.Tiktoken, error) {
		return tiktoken.GetEncoding("cl100k_base")
	}
)

type Chunk struct {
	Text      string
	TokenSize int
	Index     int
}

type ChunkerConfig struct {
	MaxTokens     int
	OverlapTokens int
}

// DefaultChunkerConfig fits 512-token embedding contexts with room for
// the query/passage prefixes some models expect.
func DefaultChunkerConfig() ChunkerConfig {
	return ChunkerConfig{
		MaxTokens:     400,
		OverlapTokens: 50,
	}
}

// NewChunkerConfig falls back to DefaultChunkerConfig for non-positive sizes.
func NewChunkerConfig(maxTokens, overlap int) ChunkerConfig {
	cfg := DefaultChunkerConfig()
	if maxTokens > 0 {
		cfg.MaxTokens = maxTokens
	}
	if overlap >= 0 && overlap < cfg.MaxTokens {
		cfg.OverlapTokens = overlap
	}
	return cfg
}

func ChunkText(text string, cfg ChunkerConfig) ([]Chunk, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	enc, err := getTokenizer()
	if err != nil {
		return nil, err
	}

	sentences := splitSentencesUnicode(text)

	var chunks []Chunk
	var currentChunk strings.Builder
	currentTokens := 0
	chunkIndex := 0

	for i, sentence := range sentences {
		sentenceTokens := countTokensUnicode(enc, sentence)

		// A sentence that alone exceeds the limit is sliced by tokens.
		if sentenceTokens > cfg.MaxTokens {
			if currentChunk.Len() > 0 {
				chunks = append(chunks, Chunk{
					Text:      strings.TrimSpace(currentChunk.String()),
					TokenSize: currentTokens,
					Index:     chunkIndex,
				})
				chunkIndex++
				currentChunk.Reset()
				currentTokens = 0
			}

			subChunks := chunkLongTextUnicode(enc, sentence, cfg.MaxTokens)
			for _, sc := range subChunks {
				chunks = append(chunks, Chunk{
					Text:      strings.TrimSpace(sc.Text),
					TokenSize: sc.TokenSize,
					Index:     chunkIndex,
				})
				chunkIndex++
			}
			continue
		}

		if currentTokens+sentenceTokens > cfg.MaxTokens && currentChunk.Len() > 0 {
			chunks = append(chunks, Chunk{
				Text:      strings.TrimSpace(currentChunk.String()),
				TokenSize: currentTokens,
				Index:     chunkIndex,
			})
			chunkIndex++

			// Carry trailing sentences over as overlap.
			overlap := getOverlapFromSentences(enc, sentences, i, cfg.OverlapTokens)
			currentChunk.Reset()
			currentChunk.WriteString(overlap)
			currentTokens = countTokensUnicode(enc, overlap)
		}

		if currentChunk.Len() > 0 {
			currentChunk.WriteString(" ")
		}
		currentChunk.WriteString(sentence)
		currentTokens += sentenceTokens
	}

	if currentChunk.Len() > 0 {
		chunks = append(chunks, Chunk{
			Text:      strings.TrimSpace(currentChunk.String()),
			TokenSize: currentTokens,
			Index:     chunkIndex,
		})
	}

	return chunks, nil
}

// chunkLongTextUnicode slices the token sequence of text into maxTokens runs.
func chunkLongTextUnicode(enc *tiktoken.Tiktoken, text string, maxTokens int) []Chunk {
	tokens := enc.Encode(text, nil, nil)

	var chunks []Chunk
	numTokens := len(tokens)

	for i := 0; i < numTokens; i += maxTokens {
		end := i + maxTokens
		if end > numTokens {
			end = numTokens
		}

		chunkTokens := tokens[i:end]
		chunkText := trimInvalidUTF8(enc.Decode(chunkTokens))

		chunks = append(chunks, Chunk{
			Text:      chunkText,
			TokenSize: len(chunkTokens),
		})
	}

	return chunks
}

// splitSentencesUnicode splits text into paragraphs, then sentences.
func splitSentencesUnicode(text string) []string {
	paragraphs := splitParagraphs(text)

	sentenceEnders := map[rune]bool{
		'.': true, '!': true, '?': true,
		'。': true, '！': true, '？': true, '．': true, '…': true,
	}

	var sentences []string

	for _, para := range paragraphs {
		var current strings.Builder
		runes := []rune(para)

		for i, r := range runes {
			current.WriteRune(r)

			if sentenceEnders[r] {
				// Only a break when followed by space, end of text or CJK.
				if i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) || isCJK(runes[i+1]) {
					s := strings.TrimSpace(current.String())
					if s != "" {
						sentences = append(sentences, s)
					}
					current.Reset()
				}
			}
		}

		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
	}

	if len(sentences) == 0 && text != "" {
		return []string{text}
	}

	return sentences
}

func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\n\n")

	var result []string
	for _, p := range parts {
		// Single newlines inside a paragraph are soft wraps.
		p = strings.ReplaceAll(p, "\n", " ")
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

func getTokenizer() (*tiktoken.Tiktoken, error) {
	tkOnce.Do(func() {
		tk, tkErr = loadEncoding()
		if tkErr != nil {
			tkErr = fmt.Errorf("failed to load tiktoken: %w", tkErr)
		}
	})
	return tk, tkErr
}

// CountTokens returns the cl100k_base token count of text.
func CountTokens(text string) (int, error) {
	enc, err := getTokenizer()
	if err != nil {
		return 0, err
	}
	return countTokensUnicode(enc, text), nil
}

// TruncateTokens cuts text down to at most maxTokens tokens. A cut inside a
// multi-byte character drops the partial bytes.
func TruncateTokens(text string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		return "", nil
	}
	enc, err := getTokenizer()
	if err != nil {
		return "", err
	}
	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text, nil
	}
	return trimInvalidUTF8(enc.Decode(tokens[:maxTokens])), nil
}

// CL100K counts and cuts text with the shared cl100k_base encoding.
type CL100K struct{}

func (CL100K) CountTokens(text string) (int, error) {
	return CountTokens(text)
}

func (CL100K) TruncateTokens(text string, maxTokens int) (string, error) {
	return TruncateTokens(text, maxTokens)
}

// trimInvalidUTF8 drops bytes left over from a token boundary that split a
// character.
func trimInvalidUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "")
}

func countTokensUnicode(enc *tiktoken.Tiktoken, text string) int {
	if text == "" {
		return 0
	}
	return len(enc.Encode(text, nil, nil))
}

func getOverlapFromSentences(enc *tiktoken.Tiktoken, sentences []string, currentIdx int, targetTokens int) string {
	if currentIdx == 0 {
		return ""
	}

	var overlap []string
	tokens := 0

	for i := currentIdx - 1; i >= 0 && tokens < targetTokens; i-- {
		sentTokens := countTokensUnicode(enc, sentences[i])
		overlap = append([]string{sentences[i]}, overlap...)
		tokens += sentTokens
	}

	return strings.Join(overlap, " ")
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}
