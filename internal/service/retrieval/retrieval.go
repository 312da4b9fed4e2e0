// Package retrieval answers a question from the documents of one owner
// scope.
package retrieval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alphamail/chatbot/internal/core"
	"github.com/alphamail/chatbot/internal/providers/rag"
	"github.com/alphamail/chatbot/pkg/log"
	"github.com/alphamail/chatbot/pkg/tz"
)

const (
	DefaultTopK          = 5
	DefaultContextTokens = 3000
	// per-document cap so one long mail cannot crowd out the rest
	maxDocTokens = 1000
)

// Tokenizer measures and cuts prompt context.
type Tokenizer interface {
	CountTokens(text string) (int, error)
	TruncateTokens(text string, maxTokens int) (string, error)
}

type Options struct {
	TopK          int
	Timeout       time.Duration
	ContextTokens int
	// Now is the clock; time.Now when nil.
	Now func() time.Time
	// Tokenizer defaults to rag.CL100K.
	Tokenizer Tokenizer
}

type Service struct {
	index core.DocumentIndex
	llm   core.Completer
	opts  Options
}

func NewService(index core.DocumentIndex, llm core.Completer, opts Options) *Service {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.ContextTokens <= 0 {
		opts.ContextTokens = DefaultContextTokens
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Tokenizer == nil {
		opts.Tokenizer = rag.CL100K{}
	}
	return &Service{index: index, llm: llm, opts: opts}
}

// Search runs one filtered similarity query and, when anything matched,
// one completion grounded on the matches. Scope filtering is the index's
// job; a candidate from another scope means the index is broken and the
// request fails with core.ErrCrossTenantScope.
func (s *Service) Search(ctx context.Context, q core.RetrievalQuery) (core.ChatResponse, error) {
	logger := log.FromCtx(ctx).With().
		Str("document_type", string(q.DocumentType)).
		Str("scope", q.Scope.String()).
		Logger()

	topK := q.TopK
	if topK <= 0 {
		topK = s.opts.TopK
	}

	docs, err := s.query(ctx, core.IndexQuery{
		DocumentType: q.DocumentType,
		Scope:        q.Scope,
		Text:         q.QueryText,
		TopK:         topK,
	})
	if err != nil {
		return core.ChatResponse{}, fmt.Errorf("%w: %w", core.ErrRetrievalUnavailable, err)
	}

	for _, d := range docs {
		if d.DocumentType != q.DocumentType || !q.Scope.Contains(d) {
			logger.Error().
				Str("doc_id", d.ID).
				Str("doc_scope", d.Scope().String()).
				Str("doc_type", string(d.DocumentType)).
				Msg("index returned document outside query scope")
			return core.ChatResponse{}, fmt.Errorf("%w: %s/%s", core.ErrCrossTenantScope, d.DocumentType, d.ID)
		}
	}

	if len(docs) == 0 {
		logger.Debug().Msg("no candidates")
		return core.ChatResponse{
			Kind:   core.ResponseSearch,
			Answer: NoResultsAnswer(q.DocumentType),
		}, nil
	}

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}

	now, err := tz.UserTime(q.Timezone, s.opts.Now())
	if err != nil {
		now = s.opts.Now()
	}

	prompt, err := buildPrompt(s.opts.Tokenizer, q, docs, now, s.opts.ContextTokens)
	if err != nil {
		return core.ChatResponse{}, fmt.Errorf("%w: build search prompt: %w", core.ErrGenerationFailure, err)
	}

	answer, err := s.complete(ctx, prompt)
	if err != nil {
		return core.ChatResponse{}, fmt.Errorf("%w: answer search: %w", core.ErrGenerationFailure, err)
	}

	logger.Debug().Int("candidates", len(docs)).Msg("search answered")
	return core.ChatResponse{
		Kind:        core.ResponseSearch,
		Answer:      strings.TrimSpace(answer),
		DocumentIDs: ids,
	}, nil
}

func (s *Service) query(ctx context.Context, q core.IndexQuery) ([]core.VectorDocument, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.index.Query(ctx, q)
}

func (s *Service) complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.llm.Complete(ctx, prompt)
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.Timeout > 0 {
		return context.WithTimeout(ctx, s.opts.Timeout)
	}
	return context.WithCancel(ctx)
}

// NoResultsAnswer is the fixed reply for an empty candidate set.
func NoResultsAnswer(dt core.DocumentType) string {
	return fmt.Sprintf("요청하신 내용과 관련된 %s을(를) 찾지 못했어요.", documentLabel(dt))
}

func documentLabel(dt core.DocumentType) string {
	switch dt {
	case core.DocumentTypeSchedule:
		return "일정"
	case core.DocumentTypePurchaseOrder:
		return "발주서"
	case core.DocumentTypeQuote:
		return "견적서"
	case core.DocumentTypeEmail:
		return "메일"
	default:
		return "문서"
	}
}

func buildPrompt(tok Tokenizer, q core.RetrievalQuery, docs []core.VectorDocument, now time.Time, budget int) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "아래 %s 문서만 근거로 사용자 질문에 한국어로 답해줘.\n", documentLabel(q.DocumentType))
	b.WriteString("문서에 없는 내용은 지어내지 말고, 질문과 관련된 문서가 없으면 찾지 못했다고 답해줘.\n")
	fmt.Fprintf(&b, "현재 시각: %s\n\n", now.Format("2006-01-02 15:04 (Monday) MST"))

	docContext, err := buildContext(tok, docs, budget)
	if err != nil {
		return "", err
	}
	b.WriteString(docContext)

	fmt.Fprintf(&b, "\n질문: %s", q.QueryText)
	return b.String(), nil
}

// buildContext renders documents in rank order until the token budget is
// spent. The first document is always included, truncated if needed.
func buildContext(tok Tokenizer, docs []core.VectorDocument, budget int) (string, error) {
	var b strings.Builder
	used := 0
	for i, d := range docs {
		text, err := tok.TruncateTokens(strings.TrimSpace(d.Text), maxDocTokens)
		if err != nil {
			return "", err
		}
		block := fmt.Sprintf("[문서 %d] (id: %s)\n%s\n\n", i+1, d.ID, text)
		n, err := tok.CountTokens(block)
		if err != nil {
			return "", err
		}

		if used+n > budget {
			if i > 0 {
				break
			}
			if block, err = tok.TruncateTokens(block, budget); err != nil {
				return "", err
			}
			n = budget
		}
		b.WriteString(block)
		used += n
	}
	return b.String(), nil
}
