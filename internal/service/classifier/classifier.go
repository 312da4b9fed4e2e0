// Package classifier assigns one intent category to a user message.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/width"

	"github.com/alphamail/chatbot/internal/core"
	"github.com/alphamail/chatbot/pkg/conv"
	"github.com/alphamail/chatbot/pkg/log"
)

const promptTimeLayout = "2006-01-02 15:04 (Monday) MST"

type Classifier struct {
	llm     core.Completer
	timeout time.Duration
}

func NewClassifier(llm core.Completer, timeout time.Duration) *Classifier {
	return &Classifier{llm: llm, timeout: timeout}
}

// Classify makes exactly one completion call. It returns nil when the call
// fails or the answer cannot be mapped to a category; callers treat nil and
// CategoryUnknown alike.
func (c *Classifier) Classify(ctx context.Context, message, timezone string, now time.Time) *core.ClassificationResult {
	logger := log.FromCtx(ctx)

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.llm.Complete(callCtx, buildPrompt(message, timezone, now))
	if err != nil {
		logger.Warn().Err(fmt.Errorf("%w: %w", core.ErrGenerationFailure, err)).Msg("classification call failed")
		return nil
	}

	result, err := parseResponse(resp, message)
	if err != nil {
		logger.Debug().Err(err).Str("response", resp).Msg("classification unrecognised")
		return nil
	}
	return result
}

func buildPrompt(message, timezone string, now time.Time) string {
	if timezone == "" {
		timezone = now.Location().String()
	}
	return fmt.Sprintf(`사용자의 요청을 아래 분류 중 하나로 판단해줘.

1: 일정 등록 (새 일정을 만들어 달라는 요청)
2: 일정 검색 (등록된 일정을 찾거나 물어보는 요청)
3: 발주서 검색 (발주서, 발주 내역, 납기 등을 찾는 요청)
4: 견적서 검색 (견적서, 견적 내역을 찾는 요청)
0: 위 분류에 해당하지 않는 요청

현재 시각: %s (%s)

응답은 다른 설명 없이 JSON 하나로만 해줘:
{"type": "분류 번호 한 자리", "message": "분류 번호에 해당하는 실제 요청 내용"}

입력: %s`, now.Format(promptTimeLayout), timezone, message)
}

type rawClassification struct {
	Type    json.RawMessage `json:"type"`
	Message string          `json:"message"`
}

func parseResponse(resp, original string) (*core.ClassificationResult, error) {
	obj := conv.FirstJSONObject(resp)
	if obj == "" {
		return nil, fmt.Errorf("%w: no JSON object in response", core.ErrClassificationAmbiguous)
	}

	var raw rawClassification
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrClassificationAmbiguous, err)
	}

	category, err := parseCode(rawCode(raw.Type))
	if err != nil {
		return nil, err
	}
	if category == core.CategoryUnknown {
		return &core.ClassificationResult{Category: core.CategoryUnknown}, nil
	}

	msg := strings.TrimSpace(raw.Message)
	if msg == "" {
		msg = original
	}
	return &core.ClassificationResult{Category: category, Message: msg}, nil
}

// rawCode accepts the code either as a JSON string or a bare number.
func rawCode(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// parseCode maps a model-produced code to a category. The code's leading
// digit run must be exactly one digit, so "1", "1." and "1 일정 등록" all
// mean 1 while "12" is rejected rather than read as 1.
func parseCode(code string) (core.Category, error) {
	code = asciiDigits(width.Fold.String(code))
	code = strings.TrimSpace(code)
	code = strings.Trim(code, `"'`+"`")
	code = strings.TrimSpace(code)

	n := 0
	for n < len(code) && code[n] >= '0' && code[n] <= '9' {
		n++
	}
	if n != 1 {
		return 0, fmt.Errorf("%w: code %q", core.ErrClassificationAmbiguous, code)
	}

	switch code[0] {
	case '0':
		return core.CategoryUnknown, nil
	case '1':
		return core.CategoryCreateSchedule, nil
	case '2':
		return core.CategorySearchSchedule, nil
	case '3':
		return core.CategorySearchPurchaseOrder, nil
	case '4':
		return core.CategorySearchQuote, nil
	default:
		return 0, fmt.Errorf("%w: code %q out of range", core.ErrClassificationAmbiguous, code)
	}
}

// asciiDigits rewrites every decimal digit, whatever its script, as its
// ASCII form. Decimal digits occupy contiguous runs of ten starting at zero.
func asciiDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r <= unicode.MaxASCII || !unicode.IsDigit(r) {
			return r
		}
		zero := r
		for unicode.IsDigit(zero - 1) {
			zero--
		}
		return '0' + (r-zero)%10
	}, s)
}
