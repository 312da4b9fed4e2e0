// Package extractor turns a free-text schedule request into a
// core.ExtractedSchedule.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/alphamail/chatbot/internal/core"
	"github.com/alphamail/chatbot/pkg/conv"
	"github.com/alphamail/chatbot/pkg/log"
)

var timeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

var (
	explicitYear = regexp.MustCompile(`(^|[^0-9])((19|20)[0-9]{2}([^0-9]|$)|[0-9]{2}년)`)
	relativeYear = regexp.MustCompile(`(?i)내년|작년|재작년|올해|금년|next\s+year|last\s+year|this\s+year`)
	// dates counted from now may cross a year boundary on their own
	relativeDate = regexp.MustCompile(`(?i)오늘|내일|모레|글피|어제|그제|그저께|이번\s*주|다음\s*주|담주|다다음\s*주|다음\s*달|담달|이번\s*달|[0-9]+\s*(일|주|주일|개월|달)\s*(후|뒤|전)|today|tomorrow|yesterday|next\s+(week|month)|this\s+(week|month)|in\s+[0-9]+\s+(days?|weeks?|months?)`)
)

type Extractor struct {
	llm     core.Completer
	timeout time.Duration
}

func NewExtractor(llm core.Completer, timeout time.Duration) *Extractor {
	return &Extractor{llm: llm, timeout: timeout}
}

// ExtractSchedule asks the model for the schedule fields and parses each one
// independently. Only a failed completion is an error; fields the model
// could not fill, or filled with garbage, come back nil.
func (e *Extractor) ExtractSchedule(ctx context.Context, message string, now time.Time) (core.ExtractedSchedule, error) {
	logger := log.FromCtx(ctx)

	callCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	resp, err := e.llm.Complete(callCtx, buildPrompt(message, now))
	if err != nil {
		return core.ExtractedSchedule{}, fmt.Errorf("%w: extract schedule: %w", core.ErrGenerationFailure, err)
	}

	schedule, err := parseResponse(resp, now.Location())
	if err != nil {
		logger.Debug().Err(err).Str("response", resp).Msg("schedule extraction unparseable")
		return core.ExtractedSchedule{}, nil
	}

	if !mentionsYear(message) && !relativeDate.MatchString(message) {
		schedule.StartTime = pinYear(schedule.StartTime, now.Year())
		schedule.EndTime = pinYear(schedule.EndTime, now.Year())
	}
	return schedule, nil
}

func buildPrompt(message string, now time.Time) string {
	year := now.Year()
	return fmt.Sprintf("다음 문장에서 일정 정보를 JSON 형태로 추출해줘. 형식은 다음과 같아:\n"+
		"```\n"+
		"{\n"+
		"  \"name\": \"...\",\n"+
		"  \"description\": \"...\",\n"+
		"  \"startTime\": \"YYYY-MM-DDTHH:MM:SS\",\n"+
		"  \"endTime\": \"YYYY-MM-DDTHH:MM:SS\"\n"+
		"}\n"+
		"```\n"+
		"제약사항은 다음과 같아:\n"+
		"1. name은 일정명을 의미해.\n"+
		"2. description은 일정에 대한 간략한 설명이야.\n"+
		"3. startTime과 endTime은 특정 년도가 언급이 되어있지 않다면 당해를 기준으로 해. "+
		"예를 들어, 당해는 %d년이고 '5월 24일 10시 기획회의 일정 잡아줘'라는 입력이 들어오면 startTime을 \"%d-05-24T10:00:00\"로 설정하면 돼.\n"+
		"4. 만약, 주어진 문장에서 JSON key에 해당하는 value를 추출할 수 없다면 null 값으로 넣어줘.\n"+
		"5. 현재 시각은 %s 이야. '내일', '다음 주' 같은 표현은 이 시각을 기준으로 계산해.\n"+
		"\n"+
		"입력: %s",
		year, year, now.Format("2006-01-02T15:04:05 (Monday)"), message)
}

type rawSchedule struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	StartTime   *string `json:"startTime"`
	EndTime     *string `json:"endTime"`
}

func parseResponse(resp string, loc *time.Location) (core.ExtractedSchedule, error) {
	obj := conv.FirstJSONObject(resp)
	if obj == "" {
		return core.ExtractedSchedule{}, fmt.Errorf("%w: no JSON object in response", core.ErrExtractionIncomplete)
	}

	// decode into generic values first so one mistyped field does not
	// discard the others
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(obj), &fields); err != nil {
		return core.ExtractedSchedule{}, fmt.Errorf("%w: %w", core.ErrExtractionIncomplete, err)
	}

	return core.ExtractedSchedule{
		Name:        textField(fields["name"]),
		Description: textField(fields["description"]),
		StartTime:   timeField(fields["startTime"], loc),
		EndTime:     timeField(fields["endTime"], loc),
	}, nil
}

func textField(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil || s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" || strings.EqualFold(v, "null") {
		return nil
	}
	return &v
}

func timeField(raw json.RawMessage, loc *time.Location) *time.Time {
	s := textField(raw)
	if s == nil {
		return nil
	}
	t, ok := parseTime(*s, loc)
	if !ok {
		return nil
	}
	return &t
}

func parseTime(s string, loc *time.Location) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), true
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func mentionsYear(message string) bool {
	return explicitYear.MatchString(message) || relativeYear.MatchString(message)
}

// pinYear moves t into year, keeping month, day and clock. Feb 29 in a
// non-leap target year normalises to Mar 1.
func pinYear(t *time.Time, year int) *time.Time {
	if t == nil || t.Year() == year {
		return t
	}
	p := time.Date(year, t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	return &p
}
