// Package chatbot routes one user message through classification to either
// schedule creation or scoped document search.
package chatbot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/alphamail/chatbot/internal/core"
	"github.com/alphamail/chatbot/pkg/log"
	"github.com/alphamail/chatbot/pkg/tz"
)

// Request states, logged under the "state" field.
const (
	StateReceived         = "RECEIVED"
	StateClassified       = "CLASSIFIED"
	StateDispatchedCreate = "DISPATCHED_CREATE"
	StateDispatchedSearch = "DISPATCHED_SEARCH"
	StateDefaulted        = "DEFAULTED"
	StateResponded        = "RESPONDED"
)

const DefaultAnswer = "죄송해요, 요청을 이해하지 못했어요. 일정 등록이나 일정, 발주서, 견적서 검색을 도와드릴 수 있어요."

type Classifier interface {
	Classify(ctx context.Context, message, timezone string, now time.Time) *core.ClassificationResult
}

type Extractor interface {
	ExtractSchedule(ctx context.Context, message string, now time.Time) (core.ExtractedSchedule, error)
}

type Searcher interface {
	Search(ctx context.Context, q core.RetrievalQuery) (core.ChatResponse, error)
}

type Options struct {
	DefaultTimezone string
	TopK            int
	// Now is the clock; time.Now when nil.
	Now func() time.Time
}

type Orchestrator struct {
	classifier Classifier
	extractor  Extractor
	searcher   Searcher
	schedules  core.ScheduleCreator
	directory  core.Directory
	opts       Options
}

func NewOrchestrator(
	classifier Classifier,
	extractor Extractor,
	searcher Searcher,
	schedules core.ScheduleCreator,
	directory core.Directory,
	opts Options,
) *Orchestrator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{
		classifier: classifier,
		extractor:  extractor,
		searcher:   searcher,
		schedules:  schedules,
		directory:  directory,
		opts:       opts,
	}
}

// Handle runs one request for the authenticated userID. The owner scope of
// any search is derived from userID alone, never from the message.
func (o *Orchestrator) Handle(ctx context.Context, userID int64, req core.ChatRequest) (core.ChatResponse, error) {
	logger := log.FromCtx(ctx).With().Int64("user_id", userID).Logger()
	ctx = logger.WithContext(ctx)

	logger.Info().Str("state", StateReceived).Msg("chat request")

	zone, now := o.localNow(ctx, req.Timezone)
	message := strings.TrimSpace(req.Message)

	result := o.classifier.Classify(ctx, message, zone, now)
	if result == nil || result.Category == core.CategoryUnknown {
		logger.Info().Str("state", StateClassified).Str("category", core.CategoryUnknown.String()).Send()
		logger.Info().Str("state", StateDefaulted).Send()
		return o.respond(logger, core.ChatResponse{Kind: core.ResponseDefault, Answer: DefaultAnswer}, nil)
	}
	logger.Info().Str("state", StateClassified).Str("category", result.Category.String()).Send()

	if result.Category == core.CategoryCreateSchedule {
		logger.Info().Str("state", StateDispatchedCreate).Send()
		resp, err := o.createSchedule(ctx, userID, message, now)
		return o.respond(logger, resp, err)
	}

	docType, ok := result.Category.DocumentType()
	if !ok {
		logger.Info().Str("state", StateDefaulted).Send()
		return o.respond(logger, core.ChatResponse{Kind: core.ResponseDefault, Answer: DefaultAnswer}, nil)
	}

	logger.Info().Str("state", StateDispatchedSearch).Str("document_type", string(docType)).Send()
	resp, err := o.search(ctx, userID, docType, result.Message, zone)
	return o.respond(logger, resp, err)
}

// Search runs a scoped search for an explicit document type, bypassing
// classification.
func (o *Orchestrator) Search(ctx context.Context, userID int64, docType core.DocumentType, query, timezone string) (core.ChatResponse, error) {
	logger := log.FromCtx(ctx).With().Int64("user_id", userID).Logger()
	ctx = logger.WithContext(ctx)

	zone, _ := o.localNow(ctx, timezone)
	logger.Info().Str("state", StateDispatchedSearch).Str("document_type", string(docType)).Send()
	resp, err := o.search(ctx, userID, docType, strings.TrimSpace(query), zone)
	return o.respond(logger, resp, err)
}

func (o *Orchestrator) respond(logger zerolog.Logger, resp core.ChatResponse, err error) (core.ChatResponse, error) {
	if err != nil {
		logger.Warn().Err(err).Str("state", StateResponded).Msg("chat request failed")
		return core.ChatResponse{}, err
	}
	logger.Info().Str("state", StateResponded).Str("type", string(resp.Kind)).Msg("chat response")
	return resp, nil
}

func (o *Orchestrator) createSchedule(ctx context.Context, userID int64, message string, now time.Time) (core.ChatResponse, error) {
	extracted, err := o.extractor.ExtractSchedule(ctx, message, now)
	if err != nil {
		return core.ChatResponse{}, err
	}

	id, err := o.schedules.Create(ctx, extracted, userID)
	if errors.Is(err, core.ErrInvalidSchedule) {
		return core.ChatResponse{}, fmt.Errorf("%w: %w", core.ErrExtractionIncomplete, err)
	}
	if err != nil {
		return core.ChatResponse{}, err
	}

	return core.ChatResponse{
		Kind:       core.ResponseCreate,
		Answer:     createdAnswer(extracted, now.Location()),
		ScheduleID: id,
	}, nil
}

func (o *Orchestrator) search(ctx context.Context, userID int64, docType core.DocumentType, query, zone string) (core.ChatResponse, error) {
	scope, err := o.scopeFor(ctx, userID, docType)
	if err != nil {
		return core.ChatResponse{}, err
	}
	return o.searcher.Search(ctx, core.RetrievalQuery{
		DocumentType: docType,
		Scope:        scope,
		UserID:       userID,
		QueryText:    query,
		TopK:         o.opts.TopK,
		Timezone:     zone,
	})
}

// scopeFor: schedules and mail belong to the user, purchase orders and
// quotes to the user's company.
func (o *Orchestrator) scopeFor(ctx context.Context, userID int64, docType core.DocumentType) (core.OwnerScope, error) {
	switch docType {
	case core.DocumentTypeSchedule, core.DocumentTypeEmail:
		return core.OwnerScope{OwnerID: userID, OwnerType: core.OwnerTypeUser}, nil
	case core.DocumentTypePurchaseOrder, core.DocumentTypeQuote:
		companyID, err := o.directory.ResolveCompanyForUser(ctx, userID)
		if err != nil {
			return core.OwnerScope{}, fmt.Errorf("resolve company for user %d: %w", userID, err)
		}
		return core.OwnerScope{OwnerID: companyID, OwnerType: core.OwnerTypeCompany}, nil
	default:
		return core.OwnerScope{}, fmt.Errorf("unsupported document type %q", docType)
	}
}

// localNow returns the effective zone id and the caller's wall clock. An
// invalid zone falls back to the configured default, then to UTC.
func (o *Orchestrator) localNow(ctx context.Context, zone string) (string, time.Time) {
	now := o.opts.Now()
	if zone != "" {
		if t, err := tz.UserTime(zone, now); err == nil {
			return zone, t
		}
		log.FromCtx(ctx).Debug().Str("timezone", zone).Msg("invalid time zone, using default")
	}
	if t, err := tz.UserTime(o.opts.DefaultTimezone, now); err == nil {
		return o.opts.DefaultTimezone, t
	}
	return "UTC", now.UTC()
}

var weekdays = [...]string{"일", "월", "화", "수", "목", "금", "토"}

func createdAnswer(s core.ExtractedSchedule, loc *time.Location) string {
	name := ""
	if s.Name != nil {
		name = strings.TrimSpace(*s.Name)
	}
	if s.StartTime == nil {
		return fmt.Sprintf("'%s' 일정을 등록했어요.", name)
	}
	start := s.StartTime.In(loc)
	return fmt.Sprintf("'%s' 일정을 %d년 %d월 %d일 (%s) %s에 등록했어요.",
		name, start.Year(), int(start.Month()), start.Day(), weekdays[start.Weekday()], start.Format("15:04"))
}
