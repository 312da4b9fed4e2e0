// Package schedule creates schedules from extracted fields.
package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alphamail/chatbot/internal/core"
	"github.com/alphamail/chatbot/internal/service/vectorize"
	"github.com/alphamail/chatbot/pkg/log"
)

const DefaultDuration = time.Hour

// EntityIndexer makes a stored entity searchable.
type EntityIndexer interface {
	Index(ctx context.Context, e core.VectorizableEntity) error
}

// Service implements core.ScheduleCreator.
type Service struct {
	repo    core.ScheduleRepository
	indexer EntityIndexer
}

func NewService(repo core.ScheduleRepository, indexer EntityIndexer) *Service {
	return &Service{repo: repo, indexer: indexer}
}

// Create validates s, stores it for userID and indexes it. Once the insert
// succeeds the schedule exists, so an indexing failure is only logged; the
// reindex worker picks the row up later.
func (s *Service) Create(ctx context.Context, in core.ExtractedSchedule, userID int64) (int64, error) {
	sched, err := validate(in, userID)
	if err != nil {
		return 0, err
	}

	id, err := s.repo.InsertSchedule(ctx, sched)
	if err != nil {
		return 0, fmt.Errorf("create schedule: %w", err)
	}
	sched.ID = id

	logger := log.FromCtx(ctx).With().Int64("schedule_id", id).Logger()
	if s.indexer != nil {
		if err := s.indexer.Index(ctx, vectorize.ScheduleAdapter{Schedule: sched}); err != nil {
			logger.Warn().Err(err).Msg("failed to index new schedule")
		}
	}

	logger.Info().Msg("schedule created")
	return id, nil
}

func validate(in core.ExtractedSchedule, userID int64) (core.Schedule, error) {
	var missing []string
	name := ""
	if in.Name != nil {
		name = strings.TrimSpace(*in.Name)
	}
	if name == "" {
		missing = append(missing, "name")
	}
	if in.StartTime == nil {
		missing = append(missing, "startTime")
	}
	if len(missing) > 0 {
		return core.Schedule{}, fmt.Errorf("%w: missing %s", core.ErrInvalidSchedule, strings.Join(missing, ", "))
	}

	start := *in.StartTime
	end := start.Add(DefaultDuration)
	if in.EndTime != nil {
		end = *in.EndTime
	}
	if end.Before(start) {
		return core.Schedule{}, fmt.Errorf("%w: endTime %s is before startTime %s",
			core.ErrInvalidSchedule, end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	sched := core.Schedule{
		UserID:    userID,
		Name:      name,
		StartTime: start,
		EndTime:   end,
	}
	if in.Description != nil {
		sched.Description = strings.TrimSpace(*in.Description)
	}
	return sched, nil
}
