package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/alphamail/chatbot/internal/core"
)

func (db *DB) InsertSchedule(ctx context.Context, s core.Schedule) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO schedules (user_id, name, description, start_time, end_time, is_completed)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING schedule_id
	`, s.UserID, s.Name, s.Description, s.StartTime, s.EndTime, s.Completed).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert schedule: %w", err)
	}
	return id, nil
}

// GetSchedule only returns schedules owned by userID.
func (db *DB) GetSchedule(ctx context.Context, id, userID int64) (core.Schedule, error) {
	s := core.Schedule{ID: id, UserID: userID}
	err := db.Pool.QueryRow(ctx, `
		SELECT name, description, start_time, end_time, is_completed, updated_at
		FROM schedules
		WHERE schedule_id = $1 AND user_id = $2
	`, id, userID).Scan(&s.Name, &s.Description, &s.StartTime, &s.EndTime, &s.Completed, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Schedule{}, core.ErrNotFound
	}
	if err != nil {
		return core.Schedule{}, fmt.Errorf("get schedule: %w", err)
	}
	return s, nil
}
