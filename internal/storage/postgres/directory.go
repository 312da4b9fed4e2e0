package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/alphamail/chatbot/internal/core"
)

// ResolveCompanyForUser follows user → group → company. A user without a
// group has no company and gets core.ErrNotFound.
func (db *DB) ResolveCompanyForUser(ctx context.Context, userID int64) (int64, error) {
	var companyID int64
	err := db.Pool.QueryRow(ctx, `
		SELECT g.company_id
		FROM users u
		JOIN groups g ON g.group_id = u.group_id
		WHERE u.user_id = $1
	`, userID).Scan(&companyID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("company for user %d: %w", userID, core.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("resolve company for user %d: %w: %w", userID, core.ErrDirectoryUnavailable, err)
	}
	return companyID, nil
}
