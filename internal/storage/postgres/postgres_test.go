package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphamail/chatbot/internal/core"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("CHATBOT_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("CHATBOT_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := Connect(ctx, url, 4)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx))
	return db
}

type fixture struct {
	companyID int64
	userID    int64
	loneUser  int64
	clientID  int64
}

func seed(t *testing.T, db *DB) fixture {
	t.Helper()
	ctx := context.Background()
	var f fixture

	require.NoError(t, db.Pool.QueryRow(ctx,
		`INSERT INTO companies (name) VALUES ('알파상사') RETURNING company_id`).Scan(&f.companyID))
	var groupID int64
	require.NoError(t, db.Pool.QueryRow(ctx,
		`INSERT INTO groups (company_id, name) VALUES ($1, '영업팀') RETURNING group_id`, f.companyID).Scan(&groupID))
	require.NoError(t, db.Pool.QueryRow(ctx,
		`INSERT INTO users (group_id, email) VALUES ($1, $2) RETURNING user_id`, groupID, uuid.NewString()+"@example.com").Scan(&f.userID))
	require.NoError(t, db.Pool.QueryRow(ctx,
		`INSERT INTO users (email) VALUES ($1) RETURNING user_id`, uuid.NewString()+"@example.com").Scan(&f.loneUser))
	require.NoError(t, db.Pool.QueryRow(ctx,
		`INSERT INTO clients (company_id, corp_name) VALUES ($1, '베타물산') RETURNING client_id`, f.companyID).Scan(&f.clientID))
	return f
}

func TestResolveCompanyForUser(t *testing.T) {
	db := testDB(t)
	f := seed(t, db)
	ctx := context.Background()

	got, err := db.ResolveCompanyForUser(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, f.companyID, got)

	_, err = db.ResolveCompanyForUser(ctx, f.loneUser)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSchedules(t *testing.T) {
	db := testDB(t)
	f := seed(t, db)
	ctx := context.Background()
	start := time.Date(2025, 5, 24, 10, 0, 0, 0, time.UTC)

	id, err := db.InsertSchedule(ctx, core.Schedule{
		UserID: f.userID, Name: "기획회의", StartTime: start, EndTime: start.Add(time.Hour),
	})
	require.NoError(t, err)

	got, err := db.GetSchedule(ctx, id, f.userID)
	require.NoError(t, err)
	assert.Equal(t, "기획회의", got.Name)
	assert.True(t, got.StartTime.Equal(start))

	_, err = db.GetSchedule(ctx, id, f.loneUser)
	assert.ErrorIs(t, err, core.ErrNotFound)

	changed, err := db.SchedulesSince(ctx, core.CursorAt(got.UpdatedAt.Add(-time.Second)))
	require.NoError(t, err)
	assert.NotEmpty(t, changed)
}

func TestPurchaseOrdersAndQuotesSince(t *testing.T) {
	db := testDB(t)
	f := seed(t, db)
	ctx := context.Background()
	before := time.Now().Add(-time.Minute)

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO purchase_orders (company_id, user_id, client_id, order_no, payment_term)
		VALUES ($1, $2, $3, $4, '월말 정산')`, f.companyID, f.userID, f.clientID, "PO-"+uuid.NewString()[:8])
	require.NoError(t, err)

	var quoteID int64
	require.NoError(t, db.Pool.QueryRow(ctx, `
		INSERT INTO quotes (company_id, user_id, client_id, quote_no)
		VALUES ($1, $2, $3, 'Q-1') RETURNING quote_id`, f.companyID, f.userID, f.clientID).Scan(&quoteID))
	_, err = db.Pool.Exec(ctx, `INSERT INTO quote_products (quote_id, product_name, count, price) VALUES ($1, '모니터', 2, 300000)`, quoteID)
	require.NoError(t, err)

	orders, err := db.PurchaseOrdersSince(ctx, core.CursorAt(before))
	require.NoError(t, err)
	require.NotEmpty(t, orders)
	last := orders[len(orders)-1]
	assert.Equal(t, "베타물산", last.Client.CorpName)

	quotes, err := db.QuotesSince(ctx, core.CursorAt(before))
	require.NoError(t, err)
	var found bool
	for _, q := range quotes {
		if q.ID == quoteID {
			found = true
			require.Len(t, q.Products, 1)
			assert.Equal(t, "모니터", q.Products[0].Name)
		}
	}
	assert.True(t, found)
}

func TestSchedulesSincePagesThroughSharedTimestamp(t *testing.T) {
	db := testDB(t)
	f := seed(t, db)
	ctx := context.Background()
	start := time.Date(2025, 5, 24, 10, 0, 0, 0, time.UTC)

	// one transaction: every row gets the same now()
	tx, err := db.Pool.Begin(ctx)
	require.NoError(t, err)
	ids := make([]int64, 3)
	for i := range ids {
		require.NoError(t, tx.QueryRow(ctx, `
			INSERT INTO schedules (user_id, name, start_time, end_time)
			VALUES ($1, $2, $3, $4) RETURNING schedule_id`,
			f.userID, fmt.Sprintf("배치 %d", i), start, start.Add(time.Hour)).Scan(&ids[i]))
	}
	require.NoError(t, tx.Commit(ctx))

	first, err := db.GetSchedule(ctx, ids[0], f.userID)
	require.NoError(t, err)

	rest, err := db.SchedulesSince(ctx, core.Cursor{UpdatedAt: first.UpdatedAt, ID: first.ID})
	require.NoError(t, err)

	var mine []int64
	for _, s := range rest {
		if s.UserID == f.userID {
			mine = append(mine, s.ID)
		}
	}
	assert.Equal(t, ids[1:], mine)
}
