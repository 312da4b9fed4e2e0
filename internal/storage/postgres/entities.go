package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/alphamail/chatbot/internal/core"
)

// EntitySource queries page on (updated_at, id) and never return more than
// batchLimit rows. Rows written by one transaction share updated_at, so the
// id keeps paging exact across such a tie.
const batchLimit = 500

func (db *DB) PurchaseOrdersSince(ctx context.Context, after core.Cursor) ([]core.PurchaseOrder, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT p.purchase_order_id, p.company_id, p.user_id, p.order_no,
		       c.client_id, c.corp_name,
		       p.created_at, COALESCE(p.deliver_at, p.created_at), p.shipping_address,
		       p.manager, p.manager_number, p.payment_term, p.updated_at
		FROM purchase_orders p
		JOIN clients c ON c.client_id = p.client_id
		WHERE (p.updated_at, p.purchase_order_id) > ($1, $2)
		ORDER BY p.updated_at, p.purchase_order_id
		LIMIT $3
	`, after.UpdatedAt, after.ID, batchLimit)
	if err != nil {
		return nil, fmt.Errorf("query purchase orders: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.PurchaseOrder, error) {
		var p core.PurchaseOrder
		err := row.Scan(&p.ID, &p.CompanyID, &p.UserID, &p.OrderNo,
			&p.Client.ID, &p.Client.CorpName,
			&p.CreatedAt, &p.DeliverAt, &p.ShippingAddress,
			&p.Manager, &p.ManagerNumber, &p.PaymentTerm, &p.UpdatedAt)
		return p, err
	})
}

func (db *DB) QuotesSince(ctx context.Context, after core.Cursor) ([]core.Quote, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT q.quote_id, q.company_id, q.user_id, q.quote_no,
		       c.client_id, c.corp_name,
		       q.created_at, q.shipping_address, q.manager, q.manager_number, q.updated_at
		FROM quotes q
		JOIN clients c ON c.client_id = q.client_id
		WHERE (q.updated_at, q.quote_id) > ($1, $2)
		ORDER BY q.updated_at, q.quote_id
		LIMIT $3
	`, after.UpdatedAt, after.ID, batchLimit)
	if err != nil {
		return nil, fmt.Errorf("query quotes: %w", err)
	}
	quotes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Quote, error) {
		var q core.Quote
		err := row.Scan(&q.ID, &q.CompanyID, &q.UserID, &q.QuoteNo,
			&q.Client.ID, &q.Client.CorpName,
			&q.CreatedAt, &q.ShippingAddress, &q.Manager, &q.ManagerNumber, &q.UpdatedAt)
		return q, err
	})
	if err != nil {
		return nil, err
	}

	for i := range quotes {
		if quotes[i].Products, err = db.quoteProducts(ctx, quotes[i].ID); err != nil {
			return nil, err
		}
	}
	return quotes, nil
}

func (db *DB) quoteProducts(ctx context.Context, quoteID int64) ([]core.QuoteProduct, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT product_name, count, price
		FROM quote_products
		WHERE quote_id = $1
		ORDER BY quote_product_id
	`, quoteID)
	if err != nil {
		return nil, fmt.Errorf("query quote products: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.QuoteProduct, error) {
		var p core.QuoteProduct
		err := row.Scan(&p.Name, &p.Count, &p.Price)
		return p, err
	})
}

func (db *DB) SchedulesSince(ctx context.Context, after core.Cursor) ([]core.Schedule, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT schedule_id, user_id, name, description, start_time, end_time, is_completed, updated_at
		FROM schedules
		WHERE (updated_at, schedule_id) > ($1, $2)
		ORDER BY updated_at, schedule_id
		LIMIT $3
	`, after.UpdatedAt, after.ID, batchLimit)
	if err != nil {
		return nil, fmt.Errorf("query schedules: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Schedule, error) {
		var s core.Schedule
		err := row.Scan(&s.ID, &s.UserID, &s.Name, &s.Description, &s.StartTime, &s.EndTime, &s.Completed, &s.UpdatedAt)
		return s, err
	})
}

func (db *DB) EmailsSince(ctx context.Context, after core.Cursor) ([]core.Email, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT email_id, user_id, sender, recipients, subject, body_text, body_html,
		       COALESCE(received_at, updated_at), updated_at
		FROM emails
		WHERE (updated_at, email_id) > ($1, $2)
		ORDER BY updated_at, email_id
		LIMIT $3
	`, after.UpdatedAt, after.ID, batchLimit)
	if err != nil {
		return nil, fmt.Errorf("query emails: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Email, error) {
		var e core.Email
		err := row.Scan(&e.ID, &e.UserID, &e.Sender, &e.Recipients, &e.Subject, &e.BodyText, &e.BodyHTML, &e.ReceivedAt, &e.UpdatedAt)
		return e, err
	})
}
