package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var ErrInvalidTransition = errors.New("invalid checkout status transition")

// JournalEntry is the local record of one submission: who ordered what from
// which restaurant, the backend's order id, the payment ref and where the
// checkout ended up. The backend owns the order itself; the journal exists so
// order history and payment outcomes survive on this side.
type JournalEntry struct {
	ID           string
	UserID       string
	RestaurantID string
	OrderID      string
	Total        decimal.Decimal
	ServiceFee   decimal.Decimal
	PaymentRef   string
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Journal struct{ DB *pgxpool.Pool }

// Record inserts a fresh entry for a just-submitted order.
func (j *Journal) Record(ctx context.Context, e *JournalEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Status == "" {
		e.Status = StatusSubmitting
	}
	return j.DB.QueryRow(ctx, `
		INSERT INTO checkout_journal(id, user_id, restaurant_id, order_id, total, service_fee, payment_ref, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		e.ID, e.UserID, e.RestaurantID, e.OrderID, e.Total, e.ServiceFee, e.PaymentRef, string(e.Status),
	).Scan(&e.CreatedAt, &e.UpdatedAt)
}

// SetPaymentRef attaches the gateway reference and moves the entry to
// AWAITING_PAYMENT.
func (j *Journal) SetPaymentRef(ctx context.Context, orderID, paymentRef string) error {
	ct, err := j.DB.Exec(ctx, `
		UPDATE checkout_journal
		SET payment_ref = $2, status = $3, updated_at = now()
		WHERE order_id = $1`,
		orderID, paymentRef, string(StatusAwaitingPayment))
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("journal: order %s not found", orderID)
	}
	return nil
}

// SetStatus transitions an entry, guarding against invalid jumps. The current
// status is locked first so concurrent pollers cannot double-finalize.
func (j *Journal) SetStatus(ctx context.Context, orderID string, status Status) error {
	tx, err := j.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var current string
	if err := tx.QueryRow(ctx, `SELECT status FROM checkout_journal WHERE order_id=$1 FOR UPDATE`, orderID).Scan(&current); err != nil {
		return fmt.Errorf("journal: order %s: %w", orderID, err)
	}
	if !CanTransition(Status(current), status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, status)
	}
	if _, err := tx.Exec(ctx, `UPDATE checkout_journal SET status=$2, updated_at=now() WHERE order_id=$1`,
		orderID, string(status)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetByPaymentRef looks an entry up by gateway reference.
func (j *Journal) GetByPaymentRef(ctx context.Context, paymentRef string) (*JournalEntry, error) {
	row := j.DB.QueryRow(ctx, `
		SELECT id, user_id, restaurant_id, order_id, total, service_fee, payment_ref, status, created_at, updated_at
		FROM checkout_journal WHERE payment_ref=$1`, paymentRef)
	return scanEntry(row)
}

// ListByUser returns a user's submissions, newest first.
func (j *Journal) ListByUser(ctx context.Context, userID string) ([]JournalEntry, error) {
	rows, err := j.DB.Query(ctx, `
		SELECT id, user_id, restaurant_id, order_id, total, service_fee, payment_ref, status, created_at, updated_at
		FROM checkout_journal WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

type rowScanner interface{ Scan(dest ...any) error }

func scanEntry(row rowScanner) (*JournalEntry, error) {
	var e JournalEntry
	var status string
	if err := row.Scan(&e.ID, &e.UserID, &e.RestaurantID, &e.OrderID, &e.Total, &e.ServiceFee,
		&e.PaymentRef, &status, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.Status = Status(status)
	return &e, nil
}
