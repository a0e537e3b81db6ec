package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/lib/pq"

	"deskhub/internal/db"
	"deskhub/internal/entities"
	"deskhub/internal/utils"
)

const bookingColumns = `
	b.id, b.code, b.space_id, b.user_id, b.user_name, b.user_email, b.user_phone,
	b.start_date, b.end_date, b.status, b.total_price, b.currency,
	b.stripe_session_id, b.stripe_payment_intent_id, b.payment_status, b.created_at, b.updated_at`

type BookingRepository struct {
	DB *sql.DB
}

func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{DB: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*db.Booking, error) {
	var b db.Booking
	var start, end time.Time
	var status string
	err := row.Scan(
		&b.ID, &b.Code, &b.SpaceID, &b.UserID, &b.UserName, &b.UserEmail, &b.UserPhone,
		&start, &end, &status, &b.TotalPrice, &b.Currency,
		&b.StripeSessionID, &b.StripePaymentIntentID, &b.PaymentStatus, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.StartDate = civil.DateOf(start)
	b.EndDate = civil.DateOf(end)
	b.Status = db.BookingStatus(status)
	return &b, nil
}

func activeStatuses() interface{} {
	statuses := make([]string, len(db.ActiveBookingStatuses))
	for i, s := range db.ActiveBookingStatuses {
		statuses[i] = string(s)
	}
	return pq.Array(statuses)
}

func queryBookings(ctx context.Context, q interface {
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
}, query string, args ...interface{}) ([]db.Booking, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []db.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating booking rows: %w", err)
	}
	return bookings, nil
}

// ListActiveBookings returns the PENDING and CONFIRMED bookings of a space
// whose end date is not before from.
func (r *BookingRepository) ListActiveBookings(ctx context.Context, spaceID int, from civil.Date) ([]db.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings b
		WHERE b.space_id = $1 AND b.status = ANY($2) AND b.end_date >= $3
		ORDER BY b.start_date`
	bookings, err := queryBookings(ctx, r.DB, query, spaceID, activeStatuses(), utils.DateAtMidnight(from))
	if err != nil {
		return nil, fmt.Errorf("error listing active bookings for space %d: %w", spaceID, err)
	}
	return bookings, nil
}

// CreateIfAvailable inserts b while holding a row lock on its space, so two
// requests for the same space are serialized. check receives the space's
// active bookings read inside the transaction and vetoes the insert by
// returning an error. The exclusion constraint on the table reports any
// overlap that slips past check as ErrConflict.
func (r *BookingRepository) CreateIfAvailable(ctx context.Context, b *db.Booking, check func(existing []db.Booking) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting booking transaction: %w", err)
	}
	defer tx.Rollback()

	var lockedID int
	err = tx.QueryRowContext(ctx, `SELECT id FROM spaces WHERE id = $1 FOR UPDATE`, b.SpaceID).Scan(&lockedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("error locking space %d: %w", b.SpaceID, err)
	}

	query := `SELECT ` + bookingColumns + `
		FROM bookings b
		WHERE b.space_id = $1 AND b.status = ANY($2) AND b.end_date >= $3
		ORDER BY b.start_date`
	existing, err := queryBookings(ctx, tx, query, b.SpaceID, activeStatuses(), utils.DateAtMidnight(b.StartDate))
	if err != nil {
		return fmt.Errorf("error reading bookings of space %d: %w", b.SpaceID, err)
	}
	if err := check(existing); err != nil {
		return err
	}

	insert := `
		INSERT INTO bookings
		(code, space_id, user_id, user_name, user_email, user_phone, start_date, end_date, status, total_price, currency, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`
	err = tx.QueryRowContext(ctx, insert,
		b.Code,
		b.SpaceID,
		b.UserID,
		b.UserName,
		b.UserEmail,
		b.UserPhone,
		utils.DateAtMidnight(b.StartDate),
		utils.DateAtMidnight(b.EndDate),
		string(b.Status),
		b.TotalPrice,
		b.Currency,
		b.PaymentStatus,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if pqCode(err) == exclusionViolation {
			return ErrConflict
		}
		return fmt.Errorf("error inserting booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if pqCode(err) == exclusionViolation {
			return ErrConflict
		}
		return fmt.Errorf("error committing booking: %w", err)
	}
	return nil
}

func (r *BookingRepository) getOne(ctx context.Context, where string, arg interface{}) (*db.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE ` + where
	b, err := scanBooking(r.DB.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error querying booking: %w", err)
	}
	return b, nil
}

func (r *BookingRepository) GetByCode(ctx context.Context, code string) (*db.Booking, error) {
	return r.getOne(ctx, `b.code = $1`, code)
}

func (r *BookingRepository) GetByStripeSessionID(ctx context.Context, sessionID string) (*db.Booking, error) {
	return r.getOne(ctx, `b.stripe_session_id = $1`, sessionID)
}

func (r *BookingRepository) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*db.Booking, error) {
	return r.getOne(ctx, `b.stripe_payment_intent_id = $1`, paymentIntentID)
}

func (r *BookingRepository) SetStripeSession(ctx context.Context, id int, sessionID string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE bookings SET stripe_session_id = $2, updated_at = NOW() WHERE id = $1`, id, sessionID)
	if err != nil {
		return fmt.Errorf("error storing stripe session for booking %d: %w", id, err)
	}
	return expectOneRow(res)
}

// UpdateStatus sets the booking and payment status. An empty paymentStatus
// leaves the payment status untouched.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id int, status db.BookingStatus, paymentStatus string) error {
	query := `
		UPDATE bookings
		SET status = $2,
			payment_status = COALESCE(NULLIF($3, ''), payment_status),
			updated_at = NOW()
		WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, id, string(status), paymentStatus)
	if err != nil {
		return fmt.Errorf("error updating booking %d: %w", id, err)
	}
	return expectOneRow(res)
}

// Confirm moves a pending booking to CONFIRMED and records the payment intent.
// It returns ErrNotFound when the booking is no longer PENDING.
func (r *BookingRepository) Confirm(ctx context.Context, id int, paymentIntentID string) error {
	query := `
		UPDATE bookings
		SET status = $2,
			payment_status = $3,
			stripe_payment_intent_id = $4,
			updated_at = NOW()
		WHERE id = $1 AND status = $5`
	res, err := r.DB.ExecContext(ctx, query, id, string(db.BookingConfirmed), db.PaymentSucceeded, paymentIntentID, string(db.BookingPending))
	if err != nil {
		return fmt.Errorf("error confirming booking %d: %w", id, err)
	}
	return expectOneRow(res)
}

// ListBookings pages through bookings matching the filter, newest first.
func (r *BookingRepository) ListBookings(ctx context.Context, f entities.BookingFilter) ([]db.Booking, int64, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if f.SpaceID != 0 {
		where += " AND b.space_id = $" + strconv.Itoa(idx)
		args = append(args, f.SpaceID)
		idx++
	}
	if f.UserID != 0 {
		where += " AND b.user_id = $" + strconv.Itoa(idx)
		args = append(args, f.UserID)
		idx++
	}
	if f.HostID != 0 {
		where += " AND s.host_id = $" + strconv.Itoa(idx)
		args = append(args, f.HostID)
		idx++
	}
	if f.Status != "" {
		where += " AND b.status = $" + strconv.Itoa(idx)
		args = append(args, string(f.Status))
		idx++
	}
	if f.From != nil {
		where += " AND b.end_date >= $" + strconv.Itoa(idx)
		args = append(args, utils.DateAtMidnight(*f.From))
		idx++
	}
	if f.To != nil {
		where += " AND b.start_date <= $" + strconv.Itoa(idx)
		args = append(args, utils.DateAtMidnight(*f.To))
		idx++
	}

	from := ` FROM bookings b JOIN spaces s ON s.id = b.space_id`

	var total int64
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*)`+from+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting bookings: %w", err)
	}

	query := `SELECT ` + bookingColumns + from + where +
		" ORDER BY b.created_at DESC LIMIT $" + strconv.Itoa(idx) + " OFFSET $" + strconv.Itoa(idx+1)
	args = append(args, f.Limit, f.Offset)

	bookings, err := queryBookings(ctx, r.DB, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing bookings: %w", err)
	}
	return bookings, total, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
