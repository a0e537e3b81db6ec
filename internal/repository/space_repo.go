package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"deskhub/internal/db"
	"deskhub/internal/entities"
	"deskhub/internal/utils"
)

const spaceColumns = `
	s.id, s.host_id, s.title, s.description, s.workspace_type, s.address, s.city,
	s.latitude, s.longitude, s.capacity, s.price_per_day, s.currency, s.amenities,
	s.availability, s.details, s.created_at, s.updated_at`

type SpaceRepository struct {
	DB *sql.DB
}

func NewSpaceRepository(db *sql.DB) *SpaceRepository {
	return &SpaceRepository{DB: db}
}

func scanSpace(row rowScanner) (*db.Space, error) {
	var s db.Space
	var wt string
	err := row.Scan(
		&s.ID, &s.HostID, &s.Title, &s.Description, &wt, &s.Address, &s.City,
		&s.Latitude, &s.Longitude, &s.Capacity, &s.PricePerDay, &s.Currency, pq.Array(&s.Amenities),
		&s.Availability, &s.Details, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.WorkspaceType = db.WorkspaceType(wt)
	return &s, nil
}

func (r *SpaceRepository) GetSpace(ctx context.Context, id int) (*db.Space, error) {
	query := `SELECT ` + spaceColumns + ` FROM spaces s WHERE s.id = $1`
	s, err := scanSpace(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error querying space %d: %w", id, err)
	}
	return s, nil
}

func (r *SpaceRepository) CreateSpace(ctx context.Context, s *db.Space) error {
	query := `
		INSERT INTO spaces
		(host_id, title, description, workspace_type, address, city, latitude, longitude,
		 capacity, price_per_day, currency, amenities, availability, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at`
	err := r.DB.QueryRowContext(ctx, query,
		s.HostID,
		s.Title,
		s.Description,
		string(s.WorkspaceType),
		s.Address,
		s.City,
		s.Latitude,
		s.Longitude,
		s.Capacity,
		s.PricePerDay,
		s.Currency,
		pq.Array(nonNil(s.Amenities)),
		s.Availability,
		s.Details,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error inserting space: %w", err)
	}
	return nil
}

func (r *SpaceRepository) UpdateSpace(ctx context.Context, s *db.Space) error {
	query := `
		UPDATE spaces
		SET title = $2, description = $3, workspace_type = $4, address = $5, city = $6,
			latitude = $7, longitude = $8, capacity = $9, price_per_day = $10, currency = $11,
			amenities = $12, availability = $13, details = $14, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	err := r.DB.QueryRowContext(ctx, query,
		s.ID,
		s.Title,
		s.Description,
		string(s.WorkspaceType),
		s.Address,
		s.City,
		s.Latitude,
		s.Longitude,
		s.Capacity,
		s.PricePerDay,
		s.Currency,
		pq.Array(nonNil(s.Amenities)),
		s.Availability,
		s.Details,
	).Scan(&s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("error updating space %d: %w", s.ID, err)
	}
	return nil
}

// DeleteSpace removes a space. Spaces referenced by bookings are kept and
// reported as ErrInUse.
func (r *SpaceRepository) DeleteSpace(ctx context.Context, id int) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM spaces WHERE id = $1`, id)
	if err != nil {
		if pqCode(err) == foreignKeyViolation {
			return ErrInUse
		}
		return fmt.Errorf("error deleting space %d: %w", id, err)
	}
	return expectOneRow(res)
}

// SearchSpaces lists spaces matching the filter. When both FreeFrom and FreeTo
// are set, spaces with an active booking overlapping that range are left out.
func (r *SpaceRepository) SearchSpaces(ctx context.Context, f entities.SpaceFilter) ([]db.Space, int64, error) {
	var conds []string
	args := []interface{}{}
	idx := 1

	if f.WorkspaceType != "" {
		conds = append(conds, "s.workspace_type = $"+strconv.Itoa(idx))
		args = append(args, string(f.WorkspaceType))
		idx++
	}
	if f.City != "" {
		conds = append(conds, "LOWER(s.city) = LOWER($"+strconv.Itoa(idx)+")")
		args = append(args, f.City)
		idx++
	}
	if f.MinCapacity > 0 {
		conds = append(conds, "s.capacity >= $"+strconv.Itoa(idx))
		args = append(args, f.MinCapacity)
		idx++
	}
	if f.MaxPrice > 0 {
		conds = append(conds, "s.price_per_day <= $"+strconv.Itoa(idx))
		args = append(args, f.MaxPrice)
		idx++
	}
	if f.FreeFrom != nil && f.FreeTo != nil {
		conds = append(conds, `NOT EXISTS (
			SELECT 1 FROM bookings b
			WHERE b.space_id = s.id
			  AND b.status = ANY($`+strconv.Itoa(idx)+`)
			  AND b.start_date <= $`+strconv.Itoa(idx+2)+`
			  AND b.end_date >= $`+strconv.Itoa(idx+1)+`)`)
		args = append(args, activeStatuses(), utils.DateAtMidnight(*f.FreeFrom), utils.DateAtMidnight(*f.FreeTo))
		idx += 3
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM spaces s`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting spaces: %w", err)
	}

	query := `SELECT ` + spaceColumns + ` FROM spaces s` + where +
		" ORDER BY s.id LIMIT $" + strconv.Itoa(idx) + " OFFSET $" + strconv.Itoa(idx+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error searching spaces: %w", err)
	}
	defer rows.Close()

	spaces := []db.Space{}
	for rows.Next() {
		s, err := scanSpace(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning space: %w", err)
		}
		spaces = append(spaces, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error after iterating space rows: %w", err)
	}
	return spaces, total, nil
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
