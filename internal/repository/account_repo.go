package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"deskhub/internal/db"
)

type AccountRepository interface {
	GetByEmail(ctx context.Context, email string) (*db.Account, error)
	Create(ctx context.Context, a *db.Account) error
}

type accountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) AccountRepository {
	return &accountRepository{db: db}
}

// GetByEmail returns nil and no error when no account uses the email.
func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*db.Account, error) {
	var a db.Account
	var role string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, full_name, phone, role, created_at FROM accounts WHERE LOWER(email) = LOWER($1)`, email).
		Scan(&a.ID, &a.Email, &a.PasswordHash, &a.FullName, &a.Phone, &role, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying account: %w", err)
	}
	a.Role = db.Role(role)
	return &a, nil
}

func (r *accountRepository) Create(ctx context.Context, a *db.Account) error {
	query := `
		INSERT INTO accounts (email, password_hash, full_name, phone, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, a.Email, a.PasswordHash, a.FullName, a.Phone, string(a.Role)).
		Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		if pqCode(err) == uniqueViolation {
			return ErrDuplicate
		}
		return fmt.Errorf("error inserting account: %w", err)
	}
	return nil
}
