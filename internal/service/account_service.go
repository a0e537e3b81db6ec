package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"deskhub/internal/db"
	apperrors "deskhub/internal/errors"
	"deskhub/internal/repository"
)

type TokenIssuer interface {
	Issue(a *db.Account) (string, error)
}

type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Phone    string
	Role     db.Role
}

type AccountService interface {
	Register(ctx context.Context, in RegisterInput) (*db.Account, error)
	Login(ctx context.Context, email, password string) (string, error)
	EnsureAdmin(ctx context.Context, email, password string) error
}

type accountService struct {
	repo   repository.AccountRepository
	tokens TokenIssuer
}

func NewAccountService(repo repository.AccountRepository, tokens TokenIssuer) AccountService {
	return &accountService{repo: repo, tokens: tokens}
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func checkPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Register creates a renter or host account. Admin accounts are only created
// through EnsureAdmin.
func (s *accountService) Register(ctx context.Context, in RegisterInput) (*db.Account, error) {
	if in.Role == "" {
		in.Role = db.RoleRenter
	}
	if in.Role != db.RoleRenter && in.Role != db.RoleHost {
		return nil, apperrors.ErrBadRequest("role must be renter or host")
	}
	return s.create(ctx, in)
}

func (s *accountService) create(ctx context.Context, in RegisterInput) (*db.Account, error) {
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	account := &db.Account{
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: hash,
		FullName:     in.FullName,
		Phone:        in.Phone,
		Role:         in.Role,
	}
	if err := s.repo.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return account, nil
}

func (s *accountService) Login(ctx context.Context, email, password string) (string, error) {
	account, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return "", err
	}
	if account == nil || !checkPasswordHash(password, account.PasswordHash) {
		return "", ErrInvalidCredentials
	}
	return s.tokens.Issue(account)
}

// EnsureAdmin creates the admin account if no account uses the email yet.
func (s *accountService) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return errors.New("email and password cannot be empty")
	}
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	if _, err := s.create(ctx, RegisterInput{Email: email, Password: password, FullName: "Administrator", Role: db.RoleAdmin}); err != nil {
		return err
	}
	log.Printf("Admin account %s created", email)
	return nil
}
