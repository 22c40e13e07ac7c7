package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// UserRepositoryPG implements UserRepository using PostgreSQL.
type UserRepositoryPG struct {
	runner infra.SQLExecutor
}

// NewUserRepository creates a new user repo.
func NewUserRepository(runner infra.SQLExecutor) *UserRepositoryPG {
	return &UserRepositoryPG{runner: runner}
}

// Create inserts a new user record.
func (r *UserRepositoryPG) Create(ctx context.Context, user *domain.User) error {
	_, err := r.runner.Exec(ctx, sqlinline.QInsertUser,
		user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName,
		string(user.Role), string(user.Status), user.EmailVerified, user.Country, user.Language)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// GetByID returns a user by id.
func (r *UserRepositoryPG) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(r.runner.QueryRow(ctx, sqlinline.QGetUserByID, id))
}

// GetByEmail returns a user by email. The lookup is case-insensitive.
func (r *UserRepositoryPG) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.runner.QueryRow(ctx, sqlinline.QGetUserByEmail, email))
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	var role, status string
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName,
		&role, &status, &user.EmailVerified, &user.Country, &user.Language,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	user.Role = domain.UserRole(role)
	user.Status = domain.UserStatus(status)
	return &user, nil
}

var _ domain.UserRepository = (*UserRepositoryPG)(nil)
