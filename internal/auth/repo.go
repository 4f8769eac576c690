package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quillstack/userd/internal/shared"
)

// Repository defines persistence operations for the credential lifecycle.
// Uniqueness of email and username is enforced by the store; the service's
// pre-check only produces a cleaner conflict error.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByEmailOrUsername(ctx context.Context, email, username string) (*User, error)
	Insert(ctx context.Context, user *User) (*User, error)
	// FindAndActivateByToken atomically activates the record matching an
	// unexpired token and invalidates the token. Unknown and expired tokens
	// are both reported as shared.ErrNotFound.
	FindAndActivateByToken(ctx context.Context, token string, now time.Time) (*User, error)
}

const uniqueViolationCode = "23505"

const userColumns = `id, email, username, password_hash, role, active,
	activation_token, activation_expires, password_reset_token, password_reset_expires,
	first_name, last_name, bio, created_at, updated_at`

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// FindByEmailOrUsername fetches a user matching either identifier. Used as
// the registration pre-check.
func (r *PGRepository) FindByEmailOrUsername(ctx context.Context, email, username string) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 OR username = $2 LIMIT 1`,
		email, username)
	return scanUser(row)
}

// Insert persists a pending user. A uniqueness race lost against a concurrent
// registration surfaces as shared.ErrDuplicate.
func (r *PGRepository) Insert(ctx context.Context, user *User) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (
			id, email, username, password_hash, role, active,
			activation_token, activation_expires,
			first_name, last_name, bio, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())
		RETURNING created_at, updated_at`,
		user.ID, user.Email, user.Username, user.PasswordHash, user.Role, user.Active,
		nullText(user.ActivationToken), nullTime(user.ActivationExpires),
		user.Profile.FirstName, user.Profile.LastName, user.Profile.Bio,
	)
	persisted := *user
	if err := row.Scan(&persisted.CreatedAt, &persisted.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, shared.ErrDuplicate
		}
		return nil, err
	}
	return &persisted, nil
}

// FindAndActivateByToken performs the activate-and-consume step as a single
// conditional update so that concurrent attempts succeed at most once.
func (r *PGRepository) FindAndActivateByToken(ctx context.Context, token string, now time.Time) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET active = TRUE, activation_token = NULL, activation_expires = NULL, updated_at = now()
		WHERE activation_token = $1 AND activation_expires > $2 AND active = FALSE
		RETURNING `+userColumns,
		token, now)
	return scanUser(row)
}

func scanUser(row pgx.Row) (*User, error) {
	var (
		user              User
		activationToken   pgtype.Text
		activationExpires pgtype.Timestamptz
		resetToken        pgtype.Text
		resetExpires      pgtype.Timestamptz
	)
	err := row.Scan(
		&user.ID, &user.Email, &user.Username, &user.PasswordHash, &user.Role, &user.Active,
		&activationToken, &activationExpires, &resetToken, &resetExpires,
		&user.Profile.FirstName, &user.Profile.LastName, &user.Profile.Bio,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	user.ActivationToken = activationToken.String
	user.ActivationExpires = activationExpires.Time
	user.PasswordResetToken = resetToken.String
	user.PasswordResetExpires = resetExpires.Time
	return &user, nil
}

func nullText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func nullTime(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: !t.IsZero()}
}

var _ Repository = (*PGRepository)(nil)
