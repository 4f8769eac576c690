package users

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quillstack/userd/internal/auth"
)

// Repository provides PostgreSQL backed persistence for user listings.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListUsers returns all users. The password hash is excluded from the
// projection; it never leaves the store for this path.
func (r *Repository) ListUsers(ctx context.Context) ([]auth.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, email, username, role, active,
			activation_token, activation_expires,
			first_name, last_name, bio, created_at, updated_at
		FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []auth.User
	for rows.Next() {
		var (
			user              auth.User
			activationToken   pgtype.Text
			activationExpires pgtype.Timestamptz
		)
		if err := rows.Scan(
			&user.ID, &user.Email, &user.Username, &user.Role, &user.Active,
			&activationToken, &activationExpires,
			&user.Profile.FirstName, &user.Profile.LastName, &user.Profile.Bio,
			&user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		user.ActivationToken = activationToken.String
		user.ActivationExpires = activationExpires.Time
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}
