package auth

import (
	"time"

	"github.com/google/uuid"
)

// Profile carries the free-form descriptive fields of an account.
type Profile struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Bio       string `json:"bio"`
}

// User represents an identity and credential record. Accounts start pending
// (Active=false with an activation token) and become active exactly once.
type User struct {
	ID           uuid.UUID
	Email        string
	Username     string
	PasswordHash string
	Role         string

	Active bool

	ActivationToken   string
	ActivationExpires time.Time

	// Reset fields exist for schema parity; no endpoint consumes them.
	PasswordResetToken   string
	PasswordResetExpires time.Time

	Profile Profile

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PublicUser is the view of a User that may cross the service boundary.
// It never carries the password hash.
type PublicUser struct {
	ID                uuid.UUID  `json:"id"`
	Email             string     `json:"email"`
	Username          string     `json:"username"`
	Role              string     `json:"role"`
	Active            bool       `json:"active"`
	ActivationToken   string     `json:"activationToken,omitempty"`
	ActivationExpires *time.Time `json:"activationExpires,omitempty"`
	Profile           Profile    `json:"profile"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// Public strips the credential material from a User.
func (u *User) Public() PublicUser {
	view := PublicUser{
		ID:              u.ID,
		Email:           u.Email,
		Username:        u.Username,
		Role:            u.Role,
		Active:          u.Active,
		ActivationToken: u.ActivationToken,
		Profile:         u.Profile,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
	if !u.ActivationExpires.IsZero() {
		expires := u.ActivationExpires
		view.ActivationExpires = &expires
	}
	return view
}
