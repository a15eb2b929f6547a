package session

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserProfile is the authenticated user as returned by the API and cached
// in the credential store.
type UserProfile struct {
	ID             uuid.UUID       `json:"id"`
	CreatedAt      time.Time       `json:"created_at" table:"wide"`
	UpdatedAt      time.Time       `json:"updated_at" table:"wide"`
	Email          string          `json:"email"`
	FirstName      string          `json:"first_name"`
	LastName       string          `json:"last_name"`
	Phone          string          `json:"phone" table:"wide"`
	DateOfBirth    *string         `json:"date_of_birth" table:"wide"`
	ProfilePicture string          `json:"profile_picture" table:"wide"`
	IsActive       bool            `json:"is_active"`
	FamilyID       *uuid.UUID      `json:"family_id" table:"wide"`
	Role           string          `json:"role"`
	Address        json.RawMessage `json:"address,omitempty" table:"wide"`
	Groups         json.RawMessage `json:"groups,omitempty" table:"wide"`
	IsSuperAdmin   bool            `json:"is_super_admin" table:"wide"`
	IsStaff        bool            `json:"is_staff" table:"wide"`
}

// FullName returns "First Last", falling back to the email.
func (u *UserProfile) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// HasFamily reports whether the user belongs to a family.
func (u *UserProfile) HasFamily() bool {
	return u.FamilyID != nil && *u.FamilyID != uuid.Nil
}

// AuthTokens is the token pair returned by the refresh endpoint.
type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// LoginRequest is the body of the login call.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body of the registration call.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// LoginResponse is the data of a successful login or registration.
type LoginResponse struct {
	User         UserProfile `json:"user"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int64       `json:"expires_in"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}
