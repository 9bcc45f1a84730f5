package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session binds a BFF access token to the backend bearer token it was issued for.
type Session struct {
	ID            string    `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	BackendUserID string    `json:"backend_user_id"`
	DisplayName   string    `json:"display_name"`
	BackendToken  string    `json:"backend_token"`
	CreatedAt     time.Time `json:"created_at"`
}

// BackendLogin is the result of a successful upstream OTP verification
type BackendLogin struct {
	Token  string
	UserID string
	Name   string
}

// SessionUserID derives a stable UUID for a backend user so audit rows group by patient
func SessionUserID(backendUserID string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("patient:"+backendUserID))
}
