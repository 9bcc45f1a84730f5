package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

// OTPIdentityRequest identifies a patient. Domestic patients send mobile and
// country_code, international patients send email.
type OTPIdentityRequest struct {
	Mobile      string `json:"mobile" validate:"required_without=Email,omitempty,numeric,min=6,max=15"`
	CountryCode string `json:"country_code" validate:"required_with=Mobile,omitempty,max=5"`
	Email       string `json:"email" validate:"required_without=Mobile,omitempty,email"`
}

type SendOTPRequest struct {
	OTPIdentityRequest
}

type VerifyOTPRequest struct {
	OTPIdentityRequest
	OTP string `json:"otp" validate:"required,numeric,min=4,max=8"`
}

type OTPStatusRequest struct {
	OTPIdentityRequest
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Response DTOs

// OTPStatusResponse drives the countdown shown next to the code input
type OTPStatusResponse struct {
	State       string `json:"state"`
	ExpiresIn   int64  `json:"expires_in"`
	ResendIn    int64  `json:"resend_in"`
	ResendCount int    `json:"resend_count"`
}

type TokenResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int64         `json:"expires_in"`
	User         *UserResponse `json:"user,omitempty"`
}

type UserResponse struct {
	ID            uuid.UUID `json:"id"`
	BackendUserID string    `json:"backend_user_id"`
	Name          string    `json:"name"`
	SessionID     string    `json:"session_id"`
	LoggedInAt    time.Time `json:"logged_in_at"`
}
