package entity

import (
	"strings"
	"time"
)

// OTPState is the login flow state for one identifier
type OTPState string

const (
	OTPStateIdle     OTPState = "idle"
	OTPStateSent     OTPState = "sent"
	OTPStateVerified OTPState = "verified"
	OTPStateExpired  OTPState = "expired"
)

// OTPIdentity identifies the patient requesting a code.
// Domestic patients use a mobile number, international patients an email.
type OTPIdentity struct {
	Mobile      string `json:"mobile,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	Email       string `json:"email,omitempty"`
}

// IsInternational checks if the identity is email based
func (i OTPIdentity) IsInternational() bool {
	return i.Email != ""
}

// Key returns a stable identifier used for OTP state keys
func (i OTPIdentity) Key() string {
	if i.IsInternational() {
		return "email:" + strings.ToLower(strings.TrimSpace(i.Email))
	}
	return "mobile:" + strings.TrimPrefix(strings.TrimSpace(i.CountryCode), "+") + strings.TrimSpace(i.Mobile)
}

// OTPChallenge is the tracked state of an issued code
type OTPChallenge struct {
	State       OTPState  `json:"state"`
	Identity    string    `json:"identity"`
	SentAt      time.Time `json:"sent_at"`
	ResendCount int       `json:"resend_count"`
}
