package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"patient-appointments-bff/config"
	"patient-appointments-bff/internal/delivery/dto"
	"patient-appointments-bff/internal/delivery/http/middleware"
	"patient-appointments-bff/internal/domain/entity"
	"patient-appointments-bff/internal/usecase"
	"patient-appointments-bff/pkg/jwt"
	"patient-appointments-bff/pkg/validator"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuthUsecase struct {
	sendErr       error
	verifyErr     error
	sendReq       *dto.SendOTPRequest
	logoutAccess  string
	logoutRefresh string
}

func (s *stubAuthUsecase) SendOTP(_ context.Context, req *dto.SendOTPRequest) (*dto.OTPStatusResponse, error) {
	s.sendReq = req
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	return &dto.OTPStatusResponse{State: string(entity.OTPStateSent), ExpiresIn: 300, ResendIn: 30, ResendCount: 0}, nil
}

func (s *stubAuthUsecase) VerifyOTP(context.Context, *dto.VerifyOTPRequest) (*dto.TokenResponse, error) {
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	return &dto.TokenResponse{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 900}, nil
}

func (s *stubAuthUsecase) OTPStatus(context.Context, *dto.OTPStatusRequest) (*dto.OTPStatusResponse, error) {
	return &dto.OTPStatusResponse{State: string(entity.OTPStateIdle)}, nil
}

func (s *stubAuthUsecase) RefreshToken(context.Context, *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	return nil, usecase.ErrTokenRevoked
}

func (s *stubAuthUsecase) Logout(_ context.Context, _ *entity.Session, accessTokenID, refreshTokenID string) error {
	s.logoutAccess = accessTokenID
	s.logoutRefresh = refreshTokenID
	return nil
}

func (s *stubAuthUsecase) GetCurrentUser(_ context.Context, session *entity.Session) (*dto.UserResponse, error) {
	return &dto.UserResponse{ID: session.UserID, SessionID: session.ID}, nil
}

type rawEnvelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Error   map[string]string `json:"error"`
	Meta    *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"meta"`
}

func newAuthHandler(uc usecase.AuthUsecase) (*AuthHandler, *jwt.JWTService) {
	jwtService := jwt.NewJWTService(config.JWTConfig{Secret: "test-secret", AccessExpiry: time.Minute, RefreshExpiry: time.Hour})
	return NewAuthHandler(uc, validator.NewValidator(), jwtService), jwtService
}

func decodeRaw(t *testing.T, rec *httptest.ResponseRecorder) rawEnvelope {
	t.Helper()
	var env rawEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestAuthHandler_SendOTP(t *testing.T) {
	uc := &stubAuthUsecase{}
	h, _ := newAuthHandler(uc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/otp/send", strings.NewReader(`{"mobile":"9876543210","country_code":"+91"}`))
	h.SendOTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, uc.sendReq)
	assert.Equal(t, "9876543210", uc.sendReq.Mobile)
}

func TestAuthHandler_SendOTPNeedsIdentity(t *testing.T) {
	uc := &stubAuthUsecase{}
	h, _ := newAuthHandler(uc)

	rec := httptest.NewRecorder()
	h.SendOTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/otp/send", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeRaw(t, rec)
	assert.Contains(t, env.Error, "Mobile")
	assert.Contains(t, env.Error, "Email")
	assert.Nil(t, uc.sendReq)
}

func TestAuthHandler_SendOTPCooldown(t *testing.T) {
	uc := &stubAuthUsecase{sendErr: &usecase.CooldownError{Remaining: 12500 * time.Millisecond}}
	h, _ := newAuthHandler(uc)

	rec := httptest.NewRecorder()
	h.SendOTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/otp/send", strings.NewReader(`{"email":"p@example.com"}`)))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	env := decodeRaw(t, rec)
	require.NotNil(t, env.Meta)
	assert.Equal(t, 13, env.Meta.RetryAfter)
}

func TestAuthHandler_VerifyOTPErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "wrong code", err: usecase.ErrInvalidOTP, wantStatus: http.StatusUnauthorized},
		{name: "expired", err: usecase.ErrOTPExpired, wantStatus: http.StatusGone},
		{name: "upstream down", err: usecase.ErrBackendUnavailable, wantStatus: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newAuthHandler(&stubAuthUsecase{verifyErr: tt.err})

			rec := httptest.NewRecorder()
			body := `{"email":"p@example.com","otp":"123456"}`
			h.VerifyOTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/otp/verify", strings.NewReader(body)))

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestAuthHandler_RefreshTokenRevoked(t *testing.T) {
	h, _ := newAuthHandler(&stubAuthUsecase{})

	rec := httptest.NewRecorder()
	h.RefreshToken(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh-token", strings.NewReader(`{"refresh_token":"x"}`)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandler_LogoutPassesRefreshTokenID(t *testing.T) {
	uc := &stubAuthUsecase{}
	h, jwtService := newAuthHandler(uc)
	userID := uuid.New()

	refresh, refreshID, err := jwtService.GenerateRefreshToken(userID, "sess-1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", strings.NewReader(`{"refresh_token":"`+refresh+`"}`))
	ctx := context.WithValue(req.Context(), middleware.TokenIDKey, "access-id")
	ctx = context.WithValue(ctx, middleware.SessionKey, &entity.Session{ID: "sess-1", UserID: userID})

	rec := httptest.NewRecorder()
	h.Logout(rec, req.WithContext(ctx))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "access-id", uc.logoutAccess)
	assert.Equal(t, refreshID, uc.logoutRefresh)
}
