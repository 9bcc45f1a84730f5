package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"patient-appointments-bff/internal/delivery/dto"
	"patient-appointments-bff/internal/delivery/http/middleware"
	"patient-appointments-bff/internal/usecase"
	"patient-appointments-bff/pkg/jwt"
	"patient-appointments-bff/pkg/response"
	"patient-appointments-bff/pkg/validator"
)

type AuthHandler struct {
	authUsecase usecase.AuthUsecase
	validator   *validator.CustomValidator
	jwtService  *jwt.JWTService
}

func NewAuthHandler(authUsecase usecase.AuthUsecase, validator *validator.CustomValidator, jwtService *jwt.JWTService) *AuthHandler {
	return &AuthHandler{
		authUsecase: authUsecase,
		validator:   validator,
		jwtService:  jwtService,
	}
}

// SendOTP handles OTP delivery and resend
// @Summary Send a login code
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.SendOTPRequest true "Send OTP Request"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 429 {object} response.Response
// @Router /auth/otp/send [post]
func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req dto.SendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	status, err := h.authUsecase.SendOTP(r.Context(), &req)
	if err != nil {
		var cooldown *usecase.CooldownError
		switch {
		case errors.As(err, &cooldown):
			response.TooManyRequests(w, "Please wait before requesting another OTP", cooldown.Seconds())
		case errors.Is(err, usecase.ErrBackendUnavailable):
			response.BadGateway(w, "Failed to send OTP")
		default:
			response.InternalServerError(w, "Failed to send OTP")
		}
		return
	}

	response.Success(w, http.StatusOK, "OTP sent successfully", status)
}

// VerifyOTP handles OTP verification and starts a session
// @Summary Verify a login code
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.VerifyOTPRequest true "Verify OTP Request"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 410 {object} response.Response
// @Router /auth/otp/verify [post]
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	tokens, err := h.authUsecase.VerifyOTP(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidOTP):
			response.Error(w, http.StatusUnauthorized, "Invalid OTP", nil)
		case errors.Is(err, usecase.ErrOTPExpired):
			response.Error(w, http.StatusGone, "OTP expired, please request a new one", nil)
		case errors.Is(err, usecase.ErrBackendUnavailable):
			response.BadGateway(w, "Failed to verify OTP")
		default:
			response.InternalServerError(w, "Failed to verify OTP")
		}
		return
	}

	response.Success(w, http.StatusOK, "Login successful", tokens)
}

// OTPStatus reports the countdown state of a code
// @Summary OTP status
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.OTPStatusRequest true "OTP Status Request"
// @Success 200 {object} response.Response
// @Router /auth/otp/status [post]
func (h *AuthHandler) OTPStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.OTPStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	status, err := h.authUsecase.OTPStatus(r.Context(), &req)
	if err != nil {
		response.InternalServerError(w, "Failed to get OTP status")
		return
	}

	response.Success(w, http.StatusOK, "OTP status retrieved successfully", status)
}

// Logout handles user logout
// @Summary Logout user
// @Description Logout, revoke tokens and discard the appointment view
// @Tags Auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	tokenID, ok := middleware.GetTokenIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}
	session, _ := middleware.GetSessionFromContext(r.Context())

	// Get refresh token from request body if provided
	var req dto.LogoutRequest
	json.NewDecoder(r.Body).Decode(&req)

	refreshTokenID := ""
	if req.RefreshToken != "" {
		claims, err := h.jwtService.ValidateToken(req.RefreshToken)
		if err == nil && claims.TokenType == jwt.RefreshToken {
			refreshTokenID = claims.TokenID
		}
	}

	if err := h.authUsecase.Logout(r.Context(), session, tokenID, refreshTokenID); err != nil {
		response.InternalServerError(w, "Failed to logout")
		return
	}

	response.Success(w, http.StatusOK, "Logout successful", nil)
}

// RefreshToken handles token refresh
// @Summary Refresh access token
// @Description Get new access token using refresh token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh Token Request"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/refresh-token [post]
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	tokens, err := h.authUsecase.RefreshToken(r.Context(), &req)
	if err != nil {
		switch err {
		case usecase.ErrInvalidToken, usecase.ErrTokenRevoked:
			response.Error(w, http.StatusUnauthorized, err.Error(), nil)
		default:
			response.InternalServerError(w, "Failed to refresh token")
		}
		return
	}

	response.Success(w, http.StatusOK, "Token refreshed successfully", tokens)
}

// GetCurrentUser handles getting current user info
// @Summary Get current user
// @Description Get the patient behind the current session
// @Tags Auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/me [get]
func (h *AuthHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	user, err := h.authUsecase.GetCurrentUser(r.Context(), session)
	if err != nil {
		response.InternalServerError(w, "Failed to get user info")
		return
	}

	response.Success(w, http.StatusOK, "User retrieved successfully", user)
}
