package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"patient-appointments-bff/config"
	"patient-appointments-bff/internal/converter"
	"patient-appointments-bff/internal/delivery/dto"
	"patient-appointments-bff/internal/domain/entity"
	"patient-appointments-bff/internal/domain/repository"
	"patient-appointments-bff/internal/infrastructure/backend"
	"patient-appointments-bff/internal/service"
	"patient-appointments-bff/pkg/jwt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrOTPCooldown  = errors.New("otp was sent recently, please wait before requesting another")
	ErrOTPExpired   = errors.New("otp expired or was never requested")
	ErrInvalidOTP   = errors.New("invalid otp")
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrTokenRevoked = errors.New("token has been revoked")
)

// challenges stay readable for one extra lifetime so status can report "expired"
const otpRetentionFactor = 2

// CooldownError carries the wait before another code may be requested
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s (%ds)", ErrOTPCooldown.Error(), e.Seconds())
}

func (e *CooldownError) Is(target error) bool {
	return target == ErrOTPCooldown
}

func (e *CooldownError) Seconds() int {
	return int(ceilSeconds(e.Remaining))
}

type AuthUsecase interface {
	SendOTP(ctx context.Context, req *dto.SendOTPRequest) (*dto.OTPStatusResponse, error)
	VerifyOTP(ctx context.Context, req *dto.VerifyOTPRequest) (*dto.TokenResponse, error)
	OTPStatus(ctx context.Context, req *dto.OTPStatusRequest) (*dto.OTPStatusResponse, error)
	RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, session *entity.Session, accessTokenID, refreshTokenID string) error
	GetCurrentUser(ctx context.Context, session *entity.Session) (*dto.UserResponse, error)
}

type authUsecase struct {
	log          *logrus.Logger
	otpGateway   repository.OTPGateway
	otpRepo      repository.OTPRepository
	sessionRepo  repository.SessionRepository
	jwtService   *jwt.JWTService
	views        *service.ViewSessionService
	auditService service.AuditService
	otpConfig    config.OTPConfig
}

func NewAuthUsecase(
	log *logrus.Logger,
	otpGateway repository.OTPGateway,
	otpRepo repository.OTPRepository,
	sessionRepo repository.SessionRepository,
	jwtService *jwt.JWTService,
	views *service.ViewSessionService,
	auditService service.AuditService,
	otpConfig config.OTPConfig,
) AuthUsecase {
	return &authUsecase{
		log:          log,
		otpGateway:   otpGateway,
		otpRepo:      otpRepo,
		sessionRepo:  sessionRepo,
		jwtService:   jwtService,
		views:        views,
		auditService: auditService,
		otpConfig:    otpConfig,
	}
}

func (u *authUsecase) SendOTP(ctx context.Context, req *dto.SendOTPRequest) (*dto.OTPStatusResponse, error) {
	identity := toOTPIdentity(req.OTPIdentityRequest)
	key := identity.Key()

	acquired, wait, err := u.otpRepo.AcquireCooldown(ctx, key, u.otpConfig.ResendCooldown)
	if err != nil {
		u.log.Warnf("Failed to acquire otp cooldown: %+v", err)
		return nil, err
	}
	if !acquired {
		return nil, &CooldownError{Remaining: wait}
	}

	previous, err := u.otpRepo.Find(ctx, key)
	if err != nil {
		u.log.Warnf("Failed to read previous otp challenge: %+v", err)
	}

	if err := u.otpGateway.SendOTP(ctx, identity); err != nil {
		u.log.Warnf("Failed to send otp: %+v", err)
		if releaseErr := u.otpRepo.ReleaseCooldown(ctx, key); releaseErr != nil {
			u.log.Warnf("Failed to release otp cooldown: %+v", releaseErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	challenge := &entity.OTPChallenge{
		State:    entity.OTPStateSent,
		Identity: key,
		SentAt:   time.Now().UTC(),
	}
	if previous != nil && previous.State == entity.OTPStateSent {
		challenge.ResendCount = previous.ResendCount + 1
	}

	if err := u.otpRepo.Save(ctx, key, challenge, u.otpConfig.Expiry*otpRetentionFactor); err != nil {
		u.log.Warnf("Failed to store otp challenge: %+v", err)
		return nil, err
	}

	_ = u.auditService.LogEvent(ctx, nil, "", entity.AuditActionOTPSend, entity.JSON{
		"channel":      otpChannel(identity),
		"resend_count": challenge.ResendCount,
	})

	return u.challengeStatus(challenge, u.otpConfig.ResendCooldown), nil
}

func (u *authUsecase) OTPStatus(ctx context.Context, req *dto.OTPStatusRequest) (*dto.OTPStatusResponse, error) {
	key := toOTPIdentity(req.OTPIdentityRequest).Key()

	challenge, err := u.otpRepo.Find(ctx, key)
	if err != nil {
		u.log.Warnf("Failed to find otp challenge: %+v", err)
		return nil, err
	}

	resendIn, err := u.otpRepo.CooldownRemaining(ctx, key)
	if err != nil {
		u.log.Warnf("Failed to read otp cooldown: %+v", err)
		return nil, err
	}

	return u.challengeStatus(challenge, resendIn), nil
}

func (u *authUsecase) VerifyOTP(ctx context.Context, req *dto.VerifyOTPRequest) (*dto.TokenResponse, error) {
	identity := toOTPIdentity(req.OTPIdentityRequest)
	key := identity.Key()

	challenge, err := u.otpRepo.Find(ctx, key)
	if err != nil {
		u.log.Warnf("Failed to find otp challenge: %+v", err)
		return nil, err
	}
	if challenge == nil || u.currentState(challenge) != entity.OTPStateSent {
		return nil, ErrOTPExpired
	}

	login, err := u.otpGateway.VerifyOTP(ctx, identity, strings.TrimSpace(req.OTP))
	if err != nil {
		var statusErr *backend.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode >= http.StatusBadRequest && statusErr.StatusCode < http.StatusInternalServerError {
			return nil, ErrInvalidOTP
		}
		u.log.Warnf("Failed to verify otp: %+v", err)
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	challenge.State = entity.OTPStateVerified
	if err := u.otpRepo.Save(ctx, key, challenge, u.otpConfig.Expiry); err != nil {
		u.log.Warnf("Failed to mark otp challenge verified: %+v", err)
	}
	if err := u.otpRepo.ReleaseCooldown(ctx, key); err != nil {
		u.log.Warnf("Failed to release otp cooldown: %+v", err)
	}

	session := &entity.Session{
		ID:            uuid.New().String(),
		UserID:        entity.SessionUserID(login.UserID),
		BackendUserID: login.UserID,
		DisplayName:   login.Name,
		BackendToken:  login.Token,
		CreatedAt:     time.Now().UTC(),
	}

	tokens, err := u.issueTokens(ctx, session)
	if err != nil {
		return nil, err
	}
	tokens.User = converter.SessionToUserResponse(session)

	_ = u.auditService.LogEvent(ctx, &session.UserID, session.ID, entity.AuditActionOTPVerify, entity.JSON{
		"channel": otpChannel(identity),
	})

	return tokens, nil
}

func (u *authUsecase) RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	claims, err := u.jwtService.ValidateToken(req.RefreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != jwt.RefreshToken {
		return nil, ErrInvalidToken
	}

	session, err := u.sessionRepo.Find(ctx, claims.TokenID)
	if err != nil {
		u.log.Warnf("Failed to find session for refresh token: %+v", err)
		return nil, err
	}
	if session == nil {
		return nil, ErrTokenRevoked
	}

	// Delete old refresh token
	if err := u.sessionRepo.Delete(ctx, claims.TokenID); err != nil {
		u.log.Warnf("Failed to delete old refresh token: %+v", err)
		return nil, err
	}

	tokens, err := u.issueTokens(ctx, session)
	if err != nil {
		return nil, err
	}

	_ = u.auditService.LogEvent(ctx, &session.UserID, session.ID, entity.AuditActionSessionRefresh, nil)

	return tokens, nil
}

func (u *authUsecase) Logout(ctx context.Context, session *entity.Session, accessTokenID, refreshTokenID string) error {
	if err := u.sessionRepo.Delete(ctx, accessTokenID, refreshTokenID); err != nil {
		u.log.Warnf("Failed to delete session tokens: %+v", err)
		return err
	}

	if session != nil {
		u.views.Drop(session.ID)
		_ = u.auditService.LogEvent(ctx, &session.UserID, session.ID, entity.AuditActionSessionLogout, nil)
	}

	return nil
}

func (u *authUsecase) GetCurrentUser(ctx context.Context, session *entity.Session) (*dto.UserResponse, error) {
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return converter.SessionToUserResponse(session), nil
}

// issueTokens creates an access and refresh pair and binds both token ids to the session
func (u *authUsecase) issueTokens(ctx context.Context, session *entity.Session) (*dto.TokenResponse, error) {
	accessToken, accessTokenID, err := u.jwtService.GenerateAccessToken(session.UserID, session.ID)
	if err != nil {
		u.log.Warnf("Failed to generate access token: %+v", err)
		return nil, err
	}

	refreshToken, refreshTokenID, err := u.jwtService.GenerateRefreshToken(session.UserID, session.ID)
	if err != nil {
		u.log.Warnf("Failed to generate refresh token: %+v", err)
		return nil, err
	}

	if err := u.sessionRepo.Save(ctx, accessTokenID, session, u.jwtService.GetAccessExpiry()); err != nil {
		u.log.Warnf("Failed to store access token in Redis: %+v", err)
		return nil, err
	}

	if err := u.sessionRepo.Save(ctx, refreshTokenID, session, u.jwtService.GetRefreshExpiry()); err != nil {
		u.log.Warnf("Failed to store refresh token in Redis: %+v", err)
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(u.jwtService.GetAccessExpiry().Seconds()),
	}, nil
}

// currentState turns a sent challenge past its lifetime into expired
func (u *authUsecase) currentState(challenge *entity.OTPChallenge) entity.OTPState {
	if challenge.State == entity.OTPStateSent && !time.Now().Before(challenge.SentAt.Add(u.otpConfig.Expiry)) {
		return entity.OTPStateExpired
	}
	return challenge.State
}

func (u *authUsecase) challengeStatus(challenge *entity.OTPChallenge, resendIn time.Duration) *dto.OTPStatusResponse {
	resp := &dto.OTPStatusResponse{
		State:    string(entity.OTPStateIdle),
		ResendIn: ceilSeconds(resendIn),
	}
	if challenge == nil {
		return resp
	}

	state := u.currentState(challenge)
	resp.State = string(state)
	resp.ResendCount = challenge.ResendCount
	if state == entity.OTPStateSent {
		resp.ExpiresIn = ceilSeconds(time.Until(challenge.SentAt.Add(u.otpConfig.Expiry)))
	}
	return resp
}

func toOTPIdentity(req dto.OTPIdentityRequest) entity.OTPIdentity {
	return entity.OTPIdentity{
		Mobile:      strings.TrimSpace(req.Mobile),
		CountryCode: strings.TrimSpace(req.CountryCode),
		Email:       strings.TrimSpace(req.Email),
	}
}

func otpChannel(identity entity.OTPIdentity) string {
	if identity.IsInternational() {
		return "email"
	}
	return "mobile"
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64(math.Ceil(d.Seconds()))
}
