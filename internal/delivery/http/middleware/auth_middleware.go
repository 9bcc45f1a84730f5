package middleware

import (
	"context"
	"net/http"
	"strings"

	"patient-appointments-bff/internal/domain/entity"
	"patient-appointments-bff/internal/domain/repository"
	"patient-appointments-bff/pkg/jwt"
	"patient-appointments-bff/pkg/response"

	"github.com/sirupsen/logrus"
)

type contextKey string

const (
	SessionKey contextKey = "session"
	TokenIDKey contextKey = "token_id"
)

type AuthMiddleware struct {
	jwtService  *jwt.JWTService
	sessionRepo repository.SessionRepository
	log         *logrus.Logger
}

func NewAuthMiddleware(jwtService *jwt.JWTService, sessionRepo repository.SessionRepository, log *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService:  jwtService,
		sessionRepo: sessionRepo,
		log:         log,
	}
}

func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "Authorization header is required")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(w, "Invalid authorization header format")
			return
		}

		claims, err := m.jwtService.ValidateToken(parts[1])
		if err != nil {
			response.Unauthorized(w, "Invalid or expired token")
			return
		}

		if claims.TokenType != jwt.AccessToken {
			response.Unauthorized(w, "Invalid token type")
			return
		}

		// The session entry doubles as the revocation check
		session, err := m.sessionRepo.Find(r.Context(), claims.TokenID)
		if err != nil {
			m.log.Warnf("Failed to load session: %+v", err)
			response.InternalServerError(w, "Failed to validate token")
			return
		}
		if session == nil || session.ID != claims.SessionID || session.UserID != claims.UserID {
			response.Unauthorized(w, "Token has been revoked")
			return
		}

		ctx := context.WithValue(r.Context(), SessionKey, session)
		ctx = context.WithValue(ctx, TokenIDKey, claims.TokenID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetSessionFromContext extracts the login session from context
func GetSessionFromContext(ctx context.Context) (*entity.Session, bool) {
	session, ok := ctx.Value(SessionKey).(*entity.Session)
	return session, ok && session != nil
}

// GetTokenIDFromContext extracts token ID from context
func GetTokenIDFromContext(ctx context.Context) (string, bool) {
	tokenID, ok := ctx.Value(TokenIDKey).(string)
	return tokenID, ok
}
