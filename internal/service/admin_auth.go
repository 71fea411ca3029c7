// Package service holds the admin-side services: catalog CRUD, metrics,
// analytics logs and admin authentication. The chat path lives in
// internal/chat/service.
package service

import (
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/boddenberg/bepit-bfa-go/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var adminTracer = otel.Tracer("service/admin")

const (
	adminTokenType   = "admin"
	adminTokenIssuer = "bepit-bfa"
)

// AdminAuth checks the X-Admin-Key header and issues short-lived admin
// session tokens.
type AdminAuth struct {
	key        []byte
	keyHash    []byte
	jwtSecret  []byte
	sessionTTL time.Duration
	logger     *zap.Logger
}

// NewAdminAuth creates the admin authenticator. keyHash (bcrypt) wins over
// the plain key when both are set. An empty jwtSecret disables sessions.
func NewAdminAuth(key, keyHash, jwtSecret string, sessionTTL time.Duration, logger *zap.Logger) *AdminAuth {
	return &AdminAuth{
		key:        []byte(key),
		keyHash:    []byte(keyHash),
		jwtSecret:  []byte(jwtSecret),
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

// Enabled reports whether any admin credential is configured.
func (a *AdminAuth) Enabled() bool {
	return len(a.key) > 0 || len(a.keyHash) > 0
}

// VerifyKey compares the presented key against the configured secret.
func (a *AdminAuth) VerifyKey(presented string) bool {
	if presented == "" {
		return false
	}
	if len(a.keyHash) > 0 {
		return bcrypt.CompareHashAndPassword(a.keyHash, []byte(presented)) == nil
	}
	if len(a.key) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(a.key, []byte(presented)) == 1
}

// ============================================================
// Sessions — POST /api/admin/session
// ============================================================

// AdminClaims are the claims of an admin session token.
type AdminClaims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// IssueSession exchanges a valid admin key for a signed session token.
func (a *AdminAuth) IssueSession(presented string) (*domain.AdminSession, error) {
	if !a.VerifyKey(presented) {
		a.logger.Warn("admin session: invalid key")
		return nil, &domain.ErrUnauthorized{Message: "invalid admin key"}
	}
	if len(a.jwtSecret) == 0 {
		return nil, &domain.ErrValidation{Field: "session", Message: "admin sessions are disabled"}
	}

	now := time.Now()
	expiresAt := now.Add(a.sessionTTL)
	claims := AdminClaims{
		Type: adminTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			Issuer:    adminTokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign admin session: %w", err)
	}

	return &domain.AdminSession{
		Token:     token,
		ExpiresAt: expiresAt,
		ExpiresIn: int(a.sessionTTL.Seconds()),
	}, nil
}

// ValidateSession parses and verifies an admin session token.
func (a *AdminAuth) ValidateSession(tokenString string) (*AdminClaims, error) {
	if len(a.jwtSecret) == 0 || tokenString == "" {
		return nil, &domain.ErrUnauthorized{Message: "invalid admin session"}
	}
	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.jwtSecret, nil
	}, jwt.WithIssuer(adminTokenIssuer))
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid admin session"}
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid || claims.Type != adminTokenType {
		return nil, &domain.ErrUnauthorized{Message: "invalid admin session"}
	}
	return claims, nil
}
