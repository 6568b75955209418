// Package auth implements JWT minting and verification. Access tokens are
// signed with a key derived from the global secret concatenated with the
// owning user's personal secret, so rotating the personal secret invalidates
// every outstanding access token for that user. Refresh tokens use the global
// refresh secret alone.
package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Tatiana-20/tati-blog/internal/config"
	"github.com/Tatiana-20/tati-blog/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService mints and verifies access and refresh tokens.
type TokenService struct {
	accessSecret  string
	refreshSecret string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenService builds a TokenService from the application config.
func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{
		accessSecret:  cfg.JWTSecret,
		refreshSecret: cfg.JWTRefreshSecret,
		accessTTL:     time.Duration(cfg.AccessExpiryMinutes) * time.Minute,
		refreshTTL:    time.Duration(cfg.RefreshExpiryDays) * 24 * time.Hour,
	}
}

func (s *TokenService) claims(user *models.User, ttl time.Duration) jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"sub":   strconv.FormatUint(uint64(user.ID), 10),
		"email": user.Email,
		"rol":   string(user.Role),
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
}

// AccessKeyFor derives the HMAC key for the user's access tokens.
func (s *TokenService) AccessKeyFor(user *models.User) []byte {
	return []byte(s.accessSecret + user.UserSecret)
}

// GenerateAccessToken mints an access token signed with the user's derived key.
func (s *TokenService) GenerateAccessToken(user *models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, s.claims(user, s.accessTTL))
	signed, err := token.SignedString(s.AccessKeyFor(user))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// GenerateRefreshToken mints a refresh token signed with the refresh secret.
func (s *TokenService) GenerateRefreshToken(user *models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, s.claims(user, s.refreshTTL))
	signed, err := token.SignedString([]byte(s.refreshSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return signed, nil
}

// VerifyAccessToken checks the signature and expiry of an access token using
// the given user's derived key and returns its claims.
func (s *TokenService) VerifyAccessToken(tokenString string, user *models.User) (jwt.MapClaims, error) {
	return s.verify(tokenString, s.AccessKeyFor(user))
}

// VerifyRefreshToken checks the signature and expiry of a refresh token and
// returns its claims.
func (s *TokenService) VerifyRefreshToken(tokenString string) (jwt.MapClaims, error) {
	return s.verify(tokenString, []byte(s.refreshSecret))
}

func (s *TokenService) verify(tokenString string, key []byte) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// DecodeSubject extracts the user ID from the token's "sub" claim without
// verifying the signature. Callers must verify with the per-user key before
// trusting anything else about the token.
func DecodeSubject(tokenString string) (uint, error) {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return 0, fmt.Errorf("malformed token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("malformed token claims")
	}
	return SubjectID(claims)
}

// SubjectID parses the "sub" claim into a user ID.
func SubjectID(claims jwt.MapClaims) (uint, error) {
	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, fmt.Errorf("token missing subject")
	}
	id, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid subject %q: %w", sub, err)
	}
	return uint(id), nil
}
