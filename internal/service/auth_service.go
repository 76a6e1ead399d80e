package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"

	apperrors "countdown/backend/internal/errors"
)

// OwnerSubject is the token subject of the single owner.
const OwnerSubject = "owner"

// AuthService guards the API behind the owner passphrase. With an empty
// passphrase authentication is disabled.
type AuthService struct {
	passphraseHash []byte
	jwtSecret      []byte
	tokenTTL       time.Duration
	clock          clockwork.Clock
}

func NewAuthService(passphrase, jwtSecret string, tokenTTL time.Duration, clock clockwork.Clock) (*AuthService, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	s := &AuthService{
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		clock:     clock,
	}
	if passphrase == "" {
		return s, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(passphrase), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	s.passphraseHash = hash
	return s, nil
}

type AuthResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Enabled reports whether requests need a token.
func (s *AuthService) Enabled() bool {
	return len(s.passphraseHash) > 0
}

func (s *AuthService) Login(ctx context.Context, passphrase string) (*AuthResult, *apperrors.APIError) {
	if !s.Enabled() {
		return nil, apperrors.BadRequest("auth_disabled", "authentication is not configured")
	}
	if passphrase == "" {
		return nil, apperrors.BadRequest("invalid_credentials", "passphrase is required")
	}
	if bcrypt.CompareHashAndPassword(s.passphraseHash, []byte(passphrase)) != nil {
		return nil, apperrors.Unauthorized("invalid passphrase")
	}
	return s.issueToken()
}

func (s *AuthService) ParseToken(tokenString string) (string, *apperrors.APIError) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&jwt.RegisteredClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, jwt.ErrSignatureInvalid
			}
			return s.jwtSecret, nil
		},
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil || !token.Valid {
		return "", apperrors.Unauthorized("invalid token")
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return "", apperrors.Unauthorized("invalid token")
	}

	if claims.Subject != OwnerSubject {
		return "", apperrors.Unauthorized("invalid token subject")
	}

	return claims.Subject, nil
}

func (s *AuthService) issueToken() (*AuthResult, *apperrors.APIError) {
	now := s.clock.Now().UTC()
	expiresAt := now.Add(s.tokenTTL)
	claims := jwt.RegisteredClaims{
		Subject:   OwnerSubject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, apperrors.Internal("failed to sign token")
	}
	return &AuthResult{Token: signed, ExpiresAt: expiresAt}, nil
}
