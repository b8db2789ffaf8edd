package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultTokenTTL = 12 * time.Hour
	ownerSubject    = "owner"
)

// Domain errors for auth flows.
var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidToken    = errors.New("invalid token")
	ErrAuthDisabled    = errors.New("authentication disabled")
)

// AuthConfig configures single-owner authentication. An empty Secret
// disables it.
type AuthConfig struct {
	Secret       string
	PasswordHash string // bcrypt
	TokenTTL     time.Duration
}

// Claims defines JWT claims
type Claims struct {
	jwt.RegisteredClaims
}

// AuthService signs in the feeder owner and verifies bearer tokens.
type AuthService struct {
	cfg AuthConfig
	now func() time.Time
}

func NewAuthService(cfg AuthConfig) *AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	return &AuthService{cfg: cfg, now: time.Now}
}

func (s *AuthService) Enabled() bool { return s.cfg.Secret != "" }

// SignIn checks the owner password and returns a signed JWT.
func (s *AuthService) SignIn(password string) (string, error) {
	if !s.Enabled() {
		return "", ErrAuthDisabled
	}
	if s.cfg.PasswordHash == "" || verifyPassword(s.cfg.PasswordHash, password) != nil {
		return "", ErrInvalidPassword
	}
	return s.issueToken()
}

// ParseToken validates a bearer token.
func (s *AuthService) ParseToken(accessToken string) error {
	if !s.Enabled() {
		return ErrAuthDisabled
	}
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	}, jwt.WithTimeFunc(s.now), jwt.WithSubject(ownerSubject))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

func (s *AuthService) issueToken() (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ownerSubject,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	return token.SignedString([]byte(s.cfg.Secret))
}

// HashPassword produces a bcrypt hash suitable for AuthConfig.PasswordHash.
func HashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
