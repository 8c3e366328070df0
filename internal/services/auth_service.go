package services

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"freelance-chat/config"
	chat_errors "freelance-chat/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
)

// AuthService verifies access tokens issued by the account service. Issuing tokens is not
// its job.
type AuthService struct {
	jwtSecret []byte
}

var ErrMissingSecret = errors.New("JWT_SECRET or JWT_BASE64_SECRET must be set")

func NewAuthService(cfg *config.Config) (*AuthService, error) {
	secret := []byte(cfg.JWTSecret)
	if cfg.JWTBase64Secret != "" {
		decoded, err := base64.StdEncoding.DecodeString(cfg.JWTBase64Secret)
		if err != nil {
			return nil, fmt.Errorf("decode JWT_BASE64_SECRET: %w", err)
		}
		secret = decoded
	}
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}
	return &AuthService{jwtSecret: secret}, nil
}

type AccessClaims struct {
	Authorities string `json:"auth,omitempty"`
	jwt.RegisteredClaims
}

func (s *AuthService) ParseAccessToken(tokenString string) (AccessClaims, error) {
	if tokenString == "" {
		return AccessClaims{}, chat_errors.ErrUnauthorized
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, chat_errors.ErrUnauthorized
		}
		return s.jwtSecret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return AccessClaims{}, fmt.Errorf("%w: %v", chat_errors.ErrUnauthorized, err)
	}

	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok || !parsed.Valid {
		return AccessClaims{}, chat_errors.ErrUnauthorized
	}

	return *claims, nil
}

// VerifyToken returns the subject (the user login) of a valid access token.
func (s *AuthService) VerifyToken(tokenString string) (string, error) {
	claims, err := s.ParseAccessToken(tokenString)
	if err != nil {
		return "", err
	}
	login := strings.TrimSpace(claims.Subject)
	if login == "" {
		return "", fmt.Errorf("%w: token has no subject", chat_errors.ErrUnauthorized)
	}
	return login, nil
}
