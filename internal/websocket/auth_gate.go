package websocket

import (
	"fmt"
	"net/url"
	"strings"

	"freelance-chat/internal/services"
	chat_errors "freelance-chat/pkg/errors"
)

const tokenQueryParam = "token"

// AuthGate authenticates a handshake from its query string.
type AuthGate struct {
	verifier services.TokenVerifier
}

func NewAuthGate(verifier services.TokenVerifier) *AuthGate {
	return &AuthGate{verifier: verifier}
}

// Authenticate returns the login the token was issued for.
func (g *AuthGate) Authenticate(query url.Values) (string, error) {
	token := strings.TrimSpace(query.Get(tokenQueryParam))
	if token == "" {
		return "", fmt.Errorf("%w: missing token", chat_errors.ErrUnauthorized)
	}

	login, err := g.verifier.VerifyToken(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", chat_errors.ErrUnauthorized, err)
	}
	return login, nil
}
