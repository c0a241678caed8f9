package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/teamflow/boardchat/internal/domain"
)

// AuthReason classifies why a bearer token was rejected.
type AuthReason string

const (
	ReasonMalformed      AuthReason = "malformed"
	ReasonExpired        AuthReason = "expired"
	ReasonUnknownSubject AuthReason = "unknown-subject"
)

// AuthError is returned when a bearer token fails verification. It is
// connection-terminal; callers close the connection with a generic
// policy-violation status and never leak the reason to the client.
type AuthError struct {
	Reason AuthReason
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth: token rejected (%s)", e.Reason)
}

// Identity is the resolved user behind a verified token. It is immutable for
// the lifetime of the connection that presented the token.
type Identity struct {
	ID       uuid.UUID
	Username string
	Role     string // normalized, see domain.NormalizeRole
}

// Verifier validates bearer tokens and resolves them to user identities.
type Verifier struct {
	secret string
	users  domain.UserRepository
}

func NewVerifier(secret string, users domain.UserRepository) *Verifier {
	return &Verifier{secret: secret, users: users}
}

// Verify parses and validates an opaque bearer token and resolves its subject
// to a current user record. Returns *AuthError for classified rejections
// (malformed, expired, unknown subject); any other error is an internal
// lookup failure.
func (v *Verifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, &AuthError{Reason: ReasonMalformed}
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(_ *jwt.Token) (any, error) {
		return []byte(v.secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, &AuthError{Reason: ReasonExpired}
		}
		return nil, &AuthError{Reason: ReasonMalformed}
	}
	if !parsed.Valid {
		return nil, &AuthError{Reason: ReasonMalformed}
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, &AuthError{Reason: ReasonMalformed}
	}

	user, err := v.users.GetByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, &AuthError{Reason: ReasonUnknownSubject}
	}
	if err != nil {
		return nil, fmt.Errorf("auth.Verifier.Verify: %w", err)
	}

	return &Identity{
		ID:       user.ID,
		Username: user.Username,
		Role:     domain.NormalizeRole(user.Role),
	}, nil
}
