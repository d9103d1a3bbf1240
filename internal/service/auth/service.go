// Package auth resolves bearer tokens to users. Signup and login live in a
// separate system; this service only issues and validates the access tokens
// the cart/order API needs for identity.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"casekart/internal/domain"
	tokenrepo "casekart/internal/repository/token"
)

// ErrInvalidToken indicates the provided token could not be validated.
var ErrInvalidToken = errors.New("invalid token")

const accessKind = "access"

type userRepo interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type Service struct {
	users     userRepo
	tokens    tokenrepo.Repository
	accessTTL time.Duration
}

func New(users userRepo, tokens tokenrepo.Repository) *Service {
	return &Service{
		users:     users,
		tokens:    tokens,
		accessTTL: 48 * time.Hour,
	}
}

// Issue creates an access token for the user, retrying on the unlikely
// random collision.
func (s *Service) Issue(ctx context.Context, userID string) (string, error) {
	expiresAt := time.Now().Add(s.accessTTL)
	for i := 0; i < 5; i++ {
		token, err := randomToken()
		if err != nil {
			return "", err
		}
		err = s.tokens.Create(ctx, tokenrepo.Token{
			Token:     token,
			UserID:    userID,
			Kind:      accessKind,
			ExpiresAt: expiresAt,
		})
		if err == nil {
			return token, nil
		}
		if errors.Is(err, domain.ErrAlreadyExists) {
			continue
		}
		return "", err
	}
	return "", errors.New("token collision")
}

// LookupByToken resolves an access token to its user, deleting it when
// expired.
func (s *Service) LookupByToken(ctx context.Context, token string) (*domain.User, error) {
	meta, err := s.tokens.Get(ctx, token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if meta.Kind != accessKind {
		return nil, ErrInvalidToken
	}
	if time.Now().After(meta.ExpiresAt) {
		_ = s.tokens.Delete(ctx, token)
		return nil, ErrInvalidToken
	}
	user, err := s.users.GetByID(ctx, meta.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return user, nil
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
