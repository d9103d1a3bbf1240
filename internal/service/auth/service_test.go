package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"casekart/internal/domain"
	tokenrepo "casekart/internal/repository/token"
)

type stubTokenRepo struct {
	tokens     map[string]tokenrepo.Token
	createErrs []error
	creates    int
	deleted    []string
}

func newStubTokenRepo() *stubTokenRepo {
	return &stubTokenRepo{tokens: make(map[string]tokenrepo.Token)}
}

func (s *stubTokenRepo) Create(_ context.Context, t tokenrepo.Token) error {
	s.creates++
	if len(s.createErrs) > 0 {
		err := s.createErrs[0]
		s.createErrs = s.createErrs[1:]
		if err != nil {
			return err
		}
	}
	s.tokens[t.Token] = t
	return nil
}

func (s *stubTokenRepo) Get(_ context.Context, token string) (*tokenrepo.Token, error) {
	t, ok := s.tokens[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (s *stubTokenRepo) Delete(_ context.Context, token string) error {
	delete(s.tokens, token)
	s.deleted = append(s.deleted, token)
	return nil
}

type stubUserRepo struct {
	users map[string]*domain.User
}

func (s *stubUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func TestIssueAndLookup(t *testing.T) {
	tokens := newStubTokenRepo()
	users := &stubUserRepo{users: map[string]*domain.User{"u1": {ID: "u1", Email: "asha@casekart.test"}}}
	svc := New(users, tokens)
	ctx := context.Background()

	token, err := svc.Issue(ctx, "u1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	user, err := svc.LookupByToken(ctx, token)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if user.ID != "u1" {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestIssueRetriesOnCollision(t *testing.T) {
	tokens := newStubTokenRepo()
	tokens.createErrs = []error{domain.ErrAlreadyExists}
	users := &stubUserRepo{users: map[string]*domain.User{"u1": {ID: "u1"}}}
	svc := New(users, tokens)

	if _, err := svc.Issue(context.Background(), "u1"); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if tokens.creates != 2 {
		t.Fatalf("expected 2 create attempts, got %d", tokens.creates)
	}
}

func TestLookupUnknownToken(t *testing.T) {
	svc := New(&stubUserRepo{}, newStubTokenRepo())
	if _, err := svc.LookupByToken(context.Background(), "nope"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}

func TestLookupWrongKind(t *testing.T) {
	tokens := newStubTokenRepo()
	tokens.tokens["t1"] = tokenrepo.Token{Token: "t1", UserID: "u1", Kind: "refresh", ExpiresAt: time.Now().Add(time.Hour)}
	users := &stubUserRepo{users: map[string]*domain.User{"u1": {ID: "u1"}}}
	svc := New(users, tokens)

	if _, err := svc.LookupByToken(context.Background(), "t1"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}

func TestLookupExpiredTokenDeleted(t *testing.T) {
	tokens := newStubTokenRepo()
	tokens.tokens["t1"] = tokenrepo.Token{Token: "t1", UserID: "u1", Kind: "access", ExpiresAt: time.Now().Add(-time.Minute)}
	users := &stubUserRepo{users: map[string]*domain.User{"u1": {ID: "u1"}}}
	svc := New(users, tokens)

	if _, err := svc.LookupByToken(context.Background(), "t1"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
	if len(tokens.deleted) != 1 || tokens.deleted[0] != "t1" {
		t.Fatalf("expired token must be deleted, got %v", tokens.deleted)
	}
}

func TestLookupMissingUser(t *testing.T) {
	tokens := newStubTokenRepo()
	tokens.tokens["t1"] = tokenrepo.Token{Token: "t1", UserID: "gone", Kind: "access", ExpiresAt: time.Now().Add(time.Hour)}
	svc := New(&stubUserRepo{}, tokens)

	if _, err := svc.LookupByToken(context.Background(), "t1"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}
