package auth

import (
	"context"
	"strings"
	"testing"
	"time"
)

type memorySessionStore struct {
	sessions map[string]uint
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{sessions: map[string]uint{}}
}

func (s *memorySessionStore) Put(_ context.Context, sessionID string, userID uint, _ time.Duration) error {
	s.sessions[sessionID] = userID
	return nil
}

func (s *memorySessionStore) Exists(_ context.Context, sessionID string) (bool, error) {
	_, ok := s.sessions[sessionID]
	return ok, nil
}

func (s *memorySessionStore) Delete(_ context.Context, sessionID string) error {
	delete(s.sessions, sessionID)
	return nil
}

func newTestService(t *testing.T, secret string) (*SessionService, *memorySessionStore) {
	t.Helper()
	store := newMemorySessionStore()
	svc, err := NewSessionService([]byte(secret), time.Hour, store)
	if err != nil {
		t.Fatalf("new session service: %v", err)
	}
	return svc, store
}

func TestSession_IssueValidateRoundtrip(t *testing.T) {
	svc, _ := newTestService(t, "secret")
	ctx := context.Background()

	token, err := svc.Issue(ctx, 42)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := svc.Validate(ctx, token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("user id %d, expected 42", claims.UserID)
	}
	if claims.ID == "" {
		t.Fatal("session id missing")
	}
}

func TestSession_RevokeInvalidatesImmediately(t *testing.T) {
	svc, store := newTestService(t, "secret")
	ctx := context.Background()

	token, err := svc.Issue(ctx, 42)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := svc.Validate(ctx, token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}

	if err := svc.Revoke(ctx, claims.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if len(store.sessions) != 0 {
		t.Fatalf("expected store emptied, got %d sessions", len(store.sessions))
	}
	if _, err := svc.Validate(ctx, token); err == nil {
		t.Fatal("revoked token must not validate")
	}
}

func TestSession_TamperedTokenRejected(t *testing.T) {
	svc, _ := newTestService(t, "secret")
	ctx := context.Background()

	token, err := svc.Issue(ctx, 42)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := svc.Validate(ctx, tampered); err == nil {
		t.Fatal("tampered token must not validate")
	}
}

func TestSession_WrongSecretRejected(t *testing.T) {
	issuer, store := newTestService(t, "secret-a")
	ctx := context.Background()

	token, err := issuer.Issue(ctx, 42)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	verifier, err := NewSessionService([]byte("secret-b"), time.Hour, store)
	if err != nil {
		t.Fatalf("new session service: %v", err)
	}
	if _, err := verifier.Validate(ctx, token); err == nil {
		t.Fatal("token signed with different secret must not validate")
	}
	if !strings.Contains(token, ".") {
		t.Fatal("token is not a signed jwt")
	}
}
