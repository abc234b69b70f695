package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTokenCodec_RoundTrip(t *testing.T) {
	codec, err := NewTokenCodec("test-secret", time.Minute)
	if err != nil {
		t.Fatalf("NewTokenCodec failed: %v", err)
	}

	token, err := codec.Issue("alice", []string{"items:read"})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	claims, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.Subject != "alice" {
		t.Errorf("expected subject alice, got %s", claims.Subject)
	}
	if len(claims.Scopes) != 1 || claims.Scopes[0] != "items:read" {
		t.Errorf("unexpected scopes: %v", claims.Scopes)
	}
}

func TestTokenCodec_Expired(t *testing.T) {
	codec, err := NewTokenCodec("test-secret", time.Minute)
	if err != nil {
		t.Fatalf("NewTokenCodec failed: %v", err)
	}

	token, err := codec.IssueWithTTL("alice", nil, -time.Minute)
	if err != nil {
		t.Fatalf("IssueWithTTL failed: %v", err)
	}

	_, err = codec.Verify(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
	if errors.Is(err, ErrTokenInvalid) {
		t.Errorf("expired token must not report ErrTokenInvalid")
	}
}

func TestTokenCodec_Tampered(t *testing.T) {
	codec, err := NewTokenCodec("test-secret", time.Minute)
	if err != nil {
		t.Fatalf("NewTokenCodec failed: %v", err)
	}

	token, err := codec.Issue("alice", nil)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %d parts", len(parts))
	}
	tampered := parts[0] + "." + parts[1] + ".AAAA" + parts[2][4:]

	_, err = codec.Verify(tampered)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestTokenCodec_WrongSecret(t *testing.T) {
	issuer, _ := NewTokenCodec("secret-a", time.Minute)
	verifier, _ := NewTokenCodec("secret-b", time.Minute)

	token, err := issuer.Issue("alice", nil)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := verifier.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid across secrets, got %v", err)
	}
}

func TestTokenCodec_Garbage(t *testing.T) {
	codec, _ := NewTokenCodec("test-secret", time.Minute)

	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := codec.Verify(raw); !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("Verify(%q): expected ErrTokenInvalid, got %v", raw, err)
		}
	}
}

func TestNewTokenCodec_EmptySecret(t *testing.T) {
	if _, err := NewTokenCodec("", time.Minute); err == nil {
		t.Error("expected error for empty secret")
	}
}
