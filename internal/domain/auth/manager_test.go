package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"catalog-server-go/internal/domain/auth/model"
	"catalog-server-go/internal/domain/auth/store"
)

func setupManager(t *testing.T) *Manager {
	t.Helper()

	codec, err := NewTokenCodec("test-secret", time.Minute)
	if err != nil {
		t.Fatalf("NewTokenCodec failed: %v", err)
	}
	manager, err := NewManager(store.NewMemory(), codec, nil)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return manager
}

func registerAlice(t *testing.T, manager *Manager) model.UserRecord {
	t.Helper()
	user, err := manager.Register(context.Background(), RegisterRequest{
		Username: "alice",
		Password: "wonderland123",
		FullName: "Alice Liddell",
		Email:    "alice@example.com",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return user
}

func TestManager_Register(t *testing.T) {
	manager := setupManager(t)
	user := registerAlice(t, manager)

	if user.Role != model.RoleUser {
		t.Errorf("expected default role user, got %s", user.Role)
	}
	if !user.Active {
		t.Error("new accounts must start active")
	}
	if !user.HasScope(model.ScopeItemsRead) || !user.HasScope(model.ScopeItemsWrite) {
		t.Errorf("expected default user scopes, got %v", user.Scopes)
	}
	if user.HasScope(model.ScopeAdmin) {
		t.Error("new accounts must not receive the admin scope")
	}
	if user.HashedPassword == "wonderland123" {
		t.Error("password must be stored hashed")
	}
}

func TestManager_RegisterDuplicate(t *testing.T) {
	manager := setupManager(t)
	registerAlice(t, manager)

	_, err := manager.Register(context.Background(), RegisterRequest{
		Username: "alice",
		Password: "different-pass",
	})
	if !errors.Is(err, ErrUserExists) {
		t.Errorf("expected ErrUserExists, got %v", err)
	}
}

func TestManager_RegisterShortPassword(t *testing.T) {
	manager := setupManager(t)

	_, err := manager.Register(context.Background(), RegisterRequest{
		Username: "bob",
		Password: "short",
	})
	if err == nil {
		t.Error("expected error for short password")
	}
}

func TestManager_Login(t *testing.T) {
	manager := setupManager(t)
	registerAlice(t, manager)

	token, user, err := manager.Login(
		context.Background(), "alice", "wonderland123", nil)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if token == "" {
		t.Error("expected a token")
	}
	if user.Username != "alice" {
		t.Errorf("expected alice, got %s", user.Username)
	}
}

func TestManager_LoginBadCredentials(t *testing.T) {
	manager := setupManager(t)
	registerAlice(t, manager)

	if _, _, err := manager.Login(
		context.Background(), "alice", "wrong-pass", nil); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("expected ErrBadCredentials for wrong password, got %v", err)
	}
	if _, _, err := manager.Login(
		context.Background(), "nobody", "whatever-pass", nil); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("expected ErrBadCredentials for unknown user, got %v", err)
	}
}

func TestManager_LoginScopeIntersection(t *testing.T) {
	manager := setupManager(t)
	registerAlice(t, manager)

	codec, _ := NewTokenCodec("test-secret", time.Minute)

	// Request a scope the account owns plus one it does not; only the
	// owned scope lands in the token.
	token, _, err := manager.Login(
		context.Background(), "alice", "wonderland123",
		[]string{model.ScopeItemsRead, model.ScopeAdmin})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	claims, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if len(claims.Scopes) != 1 || claims.Scopes[0] != model.ScopeItemsRead {
		t.Errorf("expected only items:read granted, got %v", claims.Scopes)
	}
}

func TestManager_SetRoleRealignsScopes(t *testing.T) {
	manager := setupManager(t)
	registerAlice(t, manager)

	user, err := manager.SetRole(context.Background(), "alice", model.RoleViewer)
	if err != nil {
		t.Fatalf("SetRole failed: %v", err)
	}
	if user.Role != model.RoleViewer {
		t.Errorf("expected viewer role, got %s", user.Role)
	}
	if user.HasScope(model.ScopeItemsWrite) {
		t.Errorf("viewer must not keep the write scope, got %v", user.Scopes)
	}
}

func TestManager_SetRoleInvalid(t *testing.T) {
	manager := setupManager(t)
	registerAlice(t, manager)

	if _, err := manager.SetRole(
		context.Background(), "alice", model.Role("superuser")); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestManager_DeactivateBlocksLogin(t *testing.T) {
	manager := setupManager(t)
	registerAlice(t, manager)

	if err := manager.SetActive(context.Background(), "alice", false); err != nil {
		t.Fatalf("SetActive failed: %v", err)
	}

	if _, _, err := manager.Login(
		context.Background(), "alice", "wonderland123", nil); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for deactivated login, got %v", err)
	}
}

func TestManager_DeleteSelfForbidden(t *testing.T) {
	manager := setupManager(t)
	if err := manager.EnsureAdmin(context.Background()); err != nil {
		t.Fatalf("EnsureAdmin failed: %v", err)
	}

	if err := manager.Delete(
		context.Background(), "admin", "admin"); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for self-delete, got %v", err)
	}
}

func TestManager_DeleteUnknown(t *testing.T) {
	manager := setupManager(t)

	if err := manager.Delete(
		context.Background(), "admin", "nobody"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestManager_EnsureAdminIdempotent(t *testing.T) {
	manager := setupManager(t)

	if err := manager.EnsureAdmin(context.Background()); err != nil {
		t.Fatalf("EnsureAdmin failed: %v", err)
	}
	admin, err := manager.Get(context.Background(), "admin")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if admin.Role != model.RoleAdmin || !admin.HasScope(model.ScopeAdmin) {
		t.Errorf("unexpected seeded admin: role=%s scopes=%v", admin.Role, admin.Scopes)
	}

	// Second call must not reset the account.
	if _, err := manager.SetRole(context.Background(), "admin", model.RoleAdmin); err != nil {
		t.Fatalf("SetRole failed: %v", err)
	}
	if err := manager.EnsureAdmin(context.Background()); err != nil {
		t.Fatalf("second EnsureAdmin failed: %v", err)
	}

	users, err := manager.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("expected a single account, got %d", len(users))
	}
}
