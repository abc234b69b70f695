package auth

import (
	"context"
	"errors"
	"fmt"

	"catalog-server-go/internal/domain/auth/model"
	"catalog-server-go/internal/domain/auth/store"
)

// DefaultAdminPassword seeds the bootstrap admin account when none exists.
// Deployments are expected to change it immediately.
const DefaultAdminPassword = "admin1234"

// RegisterRequest carries the fields accepted at signup.
type RegisterRequest struct {
	Username string
	Password string
	FullName string
	Email    string
}

// Manager owns account lifecycle: registration, credential checks, token
// issuance and the admin operations on accounts.
type Manager struct {
	users  store.Store
	codec  *TokenCodec
	logger model.Logger
}

// NewManager wires the account manager.
func NewManager(users store.Store, codec *TokenCodec, logger model.Logger) (*Manager, error) {
	if users == nil {
		return nil, errors.New("manager requires a user store")
	}
	if codec == nil {
		return nil, errors.New("manager requires a token codec")
	}
	return &Manager{
		users:  users,
		codec:  codec,
		logger: logger,
	}, nil
}

// Register creates a new account with the user role and its default scopes.
func (m *Manager) Register(ctx context.Context, req RegisterRequest) (model.UserRecord, error) {
	if req.Username == "" {
		return model.UserRecord{}, fmt.Errorf("username required")
	}
	if len(req.Password) < 8 {
		return model.UserRecord{}, fmt.Errorf("password must be at least 8 characters")
	}

	if _, err := m.users.Get(ctx, req.Username); err == nil {
		return model.UserRecord{}, fmt.Errorf("%w: %s", ErrUserExists, req.Username)
	} else if !errors.Is(err, store.ErrNotFound) {
		return model.UserRecord{}, err
	}

	hashed, err := HashPassword(req.Password)
	if err != nil {
		return model.UserRecord{}, err
	}

	user := model.UserRecord{
		Username:       req.Username,
		HashedPassword: hashed,
		FullName:       req.FullName,
		Email:          req.Email,
		Role:           model.RoleUser,
		Active:         true,
		Scopes:         model.DefaultScopes(model.RoleUser),
	}
	if err := m.users.Save(ctx, user); err != nil {
		return model.UserRecord{}, err
	}
	if m.logger != nil {
		m.logger.Info("registered account %s", user.Username)
	}
	return user, nil
}

// Login checks credentials and issues a token. Requested scopes are
// intersected with the scopes the account owns; a scope the account does not
// own is silently dropped, never escalated. An empty request grants all
// owned scopes.
func (m *Manager) Login(
	ctx context.Context,
	username, password string,
	requestedScopes []string,
) (string, model.UserRecord, error) {
	user, err := m.users.Get(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", model.UserRecord{}, ErrBadCredentials
		}
		return "", model.UserRecord{}, err
	}
	if !VerifyPassword(user.HashedPassword, password) {
		return "", model.UserRecord{}, ErrBadCredentials
	}
	if !user.Active {
		return "", model.UserRecord{}, fmt.Errorf(
			"%w: account %q is deactivated", ErrForbidden, username)
	}

	granted := user.Scopes
	if len(requestedScopes) > 0 {
		granted = user.GrantableScopes(requestedScopes)
	}

	token, err := m.codec.Issue(username, granted)
	if err != nil {
		return "", model.UserRecord{}, err
	}
	if m.logger != nil {
		m.logger.Debug("issued token for %s with scopes %v", username, granted)
	}
	return token, user, nil
}

// Get returns a single account.
func (m *Manager) Get(ctx context.Context, username string) (model.UserRecord, error) {
	user, err := m.users.Get(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return model.UserRecord{}, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	return user, err
}

// List returns all accounts.
func (m *Manager) List(ctx context.Context) ([]model.UserRecord, error) {
	return m.users.List(ctx)
}

// SetRole changes an account role and realigns its scopes with the role's
// defaults. Outstanding tokens keep their granted scopes until expiry.
func (m *Manager) SetRole(ctx context.Context, username string, role model.Role) (model.UserRecord, error) {
	if !role.Valid() {
		return model.UserRecord{}, fmt.Errorf("invalid role: %s", role)
	}
	user, err := m.Get(ctx, username)
	if err != nil {
		return model.UserRecord{}, err
	}
	user.Role = role
	user.Scopes = model.DefaultScopes(role)
	if err := m.users.Save(ctx, user); err != nil {
		return model.UserRecord{}, err
	}
	if m.logger != nil {
		m.logger.Info("role of %s set to %s", username, role)
	}
	return user, nil
}

// SetActive toggles an account. Deactivating an account blocks new logins
// and fails the guard chain for requests carrying still-valid tokens.
func (m *Manager) SetActive(ctx context.Context, username string, active bool) error {
	err := m.users.SetActive(ctx, username, active)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	if err == nil && m.logger != nil {
		m.logger.Info("account %s active=%t", username, active)
	}
	return err
}

// Delete removes an account. An admin cannot delete their own account so a
// deployment always keeps at least one reachable admin.
func (m *Manager) Delete(ctx context.Context, actor, username string) error {
	if actor == username {
		return fmt.Errorf("%w: cannot delete own account", ErrForbidden)
	}
	err := m.users.Delete(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	if err == nil && m.logger != nil {
		m.logger.Info("deleted account %s", username)
	}
	return err
}

// Stats reports backend counters from the user store.
func (m *Manager) Stats(ctx context.Context) (map[string]any, error) {
	return m.users.Stats(ctx)
}

// EnsureAdmin seeds the default admin account if it does not exist yet.
func (m *Manager) EnsureAdmin(ctx context.Context) error {
	const username = "admin"
	if _, err := m.users.Get(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	hashed, err := HashPassword(DefaultAdminPassword)
	if err != nil {
		return err
	}
	admin := model.UserRecord{
		Username:       username,
		HashedPassword: hashed,
		FullName:       "Administrator",
		Role:           model.RoleAdmin,
		Active:         true,
		Scopes:         model.DefaultScopes(model.RoleAdmin),
	}
	if err := m.users.Save(ctx, admin); err != nil {
		return err
	}
	if m.logger != nil {
		m.logger.Warn("seeded default admin account, change its password")
	}
	return nil
}

// Close releases the underlying store.
func (m *Manager) Close(ctx context.Context) error {
	return m.users.Close(ctx)
}
