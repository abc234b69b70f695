package auth

import (
	"context"
	"errors"
	"fmt"

	"catalog-server-go/internal/domain/auth/model"
	"catalog-server-go/internal/domain/auth/store"
)

// Requirement narrows what the Authorizer accepts beyond a valid, active
// account. Requirements compose: endpoints pick scope checks, role checks,
// both, or neither.
type Requirement func(*requirements)

type requirements struct {
	scopes []string
	roles  []model.Role
}

// RequireScopes demands every named scope to be present in the token claims.
func RequireScopes(scopes ...string) Requirement {
	return func(r *requirements) {
		r.scopes = append(r.scopes, scopes...)
	}
}

// RequireRoles demands the account role to be one of the allowed roles.
func RequireRoles(roles ...model.Role) Requirement {
	return func(r *requirements) {
		r.roles = append(r.roles, roles...)
	}
}

// Authorizer runs the guard chain for protected requests: token present,
// token valid, user exists, user active, scopes satisfied, role satisfied.
// Guards run in that order and the chain stops at the first failure.
type Authorizer struct {
	codec  *TokenCodec
	users  store.Store
	logger model.Logger
}

// NewAuthorizer wires the guard chain dependencies.
func NewAuthorizer(codec *TokenCodec, users store.Store, logger model.Logger) (*Authorizer, error) {
	if codec == nil {
		return nil, errors.New("authorizer requires a token codec")
	}
	if users == nil {
		return nil, errors.New("authorizer requires a user store")
	}
	return &Authorizer{
		codec:  codec,
		users:  users,
		logger: logger,
	}, nil
}

// Authorize verifies the raw token and checks the account against the given
// requirements. On success it returns the live user record. Failures are
// ErrUnauthenticated (no/invalid/expired token, unknown subject) or
// ErrForbidden (deactivated account, missing scope, wrong role).
//
// Scope checks consult the claims, not the live record: scopes are granted
// at login and stay effective until the token expires, even if an admin
// narrows the account in the meantime.
func (a *Authorizer) Authorize(
	ctx context.Context,
	rawToken string,
	reqs ...Requirement,
) (model.UserRecord, error) {
	var req requirements
	for _, apply := range reqs {
		apply(&req)
	}

	if rawToken == "" {
		return model.UserRecord{}, fmt.Errorf("%w: no token provided", ErrUnauthenticated)
	}

	claims, err := a.codec.Verify(rawToken)
	if err != nil {
		if a.logger != nil {
			a.logger.Debug("token rejected: %v", err)
		}
		return model.UserRecord{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	user, err := a.users.Get(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.UserRecord{}, fmt.Errorf(
				"%w: unknown subject %q", ErrUnauthenticated, claims.Subject)
		}
		return model.UserRecord{}, err
	}

	if !user.Active {
		return model.UserRecord{}, fmt.Errorf(
			"%w: account %q is deactivated", ErrForbidden, user.Username)
	}

	for _, scope := range req.scopes {
		if !hasScope(claims.Scopes, scope) {
			return model.UserRecord{}, fmt.Errorf(
				"%w: missing scope %q", ErrForbidden, scope)
		}
	}

	if len(req.roles) > 0 && !roleAllowed(user.Role, req.roles) {
		return model.UserRecord{}, fmt.Errorf(
			"%w: role %q not permitted", ErrForbidden, user.Role)
	}

	return user, nil
}

func hasScope(granted []string, scope string) bool {
	for _, s := range granted {
		if s == scope {
			return true
		}
	}
	return false
}

func roleAllowed(role model.Role, allowed []model.Role) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
