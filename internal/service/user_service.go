package service

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/callcenter-service/internal/auth"
	"github.com/spec-kit/callcenter-service/internal/domain"
	"github.com/spec-kit/callcenter-service/internal/repository"
	apperrors "github.com/spec-kit/callcenter-service/pkg/util"
)

// UserService coordinates account management. Listing, creating, and
// deleting accounts is admin-only; an account may update itself but only an
// admin may change a role.
type UserService struct {
	users      repository.UserRepository
	records    repository.CallRecordRepository
	bcryptCost int
}

// NewUserService builds the service.
func NewUserService(users repository.UserRepository, records repository.CallRecordRepository, bcryptCost int) *UserService {
	return &UserService{users: users, records: records, bcryptCost: bcryptCost}
}

// UserCreateInput describes the admin create payload.
type UserCreateInput struct {
	Username string
	Password string
	Role     domain.Role
}

// UserUpdateInput describes the update payload. Password and Role apply only
// when supplied.
type UserUpdateInput struct {
	Username string
	Password *string
	Role     *domain.Role
}

// GetProfile returns the caller's own account.
func (s *UserService) GetProfile(ctx context.Context, caller *auth.Principal) (*domain.User, error) {
	if auth.Decide(caller.Role(), true, auth.OpReadOwnProfile) != auth.Allow {
		return nil, apperrors.NewForbidden("permission denied")
	}
	user, err := s.users.GetByID(ctx, caller.ID())
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}
	return user, nil
}

// List returns every account, newest first. Admin only.
func (s *UserService) List(ctx context.Context, caller *auth.Principal) ([]domain.User, error) {
	if auth.Decide(caller.Role(), false, auth.OpManageUsers) != auth.Allow {
		return nil, apperrors.NewForbidden("admin access required")
	}
	return s.users.List(ctx)
}

// Create adds an account. Admin only; role defaults to agent; duplicate
// usernames are rejected.
func (s *UserService) Create(ctx context.Context, caller *auth.Principal, input UserCreateInput) (*domain.User, error) {
	if auth.Decide(caller.Role(), false, auth.OpManageUsers) != auth.Allow {
		return nil, apperrors.NewForbidden("admin access required")
	}

	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, apperrors.NewValidationError("username and password required", nil)
	}

	role := input.Role
	if role == "" {
		role = domain.RoleAgent
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": role})
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, apperrors.NewConflict("username already exists", map[string]any{"username": username})
	} else if err != pgx.ErrNoRows {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Update modifies an account. Callers may update themselves; admins may
// update anyone. Role changes require admin regardless of target.
func (s *UserService) Update(ctx context.Context, caller *auth.Principal, targetID string, input UserUpdateInput) (*domain.User, error) {
	isSelf := caller.ID() == targetID
	if !isSelf && auth.Decide(caller.Role(), false, auth.OpManageUsers) != auth.Allow {
		return nil, apperrors.NewForbidden("permission denied")
	}

	user, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}

	if username := strings.TrimSpace(input.Username); username != "" && username != user.Username {
		if _, err := s.users.GetByUsername(ctx, username); err == nil {
			return nil, apperrors.NewConflict("username already exists", map[string]any{"username": username})
		} else if err != pgx.ErrNoRows {
			return nil, err
		}
		user.Username = username
	}

	if input.Password != nil && *input.Password != "" {
		hash, err := auth.HashPassword(*input.Password, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if input.Role != nil && *input.Role != user.Role {
		if auth.Decide(caller.Role(), false, auth.OpManageUsers) != auth.Allow {
			return nil, apperrors.NewForbidden("role change requires admin")
		}
		if !input.Role.Valid() {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": *input.Role})
		}
		user.Role = *input.Role
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes an account. Admin only. An account that still owns call
// records cannot be deleted; its records would be orphaned.
func (s *UserService) Delete(ctx context.Context, caller *auth.Principal, targetID string) error {
	if auth.Decide(caller.Role(), false, auth.OpManageUsers) != auth.Allow {
		return apperrors.NewForbidden("admin access required")
	}

	owned, err := s.records.CountByOwner(ctx, targetID)
	if err != nil {
		return err
	}
	if owned > 0 {
		return apperrors.NewConflict("user still owns call records", map[string]any{"records": owned})
	}

	if err := s.users.Delete(ctx, targetID); err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("user", nil)
		}
		return err
	}
	return nil
}
