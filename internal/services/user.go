package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/farman-pharma/apiserver/internal/authz"
	"github.com/farman-pharma/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	List(ctx context.Context) ([]types.User, error)
	UpsertByGoogleID(ctx context.Context, user types.User) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	UpdateAccess(ctx context.Context, id int, isAdmin bool, role string, permissions []string) (types.User, error)
	Delete(ctx context.Context, id int) error
}

// ContentReassigner moves a user's owned content to another owner.
type ContentReassigner interface {
	ReassignOwner(ctx context.Context, fromID, toID int) error
}

// AccessPatch carries a user-management update.
type AccessPatch struct {
	IsAdmin     bool     `json:"is_admin"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// UserService encapsulates user use-cases. Management operations are
// superadmin-only; the policy denies everyone else including read.
type UserService struct {
	repo    UserRepository
	content []ContentReassigner
}

func NewUserService(repo UserRepository, content ...ContentReassigner) *UserService {
	return &UserService{repo: repo, content: content}
}

// GetByID loads a user record. Used by the auth middleware to resolve claims
// once per request; not exposed through the management surface.
func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByEmail loads a user record by email for local bootstrap login.
func (s *UserService) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

// SignIn upserts the account for a verified identity-provider profile:
// created on first sign-in, name/avatar/lastLogin refreshed after.
func (s *UserService) SignIn(ctx context.Context, googleID, name, email, image string) (types.User, error) {
	if strings.TrimSpace(googleID) == "" {
		return types.User{}, fmt.Errorf("%w: identity subject is required", ErrValidation)
	}
	return s.repo.UpsertByGoogleID(ctx, types.User{
		GoogleID: googleID,
		Name:     name,
		Email:    email,
		Image:    image,
	})
}

// Bootstrap creates a local-login superadmin. Invoked from the CLI, not the
// HTTP surface.
func (s *UserService) Bootstrap(ctx context.Context, user types.User) (types.User, error) {
	return s.repo.Create(ctx, user)
}

// List returns all user records. Superadmin only.
func (s *UserService) List(ctx context.Context, actor authz.Actor) ([]types.User, error) {
	if !authz.Allow(actor, authz.ActionRead, authz.ContentUser) {
		return nil, ErrForbidden
	}
	return s.repo.List(ctx)
}

// UpdateAccess patches a user's admin flag, role, and permission set.
// Superadmin only.
func (s *UserService) UpdateAccess(ctx context.Context, actor authz.Actor, id int, patch AccessPatch) (types.User, error) {
	if !authz.Allow(actor, authz.ActionUpdate, authz.ContentUser) {
		return types.User{}, ErrForbidden
	}

	role := strings.TrimSpace(patch.Role)
	switch role {
	case "", types.RoleSuperadmin, types.RoleModerator, types.RoleContentManager:
	default:
		return types.User{}, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	return s.repo.UpdateAccess(ctx, id, patch.IsAdmin, role, patch.Permissions)
}

// Delete removes a user record. Superadmin only. Owned notes and resources
// are reassigned to the acting superadmin first, so content is never
// destroyed and owner references never dangle.
func (s *UserService) Delete(ctx context.Context, actor authz.Actor, id int) error {
	if !authz.Allow(actor, authz.ActionDelete, authz.ContentUser) {
		return ErrForbidden
	}
	if id == actor.UserID {
		return fmt.Errorf("%w: cannot delete your own account", ErrValidation)
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	for _, c := range s.content {
		if err := c.ReassignOwner(ctx, id, actor.UserID); err != nil {
			return fmt.Errorf("reassign owned content: %w", err)
		}
	}

	return s.repo.Delete(ctx, id)
}
