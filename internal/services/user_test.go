package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farman-pharma/apiserver/internal/authz"
	"github.com/farman-pharma/apiserver/types"
)

func TestSignInCreatesThenRefreshes(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo)

	first, err := svc.SignIn(context.Background(), "sub-123", "Farman", "farman@example.com", "https://img/1")
	require.NoError(t, err)
	assert.NotZero(t, first.ID)

	second, err := svc.SignIn(context.Background(), "sub-123", "Farman P.", "farman@example.com", "https://img/2")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "same subject maps to same account")
	assert.Equal(t, "Farman P.", second.Name)
}

func TestSignInRequiresSubject(t *testing.T) {
	svc := NewUserService(newFakeUserRepo())

	_, err := svc.SignIn(context.Background(), "  ", "X", "x@example.com", "")

	require.ErrorIs(t, err, ErrValidation)
}

func TestUserManagementSuperadminOnly(t *testing.T) {
	repo := newFakeUserRepo(types.User{ID: 2, Email: "mod@example.com"})
	svc := NewUserService(repo)

	moderator := authz.Actor{
		UserID:      3,
		IsAdmin:     true,
		Role:        types.RoleModerator,
		Permissions: []string{"create", "update", "delete"},
	}

	_, err := svc.List(context.Background(), moderator)
	require.ErrorIs(t, err, ErrForbidden, "tokens never open the user surface")

	_, err = svc.UpdateAccess(context.Background(), moderator, 2, AccessPatch{IsAdmin: true})
	require.ErrorIs(t, err, ErrForbidden)

	err = svc.Delete(context.Background(), moderator, 2)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateAccessRejectsUnknownRole(t *testing.T) {
	repo := newFakeUserRepo(types.User{ID: 2})
	svc := NewUserService(repo)

	_, err := svc.UpdateAccess(context.Background(), superadminActor(), 2, AccessPatch{Role: "owner"})

	require.ErrorIs(t, err, ErrValidation)
}

func TestUpdateAccessPatchesFlagsAndTokens(t *testing.T) {
	repo := newFakeUserRepo(types.User{ID: 2})
	svc := NewUserService(repo)

	patch := AccessPatch{IsAdmin: true, Role: types.RoleContentManager, Permissions: []string{"create", "update"}}
	updated, err := svc.UpdateAccess(context.Background(), superadminActor(), 2, patch)

	require.NoError(t, err)
	assert.True(t, updated.IsAdmin)
	assert.Equal(t, types.RoleContentManager, updated.AdminRole)
	assert.Equal(t, []string{"create", "update"}, updated.Permissions)
}

func TestUserDeleteReassignsContentToActor(t *testing.T) {
	userRepo := newFakeUserRepo(
		types.User{ID: 1, Email: "root@example.com"},
		types.User{ID: 2, Email: "leaving@example.com"},
	)
	noteRepo := newFakeNoteRepo(types.Note{ID: 10, OwnerID: 2})
	resourceRepo := newFakeResourceRepo(types.Resource{ID: 20, Type: types.ResourceBlog, Link: "/blogs/x", OwnerID: 2})
	svc := NewUserService(userRepo, noteRepo, resourceRepo)

	err := svc.Delete(context.Background(), superadminActor(), 2)

	require.NoError(t, err)
	assert.Equal(t, [][2]int{{2, 1}}, noteRepo.reassigned)
	assert.Equal(t, [][2]int{{2, 1}}, resourceRepo.reassigned)
	assert.Equal(t, []int{2}, userRepo.deleted)

	note, err := noteRepo.Get(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, note.OwnerID, "content survives its owner")
}

func TestUserDeleteSelfRejected(t *testing.T) {
	repo := newFakeUserRepo(types.User{ID: 1, Email: "root@example.com"})
	svc := NewUserService(repo)

	err := svc.Delete(context.Background(), superadminActor(), 1)

	require.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, repo.deleted)
}

func TestUserDeleteUnknownUser(t *testing.T) {
	noteRepo := newFakeNoteRepo()
	svc := NewUserService(newFakeUserRepo(), noteRepo)

	err := svc.Delete(context.Background(), superadminActor(), 99)

	require.Error(t, err)
	assert.Empty(t, noteRepo.reassigned, "no reassignment for a missing user")
}
