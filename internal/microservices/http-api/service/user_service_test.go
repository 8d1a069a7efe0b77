package service

import (
	"context"
	"errors"
	"testing"

	"reviewhub/internal/microservices/http-api/dto"
	"reviewhub/internal/microservices/http-api/models"
	"reviewhub/internal/microservices/http-api/repository"
	"reviewhub/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUpdateMeRoleForPlainUser(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	svc := NewUserService(repo)
	actor := &models.User{ID: "u1", Username: "bob", Email: "bob@a.com", Role: models.RoleUser}

	_, err := svc.UpdateMe(ctx, actor, dto.UserPatch{Role: strPtr("admin")})
	require.Error(t, err)
	assert.Equal(t, map[string]string{"role": "user"}, apperror.As(err).Body())
	assert.Equal(t, models.RoleUser, actor.Role)

	_, err = svc.UpdateMe(ctx, actor, dto.UserPatch{RoleSet: true})
	require.Error(t, err)
	assert.Equal(t, map[string]string{"role": "user"}, apperror.As(err).Body())

	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateMeCheckOrder(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	svc := NewUserService(repo)
	actor := &models.User{ID: "u1", Username: "bob", Email: "bob@a.com", Role: models.RoleUser}
	other := &models.User{ID: "u2", Username: "alice", Email: "alice@a.com"}

	repo.On("FindByEmail", ctx, "alice@a.com").Return(other, nil)
	repo.On("FindByUsername", ctx, "alice").Return(other, nil)

	// email is checked before username, and both before role
	_, err := svc.UpdateMe(ctx, actor, dto.UserPatch{
		Email:    strPtr("alice@a.com"),
		Username: strPtr("alice"),
		Role:     strPtr("admin"),
	})
	assert.Equal(t, map[string]string{"email": "alice@a.com уже зарегистрирован"}, apperror.As(err).Body())

	_, err = svc.UpdateMe(ctx, actor, dto.UserPatch{Username: strPtr("alice"), Role: strPtr("admin")})
	assert.Equal(t, map[string]string{"username": "alice уже зарегистрирован"}, apperror.As(err).Body())
}

func TestUpdateMeOwnValuesAreFree(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	svc := NewUserService(repo)
	actor := &models.User{ID: "u1", Username: "bob", Email: "bob@a.com", Role: models.RoleModerator}

	repo.On("FindByEmail", ctx, "bob@a.com").Return(actor, nil)
	repo.On("Update", ctx, mock.AnythingOfType("*models.User")).Return(nil)

	resp, err := svc.UpdateMe(ctx, actor, dto.UserPatch{Email: strPtr("bob@a.com"), Bio: strPtr("hi"), Role: strPtr("user")})
	require.NoError(t, err)
	assert.Equal(t, "hi", resp.Bio)
	assert.Equal(t, "user", resp.Role, "moderators may change their own role")
}

func TestAdminCreateUser(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	svc := NewUserService(repo)

	repo.On("FindByUsername", ctx, "mod").Return(nil, repository.ErrNotFound)
	repo.On("FindByEmail", ctx, "mod@a.com").Return(nil, repository.ErrNotFound)
	repo.On("Create", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.Role == models.RoleModerator && u.Username == "mod"
	})).Return(nil)

	resp, err := svc.Create(ctx, dto.UserRequest{Username: "mod", Email: "mod@a.com", Role: strPtr("moderator")})
	require.NoError(t, err)
	assert.Equal(t, "moderator", resp.Role)

	repo.On("FindByUsername", ctx, "bob").Return(&models.User{ID: "u1", Username: "bob"}, nil)
	_, err = svc.Create(ctx, dto.UserRequest{Username: "bob", Email: "x@a.com"})
	assert.Equal(t, map[string]string{"username": "bob уже зарегистрирован."}, apperror.As(err).Body())
}

func TestAdminPatchAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	svc := NewUserService(repo)
	bob := &models.User{ID: "u1", Username: "bob", Email: "bob@a.com"}

	repo.On("FindByUsername", ctx, "bob").Return(bob, nil)
	repo.On("FindByUsername", ctx, "ghost").Return(nil, repository.ErrNotFound)
	repo.On("Update", ctx, bob).Return(nil)
	repo.On("Delete", ctx, "u1").Return(nil)

	resp, err := svc.Patch(ctx, "bob", dto.UserPatch{Role: strPtr("admin"), FirstName: strPtr("Bob")})
	require.NoError(t, err)
	assert.Equal(t, "admin", resp.Role)
	assert.Equal(t, "Bob", resp.FirstName)

	assert.NoError(t, svc.Delete(ctx, "bob"))
	assert.True(t, errors.Is(svc.Delete(ctx, "ghost"), apperror.ErrNotFound))

	_, err = svc.Get(ctx, "ghost")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}
