package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/servicehub-platform/internal/auth"
	"github.com/spec-kit/servicehub-platform/internal/domain"
	"github.com/spec-kit/servicehub-platform/internal/repository"
	"github.com/spec-kit/servicehub-platform/pkg/util"
)

func newUserServiceForTest(t *testing.T) *UserService {
	t.Helper()
	roles := repository.NewMemoryRoleRepository(
		domain.Role{Name: domain.RoleAdmin, Permissions: []string{"*"}},
		domain.Role{Name: domain.RoleAgent, Permissions: []string{"tickets:read", "tickets:write"}},
		domain.Role{Name: domain.RoleClient, Permissions: []string{"tickets:read"}},
	)
	users := repository.NewMemoryUserRepository(roles)
	tokens := auth.NewTokenManager("test-secret", 60)
	return NewUserService(users, roles, tokens, bcrypt.MinCost)
}

func TestUserCreateDefaultsToClientRole(t *testing.T) {
	svc := newUserServiceForTest(t)

	user, err := svc.Create(context.Background(), UserCreateInput{
		Email:     "  Jane.Doe@Example.COM ",
		FirstName: "Jane",
		LastName:  "Doe",
		Password:  "s3cret",
	})
	require.NoError(t, err)
	assert.Equal(t, "jane.doe@example.com", user.Email)
	require.NotNil(t, user.Role)
	assert.Equal(t, domain.RoleClient, user.Role.Name)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "s3cret", user.PasswordHash)
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	svc := newUserServiceForTest(t)
	ctx := context.Background()

	input := UserCreateInput{Email: "dup@example.com", Password: "pw"}
	_, err := svc.Create(ctx, input)
	require.NoError(t, err)

	_, err = svc.Create(ctx, input)
	require.Error(t, err)
	assert.True(t, util.IsCode(err, "DUPLICATE_ENTITY"))
}

func TestUserCreateUnknownRole(t *testing.T) {
	svc := newUserServiceForTest(t)

	_, err := svc.Create(context.Background(), UserCreateInput{
		Email:    "x@example.com",
		Password: "pw",
		RoleName: "SUPERVISOR",
	})
	require.Error(t, err)
	assert.True(t, util.IsCode(err, "ENTITY_NOT_FOUND"))
}

func TestUserLogin(t *testing.T) {
	svc := newUserServiceForTest(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, UserCreateInput{Email: "login@example.com", Password: "correct"})
	require.NoError(t, err)

	result, err := svc.Login(ctx, "Login@Example.com", "correct")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "login@example.com", result.User.Email)

	_, err = svc.Login(ctx, "login@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, util.IsCode(err, "UNAUTHORIZED"))

	_, err = svc.Login(ctx, "nobody@example.com", "pw")
	require.Error(t, err)
	assert.True(t, util.IsCode(err, "UNAUTHORIZED"))
}

func TestUserLoginDisabledAccount(t *testing.T) {
	svc := newUserServiceForTest(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, UserCreateInput{Email: "gone@example.com", Password: "pw"})
	require.NoError(t, err)
	_, err = svc.Deactivate(ctx, user.ID)
	require.NoError(t, err)

	_, err = svc.Login(ctx, "gone@example.com", "pw")
	require.Error(t, err)
	assert.True(t, util.IsCode(err, "UNAUTHORIZED"))
}

func TestUserUpdateRole(t *testing.T) {
	svc := newUserServiceForTest(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, UserCreateInput{Email: "promote@example.com", Password: "pw"})
	require.NoError(t, err)

	role := domain.RoleAgent
	updated, err := svc.Update(ctx, user.ID, UserUpdateInput{RoleName: &role})
	require.NoError(t, err)
	require.NotNil(t, updated.Role)
	assert.Equal(t, domain.RoleAgent, updated.Role.Name)
}

func TestUserFindAllPaginates(t *testing.T) {
	svc := newUserServiceForTest(t)
	ctx := context.Background()

	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		_, err := svc.Create(ctx, UserCreateInput{Email: email, Password: "pw"})
		require.NoError(t, err)
	}

	users, meta, err := svc.FindAll(ctx, UserListInput{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 3, meta.Total)
	assert.True(t, meta.HasPreviousPage)
	assert.False(t, meta.HasNextPage)
}
