package service

import (
	"testing"
	"time"

	"go-farm-ledger/internal/model"
	"go-farm-ledger/internal/ws"
	"go-farm-ledger/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuth(t *testing.T) (*authService, *fakeUserRepo, *model.User) {
	t.Helper()
	users := newFakeUserRepo()
	u := &model.User{
		Email:    "clerk@example.com",
		FullName: "Clerk",
		IsActive: true,
		Role:     &model.Role{Code: model.RoleAdmin},
		Privileges: []model.Privilege{
			{Code: model.PrivInventoryView},
			{Code: model.PrivOrderCreate},
		},
	}
	require.NoError(t, u.SetPassword("secret1"))
	require.NoError(t, users.Create(u))

	svc := NewAuthService(users, jwt.NewManager("test-secret", time.Hour), ws.NewHub(nil), 30*time.Minute, nil).(*authService)
	return svc, users, u
}

func TestLoginAndValidate(t *testing.T) {
	svc, _, _ := setupAuth(t)

	resp, err := svc.Login("clerk@example.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, []string{model.PrivInventoryView, model.PrivOrderCreate}, resp.Privileges)

	v, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "clerk@example.com", v.User.Email)

	// a second login replaces the first session
	_, err = svc.Login("clerk@example.com", "secret1")
	require.NoError(t, err)
	_, err = svc.ValidateToken(resp.Token)
	assert.ErrorIs(t, err, ErrSessionReplaced)
}

func TestLoginFailures(t *testing.T) {
	svc, users, u := setupAuth(t)

	_, err := svc.Login("clerk@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login("nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	u.IsActive = false
	require.NoError(t, users.Update(u))
	_, err = svc.Login("clerk@example.com", "secret1")
	assert.ErrorIs(t, err, ErrUserInactive)
}

func TestValidateTokenSessionTimeout(t *testing.T) {
	svc, _, _ := setupAuth(t)

	resp, err := svc.Login("clerk@example.com", "secret1")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = svc.ValidateToken(resp.Token)
	assert.ErrorIs(t, err, ErrSessionTimeout)
}

func TestResetPassword(t *testing.T) {
	svc, _, _ := setupAuth(t)

	resp, err := svc.Login("clerk@example.com", "secret1")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ResetPassword("clerk@example.com", "nope", "newpass"), ErrWrongPassword)
	assert.ErrorIs(t, svc.ResetPassword("ghost@example.com", "secret1", "newpass"), ErrUserNotFound)
	require.NoError(t, svc.ResetPassword("clerk@example.com", "secret1", "newpass"))

	_, err = svc.Login("clerk@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.ValidateToken(resp.Token)
	assert.ErrorIs(t, err, ErrSessionReplaced)

	_, err = svc.Login("clerk@example.com", "newpass")
	assert.NoError(t, err)
}

func TestSeedAccess(t *testing.T) {
	privs := &fakePrivilegeRepo{}
	roles := &fakeRoleRepo{}
	users := newFakeUserRepo()

	SeedAccess(privs, roles, users, "admin@example.com", "admin123", nil)

	master, err := roles.FindByCode(model.RoleMasterAdmin)
	require.NoError(t, err)
	assert.Len(t, master.Privileges, len(model.DefaultPrivileges))

	admin, err := roles.FindByCode(model.RoleAdmin)
	require.NoError(t, err)
	assert.Len(t, admin.Privileges, len(model.DefaultPrivileges)-2)
	for _, p := range admin.Privileges {
		assert.NotEqual(t, model.PrivInventoryAdjust, p.Code)
	}

	u, err := users.FindByEmail("admin@example.com")
	require.NoError(t, err)
	assert.True(t, u.CheckPassword("admin123"))
	assert.True(t, u.HasPrivilege(model.PrivInventoryAdjust))

	// idempotent
	SeedAccess(privs, roles, users, "admin@example.com", "admin123", nil)
	assert.Len(t, privs.privileges, len(model.DefaultPrivileges))
	assert.Len(t, users.users, 1)
}
