package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleFor(t *testing.T) {
	assert.Equal(t, RoleAdmin, RoleFor(true))
	assert.Equal(t, RoleMember, RoleFor(false))
}

func TestCheckPermission(t *testing.T) {
	assert.NoError(t, CheckPermission(RoleMember, PermissionSendMail))
	assert.NoError(t, CheckPermission(RoleMember, PermissionDraftMail))
	assert.NoError(t, CheckPermission(RoleAdmin, PermissionConfigureAccount))

	err := CheckPermission(RoleMember, PermissionConfigureAccount)
	var denied *PermissionDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, PermissionConfigureAccount, denied.Permission)

	assert.Error(t, CheckPermission("guest", PermissionSendMail))
}

func TestAdminOnly(t *testing.T) {
	assert.True(t, AdminOnly(PermissionConfigureAccount))
	assert.True(t, AdminOnly(PermissionViewAccount))
	assert.False(t, AdminOnly(PermissionSendMail))
	assert.False(t, AdminOnly("unknown:perm"))
}
