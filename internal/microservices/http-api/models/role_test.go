package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, name := range []string{"user", "moderator", "admin"} {
		role, err := ParseRole(name)
		require.NoError(t, err)
		assert.Equal(t, name, role.String())
	}

	_, err := ParseRole("Admin")
	assert.Error(t, err)
	_, err = ParseRole("superuser")
	assert.Error(t, err)
}

func TestRoleCapabilities(t *testing.T) {
	assert.Equal(t, Capability{}, RoleUser.Capabilities())
	assert.Equal(t, Capability{Moderate: true}, RoleModerator.Capabilities())
	assert.Equal(t, Capability{Moderate: true, Administer: true}, RoleAdmin.Capabilities())

	su := &User{Role: RoleUser, IsSuperuser: true}
	assert.True(t, su.CanAdminister())
	assert.True(t, su.CanModerate())
}

func TestRoleJSON(t *testing.T) {
	var payload struct {
		Role Role `json:"role"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"role":"moderator"}`), &payload))
	assert.Equal(t, RoleModerator, payload.Role)

	assert.Error(t, json.Unmarshal([]byte(`{"role":"owner"}`), &payload))
	assert.Error(t, json.Unmarshal([]byte(`{"role":2}`), &payload))

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"moderator"}`, string(out))
}

func TestRoleScanValue(t *testing.T) {
	v, err := RoleAdmin.Value()
	require.NoError(t, err)
	assert.Equal(t, "admin", v)

	var r Role
	require.NoError(t, r.Scan([]byte("moderator")))
	assert.Equal(t, RoleModerator, r)
	assert.Error(t, r.Scan("root"))
	assert.Error(t, r.Scan(42))
}
