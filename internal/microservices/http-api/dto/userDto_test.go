package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserPatchTracksRoleKey(t *testing.T) {
	cases := []struct {
		body    string
		roleSet bool
		role    *string
	}{
		{body: `{"bio":"reader"}`, roleSet: false},
		{body: `{"role":null}`, roleSet: true},
		{body: `{"role":"admin"}`, roleSet: true, role: strPtr("admin")},
	}
	for _, tc := range cases {
		t.Run(tc.body, func(t *testing.T) {
			var patch UserPatch
			require.NoError(t, json.Unmarshal([]byte(tc.body), &patch))
			assert.Equal(t, tc.roleSet, patch.RoleSet)
			assert.Equal(t, tc.roleSet, patch.HasRole())
			assert.Equal(t, tc.role, patch.Role)
		})
	}
}

func TestUserPatchTypeError(t *testing.T) {
	var patch UserPatch
	err := json.Unmarshal([]byte(`{"role":5}`), &patch)
	var typeErr *json.UnmarshalTypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "role", typeErr.Field)
}

func strPtr(s string) *string { return &s }
