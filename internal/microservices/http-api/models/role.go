package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Role is the closed set of user roles. The zero value is RoleUser.
type Role uint8

const (
	RoleUser Role = iota
	RoleModerator
	RoleAdmin
)

// Capability is what a role is allowed to do beyond owning its own content.
type Capability struct {
	Moderate   bool // mutate any review or comment
	Administer bool // manage the catalog and the user collection
}

var capabilities = map[Role]Capability{
	RoleUser:      {},
	RoleModerator: {Moderate: true},
	RoleAdmin:     {Moderate: true, Administer: true},
}

var roleNames = map[Role]string{
	RoleUser:      "user",
	RoleModerator: "moderator",
	RoleAdmin:     "admin",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Role(%d)", uint8(r))
}

func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// Capabilities returns the capability row for r; unknown roles get none.
func (r Role) Capabilities() Capability {
	return capabilities[r]
}

// ParseRole converts the wire/storage name into a Role.
func ParseRole(s string) (Role, error) {
	for role, name := range roleNames {
		if name == s {
			return role, nil
		}
	}
	return RoleUser, fmt.Errorf("unknown role %q", s)
}

func (r Role) MarshalJSON() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("marshal role: invalid value %d", uint8(r))
	}
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("role must be a string: %w", err)
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Value stores the role by name so the column stays readable.
func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("store role: invalid value %d", uint8(r))
	}
	return r.String(), nil
}

func (r *Role) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case nil:
		*r = RoleUser
		return nil
	default:
		return fmt.Errorf("scan role: unsupported type %T", src)
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
