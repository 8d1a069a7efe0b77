package dto

import (
	"encoding/json"

	"reviewhub/internal/microservices/http-api/models"
)

// UserRequest is the full representation accepted by POST /users/ and PUT /users/{username}.
type UserRequest struct {
	Username  string  `json:"username" binding:"required,max=150,username"`
	Email     string  `json:"email" binding:"required,max=254,email"`
	FirstName string  `json:"first_name" binding:"max=150"`
	LastName  string  `json:"last_name" binding:"max=150"`
	Bio       string  `json:"bio"`
	Role      *string `json:"role" binding:"omitempty,oneof=user moderator admin"`
}

// UserPatch carries a partial update; nil fields are left untouched.
type UserPatch struct {
	Username  *string `json:"username" binding:"omitempty,max=150,username"`
	Email     *string `json:"email" binding:"omitempty,max=254,email"`
	FirstName *string `json:"first_name" binding:"omitempty,max=150"`
	LastName  *string `json:"last_name" binding:"omitempty,max=150"`
	Bio       *string `json:"bio"`
	Role      *string `json:"role" binding:"omitempty,oneof=user moderator admin"`

	// RoleSet records that the body carried a role key, even as null.
	RoleSet bool `json:"-"`
}

func (p *UserPatch) UnmarshalJSON(data []byte) error {
	type plain UserPatch
	if err := json.Unmarshal(data, (*plain)(p)); err != nil {
		return err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	_, p.RoleSet = keys["role"]
	return nil
}

// HasRole reports whether the patch mentions role at all.
func (p UserPatch) HasRole() bool {
	return p.RoleSet || p.Role != nil
}

type UserResponse struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Bio       string `json:"bio"`
	Role      string `json:"role"`
}

func FromModelToUserResponse(user *models.User) UserResponse {
	return UserResponse{
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Bio:       user.Bio,
		Role:      user.Role.String(),
	}
}

func FromModelsToUserResponses(users []models.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, FromModelToUserResponse(&users[i]))
	}
	return out
}
