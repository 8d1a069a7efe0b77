package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	Username         string    `gorm:"uniqueIndex:idx_users_username;size:150;not null" json:"username"`
	Email            string    `gorm:"uniqueIndex:idx_users_email;size:254;not null" json:"email"`
	FirstName        string    `gorm:"size:150" json:"first_name"`
	LastName         string    `gorm:"size:150" json:"last_name"`
	Bio              string    `gorm:"type:text" json:"bio"`
	Role             Role      `gorm:"type:varchar(16);not null" json:"role"`
	IsSuperuser      bool      `gorm:"not null;default:false" json:"-"`
	ConfirmationCode string    `gorm:"size:100" json:"-"` // bcrypt hash of the last issued code
	CreatedAt        time.Time `json:"-"`
	UpdatedAt        time.Time `json:"-"`
}

// BeforeCreate hook to set UUID before creating a User
func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	return
}

func (User) TableName() string {
	return "users"
}

// CanModerate reports whether the user may mutate content authored by others.
func (user *User) CanModerate() bool {
	return user.IsSuperuser || user.Role.Capabilities().Moderate
}

// CanAdminister reports whether the user may manage the catalog and users.
func (user *User) CanAdminister() bool {
	return user.IsSuperuser || user.Role.Capabilities().Administer
}
