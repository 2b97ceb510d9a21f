package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the stored capability grant of a registered user.
type Role string

const (
	RoleContributor Role = "contributor"
	RoleAdmin       Role = "admin"
)

// User is a registered account. PasswordHash holds a bcrypt hash and is
// never serialized.
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username     string    `json:"username" gorm:"uniqueIndex;not null"`
	DisplayName  string    `json:"display_name" gorm:"not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Role         Role      `json:"role" gorm:"type:varchar(16);default:'contributor';not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns an opaque identifier when none is set.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
