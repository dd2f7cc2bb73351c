package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/aquametric/ratewise/internal/principal"
)

type User struct {
	ID           snowflake.ID `json:"id,string" gorm:"primaryKey"`
	Email        string       `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string       `json:"-" gorm:"size:255;not null"`
	Role         string       `json:"role" gorm:"size:32;not null;default:viewer"`
	FirstName    *string      `json:"first_name,omitempty" gorm:"size:128"`
	LastName     *string      `json:"last_name,omitempty" gorm:"size:128"`
	IsActive     bool         `json:"is_active" gorm:"not null;default:true"`
	LastLoginAt  *time.Time   `json:"last_login_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u User) RoleValue() principal.Role {
	role, err := principal.ParseRole(u.Role)
	if err != nil {
		return principal.Role("")
	}
	return role
}
