package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Site-wide roles. Owner covers admin which covers user, compared by rank.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
	RoleOwner = "owner"
)

type User struct {
	ID                 uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Username           string         `json:"username" gorm:"uniqueIndex;not null"`
	Email              string         `json:"email" gorm:"uniqueIndex;not null"`
	Password           string         `json:"-"`
	Role               string         `json:"role" gorm:"not null;default:'user'"` // user, admin, owner
	HideGoals          bool           `json:"hideGoals" gorm:"default:false"`
	HideCompletedTasks bool           `json:"hideCompletedTasks" gorm:"default:false"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
	DeletedAt          gorm.DeletedAt `json:"-" gorm:"index"`
}

// IsAdmin reports whether the user holds a site admin or owner role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleOwner
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Auth DTOs
type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	Email              *string `json:"email"`
	HideGoals          *bool   `json:"hideGoals"`
	HideCompletedTasks *bool   `json:"hideCompletedTasks"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// UserInfo is the directory entry owners see when assigning permissions.
type UserInfo struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
}
