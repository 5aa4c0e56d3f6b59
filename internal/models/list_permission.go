package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListPermission grants a user a level on one list. One row per (user, list).
type ListPermission struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ListID          uuid.UUID `json:"listId" gorm:"type:uuid;not null;uniqueIndex:idx_list_user"`
	UserID          uuid.UUID `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_list_user"`
	PermissionLevel string    `json:"permissionLevel" gorm:"not null;default:'user'"` // owner, admin, user
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (lp *ListPermission) BeforeCreate(tx *gorm.DB) error {
	if lp.ID == uuid.Nil {
		lp.ID = uuid.New()
	}
	return nil
}

type SetPermissionRequest struct {
	PermissionLevel string `json:"permissionLevel" validate:"required"`
}

type PermissionInfo struct {
	UserID          uuid.UUID `json:"userId"`
	Username        string    `json:"username"`
	PermissionLevel string    `json:"permissionLevel"`
}
