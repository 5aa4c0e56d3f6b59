// Package permissions is the single source of truth for list access
// decisions. Handlers ask it; they never re-derive checks themselves.
package permissions

import (
	"github.com/google/uuid"
	"github.com/grumnuts/the-nest/internal/database"
	"github.com/grumnuts/the-nest/internal/models"
)

// Permission levels on a list. None means no access at all.
const (
	None  = ""
	User  = "user"
	Admin = "admin"
	Owner = "owner"
)

// Rank orders levels so a higher level passes every lower check.
func Rank(level string) int {
	switch level {
	case Owner:
		return 3
	case Admin:
		return 2
	case User:
		return 1
	}
	return 0
}

// Valid reports whether s is a grantable permission level.
func Valid(s string) bool {
	return s == User || s == Admin || s == Owner
}

// For resolves a user's permission level on a list. No row means None.
func For(userID, listID uuid.UUID) string {
	var perm models.ListPermission
	err := database.DB.Where("list_id = ? AND user_id = ?", listID, userID).First(&perm).Error
	if err != nil {
		return None
	}
	return perm.PermissionLevel
}

// CanManageList: editing or deleting the list itself, or its permission set.
func CanManageList(level string) bool {
	return level == Owner
}

// CanManageTasks: creating, editing, deleting, or reordering tasks.
func CanManageTasks(level string) bool {
	return Rank(level) >= Rank(Admin)
}

// CanComplete: toggling a task's completion status.
func CanComplete(level string) bool {
	return Rank(level) >= Rank(User)
}

// CanUndo reports whether a user may remove a completion: they authored it,
// or it has no recorded author and they hold admin or owner on the list.
func CanUndo(completion models.TaskCompletion, userID uuid.UUID, level string) bool {
	if completion.CompletedBy != nil {
		return *completion.CompletedBy == userID
	}
	return CanManageTasks(level)
}
