package permissions_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/grumnuts/the-nest/internal/models"
	"github.com/grumnuts/the-nest/internal/permissions"
	"github.com/stretchr/testify/assert"
)

func TestRankOrdering(t *testing.T) {
	assert.Greater(t, permissions.Rank(permissions.Owner), permissions.Rank(permissions.Admin))
	assert.Greater(t, permissions.Rank(permissions.Admin), permissions.Rank(permissions.User))
	assert.Greater(t, permissions.Rank(permissions.User), permissions.Rank(permissions.None))
	assert.Equal(t, 0, permissions.Rank("bogus"))
}

// Owner passes every check admin or user passes; user passes only the
// completion toggle.
func TestChecksAreMonotonic(t *testing.T) {
	checks := []func(string) bool{
		permissions.CanComplete,
		permissions.CanManageTasks,
		permissions.CanManageList,
	}

	for _, check := range checks {
		if check(permissions.Admin) {
			assert.True(t, check(permissions.Owner))
		}
		if check(permissions.User) {
			assert.True(t, check(permissions.Admin))
		}
	}
}

func TestChecksByLevel(t *testing.T) {
	assert.True(t, permissions.CanManageList(permissions.Owner))
	assert.False(t, permissions.CanManageList(permissions.Admin))
	assert.False(t, permissions.CanManageList(permissions.User))

	assert.True(t, permissions.CanManageTasks(permissions.Owner))
	assert.True(t, permissions.CanManageTasks(permissions.Admin))
	assert.False(t, permissions.CanManageTasks(permissions.User))

	assert.True(t, permissions.CanComplete(permissions.Owner))
	assert.True(t, permissions.CanComplete(permissions.Admin))
	assert.True(t, permissions.CanComplete(permissions.User))

	assert.False(t, permissions.CanComplete(permissions.None))
	assert.False(t, permissions.CanManageTasks(permissions.None))
	assert.False(t, permissions.CanManageList(permissions.None))
}

func TestValid(t *testing.T) {
	assert.True(t, permissions.Valid(permissions.User))
	assert.True(t, permissions.Valid(permissions.Admin))
	assert.True(t, permissions.Valid(permissions.Owner))
	assert.False(t, permissions.Valid(""))
	assert.False(t, permissions.Valid("superuser"))
}

func TestCanUndo(t *testing.T) {
	author := uuid.New()
	other := uuid.New()

	authored := models.TaskCompletion{CompletedBy: &author}
	legacy := models.TaskCompletion{CompletedBy: nil}

	// Authors remove their own rows regardless of level
	assert.True(t, permissions.CanUndo(authored, author, permissions.User))
	assert.False(t, permissions.CanUndo(authored, other, permissions.User))

	// Even an owner cannot remove someone else's authored completion
	assert.False(t, permissions.CanUndo(authored, other, permissions.Owner))

	// Legacy authorless rows fall back to the admin check
	assert.True(t, permissions.CanUndo(legacy, other, permissions.Admin))
	assert.True(t, permissions.CanUndo(legacy, other, permissions.Owner))
	assert.False(t, permissions.CanUndo(legacy, other, permissions.User))
}
