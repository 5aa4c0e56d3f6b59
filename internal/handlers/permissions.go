package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/grumnuts/the-nest/internal/database"
	"github.com/grumnuts/the-nest/internal/middleware"
	"github.com/grumnuts/the-nest/internal/models"
	"github.com/grumnuts/the-nest/internal/permissions"
)

// GetListPermissions lists who can see a list and at what level (owner only).
func GetListPermissions(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	listID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid list ID",
		})
	}

	list, level, ferr := findList(c, listID, userID)
	if list == nil {
		return ferr
	}
	if !permissions.CanManageList(level) {
		return accessDenied(c, "Only owners can manage permissions")
	}

	var perms []models.ListPermission
	database.DB.Where("list_id = ?", listID).
		Preload("User").
		Find(&perms)

	result := make([]models.PermissionInfo, len(perms))
	for i, p := range perms {
		result[i] = models.PermissionInfo{
			UserID:          p.UserID,
			Username:        p.User.Username,
			PermissionLevel: p.PermissionLevel,
		}
	}

	return c.JSON(result)
}

// SetListPermission grants or changes a user's level on a list (owner only).
func SetListPermission(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	listID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid list ID",
		})
	}

	targetUserID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user ID",
		})
	}

	list, level, ferr := findList(c, listID, userID)
	if list == nil {
		return ferr
	}
	if !permissions.CanManageList(level) {
		return accessDenied(c, "Only owners can manage permissions")
	}

	var req models.SetPermissionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if !permissions.Valid(req.PermissionLevel) {
		return validationError(c, "Permission level must be owner, admin or user", "permissionLevel")
	}

	var target models.User
	if err := database.DB.First(&target, targetUserID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	// Owners cannot demote themselves below owner; the list must keep one
	if targetUserID == userID && req.PermissionLevel != permissions.Owner {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Owners cannot demote themselves. Grant another owner first.",
		})
	}

	var perm models.ListPermission
	err = database.DB.Where("list_id = ? AND user_id = ?", listID, targetUserID).First(&perm).Error
	if err != nil {
		perm = models.ListPermission{
			ListID:          listID,
			UserID:          targetUserID,
			PermissionLevel: req.PermissionLevel,
		}
		if err := database.DB.Create(&perm).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to set permission",
			})
		}
	} else {
		perm.PermissionLevel = req.PermissionLevel
		if err := database.DB.Save(&perm).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to set permission",
			})
		}
	}

	LogActivity(listID, userID, "permission_granted", &targetUserID, nil)
	WS.Broadcast(listID, userID, WSEvent{
		Type:   EventPermissionChanged,
		ListID: listID.String(),
		UserID: targetUserID.String(),
	})

	return c.JSON(models.PermissionInfo{
		UserID:          targetUserID,
		Username:        target.Username,
		PermissionLevel: perm.PermissionLevel,
	})
}

// RemoveListPermission revokes a user's access to a list (owner only).
func RemoveListPermission(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	listID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid list ID",
		})
	}

	targetUserID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user ID",
		})
	}

	list, level, ferr := findList(c, listID, userID)
	if list == nil {
		return ferr
	}
	if !permissions.CanManageList(level) {
		return accessDenied(c, "Only owners can manage permissions")
	}

	if targetUserID == userID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Owners cannot revoke their own access. Delete the list instead.",
		})
	}

	result := database.DB.Where("list_id = ? AND user_id = ?", listID, targetUserID).Delete(&models.ListPermission{})
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Permission not found",
		})
	}

	LogActivity(listID, userID, "permission_revoked", &targetUserID, nil)
	WS.Broadcast(listID, userID, WSEvent{
		Type:   EventPermissionChanged,
		ListID: listID.String(),
		UserID: targetUserID.String(),
	})

	return c.SendStatus(fiber.StatusNoContent)
}
