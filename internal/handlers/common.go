package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/grumnuts/the-nest/internal/database"
	"github.com/grumnuts/the-nest/internal/models"
	"github.com/grumnuts/the-nest/internal/permissions"
)

// validationError responds 400 with the offending field names so the UI can
// aggregate them into one message.
func validationError(c *fiber.Ctx, msg string, fields ...string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":  msg,
		"fields": fields,
	})
}

// accessDenied is the uniform 403 body for permission gate rejections.
func accessDenied(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"error": msg,
	})
}

// findList loads a list and the caller's permission level on it. A missing
// list and a list the caller cannot see both read as not found.
func findList(c *fiber.Ctx, listID, userID uuid.UUID) (*models.List, string, error) {
	var list models.List
	if err := database.DB.First(&list, "id = ?", listID).Error; err != nil {
		return nil, permissions.None, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "List not found",
		})
	}

	level := permissions.For(userID, listID)
	if level == permissions.None {
		return nil, permissions.None, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "List not found",
		})
	}

	return &list, level, nil
}
