package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/grumnuts/the-nest/internal/database"
	"github.com/grumnuts/the-nest/internal/middleware"
	"github.com/grumnuts/the-nest/internal/models"
)

// GetUsers lists household members, so list owners can assign permissions.
func GetUsers(c *fiber.Ctx) error {
	var users []models.User
	if err := database.DB.Order("username ASC").Find(&users).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch users",
		})
	}

	result := make([]models.UserInfo, len(users))
	for i, u := range users {
		result[i] = models.UserInfo{
			ID:       u.ID,
			Username: u.Username,
			Role:     u.Role,
		}
	}

	return c.JSON(result)
}

// UpdateUserRole changes a user's site-wide role (site owner only).
func UpdateUserRole(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var actor models.User
	if err := database.DB.First(&actor, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}
	if actor.Role != models.RoleOwner {
		return accessDenied(c, "Only the site owner can change roles")
	}

	targetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user ID",
		})
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Role != models.RoleUser && req.Role != models.RoleAdmin && req.Role != models.RoleOwner {
		return validationError(c, "Role must be user, admin or owner", "role")
	}

	if targetID == userID && req.Role != models.RoleOwner {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Owner cannot demote themselves. Promote another owner first.",
		})
	}

	var target models.User
	if err := database.DB.First(&target, targetID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	target.Role = req.Role
	if err := database.DB.Save(&target).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update role",
		})
	}

	return c.JSON(models.UserInfo{ID: target.ID, Username: target.Username, Role: target.Role})
}
