package handlers

import (
	"encoding/json"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/grumnuts/the-nest/internal/database"
	"github.com/grumnuts/the-nest/internal/middleware"
	"github.com/grumnuts/the-nest/internal/models"
	"github.com/grumnuts/the-nest/internal/permissions"
)

// LogActivity records a list event. Best-effort: failures log and continue.
func LogActivity(listID, userID uuid.UUID, actionType string, targetID *uuid.UUID, metadata map[string]interface{}) {
	activity := models.Activity{
		ListID:     listID,
		UserID:     userID,
		ActionType: actionType,
		TargetID:   targetID,
	}

	if metadata != nil {
		raw, err := json.Marshal(metadata)
		if err == nil {
			s := string(raw)
			activity.Metadata = &s
		}
	}

	if err := database.DB.Create(&activity).Error; err != nil {
		log.Printf("activity: failed to log %s on list %s: %v", actionType, listID, err)
	}
}

// GetListActivity returns paginated activity for a list
func GetListActivity(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	listID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid list ID",
		})
	}

	if permissions.For(userID, listID) == permissions.None {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "List not found",
		})
	}

	// Pagination
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}
	offset := (page - 1) * limit

	var activities []models.Activity
	database.DB.Where("list_id = ?", listID).
		Preload("User").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&activities)

	var total int64
	database.DB.Model(&models.Activity{}).Where("list_id = ?", listID).Count(&total)

	return c.JSON(fiber.Map{
		"activities": activities,
		"total":      total,
		"page":       page,
		"limit":      limit,
	})
}
