package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/grumnuts/the-nest/internal/database"
	"github.com/grumnuts/the-nest/internal/middleware"
	"github.com/grumnuts/the-nest/internal/models"
	"github.com/grumnuts/the-nest/internal/period"
	"github.com/grumnuts/the-nest/internal/permissions"
	"github.com/grumnuts/the-nest/internal/progress"
	"gorm.io/gorm"
)

// listAggregate loads a list's tasks and rolls up their completions for the
// period containing refDate. Static lists aggregate all-time.
func listAggregate(list *models.List, refDate time.Time) ([]models.Task, progress.Summary, *period.Range, error) {
	var tasks []models.Task
	if err := database.DB.Where("list_id = ?", list.ID).Order("sort_order ASC").Find(&tasks).Error; err != nil {
		return nil, progress.Summary{}, nil, err
	}

	var bounds *period.Range
	r, err := period.Resolve(list.ResetPeriod, refDate)
	if err != nil && !errors.Is(err, period.ErrStatic) {
		return nil, progress.Summary{}, nil, err
	}
	if err == nil {
		bounds = &r
	}

	taskIDs := make([]uuid.UUID, len(tasks))
	for i, t := range tasks {
		taskIDs[i] = t.ID
	}

	var completions []models.TaskCompletion
	if len(taskIDs) > 0 {
		q := database.DB.Where("task_id IN ?", taskIDs)
		if bounds != nil {
			q = q.Where("completed_at BETWEEN ? AND ?", bounds.StartBound(), bounds.EndBound())
		}
		if err := q.Find(&completions).Error; err != nil {
			return nil, progress.Summary{}, nil, err
		}
	}

	return tasks, progress.Aggregate(tasks, completions, bounds), bounds, nil
}

func GetLists(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var perms []models.ListPermission
	if err := database.DB.Where("user_id = ?", userID).Find(&perms).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch lists",
		})
	}

	levels := make(map[uuid.UUID]string, len(perms))
	listIDs := make([]uuid.UUID, len(perms))
	for i, p := range perms {
		levels[p.ListID] = p.PermissionLevel
		listIDs[i] = p.ListID
	}

	var lists []models.List
	if len(listIDs) > 0 {
		if err := database.DB.Where("id IN ?", listIDs).Order("sort_order ASC").Find(&lists).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to fetch lists",
			})
		}
	}

	now := time.Now()
	summaries := make([]models.ListSummary, len(lists))
	for i, list := range lists {
		_, agg, _, err := listAggregate(&list, now)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to fetch lists",
			})
		}
		summaries[i] = models.ListSummary{
			ID:             list.ID,
			Name:           list.Name,
			Description:    list.Description,
			ResetPeriod:    list.ResetPeriod,
			SortOrder:      list.SortOrder,
			Permission:     levels[list.ID],
			TaskCount:      agg.EligibleTasks,
			CompletedCount: agg.CompletedTasks,
		}
	}

	return c.JSON(summaries)
}

func GetList(c *fiber.Ctx) error {
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

	statuses, bounds, err := taskStatuses(list, time.Now())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch list",
		})
	}

	resp := fiber.Map{
		"list":       list,
		"permission": level,
		"tasks":      visibleTaskStatuses(userID, statuses),
	}
	if bounds != nil {
		resp["periodStart"] = bounds.Start.Format(period.DateLayout)
		resp["periodEnd"] = bounds.End.Format(period.DateLayout)
	}
	return c.JSON(resp)
}

func CreateList(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.CreateListRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Name == "" {
		return validationError(c, "Name is required", "name")
	}

	resetPeriod := req.ResetPeriod
	if resetPeriod == "" {
		resetPeriod = period.Weekly
	}
	if !period.ValidResetPeriod(resetPeriod) {
		return validationError(c, "Invalid reset period", "resetPeriod")
	}

	var count int64
	database.DB.Model(&models.ListPermission{}).Where("user_id = ?", userID).Count(&count)

	list := models.List{
		Name:        req.Name,
		Description: req.Description,
		ResetPeriod: resetPeriod,
		CreatedBy:   userID,
		SortOrder:   int(count),
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&list).Error; err != nil {
			return err
		}
		perm := models.ListPermission{
			ListID:          list.ID,
			UserID:          userID,
			PermissionLevel: permissions.Owner,
		}
		return tx.Create(&perm).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create list",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(list)
}

func UpdateList(c *fiber.Ctx) error {
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
		return accessDenied(c, "Only owners can edit a list")
	}

	var req models.UpdateListRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Name != nil {
		if *req.Name == "" {
			return validationError(c, "Name cannot be empty", "name")
		}
		list.Name = *req.Name
	}
	if req.Description != nil {
		list.Description = *req.Description
	}
	if req.ResetPeriod != nil {
		if !period.ValidResetPeriod(*req.ResetPeriod) {
			return validationError(c, "Invalid reset period", "resetPeriod")
		}
		list.ResetPeriod = *req.ResetPeriod
	}

	if err := database.DB.Save(list).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update list",
		})
	}

	WS.Broadcast(listID, userID, WSEvent{
		Type:   EventListUpdated,
		ListID: listID.String(),
		UserID: userID.String(),
	})

	return c.JSON(list)
}

func DeleteList(c *fiber.Ctx) error {
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
		return accessDenied(c, "Only owners can delete a list")
	}

	// List owns its tasks; tasks own their completions
	var taskIDs []uuid.UUID
	database.DB.Model(&models.Task{}).Where("list_id = ?", listID).Pluck("id", &taskIDs)
	if len(taskIDs) > 0 {
		database.DB.Where("task_id IN ?", taskIDs).Delete(&models.TaskCompletion{})
	}
	database.DB.Where("list_id = ?", listID).Delete(&models.Task{})
	database.DB.Where("list_id = ?", listID).Delete(&models.ListPermission{})
	database.DB.Where("list_id = ?", listID).Delete(&models.Activity{})

	if err := database.DB.Delete(list).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete list",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ReorderLists rewrites sort_order to match the submitted ID order. Lists
// the caller has no permission on are skipped rather than rejected.
func ReorderLists(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.ReorderListsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if len(req.ListIDs) == 0 {
		return validationError(c, "listIds is required", "listIds")
	}

	for i, id := range req.ListIDs {
		if permissions.For(userID, id) == permissions.None {
			continue
		}
		database.DB.Model(&models.List{}).Where("id = ?", id).Update("sort_order", i)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
