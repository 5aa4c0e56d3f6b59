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
)

// taskStatuses zips a list's tasks with their per-period completion state.
func taskStatuses(list *models.List, refDate time.Time) ([]models.TaskStatus, *period.Range, error) {
	tasks, agg, bounds, err := listAggregate(list, refDate)
	if err != nil {
		return nil, nil, err
	}

	statuses := make([]models.TaskStatus, len(tasks))
	for i, t := range tasks {
		stat := agg.Tasks[i]
		statuses[i] = models.TaskStatus{
			Task:            t,
			CompletionCount: stat.Completions,
			IsCompleted:     stat.Done(),
			LastCompletedBy: stat.LastCompletedBy,
		}
		if stat.LastCompletedAt != "" {
			at := stat.LastCompletedAt
			statuses[i].LastCompletedAt = &at
		}
	}
	return statuses, bounds, nil
}

// visibleTaskStatuses drops completed tasks from a status slice when the
// viewer has the hide_completed_tasks preference set.
func visibleTaskStatuses(userID uuid.UUID, statuses []models.TaskStatus) []models.TaskStatus {
	var user models.User
	if err := database.DB.Select("hide_completed_tasks").First(&user, "id = ?", userID).Error; err != nil {
		return statuses
	}
	if !user.HideCompletedTasks {
		return statuses
	}

	visible := make([]models.TaskStatus, 0, len(statuses))
	for _, s := range statuses {
		if !s.IsCompleted {
			visible = append(visible, s)
		}
	}
	return visible
}

// findTask loads a task, its list, and the caller's permission level.
func findTask(c *fiber.Ctx, taskID, userID uuid.UUID) (*models.Task, *models.List, string, error) {
	var task models.Task
	if err := database.DB.First(&task, "id = ?", taskID).Error; err != nil {
		return nil, nil, permissions.None, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Task not found",
		})
	}

	list, level, ferr := findList(c, task.ListID, userID)
	if list == nil {
		return nil, nil, permissions.None, ferr
	}
	return &task, list, level, nil
}

func GetTasks(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	listID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid list ID",
		})
	}

	list, _, ferr := findList(c, listID, userID)
	if list == nil {
		return ferr
	}

	statuses, _, err := taskStatuses(list, time.Now())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch tasks",
		})
	}

	return c.JSON(visibleTaskStatuses(userID, statuses))
}

func CreateTask(c *fiber.Ctx) error {
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
	if !permissions.CanManageTasks(level) {
		return accessDenied(c, "Only owners and admins can create tasks")
	}

	var req models.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Title == "" {
		return validationError(c, "Title is required", "title")
	}
	if req.DurationMinutes < 0 {
		return validationError(c, "Duration cannot be negative", "durationMinutes")
	}

	var count int64
	database.DB.Model(&models.Task{}).Where("list_id = ?", listID).Count(&count)

	task := models.Task{
		ListID:                   listID,
		Title:                    req.Title,
		Description:              req.Description,
		DurationMinutes:          req.DurationMinutes,
		AllowMultipleCompletions: req.AllowMultipleCompletions,
		SortOrder:                int(count),
	}

	if err := database.DB.Create(&task).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create task",
		})
	}

	LogActivity(listID, userID, "task_created", &task.ID, nil)
	WS.Broadcast(listID, userID, WSEvent{
		Type:   EventTaskCreated,
		ListID: listID.String(),
		UserID: userID.String(),
		Data:   task,
	})

	return c.Status(fiber.StatusCreated).JSON(task)
}

func UpdateTask(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	taskID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid task ID",
		})
	}

	task, _, level, ferr := findTask(c, taskID, userID)
	if task == nil {
		return ferr
	}
	if !permissions.CanManageTasks(level) {
		return accessDenied(c, "Only owners and admins can edit tasks")
	}

	var req models.UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Title != nil {
		if *req.Title == "" {
			return validationError(c, "Title cannot be empty", "title")
		}
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.DurationMinutes != nil {
		if *req.DurationMinutes < 0 {
			return validationError(c, "Duration cannot be negative", "durationMinutes")
		}
		task.DurationMinutes = *req.DurationMinutes
	}
	if req.AllowMultipleCompletions != nil {
		task.AllowMultipleCompletions = *req.AllowMultipleCompletions
	}

	if err := database.DB.Save(task).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update task",
		})
	}

	WS.Broadcast(task.ListID, userID, WSEvent{
		Type:   EventTaskUpdated,
		ListID: task.ListID.String(),
		UserID: userID.String(),
		Data:   task,
	})

	return c.JSON(task)
}

func DeleteTask(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	taskID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid task ID",
		})
	}

	task, _, level, ferr := findTask(c, taskID, userID)
	if task == nil {
		return ferr
	}
	if !permissions.CanManageTasks(level) {
		return accessDenied(c, "Only owners and admins can delete tasks")
	}

	database.DB.Where("task_id = ?", taskID).Delete(&models.TaskCompletion{})
	if err := database.DB.Delete(task).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete task",
		})
	}

	WS.Broadcast(task.ListID, userID, WSEvent{
		Type:   EventTaskDeleted,
		ListID: task.ListID.String(),
		UserID: userID.String(),
	})

	return c.SendStatus(fiber.StatusNoContent)
}

func ReorderTasks(c *fiber.Ctx) error {
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
	if !permissions.CanManageTasks(level) {
		return accessDenied(c, "Only owners and admins can reorder tasks")
	}

	var req models.ReorderTasksRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if len(req.TaskIDs) == 0 {
		return validationError(c, "taskIds is required", "taskIds")
	}

	for i, id := range req.TaskIDs {
		database.DB.Model(&models.Task{}).
			Where("id = ? AND list_id = ?", id, listID).
			Update("sort_order", i)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// CompleteTask appends a completion for the current period. Tasks that do
// not allow multiple completions conflict if one already exists in period.
func CompleteTask(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	taskID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid task ID",
		})
	}

	task, list, level, ferr := findTask(c, taskID, userID)
	if task == nil {
		return ferr
	}
	if !permissions.CanComplete(level) {
		return accessDenied(c, "Access denied")
	}

	if !task.AllowMultipleCompletions {
		existing, err := completionsInCurrentPeriod(list, taskID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to complete task",
			})
		}
		if len(existing) > 0 {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Task is already completed for this period",
			})
		}
	}

	completion := models.TaskCompletion{
		TaskID:      taskID,
		CompletedBy: &userID,
	}
	if err := database.DB.Create(&completion).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to complete task",
		})
	}

	LogActivity(list.ID, userID, "task_completed", &taskID, nil)
	WS.Broadcast(list.ID, userID, WSEvent{
		Type:   EventTaskCompleted,
		ListID: list.ID.String(),
		UserID: userID.String(),
		Data:   completion,
	})

	return c.Status(fiber.StatusCreated).JSON(completion)
}

// UndoCompletion removes the acting user's most recent completion in the
// current period. Admins may also remove authorless legacy rows.
func UndoCompletion(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	taskID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid task ID",
		})
	}

	task, list, level, ferr := findTask(c, taskID, userID)
	if task == nil {
		return ferr
	}
	if !permissions.CanComplete(level) {
		return accessDenied(c, "Access denied")
	}

	completions, err := completionsInCurrentPeriod(list, taskID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to undo completion",
		})
	}
	if len(completions) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Nothing to undo",
		})
	}

	// Newest first: the victim is the newest row the caller may remove
	var victim *models.TaskCompletion
	for i := range completions {
		if permissions.CanUndo(completions[i], userID, level) {
			victim = &completions[i]
			break
		}
	}
	if victim == nil {
		return accessDenied(c, "Not your completion")
	}

	if err := database.DB.Delete(victim).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to undo completion",
		})
	}

	LogActivity(list.ID, userID, "task_uncompleted", &taskID, nil)
	WS.Broadcast(list.ID, userID, WSEvent{
		Type:   EventTaskUncompleted,
		ListID: list.ID.String(),
		UserID: userID.String(),
	})

	return c.SendStatus(fiber.StatusNoContent)
}

// completionsInCurrentPeriod returns a task's completions for the list's
// current period, newest first. Static lists return the full history.
func completionsInCurrentPeriod(list *models.List, taskID uuid.UUID) ([]models.TaskCompletion, error) {
	q := database.DB.Where("task_id = ?", taskID)

	r, err := period.Resolve(list.ResetPeriod, time.Now())
	if err == nil {
		q = q.Where("completed_at BETWEEN ? AND ?", r.StartBound(), r.EndBound())
	} else if !errors.Is(err, period.ErrStatic) {
		return nil, err
	}

	var completions []models.TaskCompletion
	if err := q.Order("completed_at DESC").Find(&completions).Error; err != nil {
		return nil, err
	}
	return completions, nil
}
