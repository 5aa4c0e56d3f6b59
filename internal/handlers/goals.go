package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/grumnuts/the-nest/internal/database"
	"github.com/grumnuts/the-nest/internal/middleware"
	"github.com/grumnuts/the-nest/internal/models"
	"github.com/grumnuts/the-nest/internal/period"
	"github.com/grumnuts/the-nest/internal/permissions"
	"github.com/grumnuts/the-nest/internal/progress"
)

// goalProgress evaluates a goal for the period containing refDate. Periods
// that would start in the future clamp to the current one. Lists deleted
// since the goal snapshot was taken simply stop contributing.
func goalProgress(goal *models.Goal, refDate time.Time) (progress.Result, period.Range, error) {
	r, err := period.Resolve(goal.PeriodType, refDate)
	if err != nil {
		return progress.Result{}, period.Range{}, err
	}
	r, err = period.ClampToPresent(goal.PeriodType, r, time.Now())
	if err != nil {
		return progress.Result{}, period.Range{}, err
	}

	listIDs := goal.ListIDSlice()
	if len(listIDs) == 0 {
		return progress.Evaluate(*goal, progress.Summary{}), r, nil
	}

	var tasks []models.Task
	if err := database.DB.Where("list_id IN ?", listIDs).Find(&tasks).Error; err != nil {
		return progress.Result{}, period.Range{}, err
	}

	taskIDs := make([]uuid.UUID, len(tasks))
	for i, t := range tasks {
		taskIDs[i] = t.ID
	}

	var completions []models.TaskCompletion
	if len(taskIDs) > 0 {
		err := database.DB.Where("task_id IN ?", taskIDs).
			Where("completed_at BETWEEN ? AND ?", r.StartBound(), r.EndBound()).
			Find(&completions).Error
		if err != nil {
			return progress.Result{}, period.Range{}, err
		}
	}

	return progress.Evaluate(*goal, progress.Aggregate(tasks, completions, &r)), r, nil
}

func goalWithProgress(goal *models.Goal, refDate time.Time) (fiber.Map, error) {
	result, r, err := goalProgress(goal, refDate)
	if err != nil {
		return nil, err
	}
	return fiber.Map{
		"goal":        goal,
		"progress":    result,
		"periodStart": r.Start.Format(period.DateLayout),
		"periodEnd":   r.End.Format(period.DateLayout),
	}, nil
}

func GetMyGoals(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var goals []models.Goal
	if err := database.DB.Where("user_id = ?", userID).Order("created_at ASC").Find(&goals).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch goals",
		})
	}

	now := time.Now()
	result := make([]fiber.Map, len(goals))
	for i := range goals {
		entry, err := goalWithProgress(&goals[i], now)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to evaluate goals",
			})
		}
		result[i] = entry
	}

	return c.JSON(result)
}

// GetAllGoals shows every household member's goals (site admins only).
// Users who opted out via hide_goals are skipped.
func GetAllGoals(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var actor models.User
	if err := database.DB.First(&actor, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}
	if !actor.IsAdmin() {
		return accessDenied(c, "Only admins can view all goals")
	}

	var hidden []uuid.UUID
	database.DB.Model(&models.User{}).Where("hide_goals = ?", true).Pluck("id", &hidden)

	q := database.DB.Order("created_at ASC")
	if len(hidden) > 0 {
		q = q.Where("user_id NOT IN ?", hidden)
	}

	var goals []models.Goal
	if err := q.Find(&goals).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch goals",
		})
	}

	now := time.Now()
	result := make([]fiber.Map, len(goals))
	for i := range goals {
		entry, err := goalWithProgress(&goals[i], now)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to evaluate goals",
			})
		}
		result[i] = entry
	}

	return c.JSON(result)
}

func validCalculationType(s string) bool {
	switch s {
	case models.CalcPercentageTaskCount, models.CalcPercentageTime,
		models.CalcFixedTaskCount, models.CalcFixedTime:
		return true
	}
	return false
}

func CreateGoal(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.CreateGoalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	var bad []string
	if req.Name == "" {
		bad = append(bad, "name")
	}
	if !validCalculationType(req.CalculationType) {
		bad = append(bad, "calculationType")
	}
	if req.TargetValue <= 0 {
		bad = append(bad, "targetValue")
	}
	if !period.ValidGoalPeriod(req.PeriodType) {
		bad = append(bad, "periodType")
	}
	if len(req.ListIDs) == 0 {
		bad = append(bad, "listIds")
	}
	if len(bad) > 0 {
		return validationError(c, "Invalid goal definition", bad...)
	}

	// The snapshot may only reference lists the creator can see
	for _, id := range req.ListIDs {
		if permissions.For(userID, id) == permissions.None {
			return accessDenied(c, "Access denied")
		}
	}

	goal := models.Goal{
		UserID:          userID,
		Name:            req.Name,
		CalculationType: req.CalculationType,
		TargetValue:     req.TargetValue,
		PeriodType:      req.PeriodType,
	}
	goal.SetListIDs(req.ListIDs)

	if err := database.DB.Create(&goal).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create goal",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(goal)
}

func UpdateGoal(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	goalID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid goal ID",
		})
	}

	var goal models.Goal
	if err := database.DB.Where("id = ? AND user_id = ?", goalID, userID).First(&goal).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Goal not found",
		})
	}

	var req models.UpdateGoalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Name != nil {
		if *req.Name == "" {
			return validationError(c, "Name cannot be empty", "name")
		}
		goal.Name = *req.Name
	}
	if req.CalculationType != nil {
		if !validCalculationType(*req.CalculationType) {
			return validationError(c, "Invalid calculation type", "calculationType")
		}
		goal.CalculationType = *req.CalculationType
	}
	if req.TargetValue != nil {
		if *req.TargetValue <= 0 {
			return validationError(c, "Target must be positive", "targetValue")
		}
		goal.TargetValue = *req.TargetValue
	}
	if req.PeriodType != nil {
		if !period.ValidGoalPeriod(*req.PeriodType) {
			return validationError(c, "Invalid period type", "periodType")
		}
		goal.PeriodType = *req.PeriodType
	}
	if req.ListIDs != nil {
		if len(*req.ListIDs) == 0 {
			return validationError(c, "listIds cannot be empty", "listIds")
		}
		for _, id := range *req.ListIDs {
			if permissions.For(userID, id) == permissions.None {
				return accessDenied(c, "Access denied")
			}
		}
		goal.SetListIDs(*req.ListIDs)
	}

	if err := database.DB.Save(&goal).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update goal",
		})
	}

	return c.JSON(goal)
}

func DeleteGoal(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	goalID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid goal ID",
		})
	}

	result := database.DB.Where("id = ? AND user_id = ?", goalID, userID).Delete(&models.Goal{})
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Goal not found",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetGoalProgress evaluates a goal for the period containing ?date=, or
// today when absent. The response shape is the same for current and
// historical periods.
func GetGoalProgress(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	goalID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid goal ID",
		})
	}

	var goal models.Goal
	if err := database.DB.First(&goal, "id = ?", goalID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Goal not found",
		})
	}

	if goal.UserID != userID {
		var actor models.User
		if err := database.DB.First(&actor, userID).Error; err != nil || !actor.IsAdmin() {
			return accessDenied(c, "Access denied")
		}
	}

	refDate := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.ParseInLocation(period.DateLayout, raw, time.Local)
		if err != nil {
			return validationError(c, "Date must be YYYY-MM-DD", "date")
		}
		refDate = parsed
	}

	entry, err := goalWithProgress(&goal, refDate)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to evaluate goal",
		})
	}

	return c.JSON(entry)
}
