// Package progress turns raw task and completion rows into per-period
// aggregates and evaluates goals against them. It does not touch storage;
// callers load the rows however they like.
package progress

import (
	"github.com/google/uuid"
	"github.com/grumnuts/the-nest/internal/models"
	"github.com/grumnuts/the-nest/internal/period"
)

// TaskStat is one task's completion state within a period.
type TaskStat struct {
	TaskID          uuid.UUID
	DurationMinutes int
	AllowMultiple   bool
	Completions     int
	LastCompletedAt string
	LastCompletedBy *uuid.UUID
}

// Done reports whether the task has at least one completion in the period.
func (s TaskStat) Done() bool {
	return s.Completions > 0
}

// CountedCompletions caps single-completion tasks at one per period.
func (s TaskStat) CountedCompletions() int {
	if !s.AllowMultiple && s.Completions > 0 {
		return 1
	}
	return s.Completions
}

// CompletedMinutes is the task's time contribution for the period.
func (s TaskStat) CompletedMinutes() int {
	return s.CountedCompletions() * s.DurationMinutes
}

// Summary is the rolled-up aggregate the goal evaluator consumes.
type Summary struct {
	Tasks            []TaskStat
	EligibleTasks    int
	CompletedTasks   int // distinct tasks with ≥1 completion
	CompletionCount  int // completions, respecting multiplicity rules
	EligibleMinutes  int
	CompletedMinutes int
}

// Result is the evaluated progress of one goal for one period.
type Result struct {
	Completed  int  `json:"completed"`
	Required   int  `json:"required"`
	Percentage int  `json:"percentage"`
	IsAchieved bool `json:"isAchieved"`
}

// Aggregate restricts completions to the given range and rolls them up per
// task. A nil range means all-time (static lists).
func Aggregate(tasks []models.Task, completions []models.TaskCompletion, r *period.Range) Summary {
	stats := make(map[uuid.UUID]*TaskStat, len(tasks))
	summary := Summary{}

	for _, t := range tasks {
		stats[t.ID] = &TaskStat{
			TaskID:          t.ID,
			DurationMinutes: t.DurationMinutes,
			AllowMultiple:   t.AllowMultipleCompletions,
		}
		summary.EligibleTasks++
		summary.EligibleMinutes += t.DurationMinutes
	}

	for _, c := range completions {
		stat, ok := stats[c.TaskID]
		if !ok {
			continue
		}
		if r != nil && !r.Contains(c.CompletedAt) {
			continue
		}
		stat.Completions++
		if c.CompletedAt > stat.LastCompletedAt {
			stat.LastCompletedAt = c.CompletedAt
			stat.LastCompletedBy = c.CompletedBy
		}
	}

	for _, t := range tasks {
		stat := stats[t.ID]
		if stat.Done() {
			summary.CompletedTasks++
		}
		summary.CompletionCount += stat.CountedCompletions()
		summary.CompletedMinutes += stat.CompletedMinutes()
		summary.Tasks = append(summary.Tasks, *stat)
	}

	return summary
}

// Evaluate applies a goal's calculation type to an aggregate. All
// percentages round up: 66.01% displays as 67, never 66.
func Evaluate(goal models.Goal, agg Summary) Result {
	var completed, required int

	switch goal.CalculationType {
	case models.CalcPercentageTaskCount:
		completed = agg.CompletedTasks
		required = agg.EligibleTasks

	case models.CalcPercentageTime:
		completed = ceilPercent(agg.CompletedMinutes, agg.EligibleMinutes)
		required = goal.TargetValue

	case models.CalcFixedTaskCount:
		completed = agg.CompletionCount
		required = goal.TargetValue

	case models.CalcFixedTime:
		completed = agg.CompletedMinutes
		required = goal.TargetValue

	default:
		return Result{}
	}

	pct := ceilPercent(completed, required)
	return Result{
		Completed:  completed,
		Required:   required,
		Percentage: pct,
		IsAchieved: pct >= 100,
	}
}

// ceilPercent is ceil(completed/required × 100), 0 when required is 0.
// Integer arithmetic: float division nudges exact ratios like 7/100 a hair
// above their true percentage and Ceil would inflate them.
func ceilPercent(completed, required int) int {
	if required <= 0 {
		return 0
	}
	return (completed*100 + required - 1) / required
}
