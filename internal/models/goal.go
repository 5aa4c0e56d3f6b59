package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CalcPercentageTaskCount = "percentage_task_count"
	CalcPercentageTime      = "percentage_time"
	CalcFixedTaskCount      = "fixed_task_count"
	CalcFixedTime           = "fixed_time"
)

// Goal is a user-scoped target evaluated against completions within a
// period across one or more lists. ListIDs is a snapshot stored as a JSON
// array string — a deleted list simply stops contributing.
type Goal struct {
	ID              uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	UserID          uuid.UUID      `json:"userId" gorm:"type:uuid;index;not null"`
	Name            string         `json:"name" gorm:"not null"`
	CalculationType string         `json:"calculationType" gorm:"not null"` // percentage_task_count, percentage_time, fixed_task_count, fixed_time
	TargetValue     int            `json:"targetValue" gorm:"not null"`
	PeriodType      string         `json:"periodType" gorm:"not null"` // daily, weekly, monthly, quarterly, annually
	ListIDs         string         `json:"-" gorm:"column:list_ids"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`
}

func (g *Goal) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// ListIDSlice decodes the snapshot. Unparseable blobs decode to empty.
func (g *Goal) ListIDSlice() []uuid.UUID {
	ids := []uuid.UUID{}
	if g.ListIDs == "" {
		return ids
	}
	if err := json.Unmarshal([]byte(g.ListIDs), &ids); err != nil {
		return []uuid.UUID{}
	}
	return ids
}

func (g *Goal) SetListIDs(ids []uuid.UUID) {
	raw, _ := json.Marshal(ids)
	g.ListIDs = string(raw)
}

// MarshalJSON inlines the decoded list snapshot as listIds.
func (g Goal) MarshalJSON() ([]byte, error) {
	type alias Goal
	return json.Marshal(struct {
		alias
		ListIDs []uuid.UUID `json:"listIds"`
	}{alias(g), g.ListIDSlice()})
}

// Goal DTOs
type CreateGoalRequest struct {
	Name            string      `json:"name" validate:"required"`
	CalculationType string      `json:"calculationType" validate:"required"`
	TargetValue     int         `json:"targetValue" validate:"required"`
	PeriodType      string      `json:"periodType" validate:"required"`
	ListIDs         []uuid.UUID `json:"listIds" validate:"required"`
}

type UpdateGoalRequest struct {
	Name            *string      `json:"name"`
	CalculationType *string      `json:"calculationType"`
	TargetValue     *int         `json:"targetValue"`
	PeriodType      *string      `json:"periodType"`
	ListIDs         *[]uuid.UUID `json:"listIds"`
}
