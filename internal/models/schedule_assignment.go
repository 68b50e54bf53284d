package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScheduleAssignment - размещение одной заявки в календаре сотрудника на конкретный день.
// Заявка и сотрудник хранятся только по идентификатору и подгружаются по требованию.
type ScheduleAssignment struct {
	ID                   string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	WorkerID             string    `gorm:"type:varchar(36);not null;index:idx_assignment_worker_date" json:"worker_id"`
	TicketID             string    `gorm:"type:varchar(36);not null;index" json:"ticket_id"`
	ScheduledDate        time.Time `gorm:"not null;index:idx_assignment_worker_date" json:"scheduled_date"`
	AssignedAt           time.Time `gorm:"not null" json:"assigned_at"`
	AssignedByID         *string   `gorm:"type:varchar(36)" json:"assigned_by_id,omitempty"`
	IsAutoAssigned       bool      `gorm:"not null;default:false" json:"is_auto_assigned"`
	Priority             *int      `gorm:"check:priority >= 0" json:"priority,omitempty"`
	EstimatedTimeMinutes int       `gorm:"not null;default:0" json:"estimated_time_minutes"`
}

func (ScheduleAssignment) TableName() string {
	return "schedule_assignments"
}

func (a *ScheduleAssignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// IsValid проверяет инварианты: дата не раньше today, приоритет неотрицательный.
func (a *ScheduleAssignment) IsValid(today time.Time) bool {
	if a.WorkerID == "" || a.TicketID == "" {
		return false
	}
	if a.ScheduledDate.Before(today) {
		return false
	}
	if a.Priority != nil && *a.Priority < 0 {
		return false
	}
	return a.EstimatedTimeMinutes >= 0
}

// Reassign переносит заявку на другого сотрудника и/или день.
func (a *ScheduleAssignment) Reassign(workerID string, date time.Time, assignedByID *string, auto bool, now time.Time) {
	a.WorkerID = workerID
	a.ScheduledDate = date
	a.AssignedByID = assignedByID
	a.IsAutoAssigned = auto
	a.AssignedAt = now
}

// MarkAsAutoAssigned помечает назначение как автоматическое
func (a *ScheduleAssignment) MarkAsAutoAssigned() {
	a.IsAutoAssigned = true
}

// MarkAsManual помечает назначение как ручное
func (a *ScheduleAssignment) MarkAsManual() {
	a.IsAutoAssigned = false
}
