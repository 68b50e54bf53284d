package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Статусы заявок
const (
	TicketStatusOpen       = "open"
	TicketStatusInProgress = "in_progress"
	TicketStatusPending    = "pending"
	TicketStatusResolved   = "resolved"
	TicketStatusClosed     = "closed"
)

// Приоритеты заявок, от низшего к высшему
const (
	TicketPriorityLow    = "low"
	TicketPriorityMedium = "medium"
	TicketPriorityHigh   = "high"
	TicketPriorityUrgent = "urgent"
)

// OpenTicketStatuses - статусы, в которых заявка попадает в бэклог.
var OpenTicketStatuses = []string{TicketStatusOpen, TicketStatusInProgress, TicketStatusPending}

type Category struct {
	ID                           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name                         string    `gorm:"not null;uniqueIndex" json:"name"`
	DefaultResolutionTimeMinutes int       `gorm:"not null;default:30" json:"default_resolution_time_minutes"`
	CreatedAt                    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Category) TableName() string {
	return "categories"
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type Ticket struct {
	ID                string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Subject           string     `gorm:"not null" json:"subject"`
	CategoryID        string     `gorm:"type:varchar(36);not null;index" json:"category_id"`
	Status            string     `gorm:"type:varchar(20);not null;default:'open';index" json:"status"`
	Priority          string     `gorm:"type:varchar(20);not null;default:'medium'" json:"priority"`
	AssigneeID        *string    `gorm:"type:varchar(36);index" json:"assignee_id,omitempty"`
	ResolutionMinutes *int       `json:"resolution_minutes,omitempty"`
	ResolvedAt        *time.Time `json:"resolved_at,omitempty"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Category Category `gorm:"foreignKey:CategoryID" json:"category"`
}

func (Ticket) TableName() string {
	return "tickets"
}

func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// IsOpen проверяет, что заявка еще требует работы
func (t *Ticket) IsOpen() bool {
	for _, status := range OpenTicketStatuses {
		if t.Status == status {
			return true
		}
	}
	return false
}

// PriorityRank возвращает порядковый номер приоритета: 0 - low, 3 - urgent.
func PriorityRank(priority string) int {
	switch priority {
	case TicketPriorityUrgent:
		return 3
	case TicketPriorityHigh:
		return 2
	case TicketPriorityMedium:
		return 1
	default:
		return 0
	}
}
