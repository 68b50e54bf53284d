package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleWorker  = "worker"
	RoleManager = "manager"
)

type Worker struct {
	ID         string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	ChatID     *int64     `gorm:"uniqueIndex" json:"chat_id,omitempty"`
	Username   string     `json:"username"`
	FirstName  string     `gorm:"not null" json:"first_name"`
	LastName   string     `json:"last_name"`
	Role       string     `gorm:"type:varchar(20);default:'worker'" json:"role"`
	Categories []Category `gorm:"many2many:worker_categories;" json:"categories,omitempty"`
}

func (Worker) TableName() string {
	return "workers"
}

func (w *Worker) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}

// IsManager проверяет, является ли сотрудник руководителем
func (w *Worker) IsManager() bool {
	return w.Role == RoleManager
}

// FullName возвращает имя и фамилию через пробел
func (w *Worker) FullName() string {
	return strings.TrimSpace(w.FirstName + " " + w.LastName)
}
