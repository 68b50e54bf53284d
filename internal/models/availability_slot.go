package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AvailabilitySlot - интервал времени в пределах одного дня, когда сотрудник
// доступен для работы с заявками.
type AvailabilitySlot struct {
	ID            string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	WorkerID      string     `gorm:"type:varchar(36);not null;index:idx_slot_worker_start" json:"worker_id"`
	StartDatetime time.Time  `gorm:"not null;index:idx_slot_worker_start" json:"start_datetime"`
	EndDatetime   time.Time  `gorm:"not null" json:"end_datetime"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

func (AvailabilitySlot) TableName() string {
	return "availability_slots"
}

// BeforeCreate проставляет идентификатор, если он не задан
func (s *AvailabilitySlot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// DurationMinutes возвращает длительность в целых минутах, не меньше нуля.
func (s *AvailabilitySlot) DurationMinutes() int {
	seconds := int64(s.EndDatetime.Sub(s.StartDatetime) / time.Second)
	minutes := int(seconds / 60)
	if minutes < 0 {
		return 0
	}
	return minutes
}

// Overlaps проверяет пересечение полуинтервалов [start, end).
func (s *AvailabilitySlot) Overlaps(start, end time.Time) bool {
	return s.StartDatetime.Before(end) && s.EndDatetime.After(start)
}

// IsValid проверяет, что слот непустой и не пересекает полночь.
// Календарный день берется в поясе loc.
func (s *AvailabilitySlot) IsValid(loc *time.Location) bool {
	if s.WorkerID == "" {
		return false
	}
	if !s.EndDatetime.After(s.StartDatetime) {
		return false
	}
	start := s.StartDatetime.In(loc)
	end := s.EndDatetime.In(loc)
	return start.Year() == end.Year() && start.YearDay() == end.YearDay()
}
