package repository

import (
	"errors"
	"time"

	"helpdesk-scheduler/internal/logging"
	"helpdesk-scheduler/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type AvailabilitySlotRepository interface {
	Create(slot *models.AvailabilitySlot) error
	CreateBatch(slots []*models.AvailabilitySlot) error
	Update(slot *models.AvailabilitySlot) error
	Delete(id string) error
	GetByID(id string) (*models.AvailabilitySlot, error)
	GetByWorkerAndPeriod(workerID string, from, to time.Time) ([]*models.AvailabilitySlot, error)
	CountByWorkerAndPeriod(workerID string, from, to time.Time) (int64, error)
	DeleteByWorkerAndPeriod(workerID string, from, to time.Time) (int64, error)
	// Transaction выполняет fn в одной транзакции; fn получает репозиторий,
	// привязанный к транзакции.
	Transaction(fn func(repo AvailabilitySlotRepository) error) error
}

type GormAvailabilitySlotRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormAvailabilitySlotRepository(db *gorm.DB) (*GormAvailabilitySlotRepository, error) {
	logger := logging.New()

	// Автомиграция
	if err := db.AutoMigrate(&models.AvailabilitySlot{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate availability_slots table")
		return nil, err
	}

	logger.Info("Availability slot repository initialized")

	return &GormAvailabilitySlotRepository{
		db:     db,
		logger: logger,
	}, nil
}

// Время хранится в UTC, чтобы строковое сравнение дат в SQLite было корректным.
func normalizeSlot(slot *models.AvailabilitySlot) {
	slot.StartDatetime = slot.StartDatetime.UTC()
	slot.EndDatetime = slot.EndDatetime.UTC()
}

func (r *GormAvailabilitySlotRepository) Create(slot *models.AvailabilitySlot) error {
	normalizeSlot(slot)

	result := r.db.Create(slot)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to create availability slot")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"id":        slot.ID,
		"worker_id": slot.WorkerID,
		"start":     slot.StartDatetime.Format(time.RFC3339),
		"end":       slot.EndDatetime.Format(time.RFC3339),
	}).Debug("Availability slot created")

	return nil
}

func (r *GormAvailabilitySlotRepository) CreateBatch(slots []*models.AvailabilitySlot) error {
	if len(slots) == 0 {
		return nil
	}

	for _, slot := range slots {
		normalizeSlot(slot)
	}

	result := r.db.Create(&slots)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to create availability slots")
		return result.Error
	}

	r.logger.WithField("count", len(slots)).Debug("Availability slots created")
	return nil
}

func (r *GormAvailabilitySlotRepository) Update(slot *models.AvailabilitySlot) error {
	normalizeSlot(slot)
	now := time.Now()
	slot.UpdatedAt = &now

	result := r.db.Save(slot)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to update availability slot")
		return result.Error
	}

	r.logger.WithField("id", slot.ID).Debug("Availability slot updated")
	return nil
}

func (r *GormAvailabilitySlotRepository) Delete(id string) error {
	result := r.db.Delete(&models.AvailabilitySlot{}, "id = ?", id)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to delete availability slot")
		return result.Error
	}

	if result.RowsAffected == 0 {
		r.logger.WithField("id", id).Warn("Availability slot not found for deletion")
		return gorm.ErrRecordNotFound
	}

	r.logger.WithField("id", id).Debug("Availability slot deleted")
	return nil
}

func (r *GormAvailabilitySlotRepository) GetByID(id string) (*models.AvailabilitySlot, error) {
	var slot models.AvailabilitySlot
	result := r.db.Where("id = ?", id).First(&slot)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithField("id", id).Debug("Availability slot not found")
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get availability slot by ID")
		return nil, result.Error
	}

	return &slot, nil
}

// GetByWorkerAndPeriod возвращает слоты, начинающиеся в [from, to), по возрастанию начала.
func (r *GormAvailabilitySlotRepository) GetByWorkerAndPeriod(workerID string, from, to time.Time) ([]*models.AvailabilitySlot, error) {
	var slots []*models.AvailabilitySlot
	result := r.db.Where("worker_id = ? AND start_datetime >= ? AND start_datetime < ?",
		workerID, from.UTC(), to.UTC()).
		Order("start_datetime ASC").
		Find(&slots)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get availability slots by period")
		return nil, result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"worker_id": workerID,
		"from":      from.Format(time.RFC3339),
		"to":        to.Format(time.RFC3339),
		"count":     len(slots),
	}).Debug("Retrieved availability slots")

	return slots, nil
}

func (r *GormAvailabilitySlotRepository) CountByWorkerAndPeriod(workerID string, from, to time.Time) (int64, error) {
	var count int64
	result := r.db.Model(&models.AvailabilitySlot{}).
		Where("worker_id = ? AND start_datetime >= ? AND start_datetime < ?", workerID, from.UTC(), to.UTC()).
		Count(&count)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to count availability slots")
		return 0, result.Error
	}

	return count, nil
}

func (r *GormAvailabilitySlotRepository) DeleteByWorkerAndPeriod(workerID string, from, to time.Time) (int64, error) {
	result := r.db.Where("worker_id = ? AND start_datetime >= ? AND start_datetime < ?", workerID, from.UTC(), to.UTC()).
		Delete(&models.AvailabilitySlot{})

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to delete availability slots by period")
		return 0, result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"worker_id":     workerID,
		"rows_affected": result.RowsAffected,
	}).Debug("Availability slots deleted for period")

	return result.RowsAffected, nil
}

func (r *GormAvailabilitySlotRepository) Transaction(fn func(repo AvailabilitySlotRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&GormAvailabilitySlotRepository{db: tx, logger: r.logger})
	})
}
