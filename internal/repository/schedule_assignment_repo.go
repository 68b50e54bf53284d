package repository

import (
	"errors"
	"time"

	"helpdesk-scheduler/internal/logging"
	"helpdesk-scheduler/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type ScheduleAssignmentRepository interface {
	Create(assignment *models.ScheduleAssignment) error
	Update(assignment *models.ScheduleAssignment) error
	Delete(id string) error
	GetByID(id string) (*models.ScheduleAssignment, error)
	GetByWorkerAndDate(workerID string, date time.Time) ([]*models.ScheduleAssignment, error)
	GetByWorkerAndPeriod(workerID string, from, to time.Time) ([]*models.ScheduleAssignment, error)
	GetByTicketAndDate(ticketID string, date time.Time) ([]*models.ScheduleAssignment, error)
	FindByTicketWorkerDate(ticketID, workerID string, date time.Time) (*models.ScheduleAssignment, error)
}

type GormScheduleAssignmentRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormScheduleAssignmentRepository(db *gorm.DB) (*GormScheduleAssignmentRepository, error) {
	logger := logging.New()

	if err := db.AutoMigrate(&models.ScheduleAssignment{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate schedule_assignments table")
		return nil, err
	}

	logger.Info("Schedule assignment repository initialized")

	return &GormScheduleAssignmentRepository{
		db:     db,
		logger: logger,
	}, nil
}

func normalizeAssignment(a *models.ScheduleAssignment) {
	a.ScheduledDate = a.ScheduledDate.UTC()
	a.AssignedAt = a.AssignedAt.UTC()
}

func (r *GormScheduleAssignmentRepository) Create(assignment *models.ScheduleAssignment) error {
	normalizeAssignment(assignment)

	result := r.db.Create(assignment)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to create schedule assignment")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"id":        assignment.ID,
		"worker_id": assignment.WorkerID,
		"ticket_id": assignment.TicketID,
		"date":      assignment.ScheduledDate.Format(time.RFC3339),
		"auto":      assignment.IsAutoAssigned,
	}).Info("Schedule assignment created")

	return nil
}

func (r *GormScheduleAssignmentRepository) Update(assignment *models.ScheduleAssignment) error {
	normalizeAssignment(assignment)

	result := r.db.Save(assignment)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to update schedule assignment")
		return result.Error
	}

	r.logger.WithField("id", assignment.ID).Info("Schedule assignment updated")
	return nil
}

func (r *GormScheduleAssignmentRepository) Delete(id string) error {
	result := r.db.Delete(&models.ScheduleAssignment{}, "id = ?", id)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to delete schedule assignment")
		return result.Error
	}

	if result.RowsAffected == 0 {
		r.logger.WithField("id", id).Warn("Schedule assignment not found for deletion")
		return gorm.ErrRecordNotFound
	}

	r.logger.WithField("id", id).Info("Schedule assignment deleted")
	return nil
}

func (r *GormScheduleAssignmentRepository) GetByID(id string) (*models.ScheduleAssignment, error) {
	var assignment models.ScheduleAssignment
	result := r.db.Where("id = ?", id).First(&assignment)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithField("id", id).Debug("Schedule assignment not found")
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get schedule assignment by ID")
		return nil, result.Error
	}

	return &assignment, nil
}

func (r *GormScheduleAssignmentRepository) GetByWorkerAndDate(workerID string, date time.Time) ([]*models.ScheduleAssignment, error) {
	var assignments []*models.ScheduleAssignment
	result := r.db.Where("worker_id = ? AND scheduled_date = ?", workerID, date.UTC()).
		Order("assigned_at ASC").
		Find(&assignments)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get schedule assignments by worker and date")
		return nil, result.Error
	}

	return assignments, nil
}

// GetByWorkerAndPeriod возвращает назначения с датой в [from, to).
func (r *GormScheduleAssignmentRepository) GetByWorkerAndPeriod(workerID string, from, to time.Time) ([]*models.ScheduleAssignment, error) {
	var assignments []*models.ScheduleAssignment
	result := r.db.Where("worker_id = ? AND scheduled_date >= ? AND scheduled_date < ?", workerID, from.UTC(), to.UTC()).
		Order("scheduled_date ASC, assigned_at ASC").
		Find(&assignments)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get schedule assignments by period")
		return nil, result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"worker_id": workerID,
		"count":     len(assignments),
	}).Debug("Retrieved schedule assignments for period")

	return assignments, nil
}

func (r *GormScheduleAssignmentRepository) GetByTicketAndDate(ticketID string, date time.Time) ([]*models.ScheduleAssignment, error) {
	var assignments []*models.ScheduleAssignment
	result := r.db.Where("ticket_id = ? AND scheduled_date = ?", ticketID, date.UTC()).
		Find(&assignments)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get schedule assignments by ticket and date")
		return nil, result.Error
	}

	return assignments, nil
}

func (r *GormScheduleAssignmentRepository) FindByTicketWorkerDate(ticketID, workerID string, date time.Time) (*models.ScheduleAssignment, error) {
	var assignment models.ScheduleAssignment
	result := r.db.Where("ticket_id = ? AND worker_id = ? AND scheduled_date = ?", ticketID, workerID, date.UTC()).
		First(&assignment)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to find schedule assignment")
		return nil, result.Error
	}

	return &assignment, nil
}
