package repository

import (
	"errors"

	"helpdesk-scheduler/internal/logging"
	"helpdesk-scheduler/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type WorkerRepository interface {
	Create(worker *models.Worker) error
	Update(worker *models.Worker) error
	GetWorkerByID(id string) (*models.Worker, error)
	GetByChatID(chatID int64) (*models.Worker, error)
	GetAll() ([]*models.Worker, error)
	AssignCategories(workerID string, categoryIDs []string) error
	CanWorkerAccessCategory(workerID, categoryID string) (bool, error)
	GetAssignedCategoryIDs(workerID string) ([]string, error)
}

type GormWorkerRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormWorkerRepository(db *gorm.DB) (*GormWorkerRepository, error) {
	logger := logging.New()

	// Автомиграция - создает таблицы workers, categories и worker_categories
	if err := db.AutoMigrate(&models.Category{}, &models.Worker{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate workers table")
		return nil, err
	}

	logger.Info("Worker repository initialized")

	return &GormWorkerRepository{db: db, logger: logger}, nil
}

func (r *GormWorkerRepository) Create(worker *models.Worker) error {
	if worker.ChatID != nil {
		existing, err := r.GetByChatID(*worker.ChatID)
		if err != nil {
			return err
		}
		if existing != nil {
			return errors.New("сотрудник с таким чатом уже существует")
		}
	}

	result := r.db.Create(worker)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to create worker")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"id":   worker.ID,
		"role": worker.Role,
	}).Info("Worker created")

	return nil
}

func (r *GormWorkerRepository) Update(worker *models.Worker) error {
	result := r.db.Omit("Categories").Save(worker)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to update worker")
		return result.Error
	}

	return nil
}

func (r *GormWorkerRepository) GetWorkerByID(id string) (*models.Worker, error) {
	var worker models.Worker
	result := r.db.Preload("Categories").Where("id = ?", id).First(&worker)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get worker by ID")
		return nil, result.Error
	}

	return &worker, nil
}

func (r *GormWorkerRepository) GetByChatID(chatID int64) (*models.Worker, error) {
	var worker models.Worker
	result := r.db.Where("chat_id = ?", chatID).First(&worker)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get worker by chat ID")
		return nil, result.Error
	}

	return &worker, nil
}

func (r *GormWorkerRepository) GetAll() ([]*models.Worker, error) {
	var workers []*models.Worker
	result := r.db.Order("first_name ASC").Find(&workers)

	if result.Error != nil {
		return nil, result.Error
	}

	return workers, nil
}

// AssignCategories заменяет набор категорий, доступных сотруднику
func (r *GormWorkerRepository) AssignCategories(workerID string, categoryIDs []string) error {
	worker := &models.Worker{ID: workerID}

	var categories []models.Category
	if len(categoryIDs) > 0 {
		if err := r.db.Where("id IN ?", categoryIDs).Find(&categories).Error; err != nil {
			return err
		}
		if len(categories) != len(categoryIDs) {
			return errors.New("часть категорий не найдена")
		}
	}

	err := r.db.Model(worker).Association("Categories").Replace(categories)
	if err != nil {
		r.logger.WithError(err).Error("Failed to assign worker categories")
		return err
	}

	r.logger.WithFields(logrus.Fields{
		"worker_id":  workerID,
		"categories": len(categoryIDs),
	}).Info("Worker categories assigned")

	return nil
}

func (r *GormWorkerRepository) CanWorkerAccessCategory(workerID, categoryID string) (bool, error) {
	var count int64
	result := r.db.Table("worker_categories").
		Where("worker_id = ? AND category_id = ?", workerID, categoryID).
		Count(&count)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to check category access")
		return false, result.Error
	}

	return count > 0, nil
}

func (r *GormWorkerRepository) GetAssignedCategoryIDs(workerID string) ([]string, error) {
	var ids []string
	result := r.db.Table("worker_categories").
		Where("worker_id = ?", workerID).
		Order("category_id ASC").
		Pluck("category_id", &ids)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get worker category IDs")
		return nil, result.Error
	}

	return ids, nil
}
