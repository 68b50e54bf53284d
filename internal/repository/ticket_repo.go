package repository

import (
	"errors"
	"fmt"
	"time"

	"helpdesk-scheduler/internal/logging"
	"helpdesk-scheduler/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	minEfficiency     = 0.25
	maxEfficiency     = 2.0
	defaultEfficiency = 1.0
)

const priorityOrder = "CASE priority WHEN 'urgent' THEN 3 WHEN 'high' THEN 2 WHEN 'medium' THEN 1 ELSE 0 END DESC"

type TicketRepository interface {
	CreateCategory(category *models.Category) error
	GetCategoryByID(id string) (*models.Category, error)
	Create(ticket *models.Ticket) error
	Update(ticket *models.Ticket) error
	GetTicketByID(id string) (*models.Ticket, error)
	CalculateWorkerEfficiency(workerID, categoryID string) (float64, error)
	GetWorkerBacklog(workerID string, filter models.BacklogFilter) (*models.Backlog, error)
}

type GormTicketRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormTicketRepository(db *gorm.DB) (*GormTicketRepository, error) {
	logger := logging.New()

	if err := db.AutoMigrate(&models.Category{}, &models.Ticket{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate tickets table")
		return nil, err
	}

	logger.Info("Ticket repository initialized")

	return &GormTicketRepository{db: db, logger: logger}, nil
}

func (r *GormTicketRepository) CreateCategory(category *models.Category) error {
	if category.DefaultResolutionTimeMinutes <= 0 {
		return errors.New("время решения по умолчанию должно быть положительным")
	}
	return r.db.Create(category).Error
}

func (r *GormTicketRepository) GetCategoryByID(id string) (*models.Category, error) {
	var category models.Category
	result := r.db.Where("id = ?", id).First(&category)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}

	return &category, nil
}

func (r *GormTicketRepository) Create(ticket *models.Ticket) error {
	result := r.db.Omit("Category").Create(ticket)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to create ticket")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"id":       ticket.ID,
		"category": ticket.CategoryID,
		"priority": ticket.Priority,
	}).Debug("Ticket created")

	return nil
}

func (r *GormTicketRepository) Update(ticket *models.Ticket) error {
	return r.db.Omit("Category").Save(ticket).Error
}

// GetTicketByID возвращает заявку вместе с категорией, nil если не найдена
func (r *GormTicketRepository) GetTicketByID(id string) (*models.Ticket, error) {
	var ticket models.Ticket
	result := r.db.Preload("Category").Where("id = ?", id).First(&ticket)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithField("id", id).Debug("Ticket not found")
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get ticket by ID")
		return nil, result.Error
	}

	return &ticket, nil
}

// CalculateWorkerEfficiency сравнивает норматив категории со средним фактическим
// временем решения заявок сотрудником. Без истории возвращает 1.0.
func (r *GormTicketRepository) CalculateWorkerEfficiency(workerID, categoryID string) (float64, error) {
	category, err := r.GetCategoryByID(categoryID)
	if err != nil {
		return 0, err
	}
	if category == nil {
		return 0, fmt.Errorf("категория %s не найдена", categoryID)
	}

	var durations []int
	result := r.db.Model(&models.Ticket{}).
		Where("assignee_id = ? AND category_id = ? AND status IN ? AND resolution_minutes IS NOT NULL AND resolution_minutes > 0",
			workerID, categoryID, []string{models.TicketStatusResolved, models.TicketStatusClosed}).
		Pluck("resolution_minutes", &durations)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to load resolution history")
		return 0, result.Error
	}

	if len(durations) == 0 || category.DefaultResolutionTimeMinutes <= 0 {
		return defaultEfficiency, nil
	}

	total := 0
	for _, d := range durations {
		total += d
	}
	average := float64(total) / float64(len(durations))

	efficiency := float64(category.DefaultResolutionTimeMinutes) / average
	if efficiency < minEfficiency {
		efficiency = minEfficiency
	}
	if efficiency > maxEfficiency {
		efficiency = maxEfficiency
	}

	r.logger.WithFields(logrus.Fields{
		"worker_id":   workerID,
		"category_id": categoryID,
		"samples":     len(durations),
		"efficiency":  efficiency,
	}).Debug("Calculated worker efficiency")

	return efficiency, nil
}

func (r *GormTicketRepository) backlogQuery(workerID string, statuses []string, excludeScheduledFrom time.Time) *gorm.DB {
	categories := r.db.Table("worker_categories").Select("category_id").Where("worker_id = ?", workerID)

	query := r.db.Model(&models.Ticket{}).
		Where("status IN ?", statuses).
		Where("category_id IN (?)", categories).
		Where("(assignee_id IS NULL OR assignee_id = ?)", workerID)

	if !excludeScheduledFrom.IsZero() {
		query = query.Where("NOT EXISTS (SELECT 1 FROM schedule_assignments sa WHERE sa.ticket_id = tickets.id AND sa.scheduled_date >= ?)",
			excludeScheduledFrom.UTC())
	}
	return query
}

// GetWorkerBacklog возвращает открытые заявки из категорий сотрудника:
// сначала срочные, внутри приоритета - самые старые.
func (r *GormTicketRepository) GetWorkerBacklog(workerID string, filter models.BacklogFilter) (*models.Backlog, error) {
	statuses := filter.Statuses
	if len(statuses) == 0 {
		statuses = models.OpenTicketStatuses
	}

	var total int64
	if err := r.backlogQuery(workerID, statuses, filter.ExcludeScheduledFrom).Count(&total).Error; err != nil {
		r.logger.WithError(err).Error("Failed to count worker backlog")
		return nil, err
	}

	var tickets []*models.Ticket
	query := r.backlogQuery(workerID, statuses, filter.ExcludeScheduledFrom).
		Preload("Category").
		Order(priorityOrder).
		Order("created_at ASC").
		Order("id ASC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if err := query.Find(&tickets).Error; err != nil {
		r.logger.WithError(err).Error("Failed to load worker backlog")
		return nil, err
	}

	scheduled, err := r.upcomingScheduledDates(tickets, filter.ScheduledFrom)
	if err != nil {
		return nil, err
	}

	backlog := &models.Backlog{
		Tickets: make([]*models.BacklogTicket, 0, len(tickets)),
		Total:   total,
	}
	for _, ticket := range tickets {
		category := ticket.Category
		item := &models.BacklogTicket{
			Ticket:               ticket,
			Category:             &category,
			Priority:             ticket.Priority,
			EstimatedTimeMinutes: category.DefaultResolutionTimeMinutes,
			CreatedAt:            ticket.CreatedAt,
		}
		if date, ok := scheduled[ticket.ID]; ok {
			d := date
			item.ScheduledDate = &d
		}
		backlog.Tickets = append(backlog.Tickets, item)
	}

	r.logger.WithFields(logrus.Fields{
		"worker_id": workerID,
		"returned":  len(backlog.Tickets),
		"total":     total,
	}).Debug("Retrieved worker backlog")

	return backlog, nil
}

// upcomingScheduledDates возвращает ближайшую дату назначения (любого сотрудника) для заявок
func (r *GormTicketRepository) upcomingScheduledDates(tickets []*models.Ticket, from time.Time) (map[string]time.Time, error) {
	result := make(map[string]time.Time)
	if len(tickets) == 0 || from.IsZero() {
		return result, nil
	}

	ids := make([]string, 0, len(tickets))
	for _, t := range tickets {
		ids = append(ids, t.ID)
	}

	var assignments []models.ScheduleAssignment
	err := r.db.Select("ticket_id", "scheduled_date").
		Where("ticket_id IN ? AND scheduled_date >= ?", ids, from.UTC()).
		Find(&assignments).Error
	if err != nil {
		r.logger.WithError(err).Error("Failed to load scheduled dates for backlog")
		return nil, err
	}

	for _, a := range assignments {
		if current, ok := result[a.TicketID]; !ok || a.ScheduledDate.Before(current) {
			result[a.TicketID] = a.ScheduledDate
		}
	}

	return result, nil
}
