package service

import "helpdesk-scheduler/internal/models"

// TicketOracle отдает заявки и эффективность сотрудника по категории.
// GetTicketByID возвращает nil, nil если заявки нет.
type TicketOracle interface {
	GetTicketByID(id string) (*models.Ticket, error)
	CalculateWorkerEfficiency(workerID, categoryID string) (float64, error)
}

// CategoryAccess проверяет доступ сотрудника к категориям заявок.
type CategoryAccess interface {
	CanWorkerAccessCategory(workerID, categoryID string) (bool, error)
	GetAssignedCategoryIDs(workerID string) ([]string, error)
}

// BacklogSource отдает бэклог сотрудника, уже отсортированный по приоритету.
type BacklogSource interface {
	GetWorkerBacklog(workerID string, filter models.BacklogFilter) (*models.Backlog, error)
}

// WorkerDirectory ищет сотрудника по идентификатору, nil если не найден.
type WorkerDirectory interface {
	GetWorkerByID(id string) (*models.Worker, error)
}

// Notifier получает новые назначения сотрудника (push-уведомления).
type Notifier interface {
	AssignmentsCreated(worker *models.Worker, assignments []*models.ScheduleAssignment)
}
