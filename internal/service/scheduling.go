package service

import (
	"errors"
	"fmt"
	"time"

	"helpdesk-scheduler/internal/clock"
	"helpdesk-scheduler/internal/logging"
	"helpdesk-scheduler/internal/metrics"
	"helpdesk-scheduler/internal/models"
	"helpdesk-scheduler/internal/repository"
	"helpdesk-scheduler/pkg/calendar"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SchedulingDeps - зависимости SchedulingService.
// Notifier и Locker необязательны: без уведомлений и с локальной блокировкой.
type SchedulingDeps struct {
	Assignments  repository.ScheduleAssignmentRepository
	Availability *AvailabilityService
	Tickets      TicketOracle
	Access       CategoryAccess
	Backlog      BacklogSource
	Workers      WorkerDirectory
	Priorities   *PriorityPolicy
	Aggregator   EfficiencyAggregator
	Locker       WorkerLocker
	Notifier     Notifier
	Clock        clock.Clock
	Location     *time.Location
	BacklogLimit int
}

type SchedulingService struct {
	assignments  repository.ScheduleAssignmentRepository
	availability *AvailabilityService
	tickets      TicketOracle
	access       CategoryAccess
	backlog      BacklogSource
	workers      WorkerDirectory
	priorities   *PriorityPolicy
	aggregator   EfficiencyAggregator
	locker       WorkerLocker
	notifier     Notifier
	clock        clock.Clock
	loc          *time.Location
	backlogLimit int
	logger       *logrus.Logger
}

func NewSchedulingService(deps SchedulingDeps) *SchedulingService {
	if deps.Priorities == nil {
		deps.Priorities = NewPriorityPolicy(nil, models.TicketPriorityMedium)
	}
	if deps.Aggregator == nil {
		deps.Aggregator = SimpleAverage{}
	}
	if deps.Locker == nil {
		deps.Locker = NewLocalWorkerLocker()
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}

	return &SchedulingService{
		assignments:  deps.Assignments,
		availability: deps.Availability,
		tickets:      deps.Tickets,
		access:       deps.Access,
		backlog:      deps.Backlog,
		workers:      deps.Workers,
		priorities:   deps.Priorities,
		aggregator:   deps.Aggregator,
		locker:       deps.Locker,
		notifier:     deps.Notifier,
		clock:        deps.Clock,
		loc:          deps.Location,
		backlogLimit: deps.BacklogLimit,
		logger:       logging.New(),
	}
}

// Priorities возвращает политику меток приоритета для слоя представления.
func (s *SchedulingService) Priorities() *PriorityPolicy {
	return s.priorities
}

func (s *SchedulingService) today() time.Time {
	return calendar.StartOfDay(s.clock.Now(), s.loc)
}

func (s *SchedulingService) requireWorker(workerID string) (*models.Worker, error) {
	worker, err := s.workers.GetWorkerByID(workerID)
	if err != nil {
		return nil, fmt.Errorf("load worker: %w", err)
	}
	if worker == nil {
		return nil, &NotFoundError{Resource: "worker", ID: workerID}
	}
	return worker, nil
}

func (s *SchedulingService) requireTicket(ticketID string) (*models.Ticket, error) {
	ticket, err := s.tickets.GetTicketByID(ticketID)
	if err != nil {
		return nil, fmt.Errorf("load ticket: %w", err)
	}
	if ticket == nil {
		return nil, &NotFoundError{Resource: "ticket", ID: ticketID}
	}
	return ticket, nil
}

func (s *SchedulingService) requireAccess(workerID string, ticket *models.Ticket) error {
	ok, err := s.access.CanWorkerAccessCategory(workerID, ticket.CategoryID)
	if err != nil {
		return fmt.Errorf("check category access: %w", err)
	}
	if !ok {
		s.logger.WithFields(logrus.Fields{
			"worker_id":   workerID,
			"category_id": ticket.CategoryID,
		}).Warn("Worker has no access to ticket category")
		return &ForbiddenError{Reason: "worker has no access to category " + ticket.CategoryID}
	}
	return nil
}

// requireAvailability проверяет, что на день day у сотрудника есть хотя бы один слот
func (s *SchedulingService) requireAvailability(workerID string, day time.Time) error {
	slots, err := s.availability.GetForWeek(workerID, day)
	if err != nil {
		return err
	}
	for _, slot := range slots {
		if calendar.SameDay(slot.StartDatetime, day) {
			return nil
		}
	}
	return invalidField("date", "worker has no availability on "+calendar.DayKey(day))
}

func (s *SchedulingService) notify(worker *models.Worker, created []*models.ScheduleAssignment) {
	if s.notifier == nil || worker == nil || len(created) == 0 {
		return
	}
	s.notifier.AssignmentsCreated(worker, created)
}

func (s *SchedulingService) localize(a *models.ScheduleAssignment) *models.ScheduleAssignment {
	a.ScheduledDate = a.ScheduledDate.In(s.loc)
	a.AssignedAt = a.AssignedAt.In(s.loc)
	return a
}

// AssignTicketToWorker вручную ставит заявку сотруднику на день.
// Повторный вызов с той же тройкой (заявка, сотрудник, день) возвращает существующее назначение.
func (s *SchedulingService) AssignTicketToWorker(ticketID, workerID string, date time.Time, assignedByID *string) (*models.ScheduleAssignment, error) {
	assignment, _, err := s.AssignTicket(ticketID, workerID, date, assignedByID)
	return assignment, err
}

// AssignTicket - то же, что AssignTicketToWorker; created=false, если назначение уже было.
func (s *SchedulingService) AssignTicket(ticketID, workerID string, date time.Time, assignedByID *string) (assignment *models.ScheduleAssignment, created bool, err error) {
	day := calendar.StartOfDay(date, s.loc)

	s.logger.WithFields(logrus.Fields{
		"ticket_id": ticketID,
		"worker_id": workerID,
		"date":      calendar.DayKey(day),
	}).Info("Assigning ticket to worker")

	if day.Before(s.today()) {
		return nil, false, invalidField("date", "date is in the past")
	}

	worker, err := s.requireWorker(workerID)
	if err != nil {
		return nil, false, err
	}
	ticket, err := s.requireTicket(ticketID)
	if err != nil {
		return nil, false, err
	}
	if err := s.requireAccess(workerID, ticket); err != nil {
		return nil, false, err
	}
	if err := s.requireAvailability(workerID, day); err != nil {
		return nil, false, err
	}

	unlock, err := s.locker.Lock(workerID)
	if err != nil {
		return nil, false, fmt.Errorf("lock worker: %w", err)
	}
	defer unlock()

	existing, err := s.assignments.FindByTicketWorkerDate(ticketID, workerID, day)
	if err != nil {
		return nil, false, fmt.Errorf("check existing assignment: %w", err)
	}
	if existing != nil {
		metrics.AssignmentsReusedTotal.Inc()
		s.logger.WithField("assignment_id", existing.ID).Info("Ticket already scheduled for this day")
		return s.localize(existing), false, nil
	}

	assignment = &models.ScheduleAssignment{
		WorkerID:             workerID,
		TicketID:             ticketID,
		ScheduledDate:        day,
		AssignedAt:           s.clock.Now(),
		AssignedByID:         assignedByID,
		Priority:             s.priorities.Rank(ticket.Priority),
		EstimatedTimeMinutes: ticket.Category.DefaultResolutionTimeMinutes,
	}
	assignment.MarkAsManual()
	if !assignment.IsValid(s.today()) {
		return nil, false, invalidField("date", "assignment is not valid for "+calendar.DayKey(day))
	}

	if err := s.assignments.Create(assignment); err != nil {
		s.logger.WithError(err).Error("Failed to create schedule assignment")
		return nil, false, fmt.Errorf("create assignment: %w", err)
	}
	metrics.AssignmentsCreatedTotal.WithLabelValues("manual").Inc()

	s.logger.WithFields(logrus.Fields{
		"assignment_id": assignment.ID,
		"ticket_id":     ticketID,
		"worker_id":     workerID,
	}).Info("Ticket assigned")

	s.localize(assignment)
	s.notify(worker, []*models.ScheduleAssignment{assignment})
	return assignment, true, nil
}

// ReassignTicket переносит назначение сотрудника ownerID на другого сотрудника и/или день.
// Чужое назначение перенести нельзя.
func (s *SchedulingService) ReassignTicket(ownerID, assignmentID, workerID string, date time.Time, assignedByID *string) (*models.ScheduleAssignment, error) {
	day := calendar.StartOfDay(date, s.loc)

	s.logger.WithFields(logrus.Fields{
		"assignment_id": assignmentID,
		"owner_id":      ownerID,
		"worker_id":     workerID,
		"date":          calendar.DayKey(day),
	}).Info("Reassigning ticket")

	assignment, err := s.assignments.GetByID(assignmentID)
	if err != nil {
		return nil, fmt.Errorf("load assignment: %w", err)
	}
	if assignment == nil {
		return nil, &NotFoundError{Resource: "assignment", ID: assignmentID}
	}
	if assignment.WorkerID != ownerID {
		s.logger.WithField("assignment_id", assignmentID).Warn("Assignment belongs to another worker")
		return nil, &ForbiddenError{Reason: "assignment belongs to another worker"}
	}

	if assignment.WorkerID == workerID && calendar.SameDay(assignment.ScheduledDate, day) {
		return s.localize(assignment), nil
	}

	if day.Before(s.today()) {
		return nil, invalidField("date", "date is in the past")
	}

	worker, err := s.requireWorker(workerID)
	if err != nil {
		return nil, err
	}
	ticket, err := s.requireTicket(assignment.TicketID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAccess(workerID, ticket); err != nil {
		return nil, err
	}
	if err := s.requireAvailability(workerID, day); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(workerID)
	if err != nil {
		return nil, fmt.Errorf("lock worker: %w", err)
	}
	defer unlock()

	clash, err := s.assignments.FindByTicketWorkerDate(assignment.TicketID, workerID, day)
	if err != nil {
		return nil, fmt.Errorf("check existing assignment: %w", err)
	}
	if clash != nil {
		return nil, invalidField("date", "ticket is already scheduled for this worker on "+calendar.DayKey(day))
	}

	assignment.Reassign(workerID, day, assignedByID, false, s.clock.Now())
	if !assignment.IsValid(s.today()) {
		return nil, invalidField("date", "assignment is not valid for "+calendar.DayKey(day))
	}
	if err := s.assignments.Update(assignment); err != nil {
		s.logger.WithError(err).Error("Failed to reassign ticket")
		return nil, fmt.Errorf("update assignment: %w", err)
	}

	s.logger.WithField("assignment_id", assignmentID).Info("Ticket reassigned")

	s.localize(assignment)
	s.notify(worker, []*models.ScheduleAssignment{assignment})
	return assignment, nil
}

// UnassignTicket снимает назначение сотрудника.
func (s *SchedulingService) UnassignTicket(workerID, assignmentID string) error {
	assignment, err := s.assignments.GetByID(assignmentID)
	if err != nil {
		return fmt.Errorf("load assignment: %w", err)
	}
	if assignment == nil {
		return &NotFoundError{Resource: "assignment", ID: assignmentID}
	}
	if assignment.WorkerID != workerID {
		return &ForbiddenError{Reason: "assignment belongs to another worker"}
	}

	if err := s.assignments.Delete(assignmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Resource: "assignment", ID: assignmentID}
		}
		return fmt.Errorf("delete assignment: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"assignment_id": assignmentID,
		"worker_id":     workerID,
	}).Info("Ticket unassigned")
	return nil
}
