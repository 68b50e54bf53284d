package service

import (
	"fmt"
	"time"

	"helpdesk-scheduler/internal/metrics"
	"helpdesk-scheduler/internal/models"
	"helpdesk-scheduler/pkg/calendar"

	"github.com/sirupsen/logrus"
)

// AutoAssignTicketsForWorker раскладывает бэклог сотрудника по дням недели жадным
// first-fit: заявки идут в порядке бэклога, каждая попадает в первый день, где
// осталось достаточно минут. Не поместившиеся заявки пропускаются.
// Возвращает созданные назначения в порядке бэклога.
func (s *SchedulingService) AutoAssignTicketsForWorker(workerID string, weekStart time.Time) (created []*models.ScheduleAssignment, err error) {
	started := time.Now()
	defer func() {
		metrics.AutoAssignDurationSeconds.Observe(time.Since(started).Seconds())
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.AutoAssignRunsTotal.WithLabelValues(outcome).Inc()
	}()

	days := calendar.WeekDays(weekStart, s.loc)

	s.logger.WithFields(logrus.Fields{
		"worker_id":  workerID,
		"week_start": calendar.DayKey(days[0]),
	}).Info("Starting auto-assignment")

	worker, err := s.requireWorker(workerID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(workerID)
	if err != nil {
		return nil, fmt.Errorf("lock worker: %w", err)
	}
	defer unlock()

	capacity, scheduled, err := s.remainingCapacity(workerID, days)
	if err != nil {
		return nil, err
	}

	today := s.today()
	// Уже запланированные заявки отсекаются до LIMIT, иначе они занимают всю выборку
	backlog, err := s.backlog.GetWorkerBacklog(workerID, models.BacklogFilter{
		Limit:                s.backlogLimit,
		ScheduledFrom:        today,
		ExcludeScheduledFrom: today,
	})
	if err != nil {
		return nil, fmt.Errorf("load backlog: %w", err)
	}

	created = []*models.ScheduleAssignment{}
	unplaced := 0

	for _, item := range backlog.Tickets {
		if item.Ticket == nil || scheduled[item.Ticket.ID] || item.ScheduledDate != nil {
			continue
		}
		estimate := item.EstimatedTimeMinutes
		if estimate < 0 {
			continue
		}

		placed := false
		for i, day := range days {
			if day.Before(today) || capacity[i] == 0 || capacity[i] < estimate {
				continue
			}

			existing, err := s.assignments.FindByTicketWorkerDate(item.Ticket.ID, workerID, day)
			if err != nil {
				return nil, fmt.Errorf("check existing assignment: %w", err)
			}
			if existing != nil {
				placed = true
				break
			}

			assignment := &models.ScheduleAssignment{
				WorkerID:             workerID,
				TicketID:             item.Ticket.ID,
				ScheduledDate:        day,
				AssignedAt:           s.clock.Now(),
				Priority:             s.priorities.Rank(item.Priority),
				EstimatedTimeMinutes: estimate,
			}
			assignment.MarkAsAutoAssigned()
			if !assignment.IsValid(today) {
				continue
			}

			if err := s.assignments.Create(assignment); err != nil {
				s.logger.WithError(err).Error("Failed to persist auto-assignment")
				return nil, fmt.Errorf("create assignment: %w", err)
			}
			metrics.AssignmentsCreatedTotal.WithLabelValues("auto").Inc()

			capacity[i] -= estimate
			scheduled[item.Ticket.ID] = true
			created = append(created, s.localize(assignment))
			placed = true
			break
		}

		if !placed {
			unplaced++
		}
	}

	metrics.AutoAssignUnplacedTotal.Add(float64(unplaced))

	s.logger.WithFields(logrus.Fields{
		"worker_id": workerID,
		"backlog":   len(backlog.Tickets),
		"created":   len(created),
		"unplaced":  unplaced,
	}).Info("Auto-assignment finished")

	s.notify(worker, created)
	return created, nil
}

// remainingCapacity возвращает свободные минуты по дням недели с учетом уже
// запланированных заявок и множество заявок, уже стоящих у сотрудника на этой неделе.
func (s *SchedulingService) remainingCapacity(workerID string, days []time.Time) ([]int, map[string]bool, error) {
	available, err := s.availability.GetAvailableMinutesForWeek(workerID, days[0])
	if err != nil {
		return nil, nil, err
	}

	from, to := calendar.WeekWindow(days[0], s.loc)
	existing, err := s.assignments.GetByWorkerAndPeriod(workerID, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("load week assignments: %w", err)
	}

	used := make(map[string]int)
	scheduled := make(map[string]bool)
	for _, a := range existing {
		used[calendar.DayKey(a.ScheduledDate.In(s.loc))] += a.EstimatedTimeMinutes
		scheduled[a.TicketID] = true
	}

	capacity := make([]int, len(days))
	for i, day := range days {
		capacity[i] = available[i] - used[calendar.DayKey(day)]
		if capacity[i] < 0 {
			capacity[i] = 0
		}
	}

	return capacity, scheduled, nil
}
