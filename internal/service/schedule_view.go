package service

import (
	"fmt"
	"math"
	"time"

	"helpdesk-scheduler/internal/models"
	"helpdesk-scheduler/pkg/calendar"

	"github.com/sirupsen/logrus"
)

// ScheduledTicket - назначение, дополненное актуальными данными заявки.
type ScheduledTicket struct {
	AssignmentID         string    `json:"assignment_id"`
	TicketID             string    `json:"ticket_id"`
	Subject              string    `json:"subject"`
	Status               string    `json:"status"`
	CategoryID           string    `json:"category_id"`
	CategoryName         string    `json:"category_name"`
	EstimatedTimeMinutes int       `json:"estimated_time_minutes"`
	IsAutoAssigned       bool      `json:"is_auto_assigned"`
	Priority             *int      `json:"priority,omitempty"`
	PriorityLabel        string    `json:"priority_label"`
	Efficiency           float64   `json:"efficiency"`
	AssignedAt           time.Time `json:"assigned_at"`
}

type DaySchedule struct {
	Date             time.Time         `json:"date"`
	AvailableMinutes int               `json:"available_minutes"`
	ScheduledMinutes int               `json:"scheduled_minutes"`
	Tickets          []ScheduledTicket `json:"tickets"`
}

type WeekSchedule struct {
	WorkerID  string        `json:"worker_id"`
	WeekStart time.Time     `json:"week_start"`
	Days      []DaySchedule `json:"days"`
}

type PredictionDay struct {
	Date                     time.Time `json:"date"`
	AvailableMinutes         int       `json:"available_minutes"`
	Efficiency               float64   `json:"efficiency"`
	AverageResolutionMinutes float64   `json:"average_resolution_minutes"`
	PredictedTickets         int       `json:"predicted_tickets"`
}

type WeekPrediction struct {
	WorkerID              string          `json:"worker_id"`
	WeekStart             time.Time       `json:"week_start"`
	Days                  []PredictionDay `json:"days"`
	TotalAvailableMinutes int             `json:"total_available_minutes"`
	TotalPredictedTickets int             `json:"total_predicted_tickets"`
}

// PredictTickets возвращает floor(available * efficiency / averageResolution).
// Нулевая доступность или неизвестное среднее время дают 0.
func PredictTickets(availableMinutes int, efficiency, averageResolutionMinutes float64) int {
	if availableMinutes <= 0 || efficiency <= 0 || averageResolutionMinutes <= 0 {
		return 0
	}
	// 1e-9 гасит ошибку округления вида 7.999999999
	predicted := math.Floor(float64(availableMinutes)*efficiency/averageResolutionMinutes + 1e-9)
	if predicted < 0 {
		return 0
	}
	return int(predicted)
}

// GetWorkerScheduleForWeek собирает семидневный календарь сотрудника:
// доступные минуты, назначения и данные заявок, разрешенные по идентификатору.
func (s *SchedulingService) GetWorkerScheduleForWeek(workerID string, weekStart time.Time) (*WeekSchedule, error) {
	if _, err := s.requireWorker(workerID); err != nil {
		return nil, err
	}

	days := calendar.WeekDays(weekStart, s.loc)
	available, err := s.availability.GetAvailableMinutesForWeek(workerID, days[0])
	if err != nil {
		return nil, err
	}

	from, to := calendar.WeekWindow(days[0], s.loc)
	assignments, err := s.assignments.GetByWorkerAndPeriod(workerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load week assignments: %w", err)
	}

	schedule := &WeekSchedule{
		WorkerID:  workerID,
		WeekStart: days[0],
		Days:      make([]DaySchedule, len(days)),
	}
	index := make(map[string]int, len(days))
	for i, day := range days {
		schedule.Days[i] = DaySchedule{
			Date:             day,
			AvailableMinutes: available[i],
			Tickets:          []ScheduledTicket{},
		}
		index[calendar.DayKey(day)] = i
	}

	efficiency := make(map[string]float64)
	for _, a := range assignments {
		i, ok := index[calendar.DayKey(a.ScheduledDate.In(s.loc))]
		if !ok {
			continue
		}

		ticket, err := s.tickets.GetTicketByID(a.TicketID)
		if err != nil {
			return nil, fmt.Errorf("load ticket: %w", err)
		}
		if ticket == nil {
			s.logger.WithFields(logrus.Fields{
				"assignment_id": a.ID,
				"ticket_id":     a.TicketID,
			}).Warn("Scheduled ticket no longer exists")
			continue
		}

		eff, cached := efficiency[ticket.CategoryID]
		if !cached {
			eff, err = s.tickets.CalculateWorkerEfficiency(workerID, ticket.CategoryID)
			if err != nil {
				return nil, fmt.Errorf("calculate efficiency: %w", err)
			}
			efficiency[ticket.CategoryID] = eff
		}

		entry := ScheduledTicket{
			AssignmentID:         a.ID,
			TicketID:             ticket.ID,
			Subject:              ticket.Subject,
			Status:               ticket.Status,
			CategoryID:           ticket.CategoryID,
			CategoryName:         ticket.Category.Name,
			EstimatedTimeMinutes: ticket.Category.DefaultResolutionTimeMinutes,
			IsAutoAssigned:       a.IsAutoAssigned,
			Priority:             a.Priority,
			PriorityLabel:        s.priorities.Label(a.Priority),
			Efficiency:           eff,
			AssignedAt:           a.AssignedAt.In(s.loc),
		}

		day := &schedule.Days[i]
		day.Tickets = append(day.Tickets, entry)
		day.ScheduledMinutes += entry.EstimatedTimeMinutes
	}

	s.logger.WithFields(logrus.Fields{
		"worker_id":   workerID,
		"assignments": len(assignments),
	}).Debug("Built week schedule")

	return schedule, nil
}

// GetPredictionsForWeek прогнозирует число заявок, которые сотрудник успеет
// закрыть в каждый из семи дней.
func (s *SchedulingService) GetPredictionsForWeek(workerID string, weekStart time.Time) (*WeekPrediction, error) {
	worker, err := s.requireWorker(workerID)
	if err != nil {
		return nil, err
	}

	items, err := s.categoryEfficiencies(worker)
	if err != nil {
		return nil, err
	}
	efficiency, averageResolution := s.aggregator.Aggregate(items)

	days := calendar.WeekDays(weekStart, s.loc)
	available, err := s.availability.GetAvailableMinutesForWeek(workerID, days[0])
	if err != nil {
		return nil, err
	}

	prediction := &WeekPrediction{
		WorkerID:  workerID,
		WeekStart: days[0],
		Days:      make([]PredictionDay, 0, len(days)),
	}
	for i, day := range days {
		predicted := PredictTickets(available[i], efficiency, averageResolution)
		prediction.Days = append(prediction.Days, PredictionDay{
			Date:                     day,
			AvailableMinutes:         available[i],
			Efficiency:               efficiency,
			AverageResolutionMinutes: averageResolution,
			PredictedTickets:         predicted,
		})
		prediction.TotalAvailableMinutes += available[i]
		prediction.TotalPredictedTickets += predicted
	}

	s.logger.WithFields(logrus.Fields{
		"worker_id":  workerID,
		"categories": len(items),
		"efficiency": efficiency,
		"predicted":  prediction.TotalPredictedTickets,
	}).Debug("Built week prediction")

	return prediction, nil
}

// categoryEfficiencies собирает эффективность по назначенным категориям сотрудника;
// вес категории - число ее заявок в бэклоге.
func (s *SchedulingService) categoryEfficiencies(worker *models.Worker) ([]CategoryEfficiency, error) {
	ids, err := s.access.GetAssignedCategoryIDs(worker.ID)
	if err != nil {
		return nil, fmt.Errorf("load assigned categories: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	defaults := make(map[string]int, len(worker.Categories))
	for _, c := range worker.Categories {
		defaults[c.ID] = c.DefaultResolutionTimeMinutes
	}

	weights := make(map[string]float64)
	backlog, err := s.backlog.GetWorkerBacklog(worker.ID, models.BacklogFilter{Limit: s.backlogLimit})
	if err != nil {
		return nil, fmt.Errorf("load backlog: %w", err)
	}
	for _, item := range backlog.Tickets {
		if item.Category != nil {
			weights[item.Category.ID]++
		}
	}

	items := make([]CategoryEfficiency, 0, len(ids))
	for _, id := range ids {
		resolution, ok := defaults[id]
		if !ok || resolution <= 0 {
			s.logger.WithField("category_id", id).Warn("Category has no default resolution time")
			continue
		}

		eff, err := s.tickets.CalculateWorkerEfficiency(worker.ID, id)
		if err != nil {
			return nil, fmt.Errorf("calculate efficiency: %w", err)
		}

		items = append(items, CategoryEfficiency{
			CategoryID:               id,
			Efficiency:               eff,
			DefaultResolutionMinutes: resolution,
			Weight:                   weights[id],
		})
	}
	return items, nil
}
