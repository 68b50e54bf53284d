package service

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"helpdesk-scheduler/internal/clock"
	"helpdesk-scheduler/internal/logging"
	"helpdesk-scheduler/internal/metrics"
	"helpdesk-scheduler/internal/models"
	"helpdesk-scheduler/internal/repository"
	"helpdesk-scheduler/pkg/calendar"

	"github.com/sirupsen/logrus"
)

// SlotInput - кандидат в слот доступности.
type SlotInput struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DayAvailability - итоговое состояние дня после сохранения.
type DayAvailability struct {
	Date    time.Time                  `json:"date"`
	Slots   []*models.AvailabilitySlot `json:"slots"`
	SavedAt time.Time                  `json:"saved_at"`
}

// CopyResult - результат копирования: скопированные дни и пропущенные даты.
type CopyResult struct {
	Copied  []DayAvailability `json:"copied"`
	Skipped []time.Time       `json:"skipped"`
}

var errSkipDay = errors.New("skip day")

type AvailabilityService struct {
	repo   repository.AvailabilitySlotRepository
	clock  clock.Clock
	loc    *time.Location
	logger *logrus.Logger
}

func NewAvailabilityService(
	repo repository.AvailabilitySlotRepository,
	clk clock.Clock,
	loc *time.Location,
) *AvailabilityService {
	return &AvailabilityService{
		repo:   repo,
		clock:  clk,
		loc:    loc,
		logger: logging.New(),
	}
}

func (s *AvailabilityService) today() time.Time {
	return calendar.StartOfDay(s.clock.Now(), s.loc)
}

func (s *AvailabilityService) localize(slots []*models.AvailabilitySlot) []*models.AvailabilitySlot {
	for _, slot := range slots {
		slot.StartDatetime = slot.StartDatetime.In(s.loc)
		slot.EndDatetime = slot.EndDatetime.In(s.loc)
	}
	return slots
}

// GetForWeek возвращает слоты с weekStart по weekStart+6 дней включительно
func (s *AvailabilityService) GetForWeek(workerID string, weekStart time.Time) ([]*models.AvailabilitySlot, error) {
	from, to := calendar.WeekWindow(weekStart, s.loc)

	s.logger.WithFields(logrus.Fields{
		"worker_id":  workerID,
		"week_start": calendar.DayKey(from),
	}).Debug("Getting availability for week")

	slots, err := s.repo.GetByWorkerAndPeriod(workerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load availability for week: %w", err)
	}
	return s.localize(slots), nil
}

// GetForDay возвращает слоты одного дня
func (s *AvailabilityService) GetForDay(workerID string, date time.Time) ([]*models.AvailabilitySlot, error) {
	from, to := calendar.DayWindow(date, s.loc)

	slots, err := s.repo.GetByWorkerAndPeriod(workerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load availability for day: %w", err)
	}
	return s.localize(slots), nil
}

type indexedSlot struct {
	index int
	start time.Time
	end   time.Time
}

// validateDay проверяет пакет слотов на один день и возвращает его отсортированным по началу
func (s *AvailabilityService) validateDay(day time.Time, inputs []SlotInput) ([]indexedSlot, error) {
	today := s.today()
	if day.Before(today) {
		return nil, invalidField("date", "date is in the past")
	}

	candidates := make([]indexedSlot, 0, len(inputs))
	for i, in := range inputs {
		start := in.Start.In(s.loc)
		end := in.End.In(s.loc)

		if !end.After(start) {
			return nil, invalidSlot(i, "end_datetime", "must be after start_datetime")
		}
		if !calendar.SameDay(start, day) {
			return nil, invalidSlot(i, "start_datetime", "must be on "+calendar.DayKey(day))
		}
		if !calendar.SameDay(end, day) {
			return nil, invalidSlot(i, "end_datetime", "slot must not span multiple days")
		}
		if calendar.StartOfDay(start, s.loc).Before(today) {
			return nil, invalidSlot(i, "start_datetime", "slot is in the past")
		}

		candidates = append(candidates, indexedSlot{index: i, start: start, end: end})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].start.Before(candidates[j].start)
	})

	for i := 1; i < len(candidates); i++ {
		prev, cur := candidates[i-1], candidates[i]
		if cur.start.Before(prev.end) {
			return nil, invalidSlot(cur.index, "start_datetime",
				fmt.Sprintf("overlaps with slots[%d]", prev.index))
		}
	}

	return candidates, nil
}

// ReplaceForDay атомарно заменяет все слоты сотрудника на день.
// При ошибке валидации ничего не сохраняется.
func (s *AvailabilityService) ReplaceForDay(workerID string, date time.Time, inputs []SlotInput) (*DayAvailability, error) {
	day := calendar.StartOfDay(date, s.loc)

	s.logger.WithFields(logrus.Fields{
		"worker_id": workerID,
		"date":      calendar.DayKey(day),
		"slots":     len(inputs),
	}).Info("Replacing availability for day")

	candidates, err := s.validateDay(day, inputs)
	if err != nil {
		s.logger.WithError(err).Warn("Rejected availability for day")
		metrics.AvailabilityRejectedTotal.WithLabelValues("replace").Inc()
		return nil, err
	}

	slots := make([]*models.AvailabilitySlot, 0, len(candidates))
	for _, c := range candidates {
		slot := &models.AvailabilitySlot{
			WorkerID:      workerID,
			StartDatetime: c.start,
			EndDatetime:   c.end,
		}
		if !slot.IsValid(s.loc) {
			metrics.AvailabilityRejectedTotal.WithLabelValues("replace").Inc()
			return nil, invalidSlot(c.index, "end_datetime", "slot must be non-empty and within one day")
		}
		slots = append(slots, slot)
	}

	from, to := calendar.DayWindow(day, s.loc)
	err = s.repo.Transaction(func(tx repository.AvailabilitySlotRepository) error {
		if _, err := tx.DeleteByWorkerAndPeriod(workerID, from, to); err != nil {
			return err
		}
		return tx.CreateBatch(slots)
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to replace availability")
		return nil, fmt.Errorf("replace availability: %w", err)
	}

	metrics.AvailabilityWritesTotal.WithLabelValues("replace").Inc()
	s.logger.WithFields(logrus.Fields{
		"worker_id": workerID,
		"date":      calendar.DayKey(day),
		"slots":     len(slots),
	}).Info("Availability replaced")

	return &DayAvailability{
		Date:    day,
		Slots:   s.localize(slots),
		SavedAt: s.clock.Now(),
	}, nil
}

// UpdateSlot меняет время слота в пределах его исходного дня
func (s *AvailabilityService) UpdateSlot(workerID, slotID string, start, end time.Time) (*models.AvailabilitySlot, error) {
	s.logger.WithFields(logrus.Fields{
		"worker_id": workerID,
		"slot_id":   slotID,
	}).Info("Updating availability slot")

	slot, err := s.repo.GetByID(slotID)
	if err != nil {
		return nil, fmt.Errorf("load availability slot: %w", err)
	}
	if slot == nil {
		return nil, &NotFoundError{Resource: "availability slot", ID: slotID}
	}
	if slot.WorkerID != workerID {
		s.logger.WithField("slot_id", slotID).Warn("Slot belongs to another worker")
		return nil, &ForbiddenError{Reason: "slot belongs to another worker"}
	}

	day := calendar.StartOfDay(slot.StartDatetime, s.loc)
	start = start.In(s.loc)
	end = end.In(s.loc)

	if day.Before(s.today()) {
		return nil, invalidField("start_datetime", "cannot edit availability in the past")
	}
	if !end.After(start) {
		return nil, invalidField("end_datetime", "must be after start_datetime")
	}
	candidate := models.AvailabilitySlot{WorkerID: workerID, StartDatetime: start, EndDatetime: end}
	if !calendar.SameDay(start, day) || !candidate.IsValid(s.loc) {
		return nil, invalidField("start_datetime", "slot cannot move to another day")
	}

	from, to := calendar.DayWindow(day, s.loc)
	siblings, err := s.repo.GetByWorkerAndPeriod(workerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load availability for day: %w", err)
	}
	for _, other := range siblings {
		if other.ID != slot.ID && other.Overlaps(start, end) {
			return nil, invalidField("start_datetime", "overlaps with slot "+other.ID)
		}
	}

	slot.StartDatetime = start
	slot.EndDatetime = end
	if err := s.repo.Update(slot); err != nil {
		s.logger.WithError(err).Error("Failed to update availability slot")
		return nil, fmt.Errorf("update availability slot: %w", err)
	}

	metrics.AvailabilityWritesTotal.WithLabelValues("update").Inc()
	s.logger.WithField("slot_id", slotID).Info("Availability slot updated")
	s.localize([]*models.AvailabilitySlot{slot})
	return slot, nil
}

// RemoveSlot удаляет слот и возвращает день, которому он принадлежал
func (s *AvailabilityService) RemoveSlot(workerID, slotID string) (time.Time, error) {
	slot, err := s.repo.GetByID(slotID)
	if err != nil {
		return time.Time{}, fmt.Errorf("load availability slot: %w", err)
	}
	if slot == nil {
		return time.Time{}, &NotFoundError{Resource: "availability slot", ID: slotID}
	}
	if slot.WorkerID != workerID {
		return time.Time{}, &ForbiddenError{Reason: "slot belongs to another worker"}
	}

	if err := s.repo.Delete(slotID); err != nil {
		s.logger.WithError(err).Error("Failed to remove availability slot")
		return time.Time{}, fmt.Errorf("remove availability slot: %w", err)
	}

	metrics.AvailabilityWritesTotal.WithLabelValues("remove").Inc()
	day := calendar.StartOfDay(slot.StartDatetime, s.loc)
	s.logger.WithFields(logrus.Fields{
		"worker_id": workerID,
		"slot_id":   slotID,
		"date":      calendar.DayKey(day),
	}).Info("Availability slot removed")

	return day, nil
}

// CopyAvailability копирует слоты исходного дня на целевые даты.
// Прошедшие даты, дубликаты и сам исходный день пропускаются; дни с
// существующими слотами пропускаются, если overwrite=false.
func (s *AvailabilityService) CopyAvailability(workerID string, sourceDate time.Time, targetDates []time.Time, overwrite bool) (*CopyResult, error) {
	source := calendar.StartOfDay(sourceDate, s.loc)

	s.logger.WithFields(logrus.Fields{
		"worker_id": workerID,
		"source":    calendar.DayKey(source),
		"targets":   len(targetDates),
		"overwrite": overwrite,
	}).Info("Copying availability")

	sourceSlots, err := s.GetForDay(workerID, source)
	if err != nil {
		return nil, err
	}
	if len(sourceSlots) == 0 {
		return nil, invalidField("source_date", "no availability to copy")
	}

	today := s.today()
	result := &CopyResult{
		Copied:  []DayAvailability{},
		Skipped: []time.Time{},
	}
	seen := make(map[string]bool)

	for _, target := range targetDates {
		day := calendar.StartOfDay(target, s.loc)
		key := calendar.DayKey(day)
		if seen[key] {
			continue
		}
		seen[key] = true

		if day.Equal(source) || day.Before(today) {
			result.Skipped = append(result.Skipped, day)
			continue
		}

		copied := make([]*models.AvailabilitySlot, 0, len(sourceSlots))
		valid := true
		for _, src := range sourceSlots {
			slot := &models.AvailabilitySlot{
				WorkerID:      workerID,
				StartDatetime: calendar.OnDate(src.StartDatetime, day),
				EndDatetime:   calendar.OnDate(src.EndDatetime, day),
			}
			// Перевод часов может сделать слот пустым на целевой дате
			if !slot.IsValid(s.loc) {
				valid = false
				break
			}
			copied = append(copied, slot)
		}
		if !valid {
			s.logger.WithField("date", key).Warn("Copied slots are invalid on target date")
			result.Skipped = append(result.Skipped, day)
			continue
		}

		from, to := calendar.DayWindow(day, s.loc)
		err := s.repo.Transaction(func(tx repository.AvailabilitySlotRepository) error {
			existing, err := tx.CountByWorkerAndPeriod(workerID, from, to)
			if err != nil {
				return err
			}
			if existing > 0 {
				if !overwrite {
					return errSkipDay
				}
				if _, err := tx.DeleteByWorkerAndPeriod(workerID, from, to); err != nil {
					return err
				}
			}
			return tx.CreateBatch(copied)
		})
		if errors.Is(err, errSkipDay) {
			result.Skipped = append(result.Skipped, day)
			continue
		}
		if err != nil {
			s.logger.WithError(err).WithField("date", key).Error("Failed to copy availability")
			return nil, fmt.Errorf("copy availability to %s: %w", key, err)
		}

		metrics.AvailabilityWritesTotal.WithLabelValues("copy").Inc()
		result.Copied = append(result.Copied, DayAvailability{
			Date:    day,
			Slots:   s.localize(copied),
			SavedAt: s.clock.Now(),
		})
	}

	s.logger.WithFields(logrus.Fields{
		"worker_id": workerID,
		"copied":    len(result.Copied),
		"skipped":   len(result.Skipped),
	}).Info("Availability copied")

	return result, nil
}

// GetAvailableMinutes суммирует длительность слотов дня
func (s *AvailabilityService) GetAvailableMinutes(workerID string, date time.Time) (int, error) {
	slots, err := s.GetForDay(workerID, date)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, slot := range slots {
		total += slot.DurationMinutes()
	}
	return total, nil
}

// GetAvailableMinutesForWeek возвращает доступные минуты по каждому из семи дней недели
func (s *AvailabilityService) GetAvailableMinutesForWeek(workerID string, weekStart time.Time) ([]int, error) {
	slots, err := s.GetForWeek(workerID, weekStart)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]int)
	for _, slot := range slots {
		byDay[calendar.DayKey(slot.StartDatetime)] += slot.DurationMinutes()
	}

	days := calendar.WeekDays(weekStart, s.loc)
	minutes := make([]int, len(days))
	for i, day := range days {
		minutes[i] = byDay[calendar.DayKey(day)]
	}
	return minutes, nil
}
