package service_test

import (
	"testing"
	"time"

	"helpdesk-scheduler/internal/config"
	"helpdesk-scheduler/internal/models"
	"helpdesk-scheduler/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignTicketToWorker(t *testing.T) {
	f := newFixture(t)
	d := day(1)
	f.setDay(t, workerID, d, slot(d, 9, 0, 12, 0))
	f.addTicket("t-1", f.network, models.TicketPriorityHigh)
	manager := "manager-1"

	assignment, err := f.scheduling.AssignTicketToWorker("t-1", workerID, d, &manager)
	require.NoError(t, err)

	assert.NotEmpty(t, assignment.ID)
	assert.Equal(t, workerID, assignment.WorkerID)
	assert.Equal(t, "t-1", assignment.TicketID)
	assert.Equal(t, d, assignment.ScheduledDate)
	assert.False(t, assignment.IsAutoAssigned)
	assert.Equal(t, 30, assignment.EstimatedTimeMinutes)
	require.NotNil(t, assignment.Priority)
	assert.Equal(t, 50, *assignment.Priority)
	require.NotNil(t, assignment.AssignedByID)
	assert.Equal(t, manager, *assignment.AssignedByID)
	assert.Len(t, f.notifier.calls, 1)
}

func TestAssignTicketToWorker_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	d := day(1)
	f.setDay(t, workerID, d, slot(d, 9, 0, 12, 0))
	f.addTicket("t-1", f.network, models.TicketPriorityLow)

	first, created, err := f.scheduling.AssignTicket("t-1", workerID, d, nil)
	require.NoError(t, err)
	assert.True(t, created)
	second, created, err := f.scheduling.AssignTicket("t-1", workerID, at(d, 15, 30), nil)
	require.NoError(t, err)
	assert.False(t, created)

	assert.Equal(t, first.ID, second.ID)

	stored, err := f.assignments.GetByWorkerAndDate(workerID, d)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
	assert.Len(t, f.notifier.calls, 1)
}

func TestAssignTicketToWorker_Failures(t *testing.T) {
	f := newFixture(t)
	d := day(1)
	f.setDay(t, workerID, d, slot(d, 9, 0, 12, 0))
	f.setDay(t, otherID, d, slot(d, 9, 0, 12, 0))
	f.addTicket("t-net", f.network, models.TicketPriorityMedium)
	f.addTicket("t-hw", f.hardware, models.TicketPriorityMedium)

	t.Run("unknown ticket", func(t *testing.T) {
		_, err := f.scheduling.AssignTicketToWorker("missing", workerID, d, nil)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("unknown worker", func(t *testing.T) {
		_, err := f.scheduling.AssignTicketToWorker("t-net", "nobody", d, nil)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("category not accessible", func(t *testing.T) {
		_, err := f.scheduling.AssignTicketToWorker("t-hw", otherID, d, nil)
		assert.ErrorIs(t, err, service.ErrForbidden)
	})

	t.Run("no availability that day", func(t *testing.T) {
		_, err := f.scheduling.AssignTicketToWorker("t-net", workerID, day(2), nil)
		requireValidation(t, err, "date", -1)
	})

	t.Run("date in the past", func(t *testing.T) {
		_, err := f.scheduling.AssignTicketToWorker("t-net", workerID, day(-1), nil)
		requireValidation(t, err, "date", -1)
	})

	stored, err := f.assignments.GetByWorkerAndPeriod(workerID, weekStart.AddDate(0, 0, -7), weekStart.AddDate(0, 0, 14))
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestReassignTicket(t *testing.T) {
	f := newFixture(t)
	f.setDay(t, workerID, day(1), slot(day(1), 9, 0, 12, 0))
	f.setDay(t, otherID, day(2), slot(day(2), 9, 0, 12, 0))
	f.addTicket("t-net", f.network, models.TicketPriorityUrgent)
	f.addTicket("t-hw", f.hardware, models.TicketPriorityUrgent)

	original, err := f.scheduling.AssignTicketToWorker("t-net", workerID, day(1), nil)
	require.NoError(t, err)

	// Переносить может только текущий владелец
	_, err = f.scheduling.ReassignTicket(otherID, original.ID, otherID, day(2), nil)
	assert.ErrorIs(t, err, service.ErrForbidden)

	f.clock.Advance(90 * time.Minute)
	moved, err := f.scheduling.ReassignTicket(workerID, original.ID, otherID, day(2), nil)
	require.NoError(t, err)
	assert.Equal(t, original.ID, moved.ID)
	assert.Equal(t, otherID, moved.WorkerID)
	assert.Equal(t, day(2), moved.ScheduledDate)
	assert.Equal(t, f.clock.Now(), moved.AssignedAt)
	assert.False(t, moved.IsAutoAssigned)

	same, err := f.scheduling.ReassignTicket(otherID, original.ID, otherID, day(2), nil)
	require.NoError(t, err)
	assert.Equal(t, moved.AssignedAt, same.AssignedAt)

	_, err = f.scheduling.ReassignTicket(workerID, original.ID, workerID, day(1), nil)
	assert.ErrorIs(t, err, service.ErrForbidden)

	hw, err := f.scheduling.AssignTicketToWorker("t-hw", workerID, day(1), nil)
	require.NoError(t, err)
	_, err = f.scheduling.ReassignTicket(workerID, hw.ID, otherID, day(2), nil)
	assert.ErrorIs(t, err, service.ErrForbidden)

	_, err = f.scheduling.ReassignTicket(workerID, "missing", otherID, day(2), nil)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestUnassignTicket(t *testing.T) {
	f := newFixture(t)
	f.setDay(t, workerID, day(1), slot(day(1), 9, 0, 12, 0))
	f.addTicket("t-1", f.network, models.TicketPriorityMedium)

	assignment, err := f.scheduling.AssignTicketToWorker("t-1", workerID, day(1), nil)
	require.NoError(t, err)

	assert.ErrorIs(t, f.scheduling.UnassignTicket(otherID, assignment.ID), service.ErrForbidden)
	require.NoError(t, f.scheduling.UnassignTicket(workerID, assignment.ID))
	assert.ErrorIs(t, f.scheduling.UnassignTicket(workerID, assignment.ID), service.ErrNotFound)
}

func TestAssignTicket_RejectsInvalidAssignment(t *testing.T) {
	f := newFixture(t)
	d := day(1)
	f.setDay(t, workerID, d, slot(d, 9, 0, 12, 0))
	f.addTicket("t-1", f.network, models.TicketPriorityMedium)

	// Таблица с отрицательным порогом дает недопустимый ранг
	scheduling := service.NewSchedulingService(service.SchedulingDeps{
		Assignments:  f.assignments,
		Availability: f.availability,
		Tickets:      f.tickets,
		Access:       f.access,
		Backlog:      f.backlog,
		Workers:      f.workers,
		Priorities: service.NewPriorityPolicy([]config.PriorityThreshold{
			{Min: -10, Label: models.TicketPriorityMedium},
		}, models.TicketPriorityMedium),
		Clock:    f.clock,
		Location: time.UTC,
	})

	_, created, err := scheduling.AssignTicket("t-1", workerID, d, nil)
	requireValidation(t, err, "date", -1)
	assert.False(t, created)

	stored, err := f.assignments.GetByWorkerAndDate(workerID, d)
	require.NoError(t, err)
	assert.Empty(t, stored)
}
