package repository_test

import (
	"testing"
	"time"

	"helpdesk-scheduler/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestScheduleAssignmentRepository(t *testing.T) {
	r := newRepos(t)
	tuesday := monday.AddDate(0, 0, 1)
	now := hm(monday, 8, 0)

	first := &models.ScheduleAssignment{WorkerID: "w-1", TicketID: "t-1", ScheduledDate: tuesday, AssignedAt: now.Add(time.Minute), EstimatedTimeMinutes: 30}
	second := &models.ScheduleAssignment{WorkerID: "w-1", TicketID: "t-2", ScheduledDate: monday, AssignedAt: now, EstimatedTimeMinutes: 60, IsAutoAssigned: true}
	foreign := &models.ScheduleAssignment{WorkerID: "w-2", TicketID: "t-3", ScheduledDate: monday, AssignedAt: now, EstimatedTimeMinutes: 15}
	for _, a := range []*models.ScheduleAssignment{first, second, foreign} {
		require.NoError(t, r.assignments.Create(a))
		assert.NotEmpty(t, a.ID)
	}

	week, err := r.assignments.GetByWorkerAndPeriod("w-1", monday, monday.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, week, 2)
	assert.Equal(t, "t-2", week[0].TicketID)
	assert.Equal(t, "t-1", week[1].TicketID)
	assert.True(t, week[0].IsAutoAssigned)

	onMonday, err := r.assignments.GetByWorkerAndDate("w-1", monday)
	require.NoError(t, err)
	require.Len(t, onMonday, 1)
	assert.Equal(t, 60, onMonday[0].EstimatedTimeMinutes)

	byTicket, err := r.assignments.GetByTicketAndDate("t-1", tuesday)
	require.NoError(t, err)
	assert.Len(t, byTicket, 1)

	found, err := r.assignments.FindByTicketWorkerDate("t-1", "w-1", tuesday)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first.ID, found.ID)

	missing, err := r.assignments.FindByTicketWorkerDate("t-1", "w-2", tuesday)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestScheduleAssignmentRepository_UpdateAndDelete(t *testing.T) {
	r := newRepos(t)
	tuesday := monday.AddDate(0, 0, 1)
	manager := "m-1"

	a := &models.ScheduleAssignment{WorkerID: "w-1", TicketID: "t-1", ScheduledDate: monday, AssignedAt: hm(monday, 8, 0)}
	require.NoError(t, r.assignments.Create(a))

	a.Reassign("w-2", tuesday, &manager, false, hm(monday, 9, 0))
	require.NoError(t, r.assignments.Update(a))

	stored, err := r.assignments.GetByID(a.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "w-2", stored.WorkerID)
	assert.True(t, tuesday.Equal(stored.ScheduledDate))
	require.NotNil(t, stored.AssignedByID)
	assert.Equal(t, manager, *stored.AssignedByID)

	require.NoError(t, r.assignments.Delete(a.ID))
	assert.ErrorIs(t, r.assignments.Delete(a.ID), gorm.ErrRecordNotFound)

	gone, err := r.assignments.GetByID(a.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}
