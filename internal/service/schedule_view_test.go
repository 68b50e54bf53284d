package service_test

import (
	"testing"

	"helpdesk-scheduler/internal/models"
	"helpdesk-scheduler/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredictTickets(t *testing.T) {
	tests := []struct {
		name       string
		available  int
		efficiency float64
		average    float64
		want       int
	}{
		{name: "floors fractional result", available: 300, efficiency: 0.85, average: 30, want: 8},
		{name: "exact division", available: 480, efficiency: 1.0, average: 60, want: 8},
		{name: "no availability", available: 0, efficiency: 1.5, average: 30, want: 0},
		{name: "unknown average", available: 300, efficiency: 1.0, average: 0, want: 0},
		{name: "no efficiency", available: 300, efficiency: 0, average: 30, want: 0},
		{name: "rounding noise", available: 70, efficiency: 0.7, average: 49, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, service.PredictTickets(tt.available, tt.efficiency, tt.average))
		})
	}
}

func TestGetPredictionsForWeek(t *testing.T) {
	f := newFixture(t)
	f.tickets.efficiency[f.network.ID] = 0.85
	f.setDay(t, otherID, day(0), slot(day(0), 9, 0, 14, 0))
	f.setDay(t, otherID, day(2), slot(day(2), 9, 0, 10, 0))

	prediction, err := f.scheduling.GetPredictionsForWeek(otherID, weekStart)
	require.NoError(t, err)
	require.Len(t, prediction.Days, 7)

	assert.Equal(t, day(0), prediction.Days[0].Date)
	assert.Equal(t, 300, prediction.Days[0].AvailableMinutes)
	assert.InDelta(t, 0.85, prediction.Days[0].Efficiency, 1e-9)
	assert.InDelta(t, 30.0, prediction.Days[0].AverageResolutionMinutes, 1e-9)
	assert.Equal(t, 8, prediction.Days[0].PredictedTickets)

	assert.Equal(t, 0, prediction.Days[1].PredictedTickets)
	assert.Equal(t, 1, prediction.Days[2].PredictedTickets)

	assert.Equal(t, 360, prediction.TotalAvailableMinutes)
	assert.Equal(t, 9, prediction.TotalPredictedTickets)
	for _, d := range prediction.Days {
		assert.GreaterOrEqual(t, d.PredictedTickets, 0)
	}
}

func TestGetPredictionsForWeek_Aggregation(t *testing.T) {
	tests := []struct {
		name       string
		aggregator service.EfficiencyAggregator
		want       int
	}{
		// (1.0 + 0.5) / 2 = 0.75, (30 + 60) / 2 = 45
		{name: "simple average", aggregator: service.SimpleAverage{}, want: 5},
		// веса 3:1 -> 0.875 и 37.5
		{name: "backlog weighted", aggregator: service.BacklogWeighted{}, want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixtureWithAggregator(t, tt.aggregator)
			f.tickets.efficiency[f.network.ID] = 1.0
			f.tickets.efficiency[f.hardware.ID] = 0.5
			f.setDay(t, workerID, day(1), slot(day(1), 9, 0, 14, 0))

			for _, id := range []string{"n-1", "n-2", "n-3"} {
				f.addBacklog(f.addTicket(id, f.network, models.TicketPriorityMedium), 30)
			}
			f.addBacklog(f.addTicket("h-1", f.hardware, models.TicketPriorityMedium), 60)

			prediction, err := f.scheduling.GetPredictionsForWeek(workerID, weekStart)
			require.NoError(t, err)
			assert.Equal(t, tt.want, prediction.Days[1].PredictedTickets)
		})
	}
}

func TestGetPredictionsForWeek_WorkerWithoutCategories(t *testing.T) {
	f := newFixture(t)
	f.workers.workers["worker-3"] = &models.Worker{ID: "worker-3", FirstName: "Oleg"}
	f.setDay(t, "worker-3", day(0), slot(day(0), 9, 0, 17, 0))

	prediction, err := f.scheduling.GetPredictionsForWeek("worker-3", weekStart)
	require.NoError(t, err)
	assert.Equal(t, 480, prediction.Days[0].AvailableMinutes)
	assert.Zero(t, prediction.TotalPredictedTickets)
}

func TestGetPredictionsForWeek_UnknownWorker(t *testing.T) {
	f := newFixture(t)

	_, err := f.scheduling.GetPredictionsForWeek("nobody", weekStart)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestGetWorkerScheduleForWeek(t *testing.T) {
	f := newFixture(t)
	f.tickets.efficiency[f.hardware.ID] = 1.25
	f.setDay(t, workerID, day(0), slot(day(0), 9, 0, 12, 0))
	f.setDay(t, workerID, day(1), slot(day(1), 9, 0, 10, 0))

	f.addTicket("t-manual", f.network, models.TicketPriorityUrgent)
	_, err := f.scheduling.AssignTicketToWorker("t-manual", workerID, day(1), nil)
	require.NoError(t, err)

	f.addBacklog(f.addTicket("t-auto", f.hardware, models.TicketPriorityLow), 60)
	_, err = f.scheduling.AutoAssignTicketsForWorker(workerID, weekStart)
	require.NoError(t, err)

	schedule, err := f.scheduling.GetWorkerScheduleForWeek(workerID, weekStart)
	require.NoError(t, err)
	require.Len(t, schedule.Days, 7)
	assert.Equal(t, weekStart, schedule.WeekStart)

	monday := schedule.Days[0]
	assert.Equal(t, 180, monday.AvailableMinutes)
	assert.Equal(t, 60, monday.ScheduledMinutes)
	require.Len(t, monday.Tickets, 1)
	assert.Equal(t, "t-auto", monday.Tickets[0].TicketID)
	assert.True(t, monday.Tickets[0].IsAutoAssigned)
	assert.Equal(t, models.TicketPriorityLow, monday.Tickets[0].PriorityLabel)
	assert.Equal(t, "Hardware", monday.Tickets[0].CategoryName)
	assert.InDelta(t, 1.25, monday.Tickets[0].Efficiency, 1e-9)

	tuesday := schedule.Days[1]
	assert.Equal(t, 60, tuesday.AvailableMinutes)
	require.Len(t, tuesday.Tickets, 1)
	assert.Equal(t, "t-manual", tuesday.Tickets[0].TicketID)
	assert.False(t, tuesday.Tickets[0].IsAutoAssigned)
	assert.Equal(t, models.TicketPriorityUrgent, tuesday.Tickets[0].PriorityLabel)
	assert.Equal(t, 30, tuesday.Tickets[0].EstimatedTimeMinutes)

	for _, d := range schedule.Days[2:] {
		assert.Empty(t, d.Tickets)
		assert.Zero(t, d.AvailableMinutes)
	}
}

func TestGetWorkerScheduleForWeek_SkipsDeletedTickets(t *testing.T) {
	f := newFixture(t)
	f.setDay(t, workerID, day(0), slot(day(0), 9, 0, 12, 0))
	f.addTicket("t-gone", f.network, models.TicketPriorityMedium)
	_, err := f.scheduling.AssignTicketToWorker("t-gone", workerID, day(0), nil)
	require.NoError(t, err)

	delete(f.tickets.tickets, "t-gone")

	schedule, err := f.scheduling.GetWorkerScheduleForWeek(workerID, weekStart)
	require.NoError(t, err)
	assert.Empty(t, schedule.Days[0].Tickets)
	assert.Zero(t, schedule.Days[0].ScheduledMinutes)
}
