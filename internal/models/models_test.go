package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAvailabilitySlot_DurationMinutes(t *testing.T) {
	start := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	s := AvailabilitySlot{StartDatetime: start, EndDatetime: start.Add(90*time.Minute + 59*time.Second)}
	assert.Equal(t, 90, s.DurationMinutes())

	s.EndDatetime = start.Add(-time.Hour)
	assert.Equal(t, 0, s.DurationMinutes())
}

func TestAvailabilitySlot_Overlaps(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2026, 10, 19, h, 0, 0, 0, time.UTC) }
	s := AvailabilitySlot{StartDatetime: at(9), EndDatetime: at(12)}

	assert.True(t, s.Overlaps(at(11), at(13)))
	assert.True(t, s.Overlaps(at(8), at(10)))
	assert.True(t, s.Overlaps(at(10), at(11)))
	assert.False(t, s.Overlaps(at(12), at(14)), "touching slots do not overlap")
	assert.False(t, s.Overlaps(at(7), at(9)))
}

func TestAvailabilitySlot_IsValid(t *testing.T) {
	msk := time.FixedZone("MSK", 3*60*60)

	tests := []struct {
		name  string
		slot  AvailabilitySlot
		loc   *time.Location
		valid bool
	}{
		{
			name:  "regular",
			slot:  AvailabilitySlot{WorkerID: "w", StartDatetime: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC), EndDatetime: time.Date(2026, 10, 19, 17, 0, 0, 0, time.UTC)},
			loc:   time.UTC,
			valid: true,
		},
		{
			name:  "no worker",
			slot:  AvailabilitySlot{StartDatetime: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC), EndDatetime: time.Date(2026, 10, 19, 17, 0, 0, 0, time.UTC)},
			loc:   time.UTC,
			valid: false,
		},
		{
			name:  "empty",
			slot:  AvailabilitySlot{WorkerID: "w", StartDatetime: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC), EndDatetime: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)},
			loc:   time.UTC,
			valid: false,
		},
		{
			name:  "crosses midnight in utc",
			slot:  AvailabilitySlot{WorkerID: "w", StartDatetime: time.Date(2026, 10, 19, 20, 0, 0, 0, time.UTC), EndDatetime: time.Date(2026, 10, 20, 1, 0, 0, 0, time.UTC)},
			loc:   time.UTC,
			valid: false,
		},
		{
			name:  "crosses midnight only in local zone",
			slot:  AvailabilitySlot{WorkerID: "w", StartDatetime: time.Date(2026, 10, 19, 20, 0, 0, 0, time.UTC), EndDatetime: time.Date(2026, 10, 19, 22, 0, 0, 0, time.UTC)},
			loc:   msk,
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.slot.IsValid(tt.loc))
		})
	}
}

func TestScheduleAssignment_IsValid(t *testing.T) {
	today := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	negative := -1

	a := ScheduleAssignment{WorkerID: "w", TicketID: "t", ScheduledDate: today}
	assert.True(t, a.IsValid(today))

	a.ScheduledDate = today.AddDate(0, 0, -1)
	assert.False(t, a.IsValid(today))

	a.ScheduledDate = today
	a.Priority = &negative
	assert.False(t, a.IsValid(today))
}

func TestScheduleAssignment_Reassign(t *testing.T) {
	now := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	date := now.AddDate(0, 0, 2)
	manager := "m-1"

	a := ScheduleAssignment{WorkerID: "w-1", TicketID: "t", IsAutoAssigned: true}
	a.Reassign("w-2", date, &manager, false, now)

	assert.Equal(t, "w-2", a.WorkerID)
	assert.Equal(t, date, a.ScheduledDate)
	assert.Equal(t, &manager, a.AssignedByID)
	assert.False(t, a.IsAutoAssigned)
	assert.Equal(t, now, a.AssignedAt)

	a.MarkAsAutoAssigned()
	assert.True(t, a.IsAutoAssigned)
}

func TestTicket_IsOpenAndPriorityRank(t *testing.T) {
	assert.True(t, (&Ticket{Status: TicketStatusPending}).IsOpen())
	assert.False(t, (&Ticket{Status: TicketStatusResolved}).IsOpen())

	assert.Less(t, PriorityRank(TicketPriorityLow), PriorityRank(TicketPriorityMedium))
	assert.Less(t, PriorityRank(TicketPriorityHigh), PriorityRank(TicketPriorityUrgent))
	assert.Equal(t, 0, PriorityRank("unknown"))
}

func TestWorker_FullNameAndRole(t *testing.T) {
	w := Worker{FirstName: "Anna", Role: RoleManager}
	assert.Equal(t, "Anna", w.FullName())
	assert.True(t, w.IsManager())

	w.LastName = "Petrova"
	w.Role = RoleWorker
	assert.Equal(t, "Anna Petrova", w.FullName())
	assert.False(t, w.IsManager())
}
