package service_test

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"helpdesk-scheduler/internal/clock"
	"helpdesk-scheduler/internal/models"
	"helpdesk-scheduler/internal/repository"
	"helpdesk-scheduler/internal/service"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Понедельник; "сегодня" в тестах - начало недели.
var weekStart = time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)

func day(offset int) time.Time {
	return weekStart.AddDate(0, 0, offset)
}

func at(d time.Time, hour, minute int) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, d.Location())
}

func slot(d time.Time, fromH, fromM, toH, toM int) service.SlotInput {
	return service.SlotInput{Start: at(d, fromH, fromM), End: at(d, toH, toM)}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "scheduler.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

type fakeTickets struct {
	tickets    map[string]*models.Ticket
	efficiency map[string]float64
}

func (f *fakeTickets) GetTicketByID(id string) (*models.Ticket, error) {
	return f.tickets[id], nil
}

func (f *fakeTickets) CalculateWorkerEfficiency(workerID, categoryID string) (float64, error) {
	if e, ok := f.efficiency[categoryID]; ok {
		return e, nil
	}
	return 1.0, nil
}

type fakeAccess struct {
	categories map[string][]string
}

func (f *fakeAccess) CanWorkerAccessCategory(workerID, categoryID string) (bool, error) {
	for _, id := range f.categories[workerID] {
		if id == categoryID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAccess) GetAssignedCategoryIDs(workerID string) ([]string, error) {
	return f.categories[workerID], nil
}

type fakeBacklog struct {
	mu      sync.Mutex
	tickets []*models.BacklogTicket
	filters []models.BacklogFilter
}

func (f *fakeBacklog) GetWorkerBacklog(workerID string, filter models.BacklogFilter) (*models.Backlog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, filter)
	return &models.Backlog{Tickets: f.tickets, Total: int64(len(f.tickets))}, nil
}

type fakeWorkers struct {
	workers map[string]*models.Worker
}

func (f *fakeWorkers) GetWorkerByID(id string) (*models.Worker, error) {
	return f.workers[id], nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls [][]*models.ScheduleAssignment
}

func (f *fakeNotifier) AssignmentsCreated(worker *models.Worker, assignments []*models.ScheduleAssignment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, assignments)
}

type fixture struct {
	clock        *clock.Fake
	slots        *repository.GormAvailabilitySlotRepository
	assignments  *repository.GormScheduleAssignmentRepository
	availability *service.AvailabilityService
	scheduling   *service.SchedulingService
	tickets      *fakeTickets
	access       *fakeAccess
	backlog      *fakeBacklog
	workers      *fakeWorkers
	notifier     *fakeNotifier
	network      *models.Category
	hardware     *models.Category
}

const (
	workerID = "worker-1"
	otherID  = "worker-2"
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithAggregator(t, service.SimpleAverage{})
}

func newFixtureWithAggregator(t *testing.T, aggregator service.EfficiencyAggregator) *fixture {
	t.Helper()

	db := newTestDB(t)
	slots, err := repository.NewGormAvailabilitySlotRepository(db)
	require.NoError(t, err)
	assignments, err := repository.NewGormScheduleAssignmentRepository(db)
	require.NoError(t, err)

	network := &models.Category{ID: "cat-network", Name: "Network", DefaultResolutionTimeMinutes: 30}
	hardware := &models.Category{ID: "cat-hardware", Name: "Hardware", DefaultResolutionTimeMinutes: 60}

	f := &fixture{
		clock:       clock.Fixed(at(weekStart, 8, 0)),
		slots:       slots,
		assignments: assignments,
		tickets: &fakeTickets{
			tickets:    map[string]*models.Ticket{},
			efficiency: map[string]float64{},
		},
		access: &fakeAccess{categories: map[string][]string{
			workerID: {network.ID, hardware.ID},
			otherID:  {network.ID},
		}},
		backlog: &fakeBacklog{},
		workers: &fakeWorkers{workers: map[string]*models.Worker{
			workerID: {ID: workerID, FirstName: "Anna", Categories: []models.Category{*network, *hardware}},
			otherID:  {ID: otherID, FirstName: "Ivan", Categories: []models.Category{*network}},
		}},
		notifier: &fakeNotifier{},
		network:  network,
		hardware: hardware,
	}

	f.availability = service.NewAvailabilityService(slots, f.clock, time.UTC)
	f.scheduling = service.NewSchedulingService(service.SchedulingDeps{
		Assignments:  assignments,
		Availability: f.availability,
		Tickets:      f.tickets,
		Access:       f.access,
		Backlog:      f.backlog,
		Workers:      f.workers,
		Priorities:   service.NewPriorityPolicy(nil, models.TicketPriorityMedium),
		Aggregator:   aggregator,
		Locker:       service.NewLocalWorkerLocker(),
		Notifier:     f.notifier,
		Clock:        f.clock,
		Location:     time.UTC,
		BacklogLimit: 50,
	})

	return f
}

func (f *fixture) addTicket(id string, category *models.Category, priority string) *models.Ticket {
	ticket := &models.Ticket{
		ID:         id,
		Subject:    "Ticket " + id,
		CategoryID: category.ID,
		Status:     models.TicketStatusOpen,
		Priority:   priority,
		Category:   *category,
		CreatedAt:  at(weekStart, 7, 0),
	}
	f.tickets.tickets[id] = ticket
	return ticket
}

func (f *fixture) addBacklog(ticket *models.Ticket, estimate int) {
	category := ticket.Category
	f.backlog.tickets = append(f.backlog.tickets, &models.BacklogTicket{
		Ticket:               ticket,
		Category:             &category,
		Priority:             ticket.Priority,
		EstimatedTimeMinutes: estimate,
		CreatedAt:            ticket.CreatedAt,
	})
}

func (f *fixture) setDay(t *testing.T, worker string, d time.Time, inputs ...service.SlotInput) {
	t.Helper()
	_, err := f.availability.ReplaceForDay(worker, d, inputs)
	require.NoError(t, err)
}
