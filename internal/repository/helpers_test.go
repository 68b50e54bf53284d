package repository_test

import (
	"path/filepath"
	"testing"
	"time"

	"helpdesk-scheduler/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var monday = time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)

func hm(d time.Time, hour, minute int) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, d.Location())
}

type repos struct {
	workers     *repository.GormWorkerRepository
	tickets     *repository.GormTicketRepository
	slots       *repository.GormAvailabilitySlotRepository
	assignments *repository.GormScheduleAssignmentRepository
}

func newRepos(t *testing.T) *repos {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "repo.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	r := &repos{}
	r.workers, err = repository.NewGormWorkerRepository(db)
	require.NoError(t, err)
	r.tickets, err = repository.NewGormTicketRepository(db)
	require.NoError(t, err)
	r.slots, err = repository.NewGormAvailabilitySlotRepository(db)
	require.NoError(t, err)
	r.assignments, err = repository.NewGormScheduleAssignmentRepository(db)
	require.NoError(t, err)
	return r
}
