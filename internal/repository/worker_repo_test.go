package repository_test

import (
	"testing"

	"helpdesk-scheduler/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerRepository_CreateAndLookup(t *testing.T) {
	r := newRepos(t)
	chatID := int64(4242)

	w := &models.Worker{FirstName: "Anna", ChatID: &chatID, Role: models.RoleWorker}
	require.NoError(t, r.workers.Create(w))
	assert.NotEmpty(t, w.ID)

	duplicate := &models.Worker{FirstName: "Boris", ChatID: &chatID}
	assert.Error(t, r.workers.Create(duplicate))

	byChat, err := r.workers.GetByChatID(chatID)
	require.NoError(t, err)
	require.NotNil(t, byChat)
	assert.Equal(t, w.ID, byChat.ID)

	none, err := r.workers.GetByChatID(1)
	require.NoError(t, err)
	assert.Nil(t, none)

	missing, err := r.workers.GetWorkerByID("nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	w.Role = models.RoleManager
	require.NoError(t, r.workers.Update(w))

	all, err := r.workers.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].IsManager())
}

func TestWorkerRepository_Categories(t *testing.T) {
	r := newRepos(t)

	network := &models.Category{ID: "cat-b", Name: "Network", DefaultResolutionTimeMinutes: 30}
	hardware := &models.Category{ID: "cat-a", Name: "Hardware", DefaultResolutionTimeMinutes: 60}
	require.NoError(t, r.tickets.CreateCategory(network))
	require.NoError(t, r.tickets.CreateCategory(hardware))

	w := &models.Worker{FirstName: "Anna"}
	require.NoError(t, r.workers.Create(w))

	require.NoError(t, r.workers.AssignCategories(w.ID, []string{network.ID, hardware.ID}))

	ids, err := r.workers.GetAssignedCategoryIDs(w.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"cat-a", "cat-b"}, ids)

	ok, err := r.workers.CanWorkerAccessCategory(w.ID, network.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	loaded, err := r.workers.GetWorkerByID(w.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Categories, 2)

	require.NoError(t, r.workers.AssignCategories(w.ID, []string{hardware.ID}))
	ok, err = r.workers.CanWorkerAccessCategory(w.ID, network.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Error(t, r.workers.AssignCategories(w.ID, []string{"unknown"}))
}
