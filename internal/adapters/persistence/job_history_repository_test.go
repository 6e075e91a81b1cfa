package persistence_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwaldron/shopfloor-go/internal/adapters/persistence"
	"github.com/mwaldron/shopfloor-go/internal/domain/workshop"
	"github.com/mwaldron/shopfloor-go/internal/infrastructure/database"
)

func terminalJob(t *testing.T, facilityID string, finishedAt float64) *workshop.Job {
	t.Helper()
	op := workshop.NewOperation(workshop.OperationSpec{
		Name:                "Turn Gear",
		Capability:          "turning",
		BaseDurationMinutes: 45,
	})
	job, err := workshop.NewJob(facilityID, "gear", 1, []*workshop.Operation{op}, false, 0)
	require.NoError(t, err)

	require.NoError(t, job.Start(0.5))
	require.NoError(t, op.Start("lathe-1", 0.5, finishedAt, 70))
	require.NoError(t, op.Complete(finishedAt))
	require.NoError(t, job.AdvanceOperation())
	require.NoError(t, job.Complete(finishedAt))
	return job
}

func TestJobHistoryRepository_SaveAndGet(t *testing.T) {
	// Arrange
	db, err := database.NewTestConnection()
	require.NoError(t, err)
	repo := persistence.NewGormJobHistoryRepository(db, nil)

	job := terminalJob(t, "plant-a", 1.25)

	// Act
	ctx := context.Background()
	require.NoError(t, repo.SaveSnapshot(ctx, job))
	found, err := repo.Get(ctx, job.ID())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, job.ID(), found.JobID)
	assert.Equal(t, "plant-a", found.FacilityID)
	assert.Equal(t, "gear", found.ProductID)
	assert.Equal(t, string(workshop.JobCompleted), found.State)
	assert.Equal(t, 0, found.RushOrder)
	assert.InDelta(t, 1.25, found.FinishedAt, 1e-9)

	// Operations serialize with their execution detail
	var ops []map[string]any
	require.NoError(t, json.Unmarshal([]byte(found.Operations), &ops))
	require.Len(t, ops, 1)
	assert.Equal(t, "Turn Gear", ops[0]["name"])
	assert.Equal(t, string(workshop.OpCompleted), ops[0]["state"])
	assert.Equal(t, "lathe-1", ops[0]["machine_id"])
}

func TestJobHistoryRepository_SaveSnapshotUpserts(t *testing.T) {
	// Arrange
	db, err := database.NewTestConnection()
	require.NoError(t, err)
	repo := persistence.NewGormJobHistoryRepository(db, nil)

	job := terminalJob(t, "plant-a", 1.25)
	ctx := context.Background()
	require.NoError(t, repo.SaveSnapshot(ctx, job))

	// Act - saving the same job again replaces the row, not duplicates it
	require.NoError(t, repo.SaveSnapshot(ctx, job))
	rows, err := repo.ByFacility(ctx, "plant-a", 0)

	// Assert
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestJobHistoryRepository_ByFacility(t *testing.T) {
	// Arrange
	db, err := database.NewTestConnection()
	require.NoError(t, err)
	repo := persistence.NewGormJobHistoryRepository(db, nil)

	ctx := context.Background()
	early := terminalJob(t, "plant-a", 1.0)
	late := terminalJob(t, "plant-a", 5.0)
	other := terminalJob(t, "plant-b", 2.0)
	for _, j := range []*workshop.Job{early, late, other} {
		require.NoError(t, repo.SaveSnapshot(ctx, j))
	}

	// Act
	rows, err := repo.ByFacility(ctx, "plant-a", 0)

	// Assert - most recent first, other facilities excluded
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, late.ID(), rows[0].JobID)
	assert.Equal(t, early.ID(), rows[1].JobID)
}

func TestJobHistoryRepository_GetUnknownJob(t *testing.T) {
	// Arrange
	db, err := database.NewTestConnection()
	require.NoError(t, err)
	repo := persistence.NewGormJobHistoryRepository(db, nil)

	// Act
	_, err = repo.Get(context.Background(), "no-such-job")

	// Assert
	assert.Error(t, err)
}
