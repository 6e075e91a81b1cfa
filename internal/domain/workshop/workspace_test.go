package workshop_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwaldron/shopfloor-go/internal/domain/workshop"
)

func queuedJob(t *testing.T, rush bool) *workshop.Job {
	t.Helper()
	job, err := workshop.NewJob("facility-1", "gearbox", 1,
		[]*workshop.Operation{newOp(t, "cut")}, rush, 0)
	require.NoError(t, err)
	return job
}

func TestWorkspace_RushOrdersJumpNonRushOnly(t *testing.T) {
	// Arrange
	ws := workshop.NewWorkspace("facility-1", 10)
	normal1 := queuedJob(t, false)
	normal2 := queuedJob(t, false)
	rush1 := queuedJob(t, true)
	rush2 := queuedJob(t, true)

	// Act - two normals, then two rush orders
	ws.Enqueue(normal1)
	ws.Enqueue(normal2)
	ws.Enqueue(rush1)
	ws.Enqueue(rush2)

	// Assert - rush FIFO ahead of normal FIFO
	queue := ws.Queue()
	require.Len(t, queue, 4)
	assert.Same(t, rush1, queue[0])
	assert.Same(t, rush2, queue[1])
	assert.Same(t, normal1, queue[2])
	assert.Same(t, normal2, queue[3])
}

func TestWorkspace_ArchiveBoundsHistory(t *testing.T) {
	ws := workshop.NewWorkspace("facility-1", 2)

	var jobs []*workshop.Job
	for i := 0; i < 3; i++ {
		job := queuedJob(t, false)
		ws.Enqueue(job)
		require.NoError(t, job.Cancel(0))
		ws.Archive(job)
		jobs = append(jobs, job)
	}

	history := ws.CompletedJobs()
	require.Len(t, history, 2)
	assert.Same(t, jobs[1], history[0])
	assert.Same(t, jobs[2], history[1])

	// Archived jobs leave the active set
	_, err := ws.Job(jobs[0].ID())
	var notFound *workshop.ErrJobNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestMachineSlot_BindAndRelease(t *testing.T) {
	m := workshop.NewMachineSlot("m1", "bench_grinder", 100)
	require.True(t, m.IsIdle())

	require.NoError(t, m.Bind("job-1", 1.0, 2.5))
	assert.False(t, m.IsIdle())
	assert.Equal(t, "job-1", m.CurrentJobID())

	// A bound machine rejects a second job
	err := m.Bind("job-2", 1.0, 2.0)
	var busy *workshop.ErrMachineBusy
	require.ErrorAs(t, err, &busy)

	m.Release()
	assert.True(t, m.IsIdle())
}

func TestMachineSlot_WearAndMaintainClamp(t *testing.T) {
	m := workshop.NewMachineSlot("m1", "bench_grinder", 3)

	m.Wear(10)
	assert.InDelta(t, 0, m.Condition(), 1e-9)

	m.Maintain(150)
	assert.InDelta(t, 100, m.Condition(), 1e-9)
}
