package persistence

import (
	"context"

	"go.uber.org/zap"

	"github.com/mwaldron/shopfloor-go/internal/application/eventbus"
	"github.com/mwaldron/shopfloor-go/internal/application/scheduling"
	"github.com/mwaldron/shopfloor-go/internal/domain/events"
)

// Recorder bridges the event bus to the database: every event lands in the
// event log, and jobs are snapshotted into history when they terminate.
// Handlers run synchronously on the tick goroutine; write failures are
// logged, never propagated, so persistence problems cannot stall the
// simulation.
type Recorder struct {
	eventLog EventLogRepository
	history  JobHistoryRepository
	sim      *scheduling.Simulation
	logger   *zap.Logger
}

// NewRecorder creates a recorder. sim may be nil if job history snapshots
// are not wanted.
func NewRecorder(eventLog EventLogRepository, history JobHistoryRepository, sim *scheduling.Simulation, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{eventLog: eventLog, history: history, sim: sim, logger: logger}
}

// Attach subscribes the recorder to the full event stream. The returned
// function detaches it.
func (r *Recorder) Attach(bus *eventbus.Bus) func() {
	return bus.SubscribeToMany(events.AllEventTypes(), r.handle)
}

func (r *Recorder) handle(event events.Event) {
	ctx := context.Background()

	if r.eventLog != nil {
		if err := r.eventLog.Record(ctx, event); err != nil {
			r.logger.Error("event log write failed",
				zap.String("event_type", string(event.Type)),
				zap.Error(err))
		}
	}

	if r.history == nil || r.sim == nil {
		return
	}
	switch event.Type {
	case events.EventJobCompleted, events.EventJobFailed, events.EventJobCancelled:
	default:
		return
	}
	payload, ok := event.Payload.(events.JobPayload)
	if !ok {
		return
	}
	scheduler, err := r.sim.Facility(payload.FacilityID)
	if err != nil {
		return
	}
	job, err := scheduler.Workspace().Job(payload.JobID)
	if err != nil {
		// Terminal jobs are archived before the event lands here.
		for _, archived := range scheduler.Workspace().CompletedJobs() {
			if archived.ID() == payload.JobID {
				job = archived
				break
			}
		}
	}
	if job == nil {
		return
	}
	if err := r.history.SaveSnapshot(ctx, job); err != nil {
		r.logger.Error("job history write failed",
			zap.String("job", payload.JobID),
			zap.Error(err))
	}
}
