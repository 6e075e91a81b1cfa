package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/mwaldron/shopfloor-go/internal/domain/shared"
	"github.com/mwaldron/shopfloor-go/internal/domain/workshop"
)

// JobHistoryRepository persists terminal job snapshots
type JobHistoryRepository interface {
	// SaveSnapshot upserts the terminal state of a job
	SaveSnapshot(ctx context.Context, job *workshop.Job) error

	// Get retrieves one job snapshot
	Get(ctx context.Context, jobID string) (*JobHistoryModel, error)

	// ByFacility retrieves snapshots for a facility, most recent first
	ByFacility(ctx context.Context, facilityID string, limit int) ([]JobHistoryModel, error)
}

// operationSnapshot is the JSON shape of one operation in the history row
type operationSnapshot struct {
	Name        string  `json:"name"`
	Kind        string  `json:"kind"`
	State       string  `json:"state"`
	MachineID   string  `json:"machine_id,omitempty"`
	StartTime   float64 `json:"start_time,omitempty"`
	CompletedAt float64 `json:"completed_at,omitempty"`
	FailReason  string  `json:"fail_reason,omitempty"`
}

// GormJobHistoryRepository is a GORM-based implementation
type GormJobHistoryRepository struct {
	db    *gorm.DB
	clock shared.Clock
}

// NewGormJobHistoryRepository creates a new job history repository.
// If clock is nil, uses RealClock (production behavior)
func NewGormJobHistoryRepository(db *gorm.DB, clock shared.Clock) *GormJobHistoryRepository {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &GormJobHistoryRepository{db: db, clock: clock}
}

// SaveSnapshot upserts the terminal state of a job, including a JSON list of
// its operations as executed (discovery-driven expansions included).
func (r *GormJobHistoryRepository) SaveSnapshot(ctx context.Context, job *workshop.Job) error {
	snapshots := make([]operationSnapshot, 0, len(job.Operations()))
	for _, op := range job.Operations() {
		snapshots = append(snapshots, operationSnapshot{
			Name:        op.Name(),
			Kind:        string(op.Kind()),
			State:       string(op.State()),
			MachineID:   op.MachineID(),
			StartTime:   op.StartTime(),
			CompletedAt: op.CompletedAt(),
			FailReason:  op.FailReason(),
		})
	}
	opsJSON, err := json.Marshal(snapshots)
	if err != nil {
		return fmt.Errorf("marshal operation snapshots: %w", err)
	}

	rush := 0
	if job.RushOrder() {
		rush = 1
	}
	model := JobHistoryModel{
		JobID:      job.ID(),
		FacilityID: job.FacilityID(),
		ProductID:  job.ProductID(),
		Quantity:   job.Quantity(),
		RushOrder:  rush,
		State:      string(job.State()),
		FailReason: job.FailReason(),
		Operations: string(opsJSON),
		QueuedAt:   job.QueuedAt(),
		StartedAt:  job.StartedAt(),
		FinishedAt: job.FinishedAt(),
		RecordedAt: r.clock.Now(),
	}
	if err := r.db.WithContext(ctx).Save(&model).Error; err != nil {
		return fmt.Errorf("save job snapshot: %w", err)
	}
	return nil
}

// Get retrieves one job snapshot.
func (r *GormJobHistoryRepository) Get(ctx context.Context, jobID string) (*JobHistoryModel, error) {
	var model JobHistoryModel
	err := r.db.WithContext(ctx).Where("job_id = ?", jobID).First(&model).Error
	if err == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("job %s not found in history", jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("query job history: %w", err)
	}
	return &model, nil
}

// ByFacility retrieves snapshots for a facility, most recent first.
func (r *GormJobHistoryRepository) ByFacility(ctx context.Context, facilityID string, limit int) ([]JobHistoryModel, error) {
	query := r.db.WithContext(ctx).
		Where("facility_id = ?", facilityID).
		Order("finished_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []JobHistoryModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("query job history by facility: %w", err)
	}
	return models, nil
}
