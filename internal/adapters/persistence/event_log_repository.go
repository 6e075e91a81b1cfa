package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/mwaldron/shopfloor-go/internal/domain/events"
	"github.com/mwaldron/shopfloor-go/internal/domain/shared"
)

// EventLogRepository persists the simulation event stream
type EventLogRepository interface {
	// Record appends one event to the log
	Record(ctx context.Context, event events.Event) error

	// Recent retrieves the most recent events, newest first, optionally
	// filtered by event type
	Recent(ctx context.Context, limit int, eventType *string) ([]EventLogModel, error)

	// BySource retrieves events emitted by one source (facility or inventory
	// owner), in sequence order
	BySource(ctx context.Context, sourceID string, limit int) ([]EventLogModel, error)
}

// GormEventLogRepository is a GORM-based implementation
type GormEventLogRepository struct {
	db    *gorm.DB
	clock shared.Clock
}

// NewGormEventLogRepository creates a new event log repository.
// If clock is nil, uses RealClock (production behavior)
func NewGormEventLogRepository(db *gorm.DB, clock shared.Clock) *GormEventLogRepository {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &GormEventLogRepository{db: db, clock: clock}
}

// Record appends one event to the log. The payload is stored as JSON so the
// log is queryable without replaying the simulation.
func (r *GormEventLogRepository) Record(ctx context.Context, event events.Event) error {
	payloadJSON, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	model := EventLogModel{
		Seq:        event.Seq,
		EventType:  string(event.Type),
		SourceID:   event.SourceID,
		GameTime:   payloadGameTime(event.Payload),
		Payload:    string(payloadJSON),
		RecordedAt: r.clock.Now(),
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("insert event log row: %w", err)
	}
	return nil
}

// Recent retrieves the most recent events, newest first.
func (r *GormEventLogRepository) Recent(ctx context.Context, limit int, eventType *string) ([]EventLogModel, error) {
	query := r.db.WithContext(ctx).Order("seq DESC")
	if eventType != nil {
		query = query.Where("event_type = ?", *eventType)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []EventLogModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("query event log: %w", err)
	}
	return models, nil
}

// BySource retrieves events emitted by one source, in sequence order.
func (r *GormEventLogRepository) BySource(ctx context.Context, sourceID string, limit int) ([]EventLogModel, error) {
	query := r.db.WithContext(ctx).Where("source_id = ?", sourceID).Order("seq ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []EventLogModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("query event log by source: %w", err)
	}
	return models, nil
}

// payloadGameTime lifts the game-time stamp out of the typed payload so the
// column is filterable without JSON extraction.
func payloadGameTime(p events.Payload) float64 {
	switch v := p.(type) {
	case events.JobPayload:
		return v.GameTime
	case events.OperationPayload:
		return v.GameTime
	case events.InventoryPayload:
		return v.GameTime
	default:
		return 0
	}
}
