package persistence

import (
	"time"
)

// EventLogModel represents the event_log table: one row per simulation event,
// in bus sequence order.
type EventLogModel struct {
	ID         int       `gorm:"column:id;primaryKey;autoIncrement"`
	Seq        uint64    `gorm:"column:seq;uniqueIndex;not null"`
	EventType  string    `gorm:"column:event_type;index;not null"`
	SourceID   string    `gorm:"column:source_id;index;not null"`
	GameTime   float64   `gorm:"column:game_time;not null"`
	Payload    string    `gorm:"column:payload;type:text;not null"` // JSON as text
	RecordedAt time.Time `gorm:"column:recorded_at;not null"`
}

func (EventLogModel) TableName() string {
	return "event_log"
}

// JobHistoryModel represents the job_history table: a snapshot of every job
// that reached a terminal state.
type JobHistoryModel struct {
	JobID      string    `gorm:"column:job_id;primaryKey;not null"`
	FacilityID string    `gorm:"column:facility_id;index;not null"`
	ProductID  string    `gorm:"column:product_id;not null"`
	Quantity   float64   `gorm:"column:quantity;not null"`
	RushOrder  int       `gorm:"column:rush_order;not null;default:0"` // 0 or 1 (SQLite compatible)
	State      string    `gorm:"column:state;not null"`
	FailReason string    `gorm:"column:fail_reason"`
	Operations string    `gorm:"column:operations;type:text"` // JSON array as text
	QueuedAt   float64   `gorm:"column:queued_at;not null"`
	StartedAt  float64   `gorm:"column:started_at"`
	FinishedAt float64   `gorm:"column:finished_at"`
	RecordedAt time.Time `gorm:"column:recorded_at;not null"`
}

func (JobHistoryModel) TableName() string {
	return "job_history"
}
