package planning

import (
	"github.com/mwaldron/shopfloor-go/internal/domain/inventory"
	"github.com/mwaldron/shopfloor-go/internal/domain/workshop"
)

// RepairGoal describes a source item of unknown internal condition: its
// external identity is known, what is inside is not. Planning for it is
// discovery-driven: disassemble, inspect, then decide.
type RepairGoal struct {
	// SourceTags identify the stock to pull the damaged item from
	// (e.g. "damaged").
	SourceTags inventory.TagSet

	// SourceMaxQuality optionally caps which stock qualifies as the source.
	SourceMaxQuality *float64
}

// Goal is the planner's input: what to end up with, and from what.
type Goal struct {
	TargetItemID string
	DesiredTags  inventory.TagSet
	Quantity     float64

	// MethodID names an explicit manufacturing method. Empty requests full
	// backwards planning over the catalog.
	MethodID string

	// Repair is non-nil for repair goals.
	Repair *RepairGoal
}

// Plan is the generator's output: the ordered operation list for a job plus
// whether execution will expand it after inspection.
type Plan struct {
	Goal       Goal
	MethodID   string
	Operations []*workshop.Operation

	// NeedsAssessment is true for repair plans: the repair-or-replace tail
	// and final assembly are generated from the inspection result.
	NeedsAssessment bool
}
