package workshop

import (
	"github.com/google/uuid"

	"github.com/mwaldron/shopfloor-go/internal/domain/catalog"
	"github.com/mwaldron/shopfloor-go/internal/domain/inventory"
)

// OperationState is the per-operation state machine.
//
//	pending -> queued -> in_progress -> completed
//	                                \-> failed
type OperationState string

const (
	OpPending    OperationState = "pending"
	OpQueued     OperationState = "queued"
	OpInProgress OperationState = "in_progress"
	OpCompleted  OperationState = "completed"
	OpFailed     OperationState = "failed"
)

// OperationKind tells the scheduler whether an operation has side effects on
// planning: inspection completion triggers discovery-driven plan expansion.
type OperationKind string

const (
	OpKindStandard    OperationKind = "standard"
	OpKindDisassembly OperationKind = "disassembly"
	OpKindInspection  OperationKind = "inspection"
	OpKindAssembly    OperationKind = "assembly"
)

// MaterialRequirement is one consumption entry, resolved just-in-time when
// the operation binds to a machine.
type MaterialRequirement struct {
	ItemID     string
	Tags       inventory.TagSet
	MaxQuality *float64
	Count      float64
}

// Filter converts the requirement's constraints to an inventory filter.
func (m MaterialRequirement) Filter() inventory.Filter {
	return inventory.Filter{Tags: m.Tags, MaxQuality: m.MaxQuality}
}

// MaterialOutput is one production entry, committed when the operation
// completes.
type MaterialOutput struct {
	ItemID  string
	Tags    inventory.TagSet
	Count   float64
	Quality catalog.QualityRange
	Target  catalog.OutputTarget
}

// SubjectInfo names the item a disassembly or inspection operation acts on.
// The scheduler uses it to materialize disassembled components and to drive
// assessment-based plan expansion. Final marks the goal's target item, whose
// reassembly commits to the facility inventory.
type SubjectInfo struct {
	ItemID string
	Count  float64
	Tags   inventory.TagSet
	Final  bool
}

// Operation is one scheduler-visible unit of work inside a job, bound to one
// machine slot for its duration. Operation i may run only after operations
// 0..i-1 completed; the job enforces this structurally.
type Operation struct {
	id         string
	name       string
	kind       OperationKind
	capability string

	baseDurationMinutes float64
	consumes            []MaterialRequirement
	produces            []MaterialOutput

	canFail       bool
	failureChance float64
	failureResult catalog.FailureResult

	state     OperationState
	machineID string

	startTime           float64
	estimatedCompletion float64
	completedAt         float64

	// inputQuality is the minimum quality among consumed materials, recorded
	// at start and used to derive output quality.
	inputQuality float64

	failReason string

	subject *SubjectInfo
}

// OperationSpec carries everything needed to construct an operation.
type OperationSpec struct {
	Name                string
	Kind                OperationKind
	Capability          string
	BaseDurationMinutes float64
	Consumes            []MaterialRequirement
	Produces            []MaterialOutput
	CanFail             bool
	FailureChance       float64
	FailureResult       catalog.FailureResult
	Subject             *SubjectInfo
}

// NewOperation creates a pending operation from a spec.
func NewOperation(spec OperationSpec) *Operation {
	kind := spec.Kind
	if kind == "" {
		kind = OpKindStandard
	}
	failure := spec.FailureResult
	if failure == "" {
		failure = catalog.FailureWasted
	}
	return &Operation{
		id:                  uuid.New().String(),
		name:                spec.Name,
		kind:                kind,
		capability:          spec.Capability,
		baseDurationMinutes: spec.BaseDurationMinutes,
		consumes:            spec.Consumes,
		produces:            spec.Produces,
		canFail:             spec.CanFail,
		failureChance:       spec.FailureChance,
		failureResult:       failure,
		state:               OpPending,
		inputQuality:        inventory.MaxQuality,
		subject:             spec.Subject,
	}
}

// Getters

func (o *Operation) ID() string                           { return o.id }
func (o *Operation) Name() string                         { return o.name }
func (o *Operation) Kind() OperationKind                  { return o.kind }
func (o *Operation) Capability() string                   { return o.capability }
func (o *Operation) BaseDurationMinutes() float64         { return o.baseDurationMinutes }
func (o *Operation) Consumes() []MaterialRequirement      { return o.consumes }
func (o *Operation) Produces() []MaterialOutput           { return o.produces }
func (o *Operation) CanFail() bool                        { return o.canFail }
func (o *Operation) FailureChance() float64               { return o.failureChance }
func (o *Operation) FailureResult() catalog.FailureResult { return o.failureResult }
func (o *Operation) State() OperationState                { return o.state }
func (o *Operation) MachineID() string                    { return o.machineID }
func (o *Operation) StartTime() float64                   { return o.startTime }
func (o *Operation) EstimatedCompletion() float64         { return o.estimatedCompletion }
func (o *Operation) CompletedAt() float64                 { return o.completedAt }
func (o *Operation) InputQuality() float64                { return o.inputQuality }
func (o *Operation) FailReason() string                   { return o.failReason }
func (o *Operation) Subject() *SubjectInfo                { return o.subject }

// IsTerminal reports whether the operation reached a final state.
func (o *Operation) IsTerminal() bool {
	return o.state == OpCompleted || o.state == OpFailed
}

// State transitions

// MarkQueued transitions pending -> queued (the job's dependency gate).
func (o *Operation) MarkQueued() error {
	if o.state != OpPending {
		return &ErrInvalidOperationTransition{
			OperationID: o.id,
			From:        o.state,
			To:          OpQueued,
		}
	}
	o.state = OpQueued
	return nil
}

// Start binds the operation to a machine and stamps its time window.
// inputQuality is the minimum quality among the materials consumed at start.
func (o *Operation) Start(machineID string, startTime, estimatedCompletion, inputQuality float64) error {
	if o.state != OpQueued {
		return &ErrInvalidOperationTransition{
			OperationID: o.id,
			From:        o.state,
			To:          OpInProgress,
			Description: "can only start queued operations",
		}
	}
	o.state = OpInProgress
	o.machineID = machineID
	o.startTime = startTime
	o.estimatedCompletion = estimatedCompletion
	o.inputQuality = inputQuality
	return nil
}

// Complete marks the operation finished at the given game time.
func (o *Operation) Complete(completedAt float64) error {
	if o.state != OpInProgress {
		return &ErrInvalidOperationTransition{
			OperationID: o.id,
			From:        o.state,
			To:          OpCompleted,
			Description: "can only complete in-progress operations",
		}
	}
	o.state = OpCompleted
	o.completedAt = completedAt
	return nil
}

// Fail marks the operation failed (failure roll came up with a terminal
// failure policy).
func (o *Operation) Fail(completedAt float64, reason string) error {
	if o.state != OpInProgress {
		return &ErrInvalidOperationTransition{
			OperationID: o.id,
			From:        o.state,
			To:          OpFailed,
			Description: "can only fail in-progress operations",
		}
	}
	o.state = OpFailed
	o.completedAt = completedAt
	o.failReason = reason
	return nil
}

// OutputQuality derives the quality for a produced entry: the minimum input
// quality clamped to the output's declared range. Operations that consume
// nothing produce at the middle of their range.
func (o *Operation) OutputQuality(out MaterialOutput) float64 {
	if len(o.consumes) == 0 {
		return out.Quality.Clamp((out.Quality.Min + out.Quality.Max) / 2)
	}
	return out.Quality.Clamp(o.inputQuality)
}
