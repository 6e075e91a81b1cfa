package workshop

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/mwaldron/shopfloor-go/internal/domain/inventory"
)

// JobState is the per-job state machine.
//
//	queued -> in_progress -> completed
//	   \        |       \--> failed
//	    \       v
//	     \-> blocked (transient: equipment or materials unavailable)
//
// cancelled is reachable from every non-terminal state.
type JobState string

const (
	JobQueued     JobState = "queued"
	JobInProgress JobState = "in_progress"
	JobBlocked    JobState = "blocked"
	JobCompleted  JobState = "completed"
	JobFailed     JobState = "failed"
	JobCancelled  JobState = "cancelled"
)

// Job is one manufacturing or disassembly run: an ordered operation list
// executed strictly in index order, with a private job inventory holding
// intermediates invisible to other jobs until released.
type Job struct {
	id         string
	facilityID string
	productID  string
	quantity   float64
	rushOrder  bool

	operations            []*Operation
	currentOperationIndex int

	state       JobState
	blockReason string
	failReason  string

	jobInventory *inventory.Inventory

	queuedAt    float64
	startedAt   float64
	finishedAt  float64
	everStarted bool
}

// NewJob creates a queued job. The first operation is marked queued, the
// rest stay pending until their predecessors complete.
func NewJob(facilityID, productID string, quantity float64, operations []*Operation, rushOrder bool, queuedAt float64) (*Job, error) {
	if len(operations) == 0 {
		return nil, fmt.Errorf("job requires at least one operation")
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("job quantity must be positive, got %.2f", quantity)
	}
	id := uuid.New().String()
	if err := operations[0].MarkQueued(); err != nil {
		return nil, err
	}
	return &Job{
		id:           id,
		facilityID:   facilityID,
		productID:    productID,
		quantity:     quantity,
		rushOrder:    rushOrder,
		operations:   operations,
		state:        JobQueued,
		jobInventory: inventory.NewJobInventory(id),
		queuedAt:     queuedAt,
	}, nil
}

// Getters

func (j *Job) ID() string                        { return j.id }
func (j *Job) FacilityID() string                { return j.facilityID }
func (j *Job) ProductID() string                 { return j.productID }
func (j *Job) Quantity() float64                 { return j.quantity }
func (j *Job) RushOrder() bool                   { return j.rushOrder }
func (j *Job) Operations() []*Operation          { return j.operations }
func (j *Job) CurrentOperationIndex() int        { return j.currentOperationIndex }
func (j *Job) State() JobState                   { return j.state }
func (j *Job) BlockReason() string               { return j.blockReason }
func (j *Job) FailReason() string                { return j.failReason }
func (j *Job) Inventory() *inventory.Inventory   { return j.jobInventory }
func (j *Job) QueuedAt() float64                 { return j.queuedAt }
func (j *Job) StartedAt() float64                { return j.startedAt }
func (j *Job) FinishedAt() float64               { return j.finishedAt }

// CurrentOperation returns the operation at the current index, or nil when
// every operation has been consumed.
func (j *Job) CurrentOperation() *Operation {
	if j.currentOperationIndex >= len(j.operations) {
		return nil
	}
	return j.operations[j.currentOperationIndex]
}

// IsTerminal reports whether the job reached a final state.
func (j *Job) IsTerminal() bool {
	return j.state == JobCompleted || j.state == JobFailed || j.state == JobCancelled
}

// State transitions

// Start marks the job in progress (first operation bound to a machine).
func (j *Job) Start(startedAt float64) error {
	if j.state != JobQueued && j.state != JobBlocked {
		return &ErrInvalidJobTransition{JobID: j.id, From: j.state, To: JobInProgress}
	}
	if !j.everStarted {
		// A block before the first start must not pin startedAt.
		j.startedAt = startedAt
		j.everStarted = true
	}
	j.state = JobInProgress
	j.blockReason = ""
	return nil
}

// Block records that the current operation cannot bind. The job keeps its
// queue position and is retried every tick until resolved or cancelled.
// Blocking an already blocked job just refreshes the reason.
func (j *Job) Block(reason string) error {
	switch j.state {
	case JobQueued, JobInProgress, JobBlocked:
		j.state = JobBlocked
		j.blockReason = reason
		return nil
	default:
		return &ErrInvalidJobTransition{JobID: j.id, From: j.state, To: JobBlocked}
	}
}

// AdvanceOperation moves the index past the current operation. The strict
// sequential dependency is enforced here: the current operation must be
// completed, never merely started.
func (j *Job) AdvanceOperation() error {
	op := j.CurrentOperation()
	if op == nil {
		return &ErrInvalidJobTransition{
			JobID: j.id, From: j.state, To: j.state,
			Description: "no current operation to advance past",
		}
	}
	if op.State() != OpCompleted {
		return &ErrInvalidJobTransition{
			JobID: j.id, From: j.state, To: j.state,
			Description: fmt.Sprintf("operation %d is %s, not completed", j.currentOperationIndex, op.State()),
		}
	}
	j.currentOperationIndex++
	if next := j.CurrentOperation(); next != nil {
		return next.MarkQueued()
	}
	return nil
}

// InsertAfterCurrent splices discovery-driven expansion operations directly
// after the current operation. Nested expansions therefore always land ahead
// of any already planned downstream work (such as the final assembly), which
// keeps strict index-order execution equivalent to the discovery order.
func (j *Job) InsertAfterCurrent(ops []*Operation) error {
	if j.IsTerminal() {
		return &ErrInvalidJobTransition{
			JobID: j.id, From: j.state, To: j.state,
			Description: "cannot extend a terminal job",
		}
	}
	if len(ops) == 0 {
		return nil
	}
	at := j.currentOperationIndex + 1
	if at > len(j.operations) {
		at = len(j.operations)
	}
	tail := make([]*Operation, len(j.operations[at:]))
	copy(tail, j.operations[at:])
	j.operations = append(j.operations[:at], ops...)
	j.operations = append(j.operations, tail...)
	return nil
}

// Complete marks the job completed. Every operation must be completed.
func (j *Job) Complete(finishedAt float64) error {
	if j.state != JobInProgress {
		return &ErrInvalidJobTransition{JobID: j.id, From: j.state, To: JobCompleted}
	}
	if j.currentOperationIndex < len(j.operations) {
		return &ErrInvalidJobTransition{
			JobID: j.id, From: j.state, To: JobCompleted,
			Description: fmt.Sprintf("%d of %d operations remain", len(j.operations)-j.currentOperationIndex, len(j.operations)),
		}
	}
	j.state = JobCompleted
	j.finishedAt = finishedAt
	return nil
}

// Fail terminates the job after a failed operation.
func (j *Job) Fail(finishedAt float64, reason string) error {
	if j.IsTerminal() {
		return &ErrInvalidJobTransition{JobID: j.id, From: j.state, To: JobFailed}
	}
	j.state = JobFailed
	j.failReason = reason
	j.finishedAt = finishedAt
	return nil
}

// Cancel terminates the job at the caller's request.
func (j *Job) Cancel(finishedAt float64) error {
	if j.IsTerminal() {
		return &ErrInvalidJobTransition{JobID: j.id, From: j.state, To: JobCancelled}
	}
	j.state = JobCancelled
	j.finishedAt = finishedAt
	return nil
}

// String provides a human-readable representation.
func (j *Job) String() string {
	return fmt.Sprintf("Job[%s, product=%s, qty=%.1f, state=%s, op=%d/%d]",
		j.id[:8], j.productID, j.quantity, j.state, j.currentOperationIndex, len(j.operations))
}
