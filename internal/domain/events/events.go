package events

// EventType identifies the kind of lifecycle event carried on the bus.
type EventType string

const (
	// EventJobQueued - job accepted and appended to the facility queue
	EventJobQueued EventType = "JOB_QUEUED"

	// EventJobStarted - first operation of the job entered IN_PROGRESS
	EventJobStarted EventType = "JOB_STARTED"

	// EventJobBlocked - job cannot bind its current operation (materials or equipment)
	EventJobBlocked EventType = "JOB_BLOCKED"

	// EventJobCompleted - all operations completed, outputs committed
	EventJobCompleted EventType = "JOB_COMPLETED"

	// EventJobFailed - a failure roll terminated the job
	EventJobFailed EventType = "JOB_FAILED"

	// EventJobCancelled - job cancelled by the caller, materials returned
	EventJobCancelled EventType = "JOB_CANCELLED"

	// EventOperationStarted - operation bound to a machine and consuming time
	EventOperationStarted EventType = "OPERATION_STARTED"

	// EventOperationCompleted - operation finished, production committed
	EventOperationCompleted EventType = "OPERATION_COMPLETED"

	// EventOperationFailed - operation failure roll came up
	EventOperationFailed EventType = "OPERATION_FAILED"

	// EventInventoryChanged - facility inventory gained or lost stock
	EventInventoryChanged EventType = "INVENTORY_CHANGED"
)

// AllEventTypes lists every event kind the core can publish.
// Useful for observers that want the full stream (logging, persistence).
func AllEventTypes() []EventType {
	return []EventType{
		EventJobQueued,
		EventJobStarted,
		EventJobBlocked,
		EventJobCompleted,
		EventJobFailed,
		EventJobCancelled,
		EventOperationStarted,
		EventOperationCompleted,
		EventOperationFailed,
		EventInventoryChanged,
	}
}

// Payload is the closed set of event payloads. Each event kind has exactly
// one payload variant, so observers can switch on the concrete type instead
// of probing untyped maps.
type Payload interface {
	isEventPayload()
}

// Event is the envelope delivered to subscribers. Seq is assigned by the bus
// and increases monotonically across all event kinds, so observers can
// reconstruct the exact transition order of a tick.
type Event struct {
	Type     EventType
	Seq      uint64
	SourceID string
	Payload  Payload
}

// JobPayload accompanies every job lifecycle event.
type JobPayload struct {
	JobID      string
	FacilityID string
	ProductID  string
	Quantity   float64
	GameTime   float64

	// Reason is set for JOB_BLOCKED, JOB_FAILED and JOB_CANCELLED
	Reason string
}

func (JobPayload) isEventPayload() {}

// OperationPayload accompanies operation lifecycle events.
type OperationPayload struct {
	JobID       string
	OperationID string
	Name        string
	Index       int
	MachineID   string
	GameTime    float64

	// EstimatedCompletion is set on OPERATION_STARTED
	EstimatedCompletion float64

	// FailureResult is set on OPERATION_FAILED (scrap, downgrade, wasted_materials)
	FailureResult string
}

func (OperationPayload) isEventPayload() {}

// InventoryChangeKind discriminates additions from removals.
type InventoryChangeKind string

const (
	InventoryAdded   InventoryChangeKind = "ADDED"
	InventoryRemoved InventoryChangeKind = "REMOVED"
)

// InventoryPayload accompanies INVENTORY_CHANGED events.
type InventoryPayload struct {
	OwnerID    string
	BaseItemID string
	Tags       []string
	Quality    float64
	Change     InventoryChangeKind
	Quantity   float64
	GameTime   float64
}

func (InventoryPayload) isEventPayload() {}

// Handler receives events synchronously, in emit order.
type Handler func(Event)

// Publisher is the port the ledger and scheduler publish through.
// The bus in application/eventbus implements it; a nil publisher is legal
// and drops events (used by job-scoped inventories).
type Publisher interface {
	Emit(eventType EventType, payload Payload, sourceID string)
}
