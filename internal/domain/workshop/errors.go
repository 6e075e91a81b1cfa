package workshop

import "fmt"

// ErrInvalidJobTransition indicates an attempt to move a job along an edge
// its state machine does not allow. Programming-contract violation.
type ErrInvalidJobTransition struct {
	JobID       string
	From        JobState
	To          JobState
	Description string
}

func (e *ErrInvalidJobTransition) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("invalid job transition for %s: %s -> %s: %s",
			e.JobID, e.From, e.To, e.Description)
	}
	return fmt.Sprintf("invalid job transition for %s: %s -> %s", e.JobID, e.From, e.To)
}

// ErrInvalidOperationTransition indicates an operation state-machine
// violation.
type ErrInvalidOperationTransition struct {
	OperationID string
	From        OperationState
	To          OperationState
	Description string
}

func (e *ErrInvalidOperationTransition) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("invalid operation transition for %s: %s -> %s: %s",
			e.OperationID, e.From, e.To, e.Description)
	}
	return fmt.Sprintf("invalid operation transition for %s: %s -> %s", e.OperationID, e.From, e.To)
}

// ErrMachineBusy indicates a bind attempt on an occupied machine slot.
type ErrMachineBusy struct {
	MachineID string
	JobID     string
}

func (e *ErrMachineBusy) Error() string {
	return fmt.Sprintf("machine %s is busy with job %s", e.MachineID, e.JobID)
}

// ErrMachineNotFound indicates an unknown machine slot id.
type ErrMachineNotFound struct {
	MachineID string
}

func (e *ErrMachineNotFound) Error() string {
	return fmt.Sprintf("machine not found: %s", e.MachineID)
}

// ErrJobNotFound indicates an unknown or already archived job id.
type ErrJobNotFound struct {
	JobID string
}

func (e *ErrJobNotFound) Error() string {
	return fmt.Sprintf("job not found: %s", e.JobID)
}
