package workshop

import "sort"

// DefaultCompletedHistory bounds the completed-jobs history when no explicit
// bound is configured.
const DefaultCompletedHistory = 50

// Workspace is the per-facility aggregate: machine slots, the facility-wide
// job queue (FIFO with rush-order front insertion) and a bounded history of
// terminal jobs. All mutation happens on the facility's tick, so the
// workspace carries no locking; facilities never share workspaces.
type Workspace struct {
	facilityID string

	machines map[string]*MachineSlot
	jobQueue []*Job
	jobs     map[string]*Job // all non-archived jobs, including bound ones

	completedJobs []*Job
	maxHistory    int
}

// NewWorkspace creates an empty workspace for the facility.
func NewWorkspace(facilityID string, maxHistory int) *Workspace {
	if maxHistory <= 0 {
		maxHistory = DefaultCompletedHistory
	}
	return &Workspace{
		facilityID: facilityID,
		machines:   make(map[string]*MachineSlot),
		jobs:       make(map[string]*Job),
		maxHistory: maxHistory,
	}
}

func (w *Workspace) FacilityID() string { return w.facilityID }

// AddMachine registers a machine slot.
func (w *Workspace) AddMachine(m *MachineSlot) {
	w.machines[m.ID()] = m
}

// Machine looks up a machine slot by id.
func (w *Workspace) Machine(id string) (*MachineSlot, error) {
	m, ok := w.machines[id]
	if !ok {
		return nil, &ErrMachineNotFound{MachineID: id}
	}
	return m, nil
}

// Machines returns all machine slots in deterministic (id) order.
func (w *Workspace) Machines() []*MachineSlot {
	out := make([]*MachineSlot, 0, len(w.machines))
	for _, m := range w.machines {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Enqueue appends a job to the queue. Rush orders go ahead of every non-rush
// job but behind earlier rush orders (FIFO within each class).
func (w *Workspace) Enqueue(job *Job) {
	w.jobs[job.ID()] = job
	if !job.RushOrder() {
		w.jobQueue = append(w.jobQueue, job)
		return
	}
	insert := len(w.jobQueue)
	for i, queued := range w.jobQueue {
		if !queued.RushOrder() {
			insert = i
			break
		}
	}
	w.jobQueue = append(w.jobQueue, nil)
	copy(w.jobQueue[insert+1:], w.jobQueue[insert:])
	w.jobQueue[insert] = job
}

// Queue returns the current queue order (copy).
func (w *Workspace) Queue() []*Job {
	out := make([]*Job, len(w.jobQueue))
	copy(out, w.jobQueue)
	return out
}

// RemoveFromQueue takes a job out of the queue (bound to a machine, or
// cancelled). Returns false if the job was not queued.
func (w *Workspace) RemoveFromQueue(jobID string) bool {
	for i, job := range w.jobQueue {
		if job.ID() == jobID {
			w.jobQueue = append(w.jobQueue[:i], w.jobQueue[i+1:]...)
			return true
		}
	}
	return false
}

// Job looks up any non-archived job.
func (w *Workspace) Job(jobID string) (*Job, error) {
	job, ok := w.jobs[jobID]
	if !ok {
		return nil, &ErrJobNotFound{JobID: jobID}
	}
	return job, nil
}

// ActiveJobs returns all non-archived jobs in deterministic (id) order.
func (w *Workspace) ActiveJobs() []*Job {
	out := make([]*Job, 0, len(w.jobs))
	for _, j := range w.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// MachineFor finds the machine currently running the job, nil if none.
func (w *Workspace) MachineFor(jobID string) *MachineSlot {
	for _, m := range w.machines {
		if m.CurrentJobID() == jobID {
			return m
		}
	}
	return nil
}

// Archive moves a terminal job into the bounded completed-jobs history.
func (w *Workspace) Archive(job *Job) {
	w.RemoveFromQueue(job.ID())
	delete(w.jobs, job.ID())
	w.completedJobs = append(w.completedJobs, job)
	if len(w.completedJobs) > w.maxHistory {
		w.completedJobs = w.completedJobs[len(w.completedJobs)-w.maxHistory:]
	}
}

// CompletedJobs returns the bounded terminal-job history, oldest first.
func (w *Workspace) CompletedJobs() []*Job {
	out := make([]*Job, len(w.completedJobs))
	copy(out, w.completedJobs)
	return out
}
