package workshop

// MachineProgress stamps the time window of the operation a machine is
// running. Times are in total game hours.
type MachineProgress struct {
	StartTime           float64
	EstimatedCompletion float64
	LastUpdateTime      float64
}

// MachineSlot is one physical equipment unit inside a facility workspace.
// At most one job is bound at a time; condition degrades with use, the
// degradation policy itself lives in configuration.
type MachineSlot struct {
	id          string
	equipmentID string
	condition   float64

	currentJobID string
	progress     MachineProgress
}

// NewMachineSlot creates a machine at the given condition (0-100).
func NewMachineSlot(id, equipmentID string, condition float64) *MachineSlot {
	return &MachineSlot{
		id:          id,
		equipmentID: equipmentID,
		condition:   clampCondition(condition),
	}
}

func clampCondition(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

// Getters

func (m *MachineSlot) ID() string                { return m.id }
func (m *MachineSlot) EquipmentID() string       { return m.equipmentID }
func (m *MachineSlot) Condition() float64        { return m.condition }
func (m *MachineSlot) CurrentJobID() string      { return m.currentJobID }
func (m *MachineSlot) Progress() MachineProgress { return m.progress }

// IsIdle reports whether the machine can accept a job.
func (m *MachineSlot) IsIdle() bool {
	return m.currentJobID == ""
}

// Bind attaches a job's operation to the machine for the given time window.
func (m *MachineSlot) Bind(jobID string, startTime, estimatedCompletion float64) error {
	if !m.IsIdle() {
		return &ErrMachineBusy{MachineID: m.id, JobID: m.currentJobID}
	}
	m.currentJobID = jobID
	m.progress = MachineProgress{
		StartTime:           startTime,
		EstimatedCompletion: estimatedCompletion,
		LastUpdateTime:      startTime,
	}
	return nil
}

// Touch refreshes the progress stamp without changing the binding.
func (m *MachineSlot) Touch(now float64) {
	if !m.IsIdle() {
		m.progress.LastUpdateTime = now
	}
}

// Release frees the machine for the next job.
func (m *MachineSlot) Release() {
	m.currentJobID = ""
	m.progress = MachineProgress{}
}

// Wear degrades the machine's condition by the given amount.
func (m *MachineSlot) Wear(amount float64) {
	m.condition = clampCondition(m.condition - amount)
}

// Maintain restores condition (external maintenance actions).
func (m *MachineSlot) Maintain(amount float64) {
	m.condition = clampCondition(m.condition + amount)
}
