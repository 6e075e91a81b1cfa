package scheduling

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Simulation aggregates facility schedulers under one game clock. Each tick
// advances every facility by the same elapsed game time, in stable facility
// order, so multi-facility runs are reproducible.
type Simulation struct {
	schedulers map[string]*Scheduler
	gameTime   float64
	logger     *zap.Logger
}

// NewSimulation creates an empty simulation. logger may be nil.
func NewSimulation(logger *zap.Logger) *Simulation {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulation{
		schedulers: make(map[string]*Scheduler),
		logger:     logger,
	}
}

// AddFacility registers a facility scheduler. Facility ids must be unique.
func (sim *Simulation) AddFacility(s *Scheduler) error {
	if _, exists := sim.schedulers[s.FacilityID()]; exists {
		return fmt.Errorf("facility %s already registered", s.FacilityID())
	}
	sim.schedulers[s.FacilityID()] = s
	return nil
}

// Facility looks up a registered facility scheduler.
func (sim *Simulation) Facility(id string) (*Scheduler, error) {
	s, ok := sim.schedulers[id]
	if !ok {
		return nil, fmt.Errorf("unknown facility %s", id)
	}
	return s, nil
}

// Facilities lists schedulers in stable (facility id) order.
func (sim *Simulation) Facilities() []*Scheduler {
	ids := make([]string, 0, len(sim.schedulers))
	for id := range sim.schedulers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*Scheduler, 0, len(ids))
	for _, id := range ids {
		out = append(out, sim.schedulers[id])
	}
	return out
}

// GameTime is the total elapsed game time in hours.
func (sim *Simulation) GameTime() float64 { return sim.gameTime }

// Tick advances the game clock by elapsedHours and processes every facility.
func (sim *Simulation) Tick(elapsedHours float64) {
	if elapsedHours <= 0 {
		return
	}
	sim.gameTime += elapsedHours
	for _, s := range sim.Facilities() {
		s.ProcessTick(sim.gameTime)
	}
}
