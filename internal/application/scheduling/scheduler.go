package scheduling

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mwaldron/shopfloor-go/internal/application/planning"
	"github.com/mwaldron/shopfloor-go/internal/domain/catalog"
	"github.com/mwaldron/shopfloor-go/internal/domain/events"
	"github.com/mwaldron/shopfloor-go/internal/domain/inventory"
	"github.com/mwaldron/shopfloor-go/internal/domain/workshop"
)

const (
	// minConditionFactor floors the machine-condition slowdown so a wrecked
	// machine runs slowly instead of never finishing.
	minConditionFactor = 0.25

	// wearPerOperation is the condition cost of running one operation.
	wearPerOperation = 0.5

	// downgradeFactor scales input quality when a failure roll resolves to
	// downgrade instead of terminating the job.
	downgradeFactor = 0.6

	timeEpsilon = 1e-9
)

// Scheduler drives one facility: accepts goals as jobs, binds queued
// operations to capable machines, advances time-based work and reacts to
// completion, failure rolls and discovery events. All methods run on the
// facility's single tick goroutine.
type Scheduler struct {
	facilityID string
	catalog    *catalog.Catalog
	generator  *planning.Generator
	workspace  *workshop.Workspace
	facility   *inventory.Inventory
	bus        events.Publisher
	sampler    Sampler
	logger     *zap.Logger

	gameTime float64

	// operation id -> stacks consumed at bind time, kept until the operation
	// resolves so a cancellation can return them.
	inflight map[string][]inventory.StackQuantity

	// job id -> the filtered reservation StartJob placed for a repair source,
	// kept so a failed bind can put the claim back after rollback.
	repairSources map[string]repairSource
}

type repairSource struct {
	itemID   string
	quantity float64
	filter   inventory.Filter
}

// NewScheduler wires a scheduler for one facility. sampler and logger may be
// nil; nil sampler falls back to a fixed-seed default.
func NewScheduler(
	cat *catalog.Catalog,
	gen *planning.Generator,
	ws *workshop.Workspace,
	facility *inventory.Inventory,
	bus events.Publisher,
	sampler Sampler,
	logger *zap.Logger,
) *Scheduler {
	if sampler == nil {
		sampler = NewSampler(1)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		facilityID:    ws.FacilityID(),
		catalog:       cat,
		generator:     gen,
		workspace:     ws,
		facility:      facility,
		bus:           bus,
		sampler:       sampler,
		logger:        logger.With(zap.String("facility", ws.FacilityID())),
		inflight:      make(map[string][]inventory.StackQuantity),
		repairSources: make(map[string]repairSource),
	}
}

func (s *Scheduler) FacilityID() string             { return s.facilityID }
func (s *Scheduler) GameTime() float64              { return s.gameTime }
func (s *Scheduler) Workspace() *workshop.Workspace { return s.workspace }
func (s *Scheduler) Facility() *inventory.Inventory { return s.facility }

// StartJob plans a goal against current stock and, if feasible, queues the
// resulting job. Infeasible goals are rejected here with the full missing
// list and no job is created. Repair sources are reserved under the job id
// so a competing job cannot consume them while the repair waits in queue.
func (s *Scheduler) StartJob(goal planning.Goal, rush bool) (*workshop.Job, error) {
	plan, err := s.generator.PlanGoal(goal, s.facility)
	if err != nil {
		return nil, err
	}

	job, err := workshop.NewJob(s.facilityID, goal.TargetItemID, goal.Quantity, plan.Operations, rush, s.gameTime)
	if err != nil {
		return nil, err
	}

	if goal.Repair != nil {
		// Claim the actual damaged stock, not the best units of the item.
		filter := inventory.Filter{Tags: goal.Repair.SourceTags, MaxQuality: goal.Repair.SourceMaxQuality}
		if err := s.facility.Reserve(goal.TargetItemID, goal.Quantity, filter, job.ID()); err != nil {
			return nil, fmt.Errorf("reserve repair source: %w", err)
		}
		s.repairSources[job.ID()] = repairSource{
			itemID:   goal.TargetItemID,
			quantity: goal.Quantity,
			filter:   filter,
		}
	}

	s.workspace.Enqueue(job)
	s.emitJob(events.EventJobQueued, job, "")
	s.logger.Info("job queued",
		zap.String("job", job.ID()),
		zap.String("product", goal.TargetItemID),
		zap.Float64("quantity", goal.Quantity),
		zap.Bool("rush", rush),
		zap.Int("operations", len(plan.Operations)))
	return job, nil
}

// CancelJob terminates a non-terminal job, frees its machine if one is
// bound, returns the job inventory to the facility and releases any
// reservations held under the job id.
func (s *Scheduler) CancelJob(jobID string) error {
	job, err := s.workspace.Job(jobID)
	if err != nil {
		return err
	}
	if job.IsTerminal() {
		return fmt.Errorf("job %s is already %s", jobID, job.State())
	}

	if machine := s.workspace.MachineFor(jobID); machine != nil {
		machine.Release()
	}
	if err := job.Cancel(s.gameTime); err != nil {
		return err
	}
	// Materials already committed to the in-progress operation come back too.
	if op := job.CurrentOperation(); op != nil {
		for _, c := range s.inflight[op.ID()] {
			s.facility.Restore(c.Stack, c.Quantity)
		}
		delete(s.inflight, op.ID())
	}
	s.returnJobInventory(job)
	s.facility.ReleaseReservation(jobID)
	delete(s.repairSources, jobID)
	s.workspace.RemoveFromQueue(jobID)
	s.workspace.Archive(job)
	s.emitJob(events.EventJobCancelled, job, "cancelled by operator")
	s.logger.Info("job cancelled", zap.String("job", jobID))
	return nil
}

// ProcessTick advances the facility to the given total game time. Two phases
// run in a fixed order so results are deterministic: first resolve every
// operation whose estimated completion has passed, then bind queued jobs to
// machines in queue order.
func (s *Scheduler) ProcessTick(totalGameHours float64) {
	s.gameTime = totalGameHours
	s.facility.SetGameTime(totalGameHours)

	// Completion phase.
	for _, machine := range s.workspace.Machines() {
		if machine.IsIdle() {
			continue
		}
		job, err := s.workspace.Job(machine.CurrentJobID())
		if err != nil {
			s.logger.Error("machine bound to unknown job",
				zap.String("machine", machine.ID()),
				zap.String("job", machine.CurrentJobID()))
			machine.Release()
			continue
		}
		op := job.CurrentOperation()
		if op == nil || op.State() != workshop.OpInProgress {
			machine.Release()
			continue
		}
		if op.EstimatedCompletion() <= totalGameHours+timeEpsilon {
			s.resolveOperation(job, op, machine)
		} else {
			machine.Touch(totalGameHours)
		}
	}

	// Binding phase. Queue order is rush-first then FIFO; blocked jobs keep
	// their position and are retried here every tick.
	for _, job := range s.workspace.Queue() {
		if job.IsTerminal() {
			continue
		}
		op := job.CurrentOperation()
		if op == nil || op.State() != workshop.OpQueued {
			continue
		}
		s.tryBind(job, op)
	}
}

// tryBind attempts to start a job's current operation: find an idle capable
// machine, then consume every required material (job inventory first,
// facility second). Either every requirement is satisfied and the operation
// starts, or every removal is rolled back and the job blocks with an
// actionable reason; a failed bind never destroys stock.
func (s *Scheduler) tryBind(job *workshop.Job, op *workshop.Operation) {
	machine, equip, reason := s.idleMachineFor(op.Capability())
	if machine == nil {
		s.blockJob(job, reason)
		return
	}

	// Removals are committed as they are checked, so each requirement sees
	// the stock left by the previous ones; overlapping filters cannot count
	// the same physical unit twice. A shortfall restores the exact stacks
	// removed so far to their source inventories.
	type staged struct {
		from    *inventory.Inventory
		removed []inventory.StackQuantity
	}
	var stages []staged
	releasedReservation := false
	rollback := func() {
		for i := len(stages) - 1; i >= 0; i-- {
			for _, r := range stages[i].removed {
				stages[i].from.Restore(r.Stack, r.Quantity)
			}
		}
		if !releasedReservation {
			return
		}
		if src, ok := s.repairSources[job.ID()]; ok {
			if err := s.facility.Reserve(src.itemID, src.quantity, src.filter, job.ID()); err != nil {
				s.logger.Error("repair source re-reserve failed",
					zap.String("job", job.ID()), zap.Error(err))
			}
		}
	}

	minQuality := inventory.MaxQuality
	var consumed []inventory.StackQuantity
	record := func(from *inventory.Inventory, removed []inventory.StackQuantity) {
		stages = append(stages, staged{from: from, removed: removed})
		for _, r := range removed {
			consumed = append(consumed, r)
			if r.Stack.Quality < minQuality {
				minQuality = r.Stack.Quality
			}
		}
	}

	for _, req := range op.Consumes() {
		remaining := req.Count
		if take := job.Inventory().Available(req.ItemID, req.Filter()); take > 0 {
			if take > remaining {
				take = remaining
			}
			removed, err := job.Inventory().Remove(req.ItemID, take, req.Filter())
			if err != nil {
				rollback()
				s.blockJob(job, err.Error())
				return
			}
			record(job.Inventory(), removed)
			remaining -= take
		}
		if remaining <= timeEpsilon {
			continue
		}
		// The job's own repair-source reservation must not make its materials
		// look unavailable; release it before the facility pull and put it
		// back if the bind fails.
		if !releasedReservation && s.facility.Reserved(job.ID()) > 0 {
			s.facility.ReleaseReservation(job.ID())
			releasedReservation = true
		}
		removed, err := s.facility.Remove(req.ItemID, remaining, req.Filter())
		if err != nil {
			rollback()
			s.blockJob(job, bindFailureReason(err))
			return
		}
		record(s.facility, removed)
	}
	if releasedReservation {
		delete(s.repairSources, job.ID())
	}

	duration := s.operationDuration(op, equip, machine)
	estimated := s.gameTime + duration

	firstStart := job.CurrentOperationIndex() == 0
	if err := job.Start(s.gameTime); err != nil {
		s.logger.Error("job start rejected", zap.String("job", job.ID()), zap.Error(err))
		return
	}
	if err := op.Start(machine.ID(), s.gameTime, estimated, minQuality); err != nil {
		s.logger.Error("operation start rejected", zap.String("operation", op.ID()), zap.Error(err))
		return
	}
	if err := machine.Bind(job.ID(), s.gameTime, estimated); err != nil {
		s.logger.Error("machine bind rejected", zap.String("machine", machine.ID()), zap.Error(err))
		return
	}
	s.workspace.RemoveFromQueue(job.ID())
	s.inflight[op.ID()] = consumed

	if firstStart {
		s.emitJob(events.EventJobStarted, job, "")
	}
	s.emitOperation(events.EventOperationStarted, job, op, "")
	s.logger.Debug("operation started",
		zap.String("job", job.ID()),
		zap.String("operation", op.Name()),
		zap.String("machine", machine.ID()),
		zap.Float64("estimated_completion", estimated))
}

// operationDuration converts base minutes to game hours, slowed by equipment
// efficiency and machine condition.
func (s *Scheduler) operationDuration(op *workshop.Operation, equip *catalog.Equipment, machine *workshop.MachineSlot) float64 {
	efficiency := equip.BaseEfficiency
	if efficiency <= 0 {
		efficiency = 1
	}
	condition := machine.Condition() / 100
	if condition < minConditionFactor {
		condition = minConditionFactor
	}
	return op.BaseDurationMinutes() / 60 / (efficiency * condition)
}

// idleMachineFor finds an idle machine providing the capability. The reason
// distinguishes "this facility cannot ever run this" from "wait your turn".
func (s *Scheduler) idleMachineFor(capability string) (*workshop.MachineSlot, *catalog.Equipment, string) {
	capable := false
	for _, machine := range s.workspace.Machines() {
		equip, err := s.catalog.Equipment(machine.EquipmentID())
		if err != nil || !equip.HasCapability(capability) {
			continue
		}
		capable = true
		if machine.IsIdle() {
			return machine, equip, ""
		}
	}
	if !capable {
		return nil, nil, fmt.Sprintf("no machine provides capability %q", capability)
	}
	return nil, nil, fmt.Sprintf("waiting for machine with capability %q", capability)
}

// bindFailureReason turns a failed facility pull into a block reason the
// operator can act on.
func bindFailureReason(err error) string {
	var short *inventory.ErrInsufficientStock
	if errors.As(err, &short) {
		return fmt.Sprintf("missing material %s: need %.1f, available %.1f",
			short.ItemID, short.Requested, short.Available)
	}
	return err.Error()
}

// blockJob transitions the job to blocked. A JOB_BLOCKED event is emitted
// only when the reason changes, not on every retried tick.
func (s *Scheduler) blockJob(job *workshop.Job, reason string) {
	alreadyBlocked := job.State() == workshop.JobBlocked && job.BlockReason() == reason
	if err := job.Block(reason); err != nil {
		s.logger.Error("job block rejected", zap.String("job", job.ID()), zap.Error(err))
		return
	}
	if alreadyBlocked {
		return
	}
	s.emitJob(events.EventJobBlocked, job, reason)
	s.logger.Debug("job blocked", zap.String("job", job.ID()), zap.String("reason", reason))
}

// resolveOperation handles a finished time window: roll for failure, commit
// the outcome (production, disassembly discovery, inspection expansion) and
// advance or terminate the job.
func (s *Scheduler) resolveOperation(job *workshop.Job, op *workshop.Operation, machine *workshop.MachineSlot) {
	at := op.EstimatedCompletion()
	machine.Release()
	machine.Wear(wearPerOperation)

	delete(s.inflight, op.ID())

	downgraded := false
	if op.CanFail() && s.sampler.RollFailure(op.FailureChance()) {
		switch op.FailureResult() {
		case catalog.FailureDowngrade:
			downgraded = true
		case catalog.FailureScrap:
			// The consumed materials for this sub-path are discarded outright.
			s.failOperation(job, op, at, string(catalog.FailureScrap))
			return
		default:
			s.failOperation(job, op, at, string(catalog.FailureWasted))
			return
		}
	}

	switch op.Kind() {
	case workshop.OpKindDisassembly:
		s.materializeComponents(job, op)
	case workshop.OpKindInspection:
		if err := s.expandFromInspection(job, op); err != nil {
			s.logger.Error("inspection expansion failed", zap.String("job", job.ID()), zap.Error(err))
			s.failOperation(job, op, at, "inspection could not be resolved: "+err.Error())
			return
		}
	default:
		s.commitOutputs(job, op, downgraded)
	}

	if err := op.Complete(at); err != nil {
		s.logger.Error("operation complete rejected", zap.String("operation", op.ID()), zap.Error(err))
		return
	}
	s.emitOperation(events.EventOperationCompleted, job, op, "")
	s.logger.Debug("operation completed",
		zap.String("job", job.ID()),
		zap.String("operation", op.Name()),
		zap.Bool("downgraded", downgraded))

	if err := job.AdvanceOperation(); err != nil {
		s.logger.Error("job advance rejected", zap.String("job", job.ID()), zap.Error(err))
		return
	}
	if job.CurrentOperation() == nil {
		s.completeJob(job, at)
		return
	}
	// More work to do; rejoin the queue for the binding phase.
	s.workspace.Enqueue(job)
}

// failOperation terminates both the operation and its job after a terminal
// failure roll. Remaining job-inventory stock goes back to the facility.
func (s *Scheduler) failOperation(job *workshop.Job, op *workshop.Operation, at float64, result string) {
	reason := fmt.Sprintf("operation %q failed: %s", op.Name(), result)
	if err := op.Fail(at, result); err != nil {
		s.logger.Error("operation fail rejected", zap.String("operation", op.ID()), zap.Error(err))
	}
	s.emitOperationFailed(job, op, result)

	s.returnJobInventory(job)
	s.facility.ReleaseReservation(job.ID())
	delete(s.repairSources, job.ID())
	if err := job.Fail(at, reason); err != nil {
		s.logger.Error("job fail rejected", zap.String("job", job.ID()), zap.Error(err))
		return
	}
	s.workspace.RemoveFromQueue(job.ID())
	s.workspace.Archive(job)
	s.emitJob(events.EventJobFailed, job, reason)
	s.logger.Warn("job failed", zap.String("job", job.ID()), zap.String("reason", reason))
}

func (s *Scheduler) completeJob(job *workshop.Job, at float64) {
	// Leftover parts (kept components not needed by the assembly, surplus
	// intermediates) return to the facility rather than vanish with the job.
	s.returnJobInventory(job)
	s.facility.ReleaseReservation(job.ID())
	delete(s.repairSources, job.ID())
	if err := job.Complete(at); err != nil {
		s.logger.Error("job complete rejected", zap.String("job", job.ID()), zap.Error(err))
		return
	}
	s.workspace.Archive(job)
	s.emitJob(events.EventJobCompleted, job, "")
	s.logger.Info("job completed",
		zap.String("job", job.ID()),
		zap.String("product", job.ProductID()),
		zap.Float64("game_time", at))
}

// commitOutputs adds an operation's production to its declared targets.
// A full facility store never destroys finished goods; the capacity breach
// is logged and the stock forced in.
func (s *Scheduler) commitOutputs(job *workshop.Job, op *workshop.Operation, downgraded bool) {
	for _, out := range op.Produces() {
		quality := op.OutputQuality(out)
		if downgraded {
			quality = out.Quality.Clamp(op.InputQuality() * downgradeFactor)
		}
		stack := inventory.ItemStack{BaseItemID: out.ItemID, Tags: out.Tags, Quality: quality}
		if out.Target == catalog.TargetFacilityInventory {
			if err := s.facility.Add(stack, out.Count); err != nil {
				s.logger.Warn("facility at capacity, forcing output in",
					zap.String("item", out.ItemID),
					zap.Error(err))
				s.facility.Restore(stack, out.Count)
			}
		} else {
			if err := job.Inventory().Add(stack, out.Count); err != nil {
				s.logger.Error("job inventory add failed", zap.String("item", out.ItemID), zap.Error(err))
			}
		}
	}
}

// materializeComponents turns a completed disassembly into component stock
// in the job inventory, each with a sampled condition derived from the
// subject's input quality.
func (s *Scheduler) materializeComponents(job *workshop.Job, op *workshop.Operation) {
	subject := op.Subject()
	if subject == nil {
		s.logger.Error("disassembly without subject", zap.String("operation", op.ID()))
		return
	}
	def, err := s.catalog.Item(subject.ItemID)
	if err != nil {
		s.logger.Error("disassembly of unknown item", zap.String("item", subject.ItemID), zap.Error(err))
		return
	}
	for _, comp := range def.Components {
		// One sample per physical unit: two gears out of the same subject can
		// surface in different conditions.
		remaining := comp.Count * subject.Count
		for remaining > timeEpsilon {
			unit := 1.0
			if unit > remaining {
				unit = remaining
			}
			cond := s.sampler.SampleComponent(subject.ItemID, comp.ItemID, op.InputQuality())
			stack := inventory.ItemStack{BaseItemID: comp.ItemID, Tags: cond.Tags, Quality: cond.Quality}
			if err := job.Inventory().Add(stack, unit); err != nil {
				s.logger.Error("component add failed", zap.String("item", comp.ItemID), zap.Error(err))
			}
			remaining -= unit
		}
	}
}

// expandFromInspection assesses the subject's components sitting in the job
// inventory, asks the planner for the repair-or-replace tail and splices it
// after the inspection. Replace-classified components leave the job
// inventory immediately, scrap-tagged, so the assembly cannot consume them.
func (s *Scheduler) expandFromInspection(job *workshop.Job, op *workshop.Operation) error {
	subject := op.Subject()
	if subject == nil {
		return fmt.Errorf("inspection operation %s has no subject", op.ID())
	}
	def, err := s.catalog.Item(subject.ItemID)
	if err != nil {
		return err
	}

	var assessments []planning.ComponentAssessment
	for _, comp := range def.Components {
		for _, c := range job.Inventory().Contents() {
			if c.Stack.BaseItemID != comp.ItemID {
				continue
			}
			assessments = append(assessments, planning.ComponentAssessment{
				ItemID:  c.Stack.BaseItemID,
				Tags:    inventory.NewTagSet(c.Stack.Tags...),
				Quality: c.Stack.Quality,
				Count:   c.Quantity,
			})
		}
	}

	exp, err := s.generator.ExpandAssessment(*subject, assessments, s.facility)
	if err != nil {
		return err
	}

	scrapTag := s.generator.Policy().ScrapTag
	for _, sc := range exp.Scrap {
		removed, err := job.Inventory().Remove(sc.ItemID, sc.Count,
			inventory.Filter{Tags: sc.Tags, MaxQuality: inventory.MaxQualityOf(sc.Quality)})
		if err != nil {
			return fmt.Errorf("scrap out %s: %w", sc.ItemID, err)
		}
		for _, r := range removed {
			stack := r.Stack
			stack.Tags = stack.Tags.With(scrapTag)
			s.facility.Restore(stack, r.Quantity)
		}
	}

	return job.InsertAfterCurrent(exp.Operations)
}

func (s *Scheduler) returnJobInventory(job *workshop.Job) {
	for _, c := range job.Inventory().Contents() {
		s.facility.Restore(c.Stack, c.Quantity)
	}
}

// Event helpers

func (s *Scheduler) emitJob(t events.EventType, job *workshop.Job, reason string) {
	if s.bus == nil {
		return
	}
	s.bus.Emit(t, events.JobPayload{
		JobID:      job.ID(),
		FacilityID: s.facilityID,
		ProductID:  job.ProductID(),
		Quantity:   job.Quantity(),
		GameTime:   s.gameTime,
		Reason:     reason,
	}, s.facilityID)
}

func (s *Scheduler) emitOperation(t events.EventType, job *workshop.Job, op *workshop.Operation, failureResult string) {
	if s.bus == nil {
		return
	}
	s.bus.Emit(t, events.OperationPayload{
		JobID:               job.ID(),
		OperationID:         op.ID(),
		Name:                op.Name(),
		Index:               job.CurrentOperationIndex(),
		MachineID:           op.MachineID(),
		GameTime:            s.gameTime,
		EstimatedCompletion: op.EstimatedCompletion(),
		FailureResult:       failureResult,
	}, s.facilityID)
}

func (s *Scheduler) emitOperationFailed(job *workshop.Job, op *workshop.Operation, result string) {
	s.emitOperation(events.EventOperationFailed, job, op, result)
}
