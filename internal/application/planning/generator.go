package planning

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/mwaldron/shopfloor-go/internal/domain/catalog"
	"github.com/mwaldron/shopfloor-go/internal/domain/inventory"
	"github.com/mwaldron/shopfloor-go/internal/domain/workshop"
)

// Generator translates goals into ordered operation lists, consulting the
// inventory ledger for what already exists and the catalog for how to make
// what does not. Build goals are planned fully up front (backwards from the
// target); repair goals are planned in two phases, because the source item's
// internal condition is unknown until disassembly and inspection reveal it.
type Generator struct {
	catalog *catalog.Catalog
	policy  Policy
	logger  *zap.Logger
}

// NewGenerator creates a workflow generator. logger may be nil.
func NewGenerator(cat *catalog.Catalog, policy Policy, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{catalog: cat, policy: policy, logger: logger}
}

// Policy exposes the planner's active policy constants.
func (g *Generator) Policy() Policy { return g.policy }

// PlanGoal produces the operation list for a goal against current facility
// stock. Infeasible goals fail here, before any job is queued.
func (g *Generator) PlanGoal(goal Goal, facility *inventory.Inventory) (*Plan, error) {
	if goal.Quantity <= 0 {
		return nil, fmt.Errorf("goal quantity must be positive, got %.2f", goal.Quantity)
	}
	if _, err := g.catalog.Item(goal.TargetItemID); err != nil {
		return nil, fmt.Errorf("plan goal: %w", err)
	}
	if goal.Repair != nil {
		return g.planRepair(goal, facility)
	}
	return g.planBuild(goal, facility)
}

// planRepair emits the mandatory discovery prefix: disassemble the source,
// then inspect what came out. The repair-or-replace tail and the final
// assembly are generated from the assessment, not pre-committed.
func (g *Generator) planRepair(goal Goal, facility *inventory.Inventory) (*Plan, error) {
	def, err := g.catalog.Item(goal.TargetItemID)
	if err != nil {
		return nil, err
	}
	if !def.IsAssembly() {
		return nil, &ErrUnresolvableGoal{
			TargetItemID: goal.TargetItemID,
			Missing: []MissingMaterial{{
				ItemID:   goal.TargetItemID,
				Required: goal.Quantity,
				Reason:   "not an assembly: nothing to disassemble",
			}},
		}
	}

	filter := inventory.Filter{Tags: goal.Repair.SourceTags, MaxQuality: goal.Repair.SourceMaxQuality}
	available := facility.Available(goal.TargetItemID, filter)
	if available+netEpsilon < goal.Quantity {
		return nil, &ErrUnresolvableGoal{
			TargetItemID: goal.TargetItemID,
			Missing: []MissingMaterial{{
				ItemID:    goal.TargetItemID,
				Tags:      goal.Repair.SourceTags,
				Required:  goal.Quantity,
				Available: available,
				Reason:    "repair source not in stock",
			}},
		}
	}

	subject := &workshop.SubjectInfo{
		ItemID: goal.TargetItemID,
		Count:  goal.Quantity,
		Tags:   goal.DesiredTags,
		Final:  true,
	}
	ops := []*workshop.Operation{
		workshop.NewOperation(workshop.OperationSpec{
			Name:                "Disassemble " + itemLabel(def),
			Kind:                workshop.OpKindDisassembly,
			Capability:          g.policy.Disassembly.Capability,
			BaseDurationMinutes: g.policy.Disassembly.DurationMinutes * goal.Quantity,
			Consumes: []workshop.MaterialRequirement{{
				ItemID:     goal.TargetItemID,
				Tags:       goal.Repair.SourceTags,
				MaxQuality: goal.Repair.SourceMaxQuality,
				Count:      goal.Quantity,
			}},
			Subject: subject,
		}),
		workshop.NewOperation(workshop.OperationSpec{
			Name:                "Inspect " + itemLabel(def) + " Components",
			Kind:                workshop.OpKindInspection,
			Capability:          g.policy.Inspection.Capability,
			BaseDurationMinutes: g.policy.Inspection.DurationMinutes * goal.Quantity,
			Subject:             subject,
		}),
	}

	g.logger.Debug("planned repair prefix",
		zap.String("item", goal.TargetItemID),
		zap.Float64("quantity", goal.Quantity))

	return &Plan{Goal: goal, Operations: ops, NeedsAssessment: true}, nil
}

// buildState tracks virtual stock movement while a build plan unwinds, so
// two requirements never claim the same physical unit and in-plan production
// offsets later consumption.
type buildState struct {
	consumed map[string]float64
	produced map[string]float64
	visited  map[string]bool
	missing  []MissingMaterial
}

func newBuildState() *buildState {
	return &buildState{
		consumed: make(map[string]float64),
		produced: make(map[string]float64),
		visited:  make(map[string]bool),
	}
}

func reqKey(itemID string, tags inventory.TagSet) string {
	return itemID + "|" + tags.Key()
}

// planBuild decomposes the target backwards: walk the chosen method's
// requirements, stop recursion at stock the ledger already has, recurse into
// default methods for the shortfall, and fail with the full missing list if
// any leaf is raw and unavailable.
func (g *Generator) planBuild(goal Goal, facility *inventory.Inventory) (*Plan, error) {
	st := newBuildState()
	ops, err := g.buildOps(goal.TargetItemID, goal.DesiredTags, goal.Quantity, goal.MethodID, facility, st, true)
	if err != nil {
		return nil, err
	}
	if len(st.missing) > 0 {
		sort.Slice(st.missing, func(i, j int) bool { return st.missing[i].ItemID < st.missing[j].ItemID })
		return nil, &ErrUnresolvableGoal{TargetItemID: goal.TargetItemID, Missing: st.missing}
	}

	methodID := goal.MethodID
	if methodID == "" {
		if m, err := g.catalog.DefaultMethodFor(goal.TargetItemID); err == nil {
			methodID = m.ID
		}
	}

	g.logger.Debug("planned build",
		zap.String("item", goal.TargetItemID),
		zap.Float64("quantity", goal.Quantity),
		zap.Int("operations", len(ops)))

	return &Plan{Goal: goal, MethodID: methodID, Operations: ops}, nil
}

func (g *Generator) buildOps(itemID string, desiredTags inventory.TagSet, qty float64, methodID string, facility *inventory.Inventory, st *buildState, final bool) ([]*workshop.Operation, error) {
	if st.visited[itemID] {
		st.missing = append(st.missing, MissingMaterial{
			ItemID:   itemID,
			Required: qty,
			Reason:   "cyclic production chain",
		})
		return nil, nil
	}

	var method *catalog.Method
	var err error
	if methodID != "" {
		method, err = g.catalog.Method(methodID)
	} else {
		method, err = g.catalog.DefaultMethodFor(itemID)
	}
	if err != nil {
		st.missing = append(st.missing, MissingMaterial{
			ItemID:   itemID,
			Required: qty,
			Reason:   "no manufacturing method",
		})
		return nil, nil
	}

	st.visited[itemID] = true
	defer delete(st.visited, itemID)

	var ops []*workshop.Operation
	for i, tmpl := range method.Operations {
		last := i == len(method.Operations)-1

		// Resolve this step's requirements before the step itself: stock
		// first, then in-plan production, then recursive manufacture.
		for _, mat := range tmpl.Consumes {
			need := mat.Count * qty
			tags := inventory.NewTagSet(mat.Tags...)
			key := reqKey(mat.ItemID, tags)
			have := facility.Available(mat.ItemID, inventory.Filter{Tags: tags, MaxQuality: mat.MaxQuality}) +
				st.produced[key] - st.consumed[key]
			if have < 0 {
				have = 0
			}
			st.consumed[key] += need
			if have+netEpsilon >= need {
				continue
			}
			shortfall := need - have
			subOps, err := g.buildOps(mat.ItemID, tags, shortfall, "", facility, st, false)
			if err != nil {
				return nil, err
			}
			ops = append(ops, subOps...)
		}

		op := g.instantiateTemplate(method, tmpl, qty, final && last, desiredTags)
		for _, out := range op.Produces() {
			st.produced[reqKey(out.ItemID, out.Tags)] += out.Count
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// instantiateTemplate scales a method template by the job quantity and the
// method's speed modifier. Output target defaults to the job inventory for
// intermediates and the facility for the plan's final product.
func (g *Generator) instantiateTemplate(method *catalog.Method, tmpl catalog.OperationTemplate, qty float64, finalOp bool, desiredTags inventory.TagSet) *workshop.Operation {
	speed := method.SpeedModifier
	if speed <= 0 {
		speed = 1
	}
	consumes := make([]workshop.MaterialRequirement, 0, len(tmpl.Consumes))
	for _, mat := range tmpl.Consumes {
		consumes = append(consumes, workshop.MaterialRequirement{
			ItemID:     mat.ItemID,
			Tags:       inventory.NewTagSet(mat.Tags...),
			MaxQuality: mat.MaxQuality,
			Count:      mat.Count * qty,
		})
	}
	produces := make([]workshop.MaterialOutput, 0, len(tmpl.Produces))
	for _, out := range tmpl.Produces {
		tags := inventory.NewTagSet(out.Tags...)
		target := out.Target
		if target == "" {
			target = catalog.TargetJobInventory
		}
		quality := out.Quality
		if finalOp {
			tags = tags.With(desiredTags...)
			if target == catalog.TargetJobInventory && out.Target == "" {
				target = catalog.TargetFacilityInventory
			}
			// Method-level output range governs the plan's final product.
			quality = method.OutputQuality
		}
		produces = append(produces, workshop.MaterialOutput{
			ItemID:  out.ItemID,
			Tags:    tags,
			Count:   out.Count * qty,
			Quality: quality,
			Target:  target,
		})
	}
	return workshop.NewOperation(workshop.OperationSpec{
		Name:                tmpl.Name,
		Capability:          tmpl.Capability,
		BaseDurationMinutes: tmpl.BaseDurationMinutes * qty / speed,
		Consumes:            consumes,
		Produces:            produces,
		CanFail:             tmpl.CanFail,
		FailureChance:       tmpl.FailureChance,
		FailureResult:       tmpl.FailureResult,
	})
}

// Expansion is the discovery-driven plan tail generated from an assessment.
// Operations are inserted directly after the triggering inspection; Scrap
// lists replaced components the scheduler moves out of the job inventory.
type Expansion struct {
	Operations []*workshop.Operation
	Scrap      []ComponentAssessment
}

// ExpandAssessment turns an inspection result into the repair-or-replace
// tail for the inspected subject: per component keep (nothing), recondition
// (tag-matched treatment), or replace (nested disassembly when economically
// justified, else scrap-out plus a manufacture sub-chain), followed by the
// subject's assembly consuming the full post-treatment component set.
func (g *Generator) ExpandAssessment(subject workshop.SubjectInfo, assessments []ComponentAssessment, facility *inventory.Inventory) (*Expansion, error) {
	def, err := g.catalog.Item(subject.ItemID)
	if err != nil {
		return nil, err
	}

	sorted := make([]ComponentAssessment, len(assessments))
	copy(sorted, assessments)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].ItemID != sorted[j].ItemID {
			return sorted[i].ItemID < sorted[j].ItemID
		}
		return sorted[i].Tags.Key() < sorted[j].Tags.Key()
	})

	exp := &Expansion{}
	for _, a := range sorted {
		outcome := g.policy.Classify(a)
		g.logger.Debug("assessed component",
			zap.String("item", a.ItemID),
			zap.Float64("quality", a.Quality),
			zap.String("outcome", string(outcome)))

		switch outcome {
		case OutcomeKeep:
			// Reused as-is; the assembly will pick it up from the job inventory.

		case OutcomeRecondition:
			exp.Operations = append(exp.Operations, g.treatmentOp(a))

		case OutcomeReplace:
			compDef, err := g.catalog.Item(a.ItemID)
			if err != nil {
				return nil, err
			}
			if g.nestedDisassemblyJustified(compDef) {
				exp.Operations = append(exp.Operations, g.nestedDiscoveryOps(a)...)
				continue
			}
			exp.Scrap = append(exp.Scrap, a)
			st := newBuildState()
			subOps, err := g.buildOps(a.ItemID, nil, a.Count, "", facility, st, false)
			if err != nil {
				return nil, err
			}
			if len(st.missing) > 0 {
				// Mid-execution there is no way to reject the job; the
				// assembly will block on the missing component until stock
				// appears or the operator cancels.
				g.logger.Warn("replacement not producible, relying on stock",
					zap.String("item", a.ItemID),
					zap.String("detail", st.missing[0].Reason))
			}
			exp.Operations = append(exp.Operations, subOps...)
		}
	}

	exp.Operations = append(exp.Operations, g.assemblyOp(def, subject))
	return exp, nil
}

func (g *Generator) nestedDisassemblyJustified(def *catalog.ItemDef) bool {
	min := g.policy.ReplaceDisassemblyMinComponents
	return min > 0 && def.IsAssembly() && len(def.Components) >= min
}

func (g *Generator) treatmentOp(a ComponentAssessment) *workshop.Operation {
	tag, _ := g.policy.treatmentFor(a.Tags)
	t := g.policy.Treatments[tag]
	failure := catalog.FailureResult("")
	if t.CanFail {
		failure = catalog.FailureDowngrade
	}
	return workshop.NewOperation(workshop.OperationSpec{
		Name:                t.OperationName + ": " + a.ItemID,
		Capability:          t.Capability,
		BaseDurationMinutes: t.DurationMinutes * a.Count,
		Consumes: []workshop.MaterialRequirement{{
			ItemID: a.ItemID,
			Tags:   a.Tags,
			Count:  a.Count,
		}},
		Produces: []workshop.MaterialOutput{{
			ItemID:  a.ItemID,
			Tags:    a.Tags.Without(tag),
			Count:   a.Count,
			Quality: t.RestoredQuality,
			Target:  catalog.TargetJobInventory,
		}},
		CanFail:       t.CanFail,
		FailureChance: t.FailureChance,
		FailureResult: failure,
	})
}

// nestedDiscoveryOps emits disassembly + inspection for a scrap-classified
// sub-assembly worth mining for parts. Completion of the nested inspection
// re-enters ExpandAssessment with the sub-assembly as subject.
func (g *Generator) nestedDiscoveryOps(a ComponentAssessment) []*workshop.Operation {
	subject := &workshop.SubjectInfo{ItemID: a.ItemID, Count: a.Count}
	return []*workshop.Operation{
		workshop.NewOperation(workshop.OperationSpec{
			Name:                "Disassemble " + a.ItemID,
			Kind:                workshop.OpKindDisassembly,
			Capability:          g.policy.Disassembly.Capability,
			BaseDurationMinutes: g.policy.Disassembly.DurationMinutes * a.Count,
			Consumes: []workshop.MaterialRequirement{{
				ItemID: a.ItemID,
				Tags:   a.Tags,
				Count:  a.Count,
			}},
			Subject: subject,
		}),
		workshop.NewOperation(workshop.OperationSpec{
			Name:                "Inspect " + a.ItemID + " Components",
			Kind:                workshop.OpKindInspection,
			Capability:          g.policy.Inspection.Capability,
			BaseDurationMinutes: g.policy.Inspection.DurationMinutes * a.Count,
			Subject:             subject,
		}),
	}
}

// assemblyOp closes a repair: consume the subject's full component set (post
// treatment) and produce the subject. Output quality is the minimum consumed
// component quality clamped to the policy's assembly range.
func (g *Generator) assemblyOp(def *catalog.ItemDef, subject workshop.SubjectInfo) *workshop.Operation {
	consumes := make([]workshop.MaterialRequirement, 0, len(def.Components))
	for _, comp := range def.Components {
		consumes = append(consumes, workshop.MaterialRequirement{
			ItemID: comp.ItemID,
			Count:  comp.Count * subject.Count,
		})
	}
	target := catalog.TargetJobInventory
	if subject.Final {
		target = catalog.TargetFacilityInventory
	}
	return workshop.NewOperation(workshop.OperationSpec{
		Name:                "Assemble " + itemLabel(def),
		Kind:                workshop.OpKindAssembly,
		Capability:          g.policy.Assembly.Capability,
		BaseDurationMinutes: g.policy.Assembly.DurationMinutes * subject.Count,
		Consumes:            consumes,
		Produces: []workshop.MaterialOutput{{
			ItemID:  subject.ItemID,
			Tags:    subject.Tags,
			Count:   subject.Count,
			Quality: g.policy.AssemblyQuality,
			Target:  target,
		}},
	})
}

func itemLabel(def *catalog.ItemDef) string {
	if def.Name != "" {
		return def.Name
	}
	return def.ID
}
