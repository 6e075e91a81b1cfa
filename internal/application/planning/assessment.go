package planning

import (
	"github.com/mwaldron/shopfloor-go/internal/domain/inventory"
)

// Outcome is the three-way classification of an inspected component.
type Outcome string

const (
	// OutcomeKeep - quality at or above the usability threshold, reused as-is
	OutcomeKeep Outcome = "keep"

	// OutcomeRecondition - degraded but treatable via its condition tag
	OutcomeRecondition Outcome = "recondition"

	// OutcomeReplace - scrap quality, or degraded with no applicable treatment
	OutcomeReplace Outcome = "replace"
)

// ComponentAssessment is the inspection result for one discovered
// sub-component: its real identity, condition tags and measured quality.
type ComponentAssessment struct {
	ItemID  string
	Tags    inventory.TagSet
	Quality float64
	Count   float64
}

// Classify applies the policy thresholds to an assessed component.
// A component between the thresholds is only reconditionable when one of its
// tags has a configured treatment; otherwise it falls through to replace.
func (p Policy) Classify(a ComponentAssessment) Outcome {
	if a.Quality >= p.KeepThreshold {
		return OutcomeKeep
	}
	if a.Quality >= p.ScrapThreshold {
		if _, ok := p.treatmentFor(a.Tags); ok {
			return OutcomeRecondition
		}
	}
	return OutcomeReplace
}

// treatmentFor finds the first of the component's tags with a configured
// treatment. Tag sets are canonical (sorted), so the choice is deterministic.
func (p Policy) treatmentFor(tags inventory.TagSet) (conditionTag string, ok bool) {
	for _, tag := range tags {
		if _, exists := p.Treatments[tag]; exists {
			return tag, true
		}
	}
	return "", false
}
