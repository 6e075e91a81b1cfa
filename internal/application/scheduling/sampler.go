package scheduling

import (
	"math/rand"

	"github.com/mwaldron/shopfloor-go/internal/domain/inventory"
)

// ComponentCondition is the revealed state of one disassembled component.
type ComponentCondition struct {
	Quality float64
	Tags    inventory.TagSet
}

// Sampler is the scheduler's only source of randomness: component condition
// discovery at disassembly and failure rolls on risky operations. Injecting
// it keeps every tick reproducible under a seeded implementation.
type Sampler interface {
	// SampleComponent reveals the condition of one component pulled out of a
	// subject whose overall quality is subjectQuality.
	SampleComponent(subjectItemID, componentItemID string, subjectQuality float64) ComponentCondition

	// RollFailure decides whether an operation with the given failure chance
	// fails this run.
	RollFailure(chance float64) bool
}

// conditionTags are the degradation modes a component can surface with.
// They line up with the default treatment table, plus "damaged" which has
// no treatment and forces replacement.
var conditionTags = []string{"corroded", "jammed", "worn", "damaged"}

// randomSampler derives component conditions from the subject's quality with
// seeded jitter: a worn-out gearbox mostly yields worn-out gears.
type randomSampler struct {
	rng *rand.Rand
}

// NewSampler returns the default seeded sampler. The same seed against the
// same tick sequence reproduces the same run.
func NewSampler(seed int64) Sampler {
	return &randomSampler{rng: rand.New(rand.NewSource(seed))}
}

func (s *randomSampler) SampleComponent(subjectItemID, componentItemID string, subjectQuality float64) ComponentCondition {
	// Jitter of +/-20 around the subject quality, clamped to the scale.
	quality := inventory.ClampQuality(subjectQuality + (s.rng.Float64()*40 - 20))

	var tags inventory.TagSet
	if quality < 60 {
		tags = inventory.NewTagSet(conditionTags[s.rng.Intn(len(conditionTags))])
	}
	return ComponentCondition{Quality: quality, Tags: tags}
}

func (s *randomSampler) RollFailure(chance float64) bool {
	if chance <= 0 {
		return false
	}
	return s.rng.Float64() < chance
}
