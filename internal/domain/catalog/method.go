package catalog

// FailureResult is the policy applied when an operation's failure roll
// comes up. Probabilistic failure is modeled state, not an error.
type FailureResult string

const (
	// FailureScrap - job inventory contents for the sub-path are discarded
	FailureScrap FailureResult = "scrap"

	// FailureDowngrade - output quality reduced, operation still completes
	FailureDowngrade FailureResult = "downgrade"

	// FailureWasted - consumed materials are not returned, item not produced
	FailureWasted FailureResult = "wasted_materials"
)

// OutputTarget selects where an operation's production is committed.
type OutputTarget string

const (
	// TargetJobInventory - intermediates invisible to other jobs until released
	TargetJobInventory OutputTarget = "job"

	// TargetFacilityInventory - final products visible facility-wide
	TargetFacilityInventory OutputTarget = "facility"
)

// QualityRange bounds the quality of an operation's output.
type QualityRange struct {
	Min float64 `mapstructure:"min" validate:"gte=0,lte=100"`
	Max float64 `mapstructure:"max" validate:"gte=0,lte=100,gtefield=Min"`
}

// Clamp bounds q to the range.
func (r QualityRange) Clamp(q float64) float64 {
	if q < r.Min {
		return r.Min
	}
	if q > r.Max {
		return r.Max
	}
	return q
}

// MaterialSpec is one consumption requirement of an operation: item identity
// plus optional tag-subset and quality-ceiling constraints. MaxQuality lets
// less-demanding steps accept rough stock while precision stock stays free.
type MaterialSpec struct {
	ItemID     string   `mapstructure:"item_id" validate:"required"`
	Tags       []string `mapstructure:"tags"`
	MaxQuality *float64 `mapstructure:"max_quality"`
	Count      float64  `mapstructure:"count" validate:"gt=0"`
}

// ProductSpec is one production entry of an operation.
type ProductSpec struct {
	ItemID  string       `mapstructure:"item_id" validate:"required"`
	Tags    []string     `mapstructure:"tags"`
	Count   float64      `mapstructure:"count" validate:"gt=0"`
	Quality QualityRange `mapstructure:"quality"`
	Target  OutputTarget `mapstructure:"target" validate:"omitempty,oneof=job facility"`
}

// OperationTemplate is one step of a manufacturing method. The workflow
// generator instantiates templates into scheduler operations, scaling counts
// by the job quantity.
type OperationTemplate struct {
	Name                string         `mapstructure:"name" validate:"required"`
	Capability          string         `mapstructure:"capability" validate:"required"`
	BaseDurationMinutes float64        `mapstructure:"base_duration_minutes" validate:"gt=0"`
	Consumes            []MaterialSpec `mapstructure:"consumes" validate:"dive"`
	Produces            []ProductSpec  `mapstructure:"produces" validate:"dive"`
	CanFail             bool           `mapstructure:"can_fail"`
	FailureChance       float64        `mapstructure:"failure_chance" validate:"gte=0,lte=1"`
	FailureResult       FailureResult  `mapstructure:"failure_result" validate:"omitempty,oneof=scrap downgrade wasted_materials"`
}

// Method is a named manufacturing recipe for a product: an ordered operation
// template list plus method-level quality and speed characteristics.
type Method struct {
	ID            string              `mapstructure:"id" validate:"required"`
	ProductID     string              `mapstructure:"product_id" validate:"required"`
	Name          string              `mapstructure:"name"`
	SpeedModifier float64             `mapstructure:"speed_modifier" validate:"gt=0"`
	OutputQuality QualityRange        `mapstructure:"output_quality"`
	Operations    []OperationTemplate `mapstructure:"operations" validate:"required,min=1,dive"`
}
