package planning

import "github.com/mwaldron/shopfloor-go/internal/domain/catalog"

// OperationParams configures a planner-emitted structural step
// (disassembly, inspection, repair assembly).
type OperationParams struct {
	Capability      string  `mapstructure:"capability" validate:"required"`
	DurationMinutes float64 `mapstructure:"duration_minutes" validate:"gt=0"`
}

// Treatment configures the reconditioning operation for one condition tag
// (e.g. corroded -> chemical treatment). The treatment consumes the tagged
// component and produces it with the tag removed at a restored quality.
type Treatment struct {
	OperationName   string               `mapstructure:"operation_name" validate:"required"`
	Capability      string               `mapstructure:"capability" validate:"required"`
	DurationMinutes float64              `mapstructure:"duration_minutes" validate:"gt=0"`
	RestoredQuality catalog.QualityRange `mapstructure:"restored_quality"`
	CanFail         bool                 `mapstructure:"can_fail"`
	FailureChance   float64              `mapstructure:"failure_chance" validate:"gte=0,lte=1"`
}

// Policy holds the planner's tunable constants. The keep/recondition/replace
// thresholds and per-tag treatments are configuration, never hard-coded in
// the algorithm.
type Policy struct {
	// KeepThreshold: components at or above it are reused unmodified.
	KeepThreshold float64 `mapstructure:"keep_threshold" validate:"gte=0,lte=100"`

	// ScrapThreshold: components strictly below it are replaced.
	// Between the thresholds the component is reconditioned.
	ScrapThreshold float64 `mapstructure:"scrap_threshold" validate:"gte=0,lte=100,ltefield=KeepThreshold"`

	// ReplaceDisassemblyMinComponents: a scrap-classified sub-assembly with
	// at least this many components is worth disassembling for parts instead
	// of scrapping outright. 0 disables nested disassembly.
	ReplaceDisassemblyMinComponents int `mapstructure:"replace_disassembly_min_components" validate:"gte=0"`

	// Treatments maps condition tags to their reconditioning operations.
	// A degraded component with no treatable tag falls through to replace.
	Treatments map[string]Treatment `mapstructure:"treatments" validate:"dive"`

	Disassembly OperationParams `mapstructure:"disassembly"`
	Inspection  OperationParams `mapstructure:"inspection"`
	Assembly    OperationParams `mapstructure:"assembly"`

	// AssemblyQuality bounds repair-assembly output quality. Build goals use
	// their method's declared range instead.
	AssemblyQuality catalog.QualityRange `mapstructure:"assembly_quality"`

	// ScrapTag marks replaced components returned to the facility.
	ScrapTag string `mapstructure:"scrap_tag"`
}

// DefaultPolicy returns the planner defaults used when configuration does
// not override them.
func DefaultPolicy() Policy {
	return Policy{
		KeepThreshold:                   60,
		ScrapThreshold:                  25,
		ReplaceDisassemblyMinComponents: 2,
		Treatments: map[string]Treatment{
			"corroded": {
				OperationName:   "Chemical Treatment",
				Capability:      "chemical_bath",
				DurationMinutes: 90,
				RestoredQuality: catalog.QualityRange{Min: 50, Max: 75},
			},
			"jammed": {
				OperationName:   "Cleaning and Reassembly",
				Capability:      "hand_tools",
				DurationMinutes: 60,
				RestoredQuality: catalog.QualityRange{Min: 55, Max: 80},
			},
			"worn": {
				OperationName:   "Surface Regrind",
				Capability:      "grinding",
				DurationMinutes: 75,
				RestoredQuality: catalog.QualityRange{Min: 45, Max: 70},
			},
		},
		Disassembly:     OperationParams{Capability: "hand_tools", DurationMinutes: 45},
		Inspection:      OperationParams{Capability: "inspection_bench", DurationMinutes: 30},
		Assembly:        OperationParams{Capability: "assembly_station", DurationMinutes: 120},
		AssemblyQuality: catalog.QualityRange{Min: 10, Max: 95},
		ScrapTag:        "scrap",
	}
}
