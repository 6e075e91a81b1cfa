package config

// PlannerConfig overrides the workflow generator's policy constants.
// Zero values fall back to the planner defaults.
type PlannerConfig struct {
	// Components at or above this quality are reused unmodified
	KeepThreshold float64 `mapstructure:"keep_threshold" validate:"gte=0,lte=100"`

	// Components strictly below this quality are replaced
	ScrapThreshold float64 `mapstructure:"scrap_threshold" validate:"gte=0,lte=100"`

	// Minimum component count for a scrapped sub-assembly to be worth
	// disassembling for parts (0 disables nested disassembly)
	ReplaceDisassemblyMinComponents int `mapstructure:"replace_disassembly_min_components" validate:"gte=0"`

	// Tag attached to replaced components returned to the facility
	ScrapTag string `mapstructure:"scrap_tag"`

	// Quality bucket width for inventory stacking
	QualityBucketWidth float64 `mapstructure:"quality_bucket_width" validate:"gte=0"`
}
