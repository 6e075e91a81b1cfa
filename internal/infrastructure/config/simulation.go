package config

import "time"

// SimulationConfig holds the game clock and determinism settings
type SimulationConfig struct {
	// Real time between ticks when running the daemon loop
	TickInterval time.Duration `mapstructure:"tick_interval"`

	// Game hours that pass per tick
	HoursPerTick float64 `mapstructure:"hours_per_tick" validate:"gt=0"`

	// Seed for the condition sampler; the same seed reproduces a run
	Seed int64 `mapstructure:"seed"`

	// Completed/failed jobs retained per facility
	HistorySize int `mapstructure:"history_size" validate:"min=1"`
}
