package config

import "time"

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	// Database defaults
	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "shopfloor"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "shopfloor"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "shopfloor.db"
	}
	if cfg.Database.Pool.MaxOpen == 0 {
		cfg.Database.Pool.MaxOpen = 25
	}
	if cfg.Database.Pool.MaxIdle == 0 {
		cfg.Database.Pool.MaxIdle = 5
	}
	if cfg.Database.Pool.MaxLifetime == 0 {
		cfg.Database.Pool.MaxLifetime = 5 * time.Minute
	}

	// Simulation defaults
	if cfg.Simulation.TickInterval == 0 {
		cfg.Simulation.TickInterval = 1 * time.Second
	}
	if cfg.Simulation.HoursPerTick == 0 {
		cfg.Simulation.HoursPerTick = 0.25
	}
	if cfg.Simulation.Seed == 0 {
		cfg.Simulation.Seed = 1
	}
	if cfg.Simulation.HistorySize == 0 {
		cfg.Simulation.HistorySize = 50
	}

	// Planner defaults
	if cfg.Planner.KeepThreshold == 0 {
		cfg.Planner.KeepThreshold = 60
	}
	if cfg.Planner.ScrapThreshold == 0 {
		cfg.Planner.ScrapThreshold = 25
	}
	if cfg.Planner.ReplaceDisassemblyMinComponents == 0 {
		cfg.Planner.ReplaceDisassemblyMinComponents = 2
	}
	if cfg.Planner.ScrapTag == "" {
		cfg.Planner.ScrapTag = "scrap"
	}
	if cfg.Planner.QualityBucketWidth == 0 {
		cfg.Planner.QualityBucketWidth = 5
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
	if cfg.Logging.Rotation.MaxSize == 0 {
		cfg.Logging.Rotation.MaxSize = 100 // MB
	}
	if cfg.Logging.Rotation.MaxBackups == 0 {
		cfg.Logging.Rotation.MaxBackups = 3
	}
	if cfg.Logging.Rotation.MaxAge == 0 {
		cfg.Logging.Rotation.MaxAge = 28 // days
	}
}
