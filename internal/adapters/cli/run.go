package cli

import (
	"context"
	"fmt"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mwaldron/shopfloor-go/internal/adapters/persistence"
	"github.com/mwaldron/shopfloor-go/internal/application/eventbus"
	"github.com/mwaldron/shopfloor-go/internal/application/planning"
	"github.com/mwaldron/shopfloor-go/internal/application/scheduling"
	"github.com/mwaldron/shopfloor-go/internal/domain/catalog"
	"github.com/mwaldron/shopfloor-go/internal/domain/inventory"
	"github.com/mwaldron/shopfloor-go/internal/domain/workshop"
	"github.com/mwaldron/shopfloor-go/internal/infrastructure/config"
	"github.com/mwaldron/shopfloor-go/internal/infrastructure/database"
	"github.com/mwaldron/shopfloor-go/internal/infrastructure/logging"
	"github.com/mwaldron/shopfloor-go/internal/infrastructure/scenario"
)

// NewRunCommand creates the run command: drive a scenario through the
// simulation at the configured tick rate.
func NewRunCommand() *cobra.Command {
	var (
		scenarioPath string
		hours        float64
		persist      bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a scenario through the simulation",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.MustLoadConfig(configPath)
			if verbose {
				cfg.Logging.Level = "debug"
				cfg.Logging.Format = "text"
			}
			logger := logging.MustLogger(cfg.Logging)
			defer func() { _ = logger.Sync() }()

			sc, cat, err := scenario.Load(scenarioPath)
			if err != nil {
				return err
			}

			bus := eventbus.New()
			sim, err := buildSimulation(sc, cat, cfg, bus, logger)
			if err != nil {
				return err
			}

			if persist {
				db, err := database.NewConnection(&cfg.Database)
				if err != nil {
					return fmt.Errorf("open database: %w", err)
				}
				defer func() { _ = database.Close(db) }()
				if err := database.AutoMigrate(db); err != nil {
					return fmt.Errorf("migrate database: %w", err)
				}
				recorder := persistence.NewRecorder(
					persistence.NewGormEventLogRepository(db, nil),
					persistence.NewGormJobHistoryRepository(db, nil),
					sim, logger)
				detach := recorder.Attach(bus)
				defer detach()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := runScenario(ctx, sim, sc, cfg, logger, hours); err != nil {
				return err
			}
			printSummary(cmd, sim)
			return nil
		},
	}

	cmd.Flags().StringVar(&scenarioPath, "scenario", "", "Path to scenario YAML file")
	cmd.Flags().Float64Var(&hours, "hours", 24, "Game hours to simulate")
	cmd.Flags().BoolVar(&persist, "persist", false, "Record events and job history to the database")
	_ = cmd.MarkFlagRequired("scenario")

	return cmd
}

// buildSimulation assembles facilities, schedulers and inventories from a
// scenario against one shared event bus.
func buildSimulation(sc *scenario.Scenario, cat *catalog.Catalog, cfg *config.Config, bus *eventbus.Bus, logger *zap.Logger) (*scheduling.Simulation, error) {
	policy := policyFromConfig(cfg.Planner)
	gen := planning.NewGenerator(cat, policy, logger)
	sim := scheduling.NewSimulation(logger)

	for _, fspec := range sc.Facilities {
		facility := inventory.New(fspec.ID, fspec.Capacity, cat.UnitWeight, bus)
		facility.SetBucketWidth(cfg.Planner.QualityBucketWidth)
		for _, stock := range fspec.Stock {
			stack, err := inventory.NewItemStack(stock.ItemID, inventory.NewTagSet(stock.Tags...), stock.Quality)
			if err != nil {
				return nil, fmt.Errorf("facility %s initial stock: %w", fspec.ID, err)
			}
			if err := facility.Add(stack, stock.Quantity); err != nil {
				return nil, fmt.Errorf("facility %s initial stock: %w", fspec.ID, err)
			}
		}

		ws := workshop.NewWorkspace(fspec.ID, cfg.Simulation.HistorySize)
		for _, mspec := range fspec.Machines {
			if _, err := cat.Equipment(mspec.EquipmentID); err != nil {
				return nil, fmt.Errorf("facility %s machine %s: %w", fspec.ID, mspec.ID, err)
			}
			condition := mspec.Condition
			if condition == 0 {
				condition = 100
			}
			ws.AddMachine(workshop.NewMachineSlot(mspec.ID, mspec.EquipmentID, condition))
		}

		sampler := scheduling.NewSampler(cfg.Simulation.Seed)
		sched := scheduling.NewScheduler(cat, gen, ws, facility, bus, sampler, logger)
		if err := sim.AddFacility(sched); err != nil {
			return nil, err
		}
	}
	return sim, nil
}

// runScenario ticks the simulation at the configured pace, submitting each
// scripted goal once its scheduled game hour arrives.
func runScenario(ctx context.Context, sim *scheduling.Simulation, sc *scenario.Scenario, cfg *config.Config, logger *zap.Logger, hours float64) error {
	pending := make([]scenario.GoalSpec, len(sc.Goals))
	copy(pending, sc.Goals)
	sort.SliceStable(pending, func(i, j int) bool { return pending[i].AtHour < pending[j].AtHour })

	limiter := rate.NewLimiter(rate.Every(cfg.Simulation.TickInterval), 1)
	for sim.GameTime() < hours {
		if err := limiter.Wait(ctx); err != nil {
			logger.Info("run interrupted", zap.Float64("game_time", sim.GameTime()))
			return nil
		}

		for len(pending) > 0 && pending[0].AtHour <= sim.GameTime() {
			spec := pending[0]
			pending = pending[1:]
			if err := submitGoal(sim, spec); err != nil {
				logger.Warn("goal rejected",
					zap.String("facility", spec.FacilityID),
					zap.String("item", spec.ItemID),
					zap.Error(err))
			}
		}

		sim.Tick(cfg.Simulation.HoursPerTick)
	}
	return nil
}

func submitGoal(sim *scheduling.Simulation, spec scenario.GoalSpec) error {
	sched, err := sim.Facility(spec.FacilityID)
	if err != nil {
		return err
	}
	goal := planning.Goal{
		TargetItemID: spec.ItemID,
		DesiredTags:  inventory.NewTagSet(spec.Tags...),
		Quantity:     spec.Quantity,
		MethodID:     spec.MethodID,
	}
	if spec.Repair != nil {
		goal.Repair = &planning.RepairGoal{
			SourceTags:       inventory.NewTagSet(spec.Repair.SourceTags...),
			SourceMaxQuality: spec.Repair.SourceMaxQuality,
		}
	}
	_, err = sched.StartJob(goal, spec.Rush)
	return err
}

func printSummary(cmd *cobra.Command, sim *scheduling.Simulation) {
	cmd.Printf("simulation finished at game hour %.1f\n", sim.GameTime())
	for _, sched := range sim.Facilities() {
		ws := sched.Workspace()
		cmd.Printf("\nfacility %s\n", sched.FacilityID())
		for _, job := range ws.ActiveJobs() {
			cmd.Printf("  active   %s\n", job)
		}
		for _, job := range ws.CompletedJobs() {
			cmd.Printf("  archived %s\n", job)
		}
		cmd.Printf("  stock:\n")
		for _, c := range sched.Facility().Contents() {
			cmd.Printf("    %-20s tags=%v quality=%.1f qty=%.1f\n",
				c.Stack.BaseItemID, []string(c.Stack.Tags), c.Stack.Quality, c.Quantity)
		}
	}
}

// policyFromConfig overlays configured planner constants on the defaults.
func policyFromConfig(pc config.PlannerConfig) planning.Policy {
	policy := planning.DefaultPolicy()
	if pc.KeepThreshold > 0 {
		policy.KeepThreshold = pc.KeepThreshold
	}
	if pc.ScrapThreshold > 0 {
		policy.ScrapThreshold = pc.ScrapThreshold
	}
	if pc.ReplaceDisassemblyMinComponents > 0 {
		policy.ReplaceDisassemblyMinComponents = pc.ReplaceDisassemblyMinComponents
	}
	if pc.ScrapTag != "" {
		policy.ScrapTag = pc.ScrapTag
	}
	return policy
}
