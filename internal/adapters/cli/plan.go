package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwaldron/shopfloor-go/internal/application/planning"
	"github.com/mwaldron/shopfloor-go/internal/domain/inventory"
	"github.com/mwaldron/shopfloor-go/internal/infrastructure/config"
	"github.com/mwaldron/shopfloor-go/internal/infrastructure/scenario"
)

// NewPlanCommand creates the plan command: resolve a goal against a
// scenario's stock and print the operation list without running anything.
func NewPlanCommand() *cobra.Command {
	var (
		scenarioPath string
		facilityID   string
		itemID       string
		quantity     float64
		tags         []string
		methodID     string
		repair       bool
		repairTags   []string
		maxQuality   float64
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan a goal and print its operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfigOrDefault(configPath)

			sc, cat, err := scenario.Load(scenarioPath)
			if err != nil {
				return err
			}

			var fspec *scenario.FacilitySpec
			for i := range sc.Facilities {
				if sc.Facilities[i].ID == facilityID {
					fspec = &sc.Facilities[i]
					break
				}
			}
			if fspec == nil {
				return fmt.Errorf("facility %s not in scenario", facilityID)
			}

			facility := inventory.New(fspec.ID, fspec.Capacity, cat.UnitWeight, nil)
			facility.SetBucketWidth(cfg.Planner.QualityBucketWidth)
			for _, stock := range fspec.Stock {
				stack, err := inventory.NewItemStack(stock.ItemID, inventory.NewTagSet(stock.Tags...), stock.Quality)
				if err != nil {
					return err
				}
				if err := facility.Add(stack, stock.Quantity); err != nil {
					return err
				}
			}

			goal := planning.Goal{
				TargetItemID: itemID,
				DesiredTags:  inventory.NewTagSet(tags...),
				Quantity:     quantity,
				MethodID:     methodID,
			}
			if repair {
				goal.Repair = &planning.RepairGoal{
					SourceTags: inventory.NewTagSet(repairTags...),
				}
				if maxQuality > 0 {
					goal.Repair.SourceMaxQuality = inventory.MaxQualityOf(maxQuality)
				}
			}

			gen := planning.NewGenerator(cat, policyFromConfig(cfg.Planner), nil)
			plan, err := gen.PlanGoal(goal, facility)
			if err != nil {
				return err
			}

			cmd.Printf("plan for %.1fx %s (%d operations)\n", quantity, itemID, len(plan.Operations))
			if plan.NeedsAssessment {
				cmd.Println("discovery-driven: operations after inspection depend on component condition")
			}
			for i, op := range plan.Operations {
				cmd.Printf("%2d. %-35s capability=%-18s duration=%.0fmin\n",
					i+1, op.Name(), op.Capability(), op.BaseDurationMinutes())
				for _, req := range op.Consumes() {
					cmd.Printf("      consumes %.1fx %s tags=%v\n", req.Count, req.ItemID, []string(req.Tags))
				}
				for _, out := range op.Produces() {
					cmd.Printf("      produces %.1fx %s tags=%v -> %s\n", out.Count, out.ItemID, []string(out.Tags), out.Target)
				}
			}

			missing := planning.Preflight(plan.Operations, facility)
			if len(missing) > 0 {
				cmd.Println("\npreflight shortfalls:")
				for _, m := range missing {
					cmd.Printf("  %s\n", m.String())
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&scenarioPath, "scenario", "", "Path to scenario YAML file")
	cmd.Flags().StringVar(&facilityID, "facility", "", "Facility whose stock the plan resolves against")
	cmd.Flags().StringVar(&itemID, "item", "", "Target item id")
	cmd.Flags().Float64Var(&quantity, "quantity", 1, "Target quantity")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "Desired tags on the final product")
	cmd.Flags().StringVar(&methodID, "method", "", "Explicit method id (default: item's default method)")
	cmd.Flags().BoolVar(&repair, "repair", false, "Plan a repair of an existing unit instead of a build")
	cmd.Flags().StringSliceVar(&repairTags, "repair-tags", nil, "Tags identifying the repair source unit")
	cmd.Flags().Float64Var(&maxQuality, "repair-max-quality", 0, "Quality ceiling for the repair source unit")
	_ = cmd.MarkFlagRequired("scenario")
	_ = cmd.MarkFlagRequired("facility")
	_ = cmd.MarkFlagRequired("item")

	return cmd
}
