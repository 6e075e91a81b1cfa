package scenario

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/mwaldron/shopfloor-go/internal/domain/catalog"
)

// MachineSpec declares one machine slot in a facility.
type MachineSpec struct {
	ID          string  `mapstructure:"id" validate:"required"`
	EquipmentID string  `mapstructure:"equipment_id" validate:"required"`
	Condition   float64 `mapstructure:"condition" validate:"gte=0,lte=100"`
}

// StockSpec declares an initial inventory line.
type StockSpec struct {
	ItemID   string   `mapstructure:"item_id" validate:"required"`
	Tags     []string `mapstructure:"tags"`
	Quality  float64  `mapstructure:"quality" validate:"gte=0,lte=100"`
	Quantity float64  `mapstructure:"quantity" validate:"gt=0"`
}

// FacilitySpec declares one facility: its storage, machines and starting
// stock.
type FacilitySpec struct {
	ID       string        `mapstructure:"id" validate:"required"`
	Capacity float64       `mapstructure:"capacity"`
	Machines []MachineSpec `mapstructure:"machines" validate:"min=1,dive"`
	Stock    []StockSpec   `mapstructure:"stock" validate:"dive"`
}

// RepairSpec marks a goal as repair-driven and constrains which source units
// qualify.
type RepairSpec struct {
	SourceTags       []string `mapstructure:"source_tags"`
	SourceMaxQuality *float64 `mapstructure:"source_max_quality"`
}

// GoalSpec declares a goal submitted to a facility at a given game hour.
type GoalSpec struct {
	FacilityID string      `mapstructure:"facility_id" validate:"required"`
	ItemID     string      `mapstructure:"item_id" validate:"required"`
	Quantity   float64     `mapstructure:"quantity" validate:"gt=0"`
	Tags       []string    `mapstructure:"tags"`
	MethodID   string      `mapstructure:"method_id"`
	Rush       bool        `mapstructure:"rush"`
	AtHour     float64     `mapstructure:"at_hour" validate:"gte=0"`
	Repair     *RepairSpec `mapstructure:"repair"`
}

// Scenario is a complete simulation setup: the catalog definitions, the
// facilities and a timed goal script.
type Scenario struct {
	Name       string              `mapstructure:"name"`
	Equipment  []catalog.Equipment `mapstructure:"equipment" validate:"min=1,dive"`
	Items      []catalog.ItemDef   `mapstructure:"items" validate:"min=1,dive"`
	Methods    []catalog.Method    `mapstructure:"methods" validate:"dive"`
	Facilities []FacilitySpec      `mapstructure:"facilities" validate:"min=1,dive"`
	Goals      []GoalSpec          `mapstructure:"goals" validate:"dive"`
}

// Load reads a scenario file (YAML) and builds its catalog.
func Load(path string) (*Scenario, *catalog.Catalog, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("read scenario %s: %w", path, err)
	}

	var sc Scenario
	if err := v.Unmarshal(&sc); err != nil {
		return nil, nil, fmt.Errorf("unmarshal scenario %s: %w", path, err)
	}

	cat, err := catalog.New(sc.Equipment, sc.Items, sc.Methods)
	if err != nil {
		return nil, nil, fmt.Errorf("scenario catalog: %w", err)
	}
	return &sc, cat, nil
}
