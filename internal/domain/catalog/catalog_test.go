package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwaldron/shopfloor-go/internal/domain/catalog"
)

func validDefinitions() ([]catalog.Equipment, []catalog.ItemDef, []catalog.Method) {
	equipment := []catalog.Equipment{
		{ID: "lathe", Name: "Lathe", Capabilities: []string{"turning"}, BaseEfficiency: 1.0},
	}
	items := []catalog.ItemDef{
		{ID: "steel_rod", Name: "Steel Rod"},
		{ID: "gear", Name: "Gear", DefaultMethodID: "gear_turning",
			Components: []catalog.ComponentSpec{{ItemID: "steel_rod", Count: 1}}},
	}
	methods := []catalog.Method{
		{
			ID: "gear_turning", ProductID: "gear", SpeedModifier: 1,
			OutputQuality: catalog.QualityRange{Min: 60, Max: 90},
			Operations: []catalog.OperationTemplate{
				{
					Name: "Turn Gear", Capability: "turning", BaseDurationMinutes: 45,
					Consumes: []catalog.MaterialSpec{{ItemID: "steel_rod", Count: 1}},
					Produces: []catalog.ProductSpec{{ItemID: "gear", Count: 1,
						Quality: catalog.QualityRange{Min: 60, Max: 90}}},
				},
			},
		},
	}
	return equipment, items, methods
}

func TestCatalog_NewValidatesAndResolves(t *testing.T) {
	equipment, items, methods := validDefinitions()

	cat, err := catalog.New(equipment, items, methods)
	require.NoError(t, err)

	equip, err := cat.Equipment("lathe")
	require.NoError(t, err)
	assert.True(t, equip.HasCapability("turning"))
	assert.False(t, equip.HasCapability("welding"))

	item, err := cat.Item("gear")
	require.NoError(t, err)
	assert.True(t, item.IsAssembly())

	raw, err := cat.Item("steel_rod")
	require.NoError(t, err)
	assert.True(t, raw.IsRaw())

	method, err := cat.DefaultMethodFor("gear")
	require.NoError(t, err)
	assert.Equal(t, "gear_turning", method.ID)
}

func TestCatalog_RejectsDanglingComponentReference(t *testing.T) {
	equipment, items, methods := validDefinitions()
	items[1].Components = []catalog.ComponentSpec{{ItemID: "unobtainium", Count: 1}}

	_, err := catalog.New(equipment, items, methods)
	assert.ErrorContains(t, err, "unknown item")
}

func TestCatalog_RejectsDefaultMethodForOtherProduct(t *testing.T) {
	equipment, items, methods := validDefinitions()
	items[0].DefaultMethodID = "gear_turning" // steel_rod claiming gear's method

	_, err := catalog.New(equipment, items, methods)
	assert.ErrorContains(t, err, "produces")
}

func TestCatalog_RejectsDuplicateIDs(t *testing.T) {
	equipment, items, methods := validDefinitions()
	items = append(items, catalog.ItemDef{ID: "gear"})

	_, err := catalog.New(equipment, items, methods)
	assert.ErrorContains(t, err, "duplicate item")
}

func TestCatalog_UnknownLookupsReturnTypedErrors(t *testing.T) {
	equipment, items, methods := validDefinitions()
	cat, err := catalog.New(equipment, items, methods)
	require.NoError(t, err)

	_, err = cat.Item("nope")
	var unknownItem *catalog.ErrUnknownItem
	assert.ErrorAs(t, err, &unknownItem)

	_, err = cat.Method("nope")
	var unknownMethod *catalog.ErrUnknownMethod
	assert.ErrorAs(t, err, &unknownMethod)

	_, err = cat.Equipment("nope")
	var unknownEquipment *catalog.ErrUnknownEquipment
	assert.ErrorAs(t, err, &unknownEquipment)
}

func TestCatalog_UnitWeightDefaultsToOne(t *testing.T) {
	equipment, items, methods := validDefinitions()
	items[0].UnitWeight = 2.5
	cat, err := catalog.New(equipment, items, methods)
	require.NoError(t, err)

	assert.InDelta(t, 2.5, cat.UnitWeight("steel_rod"), 1e-9)
	assert.InDelta(t, 1.0, cat.UnitWeight("gear"), 1e-9)
	assert.InDelta(t, 1.0, cat.UnitWeight("unknown"), 1e-9)
}
