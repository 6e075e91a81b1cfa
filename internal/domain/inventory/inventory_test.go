package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwaldron/shopfloor-go/internal/domain/inventory"
)

func stack(t *testing.T, itemID string, tags inventory.TagSet, quality float64) inventory.ItemStack {
	t.Helper()
	s, err := inventory.NewItemStack(itemID, tags, quality)
	require.NoError(t, err)
	return s
}

func TestInventory_AddMergesFungibleStacks(t *testing.T) {
	// Arrange
	inv := inventory.New("facility-1", 0, nil, nil)

	// Act - same item, same tags, same quality bucket (width 5)
	require.NoError(t, inv.Add(stack(t, "gear", nil, 81), 3))
	require.NoError(t, inv.Add(stack(t, "gear", nil, 83), 2))

	// Assert - one slot, quantity-weighted quality
	slots := inv.Slots()
	require.Len(t, slots, 1)
	assert.InDelta(t, 5.0, slots[0].Quantity(), 1e-9)
	assert.InDelta(t, 81.8, slots[0].Quality(), 1e-9)
}

func TestInventory_DifferentTagsNeverMerge(t *testing.T) {
	inv := inventory.New("facility-1", 0, nil, nil)

	require.NoError(t, inv.Add(stack(t, "gear", inventory.NewTagSet("worn"), 50), 1))
	require.NoError(t, inv.Add(stack(t, "gear", nil, 50), 1))

	assert.Len(t, inv.Slots(), 2)
}

func TestInventory_QualityBucketBoundary(t *testing.T) {
	inv := inventory.New("facility-1", 0, nil, nil)

	// 79.9 and 80.0 fall into adjacent buckets with width 5
	require.NoError(t, inv.Add(stack(t, "gear", nil, 79.9), 1))
	require.NoError(t, inv.Add(stack(t, "gear", nil, 80.0), 1))

	assert.Len(t, inv.Slots(), 2)
}

func TestInventory_RemoveLowestQualityFirst(t *testing.T) {
	// Arrange
	inv := inventory.New("facility-1", 0, nil, nil)
	require.NoError(t, inv.Add(stack(t, "gear", nil, 90), 2))
	require.NoError(t, inv.Add(stack(t, "gear", nil, 40), 2))

	// Act
	removed, err := inv.Remove("gear", 3, inventory.MatchAll)

	// Assert - the low-quality slot drains before the high-quality one
	require.NoError(t, err)
	require.Len(t, removed, 2)
	assert.InDelta(t, 40, removed[0].Stack.Quality, 1e-9)
	assert.InDelta(t, 2, removed[0].Quantity, 1e-9)
	assert.InDelta(t, 90, removed[1].Stack.Quality, 1e-9)
	assert.InDelta(t, 1, removed[1].Quantity, 1e-9)
}

func TestInventory_RemoveIsAtomicOnShortfall(t *testing.T) {
	// Arrange - 3 total but the filter only matches 2
	inv := inventory.New("facility-1", 0, nil, nil)
	require.NoError(t, inv.Add(stack(t, "gear", inventory.NewTagSet("worn"), 50), 2))
	require.NoError(t, inv.Add(stack(t, "gear", nil, 50), 1))

	// Act
	_, err := inv.Remove("gear", 3, inventory.Filter{Tags: inventory.NewTagSet("worn")})

	// Assert - nothing was consumed
	var insufficient *inventory.ErrInsufficientStock
	require.ErrorAs(t, err, &insufficient)
	assert.InDelta(t, 3, insufficient.Requested, 1e-9)
	assert.InDelta(t, 2, insufficient.Available, 1e-9)
	assert.InDelta(t, 3, inv.Quantity("gear"), 1e-9)
}

func TestInventory_FilterTagSubsetAndQualityCeiling(t *testing.T) {
	inv := inventory.New("facility-1", 0, nil, nil)
	require.NoError(t, inv.Add(stack(t, "pump", inventory.NewTagSet("corroded", "worn"), 30), 1))
	require.NoError(t, inv.Add(stack(t, "pump", inventory.NewTagSet("corroded"), 70), 1))

	// Tag filter is a subset requirement: both slots carry "corroded"
	assert.InDelta(t, 2, inv.Available("pump", inventory.Filter{Tags: inventory.NewTagSet("corroded")}), 1e-9)

	// Quality ceiling excludes the better unit
	assert.InDelta(t, 1, inv.Available("pump", inventory.Filter{
		Tags:       inventory.NewTagSet("corroded"),
		MaxQuality: inventory.MaxQualityOf(50),
	}), 1e-9)
}

func TestInventory_ReserveBestQualityFirst(t *testing.T) {
	// Arrange
	inv := inventory.New("facility-1", 0, nil, nil)
	require.NoError(t, inv.Add(stack(t, "gear", nil, 40), 2))
	require.NoError(t, inv.Add(stack(t, "gear", nil, 90), 2))

	// Act
	require.NoError(t, inv.Reserve("gear", 2, inventory.MatchAll, "order-7"))

	// Assert - the good stock is claimed, the cheap stock stays available
	assert.InDelta(t, 2, inv.Reserved("order-7"), 1e-9)
	assert.InDelta(t, 2, inv.Available("gear", inventory.MatchAll), 1e-9)

	removed, err := inv.Remove("gear", 2, inventory.MatchAll)
	require.NoError(t, err)
	assert.InDelta(t, 40, removed[0].Stack.Quality, 1e-9)
}

func TestInventory_ReserveHonorsFilter(t *testing.T) {
	// Arrange - a pristine gear and a broken one
	inv := inventory.New("facility-1", 0, nil, nil)
	require.NoError(t, inv.Add(stack(t, "gear", nil, 90), 1))
	require.NoError(t, inv.Add(stack(t, "gear", inventory.NewTagSet("broken"), 20), 1))

	// Act - claim the broken unit specifically
	filter := inventory.Filter{Tags: inventory.NewTagSet("broken"), MaxQuality: inventory.MaxQualityOf(40)}
	require.NoError(t, inv.Reserve("gear", 1, filter, "repair-1"))

	// Assert - the pristine gear stays free, the broken one is claimed
	assert.InDelta(t, 1, inv.Reserved("repair-1"), 1e-9)
	assert.InDelta(t, 1, inv.Available("gear", inventory.MatchAll), 1e-9)
	assert.Zero(t, inv.Available("gear", inventory.Filter{Tags: inventory.NewTagSet("broken")}))

	// A second claim on the same filter finds nothing left
	var insufficient *inventory.ErrInsufficientStock
	err := inv.Reserve("gear", 1, filter, "repair-2")
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, inventory.NewTagSet("broken"), insufficient.Tags)
}

func TestInventory_ReserveAllOrNothing(t *testing.T) {
	inv := inventory.New("facility-1", 0, nil, nil)
	require.NoError(t, inv.Add(stack(t, "gear", nil, 80), 1))

	err := inv.Reserve("gear", 2, inventory.MatchAll, "order-7")

	var insufficient *inventory.ErrInsufficientStock
	require.ErrorAs(t, err, &insufficient)
	assert.Zero(t, inv.Reserved("order-7"))
	assert.InDelta(t, 1, inv.Available("gear", inventory.MatchAll), 1e-9)
}

func TestInventory_ReleaseReservationIsIdempotent(t *testing.T) {
	inv := inventory.New("facility-1", 0, nil, nil)
	require.NoError(t, inv.Add(stack(t, "gear", nil, 80), 2))
	require.NoError(t, inv.Reserve("gear", 2, inventory.MatchAll, "order-7"))

	inv.ReleaseReservation("order-7")
	inv.ReleaseReservation("order-7")
	inv.ReleaseReservation("never-existed")

	assert.InDelta(t, 2, inv.Available("gear", inventory.MatchAll), 1e-9)
}

func TestInventory_CapacityEnforcedWithUnitWeights(t *testing.T) {
	// Arrange - housing weighs 3 per unit
	weights := func(itemID string) float64 {
		if itemID == "housing" {
			return 3
		}
		return 1
	}
	inv := inventory.New("facility-1", 10, weights, nil)
	require.NoError(t, inv.Add(stack(t, "housing", nil, 80), 3)) // weight 9

	// Act
	err := inv.Add(stack(t, "gear", nil, 80), 2) // would reach 11

	// Assert
	var full *inventory.ErrCapacityExceeded
	require.ErrorAs(t, err, &full)
	assert.InDelta(t, 9, inv.UsedCapacity(), 1e-9)

	// Restore ignores the cap: returned material is never dropped
	inv.Restore(stack(t, "gear", nil, 80), 2)
	assert.InDelta(t, 11, inv.UsedCapacity(), 1e-9)
}

func TestInventory_RemoveRejectsNonPositiveQuantity(t *testing.T) {
	inv := inventory.New("facility-1", 0, nil, nil)

	_, err := inv.Remove("gear", 0, inventory.MatchAll)

	var invalid *inventory.ErrInvalidQuantity
	assert.ErrorAs(t, err, &invalid)
}

func TestTagSet_CanonicalOrder(t *testing.T) {
	a := inventory.NewTagSet("worn", "corroded", "worn")
	b := inventory.NewTagSet("corroded", "worn")

	assert.Equal(t, a.Key(), b.Key())
	assert.True(t, a.SupersetOf(inventory.NewTagSet("corroded")))
	assert.False(t, a.SupersetOf(inventory.NewTagSet("jammed")))
}
