package inventory

import "sort"

// DefaultMigrationQuality is assigned to stock migrated from a legacy
// quantity map, which carried no quality information.
const DefaultMigrationQuality = 50.0

// MigrateQuantityMap imports a legacy plain item->quantity map into the
// ledger as untagged stock at DefaultMigrationQuality. One-time use when
// adopting the tagged ledger for an existing facility; all ongoing stock
// movement goes through Add/Remove.
//
// All-or-nothing: the map is validated up front and nothing is imported if
// any entry is invalid. Entries import in sorted item order so slot creation
// is deterministic.
func MigrateQuantityMap(inv *Inventory, counts map[string]float64) error {
	ids := make([]string, 0, len(counts))
	weight := 0.0
	for itemID, qty := range counts {
		if itemID == "" || qty <= 0 {
			return &ErrInvalidQuantity{ItemID: itemID, Quantity: qty}
		}
		ids = append(ids, itemID)
		weight += qty * inv.unitWeight(itemID)
	}
	if inv.capacity > 0 && inv.UsedCapacity()+weight > inv.capacity+quantityEpsilon {
		return &ErrCapacityExceeded{
			OwnerID:   inv.ownerID,
			Capacity:  inv.capacity,
			Used:      inv.UsedCapacity(),
			Requested: weight,
		}
	}
	sort.Strings(ids)

	for _, itemID := range ids {
		stack, err := NewItemStack(itemID, nil, DefaultMigrationQuality)
		if err != nil {
			return err
		}
		if err := inv.Add(stack, counts[itemID]); err != nil {
			return err
		}
	}
	return nil
}
