package inventory

import (
	"sort"

	"github.com/mwaldron/shopfloor-go/internal/domain/events"
)

// WeightFunc resolves the declared unit weight of a base item. A nil
// WeightFunc means every item weighs one unit.
type WeightFunc func(baseItemID string) float64

// StackQuantity pairs a stack identity with a quantity, used for consumption
// results and content listings.
type StackQuantity struct {
	Stack    ItemStack
	Quantity float64
}

// Inventory is a quality- and tag-aware stock ledger with reservation
// accounting. Facilities own a capacity-bounded instance; every in-flight job
// owns a private, uncapped instance invisible to other jobs.
//
// All mutation happens on the owning facility's tick goroutine, so the
// structure is deliberately unlocked; cross-facility isolation is the
// caller's contract.
type Inventory struct {
	ownerID     string
	capacity    float64 // <= 0 means uncapped (job inventories)
	bucketWidth float64
	weightOf    WeightFunc
	publisher   events.Publisher
	gameTime    float64

	slots map[string]*Slot
	// reservation id -> keys of slots the reservation touched
	reservations map[string][]string
}

// New creates a facility inventory with the given storage capacity.
// publisher may be nil (events dropped).
func New(ownerID string, capacity float64, weightOf WeightFunc, publisher events.Publisher) *Inventory {
	return &Inventory{
		ownerID:      ownerID,
		capacity:     capacity,
		bucketWidth:  DefaultQualityBucketWidth,
		weightOf:     weightOf,
		publisher:    publisher,
		slots:        make(map[string]*Slot),
		reservations: make(map[string][]string),
	}
}

// NewJobInventory creates the private, uncapped inventory scoped to one job.
func NewJobInventory(jobID string) *Inventory {
	return New("job:"+jobID, 0, nil, nil)
}

// SetBucketWidth overrides the quality bucket width. Must be called before
// any stock is added; changing it later would orphan existing slot keys.
func (inv *Inventory) SetBucketWidth(width float64) {
	if width > 0 && len(inv.slots) == 0 {
		inv.bucketWidth = width
	}
}

// SetGameTime stamps subsequent inventory-changed events with the current
// simulation time. Called by the scheduler at the start of each tick.
func (inv *Inventory) SetGameTime(t float64) {
	inv.gameTime = t
}

func (inv *Inventory) OwnerID() string   { return inv.ownerID }
func (inv *Inventory) Capacity() float64 { return inv.capacity }

// UsedCapacity is the weight-adjusted sum of all slot quantities.
func (inv *Inventory) UsedCapacity() float64 {
	used := 0.0
	for _, s := range inv.slots {
		used += s.quantity * inv.unitWeight(s.baseItemID)
	}
	return used
}

func (inv *Inventory) unitWeight(baseItemID string) float64 {
	if inv.weightOf == nil {
		return 1
	}
	return inv.weightOf(baseItemID)
}

// Add merges quantity units of the stack into the matching slot, creating it
// if absent. Fails with ErrCapacityExceeded when the add would push the
// weight-adjusted total past capacity; on failure nothing changes.
func (inv *Inventory) Add(stack ItemStack, quantity float64) error {
	return inv.add(stack, quantity, true)
}

// Restore is Add without the capacity soft constraint. Used when returning
// job-inventory contents on cancellation or failure: material value is never
// silently dropped, even into a full store.
func (inv *Inventory) Restore(stack ItemStack, quantity float64) {
	// add without capacity check cannot fail
	_ = inv.add(stack, quantity, false)
}

func (inv *Inventory) add(stack ItemStack, quantity float64, enforceCapacity bool) error {
	if quantity <= 0 {
		return &ErrInvalidQuantity{ItemID: stack.BaseItemID, Quantity: quantity}
	}
	if enforceCapacity && inv.capacity > 0 {
		used := inv.UsedCapacity()
		if used+quantity*inv.unitWeight(stack.BaseItemID) > inv.capacity+quantityEpsilon {
			return &ErrCapacityExceeded{
				OwnerID:   inv.ownerID,
				Capacity:  inv.capacity,
				Used:      used,
				Requested: quantity,
			}
		}
	}

	stack.Quality = ClampQuality(stack.Quality)
	key := slotKey(stack.BaseItemID, stack.Tags, QualityBucket(stack.Quality, inv.bucketWidth))
	slot, ok := inv.slots[key]
	if !ok {
		slot = newSlot(stack, inv.bucketWidth)
		inv.slots[key] = slot
	}
	slot.merge(stack.Quality, quantity)

	inv.emitChanged(stack, InventoryAddedChange, quantity)
	return nil
}

// Remove consumes quantity units of the base item from matching slots,
// lowest quality first, so cheap stock is spent before precision stock.
// Atomic: if the matching available total under-satisfies the request the
// inventory is left untouched and ErrInsufficientStock is returned.
// Returns the consumed stacks (per-slot identity and amount).
func (inv *Inventory) Remove(baseItemID string, quantity float64, filter Filter) ([]StackQuantity, error) {
	if quantity <= 0 {
		return nil, &ErrInvalidQuantity{ItemID: baseItemID, Quantity: quantity}
	}

	matching := inv.matchingSlots(baseItemID, filter, false)
	total := 0.0
	for _, s := range matching {
		total += s.Available()
	}
	if total+quantityEpsilon < quantity {
		return nil, &ErrInsufficientStock{
			ItemID:     baseItemID,
			Requested:  quantity,
			Available:  total,
			Tags:       filter.Tags,
			MaxQuality: filter.MaxQuality,
		}
	}

	removed := make([]StackQuantity, 0, 1)
	remaining := quantity
	for _, s := range matching {
		if remaining <= quantityEpsilon {
			break
		}
		take := s.Available()
		if take > remaining {
			take = remaining
		}
		if take <= 0 {
			continue
		}
		stack := s.Stack()
		if err := s.take(take); err != nil {
			return nil, err
		}
		removed = append(removed, StackQuantity{Stack: stack, Quantity: take})
		remaining -= take
		if s.empty() {
			delete(inv.slots, s.key)
		}
	}

	inv.emitChanged(weightedIdentity(baseItemID, removed), InventoryRemovedChange, quantity)
	return removed, nil
}

// Available is the unreserved quantity of the base item across matching
// slots. Pure: no side effects.
func (inv *Inventory) Available(baseItemID string, filter Filter) float64 {
	total := 0.0
	for _, s := range inv.matchingSlots(baseItemID, filter, false) {
		total += s.Available()
	}
	return total
}

// Quantity is the total stored quantity of the base item, reserved included.
func (inv *Inventory) Quantity(baseItemID string) float64 {
	total := 0.0
	for _, s := range inv.slots {
		if s.baseItemID == baseItemID {
			total += s.quantity
		}
	}
	return total
}

// Reserve places a named claim for quantity units of the base item among
// slots matching the filter, best quality first (reservations typically back
// contract fulfilment, which wants the best qualifying stock). All-or-nothing:
// fails with ErrInsufficientStock if unreserved matching stock under-satisfies
// the request, committing nothing.
func (inv *Inventory) Reserve(baseItemID string, quantity float64, filter Filter, reservationID string) error {
	if quantity <= 0 {
		return &ErrInvalidQuantity{ItemID: baseItemID, Quantity: quantity}
	}

	matching := inv.matchingSlots(baseItemID, filter, true)
	total := 0.0
	for _, s := range matching {
		total += s.Available()
	}
	if total+quantityEpsilon < quantity {
		return &ErrInsufficientStock{
			ItemID:     baseItemID,
			Requested:  quantity,
			Available:  total,
			Tags:       filter.Tags,
			MaxQuality: filter.MaxQuality,
		}
	}

	remaining := quantity
	for _, s := range matching {
		if remaining <= quantityEpsilon {
			break
		}
		claim := s.Available()
		if claim > remaining {
			claim = remaining
		}
		if claim <= 0 {
			continue
		}
		s.reserve(reservationID, claim)
		inv.reservations[reservationID] = appendUnique(inv.reservations[reservationID], s.key)
		remaining -= claim
	}
	return nil
}

// ReleaseReservation returns a reservation's claims to the available pool.
// Idempotent: unknown ids are a no-op.
func (inv *Inventory) ReleaseReservation(reservationID string) {
	keys, ok := inv.reservations[reservationID]
	if !ok {
		return
	}
	for _, key := range keys {
		slot, ok := inv.slots[key]
		if !ok {
			continue
		}
		slot.release(reservationID)
		if slot.empty() {
			delete(inv.slots, key)
		}
	}
	delete(inv.reservations, reservationID)
}

// Reserved is the total quantity currently claimed under the reservation id.
func (inv *Inventory) Reserved(reservationID string) float64 {
	total := 0.0
	for _, key := range inv.reservations[reservationID] {
		if slot, ok := inv.slots[key]; ok {
			total += slot.reservations[reservationID]
		}
	}
	return total
}

// Slots returns all slots in deterministic (key) order.
func (inv *Inventory) Slots() []*Slot {
	out := make([]*Slot, 0, len(inv.slots))
	for _, s := range inv.slots {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}

// Contents lists every slot's stack and full quantity in deterministic order.
func (inv *Inventory) Contents() []StackQuantity {
	slots := inv.Slots()
	out := make([]StackQuantity, 0, len(slots))
	for _, s := range slots {
		out = append(out, StackQuantity{Stack: s.Stack(), Quantity: s.quantity})
	}
	return out
}

// IsEmpty reports whether the inventory holds no stock.
func (inv *Inventory) IsEmpty() bool {
	return len(inv.slots) == 0
}

// matchingSlots returns slots of the base item satisfying the filter, sorted
// by quality ascending (bestFirst=false, removal order) or descending
// (bestFirst=true, reservation order). Ties break on slot key so the order
// is fully deterministic.
func (inv *Inventory) matchingSlots(baseItemID string, filter Filter, bestFirst bool) []*Slot {
	out := make([]*Slot, 0, 4)
	for _, s := range inv.slots {
		if s.baseItemID != baseItemID {
			continue
		}
		if !filter.Matches(s) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].quality != out[j].quality {
			if bestFirst {
				return out[i].quality > out[j].quality
			}
			return out[i].quality < out[j].quality
		}
		return out[i].key < out[j].key
	})
	return out
}

func (inv *Inventory) emitChanged(stack ItemStack, change events.InventoryChangeKind, qty float64) {
	if inv.publisher == nil {
		return
	}
	inv.publisher.Emit(events.EventInventoryChanged, events.InventoryPayload{
		OwnerID:    inv.ownerID,
		BaseItemID: stack.BaseItemID,
		Tags:       stack.Tags,
		Quality:    stack.Quality,
		Change:     change,
		Quantity:   qty,
		GameTime:   inv.gameTime,
	}, inv.ownerID)
}

// Change kind aliases keep call sites inside this package terse.
const (
	InventoryAddedChange   = events.InventoryAdded
	InventoryRemovedChange = events.InventoryRemoved
)

// weightedIdentity summarizes a multi-slot removal into one stack identity
// for the change event (quality is the quantity-weighted mean).
func weightedIdentity(baseItemID string, removed []StackQuantity) ItemStack {
	if len(removed) == 1 {
		return removed[0].Stack
	}
	total, qsum := 0.0, 0.0
	var tags TagSet
	for _, r := range removed {
		total += r.Quantity
		qsum += r.Stack.Quality * r.Quantity
		tags = r.Stack.Tags
	}
	quality := 0.0
	if total > 0 {
		quality = qsum / total
	}
	return ItemStack{BaseItemID: baseItemID, Tags: tags, Quality: quality}
}

func appendUnique(keys []string, key string) []string {
	for _, k := range keys {
		if k == key {
			return keys
		}
	}
	return append(keys, key)
}
