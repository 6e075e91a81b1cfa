package inventory

import (
	"fmt"
	"strconv"
)

// Slot is one fungibility bucket inside an inventory:
// (baseItemID, tag set, quality bucket) -> {quantity, reserved}.
// Quality within a slot is the quantity-weighted mean of the stacks merged
// into it, so it always stays inside the slot's bucket.
type Slot struct {
	key        string
	baseItemID string
	tags       TagSet
	bucket     int
	quality    float64

	quantity float64
	reserved float64

	// reservations tracks how much of reserved belongs to each reservation id
	reservations map[string]float64
}

func slotKey(baseItemID string, tags TagSet, bucket int) string {
	return baseItemID + "|" + tags.Key() + "|" + strconv.Itoa(bucket)
}

func newSlot(stack ItemStack, bucketWidth float64) *Slot {
	bucket := QualityBucket(stack.Quality, bucketWidth)
	return &Slot{
		key:          slotKey(stack.BaseItemID, stack.Tags, bucket),
		baseItemID:   stack.BaseItemID,
		tags:         stack.Tags,
		bucket:       bucket,
		quality:      stack.Quality,
		reservations: make(map[string]float64),
	}
}

// Accessors

func (s *Slot) Key() string        { return s.key }
func (s *Slot) BaseItemID() string { return s.baseItemID }
func (s *Slot) Tags() TagSet       { return s.tags }
func (s *Slot) Quality() float64   { return s.quality }
func (s *Slot) Quantity() float64  { return s.quantity }
func (s *Slot) Reserved() float64  { return s.reserved }

// Available is the unreserved quantity.
func (s *Slot) Available() float64 { return s.quantity - s.reserved }

// Stack returns the stack identity this slot holds.
func (s *Slot) Stack() ItemStack {
	return ItemStack{BaseItemID: s.baseItemID, Tags: s.tags, Quality: s.quality}
}

// merge folds qty units at the given quality into the slot, keeping the
// slot quality as the quantity-weighted mean.
func (s *Slot) merge(quality, qty float64) {
	total := s.quantity + qty
	if total > 0 {
		s.quality = (s.quality*s.quantity + quality*qty) / total
	}
	s.quantity = total
}

// take removes qty units. Caller must have verified availability.
func (s *Slot) take(qty float64) error {
	if qty > s.Available()+quantityEpsilon {
		return fmt.Errorf("slot %s: take %.4f exceeds available %.4f", s.key, qty, s.Available())
	}
	s.quantity -= qty
	if s.quantity < 0 {
		s.quantity = 0
	}
	return nil
}

// reserve claims qty units for the reservation id.
func (s *Slot) reserve(reservationID string, qty float64) {
	s.reserved += qty
	s.reservations[reservationID] += qty
}

// release returns a reservation's claim to the available pool.
func (s *Slot) release(reservationID string) {
	qty, ok := s.reservations[reservationID]
	if !ok {
		return
	}
	delete(s.reservations, reservationID)
	s.reserved -= qty
	if s.reserved < 0 {
		s.reserved = 0
	}
}

// empty reports whether the slot can be destroyed.
func (s *Slot) empty() bool {
	return s.quantity <= quantityEpsilon && len(s.reservations) == 0
}

// quantityEpsilon absorbs float64 noise from fractional consumption
// (e.g. 0.3 plastic per unit, five times).
const quantityEpsilon = 1e-9
