package inventory

import (
	"fmt"
	"strings"
)

// ErrInsufficientStock indicates a removal or reservation asked for more than
// the matching available quantity. Recoverable: the caller decides whether to
// block, retry or surface it. Carries enough detail for an actionable message.
type ErrInsufficientStock struct {
	ItemID     string
	Requested  float64
	Available  float64
	Tags       TagSet
	MaxQuality *float64
}

func (e *ErrInsufficientStock) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "insufficient stock of %s: requested %.2f, available %.2f", e.ItemID, e.Requested, e.Available)
	if len(e.Tags) > 0 {
		fmt.Fprintf(&b, " (tags: %s)", e.Tags.Key())
	}
	if e.MaxQuality != nil {
		fmt.Fprintf(&b, " (max quality: %.1f)", *e.MaxQuality)
	}
	return b.String()
}

// ErrCapacityExceeded indicates an add would push the inventory past its
// storage capacity. Recoverable: the add is rejected, caller decides disposal.
type ErrCapacityExceeded struct {
	OwnerID   string
	Capacity  float64
	Used      float64
	Requested float64
}

func (e *ErrCapacityExceeded) Error() string {
	return fmt.Sprintf("storage capacity exceeded for %s: %.2f used of %.2f, add of %.2f rejected",
		e.OwnerID, e.Used, e.Capacity, e.Requested)
}

// ErrInvalidQuantity indicates a non-positive quantity argument.
// Programming-contract violation, never expected in correct integration.
type ErrInvalidQuantity struct {
	ItemID   string
	Quantity float64
}

func (e *ErrInvalidQuantity) Error() string {
	return fmt.Sprintf("invalid quantity %.4f for %s", e.Quantity, e.ItemID)
}
