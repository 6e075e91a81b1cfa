package inventory

import "fmt"

// Quality bounds. Quality is continuous; fungibility uses bucketing so that
// near-identical stacks merge into one slot.
const (
	MinQuality = 0.0
	MaxQuality = 100.0
)

// DefaultQualityBucketWidth is the bucket size used when an inventory is
// constructed without an explicit width. Policy constant, overridable via
// configuration.
const DefaultQualityBucketWidth = 5.0

// ItemStack identifies a quantity-less item instance: base identity, the
// tags describing its condition or composition, and a quality value.
// Two stacks are fungible only if base id, tag set and quality bucket match.
type ItemStack struct {
	BaseItemID string
	Tags       TagSet
	Quality    float64
}

// NewItemStack creates a stack with validated, clamped quality.
func NewItemStack(baseItemID string, tags TagSet, quality float64) (ItemStack, error) {
	if baseItemID == "" {
		return ItemStack{}, fmt.Errorf("base item id cannot be empty")
	}
	return ItemStack{
		BaseItemID: baseItemID,
		Tags:       tags,
		Quality:    ClampQuality(quality),
	}, nil
}

// ClampQuality bounds a quality value to [MinQuality, MaxQuality].
func ClampQuality(q float64) float64 {
	if q < MinQuality {
		return MinQuality
	}
	if q > MaxQuality {
		return MaxQuality
	}
	return q
}

// QualityBucket maps a quality value to its bucket index for the given width.
func QualityBucket(quality, width float64) int {
	if width <= 0 {
		width = DefaultQualityBucketWidth
	}
	q := ClampQuality(quality)
	b := int(q / width)
	// Top of the range folds into the last bucket rather than opening a new one.
	if q == MaxQuality {
		b = int(MaxQuality/width) - 1
		if b < 0 {
			b = 0
		}
	}
	return b
}

// Filter narrows slot matching for removal, availability and consumption
// queries. Tags is a subset requirement (slot tags must contain every filter
// tag); MaxQuality, when set, is an inclusive ceiling.
type Filter struct {
	Tags       TagSet
	MaxQuality *float64
}

// MatchAll is the empty filter: matches every slot of the base item.
var MatchAll = Filter{}

// MaxQualityOf is a convenience for building quality-capped filters.
func MaxQualityOf(q float64) *float64 {
	return &q
}

// Matches reports whether a slot satisfies the filter.
func (f Filter) Matches(s *Slot) bool {
	if !s.Tags().SupersetOf(f.Tags) {
		return false
	}
	if f.MaxQuality != nil && s.Quality() > *f.MaxQuality {
		return false
	}
	return true
}
