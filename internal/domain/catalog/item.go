package catalog

// ComponentSpec names one physical sub-component of an assembly, used by
// disassembly (what comes out) and repair planning (what must go back in).
type ComponentSpec struct {
	ItemID string  `mapstructure:"item_id" validate:"required"`
	Count  float64 `mapstructure:"count" validate:"gt=0"`
}

// ItemDef is the canonical identity of a material, component or product,
// independent of quality and tags.
type ItemDef struct {
	ID         string  `mapstructure:"id" validate:"required"`
	Name       string  `mapstructure:"name"`
	UnitWeight float64 `mapstructure:"unit_weight" validate:"gte=0"`

	// Components is the physical composition of an assembly.
	// Empty for simple parts and raw materials.
	Components []ComponentSpec `mapstructure:"components" validate:"dive"`

	// DefaultMethodID names the manufacturing method used when a planner must
	// produce this item and no explicit method was requested. Empty for items
	// that cannot be fabricated (raw stock: only purchasable/minable).
	DefaultMethodID string `mapstructure:"default_method_id"`
}

// IsAssembly reports whether the item decomposes into sub-components.
func (d *ItemDef) IsAssembly() bool {
	return len(d.Components) > 0
}

// IsRaw reports whether the item cannot be fabricated at all.
func (d *ItemDef) IsRaw() bool {
	return d.DefaultMethodID == "" && !d.IsAssembly()
}
