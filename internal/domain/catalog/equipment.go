package catalog

// Equipment describes one equipment type available to facility workspaces.
// The catalog is read-only: the core consults capability matching and base
// efficiency, never mutates definitions.
type Equipment struct {
	ID             string   `mapstructure:"id" validate:"required"`
	Name           string   `mapstructure:"name"`
	Capabilities   []string `mapstructure:"capabilities" validate:"required,min=1,dive,required"`
	BaseEfficiency float64  `mapstructure:"base_efficiency" validate:"gt=0"`
}

// HasCapability reports whether the equipment provides the capability.
func (e *Equipment) HasCapability(capability string) bool {
	for _, c := range e.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}
