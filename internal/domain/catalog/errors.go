package catalog

import "fmt"

// ErrUnknownItem indicates an item id with no catalog definition.
type ErrUnknownItem struct {
	ItemID string
}

func (e *ErrUnknownItem) Error() string {
	return fmt.Sprintf("unknown item: %s", e.ItemID)
}

// ErrUnknownMethod indicates a method id with no catalog definition.
type ErrUnknownMethod struct {
	MethodID string
}

func (e *ErrUnknownMethod) Error() string {
	return fmt.Sprintf("unknown method: %s", e.MethodID)
}

// ErrUnknownEquipment indicates an equipment id with no catalog definition.
type ErrUnknownEquipment struct {
	EquipmentID string
}

func (e *ErrUnknownEquipment) Error() string {
	return fmt.Sprintf("unknown equipment: %s", e.EquipmentID)
}
