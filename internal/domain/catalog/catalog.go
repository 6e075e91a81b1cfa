package catalog

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Catalog is the read-only definition lookup supplied by configuration:
// equipment types, item definitions (with composition) and manufacturing
// methods. Construction validates every definition; after that the catalog
// never changes.
type Catalog struct {
	equipment        map[string]*Equipment
	items            map[string]*ItemDef
	methods          map[string]*Method
	methodsByProduct map[string][]*Method
}

// New builds and validates a catalog from definition lists.
func New(equipment []Equipment, items []ItemDef, methods []Method) (*Catalog, error) {
	v := validator.New()

	c := &Catalog{
		equipment:        make(map[string]*Equipment, len(equipment)),
		items:            make(map[string]*ItemDef, len(items)),
		methods:          make(map[string]*Method, len(methods)),
		methodsByProduct: make(map[string][]*Method),
	}

	for i := range equipment {
		def := equipment[i]
		if err := v.Struct(def); err != nil {
			return nil, fmt.Errorf("invalid equipment %q: %w", def.ID, err)
		}
		if _, dup := c.equipment[def.ID]; dup {
			return nil, fmt.Errorf("duplicate equipment id %q", def.ID)
		}
		c.equipment[def.ID] = &def
	}

	for i := range items {
		def := items[i]
		if err := v.Struct(def); err != nil {
			return nil, fmt.Errorf("invalid item %q: %w", def.ID, err)
		}
		if _, dup := c.items[def.ID]; dup {
			return nil, fmt.Errorf("duplicate item id %q", def.ID)
		}
		c.items[def.ID] = &def
	}

	for i := range methods {
		def := methods[i]
		if err := v.Struct(def); err != nil {
			return nil, fmt.Errorf("invalid method %q: %w", def.ID, err)
		}
		if _, dup := c.methods[def.ID]; dup {
			return nil, fmt.Errorf("duplicate method id %q", def.ID)
		}
		c.methods[def.ID] = &def
		c.methodsByProduct[def.ProductID] = append(c.methodsByProduct[def.ProductID], &def)
	}

	if err := c.checkReferences(); err != nil {
		return nil, err
	}
	return c, nil
}

// checkReferences verifies cross-definition integrity so planning never
// chases a dangling id at runtime.
func (c *Catalog) checkReferences() error {
	for _, item := range c.items {
		for _, comp := range item.Components {
			if _, ok := c.items[comp.ItemID]; !ok {
				return fmt.Errorf("item %q component references unknown item %q", item.ID, comp.ItemID)
			}
		}
		if item.DefaultMethodID != "" {
			m, ok := c.methods[item.DefaultMethodID]
			if !ok {
				return fmt.Errorf("item %q references unknown method %q", item.ID, item.DefaultMethodID)
			}
			if m.ProductID != item.ID {
				return fmt.Errorf("item %q default method %q produces %q", item.ID, m.ID, m.ProductID)
			}
		}
	}
	for _, m := range c.methods {
		if _, ok := c.items[m.ProductID]; !ok {
			return fmt.Errorf("method %q produces unknown item %q", m.ID, m.ProductID)
		}
		for _, op := range m.Operations {
			for _, mat := range op.Consumes {
				if _, ok := c.items[mat.ItemID]; !ok {
					return fmt.Errorf("method %q operation %q consumes unknown item %q", m.ID, op.Name, mat.ItemID)
				}
			}
			for _, out := range op.Produces {
				if _, ok := c.items[out.ItemID]; !ok {
					return fmt.Errorf("method %q operation %q produces unknown item %q", m.ID, op.Name, out.ItemID)
				}
			}
		}
	}
	return nil
}

// Equipment looks up an equipment definition.
func (c *Catalog) Equipment(id string) (*Equipment, error) {
	def, ok := c.equipment[id]
	if !ok {
		return nil, &ErrUnknownEquipment{EquipmentID: id}
	}
	return def, nil
}

// Item looks up an item definition.
func (c *Catalog) Item(id string) (*ItemDef, error) {
	def, ok := c.items[id]
	if !ok {
		return nil, &ErrUnknownItem{ItemID: id}
	}
	return def, nil
}

// Method looks up a method definition.
func (c *Catalog) Method(id string) (*Method, error) {
	def, ok := c.methods[id]
	if !ok {
		return nil, &ErrUnknownMethod{MethodID: id}
	}
	return def, nil
}

// MethodsFor lists the methods that produce the item.
func (c *Catalog) MethodsFor(productID string) []*Method {
	return c.methodsByProduct[productID]
}

// DefaultMethodFor resolves the method a planner uses to produce an item:
// the item's declared default, else the sole producing method.
func (c *Catalog) DefaultMethodFor(productID string) (*Method, error) {
	item, err := c.Item(productID)
	if err != nil {
		return nil, err
	}
	if item.DefaultMethodID != "" {
		return c.Method(item.DefaultMethodID)
	}
	methods := c.methodsByProduct[productID]
	if len(methods) == 1 {
		return methods[0], nil
	}
	return nil, &ErrUnknownMethod{MethodID: "default for " + productID}
}

// UnitWeight returns the declared unit weight of an item, defaulting to 1
// for unknown or zero-weight definitions. Shaped to plug into
// inventory.WeightFunc.
func (c *Catalog) UnitWeight(itemID string) float64 {
	def, ok := c.items[itemID]
	if !ok || def.UnitWeight <= 0 {
		return 1
	}
	return def.UnitWeight
}
