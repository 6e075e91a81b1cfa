package planning

import (
	"sort"

	"github.com/mwaldron/shopfloor-go/internal/domain/inventory"
	"github.com/mwaldron/shopfloor-go/internal/domain/workshop"
)

// Requirement is one net external material demand of an operation list.
type Requirement struct {
	ItemID     string
	Tags       inventory.TagSet
	MaxQuality *float64
	Count      float64
}

const netEpsilon = 1e-9

// NetRequirements computes the external material demand of an operation
// list: per (itemID, normalized tag subset) key, total consumption minus
// total production. Intermediates that are produced and fully reconsumed
// inside the list net to zero and are omitted, so preflight checks never
// double-count them.
func NetRequirements(ops []*workshop.Operation) []Requirement {
	type entry struct {
		itemID     string
		tags       inventory.TagSet
		maxQuality *float64
		net        float64
	}
	nets := make(map[string]*entry)

	key := func(itemID string, tags inventory.TagSet) string {
		return itemID + "|" + tags.Key()
	}
	get := func(itemID string, tags inventory.TagSet) *entry {
		k := key(itemID, tags)
		e, ok := nets[k]
		if !ok {
			e = &entry{itemID: itemID, tags: tags}
			nets[k] = e
		}
		return e
	}

	for _, op := range ops {
		for _, req := range op.Consumes() {
			e := get(req.ItemID, req.Tags)
			e.net += req.Count
			// Keep the loosest quality ceiling seen for the key so
			// availability checks do not over-restrict.
			if req.MaxQuality != nil {
				if e.maxQuality == nil || *req.MaxQuality > *e.maxQuality {
					q := *req.MaxQuality
					e.maxQuality = &q
				}
			}
		}
		for _, out := range op.Produces() {
			get(out.ItemID, out.Tags).net -= out.Count
		}
	}

	out := make([]Requirement, 0, len(nets))
	for _, e := range nets {
		if e.net > netEpsilon {
			out = append(out, Requirement{
				ItemID:     e.itemID,
				Tags:       e.tags,
				MaxQuality: e.maxQuality,
				Count:      e.net,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ItemID != out[j].ItemID {
			return out[i].ItemID < out[j].ItemID
		}
		return out[i].Tags.Key() < out[j].Tags.Key()
	})
	return out
}

// Preflight reports which net requirements of a plan the inventory cannot
// currently cover. Pure: a UI-facing check, not a reservation.
func Preflight(ops []*workshop.Operation, inv *inventory.Inventory) []MissingMaterial {
	var missing []MissingMaterial
	for _, req := range NetRequirements(ops) {
		available := inv.Available(req.ItemID, inventory.Filter{Tags: req.Tags, MaxQuality: req.MaxQuality})
		if available+netEpsilon < req.Count {
			missing = append(missing, MissingMaterial{
				ItemID:    req.ItemID,
				Tags:      req.Tags,
				Required:  req.Count,
				Available: available,
			})
		}
	}
	return missing
}
