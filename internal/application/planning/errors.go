package planning

import (
	"fmt"
	"strings"

	"github.com/mwaldron/shopfloor-go/internal/domain/inventory"
)

// MissingMaterial details one unsatisfiable requirement of a goal.
type MissingMaterial struct {
	ItemID    string
	Tags      inventory.TagSet
	Required  float64
	Available float64
	Reason    string
}

func (m MissingMaterial) String() string {
	s := fmt.Sprintf("%s: need %.2f, have %.2f", m.ItemID, m.Required, m.Available)
	if len(m.Tags) > 0 {
		s += fmt.Sprintf(" (tags: %s)", m.Tags.Key())
	}
	if m.Reason != "" {
		s += " - " + m.Reason
	}
	return s
}

// ErrUnresolvableGoal indicates the generator cannot construct a feasible
// operation list: a requirement is unavailable and not producible even under
// best-case assumptions. Surfaced at job-start time; the job is never queued.
type ErrUnresolvableGoal struct {
	TargetItemID string
	Missing      []MissingMaterial
}

func (e *ErrUnresolvableGoal) Error() string {
	if len(e.Missing) == 0 {
		return fmt.Sprintf("unresolvable goal for %s", e.TargetItemID)
	}
	parts := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		parts[i] = m.String()
	}
	return fmt.Sprintf("unresolvable goal for %s: %s", e.TargetItemID, strings.Join(parts, "; "))
}
