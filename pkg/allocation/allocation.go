package allocation

import (
	"math"

	"github.com/kwarta/kwarta/pkg/budget"
)

// Config holds the allocation health targets and caps, both as percentages of
// total available money. Targets drive the allocation comparison bars; caps
// drive the overspend alerts.
type Config struct {
	Targets map[budget.Group]float64 `json:"targets"`
	Caps    map[budget.Group]float64 `json:"caps"`
}

func DefaultConfig() Config {
	return Config{
		Targets: map[budget.Group]float64{
			budget.GroupEssentials: 50,
			budget.GroupSavings:    15,
			budget.GroupInvesting:  10,
			budget.GroupDebt:       10,
			budget.GroupSinking:    10,
			budget.GroupLifestyle:  5,
		},
		Caps: map[budget.Group]float64{
			budget.GroupLifestyle:  20,
			budget.GroupDebt:       20,
			budget.GroupEssentials: 60,
		},
	}
}

// Cap returns the configured cap for a group, or 0 when the group is uncapped.
func (c Config) Cap(g budget.Group) (float64, bool) {
	v, ok := c.Caps[g]
	return v, ok
}

// Normalize merges an arbitrary config into the default one: only groups known
// to the defaults are kept, values are clamped to [0,100], and anything
// non-finite falls back to its default.
func Normalize(c Config) Config {
	out := DefaultConfig()
	for group, fallback := range out.Targets {
		if v, ok := c.Targets[group]; ok {
			out.Targets[group] = clampPercent(v, fallback)
		}
	}
	for group, fallback := range out.Caps {
		if v, ok := c.Caps[group]; ok {
			out.Caps[group] = clampPercent(v, fallback)
		}
	}
	return out
}

func clampPercent(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return math.Max(0, math.Min(100, v))
}
