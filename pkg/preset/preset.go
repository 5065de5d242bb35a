package preset

import "github.com/kwarta/kwarta/pkg/budget"

// SlotCount is the number of preset slots available.
const SlotCount = 5

// Entry is one category/budget template line. Kind may be empty; it is
// inferred from the category on application.
type Entry struct {
	Category string      `json:"category"`
	Budget   float64     `json:"budget"`
	Kind     budget.Kind `json:"type,omitempty"`
}

// Preset is a named template for both tables.
type Preset struct {
	Name   string  `json:"name"`
	First  []Entry `json:"first"`
	Second []Entry `json:"second"`
}

// DefaultPresets returns the five factory presets keyed by slot.
func DefaultPresets() map[int]Preset {
	return map[int]Preset{
		1: {
			Name:   "Essential Budget",
			First:  []Entry{{Category: "Groceries", Budget: 8000}, {Category: "Transportation", Budget: 3000}},
			Second: []Entry{{Category: "Entertainment", Budget: 3000}},
		},
		2: {
			Name:   "Student Budget",
			First:  []Entry{{Category: "Food", Budget: 5000}, {Category: "Transportation", Budget: 2000}},
			Second: []Entry{{Category: "Entertainment", Budget: 1500}},
		},
		3: {
			Name:   "Family Budget",
			First:  []Entry{{Category: "Groceries", Budget: 12000}, {Category: "Utilities", Budget: 4000}},
			Second: []Entry{{Category: "Kids Activities", Budget: 3000}},
		},
		4: {
			Name:   "Minimalist Budget",
			First:  []Entry{{Category: "Food", Budget: 6000}, {Category: "Rent", Budget: 12000}},
			Second: []Entry{{Category: "Savings", Budget: 15000}},
		},
		5: {
			Name:   "Custom Preset",
			First:  []Entry{{Category: "Category 1", Budget: 1000}},
			Second: []Entry{{Category: "Category A", Budget: 1000}},
		},
	}
}
