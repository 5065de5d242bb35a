package budget

import "strings"

// Table identifies one of the two pay-cutoff category lists.
type Table string

const (
	TableFirst  Table = "first"
	TableSecond Table = "second"
)

// AllTables lists both values in their display order.
var AllTables = []Table{TableFirst, TableSecond}

func ParseTable(s string) (Table, bool) {
	switch Table(s) {
	case TableFirst, TableSecond:
		return Table(s), true
	}
	return "", false
}

// Kind classifies a budget category into one of seven spending types.
type Kind string

const (
	KindFixed     Kind = "fixed"
	KindEssential Kind = "essential"
	KindLifestyle Kind = "lifestyle"
	KindSinking   Kind = "sinking"
	KindSavings   Kind = "savings"
	KindInvesting Kind = "investing"
	KindDebt      Kind = "debt"
)

var AllKinds = []Kind{KindFixed, KindEssential, KindLifestyle, KindSinking, KindSavings, KindInvesting, KindDebt}

func (k Kind) IsValid() bool {
	switch k {
	case KindFixed, KindEssential, KindLifestyle, KindSinking, KindSavings, KindInvesting, KindDebt:
		return true
	}
	return false
}

// InferKind guesses a category's kind from its name. The checks run in fixed
// priority order because a name can match several keyword sets ("Loan
// Insurance" is fixed, not debt).
func InferKind(category string) Kind {
	text := strings.ToLower(category)
	containsAny := func(keywords ...string) bool {
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				return true
			}
		}
		return false
	}

	switch {
	case containsAny("rent", "mortgage", "utility", "insurance"):
		return KindFixed
	case containsAny("saving"):
		return KindSavings
	case containsAny("invest"):
		return KindInvesting
	case containsAny("debt", "loan", "credit"):
		return KindDebt
	case containsAny("emergency", "repair", "gift", "maintenance"):
		return KindSinking
	case containsAny("entertainment", "dining", "shopping", "leisure"):
		return KindLifestyle
	default:
		return KindEssential
	}
}

// Group is an allocation bucket used for budget-health analysis. It is coarser
// than Kind: fixed and essential both land in essentials.
type Group string

const (
	GroupEssentials Group = "essentials"
	GroupSavings    Group = "savings"
	GroupInvesting  Group = "investing"
	GroupDebt       Group = "debt"
	GroupSinking    Group = "sinking"
	GroupLifestyle  Group = "lifestyle"
)

// AllGroups is the fixed display order of allocation groups.
var AllGroups = []Group{GroupEssentials, GroupSavings, GroupInvesting, GroupDebt, GroupSinking, GroupLifestyle}

func GroupOf(k Kind) Group {
	switch k {
	case KindFixed, KindEssential:
		return GroupEssentials
	case KindSavings:
		return GroupSavings
	case KindInvesting:
		return GroupInvesting
	case KindDebt:
		return GroupDebt
	case KindSinking:
		return GroupSinking
	default:
		return GroupLifestyle
	}
}

// Expense is a single spend line owned by a budget item. Date may be empty.
type Expense struct {
	Description string  `json:"description"`
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
}

// Item is one budget category row. Date determines which month partition the
// item is persisted into. When Paid is true, Expenses holds a single synthetic
// entry worth the planned budget and PrePaidExpenses holds the list that
// existed before marking paid.
type Item struct {
	ID              string    `json:"id"`
	Category        string    `json:"category"`
	Date            string    `json:"date"`
	Budget          float64   `json:"budget"`
	Kind            Kind      `json:"type"`
	Expenses        []Expense `json:"expenses"`
	Paid            bool      `json:"paid"`
	PaidAt          string    `json:"paidAt"`
	PrePaidExpenses []Expense `json:"prePaidExpenses,omitempty"`
}

// MonthKey returns the YYYY-MM partition the item belongs to, falling back to
// the given month when the item has no date.
func (i Item) MonthKey(fallback string) string {
	if i.Date == "" {
		return fallback
	}
	if len(i.Date) < 7 {
		return i.Date
	}
	return i.Date[:7]
}

// Tables holds both cutoff lists. Order within each list is user-significant.
type Tables struct {
	First  []Item `json:"first"`
	Second []Item `json:"second"`
}

func (t *Tables) Items(table Table) []Item {
	if table == TableSecond {
		return t.Second
	}
	return t.First
}

func (t *Tables) SetItems(table Table, items []Item) {
	if table == TableSecond {
		t.Second = items
		return
	}
	t.First = items
}

// All returns first-table items followed by second-table items.
func (t *Tables) All() []Item {
	all := make([]Item, 0, len(t.First)+len(t.Second))
	all = append(all, t.First...)
	all = append(all, t.Second...)
	return all
}
