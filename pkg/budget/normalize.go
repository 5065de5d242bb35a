package budget

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/google/uuid"
)

// SchemaVersion is the current on-disk month payload version.
const SchemaVersion = 3

// MonthPayload is the persisted envelope for one month partition.
type MonthPayload struct {
	Version int    `json:"version"`
	Data    Tables `json:"data"`
}

// NewID returns a fresh opaque item identifier.
func NewID() string {
	return uuid.NewString()
}

// NormalizeExpense repairs a typed expense: non-finite amounts become 0.
func NormalizeExpense(e Expense) Expense {
	if math.IsNaN(e.Amount) {
		e.Amount = 0
	}
	return e
}

// NormalizeItem repairs a typed item into canonical shape. It assigns a fresh
// id when missing, replaces a non-numeric budget with 0 (negative values are
// kept — only NaN is repaired), resolves an unrecognized kind from the
// category text, and normalizes every expense. The function is idempotent.
func NormalizeItem(item Item) Item {
	if item.ID == "" {
		item.ID = NewID()
	}
	if math.IsNaN(item.Budget) {
		item.Budget = 0
	}
	if !item.Kind.IsValid() {
		item.Kind = InferKind(item.Category)
	}
	expenses := make([]Expense, 0, len(item.Expenses))
	for _, e := range item.Expenses {
		expenses = append(expenses, NormalizeExpense(e))
	}
	item.Expenses = expenses
	if item.PrePaidExpenses != nil {
		prePaid := make([]Expense, 0, len(item.PrePaidExpenses))
		for _, e := range item.PrePaidExpenses {
			prePaid = append(prePaid, NormalizeExpense(e))
		}
		item.PrePaidExpenses = prePaid
	}
	return item
}

// NormalizeTables normalizes every item in both tables.
func NormalizeTables(t Tables) Tables {
	out := Tables{First: make([]Item, 0, len(t.First)), Second: make([]Item, 0, len(t.Second))}
	for _, item := range t.First {
		out.First = append(out.First, NormalizeItem(item))
	}
	for _, item := range t.Second {
		out.Second = append(out.Second, NormalizeItem(item))
	}
	return out
}

// EncodeMonthPayload marshals tables into the current persisted envelope.
func EncodeMonthPayload(t Tables) ([]byte, error) {
	return json.Marshal(MonthPayload{Version: SchemaVersion, Data: NormalizeTables(t)})
}

// DecodeMonthPayload parses a stored month payload of any known schema
// version into canonical tables. Version 1+ payloads wrap the tables in a
// {version, data} envelope; legacy payloads are the bare {first, second}
// object and are upgraded in place. Malformed JSON, or malformed pieces of
// otherwise valid JSON, degrade to empty data — this function never fails.
func DecodeMonthPayload(raw []byte) Tables {
	empty := Tables{First: []Item{}, Second: []Item{}}
	if len(raw) == 0 {
		return empty
	}

	var root map[string]any
	if err := json.Unmarshal(raw, &root); err != nil {
		return empty
	}

	tables := root
	if data, ok := root["data"].(map[string]any); ok {
		tables = data
	}

	return Tables{
		First:  decodeItems(tables["first"]),
		Second: decodeItems(tables["second"]),
	}
}

func decodeItems(v any) []Item {
	list, ok := v.([]any)
	if !ok {
		return []Item{}
	}
	items := make([]Item, 0, len(list))
	for _, entry := range list {
		items = append(items, DecodeItem(entry))
	}
	return items
}

// DecodeItem coerces an arbitrarily-shaped stored value into a valid Item.
func DecodeItem(v any) Item {
	fields, _ := v.(map[string]any)
	item := Item{
		ID:       asString(fields["id"]),
		Category: asString(fields["category"]),
		Date:     asString(fields["date"]),
		Budget:   asNumber(fields["budget"]),
		Kind:     Kind(asString(fields["type"])),
		Paid:     asBool(fields["paid"]),
		PaidAt:   asString(fields["paidAt"]),
	}
	if list, ok := fields["expenses"].([]any); ok {
		item.Expenses = make([]Expense, 0, len(list))
		for _, e := range list {
			item.Expenses = append(item.Expenses, DecodeExpense(e))
		}
	}
	if list, ok := fields["prePaidExpenses"].([]any); ok {
		item.PrePaidExpenses = make([]Expense, 0, len(list))
		for _, e := range list {
			item.PrePaidExpenses = append(item.PrePaidExpenses, DecodeExpense(e))
		}
	}
	return NormalizeItem(item)
}

// DecodeExpense coerces an arbitrarily-shaped stored value into a valid Expense.
func DecodeExpense(v any) Expense {
	fields, _ := v.(map[string]any)
	return Expense{
		Description: asString(fields["description"]),
		Date:        asString(fields["date"]),
		Amount:      asNumber(fields["amount"]),
	}
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}

func asNumber(v any) float64 {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) {
			return 0
		}
		return n
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil || math.IsNaN(parsed) {
			return 0
		}
		return parsed
	case bool:
		if n {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func asBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b != ""
	case float64:
		return b != 0
	default:
		return false
	}
}
