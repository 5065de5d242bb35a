package transfer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/kwarta/kwarta/pkg/budget"
)

var csvHeader = []string{
	"Table", "Category", "Type", "Date", "Budget",
	"Expense Description", "Expense Date", "Expense Amount",
}

// Render serializes the ledger to CSV: one row per expense, or a single row
// with empty expense fields and a zero amount for an item without expenses.
func Render(tables budget.Tables) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return "", fmt.Errorf("could not write CSV header: %w", err)
	}

	for _, table := range budget.AllTables {
		for _, item := range tables.Items(table) {
			kind := item.Kind
			if !kind.IsValid() {
				kind = budget.InferKind(item.Category)
			}
			base := []string{string(table), item.Category, string(kind), item.Date, formatAmount(item.Budget)}

			if len(item.Expenses) == 0 {
				row := append(append([]string{}, base...), "", "", "0")
				if err := w.Write(row); err != nil {
					return "", fmt.Errorf("could not write CSV row: %w", err)
				}
				continue
			}
			for _, e := range item.Expenses {
				row := append(append([]string{}, base...), e.Description, e.Date, formatAmount(e.Amount))
				if err := w.Write(row); err != nil {
					return "", fmt.Errorf("could not write CSV row: %w", err)
				}
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("could not render CSV: %w", err)
	}
	return buf.String(), nil
}

// Parse reads an exported CSV back into tables. Both the 8-column layout and
// the legacy 7-column one (without Type) are accepted, detected per row.
// Malformed rows are skipped; rows are regrouped into items by
// (table, category, date) preserving first-seen order, with fresh ids.
func Parse(text string) (budget.Tables, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return budget.Tables{}, fmt.Errorf("could not parse CSV: %w", err)
	}

	type groupKey struct {
		table    budget.Table
		category string
		date     string
	}
	grouped := map[groupKey]*budget.Item{}
	var order []groupKey
	tables := budget.Tables{First: []budget.Item{}, Second: []budget.Item{}}

	for i, row := range records {
		if i == 0 {
			// Header row.
			continue
		}
		if len(row) < 7 || strings.TrimSpace(row[0]) == "" {
			continue
		}

		hasType := len(row) >= 8
		table, ok := budget.ParseTable(strings.TrimSpace(row[0]))
		if !ok {
			continue
		}
		category := strings.TrimSpace(row[1])

		var typeField, date, budgetField, expenseDesc, expenseDate, expenseAmount string
		if hasType {
			typeField, date, budgetField = strings.TrimSpace(row[2]), strings.TrimSpace(row[3]), strings.TrimSpace(row[4])
			expenseDesc, expenseDate, expenseAmount = strings.TrimSpace(row[5]), strings.TrimSpace(row[6]), strings.TrimSpace(row[7])
		} else {
			date, budgetField = strings.TrimSpace(row[2]), strings.TrimSpace(row[3])
			expenseDesc, expenseDate, expenseAmount = strings.TrimSpace(row[4]), strings.TrimSpace(row[5]), strings.TrimSpace(row[6])
		}

		key := groupKey{table: table, category: category, date: date}
		item, exists := grouped[key]
		if !exists {
			kind := budget.Kind(typeField)
			if !kind.IsValid() {
				kind = budget.InferKind(category)
			}
			item = &budget.Item{
				ID:       budget.NewID(),
				Category: category,
				Date:     date,
				Budget:   parseAmount(budgetField),
				Kind:     kind,
				Expenses: []budget.Expense{},
			}
			grouped[key] = item
			order = append(order, key)
		}

		if expenseDesc != "" {
			item.Expenses = append(item.Expenses, budget.Expense{
				Description: expenseDesc,
				Date:        expenseDate,
				Amount:      parseAmount(expenseAmount),
			})
		}
	}

	for _, key := range order {
		item := *grouped[key]
		tables.SetItems(key.table, append(tables.Items(key.table), item))
	}
	return tables, nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
