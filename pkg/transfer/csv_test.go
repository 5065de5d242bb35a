package transfer

import (
	"strings"
	"testing"

	"github.com/kwarta/kwarta/pkg/budget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTables() budget.Tables {
	return budget.Tables{
		First: []budget.Item{
			{
				ID: "a", Category: "Rent", Date: "2025-08-01", Budget: 1200, Kind: budget.KindFixed,
				Expenses: []budget.Expense{
					{Description: "August rent", Date: "2025-08-01", Amount: 1200},
				},
			},
			{ID: "b", Category: "Groceries", Date: "2025-08-05", Budget: 450.5, Kind: budget.KindEssential},
		},
		Second: []budget.Item{
			{
				ID: "c", Category: "Dining Out", Date: "2025-08-10", Budget: 200, Kind: budget.KindLifestyle,
				Expenses: []budget.Expense{
					{Description: "pizza", Date: "2025-08-12", Amount: 35},
					{Description: "sushi", Date: "2025-08-20", Amount: 60},
				},
			},
		},
	}
}

func TestRender(t *testing.T) {
	text, err := Render(sampleTables())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(text), "\n")
	require.Len(t, lines, 5)

	assert.Equal(t, "Table,Category,Type,Date,Budget,Expense Description,Expense Date,Expense Amount", lines[0])
	assert.Equal(t, "first,Rent,fixed,2025-08-01,1200,August rent,2025-08-01,1200", lines[1])
	// Items without expenses still get one row, with a zero amount.
	assert.Equal(t, "first,Groceries,essential,2025-08-05,450.5,,,0", lines[2])
	assert.Equal(t, "second,Dining Out,lifestyle,2025-08-10,200,pizza,2025-08-12,35", lines[3])
	assert.Equal(t, "second,Dining Out,lifestyle,2025-08-10,200,sushi,2025-08-20,60", lines[4])
}

func TestRender_InfersMissingKind(t *testing.T) {
	tables := budget.Tables{
		First:  []budget.Item{{ID: "a", Category: "Car Loan", Date: "2025-08-01", Budget: 300}},
		Second: []budget.Item{},
	}

	text, err := Render(tables)
	require.NoError(t, err)
	assert.Contains(t, text, "first,Car Loan,debt,2025-08-01,300")
}

func TestParse(t *testing.T) {
	t.Run("regroups expense rows into one item", func(t *testing.T) {
		text := "Table,Category,Type,Date,Budget,Expense Description,Expense Date,Expense Amount\n" +
			"first,Rent,fixed,2025-08-01,1200,August rent,2025-08-01,1200\n" +
			"second,Dining Out,lifestyle,2025-08-10,200,pizza,2025-08-12,35\n" +
			"second,Dining Out,lifestyle,2025-08-10,200,sushi,2025-08-20,60\n"

		tables, err := Parse(text)
		require.NoError(t, err)

		require.Len(t, tables.First, 1)
		assert.Equal(t, "Rent", tables.First[0].Category)
		assert.NotEmpty(t, tables.First[0].ID)

		require.Len(t, tables.Second, 1)
		item := tables.Second[0]
		assert.Equal(t, budget.KindLifestyle, item.Kind)
		require.Len(t, item.Expenses, 2)
		assert.Equal(t, budget.Expense{Description: "pizza", Date: "2025-08-12", Amount: 35}, item.Expenses[0])
	})

	t.Run("accepts the legacy layout without a type column", func(t *testing.T) {
		text := "Table,Category,Date,Budget,Expense Description,Expense Date,Expense Amount\n" +
			"first,Monthly Rent,2025-08-01,1200,,,0\n"

		tables, err := Parse(text)
		require.NoError(t, err)

		require.Len(t, tables.First, 1)
		assert.Equal(t, budget.KindFixed, tables.First[0].Kind)
		assert.Equal(t, 1200.0, tables.First[0].Budget)
		assert.Empty(t, tables.First[0].Expenses)
	})

	t.Run("skips malformed rows", func(t *testing.T) {
		text := "Table,Category,Type,Date,Budget,Expense Description,Expense Date,Expense Amount\n" +
			"nonsense,Rent,fixed,2025-08-01,1200,,,0\n" +
			",Rent,fixed,2025-08-01,1200,,,0\n" +
			"too,short,row\n" +
			"first,Rent,fixed,2025-08-01,1200,,,0\n"

		tables, err := Parse(text)
		require.NoError(t, err)
		require.Len(t, tables.First, 1)
		assert.Empty(t, tables.Second)
	})

	t.Run("blank expense descriptions do not create expenses", func(t *testing.T) {
		text := "Table,Category,Type,Date,Budget,Expense Description,Expense Date,Expense Amount\n" +
			"first,Rent,fixed,2025-08-01,1200,,,0\n" +
			"first,Rent,fixed,2025-08-01,1200,cleaning,2025-08-03,80\n"

		tables, err := Parse(text)
		require.NoError(t, err)
		require.Len(t, tables.First, 1)
		require.Len(t, tables.First[0].Expenses, 1)
		assert.Equal(t, "cleaning", tables.First[0].Expenses[0].Description)
	})

	t.Run("an unparseable budget falls back to zero", func(t *testing.T) {
		text := "Table,Category,Type,Date,Budget,Expense Description,Expense Date,Expense Amount\n" +
			"first,Rent,fixed,2025-08-01,oops,,,0\n"

		tables, err := Parse(text)
		require.NoError(t, err)
		require.Len(t, tables.First, 1)
		assert.Equal(t, 0.0, tables.First[0].Budget)
	})
}

func TestRenderParseRoundTrip(t *testing.T) {
	original := sampleTables()

	text, err := Render(original)
	require.NoError(t, err)
	restored, err := Parse(text)
	require.NoError(t, err)

	require.Len(t, restored.First, len(original.First))
	require.Len(t, restored.Second, len(original.Second))
	for _, table := range budget.AllTables {
		want := original.Items(table)
		got := restored.Items(table)
		for i := range want {
			assert.Equal(t, want[i].Category, got[i].Category)
			assert.Equal(t, want[i].Date, got[i].Date)
			assert.Equal(t, want[i].Budget, got[i].Budget)
			assert.Equal(t, want[i].Kind, got[i].Kind)
			assert.Equal(t, len(want[i].Expenses), len(got[i].Expenses))
			// Imports mint fresh identifiers.
			assert.NotEqual(t, want[i].ID, got[i].ID)
		}
	}
}
