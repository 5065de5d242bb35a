package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/kwarta/kwarta/internal/utils"
	"github.com/kwarta/kwarta/pkg/budget"
	"github.com/kwarta/kwarta/pkg/settings"
	"github.com/kwarta/kwarta/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

type fixture struct {
	service *ServiceImpl
	kv      *storage.StubKV
	clock   *utils.MockClock
}

func setup(t *testing.T) *fixture {
	t.Helper()
	kv := storage.NewStubKV()
	clock := &utils.MockClock{FixedNow: time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)}
	store := storage.NewStore(kv, clock)
	service := NewService(store, settings.NewRepository(kv), clock)
	require.NoError(t, service.Load(ctx))
	return &fixture{service: service, kv: kv, clock: clock}
}

func TestServiceImpl_AddItem(t *testing.T) {
	t.Run("unfiltered items are dated today", func(t *testing.T) {
		f := setup(t)

		item := f.service.AddItem(ctx, budget.TableFirst)

		assert.Equal(t, "New Category", item.Category)
		assert.Equal(t, "2025-08-15", item.Date)
		assert.Equal(t, 0.0, item.Budget)
		assert.Equal(t, budget.KindEssential, item.Kind)
		assert.NotEmpty(t, item.ID)
	})

	t.Run("filtered items are dated to the first of the filter month", func(t *testing.T) {
		f := setup(t)
		require.NoError(t, f.service.SetFilter(ctx, "2025-06"))

		item := f.service.AddItem(ctx, budget.TableSecond)

		assert.Equal(t, "2025-06-01", item.Date)
	})
}

func TestServiceImpl_EditItem(t *testing.T) {
	t.Run("updates the item's fields", func(t *testing.T) {
		f := setup(t)
		item := f.service.AddItem(ctx, budget.TableFirst)

		err := f.service.EditItem(ctx, budget.TableFirst, item.ID, ItemEdit{
			Category: "  Groceries  ",
			Date:     "2025-08-02",
			Budget:   500,
			Kind:     budget.KindEssential,
		})
		require.NoError(t, err)

		got := f.service.View(budget.TableFirst)[0]
		assert.Equal(t, "Groceries", got.Category)
		assert.Equal(t, 500.0, got.Budget)
	})

	t.Run("rejects an empty category", func(t *testing.T) {
		f := setup(t)
		item := f.service.AddItem(ctx, budget.TableFirst)

		err := f.service.EditItem(ctx, budget.TableFirst, item.ID, ItemEdit{Category: "   ", Budget: 0})
		assert.ErrorIs(t, err, ErrEmptyCategory)
	})

	t.Run("rejects a negative budget", func(t *testing.T) {
		f := setup(t)
		item := f.service.AddItem(ctx, budget.TableFirst)

		err := f.service.EditItem(ctx, budget.TableFirst, item.ID, ItemEdit{Category: "Groceries", Budget: -1})
		assert.ErrorIs(t, err, ErrNegativeBudget)
	})

	t.Run("re-infers an unrecognized kind from the category", func(t *testing.T) {
		f := setup(t)
		item := f.service.AddItem(ctx, budget.TableFirst)

		err := f.service.EditItem(ctx, budget.TableFirst, item.ID, ItemEdit{
			Category: "Monthly Rent", Budget: 1200, Kind: "bogus",
		})
		require.NoError(t, err)
		assert.Equal(t, budget.KindFixed, f.service.View(budget.TableFirst)[0].Kind)
	})

	t.Run("editing an unknown id is a silent no-op", func(t *testing.T) {
		f := setup(t)

		err := f.service.EditItem(ctx, budget.TableFirst, "stale", ItemEdit{Category: "X", Budget: 1})
		assert.NoError(t, err)
		assert.Empty(t, f.service.View(budget.TableFirst))
	})
}

func TestServiceImpl_TogglePaid(t *testing.T) {
	t.Run("marks paid with a synthetic expense and a snapshot", func(t *testing.T) {
		f := setup(t)
		item := f.service.AddItem(ctx, budget.TableFirst)
		require.NoError(t, f.service.EditItem(ctx, budget.TableFirst, item.ID, ItemEdit{
			Category: "Rent", Date: "2025-08-01", Budget: 1200, Kind: budget.KindFixed,
		}))
		require.NoError(t, f.service.AddExpense(ctx, budget.TableFirst, item.ID, budget.Expense{
			Description: "partial", Amount: 200,
		}))

		f.service.TogglePaid(ctx, budget.TableFirst, item.ID)

		got := f.service.View(budget.TableFirst)[0]
		assert.True(t, got.Paid)
		assert.NotEmpty(t, got.PaidAt)
		require.Len(t, got.Expenses, 1)
		assert.Equal(t, budget.Expense{Description: "Rent", Date: "2025-08-01", Amount: 1200}, got.Expenses[0])
		require.Len(t, got.PrePaidExpenses, 1)
		assert.Equal(t, "partial", got.PrePaidExpenses[0].Description)
	})

	t.Run("toggling twice restores the original expenses", func(t *testing.T) {
		f := setup(t)
		item := f.service.AddItem(ctx, budget.TableFirst)
		require.NoError(t, f.service.EditItem(ctx, budget.TableFirst, item.ID, ItemEdit{
			Category: "Rent", Date: "2025-08-01", Budget: 1200, Kind: budget.KindFixed,
		}))
		require.NoError(t, f.service.AddExpense(ctx, budget.TableFirst, item.ID, budget.Expense{
			Description: "partial", Amount: 200,
		}))
		before := f.service.View(budget.TableFirst)[0].Expenses

		f.service.TogglePaid(ctx, budget.TableFirst, item.ID)
		f.service.TogglePaid(ctx, budget.TableFirst, item.ID)

		got := f.service.View(budget.TableFirst)[0]
		assert.False(t, got.Paid)
		assert.Empty(t, got.PaidAt)
		assert.Nil(t, got.PrePaidExpenses)
		assert.Equal(t, before, got.Expenses)
	})

	t.Run("an undated item uses today as the synthetic expense date", func(t *testing.T) {
		f := setup(t)
		item := f.service.AddItem(ctx, budget.TableFirst)
		require.NoError(t, f.service.EditItem(ctx, budget.TableFirst, item.ID, ItemEdit{
			Category: "Misc", Date: "", Budget: 100, Kind: budget.KindEssential,
		}))

		f.service.TogglePaid(ctx, budget.TableFirst, item.ID)

		got := f.service.Snapshot().First[0]
		assert.Equal(t, "2025-08-15", got.Expenses[0].Date)
	})
}

func TestServiceImpl_Expenses(t *testing.T) {
	t.Run("add rejects a blank description or non-positive amount", func(t *testing.T) {
		f := setup(t)
		item := f.service.AddItem(ctx, budget.TableFirst)

		assert.ErrorIs(t, f.service.AddExpense(ctx, budget.TableFirst, item.ID, budget.Expense{Description: " ", Amount: 10}), ErrInvalidExpense)
		assert.ErrorIs(t, f.service.AddExpense(ctx, budget.TableFirst, item.ID, budget.Expense{Description: "x", Amount: 0}), ErrInvalidExpense)
	})

	t.Run("any expense edit un-pays a paid item", func(t *testing.T) {
		f := setup(t)
		item := f.service.AddItem(ctx, budget.TableFirst)
		require.NoError(t, f.service.EditItem(ctx, budget.TableFirst, item.ID, ItemEdit{
			Category: "Rent", Date: "2025-08-01", Budget: 1200, Kind: budget.KindFixed,
		}))
		f.service.TogglePaid(ctx, budget.TableFirst, item.ID)
		require.True(t, f.service.View(budget.TableFirst)[0].Paid)

		require.NoError(t, f.service.AddExpense(ctx, budget.TableFirst, item.ID, budget.Expense{
			Description: "correction", Amount: 100,
		}))

		got := f.service.View(budget.TableFirst)[0]
		assert.False(t, got.Paid)
		assert.Empty(t, got.PaidAt)
		assert.Nil(t, got.PrePaidExpenses)
	})

	t.Run("delete removes by index", func(t *testing.T) {
		f := setup(t)
		item := f.service.AddItem(ctx, budget.TableFirst)
		require.NoError(t, f.service.AddExpense(ctx, budget.TableFirst, item.ID, budget.Expense{Description: "one", Amount: 10}))
		require.NoError(t, f.service.AddExpense(ctx, budget.TableFirst, item.ID, budget.Expense{Description: "two", Amount: 20}))

		f.service.DeleteExpense(ctx, budget.TableFirst, item.ID, 0)

		got := f.service.View(budget.TableFirst)[0]
		require.Len(t, got.Expenses, 1)
		assert.Equal(t, "two", got.Expenses[0].Description)
	})
}

func TestServiceImpl_Ordering(t *testing.T) {
	addThree := func(t *testing.T, f *fixture) []string {
		t.Helper()
		var ids []string
		for _, name := range []string{"A", "B", "C"} {
			item := f.service.AddItem(ctx, budget.TableFirst)
			require.NoError(t, f.service.EditItem(ctx, budget.TableFirst, item.ID, ItemEdit{
				Category: name, Date: item.Date, Budget: 0, Kind: budget.KindEssential,
			}))
			ids = append(ids, item.ID)
		}
		return ids
	}

	names := func(f *fixture) []string {
		var out []string
		for _, item := range f.service.View(budget.TableFirst) {
			out = append(out, item.Category)
		}
		return out
	}

	t.Run("reorder is a move, not a swap", func(t *testing.T) {
		f := setup(t)
		addThree(t, f)

		f.service.Reorder(ctx, budget.TableFirst, 0, 2)

		assert.Equal(t, []string{"B", "C", "A"}, names(f))
	})

	t.Run("move up swaps adjacent items", func(t *testing.T) {
		f := setup(t)
		ids := addThree(t, f)

		f.service.MoveUp(ctx, budget.TableFirst, ids[2])

		assert.Equal(t, []string{"A", "C", "B"}, names(f))
	})

	t.Run("move down at the bottom is a no-op", func(t *testing.T) {
		f := setup(t)
		ids := addThree(t, f)

		f.service.MoveDown(ctx, budget.TableFirst, ids[2])

		assert.Equal(t, []string{"A", "B", "C"}, names(f))
	})
}

func TestServiceImpl_FilteredView(t *testing.T) {
	t.Run("a filter hides other months and undated items", func(t *testing.T) {
		f := setup(t)
		tables := budget.Tables{
			First: []budget.Item{
				{ID: "a", Category: "June", Date: "2025-06-05", Kind: budget.KindEssential},
				{ID: "b", Category: "July", Date: "2025-07-05", Kind: budget.KindEssential},
				{ID: "c", Category: "Undated", Date: "", Kind: budget.KindEssential},
			},
			Second: []budget.Item{},
		}
		f.service.ReplaceAll(ctx, tables)
		require.NoError(t, f.service.SetFilter(ctx, "2025-06"))

		view := f.service.View(budget.TableFirst)
		require.Len(t, view, 1)
		assert.Equal(t, "June", view[0].Category)
	})

	t.Run("the filter survives a reload through settings", func(t *testing.T) {
		f := setup(t)
		require.NoError(t, f.service.SetFilter(ctx, "2025-06"))

		reloaded := NewService(storage.NewStore(f.kv, f.clock), settings.NewRepository(f.kv), f.clock)
		require.NoError(t, reloaded.Load(ctx))
		assert.Equal(t, "2025-06", reloaded.Filter())
	})
}

func TestServiceImpl_Funds(t *testing.T) {
	t.Run("set funds updates availability", func(t *testing.T) {
		f := setup(t)

		f.service.SetFunds(ctx, budget.TableFirst, 20000, 1500, 500)
		f.service.SetFunds(ctx, budget.TableSecond, 10000, 0, 0)

		assert.Equal(t, 22000.0, f.service.Available(budget.TableFirst))
		assert.Equal(t, 10000.0, f.service.Available(budget.TableSecond))
		assert.Equal(t, 32000.0, f.service.TotalAvailable())
	})

	t.Run("funds are persisted per month and reset when absent", func(t *testing.T) {
		f := setup(t)
		f.service.SetFunds(ctx, budget.TableFirst, 20000, 0, 0)

		// A month with no record shows zero funds.
		require.NoError(t, f.service.SetFilter(ctx, "1999-01"))
		assert.Equal(t, 0.0, f.service.TotalAvailable())

		// Coming back to the unfiltered view aggregates the saved record.
		require.NoError(t, f.service.ClearFilter(ctx))
		assert.Equal(t, 20000.0, f.service.TotalAvailable())
	})
}

func TestServiceImpl_ReplaceFiltered(t *testing.T) {
	t.Run("replaces only the filter month", func(t *testing.T) {
		f := setup(t)
		f.service.ReplaceAll(ctx, budget.Tables{
			First: []budget.Item{
				{ID: "a", Category: "June", Date: "2025-06-05", Kind: budget.KindEssential},
				{ID: "b", Category: "July", Date: "2025-07-05", Kind: budget.KindEssential},
			},
			Second: []budget.Item{},
		})
		require.NoError(t, f.service.SetFilter(ctx, "2025-06"))

		f.service.ReplaceFiltered(ctx,
			[]budget.Item{{ID: "n", Category: "New June", Date: "2025-06-01", Kind: budget.KindEssential}},
			nil,
		)

		// Reload the unfiltered union: July survived, June was replaced.
		require.NoError(t, f.service.ClearFilter(ctx))
		var categories []string
		for _, item := range f.service.Snapshot().First {
			categories = append(categories, item.Category)
		}
		assert.NotContains(t, categories, "June")
		assert.Contains(t, categories, "New June")
		assert.Contains(t, categories, "July")
	})

	t.Run("replaces everything when unfiltered", func(t *testing.T) {
		f := setup(t)
		f.service.ReplaceAll(ctx, budget.Tables{
			First:  []budget.Item{{ID: "a", Category: "Old", Date: "2025-06-05", Kind: budget.KindEssential}},
			Second: []budget.Item{},
		})

		f.service.ReplaceFiltered(ctx,
			[]budget.Item{{ID: "n", Category: "Fresh", Date: "2025-08-01", Kind: budget.KindEssential}},
			nil,
		)

		snapshot := f.service.Snapshot()
		require.Len(t, snapshot.First, 1)
		assert.Equal(t, "Fresh", snapshot.First[0].Category)
	})
}

func TestServiceImpl_Clear(t *testing.T) {
	t.Run("clear categories keeps funds", func(t *testing.T) {
		f := setup(t)
		f.service.AddItem(ctx, budget.TableFirst)
		f.service.SetFunds(ctx, budget.TableFirst, 20000, 0, 0)

		f.service.ClearCategories(ctx)

		assert.Empty(t, f.service.View(budget.TableFirst))
		assert.Equal(t, 20000.0, f.service.Available(budget.TableFirst))
	})

	t.Run("cleared categories stay gone after a reload", func(t *testing.T) {
		f := setup(t)
		f.service.ReplaceAll(ctx, budget.Tables{
			First: []budget.Item{
				{ID: "a", Category: "June", Date: "2025-06-05", Kind: budget.KindEssential},
				{ID: "b", Category: "July", Date: "2025-07-05", Kind: budget.KindEssential},
			},
			Second: []budget.Item{},
		})

		f.service.ClearCategories(ctx)

		// A fresh service over the same store must not see the old payloads.
		reloaded := NewService(storage.NewStore(f.kv, f.clock), settings.NewRepository(f.kv), f.clock)
		require.NoError(t, reloaded.Load(ctx))
		assert.Empty(t, reloaded.Snapshot().First)
		assert.Empty(t, reloaded.Snapshot().Second)
	})

	t.Run("clear categories under a filter only drops that month", func(t *testing.T) {
		f := setup(t)
		f.service.ReplaceAll(ctx, budget.Tables{
			First: []budget.Item{
				{ID: "a", Category: "June", Date: "2025-06-05", Kind: budget.KindEssential},
				{ID: "b", Category: "July", Date: "2025-07-05", Kind: budget.KindEssential},
			},
			Second: []budget.Item{},
		})

		require.NoError(t, f.service.SetFilter(ctx, "2025-06"))
		f.service.ClearCategories(ctx)

		require.NoError(t, f.service.ClearFilter(ctx))
		snapshot := f.service.Snapshot()
		require.Len(t, snapshot.First, 1)
		assert.Equal(t, "July", snapshot.First[0].Category)
	})

	t.Run("clear all wipes data and funds", func(t *testing.T) {
		f := setup(t)
		f.service.AddItem(ctx, budget.TableFirst)
		f.service.SetFunds(ctx, budget.TableFirst, 20000, 0, 0)

		require.NoError(t, f.service.ClearAll(ctx))

		assert.Empty(t, f.service.Snapshot().First)
		assert.Equal(t, 0.0, f.service.TotalAvailable())
		keys, _ := f.kv.Keys(ctx)
		assert.Empty(t, keys)
	})

	t.Run("writes keep in-memory state on persistence failure", func(t *testing.T) {
		f := setup(t)
		f.kv.FailWrites = true

		item := f.service.AddItem(ctx, budget.TableFirst)

		// The item is kept in memory even though the save was rejected.
		require.Len(t, f.service.View(budget.TableFirst), 1)
		assert.Equal(t, item.ID, f.service.View(budget.TableFirst)[0].ID)
	})
}
