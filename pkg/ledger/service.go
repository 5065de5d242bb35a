package ledger

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/kwarta/kwarta/internal/utils"
	"github.com/kwarta/kwarta/pkg/budget"
	"github.com/kwarta/kwarta/pkg/settings"
	"github.com/kwarta/kwarta/pkg/storage"
	log "github.com/sirupsen/logrus"
)

// Validation failures surfaced to the caller. Everything else degrades to a
// no-op: persistence errors are logged and the in-memory state stays
// authoritative for the rest of the session.
var (
	ErrEmptyCategory  = errors.New("category name cannot be empty")
	ErrNegativeBudget = errors.New("budget cannot be negative")
	ErrInvalidExpense = errors.New("expense needs a description and a positive amount")
)

// ItemEdit carries the editable fields of a budget item.
type ItemEdit struct {
	Category string
	Date     string
	Budget   float64
	Kind     budget.Kind
}

// Funds holds the three per-table money sources of the active view.
type Funds struct {
	Salary  storage.Scalars
	Payroll storage.Scalars
	Cash    storage.Scalars
}

func (f Funds) ForTable(table budget.Table) float64 {
	return f.Salary.Get(table) + f.Payroll.Get(table) + f.Cash.Get(table)
}

func (f Funds) Total() float64 {
	return f.Salary.Total() + f.Payroll.Total() + f.Cash.Total()
}

type Service interface {
	Load(ctx context.Context) error
	Filter() string
	SetFilter(ctx context.Context, month string) error
	ClearFilter(ctx context.Context) error

	View(table budget.Table) []budget.Item
	AllVisibleItems() []budget.Item
	Snapshot() budget.Tables

	AddItem(ctx context.Context, table budget.Table) budget.Item
	EditItem(ctx context.Context, table budget.Table, id string, edit ItemEdit) error
	DeleteItem(ctx context.Context, table budget.Table, id string)
	Reorder(ctx context.Context, table budget.Table, fromIndex, toIndex int)
	MoveUp(ctx context.Context, table budget.Table, id string)
	MoveDown(ctx context.Context, table budget.Table, id string)
	TogglePaid(ctx context.Context, table budget.Table, id string)

	AddExpense(ctx context.Context, table budget.Table, id string, expense budget.Expense) error
	EditExpense(ctx context.Context, table budget.Table, id string, index int, expense budget.Expense) error
	DeleteExpense(ctx context.Context, table budget.Table, id string, index int)

	SetFunds(ctx context.Context, table budget.Table, salary, payroll, cash float64)
	Funds() Funds
	Available(table budget.Table) float64
	TotalAvailable() float64

	ReplaceAll(ctx context.Context, tables budget.Tables)
	ReplaceFiltered(ctx context.Context, first, second []budget.Item)
	ClearCategories(ctx context.Context)
	ClearAll(ctx context.Context) error
}

// ServiceImpl owns the in-memory ledger: both tables, the scalar funds of the
// active view, and the month filter. All access is mutex guarded because the
// allocation-change subscription can recompute dashboards concurrently with
// HTTP mutations.
type ServiceImpl struct {
	mu       sync.Mutex
	tables   budget.Tables
	funds    Funds
	filter   string
	store    *storage.Store
	settings settings.Repository
	clock    utils.Clock
}

func NewService(store *storage.Store, settingsRepo settings.Repository, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{
		tables:   budget.Tables{First: []budget.Item{}, Second: []budget.Item{}},
		store:    store,
		settings: settingsRepo,
		clock:    clock,
	}
}

// Load restores the persisted month filter and reads the matching tables and
// scalar funds into memory. Called once at startup.
func (s *ServiceImpl) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.settings.Get(ctx)
	if err != nil {
		return err
	}
	s.filter = stored.CurrentFilter
	return s.reload(ctx)
}

// reload reads tables and funds for the active filter. Caller holds the lock.
func (s *ServiceImpl) reload(ctx context.Context) error {
	tables, err := s.store.LoadTables(ctx, s.filter)
	if err != nil {
		return err
	}
	s.tables = budget.NormalizeTables(tables)

	for _, series := range storage.AllSeries {
		v, err := s.store.LoadScalars(ctx, series, s.filter)
		if err != nil {
			return err
		}
		s.setSeries(series, v)
	}
	return nil
}

func (s *ServiceImpl) setSeries(series storage.Series, v storage.Scalars) {
	switch series {
	case storage.SeriesSalary:
		s.funds.Salary = v
	case storage.SeriesPayroll:
		s.funds.Payroll = v
	case storage.SeriesCash:
		s.funds.Cash = v
	}
}

func (s *ServiceImpl) Filter() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// SetFilter switches the active month view ("" shows every month), persists
// the choice, and reloads data and funds for the new view.
func (s *ServiceImpl) SetFilter(ctx context.Context, month string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.filter = month
	if err := s.settings.Store(ctx, settings.Settings{CurrentFilter: month}); err != nil {
		log.Errorf("could not persist month filter: %v", err)
	}
	return s.reload(ctx)
}

func (s *ServiceImpl) ClearFilter(ctx context.Context) error {
	return s.SetFilter(ctx, "")
}

// View returns the items of one table visible under the active filter. With a
// filter active, undated items are hidden (they belong to the current month
// only at save time).
func (s *ServiceImpl) View(table budget.Table) []budget.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view(table)
}

func (s *ServiceImpl) view(table budget.Table) []budget.Item {
	items := s.tables.Items(table)
	if s.filter == "" {
		return append([]budget.Item{}, items...)
	}
	visible := make([]budget.Item, 0, len(items))
	for _, item := range items {
		if item.Date != "" && item.MonthKey("") == s.filter {
			visible = append(visible, item)
		}
	}
	return visible
}

// AllVisibleItems returns first-table items followed by second-table items,
// filtered like View.
func (s *ServiceImpl) AllVisibleItems() []budget.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(s.view(budget.TableFirst), s.view(budget.TableSecond)...)
}

// Snapshot returns a copy of the full in-memory tables regardless of filter.
func (s *ServiceImpl) Snapshot() budget.Tables {
	s.mu.Lock()
	defer s.mu.Unlock()
	return budget.Tables{
		First:  append([]budget.Item{}, s.tables.First...),
		Second: append([]budget.Item{}, s.tables.Second...),
	}
}

// AddItem appends a fresh default item to the table, dated to the first day of
// the filter month or to today when unfiltered.
func (s *ServiceImpl) AddItem(ctx context.Context, table budget.Table) budget.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	date := utils.Today(s.clock)
	if s.filter != "" {
		date = s.filter + "-01"
	}
	item := budget.Item{
		ID:       budget.NewID(),
		Category: "New Category",
		Date:     date,
		Budget:   0,
		Kind:     budget.KindEssential,
		Expenses: []budget.Expense{},
	}
	s.tables.SetItems(table, append(s.tables.Items(table), item))
	s.persist(ctx)
	return item
}

// EditItem updates an item's editable fields. Empty category and negative
// budget are rejected; an unrecognized kind is re-inferred from the category
// text. Editing a missing id is a silent no-op.
func (s *ServiceImpl) EditItem(ctx context.Context, table budget.Table, id string, edit ItemEdit) error {
	category := strings.TrimSpace(edit.Category)
	if category == "" {
		return ErrEmptyCategory
	}
	b := edit.Budget
	if math.IsNaN(b) {
		b = 0
	}
	if b < 0 {
		return ErrNegativeBudget
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.find(table, id)
	if item == nil {
		log.Debugf("edit of unknown item %s ignored", id)
		return nil
	}
	item.Category = category
	item.Date = edit.Date
	item.Budget = b
	if edit.Kind.IsValid() {
		item.Kind = edit.Kind
	} else {
		item.Kind = budget.InferKind(category)
	}
	s.persist(ctx)
	return nil
}

func (s *ServiceImpl) DeleteItem(ctx context.Context, table budget.Table, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.tables.Items(table)
	kept := make([]budget.Item, 0, len(items))
	for _, item := range items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	s.tables.SetItems(table, kept)
	s.persist(ctx)
}

// Reorder moves the item at fromIndex to toIndex (remove then insert, not a
// swap). Indexes refer to the full table, matching the drag source.
func (s *ServiceImpl) Reorder(ctx context.Context, table budget.Table, fromIndex, toIndex int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.tables.Items(table)
	if fromIndex < 0 || fromIndex >= len(items) {
		return
	}
	if toIndex < 0 {
		toIndex = 0
	}
	if toIndex >= len(items) {
		toIndex = len(items) - 1
	}
	moved := items[fromIndex]
	items = append(items[:fromIndex], items[fromIndex+1:]...)
	items = append(items[:toIndex], append([]budget.Item{moved}, items[toIndex:]...)...)
	s.tables.SetItems(table, items)
	s.persist(ctx)
}

// MoveUp swaps the item with its predecessor. Distinct from Reorder: this is
// an adjacent swap, not a move.
func (s *ServiceImpl) MoveUp(ctx context.Context, table budget.Table, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.tables.Items(table)
	i := indexOf(items, id)
	if i > 0 {
		items[i-1], items[i] = items[i], items[i-1]
		s.persist(ctx)
	}
}

func (s *ServiceImpl) MoveDown(ctx context.Context, table budget.Table, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.tables.Items(table)
	i := indexOf(items, id)
	if i >= 0 && i < len(items)-1 {
		items[i], items[i+1] = items[i+1], items[i]
		s.persist(ctx)
	}
}

// TogglePaid flips an item between Unpaid and Paid. Marking paid snapshots the
// expense list into PrePaidExpenses and replaces it with a single synthetic
// entry worth the planned budget; marking unpaid restores the snapshot.
func (s *ServiceImpl) TogglePaid(ctx context.Context, table budget.Table, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.find(table, id)
	if item == nil {
		return
	}

	if item.Paid {
		restored := []budget.Expense{}
		if item.PrePaidExpenses != nil {
			for _, e := range item.PrePaidExpenses {
				restored = append(restored, budget.NormalizeExpense(e))
			}
		}
		item.Expenses = restored
		item.Paid = false
		item.PaidAt = ""
		item.PrePaidExpenses = nil
	} else {
		paidDate := item.Date
		if paidDate == "" {
			paidDate = utils.Today(s.clock)
		}
		snapshot := make([]budget.Expense, 0, len(item.Expenses))
		for _, e := range item.Expenses {
			snapshot = append(snapshot, budget.NormalizeExpense(e))
		}
		item.PrePaidExpenses = snapshot
		item.Expenses = []budget.Expense{{
			Description: item.Category,
			Date:        paidDate,
			Amount:      item.Budget,
		}}
		item.Paid = true
		item.PaidAt = s.clock.Now().Format(time.RFC3339)
	}
	s.persist(ctx)
}

// AddExpense appends an expense line. Adding while Paid is a correction that
// invalidates the paid snapshot.
func (s *ServiceImpl) AddExpense(ctx context.Context, table budget.Table, id string, expense budget.Expense) error {
	if err := validateExpense(expense); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.find(table, id)
	if item == nil {
		return nil
	}
	item.Expenses = append(item.Expenses, budget.NormalizeExpense(expense))
	unpay(item)
	s.persist(ctx)
	return nil
}

func (s *ServiceImpl) EditExpense(ctx context.Context, table budget.Table, id string, index int, expense budget.Expense) error {
	if err := validateExpense(expense); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.find(table, id)
	if item == nil || index < 0 || index >= len(item.Expenses) {
		return nil
	}
	item.Expenses[index] = budget.NormalizeExpense(expense)
	unpay(item)
	s.persist(ctx)
	return nil
}

func (s *ServiceImpl) DeleteExpense(ctx context.Context, table budget.Table, id string, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.find(table, id)
	if item == nil || index < 0 || index >= len(item.Expenses) {
		return
	}
	item.Expenses = append(item.Expenses[:index], item.Expenses[index+1:]...)
	unpay(item)
	s.persist(ctx)
}

// SetFunds updates one table's salary, payroll balance, and cash, and persists
// all three series for the active month (filter or current).
func (s *ServiceImpl) SetFunds(ctx context.Context, table budget.Table, salary, payroll, cash float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.funds.Salary.Set(table, orZero(salary))
	s.funds.Payroll.Set(table, orZero(payroll))
	s.funds.Cash.Set(table, orZero(cash))

	values := map[storage.Series]storage.Scalars{
		storage.SeriesSalary:  s.funds.Salary,
		storage.SeriesPayroll: s.funds.Payroll,
		storage.SeriesCash:    s.funds.Cash,
	}
	for _, series := range storage.AllSeries {
		if err := s.store.SaveScalars(ctx, series, s.filter, values[series]); err != nil {
			log.Errorf("could not persist %s: %v", series, err)
		}
	}
}

func (s *ServiceImpl) Funds() Funds {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.funds
}

// Available returns salary + payroll balance + cash for one table.
func (s *ServiceImpl) Available(table budget.Table) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.funds.ForTable(table)
}

// TotalAvailable returns the available money across both tables.
func (s *ServiceImpl) TotalAvailable() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.funds.Total()
}

// ReplaceAll swaps in a whole new ledger, normalizing every item. Used by CSV
// import.
func (s *ServiceImpl) ReplaceAll(ctx context.Context, tables budget.Tables) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tables = budget.NormalizeTables(tables)
	s.persist(ctx)
}

// ReplaceFiltered removes every item belonging to the filter month (or every
// item when unfiltered) and appends the given replacements. Used by preset
// application.
func (s *ServiceImpl) ReplaceFiltered(ctx context.Context, first, second []budget.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tables.First = append(s.outsideFilter(budget.TableFirst), normalizeAll(first)...)
	s.tables.Second = append(s.outsideFilter(budget.TableSecond), normalizeAll(second)...)
	s.persist(ctx)
}

// ClearCategories removes the filter month's items, or every item when no
// filter is active. Funds are kept. The emptied month payloads are deleted:
// persist only rewrites buckets that still have items, so without the delete a
// cleared month would come back on the next reload.
func (s *ServiceImpl) ClearCategories(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.filter == "" {
		s.tables = budget.Tables{First: []budget.Item{}, Second: []budget.Item{}}
		months, err := s.store.Months(ctx)
		if err != nil {
			log.Errorf("could not enumerate months to clear: %v", err)
			return
		}
		for _, month := range months {
			if err := s.store.DeleteMonth(ctx, month); err != nil {
				log.Errorf("could not clear month %s: %v", month, err)
			}
		}
		return
	}

	s.tables.First = s.outsideFilter(budget.TableFirst)
	s.tables.Second = s.outsideFilter(budget.TableSecond)
	s.persist(ctx)
	if err := s.store.DeleteMonth(ctx, s.filter); err != nil {
		log.Errorf("could not clear month %s: %v", s.filter, err)
	}
}

// ClearAll wipes every persisted record the ledger owns and resets the
// in-memory state. Unlike other mutations this one surfaces the persistence
// error: a failed full reset must not look successful.
func (s *ServiceImpl) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.ClearAll(ctx); err != nil {
		return err
	}
	s.tables = budget.Tables{First: []budget.Item{}, Second: []budget.Item{}}
	s.funds = Funds{}
	s.filter = ""
	return nil
}

// outsideFilter returns the table's items that do NOT belong to the filter
// month. Undated items count toward the current month here, matching the save
// partitioning. Caller holds the lock.
func (s *ServiceImpl) outsideFilter(table budget.Table) []budget.Item {
	items := s.tables.Items(table)
	if s.filter == "" {
		return []budget.Item{}
	}
	current := s.store.CurrentMonth()
	kept := make([]budget.Item, 0, len(items))
	for _, item := range items {
		if item.MonthKey(current) != s.filter {
			kept = append(kept, item)
		}
	}
	return kept
}

// persist writes the ledger optimistically: failures are logged and the
// in-memory state stays authoritative. Caller holds the lock.
func (s *ServiceImpl) persist(ctx context.Context) {
	if err := s.store.SaveTables(ctx, s.tables); err != nil {
		log.Errorf("could not persist ledger: %v", err)
	}
}

func (s *ServiceImpl) find(table budget.Table, id string) *budget.Item {
	items := s.tables.Items(table)
	for i := range items {
		if items[i].ID == id {
			return &items[i]
		}
	}
	return nil
}

func indexOf(items []budget.Item, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

// unpay drops the paid state after a direct expense edit: the edit supersedes
// the paid snapshot.
func unpay(item *budget.Item) {
	item.Paid = false
	item.PaidAt = ""
	item.PrePaidExpenses = nil
}

func validateExpense(e budget.Expense) error {
	if strings.TrimSpace(e.Description) == "" || math.IsNaN(e.Amount) || e.Amount <= 0 {
		return ErrInvalidExpense
	}
	return nil
}

func orZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

func normalizeAll(items []budget.Item) []budget.Item {
	out := make([]budget.Item, 0, len(items))
	for _, item := range items {
		out = append(out, budget.NormalizeItem(item))
	}
	return out
}
