package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/kwarta/kwarta/internal/utils"
	"github.com/kwarta/kwarta/pkg/budget"
	log "github.com/sirupsen/logrus"
)

// Key namespaces. The month-partitioned ones are suffixed with _YYYY-MM; the
// rest are flat records.
const (
	monthDataPrefix = "budgetTracker"

	SettingsKey      = "budgetTrackerSettings"
	PresetsKey       = "budgetTrackerPresets"
	AdvisorConfigKey = "budgetTrackerAdvisorConfig"
	DarkModeKey      = "darkMode"
)

// ErrWriteFailed signals a rejected persistence write.
var ErrWriteFailed = errors.New("storage write failed")

var monthDataKeyPattern = regexp.MustCompile(`^budgetTracker_\d{4}-\d{2}$`)

// Series identifies one of the per-month scalar records kept next to the
// month payloads.
type Series string

const (
	SeriesSalary  Series = "budgetTrackerSalary"
	SeriesPayroll Series = "budgetTrackerPayrollBalance"
	SeriesCash    Series = "budgetTrackerCashMoney"
)

var AllSeries = []Series{SeriesSalary, SeriesPayroll, SeriesCash}

// Scalars is a per-table pair of money amounts.
type Scalars struct {
	First  float64 `json:"first"`
	Second float64 `json:"second"`
}

func (s Scalars) Get(table budget.Table) float64 {
	if table == budget.TableSecond {
		return s.Second
	}
	return s.First
}

func (s *Scalars) Set(table budget.Table, v float64) {
	if table == budget.TableSecond {
		s.Second = v
		return
	}
	s.First = v
}

func (s Scalars) Total() float64 {
	return s.First + s.Second
}

// Store is the month-partition manager: it translates between in-memory
// ledger state and the month-keyed persistence layout.
type Store struct {
	kv    KV
	clock utils.Clock
}

func NewStore(kv KV, clock utils.Clock) *Store {
	return &Store{kv: kv, clock: clock}
}

func (s *Store) CurrentMonth() string {
	return utils.CurrentMonth(s.clock)
}

// MonthDataKey returns the persistence key of a month's payload. An empty
// month means the current calendar month.
func (s *Store) MonthDataKey(month string) string {
	if month == "" {
		month = s.CurrentMonth()
	}
	return monthDataPrefix + "_" + month
}

func (s *Store) seriesKey(series Series, month string) string {
	if month == "" {
		month = s.CurrentMonth()
	}
	return string(series) + "_" + month
}

// SaveTables partitions every item of both tables by its month key and writes
// one payload per distinct month. Items are regrouped on every save, so an
// item whose date changed migrates to its new month partition here.
func (s *Store) SaveTables(ctx context.Context, tables budget.Tables) error {
	current := s.CurrentMonth()

	byMonth := map[string]*budget.Tables{}
	bucket := func(month string) *budget.Tables {
		t, ok := byMonth[month]
		if !ok {
			t = &budget.Tables{First: []budget.Item{}, Second: []budget.Item{}}
			byMonth[month] = t
		}
		return t
	}
	for _, item := range tables.First {
		t := bucket(item.MonthKey(current))
		t.First = append(t.First, item)
	}
	for _, item := range tables.Second {
		t := bucket(item.MonthKey(current))
		t.Second = append(t.Second, item)
	}

	for month, t := range byMonth {
		raw, err := budget.EncodeMonthPayload(*t)
		if err != nil {
			return fmt.Errorf("could not encode month payload for %s: %w", month, err)
		}
		if err := s.kv.Set(ctx, s.MonthDataKey(month), string(raw)); err != nil {
			return fmt.Errorf("could not save month %s: %w", month, err)
		}
	}
	return nil
}

// LoadTables reads a single month's payload when filterMonth is set, or the
// union of every persisted month when it is empty.
func (s *Store) LoadTables(ctx context.Context, filterMonth string) (budget.Tables, error) {
	empty := budget.Tables{First: []budget.Item{}, Second: []budget.Item{}}

	if filterMonth != "" {
		raw, ok, err := s.kv.Get(ctx, s.MonthDataKey(filterMonth))
		if err != nil {
			return empty, err
		}
		if !ok {
			return empty, nil
		}
		return budget.DecodeMonthPayload([]byte(raw)), nil
	}

	keys, err := s.monthDataKeys(ctx)
	if err != nil {
		return empty, err
	}
	tables := empty
	for _, key := range keys {
		raw, ok, err := s.kv.Get(ctx, key)
		if err != nil || !ok {
			continue
		}
		monthTables := budget.DecodeMonthPayload([]byte(raw))
		tables.First = append(tables.First, monthTables.First...)
		tables.Second = append(tables.Second, monthTables.Second...)
	}
	return tables, nil
}

func (s *Store) monthDataKeys(ctx context.Context) ([]string, error) {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		return nil, err
	}
	months := make([]string, 0, len(keys))
	for _, key := range keys {
		if monthDataKeyPattern.MatchString(key) {
			months = append(months, key)
		}
	}
	return months, nil
}

// Months returns every month key that has a persisted payload, ascending.
func (s *Store) Months(ctx context.Context) ([]string, error) {
	keys, err := s.monthDataKeys(ctx)
	if err != nil {
		return nil, err
	}
	months := make([]string, 0, len(keys))
	for _, key := range keys {
		months = append(months, strings.TrimPrefix(key, monthDataPrefix+"_"))
	}
	return months, nil
}

// DeleteMonth removes one month's persisted payload. SaveTables never writes
// a bucket it has no items for, so an explicit clear has to delete the emptied
// month here or its old payload would come back on the next load.
func (s *Store) DeleteMonth(ctx context.Context, month string) error {
	return s.kv.Delete(ctx, s.MonthDataKey(month))
}

// SaveScalars writes one scalar series for the given month ("" = current).
func (s *Store) SaveScalars(ctx context.Context, series Series, month string, v Scalars) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("could not encode %s: %w", series, err)
	}
	return s.kv.Set(ctx, s.seriesKey(series, month), string(raw))
}

// LoadScalars reads one scalar series. With a filter month it returns that
// month's record (zero when absent); without one it sums the series across
// every persisted month, independently per table.
func (s *Store) LoadScalars(ctx context.Context, series Series, filterMonth string) (Scalars, error) {
	if filterMonth != "" {
		raw, ok, err := s.kv.Get(ctx, s.seriesKey(series, filterMonth))
		if err != nil {
			return Scalars{}, err
		}
		if !ok {
			return Scalars{}, nil
		}
		v, _ := decodeScalars(raw)
		return v, nil
	}

	pattern := regexp.MustCompile("^" + regexp.QuoteMeta(string(series)) + `_\d{4}-\d{2}$`)
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		return Scalars{}, err
	}
	var total Scalars
	for _, key := range keys {
		if !pattern.MatchString(key) {
			continue
		}
		raw, ok, err := s.kv.Get(ctx, key)
		if err != nil || !ok {
			continue
		}
		// Malformed records are skipped to keep the load resilient.
		if v, ok := decodeScalars(raw); ok {
			total.First += v.First
			total.Second += v.Second
		}
	}
	return total, nil
}

// Rollover reports the given month's leftover money: everything available
// (salary + payroll balance + cash, both tables) minus everything spent in
// that month's payload. It returns 0 when the month has no persisted data or
// any of its records fail to parse.
func (s *Store) Rollover(ctx context.Context, month string) float64 {
	if month == "" {
		return 0
	}

	raw, ok, err := s.kv.Get(ctx, s.MonthDataKey(month))
	if err != nil || !ok {
		return 0
	}
	if !json.Valid([]byte(raw)) {
		return 0
	}
	tables := budget.DecodeMonthPayload([]byte(raw))

	var available float64
	for _, series := range AllSeries {
		seriesRaw, ok, err := s.kv.Get(ctx, s.seriesKey(series, month))
		if err != nil {
			return 0
		}
		if !ok {
			continue
		}
		v, parsed := decodeScalars(seriesRaw)
		if !parsed {
			return 0
		}
		available += v.Total()
	}

	var spent float64
	for _, item := range tables.All() {
		for _, expense := range item.Expenses {
			spent += expense.Amount
		}
	}

	return available - spent
}

// ClearAll deletes every month payload, every scalar record (including the
// legacy unsuffixed ones), the settings record, and the presets record. The
// allocation configuration and the dark-mode flag survive a data reset.
func (s *Store) ClearAll(ctx context.Context) error {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if !shouldClear(key) {
			continue
		}
		if err := s.kv.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func shouldClear(key string) bool {
	if strings.HasPrefix(key, monthDataPrefix+"_") {
		return true
	}
	for _, series := range AllSeries {
		if key == string(series) || strings.HasPrefix(key, string(series)+"_") {
			return true
		}
	}
	return key == SettingsKey || key == PresetsKey
}

func decodeScalars(raw string) (Scalars, bool) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		log.Debugf("skipping malformed scalar record: %v", err)
		return Scalars{}, false
	}
	return Scalars{
		First:  scalarValue(fields["first"]),
		Second: scalarValue(fields["second"]),
	}, true
}

func scalarValue(v any) float64 {
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
	default:
		return 0
	}
}
