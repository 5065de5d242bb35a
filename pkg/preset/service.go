package preset

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kwarta/kwarta/pkg/budget"
	"github.com/kwarta/kwarta/pkg/ledger"
	"github.com/kwarta/kwarta/pkg/storage"
)

var ErrUnknownSlot = errors.New("preset slot must be between 1 and 5")

type Service interface {
	List(ctx context.Context) (map[int]Preset, error)
	Names(ctx context.Context) (map[int]string, error)
	Get(ctx context.Context, slot int) (Preset, error)
	Apply(ctx context.Context, slot int) (Preset, error)
	SaveCurrent(ctx context.Context, slot int, name string) (Preset, error)
	ResetToDefault(ctx context.Context, slot int) (Preset, error)
}

type ServiceImpl struct {
	repository Repository
	ledger     ledger.Service
	store      *storage.Store
}

func NewService(repository Repository, ledgerService ledger.Service, store *storage.Store) *ServiceImpl {
	return &ServiceImpl{repository: repository, ledger: ledgerService, store: store}
}

// List returns all five presets, seeding the factory set on first use.
func (s *ServiceImpl) List(ctx context.Context) (map[int]Preset, error) {
	presets, err := s.repository.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if presets == nil {
		presets = DefaultPresets()
		if err := s.repository.StoreAll(ctx, presets); err != nil {
			return nil, fmt.Errorf("could not seed factory presets: %w", err)
		}
	}
	return presets, nil
}

// Names returns the slot-to-label mapping for preset buttons.
func (s *ServiceImpl) Names(ctx context.Context) (map[int]string, error) {
	presets, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int]string, len(presets))
	for slot, p := range presets {
		names[slot] = p.Name
	}
	return names, nil
}

func (s *ServiceImpl) Get(ctx context.Context, slot int) (Preset, error) {
	if slot < 1 || slot > SlotCount {
		return Preset{}, ErrUnknownSlot
	}
	presets, err := s.List(ctx)
	if err != nil {
		return Preset{}, err
	}
	p, ok := presets[slot]
	if !ok {
		return Preset{}, ErrUnknownSlot
	}
	return p, nil
}

// Apply destructively replaces the ledger's filter-month items (or everything
// when unfiltered) with fresh items built from the preset, dated to the first
// of the target month.
func (s *ServiceImpl) Apply(ctx context.Context, slot int) (Preset, error) {
	p, err := s.Get(ctx, slot)
	if err != nil {
		return Preset{}, err
	}

	month := s.ledger.Filter()
	if month == "" {
		month = s.store.CurrentMonth()
	}
	date := month + "-01"

	s.ledger.ReplaceFiltered(ctx, buildItems(p.First, date), buildItems(p.Second, date))
	return p, nil
}

// SaveCurrent captures the ledger's filtered view into a slot. A blank name
// keeps the slot's existing name, or a placeholder for an empty slot.
func (s *ServiceImpl) SaveCurrent(ctx context.Context, slot int, name string) (Preset, error) {
	if slot < 1 || slot > SlotCount {
		return Preset{}, ErrUnknownSlot
	}
	presets, err := s.List(ctx)
	if err != nil {
		return Preset{}, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		if existing, ok := presets[slot]; ok && existing.Name != "" {
			name = existing.Name
		} else {
			name = fmt.Sprintf("Preset %d", slot)
		}
	}

	p := Preset{
		Name:   name,
		First:  captureEntries(s.ledger.View(budget.TableFirst)),
		Second: captureEntries(s.ledger.View(budget.TableSecond)),
	}
	presets[slot] = p
	if err := s.repository.StoreAll(ctx, presets); err != nil {
		return Preset{}, err
	}
	return p, nil
}

// ResetToDefault restores one slot's factory preset.
func (s *ServiceImpl) ResetToDefault(ctx context.Context, slot int) (Preset, error) {
	if slot < 1 || slot > SlotCount {
		return Preset{}, ErrUnknownSlot
	}
	presets, err := s.List(ctx)
	if err != nil {
		return Preset{}, err
	}

	p := DefaultPresets()[slot]
	presets[slot] = p
	if err := s.repository.StoreAll(ctx, presets); err != nil {
		return Preset{}, err
	}
	return p, nil
}

func buildItems(entries []Entry, date string) []budget.Item {
	items := make([]budget.Item, 0, len(entries))
	for _, entry := range entries {
		kind := entry.Kind
		if !kind.IsValid() {
			kind = budget.InferKind(entry.Category)
		}
		items = append(items, budget.Item{
			ID:       budget.NewID(),
			Category: entry.Category,
			Date:     date,
			Budget:   entry.Budget,
			Kind:     kind,
			Expenses: []budget.Expense{},
		})
	}
	return items
}

func captureEntries(items []budget.Item) []Entry {
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		kind := item.Kind
		if !kind.IsValid() {
			kind = budget.InferKind(item.Category)
		}
		entries = append(entries, Entry{
			Category: item.Category,
			Budget:   item.Budget,
			Kind:     kind,
		})
	}
	return entries
}
