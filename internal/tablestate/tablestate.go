// Package tablestate persists and applies the shortcut table's sort and
// filter settings.
package tablestate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/yok-tottii/EzKeymap/internal/shortcut"
	"github.com/yok-tottii/EzKeymap/internal/storage"
)

// Key is the storage key holding the table state
const Key = "tableState"

// Sortable columns
const (
	ColumnKeyCombination = "key_combination"
	ColumnApplication    = "application"
	ColumnDescription    = "description"
)

// Sort directions
const (
	Asc  = "asc"
	Desc = "desc"
)

type SortConfig struct {
	Column    string `json:"column"`
	Direction string `json:"direction"`
}

type Filters struct {
	Search      string `json:"search"`
	Application string `json:"application"`
}

type State struct {
	SortConfig SortConfig `json:"sortConfig"`
	Filters    Filters    `json:"filters"`
}

// Default sorts by application ascending with no filters
func Default() State {
	return State{SortConfig: SortConfig{Column: ColumnApplication, Direction: Asc}}
}

// Normalize replaces unknown columns and directions with the defaults
func (s State) Normalize() State {
	switch s.SortConfig.Column {
	case ColumnKeyCombination, ColumnApplication, ColumnDescription:
	default:
		s.SortConfig.Column = ColumnApplication
	}
	if s.SortConfig.Direction != Desc {
		s.SortConfig.Direction = Asc
	}
	s.Filters.Search = strings.TrimSpace(s.Filters.Search)
	s.Filters.Application = strings.TrimSpace(s.Filters.Application)
	return s
}

// Load reads the saved state. A missing or unreadable blob yields Default.
func Load(ctx context.Context, b storage.Backend) (State, storage.Version, error) {
	data, version, err := b.Load(ctx, Key)
	if errors.Is(err, storage.ErrNotFound) {
		return Default(), storage.NoVersion, nil
	}
	if err != nil {
		return Default(), storage.NoVersion, fmt.Errorf("failed to load table state: %w", err)
	}

	state := Default()
	if err := json.Unmarshal(data, &state); err != nil {
		return Default(), version, nil
	}
	return state.Normalize(), version, nil
}

// Save writes state, overwriting whatever is stored
func Save(ctx context.Context, b storage.Backend, state State) error {
	data, err := json.Marshal(state.Normalize())
	if err != nil {
		return fmt.Errorf("failed to encode table state: %w", err)
	}

	// the table state is last-writer-wins; retry once on a stale version
	for attempt := 0; attempt < 2; attempt++ {
		_, version, err := b.Load(ctx, Key)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("failed to load table state: %w", err)
		}
		_, err = b.CompareAndSwap(ctx, Key, data, version)
		if errors.Is(err, storage.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to save table state: %w", err)
		}
		return nil
	}
	return fmt.Errorf("failed to save table state: %w", storage.ErrVersionConflict)
}

// Apply filters then sorts a copy of items
func (s State) Apply(items []shortcut.Shortcut) []shortcut.Shortcut {
	return s.Sort(s.Filter(items))
}

// Filter keeps items matching the search text (key combination,
// application or description, case-insensitive) and the exact application
// filter
func (s State) Filter(items []shortcut.Shortcut) []shortcut.Shortcut {
	search := strings.ToLower(strings.TrimSpace(s.Filters.Search))
	app := strings.TrimSpace(s.Filters.Application)

	out := []shortcut.Shortcut{}
	for _, item := range items {
		if app != "" && item.Application != app {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(item.KeyCombination), search) &&
			!strings.Contains(strings.ToLower(item.Application), search) &&
			!strings.Contains(strings.ToLower(item.Description), search) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// Sort orders a copy of items by the configured column. Ties keep their
// input order.
func (s State) Sort(items []shortcut.Shortcut) []shortcut.Shortcut {
	st := s.Normalize()
	out := make([]shortcut.Shortcut, len(items))
	copy(out, items)

	value := func(item shortcut.Shortcut) string {
		switch st.SortConfig.Column {
		case ColumnKeyCombination:
			return strings.ToLower(item.KeyCombination)
		case ColumnDescription:
			return strings.ToLower(item.Description)
		default:
			return strings.ToLower(item.Application)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := value(out[i]), value(out[j])
		if st.SortConfig.Direction == Desc {
			return a > b
		}
		return a < b
	})
	return out
}

// Toggle returns the state after a click on column's header: the same
// column flips direction, a new column starts ascending
func (s State) Toggle(column string) State {
	if s.SortConfig.Column == column {
		if s.SortConfig.Direction == Asc {
			s.SortConfig.Direction = Desc
		} else {
			s.SortConfig.Direction = Asc
		}
		return s.Normalize()
	}
	s.SortConfig = SortConfig{Column: column, Direction: Asc}
	return s.Normalize()
}
