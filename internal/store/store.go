// Package store owns the shortcut collection. It runs conflict detection on
// every write, applies force/replace overrides and persists each accepted
// change as one snapshot in a storage backend.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yok-tottii/EzKeymap/internal/conflict"
	"github.com/yok-tottii/EzKeymap/internal/logger"
	"github.com/yok-tottii/EzKeymap/internal/metrics"
	"github.com/yok-tottii/EzKeymap/internal/shortcut"
	"github.com/yok-tottii/EzKeymap/internal/storage"
)

// Key is the storage key holding the JSON array of shortcuts
const Key = "keyboard-shortcuts"

// User-facing failure messages carried in Result.Error
const (
	MsgNotFound       = "shortcut not found"
	MsgSaveFailed     = "failed to save shortcuts"
	MsgModifiedByPeer = "shortcuts were modified elsewhere, reload and try again"
)

// Options control how a blocking conflict is handled
type Options struct {
	// Force accepts an appSpecific conflict. exact conflicts are never forced.
	Force bool `json:"force"`
	// ReplaceConflicting removes the same-application records of a forced
	// appSpecific conflict before the new record is saved
	ReplaceConflicting bool `json:"replaceConflicting"`
}

// Status discriminates Result
type Status string

const (
	StatusOK       Status = "ok"
	StatusConflict Status = "conflict"
	StatusInvalid  Status = "invalid"
	StatusNotFound Status = "notFound"
	StatusFailed   Status = "failed"
)

// Result is the outcome of Add and Update
type Result struct {
	Success     bool                      `json:"success"`
	Status      Status                    `json:"status"`
	Shortcut    *shortcut.Shortcut        `json:"shortcut,omitempty"`
	Conflict    *conflict.Conflict        `json:"conflict,omitempty"`
	Replaced    []shortcut.Shortcut       `json:"replaced,omitempty"`
	FieldErrors shortcut.ValidationErrors `json:"fieldErrors,omitempty"`
	Error       string                    `json:"error,omitempty"`
}

// Override records a save that went through despite a conflict
type Override struct {
	Shortcut shortcut.Shortcut   `json:"shortcut"`
	Conflict conflict.Conflict   `json:"conflict"`
	Replaced []shortcut.Shortcut `json:"replaced,omitempty"`
	At       time.Time           `json:"at"`
}

// maxOverrides bounds the in-memory override log
const maxOverrides = 100

// Store is the single owner of the collection
type Store struct {
	mu        sync.RWMutex
	backend   storage.Backend
	items     []shortcut.Shortcut
	version   storage.Version
	overrides []Override

	log     *logger.Logger
	metrics *metrics.Metrics
	newID   func() string
	now     func() time.Time
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger. Without it the store is silent.
func WithLogger(l *logger.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithMetrics sets the metrics sink
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithIDGenerator replaces the id source
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// New loads the current snapshot from backend. A missing key yields an
// empty collection.
func New(ctx context.Context, backend storage.Backend, opts ...Option) (*Store, error) {
	s := &Store{
		backend: backend,
		newID:   shortcut.NewID,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// load replaces memory with the stored snapshot. Caller holds mu.
func (s *Store) load(ctx context.Context) error {
	data, version, err := s.backend.Load(ctx, Key)
	if errors.Is(err, storage.ErrNotFound) {
		s.items = []shortcut.Shortcut{}
		s.version = storage.NoVersion
		s.metrics.SetShortcuts(0)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load shortcuts: %w", err)
	}

	var items []shortcut.Shortcut
	if len(data) > 0 {
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("failed to parse shortcuts: %w", err)
		}
	}
	for i := range items {
		items[i].Derive()
	}
	if items == nil {
		items = []shortcut.Shortcut{}
	}

	s.items = items
	s.version = version
	s.metrics.SetShortcuts(len(items))
	return nil
}

// Reload re-reads the stored snapshot, dropping nothing but memory
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// commit writes next as the new snapshot. Memory changes only after the
// backend accepted the write. Caller holds mu.
func (s *Store) commit(ctx context.Context, next []shortcut.Shortcut) error {
	if next == nil {
		next = []shortcut.Shortcut{}
	}

	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to encode shortcuts: %w", err)
	}

	start := time.Now()
	version, err := s.backend.CompareAndSwap(ctx, Key, data, s.version)
	s.metrics.ObserveWrite(time.Since(start))
	if err != nil {
		if errors.Is(err, storage.ErrVersionConflict) {
			s.log.Warn("Stored shortcuts changed underneath us, reloading")
			if rerr := s.load(ctx); rerr != nil {
				s.log.Error("Failed to reload shortcuts: %v", rerr)
			}
		}
		return err
	}

	s.items = next
	s.version = version
	s.metrics.SetShortcuts(len(next))
	return nil
}

func failureMessage(err error) string {
	if errors.Is(err, storage.ErrVersionConflict) {
		return MsgModifiedByPeer
	}
	return MsgSaveFailed
}

// gate decides whether c stops the operation
func (s *Store) gate(op string, c conflict.Conflict, opts Options) (Result, bool) {
	if !c.HasConflict() {
		return Result{}, false
	}
	s.metrics.Conflict(string(c.Type))

	if c.Blocking(opts.Force) {
		s.metrics.Operation(op, metrics.ResultConflict)
		s.log.Info("Shortcut %s rejected: %s", op, c.Message)
		return Result{Status: StatusConflict, Conflict: &c}, true
	}
	return Result{}, false
}

// superseded returns the ids an override removes
func superseded(c conflict.Conflict, opts Options) map[string]bool {
	ids := make(map[string]bool)
	if c.Type != conflict.TypeAppSpecific || !opts.Force || !opts.ReplaceConflicting {
		return ids
	}
	for _, sc := range c.ConflictingShortcuts {
		ids[sc.ID] = true
	}
	return ids
}

func invalid(err error) Result {
	var verrs shortcut.ValidationErrors
	if errors.As(err, &verrs) {
		return Result{Status: StatusInvalid, FieldErrors: verrs, Error: err.Error()}
	}
	return Result{Status: StatusInvalid, Error: err.Error()}
}

func (s *Store) succeed(op string, rec shortcut.Shortcut, c conflict.Conflict, replaced []shortcut.Shortcut) Result {
	s.metrics.Operation(op, metrics.ResultSuccess)

	res := Result{Success: true, Status: StatusOK, Shortcut: &rec, Replaced: replaced}
	if c.HasConflict() {
		res.Conflict = &c
		if c.Type != conflict.TypeCrossApp {
			s.overrides = append(s.overrides, Override{
				Shortcut: rec.Clone(),
				Conflict: c,
				Replaced: replaced,
				At:       s.now(),
			})
			if len(s.overrides) > maxOverrides {
				s.overrides = s.overrides[len(s.overrides)-maxOverrides:]
			}
		}
	}
	return res
}

// Add validates fields, checks them against the collection and appends a
// new record with a fresh id
func (s *Store) Add(ctx context.Context, fields shortcut.Fields, opts Options) Result {
	if err := fields.Validate(); err != nil {
		s.metrics.Operation("add", metrics.ResultInvalid)
		return invalid(err)
	}
	fields = fields.Trimmed()

	s.mu.Lock()
	defer s.mu.Unlock()

	c := conflict.Detect(fields, s.items, "")
	if res, blocked := s.gate("add", c, opts); blocked {
		return res
	}

	rec := shortcut.New(fields, s.newID())
	drop := superseded(c, opts)

	// supersede then insert, in a single snapshot
	next := make([]shortcut.Shortcut, 0, len(s.items)+1)
	var replaced []shortcut.Shortcut
	for _, item := range s.items {
		if drop[item.ID] {
			replaced = append(replaced, item.Clone())
			continue
		}
		next = append(next, item)
	}
	next = append(next, rec)

	if err := s.commit(ctx, next); err != nil {
		s.log.Error("Failed to add shortcut %s: %v", rec.KeyCombination, err)
		s.metrics.Operation("add", metrics.ResultError)
		return Result{Status: StatusFailed, Error: failureMessage(err)}
	}

	s.log.Info("Shortcut added: %s [%s] %s (replaced %d)", rec.KeyCombination, rec.Application, rec.Description, len(replaced))
	return s.succeed("add", rec.Clone(), c, replaced)
}

// Update replaces every editable field of the record with record.ID. The id
// is preserved and the record never conflicts with itself.
func (s *Store) Update(ctx context.Context, record shortcut.Shortcut, opts Options) Result {
	fields := record.Fields()
	if err := fields.Validate(); err != nil {
		s.metrics.Operation("update", metrics.ResultInvalid)
		return invalid(err)
	}
	fields = fields.Trimmed()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(record.ID) < 0 {
		s.metrics.Operation("update", metrics.ResultNotFound)
		return Result{Status: StatusNotFound, Error: MsgNotFound}
	}

	c := conflict.Detect(fields, s.items, record.ID)
	if res, blocked := s.gate("update", c, opts); blocked {
		return res
	}

	updated := shortcut.New(fields, record.ID)
	drop := superseded(c, opts)

	next := make([]shortcut.Shortcut, 0, len(s.items))
	var replaced []shortcut.Shortcut
	for _, item := range s.items {
		switch {
		case item.ID == record.ID:
			next = append(next, updated)
		case drop[item.ID]:
			replaced = append(replaced, item.Clone())
		default:
			next = append(next, item)
		}
	}

	if err := s.commit(ctx, next); err != nil {
		s.log.Error("Failed to update shortcut %s: %v", record.ID, err)
		s.metrics.Operation("update", metrics.ResultError)
		return Result{Status: StatusFailed, Error: failureMessage(err)}
	}

	s.log.Info("Shortcut updated: %s -> %s [%s]", record.ID, updated.KeyCombination, updated.Application)
	return s.succeed("update", updated.Clone(), c, replaced)
}

// Delete removes the record with id. It returns false when the id is
// unknown or the write failed; the collection is unchanged in both cases.
func (s *Store) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		s.metrics.Operation("delete", metrics.ResultNotFound)
		return false
	}

	next := make([]shortcut.Shortcut, 0, len(s.items)-1)
	next = append(next, s.items[:idx]...)
	next = append(next, s.items[idx+1:]...)

	if err := s.commit(ctx, next); err != nil {
		s.log.Error("Failed to delete shortcut %s: %v", id, err)
		s.metrics.Operation("delete", metrics.ResultError)
		return false
	}

	s.metrics.Operation("delete", metrics.ResultSuccess)
	s.log.Info("Shortcut deleted: %s", id)
	return true
}

// Clear empties the collection
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.commit(ctx, []shortcut.Shortcut{}); err != nil {
		s.log.Error("Failed to clear shortcuts: %v", err)
		s.metrics.Operation("clear", metrics.ResultError)
		return fmt.Errorf("failed to clear shortcuts: %w", err)
	}

	s.overrides = nil
	s.metrics.Operation("clear", metrics.ResultSuccess)
	s.log.Info("All shortcuts cleared")
	return nil
}

func (s *Store) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, item := range s.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// CheckForConflicts runs detection without writing anything
func (s *Store) CheckForConflicts(fields shortcut.Fields, excludeID string) conflict.Conflict {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return conflict.Detect(fields, s.items, excludeID)
}

// FindByID returns the record with id
func (s *Store) FindByID(id string) (shortcut.Shortcut, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.indexOf(id); idx >= 0 {
		return s.items[idx].Clone(), true
	}
	return shortcut.Shortcut{}, false
}

// FindByBaseKey returns records whose derived base key equals baseKey
func (s *Store) FindByBaseKey(baseKey string) []shortcut.Shortcut {
	return s.filter(func(item shortcut.Shortcut) bool {
		return item.BaseKey == baseKey
	})
}

// FindByApplication returns records of app, compared case-insensitively
func (s *Store) FindByApplication(app string) []shortcut.Shortcut {
	return s.filter(func(item shortcut.Shortcut) bool {
		return shortcut.SameApplication(item.Application, app)
	})
}

// All returns a copy of the collection in insertion order
func (s *Store) All() []shortcut.Shortcut {
	return s.filter(func(shortcut.Shortcut) bool { return true })
}

func (s *Store) filter(keep func(shortcut.Shortcut) bool) []shortcut.Shortcut {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []shortcut.Shortcut{}
	for _, item := range s.items {
		if keep(item) {
			out = append(out, item.Clone())
		}
	}
	return out
}

// Len returns the number of records
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Overrides returns the saves that went through despite a conflict, oldest
// first
func (s *Store) Overrides() []Override {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Override, len(s.overrides))
	copy(out, s.overrides)
	return out
}

// Applications returns the distinct application names, sorted
// case-insensitively. The first spelling seen wins.
func (s *Store) Applications() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	apps := []string{}
	for _, item := range s.items {
		key := strings.ToLower(item.Application)
		if seen[key] {
			continue
		}
		seen[key] = true
		apps = append(apps, item.Application)
	}

	sort.Slice(apps, func(i, j int) bool {
		return strings.ToLower(apps[i]) < strings.ToLower(apps[j])
	})
	return apps
}
