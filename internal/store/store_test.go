package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yok-tottii/EzKeymap/internal/conflict"
	"github.com/yok-tottii/EzKeymap/internal/shortcut"
	"github.com/yok-tottii/EzKeymap/internal/storage"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newStore(t *testing.T, backend storage.Backend) *Store {
	t.Helper()
	if backend == nil {
		backend = storage.NewMemory()
	}
	s, err := New(context.Background(), backend, WithIDGenerator(sequentialIDs()))
	require.NoError(t, err)
	return s
}

func fields(combo, app, desc string) shortcut.Fields {
	return shortcut.Fields{KeyCombination: combo, Application: app, Description: desc}
}

func mustAdd(t *testing.T, s *Store, f shortcut.Fields) shortcut.Shortcut {
	t.Helper()
	res := s.Add(context.Background(), f, Options{})
	require.True(t, res.Success, "add %v: %+v", f, res)
	return *res.Shortcut
}

func stored(t *testing.T, b storage.Backend) []shortcut.Shortcut {
	t.Helper()
	data, _, err := b.Load(context.Background(), Key)
	require.NoError(t, err)
	var out []shortcut.Shortcut
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

// flakyBackend fails every write once armed
type flakyBackend struct {
	storage.Backend
	fail bool
}

func (f *flakyBackend) CompareAndSwap(ctx context.Context, key string, data []byte, expected storage.Version) (storage.Version, error) {
	if f.fail {
		return storage.NoVersion, errors.New("disk full")
	}
	return f.Backend.CompareAndSwap(ctx, key, data, expected)
}

func TestAddAssignsIDAndDerives(t *testing.T) {
	s := newStore(t, nil)

	res := s.Add(context.Background(), fields("⌘+⇧+K", "VS Code", "Delete line"), Options{})
	require.True(t, res.Success)
	assert.Equal(t, StatusOK, res.Status)
	assert.Nil(t, res.Conflict)
	assert.Equal(t, "id-1", res.Shortcut.ID)
	assert.Equal(t, "K", res.Shortcut.BaseKey)
	assert.Equal(t, []string{"⇧", "⌘"}, res.Shortcut.Modifiers)
	assert.Equal(t, 1, s.Len())
}

func TestAddValidationErrorsNeverPersist(t *testing.T) {
	b := storage.NewMemory()
	s := newStore(t, b)

	res := s.Add(context.Background(), fields("Hyper+K", "", "x"), Options{})
	assert.False(t, res.Success)
	assert.Equal(t, StatusInvalid, res.Status)
	assert.Contains(t, res.FieldErrors, shortcut.FieldKeyCombination)
	assert.Contains(t, res.FieldErrors, shortcut.FieldApplication)

	_, _, err := b.Load(context.Background(), Key)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestExactDuplicateRejectedWithoutSideEffects(t *testing.T) {
	b := storage.NewMemory()
	s := newStore(t, b)
	mustAdd(t, s, fields("⌘+C", "Global", "Copy"))
	before := stored(t, b)

	for _, opts := range []Options{{}, {Force: true}, {Force: true, ReplaceConflicting: true}} {
		res := s.Add(context.Background(), fields("⌘+C", "global", "Copy"), opts)
		assert.False(t, res.Success)
		assert.Equal(t, StatusConflict, res.Status)
		require.NotNil(t, res.Conflict)
		assert.Equal(t, conflict.TypeExact, res.Conflict.Type)
		assert.Equal(t, conflict.SeverityError, res.Conflict.Severity)
	}

	assert.Equal(t, before, stored(t, b))
	assert.Equal(t, 1, s.Len())
}

func TestAppSpecificRequiresForce(t *testing.T) {
	s := newStore(t, nil)
	original := mustAdd(t, s, fields("⌘+C", "Global", "Copy"))
	other := mustAdd(t, s, fields("⌘+C", "VS Code", "Copy"))

	res := s.Add(context.Background(), fields("⌘+C", "Global", "Copy All"), Options{})
	assert.False(t, res.Success)
	require.NotNil(t, res.Conflict)
	assert.Equal(t, conflict.TypeAppSpecific, res.Conflict.Type)
	assert.Equal(t, 2, s.Len())

	res = s.Add(context.Background(), fields("⌘+C", "Global", "Copy All"), Options{Force: true, ReplaceConflicting: true})
	require.True(t, res.Success)
	require.Len(t, res.Replaced, 1)
	assert.Equal(t, original.ID, res.Replaced[0].ID)

	_, ok := s.FindByID(original.ID)
	assert.False(t, ok, "superseded record must be gone")
	_, ok = s.FindByID(other.ID)
	assert.True(t, ok, "records of other applications survive")
	assert.Equal(t, 2, s.Len())
}

func TestForceWithoutReplaceKeepsBoth(t *testing.T) {
	s := newStore(t, nil)
	mustAdd(t, s, fields("⌘+K", "Slack", "Jump"))

	res := s.Add(context.Background(), fields("⌘+K", "Slack", "Search"), Options{Force: true})
	require.True(t, res.Success)
	assert.Empty(t, res.Replaced)
	assert.Equal(t, 2, s.Len())

	overrides := s.Overrides()
	require.Len(t, overrides, 1)
	assert.Equal(t, conflict.TypeAppSpecific, overrides[0].Conflict.Type)
	assert.Equal(t, "Search", overrides[0].Shortcut.Description)
}

func TestCrossAppSucceedsWithAdvisory(t *testing.T) {
	s := newStore(t, nil)
	a := mustAdd(t, s, fields("⌘+P", "VS Code", "Quick open"))
	b := mustAdd(t, s, fields("⌘+P", "Chrome", "Print"))

	res := s.Add(context.Background(), fields("⇧+⌘+P", "Slack", "x"), Options{})
	require.True(t, res.Success)
	assert.Nil(t, res.Conflict)

	res = s.Add(context.Background(), fields("⌘+P", "Slack", "Print"), Options{})
	require.True(t, res.Success)
	require.NotNil(t, res.Conflict)
	assert.Equal(t, conflict.TypeCrossApp, res.Conflict.Type)
	assert.Equal(t, conflict.SeverityInfo, res.Conflict.Severity)

	var matched []string
	for _, m := range res.Conflict.ConflictingShortcuts {
		matched = append(matched, m.ID)
	}
	assert.ElementsMatch(t, []string{a.ID, b.ID}, matched)
	assert.Empty(t, s.Overrides(), "advisory conflicts are not overrides")
}

func TestCopyScenario(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, nil)
	mustAdd(t, s, fields("⌘+C", "Global", "Copy"))

	res := s.Add(ctx, fields("⌘+C", "Global", "Copy"), Options{})
	require.NotNil(t, res.Conflict)
	assert.Equal(t, conflict.TypeExact, res.Conflict.Type)

	res = s.Add(ctx, fields("⌘+C", "Global", "Copy All"), Options{})
	require.NotNil(t, res.Conflict)
	assert.Equal(t, conflict.TypeAppSpecific, res.Conflict.Type)
	assert.False(t, res.Success)

	res = s.Add(ctx, fields("⌘+C", "Global", "Copy All"), Options{Force: true, ReplaceConflicting: true})
	require.True(t, res.Success)
	all := s.All()
	require.Len(t, all, 1)
	assert.Equal(t, "Copy All", all[0].Description)

	res = s.Add(ctx, fields("⌘+C", "VSCode", "Copy"), Options{})
	require.True(t, res.Success)
	require.NotNil(t, res.Conflict)
	assert.Equal(t, conflict.TypeCrossApp, res.Conflict.Type)
	assert.Len(t, s.FindByBaseKey("C"), 2)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, nil)
	rec := mustAdd(t, s, fields("⌘+T", "Browser", "Open new tab"))
	mustAdd(t, s, fields("⌘+W", "Browser", "Close tab"))

	t.Run("self is not a conflict", func(t *testing.T) {
		res := s.Update(ctx, rec, Options{})
		require.True(t, res.Success)
		assert.Nil(t, res.Conflict)
	})

	t.Run("fields replaced in place", func(t *testing.T) {
		changed := rec
		changed.KeyCombination = "⌘+⇧+N"
		changed.Description = "New window"
		changed.BaseKey = "stale"

		res := s.Update(ctx, changed, Options{})
		require.True(t, res.Success)
		assert.Equal(t, rec.ID, res.Shortcut.ID)
		assert.Equal(t, "N", res.Shortcut.BaseKey)

		all := s.All()
		assert.Equal(t, rec.ID, all[0].ID, "position is kept")
		assert.Equal(t, "New window", all[0].Description)
	})

	t.Run("conflict with sibling", func(t *testing.T) {
		changed := rec
		changed.KeyCombination = "⌘+W"
		changed.Description = "Close window"

		res := s.Update(ctx, changed, Options{})
		assert.False(t, res.Success)
		require.NotNil(t, res.Conflict)
		assert.Equal(t, conflict.TypeAppSpecific, res.Conflict.Type)

		res = s.Update(ctx, changed, Options{Force: true, ReplaceConflicting: true})
		require.True(t, res.Success)
		assert.Len(t, res.Replaced, 1)
		assert.Equal(t, 1, s.Len())
	})

	t.Run("missing id", func(t *testing.T) {
		ghost := shortcut.New(fields("⌘+G", "Browser", "Ghost"), "nope")
		res := s.Update(ctx, ghost, Options{})
		assert.False(t, res.Success)
		assert.Equal(t, StatusNotFound, res.Status)
		assert.Equal(t, MsgNotFound, res.Error)
	})
}

func TestDeleteMissingIsNoop(t *testing.T) {
	b := storage.NewMemory()
	s := newStore(t, b)
	mustAdd(t, s, fields("⌘+C", "Global", "Copy"))
	before := s.All()
	beforeStored := stored(t, b)

	assert.False(t, s.Delete(context.Background(), "missing"))
	assert.False(t, s.Delete(context.Background(), ""))
	assert.Equal(t, before, s.All())
	assert.Equal(t, beforeStored, stored(t, b))
}

func TestDeleteAndIDsNotReused(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, storage.NewMemory())
	require.NoError(t, err)

	first := mustAdd(t, s, fields("⌘+C", "Global", "Copy"))
	require.True(t, s.Delete(ctx, first.ID))
	assert.Equal(t, 0, s.Len())

	second := mustAdd(t, s, fields("⌘+C", "Global", "Copy"))
	assert.NotEqual(t, first.ID, second.ID)
}

func TestStorageFailureLeavesMemoryUnchanged(t *testing.T) {
	ctx := context.Background()
	b := &flakyBackend{Backend: storage.NewMemory()}
	s := newStore(t, b)
	rec := mustAdd(t, s, fields("⌘+C", "Global", "Copy"))

	b.fail = true

	res := s.Add(ctx, fields("⌘+V", "Global", "Paste"), Options{})
	assert.False(t, res.Success)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, MsgSaveFailed, res.Error)

	changed := rec
	changed.Description = "Copy everything"
	res = s.Update(ctx, changed, Options{})
	assert.False(t, res.Success)
	assert.Equal(t, MsgSaveFailed, res.Error)

	assert.False(t, s.Delete(ctx, rec.ID))
	assert.Error(t, s.Clear(ctx))

	all := s.All()
	require.Len(t, all, 1)
	assert.Equal(t, "Copy", all[0].Description)
}

func TestConcurrentWriterDetected(t *testing.T) {
	ctx := context.Background()
	b := storage.NewMemory()
	first := newStore(t, b)
	second := newStore(t, b)

	mustAdd(t, first, fields("⌘+C", "Global", "Copy"))

	res := second.Add(ctx, fields("⌘+V", "Global", "Paste"), Options{})
	assert.False(t, res.Success)
	assert.Equal(t, MsgModifiedByPeer, res.Error)

	// the losing store reloaded and can retry against fresh state
	assert.Equal(t, 1, second.Len())
	res = second.Add(ctx, fields("⌘+V", "Global", "Paste"), Options{})
	require.True(t, res.Success)
	assert.Len(t, stored(t, b), 2)
}

func TestLoadRederivesCachedFields(t *testing.T) {
	ctx := context.Background()
	b := storage.NewMemory()
	blob := `[{"id":"x","key_combination":"⌘+⇧+K","application":"App","description":"d","baseKey":"WRONG","modifiers":["⌘","⇧"]}]`
	_, err := b.CompareAndSwap(ctx, Key, []byte(blob), storage.NoVersion)
	require.NoError(t, err)

	s := newStore(t, b)
	rec, ok := s.FindByID("x")
	require.True(t, ok)
	assert.Equal(t, "K", rec.BaseKey)
	assert.Equal(t, []string{"⇧", "⌘"}, rec.Modifiers)
}

func TestLoadRejectsCorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	b := storage.NewMemory()
	_, err := b.CompareAndSwap(ctx, Key, []byte(`{not json`), storage.NoVersion)
	require.NoError(t, err)

	_, err = New(ctx, b)
	assert.Error(t, err)
}

func TestLookups(t *testing.T) {
	s := newStore(t, nil)
	mustAdd(t, s, fields("⌘+C", "Global", "Copy"))
	mustAdd(t, s, fields("⌥+C", "Slack", "Channels"))
	mustAdd(t, s, fields("⌘+K", "slack", "Jump"))

	assert.Len(t, s.FindByBaseKey("C"), 2)
	assert.Empty(t, s.FindByBaseKey("c"), "base key match is exact")
	assert.Len(t, s.FindByApplication("SLACK"), 2)
	assert.Equal(t, []string{"Global", "Slack"}, s.Applications())

	c := s.CheckForConflicts(fields("⌘+C", "Global", "Copy"), "")
	assert.Equal(t, conflict.TypeExact, c.Type)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	b := storage.NewMemory()
	s := newStore(t, b)
	mustAdd(t, s, fields("⌘+C", "Global", "Copy"))

	require.NoError(t, s.Clear(ctx))
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, stored(t, b))
}

func TestSeedDefaults(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, nil)

	n, err := SeedDefaults(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, len(Samples), n)
	assert.Equal(t, len(Samples), s.Len())

	n, err = SeedDefaults(ctx, s)
	require.NoError(t, err)
	assert.Zero(t, n, "seeding only happens on an empty collection")
}

func TestSuggestApplications(t *testing.T) {
	s := newStore(t, nil)
	for _, app := range []string{"Chrome", "VS Code", "Slack", "Google Chrome Canary"} {
		mustAdd(t, s, fields("⌘+K", app, "x-"+app))
	}

	assert.Equal(t, []string{"Chrome", "Google Chrome Canary"}, s.SuggestApplications("chr", 0))
	assert.Equal(t, []string{"Chrome"}, s.SuggestApplications("chorme", 0))
	assert.Equal(t, []string{"VS Code"}, s.SuggestApplications("vscod", 0))
	assert.Len(t, s.SuggestApplications("", 2), 2)
}
