package transfer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yok-tottii/EzKeymap/internal/shortcut"
	"github.com/yok-tottii/EzKeymap/internal/storage"
	"github.com/yok-tottii/EzKeymap/internal/store"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(context.Background(), storage.NewMemory())
	require.NoError(t, err)
	return s
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]string{"": FormatJSON, "JSON": FormatJSON, "yml": FormatYAML, "yaml": FormatYAML} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("csv")
	assert.Error(t, err)
}

func TestExportImportAcrossStores(t *testing.T) {
	ctx := context.Background()
	src := newStore(t)
	_, err := store.SeedDefaults(ctx, src)
	require.NoError(t, err)

	for _, format := range []string{FormatJSON, FormatYAML} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Export(&buf, format, src.All(), time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))
			assert.Contains(t, buf.String(), "key_combination")

			fields, err := Decode(&buf, format)
			require.NoError(t, err)
			require.Len(t, fields, len(store.Samples))

			dst := newStore(t)
			report, err := Import(ctx, dst, fields, ModeMerge)
			require.NoError(t, err)
			assert.Equal(t, len(store.Samples), report.Added)
			assert.Empty(t, report.Skipped)

			for _, s := range src.All() {
				assert.NotEmpty(t, dst.FindByApplication(s.Application))
			}
		})
	}
}

func TestDecodeBareList(t *testing.T) {
	jsonList := `[{"key_combination":"⌘+K","application":"Slack","description":"Jump"}]`
	fields, err := Decode(strings.NewReader(jsonList), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, []shortcut.Fields{{KeyCombination: "⌘+K", Application: "Slack", Description: "Jump"}}, fields)

	yamlList := "- key_combination: ⌘+K\n  application: Slack\n  description: Jump\n"
	fields, err = Decode(strings.NewReader(yamlList), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, []shortcut.Fields{{KeyCombination: "⌘+K", Application: "Slack", Description: "Jump"}}, fields)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode(strings.NewReader("{"), FormatJSON)
	assert.Error(t, err)
	_, err = Decode(strings.NewReader("a: [b"), FormatYAML)
	assert.Error(t, err)
}

func TestImportSkipsConflictsAndInvalid(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	fields := []shortcut.Fields{
		{KeyCombination: "⌘+C", Application: "Global", Description: "Copy"},
		{KeyCombination: "⌘+C", Application: "Global", Description: "Copy"},
		{KeyCombination: "⌘+C", Application: "Global", Description: "Copy All"},
		{KeyCombination: "Hyper+C", Application: "Global", Description: "Bad"},
	}

	report, err := Import(ctx, s, fields, ModeMerge)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Added)
	require.Len(t, report.Skipped, 3)
	assert.Contains(t, report.Skipped[0].Reason, "conflicts with")
	assert.Contains(t, report.Skipped[1].Reason, "will override")
	assert.Contains(t, report.Skipped[2].Reason, "invalid shortcut")
}

func TestImportReplace(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	_, err := store.SeedDefaults(ctx, s)
	require.NoError(t, err)

	report, err := Import(ctx, s, []shortcut.Fields{{KeyCombination: "⌘+K", Application: "Slack", Description: "Jump"}}, ModeReplace)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Added)
	assert.Equal(t, 1, s.Len())
}

// failingBackend rejects writes once armed
type failingBackend struct {
	storage.Backend
	armed bool
}

func (f *failingBackend) CompareAndSwap(ctx context.Context, key string, data []byte, expected storage.Version) (storage.Version, error) {
	if f.armed {
		return storage.NoVersion, errors.New("disk full")
	}
	return f.Backend.CompareAndSwap(ctx, key, data, expected)
}

func TestImportReplaceFailureLeavesCollection(t *testing.T) {
	ctx := context.Background()
	b := &failingBackend{Backend: storage.NewMemory()}
	s, err := store.New(ctx, b)
	require.NoError(t, err)
	for _, combo := range []string{"⌘+A", "⌘+B", "⌘+C"} {
		require.True(t, s.Add(ctx, shortcut.Fields{KeyCombination: combo, Application: "X", Description: combo}, store.Options{}).Success)
	}

	b.armed = true
	report, err := Import(ctx, s, []shortcut.Fields{
		{KeyCombination: "⌘+K", Application: "Slack", Description: "Jump"},
		{KeyCombination: "⌘+L", Application: "Slack", Description: "Link"},
		{KeyCombination: "⌘+M", Application: "Slack", Description: "Minimize"},
	}, ModeReplace)
	require.Error(t, err)
	assert.Zero(t, report.Added)

	all := s.All()
	require.Len(t, all, 3)
	for i, combo := range []string{"⌘+A", "⌘+B", "⌘+C"} {
		assert.Equal(t, combo, all[i].KeyCombination)
	}

	b.armed = false
	reloaded, err := store.New(ctx, b.Backend)
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.Len())
}
