package wizard

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/yok-tottii/EzKeymap/internal/storage"
	"github.com/yok-tottii/EzKeymap/internal/store"
)

func newStore(t *testing.T, backend storage.Backend) *store.Store {
	t.Helper()
	s, err := store.New(context.Background(), backend)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return s
}

func TestNewSetupWizard(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "config")
	wizard, err := NewSetupWizard(dir)
	if err != nil {
		t.Fatalf("Failed to create wizard: %v", err)
	}

	if wizard.setupFlagFile != filepath.Join(dir, flagFileName) {
		t.Errorf("Expected flag file in %s, got %s", dir, wizard.setupFlagFile)
	}

	if wizard.IsSetupCompleted() {
		t.Error("Expected setup to be incomplete in a fresh directory")
	}
}

func TestMarkAndResetSetup(t *testing.T) {
	wizard, err := NewSetupWizard(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create wizard: %v", err)
	}

	if err := wizard.MarkSetupCompleted(); err != nil {
		t.Fatalf("Failed to mark setup completed: %v", err)
	}
	if !wizard.IsSetupCompleted() {
		t.Error("Expected setup to be completed")
	}

	if err := wizard.ResetSetup(); err != nil {
		t.Fatalf("Failed to reset setup: %v", err)
	}
	if wizard.IsSetupCompleted() {
		t.Error("Expected setup to be incomplete after reset")
	}

	// Resetting twice is not an error
	if err := wizard.ResetSetup(); err != nil {
		t.Errorf("Expected no error on second reset, got %v", err)
	}
}

func TestRunSeedsOnce(t *testing.T) {
	wizard, err := NewSetupWizard(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create wizard: %v", err)
	}
	s := newStore(t, storage.NewMemory())
	ctx := context.Background()

	n, err := wizard.Run(ctx, s, true)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if n != len(store.Samples) || s.Len() != len(store.Samples) {
		t.Errorf("Expected %d samples, got n=%d len=%d", len(store.Samples), n, s.Len())
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	n, err = wizard.Run(ctx, s, true)
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	if n != 0 || s.Len() != 0 {
		t.Errorf("Expected cleared collection to stay empty, got n=%d len=%d", n, s.Len())
	}
}

func TestRunWithoutSeed(t *testing.T) {
	wizard, err := NewSetupWizard(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create wizard: %v", err)
	}
	s := newStore(t, storage.NewMemory())

	n, err := wizard.Run(context.Background(), s, false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if n != 0 || s.Len() != 0 {
		t.Errorf("Expected no samples, got n=%d len=%d", n, s.Len())
	}
	if !wizard.IsSetupCompleted() {
		t.Error("Expected setup to be completed")
	}
}

// brokenBackend refuses every write
type brokenBackend struct {
	storage.Backend
}

func (b brokenBackend) CompareAndSwap(ctx context.Context, key string, data []byte, expected storage.Version) (storage.Version, error) {
	return storage.NoVersion, errors.New("read-only")
}

func TestRunRetriesAfterFailure(t *testing.T) {
	wizard, err := NewSetupWizard(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create wizard: %v", err)
	}
	s := newStore(t, brokenBackend{storage.NewMemory()})

	if _, err := wizard.Run(context.Background(), s, true); err == nil {
		t.Fatal("Expected seeding to fail")
	}
	if wizard.IsSetupCompleted() {
		t.Error("Expected failed setup to stay incomplete")
	}
}
