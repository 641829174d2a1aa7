package wizard

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/yok-tottii/EzKeymap/internal/store"
)

// flagFileName marks a completed first run inside the config directory
const flagFileName = ".setup_completed"

// SetupWizard runs the first-run setup once per config directory
type SetupWizard struct {
	setupFlagFile string
	mu            sync.RWMutex
}

// NewSetupWizard creates a new setup wizard for configDir
func NewSetupWizard(configDir string) (*SetupWizard, error) {
	// Ensure config directory exists
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	return &SetupWizard{
		setupFlagFile: filepath.Join(configDir, flagFileName),
	}, nil
}

// IsSetupCompleted checks if the first-run setup has been completed
func (w *SetupWizard) IsSetupCompleted() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	_, err := os.Stat(w.setupFlagFile)
	return !os.IsNotExist(err)
}

// MarkSetupCompleted marks the first-run setup as completed
func (w *SetupWizard) MarkSetupCompleted() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	file, err := os.Create(w.setupFlagFile)
	if err != nil {
		return fmt.Errorf("failed to create setup flag file: %w", err)
	}
	return file.Close()
}

// ResetSetup makes the next Run behave like a first run
func (w *SetupWizard) ResetSetup() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.Remove(w.setupFlagFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove setup flag file: %w", err)
	}
	return nil
}

// Run performs the first-run setup: the sample shortcuts are added to an
// empty collection when seed is set. Later runs do nothing, so a collection
// the user cleared stays empty. Returns how many samples were added.
func (w *SetupWizard) Run(ctx context.Context, s *store.Store, seed bool) (int, error) {
	if w.IsSetupCompleted() {
		return 0, nil
	}

	added := 0
	if seed {
		n, err := store.SeedDefaults(ctx, s)
		if err != nil {
			// not marked, so the next start retries
			return n, err
		}
		added = n
	}

	if err := w.MarkSetupCompleted(); err != nil {
		return added, err
	}
	return added, nil
}
