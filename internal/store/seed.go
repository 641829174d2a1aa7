package store

import (
	"context"
	"fmt"

	"github.com/yok-tottii/EzKeymap/internal/shortcut"
)

// Samples is the starter set offered on first run
var Samples = []shortcut.Fields{
	{KeyCombination: "⌘+Space", Application: "macOS", Description: "Open Spotlight search"},
	{KeyCombination: "⌘+C", Application: "Global", Description: "Copy selected content"},
	{KeyCombination: "⌘+V", Application: "Global", Description: "Paste from clipboard"},
	{KeyCombination: "⌘+⇧+4", Application: "macOS", Description: "Take a screenshot of a selected area"},
	{KeyCombination: "⌘+⌥+Esc", Application: "macOS", Description: "Force quit applications"},
	{KeyCombination: "⌘+T", Application: "Browser", Description: "Open new tab"},
	{KeyCombination: "⌘+⇧+T", Application: "Browser", Description: "Reopen closed tab"},
	{KeyCombination: "⌘+P", Application: "VS Code", Description: "Quick open, go to file"},
}

// SeedDefaults adds Samples when s is empty and returns how many were added
func SeedDefaults(ctx context.Context, s *Store) (int, error) {
	if s.Len() > 0 {
		return 0, nil
	}

	batch, err := s.Import(ctx, Samples, false)
	if err != nil {
		return 0, err
	}
	if len(batch.Rejected) > 0 {
		r := batch.Rejected[0]
		return len(batch.Added), fmt.Errorf("failed to seed %s: %s", r.Fields.KeyCombination, r.Reason)
	}

	s.log.Info("Seeded %d sample shortcuts", len(batch.Added))
	return len(batch.Added), nil
}
