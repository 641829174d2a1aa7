package clipboard

import (
	"fmt"

	"github.com/go-vgo/robotgo"

	"github.com/yok-tottii/EzKeymap/internal/cheatsheet"
	"github.com/yok-tottii/EzKeymap/internal/shortcut"
)

// Manager copies text to the system pasteboard
type Manager struct {
	read  func() (string, error)
	write func(string) error
}

// NewManager creates a clipboard manager backed by the system pasteboard
func NewManager() *Manager {
	return &Manager{
		read:  robotgo.ReadAll,
		write: robotgo.WriteAll,
	}
}

// NewManagerWithFuncs creates a manager with custom read/write functions
// (テスト用)
func NewManagerWithFuncs(read func() (string, error), write func(string) error) *Manager {
	return &Manager{read: read, write: write}
}

// Copy writes text to the clipboard
func (m *Manager) Copy(text string) error {
	if err := m.write(text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}

// Content returns the current clipboard content
func (m *Manager) Content() (string, error) {
	content, err := m.read()
	if err != nil {
		return "", fmt.Errorf("failed to read clipboard: %w", err)
	}
	return content, nil
}

// CopyCheatSheet renders items as a text table and copies it
func (m *Manager) CopyCheatSheet(items []shortcut.Shortcut, headers cheatsheet.Headers) error {
	return m.Copy(cheatsheet.StringWithHeaders(items, headers))
}
