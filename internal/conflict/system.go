package conflict

import "github.com/yok-tottii/EzKeymap/internal/keycombo"

// KnownShortcut is a system or launcher shortcut that applications rarely
// manage to override
type KnownShortcut struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	KeyCombination string `json:"key_combination"`
}

// knownShortcuts contains common macOS shortcuts a new binding may shadow
var knownShortcuts = []KnownShortcut{
	{Name: "Spotlight", Description: "macOS Spotlight search", KeyCombination: "⌘+Space"},
	{Name: "Alfred", Description: "Alfred launcher (common default)", KeyCombination: "⌘+Space"},
	{Name: "Raycast", Description: "Raycast launcher (common default)", KeyCombination: "⌘+Space"},
	{Name: "IME Switch", Description: "Input method editor switch", KeyCombination: "⌃+Space"},
	{Name: "Emoji & Symbols", Description: "Character viewer", KeyCombination: "⌃+⌘+Space"},
	{Name: "Force Quit", Description: "macOS Force Quit", KeyCombination: "⌥+⌘+Esc"},
	{Name: "App Switcher", Description: "Switch between applications", KeyCombination: "⌘+Tab"},
	{Name: "Screenshot", Description: "Capture the entire screen", KeyCombination: "⇧+⌘+3"},
	{Name: "Screenshot (area)", Description: "Capture a selected area", KeyCombination: "⇧+⌘+4"},
	{Name: "Screenshot toolbar", Description: "Open the screenshot toolbar", KeyCombination: "⇧+⌘+5"},
	{Name: "Lock Screen", Description: "Lock the screen", KeyCombination: "⌃+⌘+Q"},
	{Name: "Mission Control", Description: "Show all open windows", KeyCombination: "⌃+Up"},
	{Name: "Hide", Description: "Hide the front application", KeyCombination: "⌘+H"},
	{Name: "Quit", Description: "Quit the front application", KeyCombination: "⌘+Q"},
}

// CheckSystem returns the known shortcuts bound to the same combination.
// Modifier order does not matter.
func CheckSystem(combo string) []KnownShortcut {
	var matches []KnownShortcut
	if keycombo.Canonicalize(combo) == "" {
		return matches
	}

	for _, known := range knownShortcuts {
		if keycombo.Equal(known.KeyCombination, combo) {
			matches = append(matches, known)
		}
	}
	return matches
}

// KnownShortcuts returns a copy of the known shortcut table
func KnownShortcuts() []KnownShortcut {
	out := make([]KnownShortcut, len(knownShortcuts))
	copy(out, knownShortcuts)
	return out
}
