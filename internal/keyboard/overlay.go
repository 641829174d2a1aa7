package keyboard

import (
	"github.com/yok-tottii/EzKeymap/internal/conflict"
	"github.com/yok-tottii/EzKeymap/internal/shortcut"
)

// Overlay is everything the UI draws on one key
type Overlay struct {
	KeyID        string                         `json:"keyId"`
	BaseKey      string                         `json:"baseKey"`
	Shortcuts    []shortcut.Shortcut            `json:"shortcuts"`
	ByApp        map[string][]shortcut.Shortcut `json:"shortcutsByApp"`
	Apps         []string                       `json:"uniqueApps"`
	Colors       map[string]Swatch              `json:"appColors"`
	Background   string                         `json:"background"`
	TextColor    string                         `json:"textColor"`
	HasConflicts bool                           `json:"hasConflicts"`
}

// HasShortcuts reports whether anything is bound to the key
func (o Overlay) HasShortcuts() bool {
	return len(o.Shortcuts) > 0
}

// ForKey builds the overlay of keyID from the whole collection
func ForKey(keyID string, all []shortcut.Shortcut) Overlay {
	base := BaseKey(keyID)
	o := Overlay{
		KeyID:      keyID,
		BaseKey:    base,
		Shortcuts:  []shortcut.Shortcut{},
		ByApp:      map[string][]shortcut.Shortcut{},
		Apps:       []string{},
		Colors:     map[string]Swatch{},
		Background: Blend(nil),
		TextColor:  DarkText,
	}

	for _, s := range all {
		if s.BaseKey != base {
			continue
		}
		o.Shortcuts = append(o.Shortcuts, s)
		if _, seen := o.ByApp[s.Application]; !seen {
			o.Apps = append(o.Apps, s.Application)
		}
		o.ByApp[s.Application] = append(o.ByApp[s.Application], s)
	}
	if len(o.Shortcuts) == 0 {
		return o
	}

	swatches := make([]Swatch, 0, len(o.Apps))
	backgrounds := make([]string, 0, len(o.Apps))
	for _, app := range o.Apps {
		sw := AppColor(app)
		o.Colors[app] = sw
		swatches = append(swatches, sw)
		backgrounds = append(backgrounds, sw.HSL)
	}

	o.Background = Blend(backgrounds)
	if mixed, ok := Mix(swatches); ok {
		o.TextColor = mixed.Text
	}
	o.HasConflicts = conflict.HasKeyLevelConflicts(o.Shortcuts)
	return o
}

// Board returns the overlays of every layout key that has shortcuts, keyed
// by key id
func Board(layout Layout, all []shortcut.Shortcut) map[string]Overlay {
	board := make(map[string]Overlay)
	for _, id := range layout.KeyIDs() {
		if o := ForKey(id, all); o.HasShortcuts() {
			board[id] = o
		}
	}
	return board
}
