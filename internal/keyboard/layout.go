// Package keyboard describes the on-screen keyboard and overlays the
// shortcut collection on it, one key at a time.
package keyboard

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Key types
const (
	TypeRegular    = "regular"
	TypeFunction   = "function"
	TypeSpecial    = "special"
	TypeModifier   = "modifier"
	TypeNavigation = "navigation"
)

// Key is one cap on the layout. Stacked keys (the up/down pair) carry
// Children instead of a label.
type Key struct {
	ID       string  `json:"id"`
	Label    string  `json:"label"`
	Type     string  `json:"type"`
	Width    float64 `json:"width,omitempty"`
	Children []Key   `json:"keys,omitempty"`
}

type Row struct {
	ID   string `json:"id"`
	Keys []Key  `json:"keys"`
}

type Layout struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Rows []Row  `json:"rows"`
}

func regular(ids string) []Key {
	var keys []Key
	for _, id := range strings.Fields(ids) {
		keys = append(keys, Key{ID: id, Label: strings.ToUpper(id), Type: TypeRegular})
	}
	return keys
}

func concat(parts ...[]Key) []Key {
	var out []Key
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// MacBookAir is the default layout
var MacBookAir = Layout{
	ID:   "macbook-air",
	Name: "MacBook Air",
	Rows: []Row{
		{ID: "function-row", Keys: concat(
			[]Key{{ID: "escape", Label: "esc", Type: TypeSpecial}},
			functionKeys(12),
			[]Key{{ID: "power", Label: "⏻", Type: TypeSpecial}},
		)},
		{ID: "number-row", Keys: concat(
			[]Key{{ID: "backtick", Label: "`", Type: TypeRegular}},
			regular("1 2 3 4 5 6 7 8 9 0"),
			[]Key{
				{ID: "minus", Label: "-", Type: TypeRegular},
				{ID: "equals", Label: "=", Type: TypeRegular},
				{ID: "backspace", Label: "⌫", Type: TypeSpecial, Width: 1.5},
			},
		)},
		{ID: "qwerty-row", Keys: concat(
			[]Key{{ID: "tab", Label: "tab", Type: TypeSpecial, Width: 1.5}},
			regular("q w e r t y u i o p"),
			[]Key{
				{ID: "bracketLeft", Label: "[", Type: TypeRegular},
				{ID: "bracketRight", Label: "]", Type: TypeRegular},
				{ID: "backslash", Label: `\`, Type: TypeRegular, Width: 1.5},
			},
		)},
		{ID: "asdf-row", Keys: concat(
			[]Key{{ID: "capslock", Label: "caps lock", Type: TypeSpecial, Width: 1.75}},
			regular("a s d f g h j k l"),
			[]Key{
				{ID: "semicolon", Label: ";", Type: TypeRegular},
				{ID: "quote", Label: "'", Type: TypeRegular},
				{ID: "enter", Label: "return", Type: TypeSpecial, Width: 2.25},
			},
		)},
		{ID: "zxcv-row", Keys: concat(
			[]Key{{ID: "shift-left", Label: "shift", Type: TypeModifier, Width: 2.25}},
			regular("z x c v b n m"),
			[]Key{
				{ID: "comma", Label: ",", Type: TypeRegular},
				{ID: "period", Label: ".", Type: TypeRegular},
				{ID: "slash", Label: "/", Type: TypeRegular},
				{ID: "shift-right", Label: "shift", Type: TypeModifier, Width: 2.75},
			},
		)},
		{ID: "bottom-row", Keys: []Key{
			{ID: "fn", Label: "fn", Type: TypeModifier, Width: 1.25},
			{ID: "control-left", Label: "control", Type: TypeModifier, Width: 1.25},
			{ID: "option-left", Label: "option", Type: TypeModifier, Width: 1.25},
			{ID: "command-left", Label: "command", Type: TypeModifier, Width: 1.25},
			{ID: "space", Label: "", Type: TypeRegular, Width: 5},
			{ID: "command-right", Label: "command", Type: TypeModifier, Width: 1.25},
			{ID: "option-right", Label: "option", Type: TypeModifier, Width: 1.25},
			{ID: "left", Label: "←", Type: TypeNavigation},
			{ID: "up-down", Type: TypeNavigation, Children: []Key{
				{ID: "up", Label: "↑", Type: TypeNavigation},
				{ID: "down", Label: "↓", Type: TypeNavigation},
			}},
			{ID: "right", Label: "→", Type: TypeNavigation},
		}},
	},
}

func functionKeys(n int) []Key {
	keys := make([]Key, 0, n)
	for i := 1; i <= n; i++ {
		label := "F" + strconv.Itoa(i)
		keys = append(keys, Key{ID: strings.ToLower(label), Label: label, Type: TypeFunction})
	}
	return keys
}

// specialBaseKeys maps key ids whose base key is not the upper-cased id
var specialBaseKeys = map[string]string{
	"escape":        "Esc",
	"space":         "Space",
	"enter":         "Return",
	"tab":           "Tab",
	"backspace":     "Backspace",
	"delete":        "Delete",
	"left":          "Left",
	"right":         "Right",
	"up":            "Up",
	"down":          "Down",
	"backtick":      "`",
	"minus":         "-",
	"equals":        "=",
	"bracketLeft":   "[",
	"bracketRight":  "]",
	"backslash":     `\`,
	"semicolon":     ";",
	"quote":         "'",
	"comma":         ",",
	"period":        ".",
	"slash":         "/",
	"command-left":  "Command",
	"command-right": "Command",
	"option-left":   "Option",
	"option-right":  "Option",
	"shift-left":    "Shift",
	"shift-right":   "Shift",
	"control-left":  "Control",
}

// BaseKey returns the shortcut base key shown on the key with keyID.
// Letters, digits and function keys map to their upper-case id; unknown
// ids are returned unchanged.
func BaseKey(keyID string) string {
	if base, ok := specialBaseKeys[keyID]; ok {
		return base
	}
	if utf8.RuneCountInString(keyID) == 1 || isFunctionKeyID(keyID) {
		return strings.ToUpper(keyID)
	}
	return keyID
}

func isFunctionKeyID(id string) bool {
	if len(id) < 2 || id[0] != 'f' {
		return false
	}
	_, err := strconv.Atoi(id[1:])
	return err == nil
}

// KeyIDs lists every leaf key id of the layout in row order
func (l Layout) KeyIDs() []string {
	var ids []string
	var walk func(keys []Key)
	walk = func(keys []Key) {
		for _, k := range keys {
			if len(k.Children) > 0 {
				walk(k.Children)
				continue
			}
			ids = append(ids, k.ID)
		}
	}
	for _, row := range l.Rows {
		walk(row.Keys)
	}
	return ids
}
