package keycombo

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// KeyEvent is a physical key press as reported by the browser
type KeyEvent struct {
	Key   string `json:"key"`
	Code  string `json:"code"`
	Meta  bool   `json:"metaKey"`
	Alt   bool   `json:"altKey"`
	Ctrl  bool   `json:"ctrlKey"`
	Shift bool   `json:"shiftKey"`
}

// standaloneModifiers are key names that never form a combination on their own
var standaloneModifiers = map[string]bool{
	"Meta":    true,
	"Alt":     true,
	"Control": true,
	"Shift":   true,
	"OS":      true,
}

// specialKeys maps browser key names to display tokens
var specialKeys = map[string]string{
	" ":          "Space",
	"Spacebar":   "Space",
	"Escape":     "Esc",
	"Esc":        "Esc",
	"Enter":      "Return",
	"Backspace":  "Backspace",
	"Delete":     "Delete",
	"Tab":        "Tab",
	"ArrowLeft":  "Left",
	"ArrowRight": "Right",
	"ArrowUp":    "Up",
	"ArrowDown":  "Down",
	"+":          "Plus",
}

// maxFunctionKey is the highest F-key browsers report
const maxFunctionKey = 24

// Capture converts a key press into a canonical combination string. It
// returns false for standalone modifier presses and for keys that have no
// display token; the caller should keep listening.
func Capture(ev KeyEvent) (string, bool) {
	if standaloneModifiers[ev.Key] {
		return "", false
	}

	key, ok := KeyName(ev.Key, ev.Code)
	if !ok {
		return "", false
	}

	var modifiers []string
	if ev.Ctrl {
		modifiers = append(modifiers, Control)
	}
	if ev.Alt {
		modifiers = append(modifiers, Option)
	}
	if ev.Shift {
		modifiers = append(modifiers, Shift)
	}
	if ev.Meta {
		modifiers = append(modifiers, Command)
	}

	return Format(key, modifiers), true
}

// KeyName returns the display token for a browser key name
func KeyName(key, code string) (string, bool) {
	if code == "Space" {
		return "Space", true
	}
	if name, ok := specialKeys[key]; ok {
		return name, true
	}
	if isFunctionKey(key) {
		return key, true
	}

	if utf8.RuneCountInString(key) == 1 {
		r, _ := utf8.DecodeRuneInString(key)
		if !unicode.IsPrint(r) {
			return "", false
		}
		return strings.ToUpper(key), true
	}

	return "", false
}

func isFunctionKey(key string) bool {
	if len(key) < 2 || key[0] != 'F' {
		return false
	}
	n, err := strconv.Atoi(key[1:])
	if err != nil {
		return false
	}
	return n >= 1 && n <= maxFunctionKey
}
