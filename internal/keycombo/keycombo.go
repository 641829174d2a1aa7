// Package keycombo parses, formats and normalizes textual key combinations
// such as "⌘+⇧+K".
package keycombo

import (
	"sort"
	"strings"
)

// Separator joins modifiers and the base key
const Separator = "+"

// Modifier symbols
const (
	Control = "⌃"
	Option  = "⌥"
	Shift   = "⇧"
	Command = "⌘"
)

// modifierAliases maps lower-cased textual names to their symbol
var modifierAliases = map[string]string{
	"command": Command,
	"cmd":     Command,
	"meta":    Command,
	"option":  Option,
	"opt":     Option,
	"alt":     Option,
	"control": Control,
	"ctrl":    Control,
	"shift":   Shift,
}

// modifierOrder is the canonical precedence: Control < Option < Shift < Command
var modifierOrder = map[string]int{
	Control: 1,
	Option:  2,
	Shift:   3,
	Command: 4,
}

// unknownRank sorts unrecognized tokens after every known modifier
const unknownRank = 100

// Combination is a parsed key combination
type Combination struct {
	BaseKey   string   `json:"baseKey"`
	Modifiers []string `json:"modifiers"`
}

// String formats the combination back into its textual form
func (c Combination) String() string {
	return Format(c.BaseKey, c.Modifiers)
}

// Parse splits a combination on "+". The last token is the base key and the
// preceding tokens are modifiers in the order given.
func Parse(combo string) Combination {
	if combo == "" {
		return Combination{BaseKey: "", Modifiers: []string{}}
	}

	parts := strings.Split(combo, Separator)
	modifiers := make([]string, len(parts)-1)
	copy(modifiers, parts[:len(parts)-1])

	return Combination{
		BaseKey:   parts[len(parts)-1],
		Modifiers: modifiers,
	}
}

// Format is the inverse of Parse
func Format(baseKey string, modifiers []string) string {
	if len(modifiers) == 0 {
		return baseKey
	}
	return strings.Join(modifiers, Separator) + Separator + baseKey
}

// ModifierSymbol resolves a modifier token (symbol or alias) to its symbol
func ModifierSymbol(token string) (string, bool) {
	token = strings.TrimSpace(token)
	if _, ok := modifierOrder[token]; ok {
		return token, true
	}
	symbol, ok := modifierAliases[strings.ToLower(token)]
	return symbol, ok
}

// IsModifier reports whether token names a recognized modifier
func IsModifier(token string) bool {
	_, ok := ModifierSymbol(token)
	return ok
}

// SortModifiers returns a copy of modifiers with aliases mapped to symbols,
// ordered by canonical precedence. Unrecognized tokens keep their input order
// after the recognized ones.
func SortModifiers(modifiers []string) []string {
	sorted := make([]string, 0, len(modifiers))
	for _, m := range modifiers {
		if symbol, ok := ModifierSymbol(m); ok {
			sorted = append(sorted, symbol)
			continue
		}
		sorted = append(sorted, strings.TrimSpace(m))
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return rank(sorted[i]) < rank(sorted[j])
	})
	return sorted
}

func rank(modifier string) int {
	if r, ok := modifierOrder[modifier]; ok {
		return r
	}
	return unknownRank
}

// Canonicalize returns the canonical form used for equality: modifiers mapped
// to symbols and sorted by precedence, base key trimmed.
func Canonicalize(combo string) string {
	if strings.TrimSpace(combo) == "" {
		return ""
	}
	c := Parse(combo)
	return Format(strings.TrimSpace(c.BaseKey), SortModifiers(c.Modifiers))
}

// Normalize parses combo and returns the combination in canonical order
func Normalize(combo string) Combination {
	return Parse(Canonicalize(combo))
}

// Equal reports whether two combinations are the same after canonicalization
func Equal(a, b string) bool {
	return Canonicalize(a) == Canonicalize(b)
}

// IsValid requires a base key that is not itself a modifier, and recognized
// modifiers with no repeats after aliases are resolved
func IsValid(combo string) bool {
	if combo == "" {
		return false
	}

	c := Parse(combo)
	if strings.TrimSpace(c.BaseKey) == "" || IsModifier(c.BaseKey) {
		return false
	}

	seen := make(map[string]bool, len(c.Modifiers))
	for _, m := range c.Modifiers {
		symbol, ok := ModifierSymbol(m)
		if !ok || seen[symbol] {
			return false
		}
		seen[symbol] = true
	}
	return true
}
