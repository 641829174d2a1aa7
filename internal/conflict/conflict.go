// Package conflict classifies how a candidate shortcut collides with an
// existing collection.
//
// Categories are evaluated in priority order and the first match wins:
//
//	exact       same combination, same application, same description (error, never overridable)
//	appSpecific same combination, same application, other description (warning, overridable)
//	crossApp    same combination, other application (info, advisory)
//	none
package conflict

import (
	"fmt"
	"strings"

	"github.com/yok-tottii/EzKeymap/internal/shortcut"
)

// Type is the conflict category
type Type string

const (
	TypeExact       Type = "exact"
	TypeAppSpecific Type = "appSpecific"
	TypeCrossApp    Type = "crossApp"
	TypeNone        Type = "none"
)

// Severity tells the caller whether to block, confirm or inform
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Conflict is the outcome of Detect
type Conflict struct {
	Type                 Type                `json:"type"`
	Severity             Severity            `json:"severity,omitempty"`
	Message              string              `json:"message,omitempty"`
	ConflictingShortcuts []shortcut.Shortcut `json:"conflictingShortcuts"`
}

// None is the empty result
func None() Conflict {
	return Conflict{Type: TypeNone, Severity: SeverityInfo, ConflictingShortcuts: []shortcut.Shortcut{}}
}

// HasConflict reports whether any category matched
func (c Conflict) HasConflict() bool {
	return c.Type != TypeNone && c.Type != ""
}

// Overridable reports whether a forced save may proceed past this conflict
func (c Conflict) Overridable() bool {
	return c.Type == TypeAppSpecific
}

// Blocking reports whether a save must be rejected. exact always blocks,
// appSpecific blocks unless forced, crossApp never blocks.
func (c Conflict) Blocking(force bool) bool {
	switch c.Type {
	case TypeExact:
		return true
	case TypeAppSpecific:
		return !force
	default:
		return false
	}
}

// Detect classifies candidate against existing. The record whose id equals
// excludeID is ignored so a shortcut never conflicts with itself.
func Detect(candidate shortcut.Fields, existing []shortcut.Shortcut, excludeID string) Conflict {
	candidate = candidate.Trimmed()
	if candidate.KeyCombination == "" {
		return None()
	}

	var sameApp, otherApps []shortcut.Shortcut
	exact := false

	for _, s := range existing {
		if excludeID != "" && s.ID == excludeID {
			continue
		}
		if !shortcut.SameKeyCombination(s.KeyCombination, candidate.KeyCombination) {
			continue
		}

		if shortcut.SameApplication(s.Application, candidate.Application) {
			sameApp = append(sameApp, s.Clone())
			if strings.TrimSpace(s.Description) == candidate.Description {
				exact = true
			}
			continue
		}
		otherApps = append(otherApps, s.Clone())
	}

	switch {
	case exact:
		return Conflict{
			Type:                 TypeExact,
			Severity:             SeverityError,
			Message:              fmt.Sprintf("This shortcut conflicts with %d existing shortcut(s) in the same application.", len(sameApp)),
			ConflictingShortcuts: sameApp,
		}
	case len(sameApp) > 0:
		return Conflict{
			Type:                 TypeAppSpecific,
			Severity:             SeverityWarning,
			Message:              fmt.Sprintf("This shortcut will override %d existing shortcut(s) in %s.", len(sameApp), candidate.Application),
			ConflictingShortcuts: sameApp,
		}
	case len(otherApps) > 0:
		return Conflict{
			Type:                 TypeCrossApp,
			Severity:             SeverityInfo,
			Message:              fmt.Sprintf("This key combination is already used by %d shortcut(s) in other applications.", len(otherApps)),
			ConflictingShortcuts: otherApps,
		}
	}

	return None()
}

// TypeDescription returns a short English label for t
func TypeDescription(t Type) string {
	switch t {
	case TypeExact:
		return "Exact duplicate"
	case TypeAppSpecific:
		return "Same shortcut, different function"
	case TypeCrossApp:
		return "Used in other applications"
	default:
		return "No conflict"
	}
}

// scopeApplications are application names that apply everywhere
var scopeApplications = map[string]bool{
	"global": true,
	"system": true,
}

// HasKeyLevelConflicts is an advisory check over the shortcuts bound to one
// base key. It is true when one application has more than one shortcut on
// the key, or when a global/system shortcut shares the key with any other
// application.
func HasKeyLevelConflicts(onKey []shortcut.Shortcut) bool {
	byApp := make(map[string]int)
	for _, s := range onKey {
		app := strings.ToLower(strings.TrimSpace(s.Application))
		byApp[app]++
		if byApp[app] > 1 {
			return true
		}
	}

	if len(byApp) < 2 {
		return false
	}
	for app := range byApp {
		if scopeApplications[app] {
			return true
		}
	}
	return false
}
