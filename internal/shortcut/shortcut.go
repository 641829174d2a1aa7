// Package shortcut defines the persisted shortcut record and the rules for
// deriving and validating its fields.
package shortcut

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/yok-tottii/EzKeymap/internal/keycombo"
)

// Field length limits enforced by Validate
const (
	MaxApplicationLength = 50
	MaxDescriptionLength = 100
)

// Field names used in ValidationErrors
const (
	FieldKeyCombination = "key_combination"
	FieldApplication    = "application"
	FieldDescription    = "description"
)

// Shortcut is a key combination bound to an action in an application
type Shortcut struct {
	ID             string   `json:"id" yaml:"id"`
	KeyCombination string   `json:"key_combination" yaml:"key_combination"`
	Application    string   `json:"application" yaml:"application"`
	Description    string   `json:"description" yaml:"description"`
	BaseKey        string   `json:"baseKey" yaml:"baseKey"`
	Modifiers      []string `json:"modifiers" yaml:"modifiers"`
}

// Fields holds the user-editable part of a shortcut
type Fields struct {
	KeyCombination string `json:"key_combination" yaml:"key_combination"`
	Application    string `json:"application" yaml:"application"`
	Description    string `json:"description" yaml:"description"`
}

// NewID returns a fresh opaque identifier
func NewID() string {
	return uuid.NewString()
}

// New builds a shortcut from fields and derives baseKey and modifiers
func New(fields Fields, id string) Shortcut {
	s := Shortcut{ID: id}
	s.SetFields(fields)
	return s
}

// Fields returns the editable fields of s
func (s Shortcut) Fields() Fields {
	return Fields{
		KeyCombination: s.KeyCombination,
		Application:    s.Application,
		Description:    s.Description,
	}
}

// SetFields replaces every editable field and re-derives the cached ones
func (s *Shortcut) SetFields(fields Fields) {
	fields = fields.Trimmed()
	s.KeyCombination = fields.KeyCombination
	s.Application = fields.Application
	s.Description = fields.Description
	s.Derive()
}

// Derive recomputes BaseKey and Modifiers from KeyCombination. Modifiers are
// stored in canonical order.
func (s *Shortcut) Derive() {
	c := keycombo.Normalize(s.KeyCombination)
	s.BaseKey = c.BaseKey
	s.Modifiers = c.Modifiers
}

// Canonical returns the canonical form of the key combination
func (s Shortcut) Canonical() string {
	return keycombo.Canonicalize(s.KeyCombination)
}

// Clone returns a deep copy of s
func (s Shortcut) Clone() Shortcut {
	c := s
	if s.Modifiers != nil {
		c.Modifiers = make([]string, len(s.Modifiers))
		copy(c.Modifiers, s.Modifiers)
	}
	return c
}

// Trimmed returns f with surrounding whitespace removed from every field
func (f Fields) Trimmed() Fields {
	return Fields{
		KeyCombination: strings.TrimSpace(f.KeyCombination),
		Application:    strings.TrimSpace(f.Application),
		Description:    strings.TrimSpace(f.Description),
	}
}

// ValidationErrors maps a field name to a user-facing message
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for field := range v {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, v[field]))
	}
	return "invalid shortcut: " + strings.Join(parts, "; ")
}

// Validate checks the fields before they reach conflict detection. It
// returns nil or a ValidationErrors value.
func (f Fields) Validate() error {
	f = f.Trimmed()
	errs := ValidationErrors{}

	switch {
	case f.Application == "":
		errs[FieldApplication] = "Application name is required"
	case utf8.RuneCountInString(f.Application) > MaxApplicationLength:
		errs[FieldApplication] = fmt.Sprintf("Application name must be %d characters or less", MaxApplicationLength)
	}

	switch {
	case f.Description == "":
		errs[FieldDescription] = "Description is required"
	case utf8.RuneCountInString(f.Description) > MaxDescriptionLength:
		errs[FieldDescription] = fmt.Sprintf("Description must be %d characters or less", MaxDescriptionLength)
	}

	switch {
	case f.KeyCombination == "":
		errs[FieldKeyCombination] = "Key combination is required"
	case !keycombo.IsValid(f.KeyCombination):
		errs[FieldKeyCombination] = "Invalid key combination format. Example: ⌘+A, ⌃+⌥+Delete"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// SameKeyCombination reports whether two combinations are equal once
// canonicalized
func SameKeyCombination(a, b string) bool {
	return keycombo.Equal(a, b)
}

// SameApplication compares application names case-insensitively
func SameApplication(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
