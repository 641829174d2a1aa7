// Package transfer exports the collection to JSON or YAML and imports it
// back through the store, so every imported record goes through the same
// validation and conflict rules as a manual add.
package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yok-tottii/EzKeymap/internal/shortcut"
	"github.com/yok-tottii/EzKeymap/internal/store"
)

// Supported formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// DocumentVersion is written into every export
const DocumentVersion = 1

// Document is the export envelope
type Document struct {
	Version    int                 `json:"version" yaml:"version"`
	ExportedAt time.Time           `json:"exportedAt" yaml:"exportedAt"`
	Shortcuts  []shortcut.Shortcut `json:"shortcuts" yaml:"shortcuts"`
}

// ParseFormat accepts json, yaml and yml in any case
func ParseFormat(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// ContentType returns the MIME type for format
func ContentType(format string) string {
	if format == FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}

// Export writes items wrapped in a Document
func Export(w io.Writer, format string, items []shortcut.Shortcut, now time.Time) error {
	if items == nil {
		items = []shortcut.Shortcut{}
	}
	doc := Document{Version: DocumentVersion, ExportedAt: now.UTC().Truncate(time.Second), Shortcuts: items}

	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	}
}

// Decode reads either a Document or a bare list of records. Only the
// editable fields are kept; ids and derived fields are reassigned on import.
func Decode(r io.Reader, format string) ([]shortcut.Fields, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read import: %w", err)
	}

	var records []shortcut.Shortcut
	switch format {
	case FormatYAML:
		records, err = decodeYAML(data)
	default:
		records, err = decodeJSON(data)
	}
	if err != nil {
		return nil, err
	}

	fields := make([]shortcut.Fields, 0, len(records))
	for _, rec := range records {
		fields = append(fields, rec.Fields())
	}
	return fields, nil
}

func decodeJSON(data []byte) ([]shortcut.Shortcut, error) {
	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte("[")) {
		var records []shortcut.Shortcut
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("failed to parse json: %w", err)
		}
		return records, nil
	}

	var doc Document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse json: %w", err)
	}
	return doc.Shortcuts, nil
}

func decodeYAML(data []byte) ([]shortcut.Shortcut, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	if node.Content[0].Kind == yaml.SequenceNode {
		var records []shortcut.Shortcut
		if err := node.Content[0].Decode(&records); err != nil {
			return nil, fmt.Errorf("failed to parse yaml: %w", err)
		}
		return records, nil
	}

	var doc Document
	if err := node.Content[0].Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	return doc.Shortcuts, nil
}

// Import modes
const (
	ModeMerge   = "merge"
	ModeReplace = "replace"
)

// Skipped is a record the store refused
type Skipped struct {
	Fields shortcut.Fields `json:"fields"`
	Reason string          `json:"reason"`
}

// Report summarizes an import
type Report struct {
	Added   int       `json:"added"`
	Skipped []Skipped `json:"skipped"`
}

// Import adds fields to s in a single write. In replace mode the result
// replaces the collection. Records rejected by validation or a blocking
// conflict, including duplicates within fields, are skipped and reported.
// When the write fails nothing is imported and the collection is unchanged.
func Import(ctx context.Context, s *store.Store, fields []shortcut.Fields, mode string) (Report, error) {
	report := Report{Skipped: []Skipped{}}

	batch, err := s.Import(ctx, fields, mode == ModeReplace)
	if err != nil {
		return report, err
	}

	report.Added = len(batch.Added)
	for _, r := range batch.Rejected {
		report.Skipped = append(report.Skipped, Skipped{Fields: r.Fields, Reason: r.Reason})
	}
	return report, nil
}
