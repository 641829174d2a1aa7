// Package cheatsheet renders the collection as a plain-text table grouped
// by application.
package cheatsheet

import (
	"bytes"
	"io"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/yok-tottii/EzKeymap/internal/keycombo"
	"github.com/yok-tottii/EzKeymap/internal/shortcut"
)

// Headers are the column titles. Callers may pass translated ones.
type Headers struct {
	Application string
	Shortcut    string
	Description string
}

// DefaultHeaders are the English column titles
var DefaultHeaders = Headers{
	Application: "Application",
	Shortcut:    "Shortcut",
	Description: "Description",
}

// Rows orders items by application, then canonical key combination
func Rows(items []shortcut.Shortcut) [][]string {
	sorted := make([]shortcut.Shortcut, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		ai, aj := strings.ToLower(sorted[i].Application), strings.ToLower(sorted[j].Application)
		if ai != aj {
			return ai < aj
		}
		return keycombo.Canonicalize(sorted[i].KeyCombination) < keycombo.Canonicalize(sorted[j].KeyCombination)
	})

	rows := make([][]string, 0, len(sorted))
	for _, s := range sorted {
		rows = append(rows, []string{s.Application, s.KeyCombination, s.Description})
	}
	return rows
}

// Render writes the table to w
func Render(w io.Writer, items []shortcut.Shortcut, headers Headers) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{headers.Application, headers.Shortcut, headers.Description})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAutoMergeCells(true)
	table.SetRowLine(true)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk(Rows(items))
	table.Render()
}

// String renders the table with DefaultHeaders
func String(items []shortcut.Shortcut) string {
	return StringWithHeaders(items, DefaultHeaders)
}

// StringWithHeaders renders the table with the given headers
func StringWithHeaders(items []shortcut.Shortcut, headers Headers) string {
	var buf bytes.Buffer
	Render(&buf, items, headers)
	return buf.String()
}
