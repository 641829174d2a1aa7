package cheatsheet

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yok-tottii/EzKeymap/internal/shortcut"
)

func items() []shortcut.Shortcut {
	return []shortcut.Shortcut{
		shortcut.New(shortcut.Fields{KeyCombination: "⌘+V", Application: "Global", Description: "Paste from clipboard"}, "1"),
		shortcut.New(shortcut.Fields{KeyCombination: "⌘+T", Application: "Browser", Description: "Open new tab"}, "2"),
		shortcut.New(shortcut.Fields{KeyCombination: "⌘+C", Application: "Global", Description: "Copy selected content"}, "3"),
	}
}

func TestRowsOrder(t *testing.T) {
	rows := Rows(items())
	assert.Equal(t, [][]string{
		{"Browser", "⌘+T", "Open new tab"},
		{"Global", "⌘+C", "Copy selected content"},
		{"Global", "⌘+V", "Paste from clipboard"},
	}, rows)
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	Render(&buf, items(), Headers{Application: "アプリ", Shortcut: "ショートカット", Description: "説明"})
	out := buf.String()

	assert.Contains(t, out, "アプリ")
	assert.Contains(t, out, "Copy selected content")
	assert.Less(t, strings.Index(out, "Browser"), strings.Index(out, "Global"))
	assert.Less(t, strings.Index(out, "⌘+C"), strings.Index(out, "⌘+V"))
}

func TestStringEmpty(t *testing.T) {
	out := String(nil)
	assert.Contains(t, out, "Application")
	assert.NotContains(t, out, "⌘")
}
