package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yok-tottii/EzKeymap/internal/conflict"
	"github.com/yok-tottii/EzKeymap/internal/shortcut"
	"github.com/yok-tottii/EzKeymap/internal/store"
	"github.com/yok-tottii/EzKeymap/internal/transfer"
)

// writeTestConfig writes a config that keeps data and logs under a temp dir
func writeTestConfig(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	cfg := map[string]interface{}{
		"storage": map[string]interface{}{"backend": "file", "dir": filepath.Join(dir, "data")},
		"log":     map[string]interface{}{"level": "error", "dir": filepath.Join(dir, "logs"), "retention_days": 1},
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("Failed to marshal config: %v", err)
	}

	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

// run executes the root command with args and returns stdout
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommandTree(t *testing.T) {
	cmd := newRootCmd()

	for _, name := range []string{"export", "import", "check"} {
		if sub, _, err := cmd.Find([]string{name}); err != nil || sub.Name() != name {
			t.Errorf("Expected subcommand %s", name)
		}
	}

	for _, name := range []string{"headless", "reseed"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("Expected --%s flag", name)
		}
	}

	if cmd.PersistentFlags().Lookup("config") == nil {
		t.Error("Expected --config flag")
	}
}

func TestImportExportCheck(t *testing.T) {
	configPath := writeTestConfig(t)

	input := filepath.Join(t.TempDir(), "shortcuts.json")
	records := `[
  {"key_combination": "⌘+C", "application": "Global", "description": "Copy"},
  {"key_combination": "⌘+C", "application": "Global", "description": "Copy"},
  {"key_combination": "⌘+T", "application": "Browser", "description": "Open new tab"}
]`
	if err := os.WriteFile(input, []byte(records), 0644); err != nil {
		t.Fatalf("Failed to write input: %v", err)
	}

	out, err := run(t, "--config", configPath, "import", input)
	if err != nil {
		t.Fatalf("Import failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Imported 2 shortcut(s), skipped 1") {
		t.Errorf("Unexpected import output: %s", out)
	}

	out, err = run(t, "--config", configPath, "export", "--format", "yaml")
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	fields, err := transfer.Decode(strings.NewReader(out), transfer.FormatYAML)
	if err != nil {
		t.Fatalf("Failed to decode export: %v", err)
	}
	if len(fields) != 2 {
		t.Errorf("Expected 2 exported shortcuts, got %d", len(fields))
	}

	out, err = run(t, "--config", configPath, "check", "⌘+C", "--app", "Terminal")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !strings.Contains(out, conflict.TypeDescription(conflict.TypeCrossApp)) {
		t.Errorf("Expected crossApp result, got: %s", out)
	}
}

func TestRunSetupReseed(t *testing.T) {
	ctx := context.Background()
	app, err := bootstrap(ctx, &rootFlags{configPath: writeTestConfig(t), port: -1})
	if err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	defer app.Close()
	if err := app.openStore(ctx, nil); err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}

	if n, err := app.runSetup(ctx, false); err != nil || n != len(store.Samples) {
		t.Fatalf("Expected %d samples on first run, got n=%d err=%v", len(store.Samples), n, err)
	}
	if err := app.store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	if n, err := app.runSetup(ctx, false); err != nil || n != 0 {
		t.Errorf("Expected no samples on a later run, got n=%d err=%v", n, err)
	}

	n, err := app.runSetup(ctx, true)
	if err != nil {
		t.Fatalf("Reseed failed: %v", err)
	}
	if n != len(store.Samples) || app.store.Len() != len(store.Samples) {
		t.Errorf("Expected %d samples after reseed, got n=%d len=%d", len(store.Samples), n, app.store.Len())
	}
}

func TestImportInvalidMode(t *testing.T) {
	configPath := writeTestConfig(t)

	if _, err := run(t, "--config", configPath, "import", "--mode", "append"); err == nil {
		t.Error("Expected error for invalid mode")
	}
}

func TestPrintCheck(t *testing.T) {
	var buf bytes.Buffer
	c := conflict.Conflict{
		Type:    conflict.TypeAppSpecific,
		Message: "This shortcut will override 1 existing shortcut(s) in Global.",
		ConflictingShortcuts: []shortcut.Shortcut{
			shortcut.New(shortcut.Fields{KeyCombination: "⌘+Space", Application: "Global", Description: "Launcher"}, "a"),
		},
	}
	system := conflict.CheckSystem("⌘+Space")

	printCheck(&buf, c, system)
	out := buf.String()

	for _, want := range []string{"Same shortcut, different function", "Launcher", "Reserved by Spotlight"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, transfer.Report{
		Added: 1,
		Skipped: []transfer.Skipped{
			{Fields: shortcut.Fields{KeyCombination: "⌘+C", Application: "Global"}, Reason: "Exact duplicate"},
		},
	})

	if !strings.Contains(buf.String(), "⌘+C [Global]: Exact duplicate") {
		t.Errorf("Unexpected report: %s", buf.String())
	}
}
