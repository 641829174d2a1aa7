package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yok-tottii/EzKeymap/internal/cheatsheet"
	"github.com/yok-tottii/EzKeymap/internal/conflict"
	"github.com/yok-tottii/EzKeymap/internal/shortcut"
	"github.com/yok-tottii/EzKeymap/internal/transfer"
)

// getExportCmd returns the definition of the export command.
func getExportCmd(flags *rootFlags) *cobra.Command {
	var format, out string

	ret := &cobra.Command{
		Use:   "export",
		Short: "Export shortcuts as JSON or YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer app.Close()

			f, err := transfer.ParseFormat(format)
			if err != nil {
				return err
			}
			if err := app.openStore(cmd.Context(), nil); err != nil {
				return err
			}

			w, closeFn, err := createFileOrStdout(out, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := transfer.Export(w, f, app.store.All(), time.Now()); err != nil {
				closeFn()
				return fmt.Errorf("failed to export shortcuts: %w", err)
			}
			return closeFn()
		},
	}
	ret.Flags().StringVarP(&format, "format", "f", transfer.FormatJSON, "Output format: json or yaml")
	ret.Flags().StringVarP(&out, "output", "o", "", "Output file instead of stdout")
	return ret
}

// getImportCmd returns the definition of the import command.
func getImportCmd(flags *rootFlags) *cobra.Command {
	var format, mode string

	ret := &cobra.Command{
		Use:   "import [file]",
		Short: "Import shortcuts from JSON or YAML",
		Long: `
Import shortcuts exported by "ezkeymap export". Records that are invalid or
duplicate an existing shortcut are skipped and listed. Reads stdin when no
file is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if mode != transfer.ModeMerge && mode != transfer.ModeReplace {
				return fmt.Errorf("invalid mode: %s", mode)
			}

			path := ""
			if len(args) == 1 {
				path = args[0]
				if format == "" {
					format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
				}
			}
			f, err := transfer.ParseFormat(format)
			if err != nil {
				return err
			}

			r, closeFn, err := openFileOrStdin(path, cmd.InOrStdin())
			if err != nil {
				return err
			}
			defer closeFn()

			fields, err := transfer.Decode(r, f)
			if err != nil {
				return err
			}

			app, err := bootstrap(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer app.Close()
			if err := app.openStore(cmd.Context(), nil); err != nil {
				return err
			}

			report, err := transfer.Import(cmd.Context(), app.store, fields, mode)
			printReport(cmd.OutOrStdout(), report)
			return err
		},
	}
	ret.Flags().StringVarP(&format, "format", "f", "", "Input format: json or yaml (default: from file extension)")
	ret.Flags().StringVarP(&mode, "mode", "m", transfer.ModeMerge, "merge or replace")
	return ret
}

// getCheckCmd returns the definition of the check command.
func getCheckCmd(flags *rootFlags) *cobra.Command {
	var app, desc string

	ret := &cobra.Command{
		Use:   "check <key combination>",
		Short: "Check a key combination for conflicts without saving",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.openStore(cmd.Context(), nil); err != nil {
				return err
			}

			fields := shortcut.Fields{KeyCombination: args[0], Application: app, Description: desc}
			c := a.store.CheckForConflicts(fields, "")
			printCheck(cmd.OutOrStdout(), c, conflict.CheckSystem(args[0]))
			return nil
		},
	}
	ret.Flags().StringVarP(&app, "app", "a", "Global", "Application the shortcut belongs to")
	ret.Flags().StringVarP(&desc, "description", "d", "", "Description of the shortcut")
	return ret
}

// printCheck writes the conflict category and the conflicting records
func printCheck(w io.Writer, c conflict.Conflict, system []conflict.KnownShortcut) {
	fmt.Fprintf(w, "%s\n", conflict.TypeDescription(c.Type))
	if c.Message != "" {
		fmt.Fprintf(w, "%s\n", c.Message)
	}
	if len(c.ConflictingShortcuts) > 0 {
		cheatsheet.Render(w, c.ConflictingShortcuts, cheatsheet.DefaultHeaders)
	}
	for _, k := range system {
		fmt.Fprintf(w, "Reserved by %s: %s\n", k.Name, k.Description)
	}
}

// printReport summarizes an import
func printReport(w io.Writer, report transfer.Report) {
	fmt.Fprintf(w, "Imported %d shortcut(s), skipped %d\n", report.Added, len(report.Skipped))
	for _, s := range report.Skipped {
		fmt.Fprintf(w, "  %s [%s]: %s\n", s.Fields.KeyCombination, s.Fields.Application, s.Reason)
	}
}

// openFileOrStdin opens path, or returns stdin when path is empty
func openFileOrStdin(path string, stdin io.Reader) (io.Reader, func() error, error) {
	if path == "" {
		return stdin, func() error { return nil }, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, f.Close, nil
}

// createFileOrStdout creates path, or returns stdout when path is empty
func createFileOrStdout(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, f.Close, nil
}
