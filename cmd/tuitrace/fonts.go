package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/tuitrace/internal/charinfo"
	"github.com/verte-zerg/tuitrace/internal/config"
	"github.com/verte-zerg/tuitrace/internal/typeface"
)

// fontLocator is the part of the library the check command needs.
type fontLocator interface {
	Locate(name string) (string, error)
}

func newFontsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fonts",
		Short: "Inspect typefaces",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List font files in font dirs and system fonts",
		Args:  cobra.NoArgs,
		RunE:  runFontsListCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "resolve GLYPH",
		Short: "Probe the candidate typefaces for a glyph",
		Args:  cobra.ExactArgs(1),
		RunE:  runFontsResolveCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "check GLYPH [FONT...]",
		Short: "Report whether fonts map the glyph's characters",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runFontsCheckCmd,
	})
	return cmd
}

func loadTypefaces() (*typeface.Library, *typeface.Resolver, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return newTypefaces(fileCfg.Typefaces)
}

func runFontsListCmd(cmd *cobra.Command, _ []string) error {
	lib, _, err := loadTypefaces()
	if err != nil {
		return err
	}
	entries := lib.List()
	t := newTable("Name", "Source", "Path")
	t.Row(typeface.FallbackName, "embedded", "")
	for _, e := range entries {
		source := "dir"
		if e.System {
			source = "system"
		}
		t.Row(e.Name, source, e.Path)
	}
	return writeOut(cmd.OutOrStdout(), t.String())
}

func runFontsResolveCmd(cmd *cobra.Command, args []string) error {
	_, resolver, err := loadTypefaces()
	if err != nil {
		return err
	}
	glyph := charinfo.LastGlyph(args[0])
	if glyph == "" {
		return fmt.Errorf("glyph is empty")
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return writeResolve(cmd.OutOrStdout(), glyph, resolver.Probe(ctx, glyph), resolver.Fallback())
}

// writeResolve prints the probe table and the winner. The winner is the
// first accepted probe in candidate order, as the resolver picks it.
func writeResolve(w io.Writer, glyph string, probes []typeface.Probe, fallback string) error {
	t := newTable("Candidate", "Usable", "Difference", "Accepted", "Error")
	winner := ""
	for _, p := range probes {
		errText := ""
		if p.Err != nil {
			errText = p.Err.Error()
		}
		diff := "-"
		if p.Usable {
			diff = fmt.Sprintf("%.3f", p.Difference)
		}
		t.Row(p.Name, yesNo(p.Usable), diff, yesNo(p.Accepted), errText)
		if p.Accepted && winner == "" {
			winner = p.Name
		}
	}
	if err := writeOut(w, t.String()); err != nil {
		return err
	}
	if winner == "" {
		return writeOut(w, fmt.Sprintf("%s: %s (fallback)", glyph, fallback))
	}
	return writeOut(w, fmt.Sprintf("%s: %s", glyph, winner))
}

func runFontsCheckCmd(cmd *cobra.Command, args []string) error {
	lib, resolver, err := loadTypefaces()
	if err != nil {
		return err
	}
	glyph := args[0]
	fonts := args[1:]
	if len(fonts) == 0 {
		fonts = append(resolver.Candidates(glyph), resolver.Fallback())
	}
	return writeCheck(cmd.OutOrStdout(), lib, []rune(glyph), fonts)
}

func writeCheck(w io.Writer, lib fontLocator, runes []rune, fonts []string) error {
	if len(runes) == 0 {
		return fmt.Errorf("glyph is empty")
	}
	t := newTable("Font", "Char", "Code", "Present", "Script")
	found := make(map[rune][]string)
	for _, name := range fonts {
		cov, err := inspectFont(lib, name, runes)
		if err != nil {
			if errors.Is(err, typeface.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
				t.Row(name, "", "", "missing file", "")
				continue
			}
			t.Row(name, "", "", "error: "+err.Error(), "")
			continue
		}
		for _, c := range cov {
			t.Row(name, string(c.Rune), fmt.Sprintf("U+%04X", c.Rune), yesNo(c.Present), fmt.Sprint(c.Script))
			if c.Present {
				found[c.Rune] = append(found[c.Rune], name)
			}
		}
	}
	if err := writeOut(w, t.String()); err != nil {
		return err
	}
	for _, r := range runes {
		line := fmt.Sprintf("%c: not present in any font", r)
		if names := found[r]; len(names) > 0 {
			line = fmt.Sprintf("%c: %s", r, strings.Join(names, ", "))
		}
		if err := writeOut(w, line); err != nil {
			return err
		}
	}
	return nil
}

// inspectFont accepts a font file path, a typeface name or the fallback name.
func inspectFont(lib fontLocator, name string, runes []rune) ([]typeface.RuneCoverage, error) {
	if strings.EqualFold(name, typeface.FallbackName) {
		return typeface.InspectFallback(runes)
	}
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		return typeface.Inspect(name, runes)
	}
	path, err := lib.Locate(name)
	if err != nil {
		return nil, err
	}
	return typeface.Inspect(path, runes)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func writeOut(w io.Writer, s string) error {
	if _, err := fmt.Fprintln(w, s); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
