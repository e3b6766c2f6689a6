package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/tuitrace/internal/charinfo"
	"github.com/verte-zerg/tuitrace/internal/config"
	"github.com/verte-zerg/tuitrace/internal/glyphset"
)

func newGlyphsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "glyphs",
		Short: "Inspect glyph lists",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "compare [FILE]",
		Short: "Show which glyphs of a list have character metadata",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runGlyphsCompareCmd,
	})
	return cmd
}

func runGlyphsCompareCmd(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	}
	set, err := loadGlyphSet(path)
	if err != nil {
		return err
	}
	db, err := charinfo.Load(config.DefaultCharInfoPath())
	if err != nil {
		return fmt.Errorf("failed to load character table: %w", err)
	}
	return writeCompare(cmd.OutOrStdout(), set, db)
}

func writeCompare(w io.Writer, set *glyphset.Set, db *charinfo.DB) error {
	present, missing := glyphset.Compare(set.Glyphs, db.Has)
	lines := []string{
		fmt.Sprintf("Glyphs: %d", len(set.Glyphs)),
		fmt.Sprintf("With metadata: %d", len(present)),
		fmt.Sprintf("Missing metadata: %d", len(missing)),
	}
	if len(missing) > 0 {
		groups := set.Group(missing)
		for _, category := range append(set.Categories(), "") {
			glyphs := groups[category]
			if len(glyphs) == 0 {
				continue
			}
			label := category
			if label == "" {
				label = "uncategorized"
			}
			lines = append(lines, fmt.Sprintf("  %s (%d): %s", label, len(glyphs), strings.Join(glyphs, " ")))
		}
	}
	return writeOut(w, strings.Join(lines, "\n"))
}
