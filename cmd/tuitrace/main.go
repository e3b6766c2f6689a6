// Package main provides the CLI entrypoint for tuitrace.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/tuitrace/internal/charinfo"
	"github.com/verte-zerg/tuitrace/internal/config"
	"github.com/verte-zerg/tuitrace/internal/coverage"
	"github.com/verte-zerg/tuitrace/internal/generator"
	"github.com/verte-zerg/tuitrace/internal/glyph"
	"github.com/verte-zerg/tuitrace/internal/glyphset"
	"github.com/verte-zerg/tuitrace/internal/logging"
	"github.com/verte-zerg/tuitrace/internal/model"
	"github.com/verte-zerg/tuitrace/internal/stats"
	"github.com/verte-zerg/tuitrace/internal/statsui"
	"github.com/verte-zerg/tuitrace/internal/store"
	"github.com/verte-zerg/tuitrace/internal/tui"
	"github.com/verte-zerg/tuitrace/internal/typeface"
)

const (
	defaultScript      = "any"
	defaultDotScale    = 4
	defaultWeakTop     = 8
	defaultWeakFactor  = 2.0
	defaultWeakWindow  = 20
	defaultCurveWindow = 20
)

var (
	practiceChar       string
	practiceGlyphs     string
	practiceScript     string
	practiceThreshold  float64
	practiceBrush      float64
	practiceAlpha      int
	practiceDotScale   int
	practiceFocusWeak  bool
	practiceWeakTop    int
	practiceWeakFactor float64
	practiceWeakWindow int

	logFile string

	statsGlyph       string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsGlyphs      string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	defaults := model.DefaultOptions()
	rootCmd := &cobra.Command{
		Use:               "tuitrace",
		Short:             "TUI glyph tracing trainer",
		SilenceUsage:      true,
		SilenceErrors:     false,
		PersistentPreRunE: setupLogging,
		RunE:              runPracticeCmd,
	}

	rootCmd.Flags().StringVar(&practiceChar, "char", "", "glyph to practise (last character is used)")
	rootCmd.Flags().StringVar(&practiceGlyphs, "glyphs", "", "glyph list file (default: built-in list)")
	rootCmd.Flags().StringVar(&practiceScript, "script", defaultScript, "script filter: "+strings.Join(glyphset.ScriptNames(), ", "))
	rootCmd.Flags().Float64Var(&practiceThreshold, "threshold", defaults.CompletionThreshold, "coverage ratio that completes a glyph (0-1]")
	rootCmd.Flags().Float64Var(&practiceBrush, "brush", defaults.BrushSize, "brush diameter in canvas pixels")
	rootCmd.Flags().IntVar(&practiceAlpha, "alpha", int(defaults.AlphaThreshold), "alpha above which a pixel counts as ink (0-255)")
	rootCmd.Flags().IntVar(&practiceDotScale, "dot-scale", defaultDotScale, "canvas pixels per braille dot")
	rootCmd.Flags().BoolVar(&practiceFocusWeak, "focus-weak", false, "bias practice toward weak glyphs")
	rootCmd.Flags().IntVar(&practiceWeakTop, "weak-top", defaultWeakTop, "number of weak glyphs to focus on")
	rootCmd.Flags().Float64Var(&practiceWeakFactor, "weak-factor", defaultWeakFactor, "weight factor for weak glyphs")
	rootCmd.Flags().IntVar(&practiceWeakWindow, "weak-window", defaultWeakWindow, "number of recent attempts to compute weak glyphs")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write debug logs to this file")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newFontsCmd())
	rootCmd.AddCommand(newGlyphsCmd())

	return rootCmd
}

func setupLogging(_ *cobra.Command, _ []string) error {
	if logFile == "" {
		return nil
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	// The file stays open for the life of the process.
	logging.Set(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return nil
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "char", &practiceChar, fileCfg.Practice.Char)
	applyStringConfig(cmd, "glyphs", &practiceGlyphs, fileCfg.Practice.Glyphs)
	applyStringConfig(cmd, "script", &practiceScript, fileCfg.Practice.Script)
	applyFloatConfig(cmd, "threshold", &practiceThreshold, fileCfg.Practice.Threshold)
	applyFloatConfig(cmd, "brush", &practiceBrush, fileCfg.Practice.Brush)
	applyIntConfig(cmd, "alpha", &practiceAlpha, fileCfg.Practice.Alpha)
	applyIntConfig(cmd, "dot-scale", &practiceDotScale, fileCfg.Practice.DotScale)
	applyBoolConfig(cmd, "focus-weak", &practiceFocusWeak, fileCfg.Practice.FocusWeak)
	applyIntConfig(cmd, "weak-top", &practiceWeakTop, fileCfg.Practice.WeakTop)
	applyFloatConfig(cmd, "weak-factor", &practiceWeakFactor, fileCfg.Practice.WeakFactor)
	applyIntConfig(cmd, "weak-window", &practiceWeakWindow, fileCfg.Practice.WeakWindow)

	if practiceAlpha < 0 || practiceAlpha > 255 {
		return fmt.Errorf("--alpha must be between 0 and 255")
	}
	cfg := model.PracticeConfig{
		Options: model.Options{
			CompletionThreshold: practiceThreshold,
			BrushSize:           practiceBrush,
			AlphaThreshold:      uint8(practiceAlpha),
		},
		Char:       practiceChar,
		GlyphsPath: practiceGlyphs,
		Script:     practiceScript,
		DotScale:   practiceDotScale,
		FocusWeak:  practiceFocusWeak,
		WeakTop:    practiceWeakTop,
		WeakFactor: practiceWeakFactor,
		WeakWindow: practiceWeakWindow,
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	glyphs, err := loadGlyphs(cfg.GlyphsPath, cfg.Script)
	if err != nil {
		return err
	}
	info, err := charinfo.Load(config.DefaultCharInfoPath())
	if err != nil {
		return fmt.Errorf("failed to load character table: %w", err)
	}
	lib, resolver, err := newTypefaces(fileCfg.Typefaces)
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	weakSet := map[string]struct{}{}
	weakNoticePrinted := false
	if cfg.FocusWeak {
		aggs, err := st.GetWeakGlyphs(context.Background(), cfg.WeakWindow)
		if err != nil {
			logErrf("failed to load weak glyphs: %v\n", err)
		} else {
			weakSet = stats.SelectWeakGlyphs(aggs, cfg.WeakTop)
			if len(weakSet) == 0 {
				logErrln("no stats available for weak-glyph focus yet; using normal generator")
				weakNoticePrinted = true
			}
		}
	}

	m := tui.NewModel(cfg, tui.Deps{
		Store:             st,
		Rasterizer:        glyph.NewRasterizer(resolver, lib),
		Engine:            coverage.New(cfg.Options),
		CharInfo:          info,
		Generator:         generator.New(),
		Glyphs:            glyphs,
		WeakSet:           weakSet,
		WeakNoticePrinted: weakNoticePrinted,
		Bell:              os.Stderr,
	})
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// loadGlyphs returns the practice list from path, or the built-in list,
// narrowed to script.
func loadGlyphs(path, script string) ([]string, error) {
	set, err := loadGlyphSet(path)
	if err != nil {
		return nil, err
	}
	keep, err := glyphset.FilterForScript(script)
	if err != nil {
		return nil, err
	}
	glyphs := set.Filter(keep)
	if len(glyphs) == 0 {
		return nil, fmt.Errorf("no glyphs left after --script %s filter", script)
	}
	return glyphs, nil
}

func loadGlyphSet(path string) (*glyphset.Set, error) {
	if path == "" {
		return glyphset.Default(), nil
	}
	set, err := glyphset.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load glyph list: %w", err)
	}
	return set, nil
}

// newTypefaces builds the typeface library and resolver from config.
func newTypefaces(cfg config.TypefaceConfig) (*typeface.Library, *typeface.Resolver, error) {
	dirs := append([]string{config.DefaultFontDir()}, cfg.Dirs...)
	lib, err := typeface.NewLibrary(dirs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create typeface library: %w", err)
	}
	timeout, err := cfg.Timeout()
	if err != nil {
		return nil, nil, err
	}

	var opts []typeface.Option
	if len(cfg.Overrides) > 0 {
		opts = append(opts, typeface.WithOverrides(cfg.Overrides))
	}
	if cfg.Fallback != nil {
		opts = append(opts, typeface.WithFallback(*cfg.Fallback))
	}
	if cfg.MinDifference != nil {
		if *cfg.MinDifference < 0 || *cfg.MinDifference > 1 {
			return nil, nil, fmt.Errorf("min-difference must be between 0 and 1")
		}
		opts = append(opts, typeface.WithMinDifference(*cfg.MinDifference))
	}
	if timeout > 0 {
		opts = append(opts, typeface.WithProbeTimeout(timeout))
	}
	return lib, typeface.NewResolver(lib, cfg.Priority, opts...), nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsGlyph, "glyph", "", "glyph filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N attempts")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().StringVar(&statsGlyphs, "glyphs", "", "glyphs for per-glyph curves")
	return cmd
}

func runStatsCmd(_ *cobra.Command, _ []string) error {
	cfg, err := buildStatsConfig()
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	m := statsui.NewModel(st, cfg)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func buildStatsConfig() (model.StatsConfig, error) {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return model.StatsConfig{}, fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if statsLast < 0 {
		return model.StatsConfig{}, fmt.Errorf("--last must be >= 0")
	}
	if statsCurveWindow <= 0 {
		return model.StatsConfig{}, fmt.Errorf("--curve-window must be > 0")
	}
	return model.StatsConfig{
		Glyph:       charinfo.LastGlyph(statsGlyph),
		Since:       sinceTime,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
		Glyphs:      statsGlyphs,
	}, nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	defaults := model.DefaultOptions()
	return fmt.Sprintf(`# tuitrace configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# char = "人"             # Glyph to start with
# glyphs = "/path/to/list.txt" # Glyph list file (default: built-in list)
# script = %q            # Script filter: %s
# threshold = %.2f        # Coverage ratio that completes a glyph (0-1]
# brush = %.0f              # Brush diameter in canvas pixels
# alpha = %d              # Alpha above which a pixel counts as ink (0-255)
# dot-scale = %d           # Canvas pixels per braille dot
# focus-weak = false      # Bias practice toward weak glyphs
# weak-top = %d            # Number of weak glyphs to focus on
# weak-factor = %.1f      # Weight factor for weak glyphs
# weak-window = %d        # Number of recent attempts to compute weak glyphs

[typefaces]
# priority = [%s]
# fallback = %q
# dirs = ["/path/to/fonts"]  # Searched after %s
# probe-timeout = %q
# min-difference = %.2f

# [typefaces.overrides]
# "人" = ["HYChenTiJiaGuWen"]
`,
		defaultScript,
		strings.Join(glyphset.ScriptNames(), ", "),
		defaults.CompletionThreshold,
		defaults.BrushSize,
		defaults.AlphaThreshold,
		defaultDotScale,
		defaultWeakTop,
		defaultWeakFactor,
		defaultWeakWindow,
		quoteList(typeface.DefaultPriority),
		typeface.FallbackName,
		config.DefaultFontDir(),
		typeface.DefaultProbeTimeout.String(),
		typeface.DefaultMinDifference,
	)
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = fmt.Sprintf("%q", item)
	}
	return strings.Join(quoted, ", ")
}

func validateConfig(cfg model.PracticeConfig) error {
	if err := cfg.Options.Validate(); err != nil {
		return err
	}
	if cfg.DotScale < 1 {
		return fmt.Errorf("--dot-scale must be >= 1")
	}
	if _, err := glyphset.FilterForScript(cfg.Script); err != nil {
		return fmt.Errorf("--script: %w", err)
	}
	if cfg.WeakTop < 0 {
		return fmt.Errorf("--weak-top must be >= 0")
	}
	if cfg.WeakFactor < 0 {
		return fmt.Errorf("--weak-factor must be >= 0")
	}
	if cfg.WeakWindow < 0 {
		return fmt.Errorf("--weak-window must be >= 0")
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
