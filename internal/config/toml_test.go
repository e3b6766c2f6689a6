package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Practice.Threshold != nil || cfg.Typefaces.Fallback != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[practice]
char = "木"
threshold = 0.6
brush = 10.5
alpha = 40
dot-scale = 2

[typefaces]
priority = ["FangZhengOracle", "HYChenTiJiaGuWen"]
fallback = "goregular"
probe-timeout = "750ms"
min-difference = 0.1

[typefaces.overrides]
"手" = ["ZhongYanYuan"]
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Practice.Char == nil || *cfg.Practice.Char != "木" {
		t.Fatalf("unexpected char: %v", cfg.Practice.Char)
	}
	if cfg.Practice.Threshold == nil || *cfg.Practice.Threshold != 0.6 {
		t.Fatalf("unexpected threshold: %v", cfg.Practice.Threshold)
	}
	if cfg.Practice.Alpha == nil || *cfg.Practice.Alpha != 40 {
		t.Fatalf("unexpected alpha: %v", cfg.Practice.Alpha)
	}
	if len(cfg.Typefaces.Priority) != 2 || cfg.Typefaces.Priority[1] != "HYChenTiJiaGuWen" {
		t.Fatalf("unexpected priority: %v", cfg.Typefaces.Priority)
	}
	if got := cfg.Typefaces.Overrides["手"]; len(got) != 1 || got[0] != "ZhongYanYuan" {
		t.Fatalf("unexpected overrides: %v", cfg.Typefaces.Overrides)
	}
	d, err := cfg.Typefaces.Timeout()
	if err != nil {
		t.Fatalf("Timeout: %v", err)
	}
	if d != 750*time.Millisecond {
		t.Fatalf("expected 750ms, got %v", d)
	}
}

func TestLoadConfigUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[practice]\nwords = 3\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestTimeoutInvalid(t *testing.T) {
	bad := "soon"
	cfg := TypefaceConfig{ProbeTimeout: &bad}
	if _, err := cfg.Timeout(); err == nil {
		t.Fatalf("expected parse error")
	}
	var empty TypefaceConfig
	d, err := empty.Timeout()
	if err != nil || d != 0 {
		t.Fatalf("expected zero timeout, got %v %v", d, err)
	}
}
