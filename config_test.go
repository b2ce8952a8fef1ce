package levelsync

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestDefaults_AreValid(t *testing.T) {
	cfg := Defaults()
	if problems := cfg.Sanitize(); problems != nil {
		t.Fatalf("expected defaults to validate, got %v", problems)
	}
	if cfg != Defaults() {
		t.Error("Sanitize modified a valid config")
	}
}

func TestSanitize_ResetsInvalidFields(t *testing.T) {
	cfg := Defaults()
	cfg.Settings.CurvePower = -1
	cfg.Settings.Bus = "a,b"
	cfg.Settings.Damping = 2
	cfg.Status.Addr = "not an address"
	cfg.Settings.SyncInterval = 0.5 // valid, must survive

	problems := cfg.Sanitize()
	if len(problems) != 4 {
		t.Fatalf("expected 4 problems, got %d: %v", len(problems), problems)
	}

	fields := map[string]bool{}
	for _, p := range problems {
		var ce *ConfigError
		if !errors.As(p, &ce) {
			t.Fatalf("expected *ConfigError, got %T", p)
		}
		if !errors.Is(p, ErrConfig) {
			t.Errorf("expected ErrConfig, got %v", p)
		}
		fields[ce.Field] = true
	}
	for _, f := range []string{"settings.curve_power", "settings.bus", "settings.damping", "status.addr"} {
		if !fields[f] {
			t.Errorf("expected a problem for %s, got %v", f, fields)
		}
	}

	d := Defaults()
	if cfg.Settings.CurvePower != d.Settings.CurvePower {
		t.Errorf("curve_power not reset: %v", cfg.Settings.CurvePower)
	}
	if cfg.Settings.Bus != d.Settings.Bus {
		t.Errorf("bus not reset: %q", cfg.Settings.Bus)
	}
	if cfg.Settings.Damping != d.Settings.Damping {
		t.Errorf("damping not reset: %v", cfg.Settings.Damping)
	}
	if cfg.Status.Addr != "" {
		t.Errorf("addr not reset: %q", cfg.Status.Addr)
	}
	if cfg.Settings.SyncInterval != 0.5 {
		t.Errorf("valid field was reset: %v", cfg.Settings.SyncInterval)
	}
}

func TestSanitize_RequiredDLLPath(t *testing.T) {
	cfg := Defaults()
	cfg.Voicemeeter.DLLPath = ""

	problems := cfg.Sanitize()
	if len(problems) != 1 {
		t.Fatalf("expected 1 problem, got %v", problems)
	}
	if cfg.Voicemeeter.DLLPath != DefaultDLLPath {
		t.Errorf("expected default dll path, got %q", cfg.Voicemeeter.DLLPath)
	}
}

func TestSanitize_AcceptsHostPort(t *testing.T) {
	cfg := Defaults()
	cfg.Status.Addr = "localhost:9110"
	if problems := cfg.Sanitize(); problems != nil {
		t.Errorf("unexpected problems %v", problems)
	}
}

func TestParseChannels(t *testing.T) {
	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{"0", []int{0}, false},
		{"0, 2,5", []int{0, 2, 5}, false},
		{"7", []int{7}, false},
		{"", []int{0}, true},
		{"x", []int{0}, true},
		{"1,-1", []int{0}, true},
		{"1,,2", []int{0}, true},
	}
	for _, tt := range tests {
		got, err := ParseChannels(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseChannels(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrConfig) {
			t.Errorf("ParseChannels(%q) error should wrap ErrConfig", tt.in)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseChannels(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSettings_Derived(t *testing.T) {
	s := Defaults().Settings
	if got := s.PollInterval(); got != 300*time.Millisecond {
		t.Errorf("PollInterval() = %v", got)
	}
	if got := s.SettleTimeout(); got != 4*time.Second {
		t.Errorf("SettleTimeout() = %v", got)
	}
	if got := s.EchoDuration(); got != 4*time.Second {
		t.Errorf("EchoDuration() = %v", got)
	}
	if got := s.Mapper().Curve; got != DefaultCurve {
		t.Errorf("Mapper().Curve = %v", got)
	}

	s.Bus = "bogus"
	if got := s.Channels(); !reflect.DeepEqual(got, []int{0}) {
		t.Errorf("Channels() fallback = %v", got)
	}
}

func TestLoadConfig_CreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", DefaultConfigFile)

	cfg, warnings, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if warnings != nil {
		t.Errorf("unexpected warnings %v", warnings)
	}
	if cfg != Defaults() {
		t.Error("expected defaults for a missing file")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected default file to be written: %v", err)
	}

	again, warnings, err := LoadConfig(path)
	if err != nil || warnings != nil {
		t.Fatalf("reloading written defaults: %v %v", err, warnings)
	}
	if again != Defaults() {
		t.Errorf("written defaults did not round trip: %+v", again)
	}
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "levelsync.yaml")
	data := "settings:\n  damping: 0.5\n  bus: \"1,2\"\nlogging:\n  verbose: true\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, warnings, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if warnings != nil {
		t.Errorf("unexpected warnings %v", warnings)
	}
	if cfg.Settings.Damping != 0.5 || cfg.Settings.Bus != "1,2" || !cfg.Logging.Verbose {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Settings.CurvePower != DefaultCurve || cfg.Startup.MaxRetryAttempts != 5 {
		t.Errorf("absent keys lost their defaults: %+v", cfg)
	}
}

func TestLoadConfig_InvalidValuesWarn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "levelsync.yaml")
	if err := os.WriteFile(path, []byte("settings:\n  volume_threshold: 0\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, warnings, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", warnings)
	}
	if cfg.Settings.VolumeThreshold != 1 {
		t.Errorf("expected volume_threshold reset to 1, got %d", cfg.Settings.VolumeThreshold)
	}
}

func TestLoadConfig_DecodeError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "levelsync.yaml")
	if err := os.WriteFile(path, []byte("settings: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, _, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected decode error")
	}
	if cfg != Defaults() {
		t.Error("expected defaults alongside a decode error")
	}
}

func TestWriteConfig_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "levelsync.json")
	want := Defaults()
	want.Settings.Bus = "3"
	want.Status.Addr = "127.0.0.1:9110"

	if err := WriteConfig(path, want); err != nil {
		t.Fatalf("WriteConfig() error = %v", err)
	}
	got, warnings, err := LoadConfig(path)
	if err != nil || warnings != nil {
		t.Fatalf("LoadConfig() = %v, %v", warnings, err)
	}
	if got != want {
		t.Errorf("JSON round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}
