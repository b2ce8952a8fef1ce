package levelsync

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DefaultDLLPath is where the Voicemeeter installer puts the 64-bit remote API.
const DefaultDLLPath = `C:\Program Files (x86)\VB\Voicemeeter\VoicemeeterRemote64.dll`

// DefaultConfigFile is the file name looked up next to the executable.
const DefaultConfigFile = "levelsync.yaml"

// Config is the complete on-disk configuration. A Session takes an immutable
// copy on every start.
type Config struct {
	Voicemeeter VoicemeeterConfig `yaml:"voicemeeter" json:"voicemeeter"`
	Logging     LoggingConfig     `yaml:"logging" json:"logging"`
	Settings    Settings          `yaml:"settings" json:"settings"`
	Startup     Startup           `yaml:"startup" json:"startup"`
	Status      StatusConfig      `yaml:"status" json:"status"`
}

// VoicemeeterConfig locates the remote control library.
type VoicemeeterConfig struct {
	DLLPath string `yaml:"dll_path" json:"dll_path" validate:"required"`
}

// LoggingConfig controls the slog handler built by the command.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Verbose bool   `yaml:"verbose" json:"verbose"`
	LogFile string `yaml:"log_file" json:"log_file"`
}

// Settings are the synchronization parameters. Durations are expressed in
// seconds as floats so the file stays readable.
type Settings struct {
	CurvePower      float64 `yaml:"curve_power" json:"curve_power" validate:"gt=0"`
	SyncInterval    float64 `yaml:"sync_interval" json:"sync_interval" validate:"gt=0"`
	ChangeTimeout   float64 `yaml:"change_timeout" json:"change_timeout" validate:"gte=0"`
	GainThreshold   float64 `yaml:"gain_threshold" json:"gain_threshold" validate:"gt=0"`
	VolumeThreshold int     `yaml:"volume_threshold" json:"volume_threshold" validate:"gte=1,lte=100"`
	Bus             string  `yaml:"bus" json:"bus" validate:"channels"`
	CoarseThreshold int     `yaml:"coarse_threshold" json:"coarse_threshold" validate:"gte=0,lte=100"`
	Damping         float64 `yaml:"damping" json:"damping" validate:"gt=0,lte=1"`
	EchoWindow      float64 `yaml:"echo_window" json:"echo_window" validate:"gte=0"`
}

// Startup tunes connection retries and the boot-time readiness wait.
type Startup struct {
	DelaySeconds      float64 `yaml:"delay_seconds" json:"delay_seconds" validate:"gte=0"`
	MaxRetryAttempts  int     `yaml:"max_retry_attempts" json:"max_retry_attempts" validate:"gte=1"`
	RetryInterval     float64 `yaml:"retry_interval" json:"retry_interval" validate:"gte=0"`
	BootThreshold     float64 `yaml:"boot_threshold" json:"boot_threshold" validate:"gte=0"`
	ReadinessInterval float64 `yaml:"readiness_interval" json:"readiness_interval" validate:"gt=0"`
	ReadinessTimeout  float64 `yaml:"readiness_timeout" json:"readiness_timeout" validate:"gte=0"`
}

// StatusConfig controls the liveness monitor and the optional HTTP surface.
type StatusConfig struct {
	PollInterval float64 `yaml:"poll_interval" json:"poll_interval" validate:"gt=0"`
	Addr         string  `yaml:"addr" json:"addr" validate:"omitempty,hostname_port"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Voicemeeter: VoicemeeterConfig{DLLPath: DefaultDLLPath},
		Logging: LoggingConfig{
			Enabled: true,
			LogFile: "levelsync.log",
		},
		Settings: Settings{
			CurvePower:      DefaultCurve,
			SyncInterval:    0.3,
			ChangeTimeout:   4,
			GainThreshold:   3.0,
			VolumeThreshold: 1,
			Bus:             "0",
			CoarseThreshold: 10,
			Damping:         0.3,
			EchoWindow:      4,
		},
		Startup: Startup{
			DelaySeconds:      5,
			MaxRetryAttempts:  5,
			RetryInterval:     2,
			BootThreshold:     300,
			ReadinessInterval: 5,
			ReadinessTimeout:  120,
		},
		Status: StatusConfig{
			PollInterval: 1,
		},
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("channels", func(fl validator.FieldLevel) bool { //nolint:errcheck // static tag
		_, err := ParseChannels(fl.Field().String())
		return err == nil
	})
	return v
}

// Sanitize validates every field and resets the invalid ones to their
// default. It never fails; each reset is returned as a *ConfigError.
func (c *Config) Sanitize() []error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []error{fmt.Errorf("%w: %v", ErrConfig, err)}
	}

	defaults := Defaults()
	dst := reflect.ValueOf(c).Elem()
	src := reflect.ValueOf(&defaults).Elem()

	problems := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		// StructNamespace is "Config.Section.Field".
		path := strings.Split(fe.StructNamespace(), ".")[1:]
		if d, s, ok := lookup(dst, src, path); ok {
			d.Set(s)
		}
		problems = append(problems, &ConfigError{
			Field: configKey(fe.Namespace()),
			Value: fe.Value(),
			Rule:  ruleOf(fe),
		})
	}
	return problems
}

func lookup(dst, src reflect.Value, path []string) (reflect.Value, reflect.Value, bool) {
	for _, name := range path {
		dst = dst.FieldByName(name)
		src = src.FieldByName(name)
		if !dst.IsValid() || !src.IsValid() {
			return reflect.Value{}, reflect.Value{}, false
		}
	}
	return dst, src, dst.CanSet()
}

func ruleOf(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// configKey turns "Config.settings.curve_power" into "settings.curve_power".
func configKey(ns string) string {
	_, key, _ := strings.Cut(ns, ".")
	return key
}

// ParseChannels parses a comma separated list of non-negative bus indices.
// A malformed list returns [0] together with an error wrapping ErrConfig.
func ParseChannels(s string) ([]int, error) {
	fields := strings.Split(s, ",")
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil || n < 0 {
			return []int{0}, fmt.Errorf("%w: invalid bus list %q", ErrConfig, s)
		}
		out = append(out, n)
	}
	return out, nil
}

// Channels returns the parsed bus list, falling back to [0].
func (s Settings) Channels() []int {
	ch, _ := ParseChannels(s.Bus) //nolint:errcheck // fallback already applied
	return ch
}

// PollInterval is the engine tick period.
func (s Settings) PollInterval() time.Duration { return seconds(s.SyncInterval) }

// SettleTimeout is the minimum gap between a propagation and the next
// target-side detection.
func (s Settings) SettleTimeout() time.Duration { return seconds(s.ChangeTimeout) }

// EchoDuration bounds how long after the settle timeout the echo rule applies.
func (s Settings) EchoDuration() time.Duration { return seconds(s.EchoWindow) }

// Mapper returns the mapper for the configured curve.
func (s Settings) Mapper() Mapper { return NewMapper(s.CurvePower) }

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

// LoadConfig reads the file at path, decoding by extension. A missing file is
// created with the defaults. Keys absent from the file keep their default.
// Sanitization warnings are returned separately from the fatal error.
func LoadConfig(path string) (Config, []error, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if werr := WriteConfig(path, cfg); werr != nil {
			return cfg, nil, werr
		}
		return cfg, nil, nil
	}
	if err != nil {
		return cfg, nil, fmt.Errorf("read config: %w", err)
	}
	cfg, warnings, err := DecodeConfig(CodecFor(path), data)
	if err != nil {
		return Defaults(), nil, err
	}
	return cfg, warnings, nil
}

// DecodeConfig decodes data over the defaults and sanitizes the result.
func DecodeConfig(codec Codec, data []byte) (Config, []error, error) {
	cfg := Defaults()
	if err := codec.Unmarshal(data, &cfg); err != nil {
		return cfg, nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Sanitize(), nil
}

// WriteConfig encodes cfg to path, creating parent directories.
func WriteConfig(path string, cfg Config) error {
	data, err := CodecFor(path).Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
