package bagdrop

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config tunes a Sequencer. The zero value is not usable; start from
// DefaultConfig.
type Config struct {
	// Schedule is the phase timeline, offsets measured from the moment the
	// snapshot is available.
	Schedule Schedule
	// Clips names the clips the engine must resolve.
	Clips ClipNames
	// Motion holds the snapshot transforms and content effects.
	Motion Motions
	// UnitPrice is the fixed price used for the bag label.
	UnitPrice Money
	// ButtonText is shown on the trigger control while idle.
	ButtonText string
	// Background fills transparent areas of the snapshot.
	Background Color
	// CaptureTimeout bounds the snapshot request. Zero means no timeout.
	CaptureTimeout time.Duration
	// AwaitClips holds a clip-playing step until the clip previously played
	// on the same surface has finished, when the surface can report it.
	AwaitClips bool
	// AwaitLimit is the longest a step is held by AwaitClips.
	AwaitLimit time.Duration
}

// DefaultConfig returns the configuration of the product page: Nike Air Max
// at $130 and the canonical schedule.
func DefaultConfig() Config {
	return Config{
		Schedule:       DefaultSchedule(),
		Clips:          DefaultClipNames(),
		Motion:         DefaultMotions(),
		UnitPrice:      Dollars(130),
		ButtonText:     DefaultButtonText,
		Background:     ColorWhite,
		CaptureTimeout: 2 * time.Second,
		AwaitLimit:     400 * time.Millisecond,
	}
}

// Validate reports configuration errors.
func (c Config) Validate() error {
	if err := c.Schedule.Validate(); err != nil {
		return err
	}
	enter, _ := c.Schedule.Offset(PhaseEnter)
	hide, _ := c.Schedule.Offset(PhaseHideSnapshot)
	if hide > enter+c.Motion.Enter.Duration {
		return fmt.Errorf("%w: hide-snapshot at %v is after the enter motion ends at %v",
			ErrInvalidSchedule, hide, enter+c.Motion.Enter.Duration)
	}
	for _, m := range []Motion{c.Motion.Anticipate, c.Motion.Enter} {
		if _, err := EaseByName(m.Ease); err != nil {
			return err
		}
		if m.Duration < 0 {
			return fmt.Errorf("bagdrop: negative motion duration %v", m.Duration)
		}
	}
	for _, id := range []SurfaceID{SurfaceFront, SurfaceBack} {
		for _, name := range c.Clips.forSurface(id) {
			if name == "" {
				return fmt.Errorf("bagdrop: empty clip name for %s surface", id)
			}
		}
	}
	if c.UnitPrice < 0 {
		return fmt.Errorf("bagdrop: negative unit price %v", c.UnitPrice)
	}
	if c.CaptureTimeout < 0 || c.AwaitLimit < 0 {
		return fmt.Errorf("bagdrop: negative timeout")
	}
	return nil
}

// --- File format ---

type fileStep struct {
	Phase    string `yaml:"phase" toml:"phase"`
	OffsetMS int64  `yaml:"offset_ms" toml:"offset_ms"`
}

type fileClips struct {
	Start      string `yaml:"start" toml:"start"`
	OpenFront  string `yaml:"open_front" toml:"open_front"`
	OpenBack   string `yaml:"open_back" toml:"open_back"`
	EnterFront string `yaml:"enter_front" toml:"enter_front"`
	EnterBack  string `yaml:"enter_back" toml:"enter_back"`
	Close      string `yaml:"close" toml:"close"`
	Idle       string `yaml:"idle" toml:"idle"`
}

type fileMotion struct {
	Scale      *float64 `yaml:"scale" toml:"scale"`
	SkewDeg    *float64 `yaml:"skew_deg" toml:"skew_deg"`
	OffsetX    *float64 `yaml:"offset_x" toml:"offset_x"`
	OffsetY    *float64 `yaml:"offset_y" toml:"offset_y"`
	Alpha      *float64 `yaml:"alpha" toml:"alpha"`
	DurationMS *int64   `yaml:"duration_ms" toml:"duration_ms"`
	Ease       string   `yaml:"ease" toml:"ease"`
	Blur       *float64 `yaml:"blur" toml:"blur"`
	Dim        *float64 `yaml:"dim" toml:"dim"`
}

type fileConfig struct {
	Schedule         []fileStep  `yaml:"schedule" toml:"schedule"`
	Clips            *fileClips  `yaml:"clips" toml:"clips"`
	Anticipate       *fileMotion `yaml:"anticipate" toml:"anticipate"`
	Enter            *fileMotion `yaml:"enter" toml:"enter"`
	UnitPriceCents   *int64      `yaml:"unit_price_cents" toml:"unit_price_cents"`
	ButtonText       string      `yaml:"button_text" toml:"button_text"`
	Background       string      `yaml:"background" toml:"background"`
	CaptureTimeoutMS *int64      `yaml:"capture_timeout_ms" toml:"capture_timeout_ms"`
	AwaitClips       *bool       `yaml:"await_clips" toml:"await_clips"`
	AwaitLimitMS     *int64      `yaml:"await_limit_ms" toml:"await_limit_ms"`
}

// LoadConfig reads a YAML (.yaml, .yml) or TOML (.toml) file over
// DefaultConfig and validates the result.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("bagdrop: read config: %w", err)
	}
	return ParseConfig(data, strings.TrimPrefix(filepath.Ext(path), "."))
}

// ParseConfig decodes data in the given format ("yaml", "yml" or "toml")
// over DefaultConfig and validates the result.
func ParseConfig(data []byte, format string) (Config, error) {
	var fc fileConfig
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return Config{}, fmt.Errorf("bagdrop: parse yaml config: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(data, &fc); err != nil {
			return Config{}, fmt.Errorf("bagdrop: parse toml config: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("bagdrop: unsupported config format %q", format)
	}
	cfg := DefaultConfig()
	if err := fc.apply(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (fc *fileConfig) apply(cfg *Config) error {
	if len(fc.Schedule) > 0 {
		sched := make(Schedule, len(fc.Schedule))
		for i, st := range fc.Schedule {
			p, err := ParsePhase(st.Phase)
			if err != nil {
				return err
			}
			sched[i] = Step{Phase: p, Offset: ms(st.OffsetMS)}
		}
		cfg.Schedule = sched
	}
	if c := fc.Clips; c != nil {
		setString(&cfg.Clips.Start, c.Start)
		setString(&cfg.Clips.OpenFront, c.OpenFront)
		setString(&cfg.Clips.OpenBack, c.OpenBack)
		setString(&cfg.Clips.EnterFront, c.EnterFront)
		setString(&cfg.Clips.EnterBack, c.EnterBack)
		setString(&cfg.Clips.Close, c.Close)
		setString(&cfg.Clips.Idle, c.Idle)
	}
	fc.Anticipate.apply(&cfg.Motion.Anticipate, &cfg.Motion.AnticipateEffect)
	fc.Enter.apply(&cfg.Motion.Enter, &cfg.Motion.EnterEffect)
	if fc.UnitPriceCents != nil {
		cfg.UnitPrice = Money(*fc.UnitPriceCents)
	}
	setString(&cfg.ButtonText, fc.ButtonText)
	if fc.Background != "" {
		c, err := ParseHexColor(fc.Background)
		if err != nil {
			return err
		}
		cfg.Background = c
	}
	if fc.CaptureTimeoutMS != nil {
		cfg.CaptureTimeout = ms(*fc.CaptureTimeoutMS)
	}
	if fc.AwaitClips != nil {
		cfg.AwaitClips = *fc.AwaitClips
	}
	if fc.AwaitLimitMS != nil {
		cfg.AwaitLimit = ms(*fc.AwaitLimitMS)
	}
	return nil
}

func (fm *fileMotion) apply(m *Motion, e *Effect) {
	if fm == nil {
		return
	}
	if fm.Scale != nil {
		m.To.ScaleX, m.To.ScaleY = *fm.Scale, *fm.Scale
	}
	if fm.SkewDeg != nil {
		m.To.Skew = *fm.SkewDeg * math.Pi / 180
	}
	if fm.OffsetX != nil {
		m.To.OffsetX = *fm.OffsetX
	}
	if fm.OffsetY != nil {
		m.To.OffsetY = *fm.OffsetY
	}
	if fm.Alpha != nil {
		m.To.Alpha = *fm.Alpha
	}
	if fm.DurationMS != nil {
		m.Duration = ms(*fm.DurationMS)
	}
	setString(&m.Ease, fm.Ease)
	if fm.Blur != nil {
		e.Blur = *fm.Blur
	}
	if fm.Dim != nil {
		e.Dim = *fm.Dim
	}
}

func ms(v int64) time.Duration { return time.Duration(v) * time.Millisecond }

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// --- Environment overrides ---

type envOverrides struct {
	UnitPriceCents *int64         `envconfig:"UNIT_PRICE_CENTS"`
	ButtonText     *string        `envconfig:"BUTTON_TEXT"`
	Background     *string        `envconfig:"BACKGROUND"`
	CaptureTimeout *time.Duration `envconfig:"CAPTURE_TIMEOUT"`
	AwaitClips     *bool          `envconfig:"AWAIT_CLIPS"`
	AwaitLimit     *time.Duration `envconfig:"AWAIT_LIMIT"`
}

// EnvPrefix is the default prefix for ApplyEnv (BAGDROP_UNIT_PRICE_CENTS, …).
const EnvPrefix = "BAGDROP"

// ApplyEnv overrides fields from environment variables named
// <prefix>_UNIT_PRICE_CENTS, _BUTTON_TEXT, _BACKGROUND, _CAPTURE_TIMEOUT,
// _AWAIT_CLIPS and _AWAIT_LIMIT. Durations use time.ParseDuration syntax.
func (c *Config) ApplyEnv(prefix string) error {
	var env envOverrides
	if err := envconfig.Process(prefix, &env); err != nil {
		return fmt.Errorf("bagdrop: load env config: %w", err)
	}
	if env.UnitPriceCents != nil {
		c.UnitPrice = Money(*env.UnitPriceCents)
	}
	if env.ButtonText != nil {
		c.ButtonText = *env.ButtonText
	}
	if env.Background != nil {
		col, err := ParseHexColor(*env.Background)
		if err != nil {
			return err
		}
		c.Background = col
	}
	if env.CaptureTimeout != nil {
		c.CaptureTimeout = *env.CaptureTimeout
	}
	if env.AwaitClips != nil {
		c.AwaitClips = *env.AwaitClips
	}
	if env.AwaitLimit != nil {
		c.AwaitLimit = *env.AwaitLimit
	}
	return c.Validate()
}
