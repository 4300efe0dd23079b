// Package config loads runtime settings from defaults, an optional YAML
// file, CADENCE_* environment variables and command-line flags, in rising
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alexanderramin/cadence/internal/scheduler"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. CADENCE_DB_PATH.
const EnvPrefix = "CADENCE"

type LogConfig struct {
	Level    string `mapstructure:"level"`
	UseCases bool   `mapstructure:"use_cases"`

	// SlowAfter raises use-case logs above this duration to warn.
	SlowAfter time.Duration `mapstructure:"slow_after"`
}

type ScheduleConfig struct {
	// MaxAttempts bounds the reload-and-retry loop on stale snapshots.
	MaxAttempts int `mapstructure:"max_attempts"`
}

type ImportConfig struct {
	StrictDependencies bool `mapstructure:"strict_dependencies"`
}

type RatioConfig struct {
	AtRiskRatio  float64 `mapstructure:"at_risk_ratio"`
	CautionRatio float64 `mapstructure:"caution_ratio"`
}

type ProjectHealthConfig struct {
	CriticalPenalty float64 `mapstructure:"critical_penalty"`
	AtRiskPenalty   float64 `mapstructure:"at_risk_penalty"`
	Floor           float64 `mapstructure:"floor"`
}

type ScoresConfig struct {
	OnTrack  float64 `mapstructure:"on_track"`
	Caution  float64 `mapstructure:"caution"`
	AtRisk   float64 `mapstructure:"at_risk"`
	Critical float64 `mapstructure:"critical"`
}

type HealthConfig struct {
	DueSoonDays     int                 `mapstructure:"due_soon_days"`
	DueSoonProgress int                 `mapstructure:"due_soon_progress"`
	DueWeekDays     int                 `mapstructure:"due_week_days"`
	DueWeekProgress int                 `mapstructure:"due_week_progress"`
	LowProgress     int                 `mapstructure:"low_progress"`
	Milestone       RatioConfig         `mapstructure:"milestone"`
	Phase           RatioConfig         `mapstructure:"phase"`
	Project         ProjectHealthConfig `mapstructure:"project"`
	Scores          ScoresConfig        `mapstructure:"scores"`
}

// Config holds all runtime configuration.
type Config struct {
	DBPath   string         `mapstructure:"db_path"`
	Log      LogConfig      `mapstructure:"log"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Import   ImportConfig   `mapstructure:"import"`
	Health   HealthConfig   `mapstructure:"health"`
}

// New returns a viper instance with defaults and environment binding set up.
// A config file is read only when path is non-empty or a default file exists.
func New(path string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// CADENCE_DB is the short form kept for scripts.
	_ = v.BindEnv("db_path", EnvPrefix+"_DB_PATH", EnvPrefix+"_DB")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".cadence"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	d := scheduler.DefaultHealthConfig()

	v.SetDefault("db_path", defaultDBPath())
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.use_cases", false)
	v.SetDefault("log.slow_after", "250ms")
	v.SetDefault("schedule.max_attempts", 3)
	v.SetDefault("import.strict_dependencies", false)

	v.SetDefault("health.due_soon_days", d.DueSoonDays)
	v.SetDefault("health.due_soon_progress", d.DueSoonProgress)
	v.SetDefault("health.due_week_days", d.DueWeekDays)
	v.SetDefault("health.due_week_progress", d.DueWeekProgress)
	v.SetDefault("health.low_progress", d.LowProgress)
	v.SetDefault("health.milestone.at_risk_ratio", d.Milestone.AtRiskRatio)
	v.SetDefault("health.milestone.caution_ratio", d.Milestone.CautionRatio)
	v.SetDefault("health.phase.at_risk_ratio", d.Phase.AtRiskRatio)
	v.SetDefault("health.phase.caution_ratio", d.Phase.CautionRatio)
	v.SetDefault("health.project.critical_penalty", d.CriticalPenalty)
	v.SetDefault("health.project.at_risk_penalty", d.AtRiskPenalty)
	v.SetDefault("health.project.floor", d.ScoreFloor)
	v.SetDefault("health.scores.on_track", d.Scores.OnTrack)
	v.SetDefault("health.scores.caution", d.Scores.Caution)
	v.SetDefault("health.scores.at_risk", d.Scores.AtRisk)
	v.SetDefault("health.scores.critical", d.Scores.Critical)
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".cadence", "cadence.db")
	}
	return filepath.Join(home, ".cadence", "cadence.db")
}

// BindFlags lets persistent command-line flags override file and env values.
// Flags that are absent from fs are skipped.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	bindings := map[string]string{
		"db_path":                    "db",
		"log.level":                  "log-level",
		"import.strict_dependencies": "strict",
	}
	for key, name := range bindings {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag --%s: %w", name, err)
		}
	}
	return nil
}

// Load unmarshals v into a Config and validates it.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot work with.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("db_path must not be empty")
	}
	if c.Schedule.MaxAttempts < 1 {
		return fmt.Errorf("schedule.max_attempts must be >= 1 (got %d)", c.Schedule.MaxAttempts)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	for name, r := range map[string]RatioConfig{"milestone": c.Health.Milestone, "phase": c.Health.Phase} {
		if r.AtRiskRatio <= 0 || r.AtRiskRatio > 1 || r.CautionRatio <= 0 || r.CautionRatio > 1 {
			return fmt.Errorf("health.%s ratios must be within (0, 1]", name)
		}
	}
	return nil
}

// HealthSettings converts the health section into engine thresholds.
func (c Config) HealthSettings() scheduler.HealthConfig {
	h := c.Health
	return scheduler.HealthConfig{
		DueSoonDays:     h.DueSoonDays,
		DueSoonProgress: h.DueSoonProgress,
		DueWeekDays:     h.DueWeekDays,
		DueWeekProgress: h.DueWeekProgress,
		LowProgress:     h.LowProgress,
		Milestone:       scheduler.RollupThresholds{AtRiskRatio: h.Milestone.AtRiskRatio, CautionRatio: h.Milestone.CautionRatio},
		Phase:           scheduler.RollupThresholds{AtRiskRatio: h.Phase.AtRiskRatio, CautionRatio: h.Phase.CautionRatio},
		CriticalPenalty: h.Project.CriticalPenalty,
		AtRiskPenalty:   h.Project.AtRiskPenalty,
		ScoreFloor:      h.Project.Floor,
		Scores: scheduler.StatusScores{
			OnTrack:  h.Scores.OnTrack,
			Caution:  h.Scores.Caution,
			AtRisk:   h.Scores.AtRisk,
			Critical: h.Scores.Critical,
		},
	}
}

// ParseLevel maps a level name onto a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("log.level: unknown level %q", s)
	}
	return l, nil
}
