package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/TLSLime/Puppeteer/internal/dialog"
	"github.com/TLSLime/Puppeteer/internal/humanize"
	"github.com/TLSLime/Puppeteer/internal/lifecycle"
	"github.com/TLSLime/Puppeteer/internal/safety"
	"github.com/TLSLime/Puppeteer/internal/window"
	"github.com/TLSLime/Puppeteer/pkg/utils"
)

// LoggerConfig tunes log output and rotation.
type LoggerConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	AddSource  bool   `mapstructure:"add_source" yaml:"add_source"`
	LogFile    string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// SafetyConfig is the file-facing safety section; the level is a string
// there while the monitor wants the parsed form.
type SafetyConfig struct {
	Level             string        `mapstructure:"level" yaml:"level"`
	EmergencyKey      string        `mapstructure:"emergency_key" yaml:"emergency_key"`
	GracePeriod       time.Duration `mapstructure:"grace_period" yaml:"grace_period"`
	MovementThreshold float64       `mapstructure:"movement_threshold" yaml:"movement_threshold"`
	ActivityThreshold time.Duration `mapstructure:"activity_threshold" yaml:"activity_threshold"`
	PollInterval      time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
}

// Monitor converts the section into the monitor's config.
func (s SafetyConfig) Monitor() (safety.Config, error) {
	level, err := safety.ParseLevel(s.Level)
	if err != nil {
		return safety.Config{}, err
	}
	return safety.Config{
		Level:             level,
		EmergencyKey:      s.EmergencyKey,
		GracePeriod:       s.GracePeriod,
		MovementThreshold: s.MovementThreshold,
		ActivityThreshold: s.ActivityThreshold,
		PollInterval:      s.PollInterval,
	}, nil
}

// HumanizeConfig holds the default profile plus named alternates selectable
// per action.
type HumanizeConfig struct {
	Default  humanize.Profile            `mapstructure:"default" yaml:"default"`
	Profiles map[string]humanize.Profile `mapstructure:"profiles" yaml:"profiles"`
}

// Config is the root of the profile file.
type Config struct {
	Logger    LoggerConfig      `mapstructure:"logger" yaml:"logger"`
	Safety    SafetyConfig      `mapstructure:"safety" yaml:"safety"`
	Humanize  HumanizeConfig    `mapstructure:"humanize" yaml:"humanize"`
	Window    window.Config     `mapstructure:"window" yaml:"window"`
	Dialog    dialog.Config     `mapstructure:"dialog" yaml:"dialog"`
	Lifecycle lifecycle.Config  `mapstructure:"lifecycle" yaml:"lifecycle"`
	Expected  []string          `mapstructure:"expected_dialogs" yaml:"expected_dialogs"`
	Script    string            `mapstructure:"script" yaml:"script"`
}

// Default returns the built-in configuration.
func Default() Config {
	safetyDef := safety.DefaultConfig()
	return Config{
		Logger: LoggerConfig{
			Level:      "info",
			Format:     "console",
			MaxSize:    20,
			MaxBackups: 3,
			MaxAge:     14,
		},
		Safety: SafetyConfig{
			Level:             safetyDef.Level.String(),
			EmergencyKey:      safetyDef.EmergencyKey,
			GracePeriod:       safetyDef.GracePeriod,
			MovementThreshold: safetyDef.MovementThreshold,
			ActivityThreshold: safetyDef.ActivityThreshold,
			PollInterval:      safetyDef.PollInterval,
		},
		Humanize: HumanizeConfig{
			Default: humanize.DefaultProfile(),
		},
		Window:    window.DefaultConfig(),
		Dialog:    dialog.DefaultConfig(),
		Lifecycle: lifecycle.DefaultConfig(),
	}
}

// Load reads the profile file into a Config. An empty path searches the
// per-OS config directory and the working directory for puppeteer.yaml.
// PUPPETEER_* environment variables override file values.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("puppeteer")
		v.AddConfigPath(utils.GetConfigDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("PUPPETEER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		// No profile file is fine; defaults plus env cover it.
	}

	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// WriteDefault writes the built-in configuration to the config directory,
// creating it when missing, and returns the file path.
func WriteDefault() (string, error) {
	dir := utils.GetConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	path := filepath.Join(dir, "puppeteer.yaml")

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	if err := v.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return path, nil
}

func setDefaults(v *viper.Viper) {
	def := Default()

	v.SetDefault("logger.level", def.Logger.Level)
	v.SetDefault("logger.format", def.Logger.Format)
	v.SetDefault("logger.max_size", def.Logger.MaxSize)
	v.SetDefault("logger.max_backups", def.Logger.MaxBackups)
	v.SetDefault("logger.max_age", def.Logger.MaxAge)

	v.SetDefault("safety.level", def.Safety.Level)
	v.SetDefault("safety.emergency_key", def.Safety.EmergencyKey)
	v.SetDefault("safety.grace_period", def.Safety.GracePeriod)
	v.SetDefault("safety.movement_threshold", def.Safety.MovementThreshold)
	v.SetDefault("safety.activity_threshold", def.Safety.ActivityThreshold)
	v.SetDefault("safety.poll_interval", def.Safety.PollInterval)

	v.SetDefault("humanize.default.max_step_distance", def.Humanize.Default.MaxStepDistance)
	v.SetDefault("humanize.default.jitter_px", def.Humanize.Default.JitterPx)
	v.SetDefault("humanize.default.cooldown", def.Humanize.Default.Cooldown)

	v.SetDefault("window.max_retries", def.Window.MaxRetries)
	v.SetDefault("window.backoff", def.Window.Backoff)
	v.SetDefault("window.park", string(def.Window.Park))

	v.SetDefault("dialog.max_controls", def.Dialog.MaxControls)
	v.SetDefault("dialog.scan_timeout", def.Dialog.ScanTimeout)

	v.SetDefault("lifecycle.interval", def.Lifecycle.Interval)
	v.SetDefault("lifecycle.max_actions_per_second", def.Lifecycle.MaxActionsPerSecond)
	v.SetDefault("lifecycle.pause_delay", def.Lifecycle.PauseDelay)
	v.SetDefault("lifecycle.recovery_retries", def.Lifecycle.RecoveryRetries)
}
