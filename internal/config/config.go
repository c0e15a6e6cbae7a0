package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/feedback"
)

// AppConfig is the complete application configuration.
type AppConfig struct {
	Data      DataConfig      `mapstructure:"data"`
	Snapshot  SnapshotConfig  `mapstructure:"snapshot"`
	Detectors DetectorsConfig `mapstructure:"detectors"`
	Feedback  feedback.Tuning `mapstructure:"feedback"`
	Retention RetentionConfig `mapstructure:"retention"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Server    ServerConfig    `mapstructure:"server"`
	Policy    PolicyConfig    `mapstructure:"policy"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// DataConfig selects where signals, weights and events live.
type DataConfig struct {
	Dir    string `mapstructure:"dir"`
	Driver string `mapstructure:"driver" validate:"oneof=memory sqlite"`
}

// SnapshotConfig locates the snapshot file.
type SnapshotConfig struct {
	Path     string        `mapstructure:"path"`
	CacheTTL time.Duration `mapstructure:"cache_ttl" validate:"gte=0"`
}

// DetectorsConfig tunes the detector set.
type DetectorsConfig struct {
	Disabled      []string `mapstructure:"disabled"`
	StaleTaskDays int      `mapstructure:"stale_task_days" validate:"gte=1"`
}

// RetentionConfig holds retention windows in days.
type RetentionConfig struct {
	AnalyticsDays int `mapstructure:"analytics_days" validate:"gte=1"`
	WeightsDays   int `mapstructure:"weights_days" validate:"gte=1"`
}

// AnalyticsMaxAge converts AnalyticsDays to a duration.
func (r RetentionConfig) AnalyticsMaxAge() time.Duration {
	return time.Duration(r.AnalyticsDays) * 24 * time.Hour
}

// WeightsMaxAge converts WeightsDays to a duration.
func (r RetentionConfig) WeightsMaxAge() time.Duration {
	return time.Duration(r.WeightsDays) * 24 * time.Hour
}

// LLMConfig enables the insight detector. An empty provider disables it.
type LLMConfig struct {
	Provider string `mapstructure:"provider" validate:"omitempty,oneof=openai ollama anthropic gemini"`
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url" validate:"omitempty,url"`
}

// TelemetryConfig configures the PostHog analytics sink.
type TelemetryConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	PostHogKey string `mapstructure:"posthog_key" validate:"required_if=Enabled true"`
	Endpoint   string `mapstructure:"endpoint" validate:"omitempty,url"`
	DistinctID string `mapstructure:"distinct_id"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port    int      `mapstructure:"port" validate:"gte=1,lte=65535"`
	Origins []string `mapstructure:"origins"`
}

// PolicyConfig locates auto-action policies. Empty means <data dir>/policies.
type PolicyConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoggingConfig configures slog.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// PoliciesDir returns the effective policy directory.
func (c AppConfig) PoliciesDir() string {
	if c.Policy.Dir != "" {
		return c.Policy.Dir
	}
	return filepath.Join(c.Data.Dir, "policies")
}

// LockPath is the cross-process cycle lock file.
func (c AppConfig) LockPath() string {
	return filepath.Join(c.Data.Dir, "cycle.lock")
}

var validate = validator.New()

// Validate checks the configuration.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// SetDefaults registers every default on v. Env overrides only apply to
// keys viper knows about, so every key gets one.
func SetDefaults(v *viper.Viper) {
	tuning := feedback.DefaultTuning()

	v.SetDefault("data.dir", "")
	v.SetDefault("data.driver", DefaultDriver)
	v.SetDefault("snapshot.path", "")
	v.SetDefault("snapshot.cache_ttl", DefaultCacheTTL)
	v.SetDefault("detectors.disabled", []string{})
	v.SetDefault("detectors.stale_task_days", DefaultStaleTaskDays)
	v.SetDefault("feedback.min_samples", tuning.MinSamples)
	v.SetDefault("feedback.target_high", tuning.TargetHigh)
	v.SetDefault("feedback.target_low", tuning.TargetLow)
	v.SetDefault("feedback.dismiss_high", tuning.DismissHigh)
	v.SetDefault("feedback.step", tuning.Step)
	v.SetDefault("feedback.min_modifier", tuning.MinModifier)
	v.SetDefault("feedback.max_modifier", tuning.MaxModifier)
	v.SetDefault("retention.analytics_days", DefaultAnalyticsDays)
	v.SetDefault("retention.weights_days", DefaultWeightsDays)
	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.posthog_key", "")
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.distinct_id", "")
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.origins", []string{"http://localhost:3000", "http://localhost:5173"})
	v.SetDefault("policy.dir", "")
	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.format", DefaultLogFormat)
}

// Load reads configuration into an AppConfig. Sources in increasing
// priority: defaults, config file, .env, environment, flags bound on v.
// cfgFile, when set, must exist.
func Load(v *viper.Viper, cfgFile string) (AppConfig, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(LocalDir)
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return AppConfig{}, fmt.Errorf("read config %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Data.Dir = ResolveDataDir(cfg.Data.Dir)

	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}
