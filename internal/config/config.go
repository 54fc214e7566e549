package config

import (
	"time"

	"github.com/phrazzld/mastery-api/internal/domain/adaptive"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Engine   EngineConfig   `mapstructure:"engine" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Events   EventsConfig   `mapstructure:"events"`
	Lock     LockConfig     `mapstructure:"lock" validate:"required"`
	Task     TaskConfig     `mapstructure:"task" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url" validate:"required,url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
}

// EngineConfig tunes the adaptive engine. Zero values keep the engine defaults.
type EngineConfig struct {
	TargetSuccessRate        float64 `mapstructure:"target_success_rate" validate:"gte=0,lte=1"`
	Tolerance                float64 `mapstructure:"tolerance" validate:"gte=0,lte=1"`
	MinAttemptsForAdjustment int     `mapstructure:"min_attempts_for_adjustment" validate:"gte=0"`
	IncreaseThreshold        float64 `mapstructure:"increase_threshold" validate:"gte=0,lte=1"`
	DecreaseThreshold        float64 `mapstructure:"decrease_threshold" validate:"gte=0,lte=1"`
	MinAttemptsForMastery    int     `mapstructure:"min_attempts_for_mastery" validate:"gte=0"`
	IntervalSource           string  `mapstructure:"interval_source" validate:"omitempty,oneof=scheduler bucket"`
	MaxIntervalDays          int     `mapstructure:"max_interval_days" validate:"gte=0"`
	WeakAreaThreshold        float64 `mapstructure:"weak_area_threshold" validate:"gte=0,lte=1"`
	StrongAreaThreshold      float64 `mapstructure:"strong_area_threshold" validate:"gte=0,lte=1"`
	MaxRecommendations       int     `mapstructure:"max_recommendations" validate:"gte=0"`
	AnalyticsWindowDays      int     `mapstructure:"analytics_window_days" validate:"gte=1,lte=365"`
}

// ToParamsConfig maps the engine settings onto adaptive parameter overrides.
func (c EngineConfig) ToParamsConfig() adaptive.ParamsConfig {
	return adaptive.ParamsConfig{
		TargetSuccessRate:        c.TargetSuccessRate,
		Tolerance:                c.Tolerance,
		MinAttemptsForAdjustment: c.MinAttemptsForAdjustment,
		IncreaseThreshold:        c.IncreaseThreshold,
		DecreaseThreshold:        c.DecreaseThreshold,
		MinAttemptsForMastery:    c.MinAttemptsForMastery,
		IntervalSource:           adaptive.IntervalSource(c.IntervalSource),
		MaxIntervalDays:          c.MaxIntervalDays,
		WeakAreaThreshold:        c.WeakAreaThreshold,
		StrongAreaThreshold:      c.StrongAreaThreshold,
		MaxRecommendations:       c.MaxRecommendations,
	}
}

// LLMConfig contains all LLM integration related settings.
// Question generation is disabled when GeminiAPIKey is empty.
type LLMConfig struct {
	GeminiAPIKey        string        `mapstructure:"gemini_api_key"`
	ModelName           string        `mapstructure:"model_name" validate:"required_with=GeminiAPIKey"`
	PromptTemplatePath  string        `mapstructure:"prompt_template_path" validate:"omitempty,file"`
	QuestionsPerRequest int           `mapstructure:"questions_per_request" validate:"gte=1,lte=20"`
	MaxRetries          int           `mapstructure:"max_retries" validate:"gte=0,lte=5"`
	RetryBaseDelay      time.Duration `mapstructure:"retry_base_delay" validate:"gte=0"`
}

// Enabled reports whether a Gemini API key was configured.
func (c LLMConfig) Enabled() bool {
	return c.GeminiAPIKey != ""
}

// EventsConfig contains the outbound event broker settings.
// Events stay in-process when AMQPURL is empty.
type EventsConfig struct {
	AMQPURL  string `mapstructure:"amqp_url" validate:"omitempty,url"`
	Exchange string `mapstructure:"exchange" validate:"required_with=AMQPURL"`
}

// LockConfig selects the per-key lock used to serialize fold-ins.
// An empty RedisAddr selects the in-process lock.
type LockConfig struct {
	RedisAddr     string        `mapstructure:"redis_addr" validate:"omitempty,hostname_port"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db" validate:"gte=0"`
	TTL           time.Duration `mapstructure:"ttl" validate:"gt=0"`
	RetryInterval time.Duration `mapstructure:"retry_interval" validate:"gt=0"`
}

// TaskConfig configures the background question generation runner.
type TaskConfig struct {
	WorkerCount            int           `mapstructure:"worker_count" validate:"gte=1"`
	QueueSize              int           `mapstructure:"queue_size" validate:"gte=1"`
	StuckTaskAge           time.Duration `mapstructure:"stuck_task_age" validate:"gt=0"`
	StuckTaskCheckInterval time.Duration `mapstructure:"stuck_task_check_interval" validate:"gt=0"`
}
