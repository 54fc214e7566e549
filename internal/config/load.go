package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. MASTERY_SERVER_PORT.
const EnvPrefix = "MASTERY"

// Load configuration from an optional .env file, an optional config.yaml and
// environment variables. Environment variables take precedence over values from
// config files. Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	// A missing .env is normal outside local development
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	return load(v)
}

// LoadFile loads configuration from the given YAML file plus environment variables.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout", "15s")

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 25)
	v.SetDefault("database.conn_max_lifetime", "5m")

	v.SetDefault("engine.target_success_rate", 0.0)
	v.SetDefault("engine.tolerance", 0.0)
	v.SetDefault("engine.min_attempts_for_adjustment", 0)
	v.SetDefault("engine.increase_threshold", 0.0)
	v.SetDefault("engine.decrease_threshold", 0.0)
	v.SetDefault("engine.min_attempts_for_mastery", 0)
	v.SetDefault("engine.interval_source", "")
	v.SetDefault("engine.max_interval_days", 0)
	v.SetDefault("engine.weak_area_threshold", 0.0)
	v.SetDefault("engine.strong_area_threshold", 0.0)
	v.SetDefault("engine.max_recommendations", 0)
	v.SetDefault("engine.analytics_window_days", 30)

	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.prompt_template_path", "")
	v.SetDefault("llm.questions_per_request", 5)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_base_delay", "2s")

	v.SetDefault("events.amqp_url", "")
	v.SetDefault("events.exchange", "mastery.events")

	v.SetDefault("lock.redis_addr", "")
	v.SetDefault("lock.redis_password", "")
	v.SetDefault("lock.redis_db", 0)
	v.SetDefault("lock.ttl", "10s")
	v.SetDefault("lock.retry_interval", "50ms")

	v.SetDefault("task.worker_count", 2)
	v.SetDefault("task.queue_size", 100)
	v.SetDefault("task.stuck_task_age", "30m")
	v.SetDefault("task.stuck_task_check_interval", "5m")
}
