// Package config loads runtime settings from defaults, an optional config
// file and MOCKAPI_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const envPrefix = "MOCKAPI"

type Config struct {
	Addr     string `mapstructure:"addr" validate:"required"`
	LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogDev   bool   `mapstructure:"log_dev"`
	BaseURL  string `mapstructure:"base_url" validate:"required,url"`

	RateLimit RateLimit `mapstructure:"rate_limit"`
	Redis     Redis     `mapstructure:"redis"`
	Latency   Latency   `mapstructure:"latency"`
	Status    Status    `mapstructure:"status"`
	Tracking  Tracking  `mapstructure:"tracking"`
}

type RateLimit struct {
	Limit   int           `mapstructure:"limit" validate:"gt=0"`
	Window  time.Duration `mapstructure:"window" validate:"gt=0"`
	Backend string        `mapstructure:"backend" validate:"oneof=memory redis"`
}

type Redis struct {
	Addr string `mapstructure:"addr"`
}

type Latency struct {
	Track    time.Duration `mapstructure:"track" validate:"gte=0"`
	Create   time.Duration `mapstructure:"create" validate:"gte=0"`
	Get      time.Duration `mapstructure:"get" validate:"gte=0"`
	Provider time.Duration `mapstructure:"provider" validate:"gte=0"`
	Jitter   time.Duration `mapstructure:"jitter" validate:"gte=0"`
}

type Status struct {
	Bucket time.Duration `mapstructure:"bucket" validate:"gt=0"`
}

type Tracking struct {
	BaseInterval   time.Duration `mapstructure:"base_interval" validate:"gt=0"`
	MaxInterval    time.Duration `mapstructure:"max_interval" validate:"gtefield=BaseInterval"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
	MaxInFlight    int           `mapstructure:"max_inflight" validate:"gt=0"`
	AllowCycle     bool          `mapstructure:"allow_cycle"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_dev", false)
	v.SetDefault("base_url", "http://localhost:8080")

	v.SetDefault("rate_limit.limit", 8)
	v.SetDefault("rate_limit.window", 10*time.Second)
	v.SetDefault("rate_limit.backend", "memory")
	v.SetDefault("redis.addr", "localhost:6379")

	v.SetDefault("latency.track", 800*time.Millisecond)
	v.SetDefault("latency.create", 500*time.Millisecond)
	v.SetDefault("latency.get", 300*time.Millisecond)
	v.SetDefault("latency.provider", 200*time.Millisecond)
	v.SetDefault("latency.jitter", time.Duration(0))

	v.SetDefault("status.bucket", 20*time.Second)

	v.SetDefault("tracking.base_interval", 20*time.Second)
	v.SetDefault("tracking.max_interval", 300*time.Second)
	v.SetDefault("tracking.request_timeout", 10*time.Second)
	v.SetDefault("tracking.max_inflight", 8)
	v.SetDefault("tracking.allow_cycle", false)
}

// Load reads the configuration. path may be empty; a missing file at a
// non-empty path is an error.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field ranges and cross-field rules.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.RateLimit.Backend == "redis" && c.Redis.Addr == "" {
		return errors.New("invalid config: redis.addr is required for the redis backend")
	}
	return nil
}
