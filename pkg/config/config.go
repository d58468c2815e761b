package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Config stores all configuration for the application.
type Config struct {
	UserAgent      string  `mapstructure:"HTTP_USER_AGENT"`
	RequestTimeout float64 `mapstructure:"REQUEST_TIMEOUT"` // in seconds
	RequestRetry   int     `mapstructure:"REQUEST_RETRY"`
	RequestSleep   float64 `mapstructure:"REQUEST_SLEEP"` // in seconds
	MaxPerProduct  int     `mapstructure:"MAX_PER_PRODUCT"`
	OutDir         string  `mapstructure:"OUT_DIR"`
	RenderMode     string  `mapstructure:"RENDER_MODE"` // "http" or "chromedp"
	HTTPProxies    string  `mapstructure:"HTTP_PROXIES"`
	LogLevel       string  `mapstructure:"LOG_LEVEL"`

	ServerPort        string `mapstructure:"SERVER_PORT"`
	PostgresURL       string `mapstructure:"POSTGRES_URL"`
	RedisAddr         string `mapstructure:"REDIS_ADDR"`
	RedisPassword     string `mapstructure:"REDIS_PASSWORD"`
	RedisDB           int    `mapstructure:"REDIS_DB"`
	RunStatusTTLHours int    `mapstructure:"RUN_STATUS_TTL_HOURS"`
}

// Load reads configuration from a .env file in the working directory and the environment.
func Load() (*Config, error) {
	return LoadFrom(".env")
}

// LoadFrom reads configuration from the given env file and environment variables.
// A missing file is not an error, environment variables alone are enough.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	v.SetDefault("HTTP_USER_AGENT", DefaultUserAgent)
	v.SetDefault("REQUEST_TIMEOUT", 20)
	v.SetDefault("REQUEST_RETRY", 3)
	v.SetDefault("REQUEST_SLEEP", 0.8)
	v.SetDefault("MAX_PER_PRODUCT", 3)
	v.SetDefault("OUT_DIR", "data/wega_images")
	v.SetDefault("RENDER_MODE", "http")
	v.SetDefault("HTTP_PROXIES", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("POSTGRES_URL", "")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RUN_STATUS_TTL_HOURS", 48)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Timeout is the per-request deadline.
func (c *Config) Timeout() time.Duration {
	return seconds(c.RequestTimeout)
}

// Sleep is the retry backoff unit and the pacing delay between rows.
func (c *Config) Sleep() time.Duration {
	return seconds(c.RequestSleep)
}

// RunStatusTTL is how long the service remembers a run's status.
func (c *Config) RunStatusTTL() time.Duration {
	return time.Duration(c.RunStatusTTLHours) * time.Hour
}

// Proxies splits HTTP_PROXIES into a list, dropping blanks.
func (c *Config) Proxies() []string {
	var out []string
	for _, p := range strings.Split(c.HTTPProxies, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
