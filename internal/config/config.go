// AngelaMos | 2026
// config.go

package config

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	JWT       JWTConfig       `koanf:"jwt"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	CORS      CORSConfig      `koanf:"cors"`
	Log       LogConfig       `koanf:"log"`
	Otel      OtelConfig      `koanf:"otel"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Recipes   RecipesConfig   `koanf:"recipes"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

type JWTConfig struct {
	PrivateKeyPath     string        `koanf:"private_key_path"`
	PublicKeyPath      string        `koanf:"public_key_path"`
	AccessTokenExpire  time.Duration `koanf:"access_token_expire"`
	RefreshTokenExpire time.Duration `koanf:"refresh_token_expire"`
	Issuer             string        `koanf:"issuer"`
	Audience           string        `koanf:"audience"`
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	Burst    int           `koanf:"burst"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// RecipesConfig bounds list endpoints and the shopping list export.
type RecipesConfig struct {
	DefaultPageSize      int    `koanf:"default_page_size"`
	MaxPageSize          int    `koanf:"max_page_size"`
	ShoppingListFilename string `koanf:"shopping_list_filename"`
}

// Load parses the configuration once per process; later calls return the
// first result whatever path they pass.
func Load(configPath string) (*Config, error) {
	loadOnce.Do(func() {
		loadedCfg, loadErr = Parse(configPath)
	})
	return loadedCfg, loadErr
}

var (
	loadOnce  sync.Once
	loadedCfg *Config
	loadErr   error
)

// Parse layers the embedded defaults, the optional YAML file at configPath
// and the environment, later sources winning.
func Parse(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider(defaultsYAML), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envResolver(k.Keys())), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var c Config
	if err := k.Unmarshal("", &c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// envAliases are variable names that do not follow the SECTION_FIELD form.
var envAliases = map[string]string{
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"ENVIRONMENT":                 "app.environment",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
}

// envResolver maps DATABASE_URL style names onto known keys; anything
// else in the environment is ignored.
func envResolver(keys []string) func(string) string {
	known := make(map[string]string, len(keys)+len(envAliases))
	for _, key := range keys {
		known[strings.ToUpper(strings.ReplaceAll(key, ".", "_"))] = key
	}
	for name, key := range envAliases {
		known[name] = key
	}

	return func(name string) string {
		return known[name]
	}
}

func (c *Config) validate() error {
	var errs []error
	require := func(value, name string) {
		if value == "" {
			errs = append(errs, fmt.Errorf("%s is required", name))
		}
	}

	require(c.Database.URL, "DATABASE_URL")
	require(c.Redis.URL, "REDIS_URL")
	require(c.JWT.PrivateKeyPath, "JWT_PRIVATE_KEY_PATH")
	require(c.JWT.PublicKeyPath, "JWT_PUBLIC_KEY_PATH")

	if c.CORS.AllowCredentials && slices.Contains(c.CORS.AllowedOrigins, "*") {
		errs = append(errs, errors.New("cors: wildcard origin cannot be combined with credentials"))
	}
	if c.IsProduction() && c.Otel.Enabled && c.Otel.Insecure {
		errs = append(errs, errors.New("OTEL_INSECURE must be false in production"))
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		errs = append(errs, errors.New("server read and write timeouts must be positive"))
	}
	if c.Recipes.DefaultPageSize < 1 || c.Recipes.DefaultPageSize > c.Recipes.MaxPageSize {
		errs = append(errs, errors.New("recipes.default_page_size must be between 1 and recipes.max_page_size"))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
