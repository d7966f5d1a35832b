package configs

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/vault"
)

const envPrefix = "CAMPUS"

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type StoreConfig struct {
	// Driver is "memory" or "sqlite".
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type LedgerConfig struct {
	AllowOverdraft bool   `mapstructure:"allow_overdraft"`
	MaxAmount      string `mapstructure:"max_amount"`
}

type VaultConfig struct {
	FailurePolicy  string `mapstructure:"failure_policy"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
}

type GatewayConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	BaseURL       string        `mapstructure:"base_url"`
	Model         string        `mapstructure:"model"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
	// Offline answers with canned text instead of calling the service.
	Offline bool `mapstructure:"offline"`
}

type SeedConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Fixture string `mapstructure:"fixture"`
}

type CardConfig struct {
	ValidThru string `mapstructure:"valid_thru"`
}

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Store   StoreConfig   `mapstructure:"store"`
	Ledger  LedgerConfig  `mapstructure:"ledger"`
	Vault   VaultConfig   `mapstructure:"vault"`
	Gateway GatewayConfig `mapstructure:"gateway"`
	Seed    SeedConfig    `mapstructure:"seed"`
	Card    CardConfig    `mapstructure:"card"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 45*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.dsn", ":memory:")

	v.SetDefault("ledger.allow_overdraft", false)
	v.SetDefault("ledger.max_amount", "100000")

	v.SetDefault("vault.failure_policy", string(vault.FailOpen))
	v.SetDefault("vault.max_upload_bytes", vault.DefaultMaxUploadBytes)

	v.SetDefault("gateway.api_key", "")
	v.SetDefault("gateway.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("gateway.model", "gemini-3-flash-preview")
	v.SetDefault("gateway.timeout", 30*time.Second)
	v.SetDefault("gateway.rate_per_second", 2.0)
	v.SetDefault("gateway.burst", 4)
	v.SetDefault("gateway.offline", false)

	v.SetDefault("seed.enabled", true)
	v.SetDefault("seed.fixture", "")

	v.SetDefault("card.valid_thru", "JUN 2028")
}

// Load reads path, or configs/config.yaml when path is empty. A missing
// default file is not an error. Environment variables override file values
// as CAMPUS_<SECTION>_<KEY>; the gateway key is also read from
// GEMINI_API_KEY and API_KEY.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.AddConfigPath("./configs")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("gateway.api_key", envPrefix+"_GATEWAY_API_KEY", "GEMINI_API_KEY", "API_KEY"); err != nil {
		return Config{}, err
	}

	var fileLookupError viper.ConfigFileNotFoundError
	if err := v.ReadInConfig(); err != nil && !errors.As(err, &fileLookupError) {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}

	return c, nil
}

func (c Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Store.Driver {
	case "memory", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("store.driver: %q is not memory or sqlite", c.Store.Driver))
	}
	if _, err := c.Ledger.Max(); err != nil {
		errs = append(errs, err)
	}
	if !vault.FailurePolicy(c.Vault.FailurePolicy).Valid() {
		errs = append(errs, fmt.Errorf("vault.failure_policy: %q is not fail-open or fail-closed", c.Vault.FailurePolicy))
	}
	if c.Vault.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("vault.max_upload_bytes must be positive"))
	}
	if c.Gateway.Timeout <= 0 {
		errs = append(errs, errors.New("gateway.timeout must be positive"))
	}
	if c.Gateway.RatePerSecond < 0 {
		errs = append(errs, errors.New("gateway.rate_per_second must not be negative"))
	}

	return errors.Join(errs...)
}

// Max parses the per-transaction limit. Zero disables it.
func (l LedgerConfig) Max() (decimal.Decimal, error) {
	if strings.TrimSpace(l.MaxAmount) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(l.MaxAmount))
	if err != nil {
		return decimal.Zero, fmt.Errorf("ledger.max_amount: %w", err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("ledger.max_amount: %s is negative", d)
	}
	return d, nil
}
