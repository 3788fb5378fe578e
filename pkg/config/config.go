package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = "QANZ"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Fees         FeesConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.Fees.Rate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"QANZ_APP_ENV" required:"true"`
	Port         string `envconfig:"QANZ_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"QANZ_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"QANZ_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"QANZ_DB_DSN"`

	Host     string `envconfig:"QANZ_DB_HOST"`
	Port     int    `envconfig:"QANZ_DB_PORT" default:"5432"`
	User     string `envconfig:"QANZ_DB_USER"`
	Password string `envconfig:"QANZ_DB_PASSWORD"`
	Name     string `envconfig:"QANZ_DB_NAME"`
	SSLMode  string `envconfig:"QANZ_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"QANZ_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"QANZ_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"QANZ_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"QANZ_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("db config requires QANZ_DB_DSN or host/user/name parts")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"QANZ_REDIS_URL"`
	Address      string        `envconfig:"QANZ_REDIS_ADDR"`
	Password     string        `envconfig:"QANZ_REDIS_PASSWORD"`
	DB           int           `envconfig:"QANZ_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"QANZ_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"QANZ_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"QANZ_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"QANZ_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"QANZ_REDIS_WRITE_TIMEOUT" default:"3s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"QANZ_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"QANZ_JWT_ISSUER" default:"qanz"`
	ExpirationMinutes int    `envconfig:"QANZ_JWT_EXPIRATION_MINUTES" default:"60"`
}

// FeesConfig drives the settlement split for delivered orders.
type FeesConfig struct {
	PlatformRate   string `envconfig:"QANZ_FEES_PLATFORM_RATE" default:"0.10"`
	DriverFeeCents int64  `envconfig:"QANZ_FEES_DRIVER_FEE_CENTS" default:"500"`
}

// Rate parses the platform rate into an exact decimal.
func (f FeesConfig) Rate() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(f.PlatformRate))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid platform rate %q: %w", f.PlatformRate, err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("platform rate %q out of range [0,1]", f.PlatformRate)
	}
	return rate, nil
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"QANZ_FEATURE_AUTO_MIGRATE" default:"false"`
}
