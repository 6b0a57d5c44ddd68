package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix scopes every environment variable read by Load.
	EnvPrefix = "SOUQLY"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "SOUQLY_DB_DSN"
	EnvDBHost = "SOUQLY_DB_HOST"
	EnvDBUser = "SOUQLY_DB_USER"
	EnvDBName = "SOUQLY_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Zones        ZonesConfig
	Estimator    EstimatorConfig
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
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SOUQLY_APP_ENV" required:"true"`
	LogLevel     string `envconfig:"SOUQLY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SOUQLY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SOUQLY_DB_DSN"`
	Driver string `envconfig:"SOUQLY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SOUQLY_DB_HOST"`
	LegacyPort     int    `envconfig:"SOUQLY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SOUQLY_DB_USER"`
	LegacyPassword string `envconfig:"SOUQLY_DB_PASSWORD"`
	LegacyName     string `envconfig:"SOUQLY_DB_NAME"`
	LegacySSLMode  string `envconfig:"SOUQLY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SOUQLY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SOUQLY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SOUQLY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SOUQLY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SOUQLY_REDIS_URL" required:"true"`
	PoolSize     int           `envconfig:"SOUQLY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SOUQLY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SOUQLY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SOUQLY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SOUQLY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// ZonesConfig points at the deploy-provided shipping zone table file.
type ZonesConfig struct {
	TablePath string `envconfig:"SOUQLY_ZONES_TABLE_PATH" required:"true"`
}

// EstimatorConfig tunes the delivery-metrics batch worker.
type EstimatorConfig struct {
	Interval time.Duration `envconfig:"SOUQLY_ESTIMATOR_INTERVAL" default:"15m"`
	Timeout  time.Duration `envconfig:"SOUQLY_ESTIMATOR_TIMEOUT" default:"2m"`
	Lookback time.Duration `envconfig:"SOUQLY_ESTIMATOR_LOOKBACK" default:"2160h"`
	CacheTTL time.Duration `envconfig:"SOUQLY_ESTIMATOR_CACHE_TTL" default:"30m"`
}

type FeatureFlagsConfig struct {
	UseSQLite bool `envconfig:"SOUQLY_USE_SQLITE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
