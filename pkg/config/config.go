package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
)

type Config struct {
	App          AppConfig
	Mongo        MongoConfig
	Redis        RedisConfig
	DB           DBConfig
	JWT          JWTConfig
	Pricing      PricingConfig
	Cart         CartConfig
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
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`

	RequestTimeout  time.Duration `envconfig:"STOREFRONT_REQUEST_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"STOREFRONT_SHUTDOWN_TIMEOUT" default:"15s"`
	CORSOrigins     []string      `envconfig:"STOREFRONT_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type MongoConfig struct {
	URI                    string        `envconfig:"STOREFRONT_MONGO_URI" required:"true"`
	Database               string        `envconfig:"STOREFRONT_MONGO_DB" default:"storefront"`
	CartCollection         string        `envconfig:"STOREFRONT_MONGO_CART_COLLECTION" default:"carts"`
	ConnectTimeout         time.Duration `envconfig:"STOREFRONT_MONGO_CONNECT_TIMEOUT" default:"10s"`
	ServerSelectionTimeout time.Duration `envconfig:"STOREFRONT_MONGO_SERVER_SELECTION_TIMEOUT" default:"5s"`
	MaxPoolSize            uint64        `envconfig:"STOREFRONT_MONGO_MAX_POOL_SIZE" default:"100"`
	MinPoolSize            uint64        `envconfig:"STOREFRONT_MONGO_MIN_POOL_SIZE" default:"5"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
	CartCacheTTL time.Duration `envconfig:"STOREFRONT_REDIS_CART_CACHE_TTL" default:"15m"`
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"STOREFRONT_DB_HOST"`
	Port     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	User     string `envconfig:"STOREFRONT_DB_USER"`
	Password string `envconfig:"STOREFRONT_DB_PASSWORD"`
	Name     string `envconfig:"STOREFRONT_DB_NAME"`
	SSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the catalog is served from an embedded sqlite file.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DBDriverSQLite)
}

type JWTConfig struct {
	Secret string `envconfig:"STOREFRONT_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"STOREFRONT_JWT_ISSUER" required:"true"`
}

// PricingConfig drives the single price normalizer shared by the catalog and cart.
type PricingConfig struct {
	ConversionRate      string `envconfig:"STOREFRONT_PRICING_CONVERSION_RATE" default:"18.5"`
	CartAppliesDiscount bool   `envconfig:"STOREFRONT_PRICING_CART_APPLIES_DISCOUNT" default:"true"`
}

type CartConfig struct {
	LoadTimeout        time.Duration `envconfig:"STOREFRONT_CART_LOAD_TIMEOUT" default:"5s"`
	SaveTimeout        time.Duration `envconfig:"STOREFRONT_CART_SAVE_TIMEOUT" default:"5s"`
	BreakerMaxFailures uint32        `envconfig:"STOREFRONT_CART_BREAKER_MAX_FAILURES" default:"5"`
	BreakerOpenTimeout time.Duration `envconfig:"STOREFRONT_CART_BREAKER_OPEN_TIMEOUT" default:"30s"`
	SessionIdleTTL     time.Duration `envconfig:"STOREFRONT_CART_SESSION_IDLE_TTL" default:"30m"`
	SweepInterval      time.Duration `envconfig:"STOREFRONT_CART_SWEEP_INTERVAL" default:"1m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
	SeedCatalog bool `envconfig:"STOREFRONT_SEED_CATALOG" default:"false"`
}

func (c *Config) validate() error {
	var errs error
	if c.Redis.URL == "" && c.Redis.Address == "" {
		errs = multierr.Append(errs, fmt.Errorf("either %s or %s is required", EnvRedisURL, EnvRedisAddr))
	}
	if c.Cart.SaveTimeout <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s must be positive", EnvCartSaveTimeout))
	}
	if c.Cart.LoadTimeout <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s must be positive", EnvCartLoadTimeout))
	}
	if strings.TrimSpace(c.Pricing.ConversionRate) == "" {
		errs = multierr.Append(errs, fmt.Errorf("%s is required", EnvPricingConversionRate))
	}
	switch strings.ToLower(c.DB.Driver) {
	case DBDriverPostgres, DBDriverSQLite:
	default:
		errs = multierr.Append(errs, fmt.Errorf("unsupported %s %q", EnvDBDriver, c.DB.Driver))
	}
	return errs
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range splitDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
