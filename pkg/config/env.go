package config

// EnvPrefix is handed to envconfig; every field carries its full name in the tag.
const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv   = "STOREFRONT_APP_ENV"
	EnvPort     = "STOREFRONT_APP_PORT"
	EnvLogLevel = "STOREFRONT_LOG_LEVEL"

	EnvMongoURI = "STOREFRONT_MONGO_URI"

	EnvRedisURL  = "STOREFRONT_REDIS_URL"
	EnvRedisAddr = "STOREFRONT_REDIS_ADDR"

	EnvDBDSN    = "STOREFRONT_DB_DSN"
	EnvDBDriver = "STOREFRONT_DB_DRIVER"
	EnvDBHost   = "STOREFRONT_DB_HOST"
	EnvDBUser   = "STOREFRONT_DB_USER"
	EnvDBName   = "STOREFRONT_DB_NAME"

	EnvJWTSecret = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer = "STOREFRONT_JWT_ISSUER"

	EnvPricingConversionRate = "STOREFRONT_PRICING_CONVERSION_RATE"

	EnvCartLoadTimeout = "STOREFRONT_CART_LOAD_TIMEOUT"
	EnvCartSaveTimeout = "STOREFRONT_CART_SAVE_TIMEOUT"
)

var splitDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
