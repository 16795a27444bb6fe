package config

// EnvPrefix is passed to envconfig; individual fields carry explicit names so
// the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "CRAFTSHOP_APP_ENV"
	EnvPort     = "CRAFTSHOP_APP_PORT"
	EnvLogLevel = "CRAFTSHOP_LOG_LEVEL"

	EnvDBDSN  = "CRAFTSHOP_DB_DSN"
	EnvDBHost = "CRAFTSHOP_DB_HOST"
	EnvDBUser = "CRAFTSHOP_DB_USER"
	EnvDBName = "CRAFTSHOP_DB_NAME"

	EnvRedisURL = "CRAFTSHOP_REDIS_URL"

	EnvJWTSecret  = "CRAFTSHOP_JWT_SECRET"
	EnvJWTIssuer  = "CRAFTSHOP_JWT_ISSUER"
	EnvJWTExpMins = "CRAFTSHOP_JWT_EXPIRATION_MINUTES"

	EnvStripeAPIKey = "CRAFTSHOP_STRIPE_API_KEY"

	EnvGCPProjectID = "CRAFTSHOP_GCP_PROJECT_ID"
	EnvGCSBucket    = "CRAFTSHOP_GCS_BUCKET_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
