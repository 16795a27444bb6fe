package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	FeatureFlags  FeatureFlagsConfig
	Catalog       CatalogConfig
	Fanout        FanoutConfig
	Stripe        StripeConfig
	GCP           GCPConfig
	GCS           GCSConfig
	PubSub        PubSubConfig
	AuthRateLimit AuthRateLimitConfig
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
	Env          string `envconfig:"CRAFTSHOP_APP_ENV" required:"true"`
	Port         string `envconfig:"CRAFTSHOP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CRAFTSHOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CRAFTSHOP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CRAFTSHOP_DB_DSN"`
	Driver string `envconfig:"CRAFTSHOP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CRAFTSHOP_DB_HOST"`
	LegacyPort     int    `envconfig:"CRAFTSHOP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CRAFTSHOP_DB_USER"`
	LegacyPassword string `envconfig:"CRAFTSHOP_DB_PASSWORD"`
	LegacyName     string `envconfig:"CRAFTSHOP_DB_NAME"`
	LegacySSLMode  string `envconfig:"CRAFTSHOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CRAFTSHOP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CRAFTSHOP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CRAFTSHOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CRAFTSHOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CRAFTSHOP_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CRAFTSHOP_REDIS_ADDR"`
	Password     string        `envconfig:"CRAFTSHOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"CRAFTSHOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CRAFTSHOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CRAFTSHOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CRAFTSHOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CRAFTSHOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CRAFTSHOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CRAFTSHOP_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CRAFTSHOP_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"CRAFTSHOP_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTTLHours   int    `envconfig:"CRAFTSHOP_JWT_REFRESH_TTL_HOURS" default:"168"`
}

// RefreshTokenTTL converts the configured refresh window into a duration.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(j.RefreshTTLHours) * time.Hour
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CRAFTSHOP_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CRAFTSHOP_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CRAFTSHOP_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CRAFTSHOP_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CRAFTSHOP_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CRAFTSHOP_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CRAFTSHOP_AUTO_MIGRATE" default:"false"`
}

// CatalogConfig tunes the referential-integrity coordinator.
type CatalogConfig struct {
	// ScrubOwnerOnCategoryDelete removes the deleting owner from the owner
	// sets of products that referenced the category. Legacy behavior, off
	// unless a tenant depends on it.
	ScrubOwnerOnCategoryDelete bool `envconfig:"CRAFTSHOP_CATALOG_SCRUB_OWNER_ON_DELETE" default:"false"`
}

// FanoutConfig bounds per-member retries during ownership propagation.
type FanoutConfig struct {
	MaxAttempts uint64        `envconfig:"CRAFTSHOP_FANOUT_MAX_ATTEMPTS" default:"3"`
	BaseBackoff time.Duration `envconfig:"CRAFTSHOP_FANOUT_BASE_BACKOFF" default:"50ms"`
}

// AuthRateLimitConfig throttles credential-guessing traffic on the login
// surface. Zero values disable the corresponding limit.
type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"CRAFTSHOP_AUTH_RL_LOGIN_WINDOW" default:"5m"`
	LoginIPLimit    int           `envconfig:"CRAFTSHOP_AUTH_RL_LOGIN_IP_LIMIT" default:"20"`
	LoginEmailLimit int           `envconfig:"CRAFTSHOP_AUTH_RL_LOGIN_EMAIL_LIMIT" default:"10"`
}

type StripeConfig struct {
	APIKey   string `envconfig:"CRAFTSHOP_STRIPE_API_KEY"`
	Env      string `envconfig:"CRAFTSHOP_STRIPE_ENV" default:"test"`
	Currency string `envconfig:"CRAFTSHOP_STRIPE_CURRENCY" default:"usd"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type GCPConfig struct {
	ProjectID              string `envconfig:"CRAFTSHOP_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"CRAFTSHOP_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"CRAFTSHOP_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"CRAFTSHOP_GCS_BUCKET_NAME" required:"true"`
}

type PubSubConfig struct {
	RealtimeTopic string `envconfig:"CRAFTSHOP_PUBSUB_REALTIME_TOPIC" default:"cs-realtime-events"`
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
