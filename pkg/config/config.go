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
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Admission     AdmissionConfig
	Referrals     ReferralsConfig
	Notifications NotificationsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Cron          CronConfig
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
	Env          string `envconfig:"BARCA_APP_ENV" required:"true"`
	Port         string `envconfig:"BARCA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BARCA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BARCA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"BARCA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"BARCA_DB_DSN"`
	Driver string `envconfig:"BARCA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BARCA_DB_HOST"`
	LegacyPort     int    `envconfig:"BARCA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BARCA_DB_USER"`
	LegacyPassword string `envconfig:"BARCA_DB_PASSWORD"`
	LegacyName     string `envconfig:"BARCA_DB_NAME"`
	LegacySSLMode  string `envconfig:"BARCA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BARCA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BARCA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BARCA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BARCA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BARCA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BARCA_REDIS_ADDR"`
	Password     string        `envconfig:"BARCA_REDIS_PASSWORD"`
	DB           int           `envconfig:"BARCA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BARCA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BARCA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BARCA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BARCA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BARCA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BARCA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BARCA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BARCA_JWT_EXPIRATION_MINUTES" required:"true"`
}

// Expiration returns the access token TTL configured in minutes.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"BARCA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"BARCA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"BARCA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"BARCA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"BARCA_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"BARCA_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIDLimit    int           `envconfig:"BARCA_AUTH_RATE_LIMIT_LOGIN_ID_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"BARCA_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow  time.Duration `envconfig:"BARCA_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterIDLimit int           `envconfig:"BARCA_AUTH_RATE_LIMIT_REGISTER_ID_LIMIT" default:"3"`
	RegisterIPLimit int           `envconfig:"BARCA_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BARCA_AUTO_MIGRATE" default:"false"`
}

type AdmissionConfig struct {
	MaxRetries   int           `envconfig:"BARCA_ADMISSION_MAX_RETRIES" default:"3"`
	RetryBackoff time.Duration `envconfig:"BARCA_ADMISSION_RETRY_BACKOFF" default:"25ms"`
}

type ReferralsConfig struct {
	BonusRateBP     int `envconfig:"BARCA_REFERRAL_BONUS_RATE_BP" default:"500"`
	CodeLength      int `envconfig:"BARCA_REFERRAL_CODE_LENGTH" default:"8"`
	CodeMaxAttempts int `envconfig:"BARCA_REFERRAL_CODE_MAX_ATTEMPTS" default:"10"`
}

type NotificationsConfig struct {
	RetentionDays int `envconfig:"BARCA_NOTIFICATIONS_RETENTION_DAYS" default:"90"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"BARCA_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"BARCA_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"BARCA_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	LotEventsTopic        string `envconfig:"BARCA_PUBSUB_LOT_EVENTS_TOPIC" required:"true"`
	LotEventsSubscription string `envconfig:"BARCA_PUBSUB_LOT_EVENTS_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"BARCA_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"BARCA_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"BARCA_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"BARCA_OUTBOX_RETENTION_DAYS" default:"30"`
}

type CronConfig struct {
	TickInterval time.Duration `envconfig:"BARCA_CRON_TICK_INTERVAL" default:"1m"`
	LockTTL      time.Duration `envconfig:"BARCA_CRON_LOCK_TTL" default:"5m"`
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
