package config

// EnvPrefix is the envconfig prefix shared by every service binary.
const EnvPrefix = "barca"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv     = "BARCA_APP_ENV"
	EnvPort       = "BARCA_APP_PORT"
	EnvDBDSN      = "BARCA_DB_DSN"
	EnvDBHost     = "BARCA_DB_HOST"
	EnvDBUser     = "BARCA_DB_USER"
	EnvDBName     = "BARCA_DB_NAME"
	EnvRedisURL   = "BARCA_REDIS_URL"
	EnvJWTSecret  = "BARCA_JWT_SECRET"
	EnvJWTIssuer  = "BARCA_JWT_ISSUER"
	EnvJWTExpMins = "BARCA_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID   = "BARCA_GCP_PROJECT_ID"
	EnvPubSubLotTopic = "BARCA_PUBSUB_LOT_EVENTS_TOPIC"
	EnvPubSubLotSub   = "BARCA_PUBSUB_LOT_EVENTS_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
