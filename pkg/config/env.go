package config

// EnvPrefix is handed to envconfig; the struct tags carry the full names.
const EnvPrefix = "TAOMALL"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv       = "TAOMALL_APP_ENV"
	EnvPort         = "TAOMALL_APP_PORT"
	EnvLogLevel     = "TAOMALL_LOG_LEVEL"
	EnvServiceKind  = "TAOMALL_SERVICE_KIND"
	EnvDBDSN        = "TAOMALL_DB_DSN"
	EnvDBHost       = "TAOMALL_DB_HOST"
	EnvDBUser       = "TAOMALL_DB_USER"
	EnvDBName       = "TAOMALL_DB_NAME"
	EnvRedisURL     = "TAOMALL_REDIS_URL"
	EnvJWTSecret    = "TAOMALL_JWT_SECRET"
	EnvJWTIssuer    = "TAOMALL_JWT_ISSUER"
	EnvJWTExpMins   = "TAOMALL_JWT_EXPIRATION_MINUTES"
	EnvGCPProjectID = "TAOMALL_GCP_PROJECT_ID"
	EnvDomainTopic  = "TAOMALL_PUBSUB_DOMAIN_TOPIC"
	EnvVNPayTmnCode = "TAOMALL_VNPAY_TMN_CODE"
	EnvVNPaySecret  = "TAOMALL_VNPAY_HASH_SECRET"
	EnvVNPayReturn  = "TAOMALL_VNPAY_RETURN_URL"
	EnvAutoMigrate  = "TAOMALL_AUTO_MIGRATE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
