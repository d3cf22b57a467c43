package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Cache        CacheConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
	VNPay        VNPayConfig
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
	Env          string `envconfig:"TAOMALL_APP_ENV" required:"true"`
	Port         string `envconfig:"TAOMALL_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"TAOMALL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TAOMALL_LOG_WARN_STACK" default:"false"`
	// CORSOrigins is a comma separated allow list for browser clients.
	CORSOrigins []string `envconfig:"TAOMALL_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"TAOMALL_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN string `envconfig:"TAOMALL_DB_DSN"`

	Host     string `envconfig:"TAOMALL_DB_HOST"`
	Port     int    `envconfig:"TAOMALL_DB_PORT" default:"5432"`
	User     string `envconfig:"TAOMALL_DB_USER"`
	Password string `envconfig:"TAOMALL_DB_PASSWORD"`
	Name     string `envconfig:"TAOMALL_DB_NAME"`
	SSLMode  string `envconfig:"TAOMALL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TAOMALL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TAOMALL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TAOMALL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TAOMALL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL            string        `envconfig:"TAOMALL_REDIS_URL"`
	Address        string        `envconfig:"TAOMALL_REDIS_ADDR"`
	Password       string        `envconfig:"TAOMALL_REDIS_PASSWORD"`
	DB             int           `envconfig:"TAOMALL_REDIS_DB" default:"0"`
	PoolSize       int           `envconfig:"TAOMALL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns   int           `envconfig:"TAOMALL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout    time.Duration `envconfig:"TAOMALL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout    time.Duration `envconfig:"TAOMALL_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout   time.Duration `envconfig:"TAOMALL_REDIS_WRITE_TIMEOUT" default:"3s"`
	IdempotencyTTL time.Duration `envconfig:"TAOMALL_IDEMPOTENCY_TTL" default:"24h"`
}

type JWTConfig struct {
	Secret            string `envconfig:"TAOMALL_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TAOMALL_JWT_ISSUER" default:"taomall"`
	ExpirationMinutes int    `envconfig:"TAOMALL_JWT_EXPIRATION_MINUTES" default:"60"`
}

// AccessTTL returns the configured access token lifetime.
func (j JWTConfig) AccessTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TAOMALL_AUTO_MIGRATE" default:"false"`
}

type CacheConfig struct {
	ProductListTTL time.Duration `envconfig:"TAOMALL_CACHE_PRODUCT_LIST_TTL" default:"60s"`
	DraftTTL       time.Duration `envconfig:"TAOMALL_CACHE_DRAFT_TTL" default:"24h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"TAOMALL_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"TAOMALL_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"TAOMALL_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic string `envconfig:"TAOMALL_PUBSUB_DOMAIN_TOPIC" default:"taomall-domain-events"`
	OrdersTopic string `envconfig:"TAOMALL_PUBSUB_ORDERS_TOPIC" default:"taomall-order-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"TAOMALL_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"TAOMALL_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"TAOMALL_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Interval            time.Duration `envconfig:"TAOMALL_CRON_INTERVAL" default:"1h"`
	OutboxRetentionDays int           `envconfig:"TAOMALL_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
}

type VNPayConfig struct {
	TmnCode    string        `envconfig:"TAOMALL_VNPAY_TMN_CODE"`
	HashSecret string        `envconfig:"TAOMALL_VNPAY_HASH_SECRET"`
	PayURL     string        `envconfig:"TAOMALL_VNPAY_PAY_URL" default:"https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"`
	ReturnURL  string        `envconfig:"TAOMALL_VNPAY_RETURN_URL"`
	Locale     string        `envconfig:"TAOMALL_VNPAY_LOCALE" default:"vn"`
	Version    string        `envconfig:"TAOMALL_VNPAY_VERSION" default:"2.1.0"`
	ExpireIn   time.Duration `envconfig:"TAOMALL_VNPAY_EXPIRE_IN" default:"15m"`
}

// Enabled reports whether enough is configured to sign payment URLs.
func (v VNPayConfig) Enabled() bool {
	return strings.TrimSpace(v.TmnCode) != "" && strings.TrimSpace(v.HashSecret) != ""
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range legacyDBEnvVars {
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
