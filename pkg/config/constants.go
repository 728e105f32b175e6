package config

const EnvPrefix = "MARKETDESK"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverSQLite   = "sqlite"
	DBDriverPostgres = "postgres"

	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"

	minSessionSecretLen = 32
)

const (
	EnvAppEnv               = "MARKETDESK_APP_ENV"
	EnvPort                 = "MARKETDESK_PORT"
	EnvDBDriver             = "MARKETDESK_DB_DRIVER"
	EnvDBDir                = "MARKETDESK_DB_DIR"
	EnvDBName               = "MARKETDESK_DB_NAME"
	EnvDBDSN                = "MARKETDESK_DB_DSN"
	EnvSessionSecret        = "MARKETDESK_SESSION_SECRET"
	EnvSessionEncryptionKey = "MARKETDESK_SESSION_ENCRYPTION_KEY"
	EnvSessionTTL           = "MARKETDESK_SESSION_TTL"
	EnvSessionBackend       = "MARKETDESK_SESSION_BACKEND"
	EnvRedisURL             = "MARKETDESK_REDIS_URL"
	EnvRedisAddr            = "MARKETDESK_REDIS_ADDR"
	EnvCSRFEnabled          = "MARKETDESK_CSRF_ENABLED"
	EnvCSRFKey              = "MARKETDESK_CSRF_KEY"
	EnvBcryptCost           = "MARKETDESK_PASSWORD_BCRYPT_COST"
	EnvLogDir               = "MARKETDESK_LOG_DIR"
)
