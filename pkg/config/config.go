package config

import (
	"encoding/base64"
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Log           LogConfig
	DB            DBConfig
	Session       SessionConfig
	Redis         RedisConfig
	Password      PasswordConfig
	Uploads       UploadConfig
	AuthRateLimit AuthRateLimitConfig
	CSRF          CSRFConfig
	Bootstrap     BootstrapConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MARKETDESK_APP_ENV" required:"true"`
	Host         string `envconfig:"MARKETDESK_HOST" default:"0.0.0.0"`
	Port         string `envconfig:"MARKETDESK_PORT" default:"8080"`
	Debug        bool   `envconfig:"MARKETDESK_DEBUG" default:"false"`
	LogLevel     string `envconfig:"MARKETDESK_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"MARKETDESK_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"MARKETDESK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// Addr joins host and port into a listen address.
func (a AppConfig) Addr() string {
	return net.JoinHostPort(a.Host, a.Port)
}

// LogConfig controls the rotating log file written next to stdout.
type LogConfig struct {
	Dir        string `envconfig:"MARKETDESK_LOG_DIR" default:"logs"`
	File       string `envconfig:"MARKETDESK_LOG_FILE" default:"app.log"`
	MaxSizeMB  int    `envconfig:"MARKETDESK_LOG_MAX_SIZE_MB" default:"10"`
	MaxBackups int    `envconfig:"MARKETDESK_LOG_MAX_BACKUPS" default:"5"`
	MaxAgeDays int    `envconfig:"MARKETDESK_LOG_MAX_AGE_DAYS" default:"0"`
	Compress   bool   `envconfig:"MARKETDESK_LOG_COMPRESS" default:"false"`
}

// Path returns the log file location, or empty when file logging is disabled.
func (l LogConfig) Path() string {
	if strings.TrimSpace(l.Dir) == "" || strings.TrimSpace(l.File) == "" {
		return ""
	}
	return filepath.Join(l.Dir, l.File)
}

type DBConfig struct {
	Driver      string `envconfig:"MARKETDESK_DB_DRIVER" default:"sqlite"`
	Dir         string `envconfig:"MARKETDESK_DB_DIR" default:"data"`
	Name        string `envconfig:"MARKETDESK_DB_NAME" default:"marketdesk.db"`
	DSN         string `envconfig:"MARKETDESK_DB_DSN"`
	AutoMigrate bool   `envconfig:"MARKETDESK_DB_AUTO_MIGRATE" default:"true"`

	MaxOpenConns    int           `envconfig:"MARKETDESK_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"MARKETDESK_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"MARKETDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MARKETDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver is sqlite.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

// SQLitePath returns the database file location built from dir and name.
func (db DBConfig) SQLitePath() string {
	return filepath.Join(db.Dir, db.Name)
}

type SessionConfig struct {
	Secret        string        `envconfig:"MARKETDESK_SESSION_SECRET" required:"true"`
	EncryptionKey string        `envconfig:"MARKETDESK_SESSION_ENCRYPTION_KEY"`
	CookieName    string        `envconfig:"MARKETDESK_SESSION_COOKIE_NAME" default:"marketdesk_session"`
	CookieSecure  bool          `envconfig:"MARKETDESK_SESSION_COOKIE_SECURE" default:"false"`
	TTL           time.Duration `envconfig:"MARKETDESK_SESSION_TTL" default:"24h"`
	Backend       string        `envconfig:"MARKETDESK_SESSION_BACKEND" default:"memory"`
}

// UsesRedis reports whether sessions live in Redis.
func (s SessionConfig) UsesRedis() bool {
	return strings.EqualFold(strings.TrimSpace(s.Backend), SessionBackendRedis)
}

type RedisConfig struct {
	URL          string        `envconfig:"MARKETDESK_REDIS_URL"`
	Address      string        `envconfig:"MARKETDESK_REDIS_ADDR"`
	Password     string        `envconfig:"MARKETDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"MARKETDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MARKETDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MARKETDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MARKETDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MARKETDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MARKETDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Configured reports whether any Redis endpoint was provided.
func (r RedisConfig) Configured() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type PasswordConfig struct {
	BcryptCost int `envconfig:"MARKETDESK_PASSWORD_BCRYPT_COST" default:"12"`
}

type UploadConfig struct {
	Dir   string `envconfig:"MARKETDESK_UPLOAD_DIR" default:"static/uploads"`
	MaxMB int    `envconfig:"MARKETDESK_UPLOAD_MAX_MB" default:"5"`
}

// MaxBytes returns the upload cap in bytes.
func (u UploadConfig) MaxBytes() int64 {
	if u.MaxMB <= 0 {
		return 5 << 20
	}
	return int64(u.MaxMB) << 20
}

type AuthRateLimitConfig struct {
	LoginWindow      time.Duration `envconfig:"MARKETDESK_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit  int           `envconfig:"MARKETDESK_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit     int           `envconfig:"MARKETDESK_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	SignupWindow     time.Duration `envconfig:"MARKETDESK_AUTH_RATE_LIMIT_SIGNUP_WINDOW" default:"5m"`
	SignupEmailLimit int           `envconfig:"MARKETDESK_AUTH_RATE_LIMIT_SIGNUP_EMAIL_LIMIT" default:"3"`
	SignupIPLimit    int           `envconfig:"MARKETDESK_AUTH_RATE_LIMIT_SIGNUP_IP_LIMIT" default:"20"`
}

type CSRFConfig struct {
	Enabled bool   `envconfig:"MARKETDESK_CSRF_ENABLED" default:"true"`
	Key     string `envconfig:"MARKETDESK_CSRF_KEY"`
}

// KeyBytes decodes the base64 CSRF key.
func (c CSRFConfig) KeyBytes() ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(c.Key))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", EnvCSRFKey, err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("%s must decode to 32 bytes, got %d", EnvCSRFKey, len(key))
	}
	return key, nil
}

// BootstrapConfig describes the admin account created on first run.
type BootstrapConfig struct {
	AdminName     string `envconfig:"MARKETDESK_BOOTSTRAP_ADMIN_NAME" default:"Administrator"`
	AdminEmail    string `envconfig:"MARKETDESK_BOOTSTRAP_ADMIN_EMAIL" default:"admin@marketdesk.local"`
	AdminPassword string `envconfig:"MARKETDESK_BOOTSTRAP_ADMIN_PASSWORD"`
	AdminPhone    string `envconfig:"MARKETDESK_BOOTSTRAP_ADMIN_PHONE"`
}

func (c *Config) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.DB.Driver)) {
	case DBDriverSQLite:
		if strings.TrimSpace(c.DB.Name) == "" {
			return fmt.Errorf("%s is required for sqlite", EnvDBName)
		}
	case DBDriverPostgres:
		if strings.TrimSpace(c.DB.DSN) == "" {
			return fmt.Errorf("%s is required for postgres", EnvDBDSN)
		}
	default:
		return fmt.Errorf("unsupported %s %q", EnvDBDriver, c.DB.Driver)
	}

	if len(c.Session.Secret) < minSessionSecretLen {
		return fmt.Errorf("%s must be at least %d bytes", EnvSessionSecret, minSessionSecretLen)
	}
	if key := c.Session.EncryptionKey; key != "" {
		switch len(key) {
		case 16, 24, 32:
		default:
			return fmt.Errorf("%s must be 16, 24 or 32 bytes", EnvSessionEncryptionKey)
		}
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("%s must be positive", EnvSessionTTL)
	}

	switch strings.ToLower(strings.TrimSpace(c.Session.Backend)) {
	case SessionBackendMemory:
	case SessionBackendRedis:
		if !c.Redis.Configured() {
			return fmt.Errorf("%s or %s is required for redis sessions", EnvRedisURL, EnvRedisAddr)
		}
	default:
		return fmt.Errorf("unsupported %s %q", EnvSessionBackend, c.Session.Backend)
	}

	if c.CSRF.Enabled {
		if _, err := c.CSRF.KeyBytes(); err != nil {
			return err
		}
	}
	return nil
}
