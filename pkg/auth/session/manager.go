package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/marketdesk/marketdesk/pkg/config"
	"github.com/marketdesk/marketdesk/pkg/enums"
	"github.com/marketdesk/marketdesk/pkg/logger"
	redislib "github.com/redis/go-redis/v9"
)

const sessionIDBytes = 32

// ErrNoSession is returned by stores when the key is absent or expired.
var ErrNoSession = errors.New("session not found")

// Data is the server-side record behind a session cookie.
type Data struct {
	UserID      uint       `json:"user_id"`
	DisplayName string     `json:"display_name"`
	Role        enums.Role `json:"role"`
}

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	SessionKey(sessionID string) string
}

// Store is the backing storage a Manager needs; pkg/redis.Client and
// MemoryStore both satisfy it.
type Store interface {
	sessionStore
	sessionKeyer
}

// Manager issues, resolves and revokes server-side sessions.
type Manager struct {
	store  sessionStore
	keyer  sessionKeyer
	codec  *securecookie.SecureCookie
	ttl    time.Duration
	cookie cookieSettings
	logger *logger.Logger
}

// NewManager constructs a session manager over the provided store.
func NewManager(store Store, cfg config.SessionConfig, logg *logger.Logger) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("session secret is required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}

	var blockKey []byte
	if cfg.EncryptionKey != "" {
		blockKey = []byte(cfg.EncryptionKey)
	}
	codec := securecookie.New([]byte(cfg.Secret), blockKey)
	codec.MaxAge(int(cfg.TTL / time.Second))

	name := strings.TrimSpace(cfg.CookieName)
	if name == "" {
		name = defaultCookieName
	}

	return &Manager{
		store:  store,
		keyer:  store,
		codec:  codec,
		ttl:    cfg.TTL,
		cookie: cookieSettings{name: name, secure: cfg.CookieSecure},
		logger: logg,
	}, nil
}

// Create stores data under a fresh random id and returns the signed token
// the client should hold.
func (m *Manager) Create(ctx context.Context, data Data) (string, error) {
	if data.UserID == 0 {
		return "", fmt.Errorf("user id is required")
	}
	id, err := generateSessionID()
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}
	if err := m.store.Set(ctx, m.keyer.SessionKey(id), string(payload), m.ttl); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	token, err := m.codec.Encode(m.cookie.name, id)
	if err != nil {
		_ = m.store.Del(ctx, m.keyer.SessionKey(id))
		return "", fmt.Errorf("sign session: %w", err)
	}

	logCtx := m.logger.WithUserID(ctx, data.UserID)
	logCtx = m.logger.WithActorRole(logCtx, data.Role.String())
	m.logger.Info(logCtx, "session created")
	return token, nil
}

// Load resolves a token. Empty, tampered, expired or unknown tokens yield
// (nil, nil); only store failures are returned as errors.
func (m *Manager) Load(ctx context.Context, token string) (*Data, error) {
	id, ok := m.decode(token)
	if !ok {
		if strings.TrimSpace(token) != "" {
			m.logger.Debug(ctx, "ignoring unverifiable session token")
		}
		return nil, nil
	}

	raw, err := m.store.Get(ctx, m.keyer.SessionKey(id))
	if err != nil {
		if isMiss(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	var data Data
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		m.logger.Warn(m.logger.WithField(ctx, "reason", err.Error()), "discarding unreadable session")
		return nil, nil
	}
	if data.UserID == 0 {
		return nil, nil
	}
	return &data, nil
}

// Destroy revokes the session behind token. Unknown tokens are a no-op.
func (m *Manager) Destroy(ctx context.Context, token string) error {
	id, ok := m.decode(token)
	if !ok {
		return nil
	}
	key := m.keyer.SessionKey(id)

	logCtx := ctx
	if raw, err := m.store.Get(ctx, key); err == nil {
		var data Data
		if json.Unmarshal([]byte(raw), &data) == nil {
			logCtx = m.logger.WithUserID(ctx, data.UserID)
		}
	} else if isMiss(err) {
		return nil
	}

	if err := m.store.Del(ctx, key); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	m.logger.Info(logCtx, "session destroyed")
	return nil
}

func (m *Manager) decode(token string) (string, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	var id string
	if err := m.codec.Decode(m.cookie.name, token, &id); err != nil {
		return "", false
	}
	if id == "" {
		return "", false
	}
	return id, true
}

func generateSessionID() (string, error) {
	buf := make([]byte, sessionIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func isMiss(err error) bool {
	return errors.Is(err, ErrNoSession) || errors.Is(err, redislib.Nil)
}
