package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/marketdesk/marketdesk/pkg/config"
	"github.com/marketdesk/marketdesk/pkg/enums"
	"github.com/marketdesk/marketdesk/pkg/logger"
	redislib "github.com/redis/go-redis/v9"
)

type mockStore struct {
	mu     sync.Mutex
	data   map[string]string
	getErr error
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string)}
}

func (m *mockStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *mockStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", m.getErr
	}
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockStore) SessionKey(sessionID string) string {
	return fmt.Sprintf("sess:%s", sessionID)
}

func testConfig() config.SessionConfig {
	return config.SessionConfig{
		Secret:     strings.Repeat("s", 32),
		CookieName: "md_test",
		TTL:        time.Hour,
	}
}

func newTestManager(t *testing.T, store Store, buf *bytes.Buffer) *Manager {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})
	manager, err := NewManager(store, testConfig(), logg)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return manager
}

func TestManagerCreateLoadDestroy(t *testing.T) {
	store := newMockStore()
	buf := &bytes.Buffer{}
	manager := newTestManager(t, store, buf)
	ctx := context.Background()

	token, err := manager.Create(ctx, Data{UserID: 7, DisplayName: "Sam", Role: enums.RoleSeller})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(store.data) != 1 {
		t.Fatalf("expected one stored session, got %d", len(store.data))
	}
	for key := range store.data {
		if strings.Contains(token, strings.TrimPrefix(key, "sess:")) {
			t.Fatalf("token should be signed, not the raw id")
		}
	}

	data, err := manager.Load(ctx, token)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if data == nil || data.UserID != 7 || data.Role != enums.RoleSeller || data.DisplayName != "Sam" {
		t.Fatalf("unexpected session data %+v", data)
	}

	if err := manager.Destroy(ctx, token); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if len(store.data) != 0 {
		t.Fatalf("expected store emptied after destroy")
	}
	data, err = manager.Load(ctx, token)
	if err != nil || data != nil {
		t.Fatalf("expected no session after destroy, got %+v err=%v", data, err)
	}

	if !strings.Contains(buf.String(), "session created") || !strings.Contains(buf.String(), "session destroyed") {
		t.Fatalf("expected lifecycle logs, got %s", buf.String())
	}
	if !strings.Contains(buf.String(), `"user_id":7`) {
		t.Fatalf("expected user_id in logs, got %s", buf.String())
	}
}

func TestManagerLoadRejectsInvalidTokens(t *testing.T) {
	manager := newTestManager(t, newMockStore(), &bytes.Buffer{})
	ctx := context.Background()

	token, err := manager.Create(ctx, Data{UserID: 1, Role: enums.RoleAdmin})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for name, candidate := range map[string]string{
		"empty":    "",
		"garbage":  "not-a-token",
		"tampered": token[:len(token)-2] + "xx",
	} {
		data, err := manager.Load(ctx, candidate)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", name, err)
		}
		if data != nil {
			t.Fatalf("%s: expected nil session", name)
		}
	}

	other, err := NewManager(newMockStore(), config.SessionConfig{Secret: strings.Repeat("o", 32), CookieName: "md_test", TTL: time.Hour}, logger.New(logger.Options{Output: &bytes.Buffer{}}))
	if err != nil {
		t.Fatalf("other manager: %v", err)
	}
	if data, _ := other.Load(ctx, token); data != nil {
		t.Fatalf("token signed with another secret must not load")
	}
}

func TestManagerLoadLogsUnverifiableTokensAtDebug(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: buf})
	manager, err := NewManager(newMockStore(), testConfig(), logg)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	ctx := context.Background()

	if data, _ := manager.Load(ctx, ""); data != nil || buf.Len() != 0 {
		t.Fatalf("empty token should be silent, got %s", buf.String())
	}
	if data, _ := manager.Load(ctx, "not-a-token"); data != nil {
		t.Fatalf("expected nil session")
	}
	if !strings.Contains(buf.String(), "ignoring unverifiable session token") {
		t.Fatalf("expected debug entry, got %s", buf.String())
	}

	quiet := &bytes.Buffer{}
	_, _ = newTestManager(t, newMockStore(), quiet).Load(ctx, "not-a-token")
	if quiet.Len() != 0 {
		t.Fatalf("debug entry should be dropped at info level, got %s", quiet.String())
	}
}

func TestManagerLoadSurfacesStoreFailures(t *testing.T) {
	store := newMockStore()
	manager := newTestManager(t, store, &bytes.Buffer{})
	ctx := context.Background()

	token, err := manager.Create(ctx, Data{UserID: 3, Role: enums.RoleCustomer})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	store.getErr = errors.New("connection refused")
	if _, err := manager.Load(ctx, token); err == nil {
		t.Fatal("expected store failure to be returned")
	}
}

func TestManagerCreateRequiresUser(t *testing.T) {
	manager := newTestManager(t, newMockStore(), &bytes.Buffer{})
	if _, err := manager.Create(context.Background(), Data{}); err == nil {
		t.Fatal("expected error for missing user id")
	}
}

func TestManagerDestroyUnknownTokenIsNoop(t *testing.T) {
	manager := newTestManager(t, newMockStore(), &bytes.Buffer{})
	if err := manager.Destroy(context.Background(), "bogus"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestNewManagerValidatesInputs(t *testing.T) {
	logg := logger.New(logger.Options{Output: &bytes.Buffer{}})
	if _, err := NewManager(nil, testConfig(), logg); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := NewManager(newMockStore(), testConfig(), nil); err == nil {
		t.Fatal("expected error for nil logger")
	}
	cfg := testConfig()
	cfg.TTL = 0
	if _, err := NewManager(newMockStore(), cfg, logg); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}

func TestCookieHelpers(t *testing.T) {
	manager := newTestManager(t, NewMemoryStore(), &bytes.Buffer{})

	rec := httptest.NewRecorder()
	manager.SetCookie(rec, "tok")
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != "md_test" || c.Value != "tok" || !c.HttpOnly || c.SameSite != http.SameSiteLaxMode || c.Path != "/" {
		t.Fatalf("unexpected cookie %+v", c)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	if got := manager.TokenFromRequest(req); got != "tok" {
		t.Fatalf("expected token from request, got %q", got)
	}
	if got := manager.TokenFromRequest(httptest.NewRequest(http.MethodGet, "/", nil)); got != "" {
		t.Fatalf("expected empty token, got %q", got)
	}

	rec = httptest.NewRecorder()
	manager.ClearCookie(rec)
	if cleared := rec.Result().Cookies()[0]; cleared.MaxAge >= 0 || cleared.Value != "" {
		t.Fatalf("expected expired cookie, got %+v", cleared)
	}
}

func TestMemoryStoreExpiresLazily(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	if err := store.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, err := store.Get(ctx, "k"); err != nil || v != "v" {
		t.Fatalf("expected value before expiry, got %q err=%v", v, err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession after expiry, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected expired entry removed on read")
	}
}

func TestManagerWithMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	manager := newTestManager(t, store, &bytes.Buffer{})
	ctx := context.Background()

	token, err := manager.Create(ctx, Data{UserID: 9, Role: enums.RoleCustomer})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	data, err := manager.Load(ctx, token)
	if err != nil || data == nil || data.UserID != 9 {
		t.Fatalf("unexpected load result %+v err=%v", data, err)
	}
	if err := manager.Destroy(ctx, token); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected memory store empty after destroy")
	}
}
