package server

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"digitronix/internal/auth"
	"digitronix/internal/config"
	"digitronix/internal/storage"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeDatabase struct {
	db     *sql.DB
	status string
}

func (f *fakeDatabase) DB() *sql.DB { return f.db }

func (f *fakeDatabase) Health(ctx context.Context) map[string]string {
	return map[string]string{"status": f.status}
}

func (f *fakeDatabase) Close() error { return f.db.Close() }

type testServer struct {
	*Server
	db    *fakeDatabase
	blobs *storage.BlobStore
	cfg   *config.Config
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	blobs, err := storage.NewBlobStore(afero.NewMemMapFs(), "public/uploads", "http://localhost:3000")
	require.NoError(t, err)

	cfg := &config.Config{
		Server: config.ServerConfig{Port: "0", Env: "test", RequestTimeout: 5 * time.Second},
		Redis:  config.RedisConfig{AuthRequestsPerWindow: 2, AuthWindow: time.Minute},
		JWT:    config.JWTConfig{Secret: "server-test-secret", Expiry: 48 * time.Hour},
		Cookie: config.CookieConfig{Name: "token", Secure: true},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"https://shop.example"}},
	}

	fake := &fakeDatabase{db: db, status: "up"}
	return &testServer{
		Server: NewServer(cfg, zap.NewNop(), fake, redisClient, blobs),
		db:     fake,
		blobs:  blobs,
		cfg:    cfg,
	}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"up"}`, w.Body.String())

	s.db.status = "down"
	w = s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestProtectedRoutesNeedSession(t *testing.T) {
	s := newTestServer(t)

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/orders", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tokens := auth.NewTokenManager(s.cfg.JWT.Secret, s.cfg.JWT.Expiry)
	customer, err := tokens.Issue(auth.Identity{UserID: uuid.New()})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader("name=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "token", Value: customer})
	w = s.do(req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/orders", nil)
	req.Header.Set("Origin", "https://shop.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := s.do(req)

	assert.Equal(t, "https://shop.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodOptions, "/api/orders", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = s.do(req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestUploadsAreServed(t *testing.T) {
	s := newTestServer(t)

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	url, err := s.blobs.SaveImage(context.Background(), "logo.png", bytes.NewReader(png))
	require.NoError(t, err)

	path := strings.TrimPrefix(url, "http://localhost:3000")
	w := s.do(httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, png, w.Body.Bytes())

	w = s.do(httptest.NewRequest(http.MethodGet, "/public/uploads/missing.png", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	s := newTestServer(t)

	var codes []int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/users/register", strings.NewReader("{broken"))
		req.RemoteAddr = "203.0.113.7:4000"
		codes = append(codes, s.do(req).Code)
	}
	assert.Equal(t, []int{http.StatusBadRequest, http.StatusBadRequest, http.StatusTooManyRequests}, codes)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	s.do(httptest.NewRequest(http.MethodGet, "/health", nil))

	w := s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `digitronix_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)

	w := s.do(httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code, "the gate answers before routing")

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/products/get/unknown/deep", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}
