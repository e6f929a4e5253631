package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"account-service/internal/config"
	"account-service/internal/domain/notification"
	"account-service/internal/infrastructure/database/memory"
	"account-service/internal/infrastructure/security"
	"account-service/internal/usecase/auth"
	"account-service/internal/usecase/passwordreset"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const alicePassword = "Secret123!"

type fakeDB struct{ err error }

func (f fakeDB) Health(context.Context) error { return f.err }
func (fakeDB) Name() string                   { return "accounts" }
func (fakeDB) Engine() string                 { return "postgres" }

type outbox struct {
	mu   sync.Mutex
	sent []notification.Message
}

func (o *outbox) Send(_ context.Context, msg notification.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) last(t *testing.T) notification.Message {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	require.NotEmpty(t, o.sent)
	return o.sent[len(o.sent)-1]
}

type testServer struct {
	router *gin.Engine
	mail   *outbox
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Environment: "test"},
		JWT: config.JWTConfig{
			Secret:     "test-secret",
			Issuer:     "account-service",
			AccessTTL:  5 * time.Minute,
			RefreshTTL: 24 * time.Hour,
		},
		RateLimit: config.RateLimitConfig{
			GeneralRPS:   1000,
			GeneralBurst: 1000,
			AuthRPS:      1000,
			AuthBurst:    1000,
		},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT"},
		},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	authService := auth.NewService(store.Users(), store.Sessions(), hasher,
		security.NewJWTIssuer(cfg.JWT), nil, auth.Options{})

	mail := &outbox{}
	resetService := passwordreset.NewService(store.Users(), store.ResetTokens(), store.Sessions(),
		authService, hasher, mail, nil, passwordreset.Options{FrontendURL: "https://app.example.com"})

	router := SetupRoutes(cfg, Dependencies{
		Auth:          authService,
		PasswordReset: resetService,
		DB:            fakeDB{},
	})
	return &testServer{router: router, mail: mail}
}

func (s *testServer) do(t *testing.T, method, path, bearer string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

func TestAccountLifecycle(t *testing.T) {
	s := newTestServer(t, testConfig())

	w, body := s.do(t, http.MethodPost, "/api/auth/register/email/", "", gin.H{
		"email":    "alice@example.com",
		"password": alicePassword,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, body["access_token"])
	assert.NotEmpty(t, body["refresh_token"])
	assert.Equal(t, "alice@example.com", body["user"].(map[string]interface{})["email"])

	w, body = s.do(t, http.MethodPost, "/api/auth/register/email/", "", gin.H{
		"email":    "alice@example.com",
		"password": alicePassword,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []interface{}{"A user with this email already exists."}, body["email"])

	w, body = s.do(t, http.MethodPost, "/api/auth/login/", "", gin.H{
		"email":    "alice@example.com",
		"password": alicePassword,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	access := body["access"].(string)
	refresh := body["refresh"].(string)

	w, body = s.do(t, http.MethodPost, "/api/auth/change-password/", access, gin.H{
		"old_password":     "not-it",
		"new_password":     "N3w!Password",
		"confirm_password": "N3w!Password",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body, "old_password")

	w, body = s.do(t, http.MethodGet, "/api/auth/profile/", access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice@example.com", body["email"])

	w, body = s.do(t, http.MethodGet, "/api/auth/sessions/", access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["sessions"], 2)

	w, _ = s.do(t, http.MethodPost, "/api/auth/token/refresh/", "", gin.H{"refresh": refresh})
	require.Equal(t, http.StatusOK, w.Code)

	w, body = s.do(t, http.MethodPost, "/api/auth/logout-all/", access, nil)
	require.Equal(t, http.StatusResetContent, w.Code)
	assert.Equal(t, "Successfully logged out of all devices", body["message"])

	w, _ = s.do(t, http.MethodPost, "/api/auth/token/refresh/", "", gin.H{"refresh": refresh})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogout(t *testing.T) {
	s := newTestServer(t, testConfig())

	_, body := s.do(t, http.MethodPost, "/api/auth/register/username/", "", gin.H{
		"username": "bob",
		"email":    "bob@example.com",
		"password": alicePassword,
	})
	access := body["access_token"].(string)
	refresh := body["refresh_token"].(string)

	w, body := s.do(t, http.MethodPost, "/api/auth/logout/", access, gin.H{"refresh_token": refresh})
	require.Equal(t, http.StatusResetContent, w.Code)
	assert.Equal(t, "User logout", body["message"])

	w, _ = s.do(t, http.MethodPost, "/api/auth/token/verify/", "", gin.H{"token": refresh})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/auth/token/verify/", "", gin.H{"token": access})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPasswordResetFlow(t *testing.T) {
	s := newTestServer(t, testConfig())

	w, _ := s.do(t, http.MethodPost, "/api/auth/register/email/", "", gin.H{
		"email":    "alice@example.com",
		"password": alicePassword,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w, body := s.do(t, http.MethodPost, "/api/auth/reset-password-request/", "", gin.H{"email": "nobody@example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	unknown := body["message"]

	w, body = s.do(t, http.MethodPost, "/api/auth/reset-password-request/", "", gin.H{"email": "alice@example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, unknown, body["message"])

	msg := s.mail.last(t)
	idx := strings.Index(msg.Body, "/reset-password/")
	require.GreaterOrEqual(t, idx, 0)
	raw := strings.TrimSpace(msg.Body[idx+len("/reset-password/"):])

	confirm := gin.H{"token": raw, "new_password": "N3w!Password", "confirm_password": "N3w!Password"}
	w, body = s.do(t, http.MethodPost, "/api/auth/reset-password-confirm/", "", confirm)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, body["access_token"])

	w, body = s.do(t, http.MethodPost, "/api/auth/reset-password-confirm/", "", confirm)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body, "token")

	w, _ = s.do(t, http.MethodPost, "/api/auth/login/", "", gin.H{"email": "alice@example.com", "password": "N3w!Password"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, testConfig())

	w, body := s.do(t, http.MethodGet, "/api/auth/profile/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Authorization header required", body["error"])

	w, _ = s.do(t, http.MethodPost, "/api/auth/logout-all/", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCredentialEndpointsAreRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.AuthRPS = 0.001
	cfg.RateLimit.AuthBurst = 2
	s := newTestServer(t, cfg)

	creds := gin.H{"email": "nobody@example.com", "password": "whatever"}
	for i := 0; i < 2; i++ {
		w, _ := s.do(t, http.MethodPost, "/api/auth/login/", "", creds)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}

	w, _ := s.do(t, http.MethodPost, "/api/auth/login/", "", creds)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w, _ = s.do(t, http.MethodGet, "/health-check/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBadJSON(t *testing.T) {
	s := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login/", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid request body")
}
