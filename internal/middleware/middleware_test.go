package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"account-service/internal/config"
	"account-service/internal/domain/token"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubVerifier struct {
	claims *token.Claims
	err    error
}

func (s stubVerifier) VerifyAccess(string) (*token.Claims, error) {
	return s.claims, s.err
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	userID := uuid.New()

	newRouter := func(v AccessVerifier) *gin.Engine {
		r := gin.New()
		r.GET("/me", AuthMiddleware(v), func(c *gin.Context) {
			id, ok := GetUserID(c)
			require.True(t, ok)
			c.String(http.StatusOK, id.String())
		})
		return r
	}

	tests := []struct {
		name     string
		header   string
		verifier AccessVerifier
		status   int
		body     string
	}{
		{"missing header", "", stubVerifier{}, http.StatusUnauthorized, "Authorization header required"},
		{"wrong scheme", "Basic abc", stubVerifier{}, http.StatusUnauthorized, "Invalid authorization header format"},
		{"invalid token", "Bearer abc", stubVerifier{err: token.ErrTokenInvalid}, http.StatusUnauthorized, "Invalid or expired token"},
		{"refresh token", "Bearer abc", stubVerifier{err: token.ErrTokenWrongType}, http.StatusUnauthorized, "Token has wrong type"},
		{"valid", "Bearer abc", stubVerifier{claims: &token.Claims{UserID: userID}}, http.StatusOK, userID.String()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := serve(newRouter(tt.verifier), req)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		codes = append(codes, serve(r, req).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	assert.Equal(t, http.StatusOK, serve(r, req).Code)

	assert.Equal(t, 0, rl.Prune(time.Now()))
	assert.Equal(t, 2, rl.Prune(time.Now().Add(time.Hour)))
}

func TestRequestIDAndSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware(), SecurityHeadersMiddleware(), LoggingMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Equal(t, w.Header().Get(RequestIDHeader), w.Body.String())
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "given-id")
	assert.Equal(t, "given-id", serve(r, req).Body.String())

	for _, bad := range []string{"id with spaces", "id\r\nX-Injected: 1", strings.Repeat("a", 65)} {
		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header[RequestIDHeader] = []string{bad}
		got := serve(r, req).Body.String()
		assert.NotEqual(t, bad, got)
		_, err := uuid.Parse(got)
		assert.NoError(t, err)
	}
}

func TestRequestSizeLimit(t *testing.T) {
	r := gin.New()
	r.Use(RequestSizeLimitMiddleware(8))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"too long"}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware(&config.CORSConfig{
		AllowedOrigins: []string{"https://app.example.com"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         time.Hour,
	}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := serve(r, req)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	assert.Equal(t, http.StatusForbidden, serve(r, req).Code)
}
