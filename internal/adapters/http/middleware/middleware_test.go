package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JxWayne890/dealflow/internal/adapters/http/dto"
	"github.com/JxWayne890/dealflow/internal/platform/config"
)

const testJWTSecret = "super-secret-jwt-token-with-at-least-32-characters"

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	return resp
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		replaced bool
	}{
		{name: "generated when absent", replaced: true},
		{name: "propagated when present", header: "req-123"},
		{name: "replaced when it contains spaces", header: "req 123\tinjected=1", replaced: true},
		{name: "replaced when too long", header: strings.Repeat("a", maxInboundIDLength+1), replaced: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fromGin, fromCtx string

			router := gin.New()
			router.Use(RequestID())
			router.GET("/quotes", func(c *gin.Context) {
				fromGin = GetRequestID(c)
				fromCtx = RequestIDFromContext(c.Request.Context())
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/quotes", nil)
			if tt.header != "" {
				req.Header.Set(HeaderRequestID, tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.NotEmpty(t, fromGin)
			assert.Equal(t, fromGin, fromCtx)
			assert.Equal(t, fromGin, w.Header().Get(HeaderRequestID))
			if tt.replaced {
				assert.Len(t, fromGin, 36)
			} else {
				assert.Equal(t, tt.header, fromGin)
			}
		})
	}
}

func TestCorrelationID_ReachesContext(t *testing.T) {
	var fromGin, fromCtx string

	router := gin.New()
	router.Use(CorrelationID())
	router.GET("/quotes", func(c *gin.Context) {
		fromGin = GetCorrelationID(c)
		fromCtx = CorrelationIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/quotes", nil)
	req.Header.Set(HeaderCorrelationID, "corr-9")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "corr-9", fromGin)
	assert.Equal(t, "corr-9", fromCtx)
	assert.Equal(t, "corr-9", w.Header().Get(HeaderCorrelationID))
}

func TestExtractClaims_CustomHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("X-Broker", "owner-1")
	c.Request.Header.Set("X-Broker-Roles", "broker, admin ,")

	claims := ExtractClaims(c, &config.AuthConfig{SubjectHeader: "X-Broker", RolesHeader: "X-Broker-Roles"})

	assert.Equal(t, "owner-1", claims.Subject)
	assert.Equal(t, []string{"broker", "admin"}, claims.Roles)
}

func newAuthRouter(mw gin.HandlerFunc, owner *string) *gin.Engine {
	router := gin.New()
	router.Use(mw)
	router.GET("/api/v1/quotes", func(c *gin.Context) {
		*owner = OwnerID(c)
		c.Status(http.StatusOK)
	})

	return router
}

func TestRequireAuth_HeadersMode(t *testing.T) {
	cfg := &config.AuthConfig{Enabled: true, Mode: config.AuthModeHeaders}

	t.Run("subject present", func(t *testing.T) {
		var owner string
		router := newAuthRouter(RequireAuth(cfg), &owner)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil)
		req.Header.Set(defaultSubjectHeader, "owner-1")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "owner-1", owner)
	})

	t.Run("subject missing", func(t *testing.T) {
		var owner string
		router := newAuthRouter(RequireAuth(cfg), &owner)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil))

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, dto.ErrorCodeForbidden, decodeError(t, w).Error.Code)
		assert.Empty(t, owner)
	})
}

func signToken(t *testing.T, method jwt.SigningMethod, secret string, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	return token
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   "7f1c2a9e-0000-4000-8000-000000000001",
		"aud":   "authenticated",
		"role":  "authenticated",
		"email": "broker@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
}

func TestRequireAuth_SupabaseMode(t *testing.T) {
	cfg := &config.AuthConfig{
		Enabled:   true,
		Mode:      config.AuthModeSupabase,
		JWTSecret: testJWTSecret,
		Audience:  "authenticated",
	}

	t.Run("valid token", func(t *testing.T) {
		var owner string
		var claims *Claims

		router := gin.New()
		router.Use(RequireAuth(cfg))
		router.GET("/api/v1/quotes", func(c *gin.Context) {
			owner = OwnerID(c)
			claims = GetClaims(c)
			c.Status(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, jwt.SigningMethodHS256, testJWTSecret, validClaims()))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "7f1c2a9e-0000-4000-8000-000000000001", owner)
		require.NotNil(t, claims)
		assert.Equal(t, "broker@example.com", claims.Email)
		assert.Equal(t, []string{"authenticated"}, claims.Roles)
	})

	withClaim := func(key string, value any) jwt.MapClaims {
		c := validClaims()
		if value == nil {
			delete(c, key)
		} else {
			c[key] = value
		}
		return c
	}

	tests := []struct {
		name   string
		header func(t *testing.T) string
	}{
		{
			name:   "no header",
			header: func(*testing.T) string { return "" },
		},
		{
			name:   "not a bearer token",
			header: func(*testing.T) string { return "Basic dXNlcjpwYXNz" },
		},
		{
			name: "wrong secret",
			header: func(t *testing.T) string {
				return "Bearer " + signToken(t, jwt.SigningMethodHS256, "another-secret", validClaims())
			},
		},
		{
			name: "expired",
			header: func(t *testing.T) string {
				return "Bearer " + signToken(t, jwt.SigningMethodHS256, testJWTSecret, withClaim("exp", time.Now().Add(-time.Minute).Unix()))
			},
		},
		{
			name: "no expiry",
			header: func(t *testing.T) string {
				return "Bearer " + signToken(t, jwt.SigningMethodHS256, testJWTSecret, withClaim("exp", nil))
			},
		},
		{
			name: "wrong audience",
			header: func(t *testing.T) string {
				return "Bearer " + signToken(t, jwt.SigningMethodHS256, testJWTSecret, withClaim("aud", "anon"))
			},
		},
		{
			name: "no subject",
			header: func(t *testing.T) string {
				return "Bearer " + signToken(t, jwt.SigningMethodHS256, testJWTSecret, withClaim("sub", nil))
			},
		},
		{
			name: "other hmac algorithm",
			header: func(t *testing.T) string {
				return "Bearer " + signToken(t, jwt.SigningMethodHS512, testJWTSecret, validClaims())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var owner string
			router := newAuthRouter(RequireAuth(cfg), &owner)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil)
			if h := tt.header(t); h != "" {
				req.Header.Set("Authorization", h)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, dto.ErrorCodeUnauthorized, decodeError(t, w).Error.Code)
			assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))
			assert.Empty(t, owner)
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	var owner string
	router := newAuthRouter(OptionalAuth(nil), &owner)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, owner)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil)
	req.Header.Set(defaultSubjectHeader, "owner-2")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "owner-2", owner)
}

func newCORSRouter(reached *bool) *gin.Engine {
	router := gin.New()
	router.Use(CORS(config.CORSConfig{
		AllowedOrigins: []string{"https://app.theofferhero.com"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{HeaderRequestID},
		MaxAge:         300,
	}))
	router.POST("/api/v1/email", func(c *gin.Context) {
		*reached = true
		c.Status(http.StatusOK)
	})

	return router
}

func TestCORS_Preflight(t *testing.T) {
	tests := []struct {
		name       string
		origin     string
		wantOrigin string
	}{
		{name: "allowed origin", origin: "https://app.theofferhero.com", wantOrigin: "https://app.theofferhero.com"},
		{name: "unknown origin", origin: "https://evil.example.com", wantOrigin: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var reached bool
			router := newCORSRouter(&reached)

			req := httptest.NewRequest(http.MethodOptions, "/api/v1/email", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			req.Header.Set("Access-Control-Request-Headers", "Content-Type")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.False(t, reached)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestCORS_ActualRequest(t *testing.T) {
	var reached bool
	router := newCORSRouter(&reached)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/email", nil)
	req.Header.Set("Origin", "https://app.theofferhero.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.True(t, reached)
	assert.Equal(t, "https://app.theofferhero.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 2})

	router := gin.New()
	router.Use(OptionalAuth(nil), limiter.Middleware())
	router.POST("/api/v1/email", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(owner string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/email", nil)
		req.Header.Set(defaultSubjectHeader, owner)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send("owner-1").Code)
	assert.Equal(t, http.StatusOK, send("owner-1").Code)

	w := send("owner-1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, dto.ErrorCodeRateLimited, decodeError(t, w).Error.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, send("owner-2").Code, "buckets are per owner")
}

func TestRecovery(t *testing.T) {
	router := gin.New()
	router.Use(Recovery(discardLogger()))
	router.GET("/panic", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, dto.ErrorCodeInternal, resp.Error.Code)
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	router := gin.New()
	router.Use(Logging(logger))
	router.Use(OptionalAuth(&config.AuthConfig{}))
	router.GET("/api/v1/quotes/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })
	router.GET("/-/live", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes/q-42?cursor=secret", nil)
	req.Header.Set("X-User-ID", "owner-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTeapot, w.Code)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "/api/v1/quotes/:id", line["route"])
	assert.Equal(t, "owner-1", line["owner_id"])
	assert.EqualValues(t, http.StatusTeapot, line["status"])
	assert.NotContains(t, buf.String(), "q-42")
	assert.NotContains(t, buf.String(), "secret")

	buf.Reset()
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/-/live", nil))
	assert.Empty(t, buf.String(), "probes are not logged")
}

func TestDeadline_SetsDeadline(t *testing.T) {
	var remaining time.Duration

	router := gin.New()
	router.Use(Deadline(5 * time.Second))
	router.GET("/", func(c *gin.Context) {
		deadline, ok := c.Request.Context().Deadline()
		require.True(t, ok)
		remaining = time.Until(deadline)
		c.Status(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Greater(t, remaining, 4*time.Second)
	assert.LessOrEqual(t, remaining, 5*time.Second)
}

func TestDeadline_ExpiredWithoutResponse(t *testing.T) {
	router := gin.New()
	router.Use(Deadline(10 * time.Millisecond))
	router.GET("/", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Contains(t, w.Body.String(), "TIMEOUT")
}

func TestDeadline_Disabled(t *testing.T) {
	router := gin.New()
	router.Use(Deadline(0))
	router.GET("/", func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		assert.False(t, ok)
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestParseCommaSeparated(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, parseCommaSeparated(" a ,, b "))
	assert.Empty(t, parseCommaSeparated(" , "))
}
