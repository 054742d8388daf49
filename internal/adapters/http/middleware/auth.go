package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel/trace"

	"github.com/JxWayne890/dealflow/internal/adapters/http/dto"
	"github.com/JxWayne890/dealflow/internal/platform/config"
	"github.com/JxWayne890/dealflow/internal/platform/logging"
)

const (
	// ContextKeyClaims is the gin context key for storing extracted claims.
	ContextKeyClaims = "claims"

	// Default header names if not configured.
	defaultSubjectHeader = "X-User-ID"
	defaultRolesHeader   = "X-User-Roles"

	bearerPrefix = "Bearer "
)

// ErrMissingToken is returned when supabase mode finds no bearer token.
var ErrMissingToken = errors.New("missing bearer token")

// Claims identifies the calling broker. In headers mode a gateway has
// validated the JWT and passes the claims as headers; in supabase mode they
// come from the verified access token.
type Claims struct {
	// Subject is the user ID (sub claim). It is the owner of the broker's quotes.
	Subject string

	// Email is only known in supabase mode.
	Email string

	// Roles is the list of roles assigned to the user.
	Roles []string
}

// ExtractClaims extracts user claims from request headers.
// Header names are configurable via AuthConfig.
func ExtractClaims(c *gin.Context, cfg *config.AuthConfig) *Claims {
	subjectHeader := defaultSubjectHeader
	rolesHeader := defaultRolesHeader

	if cfg != nil {
		if cfg.SubjectHeader != "" {
			subjectHeader = cfg.SubjectHeader
		}

		if cfg.RolesHeader != "" {
			rolesHeader = cfg.RolesHeader
		}
	}

	claims := &Claims{
		Subject: c.GetHeader(subjectHeader),
	}

	// Parse roles (comma-separated)
	if rolesStr := c.GetHeader(rolesHeader); rolesStr != "" {
		claims.Roles = parseCommaSeparated(rolesStr)
	}

	return claims
}

// GetClaims retrieves claims from the gin context.
// Returns nil if claims are not present.
func GetClaims(c *gin.Context) *Claims {
	if claims, exists := c.Get(ContextKeyClaims); exists {
		if cl, ok := claims.(*Claims); ok {
			return cl
		}
	}

	return nil
}

// supabaseClaims is the payload of a Supabase access token.
type supabaseClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// ParseSupabaseToken verifies an HS256 Supabase access token and returns
// its claims. The token must carry an expiry; the audience is checked when
// cfg.Audience is set.
func ParseSupabaseToken(cfg *config.AuthConfig, token string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	var sc supabaseClaims

	_, err := jwt.ParseWithClaims(token, &sc, func(*jwt.Token) (any, error) {
		return []byte(cfg.JWTSecret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	if sc.Subject == "" {
		return nil, jwt.ErrTokenInvalidSubject
	}

	claims := &Claims{Subject: sc.Subject, Email: sc.Email}
	if sc.Role != "" {
		claims.Roles = []string{sc.Role}
	}

	return claims, nil
}

// bearerToken returns the token of an "Authorization: Bearer" header.
func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", ErrMissingToken
	}

	return strings.TrimSpace(header[len(bearerPrefix):]), nil
}

// OwnerID returns the authenticated broker's ID, or "" when the request
// carries no identity.
func OwnerID(c *gin.Context) string {
	if claims := GetClaims(c); claims != nil {
		return claims.Subject
	}

	return ""
}

// OptionalAuth stores header claims without enforcing them. It is used when
// authentication is disabled so local runs can still name an owner.
func OptionalAuth(cfg *config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyClaims, ExtractClaims(c, cfg))
		c.Next()
	}
}

// RequireAuth returns middleware that requires authentication.
// In supabase mode it verifies the bearer token and answers 401 when it is
// missing or invalid. In headers mode it verifies a subject is present.
func RequireAuth(cfg *config.AuthConfig) gin.HandlerFunc {
	if cfg != nil && cfg.Mode == config.AuthModeSupabase {
		return requireToken(cfg)
	}

	return func(c *gin.Context) {
		claims := ExtractClaims(c, cfg)

		if claims.Subject == "" {
			abortWithForbidden(c, "authentication required")
			return
		}

		// Store claims in context
		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

func requireToken(cfg *config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			abortWithUnauthorized(c, "authentication required")
			return
		}

		claims, err := ParseSupabaseToken(cfg, token)
		if err != nil {
			logging.FromContext(c.Request.Context()).Debug("rejected access token", "error", err.Error())
			abortWithUnauthorized(c, "invalid access token")
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// abortWithUnauthorized aborts with a 401 Unauthorized response.
func abortWithUnauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", `Bearer realm="dealflow"`)
	abortWithCode(c, http.StatusUnauthorized, dto.ErrorCodeUnauthorized, message)
}

// abortWithForbidden aborts with a 403 Forbidden response.
func abortWithForbidden(c *gin.Context, message string) {
	abortWithCode(c, http.StatusForbidden, dto.ErrorCodeForbidden, message)
}

func abortWithCode(c *gin.Context, status int, code, message string) {
	errResp := dto.NewErrorResponse(code, message)

	// Add trace ID if available
	if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().HasTraceID() {
		errResp.TraceID = span.SpanContext().TraceID().String()
	}

	c.AbortWithStatusJSON(status, errResp)
}

// parseCommaSeparated splits a comma-separated string into trimmed values.
func parseCommaSeparated(s string) []string {
	parts := strings.Split(s, ",")

	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
