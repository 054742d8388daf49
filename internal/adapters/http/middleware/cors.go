package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"

	"github.com/JxWayne890/dealflow/internal/platform/config"
)

// CORS answers browser preflights for the SPA and decorates actual
// requests with the allow headers. A preflight never reaches the handlers.
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	policy := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   cfg.ExposedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	})

	return func(c *gin.Context) {
		reached := false

		policy.Handler(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			reached = true
			c.Request = r
			c.Next()
		})).ServeHTTP(c.Writer, c.Request)

		if !reached {
			c.Abort()
		}
	}
}
