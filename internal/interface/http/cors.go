package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

var (
	corsMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	corsHeaders = []string{"Content-Type", "Authorization"}
)

// corsMiddleware applies the configured origin policy and answers every
// OPTIONS request with 204.
func corsMiddleware(allowed []string) gin.HandlerFunc {
	if len(allowed) == 0 {
		allowed = []string{"*"}
	}
	policy := cors.New(cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: corsMethods,
		AllowedHeaders: corsHeaders,
	})
	return func(c *gin.Context) {
		policy.HandlerFunc(c.Writer, c.Request)
		if c.Request.Method == http.MethodOptions {
			if c.Writer.Header().Get("Access-Control-Allow-Origin") == "" {
				setFunctionCORSHeaders(c.Writer.Header())
			}
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// functionCORS marks the function surface as callable from any origin.
func functionCORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		setFunctionCORSHeaders(c.Writer.Header())
		c.Next()
	}
}

func setFunctionCORSHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}
