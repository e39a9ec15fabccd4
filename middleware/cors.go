package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// CORSConfig holds the configuration for CORS middleware.
type CORSConfig struct {
	// AllowOrigins lists the origins that may call the service.
	// "*" or an empty list allows every origin.
	AllowOrigins []string

	// AllowHeaders lists the request headers a client may send.
	// Default: Content-Type and X-Request-ID.
	AllowHeaders []string

	// MaxAge is how long in seconds a preflight result may be cached.
	// 0 omits the header.
	MaxAge int
}

// The service only answers GET and POST.
const corsMethods = "GET, POST, OPTIONS"

// corsExpose lets browser clients read the request ID and cache policy.
var corsExpose = strings.Join([]string{RequestIDHeader, "Cache-Control"}, ", ")

// CORS returns an HTTP middleware that answers preflight requests and sets
// CORS headers for allowed origins. A nil cfg allows every origin.
func CORS(cfg *CORSConfig) func(http.Handler) http.Handler {
	if cfg == nil {
		cfg = &CORSConfig{}
	}
	wildcard := len(cfg.AllowOrigins) == 0 || slices.Contains(cfg.AllowOrigins, "*")
	headers := cfg.AllowHeaders
	if len(headers) == 0 {
		headers = []string{"Content-Type", RequestIDHeader}
	}
	allowHeaders := strings.Join(headers, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case wildcard:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && slices.Contains(cfg.AllowOrigins, origin):
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Expose-Headers", corsExpose)

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", corsMethods)
				w.Header().Set("Access-Control-Allow-Headers", allowHeaders)
				if cfg.MaxAge > 0 {
					w.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
