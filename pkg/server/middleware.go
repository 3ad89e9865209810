package server

import (
	"net/http"
	"os"
	"strings"

	"github.com/getzep/ducks/config"
)

const versionHeader = "X-Ducks-Version"

const envValuePrefix = "env:"

// SendVersion is a middleware that adds the current version to the response
func SendVersion(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if w.Header().Get(versionHeader) == "" {
			w.Header().Set(versionHeader, config.VersionString)
		}
		next.ServeHTTP(w, r)
	})
}

// ApplyCustomHeaders adds the configured headers to every response. Values of
// the form "env:NAME" are resolved from the environment once, when the
// middleware is built. Headers already set on the response are left alone.
func ApplyCustomHeaders(customHeaders map[string]string) func(http.Handler) http.Handler {
	resolved := make(map[string]string, len(customHeaders))
	for key, value := range customHeaders {
		if name, ok := strings.CutPrefix(value, envValuePrefix); ok {
			value = os.Getenv(name)
		}
		resolved[http.CanonicalHeaderKey(key)] = value
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for key, value := range resolved {
				if w.Header().Get(key) == "" {
					w.Header().Set(key, value)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
