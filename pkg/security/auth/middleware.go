package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// AdminKeySource defines where to extract admin keys from
type AdminKeySource struct {
	Type   string // header, query
	Name   string // Header name or query param
	Scheme string // "Bearer", etc. (optional)
}

// DefaultSources returns the sources the admin API accepts keys from:
// the Authorization header with a Bearer scheme and the X-Admin-Key
// header.
func DefaultSources() []AdminKeySource {
	return []AdminKeySource{
		{Type: "header", Name: "Authorization", Scheme: "Bearer"},
		{Type: "header", Name: "X-Admin-Key", Scheme: ""},
	}
}

// AdminKeyMiddleware is HTTP middleware for admin key authentication
type AdminKeyMiddleware struct {
	validator *AdminKeyValidator
	sources   []AdminKeySource
}

// NewAdminKeyMiddleware creates a new admin key authentication middleware
func NewAdminKeyMiddleware(validator *AdminKeyValidator, sources []AdminKeySource) *AdminKeyMiddleware {
	if len(sources) == 0 {
		sources = DefaultSources()
	}
	return &AdminKeyMiddleware{
		validator: validator,
		sources:   sources,
	}
}

// Handle wraps an HTTP handler with admin key authentication
func (m *AdminKeyMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		adminKey, err := m.extractAdminKey(r)
		if err != nil {
			slog.Warn("missing admin key",
				"error", err,
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
			)
			http.Error(w, "Missing or invalid admin key", http.StatusUnauthorized)
			return
		}

		keyInfo, err := m.validator.Validate(adminKey)
		if err != nil {
			slog.Warn("invalid admin key",
				"error", err,
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
			)
			http.Error(w, "Invalid admin key", http.StatusUnauthorized)
			return
		}

		slog.Debug("admin key authenticated",
			"user_id", keyInfo.UserID,
			"path", r.URL.Path,
		)

		ctx := context.WithValue(r.Context(), adminKeyInfoKey, keyInfo)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractAdminKey extracts the admin key from the request using configured sources
func (m *AdminKeyMiddleware) extractAdminKey(r *http.Request) (string, error) {
	for _, source := range m.sources {
		switch source.Type {
		case "header":
			value := r.Header.Get(source.Name)
			if value != "" {
				if source.Scheme != "" {
					prefix := source.Scheme + " "
					if strings.HasPrefix(value, prefix) {
						return strings.TrimPrefix(value, prefix), nil
					}
				} else {
					return value, nil
				}
			}

		case "query":
			value := r.URL.Query().Get(source.Name)
			if value != "" {
				return value, nil
			}
		}
	}

	return "", fmt.Errorf("no admin key found")
}

// Context key for admin key info
type contextKey string

// #nosec G101 - This is a context key constant, not a credential
const adminKeyInfoKey contextKey = "admin_key_info"

// GetAdminKeyInfo retrieves admin key info from request context
func GetAdminKeyInfo(ctx context.Context) (*AdminKeyInfo, bool) {
	info, ok := ctx.Value(adminKeyInfoKey).(*AdminKeyInfo)
	return info, ok
}
