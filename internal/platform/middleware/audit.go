package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// AuditEntry records who changed what through the API.
type AuditEntry struct {
	Identity   string
	Action     string // create, update, delete
	Resource   string
	ResourceID string
	Method     string
	Path       string
	IPAddress  string
	RequestID  string
	StatusCode int
	Timestamp  time.Time
}

// Audit logs every state-changing request under /api/v1 after the handler
// has run. Reads and login calls are not audited.
func Audit(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !isAuditable(req.Method, req.URL.Path) {
				return next(c)
			}

			err := next(c)

			entry := AuditEntry{
				Action:     methodToAction(req.Method),
				Resource:   resourceOf(req.URL.Path),
				ResourceID: c.Param("id"),
				Method:     req.Method,
				Path:       req.URL.Path,
				IPAddress:  c.RealIP(),
				StatusCode: statusOf(c, err),
				Timestamp:  time.Now().UTC(),
			}
			entry.Identity, _ = c.Get("identity").(string)
			entry.RequestID, _ = c.Get("request_id").(string)

			logger.Info().
				Str("type", "audit").
				Str("request_id", entry.RequestID).
				Str("identity", entry.Identity).
				Str("action", entry.Action).
				Str("resource", entry.Resource).
				Str("resource_id", entry.ResourceID).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Time("at", entry.Timestamp).
				Msg("api_mutation")

			return err
		}
	}
}

func isAuditable(method, path string) bool {
	if method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions {
		return false
	}
	if !strings.HasPrefix(path, "/api/v1/") {
		return false
	}
	return !strings.HasSuffix(path, "/login")
}

func methodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return strings.ToLower(method)
	}
}

// resourceOf returns the first path segment after /api/v1/.
func resourceOf(path string) string {
	rest := strings.TrimPrefix(path, "/api/v1/")
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	if rest == "" {
		return "unknown"
	}
	return rest
}
