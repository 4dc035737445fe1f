package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Decision is the outcome of an authorization check.
type Decision int

const (
	DecisionOK Decision = iota
	DecisionUnauthorized
	DecisionError
)

func (d Decision) String() string {
	switch d {
	case DecisionOK:
		return "ok"
	case DecisionUnauthorized:
		return "unauthorized"
	default:
		return "error"
	}
}

// DecisionRecorder observes gate outcomes (metrics).
type DecisionRecorder interface {
	RecordAuthDecision(roles []Role, d Decision)
}

type contextKey string

const (
	identityKey contextKey = "identity"
	tokenKey    contextKey = "token"
)

// Gate checks bearer tokens against the roles an operation accepts.
type Gate struct {
	tokens   TokenService
	logger   zerolog.Logger
	recorder DecisionRecorder
}

// NewGate creates a Gate. recorder may be nil.
func NewGate(tokens TokenService, logger zerolog.Logger, recorder DecisionRecorder) *Gate {
	return &Gate{tokens: tokens, logger: logger, recorder: recorder}
}

// Authorize validates token for each accepted role in turn. A validation
// failure is reported as DecisionError, never as DecisionUnauthorized.
func (g *Gate) Authorize(ctx context.Context, token string, roles ...Role) Decision {
	d := g.authorize(ctx, token, roles)
	if g.recorder != nil {
		g.recorder.RecordAuthDecision(roles, d)
	}
	return d
}

func (g *Gate) authorize(ctx context.Context, token string, roles []Role) Decision {
	if token == "" {
		return DecisionUnauthorized
	}
	for _, role := range roles {
		ok, err := g.tokens.Validate(ctx, token, role)
		if err != nil {
			g.logger.Error().Err(err).Str("role", string(role)).Msg("token validation failed")
			return DecisionError
		}
		if ok {
			return DecisionOK
		}
	}
	return DecisionUnauthorized
}

// Require returns middleware that short-circuits unless the bearer token is
// valid for one of roles. On success the token's Identity is stored in the
// request context.
func (g *Gate) Require(roles ...Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := bearerToken(c.Request())
			if err != nil {
				return err
			}

			ctx := c.Request().Context()
			switch g.Authorize(ctx, token, roles...) {
			case DecisionError:
				return echo.NewHTTPError(http.StatusInternalServerError, "Token validation error")
			case DecisionUnauthorized:
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
			}

			id, ok := g.tokens.ExtractIdentity(token)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
			}

			c.Set("identity", id.String())
			ctx = context.WithValue(ctx, identityKey, id)
			ctx = context.WithValue(ctx, tokenKey, token)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
	}
	return strings.TrimSpace(parts[1]), nil
}

// IdentityFromContext returns the identity stored by Gate.Require.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// TokenFromContext returns the raw bearer token accepted by Gate.Require.
func TokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey).(string)
	return t
}

// WithIdentity returns a copy of ctx carrying id, as Gate.Require would.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}
