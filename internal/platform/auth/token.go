package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenService issues and checks role-scoped identity tokens.
type TokenService interface {
	Issue(ctx context.Context, id Identity) (string, error)
	// Validate reports whether token is well-formed, unexpired, unrevoked and
	// issued for role. A non-nil error means validation itself failed.
	Validate(ctx context.Context, token string, role Role) (bool, error)
	ExtractIdentity(token string) (Identity, bool)
}

// IdentityChecker confirms that the account behind a token still exists.
type IdentityChecker interface {
	IdentityExists(ctx context.Context, id Identity) (bool, error)
}

type Claims struct {
	jwt.RegisteredClaims
	Role Role `json:"role"`
}

type JWTConfig struct {
	SigningKey []byte
	Issuer     string
	TTL        time.Duration
}

// JWTService is an HS256 TokenService.
type JWTService struct {
	cfg     JWTConfig
	revoked RevocationStore
	checker IdentityChecker
	now     func() time.Time
}

// NewJWTService creates a JWTService. revoked and checker may be nil.
func NewJWTService(cfg JWTConfig, revoked RevocationStore, checker IdentityChecker) *JWTService {
	if cfg.TTL <= 0 {
		cfg.TTL = 7 * time.Hour
	}
	return &JWTService{cfg: cfg, revoked: revoked, checker: checker, now: time.Now}
}

func (s *JWTService) Issue(_ context.Context, id Identity) (string, error) {
	if _, ok := ParseRole(string(id.Role)); !ok || id.ID == "" {
		return "", fmt.Errorf("issue token: invalid identity %q", id.String())
	}
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   id.ID,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TTL)),
		},
		Role: id.Role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.SigningKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *JWTService) parse(tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return s.cfg.SigningKey, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}
	return claims, nil
}

func (s *JWTService) Validate(ctx context.Context, tokenStr string, role Role) (bool, error) {
	claims, err := s.parse(tokenStr)
	if err != nil {
		return false, nil
	}
	if claims.Role != role || claims.Subject == "" {
		return false, nil
	}
	if s.revoked != nil {
		revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return false, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return false, nil
		}
	}
	if s.checker != nil {
		exists, err := s.checker.IdentityExists(ctx, Identity{Role: claims.Role, ID: claims.Subject})
		if err != nil {
			return false, fmt.Errorf("check identity: %w", err)
		}
		return exists, nil
	}
	return true, nil
}

func (s *JWTService) ExtractIdentity(tokenStr string) (Identity, bool) {
	claims, err := s.parse(tokenStr)
	if err != nil {
		return Identity{}, false
	}
	if _, ok := ParseRole(string(claims.Role)); !ok || claims.Subject == "" {
		return Identity{}, false
	}
	return Identity{Role: claims.Role, ID: claims.Subject}, true
}

// Revoke blocks tokenStr until its natural expiry.
func (s *JWTService) Revoke(ctx context.Context, tokenStr string) error {
	if s.revoked == nil {
		return errors.New("token revocation is not configured")
	}
	claims, err := s.parse(tokenStr)
	if err != nil {
		return fmt.Errorf("parse token: %w", err)
	}
	return s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}
