package identity

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/babulakterfsd/gizmobuy-backend/internal/domain"
	"github.com/babulakterfsd/gizmobuy-backend/pkg/middleware"
)

var (
	errInvalidClaims = errors.New("token claims are malformed")
	errUnknownRole   = errors.New("token carries an unknown role")
)

// tokenClaims mirrors the payload issued by the account subsystem at login.
type tokenClaims struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	IsBlocked bool   `json:"isBlocked"`
	jwt.RegisteredClaims
}

// NewJWTValidator returns a TokenValidator that verifies HS256 tokens signed
// with the shared account-service secret.
func NewJWTValidator(secret string) middleware.TokenValidator {
	key := []byte(secret)

	return func(token string) (*middleware.Claims, error) {
		var claims tokenClaims
		parsed, err := jwt.ParseWithClaims(token, &claims,
			func(t *jwt.Token) (any, error) { return key, nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		)
		if err != nil {
			return nil, fmt.Errorf("parse token: %w", err)
		}
		if !parsed.Valid {
			return nil, jwt.ErrTokenUnverifiable
		}

		if claims.Subject == "" || claims.Email == "" || claims.Role == "" {
			return nil, errInvalidClaims
		}
		if !slices.Contains(domain.ValidRoles(), claims.Role) {
			return nil, fmt.Errorf("%w: %q", errUnknownRole, claims.Role)
		}

		var issuedAt time.Time
		if claims.IssuedAt != nil {
			issuedAt = claims.IssuedAt.Time
		}

		return &middleware.Claims{
			UserID:    claims.Subject,
			Name:      claims.Name,
			Email:     claims.Email,
			Role:      claims.Role,
			IsBlocked: claims.IsBlocked,
			IssuedAt:  issuedAt,
		}, nil
	}
}
