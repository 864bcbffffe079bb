package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"

	"github.com/doorline/backend/internal/services"
)

type Role string

const (
	RoleOperator Role = "operator"
	RoleDevice   Role = "device"
	RolePOS      Role = "pos"
	RoleMember   Role = "member"
)

type contextKey string

const (
	subjectKey contextKey = "subject"
	roleKey    contextKey = "role"
)

// Claims is the bearer token payload. Subject is the caller id: a member's
// subject id, a device id or an operator account.
type Claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

var errMissingRole = errors.New("token has no role")

// AuthMiddleware verifies the bearer JWT with the configured HMAC secret and
// stores subject and role on the request context.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			services.SendErrorResponse(w, "Authorization header required", http.StatusUnauthorized, nil)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			services.SendErrorResponse(w, "Invalid authorization header format", http.StatusUnauthorized, nil)
			return
		}

		claims, err := validateToken(parts[1], []byte(viper.GetString("jwt.secret_key")))
		if err != nil {
			services.SendErrorResponse(w, "Invalid token", http.StatusUnauthorized, nil)
			return
		}

		ctx := context.WithValue(r.Context(), subjectKey, claims.Subject)
		ctx = context.WithValue(ctx, roleKey, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects requests whose role is not in roles. It must run after
// AuthMiddleware.
func RequireRole(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := RoleFrom(r.Context())
			if !ok || !slices.Contains(roles, role) {
				services.SendErrorResponse(w, "Forbidden", http.StatusForbidden, nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func SubjectFrom(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(subjectKey).(string)
	return s, ok && s != ""
}

func RoleFrom(ctx context.Context) (Role, bool) {
	r, ok := ctx.Value(roleKey).(Role)
	return r, ok && r != ""
}

// WithIdentity returns ctx carrying subject and role, as AuthMiddleware would.
func WithIdentity(ctx context.Context, subject string, role Role) context.Context {
	ctx = context.WithValue(ctx, subjectKey, subject)
	return context.WithValue(ctx, roleKey, role)
}

func validateToken(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Role == "" {
		return nil, errMissingRole
	}
	return claims, nil
}

// IssueToken signs an HS256 token for subject with role. Used by doorctl and tests.
func IssueToken(secret []byte, subject string, role Role, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = subject
	return jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{Role: role, RegisteredClaims: claims}).SignedString(secret)
}
