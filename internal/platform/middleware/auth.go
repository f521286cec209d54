package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"libris/internal/policy"
	"libris/pkg/requestcontext"
)

// JWTClaims are the claims the middleware needs from a validated token.
// The concrete token format lives in the jwtauth package; keeping a local
// struct here avoids a transport dependency on the token library.
type JWTClaims struct {
	MemberID uuid.UUID
	Username string
	Admin    bool
}

// JWTValidator validates a bearer token and returns its claims.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":{"code":"unauthorized","message":"` + message + `"}}`))
}

func writeForbidden(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"error":{"code":"forbidden","message":"admin role required"}}`))
}

// Authenticate resolves a bearer token, if present, into the member identity
// on the context. Requests without a token pass through anonymous; the role
// gate decides whether that is enough for the operation.
func Authenticate(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(r.Context(), "invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(r.Context()),
				)
				writeUnauthorized(w, "invalid or expired token")
				return
			}

			ctx := requestcontext.WithMember(r.Context(), claims.MemberID, claims.Username, claims.Admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates an operation on the authorization policy table. The check
// runs before the handler; unknown operations fail closed to admin.
func RequireRole(op policy.Operation, logger *slog.Logger) func(http.Handler) http.Handler {
	required := policy.RequiredRole(op)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			switch required {
			case policy.RolePublic:
			case policy.RoleMember:
				if requestcontext.MemberID(ctx) == uuid.Nil {
					writeUnauthorized(w, "authentication required")
					return
				}
			case policy.RoleAdmin:
				if requestcontext.MemberID(ctx) == uuid.Nil {
					writeUnauthorized(w, "authentication required")
					return
				}
				if !requestcontext.IsAdmin(ctx) {
					logger.WarnContext(ctx, "forbidden",
						"operation", string(op),
						"member_id", requestcontext.MemberID(ctx),
						"request_id", requestcontext.RequestID(ctx),
					)
					writeForbidden(w)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
