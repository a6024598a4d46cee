package auth

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

type contextKey string

const operatorIDKey contextKey = "operator_id"

// Middleware verifies bearer tokens against the configured OIDC issuer and
// stores the token subject as the operator id on the request context.
func Middleware() func(http.Handler) http.Handler {
	issuer := os.Getenv("OIDC_ISSUER")
	if issuer == "" {
		panic("OIDC_ISSUER env var not set")
	}

	provider, err := oidc.NewProvider(context.Background(), issuer)
	if err != nil {
		panic(fmt.Sprintf("Failed to create OIDC provider: %v", err))
	}

	// SkipClientIDCheck: tokens come from several scanner/booking clients.
	verifier := provider.Verifier(&oidc.Config{
		SkipClientIDCheck: true,
	})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "missing Authorization header", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				http.Error(w, "invalid Authorization header format", http.StatusUnauthorized)
				return
			}
			rawToken := parts[1]

			idToken, err := verifier.Verify(r.Context(), rawToken)
			if err != nil {
				http.Error(w, fmt.Sprintf("invalid token: %v", err), http.StatusUnauthorized)
				return
			}

			var claims struct {
				Sub string `json:"sub"`
			}
			if err := idToken.Claims(&claims); err != nil || claims.Sub == "" {
				http.Error(w, "token missing subject claim", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), operatorIDKey, claims.Sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OperatorIDFromContext returns the authenticated operator id, or empty when
// the request did not pass through Middleware.
func OperatorIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(operatorIDKey).(string)
	return id
}

// RequireScannerRole gates check-in routes on the SCANNER realm role. It runs
// after Middleware, so the token is already verified; this layer only inspects
// claims. Tokens without the role get 403 so gate clients can tell a missing
// permission apart from a bad token.
func RequireScannerRole() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawToken, err := ExtractTokenFromRequest(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			hasRole, err := HasScannerRole(rawToken)
			if err != nil {
				http.Error(w, fmt.Sprintf("invalid token: %v", err), http.StatusUnauthorized)
				return
			}
			if !hasRole {
				http.Error(w, "scanner role required", http.StatusForbidden)
				return
			}

			// Middleware normally sets the operator id from the verified token;
			// fall back to the claim when this runs standalone.
			if OperatorIDFromContext(r.Context()) == "" {
				if sub, err := ExtractOperatorIDFromJWT(rawToken); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), operatorIDKey, sub))
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
