package auth

import (
	"net/http"
	"strings"

	"github.com/quillstack/userd/internal/platform/httpx"
	"github.com/quillstack/userd/internal/shared"
)

// RequireToken guards routes with bearer session-token authentication.
// Requests with a missing, malformed, expired or forged token get a 401.
func RequireToken(issuer *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				httpx.Fail(w, http.StatusUnauthorized, "Invalid or no token supplied")
				return
			}
			claims, err := issuer.Verify(token)
			if err != nil {
				httpx.Fail(w, http.StatusUnauthorized, "Invalid or no token supplied")
				return
			}
			ctx := shared.ContextWithIdentity(r.Context(), &shared.Identity{
				Email:    claims.Email,
				Username: claims.Username,
				Role:     claims.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
