package middleware

import (
	"net/http"
	"strings"

	"staffing/internal/domain/auth"
)

// Auth attaches the verified bearer identity to the request context.
// Requests without a valid token continue anonymously and are stopped by
// RequirePermission.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
			if !found || !strings.EqualFold(scheme, "bearer") || secret == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := auth.ParseToken(secret, strings.TrimSpace(token))
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := WithUser(r.Context(), auth.UserContext{
				UserID:      claims.UserID,
				RoleName:    claims.RoleName,
				CandidateID: claims.CandidateID,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
