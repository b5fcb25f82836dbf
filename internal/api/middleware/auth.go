package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/cloo-solutions/studyrag/internal/api"
	"github.com/cloo-solutions/studyrag/internal/domain"
)

var (
	errMissingAuth = domain.NewDomainError(domain.ErrCodeUnauthorized, "missing authorization header")
	errBadScheme   = domain.NewDomainError(domain.ErrCodeUnauthorized, "invalid authorization format")
)

// TokenAuth guards the API with the daemon's static token, sent as
// "Authorization: Bearer <token>". An empty token leaves the API open.
func TokenAuth(token string) func(http.Handler) http.Handler {
	expected := []byte(token)
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				api.HandleError(w, errMissingAuth)
				return
			}
			scheme, presented, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") {
				api.HandleError(w, errBadScheme)
				return
			}
			if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(presented)), expected) != 1 {
				api.HandleError(w, domain.ErrInvalidToken)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
