package interceptors

import (
	"net/http"
	"strings"

	"entitlement-gate/internal/platform/httputil"
)

const bearerPrefix = "bearer "

// TokenValidator validates an operator bearer token and returns its subject.
type TokenValidator interface {
	Validate(token string) (subject string, err error)
}

// HTTPAuth returns middleware that requires a valid "Authorization: Bearer <token>" header.
// On success the operator subject is put in the request context; otherwise it answers 401.
func HTTPAuth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearer(r.Header.Get("Authorization"))
			if token == "" || validator == nil {
				unauthorized(w)
				return
			}
			subject, err := validator.Validate(token)
			if err != nil {
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithOperator(r.Context(), subject)))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="entitlement-gate"`)
	httputil.WriteErrorMessage(w, http.StatusUnauthorized, "missing or invalid authorization")
}

func extractBearer(header string) string {
	v := strings.TrimSpace(header)
	if len(v) < len(bearerPrefix) || !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
