// auth package carries the user or role of a request on its context. The engine
// logs it with audited reads.
package auth

import (
	"context"
	"net/http"
	"strings"
)

// UserHeader is the request header the console reads the user or role from
const UserHeader = "X-Ormquery-User"

type contextKey struct {
	name string
}

var userKey = &contextKey{"userOrRole"}

func WithContextUserOrRole(ctx context.Context, userOrRole string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, userKey, userOrRole)
}

// ContextUserOrRole returns the user or role of ctx, empty when there is none
func ContextUserOrRole(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if val, ok := ctx.Value(userKey).(string); ok {
		return val
	}
	return ""
}

// NewHandler puts the user or role of the UserHeader on the request context.
// Requests without the header are rejected when required is set.
func NewHandler(handler http.Handler, required bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := strings.TrimSpace(r.Header.Get(UserHeader))
		if user == "" {
			if required {
				http.Error(w, "missing "+UserHeader+" header", http.StatusUnauthorized)
				return
			}
			handler.ServeHTTP(w, r)
			return
		}
		handler.ServeHTTP(w, r.WithContext(WithContextUserOrRole(r.Context(), user)))
	})
}
