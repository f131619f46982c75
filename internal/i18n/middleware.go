package i18n

import "net/http"

// Middleware injects a localizer into every request context. The request's
// Accept-Language header takes precedence over the configured default.
func Middleware(defaultLang string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithLanguages(r.Context(), r.Header.Get("Accept-Language"), defaultLang)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
