package middleware

import (
	"net/http"

	"github.com/dhbtk/webtarot/internal/api/shared"
	"github.com/dhbtk/webtarot/internal/i18n"
)

// LocaleMiddleware negotiates the response language from the X-Locale header,
// falling back to Accept-Language and then to the default locale. The result
// is carried in the request context; it is never process-wide state.
func LocaleMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale := i18n.Negotiate(r.Header.Get("X-Locale"), r.Header.Get("Accept-Language"))
		ctx := shared.WithLocale(r.Context(), locale)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
