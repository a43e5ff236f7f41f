// Package authguard keeps pages that need a signed-in user away from
// browsers with no stored token.
package authguard

import (
	"net/http"

	"myfiance/internal/log"
	"myfiance/internal/session"
)

// Resolver returns the Session of the browser behind r.
type Resolver func(r *http.Request) (session.Session, bool)

// Redirect sends the browser to target. htmx requests get an HX-Redirect
// header so the whole page navigates instead of swapping a fragment.
func Redirect(w http.ResponseWriter, r *http.Request, target string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Require serves next only when the session holds a token; otherwise it
// redirects to loginRoute before anything is rendered. The token itself is
// not validated here.
func Require(resolve Resolver, loginRoute string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sess, ok := resolve(r); ok {
				if _, has := sess.Get(r.Context()); has {
					next.ServeHTTP(w, r)
					return
				}
			}
			log.FromContext(r.Context()).DebugContext(r.Context(), "Unauthenticated request redirected",
				log.FieldPath, r.URL.Path)
			Redirect(w, r, loginRoute)
		})
	}
}
