package authguard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myfiance/internal/session"
)

func guarded(sess session.Session) (http.Handler, *int) {
	served := 0
	resolve := func(*http.Request) (session.Session, bool) { return sess, sess != nil }
	h := Require(resolve, "/login")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		served++
		w.WriteHeader(http.StatusOK)
	}))
	return h, &served
}

func TestRequire(t *testing.T) {
	t.Run("no session redirects with 303", func(t *testing.T) {
		h, served := guarded(nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
		assert.Zero(t, *served)
	})

	t.Run("session without token redirects htmx requests", func(t *testing.T) {
		h, served := guarded(session.NewMemory(""))
		req := httptest.NewRequest(http.MethodGet, "/ui/transactions/new", nil)
		req.Header.Set("HX-Request", "true")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("HX-Redirect"))
		assert.Empty(t, rec.Body.String())
		assert.Zero(t, *served)
	})

	t.Run("token present serves the page", func(t *testing.T) {
		sess := session.NewMemory("")
		require.NoError(t, sess.Set(context.Background(), "tok123"))
		h, served := guarded(sess)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, *served)
	})
}
