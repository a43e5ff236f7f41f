package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"time"

	"myfiance/internal/storage"
)

const CookieName = "myfiance_session"

// Store hands out per-browser sessions backed by a client-state repository.
type Store struct {
	repo   storage.ClientStateRepository
	ttl    time.Duration
	secure bool
}

func NewStore(repo storage.ClientStateRepository, ttl time.Duration, secureCookie bool) *Store {
	return &Store{repo: repo, ttl: ttl, secure: secureCookie}
}

// Bind returns the Session of the browser identified by id.
func (s *Store) Bind(id string) Session {
	return &bound{repo: s.repo, id: id}
}

// FromRequest returns the session id carried by the request cookie, if any.
func (s *Store) FromRequest(r *http.Request) (string, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// Ensure returns the request's session id, issuing a new cookie when missing.
func (s *Store) Ensure(w http.ResponseWriter, r *http.Request) string {
	if id, ok := s.FromRequest(r); ok {
		return id
	}
	id := randomHex(16)
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// Forget drops everything stored for id and expires the cookie.
func (s *Store) Forget(ctx context.Context, w http.ResponseWriter, id string) error {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return s.repo.DeleteSession(ctx, id)
}

// Janitor purges expired client state every interval until ctx is done.
func (s *Store) Janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.repo.PurgeStale(ctx, s.ttl); err != nil {
				slog.WarnContext(ctx, "Client state purge failed", "error", err)
			}
		}
	}
}

type bound struct {
	repo storage.ClientStateRepository
	id   string
}

func (b *bound) Get(ctx context.Context) (string, bool) {
	token, ok, err := b.repo.Get(ctx, b.id, TokenKey)
	if err != nil {
		slog.WarnContext(ctx, "Reading session token failed", "error", err)
		return "", false
	}
	return token, ok && token != ""
}

func (b *bound) Set(ctx context.Context, token string) error {
	return b.repo.Put(ctx, b.id, TokenKey, token)
}

func (b *bound) Clear(ctx context.Context) error {
	return b.repo.Delete(ctx, b.id, TokenKey)
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
