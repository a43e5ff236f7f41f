// Package apitest provides an in-memory finance API for tests.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"myfiance/internal/core"
)

const (
	DemoEmail    = "demo@example.com"
	DemoPassword = "demopassword"
	DemoToken    = "tok123"
)

type override struct {
	status int
	body   string
}

// Server mimics the finance REST API. Its zero value is not usable; call
// NewServer.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	users      map[string]string
	tokens     map[string]string
	categories []core.Category
	txs        map[int64]core.Transaction
	nextID     int64
	calls      map[string]int
	overrides  map[string]override
	lastAuth   map[string]string
}

func NewServer() *Server {
	s := &Server{
		users:  map[string]string{DemoEmail: DemoPassword},
		tokens: map[string]string{DemoToken: DemoEmail},
		categories: []core.Category{
			{ID: 1, Name: "Salary"},
			{ID: 2, Name: "Groceries"},
			{ID: 3, Name: "Rent"},
		},
		txs:       map[int64]core.Transaction{},
		nextID:    1,
		calls:     map[string]int{},
		overrides: map[string]override{},
		lastAuth:  map[string]string{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /users/register", s.register)
	mux.HandleFunc("POST /users/token", s.login)
	mux.HandleFunc("GET /categories/", s.listCategories)
	mux.HandleFunc("GET /transactions/", s.authed(s.listTransactions))
	mux.HandleFunc("POST /transactions/", s.authed(s.createTransaction))
	mux.HandleFunc("PUT /transactions/{id}", s.authed(s.updateTransaction))
	mux.HandleFunc("DELETE /transactions/{id}", s.authed(s.deleteTransaction))

	s.Server = httptest.NewServer(s.record(mux))
	return s
}

func key(method, path string) string { return method + " " + path }

// Calls returns how many requests hit method path.
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[key(method, path)]
}

// Authorization returns the Authorization header of the last method path request.
func (s *Server) Authorization(method, path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAuth[key(method, path)]
}

// Respond makes every following method path request answer status with body.
func (s *Server) Respond(method, path string, status int, body string) {
	s.mu.Lock()
	s.overrides[key(method, path)] = override{status: status, body: body}
	s.mu.Unlock()
}

// Reset removes a Respond override.
func (s *Server) Reset(method, path string) {
	s.mu.Lock()
	delete(s.overrides, key(method, path))
	s.mu.Unlock()
}

// RevokeAll invalidates every issued token.
func (s *Server) RevokeAll() {
	s.mu.Lock()
	s.tokens = map[string]string{}
	s.mu.Unlock()
}

// Seed stores a transaction as if it had been created through the API.
func (s *Server) Seed(tx core.Transaction) core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx.ID == 0 {
		tx.ID = s.nextID
	}
	if tx.ID >= s.nextID {
		s.nextID = tx.ID + 1
	}
	s.txs[tx.ID] = tx
	return tx
}

// Transactions returns the stored transactions ordered by date then id, newest first.
func (s *Server) Transactions() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked()
}

func (s *Server) sortedLocked() []core.Transaction {
	out := make([]core.Transaction, 0, len(s.txs))
	for _, tx := range s.txs {
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		k := key(r.Method, r.URL.Path)
		s.mu.Lock()
		s.calls[k]++
		s.lastAuth[k] = r.Header.Get("Authorization")
		o, overridden := s.overrides[k]
		s.mu.Unlock()

		if overridden {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(o.status)
			_, _ = w.Write([]byte(o.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		_, ok := s.tokens[token]
		s.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var creds core.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.Email == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]string{{"msg": "field required"}},
		})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[creds.Email]; exists {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Email already registered"})
		return
	}
	s.users[creds.Email] = creds.Password
	writeJSON(w, http.StatusCreated, core.User{
		ID:        int64(len(s.users)),
		Email:     creds.Email,
		Username:  strings.Split(creds.Email, "@")[0],
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "bad form"})
		return
	}
	email, password := r.PostForm.Get("username"), r.PostForm.Get("password")
	s.mu.Lock()
	defer s.mu.Unlock()
	if want, ok := s.users[email]; !ok || want != password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect username or password"})
		return
	}
	token := DemoToken
	if email != DemoEmail {
		token = fmt.Sprintf("tok-%s", email)
	}
	s.tokens[token] = email
	writeJSON(w, http.StatusOK, core.Token{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) listCategories(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.categories)
}

func (s *Server) listTransactions(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.sortedLocked())
}

func (s *Server) decodeInput(w http.ResponseWriter, r *http.Request) (core.Transaction, bool) {
	var in core.TransactionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return core.Transaction{}, false
	}
	date, err := core.ParseDate(in.Date)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "invalid date"})
		return core.Transaction{}, false
	}
	var category core.Category
	for _, c := range s.categories {
		if c.ID == in.CategoryID {
			category = c
		}
	}
	if category.ID == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Category not found"})
		return core.Transaction{}, false
	}
	return core.Transaction{
		Description: in.Description,
		Date:        date,
		Amount:      in.Amount,
		Type:        in.Type,
		Category:    category,
	}, true
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.decodeInput(w, r)
	if !ok {
		return
	}
	tx.ID = s.nextID
	s.nextID++
	s.txs[tx.ID] = tx
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "invalid id"})
		return 0, false
	}
	if _, ok := s.txs[id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Transaction not found"})
		return 0, false
	}
	return id, true
}

func (s *Server) updateTransaction(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	tx, ok := s.decodeInput(w, r)
	if !ok {
		return
	}
	tx.ID = id
	s.txs[id] = tx
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	delete(s.txs, id)
	w.WriteHeader(http.StatusNoContent)
}
