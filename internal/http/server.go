package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"myfiance/internal/api"
	"myfiance/internal/cache"
	"myfiance/internal/core"
	"myfiance/internal/dashboard"
	"myfiance/internal/log"
	"myfiance/internal/middleware/authguard"
	"myfiance/internal/middleware/ratelimit"
	"myfiance/internal/middleware/security"
	"myfiance/internal/middleware/trace"
	"myfiance/internal/services"
	"myfiance/internal/session"
	"myfiance/internal/ui"
	appweb "myfiance/web"
)

const (
	dashboardCacheSize = 1000
	dashboardCacheTTL  = 30 * time.Minute
)

// Deps are the collaborators of the web server.
type Deps struct {
	API        *api.Client
	Sessions   *session.Store
	Categories *services.CategoryService
	// Publisher announces transaction mutations; nil disables events.
	Publisher services.EventPublisher
	Logger    *log.Logger

	LoginRateLimit int
	// Ready reports whether client-state storage is reachable.
	Ready func(ctx context.Context) error
}

type Server struct {
	http.Server
	templates  *template.Template
	logger     *log.Logger
	api        *api.Client
	sessions   *session.Store
	categories *services.CategoryService
	publisher  services.EventPublisher
	ready      func(ctx context.Context) error

	// One dashboard controller per browser session, rebuilt on page load.
	dashboards *cache.LRUCache[*dashboard.Controller]

	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	clientIP *security.ClientIP
	started  time.Time
	now      func() time.Time

	shutdownOnce sync.Once
}

// NewServer parses the embedded templates and configures the routes.
func NewServer(addr string, deps Deps) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)
	if deps.Categories == nil {
		deps.Categories = services.NewCategoryService(5 * time.Minute)
	}

	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	clientIP, err := security.NewClientIP()
	if err != nil {
		return nil, err
	}

	s := &Server{
		templates:  tmpl,
		logger:     logger,
		api:        deps.API,
		sessions:   deps.Sessions,
		categories: deps.Categories,
		publisher:  deps.Publisher,
		ready:      deps.Ready,
		dashboards: cache.NewLRUCache[*dashboard.Controller](dashboardCacheSize, dashboardCacheTTL),
		limiter:    ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.LoginRateLimit}),
		clientIP:   clientIP,
		started:    time.Now(),
		now:        time.Now,
	}
	s.tracer = trace.NewMiddleware(logger, clientIP.Extract)

	mux := http.NewServeMux()
	guard := authguard.Require(s.resolveSession, api.LoginRoute)
	limited := s.limiter.Middleware(clientIP.Extract, s.onRateLimited)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.Handle("POST /login", limited(http.HandlerFunc(s.handleLogin)))
	mux.Handle("POST /login/demo", limited(http.HandlerFunc(s.handleDemoLogin)))
	mux.HandleFunc("GET /register", s.handleRegisterPage)
	mux.Handle("POST /register", limited(http.HandlerFunc(s.handleRegister)))
	mux.HandleFunc("POST /logout", s.handleLogout)

	mux.Handle("GET /dashboard", guard(http.HandlerFunc(s.handleDashboard)))
	mux.Handle("GET /ui/transactions/new", guard(http.HandlerFunc(s.handleNewTransactionModal)))
	mux.Handle("GET /ui/transactions/{id}/edit", guard(http.HandlerFunc(s.handleEditTransactionModal)))
	mux.Handle("GET /ui/transactions/{id}/delete", guard(http.HandlerFunc(s.handleDeleteConfirmation)))
	mux.Handle("GET /ui/logout", guard(http.HandlerFunc(s.handleLogoutConfirmation)))
	mux.Handle("POST /ui/cancel", guard(http.HandlerFunc(s.handleCancel)))
	mux.Handle("POST /transactions", guard(http.HandlerFunc(s.handleCreateTransaction)))
	mux.Handle("POST /transactions/{id}", guard(http.HandlerFunc(s.handleUpdateTransaction)))
	mux.Handle("DELETE /transactions/{id}", guard(http.HandlerFunc(s.handleDeleteTransaction)))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssets(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	var handler http.Handler = mux
	handler = security.Headers(security.DefaultHeadersConfig())(handler)
	handler = log.Middleware(logger, trace.FromRequest)(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Dashboards exposes the per-session dashboard cache for periodic cleanup.
func (s *Server) Dashboards() *cache.LRUCache[*dashboard.Controller] { return s.dashboards }

// Shutdown stops the rate limiter and gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

var templateFuncs = template.FuncMap{
	"signed": core.FormatSigned,
	"date": func(d core.Date) string {
		return d.String()
	},
	"idstr": func(id int64) string {
		return fmt.Sprint(id)
	},
	// hx renders the htmx request attribute of a confirmation button.
	"hx": func(c ui.Confirmation) template.HTMLAttr {
		return template.HTMLAttr(c.HxAttr() + `="` + template.HTMLEscapeString(c.Action) + `"`)
	},
}

// render executes the named template into a buffer so that a template error
// never leaves a half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	s.renderFragment(w, r, NewHTMXResponse().Status(status), name, data)
}

// renderFragment is render for htmx responses that need extra headers.
func (s *Server) renderFragment(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldOperation, log.OpRender, "template", name, log.FieldError, err)
		InternalServerError("Something went wrong while rendering the page.").Write(w)
		return
	}
	b.BodyHTML(buf.Bytes()).Write(w)
}

func (s *Server) resolveSession(r *http.Request) (session.Session, bool) {
	id, ok := s.sessions.FromRequest(r)
	if !ok {
		return nil, false
	}
	return s.sessions.Bind(id), true
}

// requestContext bundles what a handler needs to talk to the API on behalf
// of the browser behind the request.
type requestContext struct {
	sessionID string
	session   session.Session
	client    *api.Client
	nav       *navigation
}

func (s *Server) requestContext(w http.ResponseWriter, r *http.Request) *requestContext {
	id := s.sessions.Ensure(w, r)
	sess := s.sessions.Bind(id)
	nav := &navigation{}
	return &requestContext{
		sessionID: id,
		session:   sess,
		client:    s.api.WithSession(sess, nav),
		nav:       nav,
	}
}

// transactions returns the API seen through the event-publishing service.
func (s *Server) transactions(rc *requestContext) *services.TransactionService {
	return services.NewTransactionService(rc.client, s.publisher, s.logger)
}

// followNavigation redirects when the API client forced a sign-out during
// the request. It reports whether a response was written.
func (s *Server) followNavigation(w http.ResponseWriter, r *http.Request, rc *requestContext) bool {
	route, ok := rc.nav.target()
	if !ok {
		return false
	}
	s.dashboards.Delete(rc.sessionID)
	log.FromContext(r.Context()).InfoContext(r.Context(), "Session expired, redirecting to sign in",
		log.FieldPath, r.URL.Path)
	authguard.Redirect(w, r, route)
	return true
}

// controller returns the dashboard controller of the session, creating an
// empty one when none is cached.
func (s *Server) controller(sessionID string) *dashboard.Controller {
	if c, ok := s.dashboards.Get(sessionID); ok {
		return c
	}
	c := dashboard.NewController(s.logger)
	s.dashboards.Set(sessionID, c)
	return c
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.clientIP.Extract(r), log.FieldPath, r.URL.Path)
	TooManyRequestsError("Too many attempts. Please try again in a minute.").Write(w)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady reports whether the server can serve signed-in pages.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := map[string]any{"templates": "ok"}

	if s.ready != nil {
		if err := s.ready(ctx); err != nil {
			checks["storage"] = fmt.Sprintf("failed: %v", err)
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["storage"] = "ok"
		}
	}

	limits := s.limiter.GetMetrics()
	traffic := s.tracer.GetMetrics()
	checks["cache"] = map[string]any{
		"dashboards": s.dashboards.Size(),
		"categories": s.categories.Cache().Size(),
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": limits.ClientCount,
		"rejected":       limits.TotalHits,
	}
	checks["requests"] = map[string]any{
		"total":         traffic.TotalRequests,
		"server_errors": traffic.ServerErrors,
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
