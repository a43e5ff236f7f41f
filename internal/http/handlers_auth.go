package http

import (
	"errors"
	"net/http"

	"myfiance/internal/api"
	"myfiance/internal/core"
	"myfiance/internal/log"
	"myfiance/internal/middleware/authguard"
	"myfiance/internal/session"
	"myfiance/internal/ui"
)

const (
	msgMissingCredentials = "Please enter your email and password."
	msgRegistered         = "Registration successful! You can now sign in."
)

// authPage is the view model of the login and register pages.
type authPage struct {
	Title  string
	Email  string
	Error  string
	Notice string
}

// handleIndex sends signed-in browsers to the dashboard and everyone else
// to the login page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	target := api.LoginRoute
	if sess, ok := s.resolveSession(r); ok {
		if _, has := sess.Get(r.Context()); has {
			target = api.DashboardRoute
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "login.html", authPage{Title: "Sign in"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	creds := core.Credentials{
		Email:    sanitizeInput(r.PostForm.Get("email")),
		Password: r.PostForm.Get("password"),
	}
	if creds.Email == "" || creds.Password == "" {
		s.render(w, r, http.StatusUnprocessableEntity, "login.html",
			authPage{Title: "Sign in", Email: creds.Email, Error: msgMissingCredentials})
		return
	}
	s.login(w, r, creds)
}

func (s *Server) handleDemoLogin(w http.ResponseWriter, r *http.Request) {
	s.login(w, r, core.DemoCredentials)
}

// login exchanges creds for a token, stores it in the browser session and
// navigates to the dashboard.
func (s *Server) login(w http.ResponseWriter, r *http.Request, creds core.Credentials) {
	ctx := r.Context()
	logger := log.FromContext(ctx)
	rc := s.requestContext(w, r)

	token, err := rc.client.Login(ctx, creds)
	if err != nil {
		logger.WarnContext(ctx, "Login failed",
			log.NewFields().WithComponent(log.ComponentAuth).WithOperation(log.OpLogin).WithError(err).ToSlice()...)
		s.render(w, r, failureStatus(err), "login.html",
			authPage{Title: "Sign in", Email: creds.Email, Error: api.Message(err)})
		return
	}

	if err := rc.session.Set(ctx, token.AccessToken); err != nil {
		logger.ErrorContext(ctx, "Storing session token failed",
			log.FieldOperation, log.OpLogin, log.FieldError, err)
		s.render(w, r, http.StatusInternalServerError, "login.html",
			authPage{Title: "Sign in", Email: creds.Email, Error: api.MsgGeneric})
		return
	}
	s.dashboards.Delete(rc.sessionID)

	logger.InfoContext(ctx, "User signed in",
		log.FieldComponent, log.ComponentAuth,
		log.FieldOperation, log.OpLogin,
		"user", session.Subject(token.AccessToken))
	authguard.Redirect(w, r, api.DashboardRoute)
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "register.html", authPage{Title: "Create your account"})
}

// handleRegister creates the account. On success the fields are cleared and
// a notice invites the user to sign in.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	ctx := r.Context()
	page := authPage{Title: "Create your account"}
	creds := core.Credentials{
		Email:    sanitizeInput(r.PostForm.Get("email")),
		Password: r.PostForm.Get("password"),
	}
	if creds.Email == "" || creds.Password == "" {
		page.Email = creds.Email
		page.Error = msgMissingCredentials
		s.render(w, r, http.StatusUnprocessableEntity, "register.html", page)
		return
	}

	rc := s.requestContext(w, r)
	user, err := rc.client.Register(ctx, creds)
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Registration failed",
			log.NewFields().WithComponent(log.ComponentAuth).WithOperation(log.OpRegister).WithError(err).ToSlice()...)
		page.Email = creds.Email
		page.Error = api.Message(err)
		s.render(w, r, failureStatus(err), "register.html", page)
		return
	}

	log.FromContext(ctx).InfoContext(ctx, "User registered",
		log.FieldComponent, log.ComponentAuth,
		log.FieldOperation, log.OpRegister,
		"user_id", user.ID)
	page.Notice = msgRegistered
	s.render(w, r, http.StatusOK, "register.html", page)
}

// handleLogout forgets the browser session and returns to the home route.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if id, ok := s.sessions.FromRequest(r); ok {
		s.dashboards.Delete(id)
		if err := s.sessions.Forget(ctx, w, id); err != nil {
			log.FromContext(ctx).WarnContext(ctx, "Clearing session failed",
				log.FieldOperation, log.OpLogout, log.FieldError, err)
		}
	}
	log.FromContext(ctx).InfoContext(ctx, "User signed out",
		log.FieldComponent, log.ComponentAuth, log.FieldOperation, log.OpLogout)
	authguard.Redirect(w, r, api.HomeRoute)
}

func (s *Server) handleLogoutConfirmation(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "confirm", ui.LogoutConfirmation())
}

// failureStatus picks the status of a page re-rendered after an API error.
func failureStatus(err error) int {
	var apiErr *api.Error
	switch {
	case errors.As(err, &apiErr) && apiErr.Status >= 500:
		return http.StatusBadGateway
	case errors.Is(err, api.ErrNetwork):
		return http.StatusBadGateway
	}
	return http.StatusUnprocessableEntity
}
