package http

import (
	"context"
	"net/http"

	"myfiance/internal/core"
	"myfiance/internal/dashboard"
	"myfiance/internal/log"
	"myfiance/internal/session"
)

type dashboardPage struct {
	Title string
	Email string
	List  listView
}

// listView is what the transaction_list template renders for a State.
type listView struct {
	Status       string
	Error        string
	Empty        bool
	EmptyMessage string
	Transactions []core.Transaction
}

func newListView(st dashboard.State) listView {
	return listView{
		Status:       st.Status.String(),
		Error:        st.Error,
		Empty:        st.Empty(),
		EmptyMessage: dashboard.MsgEmpty,
		Transactions: st.Transactions,
	}
}

// handleDashboard mounts a fresh dashboard for the session: local state is
// reset and the list fetched.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rc := s.requestContext(w, r)

	ctrl := dashboard.NewController(log.FromContext(ctx))
	s.dashboards.Set(rc.sessionID, ctrl)
	st := ctrl.Mount(ctx, s.transactions(rc))
	if s.followNavigation(w, r, rc) {
		return
	}

	log.FromContext(ctx).DebugContext(ctx, "Dashboard mounted",
		log.FieldOperation, log.OpMount,
		log.FieldCount, len(st.Transactions),
		"status", st.Status.String())

	s.render(w, r, http.StatusOK, "dashboard.html", dashboardPage{
		Title: "My Dashboard",
		Email: s.signedInEmail(ctx, rc.session),
		List:  newListView(st),
	})
}

// signedInEmail reads the display email from the token subject.
func (s *Server) signedInEmail(ctx context.Context, sess session.Session) string {
	token, ok := sess.Get(ctx)
	if !ok {
		return ""
	}
	return session.Subject(token)
}

// mounted returns the session's controller, mounting it first when the
// cached one was lost or never loaded a list.
func (s *Server) mounted(ctx context.Context, rc *requestContext) *dashboard.Controller {
	ctrl := s.controller(rc.sessionID)
	if ctrl.State().Generation == 0 {
		ctrl.Mount(ctx, s.transactions(rc))
	}
	return ctrl
}
