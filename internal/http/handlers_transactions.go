package http

import (
	"net/http"
	"strconv"

	"myfiance/internal/core"
	"myfiance/internal/dashboard"
	"myfiance/internal/form"
	"myfiance/internal/log"
	"myfiance/internal/ui"
)

const (
	transactionModalID = "transaction-modal"
	listSelector       = "#transaction-list"
	msgNotFound        = "Transaction not found."
)

var formFields = []string{
	form.FieldDescription,
	form.FieldAmount,
	form.FieldDate,
	form.FieldCategoryID,
	form.FieldType,
}

// formView is what the transaction_form template renders.
type formView struct {
	Action     string
	Mode       string
	Values     form.Values
	Categories []core.Category
	Types      []core.TransactionType
	Error      string
}

func newFormView(f *form.TransactionForm) formView {
	action := "/transactions"
	if f.Mode() == form.ModeEdit {
		action = transactionPath(f.EditingID())
	}
	return formView{
		Action:     action,
		Mode:       f.Mode().String(),
		Values:     f.Values(),
		Categories: f.Categories(),
		Types:      []core.TransactionType{core.Expense, core.Income},
		Error:      f.Error(),
	}
}

func transactionPath(id int64) string {
	return "/transactions/" + strconv.FormatInt(id, 10)
}

func (s *Server) renderFormModal(w http.ResponseWriter, r *http.Request, title string, f *form.TransactionForm) {
	s.render(w, r, http.StatusOK, "modal", ui.NewModal(transactionModalID, title, "transaction_form", newFormView(f)))
}

func (s *Server) handleNewTransactionModal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rc := s.requestContext(w, r)
	s.controller(rc.sessionID).OpenCreate()

	f := form.NewCreate(s.now()).WithLogger(log.FromContext(ctx))
	f.LoadCategories(ctx, s.categories.Loader(rc.client))
	if s.followNavigation(w, r, rc) {
		return
	}
	s.renderFormModal(w, r, "Add transaction", f)
}

func (s *Server) handleEditTransactionModal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	ctx := r.Context()
	rc := s.requestContext(w, r)

	ctrl := s.mounted(ctx, rc)
	if s.followNavigation(w, r, rc) {
		return
	}
	tx, err := ctrl.OpenEdit(id)
	if err != nil {
		NotFoundError(msgNotFound).Write(w)
		return
	}

	f := form.NewEdit(tx).WithLogger(log.FromContext(ctx))
	f.LoadCategories(ctx, s.categories.Loader(rc.client))
	if s.followNavigation(w, r, rc) {
		return
	}
	s.renderFormModal(w, r, "Edit transaction", f)
}

func (s *Server) handleDeleteConfirmation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	ctx := r.Context()
	rc := s.requestContext(w, r)

	ctrl := s.mounted(ctx, rc)
	if s.followNavigation(w, r, rc) {
		return
	}
	tx, err := ctrl.RequestDelete(id)
	if err != nil {
		NotFoundError(msgNotFound).Write(w)
		return
	}
	s.render(w, r, http.StatusOK, "confirm", ui.DeleteConfirmation(tx.Description, transactionPath(id)))
}

// handleCancel closes whichever modal the dashboard has open.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	rc := s.requestContext(w, r)
	if ctrl, ok := s.dashboards.Get(rc.sessionID); ok {
		ctrl.Cancel()
	}
	NewHTMXResponse().TriggerModalClose().Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rc := s.requestContext(w, r)

	ctrl := s.controller(rc.sessionID)
	if ctrl.State().Modal != dashboard.ModalCreate {
		ctrl.OpenCreate()
	}
	f := form.NewCreate(s.now()).WithLogger(log.FromContext(ctx))
	s.submit(w, r, rc, ctrl, f, log.OpCreate)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	ctx := r.Context()
	rc := s.requestContext(w, r)

	ctrl := s.mounted(ctx, rc)
	if s.followNavigation(w, r, rc) {
		return
	}
	st := ctrl.State()
	tx, listed := st.Find(id)
	if !listed {
		NotFoundError(msgNotFound).Write(w)
		return
	}
	if st.Modal != dashboard.ModalEdit || st.Target != id {
		if _, err := ctrl.OpenEdit(id); err != nil {
			NotFoundError(msgNotFound).Write(w)
			return
		}
	}
	f := form.NewEdit(tx).WithLogger(log.FromContext(ctx))
	s.submit(w, r, rc, ctrl, f, log.OpUpdate)
}

// submit copies the posted fields into f and submits it through the
// dashboard. A rejected submission re-renders the form with its inline
// error; a successful one replaces the list and closes the modal.
func (s *Server) submit(w http.ResponseWriter, r *http.Request, rc *requestContext, ctrl *dashboard.Controller, f *form.TransactionForm, op string) {
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	for _, field := range formFields {
		if values, ok := r.PostForm[field]; ok && len(values) > 0 {
			_ = f.Set(field, sanitizeInput(values[0]))
		}
	}

	ctx := r.Context()
	err := f.Submit(ctx, ctrl.SubmitHandler(s.transactions(rc)))
	if s.followNavigation(w, r, rc) {
		return
	}

	if err != nil {
		f.LoadCategories(ctx, s.categories.Loader(rc.client))
		// htmx only swaps 2xx bodies, the form carries its own error.
		s.renderFragment(w, r, NewHTMXResponse(), "transaction_form", newFormView(f))
		return
	}

	s.renderFragment(w, r,
		NewHTMXResponse().
			Retarget(listSelector, "outerHTML").
			TriggerModalClose().
			TriggerTransactionsChanged(op, f.EditingID()).
			TriggerSuccessNotification("Transaction saved"),
		"transaction_list", newListView(ctrl.State()))
}

// handleDeleteTransaction deletes and drops the row from the local list
// without refetching. A failure replaces the list with the page error.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	ctx := r.Context()
	rc := s.requestContext(w, r)

	ctrl := s.mounted(ctx, rc)
	if s.followNavigation(w, r, rc) {
		return
	}

	svc := s.transactions(rc)
	var st dashboard.State
	if cur := ctrl.State(); cur.Modal == dashboard.ModalConfirmDelete && cur.Target == id {
		st, err = ctrl.ConfirmDelete(ctx, svc)
	} else {
		st, err = ctrl.Delete(ctx, svc, id)
	}
	if s.followNavigation(w, r, rc) {
		return
	}

	b := NewHTMXResponse().Retarget(listSelector, "outerHTML").TriggerModalClose()
	if err != nil {
		b.TriggerErrorNotification(st.Error)
	} else {
		b.TriggerTransactionsChanged(log.OpDelete, id).TriggerSuccessNotification("Transaction deleted")
	}
	s.renderFragment(w, r, b, "transaction_list", newListView(st))
}
