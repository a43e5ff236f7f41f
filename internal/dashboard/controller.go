package dashboard

import (
	"context"
	"errors"
	"slices"
	"sync"

	"myfiance/internal/api"
	"myfiance/internal/core"
	"myfiance/internal/log"
)

const MsgDeleteFailed = "The transaction could not be deleted."

var (
	ErrNotListed = errors.New("transaction not in the list")
	ErrNoModal   = errors.New("no transaction modal is open")
)

// API is the part of the finance API the dashboard uses.
type API interface {
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	CreateTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, id int64, in core.TransactionInput) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) (bool, error)
}

// Controller owns the State of one dashboard page and performs its effects.
// Actions are not serialised: two mutations may be in flight at once. Only
// list fetches are sequenced, by generation.
type Controller struct {
	mu     sync.Mutex
	state  State
	gen    uint64
	logger *log.Logger
}

func NewController(logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.Discard()
	}
	return &Controller{logger: logger.WithComponent(log.ComponentDashboard)}
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Transactions = slices.Clone(s.Transactions)
	return s
}

func (c *Controller) dispatch(msg Msg) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Reduce(c.state, msg)
	return c.state
}

// Mount resets the page and fetches the list.
func (c *Controller) Mount(ctx context.Context, client API) State {
	c.mu.Lock()
	c.state = State{Generation: c.gen}
	c.mu.Unlock()
	c.fetch(ctx, client)
	return c.State()
}

// Refresh refetches the whole list.
func (c *Controller) Refresh(ctx context.Context, client API) State {
	c.fetch(ctx, client)
	return c.State()
}

func (c *Controller) fetch(ctx context.Context, client API) {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.state = Reduce(c.state, FetchStarted{Generation: gen})
	c.mu.Unlock()

	txs, err := client.ListTransactions(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "Transaction list fetch failed",
			log.FieldOperation, log.OpList, log.FieldGeneration, gen, log.FieldError, err)
		c.dispatch(FetchFailed{Generation: gen, Err: api.Message(err)})
		return
	}

	s := c.dispatch(FetchSucceeded{Generation: gen, Transactions: txs})
	if s.Generation != gen {
		c.logger.DebugContext(ctx, "Stale transaction list dropped",
			log.FieldGeneration, gen, "latest", s.Generation)
	}
}

func (c *Controller) OpenCreate() State {
	return c.dispatch(CreateOpened{})
}

// OpenEdit opens the edit modal for a listed transaction and returns it.
func (c *Controller) OpenEdit(id int64) (core.Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tx, ok := c.state.Find(id)
	if !ok {
		return core.Transaction{}, ErrNotListed
	}
	c.state = Reduce(c.state, EditOpened{ID: id})
	return tx, nil
}

// Submit creates or updates depending on the open modal. On success the list
// is refetched in full and the modal closes. The error is meant for the form.
func (c *Controller) Submit(ctx context.Context, client API, in core.TransactionInput) error {
	if err := in.Validate(); err != nil {
		return err
	}

	s := c.State()
	var (
		tx  core.Transaction
		err error
		op  string
	)
	switch s.Modal {
	case ModalCreate:
		op = log.OpCreate
		tx, err = client.CreateTransaction(ctx, in)
	case ModalEdit:
		op = log.OpUpdate
		tx, err = client.UpdateTransaction(ctx, s.Target, in)
	default:
		return ErrNoModal
	}
	if err != nil {
		return err
	}

	c.logger.InfoContext(ctx, "Transaction saved",
		log.NewFields().WithOperation(op).
			WithTransaction(tx.ID, string(tx.Type), tx.Amount.String(), tx.Category.ID).ToSlice()...)

	c.dispatch(ModalDismissed{})
	c.fetch(ctx, client)
	return nil
}

// SubmitHandler binds Submit to client for use as a form submit callback.
func (c *Controller) SubmitHandler(client API) func(ctx context.Context, in core.TransactionInput) error {
	return func(ctx context.Context, in core.TransactionInput) error {
		return c.Submit(ctx, client, in)
	}
}

// RequestDelete opens the delete confirmation for a listed transaction.
func (c *Controller) RequestDelete(id int64) (core.Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tx, ok := c.state.Find(id)
	if !ok {
		return core.Transaction{}, ErrNotListed
	}
	c.state = Reduce(c.state, DeleteRequested{ID: id})
	return tx, nil
}

// ConfirmDelete deletes the transaction awaiting confirmation and removes it
// from the local list without refetching. A failure becomes the page error.
func (c *Controller) ConfirmDelete(ctx context.Context, client API) (State, error) {
	s := c.State()
	if s.Modal != ModalConfirmDelete {
		return s, ErrNoModal
	}
	return c.Delete(ctx, client, s.Target)
}

// Delete removes id through the API and from the local list.
func (c *Controller) Delete(ctx context.Context, client API, id int64) (State, error) {
	ok, err := client.DeleteTransaction(ctx, id)
	if err == nil && !ok {
		err = errors.New("delete not acknowledged")
	}
	if err != nil {
		c.logger.WarnContext(ctx, "Transaction delete failed",
			log.FieldOperation, log.OpDelete, log.FieldTransactionID, id, log.FieldError, err)
		msg := api.Message(err)
		if msg == api.MsgGeneric {
			msg = MsgDeleteFailed
		}
		c.dispatch(ModalDismissed{})
		return c.dispatch(Failed{Err: msg}), err
	}

	c.logger.InfoContext(ctx, "Transaction deleted",
		log.FieldOperation, log.OpDelete, log.FieldTransactionID, id)
	return c.dispatch(Deleted{ID: id}), nil
}

// Cancel closes whichever modal is open.
func (c *Controller) Cancel() State {
	return c.dispatch(ModalDismissed{})
}
