package dashboard

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myfiance/internal/api"
	"myfiance/internal/api/apitest"
	"myfiance/internal/core"
	"myfiance/internal/session"
)

func setup(t *testing.T) (*Controller, *api.Client, *apitest.Server) {
	t.Helper()
	srv := apitest.NewServer()
	t.Cleanup(srv.Close)
	client := api.New(srv.URL).WithSession(session.NewMemory(apitest.DemoToken), nil)
	return NewController(nil), client, srv
}

func seed(srv *apitest.Server, desc string, day int, cents int64) core.Transaction {
	return srv.Seed(core.Transaction{
		Description: desc,
		Date:        core.NewDate(2025, 4, day),
		Amount:      core.NewAmount(cents),
		Type:        core.Expense,
		Category:    core.Category{ID: 2, Name: "Groceries"},
	})
}

func ids(list []core.Transaction) []int64 {
	out := make([]int64, len(list))
	for i, tx := range list {
		out[i] = tx.ID
	}
	return out
}

func input(t *testing.T, amount string, categoryID int64) core.TransactionInput {
	t.Helper()
	a, err := core.ParseAmount(amount)
	require.NoError(t, err)
	return core.TransactionInput{Amount: a, Description: "Books", Date: "2025-04-20", CategoryID: categoryID, Type: core.Expense}
}

func TestMount_EmptyList(t *testing.T) {
	c, client, _ := setup(t)

	s := c.Mount(context.Background(), client)

	assert.Equal(t, StatusReady, s.Status)
	assert.True(t, s.Empty())
	assert.NotNil(t, s.Transactions)
}

func TestMount_ErrorReplacesList(t *testing.T) {
	c, client, srv := setup(t)
	srv.Respond(http.MethodGet, "/transactions/", http.StatusInternalServerError, `{"detail":"database unavailable"}`)

	s := c.Mount(context.Background(), client)

	assert.Equal(t, StatusError, s.Status)
	assert.Equal(t, "database unavailable", s.Error)
}

func TestConfirmDelete_RemovesWithoutRefetch(t *testing.T) {
	c, client, srv := setup(t)
	a := seed(srv, "Bread", 1, 300)
	b := seed(srv, "Milk", 2, 150)
	ctx := context.Background()

	c.Mount(ctx, client)
	require.Equal(t, 1, srv.Calls(http.MethodGet, "/transactions/"))

	_, err := c.RequestDelete(a.ID)
	require.NoError(t, err)
	assert.Equal(t, ModalConfirmDelete, c.State().Modal)

	s, err := c.ConfirmDelete(ctx, client)
	require.NoError(t, err)

	assert.Equal(t, []int64{b.ID}, ids(s.Transactions))
	assert.Equal(t, ModalClosed, s.Modal)
	assert.Equal(t, 1, srv.Calls(http.MethodGet, "/transactions/"), "delete must not refetch")
	assert.Equal(t, 1, srv.Calls(http.MethodDelete, "/transactions/1"))
}

func TestConfirmDelete_FailureSetsPageError(t *testing.T) {
	c, client, srv := setup(t)
	a := seed(srv, "Bread", 1, 300)
	ctx := context.Background()
	c.Mount(ctx, client)

	srv.Respond(http.MethodDelete, "/transactions/1", http.StatusInternalServerError, `not json`)
	_, err := c.RequestDelete(a.ID)
	require.NoError(t, err)

	s, err := c.ConfirmDelete(ctx, client)
	require.Error(t, err)
	assert.Equal(t, StatusError, s.Status)
	assert.Equal(t, api.MsgServer, s.Error)
	assert.Equal(t, ModalClosed, s.Modal)
}

func TestConfirmDelete_WithoutConfirmation(t *testing.T) {
	c, client, _ := setup(t)
	c.Mount(context.Background(), client)

	_, err := c.ConfirmDelete(context.Background(), client)
	assert.ErrorIs(t, err, ErrNoModal)
}

func TestSubmitCreate_ListMatchesFreshFetch(t *testing.T) {
	c, client, srv := setup(t)
	seed(srv, "Bread", 1, 300)
	ctx := context.Background()
	c.Mount(ctx, client)

	c.OpenCreate()
	require.NoError(t, c.Submit(ctx, client, input(t, "19.99", 2)))

	s := c.State()
	assert.Equal(t, ModalClosed, s.Modal)
	assert.Equal(t, 2, srv.Calls(http.MethodGet, "/transactions/"))

	fresh, err := client.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, fresh, s.Transactions)
	assert.Len(t, s.Transactions, 2)
}

func TestSubmitEdit_ListMatchesFreshFetch(t *testing.T) {
	c, client, srv := setup(t)
	a := seed(srv, "Bread", 1, 300)
	ctx := context.Background()
	c.Mount(ctx, client)

	tx, err := c.OpenEdit(a.ID)
	require.NoError(t, err)
	in := tx.Input()
	in.Description = "Sourdough"
	require.NoError(t, c.Submit(ctx, client, in))

	s := c.State()
	fresh, err := client.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, fresh, s.Transactions)
	assert.Equal(t, "Sourdough", s.Transactions[0].Description)
}

func TestSubmit_FailureKeepsModalOpen(t *testing.T) {
	c, client, srv := setup(t)
	ctx := context.Background()
	c.Mount(ctx, client)
	c.OpenCreate()

	err := c.Submit(ctx, client, input(t, "5", 99))
	assert.Equal(t, "Category not found", api.Message(err))
	assert.Equal(t, ModalCreate, c.State().Modal)
	assert.Equal(t, StatusReady, c.State().Status)
	assert.Equal(t, 1, srv.Calls(http.MethodGet, "/transactions/"))
}

func TestSubmit_RequiresOpenModal(t *testing.T) {
	c, client, _ := setup(t)
	assert.ErrorIs(t, c.Submit(context.Background(), client, input(t, "5", 1)), ErrNoModal)
}

func TestOpenEdit_UnknownID(t *testing.T) {
	c, client, _ := setup(t)
	c.Mount(context.Background(), client)
	_, err := c.OpenEdit(42)
	assert.ErrorIs(t, err, ErrNotListed)
	_, err = c.RequestDelete(42)
	assert.ErrorIs(t, err, ErrNotListed)
}

func TestCancel(t *testing.T) {
	c, client, srv := setup(t)
	a := seed(srv, "Bread", 1, 300)
	c.Mount(context.Background(), client)
	_, err := c.RequestDelete(a.ID)
	require.NoError(t, err)

	s := c.Cancel()
	assert.Equal(t, ModalClosed, s.Modal)
	assert.Len(t, s.Transactions, 1)
}

// blockingAPI answers the first list call only after the second one returned.
type blockingAPI struct {
	first, second []core.Transaction
	started       chan struct{}
	release       chan struct{}
	calls         atomic.Int32
}

func (b *blockingAPI) ListTransactions(context.Context) ([]core.Transaction, error) {
	if b.calls.Add(1) == 1 {
		close(b.started)
		<-b.release
		return b.first, nil
	}
	defer close(b.release)
	return b.second, nil
}

func (b *blockingAPI) CreateTransaction(context.Context, core.TransactionInput) (core.Transaction, error) {
	return core.Transaction{}, errors.New("not used")
}

func (b *blockingAPI) UpdateTransaction(context.Context, int64, core.TransactionInput) (core.Transaction, error) {
	return core.Transaction{}, errors.New("not used")
}

func (b *blockingAPI) DeleteTransaction(context.Context, int64) (bool, error) {
	return false, errors.New("not used")
}

func TestRefresh_StaleResponseDiscarded(t *testing.T) {
	fake := &blockingAPI{
		first:   txs(1),
		second:  txs(2),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	c := NewController(nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Refresh(context.Background(), fake)
	}()
	<-fake.started

	c.Refresh(context.Background(), fake)
	<-done

	s := c.State()
	assert.Equal(t, uint64(2), s.Generation)
	assert.Equal(t, StatusReady, s.Status)
	assert.Equal(t, txs(2), s.Transactions)
}
