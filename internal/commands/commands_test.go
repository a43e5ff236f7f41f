package commands

import (
	"bytes"
	"context"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myfiance/internal/api/apitest"
	"myfiance/internal/config"
	"myfiance/internal/core"
	"myfiance/internal/dashboard"
	"myfiance/internal/form"
	"myfiance/internal/log"
	"myfiance/internal/session"
)

type cliEnv struct {
	upstream  *apitest.Server
	stateFile string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	upstream := apitest.NewServer()
	t.Cleanup(upstream.Close)
	return &cliEnv{
		upstream:  upstream,
		stateFile: filepath.Join(t.TempDir(), "myfiance", "state.json"),
	}
}

func (e *cliEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cfg := &config.Config{
		APIBaseURL: e.upstream.URL,
		APITimeout: 5 * time.Second,
		StateFile:  e.stateFile,
	}
	root := NewRootCommand(cfg, log.Discard())
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *cliEnv) token(t *testing.T) (string, bool) {
	t.Helper()
	return session.NewFile(e.stateFile).Get(context.Background())
}

func (e *cliEnv) login(t *testing.T) {
	t.Helper()
	_, err := e.run(t, "", "login", "--demo")
	require.NoError(t, err)
}

func TestLogin_Demo(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "", "login", "--demo")

	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as "+apitest.DemoEmail)
	token, ok := env.token(t)
	require.True(t, ok)
	assert.Equal(t, apitest.DemoToken, token)
}

func TestLogin_Failures(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "", "login", "--email", apitest.DemoEmail)
	assert.ErrorIs(t, err, errMissingCredentials)

	_, err = env.run(t, "", "login", "--email", apitest.DemoEmail, "--password", "nope")
	require.Error(t, err)
	assert.Equal(t, "Incorrect username or password", err.Error())

	_, ok := env.token(t)
	assert.False(t, ok)
}

func TestRegister(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "", "register", "--email", "new@example.com", "--password", "secret123")
	require.NoError(t, err)
	assert.Contains(t, out, "Registration successful!")

	_, err = env.run(t, "", "register", "--email", apitest.DemoEmail, "--password", "secret123")
	require.Error(t, err)
	assert.Equal(t, "Email already registered", err.Error())
}

func TestTx_RequiresSession(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "", "tx", "list")

	assert.ErrorIs(t, err, session.ErrNoSession)
	assert.Zero(t, env.upstream.Calls(http.MethodGet, "/transactions/"))
}

func TestTxList(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t)

	out, err := env.run(t, "", "tx", "list")
	require.NoError(t, err)
	assert.Contains(t, out, dashboard.MsgEmpty)

	env.upstream.Seed(core.Transaction{
		Description: "Coffee beans",
		Date:        core.NewDate(2026, 3, 2),
		Amount:      core.NewAmount(1250),
		Type:        core.Expense,
		Category:    core.Category{ID: 2, Name: "Groceries"},
	})
	out, err = env.run(t, "", "tx", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Coffee beans")
	assert.Contains(t, out, "2026-03-02")
	assert.Contains(t, out, "- 12.50 €")
	assert.Equal(t, "Bearer "+apitest.DemoToken, env.upstream.Authorization(http.MethodGet, "/transactions/"))
}

func TestTxAdd(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t)

	out, err := env.run(t, "", "tx", "add",
		"--description", "Bread", "--amount", "3,20", "--date", "2026-03-15", "--category", "groceries")

	require.NoError(t, err)
	assert.Contains(t, out, "Transaction saved.")
	assert.Contains(t, out, "Bread")
	txs := env.upstream.Transactions()
	require.Len(t, txs, 1)
	assert.Equal(t, int64(2), txs[0].Category.ID)
	assert.Equal(t, core.Expense, txs[0].Type)
	assert.Equal(t, "3.20", txs[0].Amount.Display())
}

func TestTxAdd_InvalidAmount(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t)

	_, err := env.run(t, "", "tx", "add", "--amount", "abc", "--category", "2")

	require.Error(t, err)
	assert.Equal(t, form.MsgInvalidInput, err.Error())
	assert.Zero(t, env.upstream.Calls(http.MethodPost, "/transactions/"))
}

func TestTxEdit_OnlyChangesGivenFlags(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t)
	tx := env.upstream.Seed(core.Transaction{
		Description: "Monthly rent",
		Date:        core.NewDate(2026, 3, 1),
		Amount:      core.NewAmount(120000),
		Type:        core.Expense,
		Category:    core.Category{ID: 3, Name: "Rent"},
	})

	out, err := env.run(t, "", "tx", "edit", "1", "--amount", "1300")

	require.NoError(t, err)
	assert.Contains(t, out, "Transaction 1 updated.")
	updated := env.upstream.Transactions()[0]
	assert.Equal(t, tx.ID, updated.ID)
	assert.Equal(t, "Monthly rent", updated.Description)
	assert.Equal(t, "1300.00", updated.Amount.Display())
	assert.Equal(t, int64(3), updated.Category.ID)

	_, err = env.run(t, "", "tx", "edit", "42", "--amount", "1")
	assert.EqualError(t, err, "transaction 42 not found")
}

func TestTxDelete(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t)
	env.upstream.Seed(core.Transaction{
		Description: "Coffee beans",
		Date:        core.NewDate(2026, 3, 2),
		Amount:      core.NewAmount(1250),
		Type:        core.Expense,
		Category:    core.Category{ID: 2, Name: "Groceries"},
	})

	out, err := env.run(t, "n\n", "tx", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, `Are you sure you want to delete "Coffee beans"?`)
	assert.Contains(t, out, "Cancelled.")
	assert.Len(t, env.upstream.Transactions(), 1)

	out, err = env.run(t, "y\n", "tx", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Transaction 1 deleted.")
	assert.Empty(t, env.upstream.Transactions())
}

func TestTx_SessionExpired(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t)
	env.upstream.RevokeAll()

	_, err := env.run(t, "", "tx", "list")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Session expired")
	_, ok := env.token(t)
	assert.False(t, ok)
}

func TestLogout(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t)

	out, err := env.run(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Are you sure you want to log out?")
	_, ok := env.token(t)
	assert.True(t, ok)

	out, err = env.run(t, "", "logout", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out.")
	_, ok = env.token(t)
	assert.False(t, ok)
}

func TestResolveCategory(t *testing.T) {
	categories := []core.Category{{ID: 1, Name: "Salary"}, {ID: 2, Name: "Groceries"}}

	assert.Equal(t, "2", resolveCategory(categories, "GROCERIES"))
	assert.Equal(t, "7", resolveCategory(categories, "7"))
	assert.Equal(t, "Travel", resolveCategory(categories, " Travel "))
}
