// Package commands implements the myfiance command-line client. It signs in
// against the same finance API as the web client and keeps the token in a
// JSON state file.
package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"myfiance/internal/api"
	"myfiance/internal/config"
	"myfiance/internal/log"
	"myfiance/internal/services"
	"myfiance/internal/session"
)

var errNotSignedIn = fmt.Errorf("%w: run 'myfiance login' first", session.ErrNoSession)

// app is the state shared by all subcommands of one invocation.
type app struct {
	apiURL    string
	stateFile string
	timeout   time.Duration
	logger    *log.Logger
	now       func() time.Time

	session *session.File
	client  *api.Client
	expired bool
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand(cfg *config.Config, logger *log.Logger) *cobra.Command {
	if logger == nil {
		logger = log.Discard()
	}
	a := &app{
		timeout: cfg.APITimeout,
		logger:  logger.WithComponent(log.ComponentCLI),
		now:     time.Now,
	}

	rootCmd := &cobra.Command{
		Use:   "myfiance",
		Short: "Track income and expenses against the MyFiance API",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.setup()
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.apiURL, "api", cfg.APIBaseURL, "finance API base URL")
	rootCmd.PersistentFlags().StringVar(&a.stateFile, "state", cfg.StateFile, "file holding the session token")

	rootCmd.AddCommand(
		newRegisterCommand(a),
		newLoginCommand(a),
		newLogoutCommand(a),
		newTxCommand(a),
	)
	return rootCmd
}

func (a *app) setup() {
	if a.client != nil {
		return
	}
	a.session = session.NewFile(a.stateFile)
	opts := []api.Option{api.WithLogger(a.logger)}
	if a.timeout > 0 {
		opts = append(opts, api.WithTimeout(a.timeout))
	}
	a.client = api.New(a.apiURL, opts...).WithSession(a.session, api.NavigatorFunc(func(context.Context, string) {
		a.expired = true
	}))
}

// requireSession refuses to run a protected command without a stored token.
func (a *app) requireSession(ctx context.Context) error {
	if _, ok := a.session.Get(ctx); !ok {
		return errNotSignedIn
	}
	return nil
}

func (a *app) transactions() *services.TransactionService {
	return services.NewTransactionService(a.client, nil, a.logger)
}

// userError shows the user-facing message of an API failure while keeping
// the cause for errors.Is.
type userError struct {
	msg string
	err error
}

func (e *userError) Error() string { return e.msg }
func (e *userError) Unwrap() error { return e.err }

func (a *app) fail(err error, msg string) error {
	if a.expired || errors.Is(err, api.ErrSessionExpired) {
		return &userError{msg: api.MsgSessionExpired + " Run 'myfiance login'.", err: api.ErrSessionExpired}
	}
	if msg == "" {
		msg = api.Message(err)
	}
	return &userError{msg: msg, err: err}
}
