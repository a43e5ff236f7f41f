package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"myfiance/internal/core"
	"myfiance/internal/log"
	"myfiance/internal/session"
	"myfiance/internal/ui"
)

var errMissingCredentials = errors.New("both --email and --password are required")

func newRegisterCommand(a *app) *cobra.Command {
	var creds core.Credentials

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if creds.Email == "" || creds.Password == "" {
				return errMissingCredentials
			}
			user, err := a.client.Register(cmd.Context(), creds)
			if err != nil {
				return a.fail(err, "")
			}
			a.logger.Info("User registered", log.FieldOperation, log.OpRegister, "user_id", user.ID)
			fmt.Fprintln(cmd.OutOrStdout(), "Registration successful! You can now sign in.")
			return nil
		},
	}

	cmd.Flags().StringVar(&creds.Email, "email", "", "account email")
	cmd.Flags().StringVar(&creds.Password, "password", "", "account password")
	return cmd
}

func newLoginCommand(a *app) *cobra.Command {
	var creds core.Credentials
	var demo bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if demo {
				creds = core.DemoCredentials
			}
			if creds.Email == "" || creds.Password == "" {
				return errMissingCredentials
			}

			ctx := cmd.Context()
			token, err := a.client.Login(ctx, creds)
			if err != nil {
				return a.fail(err, "")
			}
			if err := a.session.Set(ctx, token.AccessToken); err != nil {
				return fmt.Errorf("storing session token in %s: %w", a.session.Path(), err)
			}

			who := session.Subject(token.AccessToken)
			if who == "" {
				who = creds.Email
			}
			a.logger.Info("User signed in", log.FieldOperation, log.OpLogin, "user", who)
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", who)
			return nil
		},
	}

	cmd.Flags().StringVar(&creds.Email, "email", "", "account email")
	cmd.Flags().StringVar(&creds.Password, "password", "", "account password")
	cmd.Flags().BoolVar(&demo, "demo", false, "sign in to the demo account")
	cmd.MarkFlagsMutuallyExclusive("demo", "email")
	return cmd
}

func newLogoutCommand(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				ok, err := confirm(cmd, ui.LogoutConfirmation())
				if err != nil || !ok {
					return err
				}
			}
			if err := a.session.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clearing session: %w", err)
			}
			a.logger.Info("User signed out", log.FieldOperation, log.OpLogout)
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

// confirm prints the dialog message and reads a y/N answer from stdin.
// Anything but "y" or "yes" cancels.
func confirm(cmd *cobra.Command, c ui.Confirmation) (bool, error) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s [y/N]: ", c.Message)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	fmt.Fprintln(out, "Cancelled.")
	return false, nil
}
