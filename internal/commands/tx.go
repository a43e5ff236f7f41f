package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"myfiance/internal/core"
	"myfiance/internal/dashboard"
	"myfiance/internal/form"
	"myfiance/internal/ui"
)

func newTxCommand(a *app) *cobra.Command {
	txCmd := &cobra.Command{
		Use:     "tx",
		Aliases: []string{"transactions"},
		Short:   "List and change transactions",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.setup()
			return a.requireSession(cmd.Context())
		},
	}
	txCmd.AddCommand(
		newTxListCommand(a),
		newTxAddCommand(a),
		newTxEditCommand(a),
		newTxDeleteCommand(a),
	)
	return txCmd
}

func newTxListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show all transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := a.mount(cmd)
			if err != nil {
				return err
			}
			printList(cmd, ctrl.State())
			return nil
		},
	}
}

// txFlags are the inputs of add and edit, named after the form fields.
type txFlags struct {
	description string
	amount      string
	date        string
	category    string
	txType      string
}

func (f *txFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.description, "description", "", "what the money was for")
	cmd.Flags().StringVar(&f.amount, "amount", "", "amount, e.g. 12.50 or 12,50")
	cmd.Flags().StringVar(&f.date, "date", "", "transaction date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.category, "category", "", "category id or name")
	cmd.Flags().StringVar(&f.txType, "type", "", "income or expense")
}

// apply copies the flags the user passed into tf. In create mode every flag
// is applied so that defaults reach the form.
func (f *txFlags) apply(cmd *cobra.Command, tf *form.TransactionForm, all bool) {
	set := func(flag, field, value string) {
		if all || cmd.Flags().Changed(flag) {
			_ = tf.Set(field, value)
		}
	}
	set("description", form.FieldDescription, f.description)
	set("amount", form.FieldAmount, f.amount)
	if f.date != "" {
		set("date", form.FieldDate, f.date)
	}
	set("category", form.FieldCategoryID, resolveCategory(tf.Categories(), f.category))
	if f.txType != "" {
		set("type", form.FieldType, strings.ToLower(f.txType))
	}
}

// resolveCategory maps a category name to its id. Ids and unknown names are
// returned unchanged so that the form reports them.
func resolveCategory(categories []core.Category, value string) string {
	value = strings.TrimSpace(value)
	if _, err := strconv.ParseInt(value, 10, 64); err == nil {
		return value
	}
	for _, c := range categories {
		if strings.EqualFold(c.Name, value) {
			return strconv.FormatInt(c.ID, 10)
		}
	}
	return value
}

func newTxAddCommand(a *app) *cobra.Command {
	var flags txFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctrl := dashboard.NewController(a.logger)
			ctrl.OpenCreate()

			tf := form.NewCreate(a.now()).WithLogger(a.logger)
			tf.LoadCategories(ctx, a.client)
			if a.expired {
				return a.fail(nil, "")
			}
			flags.apply(cmd, tf, true)

			svc := a.transactions()
			if err := tf.Submit(ctx, ctrl.SubmitHandler(svc)); err != nil {
				return a.fail(err, tf.Error())
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Transaction saved.")
			printList(cmd, ctrl.State())
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func newTxEditCommand(a *app) *cobra.Command {
	var flags txFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			ctrl, err := a.mount(cmd)
			if err != nil {
				return err
			}
			tx, err := ctrl.OpenEdit(id)
			if err != nil {
				return fmt.Errorf("transaction %d not found", id)
			}

			tf := form.NewEdit(tx).WithLogger(a.logger)
			tf.LoadCategories(ctx, a.client)
			flags.apply(cmd, tf, false)

			if err := tf.Submit(ctx, ctrl.SubmitHandler(a.transactions())); err != nil {
				return a.fail(err, tf.Error())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Transaction %d updated.\n", id)
			printList(cmd, ctrl.State())
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func newTxDeleteCommand(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctrl, err := a.mount(cmd)
			if err != nil {
				return err
			}
			tx, err := ctrl.RequestDelete(id)
			if err != nil {
				return fmt.Errorf("transaction %d not found", id)
			}
			if !yes {
				ok, err := confirm(cmd, ui.DeleteConfirmation(tx.Description, ""))
				if err != nil || !ok {
					ctrl.Cancel()
					return err
				}
			}

			st, err := ctrl.ConfirmDelete(cmd.Context(), a.transactions())
			if err != nil {
				return a.fail(err, st.Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Transaction %d deleted.\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

// mount loads the list into a fresh dashboard controller.
func (a *app) mount(cmd *cobra.Command) (*dashboard.Controller, error) {
	ctrl := dashboard.NewController(a.logger)
	st := ctrl.Mount(cmd.Context(), a.transactions())
	if st.Status == dashboard.StatusError {
		return nil, a.fail(errors.New(st.Error), st.Error)
	}
	return ctrl, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid transaction id %q", s)
	}
	return id, nil
}

func printList(cmd *cobra.Command, st dashboard.State) {
	out := cmd.OutOrStdout()
	if st.Empty() {
		fmt.Fprintln(out, dashboard.MsgEmpty)
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tDESCRIPTION\tCATEGORY\tAMOUNT")
	for _, tx := range st.Transactions {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			tx.ID, tx.Date, tx.Description, tx.Category.Name, core.FormatSigned(tx.Type, tx.Amount))
	}
	_ = w.Flush()
}
