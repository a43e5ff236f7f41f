// Package form implements the controlled create/edit transaction form.
package form

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"myfiance/internal/api"
	"myfiance/internal/core"
	"myfiance/internal/log"
)

const MsgInvalidInput = "Please enter a valid amount and category."

type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// Field names accepted by Set; they match the HTML input names.
const (
	FieldDescription = "description"
	FieldAmount      = "amount"
	FieldDate        = "transaction_date"
	FieldCategoryID  = "category_id"
	FieldType        = "type"
)

var ErrUnknownField = errors.New("unknown form field")

// CategoryLoader fetches the category options.
type CategoryLoader interface {
	ListCategories(ctx context.Context) ([]core.Category, error)
}

// SubmitHandler persists a validated input.
type SubmitHandler func(ctx context.Context, in core.TransactionInput) error

// Values are the raw strings of the form inputs.
type Values struct {
	Description string
	Amount      string
	Date        string
	CategoryID  string
	Type        core.TransactionType
}

type TransactionForm struct {
	mu         sync.Mutex
	mode       Mode
	editingID  int64
	values     Values
	categories []core.Category
	loaded     bool
	err        string
	logger     *log.Logger
}

// NewCreate returns an empty form. The date defaults to today and the type to expense.
func NewCreate(today time.Time) *TransactionForm {
	return &TransactionForm{
		mode: ModeCreate,
		values: Values{
			Date: today.Format(core.DateLayout),
			Type: core.Expense,
		},
		logger: log.Discard(),
	}
}

// NewEdit returns a form pre-populated from tx.
func NewEdit(tx core.Transaction) *TransactionForm {
	in := tx.Input()
	return &TransactionForm{
		mode:      ModeEdit,
		editingID: tx.ID,
		values: Values{
			Description: in.Description,
			Amount:      in.Amount.Display(),
			Date:        in.Date,
			CategoryID:  formatID(in.CategoryID),
			Type:        in.Type,
		},
		logger: log.Discard(),
	}
}

func (f *TransactionForm) WithLogger(l *log.Logger) *TransactionForm {
	f.logger = l.WithComponent(log.ComponentForm)
	return f
}

func (f *TransactionForm) Mode() Mode { return f.mode }

// EditingID is the id of the transaction being edited, zero in create mode.
func (f *TransactionForm) EditingID() int64 { return f.editingID }

func (f *TransactionForm) Values() Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

func (f *TransactionForm) Categories() []core.Category {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.categories
}

// Error is the inline error message, empty when there is none.
func (f *TransactionForm) Error() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// LoadCategories fetches the category options the first time it is called.
// A failure is logged and leaves the options empty.
func (f *TransactionForm) LoadCategories(ctx context.Context, loader CategoryLoader) {
	f.mu.Lock()
	if f.loaded {
		f.mu.Unlock()
		return
	}
	f.loaded = true
	f.mu.Unlock()

	categories, err := loader.ListCategories(ctx)
	if err != nil {
		f.logger.ErrorContext(ctx, "Failed to load categories", log.FieldError, err)
		return
	}

	f.mu.Lock()
	f.categories = categories
	f.mu.Unlock()
}

// Set updates one input.
func (f *TransactionForm) Set(field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch field {
	case FieldDescription:
		f.values.Description = value
	case FieldAmount:
		f.values.Amount = value
	case FieldDate:
		f.values.Date = value
	case FieldCategoryID:
		f.values.CategoryID = value
	case FieldType:
		f.values.Type = core.TransactionType(value)
	default:
		return ErrUnknownField
	}
	return nil
}

// Submit coerces the inputs and hands them to handler. When the amount or
// category does not parse, the inline error is set and handler is not
// called. A handler failure becomes the inline error too.
func (f *TransactionForm) Submit(ctx context.Context, handler SubmitHandler) error {
	f.mu.Lock()
	f.err = ""
	values := f.values
	f.mu.Unlock()

	amount, amountErr := core.ParseAmount(values.Amount)
	categoryID, categoryErr := core.ParseCategoryID(values.CategoryID)
	if amountErr != nil || categoryErr != nil {
		f.setError(MsgInvalidInput)
		return errors.Join(amountErr, categoryErr)
	}

	in := core.TransactionInput{
		Amount:      amount,
		Description: values.Description,
		Date:        values.Date,
		CategoryID:  categoryID,
		Type:        values.Type,
	}

	if err := handler(ctx, in); err != nil {
		f.setError(message(err))
		f.logger.WarnContext(ctx, "Transaction submit failed",
			log.NewFields().
				WithOperation(f.mode.String()).
				WithTransaction(f.editingID, string(in.Type), in.Amount.String(), in.CategoryID).
				WithError(err).ToSlice()...)
		return err
	}
	return nil
}

func (f *TransactionForm) setError(msg string) {
	f.mu.Lock()
	f.err = msg
	f.mu.Unlock()
}

func formatID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

func message(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidDate):
		return "Please enter a valid date."
	case errors.Is(err, core.ErrInvalidType):
		return "Please choose income or expense."
	}
	return api.Message(err)
}
