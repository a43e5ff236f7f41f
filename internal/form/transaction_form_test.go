package form

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myfiance/internal/api"
	"myfiance/internal/core"
)

type stubLoader struct {
	categories []core.Category
	err        error
	calls      int
}

func (s *stubLoader) ListCategories(context.Context) ([]core.Category, error) {
	s.calls++
	return s.categories, s.err
}

func TestNewCreate_Defaults(t *testing.T) {
	f := NewCreate(time.Date(2025, 6, 15, 18, 0, 0, 0, time.UTC))
	v := f.Values()
	assert.Equal(t, ModeCreate, f.Mode())
	assert.Equal(t, "2025-06-15", v.Date)
	assert.Equal(t, core.Expense, v.Type)
	assert.Empty(t, v.Amount)
	assert.Zero(t, f.EditingID())
}

func TestNewEdit_PrePopulates(t *testing.T) {
	var tx core.Transaction
	tx.ID = 7
	tx.Description = "Groceries"
	tx.Amount = core.NewAmount(4210)
	tx.Type = core.Expense
	tx.Category = core.Category{ID: 2, Name: "Groceries"}
	date, err := core.ParseDate("2025-03-09T14:22:00")
	require.NoError(t, err)
	tx.Date = date

	f := NewEdit(tx)
	v := f.Values()
	assert.Equal(t, ModeEdit, f.Mode())
	assert.Equal(t, int64(7), f.EditingID())
	assert.Equal(t, "2025-03-09", v.Date)
	assert.Equal(t, "42.10", v.Amount)
	assert.Equal(t, "2", v.CategoryID)
	assert.Equal(t, "Groceries", v.Description)
}

func TestSubmit_InvalidAmountNeverCallsHandler(t *testing.T) {
	for _, tc := range []struct{ amount, category string }{
		{"abc", "1"},
		{"", "1"},
		{"10", ""},
		{"10", "food"},
	} {
		f := NewCreate(time.Now())
		require.NoError(t, f.Set(FieldAmount, tc.amount))
		require.NoError(t, f.Set(FieldCategoryID, tc.category))

		called := false
		err := f.Submit(context.Background(), func(context.Context, core.TransactionInput) error {
			called = true
			return nil
		})
		assert.Error(t, err)
		assert.False(t, called, "amount=%q category=%q", tc.amount, tc.category)
		assert.Equal(t, MsgInvalidInput, f.Error())
	}
}

func TestSubmit_PassesCoercedInput(t *testing.T) {
	f := NewCreate(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, f.Set(FieldDescription, "Dinner"))
	require.NoError(t, f.Set(FieldAmount, "23,40"))
	require.NoError(t, f.Set(FieldCategoryID, "2"))

	var got core.TransactionInput
	err := f.Submit(context.Background(), func(_ context.Context, in core.TransactionInput) error {
		got = in
		return nil
	})
	require.NoError(t, err)
	assert.Empty(t, f.Error())
	assert.Equal(t, "23.4", got.Amount.String())
	assert.Equal(t, int64(2), got.CategoryID)
	assert.Equal(t, "2025-01-02", got.Date)
	assert.Equal(t, core.Expense, got.Type)
	assert.Equal(t, "Dinner", got.Description)
}

func TestSubmit_HandlerErrorShownInline(t *testing.T) {
	f := NewCreate(time.Now())
	require.NoError(t, f.Set(FieldAmount, "5"))
	require.NoError(t, f.Set(FieldCategoryID, "9"))

	err := f.Submit(context.Background(), func(context.Context, core.TransactionInput) error {
		return &api.Error{Status: 404, Message: "Category not found"}
	})
	require.Error(t, err)
	assert.Equal(t, "Category not found", f.Error())

	err = f.Submit(context.Background(), func(context.Context, core.TransactionInput) error {
		return nil
	})
	require.NoError(t, err)
	assert.Empty(t, f.Error(), "a new submit clears the previous error")
}

func TestSubmit_ValidationErrorMessages(t *testing.T) {
	f := NewCreate(time.Now())
	require.NoError(t, f.Set(FieldAmount, "5"))
	require.NoError(t, f.Set(FieldCategoryID, "1"))

	_ = f.Submit(context.Background(), func(context.Context, core.TransactionInput) error {
		return core.ErrInvalidDate
	})
	assert.Equal(t, "Please enter a valid date.", f.Error())

	_ = f.Submit(context.Background(), func(context.Context, core.TransactionInput) error {
		return errors.New("socket closed")
	})
	assert.Equal(t, api.MsgGeneric, f.Error())
}

func TestLoadCategories_OnlyOnce(t *testing.T) {
	loader := &stubLoader{categories: []core.Category{{ID: 1, Name: "Salary"}}}
	f := NewCreate(time.Now())

	f.LoadCategories(context.Background(), loader)
	f.LoadCategories(context.Background(), loader)

	assert.Equal(t, 1, loader.calls)
	assert.Equal(t, loader.categories, f.Categories())
}

func TestLoadCategories_FailureLeavesOptionsEmpty(t *testing.T) {
	loader := &stubLoader{err: errors.New("down")}
	f := NewCreate(time.Now())

	f.LoadCategories(context.Background(), loader)

	assert.Empty(t, f.Categories())
	assert.Empty(t, f.Error())
}

func TestSet_UnknownField(t *testing.T) {
	f := NewCreate(time.Now())
	assert.ErrorIs(t, f.Set("colour", "red"), ErrUnknownField)
}
