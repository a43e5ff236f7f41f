package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// DateLayout is the wire and form format of transaction dates.
const DateLayout = "2006-01-02"

type (
	TransactionType string

	Date struct {
		time.Time
	}

	// Category is read-only reference data served by the API.
	Category struct {
		ID   int64  `json:"category_id"`
		Name string `json:"category_name"`
	}

	Transaction struct {
		ID          int64           `json:"transaction_id"`
		Description string          `json:"description"`
		Date        Date            `json:"transaction_date"`
		Amount      Amount          `json:"amount"`
		Type        TransactionType `json:"type"`
		Category    Category        `json:"category"`
	}

	// TransactionInput is the payload sent on create and update.
	TransactionInput struct {
		Amount      Amount          `json:"amount"`
		Description string          `json:"description"`
		Date        string          `json:"transaction_date"`
		CategoryID  int64           `json:"category_id"`
		Type        TransactionType `json:"type"`
	}

	Credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	User struct {
		ID        int64     `json:"user_id"`
		Email     string    `json:"email"`
		Username  string    `json:"username"`
		CreatedAt time.Time `json:"created_at"`
	}

	Token struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
)

// DemoCredentials sign in to the shared guest account.
var DemoCredentials = Credentials{Email: "demo@example.com", Password: "demopassword"}

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrInvalidDate     = errors.New("invalid date")
)

// ParseTransactionType accepts "income" or "expense" in any case.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToLower(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	}
	return "", ErrInvalidType
}

// Sign returns "+" for income and "-" for expenses.
func (t TransactionType) Sign() string {
	if t == Income {
		return "+"
	}
	return "-"
}

// ParseDate accepts a bare date or a timestamp; anything after the 'T' is dropped.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		s = s[:i]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Input converts a stored transaction back into the payload shape used by the edit form.
func (t Transaction) Input() TransactionInput {
	return TransactionInput{
		Amount:      t.Amount,
		Description: t.Description,
		Date:        t.Date.String(),
		CategoryID:  t.Category.ID,
		Type:        t.Type,
	}
}

func (in TransactionInput) Validate() error {
	if in.CategoryID <= 0 {
		return ErrInvalidCategory
	}
	if _, err := ParseTransactionType(string(in.Type)); err != nil {
		return err
	}
	return nil
}
