// Package sheets exports transaction activity to a spreadsheet ledger.
package sheets

import (
	"context"
	"strconv"
	"time"

	"myfiance/internal/amqp"
)

// LedgerHeader names the columns written by LedgerWriter implementations.
var LedgerHeader = []string{"occurred_at", "event", "id", "date", "description", "type", "amount", "category"}

type LedgerWriter interface {
	// AppendEvent writes one ledger row and returns a reference to it.
	AppendEvent(ctx context.Context, ev *amqp.TransactionEvent) (rowRef string, err error)
}

// LedgerRow flattens an event into the LedgerHeader columns. Deletions only
// carry the id.
func LedgerRow(ev *amqp.TransactionEvent) []string {
	row := []string{
		ev.OccurredAt.UTC().Format(time.RFC3339),
		string(ev.Event),
		strconv.FormatInt(ev.TransactionID, 10),
		"", "", "", "", "",
	}
	if tx := ev.Transaction; tx != nil {
		row[3] = tx.Date.String()
		row[4] = tx.Description
		row[5] = string(tx.Type)
		row[6] = tx.Amount.Display()
		row[7] = tx.Category.Name
	}
	return row
}
