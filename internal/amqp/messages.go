package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"myfiance/internal/core"
)

type EventType string

const (
	EventTransactionCreated EventType = "transaction.created"
	EventTransactionUpdated EventType = "transaction.updated"
	EventTransactionDeleted EventType = "transaction.deleted"
)

var ErrUnknownEvent = errors.New("unknown event type")

// TransactionEvent announces a successful mutation made through the dashboard
// or the CLI. Transaction is nil for deletions.
type TransactionEvent struct {
	Event         EventType         `json:"event"`
	TransactionID int64             `json:"transaction_id"`
	Transaction   *core.Transaction `json:"transaction,omitempty"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

func NewTransactionEvent(event EventType, tx core.Transaction) *TransactionEvent {
	msg := &TransactionEvent{
		Event:         event,
		TransactionID: tx.ID,
		OccurredAt:    time.Now().UTC(),
	}
	if event != EventTransactionDeleted {
		msg.Transaction = &tx
	}
	return msg
}

func NewDeletedEvent(id int64) *TransactionEvent {
	return &TransactionEvent{
		Event:         EventTransactionDeleted,
		TransactionID: id,
		OccurredAt:    time.Now().UTC(),
	}
}

func (m *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventFromJSON decodes and checks a message body.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var msg TransactionEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Event {
	case EventTransactionCreated, EventTransactionUpdated:
		if msg.Transaction == nil {
			return nil, fmt.Errorf("%s without transaction", msg.Event)
		}
	case EventTransactionDeleted:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, msg.Event)
	}
	if msg.TransactionID == 0 {
		return nil, errors.New("missing transaction_id")
	}
	return &msg, nil
}
