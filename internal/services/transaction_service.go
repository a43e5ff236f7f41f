package services

import (
	"context"
	"errors"

	"myfiance/internal/amqp"
	"myfiance/internal/core"
	"myfiance/internal/log"
)

// TransactionAPI is the part of the finance API client that mutates and
// lists transactions.
type TransactionAPI interface {
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	CreateTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, id int64, in core.TransactionInput) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) (bool, error)
}

// EventPublisher sends activity events. *amqp.Client implements it.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, msg *amqp.TransactionEvent) error
}

// TransactionService forwards transaction calls to the API and announces
// every successful mutation. Publishing is best effort: a failure is logged
// and never fails the user action.
type TransactionService struct {
	api       TransactionAPI
	publisher EventPublisher
	logger    *log.Logger
}

func NewTransactionService(api TransactionAPI, publisher EventPublisher, logger *log.Logger) *TransactionService {
	if logger == nil {
		logger = log.Discard()
	}
	return &TransactionService{
		api:       api,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentAMQP),
	}
}

func (s *TransactionService) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return s.api.ListTransactions(ctx)
}

func (s *TransactionService) CreateTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	tx, err := s.api.CreateTransaction(ctx, in)
	if err != nil {
		return tx, err
	}
	s.publish(ctx, amqp.NewTransactionEvent(amqp.EventTransactionCreated, tx))
	return tx, nil
}

func (s *TransactionService) UpdateTransaction(ctx context.Context, id int64, in core.TransactionInput) (core.Transaction, error) {
	tx, err := s.api.UpdateTransaction(ctx, id, in)
	if err != nil {
		return tx, err
	}
	s.publish(ctx, amqp.NewTransactionEvent(amqp.EventTransactionUpdated, tx))
	return tx, nil
}

func (s *TransactionService) DeleteTransaction(ctx context.Context, id int64) (bool, error) {
	ok, err := s.api.DeleteTransaction(ctx, id)
	if err != nil || !ok {
		return ok, err
	}
	s.publish(ctx, amqp.NewDeletedEvent(id))
	return true, nil
}

func (s *TransactionService) publish(ctx context.Context, msg *amqp.TransactionEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, msg); err != nil {
		level := s.logger.ErrorContext
		if errors.Is(err, amqp.ErrCircuitOpen) {
			level = s.logger.WarnContext
		}
		level(ctx, "Failed to publish transaction event",
			log.FieldEvent, msg.Event, log.FieldTransactionID, msg.TransactionID, log.FieldError, err)
	}
}
