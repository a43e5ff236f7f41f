// Package dashboard holds the transaction list page as a typed state and a
// pure reducer, plus a Controller that performs the API calls and feeds the
// results back as messages.
package dashboard

import (
	"slices"

	"myfiance/internal/core"
)

const MsgEmpty = "You have no transactions yet."

type Status int

const (
	StatusLoading Status = iota
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	}
	return "loading"
}

type ModalKind int

const (
	ModalClosed ModalKind = iota
	ModalCreate
	ModalEdit
	ModalConfirmDelete
)

func (m ModalKind) String() string {
	switch m {
	case ModalCreate:
		return "create-open"
	case ModalEdit:
		return "edit-open"
	case ModalConfirmDelete:
		return "confirm-delete"
	}
	return "closed"
}

type State struct {
	Status       Status
	Transactions []core.Transaction
	Error        string
	Modal        ModalKind
	// Target is the transaction the edit or delete modal refers to.
	Target int64
	// Generation is the number of the latest list fetch issued.
	Generation uint64
}

// Empty reports whether the ready list has no transactions.
func (s State) Empty() bool {
	return s.Status == StatusReady && len(s.Transactions) == 0
}

// Find returns the listed transaction with id.
func (s State) Find(id int64) (core.Transaction, bool) {
	i := slices.IndexFunc(s.Transactions, func(tx core.Transaction) bool { return tx.ID == id })
	if i < 0 {
		return core.Transaction{}, false
	}
	return s.Transactions[i], true
}

// Msg is an event reduced into State.
type Msg interface{ isMsg() }

type (
	FetchStarted   struct{ Generation uint64 }
	FetchSucceeded struct {
		Generation   uint64
		Transactions []core.Transaction
	}
	FetchFailed struct {
		Generation uint64
		Err        string
	}
	CreateOpened    struct{}
	EditOpened      struct{ ID int64 }
	DeleteRequested struct{ ID int64 }
	ModalDismissed  struct{}
	Deleted         struct{ ID int64 }
	Failed          struct{ Err string }
)

func (FetchStarted) isMsg()    {}
func (FetchSucceeded) isMsg()  {}
func (FetchFailed) isMsg()     {}
func (CreateOpened) isMsg()    {}
func (EditOpened) isMsg()      {}
func (DeleteRequested) isMsg() {}
func (ModalDismissed) isMsg()  {}
func (Deleted) isMsg()         {}
func (Failed) isMsg()          {}

// Reduce returns the state after msg. It never mutates s.Transactions.
func Reduce(s State, msg Msg) State {
	switch m := msg.(type) {
	case FetchStarted:
		if m.Generation > s.Generation {
			s.Generation = m.Generation
		}
		s.Status = StatusLoading
		s.Error = ""
	case FetchSucceeded:
		if m.Generation < s.Generation {
			return s
		}
		s.Status = StatusReady
		s.Transactions = m.Transactions
		if s.Transactions == nil {
			s.Transactions = []core.Transaction{}
		}
		s.Error = ""
	case FetchFailed:
		if m.Generation < s.Generation {
			return s
		}
		s.Status = StatusError
		s.Error = m.Err
	case CreateOpened:
		s.Modal = ModalCreate
		s.Target = 0
	case EditOpened:
		s.Modal = ModalEdit
		s.Target = m.ID
	case DeleteRequested:
		s.Modal = ModalConfirmDelete
		s.Target = m.ID
	case ModalDismissed:
		s.Modal = ModalClosed
		s.Target = 0
	case Deleted:
		s.Transactions = slices.DeleteFunc(slices.Clone(s.Transactions), func(tx core.Transaction) bool {
			return tx.ID == m.ID
		})
		if s.Modal == ModalConfirmDelete && s.Target == m.ID {
			s.Modal = ModalClosed
			s.Target = 0
		}
	case Failed:
		s.Status = StatusError
		s.Error = m.Err
	}
	return s
}
