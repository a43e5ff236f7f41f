// Package ui holds the view models of the overlay primitives shared by the
// dashboard and the header.
package ui

import "net/http"

// Modal is a generic overlay. Body is rendered by the template named in
// Content with Data as its dot.
type Modal struct {
	ID      string
	Title   string
	Open    bool
	Content string
	Data    any
}

// Confirmation is a yes/no dialog whose confirm button issues Method Action.
type Confirmation struct {
	ID           string
	Title        string
	Message      string
	ConfirmLabel string
	CancelLabel  string
	Action       string
	Method       string
	Danger       bool
}

func NewModal(id, title, content string, data any) Modal {
	return Modal{ID: id, Title: title, Open: true, Content: content, Data: data}
}

func Closed(id string) Modal {
	return Modal{ID: id}
}

// Confirm builds an open confirmation with the default labels.
func Confirm(id, title, message, method, action string) Confirmation {
	if method == "" {
		method = http.MethodPost
	}
	return Confirmation{
		ID:           id,
		Title:        title,
		Message:      message,
		ConfirmLabel: "Confirm",
		CancelLabel:  "Cancel",
		Action:       action,
		Method:       method,
	}
}

func (c Confirmation) WithLabels(confirm, cancel string) Confirmation {
	if confirm != "" {
		c.ConfirmLabel = confirm
	}
	if cancel != "" {
		c.CancelLabel = cancel
	}
	return c
}

func (c Confirmation) AsDanger() Confirmation {
	c.Danger = true
	return c
}

// HxAttr is the htmx attribute carrying the confirm request, e.g. "hx-delete".
func (c Confirmation) HxAttr() string {
	switch c.Method {
	case http.MethodDelete:
		return "hx-delete"
	case http.MethodPut:
		return "hx-put"
	case http.MethodGet:
		return "hx-get"
	}
	return "hx-post"
}

// LogoutConfirmation is the header's sign-out dialog.
func LogoutConfirmation() Confirmation {
	return Confirm("logout-confirm", "Log out", "Are you sure you want to log out?", http.MethodPost, "/logout").
		WithLabels("Log out", "Cancel")
}

// DeleteConfirmation asks before removing the transaction at action.
func DeleteConfirmation(description, action string) Confirmation {
	msg := "Are you sure you want to delete this transaction?"
	if description != "" {
		msg = "Are you sure you want to delete \"" + description + "\"?"
	}
	return Confirm("delete-confirm", "Delete transaction", msg, http.MethodDelete, action).
		WithLabels("Delete", "Cancel").
		AsDanger()
}
