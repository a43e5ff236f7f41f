package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

type ClientState struct {
	SessionID string
	Key       string
	Value     string
	UpdatedAt int64
}

const getClientState = `-- name: GetClientState :one
SELECT session_id, key, value, updated_at FROM client_state
WHERE session_id = ? AND key = ?
`

type GetClientStateParams struct {
	SessionID string
	Key       string
}

func (q *Queries) GetClientState(ctx context.Context, arg GetClientStateParams) (ClientState, error) {
	row := q.db.QueryRowContext(ctx, getClientState, arg.SessionID, arg.Key)
	var i ClientState
	err := row.Scan(&i.SessionID, &i.Key, &i.Value, &i.UpdatedAt)
	return i, err
}

const upsertClientState = `-- name: UpsertClientState :exec
INSERT INTO client_state (session_id, key, value, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (session_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
`

type UpsertClientStateParams struct {
	SessionID string
	Key       string
	Value     string
	UpdatedAt int64
}

func (q *Queries) UpsertClientState(ctx context.Context, arg UpsertClientStateParams) error {
	_, err := q.db.ExecContext(ctx, upsertClientState, arg.SessionID, arg.Key, arg.Value, arg.UpdatedAt)
	return err
}

const deleteClientState = `-- name: DeleteClientState :exec
DELETE FROM client_state WHERE session_id = ? AND key = ?
`

type DeleteClientStateParams struct {
	SessionID string
	Key       string
}

func (q *Queries) DeleteClientState(ctx context.Context, arg DeleteClientStateParams) error {
	_, err := q.db.ExecContext(ctx, deleteClientState, arg.SessionID, arg.Key)
	return err
}

const deleteSession = `-- name: DeleteSession :exec
DELETE FROM client_state WHERE session_id = ?
`

func (q *Queries) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := q.db.ExecContext(ctx, deleteSession, sessionID)
	return err
}

const deleteStaleClientState = `-- name: DeleteStaleClientState :execrows
DELETE FROM client_state WHERE updated_at < ?
`

func (q *Queries) DeleteStaleClientState(ctx context.Context, before int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteStaleClientState, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
