package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"myfiance/internal/core"
)

func (c *Client) Register(ctx context.Context, creds core.Credentials) (core.User, error) {
	var user core.User
	_, err := c.Fetch(ctx, http.MethodPost, "/users/register", creds, &user)
	return user, err
}

// Login exchanges credentials for a token. It posts a form body straight to
// the token endpoint: a 401 here means wrong credentials, not an expired
// session, so it never clears the session or navigates.
func (c *Client) Login(ctx context.Context, creds core.Credentials) (core.Token, error) {
	form := url.Values{}
	form.Set("username", creds.Email)
	if creds.Password != "" {
		form.Set("password", creds.Password)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/users/token", form)
	if err != nil {
		return core.Token{}, err
	}
	resp, err := c.do(req)
	if err != nil {
		return core.Token{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return core.Token{}, fmt.Errorf("%w: read token response: %v", ErrNetwork, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return core.Token{}, &Error{Status: resp.StatusCode, Message: errorMessage(raw, MsgInvalidCredentials)}
	}

	var token core.Token
	if err := json.Unmarshal(raw, &token); err != nil {
		return core.Token{}, fmt.Errorf("%w: decode token response: %v", ErrNetwork, err)
	}
	return token, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]core.Category, error) {
	var categories []core.Category
	if _, err := c.Fetch(ctx, http.MethodGet, "/categories/", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (c *Client) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	var txs []core.Transaction
	if _, err := c.Fetch(ctx, http.MethodGet, "/transactions/", nil, &txs); err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	return txs, nil
}

func (c *Client) CreateTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	var tx core.Transaction
	_, err := c.Fetch(ctx, http.MethodPost, "/transactions/", in, &tx)
	return tx, err
}

func (c *Client) UpdateTransaction(ctx context.Context, id int64, in core.TransactionInput) (core.Transaction, error) {
	var tx core.Transaction
	_, err := c.Fetch(ctx, http.MethodPut, fmt.Sprintf("/transactions/%d", id), in, &tx)
	return tx, err
}

// DeleteTransaction reports whether the API confirmed the deletion, either
// with 204 or with a 2xx body.
func (c *Client) DeleteTransaction(ctx context.Context, id int64) (bool, error) {
	if _, err := c.Fetch(ctx, http.MethodDelete, fmt.Sprintf("/transactions/%d", id), nil, nil); err != nil {
		return false, err
	}
	return true, nil
}
