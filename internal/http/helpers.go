package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

var errInvalidID = errors.New("invalid transaction id")

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// navigation records where the API client wants the browser to go. The
// handler turns a recorded route into a redirect once the call returns.
type navigation struct {
	mu    sync.Mutex
	route string
	count int
}

func (n *navigation) Navigate(_ context.Context, route string) {
	n.mu.Lock()
	n.route = route
	n.count++
	n.mu.Unlock()
}

// target returns the recorded route, if any.
func (n *navigation) target() (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.route, n.count > 0
}
