package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
)

// ErrStateMismatch is returned when the callback's state does not match the one issued.
var ErrStateMismatch = errors.New("invalid state parameter")

// CallbackResult is the outcome of an authorization code callback.
type CallbackResult struct {
	Token *oauth2.Token
	Err   error
}

// CallbackHandler completes an authorization code flow for one request.
type CallbackHandler struct {
	config *oauth2.Config
	state  string
	path   string
	result chan CallbackResult

	mu  sync.Mutex
	hit bool
}

// NewCallbackHandler serves path, accepting only callbacks carrying state.
// The state should be random and used once.
func NewCallbackHandler(config *oauth2.Config, state, path string) *CallbackHandler {
	if path == "" {
		path = "/callback"
	}
	return &CallbackHandler{
		config: config,
		state:  state,
		path:   path,
		result: make(chan CallbackResult, 1),
	}
}

// Routes returns the callback path.
func (h *CallbackHandler) Routes() []string {
	return []string{h.path}
}

// AuthCodeURL is the URL the user opens to grant access.
func (h *CallbackHandler) AuthCodeURL() string {
	return h.config.AuthCodeURL(h.state)
}

func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.hit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.hit = true
	h.mu.Unlock()

	q := r.URL.Query()
	if q.Get("state") != h.state {
		h.deliver(CallbackResult{Err: ErrStateMismatch})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := q.Get("code")
	if code == "" {
		h.deliver(CallbackResult{Err: fmt.Errorf("authorization failed: %s - %s", q.Get("error"), q.Get("error_description"))})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	token, err := h.config.Exchange(r.Context(), code)
	if err != nil {
		h.deliver(CallbackResult{Err: fmt.Errorf("token exchange failed: %w", err)})
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	h.deliver(CallbackResult{Token: token})
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, `<!DOCTYPE html>
<html><head><title>ytmigrate</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 20vh">
<h1>Authorization successful</h1>
<p>You can close this window and return to the terminal.</p>
</body></html>
`)
}

// deliver never blocks: the channel holds the single result.
func (h *CallbackHandler) deliver(res CallbackResult) {
	h.result <- res
}

// Wait blocks until the callback arrives or ctx ends.
func (h *CallbackHandler) Wait(ctx context.Context) (*oauth2.Token, error) {
	select {
	case res := <-h.result:
		return res.Token, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
