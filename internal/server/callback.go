package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/ewhitmore/spotcollect/internal/auth"
)

// Callback contains what the backend redirect delivered: an authorization
// code, or the provider's error text.
type Callback struct {
	Code string
	err  error
}

func (c *Callback) Error() error {
	return c.err
}

// CallbackHandler handles the OAuth redirect during a login flow.
// Implements the Handler interface for registration with a Router.
type CallbackHandler struct {
	state       string
	resultChan  chan Callback
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewCallbackHandler creates a callback handler bound to a CSRF state
// token. The state token should be cryptographically random.
func NewCallbackHandler(state string) *CallbackHandler {
	return &CallbackHandler{
		state:      state,
		resultChan: make(chan Callback, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP handles the redirect request.
//
// Validates the state parameter and sends the authorization code (or the
// provider's error) through the result channel. Only the first callback is
// processed; replays are rejected.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	state := r.URL.Query().Get("state")
	if state != h.state {
		err := fmt.Errorf("invalid state parameter")
		h.Send(Callback{err: err})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		errParam := r.URL.Query().Get("error")
		errDesc := r.URL.Query().Get("error_description")
		err := fmt.Errorf("authorization failed: %s - %s", errParam, errDesc)
		h.Send(Callback{err: err})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	h.Send(Callback{Code: code})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, completionPage)
}

// Send sends the callback through the channel (only once).
func (h *CallbackHandler) Send(result Callback) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving the redirect.
//
// Channel will receive exactly one result and then be closed.
func (h *CallbackHandler) Result() <-chan Callback {
	return h.resultChan
}

// Completion message types matching the web client convention.
const (
	MessageAuthSuccess = "spotify-auth-success"
	MessageAuthFailure = "spotify-auth-failure"
)

// completionMessage is the cross-process completion payload the login
// helper posts back to the waiting process.
type completionMessage struct {
	Type  string `json:"type"`
	Token string `json:"token,omitempty"`
	Error string `json:"error,omitempty"`
}

// ResultHandler accepts login completion messages posted by the backend's
// completion page. The message origin must pass [auth.CheckOrigin] against
// the configured backend origin before any payload is trusted; anything
// else is ignored without a hint about why.
type ResultHandler struct {
	backendOrigin string
	resultChan    chan auth.Result
	once          sync.Once
	file          *auth.ResultFile // optional mirror to shared storage
}

// NewResultHandler creates a handler trusting only backendOrigin. When
// file is non-nil, accepted results are mirrored there so a process that
// missed the live message still finds the record at startup.
func NewResultHandler(backendOrigin string, file *auth.ResultFile) *ResultHandler {
	return &ResultHandler{
		backendOrigin: backendOrigin,
		resultChan:    make(chan auth.Result, 1),
		file:          file,
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *ResultHandler) Routes() []string {
	return []string{"/auth/result"}
}

// ServeHTTP validates the message origin and delivers the completion
// record. Untrusted origins get 204 and no processing.
func (h *ResultHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !auth.CheckOrigin(r.Header.Get("Origin"), h.backendOrigin) {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var msg completionMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, "Malformed payload", http.StatusBadRequest)
		return
	}

	result := auth.Result{
		Success: msg.Type == MessageAuthSuccess,
		Token:   msg.Token,
		Error:   msg.Error,
	}

	if h.file != nil {
		// Write errors only lose the fallback copy; the live channel
		// still delivers.
		_ = h.file.Write(result)
	}

	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})

	w.WriteHeader(http.StatusNoContent)
}

// Result returns the channel delivering the accepted completion record.
func (h *ResultHandler) Result() <-chan auth.Result {
	return h.resultChan
}

const completionPage = `
<!DOCTYPE html>
<html>
<head>
    <title>Login Complete</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ Login Complete</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`
