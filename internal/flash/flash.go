// Package flash carries one-shot operation results across a redirect.
package flash

import (
	"encoding/gob"
	"encoding/json"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
)

const (
	// StatusSuccess marks a completed operation.
	StatusSuccess = "success"
	// StatusError marks an operation that was refused or failed.
	StatusError = "error"

	sessionName = "backoffice_flash"
)

func init() {
	// session flashes are kept as a slice of interface values
	gob.Register([]interface{}{})
}

// Result is the outcome of a lifecycle operation as shown to the user.
type Result struct {
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// Success builds a successful result.
func Success(message string) Result {
	return Result{Status: StatusSuccess, Message: message}
}

// Failure builds a failed result.
func Failure(message string) Result {
	return Result{Status: StatusError, Message: message}
}

// Invalid builds a failed result carrying per-field messages.
func Invalid(fields map[string]string) Result {
	return Result{Status: StatusError, Message: "The given data was invalid.", Errors: fields}
}

// OK reports whether the result is a success.
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

// Store keeps pending results in a signed cookie session.
type Store struct {
	sessions sessions.Store
}

// NewStore creates a cookie-backed flash store signed with secret.
func NewStore(secret string, secure bool) *Store {
	cs := sessions.NewCookieStore([]byte(secret))
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   0,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Store{sessions: cs}
}

// Put queues a result for the next request.
func (s *Store) Put(c echo.Context, r Result) error {
	sess, err := s.sessions.Get(c.Request(), sessionName)
	if err != nil && sess == nil {
		return err
	}

	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}
	sess.AddFlash(string(payload))
	return sess.Save(c.Request(), c.Response())
}

// Pop returns and clears the pending result, or nil when there is none.
func (s *Store) Pop(c echo.Context) *Result {
	sess, err := s.sessions.Get(c.Request(), sessionName)
	if err != nil || sess == nil {
		return nil
	}

	flashes := sess.Flashes()
	if len(flashes) == 0 {
		return nil
	}
	_ = sess.Save(c.Request(), c.Response())

	raw, ok := flashes[len(flashes)-1].(string)
	if !ok {
		return nil
	}
	var r Result
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil
	}
	return &r
}
