package apierror

import (
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// Error represents a non-2xx response from the Parley API. The server's
// error envelope is not guaranteed to be stable across endpoints, so the
// code and message are extracted leniently from whatever body came back.
type Error struct {
	StatusCode int
	Status     string
	// Code is the machine-readable server error code, if the body carried one.
	Code string
	// Message is the human-readable server message, if the body carried one.
	Message string
	RawBody []byte

	Method string
	Path   string
}

func New(req *http.Request, resp *http.Response, body []byte) *Error {
	e := &Error{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		RawBody:    body,
	}
	if req != nil {
		e.Method = req.Method
		if req.URL != nil {
			e.Path = req.URL.Path
		}
	}

	parsed := gjson.ParseBytes(body)
	if code := parsed.Get("code"); code.Exists() {
		e.Code = code.String()
	}
	for _, key := range []string{"message", "error"} {
		if msg := parsed.Get(key); msg.Exists() && msg.Type == gjson.String {
			e.Message = msg.String()
			break
		}
	}

	return e
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %q: %s", e.Method, e.Path, e.Status)
	if e.Code != "" {
		msg += fmt.Sprintf(" (code %s)", e.Code)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}
