package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Response is a fully read HTTP response together with the time the server
// took to answer.
type Response struct {
	Method  string
	URL     string
	Status  int
	Header  http.Header
	Elapsed time.Duration
	Body    []byte
}

// ContentType returns the declared Content-Type header.
func (r *Response) ContentType() string {
	return r.Header.Get("Content-Type")
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode %s %s response body: %w", r.Method, r.URL, err)
	}
	return nil
}

// preview returns at most n bytes of the body for logging.
func (r *Response) preview(n int) string {
	if len(r.Body) <= n {
		return string(r.Body)
	}
	return string(r.Body[:n])
}
