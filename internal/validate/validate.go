// Package validate checks HTTP responses from the Users API. Status,
// latency and content type are soft checks recorded in a check.Report;
// a body that cannot be decoded into the expected shape is a hard failure
// returned as an error wrapping ErrStructural.
package validate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/users-qa/internal/apiclient"
	"github.com/phrazzld/users-qa/internal/check"
)

// DefaultMaxLatency bounds response time when no limit is given.
const DefaultMaxLatency = 500 * time.Millisecond

// ErrStructural marks failures after which the payload cannot be checked
// further: no content, invalid JSON, or a schema mismatch.
var ErrStructural = errors.New("structural validation failure")

var structValidator = validator.New()

// Many says whether the payload is a single record or a list of them.
type Many int

const (
	// Auto decides from the payload: a JSON array is a list.
	Auto Many = iota
	// One requires a single object.
	One
	// List requires an array.
	List
)

func (m Many) String() string {
	switch m {
	case One:
		return "one"
	case List:
		return "list"
	default:
		return "auto"
	}
}

// TimingOptions configures Timing.
type TimingOptions struct {
	// Expected lists the acceptable status codes. Empty means 200.
	Expected []int
	// MaxLatency is the exclusive upper bound on response time.
	// Zero means DefaultMaxLatency.
	MaxLatency time.Duration
	// SkipContentType disables the JSON content type check.
	SkipContentType bool
}

// Status returns TimingOptions expecting any of codes.
func Status(codes ...int) TimingOptions {
	return TimingOptions{Expected: codes}
}

// Timing records three independent soft checks on resp: the status is one
// of the expected codes, the response came back in time, and the content
// type mentions json.
func Timing(r *check.Report, resp *apiclient.Response, opts TimingOptions) {
	expected := opts.Expected
	if len(expected) == 0 {
		expected = []int{http.StatusOK}
	}
	maxLatency := opts.MaxLatency
	if maxLatency <= 0 {
		maxLatency = DefaultMaxLatency
	}

	r.True(slices.Contains(expected, resp.Status),
		"%s %s: status %d in expected %v", resp.Method, resp.URL, resp.Status, expected)
	check.Less(r, resp.Elapsed, maxLatency,
		"%s %s: response time %dms below %dms", resp.Method, resp.URL,
		resp.Elapsed.Milliseconds(), maxLatency.Milliseconds())
	if !opts.SkipContentType {
		ct := resp.ContentType()
		r.True(strings.Contains(strings.ToLower(ct), "json"),
			"%s %s: content type %q is json", resp.Method, resp.URL, ct)
	}
}

// Options configures Response.
type Options struct {
	TimingOptions
	// ExpectEmpty, when set, checks whether the payload has no items.
	// A single object counts as one item.
	ExpectEmpty *bool
	Many        Many
}

// Bool returns a pointer to b, for Options.ExpectEmpty.
func Bool(b bool) *bool { return &b }

// Decoded is a validated payload.
type Decoded[T any] struct {
	Items []T
	// IsList reports whether the payload was an array.
	IsList bool
}

// Len returns the number of decoded items.
func (d Decoded[T]) Len() int { return len(d.Items) }

// One returns the first item, and false when there is none.
func (d Decoded[T]) One() (T, bool) {
	if len(d.Items) == 0 {
		var zero T
		return zero, false
	}
	return d.Items[0], true
}

// Response runs Timing on resp, then decodes the body into T (or []T) and
// validates each item. Soft failures are in the returned report; the error
// is non-nil only for hard failures and always wraps ErrStructural.
func Response[T any](resp *apiclient.Response, opts Options) (Decoded[T], *check.Report, error) {
	report := check.New()
	Timing(report, resp, opts.TimingOptions)

	var out Decoded[T]
	where := resp.Method + " " + resp.URL
	if resp.Status == http.StatusNoContent {
		return out, report, fmt.Errorf("%w: %s: status 204 has no content to validate", ErrStructural, where)
	}

	body := bytes.TrimSpace(resp.Body)
	if !json.Valid(body) {
		return out, report, fmt.Errorf("%w: %s: body is not valid JSON: %q", ErrStructural, where, preview(body))
	}

	isList := len(body) > 0 && body[0] == '['
	switch {
	case opts.Many == One && isList:
		return out, report, fmt.Errorf("%w: %s: expected a single object, got a list", ErrStructural, where)
	case opts.Many == List && !isList:
		return out, report, fmt.Errorf("%w: %s: expected a list, got %q", ErrStructural, where, preview(body))
	}

	if isList {
		var raws []json.RawMessage
		if err := json.Unmarshal(body, &raws); err != nil {
			return out, report, fmt.Errorf("%w: %s: %w", ErrStructural, where, err)
		}
		out.Items = make([]T, 0, len(raws))
		for i, raw := range raws {
			item, err := decodeItem[T](raw)
			if err != nil {
				return Decoded[T]{}, report, fmt.Errorf("%w: %s: item %d: %w", ErrStructural, where, i, err)
			}
			out.Items = append(out.Items, item)
		}
		out.IsList = true
	} else {
		item, err := decodeItem[T](body)
		if err != nil {
			return out, report, fmt.Errorf("%w: %s: %w", ErrStructural, where, err)
		}
		out.Items = []T{item}
	}

	if opts.ExpectEmpty != nil {
		empty := out.Len() == 0
		check.Equal(report, empty, *opts.ExpectEmpty, "%s: payload empty (%d items)", where, out.Len())
	}
	return out, report, nil
}

func decodeItem[T any](raw []byte) (T, error) {
	var item T
	if err := json.Unmarshal(raw, &item); err != nil {
		return item, err
	}
	if reflect.Indirect(reflect.ValueOf(item)).Kind() == reflect.Struct {
		if err := structValidator.Struct(item); err != nil {
			return item, err
		}
	}
	return item, nil
}

func preview(b []byte) string {
	const n = 120
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
