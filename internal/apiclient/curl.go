package apiclient

import (
	"net/http"
	"sort"
	"strings"

	"github.com/alessio/shellescape"
	"github.com/phrazzld/users-qa/internal/redact"
)

// curlCommand renders req as a shell command that reproduces it. Credentials
// in headers and the URL are redacted.
func curlCommand(req *http.Request, body []byte) string {
	args := []string{"curl", "-X", req.Method}

	names := make([]string, 0, len(req.Header))
	for name := range req.Header {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, v := range req.Header[name] {
			args = append(args, "-H", shellescape.Quote(name+": "+redact.HeaderValue(name, v)))
		}
	}

	if len(body) > 0 {
		args = append(args, "-d", shellescape.Quote(string(body)))
	}
	args = append(args, shellescape.Quote(redact.String(req.URL.String())))
	return strings.Join(args, " ")
}
