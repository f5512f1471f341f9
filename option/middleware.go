package option

import (
	"log"
	"net/http"
	"net/http/httputil"
	"regexp"
)

// Headers whose values must never reach debug output.
var sensitiveHeaders = regexp.MustCompile(`(?i)^(Authorization|Cookie|Set-Cookie|X-Api-Key): .+`)

func redactSensitive(dump []byte) string {
	return sensitiveHeaders.ReplaceAllString(string(dump), "$1: [REDACTED]")
}

// WithDebugLog dumps every request and response on the given logger, with
// credential-bearing headers redacted. A nil logger falls back to the
// standard logger. Bodies are included, so keep this out of production.
func WithDebugLog(logger *log.Logger) RequestOption {
	if logger == nil {
		logger = log.Default()
	}

	return WithMiddleware(func(req *http.Request, next MiddlewareNext) (*http.Response, error) {
		if dump, dumpErr := httputil.DumpRequestOut(req, true); dumpErr == nil {
			logger.Printf("REQUEST:\n%s\n", redactSensitive(dump))
		}

		resp, err := next(req)
		if err != nil {
			logger.Printf("REQUEST ERROR: %v", err)
			return resp, err
		}

		if dump, dumpErr := httputil.DumpResponse(resp, true); dumpErr == nil {
			logger.Printf("RESPONSE:\n%s\n", redactSensitive(dump))
		}
		return resp, nil
	})
}
