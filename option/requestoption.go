package option

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/parleyhq/parley-go/internal/requestconfig"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// RequestOption is an option for the requests made by the Parley API Client.
type RequestOption = requestconfig.RequestOption

// RequestOptionFunc adapts a plain function to a [RequestOption].
type RequestOptionFunc = requestconfig.RequestOptionFunc

// Middleware is a function which intercepts HTTP requests, processing or
// modifying them, and then passing the request to the next middleware or
// handler.
type Middleware = func(*http.Request, MiddlewareNext) (*http.Response, error)

// MiddlewareNext is a function which runs the next middleware or handler in
// the chain.
type MiddlewareNext = func(*http.Request) (*http.Response, error)

// WithBaseURL sets the base URL used for all requests.
func WithBaseURL(base string) RequestOption {
	u, err := url.Parse(base)
	return RequestOptionFunc(func(r *requestconfig.RequestConfig) error {
		if err != nil {
			return fmt.Errorf("option: invalid base url: %w", err)
		}
		r.BaseURL = u
		return nil
	})
}

// WithEnvironmentProduction targets the hosted Parley API.
func WithEnvironmentProduction() RequestOption {
	return RequestOptionFunc(func(r *requestconfig.RequestConfig) error {
		r.DefaultBaseURL, _ = url.Parse("https://api.parley.dev/v1/")
		return nil
	})
}

// WithEnvironmentDev targets a locally running API server.
func WithEnvironmentDev() RequestOption {
	return RequestOptionFunc(func(r *requestconfig.RequestConfig) error {
		r.DefaultBaseURL, _ = url.Parse("http://localhost:8080/v1/")
		return nil
	})
}

// WithBearerToken authenticates requests with the given session token.
func WithBearerToken(token string) RequestOption {
	return RequestOptionFunc(func(r *requestconfig.RequestConfig) error {
		r.BearerToken = token
		return nil
	})
}

// WithHTTPClient replaces the underlying [http.Client].
func WithHTTPClient(client *http.Client) RequestOption {
	return RequestOptionFunc(func(r *requestconfig.RequestConfig) error {
		if client == nil {
			return fmt.Errorf("option: http client must not be nil")
		}
		r.HTTPClient = client
		return nil
	})
}

// WithHTTPDoer overrides the HTTP transport entirely, e.g. for tests.
func WithHTTPDoer(doer requestconfig.HTTPDoer) RequestOption {
	return RequestOptionFunc(func(r *requestconfig.RequestConfig) error {
		r.CustomHTTPDoer = doer
		return nil
	})
}

// WithRequestTimeout sets the per-request timeout.
func WithRequestTimeout(d time.Duration) RequestOption {
	return RequestOptionFunc(func(r *requestconfig.RequestConfig) error {
		r.RequestTimeout = d
		return nil
	})
}

// WithMaxRetries sets the maximum number of retries on retryable failures
// (connection errors, 429s and 5xx responses). The default is zero.
func WithMaxRetries(n int) RequestOption {
	return RequestOptionFunc(func(r *requestconfig.RequestConfig) error {
		if n < 0 {
			return fmt.Errorf("option: max retries must not be negative")
		}
		r.MaxRetries = n
		return nil
	})
}

// WithHeader sets a header on every request.
func WithHeader(key, value string) RequestOption {
	return RequestOptionFunc(func(r *requestconfig.RequestConfig) error {
		r.Request.Header.Set(key, value)
		return nil
	})
}

// WithMiddleware appends middlewares to the client's middleware chain.
func WithMiddleware(middlewares ...Middleware) RequestOption {
	return RequestOptionFunc(func(r *requestconfig.RequestConfig) error {
		for _, mw := range middlewares {
			r.Middlewares = append(r.Middlewares, mw)
		}
		return nil
	})
}

// WithTracing instruments the HTTP client with OpenTelemetry spans for every
// round trip, using the globally registered tracer provider.
func WithTracing() RequestOption {
	return RequestOptionFunc(func(r *requestconfig.RequestConfig) error {
		base := r.HTTPClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		client := *r.HTTPClient
		client.Transport = otelhttp.NewTransport(base)
		r.HTTPClient = &client
		return nil
	})
}
