package requestconfig

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/parleyhq/parley-go/internal"
	"github.com/parleyhq/parley-go/internal/apierror"
)

// This interface is primarily used to describe an [*http.Client], but also
// supports custom HTTP implementations.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RequestConfig represents all the state related to one request.
//
// Editing the variables inside RequestConfig directly is unstable api. Prefer
// composing the RequestOption instead if possible.
type RequestConfig struct {
	MaxRetries     int
	RequestTimeout time.Duration
	Context        context.Context
	Request        *http.Request
	BaseURL        *url.URL
	// DefaultBaseURL will be used if BaseURL is not explicitly overridden using
	// WithBaseURL.
	DefaultBaseURL *url.URL
	CustomHTTPDoer HTTPDoer
	HTTPClient     *http.Client
	Middlewares    []middleware
	BearerToken    string
	// If ResponseBodyInto is not nil, then we will attempt to deserialize into
	// ResponseBodyInto. If Destination is a []byte, then it will return the body as
	// is.
	ResponseBodyInto any
	// ResponseInto copies the \*http.Response of the corresponding request into the
	// given address
	ResponseInto **http.Response
	Body         []byte
}

// middleware is exactly the same type as the Middleware type found in the [option] package,
// but it is redeclared here for circular dependency issues.
type middleware = func(*http.Request, middlewareNext) (*http.Response, error)

// middlewareNext is exactly the same type as the MiddlewareNext type found in the [option] package,
// but it is redeclared here for circular dependency issues.
type middlewareNext = func(*http.Request) (*http.Response, error)

type RequestOption interface {
	Apply(*RequestConfig) error
}

type RequestOptionFunc func(*RequestConfig) error

func (s RequestOptionFunc) Apply(r *RequestConfig) error {
	return s(r)
}

func getDefaultHeaders() map[string]string {
	return map[string]string{
		"User-Agent":   fmt.Sprintf("Parley/Client %s", internal.PackageVersion),
		"Accept":       "application/json",
		"X-Request-ID": uuid.NewString(),
	}
}

func getNormalizedOS() string {
	switch runtime.GOOS {
	case "ios":
		return "iOS"
	case "android":
		return "Android"
	case "darwin":
		return "MacOS"
	case "windows":
		return "Windows"
	case "freebsd":
		return "FreeBSD"
	case "openbsd":
		return "OpenBSD"
	case "linux":
		return "Linux"
	default:
		return fmt.Sprintf("Other:%s", runtime.GOOS)
	}
}

func getNormalizedArchitecture() string {
	switch runtime.GOARCH {
	case "386":
		return "x32"
	case "amd64":
		return "x64"
	case "arm":
		return "arm"
	case "arm64":
		return "arm64"
	default:
		return fmt.Sprintf("other:%s", runtime.GOARCH)
	}
}

func getPlatformProperties() map[string]string {
	return map[string]string{
		"X-Client-Lang":            "go",
		"X-Client-Package-Version": internal.PackageVersion,
		"X-Client-OS":              getNormalizedOS(),
		"X-Client-Arch":            getNormalizedArchitecture(),
		"X-Client-Runtime-Version": runtime.Version(),
	}
}

// NewRequestConfig assembles a request against a relative path along with the
// full option state needed to execute it. The body, if any, is serialized as
// JSON up front so retries can replay it.
func NewRequestConfig(ctx context.Context, method string, path string, body any, dst any, opts ...RequestOption) (*RequestConfig, error) {
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("requestconfig: marshal body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, path, nil)
	if err != nil {
		return nil, err
	}

	for k, v := range getDefaultHeaders() {
		req.Header.Set(k, v)
	}
	for k, v := range getPlatformProperties() {
		req.Header.Set(k, v)
	}
	if raw != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	cfg := &RequestConfig{
		MaxRetries:       0,
		RequestTimeout:   time.Minute,
		Context:          ctx,
		Request:          req,
		HTTPClient:       http.DefaultClient,
		Body:             raw,
		ResponseBodyInto: dst,
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.Apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// ExecuteNewRequest builds and immediately executes a request.
func ExecuteNewRequest(ctx context.Context, method string, path string, body any, dst any, opts ...RequestOption) error {
	cfg, err := NewRequestConfig(ctx, method, path, body, dst, opts...)
	if err != nil {
		return err
	}
	return cfg.Execute()
}

func (cfg *RequestConfig) resolveURL() error {
	base := cfg.BaseURL
	if base == nil {
		base = cfg.DefaultBaseURL
	}
	if base == nil {
		return fmt.Errorf("requestconfig: base URL is not configured")
	}

	ref, err := url.Parse(cfg.Request.URL.String())
	if err != nil {
		return err
	}
	cfg.Request.URL = base.ResolveReference(ref)
	return nil
}

func retryDelay(attempt int) time.Duration {
	// Exponential backoff with jitter, capped at 8 seconds.
	delay := time.Duration(500*math.Pow(2, float64(attempt))) * time.Millisecond
	if delay > 8*time.Second {
		delay = 8 * time.Second
	}
	return delay/2 + time.Duration(rand.Int63n(int64(delay/2)))
}

func shouldRetry(resp *http.Response, err error) bool {
	if err != nil {
		return true
	}
	return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError
}

// Execute performs the request, running the middleware chain around the
// underlying HTTP round trip and decoding the response into
// ResponseBodyInto. Non-2xx responses return an [*apierror.Error].
func (cfg *RequestConfig) Execute() error {
	if err := cfg.resolveURL(); err != nil {
		return err
	}

	if cfg.RequestTimeout > 0 {
		ctx, cancel := context.WithTimeout(cfg.Request.Context(), cfg.RequestTimeout)
		defer cancel()
		cfg.Request = cfg.Request.WithContext(ctx)
	}

	if cfg.BearerToken != "" {
		cfg.Request.Header.Set("Authorization", "Bearer "+cfg.BearerToken)
	}

	var doer middlewareNext = func(req *http.Request) (*http.Response, error) {
		if cfg.CustomHTTPDoer != nil {
			return cfg.CustomHTTPDoer.Do(req)
		}
		return cfg.HTTPClient.Do(req)
	}
	handler := doer
	for i := len(cfg.Middlewares) - 1; i >= 0; i-- {
		mw := cfg.Middlewares[i]
		next := handler
		handler = func(req *http.Request) (*http.Response, error) {
			return mw(req, next)
		}
	}

	var resp *http.Response
	var err error
	for attempt := 0; ; attempt++ {
		req := cfg.Request.Clone(cfg.Request.Context())
		if cfg.Body != nil {
			req.Body = io.NopCloser(bytes.NewReader(cfg.Body))
			req.ContentLength = int64(len(cfg.Body))
		}

		resp, err = handler(req)
		if attempt >= cfg.MaxRetries || !shouldRetry(resp, err) {
			break
		}
		if resp != nil {
			resp.Body.Close()
		}

		select {
		case <-cfg.Request.Context().Done():
			return cfg.Request.Context().Err()
		case <-time.After(retryDelay(attempt)):
		}
	}
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if cfg.ResponseInto != nil {
		*cfg.ResponseInto = resp
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("requestconfig: read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apierror.New(cfg.Request, resp, raw)
	}

	switch dst := cfg.ResponseBodyInto.(type) {
	case nil:
		return nil
	case *[]byte:
		*dst = raw
		return nil
	default:
		if len(raw) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return fmt.Errorf("requestconfig: decode response: %w", err)
		}
		return nil
	}
}
