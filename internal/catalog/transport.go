package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pearguacamole/VroomVault/internal/imageset"
	platformlogger "github.com/pearguacamole/VroomVault/internal/platform/logger"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// TransportConfig configures the HTTP client shared by the repository and the image fetcher.
type TransportConfig struct {
	Timeout             time.Duration
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
	// HalfOpenRequests is how many trial requests pass while the breaker is half-open.
	// It must cover the parallel image fetches of one composition; zero means imageset.DefaultConcurrency.
	HalfOpenRequests uint32
	Tracing             bool
	Logger              *slog.Logger
}

// NewHTTPClient builds the client used to reach the catalog API.
// Failed calls are never retried; a circuit breaker stops calling a service that keeps failing.
func NewHTTPClient(cfg TransportConfig) *http.Client {
	var rt http.RoundTripper = http.DefaultTransport
	if cfg.Tracing {
		rt = otelhttp.NewTransport(rt)
	}
	if cfg.ConsecutiveFailures > 0 {
		rt = newBreakerTransport(rt, cfg)
	}
	return &http.Client{Timeout: cfg.Timeout, Transport: rt}
}

// statusError carries a 5xx response through the breaker so it is counted as a failure.
type statusError struct {
	resp *http.Response
}

func (e *statusError) Error() string {
	return fmt.Sprintf("server responded %s", e.resp.Status)
}

type breakerTransport struct {
	next http.RoundTripper
	cb   *gobreaker.CircuitBreaker[*http.Response]
}

func newBreakerTransport(next http.RoundTripper, cfg TransportConfig) *breakerTransport {
	logger := cfg.Logger
	if logger == nil {
		logger = platformlogger.Discard()
	}
	halfOpen := cfg.HalfOpenRequests
	if halfOpen == 0 {
		halfOpen = imageset.DefaultConcurrency
	}
	st := gobreaker.Settings{
		Name:        "catalog-api",
		MaxRequests: halfOpen,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			// the caller gave up; the service is not to blame
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	}
	return &breakerTransport{next: next, cb: gobreaker.NewCircuitBreaker[*http.Response](st)}
}

func (t *breakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.cb.Execute(func() (*http.Response, error) {
		resp, err := t.next.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, &statusError{resp: resp}
		}
		return resp, nil
	})
	var se *statusError
	if errors.As(err, &se) {
		return se.resp, nil
	}
	return resp, err
}
