package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/temperature-anomalies/internal/weather"
)

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig
}

var (
	errRateLimited     = errors.New("rate limited")
	errServerError     = errors.New("server error")
	errUnexpected      = errors.New("unexpected status code")
	errCircuitOpen     = errors.New("circuit breaker open")
	errNoHTTPClient    = errors.New("http client not configured")
	errInvalidConfig   = errors.New("invalid backoff configuration")
	errMissingAPIKey   = errors.New("api key is not configured")
	errMissingTemp     = errors.New("temperature missing from response")
	errMalformedBody   = errors.New("malformed response body")
	errUnknownProvider = errors.New("unknown live provider")
)

// defaultBackoff allows exactly one retry.
func defaultBackoff() BackoffConfig {
	return BackoffConfig{
		MaxRetries:      1,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

func newCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:         name,
		MaxRequests:  5,
		Interval:     1 * time.Minute,
		Timeout:      2 * time.Minute,
		IsSuccessful: countsAsSuccess,
	})
}

// countsAsSuccess keeps 4xx rejections other than 429 out of the breaker's
// failure count. The caller still receives the error.
func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 400 && se.code < 500 && se.code != http.StatusTooManyRequests
	}
	return false
}

// statusError carries the HTTP status of a rejected response.
type statusError struct {
	code int
	kind error
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%v: %d", e.kind, e.code)
}

func (e *statusError) Unwrap() error {
	return e.kind
}

// retryable reports whether a failed attempt may be repeated: transport
// errors, 429 and 5xx are; other statuses and breaker rejections are not.
func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return errors.Is(se.kind, errRateLimited) || errors.Is(se.kind, errServerError)
	}
	return !errors.Is(err, errCircuitOpen)
}

// doRequestWithResilience executes the HTTP request with retries, exponential backoff,
// and a circuit breaker.
func doRequestWithResilience(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func(ctx context.Context) (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}
	if cfg.Backoff.MaxRetries < 0 || cfg.Backoff.InitialInterval <= 0 {
		return nil, errInvalidConfig
	}

	var attempt int

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := buildRequest(ctx)
		if err != nil {
			return nil, err
		}

		result, err := cb.Execute(func() (interface{}, error) {
			resp, execErr := cfg.Client.Do(req)
			if execErr != nil {
				return nil, execErr
			}

			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return resp, nil
			}

			// drain so the connection can be reused
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
			resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusTooManyRequests:
				return nil, &statusError{code: resp.StatusCode, kind: errRateLimited}
			case resp.StatusCode >= 500:
				return nil, &statusError{code: resp.StatusCode, kind: errServerError}
			default:
				return nil, &statusError{code: resp.StatusCode, kind: errUnexpected}
			}
		})

		if err == nil {
			resp, ok := result.(*http.Response)
			if !ok {
				return nil, fmt.Errorf("unexpected result type from circuit breaker")
			}
			return resp, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}

		if !retryable(err) || attempt >= cfg.Backoff.MaxRetries {
			return nil, err
		}

		delay := cfg.Backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > cfg.Backoff.MaxInterval && cfg.Backoff.MaxInterval > 0 {
			delay = cfg.Backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}

// fetchError wraps any lookup failure into a *weather.FetchError, keeping
// the HTTP status when there was one.
func fetchError(provider, city string, err error) error {
	fe := &weather.FetchError{Provider: provider, City: city, Err: err}
	var se *statusError
	if errors.As(err, &se) {
		fe.StatusCode = se.code
	}
	return fe
}

// New returns the provider registered under name.
func New(name string, client *http.Client, openWeatherKey, weatherAPIKey string) (weather.LiveProvider, error) {
	switch name {
	case OpenWeatherName:
		return NewOpenWeatherProvider(client, openWeatherKey), nil
	case WeatherAPIName:
		return NewWeatherAPIProvider(client, weatherAPIKey), nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownProvider, name)
	}
}
