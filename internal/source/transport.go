// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/raquelpanapalen/trendgraph/internal/httputil"
	"github.com/raquelpanapalen/trendgraph/pkg/types"
)

// maxBodyBytes bounds a decoded response body.
const maxBodyBytes = 10 << 20

// Observer receives one call per HTTP request and per failed request.
type Observer interface {
	ObserveRequest(source, endpoint string)
	ObserveFailure(source, endpoint string)
}

// Transport is the HTTP plumbing shared by the adapters.
type Transport struct {
	Client   *http.Client
	Budget   httputil.Budget
	HTTP     types.HTTPConfig
	Observer Observer
	Log      zerolog.Logger
}

// get performs one logical GET through the retrying client and returns the
// body of a 200 response. A 404 maps to ErrNotFound; any other failure is a
// *FetchError naming the source and endpoint.
func (t *Transport) get(ctx context.Context, source, endpoint, rawURL string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if t.HTTP.UserAgent != "" {
		req.Header.Set("User-Agent", t.HTTP.UserAgent)
	}

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, t.countingBudget(source, endpoint), httputil.Options{
		MaxAttempts: t.HTTP.MaxAttempts,
		BaseDelay:   t.HTTP.RetryBaseDelay,
		OnRetry: func(a httputil.Attempt) {
			t.Log.Warn().
				Str("source", source).
				Str("endpoint", endpoint).
				Int("attempt", a.Number).
				Int("status", a.Status).
				AnErr("cause", a.Err).
				Dur("wait", a.Wait).
				Msg("retrying provider request")
		},
	})
	if err != nil {
		t.fail(source, endpoint)
		return nil, &FetchError{Source: source, Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		t.fail(source, endpoint)
		return nil, &FetchError{Source: source, Endpoint: endpoint, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		t.fail(source, endpoint)
		return nil, &FetchError{Source: source, Endpoint: endpoint, Err: fmt.Errorf("reading body: %w", err)}
	}
	return body, nil
}

func (t *Transport) fail(source, endpoint string) {
	if t.Observer != nil {
		t.Observer.ObserveFailure(source, endpoint)
	}
}

// countingBudget reports every attempt to the Observer after the budget
// admitted it.
func (t *Transport) countingBudget(source, endpoint string) httputil.Budget {
	return budgetFunc(func(ctx context.Context) error {
		if t.Budget != nil {
			if err := t.Budget.Consume(ctx); err != nil {
				return err
			}
		}
		if t.Observer != nil {
			t.Observer.ObserveRequest(source, endpoint)
		}
		return nil
	})
}

type budgetFunc func(ctx context.Context) error

func (f budgetFunc) Consume(ctx context.Context) error { return f(ctx) }
