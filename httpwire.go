package goCooldown

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// rateLimitPayload is the JSON body a 429 response carries. Exactly one
// field is populated: retry_after_seconds for the short cooldown,
// reset_at (RFC 3339) when the attempt window is exhausted.
type rateLimitPayload struct {
	RetryAfterSeconds int    `json:"retry_after_seconds"`
	ResetAt           string `json:"reset_at"`
}

type probePayload struct {
	Limited           bool `json:"limited"`
	RetryAfterSeconds int  `json:"retry_after_seconds"`
}

var errAmbiguousLimitPayload = errors.New("rate limit payload must carry retry_after_seconds xor reset_at")

const maxLimitPayloadBytes = 4096

// HTTPDispatcher is an ActionDispatcher that POSTs to a resend endpoint
// and maps its responses per the dispatch contract: 2xx is success, 429
// bodies become RateLimitSignals, any other status is a generic failure.
// A 429 with a body that cannot be parsed is treated as a generic
// failure as well; a remaining time is never assumed.
type HTTPDispatcher struct {
	client *http.Client
	url    string
}

// NewHTTPDispatcher creates a dispatcher for the given endpoint. A nil
// client falls back to http.DefaultClient.
func NewHTTPDispatcher(client *http.Client, url string) *HTTPDispatcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPDispatcher{
		client: client,
		url:    url,
	}
}

// Dispatch performs the mutating call. Only transport failures are
// returned as errors.
func (d *HTTPDispatcher) Dispatch(ctx context.Context) (DispatchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, nil)
	if err != nil {
		return DispatchResult{}, err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return DispatchResult{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return DispatchResult{OK: true}, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		signal, err := parseRateLimitBody(resp.Body)
		if err != nil {
			return DispatchResult{Reason: "malformed rate limit payload"}, nil
		}
		return DispatchResult{RateLimit: &signal}, nil
	default:
		return DispatchResult{Reason: fmt.Sprintf("unexpected status %d", resp.StatusCode)}, nil
	}
}

// HTTPProber is a StatusProber reading a non-mutating status endpoint.
// A 2xx means not limited; a 429 body is parsed like the dispatcher's.
type HTTPProber struct {
	client *http.Client
	url    string
}

// NewHTTPProber creates a prober for the given endpoint. A nil client
// falls back to http.DefaultClient.
func NewHTTPProber(client *http.Client, url string) *HTTPProber {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPProber{
		client: client,
		url:    url,
	}
}

// Probe performs the status read.
func (p *HTTPProber) Probe(ctx context.Context) (ProbeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return ProbeResult{}, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return ProbeResult{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var payload probePayload
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxLimitPayloadBytes)).Decode(&payload); err != nil {
			// A bodyless or non-JSON 2xx still means not limited.
			return ProbeResult{}, nil
		}
		return ProbeResult{
			Limited:          payload.Limited,
			RemainingSeconds: payload.RetryAfterSeconds,
		}, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		signal, err := parseRateLimitBody(resp.Body)
		if err != nil {
			return ProbeResult{}, err
		}
		return ProbeResult{
			Limited:          true,
			RemainingSeconds: signal.RemainingSeconds,
		}, nil
	default:
		return ProbeResult{}, fmt.Errorf("probe status %d", resp.StatusCode)
	}
}

func parseRateLimitBody(r io.Reader) (RateLimitSignal, error) {
	var payload rateLimitPayload
	if err := json.NewDecoder(io.LimitReader(r, maxLimitPayloadBytes)).Decode(&payload); err != nil {
		return RateLimitSignal{}, err
	}

	switch {
	case payload.RetryAfterSeconds > 0 && payload.ResetAt == "":
		return RateLimitSignal{RemainingSeconds: payload.RetryAfterSeconds}, nil
	case payload.ResetAt != "" && payload.RetryAfterSeconds == 0:
		resetAt, err := time.Parse(time.RFC3339, payload.ResetAt)
		if err != nil {
			return RateLimitSignal{}, err
		}
		return RateLimitSignal{ResetAt: resetAt}, nil
	default:
		return RateLimitSignal{}, errAmbiguousLimitPayload
	}
}
