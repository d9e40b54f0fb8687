// Package pagarme is the HTTP client for the Pagar.me v1 and core v5 APIs.
package pagarme

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Zhima-Mochi/merchant-dashboard/internal/observability"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/observability/logctx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
)

const (
	DefaultV1URL = "https://api.pagar.me/1"
	DefaultV5URL = "https://api.pagar.me/core/v5"

	peer            = "pagarme"
	componentClient = "pagarme_client"
	maxBodyBytes    = 16 << 20
)

type Config struct {
	APIKey  string
	V1URL   string
	V5URL   string
	Timeout time.Duration
	// HTTPClient overrides the tuned default client (tests).
	HTTPClient *http.Client
}

type Client struct {
	apiKey string
	v1     string
	v5     string
	http   *http.Client

	tel          observability.Observability
	log          observability.Logger
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func New(cfg Config, tel observability.Observability) *Client {
	tel = observability.Or(tel)
	if cfg.V1URL == "" {
		cfg.V1URL = DefaultV1URL
	}
	if cfg.V5URL == "" {
		cfg.V5URL = DefaultV5URL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
				MaxIdleConns:        32,
				MaxIdleConnsPerHost: 16,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 5 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		}
	}

	m := tel.Metrics()
	return &Client{
		apiKey:       cfg.APIKey,
		v1:           strings.TrimRight(cfg.V1URL, "/"),
		v5:           strings.TrimRight(cfg.V5URL, "/"),
		http:         hc,
		tel:          tel,
		log:          tel.Logger().With(observability.F("component", componentClient)),
		extCounter:   m.Counter(observability.MExternalRequests),
		extHistogram: m.Histogram(observability.MExternalRequestDuration),
	}
}

// Configured reports whether an API key was supplied.
func (c *Client) Configured() bool { return c.apiKey != "" }

type authMode int

const (
	// authQuery sends the key as the api_key query parameter (v1).
	authQuery authMode = iota
	// authBasic sends base64(key + ":") as Basic credentials (v5).
	authBasic
)

type call struct {
	endpoint string // low-cardinality label, e.g. "v1.transactions.list"
	method   string
	base     string
	path     string
	query    url.Values
	auth     authMode
	body     []byte
}

// do runs one provider request and returns the body of a 2xx answer.
func (c *Client) do(ctx context.Context, cl call) (_ []byte, err error) {
	if !c.Configured() {
		return nil, ErrNoAPIKey
	}

	ctx, span := c.tel.Tracer().Start(ctx, "pagarme "+cl.endpoint,
		attribute.String("peer.service", peer),
		attribute.String("http.method", cl.method),
		attribute.String("pagarme.endpoint", cl.endpoint),
	)
	start := time.Now()
	outcome := observability.OutcomeSuccess
	status := 0

	defer func() {
		if err != nil {
			outcome = observability.OutcomeError
			if ctx.Err() != nil {
				outcome = observability.OutcomeCanceled
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logctx.FromOr(ctx, c.log).Warn("provider_request_failed",
				observability.F("endpoint", cl.endpoint),
				observability.F("status", status),
				observability.F("error", err),
			)
		} else {
			span.SetStatus(codes.Ok, "OK")
		}
		span.SetAttributes(attribute.Int("http.status_code", status))
		span.End()

		c.extCounter.Add(1,
			observability.L("peer", peer),
			observability.L("endpoint", cl.endpoint),
			observability.L("outcome", outcome),
		)
		c.extHistogram.Observe(time.Since(start).Seconds(),
			observability.L("peer", peer),
			observability.L("endpoint", cl.endpoint),
		)
	}()

	q := url.Values{}
	for k, v := range cl.query {
		q[k] = v
	}
	if cl.auth == authQuery {
		q.Set("api_key", c.apiKey)
	}
	target := cl.base + cl.path
	if enc := q.Encode(); enc != "" {
		target += "?" + enc
	}

	var body io.Reader
	if cl.body != nil {
		body = bytes.NewReader(cl.body)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("pagarme: %s: build request: %w", cl.endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cl.auth == authBasic {
		req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(c.apiKey+":")))
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pagarme: %s: %w", cl.endpoint, redactURL(err))
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("pagarme: %s: read body: %w", cl.endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("pagarme: %s: %w", cl.endpoint, &ProviderError{
			StatusCode: resp.StatusCode,
			Endpoint:   cl.endpoint,
			Body:       string(raw),
		})
	}
	return raw, nil
}

// redactURL drops the query, which holds api_key on v1 calls, from transport errors.
func redactURL(err error) error {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return err
	}
	if u, perr := url.Parse(uerr.URL); perr == nil {
		u.RawQuery = ""
		uerr.URL = u.String()
	}
	return uerr
}
