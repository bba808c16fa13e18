// Package gateway is the authenticated HTTP client every backend call goes
// through. It attaches the current bearer token, refreshes the session when
// the backend answers 401 and replays the failed request exactly once.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/fpl-companion/credentials"
	"github.com/jrsteele09/fpl-companion/internal/errors"
	"github.com/jrsteele09/fpl-companion/metrics"
	"github.com/jrsteele09/fpl-companion/navigation"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName      = "github.com/jrsteele09/fpl-companion/gateway"
	requestIDHeader = "X-Request-ID"
	maxBodyBytes    = 8 << 20
)

// Outcome is the terminal state of one Execute call.
type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomeFailure          Outcome = "other_failure"
	OutcomeTransportFailure Outcome = "transport_failure"
	OutcomeReplayedSuccess  Outcome = "replayed_success"
	OutcomeReplayedFailure  Outcome = "replayed_failure"
	OutcomeUnrecoverable    Outcome = "unrecoverable"
)

// Response is a fully read 2xx response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if r == nil || v == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return errors.Wrapf(errors.ErrUpstream, "[gateway Decode] invalid response body: %v", err)
	}
	return nil
}

type Client struct {
	baseURL    *url.URL
	creds      credentials.Store
	httpClient *http.Client
	navigator  navigation.Navigator
	reauthPath string
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	logger     zerolog.Logger
	now        func() time.Time
	headers    http.Header
}

// New creates a gateway for the backend at baseURL using creds for bearer
// sessions.
func New(baseURL string, creds credentials.Store, opts ...Option) (*Client, error) {
	if creds == nil {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "[gateway New] credential store is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "[gateway New] invalid base url %q", baseURL)
	}

	c := &Client{
		baseURL:    u,
		creds:      creds,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		reauthPath: navigation.PathLogin,
		tracer:     otel.Tracer(tracerName),
		logger:     zerolog.Nop(),
		now:        time.Now,
		headers:    http.Header{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Execute sends req with the current bearer token. A 401 triggers one
// session refresh and one replay; when the refresh fails the navigator is
// sent to the re-authentication path and the original 401 is returned
// wrapped with errors.ErrSessionUnrecoverable. Transport failures, including
// a refresh cut short by ctx, are never retried and never navigate.
func (c *Client) Execute(ctx context.Context, req PendingRequest) (*Response, error) {
	start := c.now()
	if req.header.Get(requestIDHeader) == "" {
		req = req.WithHeader(requestIDHeader, uuid.NewString())
	}

	ctx, span := c.tracer.Start(ctx, "gateway "+req.method+" "+req.path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.method),
			attribute.String("url.path", req.path),
			attribute.String("gateway.request_id", req.header.Get(requestIDHeader)),
		),
	)
	defer span.End()

	resp, outcome, err := c.execute(ctx, req)

	span.SetAttributes(attribute.String("gateway.outcome", string(outcome)))
	if resp != nil {
		span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	c.metrics.ObserveRequest(req.method, string(outcome), c.now().Sub(start))

	c.logger.Debug().
		Str("method", req.method).
		Str("path", req.path).
		Str("outcome", string(outcome)).
		Msg("[gateway Execute] request finished")
	return resp, err
}

func (c *Client) execute(ctx context.Context, req PendingRequest) (*Response, Outcome, error) {
	session, err := c.creds.CurrentSession(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("[gateway execute] could not read session, sending without credentials")
		session = nil
	}

	if session.Valid() && session.Expired(c.now()) {
		refreshed, err := c.refresh(ctx)
		if abandoned(ctx, err) {
			return nil, OutcomeTransportFailure, fmt.Errorf("%w: %w", errors.ErrTransport, err)
		}
		if err != nil {
			return nil, OutcomeUnrecoverable, c.unrecoverable(err)
		}
		session = refreshed
	}

	outgoing := req
	if session.Valid() {
		outgoing = req.withBearer(session.AccessToken)
	}

	resp, err := c.send(ctx, outgoing)
	if err != nil {
		return nil, OutcomeTransportFailure, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		if se := statusError(req, resp); se != nil {
			return nil, OutcomeFailure, se
		}
		return resp, OutcomeSuccess, nil
	}

	original := statusError(req, resp)
	refreshed, err := c.refresh(ctx)
	if abandoned(ctx, err) {
		return nil, OutcomeTransportFailure, fmt.Errorf("%w: %w", errors.ErrTransport, err)
	}
	if err != nil {
		return nil, OutcomeUnrecoverable, c.unrecoverable(original)
	}

	replay, err := req.replay()
	if err != nil {
		return nil, OutcomeReplayedFailure, err
	}
	resp, err = c.send(ctx, replay.withBearer(refreshed.AccessToken))
	if err != nil {
		return nil, OutcomeReplayedFailure, err
	}
	if se := statusError(replay, resp); se != nil {
		return nil, OutcomeReplayedFailure, se
	}
	return resp, OutcomeReplayedSuccess, nil
}

func (c *Client) refresh(ctx context.Context) (*credentials.Session, error) {
	session, err := c.creds.RefreshSession(ctx)
	if err == nil && !session.Valid() {
		err = errors.ErrNoSession
	}
	if err != nil {
		c.metrics.ObserveRefresh(false)
		c.logger.Warn().Err(err).Msg("[gateway refresh] session refresh failed")
		return nil, err
	}
	c.metrics.ObserveRefresh(true)
	return session, nil
}

// abandoned reports whether a refresh failed because the caller gave up
// rather than because the session was rejected.
func abandoned(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	return ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// unrecoverable sends the user back to sign in once and returns cause
// marked as errors.ErrSessionUnrecoverable.
func (c *Client) unrecoverable(cause error) error {
	c.metrics.ObserveReauthentication()
	if c.navigator != nil {
		c.navigator.Navigate(navigation.Redirect(c.reauthPath))
	}
	return fmt.Errorf("%w: %w", errors.ErrSessionUnrecoverable, cause)
}

func (c *Client) send(ctx context.Context, req PendingRequest) (*Response, error) {
	httpReq, err := req.build(ctx, c.baseURL)
	if err != nil {
		return nil, err
	}
	for key, values := range c.headers {
		if httpReq.Header.Get(key) == "" {
			httpReq.Header[key] = append([]string(nil), values...)
		}
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrTransport, "[gateway send] %s %s: %v", req.method, req.path, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrTransport, "[gateway send] reading %s %s: %v", req.method, req.path, err)
	}
	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
	}, nil
}

func statusError(req PendingRequest, resp *Response) *StatusError {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &StatusError{
		Method:     req.method,
		Path:       req.path,
		StatusCode: resp.StatusCode,
		Body:       resp.Body,
	}
}
