// Package draftclient calls the draft service's POST /generate.
package draftclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	draftcontract "draftmail/contracts/draft"
	"draftmail/pkg/auth"
	"draftmail/pkg/circuitbreaker"
	"draftmail/pkg/metrics"
	"draftmail/pkg/trace"
)

// DefaultTimeout bounds one draft call.
const DefaultTimeout = 90 * time.Second

// Error describes a failed draft call.
type Error struct {
	Op         string // request | status | decode | circuit
	StatusCode int
	Detail     string
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("draft service ")
	b.WriteString(e.Op)
	if e.StatusCode != 0 {
		b.WriteString(" ")
		b.WriteString(strconv.Itoa(e.StatusCode))
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// ErrEmptyDraft is returned when a 2xx response has no usable email text.
var ErrEmptyDraft = errors.New("response has no email text")

// Config configures the client.
type Config struct {
	URL       string
	Timeout   time.Duration
	JWTSecret string // empty disables the bearer token
	Subject   string // token subject, defaults to "delivery-bot"
}

type Client struct {
	url        string
	httpClient *http.Client
	cb         *circuitbreaker.CircuitBreaker
	jwtSecret  string
	subject    string
	logger     *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	subject := cfg.Subject
	if subject == "" {
		subject = "delivery-bot"
	}

	cbConfig := circuitbreaker.DefaultConfig()
	cbConfig.IsFailure = countsAgainstBreaker
	cbConfig.OnStateChange = func(from, to circuitbreaker.State) {
		logger.Warn("Draft service circuit breaker changed state",
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}

	return &Client{
		url: cfg.URL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		cb:        circuitbreaker.NewCircuitBreaker(cbConfig),
		jwtSecret: cfg.JWTSecret,
		subject:   subject,
		logger:    logger,
	}
}

// countsAgainstBreaker ignores 4xx answers: the service is up, the input was bad.
func countsAgainstBreaker(err error) bool {
	if err == nil {
		return false
	}
	var de *Error
	if errors.As(err, &de) && de.StatusCode >= 400 && de.StatusCode < 500 {
		return false
	}
	return true
}

// Draft returns the email text generated for idea.
func (c *Client) Draft(ctx context.Context, idea string) (string, error) {
	var email string

	err := c.cb.Execute(func() error {
		start := time.Now()
		var callErr error
		email, callErr = c.call(ctx, idea)
		metrics.RecordDraftClientLatency(draftcontract.GeneratePath, statusLabel(callErr), time.Since(start))
		return callErr
	})
	if errors.Is(err, circuitbreaker.ErrCircuitBreakerOpen) {
		return "", &Error{Op: "circuit", Err: err}
	}
	if err != nil {
		return "", err
	}
	return email, nil
}

func (c *Client) call(ctx context.Context, idea string) (string, error) {
	b, err := json.Marshal(draftcontract.Request{Prompt: idea})
	if err != nil {
		return "", &Error{Op: "request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(b))
	if err != nil {
		return "", &Error{Op: "request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if traceID := trace.FromContext(ctx); traceID != "" {
		req.Header.Set(trace.HeaderName(), traceID)
	}
	if c.jwtSecret != "" {
		token, err := auth.GenerateServiceToken(c.subject, auth.AudienceDraftService, c.jwtSecret, time.Minute)
		if err != nil {
			return "", &Error{Op: "request", Err: err}
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &Error{Op: "request", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &Error{Op: "decode", StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var er draftcontract.ErrorResponse
		_ = json.Unmarshal(body, &er)
		return "", &Error{Op: "status", StatusCode: resp.StatusCode, Detail: er.Detail}
	}

	var out draftcontract.Response
	if err := json.Unmarshal(body, &out); err != nil {
		return "", &Error{Op: "decode", StatusCode: resp.StatusCode, Err: err}
	}
	if strings.TrimSpace(out.Email) == "" {
		return "", &Error{Op: "decode", StatusCode: resp.StatusCode, Err: ErrEmptyDraft}
	}
	return out.Email, nil
}

func statusLabel(err error) string {
	if err == nil {
		return "success"
	}
	var de *Error
	if errors.As(err, &de) && de.StatusCode != 0 {
		if de.StatusCode >= 500 {
			return "5xx"
		}
		return fmt.Sprintf("%d", de.StatusCode)
	}
	return "error"
}
