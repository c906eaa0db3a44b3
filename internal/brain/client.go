package brain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"alphaminer/internal/domain"
	"alphaminer/internal/observability"
)

// Default configuration values.
const (
	DefaultTimeout           = 30 * time.Second
	DefaultPollInterval      = 5 * time.Second
	DefaultTransientDelay    = 10 * time.Second
	DefaultSimulationTimeout = 30 * time.Minute
)

// ErrAuthFailed indicates the platform rejected the credentials.
var ErrAuthFailed = errors.New("authentication failed")

// Client talks to the factor research platform's REST API: session
// authentication, simulation submission and result polling.
type Client struct {
	baseURL  string
	username string
	password string

	client            *http.Client
	pollInterval      time.Duration
	transientDelay    time.Duration
	simulationTimeout time.Duration
	logger            *log.Logger
	metrics           *observability.Metrics

	authMu sync.Mutex
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom http.Client. A cookie jar is attached
// if the client has none, since the session lives in cookies.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithPollInterval sets the delay between progress polls.
func WithPollInterval(d time.Duration) ClientOption {
	return func(c *Client) {
		c.pollInterval = d
	}
}

// WithTransientDelay sets the wait after a transient poll failure.
func WithTransientDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.transientDelay = d
	}
}

// WithSimulationTimeout sets the wall-clock budget for one simulation.
func WithSimulationTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.simulationTimeout = d
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *log.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics instruments submissions, re-authentications and polls.
func WithMetrics(m *observability.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a new platform client.
func NewClient(baseURL, username, password string, opts ...ClientOption) *Client {
	jar, _ := cookiejar.New(nil)
	c := &Client{
		baseURL:           baseURL,
		username:          username,
		password:          password,
		client:            &http.Client{Timeout: DefaultTimeout, Jar: jar},
		pollInterval:      DefaultPollInterval,
		transientDelay:    DefaultTransientDelay,
		simulationTimeout: DefaultSimulationTimeout,
		logger:            log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client.Jar == nil {
		c.client.Jar, _ = cookiejar.New(nil)
	}
	return c
}

// Authenticate opens a session. The platform answers 201 Created and
// sets a session cookie the jar carries on subsequent requests.
func (c *Client) Authenticate(ctx context.Context) error {
	c.authMu.Lock()
	defer c.authMu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/authentication", nil)
	if err != nil {
		return fmt.Errorf("create auth request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("auth request: %w", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%w: status %d: %s", ErrAuthFailed, resp.StatusCode, string(body))
	}

	c.logger.Printf("authenticated as %s", c.username)
	return nil
}

// Submit sends one expression for simulation and returns the progress
// URL from the Location header.
//
// A 401 triggers one re-authentication and one identical retry. Any
// other non-201 answer is treated as the platform rejecting the
// expression: the body is logged and an empty handle is returned
// without error, so the caller can classify the expression as
// unsimulatable instead of aborting the run.
func (c *Client) Submit(ctx context.Context, expression string, settings domain.SimulationSettings) (string, error) {
	payload := simulationRequest{
		Type:     "REGULAR",
		Regular:  expression,
		Settings: settings,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal simulation request: %w", err)
	}

	reauthed := false
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/simulations", bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("create simulation request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return "", fmt.Errorf("submit simulation: %w", err)
		}
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusCreated:
			location := resp.Header.Get("Location")
			if location == "" {
				return "", fmt.Errorf("simulation accepted without Location header")
			}
			if c.metrics != nil {
				c.metrics.SimulationsSubmitted.Inc()
			}
			return location, nil

		case resp.StatusCode == http.StatusUnauthorized && !reauthed:
			c.logger.Printf("session expired, re-authenticating")
			if err := c.Authenticate(ctx); err != nil {
				return "", err
			}
			if c.metrics != nil {
				c.metrics.Reauthentications.Inc()
			}
			reauthed = true

		default:
			c.logger.Printf("simulation rejected (status %d): %s", resp.StatusCode, string(respBody))
			if c.metrics != nil {
				c.metrics.SubmissionsRejected.Inc()
			}
			return "", nil
		}
	}
}

// Poll watches a progress URL until the simulation finishes, fails or
// the wall-clock budget runs out. It always returns a result; failures
// are expressed through Success=false rather than an error, except for
// context cancellation.
func (c *Client) Poll(ctx context.Context, progressURL, expression string) (*domain.AlphaResult, error) {
	deadline := time.Now().Add(c.simulationTimeout)

	for {
		if time.Now().After(deadline) {
			c.logger.Printf("simulation timed out after %s", c.simulationTimeout)
			return domain.FailedResult(expression, "Timeout"), nil
		}

		progress, err := c.fetchProgress(ctx, progressURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Printf("progress poll failed, retrying: %v", err)
			if c.metrics != nil {
				c.metrics.PollFailures.Inc()
			}
			if err := sleepCtx(ctx, c.transientDelay); err != nil {
				return nil, err
			}
			continue
		}

		switch progress.Status {
		case statusComplete:
			return c.fetchResult(ctx, progress.Alpha, expression)
		case statusError, statusFailed:
			msg := progress.Message
			if msg == "" {
				msg = "simulation failed"
			}
			return domain.FailedResult(expression, msg), nil
		}

		// Still pending.
		if err := sleepCtx(ctx, c.pollInterval); err != nil {
			return nil, err
		}
	}
}

// Simulate submits an expression and waits for its result. A nil
// result with nil error means the platform refused the expression at
// submission time.
func (c *Client) Simulate(ctx context.Context, expression string, settings domain.SimulationSettings) (*domain.AlphaResult, error) {
	started := time.Now()

	progressURL, err := c.Submit(ctx, expression, settings)
	if err != nil {
		return nil, err
	}
	if progressURL == "" {
		return nil, nil
	}

	res, err := c.Poll(ctx, progressURL, expression)
	if err != nil {
		return nil, err
	}
	if c.metrics != nil {
		c.metrics.SimulationDuration.Observe(time.Since(started).Seconds())
		if res.Success {
			c.metrics.LastSuccessfulSimulation.SetToCurrentTime()
		}
	}
	return res, nil
}

// fetchProgress reads the simulation progress document.
func (c *Client) fetchProgress(ctx context.Context, progressURL string) (*progressResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, progressURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create progress request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch progress: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("progress status %d: %s", resp.StatusCode, string(body))
	}

	var progress progressResponse
	if err := json.NewDecoder(resp.Body).Decode(&progress); err != nil {
		return nil, fmt.Errorf("decode progress: %w", err)
	}
	return &progress, nil
}

// fetchResult loads the finished alpha's in-sample metrics.
func (c *Client) fetchResult(ctx context.Context, alphaID, expression string) (*domain.AlphaResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/alphas/"+alphaID, nil)
	if err != nil {
		return nil, fmt.Errorf("create alpha request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return domain.FailedResult(expression, fmt.Sprintf("fetch alpha: %v", err)), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.FailedResult(expression, fmt.Sprintf("alpha status %d: %s", resp.StatusCode, string(body))), nil
	}

	var detail alphaResponse
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		return domain.FailedResult(expression, fmt.Sprintf("decode alpha: %v", err)), nil
	}

	return &domain.AlphaResult{
		AlphaID:    alphaID,
		Expression: expression,
		Sharpe:     detail.IS.Sharpe,
		Fitness:    detail.IS.Fitness,
		Turnover:   detail.IS.Turnover,
		Returns:    detail.IS.Returns,
		Drawdown:   detail.IS.Drawdown,
		Margin:     detail.IS.Margin,
		LongCount:  detail.IS.LongCount,
		ShortCount: detail.IS.ShortCount,
		Success:    true,
	}, nil
}

// sleepCtx waits for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
