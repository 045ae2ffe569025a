package gateway

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"ib-batch-trader-go/internal/config"
)

// API defines the gateway operations the rest of the system consumes.
type API interface {
	Connect(ctx context.Context) ([]string, error)
	PlaceOrder(ctx context.Context, contract ContractSpec, order OrderSpec) (*PlaceOrderResponse, error)
	OrderStatus(ctx context.Context, orderID int64) (*OrderStatusResponse, error)
	Positions(ctx context.Context) ([]Position, error)
	AccountSummary(ctx context.Context) ([]AccountValue, error)
	Disconnect(ctx context.Context) error
}

// Client is a REST client for the brokerage gateway.
// It implements the API interface.
type Client struct {
	client   *resty.Client
	clientID int
	timeout  time.Duration
	logger   *zap.Logger
	limiter  *rate.Limiter
}

// ensure Client implements the interface
var _ API = (*Client)(nil)

// NewClient creates a new gateway REST client.
func NewClient(cfg *config.Gateway, logger *zap.Logger) *Client {
	baseURL := fmt.Sprintf("http://%s:%d/v1", cfg.Host, cfg.Port)
	client := resty.New().SetBaseURL(baseURL)

	// Initialize the rate limiter
	// rate.Limit is requests per second.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &Client{
		client:   client,
		clientID: cfg.ClientID,
		timeout:  cfg.ConnectTimeout,
		logger:   logger,
		limiter:  limiter,
	}
}

// Connect performs the session handshake and returns the managed accounts.
// A failure here is fatal for the whole session.
func (c *Client) Connect(ctx context.Context) ([]string, error) {
	type connectResponse struct {
		Accounts []string `json:"accounts"`
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &ConnectionError{Addr: c.client.BaseURL, Err: err}
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]int{"clientId": c.clientID}).
		SetResult(&connectResponse{}).
		Post("/sessions")
	if err != nil {
		return nil, &ConnectionError{Addr: c.client.BaseURL, Err: err}
	}
	if resp.IsError() {
		return nil, &ConnectionError{Addr: c.client.BaseURL, Err: fmt.Errorf("handshake rejected: %s", resp.Status())}
	}

	accounts := resp.Result().(*connectResponse).Accounts
	c.logger.Info("Connected to gateway",
		zap.String("base_url", c.client.BaseURL),
		zap.Strings("accounts", accounts),
	)
	return accounts, nil
}

// Disconnect releases the gateway session.
func (c *Client) Disconnect(ctx context.Context) error {
	resp, err := c.client.R().
		SetContext(ctx).
		Delete(fmt.Sprintf("/sessions/%d", c.clientID))
	if err != nil {
		return fmt.Errorf("failed to disconnect from gateway: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("failed to disconnect from gateway: %s", resp.Status())
	}
	c.logger.Info("Disconnected from gateway")
	return nil
}

// PlaceOrder submits one order. Placement is never retried: a failed or
// ambiguous submission must surface to the sequencer, not be repeated.
func (c *Client) PlaceOrder(ctx context.Context, contract ContractSpec, order OrderSpec) (*PlaceOrderResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &SubmissionError{Symbol: contract.Symbol, Err: err}
	}

	type placeOrderRequest struct {
		Contract ContractSpec `json:"contract"`
		Order    OrderSpec    `json:"order"`
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(placeOrderRequest{Contract: contract, Order: order}).
		SetResult(&PlaceOrderResponse{}).
		Post("/orders")
	if err != nil {
		return nil, &SubmissionError{Symbol: contract.Symbol, Err: err}
	}
	if resp.IsError() {
		return nil, &SubmissionError{
			Symbol: contract.Symbol,
			Err:    fmt.Errorf("gateway returned %s: %s", resp.Status(), resp.String()),
		}
	}

	result := resp.Result().(*PlaceOrderResponse)
	c.logger.Info("Order placed",
		zap.String("symbol", contract.Symbol),
		zap.Int64("order_id", result.OrderID),
		zap.String("status", result.Status),
	)
	return result, nil
}

// OrderStatus fetches the current status of a placed order.
func (c *Client) OrderStatus(ctx context.Context, orderID int64) (*OrderStatusResponse, error) {
	req := c.client.R().
		SetContext(ctx).
		SetResult(&OrderStatusResponse{})

	resp, err := c.doQuery(ctx, fmt.Sprintf("/orders/%d", orderID), req)
	if err != nil {
		return nil, fmt.Errorf("failed to get order status: %w", err)
	}
	return resp.Result().(*OrderStatusResponse), nil
}

// Positions fetches all open positions.
func (c *Client) Positions(ctx context.Context) ([]Position, error) {
	var positions []Position
	req := c.client.R().
		SetContext(ctx).
		SetResult(&positions)

	if _, err := c.doQuery(ctx, "/positions", req); err != nil {
		return nil, fmt.Errorf("failed to get positions: %w", err)
	}
	return positions, nil
}

// AccountSummary fetches the tagged account metrics.
func (c *Client) AccountSummary(ctx context.Context) ([]AccountValue, error) {
	var summary []AccountValue
	req := c.client.R().
		SetContext(ctx).
		SetResult(&summary)

	if _, err := c.doQuery(ctx, "/account/summary", req); err != nil {
		return nil, fmt.Errorf("failed to get account summary: %w", err)
	}
	return summary, nil
}

// doQuery executes a read-only GET with rate limiting and retry logic.
// Only queries retry; order placement goes through PlaceOrder directly.
func (c *Client) doQuery(ctx context.Context, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		// Wait for the rate limiter
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing query", zap.String("url", c.client.BaseURL+url))
		resp, err = req.Get(url)

		if err == nil && !resp.IsError() {
			return resp, nil // Success
		}

		// Analyze error and decide whether to retry
		shouldRetry := false
		haveRetryAfter := false
		var retryAfter time.Duration

		if resp != nil && resp.RawResponse != nil {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests || statusCode == 418 { // HTTP 429 or 418
				shouldRetry = true
				retryAfterHeader := resp.Header().Get("Retry-After")
				if seconds, perr := strconv.Atoi(retryAfterHeader); perr == nil {
					retryAfter = time.Duration(seconds) * time.Second
					haveRetryAfter = true
				}
			} else if statusCode >= 500 { // Server errors
				shouldRetry = true
			}
		} else { // Network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry {
			return nil, fmt.Errorf("query failed with status %s: %s", resp.Status(), resp.String())
		}

		// An HTTP-status failure carries no transport error; keep the
		// status so the final error names what went wrong.
		if err == nil {
			err = fmt.Errorf("query returned status %s", resp.Status())
		}

		// If we should retry, calculate wait time
		if retryAfter == 0 && !haveRetryAfter {
			// Exponential backoff: 1s, 2s, 4s
			retryAfter = time.Duration(math.Pow(2, float64(i))) * time.Second
		}

		c.logger.Warn("Query failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("query failed after %d attempts: %w", maxRetries, err)
}
