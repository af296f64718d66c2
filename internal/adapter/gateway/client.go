package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"time"

	domainErrors "github.com/vkruglov/coursepay/internal/domain/errors"
)

// Client exposes operations against the external payment gateway.
type Client interface {
	CreateOrder(ctx context.Context, amount int64, currency string) (string, error)
}

// HTTPClient implements Client via HTTP API.
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type createOrderResponse struct {
	OrderID string `json:"order_id"`
}

// NewHTTPClient creates HTTP gateway client with the given request timeout.
func NewHTTPClient(baseURL string, timeout time.Duration, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse gateway url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("gateway url must be absolute")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPClient{
		baseURL: parsed,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// CreateOrder registers a payment order with the gateway and returns the
// gateway-issued order identifier. Transport failures get one retry; a
// failure after that surfaces as ErrGatewayUnavailable.
func (c *HTTPClient) CreateOrder(ctx context.Context, amount int64, currency string) (string, error) {
	payload, err := json.Marshal(createOrderRequest{Amount: amount, Currency: currency})
	if err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		orderID, retryable, err := c.post(ctx, payload)
		if err == nil {
			return orderID, nil
		}
		lastErr = err
		if !retryable {
			return "", err
		}
		if ctx.Err() != nil {
			break
		}
	}

	c.logger.Error("gateway order creation failed", slog.Any("error", lastErr))
	return "", fmt.Errorf("%w: %v", domainErrors.ErrGatewayUnavailable, lastErr)
}

func (c *HTTPClient) post(ctx context.Context, payload []byte) (string, bool, error) {
	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, "/api/orders")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", false, err
		}
		var data createOrderResponse
		if err := json.Unmarshal(body, &data); err != nil {
			return "", false, err
		}
		if data.OrderID == "" {
			return "", false, fmt.Errorf("gateway returned empty order id")
		}
		return data.OrderID, false, nil
	case resp.StatusCode >= http.StatusInternalServerError:
		body, _ := io.ReadAll(resp.Body)
		c.logger.Warn("gateway server error", slog.Int("status", resp.StatusCode), slog.String("body", string(body)))
		return "", true, fmt.Errorf("gateway error: %s", resp.Status)
	default:
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("gateway rejected order", slog.Int("status", resp.StatusCode), slog.String("body", string(body)))
		return "", false, fmt.Errorf("gateway rejected order: %s", resp.Status)
	}
}
