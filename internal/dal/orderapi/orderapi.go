// Package orderapi is the kitchen's client for the order-intake read API.
package orderapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/corray333/fasttech/internal/service/models/order"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
)

// maxErrorBody bounds how much of a failed response ends up in the error.
const maxErrorBody = 512

// Client represents an HTTP client for the order service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client for baseURL. A zero timeout means requests are never cut short.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// MustNewClient creates a new Client from order_api.* config.
func MustNewClient() *Client {
	baseURL := viper.GetString("order_api.base_url")
	if baseURL == "" {
		panic("order_api.base_url is not set in config")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		panic(fmt.Sprintf("order_api.base_url is invalid: %v", err))
	}

	timeout := time.Duration(viper.GetInt("order_api.timeout_seconds")) * time.Second

	slog.Info("Order API client configured", "base_url", baseURL, "timeout", timeout)

	return NewClient(baseURL, timeout)
}

// FetchOrder reads the canonical order. Every failure, including not found, is returned as an error.
func (c *Client) FetchOrder(ctx context.Context, id string) (order.Order, error) {
	ctx, span := otel.Tracer("order-api-client").Start(ctx, "Client.FetchOrder")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", id))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/orders/"+url.PathEscape(id), nil)
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to build order request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to fetch order %s: %w", id, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return order.Order{}, fmt.Errorf("failed to fetch order %s: status %d: %s",
			id, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var o order.Order
	if err := json.NewDecoder(resp.Body).Decode(&o); err != nil {
		return order.Order{}, fmt.Errorf("failed to decode order %s: %w", id, err)
	}

	return o, nil
}
