// Package backend talks to the shop's REST API: payment intents, order
// placement, reference data, and the product catalog. List endpoints use the
// Spring Data REST "_embedded" envelope.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/avelis/shopfront/internal/domain"
)

const idempotencyKeyHeader = "Idempotency-Key"

type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	log     *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "shop-backend",
		MaxRequests: 3,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: breaker,
		log:     log,
	}
}

func (c *Client) CreatePaymentIntent(ctx context.Context, req domain.PaymentIntentRequest) (*domain.PaymentIntentResponse, error) {
	var resp domain.PaymentIntentResponse
	if err := c.post(ctx, "/api/checkout/payment-intent", "", req, &resp); err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return &resp, nil
}

// purchaseDTO is the order-placement payload the backend expects.
type purchaseDTO struct {
	Customer        domain.Customer    `json:"customer"`
	ShippingAddress domain.Address     `json:"shippingAddress"`
	BillingAddress  domain.Address     `json:"billingAddress"`
	Order           purchaseOrderDTO   `json:"order"`
	OrderItems      []domain.OrderItem `json:"orderItems"`
}

type purchaseOrderDTO struct {
	TotalPrice    string `json:"totalPrice"`
	TotalQuantity int    `json:"totalQuantity"`
}

type purchaseResponseDTO struct {
	OrderTrackingNumber string `json:"orderTrackingNumber"`
}

// PlaceOrder submits the snapshot with its attempt ID as the idempotency key,
// so replaying a paid attempt cannot create a second order.
func (c *Client) PlaceOrder(ctx context.Context, snapshot *domain.OrderSnapshot) (string, error) {
	payload := purchaseDTO{
		Customer:        snapshot.Customer,
		ShippingAddress: snapshot.ShippingAddress,
		BillingAddress:  snapshot.BillingAddress,
		Order: purchaseOrderDTO{
			TotalPrice:    snapshot.TotalPrice.String(),
			TotalQuantity: snapshot.TotalQuantity,
		},
		OrderItems: snapshot.Items,
	}

	var resp purchaseResponseDTO
	if err := c.post(ctx, "/api/checkout/purchase", snapshot.AttemptID, payload, &resp); err != nil {
		return "", fmt.Errorf("place order: %w", err)
	}
	return resp.OrderTrackingNumber, nil
}

func (c *Client) Countries(ctx context.Context) ([]domain.Country, error) {
	var resp struct {
		Embedded struct {
			Countries []domain.Country `json:"countries"`
		} `json:"_embedded"`
	}
	if err := c.get(ctx, "/api/countries", &resp); err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	return resp.Embedded.Countries, nil
}

func (c *Client) States(ctx context.Context, countryCode string) ([]domain.State, error) {
	var resp struct {
		Embedded struct {
			States []domain.State `json:"states"`
		} `json:"_embedded"`
	}
	path := "/api/states/search/findByCountryCode?code=" + url.QueryEscape(countryCode)
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("list states for %s: %w", countryCode, err)
	}
	return resp.Embedded.States, nil
}

func (c *Client) ProductCategories(ctx context.Context) ([]domain.ProductCategory, error) {
	var resp struct {
		Embedded struct {
			Categories []domain.ProductCategory `json:"productCategory"`
		} `json:"_embedded"`
	}
	if err := c.get(ctx, "/api/product-category", &resp); err != nil {
		return nil, fmt.Errorf("list product categories: %w", err)
	}
	return resp.Embedded.Categories, nil
}

func (c *Client) ProductsByCategory(ctx context.Context, categoryID int64, page, size int) (*domain.ProductPage, error) {
	query := url.Values{
		"id":   {strconv.FormatInt(categoryID, 10)},
		"page": {strconv.Itoa(page)},
		"size": {strconv.Itoa(size)},
	}
	return c.productPage(ctx, "/api/products/search/findByCategoryId?"+query.Encode())
}

func (c *Client) SearchProducts(ctx context.Context, keyword string, page, size int) (*domain.ProductPage, error) {
	query := url.Values{
		"name": {keyword},
		"page": {strconv.Itoa(page)},
		"size": {strconv.Itoa(size)},
	}
	return c.productPage(ctx, "/api/products/search/findByNameContaining?"+query.Encode())
}

func (c *Client) Product(ctx context.Context, productID int64) (*domain.Product, error) {
	var product domain.Product
	if err := c.get(ctx, fmt.Sprintf("/api/products/%d", productID), &product); err != nil {
		return nil, fmt.Errorf("get product %d: %w", productID, err)
	}
	return &product, nil
}

func (c *Client) productPage(ctx context.Context, path string) (*domain.ProductPage, error) {
	var resp struct {
		Embedded struct {
			Products []domain.Product `json:"products"`
		} `json:"_embedded"`
		Page domain.Page `json:"page"`
	}
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return &domain.ProductPage{Products: resp.Embedded.Products, Page: resp.Page}, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, "", nil, out)
}

func (c *Client) post(ctx context.Context, path, idempotencyKey string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, idempotencyKey, payload, out)
}

func (c *Client) do(ctx context.Context, method, path, idempotencyKey string, body []byte, out any) error {
	data, err := c.breaker.Execute(func() ([]byte, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if idempotencyKey != "" {
			req.Header.Set(idempotencyKeyHeader, idempotencyKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, fmt.Errorf("backend returned %d for %s %s", resp.StatusCode, method, path)
		}
		return data, nil
	})
	if err != nil {
		c.log.Warn("backend request failed",
			zap.String("method", method), zap.String("path", path), zap.Error(err))
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
