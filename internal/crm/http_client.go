package crm

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

	"github.com/boostxlresults/intellisend/pkg/logging"
)

const defaultTimeout = 15 * time.Second

// HTTPClient talks to the field-service CRM's REST API.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logging.Logger
	dryRun     bool // When true, CreateJob logs the request but doesn't book.

	// tenantOverride pins every call to one CRM tenant. Single-tenant
	// deployments set it when org ids don't map to CRM tenant ids 1:1.
	tenantOverride string
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithDryRun enables dry-run mode — CreateJob will log the request but return
// a fake success without calling the CRM.
func WithDryRun(dryRun bool) Option {
	return func(c *HTTPClient) {
		c.dryRun = dryRun
	}
}

// WithTenantOverride makes every request use the given CRM tenant id
// regardless of the caller's org id.
func WithTenantOverride(tenantID string) Option {
	return func(c *HTTPClient) {
		c.tenantOverride = tenantID
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient substitutes the underlying http.Client (used in tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewHTTPClient creates a CRM API client.
func NewHTTPClient(baseURL, apiKey string, logger *logging.Logger, opts ...Option) *HTTPClient {
	if logger == nil {
		logger = logging.Default()
	}
	c := &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ Client = (*HTTPClient)(nil)

func (c *HTTPClient) tenant(tenantID string) string {
	if c.tenantOverride != "" {
		return c.tenantOverride
	}
	return tenantID
}

func (c *HTTPClient) SearchCustomersByPhone(ctx context.Context, tenantID, phone string) ([]Customer, error) {
	return c.searchCustomers(ctx, tenantID, url.Values{"phone": {phone}})
}

func (c *HTTPClient) SearchCustomersByAddress(ctx context.Context, tenantID, address string) ([]Customer, error) {
	return c.searchCustomers(ctx, tenantID, url.Values{"address": {address}})
}

func (c *HTTPClient) SearchCustomersByName(ctx context.Context, tenantID, name string) ([]Customer, error) {
	return c.searchCustomers(ctx, tenantID, url.Values{"name": {name}})
}

func (c *HTTPClient) searchCustomers(ctx context.Context, tenantID string, query url.Values) ([]Customer, error) {
	var out struct {
		Customers []Customer `json:"customers"`
	}
	endpoint := fmt.Sprintf("/tenants/%s/customers?%s", url.PathEscape(c.tenant(tenantID)), query.Encode())
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return out.Customers, nil
}

func (c *HTTPClient) CreateCustomer(ctx context.Context, tenantID string, req NewCustomer) (*Customer, error) {
	var out Customer
	endpoint := fmt.Sprintf("/tenants/%s/customers", url.PathEscape(c.tenant(tenantID)))
	if err := c.do(ctx, http.MethodPost, endpoint, req, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, fmt.Errorf("crm: create customer returned no id")
	}
	return &out, nil
}

func (c *HTTPClient) GetAvailability(ctx context.Context, tenantID string, req AvailabilityRequest) ([]Slot, error) {
	query := url.Values{}
	if req.BusinessUnitID != "" {
		query.Set("businessUnitId", req.BusinessUnitID)
	}
	if req.MaxSlots > 0 {
		query.Set("max", fmt.Sprintf("%d", req.MaxSlots))
	}
	if req.DaysAhead > 0 {
		query.Set("days", fmt.Sprintf("%d", req.DaysAhead))
	}

	var out struct {
		Slots []Slot `json:"slots"`
	}
	endpoint := fmt.Sprintf("/tenants/%s/availability?%s", url.PathEscape(c.tenant(tenantID)), query.Encode())
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return out.Slots, nil
}

func (c *HTTPClient) CreateJob(ctx context.Context, tenantID string, req NewJob) (*Job, error) {
	if c.dryRun {
		c.logger.Info("crm: dry-run job creation",
			"tenant_id", tenantID,
			"customer_id", req.CustomerID,
			"location_id", req.LocationID,
			"slot", req.Slot.FormatDisplay(),
		)
		return &Job{
			ID:            "dry-run-" + uuid.NewString(),
			AppointmentID: "dry-run-" + uuid.NewString(),
		}, nil
	}

	var out Job
	endpoint := fmt.Sprintf("/tenants/%s/jobs", url.PathEscape(c.tenant(tenantID)))
	if err := c.do(ctx, http.MethodPost, endpoint, req, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, fmt.Errorf("crm: create job returned no id")
	}
	return &out, nil
}

func (c *HTTPClient) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("crm: failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("crm: failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("crm: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("crm: %s %s returned %d: %s", method, endpoint, resp.StatusCode, string(snippet))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("crm: failed to decode response: %w", err)
	}
	return nil
}
