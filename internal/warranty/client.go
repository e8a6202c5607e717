// AngelaMos | 2026
// client.go

package warranty

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/templates/asset-manager/internal/config"
	"github.com/carterperez-dev/templates/asset-manager/internal/core"
)

const (
	defaultTimeout = 15 * time.Second
	apiKeyHeader   = "X-API-Key"
	maxInt32       = 2147483647
)

// Registration is the record the warranty service stores per asset.
type Registration struct {
	AssetName            string   `json:"asset_name"`
	Category             string   `json:"category"`
	DatePurchased        string   `json:"date_purchased"`
	Cost                 string   `json:"cost"`
	Department           string   `json:"department"`
	Status               string   `json:"status"`
	UserID               int64    `json:"user_id"`
	UserName             string   `json:"user_name"`
	WarrantyPeriodMonths int      `json:"warranty_period_months,omitempty"`
	WarrantyExpiryDate   string   `json:"warranty_expiry_date,omitempty"`
	Notes                string   `json:"notes,omitempty"`
	ImageURLs            []string `json:"image_urls,omitempty"`
}

// StatusError is a non-2xx answer from the warranty service.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("warranty service returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("warranty service returned %d", e.StatusCode)
}

type Client struct {
	http            *resty.Client
	url             string
	apiKey          string
	defaultUserID   int64
	defaultUserName string
}

func NewClient(cfg config.WarrantyConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		http:            httpClient,
		url:             cfg.URL,
		apiKey:          cfg.APIKey,
		defaultUserID:   cfg.DefaultUserID,
		defaultUserName: cfg.DefaultUserName,
	}
}

func (c *Client) Configured() bool {
	return c.url != ""
}

func (c *Client) MirrorEnabled() bool {
	return c.url != "" && c.apiKey != ""
}

// Register records a warranty and returns the service's response body.
func (c *Client) Register(ctx context.Context, reg Registration) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("warranty url: %w", core.ErrNotConfigured)
	}

	return c.post(ctx, "warranty.register", reg)
}

// Mirror forwards a newly created asset under the service account
// configured for this deployment.
func (c *Client) Mirror(ctx context.Context, reg Registration) error {
	if !c.MirrorEnabled() {
		return fmt.Errorf("warranty mirror: %w", core.ErrNotConfigured)
	}

	reg.UserID = c.defaultUserID
	reg.UserName = c.defaultUserName

	_, err := c.post(ctx, "warranty.mirror", reg)
	return err
}

func (c *Client) post(ctx context.Context, op string, reg Registration) (json.RawMessage, error) {
	ctx, span := core.StartSpan(ctx, op, attribute.String("warranty.asset", reg.AssetName))

	req := c.http.R().SetContext(ctx).SetBody(reg)
	if c.apiKey != "" {
		req.SetHeader(apiKeyHeader, c.apiKey)
	}

	resp, err := req.Post(c.url)
	if err != nil {
		err = fmt.Errorf("call warranty service: %w", err)
		core.EndSpan(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode()))

	if resp.IsError() {
		err := &StatusError{
			StatusCode: resp.StatusCode(),
			Message:    errorMessage(resp.Body()),
		}
		core.EndSpan(span, err)
		return nil, err
	}

	core.EndSpan(span, nil)

	body := resp.Body()
	if len(body) == 0 || !json.Valid(body) {
		return json.RawMessage("null"), nil
	}

	return json.RawMessage(body), nil
}

func errorMessage(body []byte) string {
	var payload struct {
		Error   string          `json:"error"`
		Message string          `json:"message"`
		Detail  json.RawMessage `json:"detail"`
	}

	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	switch {
	case payload.Error != "":
		return payload.Error
	case payload.Message != "":
		return payload.Message
	}

	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err == nil {
		return detail
	}

	return ""
}

// ExternalUserID maps an account uuid onto the positive 32-bit id space
// the warranty service uses: the first eight hex digits modulo 2^31-1,
// or 1 when that comes out as zero or cannot be parsed.
func ExternalUserID(userID string) int64 {
	hex := strings.ReplaceAll(userID, "-", "")
	if len(hex) > 8 {
		hex = hex[:8]
	}

	n, err := strconv.ParseInt(hex, 16, 64)
	if err != nil {
		return 1
	}

	if id := n % maxInt32; id > 0 {
		return id
	}

	return 1
}
