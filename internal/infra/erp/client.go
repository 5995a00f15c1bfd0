package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"erp-assistant/internal/domain"
	"erp-assistant/internal/infra"
)

// Client talks to the ERP product endpoints. Every call carries a
// bearer token from the TokenSource; when no token is available the
// call is silently skipped (zero values, nil error); authentication
// belongs to the surrounding deployment, not this component.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(baseURL string, tokens TokenSource, logger *slog.Logger) *Client {
	baseURL = strings.TrimSuffix(baseURL, "/")

	return &Client{
		baseURL:    baseURL,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

type generateReferenceRequest struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

type generateReferenceResponse struct {
	Code string `json:"code"`
}

// GenerateReference asks the backend for a fresh product reference
// code for the given name.
func (c *Client) GenerateReference(ctx context.Context, name string) (string, error) {
	token, err := c.bearer(ctx)
	if err != nil {
		return "", err
	}
	if token == "" {
		c.logger.Debug("no ERP token available, skipping reference generation")
		return "", nil
	}

	body, err := json.Marshal(generateReferenceRequest{Kind: "product", Name: name})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	var result generateReferenceResponse
	data, err := c.doRequest(ctx, http.MethodPost, "/api/products/generate-reference", token, body)
	if err != nil {
		return "", fmt.Errorf("generating reference: %w", err)
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("decoding reference: %w", err)
	}
	if result.Code == "" {
		return "", fmt.Errorf("backend returned empty reference code")
	}
	return result.Code, nil
}

// CreateProduct creates the product record. The reference code must
// already be set on the payload.
func (c *Client) CreateProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	token, err := c.bearer(ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		c.logger.Debug("no ERP token available, skipping product creation")
		return nil, nil
	}

	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshaling product: %w", err)
	}

	data, err := c.doRequest(ctx, http.MethodPost, "/api/products", token, body)
	if err != nil {
		return nil, fmt.Errorf("creating product: %w", err)
	}

	var created domain.Product
	if err := json.Unmarshal(data, &created); err != nil {
		return nil, fmt.Errorf("decoding product: %w", err)
	}
	return &created, nil
}

type listProductsResponse struct {
	Items []domain.Product `json:"items"`
	Total int              `json:"total"`
}

func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	token, err := c.bearer(ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		c.logger.Debug("no ERP token available, skipping product list")
		return nil, nil
	}

	data, err := c.doRequest(ctx, http.MethodGet, "/api/products", token, nil)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}

	var result listProductsResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decoding products: %w", err)
	}
	return result.Items, nil
}

func (c *Client) bearer(ctx context.Context) (string, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("getting token: %w", err)
	}
	return token, nil
}

func (c *Client) doRequest(ctx context.Context, method, path, token string, body []byte) ([]byte, error) {
	var data []byte

	retryErr := infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+token)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1024*1024))
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if infra.IsRetryableHTTPStatus(resp.StatusCode) {
				return fmt.Errorf("ERP API error %d: %s (retryable)", resp.StatusCode, string(respBody))
			}
			return fmt.Errorf("ERP API error %d: %s", resp.StatusCode, string(respBody))
		}

		data = respBody
		return nil
	})

	if retryErr != nil {
		return nil, retryErr
	}
	return data, nil
}
