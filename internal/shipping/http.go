package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bookstore-next/internal/models"
)

const defaultHTTPTimeout = 3 * time.Second

// HTTPResolver 调用外部运费服务
type HTTPResolver struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	client  *http.Client
}

type rateRequest struct {
	Region   string       `json:"region"`
	Subtotal models.Money `json:"subtotal"`
}

type rateResponse struct {
	Rate  *models.Money `json:"rate"`
	Error string        `json:"error"`
}

// NewHTTPResolver 创建远程运费解析器
func NewHTTPResolver(baseURL, apiKey string, timeout time.Duration) (*HTTPResolver, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%w: base_url is required", ErrUnavailable)
	}
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &HTTPResolver{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(apiKey),
		timeout: timeout,
		client:  &http.Client{},
	}, nil
}

// Rate 计算运费
func (r *HTTPResolver) Rate(ctx context.Context, region string, subtotal models.Money) (models.Money, error) {
	body, err := json.Marshal(rateRequest{Region: strings.TrimSpace(region), Subtotal: subtotal})
	if err != nil {
		return models.Money{}, err
	}
	respBody, statusCode, err := r.doJSONRequest(ctx, "/v1/rates", body)
	if err != nil {
		return models.Money{}, err
	}
	if statusCode == http.StatusUnprocessableEntity || statusCode == http.StatusNotFound {
		return models.Money{}, fmt.Errorf("%w: %s", ErrRegionUnsupported, region)
	}
	if statusCode < 200 || statusCode >= 300 {
		return models.Money{}, fmt.Errorf("%w: status %d", ErrUnavailable, statusCode)
	}
	var parsed rateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return models.Money{}, fmt.Errorf("%w: decode response failed", ErrUnavailable)
	}
	if parsed.Rate == nil || parsed.Rate.IsNegative() {
		return models.Money{}, fmt.Errorf("%w: invalid rate", ErrUnavailable)
	}
	return *parsed.Rate, nil
}

func (r *HTTPResolver) doJSONRequest(ctx context.Context, endpoint string, body []byte) ([]byte, int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := r.withDefaultTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build request failed", ErrUnavailable)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if r.apiKey != "" {
		req.Header.Set("X-API-Key", r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read response failed", ErrUnavailable)
	}
	return respBody, resp.StatusCode, nil
}

func (r *HTTPResolver) withDefaultTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}
