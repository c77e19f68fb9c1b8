package httpgateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bookstore-next/internal/models"
	"github.com/bookstore-next/internal/payment"

	"github.com/shopspring/decimal"
)

const defaultTimeout = 12 * time.Second

var zeroDecimalCurrencies = map[string]struct{}{
	"JPY": {},
	"KRW": {},
	"VND": {},
	"CLP": {},
}

// Config 表单式 REST 支付网关配置
type Config struct {
	BaseURL   string
	SecretKey string
	Currency  string
	Timeout   time.Duration
}

// Gateway 表单式 REST 支付网关
type Gateway struct {
	cfg    Config
	client *http.Client
}

// New 创建网关
func New(cfg Config) (*Gateway, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	cfg.SecretKey = strings.TrimSpace(cfg.SecretKey)
	cfg.Currency = strings.ToUpper(strings.TrimSpace(cfg.Currency))
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: base_url is required", payment.ErrRequestFailed)
	}
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: secret_key is required", payment.ErrRequestFailed)
	}
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Gateway{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}, nil
}

// Charge 扣款，币种须与网关配置一致，退款按同一币种换算
func (g *Gateway) Charge(ctx context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error) {
	currency := g.cfg.Currency
	if requested := strings.ToUpper(strings.TrimSpace(req.Currency)); requested != "" && requested != currency {
		return nil, fmt.Errorf("%w: currency %s does not match gateway currency %s", payment.ErrRequestFailed, requested, currency)
	}
	minor, err := toMinorAmount(req.Amount, currency)
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(minor, 10))
	form.Set("currency", strings.ToLower(currency))
	form.Set("source", strings.TrimSpace(req.Token))
	form.Set("description", req.Description)
	form.Set("metadata[attempt_id]", req.AttemptID)
	form.Set("metadata[user_id]", strconv.FormatUint(uint64(req.UserID), 10))

	body, statusCode, err := g.doFormRequest(ctx, "/v1/charges", req.AttemptID, form)
	if err != nil {
		return nil, err
	}
	raw, err := decodeRawMap(body)
	if err != nil {
		return nil, err
	}
	if statusCode == http.StatusPaymentRequired {
		return nil, fmt.Errorf("%w: %s", payment.ErrDeclined, readErrorMessage(raw))
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, fmt.Errorf("%w: charge status %d", payment.ErrRequestFailed, statusCode)
	}

	status := readString(raw, "status")
	if status != "succeeded" {
		return nil, fmt.Errorf("%w: charge status %s", payment.ErrDeclined, status)
	}
	txnID := readString(raw, "id")
	if txnID == "" {
		return nil, fmt.Errorf("%w: missing charge id", payment.ErrResponseInvalid)
	}
	return &payment.ChargeResult{TransactionID: txnID, Status: status, Raw: raw}, nil
}

// Refund 退款
func (g *Gateway) Refund(ctx context.Context, amount models.Money, transactionID string) (bool, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return false, payment.ErrTransactionNotFound
	}
	minor, err := toMinorAmount(amount, g.cfg.Currency)
	if err != nil {
		return false, err
	}
	form := url.Values{}
	form.Set("charge", transactionID)
	form.Set("amount", strconv.FormatInt(minor, 10))

	body, statusCode, err := g.doFormRequest(ctx, "/v1/refunds", "refund:"+transactionID, form)
	if err != nil {
		return false, err
	}
	if statusCode == http.StatusNotFound {
		return false, payment.ErrTransactionNotFound
	}
	if statusCode < 200 || statusCode >= 300 {
		return false, fmt.Errorf("%w: refund status %d", payment.ErrRequestFailed, statusCode)
	}
	raw, err := decodeRawMap(body)
	if err != nil {
		return false, err
	}
	switch readString(raw, "status") {
	case "succeeded", "pending":
		return true, nil
	default:
		return false, nil
	}
}

func (g *Gateway) doFormRequest(ctx context.Context, path, idempotencyKey string, form url.Values) ([]byte, int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build request failed", payment.ErrRequestFailed)
	}
	req.Header.Set("Authorization", "Bearer "+g.cfg.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if strings.TrimSpace(idempotencyKey) != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, 0, ctxErr
		}
		return nil, 0, fmt.Errorf("%w: %v", payment.ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read response failed", payment.ErrResponseInvalid)
	}
	return body, resp.StatusCode, nil
}

func toMinorAmount(amount models.Money, currency string) (int64, error) {
	if amount.Decimal.LessThanOrEqual(decimal.Zero) {
		return 0, fmt.Errorf("%w: amount must be greater than zero", payment.ErrRequestFailed)
	}
	scale := currencyScale(currency)
	minor := amount.Decimal.Shift(int32(scale)).Round(0)
	return minor.IntPart(), nil
}

func currencyScale(currency string) int {
	if _, ok := zeroDecimalCurrencies[strings.ToUpper(strings.TrimSpace(currency))]; ok {
		return 0
	}
	return 2
}

func decodeRawMap(body []byte) (map[string]interface{}, error) {
	raw := map[string]interface{}{}
	if len(body) == 0 {
		return raw, nil
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode response failed", payment.ErrResponseInvalid)
	}
	return raw, nil
}

func readErrorMessage(raw map[string]interface{}) string {
	if nested, ok := raw["error"].(map[string]interface{}); ok {
		if msg := readString(nested, "message"); msg != "" {
			return msg
		}
	}
	if msg := readString(raw, "failure_message"); msg != "" {
		return msg
	}
	return "declined"
}

func readString(raw map[string]interface{}, key string) string {
	if raw == nil {
		return ""
	}
	value, ok := raw[key]
	if !ok || value == nil {
		return ""
	}
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case float64:
		return strconv.FormatInt(int64(typed), 10)
	default:
		return ""
	}
}
