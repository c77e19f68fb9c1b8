package shared

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bookstore-next/internal/http/response"
	"github.com/bookstore-next/internal/service"

	"github.com/gin-gonic/gin"
)

func runMapped(t *testing.T, err error, rules []MappedError) response.Response {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/checkout", nil)
	RespondMappedError(c, err, rules, response.CodeInternal, "error.checkout_failed")

	var resp response.Response
	if decodeErr := json.Unmarshal(w.Body.Bytes(), &resp); decodeErr != nil {
		t.Fatalf("decode response failed: %v", decodeErr)
	}
	return resp
}

func TestCheckoutErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{name: "empty cart", err: service.ErrEmptyCart, code: response.CodeBadRequest},
		{name: "insufficient stock typed", err: &service.InsufficientStockError{ProductID: 1, Requested: 2}, code: response.CodeConflict},
		{name: "promo rejected typed", err: &service.PromoRejectedError{Code: "X", Reason: "expired"}, code: response.CodeBadRequest},
		{name: "timeout before declined", err: service.ErrPaymentTimeout, code: response.CodeGatewayTimeout},
		{name: "declined wrapped", err: fmt.Errorf("gateway: %w", service.ErrPaymentDeclined), code: response.CodePaymentRequired},
		{name: "reservation expired", err: service.ErrReservationExpired, code: response.CodeGone},
		{name: "fallback", err: fmt.Errorf("disk full"), code: response.CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := runMapped(t, tc.err, CheckoutErrorRules)
			if resp.StatusCode != tc.code {
				t.Fatalf("status code want %d got %d (%s)", tc.code, resp.StatusCode, resp.Msg)
			}
		})
	}
}

func TestPurchaseOrderErrorMapping(t *testing.T) {
	resp := runMapped(t, &service.OverReceiptError{ItemID: 3, Outstanding: 1, Requested: 5}, PurchaseOrderErrorRules)
	if resp.StatusCode != response.CodeConflict || resp.Msg != "Received quantity exceeds the outstanding quantity" {
		t.Fatalf("unexpected over receipt response: %+v", resp)
	}
}

func TestConcatMappedErrors(t *testing.T) {
	merged := ConcatMappedErrors(OrderErrorRules, PromoCodeErrorRules)
	if len(merged) != len(OrderErrorRules)+len(PromoCodeErrorRules) {
		t.Fatalf("unexpected merged size %d", len(merged))
	}
}
