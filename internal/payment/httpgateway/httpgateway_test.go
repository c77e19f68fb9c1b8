package httpgateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bookstore-next/internal/models"
	"github.com/bookstore-next/internal/payment"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) *Gateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	g, err := New(Config{BaseURL: server.URL + "/", SecretKey: "sk_test", Currency: "usd"})
	if err != nil {
		t.Fatalf("new gateway failed: %v", err)
	}
	return g
}

func TestChargeSendsFormAndParsesResult(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/charges" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk_test" {
			t.Errorf("missing bearer secret")
		}
		if r.Header.Get("Idempotency-Key") != "att-1" {
			t.Errorf("idempotency key want att-1 got %s", r.Header.Get("Idempotency-Key"))
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form failed: %v", err)
		}
		if r.PostForm.Get("amount") != "1299" || r.PostForm.Get("currency") != "usd" {
			t.Errorf("unexpected form: %v", r.PostForm)
		}
		_, _ = w.Write([]byte(`{"id":"ch_1","status":"succeeded"}`))
	})

	result, err := g.Charge(context.Background(), payment.ChargeRequest{AttemptID: "att-1", Amount: models.MustMoney("12.99"), Token: "tok_visa"})
	if err != nil {
		t.Fatalf("charge failed: %v", err)
	}
	if result.TransactionID != "ch_1" {
		t.Fatalf("transaction id want ch_1 got %s", result.TransactionID)
	}
}

func TestChargeDeclined(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"message":"insufficient funds"}}`))
	})
	_, err := g.Charge(context.Background(), payment.ChargeRequest{AttemptID: "a", Amount: models.MustMoney("5")})
	if !errors.Is(err, payment.ErrDeclined) {
		t.Fatalf("want ErrDeclined got %v", err)
	}
}

func TestChargeTimeoutSurfacesContextError(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"id":"late","status":"succeeded"}`))
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := g.Charge(ctx, payment.ChargeRequest{AttemptID: "a", Amount: models.MustMoney("5")})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline exceeded got %v", err)
	}
}

func TestRefund(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("charge") == "missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"id":"re_1","status":"succeeded"}`))
	})
	ok, err := g.Refund(context.Background(), models.MustMoney("3.50"), "ch_1")
	if err != nil || !ok {
		t.Fatalf("refund should succeed, ok=%v err=%v", ok, err)
	}
	if _, err := g.Refund(context.Background(), models.MustMoney("1"), "missing"); !errors.Is(err, payment.ErrTransactionNotFound) {
		t.Fatalf("want ErrTransactionNotFound got %v", err)
	}
}

func TestToMinorAmountZeroDecimal(t *testing.T) {
	minor, err := toMinorAmount(models.MustMoney("1500"), "JPY")
	if err != nil || minor != 1500 {
		t.Fatalf("jpy minor want 1500 got %d err=%v", minor, err)
	}
	if _, err := toMinorAmount(models.MustMoney("0"), "USD"); err == nil {
		t.Fatalf("zero amount should fail")
	}
}

func TestNewValidatesConfig(t *testing.T) {
	if _, err := New(Config{SecretKey: "x"}); err == nil {
		t.Fatalf("missing base url should fail")
	}
	if _, err := New(Config{BaseURL: "http://x"}); err == nil {
		t.Fatalf("missing secret should fail")
	}
}

func TestChargeAndRefundShareGatewayCurrency(t *testing.T) {
	var amounts []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		amounts = append(amounts, r.PostForm.Get("amount"))
		if r.URL.Path == "/v1/charges" {
			_, _ = w.Write([]byte(`{"id":"ch_jpy","status":"succeeded"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"re_jpy","status":"succeeded"}`))
	}))
	t.Cleanup(server.Close)
	g, err := New(Config{BaseURL: server.URL, SecretKey: "sk_test", Currency: "jpy"})
	if err != nil {
		t.Fatalf("new gateway failed: %v", err)
	}

	if _, err := g.Charge(context.Background(), payment.ChargeRequest{AttemptID: "usd", Amount: models.MustMoney("15"), Currency: "USD"}); !errors.Is(err, payment.ErrRequestFailed) {
		t.Fatalf("mismatched currency should fail, got %v", err)
	}
	if len(amounts) != 0 {
		t.Fatalf("mismatched currency must not reach the gateway, got %v", amounts)
	}

	result, err := g.Charge(context.Background(), payment.ChargeRequest{AttemptID: "jpy", Amount: models.MustMoney("1500"), Currency: "JPY"})
	if err != nil {
		t.Fatalf("charge failed: %v", err)
	}
	if ok, err := g.Refund(context.Background(), models.MustMoney("1500"), result.TransactionID); err != nil || !ok {
		t.Fatalf("refund failed ok=%v err=%v", ok, err)
	}
	if len(amounts) != 2 || amounts[0] != "1500" || amounts[1] != "1500" {
		t.Fatalf("charge and refund should use the same minor units, got %v", amounts)
	}
}
