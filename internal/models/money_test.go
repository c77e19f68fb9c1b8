package models

import (
	"encoding/json"
	"testing"
)

func TestMoneyJSONAcceptsStringAndNumber(t *testing.T) {
	var payload struct {
		A Money `json:"a"`
		B Money `json:"b"`
		C Money `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":"12.345","b":7.5,"c":null}`), &payload); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if payload.A.String() != "12.35" {
		t.Fatalf("a want 12.35 got %s", payload.A.String())
	}
	if payload.B.String() != "7.50" {
		t.Fatalf("b want 7.50 got %s", payload.B.String())
	}
	if !payload.C.IsZero() {
		t.Fatalf("null should stay zero, got %s", payload.C.String())
	}

	out, err := json.Marshal(payload.B)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(out) != `"7.50"` {
		t.Fatalf("marshal want \"7.50\" got %s", out)
	}
}

func TestMoneyMulQty(t *testing.T) {
	price := MustMoney("19.99")
	if got := price.MulQty(3).String(); got != "59.97" {
		t.Fatalf("mul qty want 59.97 got %s", got)
	}
	if price.MulQty(0).IsPositive() {
		t.Fatalf("zero quantity should not be positive")
	}
}

func TestNewMoneyFromStringEmpty(t *testing.T) {
	m, err := NewMoneyFromString("")
	if err != nil || !m.IsZero() {
		t.Fatalf("empty string should parse to zero, got %s err=%v", m.String(), err)
	}
	if _, err := NewMoneyFromString("abc"); err == nil {
		t.Fatalf("invalid amount should fail")
	}
}
