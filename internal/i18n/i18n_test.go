package i18n

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestResolveLocale(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name   string
		query  string
		header string
		want   string
	}{
		{name: "default", want: LocaleEN},
		{name: "accept chinese", header: "zh-CN,zh;q=0.9,en;q=0.8", want: LocaleZH},
		{name: "accept english", header: "en-GB,en;q=0.9", want: LocaleEN},
		{name: "query overrides header", query: "zh", header: "en-US", want: LocaleZH},
		{name: "unsupported", header: "fr-FR", want: LocaleEN},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			target := "/"
			if tc.query != "" {
				target += "?lang=" + tc.query
			}
			c.Request = httptest.NewRequest(http.MethodGet, target, nil)
			if tc.header != "" {
				c.Request.Header.Set("Accept-Language", tc.header)
			}
			if got := ResolveLocale(c); got != tc.want {
				t.Fatalf("locale want %s got %s", tc.want, got)
			}
		})
	}
}

func TestTranslateFallback(t *testing.T) {
	if got := T(LocaleZH, "error.cart_empty"); got != "购物车为空" {
		t.Fatalf("unexpected zh message: %s", got)
	}
	if got := T("ja-JP", "error.cart_empty"); got != "Your cart is empty" {
		t.Fatalf("unknown locale should fall back to english, got %s", got)
	}
	if got := T(LocaleEN, "error.missing_key"); got != "error.missing_key" {
		t.Fatalf("missing key should echo key, got %s", got)
	}
	if got := Sprintf(LocaleEN, "error.rate_limited", 30); got != "Too many requests, retry in 30 seconds" {
		t.Fatalf("unexpected formatted message: %s", got)
	}
}

func TestCatalogsHaveSameKeys(t *testing.T) {
	for key := range messages[LocaleEN] {
		if _, ok := messages[LocaleZH][key]; !ok {
			t.Fatalf("zh catalog missing key %s", key)
		}
	}
	for key := range messages[LocaleZH] {
		if _, ok := messages[LocaleEN][key]; !ok {
			t.Fatalf("en catalog missing key %s", key)
		}
	}
}
