package router

import (
	"testing"

	"github.com/gin-gonic/gin"
)

func TestBuildAdminPermissionCatalog(t *testing.T) {
	gin.SetMode(gin.TestMode)
	noop := func(c *gin.Context) {}

	r := gin.New()
	r.GET("/api/v1/products", noop)
	r.GET("/api/v1/admin/purchase-orders", noop)
	r.POST("/api/v1/admin/purchase-orders/:id/receive", noop)
	r.PATCH("/api/v1/admin/promo-codes/:id", noop)
	r.GET("/api/v1/admin/authz/roles", noop)

	items := buildAdminPermissionCatalog(r)
	if len(items) != 4 {
		t.Fatalf("catalog want 4 admin entries got %d: %+v", len(items), items)
	}
	if items[0].Module != "authz" || items[0].Object != "/admin/authz/roles" {
		t.Fatalf("unexpected first entry: %+v", items[0])
	}
	found := false
	for _, item := range items {
		if item.Permission == "POST:/admin/purchase-orders/:id/receive" {
			found = item.Module == "purchase-orders"
		}
	}
	if !found {
		t.Fatalf("receive permission missing from catalog: %+v", items)
	}
}

func TestDeriveAdminPermissionModule(t *testing.T) {
	cases := map[string]string{
		"":                        "system",
		"/admin/orders/:id":       "orders",
		"/admin/authz/admins/:id": "authz",
		"/products":               "products",
		"/admin/suppliers":        "suppliers",
	}
	for object, want := range cases {
		if got := deriveAdminPermissionModule(object); got != want {
			t.Fatalf("module(%q) want %s got %s", object, want, got)
		}
	}
}
