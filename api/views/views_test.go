package views

import (
	"bytes"
	"html/template"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketdesk/marketdesk/internal/inventory"
	"github.com/marketdesk/marketdesk/pkg/auth/session"
	"github.com/marketdesk/marketdesk/pkg/enums"
)

type listingData struct {
	Action string
	Result inventory.ListResult
	Manage bool
}

func newCache(t *testing.T) *TemplateCache {
	t.Helper()
	tc, err := NewTemplateCache()
	require.NoError(t, err)
	return tc
}

func TestNewTemplateCacheParsesPages(t *testing.T) {
	tc := newCache(t)

	for _, name := range []string{
		"home.html", "login.html", "signup.html",
		"seller_dashboard.html", "add_inventory.html", "update_inventory.html",
		"admin_dashboard.html", "customer_dashboard.html",
	} {
		assert.True(t, tc.Has(name), name)
	}
	assert.False(t, tc.Has(layoutName))
	assert.False(t, tc.Has("_listing.html"))
}

func TestRenderUnknownTemplate(t *testing.T) {
	var buf bytes.Buffer
	err := newCache(t).Render(&buf, "missing.html", Page{})
	require.Error(t, err)
	assert.Zero(t, buf.Len())
}

func TestRenderListingEscapesAndLinks(t *testing.T) {
	result := inventory.ListResult{
		Items: []inventory.ItemDTO{{
			ID:       4,
			Name:     "<b>Lamp</b>",
			Price:    decimal.RequireFromString("12.5"),
			Quantity: 3,
		}},
		Sort:       enums.InventorySortPriceAsc,
		Page:       1,
		TotalPages: 2,
	}

	var buf bytes.Buffer
	err := newCache(t).Render(&buf, "seller_dashboard.html", Page{
		Title:     "Seller dashboard",
		User:      &session.Data{UserID: 9, DisplayName: "Sam", Role: enums.RoleSeller},
		Flashes:   []Flash{{Type: "success", Message: "Saved <ok>"}},
		CSRFField: template.HTML(`<input type="hidden" name="csrf_token" value="tok">`),
		Data:      listingData{Action: "/seller/dashboard", Result: result, Manage: true},
	})
	require.NoError(t, err)
	out := buf.String()

	assert.Contains(t, out, "&lt;b&gt;Lamp&lt;/b&gt;")
	assert.Contains(t, out, "12.50")
	assert.Contains(t, out, "Saved &lt;ok&gt;")
	assert.Contains(t, out, `href="/seller/update-inventory/4"`)
	assert.Contains(t, out, `action="/seller/delete-inventory/4"`)
	assert.Contains(t, out, `value="tok"`)
	assert.Contains(t, out, "Page 1 of 2")
	assert.Contains(t, out, "Next")
	assert.NotContains(t, out, "Previous")
	assert.Contains(t, out, `<a href="/seller/dashboard">My inventory</a>`)
	assert.NotContains(t, out, `href="/admin/dashboard"`)
}

func TestRenderAnonymousLayout(t *testing.T) {
	var buf bytes.Buffer
	err := newCache(t).Render(&buf, "home.html", Page{
		Title: "Shop",
		Data:  listingData{Action: "/"},
	})
	require.NoError(t, err)
	out := buf.String()

	assert.Contains(t, out, "Log in")
	assert.Contains(t, out, "No items found.")
	assert.NotContains(t, out, "Log out")
	assert.NotContains(t, out, "/seller/update-inventory/")
}

func TestSortLabelAndHasRole(t *testing.T) {
	assert.Equal(t, "Price (high to low)", sortLabel(enums.InventorySortPriceDesc))
	assert.Equal(t, "Newest first", sortLabel(enums.InventorySort("bogus")))

	admin := &session.Data{Role: enums.RoleAdmin}
	assert.True(t, hasRole(admin, "seller", "ADMIN"))
	assert.False(t, hasRole(admin, "seller"))
	assert.False(t, hasRole(nil, "admin"))
	assert.True(t, strings.HasPrefix(sortLabel(enums.InventorySortNameAsc), "Name"))
}
