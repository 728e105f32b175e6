package enums

import "strings"

// InventorySort selects the ordering for inventory listings.
type InventorySort string

const (
	InventorySortNameAsc   InventorySort = "name_asc"
	InventorySortNameDesc  InventorySort = "name_desc"
	InventorySortPriceAsc  InventorySort = "price_asc"
	InventorySortPriceDesc InventorySort = "price_desc"
	InventorySortDateAsc   InventorySort = "date_asc"
	InventorySortDateDesc  InventorySort = "date_desc"

	DefaultInventorySort = InventorySortDateDesc
)

var validInventorySorts = []InventorySort{
	InventorySortNameAsc,
	InventorySortNameDesc,
	InventorySortPriceAsc,
	InventorySortPriceDesc,
	InventorySortDateAsc,
	InventorySortDateDesc,
}

// String implements fmt.Stringer.
func (s InventorySort) String() string {
	return string(s)
}

// IsValid reports whether the value is a known InventorySort.
func (s InventorySort) IsValid() bool {
	for _, candidate := range validInventorySorts {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseInventorySort never fails: unknown keys fall back to newest first.
func ParseInventorySort(value string) InventorySort {
	candidate := InventorySort(strings.ToLower(strings.TrimSpace(value)))
	if candidate.IsValid() {
		return candidate
	}
	return DefaultInventorySort
}

// InventorySorts lists the accepted sort keys in display order.
func InventorySorts() []InventorySort {
	out := make([]InventorySort, len(validInventorySorts))
	copy(out, validInventorySorts)
	return out
}
