package inventory

import (
	"io"
	"time"

	"github.com/marketdesk/marketdesk/pkg/db/models"
	"github.com/marketdesk/marketdesk/pkg/enums"
	"github.com/marketdesk/marketdesk/pkg/pagination"
	"github.com/shopspring/decimal"
)

const (
	// SellerPageSize is the page size of the seller dashboard.
	SellerPageSize = 10
	// PublicPageSize is the page size of the public listing.
	PublicPageSize = 8
)

// ItemDTO is the read shape handed to controllers and templates.
type ItemDTO struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Image       *string         `json:"image,omitempty"`
	ImageURL    string          `json:"image_url,omitempty"`
	SellerID    uint            `json:"seller_id"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// PriceDisplay renders the price with two decimals.
func (i ItemDTO) PriceDisplay() string {
	return i.Price.StringFixed(2)
}

// ListInput describes one listing request. SellerID scopes the rows to a
// single seller; without it only items of active sellers are returned.
type ListInput struct {
	Query    string
	Sort     enums.InventorySort
	Page     int
	PageSize int
	SellerID *uint
}

// ListResult is one page of items plus the totals needed to render pagers.
type ListResult struct {
	Items      []ItemDTO
	Query      string
	Sort       enums.InventorySort
	Page       int
	PageSize   int
	TotalItems int64
	TotalPages int
}

func (r ListResult) HasPrev() bool {
	return pagination.HasPrev(r.Page)
}

func (r ListResult) HasNext() bool {
	return pagination.HasNext(r.Page, r.TotalPages)
}

func (r ListResult) PrevPage() int {
	return r.Page - 1
}

func (r ListResult) NextPage() int {
	return r.Page + 1
}

// Actor is the signed-in user performing a mutation.
type Actor struct {
	UserID uint
	Role   enums.Role
}

// ItemInput holds the raw form values for create and update.
type ItemInput struct {
	Name        string
	Description string
	Price       string
	Quantity    string
}

// Upload is an optional image attached to a create or update.
type Upload struct {
	Filename string
	Content  io.Reader
}

type itemFields struct {
	name        string
	description string
	price       decimal.Decimal
	quantity    int
}

func fromModel(m *models.InventoryItem, imageURL func(string) string) *ItemDTO {
	if m == nil {
		return nil
	}
	dto := &ItemDTO{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price,
		Quantity:    m.Quantity,
		Image:       m.Image,
		SellerID:    m.SellerID,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.Image != nil && imageURL != nil {
		dto.ImageURL = imageURL(*m.Image)
	}
	return dto
}
