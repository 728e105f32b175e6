package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/marketdesk/marketdesk/internal/repo"
	"github.com/marketdesk/marketdesk/pkg/db/models"
	"github.com/marketdesk/marketdesk/pkg/enums"
	"github.com/marketdesk/marketdesk/pkg/pagination"
	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

var sortClauses = map[enums.InventorySort]string{
	enums.InventorySortNameAsc:   "name ASC",
	enums.InventorySortNameDesc:  "name DESC",
	enums.InventorySortPriceAsc:  "price ASC",
	enums.InventorySortPriceDesc: "price DESC",
	enums.InventorySortDateAsc:   "created_at ASC",
	enums.InventorySortDateDesc:  "created_at DESC",
}

// Repository persists inventory rows.
type Repository struct {
	repo.Base
}

// NewRepository binds a repository to db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Bind(tx)}
}

type listQuery struct {
	Search     string
	Sort       enums.InventorySort
	Pagination pagination.Params
	SellerID   *uint
}

// List returns one page of active items and the total number of matches.
func (r *Repository) List(ctx context.Context, query listQuery) ([]models.InventoryItem, int64, error) {
	var total int64
	if err := r.filtered(ctx, query).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	items := make([]models.InventoryItem, 0, query.Pagination.PageSize)
	if int64(query.Pagination.Offset()) >= total {
		return items, total, nil
	}

	sortKey, ok := sortClauses[query.Sort]
	if !ok {
		sortKey = sortClauses[enums.DefaultInventorySort]
	}
	err := r.filtered(ctx, query).
		Order(sortKey).
		Order("created_at ASC").
		Order("id ASC").
		Limit(query.Pagination.PageSize).
		Offset(query.Pagination.Offset()).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *Repository) filtered(ctx context.Context, query listQuery) *gorm.DB {
	qb := r.DB(ctx).
		Model(&models.InventoryItem{}).
		Where("is_active = ?", true)

	if query.SellerID != nil {
		qb = qb.Where("seller_id = ?", *query.SellerID)
	} else {
		qb = qb.Where("seller_id IN (SELECT id FROM users WHERE is_active = ?)", true)
	}

	if search := strings.TrimSpace(query.Search); search != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
		qb = qb.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	return qb
}

// Create inserts item and fills its generated columns.
func (r *Repository) Create(ctx context.Context, item *models.InventoryItem) error {
	return r.DB(ctx).Create(item).Error
}

// FindActiveByID loads an item that has not been soft deleted.
func (r *Repository) FindActiveByID(ctx context.Context, id uint) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.DB(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByID loads an item regardless of its active flag.
func (r *Repository) FindByID(ctx context.Context, id uint) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.DB(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// Update writes the editable columns of item.
func (r *Repository) Update(ctx context.Context, item *models.InventoryItem) error {
	item.UpdatedAt = time.Now()
	return r.DB(ctx).
		Model(item).
		Select("name", "description", "price", "quantity", "image", "updated_at").
		Updates(item).Error
}

// Deactivate soft deletes the item.
func (r *Repository) Deactivate(ctx context.Context, id uint) error {
	return r.DB(ctx).
		Model(&models.InventoryItem{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_active":  false,
			"updated_at": time.Now(),
		}).Error
}

// CountActive returns the number of active items across all sellers.
func (r *Repository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.InventoryItem{}).
		Where("is_active = ?", true).
		Count(&count).Error
	return count, err
}
