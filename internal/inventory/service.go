package inventory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/marketdesk/marketdesk/internal/users"
	"github.com/marketdesk/marketdesk/pkg/auth"
	"github.com/marketdesk/marketdesk/pkg/db/models"
	"github.com/marketdesk/marketdesk/pkg/enums"
	pkgerrors "github.com/marketdesk/marketdesk/pkg/errors"
	"github.com/marketdesk/marketdesk/pkg/logger"
	"github.com/marketdesk/marketdesk/pkg/metrics"
	"github.com/marketdesk/marketdesk/pkg/pagination"
	"gorm.io/gorm"
)

const (
	opCreate = "create"
	opUpdate = "update"
	opDelete = "delete"

	notFoundMessage = "inventory item not found or access denied"
)

// Service lists inventory and applies seller mutations.
type Service interface {
	List(ctx context.Context, input ListInput) (*ListResult, error)
	Create(ctx context.Context, actor Actor, input ItemInput, upload *Upload) (*ItemDTO, error)
	Update(ctx context.Context, itemID uint, actor Actor, input ItemInput, upload *Upload) (*ItemDTO, error)
	SoftDelete(ctx context.Context, itemID uint, actor Actor) error
	GetForEdit(ctx context.Context, itemID uint, actor Actor) (*ItemDTO, error)
	CountActive(ctx context.Context) (int64, error)
}

type assetStore interface {
	Save(ctx context.Context, itemName, originalName string, content io.Reader) (string, error)
	Delete(ctx context.Context, name string) error
	URL(name string) string
}

type txRunner interface {
	DB() *gorm.DB
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams bundles the dependencies required to build an inventory service.
type ServiceParams struct {
	DB      txRunner
	Assets  assetStore
	Metrics *metrics.InventoryMetrics
	Logger  *logger.Logger
}

type service struct {
	db      txRunner
	repo    *Repository
	users   *users.Repository
	assets  assetStore
	metrics *metrics.InventoryMetrics
	logg    *logger.Logger
}

// NewService constructs the inventory service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client is required")
	}
	if params.Assets == nil {
		return nil, fmt.Errorf("asset store is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		db:      params.DB,
		repo:    NewRepository(params.DB.DB()),
		users:   users.NewRepository(params.DB.DB()),
		assets:  params.Assets,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	params := pagination.Normalize(input.Page, input.PageSize)
	sort := enums.ParseInventorySort(string(input.Sort))
	search := strings.TrimSpace(input.Query)

	rows, total, err := s.repo.List(ctx, listQuery{
		Search:     search,
		Sort:       sort,
		Pagination: params,
		SellerID:   input.SellerID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory")
	}

	items := make([]ItemDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *fromModel(&rows[i], s.assets.URL))
	}
	return &ListResult{
		Items:      items,
		Query:      search,
		Sort:       sort,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalItems: total,
		TotalPages: pagination.TotalPages(total, params.PageSize),
	}, nil
}

func (s *service) Create(ctx context.Context, actor Actor, input ItemInput, upload *Upload) (dto *ItemDTO, err error) {
	var itemID uint
	defer func() { s.record(ctx, opCreate, actor, itemID, err) }()

	if !auth.Can(actor.Role, auth.ActionCreateInventory) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, auth.MsgNoPermission)
	}
	fields, err := parseItemInput(input)
	if err != nil {
		return nil, err
	}

	seller, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "seller account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load seller")
	}
	if !seller.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "seller account is disabled")
	}

	newImage, err := s.saveUpload(ctx, fields.name, upload)
	if err != nil {
		return nil, err
	}

	item := &models.InventoryItem{
		Name:        fields.name,
		Description: fields.description,
		Price:       fields.price,
		Quantity:    fields.quantity,
		Image:       newImage,
		SellerID:    seller.ID,
		IsActive:    true,
	}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, item)
	})
	if err != nil {
		s.discardUpload(ctx, newImage)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create inventory item")
	}

	itemID = item.ID
	return fromModel(item, s.assets.URL), nil
}

func (s *service) Update(ctx context.Context, itemID uint, actor Actor, input ItemInput, upload *Upload) (dto *ItemDTO, err error) {
	defer func() { s.record(ctx, opUpdate, actor, itemID, err) }()

	if !canMutate(actor, auth.ActionUpdateInventory) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, auth.MsgNoPermission)
	}
	fields, err := parseItemInput(input)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadOwned(ctx, s.repo, itemID, actor); err != nil {
		return nil, err
	}

	newImage, err := s.saveUpload(ctx, fields.name, upload)
	if err != nil {
		return nil, err
	}

	var (
		updated  *models.InventoryItem
		oldImage *string
	)
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := s.loadOwned(ctx, repo, itemID, actor)
		if err != nil {
			return err
		}

		item.Name = fields.name
		item.Description = fields.description
		item.Price = fields.price
		item.Quantity = fields.quantity
		if newImage != nil {
			oldImage = item.Image
			item.Image = newImage
		}
		if err := repo.Update(ctx, item); err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		s.discardUpload(ctx, newImage)
		return nil, typedOr(err, "update inventory item")
	}

	if oldImage != nil && *oldImage != *newImage {
		s.discardUpload(ctx, oldImage)
	}
	return fromModel(updated, s.assets.URL), nil
}

func (s *service) SoftDelete(ctx context.Context, itemID uint, actor Actor) (err error) {
	defer func() { s.record(ctx, opDelete, actor, itemID, err) }()

	if !canMutate(actor, auth.ActionDeleteInventory) {
		return pkgerrors.New(pkgerrors.CodeForbidden, auth.MsgNoPermission)
	}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := s.loadOwned(ctx, repo, itemID, actor); err != nil {
			return err
		}
		return repo.Deactivate(ctx, itemID)
	})
	return typedOr(err, "deactivate inventory item")
}

func (s *service) GetForEdit(ctx context.Context, itemID uint, actor Actor) (*ItemDTO, error) {
	if !canMutate(actor, auth.ActionUpdateInventory) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, auth.MsgNoPermission)
	}
	item, err := s.loadOwned(ctx, s.repo, itemID, actor)
	if err != nil {
		return nil, err
	}
	return fromModel(item, s.assets.URL), nil
}

func (s *service) CountActive(ctx context.Context) (int64, error) {
	count, err := s.repo.CountActive(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count inventory")
	}
	return count, nil
}

// loadOwned does not distinguish a missing item from one the actor may not
// touch.
func (s *service) loadOwned(ctx context.Context, repo *Repository, itemID uint, actor Actor) (*models.InventoryItem, error) {
	item, err := repo.FindActiveByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory item")
	}
	if item.SellerID != actor.UserID && !auth.Can(actor.Role, auth.ActionManageAnyInventory) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
	}
	return item, nil
}

// typedOr keeps typed errors and reports anything else as a storage failure.
func typedOr(err error, message string) error {
	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}

func canMutate(actor Actor, action auth.Action) bool {
	return auth.Can(actor.Role, action) || auth.Can(actor.Role, auth.ActionManageAnyInventory)
}

func (s *service) saveUpload(ctx context.Context, itemName string, upload *Upload) (*string, error) {
	if upload == nil || upload.Content == nil {
		return nil, nil
	}
	name, err := s.assets.Save(ctx, itemName, upload.Filename, upload.Content)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store image")
	}
	return &name, nil
}

func (s *service) discardUpload(ctx context.Context, name *string) {
	if name == nil {
		return
	}
	if err := s.assets.Delete(ctx, *name); err != nil {
		logCtx := s.logg.WithField(ctx, "file", *name)
		s.logg.Error(logCtx, "failed to delete image", err)
	}
}

func (s *service) record(ctx context.Context, op string, actor Actor, itemID uint, err error) {
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeFailure
	}
	s.metrics.IncMutation(op, outcome)

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"user_id": actor.UserID,
		"item_id": itemID,
		"op":      op,
		"outcome": outcome,
	})
	switch {
	case err == nil:
		s.logg.Info(logCtx, "inventory mutation applied")
	case pkgerrors.Is(err, pkgerrors.CodeDependency) || pkgerrors.Is(err, pkgerrors.CodeInternal):
		s.logg.Error(logCtx, "inventory mutation failed", err)
	default:
		s.logg.Warn(s.logg.WithField(logCtx, "reason", err.Error()), "inventory mutation rejected")
	}
}
