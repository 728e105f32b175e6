package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/marketdesk/marketdesk/api/middleware"
	"github.com/marketdesk/marketdesk/api/responses"
	"github.com/marketdesk/marketdesk/api/validators"
	"github.com/marketdesk/marketdesk/internal/inventory"
	"github.com/marketdesk/marketdesk/pkg/auth"
	"github.com/marketdesk/marketdesk/pkg/enums"
	pkgerrors "github.com/marketdesk/marketdesk/pkg/errors"
)

const (
	addInventoryPath    = "/seller/add-inventory"
	updateInventoryPath = "/seller/update-inventory/%d"
	itemIDParam         = "item_id"
	itemNotFoundMessage = "inventory item not found or access denied"

	// multipartOverhead leaves room for the text fields and boundaries
	// around the image part.
	multipartOverhead = 1 << 20
)

type inventoryLister interface {
	List(ctx context.Context, input inventory.ListInput) (*inventory.ListResult, error)
}

type inventoryEditor interface {
	Create(ctx context.Context, actor inventory.Actor, input inventory.ItemInput, upload *inventory.Upload) (*inventory.ItemDTO, error)
	Update(ctx context.Context, itemID uint, actor inventory.Actor, input inventory.ItemInput, upload *inventory.Upload) (*inventory.ItemDTO, error)
	SoftDelete(ctx context.Context, itemID uint, actor inventory.Actor) error
	GetForEdit(ctx context.Context, itemID uint, actor inventory.Actor) (*inventory.ItemDTO, error)
}

type listingPage struct {
	Action string
	Result *inventory.ListResult
	Manage bool
}

type itemFormPage struct {
	Action   string
	Form     inventory.ItemInput
	ImageURL string
	Submit   string
}

func listInputFrom(r *http.Request, pageSize int) inventory.ListInput {
	return inventory.ListInput{
		Query:    validators.QueryString(r, "q"),
		Sort:     enums.ParseInventorySort(r.URL.Query().Get("sort")),
		Page:     validators.QueryInt(r, "page", 1),
		PageSize: pageSize,
	}
}

func actorFrom(r *http.Request) (inventory.Actor, error) {
	data := middleware.SessionFromContext(r.Context())
	if err := auth.RequireAuthenticated(data); err != nil {
		return inventory.Actor{}, err
	}
	return inventory.Actor{UserID: data.UserID, Role: data.Role}, nil
}

// Home lists every active item of active sellers.
func Home(pages *Pages, lister inventoryLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := lister.List(r.Context(), listInputFrom(r, inventory.PublicPageSize))
		if err != nil {
			pages.ServerError(w, r, err)
			return
		}
		pages.Render(w, r, "home.html", "Shop", listingPage{Action: responses.HomePath, Result: result})
	}
}

// SellerDashboard lists the signed-in seller's own active items.
func SellerDashboard(pages *Pages, lister inventoryLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			pages.Fail(w, r, err, responses.HomePath)
			return
		}

		input := listInputFrom(r, inventory.SellerPageSize)
		input.SellerID = &actor.UserID
		result, err := lister.List(r.Context(), input)
		if err != nil {
			pages.ServerError(w, r, err)
			return
		}
		pages.Render(w, r, "seller_dashboard.html", "My inventory", listingPage{
			Action: responses.SellerDashboardPath,
			Result: result,
			Manage: true,
		})
	}
}

func AddInventoryForm(pages *Pages) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pages.Render(w, r, "add_inventory.html", "Add item", itemFormPage{
			Action: addInventoryPath,
			Submit: "Add item",
		})
	}
}

// AddInventory creates an item from the multipart form.
func AddInventory(pages *Pages, svc inventoryEditor, maxUploadBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			pages.Fail(w, r, err, addInventoryPath)
			return
		}

		input, upload, cleanup, err := readItemForm(w, r, maxUploadBytes)
		defer cleanup()
		if err != nil {
			pages.Fail(w, r, err, addInventoryPath)
			return
		}

		item, err := svc.Create(r.Context(), actor, input, upload)
		if err != nil {
			pages.Fail(w, r, err, addInventoryPath)
			return
		}
		pages.Success(w, r, fmt.Sprintf("Inventory item '%s' added successfully", item.Name), responses.SellerDashboardPath)
	}
}

func UpdateInventoryForm(pages *Pages, svc inventoryEditor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			pages.Fail(w, r, err, responses.SellerDashboardPath)
			return
		}
		itemID, err := validators.URLParamID(r, itemIDParam, itemNotFoundMessage)
		if err != nil {
			pages.Fail(w, r, err, responses.SellerDashboardPath)
			return
		}

		item, err := svc.GetForEdit(r.Context(), itemID, actor)
		if err != nil {
			pages.Fail(w, r, err, responses.SellerDashboardPath)
			return
		}
		pages.Render(w, r, "update_inventory.html", "Edit item", itemFormPage{
			Action: fmt.Sprintf(updateInventoryPath, item.ID),
			Form: inventory.ItemInput{
				Name:        item.Name,
				Description: item.Description,
				Price:       item.PriceDisplay(),
				Quantity:    strconv.Itoa(item.Quantity),
			},
			ImageURL: item.ImageURL,
			Submit:   "Save changes",
		})
	}
}

// UpdateInventory applies the edit form, replacing the image when a new one
// is attached.
func UpdateInventory(pages *Pages, svc inventoryEditor, maxUploadBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			pages.Fail(w, r, err, responses.SellerDashboardPath)
			return
		}
		itemID, err := validators.URLParamID(r, itemIDParam, itemNotFoundMessage)
		if err != nil {
			pages.Fail(w, r, err, responses.SellerDashboardPath)
			return
		}
		back := fmt.Sprintf(updateInventoryPath, itemID)

		input, upload, cleanup, err := readItemForm(w, r, maxUploadBytes)
		defer cleanup()
		if err != nil {
			pages.Fail(w, r, err, back)
			return
		}

		if _, err := svc.Update(r.Context(), itemID, actor, input, upload); err != nil {
			pages.Fail(w, r, err, back)
			return
		}
		pages.Success(w, r, "Inventory updated successfully", responses.SellerDashboardPath)
	}
}

// DeleteInventory soft-deletes an item; the row and its image are kept.
func DeleteInventory(pages *Pages, svc inventoryEditor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			pages.Fail(w, r, err, responses.SellerDashboardPath)
			return
		}
		itemID, err := validators.URLParamID(r, itemIDParam, itemNotFoundMessage)
		if err != nil {
			pages.Fail(w, r, err, responses.SellerDashboardPath)
			return
		}

		if err := svc.SoftDelete(r.Context(), itemID, actor); err != nil {
			pages.Fail(w, r, err, responses.SellerDashboardPath)
			return
		}
		pages.Success(w, r, "Inventory item removed successfully", responses.SellerDashboardPath)
	}
}

// readItemForm parses the multipart item form. The returned cleanup must
// always be called; it closes the upload and removes spooled parts.
func readItemForm(w http.ResponseWriter, r *http.Request, maxUploadBytes int64) (inventory.ItemInput, *inventory.Upload, func(), error) {
	cleanup := func() {}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return inventory.ItemInput{}, nil, cleanup, pkgerrors.Invalid("image", fmt.Sprintf("Image must be at most %d MB", maxUploadBytes>>20))
		}
		if !errors.Is(err, http.ErrNotMultipart) {
			return inventory.ItemInput{}, nil, cleanup, pkgerrors.Invalid("image", "The submitted form could not be read")
		}
	}
	if r.MultipartForm != nil {
		form := r.MultipartForm
		cleanup = func() { _ = form.RemoveAll() }
	}

	input := inventory.ItemInput{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Price:       r.FormValue("price"),
		Quantity:    r.FormValue("quantity"),
	}

	file, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return input, nil, cleanup, nil
	case err != nil:
		return input, nil, cleanup, pkgerrors.Invalid("image", "The uploaded image could not be read")
	}
	if header.Filename == "" {
		_ = file.Close()
		return input, nil, cleanup, nil
	}

	removeParts := cleanup
	cleanup = func() {
		_ = file.Close()
		removeParts()
	}
	return input, &inventory.Upload{Filename: header.Filename, Content: file}, cleanup, nil
}
