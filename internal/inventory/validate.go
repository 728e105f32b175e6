package inventory

import (
	"strconv"
	"strings"

	pkgerrors "github.com/marketdesk/marketdesk/pkg/errors"
	"github.com/marketdesk/marketdesk/pkg/validation"
	"github.com/shopspring/decimal"
)

const (
	MaxNameLen        = 120
	MaxDescriptionLen = 2000
)

// NUMERIC(12,2) holds at most ten integer digits.
var maxPrice = decimal.New(1, 10)

func parseItemInput(input ItemInput) (itemFields, error) {
	fields := itemFields{
		name:        strings.TrimSpace(input.Name),
		description: strings.TrimSpace(input.Description),
	}
	if fields.name == "" {
		return itemFields{}, pkgerrors.Invalid("name", "Name is required")
	}
	if err := validation.Var("name", fields.name, "max="+strconv.Itoa(MaxNameLen)); err != nil {
		return itemFields{}, err
	}
	if fields.description == "" {
		return itemFields{}, pkgerrors.Invalid("description", "Description is required")
	}
	if err := validation.Var("description", fields.description, "max="+strconv.Itoa(MaxDescriptionLen)); err != nil {
		return itemFields{}, err
	}

	rawPrice := strings.TrimSpace(input.Price)
	if rawPrice == "" {
		return itemFields{}, pkgerrors.Invalid("price", "Price is required")
	}
	price, err := decimal.NewFromString(rawPrice)
	if err != nil {
		return itemFields{}, pkgerrors.Invalid("price", "Price must be a number")
	}
	price = price.Round(2)
	if !price.IsPositive() {
		return itemFields{}, pkgerrors.Invalid("price", "Price must be greater than 0")
	}
	if price.GreaterThanOrEqual(maxPrice) {
		return itemFields{}, pkgerrors.Invalid("price", "Price is too large")
	}
	fields.price = price

	rawQuantity := strings.TrimSpace(input.Quantity)
	if rawQuantity == "" {
		return itemFields{}, pkgerrors.Invalid("quantity", "Quantity is required")
	}
	quantity, err := strconv.Atoi(rawQuantity)
	if err != nil {
		return itemFields{}, pkgerrors.Invalid("quantity", "Quantity must be a whole number")
	}
	if quantity < 0 {
		return itemFields{}, pkgerrors.Invalid("quantity", "Quantity cannot be negative")
	}
	fields.quantity = quantity

	return fields, nil
}
