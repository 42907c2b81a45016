package usecase

import (
	"fmt"

	"poshak-admin-backend/internal/domain"
)

// Validator checks a draft against the catalog business rules. It is pure;
// both the stage controller (cheap subset before advancing tabs) and the
// submission pipeline (full check before any network call) consume it.
type Validator struct {
	// PriceFloor is the minimum accepted product price in currency units.
	PriceFloor float64
}

// ValidateBasicInfo runs rules 1-4: name, price floor, sale price ceiling,
// at least one category.
func (v Validator) ValidateBasicInfo(d *domain.ProductDraft) []domain.ValidationError {
	var errs []domain.ValidationError

	if d.Name == "" {
		errs = append(errs, domain.ValidationError{Field: "name", Reason: "name is required"})
	}
	if d.Price <= 0 {
		errs = append(errs, domain.ValidationError{Field: "price", Reason: "price is required"})
	} else if d.Price < v.PriceFloor {
		errs = append(errs, domain.ValidationError{
			Field:  "price",
			Reason: fmt.Sprintf("price must be at least %.0f", v.PriceFloor),
		})
	}
	if d.SalePrice != nil && *d.SalePrice > d.Price {
		errs = append(errs, domain.ValidationError{Field: "salePrice", Reason: "sale price cannot exceed price"})
	}
	if len(d.Selection.Categories) == 0 {
		errs = append(errs, domain.ValidationError{Field: "categories", Reason: "select at least one category"})
	}

	return errs
}

// ValidateVariants runs rule 6 against the current matrix. Negative
// quantities are always rejected; zero quantities additionally block
// submission. The strict zero check is deliberately NOT part of tab
// advancement (see ValidateStage1).
func (v Validator) ValidateVariants(matrix []domain.VariantRecord) []domain.ValidationError {
	var errs []domain.ValidationError

	for i, rec := range matrix {
		if rec.Quantity < 0 {
			errs = append(errs, domain.ValidationError{
				Field:  fmt.Sprintf("variants[%d].quantity", i),
				Reason: "quantity cannot be negative",
			})
			continue
		}
		if rec.Quantity == 0 {
			errs = append(errs, domain.ValidationError{
				Field:  fmt.Sprintf("variants[%d].quantity", i),
				Reason: "quantity must be greater than zero",
			})
		}
	}

	return errs
}

// ValidateFull runs every rule in order. Create mode additionally requires
// at least one image in the draft.
func (v Validator) ValidateFull(d *domain.ProductDraft, mode domain.DraftMode) []domain.ValidationError {
	errs := v.ValidateBasicInfo(d)

	if mode == domain.ModeCreate && d.Images.Empty() {
		errs = append(errs, domain.ValidationError{Field: "images", Reason: "add at least one image"})
	}

	errs = append(errs, v.ValidateVariants(d.Variants)...)
	return errs
}

// ValidateStage1 gates the BasicInfo -> Variants transition: rules 1-4 plus
// non-negativity only. Zero quantities are allowed here so the merchant can
// arrange variants before filling every quantity in.
func (v Validator) ValidateStage1(d *domain.ProductDraft) []domain.ValidationError {
	errs := v.ValidateBasicInfo(d)

	for i, rec := range d.Variants {
		if rec.Quantity < 0 {
			errs = append(errs, domain.ValidationError{
				Field:  fmt.Sprintf("variants[%d].quantity", i),
				Reason: "quantity cannot be negative",
			})
		}
	}

	return errs
}
