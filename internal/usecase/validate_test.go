package usecase

import (
	"testing"

	"poshak-admin-backend/internal/domain"

	"github.com/stretchr/testify/require"
)

func validDraft() *domain.ProductDraft {
	return &domain.ProductDraft{
		Name:  "Classic Panjabi",
		Price: 1500,
		Selection: domain.SelectionSet{
			Categories: []domain.Category{{ID: "c1", Name: "Men", Slug: "men"}},
		},
		Images: domain.ImageSet{
			Pending: []domain.PendingImage{{Filename: "front.jpg"}},
		},
		Variants: []domain.VariantRecord{{Quantity: 10}},
	}
}

func fields(errs []domain.ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Field
	}
	return out
}

func TestValidateBasicInfoPasses(t *testing.T) {
	t.Parallel()

	v := Validator{PriceFloor: 1000}
	require.Empty(t, v.ValidateBasicInfo(validDraft()))
}

func TestValidateBasicInfoRequiresName(t *testing.T) {
	t.Parallel()

	v := Validator{PriceFloor: 1000}
	d := validDraft()
	d.Name = ""

	require.Contains(t, fields(v.ValidateBasicInfo(d)), "name")
}

func TestValidateBasicInfoPriceRules(t *testing.T) {
	t.Parallel()

	v := Validator{PriceFloor: 1000}

	d := validDraft()
	d.Price = 0
	errs := v.ValidateBasicInfo(d)
	require.Contains(t, fields(errs), "price")

	d.Price = 999
	errs = v.ValidateBasicInfo(d)
	require.Len(t, errs, 1)
	require.Equal(t, "price must be at least 1000", errs[0].Reason)

	d.Price = 1000
	require.Empty(t, v.ValidateBasicInfo(d))
}

func TestValidateBasicInfoSalePriceCeiling(t *testing.T) {
	t.Parallel()

	v := Validator{PriceFloor: 1000}
	d := validDraft()
	sale := 2000.0
	d.SalePrice = &sale

	require.Contains(t, fields(v.ValidateBasicInfo(d)), "salePrice")

	sale = 1200
	require.Empty(t, v.ValidateBasicInfo(d))
}

func TestValidateBasicInfoRequiresCategory(t *testing.T) {
	t.Parallel()

	v := Validator{PriceFloor: 1000}
	d := validDraft()
	d.Selection.Categories = nil

	require.Contains(t, fields(v.ValidateBasicInfo(d)), "categories")
}

func TestValidateVariantsZeroBlocksNegativeRejected(t *testing.T) {
	t.Parallel()

	v := Validator{PriceFloor: 1000}

	errs := v.ValidateVariants([]domain.VariantRecord{
		{Quantity: 5},
		{Quantity: 0},
		{Quantity: -1},
	})
	require.Len(t, errs, 2)
	require.Equal(t, "variants[1].quantity", errs[0].Field)
	require.Equal(t, "quantity must be greater than zero", errs[0].Reason)
	require.Equal(t, "variants[2].quantity", errs[1].Field)
	require.Equal(t, "quantity cannot be negative", errs[1].Reason)
}

func TestValidateStage1AllowsZeroQuantities(t *testing.T) {
	t.Parallel()

	v := Validator{PriceFloor: 1000}
	d := validDraft()
	d.Variants = []domain.VariantRecord{{Quantity: 0}, {Quantity: 0}}

	require.Empty(t, v.ValidateStage1(d))

	d.Variants = append(d.Variants, domain.VariantRecord{Quantity: -3})
	require.Contains(t, fields(v.ValidateStage1(d)), "variants[2].quantity")
}

func TestValidateFullCreateRequiresImage(t *testing.T) {
	t.Parallel()

	v := Validator{PriceFloor: 1000}
	d := validDraft()
	d.Images = domain.ImageSet{}

	require.Contains(t, fields(v.ValidateFull(d, domain.ModeCreate)), "images")

	// Edit mode does not require images at all.
	require.Empty(t, v.ValidateFull(d, domain.ModeEdit))

	// A persisted URL satisfies the create requirement too.
	d.Images = domain.ImageSet{Persisted: []string{"https://cdn.example.com/a.webp"}}
	require.Empty(t, v.ValidateFull(d, domain.ModeCreate))
}

func TestValidateFullBlocksZeroQuantity(t *testing.T) {
	t.Parallel()

	v := Validator{PriceFloor: 1000}
	d := validDraft()
	d.Variants = []domain.VariantRecord{{Quantity: 0}}

	require.Contains(t, fields(v.ValidateFull(d, domain.ModeCreate)), "variants[0].quantity")
}
