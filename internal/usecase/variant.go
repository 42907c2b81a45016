package usecase

import "poshak-admin-backend/internal/domain"

// variantKey is the reconciliation identity of one record. A nil axis and an
// empty name are distinct, so presence travels alongside the value.
type variantKey struct {
	color    string
	size     string
	hasColor bool
	hasSize  bool
}

func keyOf(colorName, sizeName *string) variantKey {
	k := variantKey{}
	if colorName != nil {
		k.color = *colorName
		k.hasColor = true
	}
	if sizeName != nil {
		k.size = *sizeName
		k.hasSize = true
	}
	return k
}

// GenerateMatrix derives the sellable variant set from the selected colors
// and sizes, carrying quantities over from the previous matrix wherever the
// (color, size) key survives. Records whose key no longer exists are dropped
// outright. Pure: the previous matrix is never modified.
//
// Shape of the output:
//   - no colors, no sizes:  exactly one {nil, nil} record
//   - colors only:          one record per color
//   - sizes only:           one record per size
//   - both:                 full cartesian product, colors outer, sizes inner
func GenerateMatrix(selection domain.SelectionSet, previous []domain.VariantRecord) []domain.VariantRecord {
	carried := make(map[variantKey]int, len(previous))
	for _, rec := range previous {
		carried[keyOf(rec.ColorName, rec.SizeName)] = rec.Quantity
	}

	quantity := func(colorName, sizeName *string) int {
		return carried[keyOf(colorName, sizeName)]
	}

	colors := selection.Colors
	sizes := selection.Sizes

	switch {
	case len(colors) == 0 && len(sizes) == 0:
		// The single placeholder record. Its key is (nil, nil), so it only
		// carries a quantity forward when the previous matrix was also the
		// placeholder.
		return []domain.VariantRecord{{Quantity: quantity(nil, nil)}}

	case len(sizes) == 0:
		out := make([]domain.VariantRecord, 0, len(colors))
		for _, c := range colors {
			name := c.Name
			out = append(out, domain.VariantRecord{
				ColorName: &name,
				Quantity:  quantity(&name, nil),
			})
		}
		return out

	case len(colors) == 0:
		out := make([]domain.VariantRecord, 0, len(sizes))
		for _, s := range sizes {
			name := s.Name
			out = append(out, domain.VariantRecord{
				SizeName: &name,
				Quantity: quantity(nil, &name),
			})
		}
		return out

	default:
		out := make([]domain.VariantRecord, 0, len(colors)*len(sizes))
		for _, c := range colors {
			colorName := c.Name
			for _, s := range sizes {
				sizeName := s.Name
				out = append(out, domain.VariantRecord{
					ColorName: &colorName,
					SizeName:  &sizeName,
					Quantity:  quantity(&colorName, &sizeName),
				})
			}
		}
		return out
	}
}
