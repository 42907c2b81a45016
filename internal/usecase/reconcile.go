package usecase

import "poshak-admin-backend/internal/domain"

// ReconcileSelection maps a persisted product's stored natural keys back
// onto the freshly loaded catalog lists, producing the initial selection
// set for an edit session. Matching is exact equality on slug (categories)
// and name (colors, sizes); order-independent.
//
// A persisted key with no catalog match is silently dropped: the catalog
// is the source of truth for what is currently selectable, and entries can
// be deleted after a product referenced them. That leniency is a contract,
// not an error path. Repeated keys in the persisted lists are collapsed to
// a single entry, so reconciling dirty data never doubles matrix rows.
func ReconcileSelection(persisted domain.ProductBase, catalog domain.CatalogLists) domain.SelectionSet {
	set := domain.SelectionSet{}

	bySlug := make(map[string]domain.Category, len(catalog.Categories))
	for _, c := range catalog.Categories {
		bySlug[c.Slug] = c
	}
	seen := make(map[string]bool, len(persisted.CategorySlugs))
	for _, slug := range persisted.CategorySlugs {
		if seen[slug] {
			continue
		}
		seen[slug] = true
		if c, ok := bySlug[slug]; ok {
			set.Categories = append(set.Categories, c)
		}
	}

	set.Colors = matchByName(persisted.ColorNames, catalog.Colors)
	set.Sizes = matchByName(persisted.SizeNames, catalog.Sizes)

	return set
}

func matchByName(names []string, values []domain.AttributeValue) []domain.AttributeValue {
	byName := make(map[string]domain.AttributeValue, len(values))
	for _, v := range values {
		byName[v.Name] = v
	}

	var out []domain.AttributeValue
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		if v, ok := byName[name]; ok {
			out = append(out, v)
		}
	}
	return out
}
