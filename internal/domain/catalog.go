package domain

import "context"

// AttributeValue is an immutable catalog entry (a color or a size).
// Owned by the catalog reference loader; never mutated by the pipeline.
type AttributeValue struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	IsActive bool   `json:"isActive"`
}

// CatalogLists bundles the three reference lists one draft screen needs.
// The lists are shared read-only across the generator, validator and
// reconciler.
type CatalogLists struct {
	Categories []Category       `json:"categories"`
	Colors     []AttributeValue `json:"colors"`
	Sizes      []AttributeValue `json:"sizes"`
}

// CatalogService is the read-only backend collaborator for reference data.
type CatalogService interface {
	ListCategories(ctx context.Context) ([]Category, error)
	ListColors(ctx context.Context) ([]AttributeValue, error)
	ListSizes(ctx context.Context) ([]AttributeValue, error)
}
