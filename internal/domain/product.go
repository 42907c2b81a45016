package domain

import "context"

// ProductBase holds the scalar fields and natural-key references submitted
// by the basic-info stage. Categories, colors and sizes travel as natural
// keys (slug for categories, name for attributes); the backend resolves
// them, and the reconciler maps them back on edit.
type ProductBase struct {
	Name          string   `json:"name"`
	Slug          string   `json:"slug"`
	Description   string   `json:"description"`
	Price         float64  `json:"price"`
	SalePrice     *float64 `json:"salePrice"`
	SKU           string   `json:"sku"`
	Barcode       string   `json:"barcode"`
	Tags          []string `json:"tags"`
	CategorySlugs []string `json:"categorySlugs"`
	ColorNames    []string `json:"colorNames"`
	SizeNames     []string `json:"sizeNames"`
}

// PersistedProduct is what the backend returns for an existing record.
// Its natural keys seed the reconciler when an edit session opens.
type PersistedProduct struct {
	ID string `json:"id"`
	ProductBase
	ImageURLs []string        `json:"imageUrls"`
	Variants  []VariantRecord `json:"variants"`
}

type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// ProductRepository is the persistence port behind the local backend mode.
// Each Replace* call overwrites one stage's data wholesale, mirroring the
// stage semantics of the pipeline.
type ProductRepository interface {
	CreateProduct(ctx context.Context, id string, base ProductBase) error
	UpdateProduct(ctx context.Context, id string, base ProductBase) error
	ReplaceImages(ctx context.Context, id string, urls []string) error
	ReplaceVariants(ctx context.Context, id string, variants []VariantRecord) error
	GetProduct(ctx context.Context, id string) (*PersistedProduct, error)
}

// ProductService is the backend collaborator driven by the submission
// pipeline. Each method maps to one independently-failing network stage;
// a transport error and a {success:false} envelope both come back as a
// plain error. There is no transactionality across calls.
type ProductService interface {
	Create(ctx context.Context, base ProductBase) (string, error)
	Update(ctx context.Context, id string, base ProductBase) error
	UploadImages(ctx context.Context, files []PendingImage) ([]string, error)
	AssociateImages(ctx context.Context, id string, urls []string) error
	AssociateVariants(ctx context.Context, id string, variants []VariantRecord) error
	Get(ctx context.Context, id string) (*PersistedProduct, error)
}
