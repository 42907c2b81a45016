package domain

// DraftMode distinguishes the two pipeline contracts: create is one linear
// sequence, edit exposes three independent submit operations.
type DraftMode string

const (
	ModeCreate DraftMode = "create"
	ModeEdit   DraftMode = "edit"
)

// EditingStage is the two-state wizard position ("Basic Info" -> "Variants").
type EditingStage string

const (
	StageBasicInfoTab EditingStage = "basic_info"
	StageVariantsTab  EditingStage = "variants"
)

// SelectionSet is the user's current choice of categories, colors and sizes
// for one product draft. Entries reference the catalog lists; the set lives
// for one editing session and dies with it.
type SelectionSet struct {
	Categories []Category       `json:"categories"`
	Colors     []AttributeValue `json:"colors"`
	Sizes      []AttributeValue `json:"sizes"`
}

// CategorySlugs extracts the natural keys the backend stores.
func (s SelectionSet) CategorySlugs() []string {
	out := make([]string, len(s.Categories))
	for i, c := range s.Categories {
		out[i] = c.Slug
	}
	return out
}

func (s SelectionSet) ColorNames() []string {
	out := make([]string, len(s.Colors))
	for i, c := range s.Colors {
		out[i] = c.Name
	}
	return out
}

func (s SelectionSet) SizeNames() []string {
	out := make([]string, len(s.Sizes))
	for i, v := range s.Sizes {
		out[i] = v.Name
	}
	return out
}

// VariantRecord is one sellable combination. Identity for reconciliation is
// the (ColorName, SizeName) pair; nil means the axis is not in play.
// Quantity is the only user-entered field.
type VariantRecord struct {
	ColorName *string `json:"colorName"`
	SizeName  *string `json:"sizeName"`
	Quantity  int     `json:"quantity"`
}

// PendingImage is a draft image held in memory until the media stage runs.
type PendingImage struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"-"`
}

// ImageSet is the draft's ordered media: files not yet uploaded plus, in
// edit mode, URLs already persisted by the backend.
type ImageSet struct {
	Pending   []PendingImage `json:"pending"`
	Persisted []string       `json:"persisted"`
}

func (s ImageSet) Empty() bool {
	return len(s.Pending) == 0 && len(s.Persisted) == 0
}

// ProductDraft aggregates everything one editing session holds. Created when
// the drawer opens (empty for create, reconciled for edit); destroyed when
// the drawer closes or a create submission fully succeeds.
type ProductDraft struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Price       float64      `json:"price"`
	SalePrice   *float64     `json:"salePrice"`
	SKU         string       `json:"sku"`
	Barcode     string       `json:"barcode"`
	Slug        string       `json:"slug"`
	Tags        []string     `json:"tags"`
	Selection   SelectionSet `json:"selection"`
	Images      ImageSet     `json:"images"`
	// Variants is functionally derived from Selection plus the previous
	// matrix; it is replaced wholesale on every selection change and only
	// Quantity is ever edited in place.
	Variants []VariantRecord `json:"variants"`
}

// Base projects the draft onto the wire shape of the basic-info stage.
func (d *ProductDraft) Base() ProductBase {
	return ProductBase{
		Name:          d.Name,
		Slug:          d.Slug,
		Description:   d.Description,
		Price:         d.Price,
		SalePrice:     d.SalePrice,
		SKU:           d.SKU,
		Barcode:       d.Barcode,
		Tags:          d.Tags,
		CategorySlugs: d.Selection.CategorySlugs(),
		ColorNames:    d.Selection.ColorNames(),
		SizeNames:     d.Selection.SizeNames(),
	}
}
