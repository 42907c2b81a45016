package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"poshak-admin-backend/internal/domain"
	"poshak-admin-backend/pkg/utils"

	"golang.org/x/sync/errgroup"
)

// ErrSessionNotFound is returned for unknown or expired draft sessions.
var ErrSessionNotFound = fmt.Errorf("draft session not found")

// DraftSession is one open editing drawer. It exclusively owns its
// ProductDraft; concurrent edits of the same backend record are neither
// supported nor guarded against (no optimistic locking upstream).
type DraftSession struct {
	ID        string
	Mode      domain.DraftMode
	ProductID string
	// Stage is the wizard position. Not persisted; every fresh session
	// starts at the basic-info tab.
	Stage       domain.EditingStage
	Draft       domain.ProductDraft
	CreatedAt   time.Time
	LastTouched time.Time

	mu sync.Mutex
}

// SessionView is the JSON snapshot handed to the UI layer.
type SessionView struct {
	ID        string              `json:"id"`
	Mode      domain.DraftMode    `json:"mode"`
	ProductID string              `json:"productId,omitempty"`
	Stage     domain.EditingStage `json:"stage"`
	Draft     domain.ProductDraft `json:"draft"`
}

type BasicInfoInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	SalePrice   *float64 `json:"salePrice"`
	SKU         string   `json:"sku"`
	Barcode     string   `json:"barcode"`
	Slug        string   `json:"slug"`
	Tags        []string `json:"tags"`
}

type SelectionInput struct {
	CategoryIDs []string `json:"categoryIds"`
	ColorIDs    []string `json:"colorIds"`
	SizeIDs     []string `json:"sizeIds"`
}

// DraftUsecase owns the in-memory session store. Sessions expire after a
// TTL of inactivity; a janitor goroutine sweeps them out.
type DraftUsecase struct {
	catalog   *CatalogUsecase
	products  domain.ProductService
	validator Validator

	mu       sync.RWMutex
	sessions map[string]*DraftSession

	ttl    time.Duration
	ctx    context.Context
	cancel context.CancelFunc
}

func NewDraftUsecase(ctx context.Context, catalog *CatalogUsecase, products domain.ProductService, validator Validator, ttl, cleanupPeriod time.Duration) *DraftUsecase {
	u := &DraftUsecase{
		catalog:   catalog,
		products:  products,
		validator: validator,
		sessions:  make(map[string]*DraftSession),
		ttl:       ttl,
	}
	u.ctx, u.cancel = context.WithCancel(ctx)
	go u.cleanupLoop(cleanupPeriod)
	return u
}

// OpenCreate starts an empty create session. The matrix begins as the
// single placeholder record the generation law prescribes for an empty
// selection.
func (u *DraftUsecase) OpenCreate() *DraftSession {
	now := time.Now()
	s := &DraftSession{
		ID:          utils.GenerateUUID(),
		Mode:        domain.ModeCreate,
		Stage:       domain.StageBasicInfoTab,
		CreatedAt:   now,
		LastTouched: now,
	}
	s.Draft.Variants = GenerateMatrix(s.Draft.Selection, nil)

	u.mu.Lock()
	u.sessions[s.ID] = s
	u.mu.Unlock()
	return s
}

// OpenEdit loads the persisted record and the catalog lists concurrently,
// then reconciles the stored natural keys onto the live catalog. The
// reconciler only ever runs once both loads have finished; matching
// against a partial catalog would silently under-select.
func (u *DraftUsecase) OpenEdit(ctx context.Context, productID string) (*DraftSession, error) {
	var (
		lists     domain.CatalogLists
		persisted *domain.PersistedProduct
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lists, err = u.catalog.GetLists(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		persisted, err = u.products.Get(gctx, productID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to open edit session: %w", err)
	}

	selection := ReconcileSelection(persisted.ProductBase, lists)

	now := time.Now()
	s := &DraftSession{
		ID:          utils.GenerateUUID(),
		Mode:        domain.ModeEdit,
		ProductID:   persisted.ID,
		Stage:       domain.StageBasicInfoTab,
		CreatedAt:   now,
		LastTouched: now,
		Draft: domain.ProductDraft{
			Name:        persisted.Name,
			Description: persisted.Description,
			Price:       persisted.Price,
			SalePrice:   persisted.SalePrice,
			SKU:         persisted.SKU,
			Barcode:     persisted.Barcode,
			Slug:        persisted.Slug,
			Tags:        persisted.Tags,
			Selection:   selection,
			Images:      domain.ImageSet{Persisted: persisted.ImageURLs},
		},
	}
	// Regenerate from the reconciled selection so that dropped catalog
	// entries fall out of the matrix while surviving keys keep their
	// persisted quantities.
	s.Draft.Variants = GenerateMatrix(selection, persisted.Variants)

	u.mu.Lock()
	u.sessions[s.ID] = s
	u.mu.Unlock()
	return s, nil
}

func (u *DraftUsecase) get(id string) (*DraftSession, error) {
	u.mu.RLock()
	s, ok := u.sessions[id]
	u.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Session returns the live session for submission use.
func (u *DraftUsecase) Session(id string) (*DraftSession, error) {
	return u.get(id)
}

func (u *DraftUsecase) Snapshot(id string) (SessionView, error) {
	s, err := u.get(id)
	if err != nil {
		return SessionView{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionView{
		ID:        s.ID,
		Mode:      s.Mode,
		ProductID: s.ProductID,
		Stage:     s.Stage,
		Draft:     s.Draft,
	}, nil
}

// Discard drops the session. In-flight submissions are NOT cancelled; a
// late success can still land upstream after the drawer closed.
func (u *DraftUsecase) Discard(id string) {
	u.mu.Lock()
	delete(u.sessions, id)
	u.mu.Unlock()
}

func (u *DraftUsecase) SetBasicInfo(id string, in BasicInfoInput) error {
	s, err := u.get(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastTouched = time.Now()

	d := &s.Draft
	d.Name = in.Name
	d.Description = in.Description
	d.Price = in.Price
	d.SalePrice = in.SalePrice
	d.SKU = in.SKU
	d.Barcode = in.Barcode
	d.Slug = in.Slug
	d.Tags = in.Tags
	return nil
}

// SetSelection replaces the selection set and synchronously regenerates the
// variant matrix with the outgoing matrix as the reconciliation base, so
// quantities survive any change that keeps the same (color, size) key.
// IDs with no catalog entry are dropped: the loader's lists are the source
// of truth for what is selectable.
func (u *DraftUsecase) SetSelection(ctx context.Context, id string, in SelectionInput) error {
	s, err := u.get(id)
	if err != nil {
		return err
	}

	lists, err := u.catalog.GetLists(ctx)
	if err != nil {
		return fmt.Errorf("failed to load catalog lists: %w", err)
	}

	selection := domain.SelectionSet{}
	catByID := make(map[string]domain.Category, len(lists.Categories))
	for _, c := range lists.Categories {
		catByID[c.ID] = c
	}
	for _, cid := range in.CategoryIDs {
		if c, ok := catByID[cid]; ok {
			selection.Categories = append(selection.Categories, c)
		}
	}
	selection.Colors = pickByID(in.ColorIDs, lists.Colors)
	selection.Sizes = pickByID(in.SizeIDs, lists.Sizes)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastTouched = time.Now()
	s.Draft.Selection = selection
	s.Draft.Variants = GenerateMatrix(selection, s.Draft.Variants)
	return nil
}

func pickByID(ids []string, values []domain.AttributeValue) []domain.AttributeValue {
	byID := make(map[string]domain.AttributeValue, len(values))
	for _, v := range values {
		byID[v.ID] = v
	}
	var out []domain.AttributeValue
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			out = append(out, v)
		}
	}
	return out
}

// SetQuantity edits a single record in place, bypassing regeneration.
func (u *DraftUsecase) SetQuantity(id string, index, quantity int) error {
	s, err := u.get(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastTouched = time.Now()

	if index < 0 || index >= len(s.Draft.Variants) {
		return fmt.Errorf("variant index %d out of range", index)
	}
	s.Draft.Variants[index].Quantity = quantity
	return nil
}

func (u *DraftUsecase) AddImage(id string, img domain.PendingImage) error {
	s, err := u.get(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastTouched = time.Now()
	s.Draft.Images.Pending = append(s.Draft.Images.Pending, img)
	return nil
}

// RemoveImage removes by position in the combined order: pending files
// first, then persisted URLs.
func (u *DraftUsecase) RemoveImage(id string, index int) error {
	s, err := u.get(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastTouched = time.Now()

	imgs := &s.Draft.Images
	switch {
	case index < 0:
		return fmt.Errorf("image index %d out of range", index)
	case index < len(imgs.Pending):
		imgs.Pending = append(imgs.Pending[:index], imgs.Pending[index+1:]...)
	case index-len(imgs.Pending) < len(imgs.Persisted):
		i := index - len(imgs.Pending)
		imgs.Persisted = append(imgs.Persisted[:i], imgs.Persisted[i+1:]...)
	default:
		return fmt.Errorf("image index %d out of range", index)
	}
	return nil
}

// Advance moves BasicInfo -> Variants when the cheap rule subset passes.
// Zero quantities do not block advancement, only submission.
func (u *DraftUsecase) Advance(id string) ([]domain.ValidationError, error) {
	s, err := u.get(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastTouched = time.Now()

	if errs := u.validator.ValidateStage1(&s.Draft); len(errs) > 0 {
		return errs, nil
	}
	s.Stage = domain.StageVariantsTab
	return nil, nil
}

// Back is unconditional.
func (u *DraftUsecase) Back(id string) error {
	s, err := u.get(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastTouched = time.Now()
	s.Stage = domain.StageBasicInfoTab
	return nil
}

func (u *DraftUsecase) ValidateStage1(id string) ([]domain.ValidationError, error) {
	s, err := u.get(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return u.validator.ValidateStage1(&s.Draft), nil
}

func (u *DraftUsecase) ValidateFull(id string) ([]domain.ValidationError, error) {
	s, err := u.get(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return u.validator.ValidateFull(&s.Draft, s.Mode), nil
}

// cleanupLoop sweeps idle sessions, mirroring the rate limiter's janitor.
func (u *DraftUsecase) cleanupLoop(period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			u.cleanup()
		case <-u.ctx.Done():
			return
		}
	}
}

// cleanup must never wait on a session lock while holding the store lock:
// submissions hold their session lock across network calls and take the
// store lock to discard on success, so blocking here would deadlock the
// whole store. Session locks are only tried, never waited on; a busy
// session is mid-request and by definition not idle.
func (u *DraftUsecase) cleanup() {
	u.mu.RLock()
	candidates := make([]*DraftSession, 0, len(u.sessions))
	for _, s := range u.sessions {
		candidates = append(candidates, s)
	}
	u.mu.RUnlock()

	var expired []*DraftSession
	for _, s := range candidates {
		if !s.mu.TryLock() {
			continue
		}
		idle := time.Since(s.LastTouched)
		s.mu.Unlock()
		if idle > u.ttl {
			expired = append(expired, s)
		}
	}
	if len(expired) == 0 {
		return
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	for _, s := range expired {
		// Re-check expiry; the session may have been touched since the
		// scan. TryLock cannot block, so holding u.mu here is safe.
		if !s.mu.TryLock() {
			continue
		}
		if time.Since(s.LastTouched) > u.ttl {
			delete(u.sessions, s.ID)
		}
		s.mu.Unlock()
	}
}

// Shutdown stops the janitor goroutine.
func (u *DraftUsecase) Shutdown() {
	u.cancel()
}
