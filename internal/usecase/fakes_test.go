package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"poshak-admin-backend/internal/domain"
	"poshak-admin-backend/internal/infrastructure/events"
)

// fakeCache is a plain map behind the cache port; no TTL behavior.
type fakeCache struct {
	mu    sync.Mutex
	items map[string]interface{}
}

func newFakeCache() *fakeCache {
	return &fakeCache{items: make(map[string]interface{})}
}

func (c *fakeCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	return v, ok
}

func (c *fakeCache) Set(key string, value interface{}, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
}

func (c *fakeCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

func (c *fakeCache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]interface{})
}

type fakeCatalogService struct {
	lists domain.CatalogLists
	err   error
}

func (s *fakeCatalogService) ListCategories(context.Context) ([]domain.Category, error) {
	return s.lists.Categories, s.err
}

func (s *fakeCatalogService) ListColors(context.Context) ([]domain.AttributeValue, error) {
	return s.lists.Colors, s.err
}

func (s *fakeCatalogService) ListSizes(context.Context) ([]domain.AttributeValue, error) {
	return s.lists.Sizes, s.err
}

// fakeProductService records every call in order and lets individual
// operations be failed from the test.
type fakeProductService struct {
	mu    sync.Mutex
	calls []string

	onCreate      func()
	createErr     error
	updateErr     error
	uploadErr     error
	assocImgErr   error
	assocVarErr   error
	getErr        error
	persisted     *domain.PersistedProduct
	lastBase      domain.ProductBase
	lastURLs      []string
	lastVariants  []domain.VariantRecord
	uploadedCount int
}

func (s *fakeProductService) record(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, name)
}

func (s *fakeProductService) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *fakeProductService) Create(_ context.Context, base domain.ProductBase) (string, error) {
	s.record("create")
	if s.onCreate != nil {
		s.onCreate()
	}
	if s.createErr != nil {
		return "", s.createErr
	}
	s.lastBase = base
	return "prod-1", nil
}

func (s *fakeProductService) Update(_ context.Context, id string, base domain.ProductBase) error {
	s.record("update")
	if s.updateErr != nil {
		return s.updateErr
	}
	s.lastBase = base
	return nil
}

func (s *fakeProductService) UploadImages(_ context.Context, files []domain.PendingImage) ([]string, error) {
	s.record("upload")
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	urls := make([]string, len(files))
	for i, f := range files {
		s.uploadedCount++
		urls[i] = fmt.Sprintf("https://cdn.example.com/%s", f.Filename)
	}
	return urls, nil
}

func (s *fakeProductService) AssociateImages(_ context.Context, id string, urls []string) error {
	s.record("associateImages")
	if s.assocImgErr != nil {
		return s.assocImgErr
	}
	s.lastURLs = urls
	return nil
}

func (s *fakeProductService) AssociateVariants(_ context.Context, id string, variants []domain.VariantRecord) error {
	s.record("associateVariants")
	if s.assocVarErr != nil {
		return s.assocVarErr
	}
	s.lastVariants = variants
	return nil
}

func (s *fakeProductService) Get(_ context.Context, id string) (*domain.PersistedProduct, error) {
	s.record("get")
	if s.getErr != nil {
		return nil, s.getErr
	}
	if s.persisted != nil {
		return s.persisted, nil
	}
	return &domain.PersistedProduct{ID: id}, nil
}

type fixture struct {
	products   *fakeProductService
	drafts     *DraftUsecase
	submission *SubmissionUsecase
	bus        *events.Bus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	products := &fakeProductService{}
	catalogUC := NewCatalogUsecase(&fakeCatalogService{lists: testCatalog()}, newFakeCache(), time.Minute)
	drafts := NewDraftUsecase(context.Background(), catalogUC, products, Validator{PriceFloor: 1000}, time.Hour, time.Hour)
	t.Cleanup(drafts.Shutdown)

	bus := events.NewBus(16)
	return &fixture{
		products:   products,
		drafts:     drafts,
		submission: NewSubmissionUsecase(products, Validator{PriceFloor: 1000}, drafts, bus),
		bus:        bus,
	}
}

// fillCreateDraft gets a fresh create session to a fully submittable state.
func (f *fixture) fillCreateDraft(t *testing.T) string {
	t.Helper()

	s := f.drafts.OpenCreate()
	err := f.drafts.SetBasicInfo(s.ID, BasicInfoInput{Name: "Classic Panjabi", Price: 1500})
	if err != nil {
		t.Fatal(err)
	}
	err = f.drafts.SetSelection(context.Background(), s.ID, SelectionInput{
		CategoryIDs: []string{"c1"},
		ColorIDs:    []string{"id-Red"},
	})
	if err != nil {
		t.Fatal(err)
	}
	err = f.drafts.AddImage(s.ID, domain.PendingImage{Filename: "front.jpg", ContentType: "image/jpeg"})
	if err != nil {
		t.Fatal(err)
	}
	err = f.drafts.SetQuantity(s.ID, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	return s.ID
}
