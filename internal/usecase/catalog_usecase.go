package usecase

import (
	"context"
	"time"

	"poshak-admin-backend/internal/domain"
	"poshak-admin-backend/pkg/cache"

	"golang.org/x/sync/errgroup"
)

// CatalogUsecase is the catalog reference loader: it fetches the master
// category/color/size lists and keeps them cached for the screen lifetime.
// Read-only; nothing downstream mutates what it hands out.
type CatalogUsecase struct {
	svc   domain.CatalogService
	cache cache.CacheService
	ttl   time.Duration
}

func NewCatalogUsecase(svc domain.CatalogService, cache cache.CacheService, ttl time.Duration) *CatalogUsecase {
	return &CatalogUsecase{
		svc:   svc,
		cache: cache,
		ttl:   ttl,
	}
}

func (u *CatalogUsecase) GetCategories(ctx context.Context) ([]domain.Category, error) {
	key := "catalog:categories"
	if val, found := u.cache.Get(key); found {
		return val.([]domain.Category), nil
	}

	cats, err := u.svc.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	u.cache.Set(key, cats, u.ttl)
	return cats, nil
}

func (u *CatalogUsecase) GetColors(ctx context.Context) ([]domain.AttributeValue, error) {
	key := "catalog:colors"
	if val, found := u.cache.Get(key); found {
		return val.([]domain.AttributeValue), nil
	}

	colors, err := u.svc.ListColors(ctx)
	if err != nil {
		return nil, err
	}

	u.cache.Set(key, colors, u.ttl)
	return colors, nil
}

func (u *CatalogUsecase) GetSizes(ctx context.Context) ([]domain.AttributeValue, error) {
	key := "catalog:sizes"
	if val, found := u.cache.Get(key); found {
		return val.([]domain.AttributeValue), nil
	}

	sizes, err := u.svc.ListSizes(ctx)
	if err != nil {
		return nil, err
	}

	u.cache.Set(key, sizes, u.ttl)
	return sizes, nil
}

// GetLists loads all three reference lists, fetching cache misses
// concurrently. The reconciler refuses to run against a partial catalog,
// so all three loads must succeed.
func (u *CatalogUsecase) GetLists(ctx context.Context) (domain.CatalogLists, error) {
	var lists domain.CatalogLists

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cats, err := u.GetCategories(gctx)
		lists.Categories = cats
		return err
	})
	g.Go(func() error {
		colors, err := u.GetColors(gctx)
		lists.Colors = colors
		return err
	})
	g.Go(func() error {
		sizes, err := u.GetSizes(gctx)
		lists.Sizes = sizes
		return err
	})

	if err := g.Wait(); err != nil {
		return domain.CatalogLists{}, err
	}
	return lists, nil
}

// Invalidate drops the cached lists after the catalog changes upstream.
func (u *CatalogUsecase) Invalidate() {
	u.cache.Delete("catalog:categories")
	u.cache.Delete("catalog:colors")
	u.cache.Delete("catalog:sizes")
}
