package local

import (
	"context"
	"fmt"
	"sync"

	"poshak-admin-backend/internal/domain"
	"poshak-admin-backend/pkg/logger"
	"poshak-admin-backend/pkg/storage"
	"poshak-admin-backend/pkg/utils"

	"golang.org/x/sync/errgroup"
)

// ProductService is the self-contained backend mode: records live in
// Postgres, media lives in R2. It satisfies the same stage contract as the
// remote client. Each call persists or fails on its own.
type ProductService struct {
	repo    domain.ProductRepository
	storage *storage.R2Storage
}

var _ domain.ProductService = (*ProductService)(nil)

func NewProductService(repo domain.ProductRepository, storage *storage.R2Storage) *ProductService {
	return &ProductService{
		repo:    repo,
		storage: storage,
	}
}

func (s *ProductService) Create(ctx context.Context, base domain.ProductBase) (string, error) {
	id := utils.GenerateUUID()
	if err := s.repo.CreateProduct(ctx, id, base); err != nil {
		return "", err
	}
	return id, nil
}

func (s *ProductService) Update(ctx context.Context, id string, base domain.ProductBase) error {
	return s.repo.UpdateProduct(ctx, id, base)
}

// UploadImages processes and pushes the batch concurrently, waiting for the
// whole group before returning. URLs keep the input order; one failure
// fails the batch and uploads already in R2 are left as orphans (they are
// not associated with anything and cost nothing).
func (s *ProductService) UploadImages(ctx context.Context, files []domain.PendingImage) ([]string, error) {
	urls := make([]string, len(files))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			if !utils.IsImage(f.ContentType) {
				return fmt.Errorf("unsupported content type %s for %s", f.ContentType, f.Filename)
			}
			data, contentType, err := utils.ProcessImage(f.Data, f.Filename)
			if err != nil {
				return fmt.Errorf("failed to process %s: %w", f.Filename, err)
			}
			url, err := s.storage.UploadBuffer(gctx, data, contentType)
			if err != nil {
				return err
			}
			mu.Lock()
			urls[i] = url
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}

// AssociateImages replaces the record's image list. Objects the new list
// no longer references are deleted from R2 afterwards; that cleanup is
// best-effort and never fails the stage.
func (s *ProductService) AssociateImages(ctx context.Context, id string, urls []string) error {
	var dropped []string
	if prev, err := s.repo.GetProduct(ctx, id); err == nil {
		keep := make(map[string]bool, len(urls))
		for _, u := range urls {
			keep[u] = true
		}
		for _, u := range prev.ImageURLs {
			if !keep[u] {
				dropped = append(dropped, u)
			}
		}
	}

	if err := s.repo.ReplaceImages(ctx, id, urls); err != nil {
		return err
	}

	for _, u := range dropped {
		if err := s.storage.DeleteFile(ctx, u); err != nil {
			logger.Warn().Str("url", u).Err(err).Msg("Failed to delete unreferenced image")
		}
	}
	return nil
}

func (s *ProductService) AssociateVariants(ctx context.Context, id string, variants []domain.VariantRecord) error {
	return s.repo.ReplaceVariants(ctx, id, variants)
}

func (s *ProductService) Get(ctx context.Context, id string) (*domain.PersistedProduct, error) {
	return s.repo.GetProduct(ctx, id)
}
