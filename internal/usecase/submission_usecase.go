package usecase

import (
	"context"
	"fmt"

	"poshak-admin-backend/internal/domain"
	"poshak-admin-backend/internal/infrastructure/events"
	"poshak-admin-backend/pkg/logger"
	"poshak-admin-backend/pkg/utils"
)

// SubmissionUsecase drives the create/update pipelines against the backend
// collaborators. The three stages (base record, media, variants) fail
// independently and nothing rolls back across them: a stage that persisted
// stays persisted. That is the contract, not a shortcut.
type SubmissionUsecase struct {
	products  domain.ProductService
	validator Validator
	drafts    *DraftUsecase
	bus       *events.Bus
}

func NewSubmissionUsecase(products domain.ProductService, validator Validator, drafts *DraftUsecase, bus *events.Bus) *SubmissionUsecase {
	return &SubmissionUsecase{
		products:  products,
		validator: validator,
		drafts:    drafts,
		bus:       bus,
	}
}

// SubmitCreate runs the linear create sequence: validate, base record,
// media (upload batch, then associate), variants. A base failure aborts; a
// later failure yields a degraded success: the record exists, the draft
// (including its pending images) is retained, and the caller must not
// re-run the base stage. Only a full success clears the session and signals
// that the catalog list is stale.
func (u *SubmissionUsecase) SubmitCreate(ctx context.Context, sessionID string) (domain.SubmissionResult, error) {
	s, err := u.drafts.Session(sessionID)
	if err != nil {
		return domain.SubmissionResult{}, err
	}
	if s.Mode != domain.ModeCreate {
		return domain.SubmissionResult{}, fmt.Errorf("session %s is not a create session", sessionID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if errs := u.validator.ValidateFull(&s.Draft, domain.ModeCreate); len(errs) > 0 {
		return domain.SubmissionResult{
			Outcome:    domain.OutcomeInvalid,
			Violations: errs,
		}, nil
	}

	base := s.Draft.Base()
	if base.Slug == "" {
		base.Slug = utils.GenerateSlug(base.Name)
	}

	id, err := u.products.Create(ctx, base)
	logger.StageOutcome(id, string(domain.StageBasicInfo), err)
	if err != nil {
		return domain.SubmissionResult{
			Outcome: domain.OutcomeFailed,
			Stages: []domain.StageResult{
				{Stage: domain.StageBasicInfo, Status: domain.StageFailed, Message: err.Error()},
			},
		}, nil
	}

	stages := []domain.StageResult{
		{Stage: domain.StageBasicInfo, Status: domain.StageSucceeded},
	}

	mediaErr := u.pushImages(ctx, id, &s.Draft)
	logger.StageOutcome(id, string(domain.StageMedia), mediaErr)
	stages = append(stages, stageResult(domain.StageMedia, mediaErr))

	// The variant stage is attempted even when media failed; the stages
	// are independent.
	variantsErr := u.products.AssociateVariants(ctx, id, s.Draft.Variants)
	logger.StageOutcome(id, string(domain.StageVariants), variantsErr)
	stages = append(stages, stageResult(domain.StageVariants, variantsErr))

	if mediaErr != nil || variantsErr != nil {
		// Pending images stay in the draft so a manual retry path can
		// re-run the upload without re-entering everything.
		return domain.SubmissionResult{
			Outcome:   domain.OutcomeDegraded,
			ProductID: id,
			Stages:    stages,
		}, nil
	}

	u.drafts.Discard(sessionID)
	u.bus.Publish(events.Event{Type: events.CatalogChanged, ProductID: id})

	return domain.SubmissionResult{
		Outcome:   domain.OutcomeSuccess,
		ProductID: id,
		Stages:    stages,
	}, nil
}

// pushImages uploads the pending batch and associates the resulting URLs
// (merged after any already-persisted ones) with the record.
func (u *SubmissionUsecase) pushImages(ctx context.Context, id string, d *domain.ProductDraft) error {
	urls := append([]string(nil), d.Images.Persisted...)

	if len(d.Images.Pending) > 0 {
		uploaded, err := u.products.UploadImages(ctx, d.Images.Pending)
		if err != nil {
			return err
		}
		urls = append(urls, uploaded...)
	}

	return u.products.AssociateImages(ctx, id, urls)
}

// SubmitBasicInfo overwrites the base record fields only. Edit mode.
func (u *SubmissionUsecase) SubmitBasicInfo(ctx context.Context, sessionID string) (domain.SubmissionResult, error) {
	s, err := u.editSession(sessionID)
	if err != nil {
		return domain.SubmissionResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if errs := u.validator.ValidateBasicInfo(&s.Draft); len(errs) > 0 {
		return domain.SubmissionResult{Outcome: domain.OutcomeInvalid, Violations: errs}, nil
	}

	base := s.Draft.Base()
	if base.Slug == "" {
		base.Slug = utils.GenerateSlug(base.Name)
	}

	err = u.products.Update(ctx, s.ProductID, base)
	logger.StageOutcome(s.ProductID, string(domain.StageBasicInfo), err)
	if err != nil {
		return failedResult(domain.StageBasicInfo, err), nil
	}

	// Refetch only what this stage touched to keep the draft aligned.
	if persisted, getErr := u.products.Get(ctx, s.ProductID); getErr == nil {
		d := &s.Draft
		d.Name = persisted.Name
		d.Description = persisted.Description
		d.Price = persisted.Price
		d.SalePrice = persisted.SalePrice
		d.SKU = persisted.SKU
		d.Barcode = persisted.Barcode
		d.Slug = persisted.Slug
		d.Tags = persisted.Tags
	}

	u.bus.Publish(events.Event{Type: events.CatalogChanged, ProductID: s.ProductID})
	return successResult(s.ProductID, domain.StageBasicInfo), nil
}

// SubmitMedia uploads any newly added files, merges their URLs with the
// already-persisted ones and overwrites the record's image association
// with the full list. Edit mode; requires a non-empty image set.
func (u *SubmissionUsecase) SubmitMedia(ctx context.Context, sessionID string) (domain.SubmissionResult, error) {
	s, err := u.editSession(sessionID)
	if err != nil {
		return domain.SubmissionResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Draft.Images.Empty() {
		return domain.SubmissionResult{
			Outcome: domain.OutcomeInvalid,
			Violations: []domain.ValidationError{
				{Field: "images", Reason: "add at least one image"},
			},
		}, nil
	}

	err = u.pushImages(ctx, s.ProductID, &s.Draft)
	logger.StageOutcome(s.ProductID, string(domain.StageMedia), err)
	if err != nil {
		return failedResult(domain.StageMedia, err), nil
	}

	if persisted, getErr := u.products.Get(ctx, s.ProductID); getErr == nil {
		s.Draft.Images = domain.ImageSet{Persisted: persisted.ImageURLs}
	}

	u.bus.Publish(events.Event{Type: events.CatalogChanged, ProductID: s.ProductID})
	return successResult(s.ProductID, domain.StageMedia), nil
}

// SubmitVariants overwrites the record's variant association with the
// current matrix. Edit mode.
func (u *SubmissionUsecase) SubmitVariants(ctx context.Context, sessionID string) (domain.SubmissionResult, error) {
	s, err := u.editSession(sessionID)
	if err != nil {
		return domain.SubmissionResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if errs := u.validator.ValidateVariants(s.Draft.Variants); len(errs) > 0 {
		return domain.SubmissionResult{Outcome: domain.OutcomeInvalid, Violations: errs}, nil
	}

	err = u.products.AssociateVariants(ctx, s.ProductID, s.Draft.Variants)
	logger.StageOutcome(s.ProductID, string(domain.StageVariants), err)
	if err != nil {
		return failedResult(domain.StageVariants, err), nil
	}

	if persisted, getErr := u.products.Get(ctx, s.ProductID); getErr == nil {
		s.Draft.Variants = persisted.Variants
	}

	u.bus.Publish(events.Event{Type: events.CatalogChanged, ProductID: s.ProductID})
	return successResult(s.ProductID, domain.StageVariants), nil
}

func (u *SubmissionUsecase) editSession(sessionID string) (*DraftSession, error) {
	s, err := u.drafts.Session(sessionID)
	if err != nil {
		return nil, err
	}
	if s.Mode != domain.ModeEdit {
		return nil, fmt.Errorf("session %s is not an edit session", sessionID)
	}
	return s, nil
}

func stageResult(stage domain.SubmissionStage, err error) domain.StageResult {
	if err != nil {
		return domain.StageResult{Stage: stage, Status: domain.StageFailed, Message: err.Error()}
	}
	return domain.StageResult{Stage: stage, Status: domain.StageSucceeded}
}

func failedResult(stage domain.SubmissionStage, err error) domain.SubmissionResult {
	return domain.SubmissionResult{
		Outcome: domain.OutcomeFailed,
		Stages:  []domain.StageResult{stageResult(stage, err)},
	}
}

func successResult(productID string, stage domain.SubmissionStage) domain.SubmissionResult {
	return domain.SubmissionResult{
		Outcome:   domain.OutcomeSuccess,
		ProductID: productID,
		Stages:    []domain.StageResult{{Stage: stage, Status: domain.StageSucceeded}},
	}
}
