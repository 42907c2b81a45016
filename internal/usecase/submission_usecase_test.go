package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"poshak-admin-backend/internal/domain"
	"poshak-admin-backend/internal/infrastructure/events"

	"github.com/stretchr/testify/require"
)

func TestSubmitCreateFullSuccess(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	id := f.fillCreateDraft(t)

	var published []events.Event
	f.bus.Subscribe(func(e events.Event) { published = append(published, e) })

	result, err := f.submission.SubmitCreate(context.Background(), id)
	require.NoError(t, err)

	require.Equal(t, domain.OutcomeSuccess, result.Outcome)
	require.Equal(t, "prod-1", result.ProductID)
	require.Equal(t, []string{"create", "upload", "associateImages", "associateVariants"}, f.products.Calls())

	// The submitted base carries the natural keys, not catalog IDs.
	require.Equal(t, []string{"men"}, f.products.lastBase.CategorySlugs)
	require.Equal(t, []string{"Red"}, f.products.lastBase.ColorNames)
	require.Empty(t, f.products.lastBase.SizeNames)

	// Colors-only selection yields one record per color.
	require.Len(t, f.products.lastVariants, 1)
	require.Equal(t, "Red", *f.products.lastVariants[0].ColorName)
	require.Nil(t, f.products.lastVariants[0].SizeName)
	require.Equal(t, 10, f.products.lastVariants[0].Quantity)

	// Full success clears the session and announces the change.
	_, err = f.drafts.Session(id)
	require.ErrorIs(t, err, ErrSessionNotFound)
	require.Len(t, published, 1)
	require.Equal(t, events.CatalogChanged, published[0].Type)
	require.Equal(t, "prod-1", published[0].ProductID)
}

func TestSubmitCreateGeneratesSlugWhenMissing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	id := f.fillCreateDraft(t)

	_, err := f.submission.SubmitCreate(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, "classic-panjabi", f.products.lastBase.Slug)
}

func TestSubmitCreateValidationBlocksAllCalls(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	s := f.drafts.OpenCreate()

	result, err := f.submission.SubmitCreate(context.Background(), s.ID)
	require.NoError(t, err)

	require.Equal(t, domain.OutcomeInvalid, result.Outcome)
	require.NotEmpty(t, result.Violations)
	require.Empty(t, f.products.Calls())

	// The session survives an invalid run.
	_, err = f.drafts.Session(s.ID)
	require.NoError(t, err)
}

func TestSubmitCreateBaseFailureAborts(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	id := f.fillCreateDraft(t)
	f.products.createErr = errors.New("upstream 500")

	result, err := f.submission.SubmitCreate(context.Background(), id)
	require.NoError(t, err)

	require.Equal(t, domain.OutcomeFailed, result.Outcome)
	require.Equal(t, []string{"create"}, f.products.Calls())
	require.Len(t, result.Stages, 1)
	require.Equal(t, domain.StageFailed, result.Stages[0].Status)

	_, err = f.drafts.Session(id)
	require.NoError(t, err)
}

func TestSubmitCreateDegradedOnMediaFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	id := f.fillCreateDraft(t)
	f.products.uploadErr = errors.New("r2 timeout")

	var published []events.Event
	f.bus.Subscribe(func(e events.Event) { published = append(published, e) })

	result, err := f.submission.SubmitCreate(context.Background(), id)
	require.NoError(t, err)

	require.Equal(t, domain.OutcomeDegraded, result.Outcome)
	require.Equal(t, "prod-1", result.ProductID)
	require.Contains(t, result.Message(), "created, but")

	// The variant stage still runs after the media failure.
	require.Equal(t, []string{"create", "upload", "associateVariants"}, f.products.Calls())
	require.Len(t, result.Stages, 3)
	require.Equal(t, domain.StageSucceeded, result.Stages[0].Status)
	require.Equal(t, domain.StageFailed, result.Stages[1].Status)
	require.Equal(t, domain.StageSucceeded, result.Stages[2].Status)

	// Session and pending images are retained for a manual retry; no
	// catalog-changed event goes out on a partial create.
	s, err := f.drafts.Session(id)
	require.NoError(t, err)
	require.Len(t, s.Draft.Images.Pending, 1)
	require.Empty(t, published)
}

func TestSubmitCreateRejectsEditSession(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.products.persisted = &domain.PersistedProduct{
		ID: "prod-9",
		ProductBase: domain.ProductBase{
			Name:          "Kurta",
			Price:         2000,
			CategorySlugs: []string{"men"},
		},
	}
	s, err := f.drafts.OpenEdit(context.Background(), "prod-9")
	require.NoError(t, err)

	_, err = f.submission.SubmitCreate(context.Background(), s.ID)
	require.Error(t, err)
}

func newEditFixture(t *testing.T) (*fixture, string) {
	t.Helper()

	f := newFixture(t)
	f.products.persisted = &domain.PersistedProduct{
		ID: "prod-9",
		ProductBase: domain.ProductBase{
			Name:          "Kurta",
			Slug:          "kurta",
			Price:         2000,
			CategorySlugs: []string{"men"},
			ColorNames:    []string{"Red"},
		},
		ImageURLs: []string{"https://cdn.example.com/old.webp"},
		Variants: []domain.VariantRecord{
			{ColorName: strptr("Red"), Quantity: 4},
		},
	}
	s, err := f.drafts.OpenEdit(context.Background(), "prod-9")
	require.NoError(t, err)

	f.products.calls = nil
	return f, s.ID
}

func TestSubmitBasicInfoUpdatesAndRefetches(t *testing.T) {
	t.Parallel()

	f, id := newEditFixture(t)
	require.NoError(t, f.drafts.SetBasicInfo(id, BasicInfoInput{Name: "Kurta Deluxe", Price: 2500, Slug: "kurta"}))

	result, err := f.submission.SubmitBasicInfo(context.Background(), id)
	require.NoError(t, err)

	require.Equal(t, domain.OutcomeSuccess, result.Outcome)
	require.Equal(t, "prod-9", result.ProductID)
	require.Equal(t, []string{"update", "get"}, f.products.Calls())
	require.Equal(t, "Kurta Deluxe", f.products.lastBase.Name)

	// The refetch overwrote the draft with what upstream actually stored.
	s, err := f.drafts.Session(id)
	require.NoError(t, err)
	require.Equal(t, "Kurta", s.Draft.Name)
}

func TestSubmitBasicInfoInvalidDraft(t *testing.T) {
	t.Parallel()

	f, id := newEditFixture(t)
	require.NoError(t, f.drafts.SetBasicInfo(id, BasicInfoInput{Name: "", Price: 2500}))

	result, err := f.submission.SubmitBasicInfo(context.Background(), id)
	require.NoError(t, err)

	require.Equal(t, domain.OutcomeInvalid, result.Outcome)
	require.Empty(t, f.products.Calls())
}

func TestSubmitMediaMergesPersistedAndUploaded(t *testing.T) {
	t.Parallel()

	f, id := newEditFixture(t)
	require.NoError(t, f.drafts.AddImage(id, domain.PendingImage{Filename: "new.jpg"}))

	result, err := f.submission.SubmitMedia(context.Background(), id)
	require.NoError(t, err)

	require.Equal(t, domain.OutcomeSuccess, result.Outcome)
	require.Equal(t, []string{"upload", "associateImages", "get"}, f.products.Calls())
	require.Equal(t, []string{
		"https://cdn.example.com/old.webp",
		"https://cdn.example.com/new.jpg",
	}, f.products.lastURLs)
}

func TestSubmitMediaRequiresImages(t *testing.T) {
	t.Parallel()

	f, id := newEditFixture(t)
	// Drop the one persisted image.
	require.NoError(t, f.drafts.RemoveImage(id, 0))

	result, err := f.submission.SubmitMedia(context.Background(), id)
	require.NoError(t, err)

	require.Equal(t, domain.OutcomeInvalid, result.Outcome)
	require.Empty(t, f.products.Calls())
}

func TestSubmitVariantsReplacesMatrix(t *testing.T) {
	t.Parallel()

	f, id := newEditFixture(t)
	require.NoError(t, f.drafts.SetQuantity(id, 0, 12))

	result, err := f.submission.SubmitVariants(context.Background(), id)
	require.NoError(t, err)

	require.Equal(t, domain.OutcomeSuccess, result.Outcome)
	require.Equal(t, []string{"associateVariants", "get"}, f.products.Calls())
	require.Len(t, f.products.lastVariants, 1)
	require.Equal(t, 12, f.products.lastVariants[0].Quantity)
}

func TestSubmitVariantsZeroQuantityBlocks(t *testing.T) {
	t.Parallel()

	f, id := newEditFixture(t)
	require.NoError(t, f.drafts.SetQuantity(id, 0, 0))

	result, err := f.submission.SubmitVariants(context.Background(), id)
	require.NoError(t, err)

	require.Equal(t, domain.OutcomeInvalid, result.Outcome)
	require.Empty(t, f.products.Calls())
}

func TestSubmitVariantsFailureKeepsDraft(t *testing.T) {
	t.Parallel()

	f, id := newEditFixture(t)
	f.products.assocVarErr = errors.New("upstream 502")

	result, err := f.submission.SubmitVariants(context.Background(), id)
	require.NoError(t, err)

	require.Equal(t, domain.OutcomeFailed, result.Outcome)
	s, err := f.drafts.Session(id)
	require.NoError(t, err)
	require.Equal(t, 4, s.Draft.Variants[0].Quantity)
}

// A janitor sweep firing while a submission holds its session lock must
// neither deadlock the submission nor stall the session store.
func TestJanitorSweepDuringInFlightSubmitCreate(t *testing.T) {
	t.Parallel()

	products := &fakeProductService{}
	catalogUC := NewCatalogUsecase(&fakeCatalogService{lists: testCatalog()}, newFakeCache(), time.Minute)
	drafts := NewDraftUsecase(context.Background(), catalogUC, products, Validator{PriceFloor: 1000}, 100*time.Millisecond, 5*time.Millisecond)
	t.Cleanup(drafts.Shutdown)

	bus := events.NewBus(4)
	f := &fixture{
		products:   products,
		drafts:     drafts,
		submission: NewSubmissionUsecase(products, Validator{PriceFloor: 1000}, drafts, bus),
		bus:        bus,
	}
	id := f.fillCreateDraft(t)

	// Pin the base stage long enough for the session to exceed its TTL
	// and for many sweeps to fire while the session lock is held.
	products.onCreate = func() { time.Sleep(300 * time.Millisecond) }

	type outcome struct {
		result domain.SubmissionResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := f.submission.SubmitCreate(context.Background(), id)
		done <- outcome{result, err}
	}()

	// While the submission is in flight the store must stay responsive
	// to unrelated sessions.
	time.Sleep(50 * time.Millisecond)
	other := drafts.OpenCreate()
	_, err := drafts.Snapshot(other.ID)
	require.NoError(t, err)

	select {
	case out := <-done:
		require.NoError(t, out.err)
		require.Equal(t, domain.OutcomeSuccess, out.result.Outcome)
	case <-time.After(5 * time.Second):
		t.Fatal("SubmitCreate did not return while the janitor was sweeping")
	}

	_, err = drafts.Session(id)
	require.ErrorIs(t, err, ErrSessionNotFound)
}
