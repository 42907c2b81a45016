package v1

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"poshak-admin-backend/internal/domain"
	"poshak-admin-backend/internal/infrastructure/events"
	"poshak-admin-backend/internal/usecase"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

type stubCache struct{ items map[string]interface{} }

func (c *stubCache) Get(key string) (interface{}, bool) {
	v, ok := c.items[key]
	return v, ok
}
func (c *stubCache) Set(key string, value interface{}, _ time.Duration) { c.items[key] = value }
func (c *stubCache) Delete(key string)                                  { delete(c.items, key) }
func (c *stubCache) Flush()                                             { c.items = map[string]interface{}{} }

type stubCatalog struct{}

func (stubCatalog) ListCategories(context.Context) ([]domain.Category, error) {
	return []domain.Category{{ID: "c1", Name: "Men", Slug: "men", IsActive: true}}, nil
}
func (stubCatalog) ListColors(context.Context) ([]domain.AttributeValue, error) {
	return []domain.AttributeValue{{ID: "col1", Name: "Red"}}, nil
}
func (stubCatalog) ListSizes(context.Context) ([]domain.AttributeValue, error) {
	return []domain.AttributeValue{{ID: "sz1", Name: "S"}}, nil
}

type stubProducts struct {
	createErr  error
	uploadErr  error
	variantErr error
}

func (s *stubProducts) Create(context.Context, domain.ProductBase) (string, error) {
	if s.createErr != nil {
		return "", s.createErr
	}
	return "prod-1", nil
}
func (s *stubProducts) Update(context.Context, string, domain.ProductBase) error { return nil }
func (s *stubProducts) UploadImages(_ context.Context, files []domain.PendingImage) ([]string, error) {
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	urls := make([]string, len(files))
	for i, f := range files {
		urls[i] = "https://cdn.example.com/" + f.Filename
	}
	return urls, nil
}
func (s *stubProducts) AssociateImages(context.Context, string, []string) error { return nil }
func (s *stubProducts) AssociateVariants(context.Context, string, []domain.VariantRecord) error {
	return s.variantErr
}
func (s *stubProducts) Get(_ context.Context, id string) (*domain.PersistedProduct, error) {
	return &domain.PersistedProduct{ID: id}, nil
}

func newTestRouter(t *testing.T, products *stubProducts) *http.ServeMux {
	t.Helper()

	catalogUC := usecase.NewCatalogUsecase(stubCatalog{}, &stubCache{items: map[string]interface{}{}}, time.Minute)
	validator := usecase.Validator{PriceFloor: 1000}
	drafts := usecase.NewDraftUsecase(context.Background(), catalogUC, products, validator, time.Hour, time.Hour)
	t.Cleanup(drafts.Shutdown)
	bus := events.NewBus(16)
	submission := usecase.NewSubmissionUsecase(products, validator, drafts, bus)

	h := NewAdminDraftHandler(drafts, submission, 10)
	c := NewCatalogHandler(catalogUC, bus)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /categories", c.GetCategories)
	mux.HandleFunc("GET /events", c.GetEvents)
	mux.HandleFunc("POST /drafts", h.OpenCreate)
	mux.HandleFunc("GET /drafts/{id}", h.GetDraft)
	mux.HandleFunc("PUT /drafts/{id}/basic", h.SetBasicInfo)
	mux.HandleFunc("PUT /drafts/{id}/selection", h.SetSelection)
	mux.HandleFunc("PATCH /drafts/{id}/variants/{index}", h.SetQuantity)
	mux.HandleFunc("POST /drafts/{id}/images", h.AddImage)
	mux.HandleFunc("POST /drafts/{id}/advance", h.Advance)
	mux.HandleFunc("POST /drafts/{id}/submit", h.SubmitCreate)
	return mux
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func openDraft(t *testing.T, mux *http.ServeMux) string {
	t.Helper()

	rec := doJSON(t, mux, http.MethodPost, "/drafts", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.ID)
	return resp.Data.ID
}

func fillDraft(t *testing.T, mux *http.ServeMux, id string) {
	t.Helper()

	rec := doJSON(t, mux, http.MethodPut, "/drafts/"+id+"/basic", map[string]interface{}{
		"name": "Kurta", "price": 1500,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, mux, http.MethodPut, "/drafts/"+id+"/selection", map[string]interface{}{
		"categoryIds": []string{"c1"},
		"colorIds":    []string{"col1"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, mux, http.MethodPatch, "/drafts/"+id+"/variants/0", map[string]int{"quantity": 5})
	require.Equal(t, http.StatusOK, rec.Code)

	uploadImage(t, mux, id, "front.jpg", "image/jpeg", http.StatusOK)
}

func uploadImage(t *testing.T, mux *http.ServeMux, id, filename, contentType string, wantStatus int) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("fake image bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/drafts/"+id+"/images", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, wantStatus, rec.Code, rec.Body.String())
}

func TestUnknownSessionIs404(t *testing.T) {
	t.Parallel()

	mux := newTestRouter(t, &stubProducts{})
	rec := doJSON(t, mux, http.MethodGet, "/drafts/nope", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImageUploadRejectsWrongType(t *testing.T) {
	t.Parallel()

	mux := newTestRouter(t, &stubProducts{})
	id := openDraft(t, mux)

	uploadImage(t, mux, id, "notes.txt", "text/plain", http.StatusBadRequest)
	uploadImage(t, mux, id, "photo.jpg", "image/jpeg", http.StatusOK)
}

func TestAdvanceBlockedReturns422(t *testing.T) {
	t.Parallel()

	mux := newTestRouter(t, &stubProducts{})
	id := openDraft(t, mux)

	rec := doJSON(t, mux, http.MethodPost, "/drafts/"+id+"/advance", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "violations"))
}

func TestSubmitCreateStatusMapping(t *testing.T) {
	t.Parallel()

	t.Run("invalid draft is 422", func(t *testing.T) {
		t.Parallel()
		mux := newTestRouter(t, &stubProducts{})
		id := openDraft(t, mux)

		rec := doJSON(t, mux, http.MethodPost, "/drafts/"+id+"/submit", nil)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("full success is 201", func(t *testing.T) {
		t.Parallel()
		mux := newTestRouter(t, &stubProducts{})
		id := openDraft(t, mux)
		fillDraft(t, mux, id)

		rec := doJSON(t, mux, http.MethodPost, "/drafts/"+id+"/submit", nil)
		require.Equal(t, http.StatusCreated, rec.Code)
		require.Contains(t, rec.Body.String(), `"outcome":"success"`)
	})

	t.Run("base failure is 502", func(t *testing.T) {
		t.Parallel()
		mux := newTestRouter(t, &stubProducts{createErr: errors.New("upstream down")})
		id := openDraft(t, mux)
		fillDraft(t, mux, id)

		rec := doJSON(t, mux, http.MethodPost, "/drafts/"+id+"/submit", nil)
		require.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("degraded create is 200", func(t *testing.T) {
		t.Parallel()
		mux := newTestRouter(t, &stubProducts{uploadErr: errors.New("r2 timeout")})
		id := openDraft(t, mux)
		fillDraft(t, mux, id)

		rec := doJSON(t, mux, http.MethodPost, "/drafts/"+id+"/submit", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"outcome":"degraded"`)
		require.Contains(t, rec.Body.String(), "created, but")
	})
}

func TestEventsTapAfterSuccessfulCreate(t *testing.T) {
	t.Parallel()

	mux := newTestRouter(t, &stubProducts{})
	id := openDraft(t, mux)
	fillDraft(t, mux, id)

	rec := doJSON(t, mux, http.MethodPost, "/drafts/"+id+"/submit", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, mux, http.MethodGet, "/events", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "catalog.changed")
	require.Contains(t, rec.Body.String(), "prod-1")
}
