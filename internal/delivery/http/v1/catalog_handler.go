package v1

import (
	"net/http"

	"poshak-admin-backend/internal/infrastructure/events"
	"poshak-admin-backend/internal/usecase"
	"poshak-admin-backend/pkg/utils"
)

// CatalogHandler serves the reference lists the draft editor selects from.
type CatalogHandler struct {
	catalogUC *usecase.CatalogUsecase
	bus       *events.Bus
}

func NewCatalogHandler(uc *usecase.CatalogUsecase, bus *events.Bus) *CatalogHandler {
	return &CatalogHandler{catalogUC: uc, bus: bus}
}

func (h *CatalogHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.catalogUC.GetCategories(r.Context())
	if err != nil {
		utils.WriteFail(w, http.StatusBadGateway, "Failed to load categories")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, cats)
}

func (h *CatalogHandler) GetColors(w http.ResponseWriter, r *http.Request) {
	colors, err := h.catalogUC.GetColors(r.Context())
	if err != nil {
		utils.WriteFail(w, http.StatusBadGateway, "Failed to load colors")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, colors)
}

func (h *CatalogHandler) GetSizes(w http.ResponseWriter, r *http.Request) {
	sizes, err := h.catalogUC.GetSizes(r.Context())
	if err != nil {
		utils.WriteFail(w, http.StatusBadGateway, "Failed to load sizes")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, sizes)
}

// GetEvents exposes the recent change feed so list views can decide
// whether their data is stale without polling the full catalog.
func (h *CatalogHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	limit := utils.ParseInt(r.URL.Query().Get("limit"), 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	utils.WriteSuccess(w, http.StatusOK, h.bus.Recent(limit))
}
