package v1

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"poshak-admin-backend/internal/domain"
	"poshak-admin-backend/internal/usecase"
	"poshak-admin-backend/pkg/utils"

	"github.com/goccy/go-json"
)

var (
	allowedMimeTypes = map[string]bool{
		"image/jpeg": true,
		"image/jpg":  true,
		"image/png":  true,
		"image/webp": true,
		"image/gif":  true,
	}
	allowedExtensions = map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".webp": true,
		".gif":  true,
	}
)

// AdminDraftHandler exposes the draft session lifecycle and the staged
// submission endpoints to the admin UI.
type AdminDraftHandler struct {
	drafts        *usecase.DraftUsecase
	submission    *usecase.SubmissionUsecase
	maxUploadSize int64
}

func NewAdminDraftHandler(drafts *usecase.DraftUsecase, submission *usecase.SubmissionUsecase, maxUploadSizeMB int64) *AdminDraftHandler {
	return &AdminDraftHandler{
		drafts:        drafts,
		submission:    submission,
		maxUploadSize: maxUploadSizeMB << 20, // Convert MB to bytes
	}
}

func (h *AdminDraftHandler) writeDraftError(w http.ResponseWriter, err error) {
	if errors.Is(err, usecase.ErrSessionNotFound) {
		utils.WriteFail(w, http.StatusNotFound, "Draft session not found or expired")
		return
	}
	utils.WriteFail(w, http.StatusBadRequest, err.Error())
}

// writeSubmission maps a pipeline result onto an HTTP status. Degraded
// runs are 200s: the base record exists and the client must not retry it.
func (h *AdminDraftHandler) writeSubmission(w http.ResponseWriter, result domain.SubmissionResult, createdStatus int) {
	body := map[string]interface{}{
		"success": result.Outcome == domain.OutcomeSuccess || result.Outcome == domain.OutcomeDegraded,
		"message": result.Message(),
		"data":    result,
	}
	switch result.Outcome {
	case domain.OutcomeInvalid:
		utils.WriteJSON(w, http.StatusUnprocessableEntity, body)
	case domain.OutcomeFailed:
		utils.WriteJSON(w, http.StatusBadGateway, body)
	case domain.OutcomeSuccess:
		utils.WriteJSON(w, createdStatus, body)
	default:
		utils.WriteJSON(w, http.StatusOK, body)
	}
}

func (h *AdminDraftHandler) OpenCreate(w http.ResponseWriter, r *http.Request) {
	session := h.drafts.OpenCreate()
	view, err := h.drafts.Snapshot(session.ID)
	if err != nil {
		h.writeDraftError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, view)
}

func (h *AdminDraftHandler) OpenEdit(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("productId")
	if productID == "" {
		utils.WriteFail(w, http.StatusBadRequest, "Product ID is required")
		return
	}

	session, err := h.drafts.OpenEdit(r.Context(), productID)
	if err != nil {
		utils.WriteFail(w, http.StatusBadGateway, "Failed to load product for editing")
		return
	}
	view, err := h.drafts.Snapshot(session.ID)
	if err != nil {
		h.writeDraftError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, view)
}

func (h *AdminDraftHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	view, err := h.drafts.Snapshot(r.PathValue("id"))
	if err != nil {
		h.writeDraftError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, view)
}

func (h *AdminDraftHandler) Discard(w http.ResponseWriter, r *http.Request) {
	h.drafts.Discard(r.PathValue("id"))
	utils.WriteSuccess(w, http.StatusOK, map[string]string{"status": "discarded"})
}

func (h *AdminDraftHandler) SetBasicInfo(w http.ResponseWriter, r *http.Request) {
	var in usecase.BasicInfoInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.WriteFail(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if err := h.drafts.SetBasicInfo(r.PathValue("id"), in); err != nil {
		h.writeDraftError(w, err)
		return
	}
	h.GetDraft(w, r)
}

func (h *AdminDraftHandler) SetSelection(w http.ResponseWriter, r *http.Request) {
	var in usecase.SelectionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.WriteFail(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if err := h.drafts.SetSelection(r.Context(), r.PathValue("id"), in); err != nil {
		h.writeDraftError(w, err)
		return
	}
	h.GetDraft(w, r)
}

func (h *AdminDraftHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	index := utils.ParseInt(r.PathValue("index"), -1)
	if index < 0 {
		utils.WriteFail(w, http.StatusBadRequest, "Invalid variant index")
		return
	}

	var in struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.WriteFail(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if err := h.drafts.SetQuantity(r.PathValue("id"), index, in.Quantity); err != nil {
		h.writeDraftError(w, err)
		return
	}
	h.GetDraft(w, r)
}

func (h *AdminDraftHandler) AddImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		utils.WriteFail(w, http.StatusBadRequest, "File too large or invalid format")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		utils.WriteFail(w, http.StatusBadRequest, "Invalid file")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedMimeTypes[contentType] {
		utils.WriteFail(w, http.StatusBadRequest, "Invalid file type. Allowed: JPEG, PNG, WebP, GIF")
		return
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		utils.WriteFail(w, http.StatusBadRequest, "Invalid file extension")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		utils.WriteFail(w, http.StatusBadRequest, "Failed to read file")
		return
	}

	img := domain.PendingImage{
		Filename:    header.Filename,
		ContentType: contentType,
		Data:        data,
	}
	if err := h.drafts.AddImage(r.PathValue("id"), img); err != nil {
		h.writeDraftError(w, err)
		return
	}
	h.GetDraft(w, r)
}

func (h *AdminDraftHandler) RemoveImage(w http.ResponseWriter, r *http.Request) {
	index := utils.ParseInt(r.PathValue("index"), -1)
	if index < 0 {
		utils.WriteFail(w, http.StatusBadRequest, "Invalid image index")
		return
	}
	if err := h.drafts.RemoveImage(r.PathValue("id"), index); err != nil {
		h.writeDraftError(w, err)
		return
	}
	h.GetDraft(w, r)
}

// Validate runs the draft's rules without side effects. scope=stage1
// checks only what gates the variants tab; the default checks everything
// submission would check.
func (h *AdminDraftHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var (
		violations []domain.ValidationError
		err        error
	)
	switch r.URL.Query().Get("scope") {
	case "stage1":
		violations, err = h.drafts.ValidateStage1(r.PathValue("id"))
	default:
		violations, err = h.drafts.ValidateFull(r.PathValue("id"))
	}
	if err != nil {
		h.writeDraftError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"valid":      len(violations) == 0,
		"violations": violations,
	})
}

func (h *AdminDraftHandler) Advance(w http.ResponseWriter, r *http.Request) {
	violations, err := h.drafts.Advance(r.PathValue("id"))
	if err != nil {
		h.writeDraftError(w, err)
		return
	}
	if len(violations) > 0 {
		utils.WriteJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"success": false,
			"message": violations[0].Error(),
			"data":    map[string]interface{}{"violations": violations},
		})
		return
	}
	h.GetDraft(w, r)
}

func (h *AdminDraftHandler) Back(w http.ResponseWriter, r *http.Request) {
	if err := h.drafts.Back(r.PathValue("id")); err != nil {
		h.writeDraftError(w, err)
		return
	}
	h.GetDraft(w, r)
}

func (h *AdminDraftHandler) SubmitCreate(w http.ResponseWriter, r *http.Request) {
	result, err := h.submission.SubmitCreate(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeDraftError(w, err)
		return
	}
	h.writeSubmission(w, result, http.StatusCreated)
}

func (h *AdminDraftHandler) SubmitBasicInfo(w http.ResponseWriter, r *http.Request) {
	result, err := h.submission.SubmitBasicInfo(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeDraftError(w, err)
		return
	}
	h.writeSubmission(w, result, http.StatusOK)
}

func (h *AdminDraftHandler) SubmitMedia(w http.ResponseWriter, r *http.Request) {
	result, err := h.submission.SubmitMedia(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeDraftError(w, err)
		return
	}
	h.writeSubmission(w, result, http.StatusOK)
}

func (h *AdminDraftHandler) SubmitVariants(w http.ResponseWriter, r *http.Request) {
	result, err := h.submission.SubmitVariants(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeDraftError(w, err)
		return
	}
	h.writeSubmission(w, result, http.StatusOK)
}
