package handlers

import (
	"net/http"

	"eternals-backend/application/services"
	"eternals-backend/pkg/common"
	pkgerrors "eternals-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ContentHandler serves site content, testimonials and the home page counters
type ContentHandler struct {
	content *services.ContentService
	errs    *pkgerrors.ErrorHandler
	logger  *zap.Logger
}

// NewContentHandler creates a new content handler
func NewContentHandler(content *services.ContentService, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *ContentHandler {
	return &ContentHandler{content: content, errs: errs, logger: logger}
}

// UpsertSectionRequest represents the request body for editing a section
type UpsertSectionRequest struct {
	Page    string                 `json:"page" validate:"max=100"`
	Content map[string]interface{} `json:"content" validate:"required"`
}

// TestimonialRequest represents a public testimonial submission
type TestimonialRequest struct {
	ClientName   string   `json:"client_name" validate:"required,max=100"`
	ClientRole   string   `json:"client_role" validate:"max=100"`
	ClientAvatar string   `json:"client_avatar" validate:"omitempty,url"`
	Rating       int      `json:"rating" validate:"omitempty,min=1,max=5"`
	Title        string   `json:"title" validate:"required,max=200"`
	Content      string   `json:"content" validate:"required,max=5000"`
	Highlights   []string `json:"highlights" validate:"omitempty,max=10,dive,max=200"`
}

// UpdateCounterStatsRequest represents the editable part of the counters
type UpdateCounterStatsRequest struct {
	SupportAvailable string `json:"support_available" validate:"required,max=50"`
}

// ListSections handles GET /api/content
func (h *ContentHandler) ListSections(w http.ResponseWriter, r *http.Request) {
	sections, err := h.content.ListSections(r.Context())
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondList(w, sections)
}

// GetSection handles GET /api/content/{name}
func (h *ContentHandler) GetSection(w http.ResponseWriter, r *http.Request) {
	section, err := h.content.GetSection(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, section)
}

// UpsertSection handles PUT /api/content/{name}
func (h *ContentHandler) UpsertSection(w http.ResponseWriter, r *http.Request) {
	var req UpsertSectionRequest
	if err := decodeRequest(w, r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	section, err := h.content.UpsertSection(r.Context(), callerFrom(r), chi.URLParam(r, "name"), req.Page, req.Content)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, section)
}

// ListTestimonials handles GET /api/testimonials
func (h *ContentHandler) ListTestimonials(w http.ResponseWriter, r *http.Request) {
	h.listTestimonials(w, r, false)
}

// ListAllTestimonials handles GET /api/admin/testimonials
func (h *ContentHandler) ListAllTestimonials(w http.ResponseWriter, r *http.Request) {
	h.listTestimonials(w, r, true)
}

func (h *ContentHandler) listTestimonials(w http.ResponseWriter, r *http.Request, includePending bool) {
	testimonials, err := h.content.ListTestimonials(r.Context(), callerFrom(r), includePending)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondList(w, testimonials)
}

// SubmitTestimonial handles POST /api/testimonials
func (h *ContentHandler) SubmitTestimonial(w http.ResponseWriter, r *http.Request) {
	var req TestimonialRequest
	if err := decodeRequest(w, r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	testimonial, err := h.content.SubmitTestimonial(r.Context(), services.TestimonialInput{
		ClientName:   req.ClientName,
		ClientRole:   req.ClientRole,
		ClientAvatar: req.ClientAvatar,
		Rating:       req.Rating,
		Title:        req.Title,
		Content:      req.Content,
		Highlights:   req.Highlights,
	})
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, testimonial)
}

// ApproveTestimonial handles PUT /api/testimonials/{id}/approve
func (h *ContentHandler) ApproveTestimonial(w http.ResponseWriter, r *http.Request) {
	testimonial, err := h.content.ApproveTestimonial(r.Context(), callerFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, testimonial)
}

// DeleteTestimonial handles DELETE /api/testimonials/{id}
func (h *ContentHandler) DeleteTestimonial(w http.ResponseWriter, r *http.Request) {
	if err := h.content.DeleteTestimonial(r.Context(), callerFrom(r), chi.URLParam(r, "id")); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondNoContent(w)
}

// CounterStats handles GET /api/counter-stats
func (h *ContentHandler) CounterStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.content.CounterStats(r.Context())
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, stats)
}

// UpdateCounterStats handles PUT /api/counter-stats
func (h *ContentHandler) UpdateCounterStats(w http.ResponseWriter, r *http.Request) {
	var req UpdateCounterStatsRequest
	if err := decodeRequest(w, r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	stats, err := h.content.UpdateCounterStats(r.Context(), callerFrom(r), req.SupportAvailable)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, stats)
}
