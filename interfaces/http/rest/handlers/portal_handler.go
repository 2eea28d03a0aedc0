package handlers

import (
	"net/http"
	"time"

	"eternals-backend/application/services"
	"eternals-backend/domain/core/valueobjects"
	"eternals-backend/pkg/common"
	pkgerrors "eternals-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// PortalHandler serves the client portal: projects, invoices and messages
type PortalHandler struct {
	portal *services.PortalService
	errs   *pkgerrors.ErrorHandler
	logger *zap.Logger
}

// NewPortalHandler creates a new portal handler
func NewPortalHandler(portal *services.PortalService, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *PortalHandler {
	return &PortalHandler{portal: portal, errs: errs, logger: logger}
}

// CreateProjectRequest represents the request body for creating a project
type CreateProjectRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=5000"`
	ClientID    string     `json:"client_id" validate:"required"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// CreateInvoiceRequest represents the request body for billing a project
type CreateInvoiceRequest struct {
	ProjectID   string             `json:"project_id" validate:"required"`
	Amount      valueobjects.Money `json:"amount"`
	Description string             `json:"description" validate:"max=2000"`
	DueDate     *time.Time         `json:"due_date,omitempty"`
}

// PostMessageRequest represents the request body for a project message
type PostMessageRequest struct {
	ProjectID string `json:"project_id" validate:"required"`
	Content   string `json:"content" validate:"required,max=5000"`
}

// CreateProject handles POST /api/projects
func (h *PortalHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := decodeRequest(w, r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	project, err := h.portal.CreateProject(r.Context(), callerFrom(r), services.CreateProjectInput{
		Title:       req.Title,
		Description: req.Description,
		ClientID:    req.ClientID,
		DueDate:     req.DueDate,
	})
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, project)
}

// ListProjects handles GET /api/projects
func (h *PortalHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.portal.ListProjects(r.Context(), callerFrom(r))
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondList(w, projects)
}

// GetProject handles GET /api/projects/{projectID}
func (h *PortalHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.portal.GetProject(r.Context(), callerFrom(r), chi.URLParam(r, "projectID"))
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, project)
}

// CreateInvoice handles POST /api/invoices
func (h *PortalHandler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req CreateInvoiceRequest
	if err := decodeRequest(w, r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	invoice, err := h.portal.CreateInvoice(r.Context(), callerFrom(r), services.CreateInvoiceInput{
		ProjectID:   req.ProjectID,
		Amount:      req.Amount,
		Description: req.Description,
		DueDate:     req.DueDate,
	})
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, invoice)
}

// ListInvoices handles GET /api/invoices
func (h *PortalHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.portal.ListInvoices(r.Context(), callerFrom(r))
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondList(w, invoices)
}

// PayInvoice handles POST /api/invoices/{invoiceID}/pay
func (h *PortalHandler) PayInvoice(w http.ResponseWriter, r *http.Request) {
	invoice, err := h.portal.PayInvoice(r.Context(), callerFrom(r), chi.URLParam(r, "invoiceID"))
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, invoice)
}

// PostMessage handles POST /api/messages
func (h *PortalHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req PostMessageRequest
	if err := decodeRequest(w, r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	message, err := h.portal.PostMessage(r.Context(), callerFrom(r), req.ProjectID, req.Content)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, message)
}

// ListMessages handles GET /api/messages/{projectID}
func (h *PortalHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.portal.ListMessages(r.Context(), callerFrom(r), chi.URLParam(r, "projectID"))
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondList(w, messages)
}
