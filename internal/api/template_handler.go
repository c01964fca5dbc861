package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/opsgrove/helpdesk-api/internal/api/shared"
	"github.com/opsgrove/helpdesk-api/internal/domain"
	"github.com/opsgrove/helpdesk-api/internal/schedule"
	"github.com/opsgrove/helpdesk-api/internal/store"
)

// CreateTemplateRequest represents the request body for creating a recurring template
type CreateTemplateRequest struct {
	Name           string          `json:"name"            validate:"required,min=1,max=200"`
	CronExpression string          `json:"cron_expression" validate:"required"`
	Title          string          `json:"title"           validate:"required,min=1,max=500"`
	Description    string          `json:"description"`
	Priority       string          `json:"priority"        validate:"required,oneof=low medium high urgent"`
	Assignee       string          `json:"assignee"        validate:"required,min=1"`
	Attributes     json.RawMessage `json:"attributes,omitempty"`
}

// UpdateTemplateRequest represents the request body for replacing a template's
// administrative fields. The generation watermarks are owned by the scheduler
// and cannot be set through the API.
type UpdateTemplateRequest struct {
	Name           string          `json:"name"            validate:"required,min=1,max=200"`
	CronExpression string          `json:"cron_expression" validate:"required"`
	Title          string          `json:"title"           validate:"required,min=1,max=500"`
	Description    string          `json:"description"`
	Priority       string          `json:"priority"        validate:"required,oneof=low medium high urgent"`
	Assignee       string          `json:"assignee"        validate:"required,min=1"`
	Attributes     json.RawMessage `json:"attributes,omitempty"`
	Enabled        *bool           `json:"enabled"         validate:"required"`
}

// TemplateResponse represents the response data for a recurring template
type TemplateResponse struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	CronExpression   string          `json:"cron_expression"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Priority         string          `json:"priority"`
	Assignee         string          `json:"assignee"`
	Attributes       json.RawMessage `json:"attributes,omitempty"`
	Enabled          bool            `json:"enabled"`
	LastGeneratedAt  *time.Time      `json:"last_generated_at,omitempty"`
	NextGenerationAt *time.Time      `json:"next_generation_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// GenerateResponse represents the response data for a manual generation
type GenerateResponse struct {
	TemplateID       string    `json:"template_id"`
	TicketID         string    `json:"ticket_id"`
	NextGenerationAt time.Time `json:"next_generation_at"`
}

// GenerationRecordResponse represents one entry of a template's audit trail
type GenerationRecordResponse struct {
	ID          string    `json:"id"`
	TemplateID  string    `json:"template_id"`
	TicketID    string    `json:"ticket_id"`
	Trigger     string    `json:"trigger"`
	GeneratedAt time.Time `json:"generated_at"`
}

// TemplateHandler handles recurring-template HTTP requests, including the
// manual generation trigger and the generation audit trail.
type TemplateHandler struct {
	templates    store.TemplateStore
	generations  store.GenerationLogStore
	materializer *schedule.Materializer
	evaluator    *schedule.Evaluator
	logger       *slog.Logger
	now          func() time.Time
}

// NewTemplateHandler creates a new TemplateHandler
func NewTemplateHandler(
	templates store.TemplateStore,
	generations store.GenerationLogStore,
	materializer *schedule.Materializer,
	evaluator *schedule.Evaluator,
	logger *slog.Logger,
) *TemplateHandler {
	return &TemplateHandler{
		templates:    templates,
		generations:  generations,
		materializer: materializer,
		evaluator:    evaluator,
		logger:       logger,
		now:          time.Now,
	}
}

// CreateTemplate handles POST /api/templates requests
func (h *TemplateHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req CreateTemplateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	// Reject unparseable cron expressions up front so the scheduler's
	// fallback path never has to deal with a template that was born broken.
	if err := h.evaluator.ValidateExpression(req.CronExpression); err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	template, err := domain.NewRecurringTemplate(req.Name, req.CronExpression, domain.TemplateFields{
		Title:       req.Title,
		Description: req.Description,
		Priority:    domain.TicketPriority(req.Priority),
		Assignee:    req.Assignee,
		Attributes:  req.Attributes,
	})
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if err := h.templates.Create(r.Context(), template); err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	h.logger.Info("created recurring template",
		"template_id", template.ID,
		"name", template.Name,
		"cron_expression", template.CronExpression)

	shared.RespondWithJSON(w, r, http.StatusCreated, templateToResponse(template))
}

// ListTemplates handles GET /api/templates requests
func (h *TemplateHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.templates.List(r.Context())
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	responses := make([]TemplateResponse, 0, len(templates))
	for _, tpl := range templates {
		responses = append(responses, templateToResponse(tpl))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// GetTemplate handles GET /api/templates/{id} requests
func (h *TemplateHandler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := templateIDFromURL(w, r)
	if !ok {
		return
	}

	template, err := h.templates.GetByID(r.Context(), id)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, templateToResponse(template))
}

// UpdateTemplate handles PUT /api/templates/{id} requests
func (h *TemplateHandler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := templateIDFromURL(w, r)
	if !ok {
		return
	}

	var req UpdateTemplateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if err := h.evaluator.ValidateExpression(req.CronExpression); err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	template, err := h.templates.GetByID(r.Context(), id)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	template.Name = req.Name
	template.CronExpression = req.CronExpression
	template.Fields = domain.TemplateFields{
		Title:       req.Title,
		Description: req.Description,
		Priority:    domain.TicketPriority(req.Priority),
		Assignee:    req.Assignee,
		Attributes:  req.Attributes,
	}
	template.Enabled = *req.Enabled
	template.UpdatedAt = h.now().UTC()

	if err := template.Validate(); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if err := h.templates.Update(r.Context(), template); err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	h.logger.Info("updated recurring template",
		"template_id", template.ID,
		"name", template.Name,
		"enabled", template.Enabled)

	shared.RespondWithJSON(w, r, http.StatusOK, templateToResponse(template))
}

// DeleteTemplate handles DELETE /api/templates/{id} requests.
// Tickets already generated from the template are untouched.
func (h *TemplateHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := templateIDFromURL(w, r)
	if !ok {
		return
	}

	if err := h.templates.Delete(r.Context(), id); err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	h.logger.Info("deleted recurring template", "template_id", id)

	w.WriteHeader(http.StatusNoContent)
}

// GenerateNow handles POST /api/templates/{id}/generate requests. It runs one
// materialization for the template immediately, regardless of its schedule or
// enabled flag, and records the generation with a manual trigger. The
// template's schedule advances exactly as it would on a scheduler tick.
func (h *TemplateHandler) GenerateNow(w http.ResponseWriter, r *http.Request) {
	id, ok := templateIDFromURL(w, r)
	if !ok {
		return
	}

	template, err := h.templates.GetByID(r.Context(), id)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	result := h.materializer.Materialize(r.Context(), template, h.now().UTC(), domain.TriggerManual)
	if result.Err != nil {
		RespondWithMappedError(w, r, result.Err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, GenerateResponse{
		TemplateID:       result.TemplateID.String(),
		TicketID:         result.TicketID.String(),
		NextGenerationAt: result.NextAt,
	})
}

// ListGenerations handles GET /api/templates/{id}/generations requests
func (h *TemplateHandler) ListGenerations(w http.ResponseWriter, r *http.Request) {
	id, ok := templateIDFromURL(w, r)
	if !ok {
		return
	}

	// Look the template up first so a missing template is a 404 rather than
	// an empty audit trail.
	if _, err := h.templates.GetByID(r.Context(), id); err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	records, err := h.generations.ListByTemplate(r.Context(), id)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	responses := make([]GenerationRecordResponse, 0, len(records))
	for _, rec := range records {
		responses = append(responses, GenerationRecordResponse{
			ID:          rec.ID.String(),
			TemplateID:  rec.TemplateID.String(),
			TicketID:    rec.TicketID.String(),
			Trigger:     string(rec.Trigger),
			GeneratedAt: rec.GeneratedAt,
		})
	}

	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// templateIDFromURL extracts and parses the {id} URL parameter, writing a
// 400 response and returning ok=false when it is not a valid UUID.
func templateIDFromURL(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid template ID")
		return uuid.Nil, false
	}
	return id, true
}

// templateToResponse converts a domain.RecurringTemplate to a TemplateResponse
func templateToResponse(tpl *domain.RecurringTemplate) TemplateResponse {
	return TemplateResponse{
		ID:               tpl.ID.String(),
		Name:             tpl.Name,
		CronExpression:   tpl.CronExpression,
		Title:            tpl.Fields.Title,
		Description:      tpl.Fields.Description,
		Priority:         string(tpl.Fields.Priority),
		Assignee:         tpl.Fields.Assignee,
		Attributes:       tpl.Fields.Attributes,
		Enabled:          tpl.Enabled,
		LastGeneratedAt:  tpl.LastGeneratedAt,
		NextGenerationAt: tpl.NextGenerationAt,
		CreatedAt:        tpl.CreatedAt,
		UpdatedAt:        tpl.UpdatedAt,
	}
}
