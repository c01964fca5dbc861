package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/opsgrove/helpdesk-api/internal/api/shared"
	"github.com/opsgrove/helpdesk-api/internal/domain"
	"github.com/opsgrove/helpdesk-api/internal/store"
)

// CreateTicketRequest represents the request body for creating a ticket
type CreateTicketRequest struct {
	Title       string          `json:"title"       validate:"required,min=1,max=500"`
	Description string          `json:"description"`
	Priority    string          `json:"priority"    validate:"required,oneof=low medium high urgent"`
	Creator     string          `json:"creator"     validate:"required,min=1"`
	Assignee    string          `json:"assignee"`
	Attributes  json.RawMessage `json:"attributes,omitempty"`
}

// UpdateTicketStatusRequest represents the request body for a status change
type UpdateTicketStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open in_progress resolved closed"`
}

// TicketResponse represents the response data for a ticket
type TicketResponse struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Priority    string          `json:"priority"`
	Status      string          `json:"status"`
	Creator     string          `json:"creator"`
	Assignee    string          `json:"assignee,omitempty"`
	TemplateID  string          `json:"template_id,omitempty"`
	Attributes  json.RawMessage `json:"attributes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TicketHandler handles ticket-related HTTP requests
type TicketHandler struct {
	tickets store.TicketStore
	logger  *slog.Logger
}

// NewTicketHandler creates a new TicketHandler
func NewTicketHandler(tickets store.TicketStore, logger *slog.Logger) *TicketHandler {
	return &TicketHandler{
		tickets: tickets,
		logger:  logger,
	}
}

// CreateTicket handles POST /api/tickets requests
func (h *TicketHandler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	var req CreateTicketRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	ticket, err := domain.NewTicket(
		req.Title,
		req.Description,
		domain.TicketPriority(req.Priority),
		req.Creator,
		req.Assignee,
	)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	ticket.Attributes = req.Attributes

	if err := h.tickets.Create(r.Context(), ticket); err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	h.logger.Info("created ticket", "ticket_id", ticket.ID, "priority", ticket.Priority)

	shared.RespondWithJSON(w, r, http.StatusCreated, ticketToResponse(ticket))
}

// ListTickets handles GET /api/tickets requests. Supports the optional query
// parameters status, template_id, limit and offset.
func (h *TicketHandler) ListTickets(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptionsFromQuery(r)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	tickets, err := h.tickets.List(r.Context(), opts)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	responses := make([]TicketResponse, 0, len(tickets))
	for _, ticket := range tickets {
		responses = append(responses, ticketToResponse(ticket))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// GetTicket handles GET /api/tickets/{id} requests
func (h *TicketHandler) GetTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := ticketIDFromURL(w, r)
	if !ok {
		return
	}

	ticket, err := h.tickets.GetByID(r.Context(), id)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ticketToResponse(ticket))
}

// UpdateTicketStatus handles PATCH /api/tickets/{id}/status requests
func (h *TicketHandler) UpdateTicketStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := ticketIDFromURL(w, r)
	if !ok {
		return
	}

	var req UpdateTicketStatusRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if err := h.tickets.UpdateStatus(r.Context(), id, domain.TicketStatus(req.Status)); err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	h.logger.Info("updated ticket status", "ticket_id", id, "status", req.Status)

	ticket, err := h.tickets.GetByID(r.Context(), id)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ticketToResponse(ticket))
}

// DeleteTicket handles DELETE /api/tickets/{id} requests. Generation audit
// records referencing the ticket survive the deletion.
func (h *TicketHandler) DeleteTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := ticketIDFromURL(w, r)
	if !ok {
		return
	}

	if err := h.tickets.Delete(r.Context(), id); err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	h.logger.Info("deleted ticket", "ticket_id", id)

	w.WriteHeader(http.StatusNoContent)
}

// listOptionsFromQuery builds ListTicketsOptions from the request's query
// string. Unknown status values and malformed UUIDs are rejected rather than
// silently matching nothing.
func listOptionsFromQuery(r *http.Request) (store.ListTicketsOptions, error) {
	var opts store.ListTicketsOptions
	q := r.URL.Query()

	if status := q.Get("status"); status != "" {
		if !domain.TicketStatus(status).IsValid() {
			return opts, errInvalidQuery("status")
		}
		opts.Status = domain.TicketStatus(status)
	}

	if raw := q.Get("template_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return opts, errInvalidQuery("template_id")
		}
		opts.TemplateID = id
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return opts, errInvalidQuery("limit")
		}
		opts.Limit = limit
	}

	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return opts, errInvalidQuery("offset")
		}
		opts.Offset = offset
	}

	return opts, nil
}

func errInvalidQuery(param string) error {
	return fmt.Errorf("invalid query parameter: %s", param)
}

// ticketIDFromURL extracts and parses the {id} URL parameter, writing a
// 400 response and returning ok=false when it is not a valid UUID.
func ticketIDFromURL(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid ticket ID")
		return uuid.Nil, false
	}
	return id, true
}

// ticketToResponse converts a domain.Ticket to a TicketResponse
func ticketToResponse(ticket *domain.Ticket) TicketResponse {
	resp := TicketResponse{
		ID:          ticket.ID.String(),
		Title:       ticket.Title,
		Description: ticket.Description,
		Priority:    string(ticket.Priority),
		Status:      string(ticket.Status),
		Creator:     ticket.Creator,
		Assignee:    ticket.Assignee,
		Attributes:  ticket.Attributes,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
	if ticket.TemplateID != uuid.Nil {
		resp.TemplateID = ticket.TemplateID.String()
	}
	return resp
}
