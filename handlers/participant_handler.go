package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/conference-tickets/services"
)

type ParticipantHandler struct {
	queryService *services.QueryService
}

func NewParticipantHandler(qs *services.QueryService) *ParticipantHandler {
	return &ParticipantHandler{queryService: qs}
}

// List — GET /api/participants?page&per_page&search.
func (h *ParticipantHandler) List(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 20)
	search := r.URL.Query().Get("search")

	result, err := h.queryService.List(r.Context(), page, perPage, search)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	response := jsonResponse{
		"participants": result.Participants,
		"total":        result.Total,
		"pages":        result.Pages,
		"current_page": result.Page,
		"per_page":     result.PerPage,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Stats — GET /api/stats.
func (h *ParticipantHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.queryService.Stats(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	response := jsonResponse{
		"total_participants":  stats.Total,
		"today_registrations": stats.Today,
		"week_registrations":  stats.Week,
		"last_updated":        stats.AsOf.Format(time.RFC3339),
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Verify — GET /api/verify/{ticket_id}. Ненайденный билет — валидный
// отрицательный ответ 404 {valid: false}, не серверная ошибка.
func (h *ParticipantHandler) Verify(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticket_id")

	participant, err := h.queryService.Verify(r.Context(), ticketID)
	if err != nil {
		if errors.Is(err, services.ErrTicketNotFound) {
			response := jsonResponse{
				"valid":   false,
				"message": services.ErrTicketNotFound.Error(),
			}
			if writeErr := writeJSON(w, http.StatusNotFound, response, nil); writeErr != nil {
				serverErrorResponse(w, r, writeErr)
			}
			return
		}
		serverErrorResponse(w, r, err)
		return
	}

	response := jsonResponse{
		"valid":       true,
		"participant": participant,
		"verified_at": time.Now().UTC().Format(time.RFC3339),
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
