package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/conference-tickets/services"
)

type RegistrationHandler struct {
	registrationService *services.RegistrationService
	maxUploadBytes      int64
}

func NewRegistrationHandler(rs *services.RegistrationService, maxUploadBytes int64) *RegistrationHandler {
	return &RegistrationHandler{
		registrationService: rs,
		maxUploadBytes:      maxUploadBytes,
	}
}

// Register — POST /api/register.
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegistrationInput
	if err := readJSON(w, r, h.maxUploadBytes, &input); err != nil {
		if errors.Is(err, errRequestTooLarge) {
			requestTooLargeResponse(w, r)
			return
		}
		badRequestResponse(w, r, err)
		return
	}

	participant, err := h.registrationService.Register(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"success":     true,
		"message":     "Registration successful",
		"ticket_id":   participant.TicketID,
		"participant": participant,
	}

	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
