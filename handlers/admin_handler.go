package handlers

import (
	"net/http"

	"github.com/Dosada05/conference-tickets/services"
)

// AdminHandler — development-обвязка. Сброс базы доступен только когда
// приложение запущено в dev-режиме.
type AdminHandler struct {
	queryService *services.QueryService
	devMode      bool
}

func NewAdminHandler(qs *services.QueryService, devMode bool) *AdminHandler {
	return &AdminHandler{queryService: qs, devMode: devMode}
}

// ResetDB — POST /api/reset-db. DEVELOPMENT ONLY.
func (h *AdminHandler) ResetDB(w http.ResponseWriter, r *http.Request) {
	if !h.devMode {
		errorResponse(w, r, http.StatusForbidden, "Not available in production")
		return
	}

	if err := h.queryService.Reset(r.Context()); err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	response := jsonResponse{"message": "Database reset successfully"}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
