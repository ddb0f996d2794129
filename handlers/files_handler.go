package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/conference-tickets/storage"
)

// FilesHandler раздаёт файлы аватаров и QR-кодов через FileStorage, так что
// оба бэкенда (локальный и R2) обслуживаются одинаково.
type FilesHandler struct {
	files storage.FileStorage
}

func NewFilesHandler(files storage.FileStorage) *FilesHandler {
	return &FilesHandler{files: files}
}

// Avatar — GET /uploads/{filename}.
func (h *FilesHandler) Avatar(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, storage.AreaAvatars)
}

// QRCode — GET /qr_codes/{filename}.
func (h *FilesHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, storage.AreaQRCodes)
}

func (h *FilesHandler) serve(w http.ResponseWriter, r *http.Request, area storage.Area) {
	filename := chi.URLParam(r, "filename")

	data, contentType, err := h.files.Open(r.Context(), area, filename)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			notFoundResponse(w, r)
			return
		}
		serverErrorResponse(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		return
	}
}
