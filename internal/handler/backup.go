package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/linkedin-lite/internal/auth"
	"github.com/sakif/linkedin-lite/internal/repository"
	"github.com/sakif/linkedin-lite/internal/service"
)

// BackupHandler downloads and restores the whole store as one JSON
// document.
type BackupHandler struct {
	backup *service.BackupService
	logger *slog.Logger
}

func NewBackupHandler(svc *service.BackupService, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{backup: svc, logger: logger}
}

// HandleExport returns a snapshot as an attachment.
//
// HTTP: GET /api/backup → 200 repository.Snapshot
func (h *BackupHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	snap, err := h.backup.Export(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	name := fmt.Sprintf("linkedin-lite-%s.json", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	writeJSON(w, http.StatusOK, snap)
}

// HandleImport replaces all data with the uploaded snapshot. Everyone is
// logged out afterwards, so the caller's cookie is cleared too.
//
// HTTP: PUT /api/backup → 204
func (h *BackupHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	var snap repository.Snapshot
	if err := decodeJSON(w, r, &snap); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.backup.Import(r.Context(), snap); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	me, _ := auth.UserFromContext(r.Context())
	h.logger.Info("backup restored", slog.Int64("byUserID", me.ID))
	http.SetCookie(w, &http.Cookie{Name: auth.CookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	w.WriteHeader(http.StatusNoContent)
}
