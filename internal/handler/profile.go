package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/linkedin-lite/internal/auth"
	"github.com/sakif/linkedin-lite/internal/service"
)

// ProfileHandler serves profile pages and profile edits.
type ProfileHandler struct {
	profiles *service.ProfileService
	logger   *slog.Logger
}

func NewProfileHandler(svc *service.ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: svc, logger: logger}
}

type updateProfileRequest struct {
	Name          string `json:"name"`
	Headline      string `json:"headline"`
	Bio           string `json:"bio"`
	ProfilePicURL string `json:"profilePicURL"`
}

// HandleGet returns a user's profile and post count.
//
// HTTP: GET /api/users/{id} → 200 service.ProfileView
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	view, err := h.profiles.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleUpdate edits the current user's profile. Omitting profilePicURL
// keeps the current picture.
//
// HTTP: PUT /api/profile → 200 model.Profile
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	me, _ := auth.UserFromContext(r.Context())
	u, err := h.profiles.UpdateProfile(r.Context(), me.ID, service.ProfileUpdate(req))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, u.Profile())
}
