package notify

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/labbuddy/platform/pkg/common/errs"
	"github.com/labbuddy/platform/pkg/common/logger"
	"github.com/labbuddy/platform/pkg/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/notifications", h.handleList).Methods(http.MethodGet)
	r.HandleFunc("/notifications/unread-count", h.handleUnreadCount).Methods(http.MethodGet)
	r.HandleFunc("/notifications/{id}/read", h.handleMarkRead).Methods(http.MethodPost)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	notifications, err := h.service.ListForUser(r.Context(), user.ID, parseSkip(r), parseLimit(r))
	if err != nil {
		writeError(w, err, "failed to list notifications")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": notifications})
}

func (h *Handler) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	count, err := h.service.UnreadCount(r.Context(), user.ID)
	if err != nil {
		writeError(w, err, "failed to count unread notifications")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"unread_count": count})
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		http.Error(w, "invalid notification id", http.StatusBadRequest)
		return
	}
	changed, err := h.service.MarkRead(r.Context(), uint(id), user.ID)
	if err != nil {
		writeError(w, err, "failed to mark notification read")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"updated": changed})
}

func parseSkip(r *http.Request) int {
	raw := r.URL.Query().Get("skip")
	if raw == "" {
		return 0
	}
	if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
		return v
	}
	return 0
}

func parseLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 100
	}
	if v, err := strconv.Atoi(raw); err == nil && v > 0 {
		return v
	}
	return 100
}

func writeError(w http.ResponseWriter, err error, logMsg string) {
	status := errs.HTTPStatus(err)
	if status >= http.StatusInternalServerError && logMsg != "" {
		logger.Log.WithError(err).Error(logMsg)
	}
	http.Error(w, errs.Detail(err), status)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
