package identity

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/labbuddy/platform/pkg/common/errs"
	"github.com/labbuddy/platform/pkg/common/logger"
	"github.com/labbuddy/platform/pkg/common/models"
	"github.com/labbuddy/platform/pkg/middleware"
)

type Handler struct {
	service *Service
	tokens  *TokenManager
}

func NewHandler(service *Service, tokens *TokenManager) *Handler {
	return &Handler{service: service, tokens: tokens}
}

// Register wires the unauthenticated routes; RegisterProtected the ones
// that require a bearer token.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/auth/register", h.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", h.handleLogin).Methods(http.MethodPost)
}

func (h *Handler) RegisterProtected(r *mux.Router) {
	r.HandleFunc("/auth/me", h.handleMe).Methods(http.MethodGet)
	r.HandleFunc("/auth/users/{id}", h.handleDeactivate).Methods(http.MethodDelete)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		writeError(w, err, "failed to register user")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"user": user})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err, "failed to authenticate")
		return
	}
	token, err := h.tokens.Issue(user)
	if err != nil {
		logger.Log.WithError(err).Error("failed to issue token")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, models.TokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := Authorize(user, models.RoleLabAdmin); err != nil {
		writeError(w, err, "")
		return
	}
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}
	if err := h.service.Deactivate(r.Context(), uint(id)); err != nil {
		writeError(w, err, "failed to deactivate user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "user deactivated"})
}

func writeError(w http.ResponseWriter, err error, logMsg string) {
	status := errs.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Log.WithError(err).Error(logMsg)
	}
	http.Error(w, errs.Detail(err), status)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
