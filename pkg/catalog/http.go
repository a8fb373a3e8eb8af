package catalog

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/labbuddy/platform/pkg/common/errs"
	"github.com/labbuddy/platform/pkg/common/logger"
	"github.com/labbuddy/platform/pkg/common/models"
	"github.com/labbuddy/platform/pkg/identity"
	"github.com/labbuddy/platform/pkg/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/labs", h.handleCreateLab).Methods(http.MethodPost)
	r.HandleFunc("/labs", h.handleListLabs).Methods(http.MethodGet)
	r.HandleFunc("/labs/{id}", h.handleGetLab).Methods(http.MethodGet)
	r.HandleFunc("/labs/{id}", h.handleUpdateLab).Methods(http.MethodPut)
	r.HandleFunc("/labs/{id}", h.handleDeactivateLab).Methods(http.MethodDelete)

	r.HandleFunc("/hospitals", h.handleCreateHospital).Methods(http.MethodPost)
	r.HandleFunc("/hospitals", h.handleListHospitals).Methods(http.MethodGet)
	r.HandleFunc("/hospitals/{id}", h.handleGetHospital).Methods(http.MethodGet)
	r.HandleFunc("/hospitals/{id}", h.handleUpdateHospital).Methods(http.MethodPut)
	r.HandleFunc("/hospitals/{id}", h.handleDeactivateHospital).Methods(http.MethodDelete)

	r.HandleFunc("/patients", h.handleCreatePatient).Methods(http.MethodPost)
	r.HandleFunc("/patients", h.handleListPatients).Methods(http.MethodGet)
	r.HandleFunc("/patients/{id}", h.handleGetPatient).Methods(http.MethodGet)
	r.HandleFunc("/patients/{id}", h.handleUpdatePatient).Methods(http.MethodPut)
	r.HandleFunc("/patients/{id}", h.handleDeletePatient).Methods(http.MethodDelete)

	r.HandleFunc("/tests/master", h.handleCreateTestMaster).Methods(http.MethodPost)
	r.HandleFunc("/tests/master", h.handleListTestMasters).Methods(http.MethodGet)
	r.HandleFunc("/tests/master/{id}", h.handleGetTestMaster).Methods(http.MethodGet)
	r.HandleFunc("/tests/lab", h.handleCreateLabTest).Methods(http.MethodPost)
	r.HandleFunc("/tests/lab", h.handleListLabTests).Methods(http.MethodGet)
	r.HandleFunc("/tests/lab/{id}", h.handleGetLabTest).Methods(http.MethodGet)
	r.HandleFunc("/tests/lab/{id}", h.handleUpdateLabTest).Methods(http.MethodPut)
}

func (h *Handler) handleCreateLab(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := identity.Authorize(user, models.RoleLabAdmin); err != nil {
		writeError(w, err, "")
		return
	}
	var req models.CreateLabRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	lab, err := h.service.CreateLab(r.Context(), req)
	if err != nil {
		writeError(w, err, "failed to create lab")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"lab": lab})
}

func (h *Handler) handleListLabs(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := identity.Authorize(user, models.RoleLabAdmin); err != nil {
		writeError(w, err, "")
		return
	}
	labs, err := h.service.ListLabs(r.Context(), parseSkip(r), parseLimit(r))
	if err != nil {
		writeError(w, err, "failed to list labs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": labs})
}

func (h *Handler) handleGetLab(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid lab id", http.StatusBadRequest)
		return
	}
	lab, err := h.service.GetLab(r.Context(), id)
	if err != nil {
		writeError(w, err, "failed to get lab")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"lab": lab})
}

func (h *Handler) handleUpdateLab(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := identity.Authorize(user, models.RoleLabAdmin); err != nil {
		writeError(w, err, "")
		return
	}
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid lab id", http.StatusBadRequest)
		return
	}
	var req models.UpdateLabRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	lab, err := h.service.UpdateLab(r.Context(), id, req)
	if err != nil {
		writeError(w, err, "failed to update lab")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"lab": lab})
}

func (h *Handler) handleDeactivateLab(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := identity.Authorize(user, models.RoleLabAdmin); err != nil {
		writeError(w, err, "")
		return
	}
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid lab id", http.StatusBadRequest)
		return
	}
	if err := h.service.DeactivateLab(r.Context(), id); err != nil {
		writeError(w, err, "failed to deactivate lab")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "lab deactivated"})
}

func (h *Handler) handleCreateHospital(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := identity.Authorize(user, models.RoleLabAdmin, models.RoleLabStaff); err != nil {
		writeError(w, err, "")
		return
	}
	var req models.CreateHospitalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	hospital, err := h.service.CreateHospital(r.Context(), req)
	if err != nil {
		writeError(w, err, "failed to create hospital")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"hospital": hospital})
}

func (h *Handler) handleListHospitals(w http.ResponseWriter, r *http.Request) {
	hospitals, err := h.service.ListHospitals(r.Context(), parseOptionalUint(r, "lab_id"), parseSkip(r), parseLimit(r))
	if err != nil {
		writeError(w, err, "failed to list hospitals")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": hospitals})
}

func (h *Handler) handleGetHospital(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid hospital id", http.StatusBadRequest)
		return
	}
	hospital, err := h.service.GetHospital(r.Context(), id)
	if err != nil {
		writeError(w, err, "failed to get hospital")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"hospital": hospital})
}

func (h *Handler) handleUpdateHospital(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := identity.Authorize(user, models.RoleLabAdmin, models.RoleLabStaff); err != nil {
		writeError(w, err, "")
		return
	}
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid hospital id", http.StatusBadRequest)
		return
	}
	var req models.UpdateHospitalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	hospital, err := h.service.UpdateHospital(r.Context(), id, req)
	if err != nil {
		writeError(w, err, "failed to update hospital")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"hospital": hospital})
}

func (h *Handler) handleDeactivateHospital(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := identity.Authorize(user, models.RoleLabAdmin); err != nil {
		writeError(w, err, "")
		return
	}
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid hospital id", http.StatusBadRequest)
		return
	}
	if err := h.service.DeactivateHospital(r.Context(), id); err != nil {
		writeError(w, err, "failed to deactivate hospital")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "hospital deactivated"})
}

func (h *Handler) handleCreatePatient(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := identity.Authorize(user, models.RoleLabAdmin, models.RoleLabStaff, models.RoleHospitalUser); err != nil {
		writeError(w, err, "")
		return
	}
	var req models.CreatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	patient, err := h.service.CreatePatient(r.Context(), req)
	if err != nil {
		writeError(w, err, "failed to create patient")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"patient": patient})
}

func (h *Handler) handleListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := h.service.ListPatients(r.Context(),
		parseOptionalUint(r, "lab_id"), parseOptionalUint(r, "hospital_id"),
		parseSkip(r), parseLimit(r))
	if err != nil {
		writeError(w, err, "failed to list patients")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": patients})
}

func (h *Handler) handleGetPatient(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid patient id", http.StatusBadRequest)
		return
	}
	patient, err := h.service.GetPatient(r.Context(), id)
	if err != nil {
		writeError(w, err, "failed to get patient")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"patient": patient})
}

func (h *Handler) handleUpdatePatient(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := identity.Authorize(user, models.RoleLabAdmin, models.RoleLabStaff); err != nil {
		writeError(w, err, "")
		return
	}
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid patient id", http.StatusBadRequest)
		return
	}
	var req models.UpdatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	patient, err := h.service.UpdatePatient(r.Context(), id, req)
	if err != nil {
		writeError(w, err, "failed to update patient")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"patient": patient})
}

func (h *Handler) handleDeletePatient(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := identity.Authorize(user, models.RoleLabAdmin, models.RoleLabStaff); err != nil {
		writeError(w, err, "")
		return
	}
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid patient id", http.StatusBadRequest)
		return
	}
	if err := h.service.DeletePatient(r.Context(), id); err != nil {
		writeError(w, err, "failed to delete patient")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "patient deleted"})
}

func (h *Handler) handleCreateTestMaster(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := identity.Authorize(user, models.RoleLabAdmin); err != nil {
		writeError(w, err, "")
		return
	}
	var req models.CreateTestMasterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	test, err := h.service.CreateTestMaster(r.Context(), req)
	if err != nil {
		writeError(w, err, "failed to create test master")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"test": test})
}

func (h *Handler) handleListTestMasters(w http.ResponseWriter, r *http.Request) {
	tests, err := h.service.ListTestMasters(r.Context(), parseSkip(r), parseLimit(r))
	if err != nil {
		writeError(w, err, "failed to list test masters")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": tests})
}

func (h *Handler) handleGetTestMaster(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid test id", http.StatusBadRequest)
		return
	}
	test, err := h.service.GetTestMaster(r.Context(), id)
	if err != nil {
		writeError(w, err, "failed to get test master")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"test": test})
}

func (h *Handler) handleCreateLabTest(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := identity.Authorize(user, models.RoleLabAdmin); err != nil {
		writeError(w, err, "")
		return
	}
	var req models.CreateLabTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	labTest, err := h.service.CreateLabTest(r.Context(), req)
	if err != nil {
		writeError(w, err, "failed to create lab test")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"lab_test": labTest})
}

func (h *Handler) handleListLabTests(w http.ResponseWriter, r *http.Request) {
	labTests, err := h.service.ListLabTests(r.Context(), parseOptionalUint(r, "lab_id"), parseSkip(r), parseLimit(r))
	if err != nil {
		writeError(w, err, "failed to list lab tests")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": labTests})
}

func (h *Handler) handleGetLabTest(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid lab test id", http.StatusBadRequest)
		return
	}
	labTest, err := h.service.GetLabTest(r.Context(), id)
	if err != nil {
		writeError(w, err, "failed to get lab test")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"lab_test": labTest})
}

func (h *Handler) handleUpdateLabTest(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := identity.Authorize(user, models.RoleLabAdmin); err != nil {
		writeError(w, err, "")
		return
	}
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid lab test id", http.StatusBadRequest)
		return
	}
	var req models.UpdateLabTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	labTest, err := h.service.UpdateLabTest(r.Context(), id, req)
	if err != nil {
		writeError(w, err, "failed to update lab test")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"lab_test": labTest})
}

func parseID(r *http.Request) (uint, error) {
	raw := mux.Vars(r)["id"]
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}

func parseOptionalUint(r *http.Request, key string) *uint {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	if value, err := strconv.ParseUint(raw, 10, 32); err == nil {
		id := uint(value)
		return &id
	}
	return nil
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
