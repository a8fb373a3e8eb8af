package report

import (
	"encoding/json"
	"io"
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
	r.HandleFunc("/reports", h.handleCreate).Methods(http.MethodPost)
	r.HandleFunc("/reports/request", h.handleHospitalRequest).Methods(http.MethodPost)
	r.HandleFunc("/reports", h.handleList).Methods(http.MethodGet)
	r.HandleFunc("/reports/{id}", h.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/reports/{id}", h.handleUpdateStatus).Methods(http.MethodPut)
	r.HandleFunc("/reports/{id}/upload", h.handleUpload).Methods(http.MethodPost)
	r.HandleFunc("/reports/{id}/files", h.handleListFiles).Methods(http.MethodGet)
	r.HandleFunc("/reports/{id}/files/{file_id}/download", h.handleDownload).Methods(http.MethodGet)

	// Courier-facing view of the same lifecycle.
	r.HandleFunc("/requests", h.handleListRequests).Methods(http.MethodGet)
	r.HandleFunc("/requests/{id}", h.handleGetRequest).Methods(http.MethodGet)
	r.HandleFunc("/requests/{id}/status", h.handleRequestStatus).Methods(http.MethodPatch)
	r.HandleFunc("/requests/{id}/confirm-pickup", h.handleConfirmPickup).Methods(http.MethodPost)
	r.HandleFunc("/requests/{id}/upload-report", h.handleCourierUpload).Methods(http.MethodPost)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := identity.Authorize(user, models.RoleLabAdmin, models.RoleLabStaff); err != nil {
		writeError(w, err, "")
		return
	}
	var req models.CreateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	report, err := h.service.Create(r.Context(), req)
	if err != nil {
		writeError(w, err, "failed to create report")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"report": report})
}

// handleHospitalRequest lets a hospital user book a report for one of the
// hospital's patients. The hospital is taken from the caller, not the body.
func (h *Handler) handleHospitalRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := identity.Authorize(user, models.RoleHospitalUser); err != nil {
		writeError(w, err, "")
		return
	}
	if user.HospitalID == nil {
		http.Error(w, "user has no hospital assigned", http.StatusBadRequest)
		return
	}
	var req models.CreateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	req.HospitalID = user.HospitalID
	report, err := h.service.Create(r.Context(), req)
	if err != nil {
		writeError(w, err, "failed to create report request")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"report": report})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reports, err := h.service.List(r.Context(), filterFromQuery(r))
	if err != nil {
		writeError(w, err, "failed to list reports")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": reports})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		http.Error(w, "invalid report id", http.StatusBadRequest)
		return
	}
	report, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, "failed to get report")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"report": report})
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := identity.Authorize(user, models.RoleLabAdmin, models.RoleLabStaff); err != nil {
		writeError(w, err, "")
		return
	}
	id, err := parseID(r, "id")
	if err != nil {
		http.Error(w, "invalid report id", http.StatusBadRequest)
		return
	}
	var req models.UpdateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	report, err := h.service.Transition(r.Context(), id, req.Status)
	if err != nil {
		writeError(w, err, "failed to update report status")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"report": report})
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := identity.Authorize(user, models.RoleLabAdmin, models.RoleLabStaff, models.RoleLabBoy); err != nil {
		writeError(w, err, "")
		return
	}
	id, err := parseID(r, "id")
	if err != nil {
		http.Error(w, "invalid report id", http.StatusBadRequest)
		return
	}
	data, contentType, err := readUpload(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	file, err := h.service.AttachFile(r.Context(), id, data, contentType, user.ID)
	if err != nil {
		writeError(w, err, "failed to upload report file")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"file": file})
}

func (h *Handler) handleListFiles(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		http.Error(w, "invalid report id", http.StatusBadRequest)
		return
	}
	files, err := h.service.ListFiles(r.Context(), id)
	if err != nil {
		writeError(w, err, "failed to list report files")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": files})
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		http.Error(w, "invalid report id", http.StatusBadRequest)
		return
	}
	fileID, err := parseID(r, "file_id")
	if err != nil {
		http.Error(w, "invalid file id", http.StatusBadRequest)
		return
	}
	url, err := h.service.DownloadReference(r.Context(), id, fileID)
	if err != nil {
		writeError(w, err, "failed to resolve download url")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"url": url})
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := identity.Authorize(user, models.RoleLabBoy); err != nil {
		writeError(w, err, "")
		return
	}
	filter := filterFromQuery(r)
	// Couriers only see their own lab's work.
	filter.LabID = user.LabID
	reports, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeError(w, err, "failed to list requests")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": reports})
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := identity.Authorize(user, models.RoleLabBoy); err != nil {
		writeError(w, err, "")
		return
	}
	id, err := parseID(r, "id")
	if err != nil {
		http.Error(w, "invalid request id", http.StatusBadRequest)
		return
	}
	report, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, "failed to get request")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"report": report})
}

func (h *Handler) handleRequestStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := identity.Authorize(user, models.RoleLabBoy); err != nil {
		writeError(w, err, "")
		return
	}
	id, err := parseID(r, "id")
	if err != nil {
		http.Error(w, "invalid request id", http.StatusBadRequest)
		return
	}
	var req models.UpdateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	report, err := h.service.Transition(r.Context(), id, req.Status)
	if err != nil {
		writeError(w, err, "failed to update request status")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"report": report})
}

// handleConfirmPickup is the courier shortcut for marking a collected
// sample as being processed by the lab.
func (h *Handler) handleConfirmPickup(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := identity.Authorize(user, models.RoleLabBoy); err != nil {
		writeError(w, err, "")
		return
	}
	id, err := parseID(r, "id")
	if err != nil {
		http.Error(w, "invalid request id", http.StatusBadRequest)
		return
	}
	report, err := h.service.Transition(r.Context(), id, models.ReportInProcess)
	if err != nil {
		writeError(w, err, "failed to confirm pickup")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"report": report})
}

// handleCourierUpload attaches the finished document and marks the report
// ready in a single call.
func (h *Handler) handleCourierUpload(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := identity.Authorize(user, models.RoleLabBoy); err != nil {
		writeError(w, err, "")
		return
	}
	id, err := parseID(r, "id")
	if err != nil {
		http.Error(w, "invalid request id", http.StatusBadRequest)
		return
	}
	data, contentType, err := readUpload(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	report, file, err := h.service.AttachAndComplete(r.Context(), id, data, contentType, user.ID)
	if err != nil {
		writeError(w, err, "failed to upload report file")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"report": report, "file": file})
}

func readUpload(r *http.Request) ([]byte, string, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, "", errs.Validation("invalid multipart form")
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", errs.Validation("missing file field")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", errs.Validation("failed to read file")
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}

func filterFromQuery(r *http.Request) models.ReportFilter {
	filter := models.ReportFilter{
		LabID:      parseOptionalUint(r, "lab_id"),
		HospitalID: parseOptionalUint(r, "hospital_id"),
		PatientID:  parseOptionalUint(r, "patient_id"),
		Skip:       parseSkip(r),
		Limit:      parseLimit(r),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := models.ReportStatus(raw)
		filter.Status = &status
	}
	return filter
}

func parseID(r *http.Request, key string) (uint, error) {
	raw := mux.Vars(r)[key]
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
