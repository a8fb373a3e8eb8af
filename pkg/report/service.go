package report

import (
	"context"
	"time"

	"github.com/labbuddy/platform/pkg/catalog"
	"github.com/labbuddy/platform/pkg/common/errs"
	"github.com/labbuddy/platform/pkg/common/kafka"
	"github.com/labbuddy/platform/pkg/common/logger"
	"github.com/labbuddy/platform/pkg/common/models"
	"github.com/labbuddy/platform/pkg/storage"
)

// Notifier receives lifecycle events after the corresponding row change
// has been committed. Failures are logged by the implementation and never
// roll back the report itself.
type Notifier interface {
	OnReportCreated(ctx context.Context, report models.Report)
	OnStatusChanged(ctx context.Context, report models.Report)
}

type Service struct {
	repo     *Repository
	catalog  *catalog.Repository
	notifier Notifier
	producer *kafka.Producer
	gateway  storage.Gateway

	maxSizeMB     int
	presignExpiry time.Duration
}

func NewService(repo *Repository, cat *catalog.Repository, notifier Notifier, producer *kafka.Producer, gateway storage.Gateway, maxSizeMB int, presignExpiry time.Duration) *Service {
	return &Service{
		repo:          repo,
		catalog:       cat,
		notifier:      notifier,
		producer:      producer,
		gateway:       gateway,
		maxSizeMB:     maxSizeMB,
		presignExpiry: presignExpiry,
	}
}

func (s *Service) Create(ctx context.Context, req models.CreateReportRequest) (models.Report, error) {
	lab, err := s.catalog.GetLab(ctx, req.LabID)
	if err != nil {
		return models.Report{}, err
	}
	if !lab.IsActive {
		return models.Report{}, errs.Validation("lab is not active")
	}

	patient, err := s.catalog.GetPatient(ctx, req.PatientID)
	if err != nil {
		return models.Report{}, err
	}
	if patient.LabID != req.LabID {
		return models.Report{}, errs.Validation("patient does not belong to the lab")
	}

	if req.HospitalID != nil {
		hospital, err := s.catalog.GetHospital(ctx, *req.HospitalID)
		if err != nil {
			return models.Report{}, err
		}
		if hospital.LabID != req.LabID {
			return models.Report{}, errs.Validation("hospital does not belong to the lab")
		}
	}

	if len(req.LabTestIDs) == 0 {
		return models.Report{}, errs.Validation("at least one lab test is required")
	}
	found, err := s.catalog.FindLabTests(ctx, req.LabID, req.LabTestIDs)
	if err != nil {
		return models.Report{}, err
	}
	if len(found) != len(req.LabTestIDs) {
		return models.Report{}, errs.Validation("only %d of %d lab tests exist for this lab", len(found), len(req.LabTestIDs))
	}

	report, err := s.repo.Create(ctx, req)
	if err != nil {
		return models.Report{}, err
	}

	if s.notifier != nil {
		s.notifier.OnReportCreated(ctx, report)
	}
	s.publish(ctx, "report.created", report)
	return report, nil
}

func (s *Service) Get(ctx context.Context, id uint) (models.Report, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filter models.ReportFilter) ([]models.Report, error) {
	return s.repo.List(ctx, filter)
}

// Transition moves a report forward through its lifecycle. Backward and
// repeated transitions are rejected before any row is touched.
func (s *Service) Transition(ctx context.Context, id uint, status models.ReportStatus) (models.Report, error) {
	if !ValidStatus(status) {
		return models.Report{}, errs.Validation("unknown report status %q", status)
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return models.Report{}, err
	}
	if err := CanTransition(current.Status, status); err != nil {
		return models.Report{}, err
	}

	updated, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return models.Report{}, err
	}

	if s.notifier != nil {
		s.notifier.OnStatusChanged(ctx, updated)
	}
	s.publish(ctx, "report.status_changed", updated)
	return updated, nil
}

func (s *Service) AttachFile(ctx context.Context, reportID uint, data []byte, contentType string, uploadedBy uint) (models.ReportFile, error) {
	if _, err := s.repo.Get(ctx, reportID); err != nil {
		return models.ReportFile{}, err
	}
	if err := storage.Validate(contentType, int64(len(data)), s.maxSizeMB, []string{"application/pdf"}); err != nil {
		return models.ReportFile{}, err
	}

	fileURL, err := s.gateway.Upload(ctx, data, contentType, "reports")
	if err != nil {
		return models.ReportFile{}, err
	}
	file, err := s.repo.CreateFile(ctx, reportID, fileURL, uploadedBy)
	if err != nil {
		// Orphaned object, remove it so the bucket stays in step with the rows.
		s.gateway.Delete(ctx, fileURL)
		return models.ReportFile{}, err
	}
	return file, nil
}

// AttachAndComplete stores the finished document and marks the report
// ready in one step. The transition is checked up front so a rejected
// call never touches the object store.
func (s *Service) AttachAndComplete(ctx context.Context, reportID uint, data []byte, contentType string, uploadedBy uint) (models.Report, models.ReportFile, error) {
	current, err := s.repo.Get(ctx, reportID)
	if err != nil {
		return models.Report{}, models.ReportFile{}, err
	}
	if err := CanTransition(current.Status, models.ReportReady); err != nil {
		return models.Report{}, models.ReportFile{}, err
	}

	file, err := s.AttachFile(ctx, reportID, data, contentType, uploadedBy)
	if err != nil {
		return models.Report{}, models.ReportFile{}, err
	}
	report, err := s.Transition(ctx, reportID, models.ReportReady)
	if err != nil {
		return models.Report{}, models.ReportFile{}, err
	}
	return report, file, nil
}

func (s *Service) ListFiles(ctx context.Context, reportID uint) ([]models.ReportFile, error) {
	if _, err := s.repo.Get(ctx, reportID); err != nil {
		return nil, err
	}
	return s.repo.ListFiles(ctx, reportID)
}

// DownloadReference resolves a short-lived signed URL for the stored
// object. When signing is unavailable the stored URL is returned as-is.
func (s *Service) DownloadReference(ctx context.Context, reportID, fileID uint) (string, error) {
	file, err := s.repo.GetFile(ctx, reportID, fileID)
	if err != nil {
		return "", err
	}
	if url, ok := s.gateway.Presign(ctx, file.FileURL, s.presignExpiry); ok {
		return url, nil
	}
	return file.FileURL, nil
}

func (s *Service) publish(ctx context.Context, eventType string, report models.Report) {
	if s.producer == nil {
		return
	}
	if err := s.producer.PublishEvent(ctx, eventType, "report-service", map[string]interface{}{
		"report_id":  report.ID,
		"lab_id":     report.LabID,
		"patient_id": report.PatientID,
		"status":     report.Status,
	}); err != nil {
		logger.Log.WithError(err).WithField("report_id", report.ID).Warn("failed to publish report event")
	}
}
