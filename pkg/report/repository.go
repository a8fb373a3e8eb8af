package report

import (
	"context"
	"errors"
	"time"

	"github.com/labbuddy/platform/pkg/common/errs"
	"github.com/labbuddy/platform/pkg/common/models"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type reportModel struct {
	ID         uint       `gorm:"primaryKey;column:report_id"`
	LabID      uint       `gorm:"column:lab_id;index"`
	HospitalID *uint      `gorm:"column:hospital_id;index"`
	PatientID  uint       `gorm:"column:patient_id;index"`
	Status     string     `gorm:"column:status;index"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
	UpdatedAt  *time.Time `gorm:"column:updated_at"`
}

func (reportModel) TableName() string { return "reports" }

type reportTestModel struct {
	ID          uint      `gorm:"primaryKey;column:report_test_id"`
	ReportID    uint      `gorm:"column:report_id;index"`
	LabTestID   uint      `gorm:"column:lab_test_id"`
	ResultValue string    `gorm:"column:result_value"`
	Status      string    `gorm:"column:status"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (reportTestModel) TableName() string { return "report_tests" }

type reportFileModel struct {
	ID         uint      `gorm:"primaryKey;column:report_file_id"`
	ReportID   uint      `gorm:"column:report_id;index"`
	FileURL    string    `gorm:"column:file_url"`
	UploadedBy uint      `gorm:"column:uploaded_by"`
	UploadedAt time.Time `gorm:"column:uploaded_at"`
	IsSigned   bool      `gorm:"column:is_signed"`
}

func (reportFileModel) TableName() string { return "report_files" }

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&reportModel{},
		&reportTestModel{},
		&reportFileModel{},
	)
}

// Create inserts the report together with one row per booked test. The
// insert is transactional so a half-booked report never survives a failure.
func (r *Repository) Create(ctx context.Context, req models.CreateReportRequest) (models.Report, error) {
	report := reportModel{
		LabID:      req.LabID,
		HospitalID: req.HospitalID,
		PatientID:  req.PatientID,
		Status:     string(models.ReportBooked),
		CreatedAt:  time.Now().UTC(),
	}
	var tests []reportTestModel

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&report).Error; err != nil {
			return err
		}
		for _, labTestID := range req.LabTestIDs {
			tests = append(tests, reportTestModel{
				ReportID:  report.ID,
				LabTestID: labTestID,
				Status:    string(models.ReportTestInProcess),
				CreatedAt: time.Now().UTC(),
			})
		}
		return tx.Create(&tests).Error
	})
	if err != nil {
		return models.Report{}, err
	}

	result := mapReport(report)
	for _, test := range tests {
		result.Tests = append(result.Tests, mapReportTest(test))
	}
	return result, nil
}

func (r *Repository) Get(ctx context.Context, id uint) (models.Report, error) {
	var report reportModel
	err := r.db.WithContext(ctx).First(&report, "report_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Report{}, errs.NotFound("report %d not found", id)
	}
	if err != nil {
		return models.Report{}, err
	}

	var tests []reportTestModel
	if err := r.db.WithContext(ctx).Where("report_id = ?", id).Order("report_test_id").Find(&tests).Error; err != nil {
		return models.Report{}, err
	}
	var files []reportFileModel
	if err := r.db.WithContext(ctx).Where("report_id = ?", id).Order("report_file_id").Find(&files).Error; err != nil {
		return models.Report{}, err
	}

	result := mapReport(report)
	for _, test := range tests {
		result.Tests = append(result.Tests, mapReportTest(test))
	}
	for _, file := range files {
		result.Files = append(result.Files, mapReportFile(file))
	}
	return result, nil
}

func (r *Repository) List(ctx context.Context, filter models.ReportFilter) ([]models.Report, error) {
	query := r.db.WithContext(ctx).Model(&reportModel{})
	if filter.LabID != nil {
		query = query.Where("lab_id = ?", *filter.LabID)
	}
	if filter.HospitalID != nil {
		query = query.Where("hospital_id = ?", *filter.HospitalID)
	}
	if filter.PatientID != nil {
		query = query.Where("patient_id = ?", *filter.PatientID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	skip := filter.Skip
	if skip < 0 {
		skip = 0
	}

	var rows []reportModel
	if err := query.Order("report_id desc").Offset(skip).Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	reports := make([]models.Report, 0, len(rows))
	for _, row := range rows {
		reports = append(reports, mapReport(row))
	}
	return reports, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id uint, status models.ReportStatus) (models.Report, error) {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&reportModel{}).
		Where("report_id = ?", id).
		Updates(map[string]interface{}{"status": string(status), "updated_at": now})
	if result.Error != nil {
		return models.Report{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.Report{}, errs.NotFound("report %d not found", id)
	}
	return r.Get(ctx, id)
}

func (r *Repository) CreateFile(ctx context.Context, reportID uint, fileURL string, uploadedBy uint) (models.ReportFile, error) {
	file := reportFileModel{
		ReportID:   reportID,
		FileURL:    fileURL,
		UploadedBy: uploadedBy,
		UploadedAt: time.Now().UTC(),
		IsSigned:   false,
	}
	if err := r.db.WithContext(ctx).Create(&file).Error; err != nil {
		return models.ReportFile{}, err
	}
	return mapReportFile(file), nil
}

func (r *Repository) ListFiles(ctx context.Context, reportID uint) ([]models.ReportFile, error) {
	var rows []reportFileModel
	if err := r.db.WithContext(ctx).Where("report_id = ?", reportID).Order("report_file_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	files := make([]models.ReportFile, 0, len(rows))
	for _, row := range rows {
		files = append(files, mapReportFile(row))
	}
	return files, nil
}

func (r *Repository) GetFile(ctx context.Context, reportID, fileID uint) (models.ReportFile, error) {
	var file reportFileModel
	err := r.db.WithContext(ctx).
		First(&file, "report_file_id = ? AND report_id = ?", fileID, reportID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ReportFile{}, errs.NotFound("file %d not found for report %d", fileID, reportID)
	}
	if err != nil {
		return models.ReportFile{}, err
	}
	return mapReportFile(file), nil
}

func mapReport(row reportModel) models.Report {
	return models.Report{
		ID:         row.ID,
		LabID:      row.LabID,
		HospitalID: row.HospitalID,
		PatientID:  row.PatientID,
		Status:     models.ReportStatus(row.Status),
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
}

func mapReportTest(row reportTestModel) models.ReportTest {
	return models.ReportTest{
		ID:          row.ID,
		ReportID:    row.ReportID,
		LabTestID:   row.LabTestID,
		ResultValue: row.ResultValue,
		Status:      models.ReportTestStatus(row.Status),
		CreatedAt:   row.CreatedAt,
	}
}

func mapReportFile(row reportFileModel) models.ReportFile {
	return models.ReportFile{
		ID:         row.ID,
		ReportID:   row.ReportID,
		FileURL:    row.FileURL,
		UploadedBy: row.UploadedBy,
		UploadedAt: row.UploadedAt,
		IsSigned:   row.IsSigned,
	}
}
