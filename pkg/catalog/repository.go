package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/labbuddy/platform/pkg/common/errs"
	"github.com/labbuddy/platform/pkg/common/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type labModel struct {
	ID          uint       `gorm:"primaryKey;column:lab_id"`
	Name        string     `gorm:"column:name"`
	Address     string     `gorm:"column:address"`
	ContactInfo string     `gorm:"column:contact_info"`
	URL         string     `gorm:"column:url;uniqueIndex"`
	AdminUserID uint       `gorm:"column:admin_user_id"`
	IsActive    bool       `gorm:"column:is_active"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   *time.Time `gorm:"column:updated_at"`
}

func (labModel) TableName() string { return "labs" }

type hospitalModel struct {
	ID          uint       `gorm:"primaryKey;column:hospital_id"`
	LabID       uint       `gorm:"column:lab_id;index"`
	Name        string     `gorm:"column:name"`
	Address     string     `gorm:"column:address"`
	ContactInfo string     `gorm:"column:contact_info"`
	Status      string     `gorm:"column:status"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   *time.Time `gorm:"column:updated_at"`
}

func (hospitalModel) TableName() string { return "hospitals" }

type patientModel struct {
	ID           uint           `gorm:"primaryKey;column:patient_id"`
	LabID        uint           `gorm:"column:lab_id;index"`
	HospitalID   *uint          `gorm:"column:hospital_id;index"`
	Name         string         `gorm:"column:name"`
	DOB          datatypes.Date `gorm:"column:dob"`
	Gender       string         `gorm:"column:gender"`
	Phone        string         `gorm:"column:phone"`
	Address      string         `gorm:"column:address"`
	HasMediclaim bool           `gorm:"column:has_mediclaim"`
	CreatedAt    time.Time      `gorm:"column:created_at"`
	UpdatedAt    *time.Time     `gorm:"column:updated_at"`
}

func (patientModel) TableName() string { return "patients" }

type testMasterModel struct {
	ID          uint      `gorm:"primaryKey;column:test_id"`
	Name        string    `gorm:"column:name"`
	Description string    `gorm:"column:description"`
	SampleType  string    `gorm:"column:sample_type"`
	Turnaround  int       `gorm:"column:turnaround_time"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (testMasterModel) TableName() string { return "test_masters" }

type labTestModel struct {
	ID        uint      `gorm:"primaryKey;column:lab_test_id"`
	LabID     uint      `gorm:"column:lab_id;index:idx_lab_test,unique"`
	TestID    uint      `gorm:"column:test_id;index:idx_lab_test,unique"`
	Price     *float64  `gorm:"column:price"`
	Status    string    `gorm:"column:status"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (labTestModel) TableName() string { return "lab_tests" }

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&labModel{},
		&hospitalModel{},
		&patientModel{},
		&testMasterModel{},
		&labTestModel{},
	)
}

// Labs

func (r *Repository) CreateLab(ctx context.Context, req models.CreateLabRequest) (models.Lab, error) {
	var existing int64
	if err := r.db.WithContext(ctx).Model(&labModel{}).Where("url = ?", req.URL).Count(&existing).Error; err != nil {
		return models.Lab{}, err
	}
	if existing > 0 {
		return models.Lab{}, errs.Validation("lab URL already exists")
	}

	lab := labModel{
		Name:        req.Name,
		Address:     req.Address,
		ContactInfo: req.ContactInfo,
		URL:         req.URL,
		AdminUserID: req.AdminUserID,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&lab).Error; err != nil {
		return models.Lab{}, err
	}
	return mapLab(lab), nil
}

func (r *Repository) GetLab(ctx context.Context, id uint) (models.Lab, error) {
	var lab labModel
	err := r.db.WithContext(ctx).Where("lab_id = ?", id).First(&lab).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Lab{}, errs.NotFound("lab not found")
	}
	if err != nil {
		return models.Lab{}, err
	}
	return mapLab(lab), nil
}

func (r *Repository) ListLabs(ctx context.Context, skip, limit int) ([]models.Lab, error) {
	var rows []labModel
	if err := r.db.WithContext(ctx).Order("lab_id").Offset(skip).Limit(normalizeLimit(limit)).Find(&rows).Error; err != nil {
		return nil, err
	}
	labs := make([]models.Lab, 0, len(rows))
	for _, row := range rows {
		labs = append(labs, mapLab(row))
	}
	return labs, nil
}

func (r *Repository) UpdateLab(ctx context.Context, id uint, req models.UpdateLabRequest) (models.Lab, error) {
	var lab labModel
	err := r.db.WithContext(ctx).Where("lab_id = ?", id).First(&lab).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Lab{}, errs.NotFound("lab not found")
	}
	if err != nil {
		return models.Lab{}, err
	}

	if req.URL != nil && *req.URL != lab.URL {
		var existing int64
		if err := r.db.WithContext(ctx).Model(&labModel{}).Where("url = ?", *req.URL).Count(&existing).Error; err != nil {
			return models.Lab{}, err
		}
		if existing > 0 {
			return models.Lab{}, errs.Validation("lab URL already exists")
		}
		lab.URL = *req.URL
	}
	if req.Name != nil {
		lab.Name = *req.Name
	}
	if req.Address != nil {
		lab.Address = *req.Address
	}
	if req.ContactInfo != nil {
		lab.ContactInfo = *req.ContactInfo
	}
	now := time.Now().UTC()
	lab.UpdatedAt = &now

	if err := r.db.WithContext(ctx).Save(&lab).Error; err != nil {
		return models.Lab{}, err
	}
	return mapLab(lab), nil
}

func (r *Repository) DeactivateLab(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&labModel{}).Where("lab_id = ?", id).Updates(map[string]interface{}{
		"is_active":  false,
		"updated_at": time.Now().UTC(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NotFound("lab not found")
	}
	return nil
}

// Hospitals

func (r *Repository) CreateHospital(ctx context.Context, req models.CreateHospitalRequest) (models.Hospital, error) {
	hospital := hospitalModel{
		LabID:       req.LabID,
		Name:        req.Name,
		Address:     req.Address,
		ContactInfo: req.ContactInfo,
		Status:      string(models.HospitalActive),
		CreatedAt:   time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&hospital).Error; err != nil {
		return models.Hospital{}, err
	}
	return mapHospital(hospital), nil
}

func (r *Repository) GetHospital(ctx context.Context, id uint) (models.Hospital, error) {
	var hospital hospitalModel
	err := r.db.WithContext(ctx).Where("hospital_id = ?", id).First(&hospital).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Hospital{}, errs.NotFound("hospital not found")
	}
	if err != nil {
		return models.Hospital{}, err
	}
	return mapHospital(hospital), nil
}

func (r *Repository) ListHospitals(ctx context.Context, labID *uint, skip, limit int) ([]models.Hospital, error) {
	query := r.db.WithContext(ctx).Model(&hospitalModel{})
	if labID != nil {
		query = query.Where("lab_id = ?", *labID)
	}
	var rows []hospitalModel
	if err := query.Order("hospital_id").Offset(skip).Limit(normalizeLimit(limit)).Find(&rows).Error; err != nil {
		return nil, err
	}
	hospitals := make([]models.Hospital, 0, len(rows))
	for _, row := range rows {
		hospitals = append(hospitals, mapHospital(row))
	}
	return hospitals, nil
}

func (r *Repository) UpdateHospital(ctx context.Context, id uint, req models.UpdateHospitalRequest) (models.Hospital, error) {
	var hospital hospitalModel
	err := r.db.WithContext(ctx).Where("hospital_id = ?", id).First(&hospital).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Hospital{}, errs.NotFound("hospital not found")
	}
	if err != nil {
		return models.Hospital{}, err
	}

	if req.Name != nil {
		hospital.Name = *req.Name
	}
	if req.Address != nil {
		hospital.Address = *req.Address
	}
	if req.ContactInfo != nil {
		hospital.ContactInfo = *req.ContactInfo
	}
	if req.Status != nil {
		hospital.Status = string(*req.Status)
	}
	now := time.Now().UTC()
	hospital.UpdatedAt = &now

	if err := r.db.WithContext(ctx).Save(&hospital).Error; err != nil {
		return models.Hospital{}, err
	}
	return mapHospital(hospital), nil
}

func (r *Repository) DeactivateHospital(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&hospitalModel{}).Where("hospital_id = ?", id).Updates(map[string]interface{}{
		"status":     string(models.HospitalInactive),
		"updated_at": time.Now().UTC(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NotFound("hospital not found")
	}
	return nil
}

// Patients

func (r *Repository) CreatePatient(ctx context.Context, req models.CreatePatientRequest) (models.Patient, error) {
	patient := patientModel{
		LabID:        req.LabID,
		HospitalID:   req.HospitalID,
		Name:         req.Name,
		DOB:          req.DOB,
		Gender:       string(req.Gender),
		Phone:        req.Phone,
		Address:      req.Address,
		HasMediclaim: req.HasMediclaim,
		CreatedAt:    time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&patient).Error; err != nil {
		return models.Patient{}, err
	}
	return mapPatient(patient), nil
}

func (r *Repository) GetPatient(ctx context.Context, id uint) (models.Patient, error) {
	var patient patientModel
	err := r.db.WithContext(ctx).Where("patient_id = ?", id).First(&patient).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Patient{}, errs.NotFound("patient not found")
	}
	if err != nil {
		return models.Patient{}, err
	}
	return mapPatient(patient), nil
}

func (r *Repository) ListPatients(ctx context.Context, labID, hospitalID *uint, skip, limit int) ([]models.Patient, error) {
	query := r.db.WithContext(ctx).Model(&patientModel{})
	if labID != nil {
		query = query.Where("lab_id = ?", *labID)
	}
	if hospitalID != nil {
		query = query.Where("hospital_id = ?", *hospitalID)
	}
	var rows []patientModel
	if err := query.Order("patient_id").Offset(skip).Limit(normalizeLimit(limit)).Find(&rows).Error; err != nil {
		return nil, err
	}
	patients := make([]models.Patient, 0, len(rows))
	for _, row := range rows {
		patients = append(patients, mapPatient(row))
	}
	return patients, nil
}

func (r *Repository) UpdatePatient(ctx context.Context, id uint, req models.UpdatePatientRequest) (models.Patient, error) {
	var patient patientModel
	err := r.db.WithContext(ctx).Where("patient_id = ?", id).First(&patient).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Patient{}, errs.NotFound("patient not found")
	}
	if err != nil {
		return models.Patient{}, err
	}

	if req.Name != nil {
		patient.Name = *req.Name
	}
	if req.HospitalID != nil {
		patient.HospitalID = req.HospitalID
	}
	if req.Phone != nil {
		patient.Phone = *req.Phone
	}
	if req.Address != nil {
		patient.Address = *req.Address
	}
	if req.HasMediclaim != nil {
		patient.HasMediclaim = *req.HasMediclaim
	}
	now := time.Now().UTC()
	patient.UpdatedAt = &now

	if err := r.db.WithContext(ctx).Save(&patient).Error; err != nil {
		return models.Patient{}, err
	}
	return mapPatient(patient), nil
}

func (r *Repository) DeletePatient(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&patientModel{}, "patient_id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NotFound("patient not found")
	}
	return nil
}

// Test masters

func (r *Repository) CreateTestMaster(ctx context.Context, req models.CreateTestMasterRequest) (models.TestMaster, error) {
	test := testMasterModel{
		Name:        req.Name,
		Description: req.Description,
		SampleType:  req.SampleType,
		Turnaround:  req.Turnaround,
		CreatedAt:   time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&test).Error; err != nil {
		return models.TestMaster{}, err
	}
	return mapTestMaster(test), nil
}

func (r *Repository) GetTestMaster(ctx context.Context, id uint) (models.TestMaster, error) {
	var test testMasterModel
	err := r.db.WithContext(ctx).Where("test_id = ?", id).First(&test).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.TestMaster{}, errs.NotFound("test master not found")
	}
	if err != nil {
		return models.TestMaster{}, err
	}
	return mapTestMaster(test), nil
}

func (r *Repository) ListTestMasters(ctx context.Context, skip, limit int) ([]models.TestMaster, error) {
	var rows []testMasterModel
	if err := r.db.WithContext(ctx).Order("test_id").Offset(skip).Limit(normalizeLimit(limit)).Find(&rows).Error; err != nil {
		return nil, err
	}
	tests := make([]models.TestMaster, 0, len(rows))
	for _, row := range rows {
		tests = append(tests, mapTestMaster(row))
	}
	return tests, nil
}

// Lab tests

func (r *Repository) CreateLabTest(ctx context.Context, req models.CreateLabTestRequest) (models.LabTest, error) {
	var existing int64
	if err := r.db.WithContext(ctx).Model(&labTestModel{}).
		Where("lab_id = ? AND test_id = ?", req.LabID, req.TestID).
		Count(&existing).Error; err != nil {
		return models.LabTest{}, err
	}
	if existing > 0 {
		return models.LabTest{}, errs.Validation("test already exists for this lab")
	}

	labTest := labTestModel{
		LabID:     req.LabID,
		TestID:    req.TestID,
		Price:     req.Price,
		Status:    string(models.LabTestActive),
		CreatedAt: time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&labTest).Error; err != nil {
		return models.LabTest{}, err
	}
	return mapLabTest(labTest), nil
}

func (r *Repository) GetLabTest(ctx context.Context, id uint) (models.LabTest, error) {
	var labTest labTestModel
	err := r.db.WithContext(ctx).Where("lab_test_id = ?", id).First(&labTest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.LabTest{}, errs.NotFound("lab test not found")
	}
	if err != nil {
		return models.LabTest{}, err
	}
	return mapLabTest(labTest), nil
}

func (r *Repository) ListLabTests(ctx context.Context, labID *uint, skip, limit int) ([]models.LabTest, error) {
	query := r.db.WithContext(ctx).Model(&labTestModel{})
	if labID != nil {
		query = query.Where("lab_id = ?", *labID)
	}
	var rows []labTestModel
	if err := query.Order("lab_test_id").Offset(skip).Limit(normalizeLimit(limit)).Find(&rows).Error; err != nil {
		return nil, err
	}
	labTests := make([]models.LabTest, 0, len(rows))
	for _, row := range rows {
		labTests = append(labTests, mapLabTest(row))
	}
	return labTests, nil
}

// FindLabTests returns the subset of ids that resolve to lab tests owned
// by the lab; the caller compares counts for the exact-match rule.
func (r *Repository) FindLabTests(ctx context.Context, labID uint, ids []uint) ([]models.LabTest, error) {
	var rows []labTestModel
	if err := r.db.WithContext(ctx).
		Where("lab_test_id IN ? AND lab_id = ?", ids, labID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	labTests := make([]models.LabTest, 0, len(rows))
	for _, row := range rows {
		labTests = append(labTests, mapLabTest(row))
	}
	return labTests, nil
}

func (r *Repository) UpdateLabTest(ctx context.Context, id uint, req models.UpdateLabTestRequest) (models.LabTest, error) {
	var labTest labTestModel
	err := r.db.WithContext(ctx).Where("lab_test_id = ?", id).First(&labTest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.LabTest{}, errs.NotFound("lab test not found")
	}
	if err != nil {
		return models.LabTest{}, err
	}

	if req.Price != nil {
		labTest.Price = req.Price
	}
	if req.Status != nil {
		labTest.Status = string(*req.Status)
	}

	if err := r.db.WithContext(ctx).Save(&labTest).Error; err != nil {
		return models.LabTest{}, err
	}
	return mapLabTest(labTest), nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 200 {
		return 100
	}
	return limit
}

func mapLab(lab labModel) models.Lab {
	return models.Lab{
		ID:          lab.ID,
		Name:        lab.Name,
		Address:     lab.Address,
		ContactInfo: lab.ContactInfo,
		URL:         lab.URL,
		AdminUserID: lab.AdminUserID,
		IsActive:    lab.IsActive,
		CreatedAt:   lab.CreatedAt,
		UpdatedAt:   lab.UpdatedAt,
	}
}

func mapHospital(hospital hospitalModel) models.Hospital {
	return models.Hospital{
		ID:          hospital.ID,
		LabID:       hospital.LabID,
		Name:        hospital.Name,
		Address:     hospital.Address,
		ContactInfo: hospital.ContactInfo,
		Status:      models.HospitalStatus(hospital.Status),
		CreatedAt:   hospital.CreatedAt,
		UpdatedAt:   hospital.UpdatedAt,
	}
}

func mapPatient(patient patientModel) models.Patient {
	return models.Patient{
		ID:           patient.ID,
		LabID:        patient.LabID,
		HospitalID:   patient.HospitalID,
		Name:         patient.Name,
		DOB:          patient.DOB,
		Gender:       models.Gender(patient.Gender),
		Phone:        patient.Phone,
		Address:      patient.Address,
		HasMediclaim: patient.HasMediclaim,
		CreatedAt:    patient.CreatedAt,
		UpdatedAt:    patient.UpdatedAt,
	}
}

func mapTestMaster(test testMasterModel) models.TestMaster {
	return models.TestMaster{
		ID:          test.ID,
		Name:        test.Name,
		Description: test.Description,
		SampleType:  test.SampleType,
		Turnaround:  test.Turnaround,
		CreatedAt:   test.CreatedAt,
	}
}

func mapLabTest(labTest labTestModel) models.LabTest {
	return models.LabTest{
		ID:        labTest.ID,
		LabID:     labTest.LabID,
		TestID:    labTest.TestID,
		Price:     labTest.Price,
		Status:    models.LabTestStatus(labTest.Status),
		CreatedAt: labTest.CreatedAt,
	}
}
