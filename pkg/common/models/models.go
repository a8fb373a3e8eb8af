package models

import (
	"time"

	"gorm.io/datatypes"
)

// Role tags carried on users. A role is fixed at registration.
type Role string

const (
	RoleLabAdmin     Role = "LAB_ADMIN"
	RoleLabStaff     Role = "LAB_STAFF"
	RoleLabBoy       Role = "LAB_BOY"
	RoleHospitalUser Role = "HOSPITAL_USER"
	RolePatient      Role = "PATIENT"
)

func (r Role) Valid() bool {
	switch r {
	case RoleLabAdmin, RoleLabStaff, RoleLabBoy, RoleHospitalUser, RolePatient:
		return true
	}
	return false
}

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale || g == GenderOther
}

type HospitalStatus string

const (
	HospitalActive   HospitalStatus = "ACTIVE"
	HospitalInactive HospitalStatus = "INACTIVE"
)

type LabTestStatus string

const (
	LabTestActive   LabTestStatus = "ACTIVE"
	LabTestInactive LabTestStatus = "INACTIVE"
)

// ReportStatus values form a total order; pkg/report owns the
// transition rules.
type ReportStatus string

const (
	ReportBooked          ReportStatus = "BOOKED"
	ReportSampleCollected ReportStatus = "SAMPLE_COLLECTED"
	ReportInProcess       ReportStatus = "IN_PROCESS"
	ReportReady           ReportStatus = "REPORT_READY"
	ReportDelivered       ReportStatus = "DELIVERED"
)

type ReportTestStatus string

const (
	ReportTestInProcess ReportTestStatus = "IN_PROCESS"
	ReportTestDone      ReportTestStatus = "DONE"
)

type NotificationStatus string

const (
	NotificationSent      NotificationStatus = "SENT"
	NotificationDelivered NotificationStatus = "DELIVERED"
	NotificationRead      NotificationStatus = "READ"
)

type User struct {
	ID         uint       `json:"user_id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone,omitempty"`
	Role       Role       `json:"role"`
	LabID      *uint      `json:"lab_id,omitempty"`
	HospitalID *uint      `json:"hospital_id,omitempty"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

type Lab struct {
	ID          uint       `json:"lab_id"`
	Name        string     `json:"name"`
	Address     string     `json:"address"`
	ContactInfo string     `json:"contact_info"`
	URL         string     `json:"url"`
	AdminUserID uint       `json:"admin_user_id"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

type Hospital struct {
	ID          uint           `json:"hospital_id"`
	LabID       uint           `json:"lab_id"`
	Name        string         `json:"name"`
	Address     string         `json:"address"`
	ContactInfo string         `json:"contact_info"`
	Status      HospitalStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   *time.Time     `json:"updated_at,omitempty"`
}

type Patient struct {
	ID           uint           `json:"patient_id"`
	LabID        uint           `json:"lab_id"`
	HospitalID   *uint          `json:"hospital_id,omitempty"`
	Name         string         `json:"name"`
	DOB          datatypes.Date `json:"dob"`
	Gender       Gender         `json:"gender"`
	Phone        string         `json:"phone,omitempty"`
	Address      string         `json:"address,omitempty"`
	HasMediclaim bool           `json:"has_mediclaim"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    *time.Time     `json:"updated_at,omitempty"`
}

type TestMaster struct {
	ID          uint      `json:"test_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	SampleType  string    `json:"sample_type"`
	Turnaround  int       `json:"turnaround_time"`
	CreatedAt   time.Time `json:"created_at"`
}

type LabTest struct {
	ID        uint          `json:"lab_test_id"`
	LabID     uint          `json:"lab_id"`
	TestID    uint          `json:"test_id"`
	Price     *float64      `json:"price,omitempty"`
	Status    LabTestStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}

type Report struct {
	ID         uint         `json:"report_id"`
	LabID      uint         `json:"lab_id"`
	HospitalID *uint        `json:"hospital_id,omitempty"`
	PatientID  uint         `json:"patient_id"`
	Status     ReportStatus `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  *time.Time   `json:"updated_at,omitempty"`
	Tests      []ReportTest `json:"tests,omitempty"`
	Files      []ReportFile `json:"files,omitempty"`
}

type ReportTest struct {
	ID          uint             `json:"report_test_id"`
	ReportID    uint             `json:"report_id"`
	LabTestID   uint             `json:"lab_test_id"`
	ResultValue string           `json:"result_value,omitempty"`
	Status      ReportTestStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
}

type ReportFile struct {
	ID         uint      `json:"report_file_id"`
	ReportID   uint      `json:"report_id"`
	FileURL    string    `json:"file_url"`
	UploadedBy uint      `json:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at"`
	IsSigned   bool      `json:"is_signed"`
}

type Notification struct {
	ID       uint               `json:"notification_id"`
	UserID   uint               `json:"user_id"`
	ReportID *uint              `json:"report_id,omitempty"`
	Message  string             `json:"message"`
	Status   NotificationStatus `json:"status"`
	SentAt   time.Time          `json:"sent_at"`
}

// Request payloads

type RegisterUserRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	Password   string `json:"password"`
	Role       Role   `json:"role"`
	LabID      *uint  `json:"lab_id,omitempty"`
	HospitalID *uint  `json:"hospital_id,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type CreateLabRequest struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	ContactInfo string `json:"contact_info"`
	URL         string `json:"url"`
	AdminUserID uint   `json:"admin_user_id"`
}

type UpdateLabRequest struct {
	Name        *string `json:"name,omitempty"`
	Address     *string `json:"address,omitempty"`
	ContactInfo *string `json:"contact_info,omitempty"`
	URL         *string `json:"url,omitempty"`
}

type CreateHospitalRequest struct {
	LabID       uint   `json:"lab_id"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	ContactInfo string `json:"contact_info"`
}

type UpdateHospitalRequest struct {
	Name        *string         `json:"name,omitempty"`
	Address     *string         `json:"address,omitempty"`
	ContactInfo *string         `json:"contact_info,omitempty"`
	Status      *HospitalStatus `json:"status,omitempty"`
}

type CreatePatientRequest struct {
	LabID        uint           `json:"lab_id"`
	HospitalID   *uint          `json:"hospital_id,omitempty"`
	Name         string         `json:"name"`
	DOB          datatypes.Date `json:"dob"`
	Gender       Gender         `json:"gender"`
	Phone        string         `json:"phone,omitempty"`
	Address      string         `json:"address,omitempty"`
	HasMediclaim bool           `json:"has_mediclaim"`
}

type UpdatePatientRequest struct {
	Name         *string `json:"name,omitempty"`
	HospitalID   *uint   `json:"hospital_id,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Address      *string `json:"address,omitempty"`
	HasMediclaim *bool   `json:"has_mediclaim,omitempty"`
}

type CreateTestMasterRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	SampleType  string `json:"sample_type"`
	Turnaround  int    `json:"turnaround_time"`
}

type CreateLabTestRequest struct {
	LabID  uint     `json:"lab_id"`
	TestID uint     `json:"test_id"`
	Price  *float64 `json:"price,omitempty"`
}

type UpdateLabTestRequest struct {
	Price  *float64       `json:"price,omitempty"`
	Status *LabTestStatus `json:"status,omitempty"`
}

type CreateReportRequest struct {
	LabID      uint   `json:"lab_id"`
	HospitalID *uint  `json:"hospital_id,omitempty"`
	PatientID  uint   `json:"patient_id"`
	LabTestIDs []uint `json:"lab_test_ids"`
}

type UpdateReportRequest struct {
	Status ReportStatus `json:"status"`
}

type ReportFilter struct {
	LabID      *uint
	HospitalID *uint
	PatientID  *uint
	Status     *ReportStatus
	Skip       int
	Limit      int
}
