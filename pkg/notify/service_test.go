package notify

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/labbuddy/platform/pkg/catalog"
	"github.com/labbuddy/platform/pkg/common/logger"
	"github.com/labbuddy/platform/pkg/common/models"
	"github.com/labbuddy/platform/pkg/identity"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fanoutEnv struct {
	repo     *Repository
	service  *Service
	lab      models.Lab
	hospital models.Hospital
	patient  models.Patient
	admin    models.User
	staff    models.User
	courier  models.User
	hospUser models.User
}

func newFanoutEnv(t *testing.T) *fanoutEnv {
	t.Helper()
	logger.Init()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	userRepo := identity.NewRepository(db)
	catalogRepo := catalog.NewRepository(db)
	notifyRepo := NewRepository(db)
	for _, migrate := range []func() error{userRepo.AutoMigrate, catalogRepo.AutoMigrate, notifyRepo.AutoMigrate} {
		if err := migrate(); err != nil {
			t.Fatalf("failed to migrate: %v", err)
		}
	}

	ctx := context.Background()
	lab, err := catalogRepo.CreateLab(ctx, models.CreateLabRequest{Name: "Acme Labs", URL: "acme", AdminUserID: 1})
	if err != nil {
		t.Fatalf("failed to create lab: %v", err)
	}
	hospital, err := catalogRepo.CreateHospital(ctx, models.CreateHospitalRequest{LabID: lab.ID, Name: "City Hospital"})
	if err != nil {
		t.Fatalf("failed to create hospital: %v", err)
	}
	patient, err := catalogRepo.CreatePatient(ctx, models.CreatePatientRequest{
		LabID:      lab.ID,
		HospitalID: &hospital.ID,
		Name:       "Jane Roe",
		Gender:     models.GenderFemale,
	})
	if err != nil {
		t.Fatalf("failed to create patient: %v", err)
	}

	newUser := func(email string, role models.Role, labID, hospitalID *uint) models.User {
		user, err := userRepo.CreateUser(ctx, identity.CreateUserInput{
			Name:         email,
			Email:        email,
			PasswordHash: "x",
			Role:         role,
			LabID:        labID,
			HospitalID:   hospitalID,
		})
		if err != nil {
			t.Fatalf("failed to create user %s: %v", email, err)
		}
		return user
	}

	env := &fanoutEnv{
		repo:     notifyRepo,
		lab:      lab,
		hospital: hospital,
		patient:  patient,
		admin:    newUser("admin@acme.example", models.RoleLabAdmin, &lab.ID, nil),
		staff:    newUser("staff@acme.example", models.RoleLabStaff, &lab.ID, nil),
		courier:  newUser("courier@acme.example", models.RoleLabBoy, &lab.ID, nil),
		hospUser: newUser("desk@city.example", models.RoleHospitalUser, nil, &hospital.ID),
	}
	env.service = NewService(notifyRepo, userRepo, catalogRepo, DefaultTemplates(), nil, time.Minute)
	return env
}

func (e *fanoutEnv) inboxSize(t *testing.T, userID uint) int {
	t.Helper()
	notifications, err := e.repo.ListForUser(context.Background(), userID, 0, 100)
	if err != nil {
		t.Fatalf("failed to list notifications: %v", err)
	}
	return len(notifications)
}

func TestOnReportCreatedFanOut(t *testing.T) {
	env := newFanoutEnv(t)
	ctx := context.Background()

	env.service.OnReportCreated(ctx, models.Report{
		ID:         1,
		LabID:      env.lab.ID,
		HospitalID: &env.hospital.ID,
		PatientID:  env.patient.ID,
		Status:     models.ReportBooked,
	})

	for _, user := range []models.User{env.admin, env.staff, env.courier, env.hospUser} {
		if got := env.inboxSize(t, user.ID); got != 1 {
			t.Fatalf("expected user %s to have 1 notification, got %d", user.Email, got)
		}
	}

	labInbox, _ := env.repo.ListForUser(ctx, env.admin.ID, 0, 10)
	if labInbox[0].Message != DefaultTemplates().LabCreatedMessage(env.patient.Name, 1) {
		t.Fatalf("unexpected lab message: %q", labInbox[0].Message)
	}
	hospitalInbox, _ := env.repo.ListForUser(ctx, env.hospUser.ID, 0, 10)
	if hospitalInbox[0].Message != DefaultTemplates().HospitalCreatedMessage(env.patient.Name, 1) {
		t.Fatalf("unexpected hospital message: %q", hospitalInbox[0].Message)
	}
}

func TestOnStatusChangedRecipientsPerStage(t *testing.T) {
	env := newFanoutEnv(t)
	ctx := context.Background()
	report := models.Report{
		ID:         7,
		LabID:      env.lab.ID,
		HospitalID: &env.hospital.ID,
		PatientID:  env.patient.ID,
	}

	// Intermediate stage: hospital users only.
	report.Status = models.ReportSampleCollected
	env.service.OnStatusChanged(ctx, report)
	if got := env.inboxSize(t, env.hospUser.ID); got != 1 {
		t.Fatalf("expected hospital user to hear about SAMPLE_COLLECTED, got %d notifications", got)
	}
	for _, user := range []models.User{env.admin, env.staff, env.courier} {
		if got := env.inboxSize(t, user.ID); got != 0 {
			t.Fatalf("expected lab user %s to be skipped on SAMPLE_COLLECTED, got %d", user.Email, got)
		}
	}

	// Terminal stage: hospital users plus lab admin and staff, never the courier.
	report.Status = models.ReportReady
	env.service.OnStatusChanged(ctx, report)
	if got := env.inboxSize(t, env.hospUser.ID); got != 2 {
		t.Fatalf("expected hospital user to have 2 notifications, got %d", got)
	}
	if got := env.inboxSize(t, env.admin.ID); got != 1 {
		t.Fatalf("expected lab admin to hear about REPORT_READY, got %d", got)
	}
	if got := env.inboxSize(t, env.staff.ID); got != 1 {
		t.Fatalf("expected lab staff to hear about REPORT_READY, got %d", got)
	}
	if got := env.inboxSize(t, env.courier.ID); got != 0 {
		t.Fatalf("expected courier to be skipped on REPORT_READY, got %d", got)
	}
}

func TestMarkReadIdempotent(t *testing.T) {
	env := newFanoutEnv(t)
	ctx := context.Background()

	reportID := uint(3)
	created, err := env.repo.Create(ctx, env.hospUser.ID, &reportID, "Report is ready for delivery")
	if err != nil {
		t.Fatalf("failed to create notification: %v", err)
	}

	for i := 0; i < 2; i++ {
		found, err := env.service.MarkRead(ctx, created.ID, env.hospUser.ID)
		if err != nil {
			t.Fatalf("mark read attempt %d failed: %v", i+1, err)
		}
		if !found {
			t.Fatalf("expected mark read attempt %d to report true", i+1)
		}
	}

	inbox, err := env.repo.ListForUser(ctx, env.hospUser.ID, 0, 10)
	if err != nil {
		t.Fatalf("failed to list notifications: %v", err)
	}
	if inbox[0].Status != models.NotificationRead {
		t.Fatalf("expected notification to stay READ, got %s", inbox[0].Status)
	}

	// Another user's id or a missing row is a quiet no-op.
	found, err := env.service.MarkRead(ctx, created.ID, env.admin.ID)
	if err != nil {
		t.Fatalf("mark read for non-owner failed: %v", err)
	}
	if found {
		t.Fatal("expected mark read for non-owner to report false")
	}
}
