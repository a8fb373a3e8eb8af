package report

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/labbuddy/platform/pkg/catalog"
	"github.com/labbuddy/platform/pkg/common/errs"
	"github.com/labbuddy/platform/pkg/common/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type stubGateway struct {
	uploads int
}

func (g *stubGateway) Upload(ctx context.Context, data []byte, contentType, folder string) (string, error) {
	g.uploads++
	return fmt.Sprintf("https://bucket.s3.us-east-1.amazonaws.com/%s/test.pdf", folder), nil
}

func (g *stubGateway) Delete(ctx context.Context, fileURL string) bool { return true }

func (g *stubGateway) Presign(ctx context.Context, fileURL string, expiry time.Duration) (string, bool) {
	return "", false
}

type testEnv struct {
	db      *gorm.DB
	service *Service
	gateway *stubGateway
	lab     models.Lab
	patient models.Patient
	tests   []models.LabTest
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	catalogRepo := catalog.NewRepository(db)
	if err := catalogRepo.AutoMigrate(); err != nil {
		t.Fatalf("failed to migrate catalog: %v", err)
	}
	reportRepo := NewRepository(db)
	if err := reportRepo.AutoMigrate(); err != nil {
		t.Fatalf("failed to migrate reports: %v", err)
	}

	ctx := context.Background()
	lab, err := catalogRepo.CreateLab(ctx, models.CreateLabRequest{Name: "Acme Labs", URL: "acme", AdminUserID: 1})
	if err != nil {
		t.Fatalf("failed to create lab: %v", err)
	}
	patient, err := catalogRepo.CreatePatient(ctx, models.CreatePatientRequest{
		LabID:  lab.ID,
		Name:   "Jane Roe",
		Gender: models.GenderFemale,
	})
	if err != nil {
		t.Fatalf("failed to create patient: %v", err)
	}

	var labTests []models.LabTest
	for _, name := range []string{"CBC", "Lipid Panel"} {
		master, err := catalogRepo.CreateTestMaster(ctx, models.CreateTestMasterRequest{Name: name, SampleType: "blood"})
		if err != nil {
			t.Fatalf("failed to create test master: %v", err)
		}
		labTest, err := catalogRepo.CreateLabTest(ctx, models.CreateLabTestRequest{LabID: lab.ID, TestID: master.ID})
		if err != nil {
			t.Fatalf("failed to create lab test: %v", err)
		}
		labTests = append(labTests, labTest)
	}

	gateway := &stubGateway{}
	service := NewService(reportRepo, catalogRepo, nil, nil, gateway, 20, time.Hour)
	return &testEnv{db: db, service: service, gateway: gateway, lab: lab, patient: patient, tests: labTests}
}

func (e *testEnv) countRows(t *testing.T) (reports, reportTests int64) {
	t.Helper()
	if err := e.db.Model(&reportModel{}).Count(&reports).Error; err != nil {
		t.Fatalf("failed to count reports: %v", err)
	}
	if err := e.db.Model(&reportTestModel{}).Count(&reportTests).Error; err != nil {
		t.Fatalf("failed to count report tests: %v", err)
	}
	return reports, reportTests
}

func TestCreatePersistsReportWithTests(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	report, err := env.service.Create(ctx, models.CreateReportRequest{
		LabID:      env.lab.ID,
		PatientID:  env.patient.ID,
		LabTestIDs: []uint{env.tests[0].ID, env.tests[1].ID},
	})
	if err != nil {
		t.Fatalf("failed to create report: %v", err)
	}
	if report.Status != models.ReportBooked {
		t.Fatalf("expected new report to be BOOKED, got %s", report.Status)
	}
	if len(report.Tests) != 2 {
		t.Fatalf("expected 2 report tests, got %d", len(report.Tests))
	}
	for _, test := range report.Tests {
		if test.Status != models.ReportTestInProcess {
			t.Fatalf("expected report test to be IN_PROCESS, got %s", test.Status)
		}
	}

	stored, err := env.service.Get(ctx, report.ID)
	if err != nil {
		t.Fatalf("failed to reload report: %v", err)
	}
	if len(stored.Tests) != 2 {
		t.Fatalf("expected 2 persisted report tests, got %d", len(stored.Tests))
	}
}

func TestCreateLeavesNoRowsOnUnknownLabTest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.Create(ctx, models.CreateReportRequest{
		LabID:      env.lab.ID,
		PatientID:  env.patient.ID,
		LabTestIDs: []uint{env.tests[0].ID, 9999},
	})
	if err == nil {
		t.Fatal("expected create with an unknown lab test id to fail")
	}
	if errs.KindOf(err) != errs.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	reports, reportTests := env.countRows(t)
	if reports != 0 || reportTests != 0 {
		t.Fatalf("expected no rows after rejected create, got %d reports and %d report tests", reports, reportTests)
	}
}

func TestAttachAndCompleteRejectedWhenAlreadyReady(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	report, err := env.service.Create(ctx, models.CreateReportRequest{
		LabID:      env.lab.ID,
		PatientID:  env.patient.ID,
		LabTestIDs: []uint{env.tests[0].ID},
	})
	if err != nil {
		t.Fatalf("failed to create report: %v", err)
	}
	if _, err := env.service.Transition(ctx, report.ID, models.ReportReady); err != nil {
		t.Fatalf("failed to move report to REPORT_READY: %v", err)
	}

	_, _, err = env.service.AttachAndComplete(ctx, report.ID, []byte("%PDF-1.4"), "application/pdf", 1)
	if err == nil {
		t.Fatal("expected upload on an already-ready report to be rejected")
	}
	if errs.KindOf(err) != errs.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if env.gateway.uploads != 0 {
		t.Fatalf("expected no storage call for a rejected upload, got %d", env.gateway.uploads)
	}
	files, err := env.service.ListFiles(ctx, report.ID)
	if err != nil {
		t.Fatalf("failed to list files: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("expected no file rows after rejected upload, got %d", len(files))
	}
}

func TestAttachAndCompleteStoresFileAndMarksReady(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	report, err := env.service.Create(ctx, models.CreateReportRequest{
		LabID:      env.lab.ID,
		PatientID:  env.patient.ID,
		LabTestIDs: []uint{env.tests[0].ID},
	})
	if err != nil {
		t.Fatalf("failed to create report: %v", err)
	}

	updated, file, err := env.service.AttachAndComplete(ctx, report.ID, []byte("%PDF-1.4"), "application/pdf", 1)
	if err != nil {
		t.Fatalf("failed to attach and complete: %v", err)
	}
	if updated.Status != models.ReportReady {
		t.Fatalf("expected report to be REPORT_READY, got %s", updated.Status)
	}
	if file.ReportID != report.ID || file.IsSigned {
		t.Fatalf("unexpected file row: %+v", file)
	}
	if env.gateway.uploads != 1 {
		t.Fatalf("expected exactly one storage call, got %d", env.gateway.uploads)
	}
}
