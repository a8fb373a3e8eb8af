package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/labbuddy/platform/pkg/common/errs"
	"github.com/labbuddy/platform/pkg/common/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	repo := NewRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return repo
}

func TestCreateLabRejectsDuplicateURL(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if _, err := repo.CreateLab(ctx, models.CreateLabRequest{Name: "Acme Labs", URL: "acme", AdminUserID: 1}); err != nil {
		t.Fatalf("failed to create first lab: %v", err)
	}
	_, err := repo.CreateLab(ctx, models.CreateLabRequest{Name: "Other Labs", URL: "acme", AdminUserID: 2})
	if err == nil {
		t.Fatal("expected second lab with the same URL to be rejected")
	}
	if errs.KindOf(err) != errs.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateLabTestRejectsDuplicatePair(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	lab, err := repo.CreateLab(ctx, models.CreateLabRequest{Name: "Acme Labs", URL: "acme", AdminUserID: 1})
	if err != nil {
		t.Fatalf("failed to create lab: %v", err)
	}
	test, err := repo.CreateTestMaster(ctx, models.CreateTestMasterRequest{Name: "CBC", SampleType: "blood"})
	if err != nil {
		t.Fatalf("failed to create test master: %v", err)
	}

	if _, err := repo.CreateLabTest(ctx, models.CreateLabTestRequest{LabID: lab.ID, TestID: test.ID}); err != nil {
		t.Fatalf("failed to create first lab test: %v", err)
	}
	_, err = repo.CreateLabTest(ctx, models.CreateLabTestRequest{LabID: lab.ID, TestID: test.ID})
	if err == nil {
		t.Fatal("expected duplicate lab/test pair to be rejected")
	}
	if errs.KindOf(err) != errs.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateLabNormalizesURL(t *testing.T) {
	repo := newTestRepository(t)
	service := NewService(repo, nil)
	ctx := context.Background()

	if _, err := repo.CreateLab(ctx, models.CreateLabRequest{Name: "Acme Labs", URL: "acme", AdminUserID: 1}); err != nil {
		t.Fatalf("failed to create first lab: %v", err)
	}
	other, err := repo.CreateLab(ctx, models.CreateLabRequest{Name: "Other Labs", URL: "other", AdminUserID: 2})
	if err != nil {
		t.Fatalf("failed to create second lab: %v", err)
	}

	// A cased variant of a taken slug must collide, not slip past the check.
	taken := "Acme"
	if _, err := service.UpdateLab(ctx, other.ID, models.UpdateLabRequest{URL: &taken}); err == nil {
		t.Fatal("expected update to a cased duplicate URL to be rejected")
	} else if errs.KindOf(err) != errs.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	fresh := " NewSlug "
	updated, err := service.UpdateLab(ctx, other.ID, models.UpdateLabRequest{URL: &fresh})
	if err != nil {
		t.Fatalf("failed to update lab URL: %v", err)
	}
	if updated.URL != "newslug" {
		t.Fatalf("expected stored URL to be normalized, got %q", updated.URL)
	}
}
