package notify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/labbuddy/platform/pkg/common/models"
)

func TestDefaultMessages(t *testing.T) {
	templates := DefaultTemplates()

	got := templates.LabCreatedMessage("Jane Roe", 42)
	want := "New report booking created for patient Jane Roe (Report ID: 42)"
	if got != want {
		t.Fatalf("lab created message: got %q want %q", got, want)
	}

	got = templates.HospitalCreatedMessage("Jane Roe", 42)
	want = "Report booking confirmed for patient Jane Roe (Report ID: 42)"
	if got != want {
		t.Fatalf("hospital created message: got %q want %q", got, want)
	}
}

func TestStatusMessage(t *testing.T) {
	templates := DefaultTemplates()

	got, ok := templates.StatusMessage(models.ReportReady, "Jane Roe", 42)
	if !ok {
		t.Fatal("expected REPORT_READY to have a message")
	}
	want := "Report is ready for delivery - Patient: Jane Roe (Report ID: 42)"
	if got != want {
		t.Fatalf("status message: got %q want %q", got, want)
	}

	if _, ok := templates.StatusMessage(models.ReportBooked, "Jane Roe", 42); ok {
		t.Fatal("expected BOOKED to have no status message")
	}
}

func TestLabNotifiedOn(t *testing.T) {
	if !LabNotifiedOn(models.ReportReady) || !LabNotifiedOn(models.ReportDelivered) {
		t.Fatal("expected lab to be notified on the terminal stages")
	}
	if LabNotifiedOn(models.ReportSampleCollected) || LabNotifiedOn(models.ReportInProcess) {
		t.Fatal("expected lab to be skipped on intermediate stages")
	}
}

func TestLoadTemplatesOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	content := []byte("created_lab: \"Booking %s / %d\"\nstatus:\n  DELIVERED: \"Dropped off\"\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("failed to write template file: %v", err)
	}

	templates, err := LoadTemplates(path)
	if err != nil {
		t.Fatalf("failed to load templates: %v", err)
	}

	if got := templates.LabCreatedMessage("Jane", 7); got != "Booking Jane / 7" {
		t.Fatalf("expected overridden lab message, got %q", got)
	}
	// Untouched entries keep their defaults.
	if templates.CreatedHospital != DefaultTemplates().CreatedHospital {
		t.Fatal("expected hospital message to keep its default")
	}
	got, ok := templates.StatusMessage(models.ReportDelivered, "Jane", 7)
	if !ok || got != "Dropped off - Patient: Jane (Report ID: 7)" {
		t.Fatalf("expected overridden delivered message, got %q", got)
	}
}

func TestLoadTemplatesMissingFileFallsBack(t *testing.T) {
	templates, err := LoadTemplates("/nonexistent/templates.yaml")
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if templates.CreatedLab != DefaultTemplates().CreatedLab {
		t.Fatal("expected defaults to be returned alongside the error")
	}
}
