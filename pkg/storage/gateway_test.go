package storage

import (
	"testing"

	"github.com/labbuddy/platform/pkg/common/errs"
)

func TestValidateAcceptsAllowedFile(t *testing.T) {
	if err := Validate("application/pdf", 5*1024*1024, 20, nil); err != nil {
		t.Fatalf("expected 5MB PDF to pass: %v", err)
	}
	if err := Validate("image/png", 1024, 20, nil); err != nil {
		t.Fatalf("expected PNG to pass with default allow-list: %v", err)
	}
}

func TestValidateRejectsOversizedFile(t *testing.T) {
	err := Validate("application/pdf", 25*1024*1024, 20, nil)
	if err == nil {
		t.Fatal("expected 25MB file to exceed the 20MB ceiling")
	}
	if errs.KindOf(err) != errs.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestValidateRejectsDisallowedType(t *testing.T) {
	err := Validate("application/zip", 1024, 20, nil)
	if err == nil {
		t.Fatal("expected zip to be rejected")
	}
	if errs.KindOf(err) != errs.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestValidateHonorsCustomAllowList(t *testing.T) {
	pdfOnly := []string{"application/pdf"}
	if err := Validate("image/png", 1024, 20, pdfOnly); err == nil {
		t.Fatal("expected PNG to be rejected by a PDF-only allow-list")
	}
	if err := Validate("application/pdf", 1024, 20, pdfOnly); err != nil {
		t.Fatalf("expected PDF to pass a PDF-only allow-list: %v", err)
	}
}

func TestValidateBoundary(t *testing.T) {
	if err := Validate("application/pdf", 20*1024*1024, 20, nil); err != nil {
		t.Fatalf("expected a file at exactly the ceiling to pass: %v", err)
	}
	if err := Validate("application/pdf", 20*1024*1024+1, 20, nil); err == nil {
		t.Fatal("expected a file one byte over the ceiling to fail")
	}
}
