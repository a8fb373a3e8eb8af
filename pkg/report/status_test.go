package report

import (
	"testing"

	"github.com/labbuddy/platform/pkg/common/models"
)

func TestCanTransitionForwardOnly(t *testing.T) {
	cases := []struct {
		from models.ReportStatus
		to   models.ReportStatus
		ok   bool
	}{
		{models.ReportBooked, models.ReportSampleCollected, true},
		{models.ReportBooked, models.ReportInProcess, true},
		{models.ReportBooked, models.ReportDelivered, true},
		{models.ReportSampleCollected, models.ReportInProcess, true},
		{models.ReportInProcess, models.ReportReady, true},
		{models.ReportReady, models.ReportDelivered, true},
		{models.ReportDelivered, models.ReportBooked, false},
		{models.ReportReady, models.ReportInProcess, false},
		{models.ReportInProcess, models.ReportSampleCollected, false},
		{models.ReportBooked, models.ReportBooked, false},
		{models.ReportDelivered, models.ReportDelivered, false},
	}

	for _, tc := range cases {
		err := CanTransition(tc.from, tc.to)
		if tc.ok && err != nil {
			t.Errorf("expected %s -> %s to be allowed, got %v", tc.from, tc.to, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("expected %s -> %s to be rejected", tc.from, tc.to)
		}
	}
}

func TestCanTransitionUnknownStatus(t *testing.T) {
	if err := CanTransition(models.ReportBooked, models.ReportStatus("ARCHIVED")); err == nil {
		t.Fatal("expected unknown target status to be rejected")
	}
	if err := CanTransition(models.ReportStatus(""), models.ReportReady); err == nil {
		t.Fatal("expected unknown source status to be rejected")
	}
}

func TestValidStatus(t *testing.T) {
	for _, status := range []models.ReportStatus{
		models.ReportBooked,
		models.ReportSampleCollected,
		models.ReportInProcess,
		models.ReportReady,
		models.ReportDelivered,
	} {
		if !ValidStatus(status) {
			t.Errorf("expected %s to be a valid status", status)
		}
	}
	if ValidStatus(models.ReportStatus("DONE")) {
		t.Error("expected DONE to be invalid")
	}
}
