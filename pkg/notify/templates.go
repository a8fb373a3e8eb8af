package notify

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/labbuddy/platform/pkg/common/models"
	"gopkg.in/yaml.v3"
)

// Templates holds the notification message texts. Deployments can override
// individual entries from a YAML file; anything left blank keeps its default.
type Templates struct {
	CreatedLab      string            `yaml:"created_lab"`
	CreatedHospital string            `yaml:"created_hospital"`
	Status          map[string]string `yaml:"status"`
}

func DefaultTemplates() Templates {
	return Templates{
		CreatedLab:      "New report booking created for patient %s (Report ID: %d)",
		CreatedHospital: "Report booking confirmed for patient %s (Report ID: %d)",
		Status: map[string]string{
			string(models.ReportSampleCollected): "Sample collected for report",
			string(models.ReportInProcess):       "Report processing started",
			string(models.ReportReady):           "Report is ready for delivery",
			string(models.ReportDelivered):       "Report has been delivered",
		},
	}
}

func LoadTemplates(path string) (Templates, error) {
	defaults := DefaultTemplates()
	if path == "" {
		return defaults, nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return defaults, err
	}

	var overrides Templates
	if err := yaml.Unmarshal(content, &overrides); err != nil {
		return defaults, err
	}

	if overrides.CreatedLab != "" {
		defaults.CreatedLab = overrides.CreatedLab
	}
	if overrides.CreatedHospital != "" {
		defaults.CreatedHospital = overrides.CreatedHospital
	}
	for status, text := range overrides.Status {
		if text != "" {
			defaults.Status[status] = text
		}
	}
	return defaults, nil
}

func (t Templates) LabCreatedMessage(patientName string, reportID uint) string {
	return fmt.Sprintf(t.CreatedLab, patientName, reportID)
}

func (t Templates) HospitalCreatedMessage(patientName string, reportID uint) string {
	return fmt.Sprintf(t.CreatedHospital, patientName, reportID)
}

// StatusMessage returns the text for a status change, or false when the
// status has no notification (newly booked reports go through the created
// messages instead).
func (t Templates) StatusMessage(status models.ReportStatus, patientName string, reportID uint) (string, bool) {
	text, ok := t.Status[string(status)]
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%s - Patient: %s (Report ID: %d)", text, patientName, reportID), true
}

// LabNotifiedOn reports whether lab admins and staff are told about a status
// change. They only care about the two terminal stages; couriers and staff
// drive the intermediate ones themselves.
func LabNotifiedOn(status models.ReportStatus) bool {
	return status == models.ReportReady || status == models.ReportDelivered
}
