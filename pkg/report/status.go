package report

import (
	"github.com/labbuddy/platform/pkg/common/errs"
	"github.com/labbuddy/platform/pkg/common/models"
)

// statusOrder defines the report lifecycle. Transitions only move forward;
// a report never returns to an earlier stage and re-entering the current
// stage is rejected.
var statusOrder = map[models.ReportStatus]int{
	models.ReportBooked:          0,
	models.ReportSampleCollected: 1,
	models.ReportInProcess:       2,
	models.ReportReady:           3,
	models.ReportDelivered:       4,
}

func ValidStatus(status models.ReportStatus) bool {
	_, ok := statusOrder[status]
	return ok
}

func CanTransition(from, to models.ReportStatus) error {
	current, ok := statusOrder[from]
	if !ok {
		return errs.Validation("unknown report status %q", from)
	}
	next, ok := statusOrder[to]
	if !ok {
		return errs.Validation("unknown report status %q", to)
	}
	if next <= current {
		return errs.Validation("cannot move report from %s to %s", from, to)
	}
	return nil
}
