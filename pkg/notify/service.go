package notify

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/labbuddy/platform/pkg/catalog"
	"github.com/labbuddy/platform/pkg/common/logger"
	"github.com/labbuddy/platform/pkg/common/models"
	"github.com/labbuddy/platform/pkg/identity"
	"github.com/redis/go-redis/v9"
)

type Service struct {
	repo      *Repository
	users     *identity.Repository
	patients  *catalog.Repository
	templates Templates

	cache    *redis.Client
	cacheTTL time.Duration
}

func NewService(repo *Repository, users *identity.Repository, patients *catalog.Repository, templates Templates, cache *redis.Client, cacheTTL time.Duration) *Service {
	return &Service{
		repo:      repo,
		users:     users,
		patients:  patients,
		templates: templates,
		cache:     cache,
		cacheTTL:  cacheTTL,
	}
}

// OnReportCreated fans a booking notice out to everyone working the lab and,
// when the booking came through a hospital, to that hospital's users. The
// report is already committed; delivery problems are logged and swallowed.
func (s *Service) OnReportCreated(ctx context.Context, report models.Report) {
	patient, err := s.patients.GetPatient(ctx, report.PatientID)
	if err != nil {
		logger.Log.WithError(err).WithField("report_id", report.ID).Warn("skipping notifications, patient lookup failed")
		return
	}

	labUsers, err := s.users.ListActiveByLabAndRoles(ctx, report.LabID,
		models.RoleLabAdmin, models.RoleLabStaff, models.RoleLabBoy)
	if err != nil {
		logger.Log.WithError(err).WithField("lab_id", report.LabID).Warn("failed to load lab recipients")
	}
	labMessage := s.templates.LabCreatedMessage(patient.Name, report.ID)
	for _, user := range labUsers {
		s.deliver(ctx, user, report.ID, labMessage)
	}

	if report.HospitalID != nil {
		hospitalUsers, err := s.users.ListActiveByHospital(ctx, *report.HospitalID)
		if err != nil {
			logger.Log.WithError(err).WithField("hospital_id", *report.HospitalID).Warn("failed to load hospital recipients")
			return
		}
		hospitalMessage := s.templates.HospitalCreatedMessage(patient.Name, report.ID)
		for _, user := range hospitalUsers {
			s.deliver(ctx, user, report.ID, hospitalMessage)
		}
	}
}

// OnStatusChanged notifies the hospital on every templated stage and the lab
// admins and staff on the terminal ones.
func (s *Service) OnStatusChanged(ctx context.Context, report models.Report) {
	patient, err := s.patients.GetPatient(ctx, report.PatientID)
	if err != nil {
		logger.Log.WithError(err).WithField("report_id", report.ID).Warn("skipping notifications, patient lookup failed")
		return
	}
	message, ok := s.templates.StatusMessage(report.Status, patient.Name, report.ID)
	if !ok {
		return
	}

	if report.HospitalID != nil {
		hospitalUsers, err := s.users.ListActiveByHospital(ctx, *report.HospitalID)
		if err != nil {
			logger.Log.WithError(err).WithField("hospital_id", *report.HospitalID).Warn("failed to load hospital recipients")
		}
		for _, user := range hospitalUsers {
			s.deliver(ctx, user, report.ID, message)
		}
	}

	if LabNotifiedOn(report.Status) {
		labUsers, err := s.users.ListActiveByLabAndRoles(ctx, report.LabID,
			models.RoleLabAdmin, models.RoleLabStaff)
		if err != nil {
			logger.Log.WithError(err).WithField("lab_id", report.LabID).Warn("failed to load lab recipients")
			return
		}
		for _, user := range labUsers {
			s.deliver(ctx, user, report.ID, message)
		}
	}
}

func (s *Service) deliver(ctx context.Context, user models.User, reportID uint, message string) {
	if _, err := s.repo.Create(ctx, user.ID, &reportID, message); err != nil {
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"user_id":   user.ID,
			"report_id": reportID,
		}).Warn("failed to store notification")
		return
	}
	s.invalidateUnread(ctx, user.ID)

	// Email dispatch is not wired up yet; record the intent so operators can
	// see what would have gone out.
	logger.Log.WithFields(map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("email notification queued")
}

func (s *Service) ListForUser(ctx context.Context, userID uint, skip, limit int) ([]models.Notification, error) {
	return s.repo.ListForUser(ctx, userID, skip, limit)
}

// UnreadCount serves the badge counter, caching the value briefly since
// clients poll it far more often than it changes.
func (s *Service) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	key := unreadKey(userID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key).Result(); err == nil {
			if count, parseErr := strconv.ParseInt(cached, 10, 64); parseErr == nil {
				return count, nil
			}
		}
	}

	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, strconv.FormatInt(count, 10), s.cacheTTL).Err(); err != nil {
			logger.Log.WithError(err).Debug("failed to cache unread count")
		}
	}
	return count, nil
}

func (s *Service) MarkRead(ctx context.Context, id, userID uint) (bool, error) {
	changed, err := s.repo.MarkRead(ctx, id, userID)
	if err != nil {
		return false, err
	}
	if changed {
		s.invalidateUnread(ctx, userID)
	}
	return changed, nil
}

func (s *Service) invalidateUnread(ctx context.Context, userID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, unreadKey(userID)).Err(); err != nil {
		logger.Log.WithError(err).Debug("failed to invalidate unread count cache")
	}
}

func unreadKey(userID uint) string {
	return fmt.Sprintf("notify:unread:%d", userID)
}
