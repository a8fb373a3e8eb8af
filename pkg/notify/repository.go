package notify

import (
	"context"
	"time"

	"github.com/labbuddy/platform/pkg/common/models"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type notificationModel struct {
	ID       uint      `gorm:"primaryKey;column:notification_id"`
	UserID   uint      `gorm:"column:user_id;index"`
	ReportID *uint     `gorm:"column:report_id;index"`
	Message  string    `gorm:"column:message"`
	Status   string    `gorm:"column:status"`
	SentAt   time.Time `gorm:"column:sent_at"`
}

func (notificationModel) TableName() string { return "notifications" }

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&notificationModel{})
}

func (r *Repository) Create(ctx context.Context, userID uint, reportID *uint, message string) (models.Notification, error) {
	notification := notificationModel{
		UserID:   userID,
		ReportID: reportID,
		Message:  message,
		Status:   string(models.NotificationSent),
		SentAt:   time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&notification).Error; err != nil {
		return models.Notification{}, err
	}
	return mapNotification(notification), nil
}

func (r *Repository) ListForUser(ctx context.Context, userID uint, skip, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	if skip < 0 {
		skip = 0
	}
	var rows []notificationModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("notification_id desc").
		Offset(skip).Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	notifications := make([]models.Notification, 0, len(rows))
	for _, row := range rows {
		notifications = append(notifications, mapNotification(row))
	}
	return notifications, nil
}

func (r *Repository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&notificationModel{}).
		Where("user_id = ? AND status <> ?", userID, string(models.NotificationRead)).
		Count(&count).Error
	return count, err
}

// MarkRead flips a notification to READ. It is idempotent: true whenever
// the caller owns the row (already-read included), false when there is no
// such notification for this user.
func (r *Repository) MarkRead(ctx context.Context, id, userID uint) (bool, error) {
	result := r.db.WithContext(ctx).Model(&notificationModel{}).
		Where("notification_id = ? AND user_id = ?", id, userID).
		Update("status", string(models.NotificationRead))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func mapNotification(row notificationModel) models.Notification {
	return models.Notification{
		ID:       row.ID,
		UserID:   row.UserID,
		ReportID: row.ReportID,
		Message:  row.Message,
		Status:   models.NotificationStatus(row.Status),
		SentAt:   row.SentAt,
	}
}
