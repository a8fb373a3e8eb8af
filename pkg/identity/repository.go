package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/labbuddy/platform/pkg/common/errs"
	"github.com/labbuddy/platform/pkg/common/models"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type userModel struct {
	ID           uint       `gorm:"primaryKey;column:user_id"`
	Name         string     `gorm:"column:name"`
	Email        string     `gorm:"column:email;uniqueIndex"`
	Phone        string     `gorm:"column:phone"`
	PasswordHash string     `gorm:"column:password_hash"`
	Role         string     `gorm:"column:role;index"`
	LabID        *uint      `gorm:"column:lab_id;index"`
	HospitalID   *uint      `gorm:"column:hospital_id;index"`
	IsActive     bool       `gorm:"column:is_active"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    *time.Time `gorm:"column:updated_at"`
}

func (userModel) TableName() string { return "users" }

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&userModel{})
}

type CreateUserInput struct {
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Role         models.Role
	LabID        *uint
	HospitalID   *uint
}

func (r *Repository) CreateUser(ctx context.Context, input CreateUserInput) (models.User, error) {
	normalizedEmail := strings.ToLower(strings.TrimSpace(input.Email))

	var existing int64
	if err := r.db.WithContext(ctx).Model(&userModel{}).Where("email = ?", normalizedEmail).Count(&existing).Error; err != nil {
		return models.User{}, err
	}
	if existing > 0 {
		return models.User{}, errs.Validation("email already registered")
	}

	user := userModel{
		Name:         input.Name,
		Email:        normalizedEmail,
		Phone:        input.Phone,
		PasswordHash: input.PasswordHash,
		Role:         string(input.Role),
		LabID:        input.LabID,
		HospitalID:   input.HospitalID,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}

	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		return models.User{}, err
	}

	return mapUserModel(user), nil
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var user userModel
	err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, errs.NotFound("user not found")
	}
	if err != nil {
		return models.User{}, err
	}
	return mapUserModel(user), nil
}

func (r *Repository) GetByID(ctx context.Context, id uint) (models.User, error) {
	var user userModel
	err := r.db.WithContext(ctx).Where("user_id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, errs.NotFound("user not found")
	}
	if err != nil {
		return models.User{}, err
	}
	return mapUserModel(user), nil
}

func (r *Repository) GetPasswordHash(ctx context.Context, id uint) (string, error) {
	var user userModel
	err := r.db.WithContext(ctx).Select("password_hash").Where("user_id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", errs.NotFound("user not found")
	}
	if err != nil {
		return "", err
	}
	return user.PasswordHash, nil
}

func (r *Repository) Deactivate(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&userModel{}).Where("user_id = ?", id).Updates(map[string]interface{}{
		"is_active":  false,
		"updated_at": time.Now().UTC(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NotFound("user not found")
	}
	return nil
}

// ListActiveByLabAndRoles returns active users of a lab holding any of the
// given roles. Used to pick notification recipients for lab-side events.
func (r *Repository) ListActiveByLabAndRoles(ctx context.Context, labID uint, roles ...models.Role) ([]models.User, error) {
	roleNames := make([]string, 0, len(roles))
	for _, role := range roles {
		roleNames = append(roleNames, string(role))
	}

	var rows []userModel
	err := r.db.WithContext(ctx).
		Where("lab_id = ? AND role IN ? AND is_active = ?", labID, roleNames, true).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	users := make([]models.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, mapUserModel(row))
	}
	return users, nil
}

// ListActiveByHospital returns the active hospital-side users for a hospital.
func (r *Repository) ListActiveByHospital(ctx context.Context, hospitalID uint) ([]models.User, error) {
	var rows []userModel
	err := r.db.WithContext(ctx).
		Where("hospital_id = ? AND role = ? AND is_active = ?", hospitalID, string(models.RoleHospitalUser), true).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	users := make([]models.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, mapUserModel(row))
	}
	return users, nil
}

func mapUserModel(user userModel) models.User {
	return models.User{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		Phone:      user.Phone,
		Role:       models.Role(user.Role),
		LabID:      user.LabID,
		HospitalID: user.HospitalID,
		IsActive:   user.IsActive,
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
	}
}
