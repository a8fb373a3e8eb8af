package identity

import (
	"testing"

	"github.com/labbuddy/platform/pkg/common/errs"
	"github.com/labbuddy/platform/pkg/common/models"
)

func TestAuthorize(t *testing.T) {
	admin := models.User{ID: 1, Role: models.RoleLabAdmin, IsActive: true}
	courier := models.User{ID: 2, Role: models.RoleLabBoy, IsActive: true}

	if err := Authorize(admin, models.RoleLabAdmin); err != nil {
		t.Fatalf("expected admin to pass: %v", err)
	}
	if err := Authorize(courier, models.RoleLabAdmin, models.RoleLabStaff); err == nil {
		t.Fatal("expected courier to be rejected for staff-only access")
	} else if errs.KindOf(err) != errs.KindForbidden {
		t.Fatalf("expected forbidden error, got %v", err)
	}
	if err := Authorize(courier, models.RoleLabAdmin, models.RoleLabBoy); err != nil {
		t.Fatalf("expected courier to pass when its role is listed: %v", err)
	}
}

func TestAuthorizeInactiveUser(t *testing.T) {
	inactive := models.User{ID: 3, Role: models.RoleLabAdmin, IsActive: false}
	if err := Authorize(inactive, models.RoleLabAdmin); err == nil {
		t.Fatal("expected inactive user to be rejected regardless of role")
	}
}

func TestRoleValid(t *testing.T) {
	for _, role := range []models.Role{
		models.RoleLabAdmin,
		models.RoleLabStaff,
		models.RoleLabBoy,
		models.RoleHospitalUser,
		models.RolePatient,
	} {
		if !role.Valid() {
			t.Errorf("expected role %s to be valid", role)
		}
	}
	if models.Role("SUPERUSER").Valid() {
		t.Error("expected unknown role to be invalid")
	}
}
