package identity

import (
	"testing"
	"time"

	"github.com/labbuddy/platform/pkg/common/errs"
	"github.com/labbuddy/platform/pkg/common/models"
)

func testUser() models.User {
	labID := uint(3)
	return models.User{
		ID:       17,
		Email:    "staff@lab.example",
		Role:     models.RoleLabStaff,
		LabID:    &labID,
		IsActive: true,
	}
}

func TestTokenRoundTrip(t *testing.T) {
	manager, err := NewTokenManager("0123456789abcdef", "labbuddy-test", time.Hour)
	if err != nil {
		t.Fatalf("failed to create token manager: %v", err)
	}

	token, err := manager.Issue(testUser())
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	claims, err := manager.Verify(token)
	if err != nil {
		t.Fatalf("failed to verify token: %v", err)
	}
	if claims.UserID != 17 {
		t.Fatalf("expected user id 17, got %d", claims.UserID)
	}
	if claims.Role != models.RoleLabStaff {
		t.Fatalf("expected lab staff role, got %s", claims.Role)
	}
	if claims.LabID == nil || *claims.LabID != 3 {
		t.Fatalf("expected lab id 3, got %v", claims.LabID)
	}
}

func TestTokenExpiry(t *testing.T) {
	manager, err := NewTokenManager("0123456789abcdef", "labbuddy-test", 30*time.Minute)
	if err != nil {
		t.Fatalf("failed to create token manager: %v", err)
	}

	token, err := manager.Issue(testUser())
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	manager.nowFunc = func() time.Time { return time.Now().Add(time.Hour) }
	if _, err := manager.Verify(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	} else if errs.KindOf(err) != errs.KindAuth {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestTokenWrongKeyRejected(t *testing.T) {
	issuing, _ := NewTokenManager("0123456789abcdef", "labbuddy-test", time.Hour)
	verifying, _ := NewTokenManager("fedcba9876543210", "labbuddy-test", time.Hour)

	token, err := issuing.Issue(testUser())
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	if _, err := verifying.Verify(token); err == nil {
		t.Fatal("expected token signed with another key to be rejected")
	}
}

func TestTokenWrongIssuerRejected(t *testing.T) {
	issuing, _ := NewTokenManager("0123456789abcdef", "other-issuer", time.Hour)
	verifying, _ := NewTokenManager("0123456789abcdef", "labbuddy-test", time.Hour)

	token, err := issuing.Issue(testUser())
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	if _, err := verifying.Verify(token); err == nil {
		t.Fatal("expected token with another issuer to be rejected")
	}
}

func TestTokenManagerRejectsShortSecret(t *testing.T) {
	if _, err := NewTokenManager("short", "labbuddy-test", time.Hour); err == nil {
		t.Fatal("expected short secret to be rejected")
	}
}
