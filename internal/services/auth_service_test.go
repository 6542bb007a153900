package services

import (
	"errors"
	"testing"

	"prato-rinaldo/internal/auth"
	"prato-rinaldo/internal/models"
)

func TestRegisterAndLogin(t *testing.T) {
	auth.InitJWT("test-secret")
	db := newTestDB(t)
	svc := NewAuthService(db)

	user, err := svc.Register(testTenant, "Mario Rossi", "  Mario.Rossi@Example.test ", "una-password-sicura")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Email != "mario.rossi@example.test" {
		t.Errorf("expected normalized email, got %q", user.Email)
	}
	if user.VerificationStatus != models.VerificationPending {
		t.Errorf("expected new users to start pending, got %s", user.VerificationStatus)
	}
	if user.PasswordHash == "una-password-sicura" {
		t.Error("password stored in clear")
	}

	token, logged, err := svc.Login("mario.rossi@example.test", "una-password-sicura")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" || logged.ID != user.ID {
		t.Errorf("unexpected login result")
	}

	claims, err := auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("token validation failed: %v", err)
	}
	if claims.UserID != user.ID || claims.TenantID != testTenant {
		t.Errorf("claims do not match the user: %+v", claims)
	}
}

func TestRegisterValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db)

	if _, err := svc.Register(testTenant, "", "a@b.test", "password123"); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for empty name, got %v", err)
	}
	if _, err := svc.Register(testTenant, "Mario", "not-an-email", "password123"); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for bad email, got %v", err)
	}
	if _, err := svc.Register(testTenant, "Mario", "a@b.test", "corta"); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for short password, got %v", err)
	}

	if _, err := svc.Register(testTenant, "Mario", "dup@example.test", "password123"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := svc.Register(testTenant, "Altro Mario", "dup@example.test", "password123"); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for duplicate email, got %v", err)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	auth.InitJWT("test-secret")
	db := newTestDB(t)
	svc := NewAuthService(db)

	if _, err := svc.Register(testTenant, "Mario", "mario@example.test", "password123"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, _, err := svc.Login("mario@example.test", "sbagliata"); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation on wrong password, got %v", err)
	}
	if _, _, err := svc.Login("sconosciuto@example.test", "password123"); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation on unknown email, got %v", err)
	}
}
