package main

import (
	"strings"
	"testing"
)

func TestRegisterLoginValidate(t *testing.T) {
	db := openTestDB(t)
	auth := NewAuth(db)

	id, token, err := auth.Register("pilot", "hunter2")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if id == 0 || token == "" {
		t.Fatal("register should return an id and a token")
	}

	// Token resume
	gotID, gotUser, err := auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if gotID != id || gotUser != "pilot" {
		t.Errorf("expected (%d, pilot), got (%d, %s)", id, gotID, gotUser)
	}

	// Login with the right and wrong passwords
	loginID, _, err := auth.Login("pilot", "hunter2", "1.2.3.4")
	if err != nil || loginID != id {
		t.Errorf("login should succeed: %v", err)
	}
	if _, _, err := auth.Login("pilot", "wrong", "1.2.3.4"); err == nil {
		t.Error("wrong password should fail")
	}
	if _, _, err := auth.Login("nobody", "hunter2", "1.2.3.4"); err == nil {
		t.Error("unknown user should fail")
	}
}

func TestRegisterValidation(t *testing.T) {
	db := openTestDB(t)
	auth := NewAuth(db)

	if _, _, err := auth.Register("x", "hunter2"); err == nil {
		t.Error("too-short username should fail")
	}
	if _, _, err := auth.Register("pilot", "abc"); err == nil {
		t.Error("too-short password should fail")
	}

	if _, _, err := auth.Register("pilot", "hunter2"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, _, err := auth.Register("pilot", "hunter2"); err == nil {
		t.Error("duplicate username should fail")
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	db := openTestDB(t)
	auth := NewAuth(db)

	if _, _, err := auth.ValidateToken("not-a-token"); err == nil {
		t.Error("garbage token should fail validation")
	}
}

func TestSecretPersistsAcrossRestart(t *testing.T) {
	db := openTestDB(t)

	a1 := NewAuth(db)
	_, token, err := a1.Register("pilot", "hunter2")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	// A second Auth over the same database must accept the old token.
	a2 := NewAuth(db)
	if _, _, err := a2.ValidateToken(token); err != nil {
		t.Errorf("token should survive a restart: %v", err)
	}
}

func TestLoginRateLimit(t *testing.T) {
	db := openTestDB(t)
	auth := NewAuth(db)

	for i := 0; i < maxLoginAttempts; i++ {
		auth.Login("nobody", "x", "9.9.9.9")
	}
	_, _, err := auth.Login("nobody", "x", "9.9.9.9")
	if err == nil || !strings.Contains(err.Error(), "too many") {
		t.Errorf("expected rate limit error, got %v", err)
	}
}

func TestGenerateGuestName(t *testing.T) {
	name := GenerateGuestName()
	if !strings.HasPrefix(name, "Guest_") || len(name) != len("Guest_")+6 {
		t.Errorf("unexpected guest name %q", name)
	}
}
