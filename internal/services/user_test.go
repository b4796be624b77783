package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yungbote/studybridge-backend/internal/platform/apierr"
	"github.com/yungbote/studybridge-backend/internal/repos"
	"github.com/yungbote/studybridge-backend/internal/types"
)

func newUserService(t *testing.T) UserService {
	t.Helper()
	gdb := newTestDB(t)
	log := newTestLogger()
	auth := NewAuthService("test-secret", time.Hour, log)
	return NewUserService(repos.NewUserRepo(gdb, log), auth, log)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, types.CreateUserRequest{
		Email:           "Student@Example.com",
		Password:        "correct-horse",
		ConfirmPassword: "correct-horse",
		Name:            "Student",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if created.User.Email != "student@example.com" {
		t.Fatalf("email not lowercased: %q", created.User.Email)
	}
	if created.User.Role != types.RoleUser {
		t.Fatalf("role = %q, want user", created.User.Role)
	}
	if created.Token == "" {
		t.Fatal("no token issued")
	}

	// Login matches the email case-insensitively.
	logged, err := svc.Login(ctx, types.LoginRequest{Email: "STUDENT@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if logged.User.ID != created.User.ID {
		t.Fatal("login resolved wrong user")
	}
}

func TestRegisterPasswordMismatch(t *testing.T) {
	svc := newUserService(t)
	_, err := svc.Register(context.Background(), types.CreateUserRequest{
		Email:           "a@example.com",
		Password:        "one-password",
		ConfirmPassword: "another-password",
		Name:            "A",
	})
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Code != apierr.CodeValidation {
		t.Fatalf("want %s, got %v", apierr.CodeValidation, err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()
	req := types.CreateUserRequest{
		Email: "dup@example.com", Password: "password-one", ConfirmPassword: "password-one", Name: "D",
	}
	if _, err := svc.Register(ctx, req); err != nil {
		t.Fatalf("first register: %v", err)
	}
	req.Email = "DUP@example.com"
	_, err := svc.Register(ctx, req)
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Code != apierr.CodeValidation {
		t.Fatalf("duplicate email accepted: %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()
	if _, err := svc.Register(ctx, types.CreateUserRequest{
		Email: "x@example.com", Password: "password-one", ConfirmPassword: "password-one", Name: "X",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := svc.Login(ctx, types.LoginRequest{Email: "x@example.com", Password: "nope"})
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Code != apierr.CodeUnauthorized {
		t.Fatalf("want %s, got %v", apierr.CodeUnauthorized, err)
	}
	// Unknown emails get the same answer as wrong passwords.
	_, err = svc.Login(ctx, types.LoginRequest{Email: "ghost@example.com", Password: "nope"})
	if !errors.As(err, &ae) || ae.Code != apierr.CodeUnauthorized {
		t.Fatalf("unknown email leaked: %v", err)
	}
}
