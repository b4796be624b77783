package services

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/studybridge-backend/internal/platform/apierr"
	"github.com/yungbote/studybridge-backend/internal/types"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewAuthService("test-secret", time.Hour, newTestLogger())
	user := &types.User{ID: uuid.New(), Role: "admin"}

	token, expiresAt, err := svc.IssueToken(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatal("token already expired")
	}
	claims, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != types.RoleAdmin {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestParseTokenUnknownRoleFoldsToUser(t *testing.T) {
	svc := NewAuthService("test-secret", time.Hour, newTestLogger())
	user := &types.User{ID: uuid.New(), Role: "superuser"}
	token, _, err := svc.IssueToken(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Role != types.RoleUser {
		t.Fatalf("role = %q, want %q", claims.Role, types.RoleUser)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewAuthService("secret-one", time.Hour, newTestLogger())
	verifier := NewAuthService("secret-two", time.Hour, newTestLogger())
	token, _, err := issuer.IssueToken(&types.User{ID: uuid.New()})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	_, err = verifier.ParseToken(token)
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Code != apierr.CodeUnauthorized {
		t.Fatalf("want %s, got %v", apierr.CodeUnauthorized, err)
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	svc := NewAuthService("test-secret", time.Hour, newTestLogger())
	if _, err := svc.ParseToken("not-a-token"); err == nil {
		t.Fatal("garbage token accepted")
	}
}

func TestPasswordHashing(t *testing.T) {
	svc := NewAuthService("test-secret", time.Hour, newTestLogger())
	hash, err := svc.HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !svc.CheckPassword(hash, "hunter2hunter2") {
		t.Fatal("correct password rejected")
	}
	if svc.CheckPassword(hash, "wrong") {
		t.Fatal("wrong password accepted")
	}
}
