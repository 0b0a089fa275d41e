package security

import (
	"errors"
	"testing"
	"time"
)

func TestIssueAndParseUserToken(t *testing.T) {
	token, errIssue := IssueUserToken("test-secret", time.Hour, 42, true)
	if errIssue != nil {
		t.Fatalf("issue token: %v", errIssue)
	}

	claims, errParse := ParseUserToken("test-secret", token)
	if errParse != nil {
		t.Fatalf("parse token: %v", errParse)
	}
	if claims.UserID != 42 {
		t.Fatalf("user id = %d, want 42", claims.UserID)
	}
	if !claims.IsAdmin {
		t.Fatalf("expected admin claim to survive the round trip")
	}
}

func TestParseUserToken_WrongSecret(t *testing.T) {
	token, errIssue := IssueUserToken("test-secret", time.Hour, 7, false)
	if errIssue != nil {
		t.Fatalf("issue token: %v", errIssue)
	}
	if _, errParse := ParseUserToken("other-secret", token); !errors.Is(errParse, ErrInvalidToken) {
		t.Fatalf("error = %v, want ErrInvalidToken", errParse)
	}
}

func TestParseUserToken_Expired(t *testing.T) {
	token, errIssue := IssueUserToken("test-secret", -time.Minute, 7, false)
	if errIssue != nil {
		t.Fatalf("issue token: %v", errIssue)
	}
	if _, errParse := ParseUserToken("test-secret", token); !errors.Is(errParse, ErrInvalidToken) {
		t.Fatalf("error = %v, want ErrInvalidToken", errParse)
	}
}

func TestIssueUserToken_EmptySecret(t *testing.T) {
	if _, errIssue := IssueUserToken(" ", time.Hour, 7, false); errIssue == nil {
		t.Fatalf("expected issuing with empty secret to fail")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hashed, errHash := HashPassword("correct horse battery")
	if errHash != nil {
		t.Fatalf("hash password: %v", errHash)
	}
	if !VerifyPassword(hashed, "correct horse battery") {
		t.Fatalf("correct password rejected")
	}
	if VerifyPassword(hashed, "wrong password") {
		t.Fatalf("wrong password accepted")
	}
}
