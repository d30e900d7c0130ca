package utils

import (
	"testing"
	"time"
)

func init() {
	SetAssertionSecret("test-secret-key-for-testing")
}

func TestSignAssertion(t *testing.T) {
	token, err := SignAssertion("g-100", "a@x.edu", "A Person", time.Hour)
	if err != nil {
		t.Fatalf("SignAssertion() error = %v", err)
	}

	if token == "" {
		t.Error("SignAssertion() returned empty token")
	}

	if len(token) < 50 {
		t.Errorf("token seems too short: %d chars", len(token))
	}
}

func TestParseAssertion(t *testing.T) {
	token, _ := SignAssertion("g-42", "member@campus.edu", "Test Member", time.Hour)

	assertion, err := ParseAssertion(token)
	if err != nil {
		t.Fatalf("ParseAssertion() error = %v", err)
	}

	if assertion.SubjectID != "g-42" {
		t.Errorf("SubjectID = %q, expected %q", assertion.SubjectID, "g-42")
	}
	if assertion.Email != "member@campus.edu" {
		t.Errorf("Email = %q, expected %q", assertion.Email, "member@campus.edu")
	}
	if assertion.DisplayName != "Test Member" {
		t.Errorf("DisplayName = %q, expected %q", assertion.DisplayName, "Test Member")
	}
	if assertion.IssuedAt.IsZero() {
		t.Error("IssuedAt should be set")
	}
}

func TestParseAssertion_Expired(t *testing.T) {
	token, _ := SignAssertion("g-1", "a@x.edu", "A", -time.Minute)

	if _, err := ParseAssertion(token); err == nil {
		t.Error("expected error for expired assertion")
	}
}

func TestParseAssertion_Garbage(t *testing.T) {
	if _, err := ParseAssertion("not.a.token"); err == nil {
		t.Error("expected error for malformed token")
	}
}

func TestParseAssertion_MissingSubject(t *testing.T) {
	token, _ := SignAssertion("", "a@x.edu", "A", time.Hour)

	if _, err := ParseAssertion(token); err != ErrAssertionIncomplete {
		t.Errorf("expected ErrAssertionIncomplete, got %v", err)
	}
}

func TestParseAssertion_WrongIssuer(t *testing.T) {
	t.Cleanup(func() { SetAssertionExpectations("", "") })

	// Signed while a different issuer was pinned.
	SetAssertionExpectations("https://other-idp.example", "")
	token, _ := SignAssertion("g-1", "a@x.edu", "A", time.Hour)

	SetAssertionExpectations("https://sso.campus.edu", "")
	if _, err := ParseAssertion(token); err == nil {
		t.Error("expected error for assertion from the wrong issuer")
	}
}

func TestParseAssertion_WrongAudience(t *testing.T) {
	SetAssertionExpectations("", "other-service")
	token, _ := SignAssertion("g-1", "a@x.edu", "A", time.Hour)

	SetAssertionExpectations("", "alumninet")
	t.Cleanup(func() { SetAssertionExpectations("", "") })

	if _, err := ParseAssertion(token); err == nil {
		t.Error("expected error for assertion addressed to another audience")
	}
}

func TestParseAssertion_MatchingExpectations(t *testing.T) {
	SetAssertionExpectations("https://sso.campus.edu", "alumninet")
	t.Cleanup(func() { SetAssertionExpectations("", "") })

	token, err := SignAssertion("g-7", "b@x.edu", "B", time.Hour)
	if err != nil {
		t.Fatalf("SignAssertion() error = %v", err)
	}

	assertion, err := ParseAssertion(token)
	if err != nil {
		t.Fatalf("ParseAssertion() error = %v", err)
	}
	if assertion.SubjectID != "g-7" {
		t.Errorf("SubjectID = %q", assertion.SubjectID)
	}
}

func TestParseAssertion_WrongSecret(t *testing.T) {
	token, _ := SignAssertion("g-1", "a@x.edu", "A", time.Hour)

	SetAssertionSecret("a-different-secret")
	defer SetAssertionSecret("test-secret-key-for-testing")

	if _, err := ParseAssertion(token); err == nil {
		t.Error("expected error when verifying with wrong secret")
	}
}
