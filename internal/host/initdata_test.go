package host

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const testBotToken = "1234567890:TEST-TOKEN"

func TestVerifyInitDataRoundTrip(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	signed := SignInitData(InitDataUser{ID: 42, FirstName: "Мария", Username: "maria"}, testBotToken, now)

	user, err := VerifyInitData(signed, testBotToken, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("verification failed: %v", err)
	}
	if user.ID != 42 || user.FirstName != "Мария" || user.Username != "maria" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestVerifyInitDataRejectsTampering(t *testing.T) {
	now := time.Now()
	signed := SignInitData(InitDataUser{ID: 42}, testBotToken, now)
	tampered := strings.Replace(signed, "42", "43", 1)

	if _, err := VerifyInitData(tampered, testBotToken, now); !errors.Is(err, ErrInitDataInvalid) {
		t.Fatalf("expected ErrInitDataInvalid, got %v", err)
	}
}

func TestVerifyInitDataRejectsWrongToken(t *testing.T) {
	now := time.Now()
	signed := SignInitData(InitDataUser{ID: 42}, testBotToken, now)

	if _, err := VerifyInitData(signed, "other-token", now); !errors.Is(err, ErrInitDataInvalid) {
		t.Fatalf("expected ErrInitDataInvalid, got %v", err)
	}
}

func TestVerifyInitDataRejectsMissingHash(t *testing.T) {
	if _, err := VerifyInitData("user=%7B%22id%22%3A42%7D", testBotToken, time.Now()); !errors.Is(err, ErrInitDataInvalid) {
		t.Fatalf("expected ErrInitDataInvalid, got %v", err)
	}
}

func TestVerifyInitDataRejectsExpired(t *testing.T) {
	authDate := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	signed := SignInitData(InitDataUser{ID: 42}, testBotToken, authDate)

	if _, err := VerifyInitData(signed, testBotToken, authDate.Add(25*time.Hour)); !errors.Is(err, ErrInitDataExpired) {
		t.Fatalf("expected ErrInitDataExpired, got %v", err)
	}
	// A day minus a minute is still fine.
	if _, err := VerifyInitData(signed, testBotToken, authDate.Add(24*time.Hour-time.Minute)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDevTokenRoundTrip(t *testing.T) {
	now := time.Now()
	token, err := NewDevToken("secret", 42, "Мария", now)
	if err != nil {
		t.Fatalf("minting failed: %v", err)
	}

	user, err := VerifyDevToken("secret", token)
	if err != nil {
		t.Fatalf("verification failed: %v", err)
	}
	if user.ID != 42 || user.FirstName != "Мария" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestDevTokenRejectsWrongSecret(t *testing.T) {
	token, err := NewDevToken("secret", 42, "", time.Now())
	if err != nil {
		t.Fatalf("minting failed: %v", err)
	}
	if _, err := VerifyDevToken("other", token); !errors.Is(err, ErrDevTokenInvalid) {
		t.Fatalf("expected ErrDevTokenInvalid, got %v", err)
	}
}

func TestDevTokenRejectsExpired(t *testing.T) {
	token, err := NewDevToken("secret", 42, "", time.Now().Add(-13*time.Hour))
	if err != nil {
		t.Fatalf("minting failed: %v", err)
	}
	if _, err := VerifyDevToken("secret", token); !errors.Is(err, ErrDevTokenInvalid) {
		t.Fatalf("expected ErrDevTokenInvalid, got %v", err)
	}
}

func TestEnvironments(t *testing.T) {
	shell := ShellEnvironment{ID: 42, Name: "Мария", Token: "signed"}
	if shell.TestMode() {
		t.Fatal("shell environment with a token is not test mode")
	}
	if !(ShellEnvironment{ID: 42}).TestMode() {
		t.Fatal("tokenless shell environment is test mode")
	}

	var env Environment = TestEnvironment{}
	if !env.TestMode() || env.SessionToken() != "" {
		t.Fatal("test environment must have no session")
	}
	if env.UserID() == 0 {
		t.Fatal("test environment carries a placeholder identity")
	}
}

func TestUserRef(t *testing.T) {
	if got := UserRef(7); got != "#7" {
		t.Fatalf("got %q", got)
	}
}
