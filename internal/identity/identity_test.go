package identity

import (
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v4"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("SignedString() error: %v", err)
	}
	return tok
}

func TestResolve_PrefersConfiguredUserID(t *testing.T) {
	tok := signedToken(t, jwt.MapClaims{"sub": "u-token"})

	id, err := Resolve(" u1 ", "Sam Park", tok)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if id.UserID != "u1" {
		t.Errorf("UserID = %q, want %q", id.UserID, "u1")
	}
	if id.Name != "Sam Park" {
		t.Errorf("Name = %q, want %q", id.Name, "Sam Park")
	}
	if id.Source != "config" {
		t.Errorf("Source = %q, want config", id.Source)
	}
}

func TestResolve_FromTokenSubject(t *testing.T) {
	tok := signedToken(t, jwt.MapClaims{"sub": "u2", "firstName": "Ann", "lastName": "Lee"})

	id, err := Resolve("", "", tok)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if id.UserID != "u2" {
		t.Errorf("UserID = %q, want %q", id.UserID, "u2")
	}
	if id.Name != "Ann Lee" {
		t.Errorf("Name = %q, want %q", id.Name, "Ann Lee")
	}
	if id.Source != "token" {
		t.Errorf("Source = %q, want token", id.Source)
	}
}

func TestResolve_DisplayNameOverridesTokenName(t *testing.T) {
	tok := signedToken(t, jwt.MapClaims{"sub": "u2", "name": "ann"})

	id, err := Resolve("", "Ann L.", tok)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if id.Name != "Ann L." {
		t.Errorf("Name = %q, want %q", id.Name, "Ann L.")
	}
}

func TestResolve_Missing(t *testing.T) {
	_, err := Resolve("", "", "")
	if !errors.Is(err, ErrMissing) {
		t.Errorf("Resolve() error = %v, want ErrMissing", err)
	}
}

func TestFromToken_NoSubject(t *testing.T) {
	tok := signedToken(t, jwt.MapClaims{"name": "nobody"})

	_, err := FromToken(tok)
	if !errors.Is(err, ErrMissing) {
		t.Errorf("FromToken() error = %v, want ErrMissing", err)
	}
}

func TestFromToken_Garbage(t *testing.T) {
	if _, err := FromToken("not-a-jwt"); err == nil {
		t.Error("FromToken() should fail for a malformed token")
	}
}
