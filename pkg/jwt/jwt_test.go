package jwt

import (
	"errors"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "staff_messenger/pkg/errors"
)

const testSecret = "unit-test-secret"

func TestParseTokenRoundTrip(t *testing.T) {
	userID := uuid.New()
	token, err := GenerateToken(userID, "ada@example.com", "Ada", "Lovelace", testSecret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	claims, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != userID.String() {
		t.Errorf("user id mismatch: %q", claims.UserID)
	}
	if claims.Email != "ada@example.com" || claims.FirstName != "Ada" || claims.LastName != "Lovelace" {
		t.Errorf("identity claims mismatch: %+v", claims)
	}
}

func TestParseTokenExpired(t *testing.T) {
	token, err := GenerateToken(uuid.New(), "a@b.c", "A", "B", testSecret, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ParseToken(token, testSecret); !errors.Is(err, apperrors.ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken(uuid.New(), "a@b.c", "A", "B", testSecret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ParseToken(token, "some-other-secret"); !errors.Is(err, apperrors.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseTokenGarbage(t *testing.T) {
	if _, err := ParseToken("not.a.token", testSecret); !errors.Is(err, apperrors.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseTokenRejectsNonUUIDSubject(t *testing.T) {
	now := time.Now()
	raw := &Claims{
		UserID: "employee-42",
		Email:  "a@b.c",
		RegisteredClaims: jwtlib.RegisteredClaims{
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, raw).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ParseToken(token, testSecret); !errors.Is(err, apperrors.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for non-uuid user id, got %v", err)
	}
}
