package service

import (
	"strings"
	"testing"
)

func TestJWTRoundTrip(t *testing.T) {
	InitJWT("test-secret")

	token, err := GenerateJWT(42)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	userID, err := ParseJWT(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if userID != 42 {
		t.Fatalf("user id = %d, want 42", userID)
	}
}

func TestParseJWTRejectsTampered(t *testing.T) {
	InitJWT("test-secret")

	token, err := GenerateJWT(42)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + ".AAAA" + parts[2][4:]
	if _, err := ParseJWT(tampered); err == nil {
		t.Fatal("tampered token accepted")
	}
}

func TestParseJWTRejectsGarbage(t *testing.T) {
	InitJWT("test-secret")

	if _, err := ParseJWT("not-a-token"); err == nil {
		t.Fatal("garbage accepted")
	}
}
