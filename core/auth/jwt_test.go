package auth

import (
	"testing"
	"time"

	"melodex/apperr"
)

func TestTokenRoundTrip(t *testing.T) {
	v := NewVerifier("test-secret", time.Hour)

	token, err := v.GenerateToken("507f1f77bcf86cd799439011", "a@b.com", RoleAuthor)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := v.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if claims.UserID != "507f1f77bcf86cd799439011" {
		t.Errorf("UserID = %q", claims.UserID)
	}
	if claims.Email != "a@b.com" {
		t.Errorf("Email = %q", claims.Email)
	}
	if claims.Role != RoleAuthor {
		t.Errorf("Role = %q", claims.Role)
	}
}

func TestExpiredToken(t *testing.T) {
	v := NewVerifier("test-secret", -time.Minute)
	token, err := v.GenerateToken("507f1f77bcf86cd799439011", "a@b.com", RoleUser)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	_, err = v.VerifyToken(token)
	if !apperr.IsKind(err, apperr.KindTokenExpired) {
		t.Fatalf("err = %v, want TokenExpired", err)
	}
}

func TestWrongSecret(t *testing.T) {
	issuer := NewVerifier("secret-a", time.Hour)
	verifier := NewVerifier("secret-b", time.Hour)

	token, err := issuer.GenerateToken("507f1f77bcf86cd799439011", "a@b.com", RoleUser)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	_, err = verifier.VerifyToken(token)
	if !apperr.IsKind(err, apperr.KindUnauthorized) {
		t.Fatalf("err = %v, want Unauthorized", err)
	}
}

func TestGarbageToken(t *testing.T) {
	v := NewVerifier("test-secret", time.Hour)
	if _, err := v.VerifyToken("not.a.token"); !apperr.IsKind(err, apperr.KindUnauthorized) {
		t.Fatalf("err = %v, want Unauthorized", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !CheckPasswordHash("correct horse battery staple", hash) {
		t.Error("correct password rejected")
	}
	if CheckPasswordHash("wrong", hash) {
		t.Error("wrong password accepted")
	}
}
