package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestSigner_MintVerify(t *testing.T) {
	s := NewSigner("api-key", "super-secret", time.Hour)

	raw, err := s.Mint("identity-1", "Alice", "room-42")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	claims, err := s.Verify(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "identity-1" {
		t.Fatalf("subject = %q", claims.Subject)
	}
	if claims.Name != "Alice" {
		t.Fatalf("name = %q", claims.Name)
	}
	if claims.Video.Room != "room-42" || !claims.Video.RoomJoin {
		t.Fatalf("room grant = %+v", claims.Video)
	}
	if !claims.Video.CanPublishData {
		t.Fatal("data grant must be set")
	}
}

func TestSigner_WrongSecret(t *testing.T) {
	raw, err := NewSigner("api-key", "secret-a", time.Hour).Mint("id", "Bob", "room")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	if _, err := NewSigner("api-key", "secret-b", time.Hour).Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestSigner_WrongIssuer(t *testing.T) {
	raw, err := NewSigner("key-a", "secret", time.Hour).Mint("id", "Bob", "room")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	if _, err := NewSigner("key-b", "secret", time.Hour).Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestSigner_Expired(t *testing.T) {
	s := NewSigner("api-key", "secret", time.Hour)

	now := time.Now().Add(-2 * time.Hour)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "api-key",
			Subject:   "id",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
		Video: Grants{RoomJoin: true, Room: "room"},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := s.Verify(raw); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

func TestSigner_NoRoomGrant(t *testing.T) {
	s := NewSigner("api-key", "secret", time.Hour)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "api-key",
			Subject:   "id",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := s.Verify(raw); !errors.Is(err, ErrNoRoomGrant) {
		t.Fatalf("err = %v, want ErrNoRoomGrant", err)
	}
}
