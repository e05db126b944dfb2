package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid join token")
	ErrTokenExpired = errors.New("join token expired")
	ErrNoRoomGrant  = errors.New("token has no room grant")
)

// Grants — права токена в комнате, по образцу видео-грантов провайдера.
type Grants struct {
	RoomJoin       bool   `json:"roomJoin"`
	Room           string `json:"room"`
	CanPublish     bool   `json:"canPublish"`
	CanSubscribe   bool   `json:"canSubscribe"`
	CanPublishData bool   `json:"canPublishData"`
}

type Claims struct {
	jwt.RegisteredClaims
	Name  string `json:"name,omitempty"` // display name
	Video Grants `json:"video"`
}

// Signer выпускает join-токены HS256 на паре api key / api secret.
// Issuer = api key, Subject = transport identity.
type Signer struct {
	apiKey    string
	apiSecret []byte
	ttl       time.Duration
}

func NewSigner(apiKey, apiSecret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &Signer{apiKey: apiKey, apiSecret: []byte(apiSecret), ttl: ttl}
}

func (s *Signer) Mint(identity, displayName, roomID string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.apiKey,
			Subject:   identity,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Name: displayName,
		Video: Grants{
			RoomJoin:       true,
			Room:           roomID,
			CanPublish:     true,
			CanSubscribe:   true,
			CanPublishData: true, // data-канал нужен и чату, и синку редактора
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.apiSecret)
	if err != nil {
		return "", fmt.Errorf("sign join token: %w", err)
	}
	return signed, nil
}

// Verify проверяет подпись, issuer, срок и наличие room-гранта.
func (s *Signer) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.apiSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != s.apiKey {
		return nil, ErrInvalidToken
	}
	if !claims.Video.RoomJoin || claims.Video.Room == "" {
		return nil, ErrNoRoomGrant
	}
	return claims, nil
}
