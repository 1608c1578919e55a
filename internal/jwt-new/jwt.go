package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidSessionToken = errors.New("invalid session token")

// SessionClaims - содержимое токена сессии витрины. Токен бэкенда сюда не кладётся,
// он хранится в состоянии сессии
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Issuer выпускает и проверяет токены сессии (HS256)
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("session secret is not set")
	}
	return &Issuer{secret: []byte(secret), ttl: ttl}, nil
}

// NewSessionID генерирует идентификатор новой гостевой сессии
func NewSessionID() string {
	return uuid.NewString()
}

// NewToken подписывает токен для сессии sid
func (i *Issuer) NewToken(sid string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		SessionID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Parse проверяет подпись и срок и возвращает id сессии
func (i *Issuer) Parse(tokenStr string) (string, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidSessionToken, err)
	}
	if _, err := uuid.Parse(claims.SessionID); err != nil {
		return "", fmt.Errorf("%w: bad sid", ErrInvalidSessionToken)
	}
	return claims.SessionID, nil
}

func (i *Issuer) TTL() time.Duration {
	return i.ttl
}
