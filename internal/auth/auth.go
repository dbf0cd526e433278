// Package auth выдаёт и проверяет подписанный токен посетителя веб-интерфейса.
// Токен хранится в cookie и связывает браузер с его состоянием на сервере.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Claims - содержимое токена посетителя.
type Claims struct {
	jwt.RegisteredClaims
	VisitorID string
}

// TokenExp - срок жизни токена.
const TokenExp = time.Hour * 3

// CookieName - имя cookie с токеном.
const CookieName = "token"

var ErrInvalidToken = errors.New("invalid visitor token")

// BuildJWTString создаёт токен для нового посетителя и возвращает его вместе
// с идентификатором посетителя.
func BuildJWTString(secret []byte) (token string, visitorID string, err error) {
	visitorID = uuid.New().String()

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenExp)),
		},
		VisitorID: visitorID,
	})

	token, err = t.SignedString(secret)
	if err != nil {
		return "", "", fmt.Errorf("sign visitor token: %w", err)
	}
	return token, visitorID, nil
}

// GetVisitorID проверяет подпись и срок действия токена.
func GetVisitorID(tokenString string, secret []byte) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return secret, nil
		})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid || claims.VisitorID == "" {
		return "", ErrInvalidToken
	}
	return claims.VisitorID, nil
}
