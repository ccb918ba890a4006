package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	jwtSecretKey []byte
	tokenExpiry  = 72 * time.Hour
)

// Configure sets the signing secret and token lifetime. Must be called once
// at startup before any token is issued or validated.
func Configure(secret string, expiry time.Duration) {
	jwtSecretKey = []byte(secret)
	if expiry > 0 {
		tokenExpiry = expiry
	}
}

// GenerateToken creates a signed JWT for the given user ID.
func GenerateToken(userID int64) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(tokenExpiry).Unix(),
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(jwtSecretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ValidateToken parses and validates a JWT token string.
// It returns the user ID (subject) if the token is valid.
func ValidateToken(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecretKey, nil
	})
	if err != nil {
		return 0, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		// "sub" comes back as float64, JSON's number type.
		userIDFloat, ok := claims["sub"].(float64)
		if !ok {
			return 0, errors.New("invalid subject claim")
		}
		return int64(userIDFloat), nil
	}

	return 0, errors.New("invalid token")
}
