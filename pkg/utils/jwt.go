package utils

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// The gateway issues no tokens of its own in normal operation: staff tokens
// come from the main backend and are validated here with the shared secret.
// GenerateJWT exists for tooling and tests.

var secretKey []byte

func SetSecret(key string) {
	secretKey = []byte(key)
}

func GenerateJWT(userID, email, role string, expiry time.Duration) (string, error) {
	if len(secretKey) == 0 {
		return "", fmt.Errorf("jwt secret not set")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"role":  role,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(expiry).Unix(),
	})

	return token.SignedString(secretKey)
}

func ValidateJWT(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secretKey, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

func GenerateUUID() string {
	return uuid.NewString()
}

type Claims struct {
	UserID string
	Email  string
	Role   string
}

// ExtractClaims extracts JWT claims from the request header or cookie
func ExtractClaims(r *http.Request) (*Claims, error) {
	tokenString := ""
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
		tokenString = strings.TrimPrefix(authHeader, "Bearer ")
	} else {
		cookie, err := r.Cookie("accessToken")
		if err == nil {
			tokenString = cookie.Value
		}
	}

	if tokenString == "" {
		return nil, fmt.Errorf("no token found")
	}

	mapClaims, err := ValidateJWT(tokenString)
	if err != nil {
		return nil, err
	}

	userID, _ := mapClaims["sub"].(string)
	email, _ := mapClaims["email"].(string)
	role, _ := mapClaims["role"].(string)

	return &Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
	}, nil
}
