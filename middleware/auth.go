package middleware

import (
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const sessionEmailKey = "Email"

func jwtSecret() []byte {
	return []byte(os.Getenv("JWT_SECRET"))
}

// AuthRequired is a simple middleware to check the session.
func AuthRequired(c *gin.Context) {
	session := sessions.Default(c)
	user := session.Get(sessionEmailKey)
	if user == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set("email", user)
	c.Next()
}

// GenerateJWT issues the token clients attach to socket handshakes.
func GenerateJWT(email string) (string, error) {
	claims := jwt.MapClaims{
		"email": email,
		"exp":   time.Now().Add(24 * time.Hour).Unix(),
		"iat":   time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret())
}

// DecodeJWT validates a bearer token and returns the email claim.
func DecodeJWT(raw string) (string, error) {
	raw = strings.TrimPrefix(raw, "Bearer ")
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret(), nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token")
	}
	email, ok := claims["email"].(string)
	if !ok || email == "" {
		return "", errors.New("token missing email claim")
	}
	return email, nil
}

// JWT_decoder validates the Authorization header of an HTTP request
// and returns the email claim.
func JWT_decoder(c *gin.Context) (string, error) {
	raw := c.GetHeader("Authorization")
	if raw == "" {
		return "", errors.New("missing Authorization header")
	}
	return DecodeJWT(raw)
}

// Socketio_JWT_decoder extracts and validates the JWT from socket.io
// handshake auth data.
func Socketio_JWT_decoder(authData map[string]interface{}) (string, error) {
	raw, ok := authData["authorization"].(string)
	if !ok || raw == "" {
		return "", errors.New("missing authorization token")
	}
	return DecodeJWT(raw)
}
