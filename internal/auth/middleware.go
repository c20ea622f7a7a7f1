package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const viewerIDKey contextKey = "authViewerID"

// QueryTokenParam carries the token on websocket upgrades, where browsers cannot set headers.
const QueryTokenParam = "access_token"

var errMissingSecret = errors.New("missing JWT secret")

// GetViewerID retrieves the authenticated subject from context.
func GetViewerID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if value, ok := ctx.Value(viewerIDKey).(string); ok && value != "" {
		return value, true
	}
	return "", false
}

// JWTMiddleware validates HS256 bearer tokens and injects the viewer identity.
func JWTMiddleware(secret, audience string) gin.HandlerFunc {
	secret = strings.TrimSpace(secret)
	audience = strings.TrimSpace(audience)

	return func(c *gin.Context) {
		tokenString, err := tokenFromRequest(c.Request)
		if err != nil {
			unauthorized(c, err.Error())
			return
		}

		subject, err := verify(tokenString, secret, audience)
		if err != nil {
			unauthorized(c, err.Error())
			return
		}

		ctx := context.WithValue(c.Request.Context(), viewerIDKey, subject)
		c.Request = c.Request.WithContext(ctx)
		c.Set(string(viewerIDKey), subject)

		c.Next()
	}
}

// IssueToken signs a token for viewerID. It is used by tooling and tests.
func IssueToken(secret, audience, viewerID string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", errMissingSecret
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   viewerID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if audience != "" {
		claims.Audience = jwt.ClaimStrings{audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func verify(tokenString, secret, audience string) (string, error) {
	if secret == "" {
		return "", errMissingSecret
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid token")
	}
	if audience != "" && !containsAudience(claims.Audience, audience) {
		return "", errors.New("invalid audience")
	}
	if claims.Subject == "" {
		return "", errors.New("missing subject")
	}
	return claims.Subject, nil
}

func tokenFromRequest(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" && isWebsocketUpgrade(r) {
		if token := strings.TrimSpace(r.URL.Query().Get(QueryTokenParam)); token != "" {
			return token, nil
		}
	}
	return extractBearerToken(header)
}

func isWebsocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

func extractBearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("authorization header required")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("token missing")
	}
	return token, nil
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}

func containsAudience(claims jwt.ClaimStrings, expected string) bool {
	for _, aud := range claims {
		if aud == expected {
			return true
		}
	}
	return false
}
