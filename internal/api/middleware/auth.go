package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"smart-fridge/internal/infrastructure/config"
	"smart-fridge/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	msgAuthRequired = "Authorization header required"
	msgInvalidToken = "Invalid token"
)

// Auth Bearer 驗證中間件：先比對固定 token，再驗證 HMAC 簽章的 JWT
func Auth(cfg config.AuthConfig) gin.HandlerFunc {
	secret := []byte(cfg.JWTSecret)
	static := []byte(cfg.StaticToken)

	return func(c *gin.Context) {
		if !cfg.Enabled || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			abortUnauthorized(c, msgAuthRequired)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" {
			abortUnauthorized(c, msgAuthRequired)
			return
		}

		if len(static) > 0 && subtle.ConstantTimeCompare([]byte(token), static) == 1 {
			c.Next()
			return
		}

		if len(secret) > 0 {
			claims, err := parseToken(token, secret)
			if err == nil {
				if sub, _ := claims.GetSubject(); sub != "" {
					c.Set("subject", sub)
				}
				c.Next()
				return
			}
			common.LogDebug("JWT 驗證失敗", zap.Error(err), zap.String("path", c.Request.URL.Path))
		}

		abortUnauthorized(c, msgInvalidToken)
	}
}

func parseToken(tokenString string, secret []byte) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func abortUnauthorized(c *gin.Context, msg string) {
	common.LogWarn("未授權的請求",
		zap.String("reason", msg),
		zap.String("ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)
	abortJSON(c, http.StatusUnauthorized, msg)
}

// abortJSON 以 {success:false, error} 中止請求
func abortJSON(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   msg,
	})
}
