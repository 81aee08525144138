package adminhttp

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const errUnauthorized = "Unauthorized"

// auth validates a Bearer JWT signed with key, the same scheme as
// teacher's middleware.Auth but against a daemon-local secret instead
// of Clerk/a user-issued token — the admin surface has exactly one
// principal (the operator's Prometheus scraper), not per-user claims.
func auth(key []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
			return
		}

		rawToken := strings.TrimPrefix(header, "Bearer ")
		token, err := jwt.Parse(rawToken, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return key, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
			return
		}

		c.Next()
	}
}

// IssueToken signs a long-lived admin token for operators to hand to
// their Prometheus scrape config, claimless beyond standard registered
// claims since there is only one admin principal.
func IssueToken(key []byte) (string, error) {
	claims := jwt.RegisteredClaims{Subject: "admin"}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(key)
}
