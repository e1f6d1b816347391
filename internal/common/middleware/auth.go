package middleware

import (
	"github.com/gin-gonic/gin"

	"user-account-service/internal/common/errors"
)

const (
	TokenQueryParam = "token"
	tokenKey        = "token"
)

// RequireToken rejects requests without a ?token= query parameter. Whether the
// token belongs to a user is decided by the service.
func RequireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := c.GetQuery(TokenQueryParam)
		if !ok || token == "" {
			_ = c.Error(errors.NewBadRequestError("A token is required."))
			c.Abort()
			return
		}

		c.Set(tokenKey, token)
		c.Next()
	}
}

// Token returns the token stored by RequireToken.
func Token(c *gin.Context) string {
	return c.GetString(tokenKey)
}
