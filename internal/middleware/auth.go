package middleware

import (
	"net/http"
	"strings"

	"melodia/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const claimsKey = "claims"

// Roles carried in the JWT.
const (
	RolCliente       = "cliente"
	RolAdministrador = "administrador"
)

// Claims is the JWT payload for both access and refresh tokens. TokenType
// distinguishes them so a refresh token cannot authenticate a request.
type Claims struct {
	UserID    string `json:"uid"`
	Email     string `json:"email"`
	Rol       string `json:"rol"`
	TokenType string `json:"typ"` // "access" | "refresh"
	jwt.RegisteredClaims
}

// IsAdmin reports whether the token belongs to an administrator.
func (c *Claims) IsAdmin() bool { return c.Rol == RolAdministrador }

// MustUserID returns the subject as a UUID. Tokens are issued by us, so a
// malformed uid means a bug, not user input.
func (c *Claims) MustUserID() uuid.UUID {
	id, _ := uuid.Parse(c.UserID)
	return id
}

// Auth validates the Bearer token and stores the claims in the context.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("token requerido"))
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid || claims.TokenType != "access" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("token inválido o expirado"))
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireRole rejects tokens whose role is not in the allowed set. Must run
// after Auth.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("token requerido"))
			return
		}
		for _, role := range roles {
			if claims.Rol == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("permisos insuficientes"))
	}
}

// GetClaims returns the authenticated claims, or nil outside Auth.
func GetClaims(c *gin.Context) *Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}
