package middleware

import (
	"net/http"
	"strings"

	"farmapos/internal/apierror"
	"farmapos/internal/model"
	"farmapos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ClaimsKey = "claims"
)

// JWTClaims are the custom claims embedded in every access token.
type JWTClaims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Rol       string `json:"rol"`
	Ubicacion string `json:"ubicacion,omitempty"`
	jwt.RegisteredClaims
}

// Actor converts the claims into the service-level caller.
func (c *JWTClaims) Actor() service.Actor {
	a := service.Actor{Rol: c.Rol}
	a.UsuarioID, _ = uuid.Parse(c.UserID)
	if id, err := uuid.Parse(c.Ubicacion); err == nil {
		a.UbicacionID = &id
	}
	return a
}

// JWTAuth validates the Bearer token on every protected route.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		claims := &JWTClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})

		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Token invalido o expirado"))
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// RequireRole rejects requests whose JWT role is not in the allowed list.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		claims, ok := c.MustGet(ClaimsKey).(*JWTClaims)
		if !ok || !allowed[claims.Rol] {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("Permisos insuficientes"))
			return
		}
		c.Next()
	}
}

// RequireUbicacion rejects non-admin tokens that carry no location.
func RequireUbicacion() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil || (claims.Rol != model.RolAdmin && claims.Ubicacion == "") {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("Usuario sin ubicacion asignada"))
			return
		}
		c.Next()
	}
}

// GetClaims is a helper to retrieve typed claims from the Gin context.
func GetClaims(c *gin.Context) *JWTClaims {
	claims, _ := c.MustGet(ClaimsKey).(*JWTClaims)
	return claims
}

// GetActor returns the caller as a service.Actor.
func GetActor(c *gin.Context) service.Actor {
	return GetClaims(c).Actor()
}
