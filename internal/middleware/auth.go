package middleware

import (
	"net/http"
	"strings"

	"course-enrollment-service/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	RoleStudent = "student"
	studentKey  = "student"
)

// StudentClaims is the token payload issued by the identity provider.
type StudentClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// RequireStudent authenticates the bearer token and rejects callers that are
// not students.
func RequireStudent(secret string) echo.MiddlewareFunc {
	key := []byte(secret)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			tokenStr, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(tokenStr) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			claims := &StudentClaims{}
			token, err := parser.ParseWithClaims(strings.TrimSpace(tokenStr), claims, func(token *jwt.Token) (interface{}, error) {
				return key, nil
			})
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			if claims.Subject == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token has no subject")
			}
			if claims.Role != RoleStudent {
				return echo.NewHTTPError(http.StatusForbidden, "student role required")
			}

			c.Set(studentKey, service.Student{
				ID:    claims.Subject,
				Name:  claims.Name,
				Email: claims.Email,
			})
			return next(c)
		}
	}
}

func StudentFromContext(c echo.Context) (service.Student, bool) {
	student, ok := c.Get(studentKey).(service.Student)
	return student, ok
}
