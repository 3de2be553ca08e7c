package middleware

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/crypto/bcrypt"
)

// Credentials configure basic auth. PasswordHash is a bcrypt hash and wins
// over Password when both are set.
type Credentials struct {
	Username     string
	Password     string
	PasswordHash string
}

// Enabled reports whether any password is configured.
func (c Credentials) Enabled() bool {
	return c.Password != "" || c.PasswordHash != ""
}

// Verify checks a username and password pair.
func (c Credentials) Verify(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.Username)) == 1
	var passOK bool
	if c.PasswordHash != "" {
		passOK = bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(c.Password)) == 1
	}
	return userOK && passOK
}

// BasicAuth returns the basic auth middleware, or a pass-through one when no
// password is configured.
func BasicAuth(creds Credentials) echo.MiddlewareFunc {
	if !creds.Enabled() {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return echomw.BasicAuthWithConfig(echomw.BasicAuthConfig{
		Realm: "bebop",
		Validator: func(username, password string, _ echo.Context) (bool, error) {
			return creds.Verify(username, password), nil
		},
	})
}
