package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/chathaus/friends-api/internal/core/ports"
)

// ctxIdentity extracts the verified identity injected by the Auth middleware.
// A missing subject means the middleware did not run or the token carried no
// usable identity; reject with 401 before any service call.
func ctxIdentity(c echo.Context) (ports.Identity, error) {
	subject, _ := c.Get("subject").(string)
	if subject == "" {
		return ports.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	email, _ := c.Get("email").(string)
	return ports.Identity{Subject: subject, Email: email}, nil
}
