package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/chathaus/friends-api/internal/core/ports"
)

// UserHandler receives account events from the identity provider's webhook.
type UserHandler struct {
	users ports.UserService
}

func NewUserHandler(users ports.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type provisionUserRequest struct {
	ClerkID  string `json:"clerk_id" validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Username string `json:"username" validate:"required"`
	ImageURL string `json:"image_url"`
}

// Provision handles POST /internal/users. It creates or refreshes the user
// mapped to an external identity. Guarded by the webhook secret middleware.
//
// @Summary      Provision a user from the identity provider
// @Tags         internal
// @Accept       json
// @Produce      json
// @Param        X-Webhook-Secret  header    string                true  "Shared webhook secret"
// @Param        body              body      provisionUserRequest  true  "Account profile"
// @Success      200               {object}  map[string]any
// @Failure      400               {object}  map[string]string
// @Failure      401               {object}  map[string]string
// @Router       /internal/users [post]
func (h *UserHandler) Provision(c echo.Context) error {
	var req provisionUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	user, err := h.users.Provision(c.Request().Context(), ports.ProvisionUserInput{
		ClerkID:  req.ClerkID,
		Email:    req.Email,
		Username: req.Username,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"user": user})
}
