package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/chathaus/friends-api/internal/core/ports"
)

// RequestHandler handles HTTP requests for the friend-request lifecycle and
// its read-side projections. Domain errors propagate to the central error
// handler for status mapping.
type RequestHandler struct {
	requests ports.RequestService
	queries  ports.QueryService
}

func NewRequestHandler(requests ports.RequestService, queries ports.QueryService) *RequestHandler {
	return &RequestHandler{requests: requests, queries: queries}
}

// Create handles POST /v1/requests.
//
// @Summary      Send a friend request
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createRequestRequest  true  "Target user's email"
// @Success      201   {object}  createRequestResponse
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/requests [post]
func (h *RequestHandler) Create(c echo.Context) error {
	var req createRequestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	ident, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	id, err := h.requests.Create(c.Request().Context(), ident, req.Email)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, createRequestResponse{RequestID: id})
}

// Accept handles POST /v1/requests/:id/accept.
//
// @Summary      Accept a friend request
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request id"
// @Success      200  {object}  acceptRequestResponse
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /v1/requests/{id}/accept [post]
func (h *RequestHandler) Accept(c echo.Context) error {
	ident, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	conversationID, err := h.requests.Accept(c.Request().Context(), ident, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, acceptRequestResponse{ConversationID: conversationID})
}

// Deny handles DELETE /v1/requests/:id.
//
// @Summary      Deny a friend request
// @Tags         requests
// @Security     BearerAuth
// @Param        id  path  string  true  "Request id"
// @Success      204
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/requests/{id} [delete]
func (h *RequestHandler) Deny(c echo.Context) error {
	ident, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	if err := h.requests.Deny(c.Request().Context(), ident, c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// List handles GET /v1/requests: the caller's pending requests with sender
// profiles.
//
// @Summary      List pending friend requests
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   pendingRequestResponse
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /v1/requests [get]
func (h *RequestHandler) List(c echo.Context) error {
	ident, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	pending, err := h.queries.ListPending(c.Request().Context(), ident)
	if err != nil {
		return err
	}

	resp := make([]pendingRequestResponse, 0, len(pending))
	for _, p := range pending {
		resp = append(resp, pendingRequestResponse{
			RequestID: p.Request.ID,
			Sender: senderResponse{
				ID:       p.Sender.ID,
				Email:    p.Sender.Email,
				Username: p.Sender.Username,
				ImageURL: p.Sender.ImageURL,
			},
		})
	}

	return c.JSON(http.StatusOK, resp)
}

// Count handles GET /v1/requests/count.
//
// @Summary      Count pending friend requests
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  countResponse
// @Failure      401  {object}  map[string]string
// @Router       /v1/requests/count [get]
func (h *RequestHandler) Count(c echo.Context) error {
	ident, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	n, err := h.queries.CountPending(c.Request().Context(), ident)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, countResponse{Count: n})
}
