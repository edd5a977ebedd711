package api

import (
	"errors"

	"github.com/labstack/echo/v4"

	"classifieds-service/internal/entity"
	"classifieds-service/internal/service"
)

type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new instance of UserHandler
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

type createUserRequest struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
}

// CreateUser creates a new user --> POST /user/
func (h *UserHandler) CreateUser(c echo.Context) error {
	req := createUserRequest{}
	if err := decodeStrict(c, &req); err != nil || req.Name == nil || req.Password == nil {
		return invalidPayload(c)
	}

	user := entity.User{Name: *req.Name, Password: *req.Password}
	createdUser, err := h.userService.CreateUser(c.Request().Context(), sessionFrom(c), &user)
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			return c.JSON(409, map[string]string{"error": "User already exists"})
		}
		return err
	}

	return c.JSON(200, map[string]int64{"id": createdUser.ID})
}

// GetUser --> GET /user/:id
func (h *UserHandler) GetUser(c echo.Context) error {
	return notImplemented(c)
}

// UpdateUser --> PATCH /user/:id
func (h *UserHandler) UpdateUser(c echo.Context) error {
	return notImplemented(c)
}

// DeleteUser --> DELETE /user/:id
func (h *UserHandler) DeleteUser(c echo.Context) error {
	return notImplemented(c)
}

// notImplemented answers the user routes that have no storage operation behind them.
func notImplemented(c echo.Context) error {
	if _, err := pathID(c); err != nil {
		return err
	}
	return c.JSON(501, map[string]string{"error": "Not implemented"})
}
