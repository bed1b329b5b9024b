package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gridrelay/tictactoe/internal/api/models"
	"github.com/gridrelay/tictactoe/internal/api/response"
	"github.com/gridrelay/tictactoe/internal/api/service"
)

// UserController handles user-related HTTP requests.
type UserController struct {
	userService service.UserService
}

// NewUserController creates a new UserController.
func NewUserController(userService service.UserService) *UserController {
	return &UserController{userService: userService}
}

// Register handles the user registration endpoint.
func (uc *UserController) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := uc.userService.Register(c.Request.Context(), &req); err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, service.ErrUsernameTaken) {
			code = http.StatusConflict
		}
		response.Error(c, code, err.Error())
		return
	}

	response.Success(c, gin.H{"message": "user created successfully"})
}

// Login handles the user login endpoint.
func (uc *UserController) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	token, err := uc.userService.Login(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, err.Error())
		return
	}

	response.Success(c, models.LoginResponse{Token: token})
}

// GuestLogin handles guest login, returning a generated player ID.
func (uc *UserController) GuestLogin(c *gin.Context) {
	playerID, err := uc.userService.GuestLogin(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}

	response.Success(c, gin.H{"player_id": playerID})
}
