package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/katsura919/book-master-server/internal/auth"
)

// AuthController serves admin registration and login.
type AuthController struct {
	auth *auth.Service
}

func NewAuthController(service *auth.Service) *AuthController {
	return &AuthController{auth: service}
}

type registerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

// Register creates a new admin account.
func (controller *AuthController) Register(c *gin.Context) {
	var body registerRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	admin, err := controller.auth.Register(body.FirstName, body.LastName, body.Username, body.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrAdminExists):
			respondBadRequest(c, "username is already taken")
		case errors.Is(err, auth.ErrUsernameRequired),
			errors.Is(err, auth.ErrPasswordRequired),
			errors.Is(err, auth.ErrUsernameInvalid),
			errors.Is(err, auth.ErrPasswordTooShort),
			errors.Is(err, auth.ErrPasswordTooLong):
			respondBadRequest(c, err.Error())
		default:
			respondInternalError(c, err, "register admin")
		}
		return
	}
	respondCreated(c, gin.H{"message": "Admin registered successfully", "admin": admin})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login validates credentials and issues a bearer token.
func (controller *AuthController) Login(c *gin.Context) {
	var body loginRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	token, admin, err := controller.auth.Login(body.Username, body.Password)
	if err != nil {
		if errors.Is(err, auth.ErrAdminNotFound) || errors.Is(err, auth.ErrInvalidPassword) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid username or password"})
			return
		}
		respondInternalError(c, err, "login")
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "admin": admin})
}
