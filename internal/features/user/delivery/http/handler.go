package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"user-account-service/internal/common/errors"
	"user-account-service/internal/common/middleware"
	"user-account-service/internal/features/user/mapper"
	"user-account-service/internal/features/user/models"
	"user-account-service/internal/features/user/service"
)

const msgBadBirthday = "Incorrect format for birthday YYYY-MM-DD"

type UserHandler struct {
	service service.UserService
}

func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

func (h *UserHandler) RegisterRoutes(router gin.IRouter) {
	router.POST("/users", h.CreateUser)
	router.POST("/registered-users", h.CheckUser)

	users := router.Group("/users")
	users.Use(middleware.RequireToken())
	{
		users.GET("", h.GetUsers)
		users.GET("/:userId", h.GetUser)
		users.PUT("/:userId", h.UpdateUser)
		users.POST("/:userId/logout", h.LogoutUser)
	}
}

// @Summary List users
// @Description Returns every registered account
// @Tags users
// @Produce json
// @Param token query string true "Session token"
// @Success 200 {array} models.UserGetDTO "Users"
// @Failure 400 {object} models.ErrorResponse "Missing token"
// @Failure 401 {object} models.ErrorResponse "Unknown token"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /users [get]
func (h *UserHandler) GetUsers(c *gin.Context) {
	users, err := h.service.GetUsers(c.Request.Context(), middleware.Token(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, mapper.ToUserGetDTOs(users))
}

// @Summary Get user by ID
// @Description Get user information by ID
// @Tags users
// @Produce json
// @Param userId path int true "User ID"
// @Param token query string true "Session token"
// @Success 200 {object} models.UserGetDTO "User data"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 401 {object} models.ErrorResponse "Unknown token"
// @Failure 404 {object} models.ErrorResponse "User not found"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /users/{userId} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}

	user, err := h.service.GetUser(c.Request.Context(), id, middleware.Token(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, mapper.ToUserGetDTO(user))
}

// @Summary Create user
// @Description Registers a new account. The account starts ONLINE with a fresh token.
// @Tags users
// @Accept json
// @Produce json
// @Param user body models.UserPostDTO true "Credentials"
// @Success 201 {object} models.UserGetDTO "Created user"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 409 {object} models.ErrorResponse "Username taken"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req models.UserPostDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errors.NewBadRequestError("Invalid request body").WithDetail("reason", err.Error()))
		return
	}

	user, err := h.service.CreateUser(c.Request.Context(), mapper.ToCredentials(&req))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, mapper.ToUserGetDTO(user))
}

// @Summary Update user
// @Description Changes username and/or birthday. An empty birthday clears it.
// @Tags users
// @Accept json
// @Param userId path int true "User ID"
// @Param token query string true "Session token"
// @Param user body models.UserPutDTO true "Fields to change"
// @Success 204 "Updated"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 401 {object} models.ErrorResponse "Unknown token"
// @Failure 404 {object} models.ErrorResponse "User not found"
// @Failure 409 {object} models.ErrorResponse "Username taken"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /users/{userId} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}

	var req models.UserPutDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errors.NewBadRequestError("Invalid request body").WithDetail("reason", err.Error()))
		return
	}

	patch, err := mapper.ToUserPatch(&req)
	if err != nil {
		_ = c.Error(errors.NewBadRequestError(msgBadBirthday))
		return
	}

	if err := h.service.UpdateUser(c.Request.Context(), id, middleware.Token(c), patch); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Log in
// @Description Checks credentials and marks the account ONLINE
// @Tags users
// @Accept json
// @Produce json
// @Param user body models.UserPostDTO true "Credentials"
// @Success 200 {object} models.UserGetDTO "Logged in user"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 401 {object} models.ErrorResponse "Wrong password"
// @Failure 404 {object} models.ErrorResponse "Unknown username"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /registered-users [post]
func (h *UserHandler) CheckUser(c *gin.Context) {
	var req models.UserPostDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errors.NewBadRequestError("Invalid request body").WithDetail("reason", err.Error()))
		return
	}

	user, err := h.service.CheckUser(c.Request.Context(), mapper.ToCredentials(&req))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, mapper.ToUserGetDTO(user))
}

// @Summary Log out
// @Description Marks the account OFFLINE. The token must belong to the account.
// @Tags users
// @Param userId path int true "User ID"
// @Param token query string true "Session token"
// @Success 204 "Logged out"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 401 {object} models.ErrorResponse "Unknown token"
// @Failure 403 {object} models.ErrorResponse "Token belongs to another user"
// @Failure 404 {object} models.ErrorResponse "User not found"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /users/{userId}/logout [post]
func (h *UserHandler) LogoutUser(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}

	if err := h.service.LogoutUser(c.Request.Context(), id, middleware.Token(c)); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func userIDParam(c *gin.Context) (int64, bool) {
	raw := c.Param("userId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		_ = c.Error(errors.NewBadRequestError("Invalid user ID format").WithDetail("user_id", raw))
		return 0, false
	}
	return id, true
}
