package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"holdem-service/internal/middleware"
	"holdem-service/internal/service"
	usersvc "holdem-service/internal/service/user"
	"holdem-service/internal/ws"
	appErr "holdem-service/pkg/errors"
	"holdem-service/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	services *service.Container
}

func RegisterRoutes(r *gin.Engine, services *service.Container, hub *ws.Hub) {
	handler := &Handler{services: services}
	wsHandler := ws.NewHandler(services, hub)

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong"})
	})

	v1 := r.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", handler.Register)
			authGroup.POST("/login", handler.Login)
			authGroup.POST("/logout", handler.Logout)
		}

		userGroup := v1.Group("/user")
		userGroup.Use(middleware.AuthRequired())
		{
			userGroup.GET("/profile", handler.GetProfile)
			userGroup.PUT("/profile", handler.UpdateProfile)
		}

		v1.GET("/tables", handler.ListTables)
	}

	adminGroup := r.Group("/admin")
	{
		adminGroup.POST("/auth/login", handler.AdminLogin)

		protected := adminGroup.Group("/")
		protected.Use(middleware.AdminAuthRequired())
		{
			protected.GET("/users", handler.AdminListUsers)
			protected.DELETE("/users/:id", handler.AdminDeleteUser)

			protected.GET("/tables", handler.AdminListTables)
			protected.POST("/tables/:id/terminate", handler.AdminTerminateTable)
			protected.GET("/tables/:id/hands", handler.AdminListHands)
		}
	}

	r.GET("/ws", wsHandler.HandleWS)
}

type registerBody struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

type loginBody struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type updateProfileBody struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type adminLoginBody struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Register(c *gin.Context) {
	var body registerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.services.Auth.Register(c.Request.Context(), body.Username, body.Email, body.Password)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, appErr.ErrUserExists):
			status = http.StatusConflict
		case errors.Is(err, appErr.ErrInvalidCredentials):
			status = http.StatusBadRequest
		case errors.Is(err, appErr.ErrPersistenceDisabled):
			status = http.StatusServiceUnavailable
		}
		response.Error(c, status, err.Error())
		return
	}
	response.Success(c, resp)
}

func (h *Handler) Login(c *gin.Context) {
	var body loginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.services.Auth.Login(c.Request.Context(), body.Username, body.Password)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, appErr.ErrInvalidCredentials):
			status = http.StatusUnauthorized
		case errors.Is(err, appErr.ErrPersistenceDisabled):
			status = http.StatusServiceUnavailable
		}
		response.Error(c, status, err.Error())
		return
	}
	response.Success(c, resp)
}

func (h *Handler) Logout(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "missing token")
		return
	}
	if err := h.services.Auth.Logout(c.Request.Context(), token); err != nil {
		response.Error(c, http.StatusInternalServerError, "logout failed")
		return
	}
	response.SuccessWithMsg(c, gin.H{}, "logged out")
}

func (h *Handler) GetProfile(c *gin.Context) {
	userID := c.GetInt64(middleware.ContextUserIDKey)

	user, err := h.services.User.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, appErr.ErrUserNotFound) {
			response.Error(c, http.StatusNotFound, "user not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "failed to load profile")
		return
	}
	response.Success(c, user)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	userID := c.GetInt64(middleware.ContextUserIDKey)

	var body updateProfileBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.services.User.UpdateProfile(c.Request.Context(), userID, usersvc.UpdateProfileRequest{
		Username: body.Username,
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, appErr.ErrUserNotFound):
			status = http.StatusNotFound
		case errors.Is(err, appErr.ErrInvalidProfileUpdate):
			status = http.StatusBadRequest
		case errors.Is(err, appErr.ErrUserExists):
			status = http.StatusConflict
		}
		response.Error(c, status, err.Error())
		return
	}
	response.Success(c, user)
}

func (h *Handler) ListTables(c *gin.Context) {
	response.Success(c, h.services.Tables.List())
}

func (h *Handler) AdminLogin(c *gin.Context) {
	var body adminLoginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.services.Admin.Login(c.Request.Context(), body.Username, body.Password)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, appErr.ErrAdminNotFound), errors.Is(err, appErr.ErrInvalidAdminPassword):
			status = http.StatusUnauthorized
		case errors.Is(err, appErr.ErrAdminDisabled):
			status = http.StatusForbidden
		case errors.Is(err, appErr.ErrPersistenceDisabled):
			status = http.StatusServiceUnavailable
		}
		response.Error(c, status, err.Error())
		return
	}
	response.Success(c, resp)
}

func (h *Handler) AdminListUsers(c *gin.Context) {
	users, err := h.services.Admin.ListUsers(c.Request.Context())
	if err != nil {
		if errors.Is(err, appErr.ErrPersistenceDisabled) {
			response.Error(c, http.StatusServiceUnavailable, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, "failed to list users")
		return
	}
	response.Success(c, users)
}

func (h *Handler) AdminDeleteUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || userID <= 0 {
		response.Error(c, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.services.Admin.DeleteUser(c.Request.Context(), userID); err != nil {
		switch {
		case errors.Is(err, appErr.ErrUserNotFound):
			response.Error(c, http.StatusNotFound, "user not found")
		case errors.Is(err, appErr.ErrPersistenceDisabled):
			response.Error(c, http.StatusServiceUnavailable, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, "failed to delete user")
		}
		return
	}
	response.SuccessWithMsg(c, gin.H{}, "user deleted")
}

// AdminListTables exposes seat, chip, and round state for the operator
// console. Hole cards stay hidden here just like in the player views.
func (h *Handler) AdminListTables(c *gin.Context) {
	response.Success(c, h.services.Tables.Audit())
}

func (h *Handler) AdminTerminateTable(c *gin.Context) {
	tableID := strings.TrimSpace(c.Param("id"))
	if tableID == "" {
		response.Error(c, http.StatusBadRequest, "invalid table id")
		return
	}

	if err := h.services.Tables.ForceTerminate(tableID); err != nil {
		if errors.Is(err, appErr.ErrTableNotFound) {
			response.Error(c, http.StatusNotFound, "table not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "failed to terminate table")
		return
	}
	response.SuccessWithMsg(c, gin.H{}, "table terminated")
}

func (h *Handler) AdminListHands(c *gin.Context) {
	tableID := strings.TrimSpace(c.Param("id"))
	if tableID == "" {
		response.Error(c, http.StatusBadRequest, "invalid table id")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	logs, err := h.services.History.ListByTable(c.Request.Context(), tableID, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to list hands")
		return
	}
	response.Success(c, logs)
}

func bearerToken(c *gin.Context) string {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
