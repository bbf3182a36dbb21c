package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/GingerBreadIdeas/echker/docs"
	"github.com/GingerBreadIdeas/echker/internal/dto"
	"github.com/GingerBreadIdeas/echker/internal/queue"
	"github.com/GingerBreadIdeas/echker/internal/service"
)

const userIDKey = "user_id"

// Pinger reports storage liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services groups the service dependencies of the HTTP layer.
type Services struct {
	Prompts service.PromptServicer
	Users   service.UserServicer
	Chat    service.ChatServicer
	Auth    service.AuthServicer
	Health  Pinger
}

type Handler struct {
	services Services
	router   *gin.Engine
	log      *zap.Logger
}

func NewHandler(services Services, corsOrigin string, log *zap.Logger) *Handler {
	h := &Handler{
		services: services,
		router:   gin.Default(),
		log:      log,
	}

	h.router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{corsOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	h.registerRoutes()

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/api/health", h.healthCheck)
	h.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	h.router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := h.router.Group("/api/v1")
	v1.POST("/auth/login", h.login)
	v1.POST("/users", h.createUser)
	v1.GET("/users", h.listUsers)

	authed := v1.Group("", h.requireAuth)
	authed.POST("/prompt_check", h.promptCheck)
	authed.POST("/chat/messages", h.createMessage)
	authed.GET("/chat/messages", h.listMessages)
}

// requireAuth resolves the bearer token into the current user id
func (h *Handler) requireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error:   "unauthorized",
			Message: "missing bearer token",
		})
		return
	}

	userID, err := h.services.Auth.Authenticate(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error:   "unauthorized",
			Message: "invalid authentication credentials",
		})
		return
	}

	c.Set(userIDKey, userID)
	c.Next()
}

// healthCheck handles health check requests
// @Summary Health check
// @Description Check if the service and its store are reachable
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	if h.services.Health != nil {
		if err := h.services.Health.Ping(c.Request.Context()); err != nil {
			h.log.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{
				Error:   "unhealthy",
				Message: err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

// promptCheck handles POST /api/v1/prompt_check
//
// A 202 response guarantees the record is durably stored, not that the
// event reaches downstream consumers; delivery is best-effort.
// @Summary Submit a prompt for checking
// @Description Durably store a prompt record and queue it for asynchronous publication
// @Tags prompt_check
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param prompt body dto.PromptCheckRequest true "Prompt data"
// @Success 202 {object} dto.PromptCheckResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Failure 503 {object} dto.QueueFullResponse
// @Router /api/v1/prompt_check [post]
func (h *Handler) promptCheck(c *gin.Context) {
	var req dto.PromptCheckRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid prompt request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	userID := c.GetInt64(userIDKey)

	prompt, err := h.services.Prompts.Submit(c.Request.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, queue.ErrQueueFull) {
			// The record is stored; only the publish was refused. Surface
			// the stored id so the caller knows which record is durable.
			c.JSON(http.StatusServiceUnavailable, dto.QueueFullResponse{
				Error:   "queue_full",
				Message: "prompt stored but not queued for delivery",
				ID:      prompt.ID,
			})
			return
		}
		h.log.Error("Failed to submit prompt",
			zap.Int64("user_id", userID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "storage_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, dto.PromptCheckResponse{
		ID:        prompt.ID,
		Status:    "accepted",
		Content:   prompt.Content,
		CreatedAt: prompt.CreatedAt,
	})
}

// login handles POST /api/v1/auth/login
// @Summary Log in
// @Description Exchange email and password for an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.TokenResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/v1/auth/login [post]
func (h *Handler) login(c *gin.Context) {
	var req dto.LoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	token, err := h.services.Auth.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error:   "unauthorized",
				Message: "invalid authentication credentials",
			})
			return
		}
		h.log.Error("Login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, dto.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// createUser handles POST /api/v1/users
// @Summary Register a user
// @Tags users
// @Accept json
// @Produce json
// @Param user body dto.CreateUserRequest true "User data"
// @Success 201 {object} dto.UserResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/users [post]
func (h *Handler) createUser(c *gin.Context) {
	var req dto.CreateUserRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	user, err := h.services.Users.CreateUser(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "email_taken",
				Message: "email already registered",
			})
			return
		}
		h.log.Error("Failed to create user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, dto.UserResponse{
		ID:       user.ID,
		Email:    user.Email,
		IsActive: user.IsActive,
	})
}

// listUsers handles GET /api/v1/users
// @Summary List users
// @Tags users
// @Produce json
// @Param skip query int false "Offset" default(0)
// @Param limit query int false "Page size" default(100)
// @Success 200 {array} dto.UserResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/users [get]
func (h *Handler) listUsers(c *gin.Context) {
	var req dto.ListUsersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	users, err := h.services.Users.ListUsers(c.Request.Context(), req.Skip, req.Limit)
	if err != nil {
		h.log.Error("Failed to list users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	resp := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, dto.UserResponse{
			ID:       u.ID,
			Email:    u.Email,
			IsActive: u.IsActive,
		})
	}

	c.JSON(http.StatusOK, resp)
}

// createMessage handles POST /api/v1/chat/messages
// @Summary Create a chat message
// @Tags chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param message body dto.CreateMessageRequest true "Message data"
// @Success 201 {object} dto.MessageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/chat/messages [post]
func (h *Handler) createMessage(c *gin.Context) {
	var req dto.CreateMessageRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	userID := c.GetInt64(userIDKey)

	msg, err := h.services.Chat.CreateMessage(c.Request.Context(), userID, &req)
	if err != nil {
		h.log.Error("Failed to create message",
			zap.Int64("user_id", userID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, dto.MessageResponse{
		ID:        msg.ID,
		Role:      msg.Role,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	})
}

// listMessages handles GET /api/v1/chat/messages
// @Summary List the current user's chat messages
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.MessageResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/chat/messages [get]
func (h *Handler) listMessages(c *gin.Context) {
	userID := c.GetInt64(userIDKey)

	messages, err := h.services.Chat.ListMessages(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("Failed to list messages",
			zap.Int64("user_id", userID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	resp := make([]dto.MessageResponse, 0, len(messages))
	for _, m := range messages {
		resp = append(resp, dto.MessageResponse{
			ID:        m.ID,
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, resp)
}
