package handler

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/weiawesome/chat-relay/internal/auth"
	"github.com/weiawesome/chat-relay/internal/domain"
	"github.com/weiawesome/chat-relay/internal/history"
	"github.com/weiawesome/chat-relay/internal/storage"
	"github.com/weiawesome/chat-relay/internal/users"
	"github.com/weiawesome/chat-relay/pkg/log"
)

// HTTPHandler serves the REST surface around the relay: registration,
// login, chat history and media upload.
type HTTPHandler struct {
	userService    users.Service
	historyService history.Service
	store          storage.Storage
	tokens         *auth.Manager
}

// NewHTTPHandler creates the REST handler.
func NewHTTPHandler(userService users.Service, historyService history.Service, store storage.Storage, tokens *auth.Manager) *HTTPHandler {
	return &HTTPHandler{
		userService:    userService,
		historyService: historyService,
		store:          store,
		tokens:         tokens,
	}
}

// RegisterRoutes mounts the REST routes.
func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)
		api.POST("/auth/refresh", h.Refresh)

		protected := api.Group("", auth.RequireAuth(h.tokens))
		{
			protected.GET("/auth/me", h.Me)
			protected.GET("/messages", h.GetMessages)
			protected.POST("/upload", h.Upload)
		}
	}

	r.GET("/health", h.HealthCheck)
}

// Register creates a new user.
func (h *HTTPHandler) Register(c *gin.Context) {
	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, domain.APIResponse{
			Success: false,
			Error:   "username and password required",
		})
		return
	}

	resp, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, users.ErrUsernameTaken) {
			c.JSON(http.StatusBadRequest, domain.APIResponse{
				Success: false,
				Error:   "username already exists",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, domain.APIResponse{
			Success: false,
			Error:   "failed to register user",
		})
		return
	}

	c.JSON(http.StatusCreated, domain.APIResponse{Success: true, Data: resp})
}

// Login authenticates a user.
func (h *HTTPHandler) Login(c *gin.Context) {
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, domain.APIResponse{
			Success: false,
			Error:   "username and password required",
		})
		return
	}

	resp, err := h.userService.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, domain.APIResponse{
				Success: false,
				Error:   "invalid credentials",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, domain.APIResponse{
			Success: false,
			Error:   "failed to login",
		})
		return
	}

	c.JSON(http.StatusOK, domain.APIResponse{Success: true, Data: resp})
}

// Refresh rotates a token pair.
func (h *HTTPHandler) Refresh(c *gin.Context) {
	var req domain.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, domain.APIResponse{
			Success: false,
			Error:   "refresh_token required",
		})
		return
	}

	resp, err := h.userService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, domain.APIResponse{
			Success: false,
			Error:   "invalid refresh token",
		})
		return
	}

	c.JSON(http.StatusOK, domain.APIResponse{Success: true, Data: resp})
}

// Me confirms the caller's identity.
func (h *HTTPHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, domain.APIResponse{
		Success: true,
		Data:    gin.H{"message": fmt.Sprintf("Hello %s!", auth.GetUsername(c))},
	})
}

// GetMessages returns recent chat history, oldest-first, with display
// timestamps computed at query time.
func (h *HTTPHandler) GetMessages(c *gin.Context) {
	limit := history.DefaultLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, domain.APIResponse{
				Success: false,
				Error:   "limit must be a positive integer",
			})
			return
		}
		limit = parsed
	}

	entries, err := h.historyService.Recent(c.Request.Context(), limit)
	if err != nil {
		log.Ctx(c.Request.Context()).Error().Err(err).Msg("failed to get chat history")
		c.JSON(http.StatusInternalServerError, domain.APIResponse{
			Success: false,
			Error:   "failed to get chat history",
		})
		return
	}

	c.JSON(http.StatusOK, domain.APIResponse{Success: true, Data: entries})
}

// Upload stores a media file and returns its URL.
func (h *HTTPHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, domain.APIResponse{
			Success: false,
			Error:   "no file provided",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, domain.APIResponse{
			Success: false,
			Error:   "failed to read file",
		})
		return
	}
	defer file.Close()

	key := fmt.Sprintf("uploads/%s%s", uuid.New().String(), filepath.Ext(fileHeader.Filename))
	contentType := fileHeader.Header.Get("Content-Type")

	ctx := c.Request.Context()
	if err := h.store.Save(ctx, key, file, fileHeader.Size, contentType); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to store upload")
		c.JSON(http.StatusInternalServerError, domain.APIResponse{
			Success: false,
			Error:   "failed to store file",
		})
		return
	}

	url, err := h.store.URL(ctx, key)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to resolve upload url")
		c.JSON(http.StatusInternalServerError, domain.APIResponse{
			Success: false,
			Error:   "failed to resolve file url",
		})
		return
	}

	c.JSON(http.StatusCreated, domain.APIResponse{
		Success: true,
		Data:    gin.H{"file": url},
	})
}

// HealthCheck reports liveness.
func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
