package http

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"user-backend/internal/domain"
	"user-backend/internal/service"
	"user-backend/internal/storage"
)

const avatarURLTTL = 24 * time.Hour

// Handler wires HTTP routes to domain services.
type Handler struct {
	users     service.UserService
	comments  service.CommentService
	avatars   storage.Service
	bucket    string
	keyPrefix string
}

func NewHandler(users service.UserService, comments service.CommentService, avatars storage.Service, bucket, keyPrefix string) *Handler {
	return &Handler{
		users:     users,
		comments:  comments,
		avatars:   avatars,
		bucket:    bucket,
		keyPrefix: keyPrefix,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	api := router.Group("/api")
	{
		api.POST("/users", h.createUser)
		api.GET("/users/:uid", h.getUser)
		api.POST("/users/addcomment", h.addComment)
		api.POST("/users/login", h.login)
		api.POST("/avatars", h.uploadAvatar)
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

type createUserRequest struct {
	Username          string  `json:"username"`
	FullName          string  `json:"fullname"`
	Email             string  `json:"email"`
	Password          string  `json:"password"`
	PrincipalInterest string  `json:"principalInterest"`
	ProfilePicture    *string `json:"profilePicture"`
}

type addCommentRequest struct {
	Account string `json:"account"`
	Name    string `json:"name"`
	Comment string `json:"comment"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse mirrors the persisted user document, password excluded.
type UserResponse struct {
	ID                string  `json:"id"`
	Username          string  `json:"username"`
	FullName          string  `json:"fullname"`
	Email             string  `json:"email"`
	PrincipalInterest string  `json:"principalInterest"`
	ProfilePicture    *string `json:"profilePicture"`
	UID               string  `json:"uid"`
}

func (h *Handler) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body.", "error": err.Error()})
		return
	}

	user, err := h.users.Create(c.Request.Context(), service.CreateUserInput{
		Username:          req.Username,
		FullName:          req.FullName,
		Email:             req.Email,
		Password:          req.Password,
		PrincipalInterest: req.PrincipalInterest,
		ProfilePicture:    req.ProfilePicture,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully!",
		"user":    userToResponse(user),
	})
}

func (h *Handler) getUser(c *gin.Context) {
	user, err := h.users.GetByExternalID(c.Request.Context(), c.Param("uid"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userToResponse(user)})
}

func (h *Handler) addComment(c *gin.Context) {
	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body.", "error": err.Error()})
		return
	}

	created, err := h.comments.Upsert(c.Request.Context(), domain.Comment{
		Account: req.Account,
		Name:    req.Name,
		Comment: req.Comment,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	if created {
		c.JSON(http.StatusCreated, gin.H{"message": "Comment added successfully."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment updated successfully."})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body.", "error": err.Error()})
		return
	}

	cred, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"uid": cred.ExternalID, "token": cred.IDToken})
}

func (h *Handler) uploadAvatar(c *gin.Context) {
	if h.avatars == nil || h.bucket == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Avatar storage is not configured."})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "An image file is required.", "error": err.Error()})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error", "error": err.Error()})
		return
	}
	defer src.Close()

	key := fmt.Sprintf("%s/%s%s", h.keyPrefix, uuid.NewString(), filepath.Ext(file.Filename))
	if _, err := h.avatars.Upload(c.Request.Context(), h.bucket, key, file.Header.Get("Content-Type"), src); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error", "error": err.Error()})
		return
	}

	url, err := h.avatars.PresignGet(c.Request.Context(), h.bucket, key, avatarURLTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error", "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"key": key, "url": url})
}

// writeError maps the domain error taxonomy to status codes. Anything outside
// the taxonomy is a dependency failure; its diagnostic rides along for
// operator visibility but is not a stable contract.
func (h *Handler) writeError(c *gin.Context, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"message": ve.Error()})
	case errors.Is(err, domain.ErrDuplicateEmail):
		c.JSON(http.StatusConflict, gin.H{"message": "Email already registered."})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found."})
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials."})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error", "error": err.Error()})
	}
}

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:                user.RecordID,
		Username:          user.Username,
		FullName:          user.FullName,
		Email:             user.Email,
		PrincipalInterest: user.PrincipalInterest,
		ProfilePicture:    user.ProfilePicture,
		UID:               user.ExternalID,
	}
}
