package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"playmatch/meetups/internal/auth"
	"playmatch/meetups/internal/meetup"
	"playmatch/meetups/internal/models"
	"playmatch/meetups/internal/storage/gormstore"
)

// Handler serves the REST API.
type Handler struct {
	db        *gorm.DB
	meetups   *meetup.Service
	sports    *gormstore.SportStore
	jwtSecret string
}

// New returns a Handler. db holds users; meetups may be backed by any registry.
func New(db *gorm.DB, meetups *meetup.Service, sports *gormstore.SportStore, jwtSecret string) *Handler {
	return &Handler{
		db:        db,
		meetups:   meetups,
		sports:    sports,
		jwtSecret: jwtSecret,
	}
}

// RegisterRoutes mounts the API v1 routes on router.
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	apiV1 := router.Group("/api/v1")
	{
		// Auth routes
		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/register", h.RegisterUser)
			authRoutes.POST("/login", h.LoginUser)
		}

		// User routes (protected)
		userRoutes := apiV1.Group("/users")
		userRoutes.Use(auth.AuthMiddleware(h.jwtSecret))
		{
			userRoutes.GET("/me", h.GetMe)
			userRoutes.GET("/me/meetups", h.GetMyMeetups)
			userRoutes.GET("/:id/meetups", h.GetUserMeetups)
		}

		// Public meetup reads
		publicMeetups := apiV1.Group("/meetups")
		publicMeetups.Use(auth.OptionalAuthMiddleware(h.jwtSecret))
		{
			publicMeetups.GET("", h.ListMeetups)
			publicMeetups.GET("/:id", h.GetMeetupByID)
		}

		// Meetup routes (protected)
		meetupRoutes := apiV1.Group("/meetups")
		meetupRoutes.Use(auth.AuthMiddleware(h.jwtSecret))
		{
			meetupRoutes.POST("", h.CreateMeetup)
			meetupRoutes.PUT("/:id", h.UpdateMeetup)
			meetupRoutes.DELETE("/:id", h.DeleteMeetup)
			meetupRoutes.POST("/:id/join", h.JoinMeetup)
			meetupRoutes.POST("/:id/leave", h.LeaveMeetup)
		}

		// Sport catalog
		sportRoutes := apiV1.Group("/sports")
		{
			sportRoutes.GET("", h.GetSports)
			sportRoutes.GET("/:slug", h.GetSportBySlug)
		}

		// Admin routes (protected by auth and admin check)
		adminRoutes := apiV1.Group("/admin")
		adminRoutes.Use(auth.AuthMiddleware(h.jwtSecret), auth.AdminMiddleware(h.db))
		{
			sports := adminRoutes.Group("/sports")
			{
				sports.POST("", h.CreateSport)
				sports.PUT("/:id", h.UpdateSport)
				sports.DELETE("/:id", h.DeleteSport)
			}
		}
	}
}

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Error string `json:"error" example:"An error message"`
}

// actor resolves the caller. Requests without a user ID are anonymous.
func (h *Handler) actor(c *gin.Context) (meetup.Actor, bool) {
	userID := auth.UserID(c)
	if userID == 0 {
		return meetup.Actor{}, true
	}

	var user models.User
	if err := h.db.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authenticated user not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		}
		return meetup.Actor{}, false
	}
	return meetup.Actor{ID: user.ID, Name: user.DisplayName()}, true
}

// respondError writes the status matching a domain error.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, meetup.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, meetup.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, meetup.ErrAuthorization):
		status = http.StatusForbidden
	case errors.Is(err, meetup.ErrCapacityExceeded),
		errors.Is(err, meetup.ErrAlreadyJoined),
		errors.Is(err, meetup.ErrNotParticipant),
		errors.Is(err, meetup.ErrHostCannotLeave),
		errors.Is(err, meetup.ErrEventNotJoinable),
		errors.Is(err, meetup.ErrAlreadyTerminal):
		status = http.StatusConflict
	case errors.Is(err, meetup.ErrTransient):
		c.Header("Retry-After", "1")
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed", slog.String("path", c.FullPath()), slog.Any("err", err))
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
